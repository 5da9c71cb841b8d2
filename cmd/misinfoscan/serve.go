package main

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/healthfc/misinfoscan/internal/config"
	"github.com/healthfc/misinfoscan/internal/multimodal"
	"github.com/healthfc/misinfoscan/internal/ocr"
	"github.com/healthfc/misinfoscan/internal/web"
)

func newServeCmd() *cobra.Command {
	var (
		addr         string
		multimodalOn bool
		debug        bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the browser UI for uploading and analyzing clips",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !debug {
				gin.SetMode(gin.ReleaseMode)
			}
			settings := config.LoadSettings()
			srv := web.NewServer(settings)
			if multimodalOn {
				srv.Multimodal = &multimodal.Extractor{OCR: &ocr.Extractor{}}
			}
			info("listening on %s (max upload %d MB)", addr, settings.MaxUploadMB)
			return srv.Run(addr)
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", ":8501", "listen address")
	cmd.Flags().BoolVar(&multimodalOn, "multimodal", false, "OCR sampled frames and include on-screen text")
	cmd.Flags().BoolVar(&debug, "debug", false, "verbose request logging")
	return cmd
}
