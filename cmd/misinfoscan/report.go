package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/healthfc/misinfoscan/internal/batch"
	"github.com/healthfc/misinfoscan/internal/report"
)

func newReportCmd() *cobra.Command {
	var (
		outPath  string
		jsonPath string
		topN     int
	)
	cmd := &cobra.Command{
		Use:   "report <results.csv>",
		Short: "Summarize a results CSV into a markdown report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			csvPath := args[0]
			records, err := batch.ReadCSVFile(csvPath)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return fmt.Errorf("%s holds no records", csvPath)
			}

			summary := report.Summarize(records, topN)
			meta := report.Metadata{
				Title:     strings.TrimSuffix(filepath.Base(csvPath), filepath.Ext(csvPath)),
				Source:    csvPath,
				Generated: time.Now().Format(time.RFC3339),
			}
			doc := report.RenderMarkdown(meta, records, summary)

			if outPath == "" {
				fmt.Fprint(cmd.OutOrStdout(), doc)
			} else {
				if err := os.WriteFile(outPath, []byte(doc), 0o644); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				ok("wrote report to %s", outPath)
			}

			if jsonPath != "" {
				buf, err := json.MarshalIndent(summary, "", "  ")
				if err != nil {
					return err
				}
				if err := os.WriteFile(jsonPath, buf, 0o644); err != nil {
					return fmt.Errorf("write summary json: %w", err)
				}
				ok("wrote summary json to %s", jsonPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write markdown here instead of stdout")
	cmd.Flags().StringVar(&jsonPath, "json", "", "also write the aggregate summary as JSON")
	cmd.Flags().IntVar(&topN, "top", 15, "keywords to keep in the keyword network")
	return cmd
}
