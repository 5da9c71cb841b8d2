package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/healthfc/misinfoscan/internal/batch"
	"github.com/healthfc/misinfoscan/internal/classify"
	"github.com/healthfc/misinfoscan/internal/config"
	"github.com/healthfc/misinfoscan/internal/media"
	"github.com/healthfc/misinfoscan/internal/multimodal"
	"github.com/healthfc/misinfoscan/internal/ocr"
	"github.com/healthfc/misinfoscan/internal/report"
	"github.com/healthfc/misinfoscan/internal/transcribe"
)

func newRunCmd() *cobra.Command {
	var (
		configPath string
		keepAudio  bool
		markdown   string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Analyze a directory of clips and write a CSV of results",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, configPath, keepAudio, markdown)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "batch.yaml", "batch config file")
	cmd.Flags().BoolVar(&keepAudio, "keep-audio", false, "keep extracted wav files")
	cmd.Flags().StringVar(&markdown, "markdown", "", "also write a markdown report to this path")
	return cmd
}

func runBatch(cmd *cobra.Command, configPath string, keepAudio bool, markdown string) error {
	cfg, err := config.LoadBatch(configPath)
	if err != nil {
		return err
	}
	settings := config.LoadSettings()

	kind, err := classify.ParseKind(cfg.Provider)
	if err != nil {
		return err
	}
	provider, err := buildProvider(kind, cfg, settings)
	if err != nil {
		return err
	}
	backend := buildBackend(kind, settings)
	info("provider %s, transcription via %s", provider.Name(), backend.Name())

	files, err := batch.ListInputs(cfg.InputDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no mp4, mp3, wav, or m4a files under %s", cfg.InputDir)
	}
	info("found %d input file(s) under %s", len(files), cfg.InputDir)

	tmpDir, err := os.MkdirTemp("", "misinfoscan-*")
	if err != nil {
		return err
	}
	if !keepAudio {
		defer os.RemoveAll(tmpDir)
	}

	var mm *multimodal.Extractor
	if cfg.Multimodal {
		mm = &multimodal.Extractor{OCR: &ocr.Extractor{}}
		info("multimodal mode on, sampling frames for on-screen text")
	}

	runner := &batch.Runner{
		Preparer:   &media.Preparer{TmpDir: tmpDir},
		Backend:    backend,
		Provider:   provider,
		System:     classify.BuildPrompt(cfg.Prompt),
		Multimodal: mm,
		KeepAudio:  keepAudio,
		Progress: func(i, total int, name string) {
			info("[%d/%d] %s", i+1, total, name)
		},
	}
	records := runner.Run(cmd.Context(), files)

	if err := batch.WriteCSVFile(cfg.Out, records); err != nil {
		return err
	}
	ok("wrote %d record(s) to %s", len(records), cfg.Out)

	failed := 0
	for _, r := range records {
		if r.Failed() {
			failed++
			warn("%s: %s", r.FileName, r.Err)
		}
	}
	if failed > 0 {
		warn("%d of %d file(s) failed; their rows carry default labels", failed, len(records))
	}

	if markdown != "" {
		meta := report.Metadata{
			Title:     strings.TrimSuffix(filepath.Base(cfg.Out), filepath.Ext(cfg.Out)),
			Source:    cfg.InputDir,
			Provider:  provider.Name(),
			Model:     cfg.ModelName,
			Prompt:    cfg.Prompt,
			Generated: time.Now().Format(time.RFC3339),
		}
		doc := report.RenderMarkdown(meta, records, report.Summarize(records, 15))
		if err := os.WriteFile(markdown, []byte(doc), 0o644); err != nil {
			return fmt.Errorf("write markdown report: %w", err)
		}
		ok("wrote markdown report to %s", markdown)
	}
	return nil
}

func buildProvider(kind classify.Kind, cfg config.Batch, settings config.Settings) (classify.Provider, error) {
	opts := classify.Options{
		Kind:        kind,
		Model:       cfg.ModelName,
		Temperature: cfg.Temperature,
		BaseURL:     settings.OllamaHost,
		Endpoint:    settings.AzureEndpoint,
	}
	switch kind {
	case classify.KindOpenAI:
		opts.APIKey = settings.OpenAIKey
		if opts.Model == "" {
			opts.Model = settings.GPTModel
		}
	case classify.KindAzure:
		opts.APIKey = settings.AzureKey
		if opts.Model == "" {
			opts.Model = settings.AzureDeployment
		}
	case classify.KindGemini:
		opts.APIKey = settings.GeminiKey
		if opts.Model == "" {
			opts.Model = settings.GeminiModel
		}
	case classify.KindOllama:
		if opts.Model == "" {
			opts.Model = settings.OllamaModel
		}
	}
	return classify.New(opts)
}

func buildBackend(kind classify.Kind, settings config.Settings) transcribe.Backend {
	if kind != classify.KindOllama && settings.OpenAIKey != "" {
		return transcribe.NewOpenAIBackend(settings.OpenAIKey, "whisper-1")
	}
	return transcribe.NewFasterWhisperBackend(settings.WhisperModel, "cpu")
}
