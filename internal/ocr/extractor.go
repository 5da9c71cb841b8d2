// Package ocr pulls on-screen text out of video frames with Tesseract.
package ocr

import (
	"context"
	"fmt"
	log "log/slog"
	"os"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/healthfc/misinfoscan/internal/media"
)

// Extractor samples frames from a clip and runs OCR on each one.
type Extractor struct {
	Languages []string // tesseract language codes, default ["eng"]
	SampleFPS float64  // frames per second to sample, default 1.0
}

// VisualText is the on-screen text found across sampled frames.
type VisualText struct {
	All        string   // every line, in frame order
	Unique     []string // deduplicated lines, first-seen order
	FrameCount int
}

// ExtractText samples frames at SampleFPS and OCRs each frame. Frames that
// fail OCR are skipped; only a wholly failed frame extraction is an error.
func (e *Extractor) ExtractText(ctx context.Context, videoPath string) (VisualText, error) {
	dir, err := os.MkdirTemp("", "misinfoscan-ocr-*")
	if err != nil {
		return VisualText{}, err
	}
	defer os.RemoveAll(dir)

	frames, err := media.ExtractFrames(ctx, videoPath, dir, e.SampleFPS)
	if err != nil {
		return VisualText{}, fmt.Errorf("sample frames: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()
	langs := e.Languages
	if len(langs) == 0 {
		langs = []string{"eng"}
	}
	if err := client.SetLanguage(langs...); err != nil {
		return VisualText{}, fmt.Errorf("set ocr language: %w", err)
	}

	var all []string
	seen := make(map[string]bool)
	var unique []string
	for _, frame := range frames {
		if err := client.SetImage(frame); err != nil {
			log.Warn("ocr: skipping frame", "frame", frame, "err", err)
			continue
		}
		text, err := client.Text()
		if err != nil {
			log.Warn("ocr: skipping frame", "frame", frame, "err", err)
			continue
		}
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			all = append(all, line)
			if !seen[line] {
				seen[line] = true
				unique = append(unique, line)
			}
		}
	}
	return VisualText{
		All:        strings.Join(all, "\n"),
		Unique:     unique,
		FrameCount: len(frames),
	}, nil
}
