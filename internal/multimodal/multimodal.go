// Package multimodal combines audio transcripts with on-screen text so both
// modalities reach the classifier.
package multimodal

import (
	"context"
	"strings"

	"github.com/healthfc/misinfoscan/internal/ocr"
)

// Content holds both modalities for one clip.
type Content struct {
	AudioTranscript string
	VisualText      string
	VisualUnique    []string
	FrameCount      int
}

// Combined renders the content the classifier sees: labeled sections for each
// modality that is present.
func (c Content) Combined() string {
	var parts []string
	if strings.TrimSpace(c.AudioTranscript) != "" {
		parts = append(parts, "[AUDIO TRANSCRIPT]\n"+strings.TrimSpace(c.AudioTranscript))
	}
	if strings.TrimSpace(c.VisualText) != "" {
		parts = append(parts, "[ON-SCREEN TEXT]\n"+strings.TrimSpace(c.VisualText))
	}
	return strings.Join(parts, "\n\n")
}

// Extractor augments an audio transcript with OCR output.
type Extractor struct {
	OCR *ocr.Extractor
}

// Extract runs OCR on the clip and merges the result with the already
// produced transcript. An OCR failure degrades to audio-only content.
func (e *Extractor) Extract(ctx context.Context, videoPath, transcript string) (Content, error) {
	c := Content{AudioTranscript: transcript}
	if e == nil || e.OCR == nil {
		return c, nil
	}
	vt, err := e.OCR.ExtractText(ctx, videoPath)
	if err != nil {
		return c, err
	}
	c.VisualText = vt.All
	c.VisualUnique = vt.Unique
	c.FrameCount = vt.FrameCount
	return c, nil
}
