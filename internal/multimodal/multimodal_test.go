package multimodal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombined(t *testing.T) {
	both := Content{AudioTranscript: "spoken words", VisualText: "BANNER TEXT"}
	assert.Equal(t, "[AUDIO TRANSCRIPT]\nspoken words\n\n[ON-SCREEN TEXT]\nBANNER TEXT", both.Combined())

	audioOnly := Content{AudioTranscript: "spoken words"}
	assert.Equal(t, "[AUDIO TRANSCRIPT]\nspoken words", audioOnly.Combined())

	visualOnly := Content{VisualText: "BANNER TEXT"}
	assert.Equal(t, "[ON-SCREEN TEXT]\nBANNER TEXT", visualOnly.Combined())

	assert.Equal(t, "", Content{}.Combined())
	assert.Equal(t, "", Content{AudioTranscript: "  \n"}.Combined())
}

func TestExtractWithoutOCR(t *testing.T) {
	var e *Extractor
	c, err := e.Extract(context.Background(), "clip.mp4", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", c.AudioTranscript)
	assert.Empty(t, c.VisualText)
	assert.Equal(t, "[AUDIO TRANSCRIPT]\nhello", c.Combined())
}
