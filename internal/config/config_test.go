package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "batch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadBatch(t *testing.T) {
	path := writeConfig(t, `
input_dir: data/clips
out: experiments/exp-004/results.csv
prompt: fewshot
model_name: mistral
temperature: 0.2
provider: ollama
multimodal: true
`)
	b, err := LoadBatch(path)
	require.NoError(t, err)
	assert.Equal(t, "data/clips", b.InputDir)
	assert.Equal(t, "experiments/exp-004/results.csv", b.Out)
	assert.Equal(t, "fewshot", b.Prompt)
	assert.Equal(t, "mistral", b.ModelName)
	assert.Equal(t, 0.2, b.Temperature)
	assert.Equal(t, "ollama", b.Provider)
	assert.True(t, b.Multimodal)
}

func TestLoadBatchDefaults(t *testing.T) {
	path := writeConfig(t, "input_dir: data/clips\n")
	b, err := LoadBatch(path)
	require.NoError(t, err)
	assert.Equal(t, "baseline", b.Prompt)
	assert.Equal(t, "mistral", b.ModelName)
	assert.Equal(t, "ollama", b.Provider)
	assert.Equal(t, 0.0, b.Temperature)
	assert.False(t, b.Multimodal)
}

func TestLoadBatchEnvOverride(t *testing.T) {
	path := writeConfig(t, "prompt: baseline\n")
	t.Setenv("MISINFOSCAN_PROMPT", "enhanced_cot")
	b, err := LoadBatch(path)
	require.NoError(t, err)
	assert.Equal(t, "enhanced_cot", b.Prompt)
}

func TestLoadBatchMissingFile(t *testing.T) {
	_, err := LoadBatch(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadSettingsDefaults(t *testing.T) {
	for _, k := range []string{"WHISPER_MODEL", "GPT_MODEL", "GEMINI_MODEL", "OLLAMA_MODEL", "MAX_UPLOAD_MB"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	s := LoadSettings()
	assert.Equal(t, "base", s.WhisperModel)
	assert.Equal(t, "gpt-3.5-turbo", s.GPTModel)
	assert.Equal(t, "gemini-pro", s.GeminiModel)
	assert.Equal(t, "mistral", s.OllamaModel)
	assert.Equal(t, 200, s.MaxUploadMB)
}

func TestLoadSettingsGeminiKeyFallback(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	os.Unsetenv("GEMINI_API_KEY")
	t.Setenv("GOOGLE_API_KEY", "g-key")
	s := LoadSettings()
	assert.Equal(t, "g-key", s.GeminiKey)
}
