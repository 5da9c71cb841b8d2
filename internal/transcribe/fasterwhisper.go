package transcribe

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

//go:embed assets/faster_whisper.py
var fwScript []byte

// Local faster-whisper (CTranslate2) through an embedded python helper.
// CPU/int8 by default to stay clear of CUDA setup problems.
type fasterWhisperBackend struct {
	model  string
	device string // auto|cpu|cuda
}

// NewFasterWhisperBackend runs faster-whisper locally. model is a model name
// or local path (e.g. base, base.en, medium).
func NewFasterWhisperBackend(model, device string) Backend {
	return &fasterWhisperBackend{model: model, device: device}
}

func (f *fasterWhisperBackend) Name() string { return "faster-whisper" }

type fwOut struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration"`
	Language string  `json:"language"`
}

func (f *fasterWhisperBackend) Transcribe(ctx context.Context, audioPath string) (Transcript, error) {
	scriptPath := filepath.Join(os.TempDir(), "misinfoscan_faster_whisper.py")
	if err := os.WriteFile(scriptPath, fwScript, 0o755); err != nil {
		return Transcript{}, fmt.Errorf("write helper script: %w", err)
	}
	defer os.Remove(scriptPath)

	device := f.device
	if device == "" {
		device = "cpu"
	}
	py := os.Getenv("MISINFOSCAN_PY")
	if py == "" {
		py = "python3"
	}
	cmd := exec.CommandContext(ctx, py, scriptPath, "--audio", audioPath, "--model", f.model, "--device", device)
	cmd.Env = os.Environ()
	out, err := cmd.Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			return Transcript{}, fmt.Errorf("faster-whisper failed: %s", strings.TrimSpace(string(ee.Stderr)))
		}
		return Transcript{}, fmt.Errorf("run helper: %w", err)
	}
	var parsed fwOut
	if err := json.Unmarshal(out, &parsed); err != nil {
		return Transcript{}, fmt.Errorf("parse helper output: %w\n%s", err, string(out))
	}
	return Transcript{Text: strings.TrimSpace(parsed.Text), DurationSec: parsed.Duration}, nil
}
