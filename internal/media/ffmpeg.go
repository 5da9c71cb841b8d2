// Package media shells out to ffmpeg/ffprobe for audio handling.
package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// ExtractAudio uses ffmpeg to extract mono 16kHz WAV from a video or audio
// file. Returns the path to the extracted file; the caller owns its lifetime.
func ExtractAudio(ctx context.Context, inputPath, tmpDir string) (string, error) {
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	out := filepath.Join(tmpDir, base+"_audio_16k.wav")

	// ffmpeg -y -loglevel error -i input -ac 1 -ar 16000 -f wav output
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y", "-loglevel", "error",
		"-i", inputPath,
		"-ac", "1", "-ar", "16000",
		"-f", "wav",
		out,
	)
	if b, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(string(b)))
	}
	return out, nil
}

// ProbeDuration returns the audio duration in seconds via ffprobe.
func ProbeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}
	sec, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe output %q: %w", strings.TrimSpace(string(out)), err)
	}
	return sec, nil
}

// ExtractFrames samples video frames at the given fps into dir as numbered
// PNG files and returns their paths in frame order.
func ExtractFrames(ctx context.Context, videoPath, dir string, fps float64) ([]string, error) {
	if fps <= 0 {
		fps = 1.0
	}
	pattern := filepath.Join(dir, "frame_%05d.png")
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y", "-loglevel", "error",
		"-i", videoPath,
		"-vf", fmt.Sprintf("fps=%g", fps),
		pattern,
	)
	if b, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("ffmpeg frames: %w: %s", err, strings.TrimSpace(string(b)))
	}
	frames, err := filepath.Glob(filepath.Join(dir, "frame_*.png"))
	if err != nil {
		return nil, err
	}
	return frames, nil
}

// Preparer converts an input clip into transcription-ready audio and probes
// its duration. It implements batch.AudioPreparer.
type Preparer struct {
	TmpDir string
}

// Prepare extracts 16k mono audio and returns its path and the clip duration
// in seconds (-1 when probing fails; the record still carries the transcript).
func (p Preparer) Prepare(ctx context.Context, inputPath string) (string, float64, error) {
	audio, err := ExtractAudio(ctx, inputPath, p.TmpDir)
	if err != nil {
		return "", -1, err
	}
	dur, err := ProbeDuration(ctx, audio)
	if err != nil {
		dur = -1
	}
	return audio, dur, nil
}
