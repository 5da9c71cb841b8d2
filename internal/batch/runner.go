// Package batch runs the transcribe-then-classify pipeline over an ordered
// set of input files and assembles one AnalysisRecord per file.
package batch

import (
	"context"
	log "log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/healthfc/misinfoscan/internal/classify"
	"github.com/healthfc/misinfoscan/internal/model"
	"github.com/healthfc/misinfoscan/internal/multimodal"
	"github.com/healthfc/misinfoscan/internal/transcribe"
)

// inputExts are the clip extensions picked up from an input directory.
var inputExts = []string{".mp4", ".mp3", ".wav", ".m4a"}

// ListInputs returns the supported clips under dir, sorted and deduplicated.
// Extensions match case-insensitively, so CLIP.MP4 is picked up too.
func ListInputs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	supported := make(map[string]bool, len(inputExts))
	for _, ext := range inputExts {
		supported[ext] = true
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if supported[strings.ToLower(filepath.Ext(e.Name()))] {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

// AudioPreparer turns an input clip into transcription-ready audio and
// reports its duration in seconds.
type AudioPreparer interface {
	Prepare(ctx context.Context, inputPath string) (audioPath string, durationSec float64, err error)
}

// Progress is called before each file is processed.
type Progress func(index, total int, fileName string)

// Runner drives the per-file pipeline. Files are processed independently and
// strictly sequentially; the only shared state is the append-only result
// slice. A failure on one file never stops the ones after it.
type Runner struct {
	Preparer   AudioPreparer
	Backend    transcribe.Backend
	Provider   classify.Provider
	System     string // system prompt sent with every transcript
	Multimodal *multimodal.Extractor
	Progress   Progress

	// KeepAudio leaves extracted audio files on disk (debugging).
	KeepAudio bool
}

// Run processes files in order and returns one record per file, in the same
// order. Per-file failures are persisted into the record (default result +
// Err note) rather than returned.
func (r *Runner) Run(ctx context.Context, files []string) []model.AnalysisRecord {
	records := make([]model.AnalysisRecord, 0, len(files))
	for i, path := range files {
		if r.Progress != nil {
			r.Progress(i, len(files), filepath.Base(path))
		}
		records = append(records, r.processOne(ctx, path))
	}
	return records
}

func (r *Runner) processOne(ctx context.Context, path string) model.AnalysisRecord {
	rec := model.AnalysisRecord{
		FileName:       filepath.Base(path),
		AudioLengthSec: -1,
		Result:         model.DefaultResult(),
	}

	audioPath, dur, err := r.Preparer.Prepare(ctx, path)
	if err != nil {
		log.Warn("audio extraction failed", "file", rec.FileName, "err", err)
		rec.Err = "prepare audio: " + err.Error()
		return rec
	}
	if !r.KeepAudio {
		defer os.Remove(audioPath)
	}
	rec.AudioLengthSec = dur

	tr, err := r.Backend.Transcribe(ctx, audioPath)
	if err != nil {
		log.Warn("transcription failed", "file", rec.FileName, "backend", r.Backend.Name(), "err", err)
		rec.Err = "transcribe: " + err.Error()
		return rec
	}
	rec.Transcript = tr.Text
	if rec.AudioLengthSec < 0 && tr.DurationSec >= 0 {
		rec.AudioLengthSec = tr.DurationSec
	}

	content := tr.Text
	if r.Multimodal != nil {
		mc, err := r.Multimodal.Extract(ctx, path, tr.Text)
		if err != nil {
			// Degrade to audio-only; the transcript is still classifiable.
			log.Warn("on-screen text extraction failed", "file", rec.FileName, "err", err)
		} else if combined := mc.Combined(); combined != "" {
			content = combined
		}
	}

	result, elapsed, err := classify.Run(ctx, r.Provider, r.System, content)
	rec.Result = result
	rec.ElapsedSec = elapsed
	if err != nil {
		rec.Err = "classify: " + err.Error()
	}
	return rec
}
