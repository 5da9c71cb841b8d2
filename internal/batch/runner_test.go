package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthfc/misinfoscan/internal/model"
	"github.com/healthfc/misinfoscan/internal/transcribe"
)

// stubPreparer skips ffmpeg and hands the input path straight through.
type stubPreparer struct {
	failFor map[string]bool
}

func (s stubPreparer) Prepare(_ context.Context, inputPath string) (string, float64, error) {
	if s.failFor[filepath.Base(inputPath)] {
		return "", -1, errors.New("ffmpeg exploded")
	}
	return inputPath, 10.5, nil
}

type stubBackend struct {
	failFor map[string]bool
}

func (s stubBackend) Name() string { return "stub" }

func (s stubBackend) Transcribe(_ context.Context, audioPath string) (transcribe.Transcript, error) {
	if s.failFor[filepath.Base(audioPath)] {
		return transcribe.Transcript{}, errors.New("no speech found")
	}
	return transcribe.Transcript{Text: "transcript of " + filepath.Base(audioPath), DurationSec: 10.5}, nil
}

type stubProvider struct {
	response string
	err      error
	calls    []string
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Classify(_ context.Context, system, content string) (string, error) {
	s.calls = append(s.calls, content)
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubProvider) Probe(context.Context) error { return nil }

func writeClips(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("clip"), 0o644))
	}
	return dir
}

func TestListInputs(t *testing.T) {
	dir := writeClips(t, "b.mp4", "a.wav", "c.mp3", "d.m4a", "notes.txt", "e.mkv")
	files, err := ListInputs(dir)
	require.NoError(t, err)
	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	assert.Equal(t, []string{"a.wav", "b.mp4", "c.mp3", "d.m4a"}, names)
}

func TestListInputsUppercaseExtensions(t *testing.T) {
	dir := writeClips(t, "CLIP.MP4", "voice.Wav", "skip.TXT")
	files, err := ListInputs(dir)
	require.NoError(t, err)
	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	assert.Equal(t, []string{"CLIP.MP4", "voice.Wav"}, names)
}

func TestRunHappyPath(t *testing.T) {
	dir := writeClips(t, "one.mp4", "two.mp4")
	files, err := ListInputs(dir)
	require.NoError(t, err)

	p := &stubProvider{response: `{"label":"MISINFO","keywords":["bleach"],"confidence":0.9}`}
	r := &Runner{
		Preparer:  stubPreparer{},
		Backend:   stubBackend{},
		Provider:  p,
		System:    "sys",
		KeepAudio: true,
	}
	records := r.Run(context.Background(), files)
	require.Len(t, records, 2)

	assert.Equal(t, "one.mp4", records[0].FileName)
	assert.Equal(t, "two.mp4", records[1].FileName)
	for _, rec := range records {
		assert.False(t, rec.Failed())
		assert.Equal(t, model.LabelMisinfo, rec.Result.Label)
		assert.Equal(t, 10.5, rec.AudioLengthSec)
		assert.Contains(t, rec.Transcript, "transcript of")
	}
}

func TestRunFailureIsolation(t *testing.T) {
	dir := writeClips(t, "bad-audio.mp4", "bad-speech.mp4", "good.mp4")
	files, err := ListInputs(dir)
	require.NoError(t, err)

	p := &stubProvider{response: `{"label":"NO_MISINFO","confidence":0.8}`}
	r := &Runner{
		Preparer:  stubPreparer{failFor: map[string]bool{"bad-audio.mp4": true}},
		Backend:   stubBackend{failFor: map[string]bool{"bad-speech.mp4": true}},
		Provider:  p,
		KeepAudio: true,
	}
	records := r.Run(context.Background(), files)
	require.Len(t, records, 3)

	byName := map[string]model.AnalysisRecord{}
	for _, rec := range records {
		byName[rec.FileName] = rec
	}

	badAudio := byName["bad-audio.mp4"]
	assert.True(t, badAudio.Failed())
	assert.Contains(t, badAudio.Err, "prepare audio")
	assert.Equal(t, model.DefaultResult(), badAudio.Result)

	badSpeech := byName["bad-speech.mp4"]
	assert.True(t, badSpeech.Failed())
	assert.Contains(t, badSpeech.Err, "transcribe")
	assert.Equal(t, model.DefaultResult(), badSpeech.Result)

	good := byName["good.mp4"]
	assert.False(t, good.Failed())
	assert.Equal(t, model.LabelNoMisinfo, good.Result.Label)
}

func TestRunClassifyFailurePersisted(t *testing.T) {
	dir := writeClips(t, "clip.mp4")
	files, err := ListInputs(dir)
	require.NoError(t, err)

	p := &stubProvider{err: context.DeadlineExceeded}
	r := &Runner{Preparer: stubPreparer{}, Backend: stubBackend{}, Provider: p, KeepAudio: true}
	records := r.Run(context.Background(), files)
	require.Len(t, records, 1)

	rec := records[0]
	assert.True(t, rec.Failed())
	assert.Contains(t, rec.Err, "classify")
	assert.Equal(t, model.DefaultResult(), rec.Result)
	// The transcript survives even when classification fails.
	assert.NotEmpty(t, rec.Transcript)
}

func TestRunProgressOrdering(t *testing.T) {
	dir := writeClips(t, "a.mp4", "b.mp4", "c.mp4")
	files, err := ListInputs(dir)
	require.NoError(t, err)

	var seen []string
	r := &Runner{
		Preparer: stubPreparer{},
		Backend:  stubBackend{},
		Provider: &stubProvider{response: `{"label":"NO_MISINFO"}`},
		Progress: func(i, n int, name string) {
			seen = append(seen, fmt.Sprintf("%d/%d %s", i+1, n, name))
		},
		KeepAudio: true,
	}
	r.Run(context.Background(), files)
	assert.Equal(t, []string{"1/3 a.mp4", "2/3 b.mp4", "3/3 c.mp4"}, seen)
}

func TestWriteCSV(t *testing.T) {
	records := []model.AnalysisRecord{
		{
			FileName:   "clip.mp4",
			Transcript: "drink bleach, it cures \"everything\"",
			Result: model.ClassificationResult{
				Label:      model.LabelMisinfo,
				Keywords:   []string{"bleach", "cure"},
				Confidence: 0.95,
			},
			AudioLengthSec: 12.3,
			ElapsedSec:     4.56,
		},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "video_file,transcript,label,keywords,confidence_score,audio_length_sec,time_taken_sec", lines[0])
	assert.Contains(t, lines[1], "clip.mp4")
	assert.Contains(t, lines[1], "bleach;cure")
	assert.Contains(t, lines[1], "0.95")
	assert.Contains(t, lines[1], "12.30")
	assert.Contains(t, lines[1], "4.56")
}

func TestWriteCSVFileCreatesParents(t *testing.T) {
	out := filepath.Join(t.TempDir(), "experiments", "exp-001", "results.csv")
	require.NoError(t, WriteCSVFile(out, nil))
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(csvHeader, ","), strings.TrimSpace(string(b)))
}
