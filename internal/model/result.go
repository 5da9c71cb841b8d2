// Package model defines the domain types shared by the transcription,
// classification, batch, and presentation layers.
package model

import "strings"

// Label is one of the four misinformation categories a transcript can receive.
type Label string

const (
	LabelNoMisinfo       Label = "NO_MISINFO"
	LabelMisinfo         Label = "MISINFO"
	LabelDebunking       Label = "DEBUNKING"
	LabelCannotRecognize Label = "CANNOT_RECOGNIZE"
)

// Labels lists every known label in display order.
func Labels() []Label {
	return []Label{LabelNoMisinfo, LabelMisinfo, LabelDebunking, LabelCannotRecognize}
}

// Valid reports whether l is one of the four known labels.
func (l Label) Valid() bool {
	switch l {
	case LabelNoMisinfo, LabelMisinfo, LabelDebunking, LabelCannotRecognize:
		return true
	}
	return false
}

// ParseLabel normalizes a raw label string: trim whitespace, uppercase, strip
// trailing periods. Anything that is not a known label afterwards maps to
// LabelCannotRecognize. The function is idempotent.
func ParseLabel(raw string) Label {
	s := strings.TrimSpace(raw)
	s = strings.ToUpper(s)
	s = strings.TrimRight(s, ".")
	l := Label(s)
	if !l.Valid() {
		return LabelCannotRecognize
	}
	return l
}

// ClassificationResult is the normalized outcome of one LLM classification.
type ClassificationResult struct {
	Label             Label    `json:"label"`
	Keywords          []string `json:"keywords"`
	Confidence        float64  `json:"confidence"`
	Explanation       string   `json:"explanation,omitempty"`
	EvidenceSentences []string `json:"evidence_sentences,omitempty"`

	// Defaulted is true when no JSON candidate in the raw model output could
	// be parsed and the default result was substituted. It distinguishes a
	// parser fallback from a genuinely confident CANNOT_RECOGNIZE answer.
	Defaulted bool `json:"defaulted"`
}

// DefaultResult is the substitute used whenever a model response cannot be
// parsed at all.
func DefaultResult() ClassificationResult {
	return ClassificationResult{
		Label:             LabelCannotRecognize,
		Keywords:          []string{},
		Confidence:        0.5,
		EvidenceSentences: []string{},
		Defaulted:         true,
	}
}

// AnalysisRecord is one row of batch output: a single input file with its
// transcript and classification. Records are created once and never mutated.
type AnalysisRecord struct {
	FileName       string               `json:"video_file"`
	Transcript     string               `json:"transcript"`
	Result         ClassificationResult `json:"result"`
	AudioLengthSec float64              `json:"audio_length_sec"`
	ElapsedSec     float64              `json:"time_taken_sec"`

	// Err carries the per-file failure note, if any. A failing file still
	// produces a record (with the default result) so the batch can continue.
	Err string `json:"error,omitempty"`
}

// Failed reports whether the record carries a per-file failure.
func (r AnalysisRecord) Failed() bool { return r.Err != "" }
