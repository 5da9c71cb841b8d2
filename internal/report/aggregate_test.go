package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthfc/misinfoscan/internal/model"
)

func rec(label model.Label, conf, elapsed float64, kws ...string) model.AnalysisRecord {
	return model.AnalysisRecord{
		FileName:   "clip.mp4",
		Result:     model.ClassificationResult{Label: label, Confidence: conf, Keywords: kws},
		ElapsedSec: elapsed,
	}
}

func TestSummarizeLabels(t *testing.T) {
	records := []model.AnalysisRecord{
		rec(model.LabelMisinfo, 0.9, 1.0),
		rec(model.LabelMisinfo, 0.7, 2.0),
		rec(model.LabelNoMisinfo, 0.6, 1.5),
	}
	s := Summarize(records, 10)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 0, s.Failed)

	require.Len(t, s.Labels, 2)
	// Display order: NO_MISINFO before MISINFO.
	assert.Equal(t, model.LabelNoMisinfo, s.Labels[0].Label)
	assert.Equal(t, 1, s.Labels[0].Count)
	assert.Equal(t, 0.6, s.Labels[0].AvgConfidence)
	assert.Equal(t, model.LabelMisinfo, s.Labels[1].Label)
	assert.Equal(t, 2, s.Labels[1].Count)
	assert.Equal(t, 0.8, s.Labels[1].AvgConfidence)
}

func TestSummarizeFailedCount(t *testing.T) {
	records := []model.AnalysisRecord{
		{FileName: "a.mp4", Result: model.DefaultResult(), Err: "transcribe: boom"},
		rec(model.LabelDebunking, 0.8, 1.0),
	}
	s := Summarize(records, 10)
	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 1, s.Failed)
}

func TestSummarizeKeywordNetwork(t *testing.T) {
	records := []model.AnalysisRecord{
		rec(model.LabelMisinfo, 0.9, 1.0, "bleach", "cure"),
		rec(model.LabelMisinfo, 0.8, 1.0, "bleach", "cure", "detox"),
		rec(model.LabelDebunking, 0.9, 1.0, "bleach", "cdc"),
	}
	s := Summarize(records, 3)

	require.Len(t, s.Keywords, 3)
	assert.Equal(t, KeywordNode{Keyword: "bleach", Count: 3}, s.Keywords[0])
	assert.Equal(t, KeywordNode{Keyword: "cure", Count: 2}, s.Keywords[1])
	// "detox" and "cdc" both have count 1; first-seen order breaks the tie.
	assert.Equal(t, KeywordNode{Keyword: "detox", Count: 1}, s.Keywords[2])

	require.NotEmpty(t, s.Edges)
	assert.Equal(t, KeywordEdge{A: "bleach", B: "cure", Count: 2}, s.Edges[0])
	// "cdc" was cut by topN, so no bleach+cdc edge.
	for _, e := range s.Edges {
		assert.NotEqual(t, "cdc", e.A)
		assert.NotEqual(t, "cdc", e.B)
	}
}

func TestSummarizeLatencyHistogram(t *testing.T) {
	records := []model.AnalysisRecord{
		rec(model.LabelNoMisinfo, 0.5, 1.0),
		rec(model.LabelNoMisinfo, 0.5, 2.0),
		rec(model.LabelNoMisinfo, 0.5, 9.0),
	}
	s := Summarize(records, 10)
	require.NotEmpty(t, s.Latency)

	total := 0
	for _, hb := range s.Latency {
		total += hb.Count
	}
	assert.Equal(t, 3, total, "every latency appears exactly once")
	assert.Equal(t, 1.0, s.Latency[0].Lo)
	assert.Equal(t, 9.0, s.Latency[len(s.Latency)-1].Hi)
}

func TestSummarizeUniformLatency(t *testing.T) {
	records := []model.AnalysisRecord{
		rec(model.LabelNoMisinfo, 0.5, 2.0),
		rec(model.LabelNoMisinfo, 0.5, 2.0),
	}
	s := Summarize(records, 10)
	require.Len(t, s.Latency, 1)
	assert.Equal(t, 2, s.Latency[0].Count)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, 10)
	assert.Equal(t, 0, s.Total)
	assert.Empty(t, s.Labels)
	assert.Empty(t, s.Latency)
	assert.Empty(t, s.Keywords)
}

func TestRenderMarkdown(t *testing.T) {
	records := []model.AnalysisRecord{
		rec(model.LabelMisinfo, 0.95, 3.1, "bleach", "cure"),
	}
	s := Summarize(records, 10)
	md := RenderMarkdown(Metadata{
		Title:    "Batch Run",
		Source:   "data/videos",
		Provider: "ollama",
		Model:    "mistral",
		Prompt:   "baseline",
	}, records, s)

	assert.True(t, strings.HasPrefix(md, "# Batch Run\n"))
	assert.Contains(t, md, "- Provider: `ollama`")
	assert.Contains(t, md, "## Label Distribution")
	assert.Contains(t, md, "| MISINFO | 1 | 0.95 |")
	assert.Contains(t, md, "- bleach (1)")
	assert.Contains(t, md, "| clip.mp4 | MISINFO | 0.95 | 3.10 |")
}
