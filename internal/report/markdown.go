package report

import (
	"fmt"
	"strings"

	"github.com/healthfc/misinfoscan/internal/model"
)

// Metadata describes the run that produced the records.
type Metadata struct {
	Title     string
	Source    string // input directory or CSV path
	Provider  string
	Model     string
	Prompt    string
	Generated string
}

// RenderMarkdown renders the summary plus a per-file table as a markdown
// report.
func RenderMarkdown(meta Metadata, records []model.AnalysisRecord, s Summary) string {
	var b strings.Builder

	if meta.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", meta.Title)
	} else {
		b.WriteString("# Misinformation Analysis Report\n\n")
	}
	if meta.Source != "" {
		fmt.Fprintf(&b, "- Source: `%s`\n", meta.Source)
	}
	if meta.Provider != "" {
		fmt.Fprintf(&b, "- Provider: `%s`\n", meta.Provider)
	}
	if meta.Model != "" {
		fmt.Fprintf(&b, "- Model: `%s`\n", meta.Model)
	}
	if meta.Prompt != "" {
		fmt.Fprintf(&b, "- Prompt: `%s`\n", meta.Prompt)
	}
	if meta.Generated != "" {
		fmt.Fprintf(&b, "- Generated: %s\n", meta.Generated)
	}
	fmt.Fprintf(&b, "- Files: %d (%d failed)\n", s.Total, s.Failed)
	b.WriteString("\n---\n\n")

	b.WriteString("## Label Distribution\n\n")
	b.WriteString("| Label | Count | Avg. Confidence |\n|---|---:|---:|\n")
	for _, ls := range s.Labels {
		fmt.Fprintf(&b, "| %s | %d | %.2f |\n", ls.Label, ls.Count, ls.AvgConfidence)
	}
	b.WriteString("\n")

	if len(s.Latency) > 0 {
		b.WriteString("## Classification Latency\n\n")
		b.WriteString("| Seconds | Count |\n|---|---:|\n")
		for _, hb := range s.Latency {
			fmt.Fprintf(&b, "| %.2f - %.2f | %d |\n", hb.Lo, hb.Hi, hb.Count)
		}
		b.WriteString("\n")
	}

	if len(s.Keywords) > 0 {
		b.WriteString("## Top Keywords\n\n")
		for _, kn := range s.Keywords {
			fmt.Fprintf(&b, "- %s (%d)\n", kn.Keyword, kn.Count)
		}
		b.WriteString("\n")
	}

	if len(s.Edges) > 0 {
		b.WriteString("## Keyword Co-occurrence\n\n")
		for _, e := range s.Edges {
			fmt.Fprintf(&b, "- %s + %s (%d)\n", e.A, e.B, e.Count)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Files\n\n")
	b.WriteString("| File | Label | Confidence | Time (s) | Error |\n|---|---|---:|---:|---|\n")
	for _, rec := range records {
		fmt.Fprintf(&b, "| %s | %s | %.2f | %.2f | %s |\n",
			rec.FileName, rec.Result.Label, rec.Result.Confidence, rec.ElapsedSec, rec.Err)
	}
	return b.String()
}
