// Package report aggregates analysis records into chart-ready summaries.
package report

import (
	"math"
	"sort"

	"github.com/healthfc/misinfoscan/internal/model"
)

// LabelStat is one row of the per-label breakdown.
type LabelStat struct {
	Label         model.Label `json:"label"`
	Count         int         `json:"count"`
	AvgConfidence float64     `json:"avg_confidence"`
}

// HistBucket is one fixed-width latency bucket [Lo, Hi).
type HistBucket struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}

// KeywordNode is a keyword with its total frequency across records.
type KeywordNode struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// KeywordEdge counts how many records mention both keywords.
type KeywordEdge struct {
	A     string `json:"a"`
	B     string `json:"b"`
	Count int    `json:"count"`
}

// Summary is everything the presentation layer renders. Every record
// contributes exactly once.
type Summary struct {
	Total    int           `json:"total"`
	Failed   int           `json:"failed"`
	Labels   []LabelStat   `json:"labels"`
	Latency  []HistBucket  `json:"latency"`
	Keywords []KeywordNode `json:"keywords"`
	Edges    []KeywordEdge `json:"edges"`
}

const latencyBuckets = 8

// Summarize aggregates records. topN bounds the keyword network size.
func Summarize(records []model.AnalysisRecord, topN int) Summary {
	if topN <= 0 {
		topN = 10
	}
	s := Summary{Total: len(records)}

	counts := make(map[model.Label]int)
	confSums := make(map[model.Label]float64)
	kwCounts := make(map[string]int)
	kwOrder := []string{}
	var latencies []float64

	for _, rec := range records {
		if rec.Failed() {
			s.Failed++
		}
		counts[rec.Result.Label]++
		confSums[rec.Result.Label] += rec.Result.Confidence
		if rec.ElapsedSec > 0 {
			latencies = append(latencies, rec.ElapsedSec)
		}
		for _, kw := range rec.Result.Keywords {
			if kwCounts[kw] == 0 {
				kwOrder = append(kwOrder, kw)
			}
			kwCounts[kw]++
		}
	}

	for _, l := range model.Labels() {
		n := counts[l]
		if n == 0 {
			continue
		}
		s.Labels = append(s.Labels, LabelStat{
			Label:         l,
			Count:         n,
			AvgConfidence: round2(confSums[l] / float64(n)),
		})
	}

	s.Latency = histogram(latencies, latencyBuckets)
	s.Keywords = topKeywords(kwCounts, kwOrder, topN)
	s.Edges = coOccurrences(records, s.Keywords)
	return s
}

// topKeywords returns the topN most frequent keywords; ties keep first-seen
// order so the output is deterministic.
func topKeywords(counts map[string]int, order []string, topN int) []KeywordNode {
	firstSeen := make(map[string]int, len(order))
	for i, kw := range order {
		firstSeen[kw] = i
	}
	nodes := make([]KeywordNode, 0, len(counts))
	for kw, n := range counts {
		nodes = append(nodes, KeywordNode{Keyword: kw, Count: n})
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Count != nodes[j].Count {
			return nodes[i].Count > nodes[j].Count
		}
		return firstSeen[nodes[i].Keyword] < firstSeen[nodes[j].Keyword]
	})
	if len(nodes) > topN {
		nodes = nodes[:topN]
	}
	return nodes
}

// coOccurrences counts record-level pairings among the selected keywords.
func coOccurrences(records []model.AnalysisRecord, nodes []KeywordNode) []KeywordEdge {
	selected := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		selected[n.Keyword] = true
	}
	pair := make(map[[2]string]int)
	for _, rec := range records {
		var present []string
		seen := make(map[string]bool)
		for _, kw := range rec.Result.Keywords {
			if selected[kw] && !seen[kw] {
				seen[kw] = true
				present = append(present, kw)
			}
		}
		for i := 0; i < len(present); i++ {
			for j := i + 1; j < len(present); j++ {
				a, b := present[i], present[j]
				if b < a {
					a, b = b, a
				}
				pair[[2]string{a, b}]++
			}
		}
	}
	edges := make([]KeywordEdge, 0, len(pair))
	for k, n := range pair {
		edges = append(edges, KeywordEdge{A: k[0], B: k[1], Count: n})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Count != edges[j].Count {
			return edges[i].Count > edges[j].Count
		}
		if edges[i].A != edges[j].A {
			return edges[i].A < edges[j].A
		}
		return edges[i].B < edges[j].B
	})
	return edges
}

func histogram(values []float64, buckets int) []HistBucket {
	if len(values) == 0 {
		return nil
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	width := (hi - lo) / float64(buckets)
	if width == 0 {
		return []HistBucket{{Lo: lo, Hi: hi, Count: len(values)}}
	}
	out := make([]HistBucket, buckets)
	for i := range out {
		out[i] = HistBucket{Lo: round2(lo + float64(i)*width), Hi: round2(lo + float64(i+1)*width)}
	}
	for _, v := range values {
		idx := int((v - lo) / width)
		if idx >= buckets {
			idx = buckets - 1
		}
		out[idx].Count++
	}
	return out
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
