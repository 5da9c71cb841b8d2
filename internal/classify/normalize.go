package classify

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/healthfc/misinfoscan/internal/model"
)

const (
	maxKeywords  = 10
	maxEvidence  = 3
	maxCandidate = 1 << 20 // ignore absurdly large candidate windows
)

// Normalize turns an arbitrary LLM response into a well-formed
// ClassificationResult. The text may contain prose, markdown fences, several
// JSON-looking substrings, or nothing parseable at all; candidates are tried
// left to right and the first one that parses wins. The function never fails:
// when no candidate parses it returns model.DefaultResult with the Defaulted
// flag set.
func Normalize(text string) model.ClassificationResult {
	for _, cand := range jsonCandidates(text) {
		var obj map[string]any
		if err := json.Unmarshal([]byte(cand), &obj); err != nil {
			continue
		}
		return coerce(obj)
	}
	return model.DefaultResult()
}

// jsonCandidates returns the balanced {...} windows of text in order of their
// opening brace. Brace depth is tracked with JSON string/escape awareness so
// braces inside string values do not split a candidate. Every opening brace
// starts its own window, so an object nested inside malformed outer braces is
// still reached.
func jsonCandidates(text string) []string {
	var out []string
	for start := 0; start < len(text); start++ {
		if text[start] != '{' {
			continue
		}
		if end, ok := matchBrace(text, start); ok {
			if end-start <= maxCandidate {
				out = append(out, text[start:end+1])
			}
		}
	}
	return out
}

// matchBrace returns the index of the brace closing the object opened at
// text[open], or ok=false when it never balances.
func matchBrace(text string, open int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := open; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// coerce applies the per-field coercion table to a successfully parsed object.
// Unknown labels are repaired to CANNOT_RECOGNIZE; that repair does not mark
// the result as defaulted because the parse itself succeeded.
func coerce(obj map[string]any) model.ClassificationResult {
	r := model.ClassificationResult{
		Label:             model.ParseLabel(stringify(obj["label"])),
		Keywords:          coerceList(obj["keywords"], ",", maxKeywords),
		Confidence:        coerceConfidence(obj["confidence"]),
		Explanation:       strings.TrimSpace(stringify(obj["explanation"])),
		EvidenceSentences: coerceList(obj["evidence_sentences"], "\n", maxEvidence),
	}
	return r
}

// coerceList accepts either a delimiter-separated string or a sequence and
// returns trimmed, non-empty items in their original order, capped at max.
func coerceList(v any, sep string, max int) []string {
	var items []string
	switch vv := v.(type) {
	case nil:
		return []string{}
	case string:
		items = strings.Split(vv, sep)
	case []any:
		for _, e := range vv {
			items = append(items, stringify(e))
		}
	default:
		items = []string{stringify(vv)}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		out = append(out, it)
		if len(out) == max {
			break
		}
	}
	return out
}

// coerceConfidence casts numeric or numeric-string confidence values, defaults
// to 0.5 on absence or cast failure, clamps into [0,1], and rounds to two
// decimals.
func coerceConfidence(v any) float64 {
	c := 0.5
	switch vv := v.(type) {
	case float64:
		c = vv
	case json.Number:
		if f, err := vv.Float64(); err == nil {
			c = f
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(vv), 64); err == nil {
			c = f
		}
	case bool, nil:
		// keep default
	}
	if math.IsNaN(c) {
		c = 0.5
	}
	c = math.Min(1, math.Max(0, c))
	return math.Round(c*100) / 100
}

func stringify(v any) string {
	switch vv := v.(type) {
	case nil:
		return ""
	case string:
		return vv
	case float64:
		return strconv.FormatFloat(vv, 'f', -1, 64)
	default:
		return fmt.Sprint(vv)
	}
}
