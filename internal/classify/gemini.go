package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const geminiDefaultURL = "https://generativelanguage.googleapis.com"

// Gemini-style generateContent REST endpoint. The key travels as a query
// parameter; system and user content are flattened into one user part.
type geminiProvider struct {
	apiKey  string
	model   string
	baseURL string
	hc      *http.Client
}

func newGemini(opts Options) *geminiProvider {
	base := opts.BaseURL
	if base == "" {
		base = geminiDefaultURL
	}
	return &geminiProvider{
		apiKey:  opts.APIKey,
		model:   opts.Model,
		baseURL: base,
		hc:      &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *geminiProvider) Name() string { return "gemini" }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (p *geminiProvider) Classify(ctx context.Context, system, content string) (string, error) {
	return p.generate(ctx, system+"\n\n"+content)
}

func (p *geminiProvider) Probe(ctx context.Context) error {
	_, err := p.generate(ctx, "ping")
	return err
}

func (p *geminiProvider) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}
	u := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		p.baseURL, p.model, url.QueryEscape(p.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", &statusError{provider: "gemini", code: resp.StatusCode, body: readErrBody(resp.Body)}
	}
	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("gemini decode: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: empty candidates")
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}
