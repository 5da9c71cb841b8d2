package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const ollamaDefaultURL = "http://localhost:11434"

// Ollama local chat endpoint. Non-streaming: stream=false returns a single
// JSON object instead of concatenated JSON lines.
type ollamaProvider struct {
	model       string
	temperature float64
	baseURL     string
	hc          *http.Client
}

func newOllama(opts Options) *ollamaProvider {
	base := opts.BaseURL
	if base == "" {
		base = ollamaDefaultURL
	}
	return &ollamaProvider{
		model:       opts.Model,
		temperature: opts.Temperature,
		baseURL:     strings.TrimRight(base, "/"),
		hc:          &http.Client{Timeout: 120 * time.Second},
	}
}

func (p *ollamaProvider) Name() string { return "ollama" }

type ollamaRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Options  struct {
		Temperature float64 `json:"temperature"`
	} `json:"options"`
	Stream bool `json:"stream"`
}

type ollamaResponse struct {
	Message chatMessage `json:"message"`
}

func (p *ollamaProvider) Classify(ctx context.Context, system, content string) (string, error) {
	or := ollamaRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: content},
		},
		Stream: false,
	}
	or.Options.Temperature = p.temperature

	body, err := json.Marshal(or)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
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
		return "", &statusError{provider: "ollama", code: resp.StatusCode, body: readErrBody(resp.Body)}
	}
	var out ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("ollama decode: %w", err)
	}
	return out.Message.Content, nil
}

// Probe checks local reachability; Ollama needs no credentials.
func (p *ollamaProvider) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := p.hc.Do(req)
	if err != nil {
		return fmt.Errorf("ollama not reachable at %s: %w", p.baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return &statusError{provider: "ollama", code: resp.StatusCode, body: readErrBody(resp.Body)}
	}
	return nil
}
