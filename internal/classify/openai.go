package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const openAIDefaultURL = "https://api.openai.com"

// OpenAI Chat Completions.
type openAIProvider struct {
	apiKey      string
	model       string
	temperature float64
	baseURL     string
	hc          *http.Client
}

func newOpenAI(opts Options) *openAIProvider {
	base := opts.BaseURL
	if base == "" {
		base = openAIDefaultURL
	}
	return &openAIProvider{
		apiKey:      opts.APIKey,
		model:       opts.Model,
		temperature: opts.Temperature,
		baseURL:     base,
		hc:          &http.Client{Timeout: 2 * time.Minute},
	}
}

func (p *openAIProvider) Name() string { return "openai" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (p *openAIProvider) Classify(ctx context.Context, system, content string) (string, error) {
	req := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: content},
		},
		Temperature: p.temperature,
	}
	return p.chat(ctx, req)
}

func (p *openAIProvider) Probe(ctx context.Context) error {
	_, err := p.chat(ctx, chatRequest{
		Model:    p.model,
		Messages: []chatMessage{{Role: "user", Content: "Hello World!"}},
	})
	return err
}

func (p *openAIProvider) chat(ctx context.Context, cr chatRequest) (string, error) {
	body, err := json.Marshal(cr)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", &statusError{provider: "openai", code: resp.StatusCode, body: readErrBody(resp.Body)}
	}
	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("openai decode: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("openai: empty choices")
	}
	return out.Choices[0].Message.Content, nil
}
