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

const azureAPIVersion = "2024-02-01"

// Azure OpenAI Chat Completions. The model name doubles as the deployment
// name, matching how Azure scopes models to a resource.
type azureProvider struct {
	apiKey      string
	endpoint    string
	deployment  string
	temperature float64
	hc          *http.Client
}

func newAzure(opts Options) *azureProvider {
	return &azureProvider{
		apiKey:      opts.APIKey,
		endpoint:    strings.TrimRight(opts.Endpoint, "/"),
		deployment:  opts.Model,
		temperature: opts.Temperature,
		hc:          &http.Client{Timeout: 2 * time.Minute},
	}
}

func (p *azureProvider) Name() string { return "azure" }

func (p *azureProvider) Classify(ctx context.Context, system, content string) (string, error) {
	return p.chat(ctx, []chatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: content},
	}, p.temperature)
}

func (p *azureProvider) Probe(ctx context.Context) error {
	_, err := p.chat(ctx, []chatMessage{{Role: "user", Content: "Hello World!"}}, 0)
	return err
}

func (p *azureProvider) chat(ctx context.Context, msgs []chatMessage, temperature float64) (string, error) {
	body, err := json.Marshal(chatRequest{Model: p.deployment, Messages: msgs, Temperature: temperature})
	if err != nil {
		return "", err
	}
	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		p.endpoint, p.deployment, azureAPIVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("api-key", p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", &statusError{provider: "azure", code: resp.StatusCode, body: readErrBody(resp.Body)}
	}
	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("azure decode: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("azure: empty choices")
	}
	return out.Choices[0].Message.Content, nil
}
