package classify

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Kind selects a classification backend. Providers are constructed once from a
// tagged Kind value; call sites never branch on provider strings.
type Kind string

const (
	KindOpenAI Kind = "openai"
	KindAzure  Kind = "azure"
	KindGemini Kind = "gemini"
	KindOllama Kind = "ollama"
)

// ParseKind validates a configured provider name.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindOpenAI, KindAzure, KindGemini, KindOllama:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown provider %q (want openai|azure|gemini|ollama)", s)
}

// Provider sends a transcript plus a system instruction to an LLM backend and
// returns the raw response text, which is expected (but not guaranteed) to
// contain a JSON object.
type Provider interface {
	Name() string
	Classify(ctx context.Context, system, content string) (string, error)
	// Probe performs a cheap credential/reachability check. It is called by
	// the UI's validate-key step before any file is processed.
	Probe(ctx context.Context) error
}

// Options configures a concrete provider.
type Options struct {
	Kind        Kind
	APIKey      string
	Model       string  // model name, or Azure deployment name
	Temperature float64 // passed through to the backend
	BaseURL     string  // override for tests and self-hosted endpoints
	Endpoint    string  // Azure resource endpoint
}

// New constructs the provider for opts.Kind.
func New(opts Options) (Provider, error) {
	switch opts.Kind {
	case KindOpenAI:
		if opts.APIKey == "" {
			return nil, fmt.Errorf("openai: missing API key")
		}
		return newOpenAI(opts), nil
	case KindAzure:
		if opts.APIKey == "" || opts.Endpoint == "" {
			return nil, fmt.Errorf("azure: missing API key or endpoint")
		}
		return newAzure(opts), nil
	case KindGemini:
		if opts.APIKey == "" {
			return nil, fmt.Errorf("gemini: missing API key")
		}
		return newGemini(opts), nil
	case KindOllama:
		return newOllama(opts), nil
	default:
		return nil, fmt.Errorf("unknown provider kind %q", opts.Kind)
	}
}

// statusError is an HTTP failure from a provider, kept typed so the retry
// layer can distinguish transient from permanent failures.
type statusError struct {
	provider string
	code     int
	body     string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s http %d: %s", e.provider, e.code, e.body)
}

// transient reports whether the failure is worth retrying.
func (e *statusError) transient() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

func readErrBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 2048))
	return string(b)
}
