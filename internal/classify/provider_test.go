package classify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthfc/misinfoscan/internal/model"
)

func TestOpenAIClassifyRequestShape(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(chatResponse{Choices: []struct {
			Message chatMessage `json:"message"`
		}{{Message: chatMessage{Role: "assistant", Content: `{"label":"MISINFO","confidence":0.9}`}}}})
	}))
	defer srv.Close()

	p := newOpenAI(Options{APIKey: "sk-test", Model: "gpt-3.5-turbo", BaseURL: srv.URL})
	raw, err := p.Classify(context.Background(), "system prompt", "the transcript")
	require.NoError(t, err)
	assert.Contains(t, raw, "MISINFO")

	assert.Equal(t, "gpt-3.5-turbo", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "system prompt", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "the transcript", got.Messages[1].Content)
}

func TestOpenAIHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid api key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := newOpenAI(Options{APIKey: "bad", Model: "gpt-3.5-turbo", BaseURL: srv.URL})
	_, err := p.Classify(context.Background(), "s", "c")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.False(t, shouldRetry(err), "auth failures must not be retried")
}

func TestOllamaClassifyRequestShape(t *testing.T) {
	var got ollamaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(ollamaResponse{Message: chatMessage{Role: "assistant", Content: "ok"}})
	}))
	defer srv.Close()

	p := newOllama(Options{Model: "mistral", Temperature: 0.2, BaseURL: srv.URL})
	raw, err := p.Classify(context.Background(), "sys", "usr")
	require.NoError(t, err)
	assert.Equal(t, "ok", raw)

	assert.Equal(t, "mistral", got.Model)
	assert.False(t, got.Stream, "stream must be disabled so a single JSON object comes back")
	assert.Equal(t, 0.2, got.Options.Temperature)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
}

func TestOllamaProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.Write([]byte(`{"models":[]}`))
	}))
	defer srv.Close()

	p := newOllama(Options{Model: "mistral", BaseURL: srv.URL})
	assert.NoError(t, p.Probe(context.Background()))

	srv.Close()
	assert.Error(t, p.Probe(context.Background()))
}

func TestGeminiClassify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-pro:generateContent", r.URL.Path)
		assert.Equal(t, "g-key", r.URL.Query().Get("key"))
		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Contains(t, req.Contents[0].Parts[0].Text, "sys")
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"role": "model", "parts": []map[string]any{{"text": "reply"}}}},
			},
		})
	}))
	defer srv.Close()

	p := newGemini(Options{APIKey: "g-key", Model: "gemini-pro", BaseURL: srv.URL})
	raw, err := p.Classify(context.Background(), "sys", "usr")
	require.NoError(t, err)
	assert.Equal(t, "reply", raw)
}

func TestNewRejectsMissingCredentials(t *testing.T) {
	_, err := New(Options{Kind: KindOpenAI})
	assert.Error(t, err)
	_, err = New(Options{Kind: KindAzure, APIKey: "k"})
	assert.Error(t, err)
	_, err = New(Options{Kind: Kind("bogus")})
	assert.Error(t, err)

	p, err := New(Options{Kind: KindOllama, Model: "mistral"})
	require.NoError(t, err)
	assert.Equal(t, "ollama", p.Name())
}

func TestParseKind(t *testing.T) {
	for _, s := range []string{"openai", "azure", "gemini", "ollama"} {
		k, err := ParseKind(s)
		require.NoError(t, err)
		assert.Equal(t, Kind(s), k)
	}
	_, err := ParseKind("OpenAI")
	assert.Error(t, err)
}

func TestRunSubstitutesDefaultOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	p := newOllama(Options{Model: "mistral", BaseURL: srv.URL})
	res, elapsed, err := Run(context.Background(), p, "sys", "usr")
	require.Error(t, err)
	assert.Equal(t, model.DefaultResult(), res)
	assert.GreaterOrEqual(t, elapsed, 0.0)
}

func TestRunNormalizesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaResponse{Message: chatMessage{
			Role:    "assistant",
			Content: "Here you go:\n{\"label\":\"debunking.\",\"keywords\":\"vaccines, autism\",\"confidence\":\"0.9\"}",
		}})
	}))
	defer srv.Close()

	p := newOllama(Options{Model: "mistral", BaseURL: srv.URL})
	res, _, err := Run(context.Background(), p, "sys", "usr")
	require.NoError(t, err)
	assert.Equal(t, model.LabelDebunking, res.Label)
	assert.Equal(t, []string{"vaccines", "autism"}, res.Keywords)
	assert.Equal(t, 0.9, res.Confidence)
	assert.False(t, res.Defaulted)
}
