package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const openAIDefaultURL = "https://api.openai.com"

// OpenAI speech-to-text via audio.transcriptions.
type openAIBackend struct {
	apiKey  string
	model   string
	baseURL string
	hc      *http.Client
}

// NewOpenAIBackend transcribes through the hosted whisper endpoint.
func NewOpenAIBackend(apiKey, model string) Backend {
	return &openAIBackend{
		apiKey:  apiKey,
		model:   model,
		baseURL: openAIDefaultURL,
		hc:      &http.Client{Timeout: 30 * time.Minute},
	}
}

func (o *openAIBackend) Name() string { return "openai" }

type openAIResp struct {
	Text string `json:"text"`
}

func (o *openAIBackend) Transcribe(ctx context.Context, audioPath string) (Transcript, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return Transcript{}, err
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("model", o.model); err != nil {
		return Transcript{}, err
	}
	fw, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return Transcript{}, err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return Transcript{}, err
	}
	if err := mw.Close(); err != nil {
		return Transcript{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/v1/audio/transcriptions", &body)
	if err != nil {
		return Transcript{}, err
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := o.hc.Do(req)
	if err != nil {
		return Transcript{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return Transcript{}, fmt.Errorf("openai http %d: %s", resp.StatusCode, string(b))
	}
	var or openAIResp
	if err := json.NewDecoder(resp.Body).Decode(&or); err != nil {
		return Transcript{}, err
	}
	// The endpoint returns text only; the caller probes duration separately.
	return Transcript{Text: or.Text, DurationSec: -1}, nil
}
