package collaborator

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

	"github.com/hashicorp/go-retryablehttp"

	"github.com/livepeer/clipper-core/metrics"
)

// HTTPTranscriber is the default Transcriber: it multipart-uploads the media
// file to a configurable ASR endpoint and decodes the {text, language,
// duration, segments} contract directly (§6 "ASR collaborator interface").
// The concrete model behind that endpoint is explicitly a deployment choice
// ("Implementation may choose a smaller or larger model"); this type only
// fixes the wire shape, retried the way this repo retries every outbound
// HTTP client.
type HTTPTranscriber struct {
	Endpoint string
	APIKey   string

	client *retryablehttp.Client
}

func NewHTTPTranscriber(endpoint, apiKey string) *HTTPTranscriber {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.CheckRetry = metrics.HttpRetryHook
	rc.Logger = nil
	return &HTTPTranscriber{Endpoint: endpoint, APIKey: apiKey, client: rc}
}

func (t *HTTPTranscriber) Transcribe(ctx context.Context, filePath string) (Transcript, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return Transcript{}, fmt.Errorf("transcriber: open %s: %w", filePath, err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return Transcript{}, fmt.Errorf("transcriber: build multipart body: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return Transcript{}, fmt.Errorf("transcriber: read %s: %w", filePath, err)
	}
	if err := writer.Close(); err != nil {
		return Transcript{}, fmt.Errorf("transcriber: close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.Endpoint, &body)
	if err != nil {
		return Transcript{}, fmt.Errorf("transcriber: build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if t.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.APIKey)
	}

	res, err := metrics.MonitorRequest(metrics.Metrics.Transcriber, t.client.StandardClient(), req)
	if err != nil {
		return Transcript{}, fmt.Errorf("transcriber: request failed: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return Transcript{}, fmt.Errorf("transcriber: read response: %w", err)
	}
	if res.StatusCode >= 400 {
		return Transcript{}, fmt.Errorf("transcriber: unexpected status %d: %s", res.StatusCode, string(raw))
	}

	var transcript Transcript
	if err := json.Unmarshal(raw, &transcript); err != nil {
		return Transcript{}, fmt.Errorf("transcriber: decode response: %w", err)
	}
	return transcript, nil
}
