package collaborator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/livepeer/clipper-core/metrics"
	"github.com/livepeer/clipper-core/ratelimit"
)

// HTTPLLM is the default LLM collaborator: a plain JSON REST call to a
// configurable generative-text endpoint (vendor selection is explicitly out
// of scope per §6 — the wire shape below follows the Gemini
// generateContent contract this repo's config already names via
// GeminiMaxOutputTokens, but any endpoint speaking the same shape works),
// retried the way this repo retries every outbound HTTP client (grounded on
// HTTPDownloader).
type HTTPLLM struct {
	Endpoint        string
	APIKey          string
	MaxOutputTokens int

	client *retryablehttp.Client
	pacer  *ratelimit.Pacer
}

func NewHTTPLLM(endpoint, apiKey string, maxOutputTokens int) *HTTPLLM {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.CheckRetry = func(ctx context.Context, res *http.Response, err error) (bool, error) {
		retry, checkErr := metrics.HttpRetryHook(ctx, res, err)
		if res != nil && res.StatusCode == http.StatusTooManyRequests {
			return false, nil // 429 is left to the pacer as RateLimitedError
		}
		return retry, checkErr
	}
	rc.Logger = nil
	return &HTTPLLM{Endpoint: endpoint, APIKey: apiKey, MaxOutputTokens: maxOutputTokens, client: rc, pacer: ratelimit.NewPacer()}
}

type generateRequest struct {
	Contents []generateContent `json:"contents"`
	GenerationConfig struct {
		MaxOutputTokens int `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generatePart struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content      generateContent `json:"content"`
		FinishReason string          `json:"finishReason"`
		SafetyRatings []struct {
			Category string `json:"category"`
			Probability string `json:"probability"`
		} `json:"safetyRatings"`
	} `json:"candidates"`
}

func (l *HTTPLLM) Generate(ctx context.Context, prompt string) (LLMResult, error) {
	var result LLMResult
	err := l.pacer.Do(ctx, func(ctx context.Context) error {
		r, err := l.generate(ctx, prompt)
		result = r
		return err
	})
	return result, err
}

// generate is the single-attempt call the pacer wraps; a 429 is reported as
// ratelimit.RateLimitedError so the pacer retries it instead of surfacing it.
func (l *HTTPLLM) generate(ctx context.Context, prompt string) (LLMResult, error) {
	reqBody := generateRequest{Contents: []generateContent{{Parts: []generatePart{{Text: prompt}}}}}
	reqBody.GenerationConfig.MaxOutputTokens = l.MaxOutputTokens

	body, err := json.Marshal(reqBody)
	if err != nil {
		return LLMResult{}, fmt.Errorf("llm: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.Endpoint+"?key="+l.APIKey, bytes.NewReader(body))
	if err != nil {
		return LLMResult{}, fmt.Errorf("llm: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := metrics.MonitorRequest(metrics.Metrics.LLM, l.client.StandardClient(), req)
	if err != nil {
		return LLMResult{}, fmt.Errorf("llm: request failed: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return LLMResult{}, fmt.Errorf("llm: read response: %w", err)
	}
	if res.StatusCode == http.StatusTooManyRequests {
		return LLMResult{}, ratelimit.RateLimitedError{Err: fmt.Errorf("llm: rate limited: %s", string(raw))}
	}
	if res.StatusCode >= 400 {
		return LLMResult{}, fmt.Errorf("llm: unexpected status %d: %s", res.StatusCode, string(raw))
	}

	var parsed generateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return LLMResult{}, fmt.Errorf("llm: decode response: %w", err)
	}
	if len(parsed.Candidates) == 0 {
		return LLMResult{FinishReason: FinishReasonSafety}, nil
	}

	cand := parsed.Candidates[0]
	var text string
	for _, part := range cand.Content.Parts {
		text += part.Text
	}

	safety := make([]string, 0, len(cand.SafetyRatings))
	for _, r := range cand.SafetyRatings {
		safety = append(safety, fmt.Sprintf("%s=%s", r.Category, r.Probability))
	}

	return LLMResult{Text: text, FinishReason: cand.FinishReason, SafetyRatings: safety}, nil
}
