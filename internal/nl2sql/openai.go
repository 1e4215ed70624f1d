package nl2sql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

type OpenAIConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
	Logger      *slog.Logger
}

// OpenAITranslator speaks the OpenAI-compatible chat-completions wire
// format, which Groq and similar hosted endpoints also accept.
type OpenAITranslator struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxRetries  int
	logger      *slog.Logger
	client      *http.Client
}

func NewOpenAITranslator(cfg OpenAIConfig) (*OpenAITranslator, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "llama3-70b-8192"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}
	if maxRetries > 3 {
		maxRetries = 3
	}
	return &OpenAITranslator{
		baseURL:     strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:      strings.TrimSpace(cfg.APIKey),
		model:       model,
		temperature: cfg.Temperature,
		maxRetries:  maxRetries,
		logger:      cfg.Logger,
		client:      &http.Client{Timeout: timeout},
	}, nil
}

// Translate performs the outbound model call. Transport errors and 5xx
// responses are retried up to the bounded attempt budget; authentication
// failures are never retried. The API key is never logged.
func (t *OpenAITranslator) Translate(ctx context.Context, prompt string) (Response, error) {
	body, err := json.Marshal(map[string]any{
		"model": t.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": t.temperature,
	})
	if err != nil {
		return Response{}, fmt.Errorf("marshal chat payload: %w", err)
	}

	start := time.Now()
	var lastErr error
	for attempt := 1; attempt <= t.maxRetries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return Response{}, ctx.Err()
			case <-time.After(500 * time.Millisecond):
			}
		}

		raw, retryable, err := t.attempt(ctx, body)
		if err == nil {
			latency := time.Since(start)
			t.log(ctx, "model call succeeded", attempt, latency, nil)
			return Response{RawText: raw, Latency: latency}, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}

	t.log(ctx, "model call failed", t.maxRetries, time.Since(start), lastErr)
	return Response{}, lastErr
}

func (t *OpenAITranslator) attempt(ctx context.Context, body []byte) (raw string, retryable bool, err error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return "", true, fmt.Errorf("request chat completion: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	rawRespBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("read chat response body: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		// Auth failures do not fix themselves; retrying burns quota.
		return "", false, fmt.Errorf("chat completion authentication failed status=%d", resp.StatusCode)
	case resp.StatusCode >= 500:
		return "", true, fmt.Errorf("chat completion failed status=%d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return "", false, fmt.Errorf("chat completion rejected status=%d", resp.StatusCode)
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(rawRespBody, &parsed); err != nil {
		return "", false, fmt.Errorf("decode chat completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", false, fmt.Errorf("empty chat completion choices")
	}
	return parsed.Choices[0].Message.Content, false, nil
}

func (t *OpenAITranslator) log(ctx context.Context, msg string, attempts int, latency time.Duration, err error) {
	if t.logger == nil {
		return
	}
	attrs := []any{
		slog.String("model", t.model),
		slog.Int("attempts", attempts),
		slog.String("latency", latency.String()),
	}
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
		t.logger.WarnContext(ctx, msg, attrs...)
		return
	}
	t.logger.DebugContext(ctx, msg, attrs...)
}
