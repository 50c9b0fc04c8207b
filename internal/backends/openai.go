package backends

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/prismhq/prism/internal/analysis"
	"github.com/prismhq/prism/internal/config"
)

// OpenAI is an OpenAI-compatible chat-completions backend. Concurrent
// callers are safe; the rate limiter spaces requests.
type OpenAI struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// NewOpenAI creates an OpenAI backend from configuration.
func NewOpenAI(cfg config.OpenAIConfig, logger *slog.Logger) *OpenAI {
	return &OpenAI{
		endpoint: strings.TrimSuffix(cfg.BaseURL, "/") + "/chat/completions",
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		client:   &http.Client{Timeout: cfg.RequestTimeoutDuration()},
		limiter:  rate.NewLimiter(rate.Every(cfg.RateIntervalDuration()), 1),
		logger:   logger.With("backend", "openai"),
	}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Safety() Safety { return SafeForBatch }

func (o *OpenAI) Analyze(ctx context.Context, req Request) (*analysis.Result, error) {
	body, err := json.Marshal(chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(req)},
		},
		ResponseFormat: responseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	content, err := o.doWithRetry(ctx, body)
	if err != nil {
		return nil, err
	}

	return parseResult(content)
}

// doWithRetry executes the request, retrying on 429 and 5xx with backoff.
// On 429 the Retry-After header overrides the backoff delay.
func (o *OpenAI) doWithRetry(ctx context.Context, body []byte) (string, error) {
	backoffs := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}

	var lastErr error
	for attempt := 0; attempt <= len(backoffs); attempt++ {
		if err := o.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter wait: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("create chat request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if o.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+o.apiKey)
		}

		resp, err := o.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return "", fmt.Errorf("chat request canceled: %w", ctx.Err())
			}
			return "", fmt.Errorf("chat request: %w", err)
		}

		respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
		resp.Body.Close()
		if err != nil {
			return "", fmt.Errorf("read chat response: %w", err)
		}

		if resp.StatusCode == http.StatusOK {
			var parsed chatResponse
			if err := json.Unmarshal(respBody, &parsed); err != nil {
				return "", fmt.Errorf("%w: parse chat response: %s", ErrUnusableResult, err)
			}
			if len(parsed.Choices) == 0 {
				return "", fmt.Errorf("%w: no choices in chat response", ErrUnusableResult)
			}
			return parsed.Choices[0].Message.Content, nil
		}

		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		if !retryable {
			return "", fmt.Errorf("chat endpoint returned status %d: %s", resp.StatusCode, string(respBody))
		}

		lastErr = fmt.Errorf("chat endpoint returned status %d", resp.StatusCode)
		o.logger.Warn("retryable chat failure", "status", resp.StatusCode, "attempt", attempt)

		if attempt < len(backoffs) {
			delay := backoffs[attempt]
			if resp.StatusCode == http.StatusTooManyRequests {
				if after := resp.Header.Get("Retry-After"); after != "" {
					if seconds, err := strconv.Atoi(after); err == nil && seconds > 0 {
						delay = min(time.Duration(seconds)*time.Second, 30*time.Second)
					}
				}
			}

			select {
			case <-ctx.Done():
				return "", fmt.Errorf("chat request canceled during retry: %w", ctx.Err())
			case <-time.After(delay):
			}
		}
	}

	return "", fmt.Errorf("chat retries exhausted: %w", lastErr)
}
