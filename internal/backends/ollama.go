package backends

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

	"github.com/sethvargo/go-retry"

	"github.com/prismhq/prism/internal/analysis"
	"github.com/prismhq/prism/internal/config"
)

// Ollama is a local Ollama chat backend. Local models share one GPU, so
// this backend is serialize-only and runs behind the single-flight queue.
type Ollama struct {
	endpoint string
	model    string
	client   *http.Client
	logger   *slog.Logger
}

type ollamaRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format"`
}

type ollamaResponse struct {
	Message chatMessage `json:"message"`
}

// NewOllama creates an Ollama backend from configuration.
func NewOllama(cfg config.OllamaConfig, logger *slog.Logger) *Ollama {
	return &Ollama{
		endpoint: strings.TrimSuffix(cfg.BaseURL, "/") + "/api/chat",
		model:    cfg.Model,
		client:   &http.Client{Timeout: cfg.RequestTimeoutDuration()},
		logger:   logger.With("backend", "ollama"),
	}
}

func (o *Ollama) Name() string { return "ollama" }

func (o *Ollama) Safety() Safety { return SerializeOnly }

func (o *Ollama) Analyze(ctx context.Context, req Request) (*analysis.Result, error) {
	body, err := json.Marshal(ollamaRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(req)},
		},
		Stream: false,
		Format: "json",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal ollama request: %w", err)
	}

	var content string
	backoff := retry.WithMaxRetries(2, retry.NewExponential(time.Second))

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		c, err := o.do(ctx, body)
		if err != nil {
			return err
		}
		content = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	return parseResult(content)
}

func (o *Ollama) do(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("ollama request canceled: %w", ctx.Err())
		}
		// Local daemon may be restarting; worth another attempt.
		return "", retry.RetryableError(fmt.Errorf("ollama request: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", fmt.Errorf("read ollama response: %w", err)
	}

	if resp.StatusCode >= 500 {
		o.logger.Warn("retryable ollama failure", "status", resp.StatusCode)
		return "", retry.RetryableError(fmt.Errorf("ollama returned status %d", resp.StatusCode))
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed ollamaResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("%w: parse ollama response: %s", ErrUnusableResult, err)
	}

	return parsed.Message.Content, nil
}
