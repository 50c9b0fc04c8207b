package config

import (
	"fmt"
	"os"
	"time"
)

const (
	EnvBackendsPrimary = "PRISM_BACKENDS_PRIMARY"

	EnvOpenAIBaseURL        = "PRISM_OPENAI_BASE_URL"
	EnvOpenAIAPIKey         = "PRISM_OPENAI_API_KEY"
	EnvOpenAIModel          = "PRISM_OPENAI_MODEL"
	EnvOpenAIRequestTimeout = "PRISM_OPENAI_REQUEST_TIMEOUT"
	EnvOpenAIRateInterval   = "PRISM_OPENAI_RATE_INTERVAL"

	EnvOllamaBaseURL        = "PRISM_OLLAMA_BASE_URL"
	EnvOllamaModel          = "PRISM_OLLAMA_MODEL"
	EnvOllamaRequestTimeout = "PRISM_OLLAMA_REQUEST_TIMEOUT"
)

// BackendsConfig selects and configures the analysis backends.
type BackendsConfig struct {
	// Primary names the preferred backend: "openai" or "ollama".
	Primary string       `toml:"primary"`
	OpenAI  OpenAIConfig `toml:"openai"`
	Ollama  OllamaConfig `toml:"ollama"`
}

// OpenAIConfig configures the OpenAI-compatible chat-completions client.
type OpenAIConfig struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	RequestTimeout string `toml:"request_timeout"`
	// RateInterval is the minimum spacing between requests.
	RateInterval string `toml:"rate_interval"`
}

// OllamaConfig configures the local Ollama chat client.
type OllamaConfig struct {
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	RequestTimeout string `toml:"request_timeout"`
}

// RequestTimeoutDuration returns RequestTimeout as a time.Duration.
func (c *OpenAIConfig) RequestTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.RequestTimeout)
	return d
}

// RateIntervalDuration returns RateInterval as a time.Duration.
func (c *OpenAIConfig) RateIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.RateInterval)
	return d
}

// RequestTimeoutDuration returns RequestTimeout as a time.Duration.
func (c *OllamaConfig) RequestTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.RequestTimeout)
	return d
}

// Merge overwrites non-zero fields from overlay.
func (c *BackendsConfig) Merge(overlay *BackendsConfig) {
	if overlay.Primary != "" {
		c.Primary = overlay.Primary
	}
	mergeString(&c.OpenAI.BaseURL, overlay.OpenAI.BaseURL)
	mergeString(&c.OpenAI.APIKey, overlay.OpenAI.APIKey)
	mergeString(&c.OpenAI.Model, overlay.OpenAI.Model)
	mergeString(&c.OpenAI.RequestTimeout, overlay.OpenAI.RequestTimeout)
	mergeString(&c.OpenAI.RateInterval, overlay.OpenAI.RateInterval)
	mergeString(&c.Ollama.BaseURL, overlay.Ollama.BaseURL)
	mergeString(&c.Ollama.Model, overlay.Ollama.Model)
	mergeString(&c.Ollama.RequestTimeout, overlay.Ollama.RequestTimeout)
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *BackendsConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

func (c *BackendsConfig) loadDefaults() {
	if c.Primary == "" {
		c.Primary = "openai"
	}
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
	if c.OpenAI.RequestTimeout == "" {
		c.OpenAI.RequestTimeout = "60s"
	}
	if c.OpenAI.RateInterval == "" {
		c.OpenAI.RateInterval = "500ms"
	}
	if c.Ollama.BaseURL == "" {
		c.Ollama.BaseURL = "http://localhost:11434"
	}
	if c.Ollama.Model == "" {
		c.Ollama.Model = "llama3.1"
	}
	if c.Ollama.RequestTimeout == "" {
		c.Ollama.RequestTimeout = "120s"
	}
}

func (c *BackendsConfig) loadEnv() {
	envString(&c.Primary, EnvBackendsPrimary)
	envString(&c.OpenAI.BaseURL, EnvOpenAIBaseURL)
	envString(&c.OpenAI.APIKey, EnvOpenAIAPIKey)
	envString(&c.OpenAI.Model, EnvOpenAIModel)
	envString(&c.OpenAI.RequestTimeout, EnvOpenAIRequestTimeout)
	envString(&c.OpenAI.RateInterval, EnvOpenAIRateInterval)
	envString(&c.Ollama.BaseURL, EnvOllamaBaseURL)
	envString(&c.Ollama.Model, EnvOllamaModel)
	envString(&c.Ollama.RequestTimeout, EnvOllamaRequestTimeout)
}

func (c *BackendsConfig) validate() error {
	switch c.Primary {
	case "openai", "ollama":
	default:
		return fmt.Errorf("unknown primary backend: %s", c.Primary)
	}
	for name, value := range map[string]string{
		"openai request_timeout": c.OpenAI.RequestTimeout,
		"openai rate_interval":   c.OpenAI.RateInterval,
		"ollama request_timeout": c.Ollama.RequestTimeout,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	return nil
}

func mergeString(dst *string, overlay string) {
	if overlay != "" {
		*dst = overlay
	}
}

func envString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
