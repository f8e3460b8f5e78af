// Package config provides configuration management for the firecrawl agent.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config holds the configuration for the agent and its web UI
type Config struct {
	// Model
	LLMProvider     string
	LLMModel        string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	MaxOutputTokens int64
	MaxIterations   int

	// Tool server
	FirecrawlAPIKey string
	MCPCommand      string
	MCPArgs         []string

	// Web UI
	ListenAddr         string
	SessionIdleTimeout time.Duration

	// Telemetry
	TelemetryEnabled bool
	OTLPEndpoint     string
}

// Load loads configuration from environment variables. Unset variables take their defaults; malformed values are
// reported as errors
func Load() (Config, error) {
	config := Config{
		LLMProvider:        getEnv("LLM_PROVIDER", ProviderOpenAI),
		LLMModel:           os.Getenv("LLM_MODEL"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey:    os.Getenv("ANTHROPIC_API_KEY"),
		MaxOutputTokens:    8192,
		MaxIterations:      25,
		FirecrawlAPIKey:    os.Getenv("FIRECRAWL_API_KEY"),
		MCPCommand:         getEnv("MCP_COMMAND", "npx"),
		MCPArgs:            strings.Fields(getEnv("MCP_ARGS", "-y firecrawl-mcp")),
		ListenAddr:         getEnv("LISTEN_ADDR", ":8501"),
		SessionIdleTimeout: 2 * time.Hour,
		OTLPEndpoint:       os.Getenv("OTLP_ENDPOINT"),
	}

	var errs []error
	errs = append(errs,
		parseOptionalFromEnv(&config.MaxOutputTokens, "MAX_OUTPUT_TOKENS", func(v string) (int64, error) {
			return strconv.ParseInt(v, 10, 64)
		}),
		parseOptionalFromEnv(&config.MaxIterations, "MAX_AGENT_ITERATIONS", strconv.Atoi),
		parseOptionalFromEnv(&config.SessionIdleTimeout, "SESSION_IDLE_TIMEOUT", time.ParseDuration),
		parseOptionalFromEnv(&config.TelemetryEnabled, "TELEMETRY_ENABLED", strconv.ParseBool),
	)
	if config.LLMModel == "" {
		config.LLMModel = DefaultModel(config.LLMProvider)
	}

	return config, errors.Join(errs...)
}

// DefaultModel returns the model used for a provider when LLM_MODEL is not set
func DefaultModel(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return "claude-sonnet-4-0"
	default:
		return "gpt-4o-mini"
	}
}

// CredentialKey returns the name of the environment variable holding the API key for the configured provider
func (c Config) CredentialKey() string {
	if c.LLMProvider == ProviderAnthropic {
		return "ANTHROPIC_API_KEY"
	}
	return "OPENAI_API_KEY"
}

// Credential returns the API key for the configured provider
func (c Config) Credential() string {
	if c.LLMProvider == ProviderAnthropic {
		return c.AnthropicAPIKey
	}
	return c.OpenAIAPIKey
}

// Validate checks if the required configuration is present
func (c Config) Validate() error {
	switch c.LLMProvider {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q, expected %q or %q", c.LLMProvider, ProviderOpenAI, ProviderAnthropic)
	}
	if c.Credential() == "" {
		return fmt.Errorf("missing required environment variable: %s", c.CredentialKey())
	}
	if c.MCPCommand == "" {
		return fmt.Errorf("missing required environment variable: MCP_COMMAND")
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("MAX_AGENT_ITERATIONS must be positive, got %d", c.MaxIterations)
	}
	return nil
}

// MCPEnv returns the environment entries passed to the tool server process
func (c Config) MCPEnv() []string {
	if c.FirecrawlAPIKey == "" {
		return nil
	}
	return []string{"FIRECRAWL_API_KEY=" + c.FirecrawlAPIKey}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseOptionalFromEnv[T any](dest *T, key string, parseFn func(string) (T, error)) error {
	str := os.Getenv(key)
	if str == "" {
		return nil // Leave default value
	}
	v, err := parseFn(str)
	if err != nil {
		return fmt.Errorf("failed to parse environment variable '%s' value '%s' as '%T': %w", key, str, *dest, err)
	}
	*dest = v
	return nil
}
