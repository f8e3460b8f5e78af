package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/DevanshMishra-12/AI-Agent/internal/agent"
	"github.com/DevanshMishra-12/AI-Agent/internal/ai"
	"github.com/DevanshMishra-12/AI-Agent/internal/config"
	"github.com/DevanshMishra-12/AI-Agent/internal/telemetry"
	"github.com/DevanshMishra-12/AI-Agent/internal/tools"
	"github.com/DevanshMishra-12/AI-Agent/internal/transport"
)

func setupContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	// Setup graceful shutdown
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-interrupt
		log.Println("Interrupt signal detected, shutting down gracefully...")
		cancel()
		<-interrupt
		log.Fatal("Forcing shutdown")
	}()

	return ctx
}

func rateLimitedHTTPClient() *http.Client {
	return &http.Client{
		Transport: transport.WithRateLimiting(nil, transport.DefaultMaxRateLimitRetries),
	}
}

func createAnthropicClient(apiKey string) anthropic.Client {
	return anthropic.NewClient(
		option.WithHTTPClient(rateLimitedHTTPClient()),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(5),
	)
}

func createOpenAIModel(apiKey string, model string) (*ai.OpenAIModel, error) {
	llm, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithModel(model),
		openai.WithHTTPClient(rateLimitedHTTPClient()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}
	return ai.NewOpenAIModel(llm), nil
}

func createModel(c config.Config) (ai.Model, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	switch c.LLMProvider {
	case config.ProviderAnthropic:
		client := createAnthropicClient(c.AnthropicAPIKey)
		return ai.NewAnthropicModel(client, anthropic.Model(c.LLMModel), c.MaxOutputTokens), nil
	default:
		model, err := createOpenAIModel(c.OpenAIAPIKey, c.LLMModel)
		if err != nil {
			return nil, err
		}
		return model, nil
	}
}

func createTelemetryProvider(ctx context.Context, c config.Config) (*telemetry.Provider, error) {
	telemetryConfig := telemetry.TelemetryConfig{
		Enabled:  c.TelemetryEnabled,
		Endpoint: c.OTLPEndpoint,
		// Collectors are expected on the local network
		Insecure: true,
		Version:  version,
	}
	return telemetry.NewProvider(ctx, telemetryConfig)
}

// createBridge wires the model, the Firecrawl tool server and the agent loop behind a bridge
func createBridge(c config.Config, provider *telemetry.Provider) (*agent.Bridge, error) {
	model, err := createModel(c)
	if err != nil {
		return nil, err
	}
	server := tools.NewMCPServer(tools.ServerConfig{
		Command: c.MCPCommand,
		Args:    c.MCPArgs,
		Env:     c.MCPEnv(),
	}, version)
	reactAgent := agent.NewReActAgent(model, server, provider.Tracer(), c.MaxIterations)
	return agent.NewBridge(reactAgent), nil
}
