package clients

import (
	"fmt"
	"os"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
)

const (
	ClaudeSonnet = "claude-3-5-sonnet-latest"
	ClaudeHaiku  = "claude-3-5-haiku-20241022"
)

// AnthropicAI builds a Claude-backed chat model. An empty model name falls
// back to ClaudeSonnet.
func AnthropicAI(model string) (*anthropic.LLM, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is not set")
	}
	if model == "" {
		model = ClaudeSonnet
	}

	llm, err := anthropic.New(anthropic.WithToken(apiKey), anthropic.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("failed to create anthropic client: %w", err)
	}

	return llm, nil
}

// ForProvider picks the chat model for the configured provider. An empty
// provider falls back to Google; the model name must belong to the chosen
// provider and falls back to its default when empty.
func ForProvider(provider, model string) (llms.Model, error) {
	switch provider {
	case "anthropic":
		return AnthropicAI(model)
	case "", "google":
		return GoogleAi(model)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", provider)
	}
}
