package clients

import (
	"context"
	"fmt"
	"os"

	"github.com/tmc/langchaingo/llms/googleai"
)

// Default Gemini models. REASONING_MODEL and FAST_MODEL override these with
// any model name the API accepts.
const (
	DefaultModel = "gemini-3-flash-preview"
	ProModel     = "gemini-3-pro-preview"
)

// GoogleAi builds a Gemini-backed chat model. An empty model name falls back
// to DefaultModel.
func GoogleAi(model string) (*googleai.GoogleAI, error) {
	apiKey := os.Getenv("GOOGLE_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GOOGLE_API_KEY is not set")
	}
	if model == "" {
		model = DefaultModel
	}

	// See https://ai.google.dev/gemini-api/docs/models/gemini for possible models
	llm, err := googleai.New(context.Background(),
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model))
	if err != nil {
		return nil, fmt.Errorf("failed to create google ai client: %w", err)
	}

	return llm, nil
}
