package qa

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

const systemPrompt = `You are an AI Teaching Assistant.

Rules:
1. Answer ONLY using the provided syllabus context.
2. Do NOT use outside knowledge.
3. If the answer is not present in the syllabus, say:
   "This topic is not covered in the syllabus."
4. Keep answers clear, structured, and student-friendly.`

const answerPromptTemplate = `
SYLLABUS CONTEXT:
%s

QUESTION:
%s
`

// NotCovered is the canned reply the model is instructed to give for
// questions outside the indexed material.
const NotCovered = "This topic is not covered in the syllabus."

// Generator produces syllabus-grounded answers through a chat model. It is
// the generation capability behind both the simple /ask flow and the
// retrieval-refinement loop.
type Generator struct {
	llm         llms.Model
	temperature float64
	maxTokens   int
}

// Option configures a Generator.
type Option func(*Generator)

// WithTemperature overrides the sampling temperature.
func WithTemperature(t float64) Option {
	return func(g *Generator) {
		g.temperature = t
	}
}

// WithMaxTokens overrides the completion token budget.
func WithMaxTokens(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxTokens = n
		}
	}
}

// NewGenerator wraps a chat model in the teaching-assistant prompt.
func NewGenerator(llm llms.Model, opts ...Option) *Generator {
	g := &Generator{
		llm:         llm,
		temperature: 0.3,
		maxTokens:   300,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate answers the question using only the provided syllabus context.
func (g *Generator) Generate(ctx context.Context, docContext, question string) (string, error) {
	prompt := fmt.Sprintf(answerPromptTemplate, docContext, question)

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	resp, err := g.llm.GenerateContent(ctx, content,
		llms.WithTemperature(g.temperature),
		llms.WithMaxTokens(g.maxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("llm call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm returned no choices")
	}

	return strings.TrimSpace(resp.Choices[0].Content), nil
}
