package lab

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type scriptedGenerator struct {
	response   string
	err        error
	lastPrompt string
}

func (g *scriptedGenerator) Generate(ctx context.Context, docContext, question string) (string, error) {
	g.lastPrompt = question
	return g.response, g.err
}

func TestGuideSteps(t *testing.T) {
	tests := []struct {
		step      string
		wantStage string
		wantNext  string
	}{
		{"explanation", "EXPLANATION", "Do you want pseudocode to understand the working?"},
		{"pseudocode", "PSEUDOCODE", "Do you want viva questions?"},
		{"viva", "VIVA", "Ask doubts or visit Theory page for more"},
		{"VIVA", "VIVA", "Ask doubts or visit Theory page for more"},
	}

	for _, tt := range tests {
		t.Run(tt.step, func(t *testing.T) {
			gen := &scriptedGenerator{response: "lab content"}
			svc := NewService(gen)

			result, err := svc.Guide(context.Background(), "lab manual text", "Implement page replacement", tt.step)
			if err != nil {
				t.Fatalf("Guide() error = %v", err)
			}

			if result.Stage != tt.wantStage {
				t.Errorf("Stage = %q, want %q", result.Stage, tt.wantStage)
			}
			if result.Content != "lab content" {
				t.Errorf("Content = %q", result.Content)
			}
			if result.Next != tt.wantNext {
				t.Errorf("Next = %q, want %q", result.Next, tt.wantNext)
			}
			if !strings.Contains(gen.lastPrompt, "Experiment: Implement page replacement") {
				t.Errorf("prompt missing experiment title: %q", gen.lastPrompt)
			}
		})
	}
}

func TestGuideInvalidStep(t *testing.T) {
	svc := NewService(&scriptedGenerator{})

	if _, err := svc.Guide(context.Background(), "ctx", "exp", "report"); err == nil {
		t.Error("Guide() error = nil, want invalid step error")
	}
}

func TestGuideGeneratorError(t *testing.T) {
	genErr := errors.New("model offline")
	svc := NewService(&scriptedGenerator{err: genErr})

	if _, err := svc.Guide(context.Background(), "ctx", "exp", "viva"); !errors.Is(err, genErr) {
		t.Errorf("Guide() error = %v, want wrapped %v", err, genErr)
	}
}
