package agentic

import (
	"context"
	"errors"
	"testing"
)

func TestPlanQueryStrategy(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
		question string
		want     []string
	}{
		{
			name:     "multi query plan",
			response: `["poly deadlines", "assignment due dates"]`,
			question: "When is the project due?",
			want:     []string{"poly deadlines", "assignment due dates"},
		},
		{
			name:     "fenced plan",
			response: "```json\n[\"normalization rules\"]\n```",
			question: "Explain normalization",
			want:     []string{"normalization rules"},
		},
		{
			name:     "empty plan is honored",
			response: `[]`,
			question: "anything",
			want:     []string{},
		},
		{
			name:     "prose response falls back",
			response: "I would break this into two searches",
			question: "Compare B-trees and LSM trees",
			want:     []string{"Compare B-trees and LSM trees"},
		},
		{
			name:     "object response falls back",
			response: `{"queries": ["a"]}`,
			question: "What is sharding?",
			want:     []string{"What is sharding?"},
		},
		{
			name:     "generator error falls back",
			err:      errors.New("rate limited"),
			question: "What is replication?",
			want:     []string{"What is replication?"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &routingGenerator{
				planResponse: tt.response,
				planErr:      tt.err,
			}
			engine := newTestEngine(&stubRetriever{}, gen)

			got := engine.planQueryStrategy(context.Background(), tt.question)
			if len(got) != len(tt.want) {
				t.Fatalf("planQueryStrategy() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("planQueryStrategy()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
			if gen.planCalls != 1 {
				t.Errorf("planCalls = %d, want 1", gen.planCalls)
			}
		})
	}
}
