package learning

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

type scriptedGenerator struct {
	response    string
	err         error
	lastContext string
	lastPrompt  string
}

func (g *scriptedGenerator) Generate(ctx context.Context, docContext, question string) (string, error) {
	g.lastContext = docContext
	g.lastPrompt = question
	return g.response, g.err
}

func newTestService(g Generator) *Service {
	return NewService(g, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

const validQuizJSON = `{
	"questions": [
		{"id": 1, "question": "What is HDFS?", "options": ["A", "B", "C", "D"], "answer": 0},
		{"id": 2, "question": "What is a NameNode?", "options": ["A", "B", "C", "D"], "answer": 2}
	]
}`

func TestTeachStages(t *testing.T) {
	tests := []struct {
		stage     string
		wantStage string
		wantNext  string
	}{
		{"explain", "EXPLAIN", "Would you like a deeper explanation?"},
		{"deep", "DEEP", "Would you like learning references?"},
		{"references", "REFERENCES", "Ready to take a quiz?"},
		{"EXPLAIN", "EXPLAIN", "Would you like a deeper explanation?"},
	}

	for _, tt := range tests {
		t.Run(tt.stage, func(t *testing.T) {
			gen := &scriptedGenerator{response: "stage content"}
			svc := newTestService(gen)

			result, err := svc.Teach(context.Background(), "syllabus text", "Hadoop", tt.stage)
			if err != nil {
				t.Fatalf("Teach() error = %v", err)
			}

			if result.Stage != tt.wantStage {
				t.Errorf("Stage = %q, want %q", result.Stage, tt.wantStage)
			}
			if result.Content != "stage content" {
				t.Errorf("Content = %q", result.Content)
			}
			if result.Next != tt.wantNext {
				t.Errorf("Next = %q, want %q", result.Next, tt.wantNext)
			}
			if !strings.Contains(gen.lastPrompt, "Hadoop") {
				t.Errorf("prompt does not mention the topic: %q", gen.lastPrompt)
			}
			if gen.lastContext != "syllabus text" {
				t.Errorf("context = %q, want the full syllabus text", gen.lastContext)
			}
		})
	}
}

func TestTeachInvalidStage(t *testing.T) {
	svc := newTestService(&scriptedGenerator{})

	if _, err := svc.Teach(context.Background(), "ctx", "topic", "cram"); err == nil {
		t.Error("Teach() error = nil, want invalid stage error")
	}
}

func TestTeachGeneratorError(t *testing.T) {
	genErr := errors.New("model offline")
	svc := newTestService(&scriptedGenerator{err: genErr})

	if _, err := svc.Teach(context.Background(), "ctx", "topic", "explain"); !errors.Is(err, genErr) {
		t.Errorf("Teach() error = %v, want wrapped %v", err, genErr)
	}
}

func TestTeachQuizStage(t *testing.T) {
	gen := &scriptedGenerator{response: validQuizJSON}
	svc := newTestService(gen)

	result, err := svc.Teach(context.Background(), "syllabus text", "Hadoop", "quiz")
	if err != nil {
		t.Fatalf("Teach() error = %v", err)
	}

	if result.Stage != "QUIZ" {
		t.Errorf("Stage = %q, want QUIZ", result.Stage)
	}
	if len(result.Questions) != 2 {
		t.Fatalf("got %d questions, want 2", len(result.Questions))
	}
	if result.Questions[1].Answer != 2 {
		t.Errorf("Questions[1].Answer = %d, want 2", result.Questions[1].Answer)
	}
}

func TestTeachQuizTruncatesInlineContext(t *testing.T) {
	gen := &scriptedGenerator{response: validQuizJSON}
	svc := newTestService(gen)

	long := strings.Repeat("x", 2500)
	if _, err := svc.Teach(context.Background(), long, "topic", "quiz"); err != nil {
		t.Fatalf("Teach() error = %v", err)
	}

	// The prompt inlines at most 2000 characters, the grounding context
	// stays complete.
	if strings.Contains(gen.lastPrompt, strings.Repeat("x", 2001)) {
		t.Error("prompt inlined more than the context cap")
	}
	if !strings.Contains(gen.lastPrompt, strings.Repeat("x", 2000)) {
		t.Error("prompt missing the inlined context excerpt")
	}
	if gen.lastContext != long {
		t.Error("grounding context was truncated")
	}
}

func TestParseQuiz(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantLen int
		wantErr bool
	}{
		{
			name:    "plain json",
			raw:     validQuizJSON,
			wantLen: 2,
		},
		{
			name:    "fenced json",
			raw:     "```json\n" + validQuizJSON + "\n```",
			wantLen: 2,
		},
		{
			name:    "prose around json",
			raw:     "Here is your quiz:\n" + validQuizJSON + "\nGood luck!",
			wantLen: 2,
		},
		{
			name:    "missing questions key",
			raw:     `{"items": []}`,
			wantErr: true,
		},
		{
			name:    "question missing answer",
			raw:     `{"questions": [{"question": "Q?", "options": ["A", "B", "C", "D"]}]}`,
			wantErr: true,
		},
		{
			name:    "wrong option count",
			raw:     `{"questions": [{"question": "Q?", "options": ["A", "B"], "answer": 0}]}`,
			wantErr: true,
		},
		{
			name:    "not json",
			raw:     "I cannot generate a quiz right now",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quiz, err := ParseQuiz(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseQuiz() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseQuiz() error = %v", err)
			}
			if len(quiz.Questions) != tt.wantLen {
				t.Errorf("got %d questions, want %d", len(quiz.Questions), tt.wantLen)
			}
		})
	}
}
