package learning

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Stage names accepted by Teach.
const (
	StageExplain    = "explain"
	StageDeep       = "deep"
	StageReferences = "references"
	StageQuiz       = "quiz"
)

// quizContextLen caps how much syllabus text is inlined into the quiz
// prompt.
const quizContextLen = 2000

// Generator produces a completion for a prompt grounded in syllabus
// context.
type Generator interface {
	Generate(ctx context.Context, docContext, question string) (string, error)
}

// Result is the payload of one learning stage. Content and Next are set for
// the teaching stages, Questions for the quiz stage.
type Result struct {
	Stage     string         `json:"stage"`
	Content   string         `json:"content,omitempty"`
	Next      string         `json:"next,omitempty"`
	Questions []QuizQuestion `json:"questions,omitempty"`
}

// Service walks a student through a topic in stages: a beginner
// explanation, an exam-depth treatment, curated references, and a quiz.
type Service struct {
	generator Generator
	logger    *slog.Logger
}

// NewService builds the staged learning flow on a generator.
func NewService(generator Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		generator: generator,
		logger:    logger,
	}
}

const explainPromptTemplate = `
Explain **%s** in a clear, structured way for a student who is new to this concept.

Format your response using this structure:

## What is %s?
A simple, one-paragraph definition that anyone can understand.

## Key Points
- **Point 1**: Brief explanation
- **Point 2**: Brief explanation
- **Point 3**: Brief explanation

## How It Works
Explain the mechanism or process in simple terms. Use an analogy if helpful.

## Real-World Example
Give one concrete, relatable example of how this is used in practice.

## Quick Summary
One sentence that captures the essence of this topic.

Keep the explanation concise, use bullet points, and avoid jargon. Make it beginner-friendly.
`

const deepPromptTemplate = `
Provide a **comprehensive technical explanation** of **%s** for a student preparing for exams.

Format your response using this structure:

## In-Depth Overview
A detailed explanation covering all important aspects.

## Technical Details

### Core Concepts
- **Concept 1**: Detailed explanation
- **Concept 2**: Detailed explanation

### How It Works (Step by Step)
1. **Step 1**: What happens and why
2. **Step 2**: What happens and why
3. **Step 3**: What happens and why

### Mathematical/Technical Formulas (if applicable)
Include any relevant formulas or algorithms.

## Architecture/Components
Describe the main components and how they interact.

## Advantages
1. Advantage 1
2. Advantage 2

## Limitations
1. Limitation 1
2. Limitation 2

## Applications
- Application 1: Brief description
- Application 2: Brief description

## Related Concepts
- Related Topic 1 - How it connects
- Related Topic 2 - How it connects

Be thorough but organized. Use markdown formatting for clarity.
`

const referencesPromptTemplate = `
Suggest learning resources and study materials for **%s**.

Format your response:

## Official Documentation
- Link or resource name and what it covers

## Video Tutorials
- **YouTube**: Recommend specific channels or video types
- **Courses**: Coursera, Udemy, edX recommendations

## Books
- Book title by Author - Brief description of what it covers

## Hands-On Practice
- Websites for practice (Kaggle, LeetCode, etc.)
- Project ideas to implement

## Quick References
- Cheat sheets or quick reference guides

## Study Strategy
1. First, learn this...
2. Then practice this...
3. Finally, build this...

Focus on free and accessible resources when possible.
`

const quizPrompt = `
Generate 5 multiple-choice questions to TEST the student's understanding of the CONCEPTS in this topic.

CRITICAL RULES:
- DO NOT ask about syllabus structure, course codes, or chapter titles
- Ask about CONCEPTS, DEFINITIONS, APPLICATIONS, and TECHNICAL KNOWLEDGE only
- Questions should test understanding of the actual subject matter
- Use ONLY the concepts and content from the provided context
- Each question must have exactly 4 options
- Provide correct option index (0-based: 0, 1, 2, or 3)
- Output STRICT JSON format only

GOOD EXAMPLES:
- "What is the primary function of HDFS in Hadoop?"
- "Which technique is used for handling missing data?"
- "What does the term 'overfitting' mean in machine learning?"

BAD EXAMPLES (NEVER ASK):
- "What is the course code for this subject?"
- "Which lab covers this topic?"
- "What chapter discusses this?"

Required JSON Format:
{
  "questions": [
    {
      "id": 1,
      "question": "What is...",
      "options": ["Option A", "Option B", "Option C", "Option D"],
      "answer": 2
    }
  ]
}
`

// Teach runs one learning stage for a topic against the retrieved syllabus
// context. Stage names are case-insensitive.
func (s *Service) Teach(ctx context.Context, docContext, topic, stage string) (*Result, error) {
	switch strings.ToLower(stage) {
	case StageExplain:
		content, err := s.generator.Generate(ctx, docContext, fmt.Sprintf(explainPromptTemplate, topic, topic))
		if err != nil {
			return nil, fmt.Errorf("explain stage failed: %w", err)
		}
		return &Result{
			Stage:   "EXPLAIN",
			Content: content,
			Next:    "Would you like a deeper explanation?",
		}, nil

	case StageDeep:
		content, err := s.generator.Generate(ctx, docContext, fmt.Sprintf(deepPromptTemplate, topic))
		if err != nil {
			return nil, fmt.Errorf("deep stage failed: %w", err)
		}
		return &Result{
			Stage:   "DEEP",
			Content: content,
			Next:    "Would you like learning references?",
		}, nil

	case StageReferences:
		content, err := s.generator.Generate(ctx, docContext, fmt.Sprintf(referencesPromptTemplate, topic))
		if err != nil {
			return nil, fmt.Errorf("references stage failed: %w", err)
		}
		return &Result{
			Stage:   "REFERENCES",
			Content: content,
			Next:    "Ready to take a quiz?",
		}, nil

	case StageQuiz:
		return s.generateQuiz(ctx, docContext, topic)

	default:
		return nil, fmt.Errorf("invalid stage: %s", stage)
	}
}

func (s *Service) generateQuiz(ctx context.Context, docContext, topic string) (*Result, error) {
	excerpt := docContext
	if runes := []rune(docContext); len(runes) > quizContextLen {
		excerpt = string(runes[:quizContextLen])
	}

	raw, err := s.generator.Generate(ctx, docContext, quizPrompt+fmt.Sprintf("\n\nTopic: %s\n\nContext:\n%s", topic, excerpt))
	if err != nil {
		return nil, fmt.Errorf("quiz generation failed: %w", err)
	}

	quiz, err := ParseQuiz(raw)
	if err != nil {
		s.logger.Warn("Quiz parsing failed", "topic", topic, "error", err)
		return nil, fmt.Errorf("quiz generation failed: %w", err)
	}

	return &Result{
		Stage:     "QUIZ",
		Questions: quiz.Questions,
	}, nil
}
