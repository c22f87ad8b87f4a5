package learning

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// QuizQuestion is one generated multiple-choice question. Answer is the
// 0-based index into Options.
type QuizQuestion struct {
	ID       int      `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   int      `json:"answer"`
}

// Quiz is a validated set of questions for one topic.
type Quiz struct {
	Questions []QuizQuestion `json:"questions"`
}

var (
	fenceRe      = regexp.MustCompile("```json\\s*|```\\s*")
	jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)
)

// cleanJSONResponse extracts the JSON object from model output, dropping
// code fences and any prose around the outermost braces.
func cleanJSONResponse(raw string) string {
	raw = fenceRe.ReplaceAllString(raw, "")

	if match := jsonObjectRe.FindString(raw); match != "" {
		return match
	}

	return strings.TrimSpace(raw)
}

// ParseQuiz decodes and validates model output into a Quiz. Every question
// must carry its text, exactly 4 options, and an answer index.
func ParseQuiz(raw string) (*Quiz, error) {
	cleaned := cleanJSONResponse(raw)

	var decoded struct {
		Questions []struct {
			ID       int       `json:"id"`
			Question *string   `json:"question"`
			Options  *[]string `json:"options"`
			Answer   *int      `json:"answer"`
		} `json:"questions"`
	}
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}
	if decoded.Questions == nil {
		return nil, fmt.Errorf("missing questions key")
	}

	quiz := &Quiz{Questions: make([]QuizQuestion, 0, len(decoded.Questions))}
	for i, q := range decoded.Questions {
		if q.Question == nil || q.Options == nil || q.Answer == nil {
			return nil, fmt.Errorf("question %d has an invalid structure", i+1)
		}
		if len(*q.Options) != 4 {
			return nil, fmt.Errorf("question %d must have exactly 4 options", i+1)
		}
		quiz.Questions = append(quiz.Questions, QuizQuestion{
			ID:       q.ID,
			Question: *q.Question,
			Options:  *q.Options,
			Answer:   *q.Answer,
		})
	}

	return quiz, nil
}
