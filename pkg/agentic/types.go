package agentic

import "context"

// Passage is a single retrieved unit of syllabus text. Rank is implicit in
// retrieval order.
type Passage struct {
	Content string `json:"content"`
}

// Retriever returns ranked passages for a query. Implementations may return
// an empty slice when nothing matches.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]Passage, error)
}

// Generator produces a completion for a question grounded in the given
// context string.
type Generator interface {
	Generate(ctx context.Context, docContext, question string) (string, error)
}

// Verdict is the evaluator's self-assessment of a generated answer.
type Verdict struct {
	Sufficient      bool   `json:"sufficient"`
	MissingInfo     string `json:"missing_info"`
	RefinementQuery string `json:"refinement_query"`
}

// Result is the final payload of one Answer call.
type Result struct {
	Answer         string   `json:"answer"`
	SourcesUsed    int      `json:"sources_used"`
	ReasoningTrace []string `json:"reasoning_trace"`
	Iterations     int      `json:"iterations"`
	SubQueries     []string `json:"sub_queries"`
}
