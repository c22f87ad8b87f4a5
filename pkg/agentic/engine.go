package agentic

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const (
	// contextSeparator joins passage blocks and refinement appendices.
	contextSeparator = "\n\n---\n\n"

	// notFoundAnswer is returned when retrieval yields no context at all.
	notFoundAnswer = "I couldn't find relevant information in the syllabus for this question."
)

// Config holds the loop bounds. The defaults reproduce the tutoring
// behavior the rest of the system is calibrated against; tests and special
// deployments can override them through options.
type Config struct {
	MaxIterations  int
	PlanLimit      int
	RefineLimit    int
	MaxPassages    int
	EvalExcerptLen int
}

func defaultConfig() Config {
	return Config{
		MaxIterations:  3,
		PlanLimit:      3,
		RefineLimit:    2,
		MaxPassages:    10,
		EvalExcerptLen: 500,
	}
}

// Engine runs the retrieval-refinement loop: plan sub-queries, retrieve and
// merge passages, generate an answer, self-evaluate, and refine retrieval
// until the answer is sufficient or the iteration budget runs out.
//
// All state is local to one Answer call; an Engine is safe for concurrent
// use as long as its Retriever and Generator are.
type Engine struct {
	retriever Retriever
	generator Generator
	cfg       Config
	logger    *slog.Logger
	onTrace   func(step string)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger replaces the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMaxIterations bounds the generate-evaluate-refine loop.
func WithMaxIterations(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.cfg.MaxIterations = n
		}
	}
}

// WithPassageCap bounds the merged context size in passages.
func WithPassageCap(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.cfg.MaxPassages = n
		}
	}
}

// WithQueryLimits bounds how many passages each query contributes, for the
// initial planned retrieval and for refinement retrieval respectively.
func WithQueryLimits(plan, refine int) Option {
	return func(e *Engine) {
		if plan > 0 {
			e.cfg.PlanLimit = plan
		}
		if refine > 0 {
			e.cfg.RefineLimit = refine
		}
	}
}

// WithEvalExcerpt sets how many characters of context the evaluator sees.
func WithEvalExcerpt(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.cfg.EvalExcerptLen = n
		}
	}
}

// WithTraceHook installs a callback invoked for every reasoning-trace entry
// as it is appended. Useful for streaming progress to a client.
func WithTraceHook(fn func(step string)) Option {
	return func(e *Engine) {
		e.onTrace = fn
	}
}

// New builds an Engine around the injected retrieval and generation
// capabilities.
func New(retriever Retriever, generator Generator, opts ...Option) *Engine {
	e := &Engine{
		retriever: retriever,
		generator: generator,
		cfg:       defaultConfig(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// trace appends a step to the reasoning trace and mirrors it to the hook.
func (e *Engine) trace(steps *[]string, step string) {
	*steps = append(*steps, step)
	if e.onTrace != nil {
		e.onTrace(step)
	}
}

// Answer runs the full loop for one question. With usePlanning the question
// is first decomposed into sub-queries to widen retrieval; otherwise the
// question itself is the only retrieval query.
//
// Planner, aggregator, and evaluator failures are recovered internally. A
// Generator failure during answer generation is the one fatal condition and
// is returned to the caller.
func (e *Engine) Answer(ctx context.Context, question string, usePlanning bool) (*Result, error) {
	var reasoningTrace []string

	var subQueries []string
	if usePlanning {
		e.trace(&reasoningTrace, "Planning retrieval strategy...")
		subQueries = e.planQueryStrategy(ctx, question)
		e.trace(&reasoningTrace, fmt.Sprintf("Sub-queries: %v", subQueries))
	} else {
		subQueries = []string{question}
		e.trace(&reasoningTrace, "Using direct query")
	}

	e.trace(&reasoningTrace, "Retrieving information...")
	docContext := e.retrieveMerged(ctx, subQueries, e.cfg.PlanLimit)

	if docContext == "" {
		return &Result{
			Answer:         notFoundAnswer,
			SourcesUsed:    0,
			ReasoningTrace: reasoningTrace,
			Iterations:     0,
		}, nil
	}

	e.trace(&reasoningTrace, "Retrieved information from multiple sources")

	var answer string
	iterations := 0

	for iteration := 0; iteration < e.cfg.MaxIterations; iteration++ {
		iterations = iteration + 1
		e.trace(&reasoningTrace, fmt.Sprintf("Generating answer (iteration %d)...", iteration+1))

		var err error
		answer, err = e.generator.Generate(ctx, docContext, question)
		if err != nil {
			return nil, fmt.Errorf("answer generation failed: %w", err)
		}

		// No evaluation on the last iteration; nothing is left to refine.
		if iteration >= e.cfg.MaxIterations-1 {
			break
		}

		e.trace(&reasoningTrace, "Evaluating answer quality...")
		verdict := e.checkAnswerQuality(ctx, question, answer, docContext)

		if verdict.Sufficient {
			e.trace(&reasoningTrace, "Answer is sufficient")
			break
		}

		e.trace(&reasoningTrace, fmt.Sprintf("Missing info: %s", verdict.MissingInfo))

		if verdict.RefinementQuery != "" {
			e.trace(&reasoningTrace, fmt.Sprintf("Refining with query: %s", verdict.RefinementQuery))
			additional := e.retrieveMerged(ctx, []string{verdict.RefinementQuery}, e.cfg.RefineLimit)
			docContext = docContext + contextSeparator + additional
		}
	}

	e.trace(&reasoningTrace, "Final answer generated")

	result := &Result{
		Answer:         answer,
		SourcesUsed:    len(strings.Split(docContext, "---")),
		ReasoningTrace: reasoningTrace,
		Iterations:     iterations,
	}
	if usePlanning {
		result.SubQueries = subQueries
	}
	return result, nil
}

// AnswerSimple runs the loop with planning enabled and returns only the
// answer text.
func (e *Engine) AnswerSimple(ctx context.Context, question string) (string, error) {
	result, err := e.Answer(ctx, question, true)
	if err != nil {
		return "", err
	}
	return result.Answer, nil
}
