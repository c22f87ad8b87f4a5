package agentic

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

// routingGenerator scripts responses per role. The engine's three generator
// call sites are told apart by the fixed planner context and the evaluation
// prompt; everything else is answer generation. Call counts let tests assert
// which sites ran.
type routingGenerator struct {
	planResponse string
	planErr      error
	planCalls    int

	evalResponses []string
	evalErr       error
	evalCalls     int
	evalContexts  []string

	genResponses []string
	genErr       error
	genCalls     int
	genContexts  []string
}

func (g *routingGenerator) Generate(ctx context.Context, docContext, question string) (string, error) {
	switch {
	case docContext == plannerContext:
		g.planCalls++
		if g.planErr != nil {
			return "", g.planErr
		}
		return g.planResponse, nil

	case strings.Contains(question, "Evaluate if this answer"):
		g.evalCalls++
		g.evalContexts = append(g.evalContexts, docContext)
		if g.evalErr != nil {
			return "", g.evalErr
		}
		idx := g.evalCalls - 1
		if idx >= len(g.evalResponses) {
			idx = len(g.evalResponses) - 1
		}
		if idx < 0 {
			return "", errors.New("no scripted evaluation response")
		}
		return g.evalResponses[idx], nil

	default:
		g.genCalls++
		g.genContexts = append(g.genContexts, docContext)
		if g.genErr != nil {
			return "", g.genErr
		}
		idx := g.genCalls - 1
		if idx >= len(g.genResponses) {
			idx = len(g.genResponses) - 1
		}
		if idx < 0 {
			return "generated answer", nil
		}
		return g.genResponses[idx], nil
	}
}

// stubRetriever serves scripted passages per query and records every query
// it was asked.
type stubRetriever struct {
	results map[string][]Passage
	errs    map[string]error
	queries []string
}

func (r *stubRetriever) Retrieve(ctx context.Context, query string) ([]Passage, error) {
	r.queries = append(r.queries, query)
	if err := r.errs[query]; err != nil {
		return nil, err
	}
	return r.results[query], nil
}

func passages(contents ...string) []Passage {
	out := make([]Passage, len(contents))
	for i, c := range contents {
		out[i] = Passage{Content: c}
	}
	return out
}

func newTestEngine(r Retriever, g Generator, opts ...Option) *Engine {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(r, g, append([]Option{WithLogger(quiet)}, opts...)...)
}

func sufficientVerdict() string {
	return `{"sufficient": true, "missing_info": "", "refinement_query": ""}`
}

func insufficientVerdict(refinement string) string {
	return `{"sufficient": false, "missing_info": "details are missing", "refinement_query": "` + refinement + `"}`
}

func TestAnswerNoContextShortCircuits(t *testing.T) {
	gen := &routingGenerator{planResponse: `["q1", "q2"]`}
	ret := &stubRetriever{results: map[string][]Passage{}}
	engine := newTestEngine(ret, gen)

	result, err := engine.Answer(context.Background(), "unknown topic", true)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}

	if result.Answer != notFoundAnswer {
		t.Errorf("Answer = %q, want %q", result.Answer, notFoundAnswer)
	}
	if result.Iterations != 0 {
		t.Errorf("Iterations = %d, want 0", result.Iterations)
	}
	if result.SourcesUsed != 0 {
		t.Errorf("SourcesUsed = %d, want 0", result.SourcesUsed)
	}
	if result.SubQueries != nil {
		t.Errorf("SubQueries = %v, want nil", result.SubQueries)
	}
	if gen.genCalls != 0 {
		t.Errorf("answer generation ran %d times, want 0", gen.genCalls)
	}
}

func TestAnswerSingleIteration(t *testing.T) {
	gen := &routingGenerator{
		planResponse:  `["MapReduce architecture", "Spark architecture", "MapReduce vs Spark performance"]`,
		genResponses:  []string{"MapReduce batches, Spark streams."},
		evalResponses: []string{sufficientVerdict()},
	}
	ret := &stubRetriever{results: map[string][]Passage{
		"MapReduce architecture":         passages("mr-a", "mr-b"),
		"Spark architecture":             passages("sp-a", "sp-b"),
		"MapReduce vs Spark performance": passages("perf-a", "perf-b"),
	}}
	engine := newTestEngine(ret, gen)

	result, err := engine.Answer(context.Background(), "Compare MapReduce and Spark", true)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}

	if result.Answer != "MapReduce batches, Spark streams." {
		t.Errorf("Answer = %q", result.Answer)
	}
	if result.Iterations != 1 {
		t.Errorf("Iterations = %d, want 1", result.Iterations)
	}
	if result.SourcesUsed != 6 {
		t.Errorf("SourcesUsed = %d, want 6", result.SourcesUsed)
	}
	want := []string{"MapReduce architecture", "Spark architecture", "MapReduce vs Spark performance"}
	if len(result.SubQueries) != len(want) {
		t.Fatalf("SubQueries = %v, want %v", result.SubQueries, want)
	}
	for i, q := range want {
		if result.SubQueries[i] != q {
			t.Errorf("SubQueries[%d] = %q, want %q", i, result.SubQueries[i], q)
		}
	}
	if blocks := strings.Count(gen.genContexts[0], "Source "); blocks != 6 {
		t.Errorf("merged context has %d source blocks, want 6", blocks)
	}
	if gen.genCalls != 1 || gen.evalCalls != 1 {
		t.Errorf("genCalls = %d evalCalls = %d, want 1 and 1", gen.genCalls, gen.evalCalls)
	}
}

func TestAnswerRefinementRound(t *testing.T) {
	gen := &routingGenerator{
		planResponse: `["query one"]`,
		genResponses: []string{"first draft", "refined answer"},
		evalResponses: []string{
			insufficientVerdict("X"),
			sufficientVerdict(),
		},
	}
	ret := &stubRetriever{results: map[string][]Passage{
		"query one": passages("base passage"),
		"X":         passages("extra passage"),
	}}
	engine := newTestEngine(ret, gen)

	result, err := engine.Answer(context.Background(), "complex question", true)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}

	if result.Iterations != 2 {
		t.Errorf("Iterations = %d, want 2", result.Iterations)
	}
	if result.Answer != "refined answer" {
		t.Errorf("Answer = %q, want %q", result.Answer, "refined answer")
	}

	refined := false
	for _, q := range ret.queries {
		if q == "X" {
			refined = true
		}
	}
	if !refined {
		t.Errorf("retriever never received the refinement query, queries = %v", ret.queries)
	}

	if len(gen.genContexts) != 2 {
		t.Fatalf("genContexts = %d entries, want 2", len(gen.genContexts))
	}
	wantSecond := gen.genContexts[0] + contextSeparator + "Source 1:\nextra passage"
	if gen.genContexts[1] != wantSecond {
		t.Errorf("refined context = %q, want %q", gen.genContexts[1], wantSecond)
	}
}

func TestAnswerIterationBound(t *testing.T) {
	gen := &routingGenerator{
		planResponse:  `["query one"]`,
		genResponses:  []string{"draft"},
		evalResponses: []string{insufficientVerdict("more")},
	}
	ret := &stubRetriever{results: map[string][]Passage{
		"query one": passages("base"),
		"more":      passages("again"),
	}}
	engine := newTestEngine(ret, gen)

	result, err := engine.Answer(context.Background(), "question", true)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}

	if gen.genCalls != 3 {
		t.Errorf("genCalls = %d, want 3", gen.genCalls)
	}
	if result.Iterations != 3 {
		t.Errorf("Iterations = %d, want 3", result.Iterations)
	}
}

func TestLastIterationSkipsEvaluation(t *testing.T) {
	gen := &routingGenerator{
		planResponse:  `["query one"]`,
		genResponses:  []string{"draft"},
		evalResponses: []string{insufficientVerdict("more")},
	}
	ret := &stubRetriever{results: map[string][]Passage{
		"query one": passages("base"),
		"more":      passages("again"),
	}}
	engine := newTestEngine(ret, gen)

	if _, err := engine.Answer(context.Background(), "question", true); err != nil {
		t.Fatalf("Answer() error = %v", err)
	}

	// Three generation rounds, but the final round must not be evaluated.
	if gen.evalCalls != 2 {
		t.Errorf("evalCalls = %d, want 2", gen.evalCalls)
	}
}

func TestAnswerPlannerFallback(t *testing.T) {
	gen := &routingGenerator{
		planResponse:  "not json",
		genResponses:  []string{"answer"},
		evalResponses: []string{sufficientVerdict()},
	}
	ret := &stubRetriever{results: map[string][]Passage{
		"What is HDFS?": passages("hdfs passage"),
	}}
	engine := newTestEngine(ret, gen)

	result, err := engine.Answer(context.Background(), "What is HDFS?", true)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}

	if len(result.SubQueries) != 1 || result.SubQueries[0] != "What is HDFS?" {
		t.Errorf("SubQueries = %v, want [What is HDFS?]", result.SubQueries)
	}
	if len(ret.queries) != 1 || ret.queries[0] != "What is HDFS?" {
		t.Errorf("retriever queries = %v, want the original question only", ret.queries)
	}
}

func TestAnswerGenerationErrorPropagates(t *testing.T) {
	genErr := errors.New("model unavailable")
	gen := &routingGenerator{
		planResponse: `["query one"]`,
		genErr:       genErr,
	}
	ret := &stubRetriever{results: map[string][]Passage{
		"query one": passages("base"),
	}}
	engine := newTestEngine(ret, gen)

	result, err := engine.Answer(context.Background(), "question", true)
	if err == nil {
		t.Fatal("Answer() error = nil, want propagated generation error")
	}
	if !errors.Is(err, genErr) {
		t.Errorf("error = %v, want wrapped %v", err, genErr)
	}
	if result != nil {
		t.Errorf("result = %+v, want nil", result)
	}
}

func TestAnswerEmptyRefinementStillIterates(t *testing.T) {
	gen := &routingGenerator{
		planResponse: `["query one"]`,
		genResponses: []string{"draft", "second draft"},
		evalResponses: []string{
			`{"sufficient": false, "missing_info": "something", "refinement_query": ""}`,
			sufficientVerdict(),
		},
	}
	ret := &stubRetriever{results: map[string][]Passage{
		"query one": passages("base"),
	}}
	engine := newTestEngine(ret, gen)

	result, err := engine.Answer(context.Background(), "question", true)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}

	if result.Iterations != 2 {
		t.Errorf("Iterations = %d, want 2", result.Iterations)
	}
	// No refinement query means no extra retrieval and an unchanged context.
	if len(ret.queries) != 1 {
		t.Errorf("retriever queries = %v, want the initial query only", ret.queries)
	}
	if gen.genContexts[0] != gen.genContexts[1] {
		t.Errorf("context changed without refinement retrieval")
	}
}

func TestAnswerEmptyRefinementRetrievalAppendsSeparator(t *testing.T) {
	gen := &routingGenerator{
		planResponse: `["query one"]`,
		genResponses: []string{"draft", "second draft"},
		evalResponses: []string{
			insufficientVerdict("nothing matches this"),
			sufficientVerdict(),
		},
	}
	ret := &stubRetriever{results: map[string][]Passage{
		"query one": passages("base"),
	}}
	engine := newTestEngine(ret, gen)

	result, err := engine.Answer(context.Background(), "question", true)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}

	// The refinement retrieved nothing, so the appended block is empty and
	// the naive delimiter count rises anyway.
	if result.SourcesUsed != 2 {
		t.Errorf("SourcesUsed = %d, want 2", result.SourcesUsed)
	}
	if gen.genContexts[1] != gen.genContexts[0]+contextSeparator {
		t.Errorf("refined context = %q, want trailing separator append", gen.genContexts[1])
	}
}

func TestAnswerDirectQuery(t *testing.T) {
	gen := &routingGenerator{
		genResponses:  []string{"direct answer"},
		evalResponses: []string{sufficientVerdict()},
	}
	ret := &stubRetriever{results: map[string][]Passage{
		"plain question": passages("passage"),
	}}
	engine := newTestEngine(ret, gen)

	result, err := engine.Answer(context.Background(), "plain question", false)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}

	if gen.planCalls != 0 {
		t.Errorf("planCalls = %d, want 0", gen.planCalls)
	}
	if result.SubQueries != nil {
		t.Errorf("SubQueries = %v, want nil without planning", result.SubQueries)
	}

	foundDirect := false
	for _, step := range result.ReasoningTrace {
		if step == "Using direct query" {
			foundDirect = true
		}
	}
	if !foundDirect {
		t.Errorf("trace missing direct-query step: %v", result.ReasoningTrace)
	}
}

func TestAnswerSimple(t *testing.T) {
	gen := &routingGenerator{
		planResponse:  `["query one"]`,
		genResponses:  []string{"just the answer"},
		evalResponses: []string{sufficientVerdict()},
	}
	ret := &stubRetriever{results: map[string][]Passage{
		"query one": passages("base"),
	}}
	engine := newTestEngine(ret, gen)

	answer, err := engine.AnswerSimple(context.Background(), "question")
	if err != nil {
		t.Fatalf("AnswerSimple() error = %v", err)
	}
	if answer != "just the answer" {
		t.Errorf("AnswerSimple() = %q, want %q", answer, "just the answer")
	}
}

func TestTraceHookMirrorsTrace(t *testing.T) {
	gen := &routingGenerator{
		planResponse:  `["query one"]`,
		genResponses:  []string{"answer"},
		evalResponses: []string{sufficientVerdict()},
	}
	ret := &stubRetriever{results: map[string][]Passage{
		"query one": passages("base"),
	}}

	var streamed []string
	engine := newTestEngine(ret, gen, WithTraceHook(func(step string) {
		streamed = append(streamed, step)
	}))

	result, err := engine.Answer(context.Background(), "question", true)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}

	if len(streamed) != len(result.ReasoningTrace) {
		t.Fatalf("streamed %d steps, trace has %d", len(streamed), len(result.ReasoningTrace))
	}
	for i := range streamed {
		if streamed[i] != result.ReasoningTrace[i] {
			t.Errorf("streamed[%d] = %q, trace[%d] = %q", i, streamed[i], i, result.ReasoningTrace[i])
		}
	}
}
