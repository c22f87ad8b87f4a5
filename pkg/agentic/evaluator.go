package agentic

import (
	"context"
	"fmt"
)

const evaluationPromptTemplate = `
Evaluate if this answer sufficiently addresses the question.

Question: %s

Answer: %s

Respond with JSON:
{
  "sufficient": true/false,
  "missing_info": "what information is missing (if any)",
  "refinement_query": "a more specific query to get missing info (if needed)"
}
`

// checkAnswerQuality asks the generator to self-assess the answer. Only a
// short excerpt of the context is sent as grounding to keep the evaluation
// call small. The evaluator fails open: any generation or parse failure is
// logged and the answer is treated as sufficient, so unparsable model
// output can never trap the loop in endless refinement.
func (e *Engine) checkAnswerQuality(ctx context.Context, question, answer, docContext string) Verdict {
	prompt := fmt.Sprintf(evaluationPromptTemplate, question, answer)

	excerpt := docContext
	if runes := []rune(docContext); len(runes) > e.cfg.EvalExcerptLen {
		excerpt = string(runes[:e.cfg.EvalExcerptLen])
	}

	response, err := e.generator.Generate(ctx, excerpt, prompt)
	if err != nil {
		e.logger.Warn("Evaluation failed", "error", err)
		return Verdict{Sufficient: true}
	}

	verdict, err := parseVerdict(response)
	if err != nil {
		e.logger.Warn("Evaluation failed", "error", err)
		return Verdict{Sufficient: true}
	}
	return verdict
}
