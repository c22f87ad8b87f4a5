package agentic

import (
	"context"
	"fmt"
)

const plannerContext = "You are a query planning assistant."

const planningPromptTemplate = `
Analyze this question and break it into 2-3 specific sub-queries for retrieving information.

Question: %s

Return ONLY a JSON array of sub-queries:
["sub-query 1", "sub-query 2", "sub-query 3"]

Examples:
Question: "How do I build a neural network for image classification?"
Output: ["neural network architecture basics", "image classification datasets", "training neural networks"]

Question: "Compare MapReduce and Spark"
Output: ["MapReduce architecture and features", "Apache Spark architecture and features", "MapReduce vs Spark performance"]
`

// planQueryStrategy asks the generator to decompose the question into
// sub-queries. Planning fails soft: any generation or parse failure is
// logged and the original question is used as the only query.
func (e *Engine) planQueryStrategy(ctx context.Context, question string) []string {
	prompt := fmt.Sprintf(planningPromptTemplate, question)

	response, err := e.generator.Generate(ctx, plannerContext, prompt)
	if err != nil {
		e.logger.Warn("Query planning failed", "error", err)
		return []string{question}
	}

	subQueries, err := parsePlan(response)
	if err != nil {
		e.logger.Warn("Query planning failed", "error", err)
		return []string{question}
	}
	return subQueries
}
