package agentic

import (
	"context"
	"fmt"
	"strings"
)

// retrieveMerged fans the retriever out over all queries and merges the
// results into one labeled context string. Passages are deduplicated by
// trimmed content across the whole call, order-preserving on first
// occurrence, taking at most k passages per query and MaxPassages overall.
// A failure on one query is logged and the remaining queries continue.
// Returns "" when nothing at all was retrieved.
func (e *Engine) retrieveMerged(ctx context.Context, queries []string, k int) string {
	var merged []Passage
	seenContent := make(map[string]bool)

	for _, query := range queries {
		passages, err := e.retriever.Retrieve(ctx, query)
		if err != nil {
			e.logger.Warn("Retrieval failed", "query", query, "error", err)
			continue
		}

		if len(passages) > k {
			passages = passages[:k]
		}
		for _, p := range passages {
			content := strings.TrimSpace(p.Content)
			if !seenContent[content] {
				merged = append(merged, p)
				seenContent[content] = true
			}
		}
	}

	if len(merged) == 0 {
		return ""
	}

	if len(merged) > e.cfg.MaxPassages {
		merged = merged[:e.cfg.MaxPassages]
	}

	blocks := make([]string, len(merged))
	for i, p := range merged {
		blocks[i] = fmt.Sprintf("Source %d:\n%s", i+1, p.Content)
	}
	return strings.Join(blocks, contextSeparator)
}
