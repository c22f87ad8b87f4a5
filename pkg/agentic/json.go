package agentic

import (
	"encoding/json"
	"fmt"
	"strings"
)

// stripFences removes a surrounding markdown code fence from model output.
// The cascade mirrors the order models actually emit fences in: an optional
// "```json" opener, a bare "```" opener, then a trailing "```".
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = s[7:]
	}
	if strings.HasPrefix(s, "```") {
		s = s[3:]
	}
	if strings.HasSuffix(s, "```") {
		s = s[:len(s)-3]
	}
	return strings.TrimSpace(s)
}

// parsePlan decodes planner output into a list of sub-queries. Anything that
// is not a JSON array of strings is an error; the caller falls back to the
// original question.
func parsePlan(raw string) ([]string, error) {
	var queries []string
	if err := json.Unmarshal([]byte(stripFences(raw)), &queries); err != nil {
		return nil, fmt.Errorf("json parse error: %w", err)
	}
	return queries, nil
}

// parseVerdict decodes evaluator output. All three keys must be present with
// the right types; a structural mismatch is treated the same as malformed
// JSON so the caller can fail open.
func parseVerdict(raw string) (Verdict, error) {
	var fields struct {
		Sufficient      *bool   `json:"sufficient"`
		MissingInfo     *string `json:"missing_info"`
		RefinementQuery *string `json:"refinement_query"`
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), &fields); err != nil {
		return Verdict{}, fmt.Errorf("json parse error: %w", err)
	}
	if fields.Sufficient == nil || fields.MissingInfo == nil || fields.RefinementQuery == nil {
		return Verdict{}, fmt.Errorf("verdict is missing required keys")
	}
	return Verdict{
		Sufficient:      *fields.Sufficient,
		MissingInfo:     *fields.MissingInfo,
		RefinementQuery: *fields.RefinementQuery,
	}, nil
}
