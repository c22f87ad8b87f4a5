package research

// Paper source labels.
const (
	SourceArxiv           = "arXiv"
	SourceSemanticScholar = "Semantic Scholar"
)

// Response stages.
const (
	StageResearch = "RESEARCH"
	StageSummary  = "SUMMARY"
	StagePapers   = "PAPERS"
)

// Paper is one academic search result. ArXiv results carry a published
// date, Semantic Scholar results carry year and citation counts.
type Paper struct {
	Title     string   `json:"title"`
	Abstract  string   `json:"abstract"`
	Authors   []string `json:"authors"`
	Published string   `json:"published,omitempty"`
	Year      int      `json:"year,omitempty"`
	Citations int      `json:"citations,omitempty"`
	URL       string   `json:"url"`
	Source    string   `json:"source"`
}

// Sources reports where the research material came from.
type Sources struct {
	Syllabus        bool `json:"syllabus"`
	Arxiv           int  `json:"arxiv"`
	SemanticScholar int  `json:"semantic_scholar"`
}

// Result is the full research payload for one topic.
type Result struct {
	Stage              string   `json:"stage"`
	Topic              string   `json:"topic"`
	Explanation        string   `json:"explanation"`
	Papers             []Paper  `json:"papers"`
	ResearchDirections string   `json:"research_directions"`
	ReasoningTrace     []string `json:"reasoning_trace"`
	Sources            Sources  `json:"sources"`
}

// Summary is the cross-paper findings digest.
type Summary struct {
	Stage          string `json:"stage"`
	Topic          string `json:"topic,omitempty"`
	Content        string `json:"content"`
	PapersAnalyzed int    `json:"papers_analyzed,omitempty"`
}

// PaperSearch is the payload of a direct paper lookup.
type PaperSearch struct {
	Stage  string  `json:"stage"`
	Query  string  `json:"query"`
	Papers []Paper `json:"papers"`
	Total  int     `json:"total"`
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
