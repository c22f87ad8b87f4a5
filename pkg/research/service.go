package research

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/mikeboe/tutor-helper/pkg/agentic"
)

const (
	contextSeparator = "\n\n---\n\n"
	maxPapers        = 6
	maxContextBlocks = 10
	perQueryLimit    = 4
)

const conceptPromptTemplate = `
Explain the following topic in depth for a student doing research:

Topic: %s

Include:
1. **Definition**: Clear, precise definition
2. **Key Concepts**: Important sub-concepts and terminology
3. **How It Works**: Technical explanation
4. **Applications**: Real-world use cases
5. **Related Topics**: What else to study
6. **Common Misconceptions**: What students often get wrong

Use the syllabus context but provide comprehensive coverage.
`

const directionsPromptTemplate = `
Based on %s, suggest 3 interesting research directions or project ideas for a student.

For each direction:
1. **Title**: A clear research question or project idea
2. **Why It's Interesting**: Relevance and importance
3. **Approach**: How to get started
4. **Skills Needed**: What the student should learn

Keep it practical for undergraduate/graduate level.
`

const summaryPromptTemplate = `
Based on these research papers about %s, provide:

1. **Key Findings**: Main discoveries and contributions
2. **Common Themes**: What most papers agree on
3. **Gaps in Research**: What's still unexplored
4. **Future Directions**: Where research is heading
5. **Practical Implications**: How this can be applied

Papers:
%s
`

// Generator produces grounded prose from a context and an instruction.
type Generator interface {
	Generate(ctx context.Context, docContext, question string) (string, error)
}

// PaperSearcher is implemented by the academic search clients.
type PaperSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]Paper, error)
}

// Service combines syllabus retrieval, paper search, and generation into
// topic research.
type Service struct {
	generator Generator
	arxiv     PaperSearcher
	scholar   PaperSearcher
	retriever agentic.Retriever
	logger    *slog.Logger
}

type Option func(*Service)

// WithRetriever attaches a syllabus retriever. Without one, research
// falls back to general knowledge.
func WithRetriever(r agentic.Retriever) Option {
	return func(s *Service) { s.retriever = r }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func NewService(generator Generator, arxiv, scholar PaperSearcher, opts ...Option) *Service {
	s := &Service{
		generator: generator,
		arxiv:     arxiv,
		scholar:   scholar,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResearchTopic researches a topic end to end: syllabus context, a concept
// explanation, external papers, and suggested research directions.
func (s *Service) ResearchTopic(ctx context.Context, topic string, includePapers bool) (*Result, error) {
	var trace []string
	step := func(msg string) {
		trace = append(trace, msg)
		s.logger.Info(msg)
	}
	step(fmt.Sprintf("Researching: %s", topic))

	queries := []string{
		topic,
		topic + " concepts",
		topic + " applications",
		topic + " theory",
	}

	docContext := s.syllabusContext(ctx, queries, perQueryLimit)
	syllabus := docContext != ""
	if syllabus {
		step("Syllabus context retrieved")
	} else {
		step("No syllabus available, using general knowledge")
		docContext = fmt.Sprintf("Research topic: %s. Provide comprehensive academic coverage.", topic)
	}

	step("Generating concept explanation")
	explanation, err := s.generator.Generate(ctx, docContext, fmt.Sprintf(conceptPromptTemplate, topic))
	if err != nil {
		return nil, fmt.Errorf("concept explanation failed: %w", err)
	}
	step("Concept explanation generated")

	papers := []Paper{}
	if includePapers {
		step("Searching academic databases")
		papers = s.collectPapers(ctx, topic, 3)
		step(fmt.Sprintf("Found %d research papers", len(papers)))
	}

	step("Suggesting research directions")
	directions, err := s.generator.Generate(ctx, docContext, fmt.Sprintf(directionsPromptTemplate, topic))
	if err != nil {
		return nil, fmt.Errorf("research directions failed: %w", err)
	}
	step("Research complete")

	sources := Sources{Syllabus: syllabus}
	for _, p := range papers {
		switch p.Source {
		case SourceArxiv:
			sources.Arxiv++
		case SourceSemanticScholar:
			sources.SemanticScholar++
		}
	}

	if len(papers) > maxPapers {
		papers = papers[:maxPapers]
	}

	return &Result{
		Stage:              StageResearch,
		Topic:              topic,
		Explanation:        explanation,
		Papers:             papers,
		ResearchDirections: directions,
		ReasoningTrace:     trace,
		Sources:            sources,
	}, nil
}

// SummarizeFindings digests up to five paper abstracts into key findings,
// themes, and gaps.
func (s *Service) SummarizeFindings(ctx context.Context, topic string, papers []Paper) (*Summary, error) {
	if len(papers) == 0 {
		return &Summary{
			Stage:   StageSummary,
			Content: "No papers provided for summarization.",
		}, nil
	}

	selected := papers
	if len(selected) > 5 {
		selected = selected[:5]
	}

	blocks := make([]string, len(selected))
	for i, p := range selected {
		blocks[i] = fmt.Sprintf("Paper: %s\nAbstract: %s", p.Title, p.Abstract)
	}
	paperContext := strings.Join(blocks, "\n\n")

	content, err := s.generator.Generate(ctx, paperContext, fmt.Sprintf(summaryPromptTemplate, topic, paperContext))
	if err != nil {
		return nil, fmt.Errorf("findings summary failed: %w", err)
	}

	return &Summary{
		Stage:          StageSummary,
		Topic:          topic,
		Content:        content,
		PapersAnalyzed: len(papers),
	}, nil
}

// SearchPapers runs a direct paper lookup against both databases without
// any generation.
func (s *Service) SearchPapers(ctx context.Context, query string) *PaperSearch {
	papers := s.search(ctx, query, 5)
	return &PaperSearch{
		Stage:  StagePapers,
		Query:  query,
		Papers: papers,
		Total:  len(papers),
	}
}

// collectPapers gathers from both databases and ranks by citation count.
// ArXiv results carry no counts, so cited Semantic Scholar papers surface
// first and arXiv relevance order is preserved among the rest.
func (s *Service) collectPapers(ctx context.Context, topic string, maxPerSource int) []Paper {
	papers := s.search(ctx, topic, maxPerSource)
	sort.SliceStable(papers, func(i, j int) bool {
		return papers[i].Citations > papers[j].Citations
	})
	return papers
}

func (s *Service) search(ctx context.Context, query string, maxPerSource int) []Paper {
	papers := []Paper{}

	arxivPapers, err := s.arxiv.Search(ctx, query, maxPerSource)
	if err != nil {
		s.logger.Warn("Arxiv search failed", "query", query, "error", err)
	} else {
		papers = append(papers, arxivPapers...)
	}

	scholarPapers, err := s.scholar.Search(ctx, query, maxPerSource)
	if err != nil {
		s.logger.Warn("Semantic Scholar search failed", "query", query, "error", err)
	} else {
		papers = append(papers, scholarPapers...)
	}

	return papers
}

// syllabusContext merges retrieval results for several query variants,
// deduplicating on trimmed content and capping the formatted block count.
func (s *Service) syllabusContext(ctx context.Context, queries []string, limit int) string {
	if s.retriever == nil {
		return ""
	}

	var contents []string
	seen := make(map[string]bool)

	for _, query := range queries {
		passages, err := s.retriever.Retrieve(ctx, query)
		if err != nil {
			s.logger.Warn("Retrieval failed", "query", query, "error", err)
			continue
		}
		if len(passages) > limit {
			passages = passages[:limit]
		}
		for _, p := range passages {
			key := strings.TrimSpace(p.Content)
			if seen[key] {
				continue
			}
			seen[key] = true
			contents = append(contents, p.Content)
		}
	}

	if len(contents) == 0 {
		return ""
	}
	if len(contents) > maxContextBlocks {
		contents = contents[:maxContextBlocks]
	}

	blocks := make([]string, len(contents))
	for i, content := range contents {
		blocks[i] = fmt.Sprintf("Source %d:\n%s", i+1, content)
	}
	return strings.Join(blocks, contextSeparator)
}

// Markdown renders the result as a standalone report document.
func (r *Result) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Research Report: %s\n\n", r.Topic)
	b.WriteString("## Concept Overview\n\n")
	b.WriteString(r.Explanation)
	b.WriteString("\n\n## Research Directions\n\n")
	b.WriteString(r.ResearchDirections)

	if len(r.Papers) > 0 {
		b.WriteString("\n\n## Selected Papers\n\n")
		for _, p := range r.Papers {
			fmt.Fprintf(&b, "- %s (%s)", p.Title, p.Source)
			if len(p.Authors) > 0 {
				fmt.Fprintf(&b, " by %s", strings.Join(p.Authors, ", "))
			}
			if p.URL != "" {
				fmt.Fprintf(&b, " - %s", p.URL)
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}
