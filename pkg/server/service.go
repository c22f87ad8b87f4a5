package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"

	"github.com/mikeboe/tutor-helper/pkg/agentic"
	"github.com/mikeboe/tutor-helper/pkg/clients"
	"github.com/mikeboe/tutor-helper/pkg/config"
	"github.com/mikeboe/tutor-helper/pkg/database"
	"github.com/mikeboe/tutor-helper/pkg/embeddings"
	"github.com/mikeboe/tutor-helper/pkg/ingest"
	"github.com/mikeboe/tutor-helper/pkg/lab"
	"github.com/mikeboe/tutor-helper/pkg/learning"
	"github.com/mikeboe/tutor-helper/pkg/progress"
	"github.com/mikeboe/tutor-helper/pkg/qa"
	"github.com/mikeboe/tutor-helper/pkg/research"
	"github.com/mikeboe/tutor-helper/pkg/retrieval"
	"github.com/mikeboe/tutor-helper/pkg/vectorstore"
)

// Service wires the tutoring backend together and owns the background
// research worker.
type Service struct {
	DB     *database.DB
	Config *config.Config

	LLM       llms.Model
	Generator *qa.Generator
	Embedder  *embeddings.GoogleEmbedder
	Store     *vectorstore.SyllabusStore
	Ingestor  *ingest.Ingestor
	Learning  *learning.Service
	Lab       *lab.Service
	Progress  *progress.Store
	Reports   *research.ReportStore
	Research  *research.Service

	arxiv   *research.ArxivClient
	scholar *research.ScholarClient
}

func NewService(ctx context.Context, db *database.DB, cfg *config.Config) (*Service, error) {
	llm, err := clients.ForProvider(cfg.LLMProvider, cfg.ChatModel())
	if err != nil {
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}
	generator := qa.NewGenerator(llm)

	embedder, err := embeddings.NewGoogleEmbedder(ctx, cfg.EmbeddingModel, cfg.GoogleApiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	store, err := vectorstore.NewSyllabusStore(db.Pool, cfg.CollectionName)
	if err != nil {
		return nil, fmt.Errorf("failed to create vector store: %w", err)
	}

	ingestor := ingest.NewIngestor(
		ingest.NewMistralOCR(cfg.MistralApiKey),
		ingest.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
		embedder,
		store,
		slog.Default(),
	)

	s := &Service{
		DB:        db,
		Config:    cfg,
		LLM:       llm,
		Generator: generator,
		Embedder:  embedder,
		Store:     store,
		Ingestor:  ingestor,
		Learning:  learning.NewService(generator, slog.Default()),
		Lab:       lab.NewService(generator),
		Progress:  progress.NewStore(db.Pool),
		Reports:   research.NewReportStore(db.Pool),
		arxiv:     research.NewArxivClient(),
		scholar:   research.NewScholarClient(),
	}

	s.Research = research.NewService(generator, s.arxiv, s.scholar,
		research.WithRetriever(s.Retriever("")),
	)

	return s, nil
}

// Retriever builds a syllabus retriever, optionally pinned to one source
// document.
func (s *Service) Retriever(source string) *retrieval.SyllabusRetriever {
	opts := []retrieval.Option{}
	if source != "" {
		opts = append(opts, retrieval.WithSource(source))
	}
	return retrieval.New(s.Embedder, s.Store, opts...)
}

// Engine builds an answer engine for one request. The trace hook may be nil.
func (s *Service) Engine(source string, trace func(step string)) *agentic.Engine {
	opts := []agentic.Option{}
	if trace != nil {
		opts = append(opts, agentic.WithTraceHook(trace))
	}
	return agentic.New(s.Retriever(source), s.Generator, opts...)
}

// RetrieveContext fetches syllabus passages for a query and joins them into
// one prompt context. An empty string means the syllabus has nothing on the
// query.
func (s *Service) RetrieveContext(ctx context.Context, query, source string) (string, error) {
	passages, err := s.Retriever(source).Retrieve(ctx, query)
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, len(passages))
	for _, p := range passages {
		parts = append(parts, p.Content)
	}
	return strings.Join(parts, "\n\n"), nil
}

// RecordActivity stores a learning event, logging instead of failing the
// request when the write goes wrong.
func (s *Service) RecordActivity(ctx context.Context, userID, topic, kind string, score *float64) {
	if userID == "" || topic == "" {
		return
	}
	if err := s.Progress.RecordActivity(ctx, userID, topic, kind, score); err != nil {
		slog.Error("Failed to record activity", "user_id", userID, "topic", topic, "kind", kind, "error", err)
	}
}

type CreateReportRequest struct {
	Topic         string `json:"topic"`
	IncludePapers *bool  `json:"include_papers"`
}

// CreateReport queues a research run and returns the pending report row.
func (s *Service) CreateReport(ctx context.Context, req CreateReportRequest) (*research.Report, error) {
	report, err := s.Reports.Create(ctx, req.Topic)
	if err != nil {
		return nil, err
	}

	includePapers := true
	if req.IncludePapers != nil {
		includePapers = *req.IncludePapers
	}

	// Start background worker
	go s.runWorker(report.ID, req.Topic, includePapers)

	return report, nil
}

func (s *Service) runWorker(reportID uuid.UUID, topic string, includePapers bool) {
	ctx := context.Background()

	if err := s.Reports.MarkRunning(ctx, reportID); err != nil {
		slog.Error("Failed to mark report running", "report_id", reportID, "error", err)
	}

	// Research steps land in report_logs so clients can follow the run
	dbLogger := slog.New(NewDBLogHandler(s.DB, reportID))

	svc := research.NewService(s.Generator, s.arxiv, s.scholar,
		research.WithRetriever(s.Retriever("")),
		research.WithLogger(dbLogger),
	)

	result, err := svc.ResearchTopic(ctx, topic, includePapers)
	if err != nil {
		s.failReport(ctx, reportID, fmt.Sprintf("Research failed: %v", err))
		return
	}

	if err := s.Reports.Complete(ctx, reportID, result.Markdown(), result.Papers); err != nil {
		dbLogger.Error("Failed to save final report", "error", err)
	}
}

func (s *Service) failReport(ctx context.Context, reportID uuid.UUID, reason string) {
	dbLogger := slog.New(NewDBLogHandler(s.DB, reportID))
	dbLogger.Error(reason)

	if err := s.Reports.Fail(ctx, reportID); err != nil {
		slog.Error("Failed to mark report failed", "report_id", reportID, "error", err)
	}
}
