package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mikeboe/tutor-helper/pkg/agentic"
	"github.com/mikeboe/tutor-helper/pkg/chat"
	"github.com/mikeboe/tutor-helper/pkg/ingest"
	"github.com/mikeboe/tutor-helper/pkg/lab"
	"github.com/mikeboe/tutor-helper/pkg/learning"
	"github.com/mikeboe/tutor-helper/pkg/progress"
	"github.com/mikeboe/tutor-helper/pkg/research"
)

type Handler struct {
	Service *Service
	Chat    *chat.Service
	Tools   *chat.SyllabusToolset

	mcp *mcpServer
}

func NewHandler(s *Service, c *chat.Service, tools *chat.SyllabusToolset) *Handler {
	return &Handler{
		Service: s,
		Chat:    c,
		Tools:   tools,
		mcp:     newMCPServer(s, tools),
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.health)
	r.Any("/mcp", gin.WrapH(h.mcp.httpHandler()))

	api := r.Group("/api")
	{
		// Syllabus ingestion
		api.POST("/syllabus", h.uploadSyllabus)
		api.POST("/syllabus/url", h.uploadSyllabusURL)
		api.GET("/syllabus/sources", h.listSources)

		// Tutoring
		api.POST("/ask", h.ask)
		api.POST("/ask/stream", h.askStream)
		api.POST("/learn", h.learn)
		api.POST("/lab", h.runLab)
		api.POST("/quiz/submit", h.submitQuiz)

		// Progress
		api.GET("/progress/:user_id", h.getProgress)
		api.GET("/progress/:user_id/analysis", h.getProgressAnalysis)
		api.GET("/progress/:user_id/analytics", h.getProgressAnalytics)
		api.GET("/progress/:user_id/recommendations", h.getProgressRecommendations)

		// Research
		api.POST("/research", h.createReport)
		api.GET("/research", h.listReports)
		api.GET("/research/:id", h.getReport)
		api.GET("/research/:id/logs", h.getReportLogs)
		api.POST("/research/papers", h.searchPapers)
		api.POST("/research/summarize", h.summarizeFindings)

		// Chat
		api.POST("/chat/conversations", h.createConversation)
		api.GET("/chat/conversations", h.listConversations)
		api.GET("/chat/conversations/:id/messages", h.getMessages)
		api.POST("/chat/conversations/:id/messages", h.sendMessage)
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "AI Teaching Assistant Backend Running"})
}

// --- Syllabus ---

type UploadResponse struct {
	Message     string `json:"message"`
	Source      string `json:"source"`
	TotalChunks int    `json:"total_chunks"`
	Replaced    int64  `json:"replaced"`
}

func (h *Handler) uploadSyllabus(c *gin.Context) {
	ctx := c.Request.Context()

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}

		f, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		source := c.PostForm("source")
		if source == "" {
			source = filepath.Base(fileHeader.Filename)
		}

		h.respondIngest(c, func() (*ingest.Summary, error) {
			return h.Service.Ingestor.IngestDocument(ctx, source, data)
		})
		return
	}

	var req struct {
		Source string `json:"source"`
		Text   string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Source == "" || strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source and text are required"})
		return
	}

	h.respondIngest(c, func() (*ingest.Summary, error) {
		return h.Service.Ingestor.IngestText(ctx, req.Source, req.Text)
	})
}

func (h *Handler) uploadSyllabusURL(c *gin.Context) {
	var req struct {
		Source string `json:"source"`
		URL    string `json:"url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Source == "" || req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source and url are required"})
		return
	}

	ctx := c.Request.Context()
	h.respondIngest(c, func() (*ingest.Summary, error) {
		return h.Service.Ingestor.IngestURL(ctx, req.Source, req.URL)
	})
}

func (h *Handler) respondIngest(c *gin.Context, run func() (*ingest.Summary, error)) {
	summary, err := run()
	if err != nil {
		if errors.Is(err, ingest.ErrNoText) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "document contains no extractable text (possibly scanned)"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, UploadResponse{
		Message:     "Syllabus uploaded and indexed successfully",
		Source:      summary.Source,
		TotalChunks: summary.Chunks,
		Replaced:    summary.Replaced,
	})
}

func (h *Handler) listSources(c *gin.Context) {
	sources, err := h.Service.Store.ListSources(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if sources == nil {
		sources = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"sources": sources})
}

// --- Tutoring ---

type AskRequest struct {
	Question    string `json:"question"`
	UsePlanning *bool  `json:"use_planning"`
	Source      string `json:"source"`
	Topic       string `json:"topic"`
	UserID      string `json:"user_id"`
}

type AskResponse struct {
	Question string `json:"question"`
	*agentic.Result
}

func (req *AskRequest) planning() bool {
	if req.UsePlanning == nil {
		return true
	}
	return *req.UsePlanning
}

func (h *Handler) ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}

	ctx := c.Request.Context()
	engine := h.Service.Engine(req.Source, nil)
	result, err := engine.Answer(ctx, req.Question, req.planning())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"question": req.Question, "error": err.Error()})
		return
	}

	h.Service.RecordActivity(ctx, req.UserID, req.Topic, progress.ActivityQuestion, nil)

	c.JSON(http.StatusOK, AskResponse{Question: req.Question, Result: result})
}

func (h *Handler) askStream(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}

	ctx := c.Request.Context()

	// Sized for a full run so the producer never blocks
	events := make(chan chat.StreamEvent, 64)

	go func() {
		defer close(events)

		engine := h.Service.Engine(req.Source, func(step string) {
			events <- chat.StreamEvent{Type: "trace", Payload: step}
		})

		result, err := engine.Answer(ctx, req.Question, req.planning())
		if err != nil {
			events <- chat.StreamEvent{Type: "error", Payload: err.Error()}
			return
		}

		h.Service.RecordActivity(context.Background(), req.UserID, req.Topic, progress.ActivityQuestion, nil)

		events <- chat.StreamEvent{Type: "result", Payload: AskResponse{Question: req.Question, Result: result}}
	}()

	sseHeaders(c)
	for event := range events {
		if !writeSSE(c, event) {
			return
		}
	}
	writeSSE(c, chat.StreamEvent{Type: "done", Payload: "done"})
}

type LearnRequest struct {
	Topic  string `json:"topic"`
	Stage  string `json:"stage"`
	Source string `json:"source"`
	UserID string `json:"user_id"`
}

type LearnResponse struct {
	Topic string `json:"topic"`
	*learning.Result
}

func (h *Handler) learn(c *gin.Context) {
	var req LearnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "topic is required"})
		return
	}
	stage := strings.ToLower(req.Stage)
	if stage == "" {
		stage = learning.StageExplain
	}

	ctx := c.Request.Context()
	docContext, err := h.Service.RetrieveContext(ctx, req.Topic, req.Source)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if docContext == "" {
		c.JSON(http.StatusOK, LearnResponse{
			Topic:  req.Topic,
			Result: &learning.Result{Stage: "NOT_FOUND", Content: "This topic is not covered in the syllabus."},
		})
		return
	}

	result, err := h.Service.Learning.Teach(ctx, docContext, req.Topic, stage)
	if err != nil {
		c.JSON(http.StatusOK, LearnResponse{
			Topic:  req.Topic,
			Result: &learning.Result{Stage: "ERROR", Content: err.Error()},
		})
		return
	}

	// Quiz attempts are recorded on submission, not on generation
	if stage != learning.StageQuiz {
		h.Service.RecordActivity(ctx, req.UserID, req.Topic, stage, nil)
	}

	c.JSON(http.StatusOK, LearnResponse{Topic: req.Topic, Result: result})
}

type LabRequest struct {
	Experiment string `json:"experiment"`
	Step       string `json:"step"`
	Source     string `json:"source"`
	UserID     string `json:"user_id"`
}

type LabResponse struct {
	Experiment string `json:"experiment"`
	*lab.Result
}

func (h *Handler) runLab(c *gin.Context) {
	var req LabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Experiment) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "experiment is required"})
		return
	}
	step := strings.ToLower(req.Step)
	if step == "" {
		step = lab.StepExplanation
	}

	ctx := c.Request.Context()
	docContext, err := h.Service.RetrieveContext(ctx, req.Experiment, req.Source)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if docContext == "" {
		c.JSON(http.StatusOK, LabResponse{
			Experiment: req.Experiment,
			Result:     &lab.Result{Stage: "NOT_FOUND", Content: lab.NotFoundAnswer},
		})
		return
	}

	result, err := h.Service.Lab.Guide(ctx, docContext, req.Experiment, step)
	if err != nil {
		c.JSON(http.StatusOK, LabResponse{
			Experiment: req.Experiment,
			Result:     &lab.Result{Stage: "ERROR", Content: err.Error()},
		})
		return
	}

	// The viva step closes out the experiment
	if step == lab.StepViva {
		h.Service.RecordActivity(ctx, req.UserID, req.Experiment, progress.ActivityLab, nil)
	}

	c.JSON(http.StatusOK, LabResponse{Experiment: req.Experiment, Result: result})
}

type QuizSubmitRequest struct {
	UserID string  `json:"user_id"`
	Topic  string  `json:"topic"`
	Score  float64 `json:"score"`
	Total  float64 `json:"total"`
}

func (h *Handler) submitQuiz(c *gin.Context) {
	var req QuizSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.UserID == "" || req.Topic == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and topic are required"})
		return
	}
	if req.Total <= 0 || req.Score < 0 || req.Score > req.Total {
		c.JSON(http.StatusBadRequest, gin.H{"error": "score must be between 0 and total"})
		return
	}

	percentage := req.Score / req.Total * 100

	err := h.Service.Progress.RecordActivity(c.Request.Context(), req.UserID, req.Topic, progress.ActivityQuiz, &percentage)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":    req.UserID,
		"topic":      req.Topic,
		"percentage": percentage,
	})
}

// --- Progress ---

func (h *Handler) getProgress(c *gin.Context) {
	p, err := h.Service.Progress.UserProgress(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) getProgressAnalysis(c *gin.Context) {
	p, err := h.Service.Progress.UserProgress(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, progress.Analyze(p, time.Now()))
}

func (h *Handler) getProgressAnalytics(c *gin.Context) {
	p, err := h.Service.Progress.UserProgress(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, progress.BuildAnalytics(p))
}

func (h *Handler) getProgressRecommendations(c *gin.Context) {
	userID := c.Param("user_id")
	p, err := h.Service.Progress.UserProgress(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	recs := progress.Recommendations(p)
	if recs == nil {
		recs = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "recommendations": recs})
}

// --- Research ---

func (h *Handler) createReport(c *gin.Context) {
	var req CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "topic is required"})
		return
	}

	report, err := h.Service.CreateReport(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, report)
}

func (h *Handler) listReports(c *gin.Context) {
	reports, err := h.Service.Reports.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	// Return empty list instead of null
	if reports == nil {
		reports = []research.Report{}
	}
	c.JSON(http.StatusOK, reports)
}

func (h *Handler) getReport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uuid"})
		return
	}

	report, err := h.Service.Reports.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *Handler) getReportLogs(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uuid"})
		return
	}

	logs, err := h.Service.Reports.ListLogs(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if logs == nil {
		logs = []research.LogEntry{}
	}
	c.JSON(http.StatusOK, logs)
}

func (h *Handler) searchPapers(c *gin.Context) {
	var req struct {
		Query string `json:"query"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	c.JSON(http.StatusOK, h.Service.Research.SearchPapers(c.Request.Context(), req.Query))
}

func (h *Handler) summarizeFindings(c *gin.Context) {
	var req struct {
		Topic  string           `json:"topic"`
		Papers []research.Paper `json:"papers"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.Service.Research.SummarizeFindings(c.Request.Context(), req.Topic, req.Papers)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// --- Chat ---

func (h *Handler) createConversation(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id"`
	}
	// The body is optional; an anonymous conversation has no user
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conv, err := h.Chat.CreateConversation(c.Request.Context(), req.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, conv)
}

func (h *Handler) listConversations(c *gin.Context) {
	convs, err := h.Chat.ListConversations(c.Request.Context(), c.Query("user_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if convs == nil {
		convs = []chat.Conversation{}
	}
	c.JSON(http.StatusOK, convs)
}

func (h *Handler) getMessages(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uuid"})
		return
	}

	msgs, err := h.Chat.GetHistory(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if msgs == nil {
		msgs = []chat.Message{}
	}
	c.JSON(http.StatusOK, msgs)
}

func (h *Handler) sendMessage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uuid"})
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	next, err := h.Chat.SendMessage(c.Request.Context(), id, req.Content)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	sseHeaders(c)
	for event, err := range next {
		if err != nil {
			// Surface stream failures to the client as an event
			writeSSE(c, chat.StreamEvent{Type: "error", Payload: err.Error()})
			return
		}
		if !writeSSE(c, event) {
			return
		}
	}
}

// --- SSE ---

func sseHeaders(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("Transfer-Encoding", "chunked")
}

func writeSSE(c *gin.Context, event chat.StreamEvent) bool {
	data, err := json.Marshal(event)
	if err != nil {
		return false
	}
	_, _ = c.Writer.Write([]byte("data: "))
	_, _ = c.Writer.Write(data)
	_, _ = c.Writer.Write([]byte("\n\n"))
	c.Writer.Flush()
	return true
}
