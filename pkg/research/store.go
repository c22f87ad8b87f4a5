package research

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Report job statuses.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Report is a persisted research job and, once completed, its output.
type Report struct {
	ID        uuid.UUID       `json:"id"`
	Topic     string          `json:"topic"`
	Status    string          `json:"status"`
	Content   *string         `json:"report,omitempty"`
	Papers    json.RawMessage `json:"papers,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// LogEntry is one persisted log line of a report job.
type LogEntry struct {
	ID        int             `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Level     string          `json:"level"`
	Message   string          `json:"message"`
	Metadata  json.RawMessage `json:"metadata"`
}

// ReportStore persists report jobs and their logs.
type ReportStore struct {
	pool *pgxpool.Pool
}

func NewReportStore(pool *pgxpool.Pool) *ReportStore {
	return &ReportStore{pool: pool}
}

func (s *ReportStore) Create(ctx context.Context, topic string) (*Report, error) {
	query := `
		INSERT INTO research_reports (id, topic, status)
		VALUES ($1, $2, 'pending')
		RETURNING id, topic, status, created_at, updated_at
	`

	report := &Report{}
	err := s.pool.QueryRow(ctx, query, uuid.New(), topic).Scan(
		&report.ID, &report.Topic, &report.Status, &report.CreatedAt, &report.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	return report, nil
}

func (s *ReportStore) Get(ctx context.Context, id uuid.UUID) (*Report, error) {
	query := `
		SELECT id, topic, status, report, papers, created_at, updated_at
		FROM research_reports
		WHERE id = $1
	`

	report := &Report{}
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&report.ID, &report.Topic, &report.Status, &report.Content, &report.Papers,
		&report.CreatedAt, &report.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return report, nil
}

func (s *ReportStore) List(ctx context.Context) ([]Report, error) {
	query := `
		SELECT id, topic, status, report, papers, created_at, updated_at
		FROM research_reports
		ORDER BY created_at DESC
		LIMIT 50
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		var r Report
		if err := rows.Scan(&r.ID, &r.Topic, &r.Status, &r.Content, &r.Papers, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

func (s *ReportStore) MarkRunning(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE research_reports SET status = 'running', updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark report running: %w", err)
	}
	return nil
}

// Complete stores the rendered report and its paper list and flips the
// status to completed.
func (s *ReportStore) Complete(ctx context.Context, id uuid.UUID, report string, papers []Paper) error {
	papersJSON, err := json.Marshal(papers)
	if err != nil {
		return fmt.Errorf("failed to marshal papers: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`UPDATE research_reports SET status = 'completed', report = $2, papers = $3, updated_at = NOW() WHERE id = $1`,
		id, report, papersJSON)
	if err != nil {
		return fmt.Errorf("failed to complete report: %w", err)
	}
	return nil
}

func (s *ReportStore) Fail(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE research_reports SET status = 'failed', updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark report failed: %w", err)
	}
	return nil
}

func (s *ReportStore) ListLogs(ctx context.Context, reportID uuid.UUID) ([]LogEntry, error) {
	query := `
		SELECT id, timestamp, level, message, metadata
		FROM report_logs
		WHERE report_id = $1
		ORDER BY id ASC
	`

	rows, err := s.pool.Query(ctx, query, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to list report logs: %w", err)
	}
	defer rows.Close()

	var logs []LogEntry
	for rows.Next() {
		var l LogEntry
		if err := rows.Scan(&l.ID, &l.Timestamp, &l.Level, &l.Message, &l.Metadata); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
