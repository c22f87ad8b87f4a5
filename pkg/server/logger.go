package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mikeboe/tutor-helper/pkg/database"
)

// DBLogHandler is a slog.Handler that writes records to report_logs so a
// research run can be followed from the API.
type DBLogHandler struct {
	DB       *database.DB
	ReportID uuid.UUID
}

func NewDBLogHandler(db *database.DB, reportID uuid.UUID) *DBLogHandler {
	return &DBLogHandler{
		DB:       db,
		ReportID: reportID,
	}
}

func (h *DBLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return true
}

func (h *DBLogHandler) Handle(ctx context.Context, r slog.Record) error {
	attrs := make(map[string]interface{})
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	metaJSON, err := json.Marshal(attrs)
	if err != nil {
		metaJSON = []byte("{}")
	}

	query := `
		INSERT INTO report_logs (report_id, timestamp, level, message, metadata)
		VALUES ($1, $2, $3, $4, $5)
	`

	// Background context so log rows survive a cancelled run
	_, err = h.DB.Pool.Exec(context.Background(), query, h.ReportID, r.Time, r.Level.String(), r.Message, metaJSON)
	return err
}

func (h *DBLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	// Attribute chaining is not needed for worker logs
	return h
}

func (h *DBLogHandler) WithGroup(name string) slog.Handler {
	return h
}
