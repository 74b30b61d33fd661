package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store reads the rows behind a report.
type Store interface {
	TaskCompletionRows(ctx context.Context, conferenceID uuid.UUID) ([]Row, error)
}

// Uploader stores generated exports and issues download links.
// Implemented by the S3 storage layer.
type Uploader interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) error
	PresignDownload(ctx context.Context, key string) (string, error)
}

// Export describes a generated report.
type Export struct {
	Key         string `json:"key"`
	DownloadURL string `json:"download_url"`
	Rows        int    `json:"rows"`
}

// Service generates CSV exports and stores them.
type Service struct {
	store    Store
	uploader Uploader
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a reports service.
func NewService(store Store, uploader Uploader, logger *zap.Logger) *Service {
	return &Service{store: store, uploader: uploader, logger: logger, now: time.Now}
}

// TaskCompletionCSV exports a conference's assignment progress as CSV,
// uploads it and returns a presigned download link.
func (s *Service) TaskCompletionCSV(ctx context.Context, conferenceID uuid.UUID) (*Export, error) {
	rows, err := s.store.TaskCompletionRows(ctx, conferenceID)
	if err != nil {
		return nil, err
	}

	body, err := renderCSV(rows)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("reports/%s/task-completion-%s.csv",
		conferenceID, s.now().UTC().Format("20060102-150405"))
	if err := s.uploader.Upload(ctx, key, body, "text/csv"); err != nil {
		return nil, err
	}
	url, err := s.uploader.PresignDownload(ctx, key)
	if err != nil {
		return nil, err
	}

	s.logger.Info("report exported",
		zap.String("conference_id", conferenceID.String()),
		zap.String("key", key),
		zap.Int("rows", len(rows)))
	return &Export{Key: key, DownloadURL: url, Rows: len(rows)}, nil
}

func renderCSV(rows []Row) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{"first_name", "last_name", "unique_code", "task", "status", "completed_at", "notes"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, row := range rows {
		completedAt := ""
		if row.CompletedAt != nil {
			completedAt = row.CompletedAt.UTC().Format(time.RFC3339)
		}
		record := []string{
			row.PersonFirstName,
			row.PersonLastName,
			row.UniqueCode,
			row.TaskName,
			row.Status,
			completedAt,
			row.Notes,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
