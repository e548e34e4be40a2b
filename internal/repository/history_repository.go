package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/dailyspark/dailyspark/internal/models"
	"github.com/dailyspark/dailyspark/internal/transfer"
)

type HistoryRepository interface {
	Create(ctx context.Context, record *models.HistoryRecord) (string, error)
	GetByID(ctx context.Context, id string) (*models.HistoryRecord, error)
	Query(ctx context.Context, q *transfer.HistoryQuery) ([]*models.HistoryRecord, error)
	Remove(ctx context.Context, id string) error
}

type historyRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) HistoryRepository {
	return &historyRepository{db: db}
}

const historyColumns = `id, content, platforms, sent_platforms, failed_platforms, media_url, media_kind, post_type, status, failure_reason, results, sent_at, moved_to_history_at, queue_id, original_post_id`

func (r *historyRepository) Create(ctx context.Context, record *models.HistoryRecord) (string, error) {
	query := `
		INSERT INTO post_history (id, content, platforms, sent_platforms, failed_platforms, media_url, media_kind, post_type, status, failure_reason, results, sent_at, moved_to_history_at, queue_id, original_post_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`

	var mediaURL, mediaKind sql.NullString
	if record.MediaRef != nil {
		mediaURL = sql.NullString{String: record.MediaRef.URL, Valid: true}
		mediaKind = sql.NullString{String: record.MediaRef.Kind, Valid: true}
	}

	results, err := json.Marshal(record.Results)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	var id string
	err = r.db.QueryRowContext(ctx, query,
		record.ID, record.Content, pq.Array(record.Platforms),
		pq.Array(record.SentPlatforms), pq.Array(record.FailedPlatforms),
		mediaURL, mediaKind, record.PostType,
		record.Status, record.FailureReason, results,
		record.SentAt, record.MovedToHistoryAt,
		record.QueueID, record.OriginalPostID).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	return id, nil
}

func (r *historyRepository) GetByID(ctx context.Context, id string) (*models.HistoryRecord, error) {
	query := `SELECT ` + historyColumns + ` FROM post_history WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	record, err := scanHistoryRecord(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return record, nil
}

func (r *historyRepository) Query(ctx context.Context, q *transfer.HistoryQuery) ([]*models.HistoryRecord, error) {
	query := `SELECT ` + historyColumns + ` FROM post_history WHERE moved_to_history_at >= $1`
	args := []any{time.Now().AddDate(0, 0, -q.SinceDays)}

	if q.Status != "" {
		args = append(args, q.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if q.Platform != "" {
		args = append(args, q.Platform)
		query += fmt.Sprintf(" AND $%d = ANY(sent_platforms)", len(args))
	}

	args = append(args, q.Limit)
	query += fmt.Sprintf(" ORDER BY moved_to_history_at DESC LIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var records []*models.HistoryRecord
	for rows.Next() {
		record, err := scanHistoryRecord(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *historyRepository) Remove(ctx context.Context, id string) error {
	query := `DELETE FROM post_history WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)

	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func scanHistoryRecord(row rowScanner) (*models.HistoryRecord, error) {
	var record models.HistoryRecord
	var mediaURL, mediaKind, failureReason, queueID, originalPostID sql.NullString
	var results []byte

	err := row.Scan(&record.ID, &record.Content, pq.Array(&record.Platforms),
		pq.Array(&record.SentPlatforms), pq.Array(&record.FailedPlatforms),
		&mediaURL, &mediaKind, &record.PostType,
		&record.Status, &failureReason, &results,
		&record.SentAt, &record.MovedToHistoryAt,
		&queueID, &originalPostID)
	if err != nil {
		return nil, err
	}

	if mediaURL.Valid && mediaURL.String != "" {
		record.MediaRef = &models.MediaRef{URL: mediaURL.String, Kind: mediaKind.String}
	}
	record.FailureReason = failureReason.String
	record.QueueID = queueID.String
	record.OriginalPostID = originalPostID.String

	if len(results) > 0 {
		if err := json.Unmarshal(results, &record.Results); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
	}

	return &record, nil
}
