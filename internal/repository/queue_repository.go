package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/dailyspark/dailyspark/internal/models"
)

type QueueRepository interface {
	Create(ctx context.Context, entry *models.QueueEntry) (string, error)
	GetByID(ctx context.Context, id string) (*models.QueueEntry, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]*models.QueueEntry, error)
	ListByStatus(ctx context.Context, status string) ([]*models.QueueEntry, error)
	Remove(ctx context.Context, id string) error
}

type queueRepository struct {
	db *sql.DB
}

func NewQueueRepository(db *sql.DB) QueueRepository {
	return &queueRepository{db: db}
}

const queueColumns = `id, content, platforms, media_url, media_kind, post_type, scheduled_at, status, queue_position, created_at`

func (r *queueRepository) Create(ctx context.Context, entry *models.QueueEntry) (string, error) {
	query := `
		INSERT INTO social_media_queue (id, content, platforms, media_url, media_kind, post_type, scheduled_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	var mediaURL, mediaKind sql.NullString
	if entry.MediaRef != nil {
		mediaURL = sql.NullString{String: entry.MediaRef.URL, Valid: true}
		mediaKind = sql.NullString{String: entry.MediaRef.Kind, Valid: true}
	}

	var id string
	err := r.db.QueryRowContext(ctx, query,
		entry.ID, entry.Content, pq.Array(entry.Platforms),
		mediaURL, mediaKind, entry.PostType,
		entry.ScheduledAt, entry.Status).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	return id, nil
}

func (r *queueRepository) GetByID(ctx context.Context, id string) (*models.QueueEntry, error) {
	query := `SELECT ` + queueColumns + ` FROM social_media_queue WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	entry, err := scanQueueEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return entry, nil
}

func (r *queueRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.QueueEntry, error) {
	query := `
		SELECT ` + queueColumns + `
		FROM social_media_queue
		WHERE status = $1 AND scheduled_at <= $2
		ORDER BY scheduled_at ASC
		LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, query, models.QueueStatusScheduled, now, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectQueueEntries(rows)
}

func (r *queueRepository) ListByStatus(ctx context.Context, status string) ([]*models.QueueEntry, error) {
	query := `
		SELECT ` + queueColumns + `
		FROM social_media_queue
		WHERE status = $1
		ORDER BY scheduled_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, status)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectQueueEntries(rows)
}

func (r *queueRepository) Remove(ctx context.Context, id string) error {
	query := `DELETE FROM social_media_queue WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)

	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQueueEntry(row rowScanner) (*models.QueueEntry, error) {
	var entry models.QueueEntry
	var mediaURL, mediaKind sql.NullString

	err := row.Scan(&entry.ID, &entry.Content, pq.Array(&entry.Platforms),
		&mediaURL, &mediaKind, &entry.PostType,
		&entry.ScheduledAt, &entry.Status, &entry.QueuePosition, &entry.CreatedAt)
	if err != nil {
		return nil, err
	}

	if mediaURL.Valid && mediaURL.String != "" {
		entry.MediaRef = &models.MediaRef{URL: mediaURL.String, Kind: mediaKind.String}
	}

	return &entry, nil
}

func collectQueueEntries(rows *sql.Rows) ([]*models.QueueEntry, error) {
	var entries []*models.QueueEntry
	for rows.Next() {
		entry, err := scanQueueEntry(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
