package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/dailyspark/dailyspark/internal/models"
	"github.com/dailyspark/dailyspark/internal/repository"
	"github.com/dailyspark/dailyspark/internal/transfer"
	"github.com/dailyspark/dailyspark/pkg/utils"
)

type QueueService interface {
	Enqueue(ctx context.Context, qc *transfer.QueueCreation) (string, error)
	List(ctx context.Context, status string) ([]*models.QueueEntry, error)
	Remove(ctx context.Context, id string) error
}

type queueService struct {
	qr repository.QueueRepository
}

func NewQueueService(qr repository.QueueRepository) QueueService {
	return &queueService{qr: qr}
}

func (s *queueService) Enqueue(ctx context.Context, qc *transfer.QueueCreation) (string, error) {
	if qc == nil {
		err := errors.New("queue creation data is nil")
		slog.Error(err.Error())
		return "", err
	}

	content := qc.Content
	if len(qc.Fields) > 0 {
		content = utils.Render(content, qc.Fields)
	}
	if content == "" {
		err := errors.New("content cannot be empty")
		slog.Info(err.Error())
		return "", err
	}

	if len(qc.Platforms) == 0 {
		err := errors.New("no platforms selected")
		slog.Info(err.Error())
		return "", err
	}
	for _, platform := range qc.Platforms {
		if !models.IsSupportedPlatform(platform) {
			err := fmt.Errorf("platform %s is not supported", platform)
			slog.Info(err.Error())
			return "", err
		}
	}

	scheduledAt, err := time.Parse(time.RFC3339, qc.ScheduledAt)
	if err != nil {
		err = fmt.Errorf("invalid scheduled time format: %w", err)
		slog.Error(err.Error())
		return "", err
	}
	if !scheduledAt.After(time.Now()) {
		err := errors.New("scheduled time must be in the future")
		slog.Info(err.Error())
		return "", err
	}

	postType := qc.PostType
	if postType == "" {
		postType = models.PostTypePost
	}

	var mediaRef *models.MediaRef
	if qc.MediaRef != nil && qc.MediaRef.URL != "" {
		if qc.MediaRef.Kind != models.MediaKindImage && qc.MediaRef.Kind != models.MediaKindVideo {
			err := fmt.Errorf("media kind %s is not valid", qc.MediaRef.Kind)
			slog.Info(err.Error())
			return "", err
		}
		mediaRef = &models.MediaRef{URL: qc.MediaRef.URL, Kind: qc.MediaRef.Kind}
	}

	// A reel is a video post shape; anything else is a malformed request.
	if postType == models.PostTypeReel && (mediaRef == nil || mediaRef.Kind != models.MediaKindVideo) {
		err := errors.New("a reel requires video media")
		slog.Info(err.Error())
		return "", err
	}

	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	entry := models.QueueEntry{
		ID:          id,
		Content:     content,
		Platforms:   qc.Platforms,
		MediaRef:    mediaRef,
		PostType:    postType,
		ScheduledAt: scheduledAt,
		Status:      models.QueueStatusScheduled,
	}

	queueID, err := s.qr.Create(ctx, &entry)
	if err != nil {
		return "", fmt.Errorf("error creating queue entry: %w", err)
	}

	return queueID, nil
}

func (s *queueService) List(ctx context.Context, status string) ([]*models.QueueEntry, error) {
	if status == "" {
		status = models.QueueStatusScheduled
	}
	entries, err := s.qr.ListByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("error listing queue entries: %w", err)
	}
	return entries, nil
}

func (s *queueService) Remove(ctx context.Context, id string) error {
	if id == "" {
		err := errors.New("queue id is not valid")
		slog.Info(err.Error())
		return err
	}

	// Removal is idempotent; deleting an already-removed id is fine.
	if err := s.qr.Remove(ctx, id); err != nil {
		return fmt.Errorf("error removing queue entry: %w", err)
	}
	return nil
}
