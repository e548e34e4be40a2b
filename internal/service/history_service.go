package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dailyspark/dailyspark/internal/models"
	"github.com/dailyspark/dailyspark/internal/repository"
	"github.com/dailyspark/dailyspark/internal/transfer"
)

// RepostOutcome reports which path a repost took: a fresh queue entry
// or an immediate dispatch.
type RepostOutcome struct {
	QueueID   string                `json:"queue_id,omitempty"`
	Record    *models.HistoryRecord `json:"record,omitempty"`
	MediaLost bool                  `json:"media_lost,omitempty"`
}

type HistoryService interface {
	Query(ctx context.Context, q *transfer.HistoryQuery) ([]*models.HistoryRecord, error)
	Remove(ctx context.Context, id string) error
	Repost(ctx context.Context, req *transfer.HistoryAction) (*RepostOutcome, error)
}

type historyService struct {
	hr repository.HistoryRepository
	qs QueueService
	ds DispatchService
	ms MediaStore
}

func NewHistoryService(hr repository.HistoryRepository, qs QueueService, ds DispatchService, ms MediaStore) HistoryService {
	return &historyService{hr: hr, qs: qs, ds: ds, ms: ms}
}

func (s *historyService) Query(ctx context.Context, q *transfer.HistoryQuery) ([]*models.HistoryRecord, error) {
	if q.SinceDays <= 0 {
		q.SinceDays = 30
	}
	if q.Limit <= 0 || q.Limit > 200 {
		q.Limit = 50
	}

	records, err := s.hr.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("error querying history: %w", err)
	}
	return records, nil
}

func (s *historyService) Remove(ctx context.Context, id string) error {
	if id == "" {
		err := errors.New("history id is not valid")
		slog.Info(err.Error())
		return err
	}

	if err := s.hr.Remove(ctx, id); err != nil {
		return fmt.Errorf("error removing history record: %w", err)
	}
	return nil
}

// Repost rebuilds a new dispatchable post from a history record. The
// record itself is left untouched. Content and platform selection may
// be overridden by the caller; media that has already been cleaned up
// degrades the repost to text-only.
func (s *historyService) Repost(ctx context.Context, req *transfer.HistoryAction) (*RepostOutcome, error) {
	record, err := s.hr.GetByID(ctx, req.ID)
	if err != nil {
		return nil, fmt.Errorf("error loading history record: %w", err)
	}
	if record == nil {
		err := errors.New("history record doesn't exist")
		slog.Info(err.Error())
		return nil, err
	}

	content := record.Content
	if req.Content != "" {
		content = req.Content
	}
	platforms := record.Platforms
	if len(req.Platforms) > 0 {
		platforms = req.Platforms
	}

	if content == "" {
		err := errors.New("content cannot be empty")
		slog.Info(err.Error())
		return nil, err
	}
	if len(platforms) == 0 {
		err := errors.New("no platforms selected")
		slog.Info(err.Error())
		return nil, err
	}

	mediaRef, mediaLost := s.resolveMedia(ctx, record.MediaRef)

	postType := record.PostType
	if mediaRef == nil && postType == models.PostTypeReel {
		// A reel without its video degrades to a plain text post.
		postType = models.PostTypePost
	}

	if req.Immediate {
		sent, err := s.ds.SendNow(ctx, &SendRequest{
			Content:        content,
			Platforms:      platforms,
			MediaRef:       mediaRef,
			PostType:       postType,
			OriginalPostID: record.ID,
		})
		if err != nil {
			return nil, err
		}
		return &RepostOutcome{Record: sent, MediaLost: mediaLost}, nil
	}

	qc := &transfer.QueueCreation{
		Content:     content,
		Platforms:   platforms,
		ScheduledAt: req.ScheduledAt,
		PostType:    postType,
	}
	if mediaRef != nil {
		qc.MediaRef = &transfer.MediaRefPayload{URL: mediaRef.URL, Kind: mediaRef.Kind}
	}

	queueID, err := s.qs.Enqueue(ctx, qc)
	if err != nil {
		return nil, err
	}

	return &RepostOutcome{QueueID: queueID, MediaLost: mediaLost}, nil
}

func (s *historyService) resolveMedia(ctx context.Context, media *models.MediaRef) (*models.MediaRef, bool) {
	if media == nil || media.URL == "" {
		return nil, false
	}
	if s.ms == nil {
		return media, false
	}

	exists, err := s.ms.Exists(ctx, media.URL)
	if err != nil {
		slog.Info(err.Error())
		return nil, true
	}
	if !exists {
		slog.Info(fmt.Sprintf("media %s no longer exists, reposting text-only", media.URL))
		return nil, true
	}
	return media, false
}
