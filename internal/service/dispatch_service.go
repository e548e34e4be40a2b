package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/dailyspark/dailyspark/internal/metrics"
	"github.com/dailyspark/dailyspark/internal/models"
	"github.com/dailyspark/dailyspark/internal/queue"
	"github.com/dailyspark/dailyspark/internal/repository"
)

// DispatchBatchLimit bounds how many due entries one invocation takes
// on; anything beyond it waits for the next tick.
const DispatchBatchLimit = 5

// SendRequest is an immediate-send order: a manual post or the
// immediate branch of a repost. It never touches the queue.
type SendRequest struct {
	Content        string
	Platforms      []string
	MediaRef       *models.MediaRef
	PostType       string
	OriginalPostID string
}

type DispatchService interface {
	// RunPending processes one bounded batch of due queue entries.
	RunPending(ctx context.Context)
	// SendNow dispatches a post synchronously, bypassing the queue, and
	// records the outcome in history.
	SendNow(ctx context.Context, req *SendRequest) (*models.HistoryRecord, error)
}

// MediaCleaner is the slice of the media lifecycle the engine needs
// when no task queue is wired in.
type MediaCleaner interface {
	DeleteByURL(ctx context.Context, fileURL string) error
}

type dispatchService struct {
	qr          repository.QueueRepository
	hr          repository.HistoryRepository
	registry    *PublisherRegistry
	cleaner     MediaCleaner
	asynqClient *asynq.Client
	mc          metrics.Recorder
	batchLimit  int
}

func NewDispatchService(
	qr repository.QueueRepository,
	hr repository.HistoryRepository,
	registry *PublisherRegistry,
	cleaner MediaCleaner,
	asynqClient *asynq.Client,
	mc metrics.Recorder) DispatchService {
	return &dispatchService{
		qr:          qr,
		hr:          hr,
		registry:    registry,
		cleaner:     cleaner,
		asynqClient: asynqClient,
		mc:          mc,
		batchLimit:  DispatchBatchLimit,
	}
}

func (s *dispatchService) RunPending(ctx context.Context) {
	started := time.Now()

	batch, err := s.qr.ListDue(ctx, started, s.batchLimit)
	if err != nil {
		slog.Info(err.Error())
		return
	}
	if len(batch) == 0 {
		return
	}

	for _, entry := range batch {
		// A store failure aborts this entry only; it stays queued and
		// the next invocation picks it up again.
		if err := s.dispatchEntry(ctx, entry); err != nil {
			slog.Error(fmt.Sprintf("dispatching queue entry %s: %v", entry.ID, err))
		}
	}

	s.mc.RecordBatch(len(batch), time.Since(started))
}

func (s *dispatchService) dispatchEntry(ctx context.Context, entry *models.QueueEntry) error {
	results := s.publishAll(ctx, entry.Content, entry.Platforms, entry.MediaRef)

	s.cleanupMedia(ctx, entry.MediaRef)

	record, err := s.buildRecord(entry.Content, entry.Platforms, entry.MediaRef, entry.PostType, results)
	if err != nil {
		return err
	}
	record.QueueID = entry.ID

	if _, err := s.hr.Create(ctx, record); err != nil {
		return fmt.Errorf("recording history: %w", err)
	}

	if err := s.qr.Remove(ctx, entry.ID); err != nil {
		return fmt.Errorf("removing queue entry: %w", err)
	}

	s.mc.RecordDispatch(record.Status)
	return nil
}

// publishAll attempts every selected platform independently and in
// declaration order. One platform's failure never aborts the others.
func (s *dispatchService) publishAll(ctx context.Context, content string, platforms []string, media *models.MediaRef) []models.PlatformResult {
	results := make([]models.PlatformResult, 0, len(platforms))

	for _, platform := range platforms {
		publisher, ok := s.registry.Get(platform)
		if !ok {
			results = append(results, models.PlatformResult{
				Platform: platform,
				Success:  false,
				Message:  "unsupported platform",
			})
			s.mc.RecordPlatformResult(platform, false)
			continue
		}

		res := publisher.Publish(ctx, content, media)
		results = append(results, models.PlatformResult{
			Platform: platform,
			Success:  res.Success,
			Message:  res.Message,
		})
		s.mc.RecordPlatformResult(platform, res.Success)
	}

	return results
}

// cleanupMedia releases the blob once the attempt has resolved. Failures
// are logged and swallowed; cleanup never blocks history or removal.
func (s *dispatchService) cleanupMedia(ctx context.Context, media *models.MediaRef) {
	if media == nil || media.URL == "" {
		return
	}

	if s.asynqClient != nil {
		if err := queue.EnqueueCleanup(s.asynqClient, queue.CleanupPayload{FileURL: media.URL}); err != nil {
			slog.Info(fmt.Sprintf("scheduling media cleanup for %s: %v", media.URL, err))
		}
		return
	}

	if s.cleaner == nil {
		return
	}
	if err := s.cleaner.DeleteByURL(ctx, media.URL); err != nil {
		slog.Info(fmt.Sprintf("cleaning up media %s: %v", media.URL, err))
	}
}

func (s *dispatchService) buildRecord(content string, platforms []string, media *models.MediaRef, postType string, results []models.PlatformResult) (*models.HistoryRecord, error) {
	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	var sentPlatforms, failedPlatforms []string
	for _, res := range results {
		if res.Success {
			sentPlatforms = append(sentPlatforms, res.Platform)
		} else {
			failedPlatforms = append(failedPlatforms, res.Platform)
		}
	}

	status := models.DeriveHistoryStatus(sentPlatforms, failedPlatforms)

	var failureReason string
	if status == models.HistoryStatusFailed {
		failureReason = firstFailureMessage(results)
	}

	now := time.Now()
	return &models.HistoryRecord{
		ID:               id,
		Content:          content,
		Platforms:        platforms,
		SentPlatforms:    sentPlatforms,
		FailedPlatforms:  failedPlatforms,
		MediaRef:         media,
		PostType:         postType,
		Status:           status,
		FailureReason:    failureReason,
		Results:          results,
		SentAt:           now,
		MovedToHistoryAt: now,
	}, nil
}

func firstFailureMessage(results []models.PlatformResult) string {
	for _, res := range results {
		if !res.Success && res.Message != "" {
			return res.Message
		}
	}
	return "all platforms failed"
}

func (s *dispatchService) SendNow(ctx context.Context, req *SendRequest) (*models.HistoryRecord, error) {
	if req == nil {
		err := errors.New("send request is nil")
		slog.Error(err.Error())
		return nil, err
	}
	if req.Content == "" {
		err := errors.New("content cannot be empty")
		slog.Info(err.Error())
		return nil, err
	}
	if len(req.Platforms) == 0 {
		err := errors.New("no platforms selected")
		slog.Info(err.Error())
		return nil, err
	}

	postType := req.PostType
	if postType == "" {
		postType = models.PostTypePost
	}

	results := s.publishAll(ctx, req.Content, req.Platforms, req.MediaRef)

	s.cleanupMedia(ctx, req.MediaRef)

	record, err := s.buildRecord(req.Content, req.Platforms, req.MediaRef, postType, results)
	if err != nil {
		return nil, err
	}
	record.OriginalPostID = req.OriginalPostID

	if _, err := s.hr.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("recording history: %w", err)
	}

	s.mc.RecordDispatch(record.Status)
	return record, nil
}
