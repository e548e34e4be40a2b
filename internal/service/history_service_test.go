package service

import (
	"context"
	"testing"
	"time"

	"github.com/dailyspark/dailyspark/internal/models"
	"github.com/dailyspark/dailyspark/internal/transfer"
)

type fakeMediaStore struct {
	exists  bool
	deleted []string
}

func (m *fakeMediaStore) Upload(ctx context.Context, file []byte) (*models.MediaRef, error) {
	return &models.MediaRef{URL: "https://cdn.example.com/new", Kind: models.MediaKindImage}, nil
}
func (m *fakeMediaStore) DeleteByURL(ctx context.Context, fileURL string) error {
	m.deleted = append(m.deleted, fileURL)
	return nil
}
func (m *fakeMediaStore) Exists(ctx context.Context, fileURL string) (bool, error) {
	return m.exists, nil
}

type fakeDispatch struct {
	sendNowFn func(ctx context.Context, req *SendRequest) (*models.HistoryRecord, error)
}

func (d *fakeDispatch) RunPending(ctx context.Context) {}
func (d *fakeDispatch) SendNow(ctx context.Context, req *SendRequest) (*models.HistoryRecord, error) {
	return d.sendNowFn(ctx, req)
}

func storedRecord() *models.HistoryRecord {
	return &models.HistoryRecord{
		ID:               "h1",
		Content:          "Hello",
		Platforms:        []string{"x"},
		SentPlatforms:    []string{"x"},
		PostType:         models.PostTypePost,
		Status:           models.HistoryStatusSent,
		SentAt:           time.Now().Add(-48 * time.Hour),
		MovedToHistoryAt: time.Now().Add(-48 * time.Hour),
	}
}

func TestRepost_RequeueRoundTrip(t *testing.T) {
	removedHistory := false
	hr := &mockHistoryRepo{
		getByIDFn: func(ctx context.Context, id string) (*models.HistoryRecord, error) {
			if id != "h1" {
				return nil, nil
			}
			return storedRecord(), nil
		},
		removeFn: func(ctx context.Context, id string) error {
			removedHistory = true
			return nil
		},
	}

	var saved *models.QueueEntry
	qr := &mockQueueRepo{
		createFn: func(ctx context.Context, entry *models.QueueEntry) (string, error) {
			saved = entry
			return entry.ID, nil
		},
	}

	hs := NewHistoryService(hr, NewQueueService(qr), &fakeDispatch{}, nil)

	scheduledAt := time.Now().Add(24 * time.Hour)
	outcome, err := hs.Repost(context.Background(), &transfer.HistoryAction{
		Action:      transfer.HistoryActionRepost,
		ID:          "h1",
		ScheduledAt: scheduledAt.Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("Repost returned error: %v", err)
	}

	if outcome.QueueID == "" {
		t.Error("expected a new queue id")
	}
	if saved == nil {
		t.Fatal("expected a new queue entry")
	}
	if saved.Content != "Hello" {
		t.Errorf("Content = %q, want original content", saved.Content)
	}
	if len(saved.Platforms) != 1 || saved.Platforms[0] != "x" {
		t.Errorf("Platforms = %v, want [x]", saved.Platforms)
	}
	if saved.ScheduledAt.Sub(scheduledAt).Abs() > time.Second {
		t.Errorf("ScheduledAt = %v, want ~%v", saved.ScheduledAt, scheduledAt)
	}
	if removedHistory {
		t.Error("repost must not delete the original history record")
	}
}

func TestRepost_Overrides(t *testing.T) {
	hr := &mockHistoryRepo{
		getByIDFn: func(ctx context.Context, id string) (*models.HistoryRecord, error) {
			return storedRecord(), nil
		},
	}

	var saved *models.QueueEntry
	qr := &mockQueueRepo{
		createFn: func(ctx context.Context, entry *models.QueueEntry) (string, error) {
			saved = entry
			return entry.ID, nil
		},
	}

	hs := NewHistoryService(hr, NewQueueService(qr), &fakeDispatch{}, nil)

	_, err := hs.Repost(context.Background(), &transfer.HistoryAction{
		Action:      transfer.HistoryActionRepost,
		ID:          "h1",
		Content:     "Edited",
		Platforms:   []string{"linkedin", "telegram"},
		ScheduledAt: time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("Repost returned error: %v", err)
	}

	if saved.Content != "Edited" {
		t.Errorf("Content = %q, want override", saved.Content)
	}
	if len(saved.Platforms) != 2 {
		t.Errorf("Platforms = %v, want overrides", saved.Platforms)
	}
}

func TestRepost_MissingRecord(t *testing.T) {
	hr := &mockHistoryRepo{
		getByIDFn: func(ctx context.Context, id string) (*models.HistoryRecord, error) {
			return nil, nil
		},
	}
	hs := NewHistoryService(hr, NewQueueService(&mockQueueRepo{}), &fakeDispatch{}, nil)

	if _, err := hs.Repost(context.Background(), &transfer.HistoryAction{ID: "ghost"}); err == nil {
		t.Error("expected error for a missing history record")
	}
}

func TestRepost_LostMediaFallsBackToText(t *testing.T) {
	record := storedRecord()
	record.MediaRef = &models.MediaRef{URL: "https://cdn.example.com/gone", Kind: models.MediaKindVideo}
	record.PostType = models.PostTypeReel

	hr := &mockHistoryRepo{
		getByIDFn: func(ctx context.Context, id string) (*models.HistoryRecord, error) {
			return record, nil
		},
	}
	var saved *models.QueueEntry
	qr := &mockQueueRepo{
		createFn: func(ctx context.Context, entry *models.QueueEntry) (string, error) {
			saved = entry
			return entry.ID, nil
		},
	}

	hs := NewHistoryService(hr, NewQueueService(qr), &fakeDispatch{}, &fakeMediaStore{exists: false})

	outcome, err := hs.Repost(context.Background(), &transfer.HistoryAction{
		ID:          "h1",
		ScheduledAt: time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("Repost returned error: %v", err)
	}

	if !outcome.MediaLost {
		t.Error("expected MediaLost to be reported")
	}
	if saved.MediaRef != nil {
		t.Errorf("MediaRef = %v, want nil after media loss", saved.MediaRef)
	}
	if saved.PostType != models.PostTypePost {
		t.Errorf("PostType = %q, want reel degraded to post", saved.PostType)
	}
}

func TestRepost_Immediate(t *testing.T) {
	hr := &mockHistoryRepo{
		getByIDFn: func(ctx context.Context, id string) (*models.HistoryRecord, error) {
			return storedRecord(), nil
		},
	}

	var sent *SendRequest
	dispatch := &fakeDispatch{
		sendNowFn: func(ctx context.Context, req *SendRequest) (*models.HistoryRecord, error) {
			sent = req
			return &models.HistoryRecord{ID: "h2", Status: models.HistoryStatusSent}, nil
		},
	}

	hs := NewHistoryService(hr, NewQueueService(&mockQueueRepo{}), dispatch, nil)

	outcome, err := hs.Repost(context.Background(), &transfer.HistoryAction{
		ID:        "h1",
		Immediate: true,
	})
	if err != nil {
		t.Fatalf("Repost returned error: %v", err)
	}

	if sent == nil {
		t.Fatal("expected the immediate path to call SendNow")
	}
	if sent.OriginalPostID != "h1" {
		t.Errorf("OriginalPostID = %q, want h1", sent.OriginalPostID)
	}
	if outcome.Record == nil || outcome.Record.ID != "h2" {
		t.Errorf("outcome record = %v, want the fresh history record", outcome.Record)
	}
}

func TestQuery_Defaults(t *testing.T) {
	var got *transfer.HistoryQuery
	hr := &mockHistoryRepo{
		queryFn: func(ctx context.Context, q *transfer.HistoryQuery) ([]*models.HistoryRecord, error) {
			got = q
			return nil, nil
		},
	}
	hs := NewHistoryService(hr, NewQueueService(&mockQueueRepo{}), &fakeDispatch{}, nil)

	if _, err := hs.Query(context.Background(), &transfer.HistoryQuery{}); err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if got.SinceDays != 30 {
		t.Errorf("SinceDays = %d, want default 30", got.SinceDays)
	}
	if got.Limit != 50 {
		t.Errorf("Limit = %d, want default 50", got.Limit)
	}
}

func TestHistoryRemove_EmptyID(t *testing.T) {
	hs := NewHistoryService(&mockHistoryRepo{}, NewQueueService(&mockQueueRepo{}), &fakeDispatch{}, nil)

	if err := hs.Remove(context.Background(), ""); err == nil {
		t.Error("expected error for empty id")
	}
}
