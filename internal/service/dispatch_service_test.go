package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dailyspark/dailyspark/internal/metrics"
	"github.com/dailyspark/dailyspark/internal/models"
	"github.com/dailyspark/dailyspark/internal/transfer"
)

// --- mocks ---

type mockQueueRepo struct {
	createFn       func(ctx context.Context, entry *models.QueueEntry) (string, error)
	getByIDFn      func(ctx context.Context, id string) (*models.QueueEntry, error)
	listDueFn      func(ctx context.Context, now time.Time, limit int) ([]*models.QueueEntry, error)
	listByStatusFn func(ctx context.Context, status string) ([]*models.QueueEntry, error)
	removeFn       func(ctx context.Context, id string) error
}

func (m *mockQueueRepo) Create(ctx context.Context, entry *models.QueueEntry) (string, error) {
	if m.createFn != nil {
		return m.createFn(ctx, entry)
	}
	return entry.ID, nil
}
func (m *mockQueueRepo) GetByID(ctx context.Context, id string) (*models.QueueEntry, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockQueueRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.QueueEntry, error) {
	if m.listDueFn != nil {
		return m.listDueFn(ctx, now, limit)
	}
	return nil, nil
}
func (m *mockQueueRepo) ListByStatus(ctx context.Context, status string) ([]*models.QueueEntry, error) {
	if m.listByStatusFn != nil {
		return m.listByStatusFn(ctx, status)
	}
	return nil, nil
}
func (m *mockQueueRepo) Remove(ctx context.Context, id string) error {
	if m.removeFn != nil {
		return m.removeFn(ctx, id)
	}
	return nil
}

type mockHistoryRepo struct {
	createFn  func(ctx context.Context, record *models.HistoryRecord) (string, error)
	getByIDFn func(ctx context.Context, id string) (*models.HistoryRecord, error)
	queryFn   func(ctx context.Context, q *transfer.HistoryQuery) ([]*models.HistoryRecord, error)
	removeFn  func(ctx context.Context, id string) error
}

func (m *mockHistoryRepo) Create(ctx context.Context, record *models.HistoryRecord) (string, error) {
	if m.createFn != nil {
		return m.createFn(ctx, record)
	}
	return record.ID, nil
}
func (m *mockHistoryRepo) GetByID(ctx context.Context, id string) (*models.HistoryRecord, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockHistoryRepo) Query(ctx context.Context, q *transfer.HistoryQuery) ([]*models.HistoryRecord, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, q)
	}
	return nil, nil
}
func (m *mockHistoryRepo) Remove(ctx context.Context, id string) error {
	if m.removeFn != nil {
		return m.removeFn(ctx, id)
	}
	return nil
}

// fakePublisher publishes to a fixed platform with a fixed outcome.
type fakePublisher struct {
	platform string
	result   PublishResult
	calls    int
}

func (p *fakePublisher) Platform() string { return p.platform }
func (p *fakePublisher) Publish(ctx context.Context, content string, media *models.MediaRef) PublishResult {
	p.calls++
	return p.result
}

type fakeCleaner struct {
	deleted []string
	err     error
}

func (c *fakeCleaner) DeleteByURL(ctx context.Context, fileURL string) error {
	c.deleted = append(c.deleted, fileURL)
	return c.err
}

func testCollector() *metrics.Collector {
	return metrics.NewCollector(prometheus.NewRegistry())
}

func newTestDispatch(qr *mockQueueRepo, hr *mockHistoryRepo, cleaner MediaCleaner, publishers ...Publisher) DispatchService {
	return NewDispatchService(qr, hr, NewPublisherRegistry(publishers...), cleaner, nil, testCollector())
}

func dueEntry(id string, platforms ...string) *models.QueueEntry {
	return &models.QueueEntry{
		ID:          id,
		Content:     "hello world",
		Platforms:   platforms,
		PostType:    models.PostTypePost,
		ScheduledAt: time.Now().Add(-time.Minute),
		Status:      models.QueueStatusScheduled,
	}
}

// --- tests ---

func TestRunPending_PartialFailure(t *testing.T) {
	entry := dueEntry("q1", "x", "linkedin")

	var recorded *models.HistoryRecord
	qr := &mockQueueRepo{
		listDueFn: func(ctx context.Context, now time.Time, limit int) ([]*models.QueueEntry, error) {
			return []*models.QueueEntry{entry}, nil
		},
	}
	hr := &mockHistoryRepo{
		createFn: func(ctx context.Context, record *models.HistoryRecord) (string, error) {
			recorded = record
			return record.ID, nil
		},
	}

	ds := newTestDispatch(qr, hr, nil,
		&fakePublisher{platform: "x", result: PublishResult{Success: false, Message: "rate limited"}},
		&fakePublisher{platform: "linkedin", result: PublishResult{Success: true}},
	)

	ds.RunPending(context.Background())

	if recorded == nil {
		t.Fatal("expected a history record to be written")
	}
	if recorded.Status != models.HistoryStatusPartial {
		t.Errorf("Status = %q, want %q", recorded.Status, models.HistoryStatusPartial)
	}
	if len(recorded.SentPlatforms) != 1 || recorded.SentPlatforms[0] != "linkedin" {
		t.Errorf("SentPlatforms = %v, want [linkedin]", recorded.SentPlatforms)
	}
	if len(recorded.FailedPlatforms) != 1 || recorded.FailedPlatforms[0] != "x" {
		t.Errorf("FailedPlatforms = %v, want [x]", recorded.FailedPlatforms)
	}
	if recorded.FailureReason != "" {
		t.Errorf("FailureReason = %q, want empty for partial status", recorded.FailureReason)
	}
}

func TestRunPending_AllFail(t *testing.T) {
	entry := dueEntry("q1", "x", "telegram")

	var recorded *models.HistoryRecord
	removed := false
	qr := &mockQueueRepo{
		listDueFn: func(ctx context.Context, now time.Time, limit int) ([]*models.QueueEntry, error) {
			return []*models.QueueEntry{entry}, nil
		},
		removeFn: func(ctx context.Context, id string) error {
			removed = true
			return nil
		},
	}
	hr := &mockHistoryRepo{
		createFn: func(ctx context.Context, record *models.HistoryRecord) (string, error) {
			recorded = record
			return record.ID, nil
		},
	}

	ds := newTestDispatch(qr, hr, nil,
		&fakePublisher{platform: "x", result: PublishResult{Success: false, Message: "auth expired"}},
		&fakePublisher{platform: "telegram", result: PublishResult{Success: false, Message: "chat not found"}},
	)

	ds.RunPending(context.Background())

	if recorded == nil {
		t.Fatal("expected a history record to be written")
	}
	if recorded.Status != models.HistoryStatusFailed {
		t.Errorf("Status = %q, want %q", recorded.Status, models.HistoryStatusFailed)
	}
	if len(recorded.SentPlatforms) != 0 {
		t.Errorf("SentPlatforms = %v, want empty", recorded.SentPlatforms)
	}
	if recorded.FailureReason != "auth expired" {
		t.Errorf("FailureReason = %q, want first failure message", recorded.FailureReason)
	}
	if !removed {
		t.Error("expected queue entry to be removed after a fully failed dispatch")
	}
}

func TestRunPending_AllSucceed(t *testing.T) {
	entry := dueEntry("q1", "x", "linkedin", "facebook")

	var recorded *models.HistoryRecord
	qr := &mockQueueRepo{
		listDueFn: func(ctx context.Context, now time.Time, limit int) ([]*models.QueueEntry, error) {
			return []*models.QueueEntry{entry}, nil
		},
	}
	hr := &mockHistoryRepo{
		createFn: func(ctx context.Context, record *models.HistoryRecord) (string, error) {
			recorded = record
			return record.ID, nil
		},
	}

	ds := newTestDispatch(qr, hr, nil,
		&fakePublisher{platform: "x", result: PublishResult{Success: true}},
		&fakePublisher{platform: "linkedin", result: PublishResult{Success: true}},
		&fakePublisher{platform: "facebook", result: PublishResult{Success: true}},
	)

	ds.RunPending(context.Background())

	if recorded == nil {
		t.Fatal("expected a history record to be written")
	}
	if recorded.Status != models.HistoryStatusSent {
		t.Errorf("Status = %q, want %q", recorded.Status, models.HistoryStatusSent)
	}
	if len(recorded.FailedPlatforms) != 0 {
		t.Errorf("FailedPlatforms = %v, want empty", recorded.FailedPlatforms)
	}
}

func TestRunPending_PlatformSetCompleteness(t *testing.T) {
	entry := dueEntry("q1", "x", "linkedin", "facebook", "instagram")

	var recorded *models.HistoryRecord
	qr := &mockQueueRepo{
		listDueFn: func(ctx context.Context, now time.Time, limit int) ([]*models.QueueEntry, error) {
			return []*models.QueueEntry{entry}, nil
		},
	}
	hr := &mockHistoryRepo{
		createFn: func(ctx context.Context, record *models.HistoryRecord) (string, error) {
			recorded = record
			return record.ID, nil
		},
	}

	ds := newTestDispatch(qr, hr, nil,
		&fakePublisher{platform: "x", result: PublishResult{Success: true}},
		&fakePublisher{platform: "linkedin", result: PublishResult{Success: false, Message: "boom"}},
		&fakePublisher{platform: "facebook", result: PublishResult{Success: true}},
		&fakePublisher{platform: "instagram", result: PublishResult{Success: false, Message: "boom"}},
	)

	ds.RunPending(context.Background())

	if recorded == nil {
		t.Fatal("expected a history record to be written")
	}

	union := append([]string{}, recorded.SentPlatforms...)
	union = append(union, recorded.FailedPlatforms...)
	sort.Strings(union)

	want := append([]string{}, entry.Platforms...)
	sort.Strings(want)

	if len(union) != len(want) {
		t.Fatalf("sent ∪ failed has %d platforms, want %d", len(union), len(want))
	}
	for i := range want {
		if union[i] != want[i] {
			t.Errorf("sent ∪ failed = %v, want %v", union, want)
			break
		}
	}
}

func TestRunPending_UnsupportedPlatformIsFailure(t *testing.T) {
	entry := dueEntry("q1", "myspace", "x")

	var recorded *models.HistoryRecord
	qr := &mockQueueRepo{
		listDueFn: func(ctx context.Context, now time.Time, limit int) ([]*models.QueueEntry, error) {
			return []*models.QueueEntry{entry}, nil
		},
	}
	hr := &mockHistoryRepo{
		createFn: func(ctx context.Context, record *models.HistoryRecord) (string, error) {
			recorded = record
			return record.ID, nil
		},
	}

	ds := newTestDispatch(qr, hr, nil,
		&fakePublisher{platform: "x", result: PublishResult{Success: true}},
	)

	ds.RunPending(context.Background())

	if recorded == nil {
		t.Fatal("expected a history record to be written")
	}
	if recorded.Status != models.HistoryStatusPartial {
		t.Errorf("Status = %q, want %q", recorded.Status, models.HistoryStatusPartial)
	}
	if len(recorded.FailedPlatforms) != 1 || recorded.FailedPlatforms[0] != "myspace" {
		t.Errorf("FailedPlatforms = %v, want [myspace]", recorded.FailedPlatforms)
	}
	if recorded.Results[0].Message != "unsupported platform" {
		t.Errorf("Results[0].Message = %q, want %q", recorded.Results[0].Message, "unsupported platform")
	}
}

func TestRunPending_RemovalIsUnconditional(t *testing.T) {
	outcomes := []PublishResult{
		{Success: true},
		{Success: false, Message: "down"},
	}

	for _, outcome := range outcomes {
		entry := dueEntry("q1", "x")
		var removedID string
		qr := &mockQueueRepo{
			listDueFn: func(ctx context.Context, now time.Time, limit int) ([]*models.QueueEntry, error) {
				return []*models.QueueEntry{entry}, nil
			},
			removeFn: func(ctx context.Context, id string) error {
				removedID = id
				return nil
			},
		}
		hr := &mockHistoryRepo{}

		ds := newTestDispatch(qr, hr, nil, &fakePublisher{platform: "x", result: outcome})
		ds.RunPending(context.Background())

		if removedID != "q1" {
			t.Errorf("success=%v: removed id = %q, want q1", outcome.Success, removedID)
		}
	}
}

func TestRunPending_BatchBound(t *testing.T) {
	// 10 due entries; one invocation takes the earliest 5 only.
	var entries []*models.QueueEntry
	for i := 0; i < 10; i++ {
		e := dueEntry(string(rune('a'+i)), "x")
		e.ScheduledAt = time.Now().Add(time.Duration(-10+i) * time.Minute)
		entries = append(entries, e)
	}

	removed := map[string]bool{}
	qr := &mockQueueRepo{
		listDueFn: func(ctx context.Context, now time.Time, limit int) ([]*models.QueueEntry, error) {
			if limit < len(entries) {
				return entries[:limit], nil
			}
			return entries, nil
		},
		removeFn: func(ctx context.Context, id string) error {
			removed[id] = true
			return nil
		},
	}
	hr := &mockHistoryRepo{}

	ds := newTestDispatch(qr, hr, nil, &fakePublisher{platform: "x", result: PublishResult{Success: true}})
	ds.RunPending(context.Background())

	if len(removed) != DispatchBatchLimit {
		t.Fatalf("processed %d entries, want %d", len(removed), DispatchBatchLimit)
	}
	for _, e := range entries[:DispatchBatchLimit] {
		if !removed[e.ID] {
			t.Errorf("expected earliest entry %s to be processed", e.ID)
		}
	}
	for _, e := range entries[DispatchBatchLimit:] {
		if removed[e.ID] {
			t.Errorf("entry %s processed beyond the batch bound", e.ID)
		}
	}
}

func TestRunPending_CleanupFailureDoesNotBlock(t *testing.T) {
	entry := dueEntry("q1", "x")
	entry.MediaRef = &models.MediaRef{URL: "https://cdn.example.com/abc", Kind: models.MediaKindImage}

	historyWritten := false
	removed := false
	qr := &mockQueueRepo{
		listDueFn: func(ctx context.Context, now time.Time, limit int) ([]*models.QueueEntry, error) {
			return []*models.QueueEntry{entry}, nil
		},
		removeFn: func(ctx context.Context, id string) error {
			removed = true
			return nil
		},
	}
	hr := &mockHistoryRepo{
		createFn: func(ctx context.Context, record *models.HistoryRecord) (string, error) {
			historyWritten = true
			return record.ID, nil
		},
	}
	cleaner := &fakeCleaner{err: errors.New("bucket unreachable")}

	ds := newTestDispatch(qr, hr, cleaner, &fakePublisher{platform: "x", result: PublishResult{Success: true}})
	ds.RunPending(context.Background())

	if len(cleaner.deleted) != 1 {
		t.Fatalf("cleanup attempted %d times, want 1", len(cleaner.deleted))
	}
	if !historyWritten {
		t.Error("expected history record despite cleanup failure")
	}
	if !removed {
		t.Error("expected queue removal despite cleanup failure")
	}
}

func TestRunPending_HistoryErrorKeepsEntryQueued(t *testing.T) {
	entry := dueEntry("q1", "x")

	removed := false
	qr := &mockQueueRepo{
		listDueFn: func(ctx context.Context, now time.Time, limit int) ([]*models.QueueEntry, error) {
			return []*models.QueueEntry{entry}, nil
		},
		removeFn: func(ctx context.Context, id string) error {
			removed = true
			return nil
		},
	}
	hr := &mockHistoryRepo{
		createFn: func(ctx context.Context, record *models.HistoryRecord) (string, error) {
			return "", errors.New("history store unreachable")
		},
	}

	ds := newTestDispatch(qr, hr, nil, &fakePublisher{platform: "x", result: PublishResult{Success: true}})
	ds.RunPending(context.Background())

	if removed {
		t.Error("entry must stay queued when the history write fails")
	}
}

func TestRunPending_PlatformOrderIsDeclarationOrder(t *testing.T) {
	entry := dueEntry("q1", "telegram", "x", "linkedin")

	var recorded *models.HistoryRecord
	qr := &mockQueueRepo{
		listDueFn: func(ctx context.Context, now time.Time, limit int) ([]*models.QueueEntry, error) {
			return []*models.QueueEntry{entry}, nil
		},
	}
	hr := &mockHistoryRepo{
		createFn: func(ctx context.Context, record *models.HistoryRecord) (string, error) {
			recorded = record
			return record.ID, nil
		},
	}

	ds := newTestDispatch(qr, hr, nil,
		&fakePublisher{platform: "x", result: PublishResult{Success: true}},
		&fakePublisher{platform: "linkedin", result: PublishResult{Success: true}},
		&fakePublisher{platform: "telegram", result: PublishResult{Success: true}},
	)

	ds.RunPending(context.Background())

	if recorded == nil {
		t.Fatal("expected a history record to be written")
	}
	for i, want := range entry.Platforms {
		if recorded.Results[i].Platform != want {
			t.Errorf("Results[%d].Platform = %q, want %q", i, recorded.Results[i].Platform, want)
		}
	}
}

func TestSendNow_WritesImmediateRecord(t *testing.T) {
	var recorded *models.HistoryRecord
	hr := &mockHistoryRepo{
		createFn: func(ctx context.Context, record *models.HistoryRecord) (string, error) {
			recorded = record
			return record.ID, nil
		},
	}

	ds := newTestDispatch(&mockQueueRepo{}, hr, nil,
		&fakePublisher{platform: "x", result: PublishResult{Success: true}},
	)

	record, err := ds.SendNow(context.Background(), &SendRequest{
		Content:        "hi",
		Platforms:      []string{"x"},
		OriginalPostID: "h42",
	})
	if err != nil {
		t.Fatalf("SendNow returned error: %v", err)
	}
	if recorded == nil {
		t.Fatal("expected a history record to be written")
	}
	if record.OriginalPostID != "h42" {
		t.Errorf("OriginalPostID = %q, want h42", record.OriginalPostID)
	}
	if record.QueueID != "" {
		t.Errorf("QueueID = %q, want empty for an immediate send", record.QueueID)
	}
	if !record.SentAt.Equal(record.MovedToHistoryAt) {
		t.Error("SentAt and MovedToHistoryAt must match for an immediate send")
	}
}

func TestSendNow_Validation(t *testing.T) {
	ds := newTestDispatch(&mockQueueRepo{}, &mockHistoryRepo{}, nil)

	if _, err := ds.SendNow(context.Background(), &SendRequest{Content: "", Platforms: []string{"x"}}); err == nil {
		t.Error("expected error for empty content")
	}
	if _, err := ds.SendNow(context.Background(), &SendRequest{Content: "hi"}); err == nil {
		t.Error("expected error for empty platform set")
	}
}
