package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dailyspark/dailyspark/internal/models"
)

// PublishResult reports one platform's publish attempt. Adapters never
// propagate errors for expected failure modes; they log and return a
// failed result so sibling platforms still get their attempt.
type PublishResult struct {
	Success bool
	Message string
}

// Publisher is the uniform contract every platform adapter implements.
type Publisher interface {
	Platform() string
	Publish(ctx context.Context, content string, media *models.MediaRef) PublishResult
}

// PublisherRegistry resolves a platform name to its adapter.
type PublisherRegistry struct {
	publishers map[string]Publisher
}

func NewPublisherRegistry(publishers ...Publisher) *PublisherRegistry {
	r := &PublisherRegistry{publishers: make(map[string]Publisher, len(publishers))}
	for _, p := range publishers {
		r.publishers[p.Platform()] = p
	}
	return r
}

func (r *PublisherRegistry) Get(platform string) (Publisher, bool) {
	p, ok := r.publishers[platform]
	return p, ok
}

func failure(err error) PublishResult {
	return PublishResult{Success: false, Message: err.Error()}
}

func success() PublishResult {
	return PublishResult{Success: true}
}

// truncateText enforces a platform's character limit. Policy belongs to
// the adapter, not the dispatch engine.
func truncateText(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// fetchMedia downloads the stored blob so an adapter can push it through
// the platform's own media-upload protocol.
func fetchMedia(ctx context.Context, fileURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating media request: %w", err)
	}

	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error downloading media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code downloading media: %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
