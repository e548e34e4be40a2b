package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	cfg "github.com/dailyspark/dailyspark/configs"
	"github.com/dailyspark/dailyspark/internal/models"
)

// Facebook page publishing. Text posts and image posts by URL are
// supported; video publishing goes through the page /videos edge.
type FacebookService interface {
	Publisher
}

type facebookService struct {
	cfg     cfg.Config
	baseURL string
}

func NewFacebookService(cfg cfg.Config) FacebookService {
	return &facebookService{
		cfg:     cfg,
		baseURL: "https://graph.facebook.com/v21.0",
	}
}

func (s *facebookService) Platform() string {
	return models.PlatformFacebook
}

func (s *facebookService) Publish(ctx context.Context, content string, media *models.MediaRef) PublishResult {
	var err error
	switch {
	case media == nil:
		err = s.post(ctx, "feed", map[string]string{
			"message":      content,
			"access_token": s.cfg.FacebookAccessToken,
		})
	case media.Kind == models.MediaKindVideo:
		err = s.post(ctx, "videos", map[string]string{
			"file_url":     media.URL,
			"description":  content,
			"access_token": s.cfg.FacebookAccessToken,
		})
	default:
		err = s.post(ctx, "photos", map[string]string{
			"url":          media.URL,
			"message":      content,
			"access_token": s.cfg.FacebookAccessToken,
		})
	}

	if err != nil {
		slog.Info(err.Error())
		return failure(err)
	}
	return success()
}

func (s *facebookService) post(ctx context.Context, edge string, payload map[string]string) error {
	url := fmt.Sprintf("%s/%s/%s", s.baseURL, s.cfg.FacebookPageID, edge)

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status code from Facebook: %d (%s)", resp.StatusCode, respBody)
	}

	var result struct {
		ID     string `json:"id"`
		PostID string `json:"post_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("error parsing response: %w", err)
	}
	if result.ID == "" && result.PostID == "" {
		return fmt.Errorf("no post ID returned from Facebook")
	}

	return nil
}
