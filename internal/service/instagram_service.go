package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	cfg "github.com/dailyspark/dailyspark/configs"
	"github.com/dailyspark/dailyspark/internal/models"
)

type InstagramService interface {
	Publisher
}

type instagramService struct {
	cfg     cfg.Config
	baseURL string
}

func NewInstagramService(cfg cfg.Config) InstagramService {
	return &instagramService{
		cfg:     cfg,
		baseURL: "https://graph.instagram.com/v21.0",
	}
}

func (s *instagramService) Platform() string {
	return models.PlatformInstagram
}

func (s *instagramService) Publish(ctx context.Context, content string, media *models.MediaRef) PublishResult {
	// Instagram has no text-only post shape.
	if media == nil {
		err := errors.New("instagram requires media")
		slog.Info(err.Error())
		return failure(err)
	}

	containerID, err := s.createContainer(ctx, content, media)
	if err != nil {
		slog.Info(err.Error())
		return failure(err)
	}

	if err := s.publishContainer(ctx, containerID); err != nil {
		slog.Info(err.Error())
		return failure(err)
	}
	return success()
}

func (s *instagramService) createContainer(ctx context.Context, caption string, media *models.MediaRef) (string, error) {
	url := fmt.Sprintf("%s/%s/media", s.baseURL, s.cfg.InstagramAccountID)

	payload := map[string]interface{}{
		"caption":      caption,
		"access_token": s.cfg.InstagramAccessToken,
	}
	if media.Kind == models.MediaKindVideo {
		payload["media_type"] = "REELS"
		payload["video_url"] = media.URL
	} else {
		payload["image_url"] = media.URL
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("unexpected status code from Instagram: %d (%s)", resp.StatusCode, respBody)
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}
	if result.ID == "" {
		return "", fmt.Errorf("no media ID returned from Instagram")
	}

	return result.ID, nil
}

func (s *instagramService) publishContainer(ctx context.Context, containerID string) error {
	url := fmt.Sprintf("%s/%s/media_publish", s.baseURL, s.cfg.InstagramAccountID)
	payload := map[string]string{
		"creation_id":  containerID,
		"access_token": s.cfg.InstagramAccessToken,
	}

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
		return fmt.Errorf("unexpected status code from Instagram publish: %d (%s)", resp.StatusCode, respBody)
	}

	return nil
}
