package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	cfg "github.com/dailyspark/dailyspark/configs"
	"github.com/dailyspark/dailyspark/internal/models"
)

const xMaxChars = 280

type XService interface {
	Publisher
}

type xService struct {
	cfg       cfg.Config
	baseURL   string
	uploadURL string
	client    *http.Client
}

func NewXService(cfg cfg.Config) XService {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.XAccessToken})
	return &xService{
		cfg:       cfg,
		baseURL:   "https://api.twitter.com",
		uploadURL: "https://upload.twitter.com",
		client:    oauth2.NewClient(context.Background(), ts),
	}
}

func (s *xService) Platform() string {
	return models.PlatformX
}

func (s *xService) Publish(ctx context.Context, content string, media *models.MediaRef) PublishResult {
	content = truncateText(content, xMaxChars)

	var mediaID string
	if media != nil {
		id, err := s.uploadMedia(ctx, media)
		if err != nil {
			slog.Info(err.Error())
			return failure(err)
		}
		mediaID = id
	}

	if err := s.createTweet(ctx, content, mediaID); err != nil {
		slog.Info(err.Error())
		return failure(err)
	}
	return success()
}

// uploadMedia pushes the blob through the v1.1 media endpoint and
// returns the media id to attach to the tweet.
func (s *xService) uploadMedia(ctx context.Context, media *models.MediaRef) (string, error) {
	file, err := fetchMedia(ctx, media.URL)
	if err != nil {
		return "", err
	}

	data := url.Values{}
	data.Set("media_data", base64.StdEncoding.EncodeToString(file))

	req, err := http.NewRequestWithContext(ctx, "POST", s.uploadURL+"/1.1/media/upload.json", strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("unexpected status code from X media upload: %d (%s)", resp.StatusCode, respBody)
	}

	var result struct {
		MediaIDString string `json:"media_id_string"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("error parsing upload response: %w", err)
	}
	if result.MediaIDString == "" {
		return "", errors.New("no media id returned from X")
	}

	return result.MediaIDString, nil
}

func (s *xService) createTweet(ctx context.Context, content, mediaID string) error {
	payload := map[string]interface{}{
		"text": content,
	}
	if mediaID != "" {
		payload["media"] = map[string]interface{}{
			"media_ids": []string{mediaID},
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/2/tweets", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status code from X: %d (%s)", resp.StatusCode, respBody)
	}

	return nil
}
