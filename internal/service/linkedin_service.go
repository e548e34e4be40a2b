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

	"golang.org/x/oauth2"

	cfg "github.com/dailyspark/dailyspark/configs"
	"github.com/dailyspark/dailyspark/internal/models"
)

// LinkedIn caps a share's commentary at 3000 characters.
const linkedinMaxChars = 3000

type LinkedinService interface {
	Publisher
}

type linkedinService struct {
	cfg     cfg.Config
	baseURL string
	client  *http.Client
}

func NewLinkedinService(cfg cfg.Config) LinkedinService {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.LinkedinAccessToken})
	return &linkedinService{
		cfg:     cfg,
		baseURL: "https://api.linkedin.com",
		client:  oauth2.NewClient(context.Background(), ts),
	}
}

func (s *linkedinService) Platform() string {
	return models.PlatformLinkedin
}

func (s *linkedinService) Publish(ctx context.Context, content string, media *models.MediaRef) PublishResult {
	content = truncateText(content, linkedinMaxChars)

	var assetURN string
	if media != nil {
		urn, err := s.uploadAsset(ctx, media)
		if err != nil {
			slog.Info(err.Error())
			return failure(err)
		}
		assetURN = urn
	}

	if err := s.createShare(ctx, content, assetURN, media); err != nil {
		slog.Info(err.Error())
		return failure(err)
	}
	return success()
}

// uploadAsset runs LinkedIn's two-step media protocol: register an
// upload to obtain an asset URN and a signed URL, then PUT the bytes.
func (s *linkedinService) uploadAsset(ctx context.Context, media *models.MediaRef) (string, error) {
	recipe := "urn:li:digitalmediaRecipe:feedshare-image"
	if media.Kind == models.MediaKindVideo {
		recipe = "urn:li:digitalmediaRecipe:feedshare-video"
	}

	payload := map[string]interface{}{
		"registerUploadRequest": map[string]interface{}{
			"recipes": []string{recipe},
			"owner":   s.cfg.LinkedinAuthorURN,
			"serviceRelationships": []map[string]string{
				{
					"relationshipType": "OWNER",
					"identifier":       "urn:li:userGeneratedContent",
				},
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/v2/assets?action=registerUpload", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("unexpected status code from LinkedIn register: %d (%s)", resp.StatusCode, respBody)
	}

	var result struct {
		Value struct {
			Asset           string `json:"asset"`
			UploadMechanism struct {
				MediaUploadHTTPRequest struct {
					UploadURL string `json:"uploadUrl"`
				} `json:"com.linkedin.digitalmedia.uploading.MediaUploadHttpRequest"`
			} `json:"uploadMechanism"`
		} `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("error parsing register response: %w", err)
	}

	uploadURL := result.Value.UploadMechanism.MediaUploadHTTPRequest.UploadURL
	if result.Value.Asset == "" || uploadURL == "" {
		return "", errors.New("no upload target returned from LinkedIn")
	}

	file, err := fetchMedia(ctx, media.URL)
	if err != nil {
		return "", err
	}

	putReq, err := http.NewRequestWithContext(ctx, "PUT", uploadURL, bytes.NewReader(file))
	if err != nil {
		return "", fmt.Errorf("error creating upload request: %w", err)
	}

	putResp, err := s.client.Do(putReq)
	if err != nil {
		return "", fmt.Errorf("HTTP request error: %w", err)
	}
	defer putResp.Body.Close()

	if putResp.StatusCode != http.StatusCreated && putResp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code from LinkedIn upload: %d", putResp.StatusCode)
	}

	return result.Value.Asset, nil
}

func (s *linkedinService) createShare(ctx context.Context, content, assetURN string, media *models.MediaRef) error {
	shareMedia := []map[string]interface{}{}
	category := "NONE"
	if assetURN != "" {
		category = "IMAGE"
		if media != nil && media.Kind == models.MediaKindVideo {
			category = "VIDEO"
		}
		shareMedia = append(shareMedia, map[string]interface{}{
			"status": "READY",
			"media":  assetURN,
		})
	}

	payload := map[string]interface{}{
		"author":         s.cfg.LinkedinAuthorURN,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]interface{}{
			"com.linkedin.ugc.ShareContent": map[string]interface{}{
				"shareCommentary":    map[string]string{"text": content},
				"shareMediaCategory": category,
				"media":              shareMedia,
			},
		},
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/v2/ugcPosts", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status code from LinkedIn: %d (%s)", resp.StatusCode, respBody)
	}

	return nil
}
