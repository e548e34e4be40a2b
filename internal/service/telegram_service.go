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

const telegramMaxChars = 4096

type TelegramService interface {
	Publisher
}

type telegramService struct {
	cfg     cfg.Config
	baseURL string
}

func NewTelegramService(cfg cfg.Config) TelegramService {
	return &telegramService{
		cfg:     cfg,
		baseURL: "https://api.telegram.org",
	}
}

func (s *telegramService) Platform() string {
	return models.PlatformTelegram
}

func (s *telegramService) Publish(ctx context.Context, content string, media *models.MediaRef) PublishResult {
	content = truncateText(content, telegramMaxChars)

	var method string
	payload := map[string]string{"chat_id": s.cfg.TelegramChatID}

	switch {
	case media == nil:
		method = "sendMessage"
		payload["text"] = content
	case media.Kind == models.MediaKindVideo:
		method = "sendVideo"
		payload["video"] = media.URL
		payload["caption"] = content
	default:
		method = "sendPhoto"
		payload["photo"] = media.URL
		payload["caption"] = content
	}

	if err := s.call(ctx, method, payload); err != nil {
		slog.Info(err.Error())
		return failure(err)
	}
	return success()
}

func (s *telegramService) call(ctx context.Context, method string, payload map[string]string) error {
	url := fmt.Sprintf("%s/bot%s/%s", s.baseURL, s.cfg.TelegramBotToken, method)

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

	var result struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response body: %w", err)
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("error parsing response: %w", err)
	}

	if !result.OK {
		return fmt.Errorf("telegram %s failed: %s", method, result.Description)
	}
	return nil
}
