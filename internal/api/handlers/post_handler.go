package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/dailyspark/dailyspark/internal/models"
	"github.com/dailyspark/dailyspark/internal/service"
)

type PostHandler struct {
	ds service.DispatchService
	ms service.MediaStore
}

func NewPostHandler(ds service.DispatchService, ms service.MediaStore) *PostHandler {
	return &PostHandler{ds: ds, ms: ms}
}

// SendPost publishes immediately, bypassing the queue. The outcome is
// reported synchronously; a fully failed send surfaces the first
// platform's diagnostic.
func (h *PostHandler) SendPost(c *fiber.Ctx) error {
	content := c.FormValue("content")
	platformsStr := c.FormValue("platforms")

	var platforms []string
	if platformsStr != "" {
		if err := json.Unmarshal([]byte(platformsStr), &platforms); err != nil {
			slog.Error(err.Error())
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid platforms format",
			})
		}
	}

	mediaRef, err := h.uploadedMedia(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	record, err := h.ds.SendNow(c.Context(), &service.SendRequest{
		Content:   content,
		Platforms: platforms,
		MediaRef:  mediaRef,
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	slog.Info(fmt.Sprintf("user %s sent post %s (%s)", GetUserID(c), record.ID, record.Status))

	if record.Status == models.HistoryStatusFailed {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":      record.FailureReason,
			"history_id": record.ID,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":          "Post sent",
		"status":           record.Status,
		"history_id":       record.ID,
		"sent_platforms":   record.SentPlatforms,
		"failed_platforms": record.FailedPlatforms,
	})
}

// UploadMedia stores a blob for later use by a scheduled post.
func (h *PostHandler) UploadMedia(c *fiber.Ctx) error {
	mediaRef, err := h.uploadedMedia(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if mediaRef == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file provided",
		})
	}

	return c.Status(fiber.StatusOK).JSON(mediaRef)
}

func (h *PostHandler) uploadedMedia(c *fiber.Ctx) (*models.MediaRef, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		// No file attached is fine for a text post.
		return nil, nil
	}

	file, err := fileHeader.Open()
	if err != nil {
		slog.Error(err.Error())
		return nil, err
	}
	defer file.Close()

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		slog.Error(err.Error())
		return nil, err
	}

	return h.ms.Upload(c.Context(), fileBytes)
}
