package handlers

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/dailyspark/dailyspark/internal/service"
	"github.com/dailyspark/dailyspark/internal/transfer"
)

type QueueHandler struct {
	s service.QueueService
}

func NewQueueHandler(service service.QueueService) *QueueHandler {
	return &QueueHandler{s: service}
}

func (h *QueueHandler) CreateQueueEntry(c *fiber.Ctx) error {
	var qc transfer.QueueCreation
	if err := c.BodyParser(&qc); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	queueID, err := h.s.Enqueue(c.Context(), &qc)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	slog.Info(fmt.Sprintf("user %s scheduled post %s", GetUserID(c), queueID))

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"queue_id": queueID,
		"message":  "Post scheduled successfully",
	})
}

func (h *QueueHandler) ListQueue(c *fiber.Ctx) error {
	status := c.Query("status")

	entries, err := h.s.List(c.Context(), status)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list queue entries",
		})
	}

	return c.Status(fiber.StatusOK).JSON(entries)
}

func (h *QueueHandler) RemoveQueueEntry(c *fiber.Ctx) error {
	id := c.Params("id")

	err := h.s.Remove(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to remove queue entry",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
