package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/dailyspark/dailyspark/internal/service"
	"github.com/dailyspark/dailyspark/internal/transfer"
)

type HistoryHandler struct {
	s service.HistoryService
}

func NewHistoryHandler(service service.HistoryService) *HistoryHandler {
	return &HistoryHandler{s: service}
}

func (h *HistoryHandler) ListHistory(c *fiber.Ctx) error {
	query := transfer.HistoryQuery{
		SinceDays: c.QueryInt("days", 30),
		Status:    c.Query("status"),
		Platform:  c.Query("platform"),
		Limit:     c.QueryInt("limit", 50),
	}

	records, err := h.s.Query(c.Context(), &query)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list history",
		})
	}

	return c.Status(fiber.StatusOK).JSON(records)
}

func (h *HistoryHandler) HistoryAction(c *fiber.Ctx) error {
	var req transfer.HistoryAction
	if err := c.BodyParser(&req); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	switch req.Action {
	case transfer.HistoryActionDelete:
		if err := h.s.Remove(c.Context(), req.ID); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Unable to remove history record",
			})
		}
		return c.SendStatus(fiber.StatusOK)

	case transfer.HistoryActionRepost:
		outcome, err := h.s.Repost(c.Context(), &req)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusOK).JSON(outcome)

	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown action",
		})
	}
}
