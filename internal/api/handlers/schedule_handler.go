package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"autopost/internal/service"
	"autopost/internal/transfer"
)

type ScheduleHandler struct {
	s service.ScheduleService
}

func NewScheduleHandler(service service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{s: service}
}

func (h *ScheduleHandler) UpdateConfig(c *fiber.Ctx) error {
	userID := GetUserID(c)
	platform := c.Params("platform")
	accountID, err := c.ParamsInt("id", 0)
	if err != nil || accountID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid account id",
		})
	}

	var sc transfer.ScheduleConfigRequest
	if err := c.BodyParser(&sc); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := h.s.UpdateConfig(c.Context(), userID, platform, int64(accountID), &sc); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *ScheduleHandler) UploadMedia(c *fiber.Ctx) error {
	userID := GetUserID(c)
	platform := c.Params("platform")
	accountID, err := c.ParamsInt("id", 0)
	if err != nil || accountID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid account id",
		})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "file is required",
		})
	}

	qe := transfer.QueueEntryRequest{
		Mode:      c.FormValue("mode", "range"),
		FixedTime: c.FormValue("fixed_time"),
		Caption:   c.FormValue("caption"),
	}

	if err := h.s.AddMedia(c.Context(), userID, platform, int64(accountID), &qe, file); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *ScheduleHandler) Status(c *fiber.Ctx) error {
	userID := GetUserID(c)

	statuses, err := h.s.Status(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch schedule status",
		})
	}

	return c.Status(fiber.StatusOK).JSON(statuses)
}

func (h *ScheduleHandler) History(c *fiber.Ctx) error {
	userID := GetUserID(c)

	history, err := h.s.History(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch posting history",
		})
	}

	return c.Status(fiber.StatusOK).JSON(history)
}

func (h *ScheduleHandler) Reset(c *fiber.Ctx) error {
	platform := c.Params("platform")

	count, err := h.s.Reset(c.Context(), platform)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to reset schedules",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"reset": count,
	})
}
