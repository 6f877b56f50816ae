package handlers

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/dto"
	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/services"
	"github.com/gofiber/fiber/v2"
)

type WaitlistHandler struct {
	waitlist *services.WaitlistService
}

func NewWaitlistHandler(waitlist *services.WaitlistService) *WaitlistHandler {
	return &WaitlistHandler{waitlist: waitlist}
}

func (h *WaitlistHandler) Join(c *fiber.Ctx) error {
	var in services.WaitlistInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}

	sub, err := h.waitlist.Join(c.UserContext(), in, c.Get(fiber.HeaderUserAgent))
	if ok, ferr := fieldErrors(c, err); ok {
		return ferr
	}
	if errors.Is(err, services.ErrAlreadyJoined) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Error: true, Message: "You have already joined the waitlist with this email and role.",
		})
	}
	if err != nil {
		return internalError(c, "waitlist_join", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":      sub.ID,
		"message": "Thanks! You're on the list.",
	})
}

// List is the admin view of submissions, newest first.
func (h *WaitlistHandler) List(c *fiber.Ctx) error {
	offset := c.QueryInt("offset", 0)
	items, total, err := h.waitlist.List(c.UserContext(), c.QueryInt("limit", 50), offset)
	if err != nil {
		return internalError(c, "waitlist_list", err)
	}
	return c.JSON(dto.WaitlistListResponse{Items: items, Total: total, Offset: offset})
}
