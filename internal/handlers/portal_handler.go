package handlers

import (
	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/services"
	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/session"
	"github.com/gofiber/fiber/v2"
)

type PortalHandler struct {
	portal *services.PortalService
}

func NewPortalHandler(portal *services.PortalService) *PortalHandler {
	return &PortalHandler{portal: portal}
}

func (h *PortalHandler) Shell(c *fiber.Ctx) error {
	user, err := session.User(c)
	if err != nil {
		return unauthorized(c)
	}
	return c.JSON(h.portal.Shell(c.UserContext(), user, c.Query("role")))
}

func (h *PortalHandler) WorkerProfile(c *fiber.Ctx) error {
	user, err := session.User(c)
	if err != nil {
		return unauthorized(c)
	}

	form, err := h.portal.WorkerForm(c.UserContext(), user)
	if err != nil {
		return internalError(c, "worker_profile", err)
	}
	return c.JSON(form)
}

func (h *PortalHandler) SaveWorkerProfile(c *fiber.Ctx) error {
	user, err := session.User(c)
	if err != nil {
		return unauthorized(c)
	}

	var form services.WorkerForm
	if err := c.BodyParser(&form); err != nil {
		return badRequest(c, "Invalid request body")
	}

	saved, err := h.portal.SaveWorkerForm(c.UserContext(), user, form)
	if err != nil {
		return internalError(c, "save_worker_profile", err)
	}
	return c.JSON(saved)
}
