package handlers

import (
	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/config"
	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/dto"
	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/models"
	"github.com/gofiber/fiber/v2"
)

// ConfigHandler serves the public runtime values the browser needs before
// sign-in (Google client id for One Tap, maps key for location fields).
type ConfigHandler struct {
	cfg *config.Config
}

func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{cfg: cfg}
}

func (h *ConfigHandler) GetConfig(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "public, max-age=300")
	return c.JSON(dto.ClientConfigResponse{
		GoogleClientID: h.cfg.GoogleClientID,
		MapsAPIKey:     h.cfg.MapsAPIKey,
		SiteURL:        h.cfg.SiteURL,
		GoogleEnabled:  h.cfg.GoogleEnabled(),
		Roles:          models.Roles,
	})
}
