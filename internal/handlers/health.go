package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"aletheia/internal/store"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	sessions *store.SessionStore
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(sessions *store.SessionStore) *HealthHandler {
	return &HealthHandler{sessions: sessions}
}

// Handle responds with server health status
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":          "healthy",
		"active_sessions": h.sessions.ActiveCount(),
		"timestamp":       time.Now().Format(time.RFC3339),
	})
}
