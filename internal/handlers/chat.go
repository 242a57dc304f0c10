package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"aletheia/internal/models"
	"aletheia/internal/services"
)

// ChatHandler handles chat session HTTP requests
type ChatHandler struct {
	chat     *services.ChatService
	feedback *services.FeedbackProcessor
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat *services.ChatService, feedback *services.FeedbackProcessor) *ChatHandler {
	return &ChatHandler{chat: chat, feedback: feedback}
}

// SendMessage processes one chat turn
// POST /api/chat
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	var req models.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Invalid request body",
			"reason": "invalid_argument",
		})
	}
	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Message is required",
			"reason": "invalid_argument",
		})
	}

	resp, err := h.chat.SendMessage(c.Context(), callerID(c), req)
	if err != nil {
		log.Printf("❌ [CHAT] Send message failed: %v", err)
		if m := services.GetMetrics(); m != nil {
			m.RecordChatError(models.ReasonCode(err))
		}
		return respondError(c, err)
	}

	return c.JSON(resp)
}

// CreateSession starts a new empty session
// POST /api/chat/sessions
func (h *ChatHandler) CreateSession(c *fiber.Ctx) error {
	session := h.chat.CreateSession(callerID(c))
	return c.Status(fiber.StatusCreated).JSON(session)
}

// ListSessions returns the caller's sessions
// GET /api/chat/sessions?active_only=true
func (h *ChatHandler) ListSessions(c *fiber.Ctx) error {
	activeOnly := c.QueryBool("active_only", false)
	return c.JSON(h.chat.ListSessions(callerID(c), activeOnly))
}

// GetSession returns one session snapshot
// GET /api/chat/sessions/:id
func (h *ChatHandler) GetSession(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return respondError(c, err)
	}
	session, err := h.chat.GetSession(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(session)
}

// GetHistory returns a session with its full message log
// GET /api/chat/sessions/:id/history
func (h *ChatHandler) GetHistory(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return respondError(c, err)
	}
	history, err := h.chat.GetSessionHistory(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(history)
}

// CloseSession marks a session read-only
// DELETE /api/chat/sessions/:id
func (h *ChatHandler) CloseSession(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.chat.CloseSession(id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// SubmitFeedback records a user's verdict on a surfaced idea
// POST /api/chat/feedback
func (h *ChatHandler) SubmitFeedback(c *fiber.Ctx) error {
	var req models.FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Invalid request body",
			"reason": "invalid_argument",
		})
	}

	resp, err := h.feedback.Apply(req)
	if err != nil {
		log.Printf("⚠️ [CHAT] Feedback rejected: %v", err)
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// sessionID parses the :id route parameter
func sessionID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, models.ErrInvalidArgument
	}
	return id, nil
}

// callerID identifies the caller; anonymous callers share the empty ID
func callerID(c *fiber.Ctx) string {
	return c.Get("X-User-ID")
}

// respondError maps taxonomy errors to HTTP statuses
func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrSessionNotFound), errors.Is(err, models.ErrIdeaNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, models.ErrSessionClosed):
		status = fiber.StatusConflict
	case errors.Is(err, models.ErrInvalidFeedbackType), errors.Is(err, models.ErrInvalidArgument):
		status = fiber.StatusBadRequest
	}

	message := err.Error()
	if status == fiber.StatusInternalServerError {
		message = "Internal server error"
	}
	return c.Status(status).JSON(fiber.Map{
		"error":  message,
		"reason": models.ReasonCode(err),
	})
}
