package handlers

import (
	"io"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"aletheia/internal/ingest"
	"aletheia/internal/models"
	"aletheia/internal/services"
)

// IdeaHandler handles idea catalog and ingestion HTTP requests
type IdeaHandler struct {
	ideas    *services.IdeaService
	pipeline *ingest.Service
}

// NewIdeaHandler creates a new idea handler
func NewIdeaHandler(ideas *services.IdeaService, pipeline *ingest.Service) *IdeaHandler {
	return &IdeaHandler{ideas: ideas, pipeline: pipeline}
}

type manualIdeaRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Adhoc   bool     `json:"adhoc,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

// SubmitManual adds a hand-written idea to the catalog
// POST /api/ideas/manual
func (h *IdeaHandler) SubmitManual(c *fiber.Ctx) error {
	var req manualIdeaRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Invalid request body",
			"reason": "invalid_argument",
		})
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Title and content are required",
			"reason": "invalid_argument",
		})
	}

	resp := h.ideas.Add(models.Idea{
		Title:      req.Title,
		Content:    req.Content,
		SourceType: models.SourceManual,
		Tags:       req.Tags,
	})
	return c.Status(fiber.StatusCreated).JSON(resp)
}

type ingestURLRequest struct {
	URL string `json:"url"`
}

// IngestURL fetches and ingests a single article
// POST /api/ideas/ingest/url
func (h *IdeaHandler) IngestURL(c *fiber.Ctx) error {
	var req ingestURLRequest
	if err := c.BodyParser(&req); err != nil || req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "URL is required",
			"reason": "invalid_argument",
		})
	}

	resp, err := h.pipeline.IngestURL(c.Context(), callerID(c), req.URL)
	if err != nil {
		log.Printf("❌ [INGEST] URL ingestion failed: %v", err)
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

type ingestRSSRequest struct {
	URL        string `json:"url"`
	MaxEntries int    `json:"max_entries,omitempty"`
}

// IngestRSS fetches and ingests entries from a feed
// POST /api/ideas/ingest/rss
func (h *IdeaHandler) IngestRSS(c *fiber.Ctx) error {
	var req ingestRSSRequest
	if err := c.BodyParser(&req); err != nil || req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "URL is required",
			"reason": "invalid_argument",
		})
	}

	responses, err := h.pipeline.IngestRSS(c.Context(), callerID(c), req.URL, req.MaxEntries)
	if err != nil {
		log.Printf("❌ [INGEST] Feed ingestion failed: %v", err)
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"ideas": responses,
		"count": len(responses),
	})
}

// IngestPDF extracts and ingests an uploaded PDF
// POST /api/ideas/ingest/pdf (multipart, field "file")
func (h *IdeaHandler) IngestPDF(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "PDF file upload is required (field 'file')",
			"reason": "invalid_argument",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Unable to read uploaded file",
			"reason": "invalid_argument",
		})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Unable to read uploaded file",
			"reason": "invalid_argument",
		})
	}

	resp, err := h.pipeline.IngestPDF(c.Context(), fileHeader.Filename, data)
	if err != nil {
		log.Printf("❌ [INGEST] PDF ingestion failed: %v", err)
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// GetIdea returns one idea with its score
// GET /api/ideas/:id
func (h *IdeaHandler) GetIdea(c *fiber.Ctx) error {
	id, err := ideaID(c)
	if err != nil {
		return respondError(c, err)
	}
	idea, score, err := h.ideas.Get(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"idea": idea, "score": score})
}

// Approve marks an idea approved
// POST /api/ideas/:id/approve
func (h *IdeaHandler) Approve(c *fiber.Ctx) error {
	return h.setStatus(c, h.ideas.Approve)
}

// Reject marks an idea rejected
// POST /api/ideas/:id/reject
func (h *IdeaHandler) Reject(c *fiber.Ctx) error {
	return h.setStatus(c, h.ideas.Reject)
}

func (h *IdeaHandler) setStatus(c *fiber.Ctx, update func(uuid.UUID) (models.Idea, error)) error {
	id, err := ideaID(c)
	if err != nil {
		return respondError(c, err)
	}
	idea, err := update(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(idea)
}

func ideaID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, models.ErrInvalidArgument
	}
	return id, nil
}
