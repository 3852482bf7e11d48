package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"ticket_analyzer/core/domain"
	"ticket_analyzer/core/port/in"
	"ticket_analyzer/pkg/apperr"
	"ticket_analyzer/pkg/response"
)

const (
	defaultLimit  = 10
	maxLimit      = 1000
	defaultStatus = "closed"
)

// AnalyzeRequest is the body of POST /api/v1/analyze. Omitted fields take their defaults.
type AnalyzeRequest struct {
	Limit  *int    `json:"limit"`
	Status *string `json:"status"`
	UseAI  *bool   `json:"use_ai"`
	Title  string  `json:"title"`
}

// toDomain applies defaults and validates the request.
func (r AnalyzeRequest) toDomain() (domain.AnalysisRequest, error) {
	req := domain.AnalysisRequest{
		Filter: domain.TicketFilter{Limit: defaultLimit, Status: defaultStatus},
		Title:  strings.TrimSpace(r.Title),
	}
	if r.Limit != nil {
		if *r.Limit <= 0 || *r.Limit > maxLimit {
			return req, apperr.InvalidInput("limit", "must be between 1 and 1000")
		}
		req.Filter.Limit = *r.Limit
	}
	if r.Status != nil {
		req.Filter.Status = strings.TrimSpace(*r.Status)
	}
	if r.UseAI != nil {
		req.UseAI = *r.UseAI
	}
	return req, nil
}

// AnalyzeHandler exposes analysis runs over HTTP.
type AnalyzeHandler struct {
	svc in.AnalyzerService
}

func NewAnalyzeHandler(svc in.AnalyzerService) *AnalyzeHandler {
	return &AnalyzeHandler{svc: svc}
}

// Register registers the root liveness message and the versioned API routes.
// POST /analyze is kept as an unversioned alias for existing callers.
func (h *AnalyzeHandler) Register(app fiber.Router, analyzeGuards ...fiber.Handler) {
	analyze := append(append([]fiber.Handler{}, analyzeGuards...), h.Analyze)

	app.Get("/", h.Root)
	app.Post("/analyze", analyze...)

	api := app.Group("/api/v1")
	api.Post("/analyze", analyze...)
	api.Get("/stats", h.Stats)
}

// =============================================================================
// Handlers
// =============================================================================

func (h *AnalyzeHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "Ticket analyzer API is running"})
}

// Analyze runs one batch and returns the enriched tickets with the batch summary.
func (h *AnalyzeHandler) Analyze(c *fiber.Ctx) error {
	var body AnalyzeRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return apperr.BadRequest("invalid request body")
		}
	}

	req, err := body.toDomain()
	if err != nil {
		return err
	}

	result, err := h.svc.Analyze(c.UserContext(), req)
	if err != nil {
		return err
	}

	return response.OKWithMeta(c, result, &response.Meta{
		RunID:     result.RunID,
		Total:     result.Total,
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
	})
}

func (h *AnalyzeHandler) Stats(c *fiber.Ctx) error {
	return response.OK(c, h.svc.Stats())
}
