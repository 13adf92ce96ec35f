package scan

import (
	"context"
	"errors"
	"strconv"

	"catalog-reconciler/core/logger"
	"catalog-reconciler/core/scan"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var validate = validator.New()

// actorHeader carries the identity recorded on sessions and resolutions.
const actorHeader = "X-Actor"

// Handler handles HTTP requests for scan sessions and resolutions.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers the scan routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	sessions := app.Group("/scans")
	sessions.Post("/", h.HandleCreateSession)
	sessions.Get("/", h.HandleListSessions)
	sessions.Get("/:id", h.HandleGetSession)
	sessions.Get("/:id/results", h.HandleListResults)
	sessions.Get("/:id/summary", h.HandleSessionSummary)
	sessions.Post("/:id/cancel", h.HandleCancelSession)

	results := app.Group("/scan-results")
	results.Post("/bulk-link", h.handleBulk(h.service.BulkLink))
	results.Post("/bulk-create", h.handleBulk(h.service.BulkCreate))
	results.Post("/bulk-ignore", h.handleBulk(h.service.BulkIgnore))
}

type createSessionRequest struct {
	ScanType   string `json:"scan_type" validate:"required,oneof=links missing_in_local missing_in_source"`
	SourceType string `json:"source_type" validate:"required"`
	SourceID   *int64 `json:"source_id" validate:"omitempty,gt=0"`
}

// HandleCreateSession creates a scan session and starts it in the background.
// @Summary Create Scan Session
// @Description Create a scan session against an external source and start it.
// @Tags scans
// @Accept json
// @Produce json
// @Param request body createSessionRequest true "Session parameters"
// @Success 201 {object} scan.Session "Created session"
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 409 {object} map[string]string "Scan already in progress"
// @Router /scans [post]
func (h *Handler) HandleCreateSession(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	var req createSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	session, err := h.service.CreateSession(c.Context(), scan.ScanType(req.ScanType), req.SourceType, req.SourceID, actor(c))
	if err != nil {
		switch {
		case errors.Is(err, scan.ErrScanInProgress):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, scan.ErrUnknownSource):
			return badRequest(c, err.Error())
		default:
			l.Error("Failed to create scan session", zap.Error(err))
			return internalError(c, err)
		}
	}

	h.service.StartAsync(session.ID)
	l.Info("Scan session created",
		zap.Int64("session_id", session.ID),
		zap.String("scan_type", req.ScanType),
		zap.String("source_type", req.SourceType),
	)
	return c.Status(fiber.StatusCreated).JSON(session)
}

// HandleListSessions lists scan sessions.
// @Summary List Scan Sessions
// @Tags scans
// @Produce json
// @Param status query string false "Filter by status"
// @Param source_type query string false "Filter by source type"
// @Param page query int false "Page (1-based)"
// @Param page_size query int false "Page size"
// @Success 200 {object} map[string]any "Sessions"
// @Router /scans [get]
func (h *Handler) HandleListSessions(c *fiber.Ctx) error {
	filter := SessionFilter{
		Status:     c.Query("status"),
		SourceType: c.Query("source_type"),
		Page:       c.QueryInt("page", 1),
		PageSize:   c.QueryInt("page_size", 25),
	}

	sessions, total, err := h.service.ListSessions(c.Context(), filter)
	if err != nil {
		logger.WithRayID(h.logger, c).Error("Failed to list scan sessions", zap.Error(err))
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"sessions": sessions,
		"total":    total,
		"page":     filter.Page,
	})
}

// HandleGetSession returns one scan session.
// @Summary Get Scan Session
// @Tags scans
// @Produce json
// @Param id path int true "Session ID"
// @Success 200 {object} scan.Session "Session"
// @Failure 404 {object} map[string]string "Not found"
// @Router /scans/{id} [get]
func (h *Handler) HandleGetSession(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return badRequest(c, "invalid session id")
	}

	session, err := h.service.GetSession(c.Context(), id)
	if err != nil {
		return h.sessionError(c, err)
	}
	return c.JSON(session)
}

// HandleListResults lists the results of one session.
// @Summary List Scan Results
// @Tags scans
// @Produce json
// @Param id path int true "Session ID"
// @Param match_status query string false "Filter by match status"
// @Param resolution_status query string false "Filter by resolution status"
// @Param page query int false "Page (1-based)"
// @Param page_size query int false "Page size"
// @Success 200 {object} map[string]any "Results"
// @Failure 404 {object} map[string]string "Not found"
// @Router /scans/{id}/results [get]
func (h *Handler) HandleListResults(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return badRequest(c, "invalid session id")
	}

	filter := ResultFilter{
		MatchStatus:      c.Query("match_status"),
		ResolutionStatus: c.Query("resolution_status"),
		Page:             c.QueryInt("page", 1),
		PageSize:         c.QueryInt("page_size", 50),
	}

	results, total, err := h.service.ListResults(c.Context(), id, filter)
	if err != nil {
		return h.sessionError(c, err)
	}

	return c.JSON(fiber.Map{
		"results": results,
		"total":   total,
		"page":    filter.Page,
	})
}

// HandleSessionSummary returns one session with live result breakdowns.
// @Summary Scan Session Summary
// @Tags scans
// @Produce json
// @Param id path int true "Session ID"
// @Success 200 {object} SessionSummary "Session with result breakdowns"
// @Failure 404 {object} map[string]string "Not found"
// @Router /scans/{id}/summary [get]
func (h *Handler) HandleSessionSummary(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return badRequest(c, "invalid session id")
	}

	summary, err := h.service.Summary(c.Context(), id)
	if err != nil {
		return h.sessionError(c, err)
	}
	return c.JSON(summary)
}

// HandleCancelSession cancels a pending or running session.
// @Summary Cancel Scan Session
// @Tags scans
// @Produce json
// @Param id path int true "Session ID"
// @Success 200 {object} scan.Session "Cancelled session"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 409 {object} map[string]string "Session already finished"
// @Router /scans/{id}/cancel [post]
func (h *Handler) HandleCancelSession(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return badRequest(c, "invalid session id")
	}

	session, err := h.service.Cancel(c.Context(), id)
	if err != nil {
		if errors.Is(err, scan.ErrInvalidTransition) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		return h.sessionError(c, err)
	}

	logger.WithRayID(h.logger, c).Info("Scan session cancelled", zap.Int64("session_id", id))
	return c.JSON(session)
}

type bulkRequest struct {
	ResultIDs []int64 `json:"result_ids" validate:"required,min=1,dive,gt=0"`
}

// handleBulk wraps one bulk resolution operation. The response is always a
// per-item outcome, a failed item is data rather than an HTTP error.
func (h *Handler) handleBulk(op func(ctx context.Context, ids []int64, actor string) (scan.BulkOutcome, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req bulkRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return badRequest(c, err.Error())
		}

		outcome, err := op(c.Context(), req.ResultIDs, actor(c))
		if err != nil {
			logger.WithRayID(h.logger, c).Error("Bulk resolution failed", zap.Error(err))
			return internalError(c, err)
		}
		return c.JSON(outcome)
	}
}

func (h *Handler) sessionError(c *fiber.Ctx, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "scan session not found"})
	}
	logger.WithRayID(h.logger, c).Error("Scan session request failed", zap.Error(err))
	return internalError(c, err)
}

func sessionID(c *fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("id"), 10, 64)
}

func actor(c *fiber.Ctx) string {
	if a := c.Get(actorHeader); a != "" {
		return a
	}
	return "api"
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func internalError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}
