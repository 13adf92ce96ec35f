package media

import (
	"errors"
	"strconv"

	"catalog-reconciler/core/logger"
	"catalog-reconciler/core/mediasync"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var validate = validator.New()

// Handler handles HTTP requests for product media diffs and syncs.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers the media routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	media := app.Group("/products/:id/media")
	media.Get("/diff", h.HandleDiff)
	media.Post("/sync", h.HandleSync)
}

type sourceQuery struct {
	SourceType string `query:"source_type" validate:"required"`
	SourceID   *int64 `query:"source_id" validate:"omitempty,gt=0"`
}

// HandleDiff previews the pending gallery changes for one product without
// touching the external source.
// @Summary Preview Media Diff
// @Description Compute the gallery operations needed to converge a source with the local images.
// @Tags media
// @Produce json
// @Param id path int true "Product ID"
// @Param source_type query string true "Source type"
// @Param source_id query int false "Source instance ID"
// @Success 200 {object} mediasync.Diff "Pending changes"
// @Failure 400 {object} map[string]string "Validation error"
// @Router /products/{id}/media/diff [get]
func (h *Handler) HandleDiff(c *fiber.Ctx) error {
	productID, src, err := mediaParams(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	diff, err := h.service.Diff(c.Context(), productID, src.SourceType, src.SourceID)
	if err != nil {
		logger.WithRayID(h.logger, c).Error("Failed to compute media diff", zap.Error(err))
		return internalError(c, err)
	}
	return c.JSON(diff)
}

// HandleSync applies the pending gallery changes through the source gallery
// and records the outcome.
// @Summary Sync Product Media
// @Description Apply the computed media diff against the external gallery. Partial failures are reported per step.
// @Tags media
// @Produce json
// @Param id path int true "Product ID"
// @Param source_type query string true "Source type"
// @Param source_id query int false "Source instance ID"
// @Success 200 {object} SyncResult "Diff and apply report"
// @Failure 400 {object} map[string]string "Validation error or unknown source"
// @Router /products/{id}/media/sync [post]
func (h *Handler) HandleSync(c *fiber.Ctx) error {
	productID, src, err := mediaParams(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	l := logger.WithRayID(h.logger, c)
	result, err := h.service.Sync(c.Context(), productID, src.SourceType, src.SourceID)
	if err != nil {
		if errors.Is(err, mediasync.ErrUnknownGallery) {
			return badRequest(c, err.Error())
		}
		l.Error("Media sync failed", zap.Error(err), zap.Int64("product_id", productID))
		return internalError(c, err)
	}

	l.Info("Media sync applied",
		zap.Int64("product_id", productID),
		zap.String("source_type", src.SourceType),
		zap.Int("step_errors", len(result.Report.Errors)),
	)
	return c.JSON(result)
}

func mediaParams(c *fiber.Ctx) (int64, sourceQuery, error) {
	productID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || productID <= 0 {
		return 0, sourceQuery{}, errors.New("invalid product id")
	}

	var src sourceQuery
	if err := c.QueryParser(&src); err != nil {
		return 0, sourceQuery{}, errors.New("invalid query parameters")
	}
	if err := validate.Struct(src); err != nil {
		return 0, sourceQuery{}, err
	}
	return productID, src, nil
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func internalError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}
