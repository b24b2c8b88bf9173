package recommendations

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ifs-actionplan/internal/guide"
	"ifs-actionplan/internal/llm"
	"ifs-actionplan/internal/plans"
	"ifs-actionplan/internal/shared/server/middleware"
	"ifs-actionplan/internal/shared/server/respond"
)

// Handler wires recommendation routes to the service.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches recommendation routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/plans/:id/rows/:row/recommendation", h.generate)
	rg.DELETE("/plans/:id/rows/:row/recommendation", h.forget)
	rg.POST("/plans/:id/recommendations", h.generateMany)
}

// IsLLMRoute reports whether a request may call the LLM.
func IsLLMRoute(c *gin.Context) bool {
	if c.Request.Method != http.MethodPost {
		return false
	}
	switch c.FullPath() {
	case "/api/v1/plans/:id/rows/:row/recommendation", "/api/v1/plans/:id/recommendations":
		return true
	}
	return false
}

func (h *Handler) generate(c *gin.Context) {
	planID, ok := plans.PlanIDParam(c)
	if !ok {
		return
	}
	row, ok := rowParam(c)
	if !ok {
		return
	}
	force, _ := strconv.ParseBool(c.DefaultQuery("force", "false"))

	res, err := h.Svc.Generate(c.Request.Context(), middleware.UserIDFromContext(c), planID, row, force)
	if err != nil {
		status, code, msg := classify(err)
		respond.Error(c, status, code, msg, nil)
		return
	}
	respond.OK(c, toGenerateResponse(res))
}

func (h *Handler) generateMany(c *gin.Context) {
	planID, ok := plans.PlanIDParam(c)
	if !ok {
		return
	}
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	for _, r := range req.Rows {
		if r < 0 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "rows must be non-negative", nil)
			return
		}
	}

	batch, err := h.Svc.GenerateMany(c.Request.Context(), middleware.UserIDFromContext(c), planID, req.Rows, req.Force)
	if err != nil {
		status, code, msg := classify(err)
		respond.Error(c, status, code, msg, nil)
		return
	}
	respond.OK(c, toBatchResponse(batch))
}

func (h *Handler) forget(c *gin.Context) {
	planID, ok := plans.PlanIDParam(c)
	if !ok {
		return
	}
	row, ok := rowParam(c)
	if !ok {
		return
	}
	if err := h.Svc.Forget(c.Request.Context(), middleware.UserIDFromContext(c), planID, row); err != nil {
		status, code, msg := classify(err)
		respond.Error(c, status, code, msg, nil)
		return
	}
	c.Status(http.StatusNoContent)
}

func rowParam(c *gin.Context) (int, bool) {
	row, err := strconv.Atoi(c.Param("row"))
	if err != nil || row < 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "row must be a non-negative integer", nil)
		return 0, false
	}
	c.Set(middleware.RowKey, row)
	return row, true
}

// classify maps a service error to an HTTP status, error code and message.
func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, plans.ErrNotFound):
		return http.StatusNotFound, "not_found", "plan not found"
	case errors.Is(err, ErrRowNotFound):
		return http.StatusNotFound, "not_found", "row not found"
	case errors.Is(err, ErrNoRecommendation):
		return http.StatusNotFound, "not_found", err.Error()
	case errors.Is(err, guide.ErrNoMatch), errors.Is(err, guide.ErrInvalidRequirement):
		return http.StatusNotFound, "guide_match_not_found", err.Error()
	case errors.Is(err, ErrGuideUnavailable):
		return http.StatusServiceUnavailable, "guide_unavailable", "the guide could not be loaded"
	case errors.Is(err, llm.ErrNotConfigured):
		return http.StatusServiceUnavailable, "llm_not_configured", "no language model is configured"
	case errors.Is(err, ErrGenerationFailed):
		return http.StatusBadGateway, "llm_error", "the language model request failed"
	default:
		return http.StatusInternalServerError, "internal_error", "failed to generate recommendation"
	}
}
