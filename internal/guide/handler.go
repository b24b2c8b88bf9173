package guide

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ifs-actionplan/internal/shared/server/respond"
)

// Handler serves guide lookups.
type Handler struct {
	Provider *Provider
}

func NewHandler(p *Provider) *Handler {
	return &Handler{Provider: p}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/guide", h.lookup)
}

func (h *Handler) lookup(c *gin.Context) {
	req := strings.TrimSpace(c.Query("requirement"))
	if req == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "requirement is required", nil)
		return
	}
	row, err := h.Provider.Lookup(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoMatch), errors.Is(err, ErrInvalidRequirement):
			respond.Error(c, http.StatusNotFound, "guide_match_not_found", err.Error(), nil)
		default:
			respond.Error(c, http.StatusServiceUnavailable, "guide_unavailable", "the guide could not be loaded", nil)
		}
		return
	}
	respond.OK(c, row)
}
