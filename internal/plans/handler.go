package plans

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ifs-actionplan/internal/actionplan"
	"ifs-actionplan/internal/export"
	"ifs-actionplan/internal/shared/server/middleware"
	"ifs-actionplan/internal/shared/server/respond"
)

// Handler wires plan routes to the service.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches plan routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/plans", h.upload)
	rg.GET("/plans", h.list)
	rg.GET("/plans/:id", h.get)
	rg.GET("/plans/:id/export", h.export)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	limit := h.Svc.MaxUploadBytes
	if limit <= 0 {
		limit = defaultMaxUploadBytes
	}
	// Leave room for the multipart envelope; the service enforces the file limit.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+(1<<20))

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	plan, err := h.Svc.Upload(c.Request.Context(), userID, fileHeader.Filename, file)
	if err != nil {
		var missing *actionplan.MissingColumnsError
		switch {
		case errors.As(err, &missing):
			respond.Error(c, http.StatusUnprocessableEntity, "invalid_plan", "required columns are missing", gin.H{
				"missing":   missing.Missing,
				"headerRow": missing.HeaderRow,
			})
		case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrTooLarge):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case IsUploadRejection(err):
			respond.Error(c, http.StatusUnprocessableEntity, "invalid_plan", rejectionMessage(err), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to upload plan", nil)
		}
		return
	}

	c.Set(middleware.PlanIDKey, plan.ID)
	respond.JSON(c, http.StatusCreated, toPlanResponse(Detail{Plan: plan}))
}

func rejectionMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotXLSX), errors.Is(err, actionplan.ErrInvalidWorkbook):
		return "file must be an .xlsx workbook"
	case errors.Is(err, actionplan.ErrEmptyPlan):
		return "the action plan contains no non-conformity"
	default:
		return err.Error()
	}
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	limit, offset := 20, 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	items, err := h.Svc.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list plans", nil)
		}
		return
	}

	resp := make([]PlanSummary, 0, len(items))
	for _, p := range items {
		resp = append(resp, toSummary(p))
	}
	respond.OK(c, resp)
}

func (h *Handler) get(c *gin.Context) {
	planID, ok := PlanIDParam(c)
	if !ok {
		return
	}
	detail, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), planID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "plan not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch plan", nil)
		return
	}
	respond.OK(c, toPlanResponse(detail))
}

func (h *Handler) export(c *gin.Context) {
	planID, ok := PlanIDParam(c)
	if !ok {
		return
	}
	format, err := export.ParseFormat(c.DefaultQuery("format", string(export.FormatCSV)))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "format must be one of csv, txt, docx, pdf", nil)
		return
	}
	rows, err := parseRows(c.Query("rows"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "rows must be a comma separated list of row indexes", nil)
		return
	}

	doc, err := h.Svc.Export(c.Request.Context(), middleware.UserIDFromContext(c), planID, format, rows)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "plan not found", nil)
		case errors.Is(err, ErrRowNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", err.Error(), nil)
		case errors.Is(err, export.ErrNothingToExport):
			respond.Error(c, http.StatusConflict, "nothing_to_export", "generate at least one recommendation before exporting", nil)
		case errors.Is(err, export.ErrUnknownFormat):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to export plan", nil)
		}
		return
	}
	respond.Attachment(c, doc.FileName, doc.ContentType, doc.Body)
}

// PlanIDParam reads and validates the :id path parameter. It writes a 404 and
// returns false when the id cannot name a plan.
func PlanIDParam(c *gin.Context) (string, bool) {
	raw := strings.TrimSpace(c.Param("id"))
	if _, err := uuid.Parse(raw); err != nil {
		respond.Error(c, http.StatusNotFound, "not_found", "plan not found", nil)
		return "", false
	}
	c.Set(middleware.PlanIDKey, raw)
	return raw, true
}

func parseRows(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil, errors.New("invalid row index")
		}
		out = append(out, n)
	}
	return out, nil
}
