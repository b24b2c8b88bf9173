package plans

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"ifs-actionplan/internal/actionplan"
	"ifs-actionplan/internal/export"
	"ifs-actionplan/internal/extract"
	"ifs-actionplan/internal/profile"
	"ifs-actionplan/internal/shared/metrics"
	"ifs-actionplan/internal/shared/storage/object"
	"ifs-actionplan/internal/shared/telemetry"
	"ifs-actionplan/internal/shared/util"
)

const defaultMaxUploadBytes = 10 << 20

// Service handles plan uploads, reads and exports.
type Service struct {
	Store          object.ObjectStore
	Repo           Repo
	Profile        profile.Profile
	Renderer       *export.Renderer
	MaxUploadBytes int64
}

// Detail is a plan with the recommendations generated so far.
type Detail struct {
	Plan            Plan
	Recommendations map[int]Recommendation
}

// Upload validates and parses an xlsx workbook, stores the original file and
// records the parsed plan.
func (s *Service) Upload(ctx context.Context, userID, fileName string, r io.Reader) (Plan, error) {
	fileName = strings.TrimSpace(fileName)
	if userID == "" || fileName == "" {
		return Plan{}, ErrInvalidInput
	}

	limit := s.MaxUploadBytes
	if limit <= 0 {
		limit = defaultMaxUploadBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return Plan{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		metrics.IncUpload(metrics.ResultInvalid)
		return Plan{}, ErrTooLarge
	}
	if !strings.EqualFold(filepath.Ext(fileName), ".xlsx") || !extract.IsSpreadsheet(data) {
		metrics.IncUpload(metrics.ResultInvalid)
		return Plan{}, ErrNotXLSX
	}

	rows, err := actionplan.Parse(bytes.NewReader(data), actionplan.LayoutFor(s.Profile))
	if err != nil {
		metrics.IncUpload(metrics.ResultInvalid)
		return Plan{}, err
	}

	storageKey, size, _, err := s.Store.Save(ctx, userID, fileName, bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, util.ErrInvalidFileName) {
			metrics.IncUpload(metrics.ResultInvalid)
			return Plan{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		metrics.IncUpload(metrics.ResultError)
		return Plan{}, fmt.Errorf("store upload: %w", err)
	}

	plan := Plan{
		ID:         uuid.NewString(),
		UserID:     userID,
		FileName:   fileName,
		StorageKey: storageKey,
		SizeBytes:  size,
		Profile:    s.Profile.Name,
		Rows:       rows,
		RowCount:   len(rows),
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, plan); err != nil {
		metrics.IncUpload(metrics.ResultError)
		s.discardUpload(ctx, storageKey)
		return Plan{}, fmt.Errorf("create plan: %w", err)
	}

	metrics.IncUpload(metrics.ResultSuccess)
	telemetry.Info("plan.uploaded", map[string]any{
		"plan_id": plan.ID,
		"user_id": userID,
		"rows":    len(rows),
		"bytes":   size,
	})
	return plan, nil
}

// discardUpload removes a stored workbook whose plan was never recorded. The
// key is logged when the delete fails so the object can be cleaned up by hand.
func (s *Service) discardUpload(ctx context.Context, storageKey string) {
	if err := s.Store.Delete(context.WithoutCancel(ctx), storageKey); err != nil {
		telemetry.Warn("plan.upload_orphaned", map[string]any{
			"storage_key": storageKey,
			"error":       err,
		})
	}
}

// List returns the caller's plans, newest first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Plan, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.List(ctx, userID, limit, offset)
}

// Get returns a plan and its stored recommendations.
func (s *Service) Get(ctx context.Context, userID, planID string) (Detail, error) {
	plan, err := s.Repo.Get(ctx, userID, planID)
	if err != nil {
		return Detail{}, err
	}
	recs, err := s.Repo.ListRecommendations(ctx, planID)
	if err != nil {
		return Detail{}, fmt.Errorf("list recommendations: %w", err)
	}
	byRow := make(map[int]Recommendation, len(recs))
	for _, rec := range recs {
		byRow[rec.RowIndex] = rec
	}
	return Detail{Plan: plan, Recommendations: byRow}, nil
}

// Export renders the rows that have a recommendation, in row order. When rows
// is non-empty only those rows are considered.
func (s *Service) Export(ctx context.Context, userID, planID string, format export.Format, rows []int) (export.Document, error) {
	detail, err := s.Get(ctx, userID, planID)
	if err != nil {
		return export.Document{}, err
	}

	selected := map[int]bool{}
	for _, idx := range rows {
		if _, ok := detail.Plan.Row(idx); !ok {
			return export.Document{}, fmt.Errorf("%w: %d", ErrRowNotFound, idx)
		}
		selected[idx] = true
	}

	entries := Entries(detail, selected)
	title := s.Profile.Export.Title
	if base := strings.TrimSuffix(detail.Plan.FileName, filepath.Ext(detail.Plan.FileName)); base != "" {
		title = title + " - " + base
	}

	doc, err := s.Renderer.Render(format, title, entries)
	if err != nil {
		return export.Document{}, err
	}
	metrics.IncExport(string(format))
	telemetry.Info("plan.exported", map[string]any{
		"plan_id": planID,
		"format":  string(format),
		"rows":    len(entries),
	})
	return doc, nil
}

// Entries pairs rows with their recommendations for export. A nil or empty
// selection keeps every recommended row.
func Entries(detail Detail, selected map[int]bool) []export.Entry {
	rows := append([]actionplan.Row(nil), detail.Plan.Rows...)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Index < rows[j].Index })

	var out []export.Entry
	for _, row := range rows {
		if len(selected) > 0 && !selected[row.Index] {
			continue
		}
		rec, ok := detail.Recommendations[row.Index]
		if !ok {
			continue
		}
		entry := export.Entry{
			RequirementNo:   row.RequirementNo,
			RequirementText: row.RequirementText,
			Explanation:     row.Explanation,
			Score:           row.Score,
			Recommendation:  rec.Text,
		}
		for _, sec := range rec.Sections {
			entry.Sections = append(entry.Sections, export.Section{Heading: sec.Heading, Body: sec.Body})
		}
		out = append(out, entry)
	}
	return out
}

// IsUploadRejection reports whether err describes a bad upload rather than a
// server failure.
func IsUploadRejection(err error) bool {
	return errors.Is(err, ErrNotXLSX) || errors.Is(err, ErrTooLarge) || actionplan.IsParseError(err)
}
