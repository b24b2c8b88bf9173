package recommendations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ifs-actionplan/internal/actionplan"
	"ifs-actionplan/internal/guide"
	"ifs-actionplan/internal/llm"
	"ifs-actionplan/internal/plans"
	"ifs-actionplan/internal/prompts"
	"ifs-actionplan/internal/shared/metrics"
	"ifs-actionplan/internal/shared/telemetry"
)

// GuideLookup finds guidance for a requirement number.
type GuideLookup interface {
	Lookup(ctx context.Context, requirementNo string) (guide.Row, error)
}

// Service generates and remembers recommendations for plan rows.
type Service struct {
	Plans    plans.Repo
	Guide    GuideLookup
	Prompts  *prompts.Builder
	LLM      llm.Client
	Sections []string
	Now      func() time.Time
}

// Result is one generated or remembered recommendation.
type Result struct {
	Recommendation plans.Recommendation
	Cached         bool
}

// RowFailure records why a row of a batch produced nothing.
type RowFailure struct {
	Row int
	Err error
}

// Batch is the outcome of GenerateMany.
type Batch struct {
	Results  []Result
	Failures []RowFailure
}

// Generate returns the recommendation for one row. A stored recommendation is
// returned as-is unless force is set. Failures are not retried.
func (s *Service) Generate(ctx context.Context, userID, planID string, rowIndex int, force bool) (Result, error) {
	plan, err := s.Plans.Get(ctx, userID, planID)
	if err != nil {
		return Result{}, err
	}
	return s.generateRow(ctx, plan, rowIndex, force)
}

// GenerateMany runs Generate for each selected row, or every row when rows is
// empty. Row failures are collected and do not stop the batch.
func (s *Service) GenerateMany(ctx context.Context, userID, planID string, rows []int, force bool) (Batch, error) {
	plan, err := s.Plans.Get(ctx, userID, planID)
	if err != nil {
		return Batch{}, err
	}
	if len(rows) == 0 {
		for _, r := range plan.Rows {
			rows = append(rows, r.Index)
		}
	}

	var batch Batch
	for _, idx := range rows {
		if err := ctx.Err(); err != nil {
			return batch, err
		}
		res, err := s.generateRow(ctx, plan, idx, force)
		if err != nil {
			batch.Failures = append(batch.Failures, RowFailure{Row: idx, Err: err})
			continue
		}
		batch.Results = append(batch.Results, res)
	}
	telemetry.Info("recommendation.batch", map[string]any{
		"plan_id":   planID,
		"requested": len(rows),
		"succeeded": len(batch.Results),
		"failed":    len(batch.Failures),
	})
	return batch, nil
}

// Forget deletes the stored recommendation of a row.
func (s *Service) Forget(ctx context.Context, userID, planID string, rowIndex int) error {
	plan, err := s.Plans.Get(ctx, userID, planID)
	if err != nil {
		return err
	}
	if _, ok := plan.Row(rowIndex); !ok {
		return fmt.Errorf("%w: %d", ErrRowNotFound, rowIndex)
	}
	if err := s.Plans.DeleteRecommendation(ctx, planID, rowIndex); err != nil {
		if errors.Is(err, plans.ErrNotFound) {
			return ErrNoRecommendation
		}
		return err
	}
	return nil
}

func (s *Service) generateRow(ctx context.Context, plan plans.Plan, rowIndex int, force bool) (Result, error) {
	row, ok := plan.Row(rowIndex)
	if !ok {
		return Result{}, fmt.Errorf("%w: %d", ErrRowNotFound, rowIndex)
	}

	if !force {
		rec, err := s.Plans.GetRecommendation(ctx, plan.ID, rowIndex)
		if err == nil {
			metrics.IncRecommendation(metrics.ResultCached)
			return Result{Recommendation: rec, Cached: true}, nil
		}
		if !errors.Is(err, plans.ErrNotFound) {
			return Result{}, fmt.Errorf("load recommendation: %w", err)
		}
	}

	g, err := s.Guide.Lookup(ctx, row.RequirementNo)
	if err != nil {
		if errors.Is(err, guide.ErrNoMatch) || errors.Is(err, guide.ErrInvalidRequirement) {
			metrics.IncRecommendation(metrics.ResultGuideMiss)
			return Result{}, err
		}
		metrics.IncRecommendation(metrics.ResultError)
		return Result{}, fmt.Errorf("%w: %w", ErrGuideUnavailable, err)
	}

	rec, err := s.complete(ctx, plan.ID, row, g)
	if err != nil {
		return Result{}, err
	}
	if err := s.Plans.SaveRecommendation(ctx, rec); err != nil {
		metrics.IncRecommendation(metrics.ResultError)
		return Result{}, fmt.Errorf("save recommendation: %w", err)
	}

	metrics.IncRecommendation(metrics.ResultSuccess)
	telemetry.Info("recommendation.generated", map[string]any{
		"plan_id":     plan.ID,
		"row":         rowIndex,
		"requirement": row.RequirementNo,
		"guide_match": g.Requirement,
		"provider":    rec.Provider,
		"model":       rec.Model,
		"sections":    len(rec.Sections),
	})
	return Result{Recommendation: rec}, nil
}

func (s *Service) complete(ctx context.Context, planID string, row actionplan.Row, g guide.Row) (plans.Recommendation, error) {
	req, err := s.Prompts.Build(row, g)
	if err != nil {
		metrics.IncRecommendation(metrics.ResultError)
		return plans.Recommendation{}, err
	}

	start := time.Now()
	out, err := s.LLM.Complete(ctx, req)
	metrics.ObserveRecommendation(time.Since(start))
	if err != nil {
		metrics.IncRecommendation(metrics.ResultLLMError)
		telemetry.Error("recommendation.failed", map[string]any{
			"plan_id":     planID,
			"row":         row.Index,
			"requirement": row.RequirementNo,
			"error":       err,
		})
		return plans.Recommendation{}, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	return plans.Recommendation{
		PlanID:           planID,
		RowIndex:         row.Index,
		RequirementNo:    row.RequirementNo,
		GuideRequirement: g.Requirement,
		Text:             out.Text,
		Sections:         ExtractSections(out.Text, s.Sections),
		Provider:         out.Provider,
		Model:            out.Model,
		CreatedAt:        s.now(),
	}, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
