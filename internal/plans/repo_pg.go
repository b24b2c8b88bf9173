package plans

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"ifs-actionplan/internal/actionplan"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a plan with its rows as JSONB.
func (r *PGRepo) Create(ctx context.Context, plan Plan) error {
	const query = `
INSERT INTO action_plans (
    id,
    user_id,
    file_name,
    storage_key,
    size_bytes,
    profile,
    rows,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	rows, err := json.Marshal(plan.Rows)
	if err != nil {
		return fmt.Errorf("encode rows: %w", err)
	}
	_, err = r.DB.ExecContext(ctx, query,
		plan.ID,
		plan.UserID,
		plan.FileName,
		plan.StorageKey,
		plan.SizeBytes,
		plan.Profile,
		rows,
		plan.CreatedAt,
	)
	return err
}

// Get returns a plan owned by userID.
func (r *PGRepo) Get(ctx context.Context, userID, planID string) (Plan, error) {
	const query = `
SELECT id, user_id, file_name, storage_key, size_bytes, profile, rows, created_at
FROM action_plans
WHERE user_id = $1 AND id = $2
LIMIT 1`

	var plan Plan
	var rawRows []byte
	err := r.DB.QueryRowContext(ctx, query, userID, planID).Scan(
		&plan.ID,
		&plan.UserID,
		&plan.FileName,
		&plan.StorageKey,
		&plan.SizeBytes,
		&plan.Profile,
		&rawRows,
		&plan.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Plan{}, ErrNotFound
		}
		return Plan{}, err
	}
	if len(rawRows) > 0 {
		var rows []actionplan.Row
		if err := json.Unmarshal(rawRows, &rows); err != nil {
			return Plan{}, fmt.Errorf("decode rows for plan %s: %w", planID, err)
		}
		plan.Rows = rows
	}
	plan.RowCount = len(plan.Rows)
	return plan, nil
}

// List returns plan summaries newest-first, without rows.
func (r *PGRepo) List(ctx context.Context, userID string, limit, offset int) ([]Plan, error) {
	limit, offset = clampPage(limit, offset)
	const query = `
SELECT id, user_id, file_name, storage_key, size_bytes, profile, jsonb_array_length(rows), created_at
FROM action_plans
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Plan{}
	for rows.Next() {
		var plan Plan
		if err := rows.Scan(
			&plan.ID,
			&plan.UserID,
			&plan.FileName,
			&plan.StorageKey,
			&plan.SizeBytes,
			&plan.Profile,
			&plan.RowCount,
			&plan.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, plan)
	}
	return out, rows.Err()
}

// SaveRecommendation upserts the recommendation for a row.
func (r *PGRepo) SaveRecommendation(ctx context.Context, rec Recommendation) error {
	const query = `
INSERT INTO recommendations (
    plan_id,
    row_index,
    requirement,
    guide_requirement,
    text,
    sections,
    provider,
    model,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (plan_id, row_index) DO UPDATE SET
    requirement = EXCLUDED.requirement,
    guide_requirement = EXCLUDED.guide_requirement,
    text = EXCLUDED.text,
    sections = EXCLUDED.sections,
    provider = EXCLUDED.provider,
    model = EXCLUDED.model,
    created_at = EXCLUDED.created_at`

	sections, err := json.Marshal(nonNilSections(rec.Sections))
	if err != nil {
		return fmt.Errorf("encode sections: %w", err)
	}
	_, err = r.DB.ExecContext(ctx, query,
		rec.PlanID,
		rec.RowIndex,
		rec.RequirementNo,
		rec.GuideRequirement,
		rec.Text,
		sections,
		rec.Provider,
		rec.Model,
		rec.CreatedAt,
	)
	return err
}

// GetRecommendation returns the stored recommendation for a row.
func (r *PGRepo) GetRecommendation(ctx context.Context, planID string, rowIndex int) (Recommendation, error) {
	const query = `
SELECT plan_id, row_index, requirement, guide_requirement, text, sections, provider, model, created_at
FROM recommendations
WHERE plan_id = $1 AND row_index = $2`

	rec, err := scanRecommendation(r.DB.QueryRowContext(ctx, query, planID, rowIndex))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Recommendation{}, ErrNotFound
		}
		return Recommendation{}, err
	}
	return rec, nil
}

// ListRecommendations returns all recommendations of a plan in row order.
func (r *PGRepo) ListRecommendations(ctx context.Context, planID string) ([]Recommendation, error) {
	const query = `
SELECT plan_id, row_index, requirement, guide_requirement, text, sections, provider, model, created_at
FROM recommendations
WHERE plan_id = $1
ORDER BY row_index ASC`

	rows, err := r.DB.QueryContext(ctx, query, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Recommendation
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteRecommendation removes a stored recommendation.
func (r *PGRepo) DeleteRecommendation(ctx context.Context, planID string, rowIndex int) error {
	const query = `DELETE FROM recommendations WHERE plan_id = $1 AND row_index = $2`
	res, err := r.DB.ExecContext(ctx, query, planID, rowIndex)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecommendation(s scanner) (Recommendation, error) {
	var rec Recommendation
	var rawSections []byte
	if err := s.Scan(
		&rec.PlanID,
		&rec.RowIndex,
		&rec.RequirementNo,
		&rec.GuideRequirement,
		&rec.Text,
		&rawSections,
		&rec.Provider,
		&rec.Model,
		&rec.CreatedAt,
	); err != nil {
		return Recommendation{}, err
	}
	if len(rawSections) > 0 {
		if err := json.Unmarshal(rawSections, &rec.Sections); err != nil {
			return Recommendation{}, fmt.Errorf("decode sections: %w", err)
		}
	}
	return rec, nil
}

func nonNilSections(s []Section) []Section {
	if s == nil {
		return []Section{}
	}
	return s
}

var _ Repo = (*PGRepo)(nil)
