package plans

import (
	"time"

	"ifs-actionplan/internal/actionplan"
)

// PlanSummary is the list view of a plan.
type PlanSummary struct {
	PlanID     string    `json:"planId"`
	FileName   string    `json:"fileName"`
	SizeBytes  int64     `json:"sizeBytes"`
	Profile    string    `json:"profile"`
	RowCount   int       `json:"rowCount"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// PlanResponse is a plan with its rows.
type PlanResponse struct {
	PlanSummary
	Rows []RowResponse `json:"rows"`
}

type RowResponse struct {
	actionplan.Row
	Recommendation *RecommendationResponse `json:"recommendation,omitempty"`
}

// RecommendationResponse is the outward-facing view of a stored recommendation.
type RecommendationResponse struct {
	RowIndex         int       `json:"rowIndex"`
	RequirementNo    string    `json:"requirementNo"`
	GuideRequirement string    `json:"guideRequirement,omitempty"`
	Text             string    `json:"text"`
	Sections         []Section `json:"sections"`
	Provider         string    `json:"provider,omitempty"`
	Model            string    `json:"model,omitempty"`
	GeneratedAt      time.Time `json:"generatedAt"`
}

func toSummary(p Plan) PlanSummary {
	count := p.RowCount
	if count == 0 {
		count = len(p.Rows)
	}
	return PlanSummary{
		PlanID:     p.ID,
		FileName:   p.FileName,
		SizeBytes:  p.SizeBytes,
		Profile:    p.Profile,
		RowCount:   count,
		UploadedAt: p.CreatedAt,
	}
}

// ToRecommendationResponse converts a stored recommendation for output.
func ToRecommendationResponse(rec Recommendation) RecommendationResponse {
	sections := rec.Sections
	if sections == nil {
		sections = []Section{}
	}
	return RecommendationResponse{
		RowIndex:         rec.RowIndex,
		RequirementNo:    rec.RequirementNo,
		GuideRequirement: rec.GuideRequirement,
		Text:             rec.Text,
		Sections:         sections,
		Provider:         rec.Provider,
		Model:            rec.Model,
		GeneratedAt:      rec.CreatedAt,
	}
}

func toPlanResponse(d Detail) PlanResponse {
	rows := make([]RowResponse, 0, len(d.Plan.Rows))
	for _, row := range d.Plan.Rows {
		out := RowResponse{Row: row}
		if rec, ok := d.Recommendations[row.Index]; ok {
			view := ToRecommendationResponse(rec)
			out.Recommendation = &view
		}
		rows = append(rows, out)
	}
	return PlanResponse{PlanSummary: toSummary(d.Plan), Rows: rows}
}
