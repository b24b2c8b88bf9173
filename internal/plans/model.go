package plans

import (
	"time"

	"ifs-actionplan/internal/actionplan"
)

// Plan is an uploaded action plan and its parsed rows.
type Plan struct {
	ID         string
	UserID     string
	FileName   string
	StorageKey string
	SizeBytes  int64
	Profile    string
	Rows       []actionplan.Row
	RowCount   int
	CreatedAt  time.Time
}

// Row returns the row with the given index.
func (p Plan) Row(index int) (actionplan.Row, bool) {
	for _, r := range p.Rows {
		if r.Index == index {
			return r, true
		}
	}
	return actionplan.Row{}, false
}

// Section is a titled part of a recommendation.
type Section struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// Recommendation is the stored LLM answer for one plan row.
type Recommendation struct {
	PlanID           string
	RowIndex         int
	RequirementNo    string
	GuideRequirement string
	Text             string
	Sections         []Section
	Provider         string
	Model            string
	CreatedAt        time.Time
}
