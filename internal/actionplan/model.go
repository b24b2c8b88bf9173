package actionplan

import "ifs-actionplan/internal/profile"

// Row is one non-conformity from an audit action plan.
type Row struct {
	Index           int    `json:"index"`
	RequirementNo   string `json:"requirementNo"`
	RequirementText string `json:"requirementText"`
	Explanation     string `json:"explanation"`
	Score           string `json:"score,omitempty"`
}

// Layout tells the parser where the header row is and what the columns are called.
type Layout struct {
	// HeaderRow is 1-based, as shown in a spreadsheet UI.
	HeaderRow int
	ScanRows  int
	Columns   profile.Columns
}

// LayoutFor derives the parser layout from a profile.
func LayoutFor(p profile.Profile) Layout {
	return Layout{
		HeaderRow: p.HeaderRow,
		ScanRows:  p.HeaderScanRows,
		Columns:   p.Columns,
	}
}
