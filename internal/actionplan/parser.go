package actionplan

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Logical column names reported in MissingColumnsError.
const (
	ColumnRequirementNo   = "requirementNo"
	ColumnRequirementText = "requirementText"
	ColumnExplanation     = "requirementExplanation"
	ColumnScore           = "requirementScore"
)

type columnIndex struct {
	no, text, explanation, score int
}

// Parse reads the first worksheet of an xlsx workbook into rows.
func Parse(r io.Reader, layout Layout) ([]Row, error) {
	if layout.HeaderRow <= 0 {
		return nil, fmt.Errorf("header row must be >= 1, got %d", layout.HeaderRow)
	}

	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: no worksheet", ErrInvalidWorkbook)
	}
	grid, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}

	headerAt, cols, err := locateHeader(grid, layout)
	if err != nil {
		return nil, err
	}

	var rows []Row
	for _, cells := range grid[headerAt+1:] {
		no := cell(cells, cols.no)
		if no == "" {
			continue
		}
		rows = append(rows, Row{
			Index:           len(rows),
			RequirementNo:   no,
			RequirementText: cell(cells, cols.text),
			Explanation:     cell(cells, cols.explanation),
			Score:           cell(cells, cols.score),
		})
	}
	if len(rows) == 0 {
		return nil, ErrEmptyPlan
	}
	return rows, nil
}

// locateHeader tries the configured row first, then scans the top of the sheet.
func locateHeader(grid [][]string, layout Layout) (int, columnIndex, error) {
	configured := layout.HeaderRow - 1
	var header []string
	if configured < len(grid) {
		header = grid[configured]
	}
	cols, missing := matchColumns(header, layout)
	if len(missing) == 0 {
		return configured, cols, nil
	}

	scan := layout.ScanRows
	if scan > len(grid) {
		scan = len(grid)
	}
	for i := 0; i < scan; i++ {
		if i == configured {
			continue
		}
		if found, rest := matchColumns(grid[i], layout); len(rest) == 0 {
			return i, found, nil
		}
	}
	return 0, columnIndex{}, &MissingColumnsError{HeaderRow: layout.HeaderRow, Missing: missing}
}

func matchColumns(header []string, layout Layout) (columnIndex, []string) {
	cols := columnIndex{
		no:          findColumn(header, layout.Columns.RequirementNo),
		text:        findColumn(header, layout.Columns.RequirementText),
		explanation: findColumn(header, layout.Columns.Explanation),
		score:       findColumn(header, layout.Columns.Score),
	}
	var missing []string
	if cols.no < 0 {
		missing = append(missing, ColumnRequirementNo)
	}
	if cols.text < 0 {
		missing = append(missing, ColumnRequirementText)
	}
	if cols.explanation < 0 {
		missing = append(missing, ColumnExplanation)
	}
	return cols, missing
}

func findColumn(header []string, aliases []string) int {
	for _, alias := range aliases {
		want := normalizeHeader(alias)
		if want == "" {
			continue
		}
		for i, h := range header {
			if normalizeHeader(h) == want {
				return i
			}
		}
	}
	return -1
}

var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "`", "'")

func normalizeHeader(s string) string {
	s = apostrophes.Replace(s)
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func cell(cells []string, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

// IsParseError reports whether err is a user-facing workbook problem rather
// than an internal failure.
func IsParseError(err error) bool {
	return errors.Is(err, ErrInvalidWorkbook) || errors.Is(err, ErrMissingColumns) || errors.Is(err, ErrEmptyPlan)
}
