package guide

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Column headers of the IFS Food v8 checklist.
const (
	ColumnKey              = "NUM_REQ"
	ColumnGoodPractice     = "Good practice"
	ColumnElementsToCheck  = "Elements to check"
	ColumnExampleQuestions = "Example questions"
)

var (
	ErrMissingKeyColumn   = errors.New("guide csv has no NUM_REQ column")
	ErrNoMatch            = errors.New("no guide row matches requirement")
	ErrInvalidRequirement = errors.New("requirement number is empty")
	ErrGuideTooLarge      = errors.New("guide csv too large")
)

// Row is the guidance for one requirement.
type Row struct {
	Requirement      string            `json:"requirement"`
	GoodPractice     string            `json:"goodPractice"`
	ElementsToCheck  string            `json:"elementsToCheck"`
	ExampleQuestions string            `json:"exampleQuestions"`
	Extra            map[string]string `json:"extra,omitempty"`
}

// Table is an immutable, ordered set of guide rows.
type Table struct {
	rows  []Row
	exact map[string]int
}

// Parse reads a guide CSV.
func Parse(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrMissingKeyColumn
	}
	if err != nil {
		return nil, fmt.Errorf("read guide header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	keyAt := -1
	for i, h := range header {
		if h == ColumnKey {
			keyAt = i
			break
		}
	}
	if keyAt < 0 {
		return nil, ErrMissingKeyColumn
	}

	t := &Table{exact: make(map[string]int)}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read guide row %d: %w", len(t.rows)+2, err)
		}
		row := Row{}
		for i, value := range record {
			if i >= len(header) {
				break
			}
			value = strings.TrimSpace(value)
			switch header[i] {
			case ColumnKey:
				row.Requirement = value
			case ColumnGoodPractice:
				row.GoodPractice = value
			case ColumnElementsToCheck:
				row.ElementsToCheck = value
			case ColumnExampleQuestions:
				row.ExampleQuestions = value
			default:
				if header[i] == "" || value == "" {
					continue
				}
				if row.Extra == nil {
					row.Extra = make(map[string]string)
				}
				row.Extra[header[i]] = value
			}
		}
		if row.Requirement == "" {
			continue
		}
		if _, seen := t.exact[row.Requirement]; !seen {
			t.exact[row.Requirement] = len(t.rows)
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

// Len returns the number of keyed rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Lookup finds guidance for a requirement number. An exact key match wins;
// otherwise the first row, in file order, whose key contains the number.
func (t *Table) Lookup(requirementNo string) (Row, error) {
	needle := strings.TrimSpace(requirementNo)
	if needle == "" {
		return Row{}, ErrInvalidRequirement
	}
	if i, ok := t.exact[needle]; ok {
		return t.rows[i], nil
	}
	for _, row := range t.rows {
		if strings.Contains(row.Requirement, needle) {
			return row, nil
		}
	}
	return Row{}, fmt.Errorf("%w: %s", ErrNoMatch, needle)
}
