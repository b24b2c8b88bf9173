package guide

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sampleCSV = "\ufeffNUM_REQ , Chapter,Good practice,Elements to check,Example questions\n" +
	"1.1.1,Gouvernance,Définir une politique,Politique signée,Qui a validé la politique ?\n" +
	"4.1.2 KO,Spécifications,Revue annuelle,Dates de revue,Quand a eu lieu la dernière revue ?\n" +
	"4.1.2,Spécifications,Cahier des charges à jour,Versions,Qui approuve les versions ?\n" +
	"4.1.20,Spécifications,Autre,Autre,Autre ?\n" +
	",Ignored,,,\n"

func TestParseTable(t *testing.T) {
	table, err := Parse(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if table.Len() != 4 {
		t.Fatalf("expected 4 keyed rows, got %d", table.Len())
	}

	row, err := table.Lookup("1.1.1")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	want := Row{
		Requirement:      "1.1.1",
		GoodPractice:     "Définir une politique",
		ElementsToCheck:  "Politique signée",
		ExampleQuestions: "Qui a validé la politique ?",
		Extra:            map[string]string{"Chapter": "Gouvernance"},
	}
	if diff := cmp.Diff(want, row); diff != "" {
		t.Fatalf("row mismatch (-want +got):\n%s", diff)
	}
}

func TestLookupPrefersExactMatch(t *testing.T) {
	table, err := Parse(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	row, err := table.Lookup(" 4.1.2 ")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if row.GoodPractice != "Cahier des charges à jour" {
		t.Fatalf("expected exact row, got %+v", row)
	}
}

func TestLookupFallsBackToFirstSubstringMatch(t *testing.T) {
	table, err := Parse(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	row, err := table.Lookup("4.1")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if row.Requirement != "4.1.2 KO" {
		t.Fatalf("expected first containing row in file order, got %q", row.Requirement)
	}
}

func TestLookupErrors(t *testing.T) {
	table, err := Parse(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if _, err := table.Lookup("9.9.9"); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}
	if _, err := table.Lookup("   "); !errors.Is(err, ErrInvalidRequirement) {
		t.Fatalf("expected ErrInvalidRequirement, got %v", err)
	}
}

func TestParseWithoutKeyColumn(t *testing.T) {
	if _, err := Parse(strings.NewReader("REQ,Good practice\n1.1,x\n")); !errors.Is(err, ErrMissingKeyColumn) {
		t.Fatalf("expected ErrMissingKeyColumn, got %v", err)
	}
	if _, err := Parse(strings.NewReader("")); !errors.Is(err, ErrMissingKeyColumn) {
		t.Fatalf("expected ErrMissingKeyColumn for empty input, got %v", err)
	}
}
