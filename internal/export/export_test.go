package export

import (
	"bytes"
	"encoding/binary"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/google/go-cmp/cmp"

	"ifs-actionplan/internal/extract"
	"ifs-actionplan/internal/profile"
)

func sampleEntries() []Entry {
	return []Entry{
		{
			RequirementNo:   "4.1.2",
			RequirementText: "Le cahier des charges doit être à jour",
			Explanation:     "Pas de revue depuis 2022, l’équipe n’a pas de procédure",
			Score:           "C",
			Recommendation:  "### Correction immédiate\nMettre à jour le cahier des charges.\n\n**Type de preuve** :\nVersion signée \"v3\", datée",
			Sections: []Section{
				{Heading: "Correction immédiate", Body: "Mettre à jour le cahier des charges."},
				{Heading: "Type de preuve", Body: "Version signée \"v3\", datée"},
			},
		},
		{
			RequirementNo:   "2.3.9.1",
			RequirementText: "Validation HACCP",
			Explanation:     "Validation absente",
			Recommendation:  "Conclusion : valider le plan <HACCP> & archiver",
		},
	}
}

func TestParseFormat(t *testing.T) {
	for raw, want := range map[string]Format{"CSV": FormatCSV, "text": FormatText, " docx ": FormatDOCX, "pdf": FormatPDF} {
		got, err := ParseFormat(raw)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := ParseFormat("xlsx"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestRenderRejectsEmptyAndUnknown(t *testing.T) {
	r := NewRenderer(profile.Default())
	if _, err := r.Render(FormatCSV, "", nil); !errors.Is(err, ErrNothingToExport) {
		t.Fatalf("expected ErrNothingToExport, got %v", err)
	}
	if _, err := r.Render(Format("odt"), "", sampleEntries()); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestCSVPreservesFields(t *testing.T) {
	r := NewRenderer(profile.Default())
	doc, err := r.Render(FormatCSV, "", sampleEntries())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if doc.FileName != "plan-d-action-ifs.csv" || !strings.HasPrefix(doc.ContentType, "text/csv") {
		t.Fatalf("unexpected document meta %q %q", doc.FileName, doc.ContentType)
	}

	records, err := csv.NewReader(bytes.NewReader(doc.Body)).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}
	wantHeader := []string{
		"Numéro d'exigence", "Exigence IFS Food 8", "Explication (par l’auditeur/l’évaluateur)", "Notation", "Recommandation",
		"Correction immédiate", "Type de preuve", "Cause probable", "Action corrective", "Conclusion",
	}
	if diff := cmp.Diff(wantHeader, records[0]); diff != "" {
		t.Fatalf("header mismatch (-want +got):\n%s", diff)
	}

	for i, e := range sampleEntries() {
		got := records[i+1]
		want := []string{e.RequirementNo, e.RequirementText, e.Explanation, e.Score, e.Recommendation,
			e.section("Correction immédiate"), e.section("Type de preuve"), "", "", ""}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("row %d mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestTextContainsEveryEntry(t *testing.T) {
	r := NewRenderer(profile.Default())
	doc, err := r.Render(FormatText, "Audit 2024", sampleEntries())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	body := string(doc.Body)
	if doc.FileName != "audit-2024.txt" {
		t.Fatalf("unexpected file name %q", doc.FileName)
	}
	for _, e := range sampleEntries() {
		for _, want := range []string{e.RequirementNo, e.Explanation, e.Recommendation} {
			if !strings.Contains(body, want) {
				t.Fatalf("text export missing %q", want)
			}
		}
	}
}

func TestDOCXReadsBack(t *testing.T) {
	r := NewRenderer(profile.Default())
	doc, err := r.Render(FormatDOCX, "", sampleEntries())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if extract.DetectOOXML(doc.Body) != extract.MimeDOCX {
		t.Fatalf("export is not a docx package")
	}

	text, err := extract.DOCXText(doc.Body)
	if err != nil {
		t.Fatalf("DOCXText: %v", err)
	}
	for _, want := range []string{
		"Plan d'Action IFS",
		"4.1.2",
		"Pas de revue depuis 2022, l’équipe n’a pas de procédure",
		"Correction immédiate",
		"Mettre à jour le cahier des charges.",
		"Version signée \"v3\", datée",
		"2.3.9.1",
		"Conclusion : valider le plan <HACCP> & archiver",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("docx text missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "**") || strings.Contains(text, "###") {
		t.Fatalf("markdown decoration leaked into docx:\n%s", text)
	}
}

func TestPDFReadsBack(t *testing.T) {
	r := NewRenderer(profile.Default())
	doc, err := r.Render(FormatPDF, "", sampleEntries())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(doc.Body, []byte("%PDF-")) {
		t.Fatalf("missing pdf header")
	}

	text, err := extract.PDFText(doc.Body)
	if err != nil {
		t.Fatalf("PDFText: %v", err)
	}
	for _, want := range []string{"4.1.2", "2.3.9.1", "HACCP"} {
		if !strings.Contains(text, want) {
			t.Fatalf("pdf text missing %q:\n%s", want, text)
		}
	}

	// Line wrapping inserts breaks, so compare with whitespace removed.
	flat := stripSpace(text)
	for _, e := range sampleEntries() {
		for _, line := range strings.Split(e.Recommendation, "\n") {
			plain, _ := plainLine(line)
			if plain == "" {
				continue
			}
			if !strings.Contains(flat, stripSpace(plain)) {
				t.Fatalf("pdf text missing recommendation line %q:\n%s", plain, text)
			}
		}
	}
}

func TestPDFKeepsSymbols(t *testing.T) {
	const line = "Température ≥ 4 °C → contrôler le cœur, Δt ≤ 2 min ✅"
	entries := []Entry{{
		RequirementNo:  "4.2.1",
		Recommendation: "### Action corrective\n" + line,
	}}

	r := NewRenderer(profile.Default())
	doc := r.pdfDocument("Plan", entries)
	doc.SetCompression(false)
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatalf("Output: %v", err)
	}

	// UTF-8 fonts write text as UTF-16BE string operands.
	want := utf16BE(line)
	if !bytes.Contains(buf.Bytes(), want) {
		t.Fatalf("pdf content stream missing %q", line)
	}
}

func stripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func utf16BE(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, 0, 2*len(units))
	for _, u := range units {
		out = binary.BigEndian.AppendUint16(out, u)
	}
	return out
}

func TestPlainLine(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		heading bool
	}{
		{in: "### Correction immédiate", want: "Correction immédiate", heading: true},
		{in: "**Cause probable** :", want: "Cause probable :", heading: true},
		{in: "- Former le **personnel**", want: "- Former le personnel", heading: false},
		{in: "   ", want: "", heading: false},
	}
	for _, tt := range tests {
		got, heading := plainLine(tt.in)
		if got != tt.want || heading != tt.heading {
			t.Fatalf("plainLine(%q) = %q, %v; want %q, %v", tt.in, got, heading, tt.want, tt.heading)
		}
	}
}
