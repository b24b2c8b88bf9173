package export

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	pdfFont       = "DejaVu"
	pdfLineHeight = 5.5
)

// DejaVu covers Latin, Greek, arrows and math symbols that the core
// cp1252 fonts cannot encode.
var (
	//go:embed fonts/DejaVuSansCondensed.ttf
	fontRegular []byte
	//go:embed fonts/DejaVuSansCondensed-Bold.ttf
	fontBold []byte
	//go:embed fonts/DejaVuSansCondensed-Oblique.ttf
	fontItalic []byte
)

func (r *Renderer) pdf(title string, entries []Entry) ([]byte, error) {
	doc := r.pdfDocument(title, entries)
	if err := doc.Error(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Renderer) pdfDocument(title string, entries []Entry) *fpdf.Fpdf {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.AddUTF8FontFromBytes(pdfFont, "", fontRegular)
	doc.AddUTF8FontFromBytes(pdfFont, "B", fontBold)
	doc.AddUTF8FontFromBytes(pdfFont, "I", fontItalic)

	doc.SetTitle(title, true)
	doc.SetMargins(15, 15, 15)
	doc.SetAutoPageBreak(true, 18)
	doc.AliasNbPages("")
	doc.SetFooterFunc(func() {
		doc.SetY(-12)
		doc.SetFont(pdfFont, "I", 8)
		doc.SetTextColor(120, 120, 120)
		doc.CellFormat(0, 8, fmt.Sprintf("%d/{nb}", doc.PageNo()), "", 0, "C", false, 0, "")
	})
	doc.AddPage()

	doc.SetFont(pdfFont, "B", 16)
	doc.SetTextColor(0, 64, 128)
	doc.MultiCell(0, 9, title, "", "C", false)
	doc.Ln(4)

	for i, e := range entries {
		if i > 0 {
			doc.Ln(3)
		}
		doc.SetFillColor(224, 247, 250)
		doc.SetTextColor(0, 64, 128)
		doc.SetFont(pdfFont, "B", 12)
		doc.MultiCell(0, 7, r.labels.RequirementNo+" : "+e.RequirementNo, "", "L", true)

		doc.SetTextColor(0, 0, 0)
		labelled := func(label, value string) {
			if strings.TrimSpace(value) == "" {
				return
			}
			doc.SetFont(pdfFont, "B", 10)
			doc.MultiCell(0, pdfLineHeight, label, "", "L", false)
			doc.SetFont(pdfFont, "", 10)
			doc.MultiCell(0, pdfLineHeight, value, "", "L", false)
		}
		labelled(r.labels.RequirementText, e.RequirementText)
		labelled(r.labels.Explanation, e.Explanation)
		labelled(r.labels.Score, e.Score)

		doc.Ln(1)
		doc.SetFont(pdfFont, "B", 11)
		doc.MultiCell(0, 6, r.labels.Recommendation, "", "L", false)
		for _, line := range strings.Split(strings.TrimSpace(e.Recommendation), "\n") {
			text, heading := plainLine(line)
			if text == "" {
				doc.Ln(1.5)
				continue
			}
			if heading {
				doc.SetFont(pdfFont, "B", 10)
			} else {
				doc.SetFont(pdfFont, "", 10)
			}
			doc.MultiCell(0, pdfLineHeight, text, "", "L", false)
		}
	}
	return doc
}
