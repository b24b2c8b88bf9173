package export

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"ifs-actionplan/internal/profile"
)

// Format is an export target.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatText Format = "txt"
	FormatDOCX Format = "docx"
	FormatPDF  Format = "pdf"
)

var (
	ErrUnknownFormat   = errors.New("unknown export format")
	ErrNothingToExport = errors.New("no recommendation to export")
)

// Formats lists supported formats in display order.
func Formats() []Format {
	return []Format{FormatCSV, FormatText, FormatDOCX, FormatPDF}
}

// ParseFormat accepts a format name or common alias.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "csv":
		return FormatCSV, nil
	case "txt", "text", "plain":
		return FormatText, nil
	case "docx", "word":
		return FormatDOCX, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, raw)
	}
}

// Section is one extracted part of a recommendation.
type Section struct {
	Heading string
	Body    string
}

// Entry is a plan row together with its recommendation.
type Entry struct {
	RequirementNo   string
	RequirementText string
	Explanation     string
	Score           string
	Recommendation  string
	Sections        []Section
}

func (e Entry) section(heading string) string {
	for _, s := range e.Sections {
		if strings.EqualFold(s.Heading, heading) {
			return s.Body
		}
	}
	return ""
}

// Document is a rendered, downloadable export.
type Document struct {
	Body        []byte
	ContentType string
	FileName    string
}

// Renderer formats entries using a profile's labels and section headings.
type Renderer struct {
	labels   profile.Labels
	sections []string
}

func NewRenderer(p profile.Profile) *Renderer {
	return &Renderer{labels: p.Export, sections: p.Sections}
}

// Render produces the document for format. An empty title falls back to the
// profile title.
func (r *Renderer) Render(format Format, title string, entries []Entry) (Document, error) {
	if len(entries) == 0 {
		return Document{}, ErrNothingToExport
	}
	if strings.TrimSpace(title) == "" {
		title = r.labels.Title
	}

	var (
		body        []byte
		contentType string
		err         error
	)
	switch format {
	case FormatCSV:
		body, err = r.csv(entries)
		contentType = "text/csv; charset=utf-8"
	case FormatText:
		body = r.text(title, entries)
		contentType = "text/plain; charset=utf-8"
	case FormatDOCX:
		body, err = r.docx(title, entries)
		contentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatPDF:
		body, err = r.pdf(title, entries)
		contentType = "application/pdf"
	default:
		return Document{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return Document{}, fmt.Errorf("render %s: %w", format, err)
	}
	return Document{Body: body, ContentType: contentType, FileName: fileName(title, format)}, nil
}

func fileName(title string, format Format) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "action-plan"
	}
	return slug + "." + string(format)
}

// plainLine strips markdown decoration from a recommendation line and reports
// whether it reads as a heading.
func plainLine(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	heading := strings.HasPrefix(trimmed, "#")
	trimmed = strings.TrimLeft(trimmed, "#")
	if strings.HasPrefix(trimmed, " **") || strings.HasPrefix(trimmed, "**") {
		if strings.Count(trimmed, "**") >= 2 && strings.HasSuffix(strings.TrimRight(trimmed, " :"), "**") {
			heading = true
		}
	}
	trimmed = strings.ReplaceAll(trimmed, "**", "")
	return strings.TrimSpace(trimmed), heading
}
