package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MimePPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

var ErrUnsupported = errors.New("unsupported document type")

// Detect returns the best-guess mime type for data. Zip payloads are resolved to
// their OOXML flavour by looking at the package parts, then by extension.
func Detect(data []byte, fileName string) string {
	sniffed := strings.ToLower(strings.TrimSpace(strings.Split(http.DetectContentType(data), ";")[0]))
	if sniffed != "application/zip" {
		return sniffed
	}
	if mapped := DetectOOXML(data); mapped != "" {
		return mapped
	}
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".docx":
		return MimeDOCX
	case ".xlsx":
		return MimeXLSX
	case ".pptx":
		return MimePPTX
	default:
		return sniffed
	}
}

// DetectOOXML inspects a zip package and reports which OOXML document it holds,
// or "" if it is not one.
func DetectOOXML(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}
	for _, f := range zr.File {
		switch strings.ReplaceAll(f.Name, "\\", "/") {
		case "word/document.xml":
			return MimeDOCX
		case "xl/workbook.xml":
			return MimeXLSX
		case "ppt/presentation.xml":
			return MimePPTX
		}
	}
	return ""
}

// IsSpreadsheet reports whether data is an xlsx package.
func IsSpreadsheet(data []byte) bool {
	return DetectOOXML(data) == MimeXLSX
}

// Text extracts readable text from a PDF or DOCX report.
func Text(ctx context.Context, data []byte, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch kind := Detect(data, fileName); kind {
	case MimePDF:
		return PDFText(data)
	case MimeDOCX:
		return DOCXText(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, kind)
	}
}

// PDFText returns the plain text layer of a PDF.
func PDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}

// DOCXText returns the paragraphs of word/document.xml, one per line.
func DOCXText(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty docx data")
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}

	var doc *zip.File
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", errors.New("word/document.xml not found")
	}

	rc, err := doc.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return paragraphs(rc)
}

func paragraphs(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decode document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.Write(t)
		case xml.EndElement:
			if (t.Name.Local == "p" || t.Name.Local == "br") && buf.Len() > 0 {
				buf.WriteByte('\n')
			}
		}
	}
	return strings.TrimSpace(buf.String()), nil
}
