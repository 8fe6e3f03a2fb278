package pdfutil

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	pdfreader "github.com/ledongthuc/pdf"
)

// MaxUploadSize bounds PDF uploads accepted for summarization.
const MaxUploadSize = 10 << 20 // 10 MiB

// ExtractText pulls the plain text out of an uploaded PDF.
func ExtractText(data []byte) (string, error) {
	r, err := pdfreader.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf: open: %w", err)
	}
	textReader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf: extract text: %w", err)
	}
	var sb strings.Builder
	if _, err := io.Copy(&sb, textReader); err != nil {
		return "", fmt.Errorf("pdf: read text: %w", err)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("pdf: no extractable text (scanned document?)")
	}
	return text, nil
}

// ScriptPDF renders a generated script as a simple A4 document and returns
// the PDF bytes.
func ScriptPDF(title, businessName, script string) ([]byte, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetTitle(title, true)
	doc.SetAutoPageBreak(true, 18)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 16)
	doc.MultiCell(0, 8, title, "", "L", false)
	doc.Ln(2)

	doc.SetFont("Helvetica", "", 9)
	doc.SetTextColor(120, 120, 120)
	doc.CellFormat(0, 5, fmt.Sprintf("%s — %s", businessName, time.Now().UTC().Format("2 Jan 2006")),
		"", 1, "L", false, 0, "")
	doc.Ln(4)

	doc.SetTextColor(0, 0, 0)
	doc.SetFont("Helvetica", "", 11)
	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			doc.Ln(3)
		case strings.HasPrefix(trimmed, "#"):
			doc.SetFont("Helvetica", "B", 13)
			doc.MultiCell(0, 6, strings.TrimSpace(strings.TrimLeft(trimmed, "#")), "", "L", false)
			doc.SetFont("Helvetica", "", 11)
		default:
			doc.MultiCell(0, 6, trimmed, "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render: %w", err)
	}
	return buf.Bytes(), nil
}
