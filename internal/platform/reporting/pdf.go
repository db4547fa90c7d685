package reporting

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
)

// Core PDF fonts are cp1252; symbols outside it are spelled out.
var pdfReplacer = strings.NewReplacer(
	"₹", "INR ",
	"•", "-",
	"—", "-",
	"–", "-",
)

func renderPDF(doc Document) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	text := func(s string) string { return tr(pdfReplacer.Replace(s)) }

	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("LungScreen", true)
	if !doc.GeneratedAt.IsZero() {
		pdf.SetCreationDate(doc.GeneratedAt)
	}
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, fmt.Sprintf("Lung Cancer Detection System - page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(21, 101, 192)
	pdf.MultiCell(0, 8, text(doc.Title), "", "C", false)
	if doc.Subtitle != "" {
		pdf.SetFont("Helvetica", "", 12)
		pdf.SetTextColor(128, 128, 128)
		pdf.MultiCell(0, 7, text(doc.Subtitle), "", "C", false)
	}
	pdf.Ln(6)

	pdf.SetTextColor(0, 0, 0)
	for _, b := range blocks(doc.Body) {
		switch b.kind {
		case blockHeading:
			pdf.Ln(2)
			pdf.SetFont("Helvetica", "B", 12)
			pdf.MultiCell(0, 7, text(b.text), "", "L", false)
			pdf.Ln(1)
		case blockBullet:
			pdf.SetFont("Helvetica", "", 10)
			pdf.SetX(pdf.GetX() + 4)
			pdf.MultiCell(0, 5, text("- "+b.text), "", "L", false)
		default:
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, text(b.text), "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
