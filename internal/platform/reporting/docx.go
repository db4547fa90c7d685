package reporting

import (
	"bytes"
	"strconv"

	"github.com/fumiama/go-docx"
)

// renderDOCX lays the document out as one Word paragraph per block with
// direct run formatting. Sizes are in half-points.
func renderDOCX(doc Document) ([]byte, error) {
	w := docx.New().WithDefaultTheme()
	docxParagraph(w, doc.Title, 32, true, "center")
	if doc.Subtitle != "" {
		docxParagraph(w, doc.Subtitle, 26, true, "center")
	}
	for _, b := range blocks(doc.Body) {
		switch b.kind {
		case blockHeading:
			docxParagraph(w, b.text, 26, true, "")
		case blockBullet:
			docxParagraph(w, "• "+b.text, 22, false, "")
		default:
			docxParagraph(w, b.text, 22, false, "")
		}
	}

	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func docxParagraph(w *docx.Docx, text string, size int, bold bool, align string) {
	p := w.AddParagraph()
	if align != "" {
		p.Justification(align)
	}
	run := p.AddText(text).Size(strconv.Itoa(size))
	if bold {
		run.Bold()
	}
}
