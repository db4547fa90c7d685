// Package reporting renders plain-text reports and exports them as text,
// PDF, DOCX or CSV downloads.
package reporting

import (
	"bufio"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

var ErrUnknownFormat = errors.New("format must be txt, pdf or docx")

type Format string

const (
	FormatText Format = "txt"
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// ParseFormat accepts txt, pdf or docx. An empty value means txt.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatPDF:
		return FormatPDF, nil
	case FormatDOCX:
		return FormatDOCX, nil
	}
	return "", ErrUnknownFormat
}

func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "text/plain; charset=utf-8"
}

// Document is a titled plain-text report.
type Document struct {
	Title       string
	Subtitle    string
	Body        string
	GeneratedAt time.Time
}

// Rendered is a document ready to download.
type Rendered struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Render converts doc into format. baseName is the file name without
// extension.
func Render(doc Document, format Format, baseName string) (*Rendered, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatText:
		data = []byte(doc.Body)
	case FormatPDF:
		data, err = renderPDF(doc)
	case FormatDOCX:
		data, err = renderDOCX(doc)
	default:
		return nil, ErrUnknownFormat
	}
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return &Rendered{
		FileName:    baseName + "." + string(format),
		ContentType: format.ContentType(),
		Data:        data,
	}, nil
}

// Attach writes r as a file download.
func Attach(c echo.Context, r *Rendered) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", r.FileName))
	return c.Blob(http.StatusOK, r.ContentType, r.Data)
}

// Timestamp formats t the way report file names expect.
func Timestamp(t time.Time) string {
	return t.Format("20060102_150405")
}

type blockKind int

const (
	blockParagraph blockKind = iota
	blockHeading
	blockBullet
)

type block struct {
	kind blockKind
	text string
}

// blocks splits report text into headings, bullets and paragraphs. A line
// underlined with '=' or '-' is a heading; the underline itself is dropped.
func blocks(body string) []block {
	var lines []string
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), " \t\r"))
	}

	var out []block
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" || isUnderline(line) {
			continue
		}
		if i+1 < len(lines) && isUnderline(strings.TrimSpace(lines[i+1])) {
			out = append(out, block{kind: blockHeading, text: line})
			i++
			continue
		}
		if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") {
			out = append(out, block{kind: blockBullet, text: strings.TrimSpace(line[2:])})
			continue
		}
		out = append(out, block{kind: blockParagraph, text: line})
	}
	return out
}

func isUnderline(s string) bool {
	if len(s) < 3 {
		return false
	}
	return strings.Trim(s, "=") == "" || strings.Trim(s, "-") == ""
}
