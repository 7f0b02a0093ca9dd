// Package extract turns raw document bytes into sanitized text pages.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"docqa/internal/util"
)

// ErrNoText means the document was read but yielded no extractable text,
// e.g. a scanned PDF with no text layer.
var ErrNoText = errors.New("extract: no extractable text")

// Page is one unit of extracted text. PDF pages are numbered from 1;
// Number 0 means the document has no page structure (plain text).
type Page struct {
	Number int
	Text   string
}

var pdfMagic = []byte("%PDF-")

// Pages extracts text per page. PDFs go through the page reader; anything
// else is treated as a single page of UTF-8 text. Pages that fail to decode
// are skipped rather than failing the document.
func Pages(data []byte) ([]Page, error) {
	if len(data) == 0 {
		return nil, ErrNoText
	}
	if bytes.HasPrefix(data, pdfMagic) {
		return pdfPages(data)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("extract: unsupported binary format")
	}
	text := util.SanitizeText(strings.TrimSpace(string(data)))
	if text == "" {
		return nil, ErrNoText
	}
	return []Page{{Number: 0, Text: text}}, nil
}

func pdfPages(data []byte) ([]Page, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	var pages []Page
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = util.SanitizeText(strings.TrimSpace(text))
		if text == "" {
			continue
		}
		pages = append(pages, Page{Number: i, Text: text})
	}
	if len(pages) == 0 {
		return nil, ErrNoText
	}
	return pages, nil
}
