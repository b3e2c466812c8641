// Package extract turns uploaded PDF bytes into plain text.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrExtraction matches every *ExtractionError with errors.Is.
var ErrExtraction = errors.New("text extraction failed")

// ExtractionError reports bytes that are not a readable PDF. Page is 1-based and zero when
// the document itself could not be opened.
type ExtractionError struct {
	Page int
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("extract page %d: %v", e.Page, e.Err)
	}
	return fmt.Sprintf("extract pdf: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func (e *ExtractionError) Is(target error) bool { return target == ErrExtraction }

// Pages returns the plain text of every page in document order.
// Extraction is all-or-nothing: any failing page fails the whole call.
func Pages(data []byte) (pages []string, err error) {
	page := 0
	// The pdf package panics on some malformed objects.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = &ExtractionError{Page: page, Err: fmt.Errorf("%v", r)}
		}
	}()

	if len(data) == 0 {
		return nil, &ExtractionError{Err: errors.New("empty input")}
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &ExtractionError{Err: err}
	}

	n := r.NumPage()
	pages = make([]string, 0, n)
	for page = 1; page <= n; page++ {
		p := r.Page(page)
		if p.V.IsNull() {
			return nil, &ExtractionError{Page: page, Err: errors.New("missing page object")}
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, &ExtractionError{Page: page, Err: err}
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// Text returns the page texts concatenated without separators.
func Text(data []byte) (string, error) {
	pages, err := Pages(data)
	if err != nil {
		return "", err
	}
	return strings.Join(pages, ""), nil
}
