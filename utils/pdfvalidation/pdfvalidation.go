package pdfvalidation

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	ErrNotPDF   = errors.New("missing PDF header")
	ErrNoPages  = errors.New("PDF has no pages")
	ErrTooLarge = errors.New("file exceeds the size limit")
)

// Limits bound an uploaded PDF. Kind names the document in messages.
type Limits struct {
	MaxFileSizeMB int
	MaxPages      int
	Kind          string
}

var (
	DefaultLimits  = Limits{MaxFileSizeMB: 20, MaxPages: 200, Kind: "document"}
	TemplateLimits = Limits{MaxFileSizeMB: 20, MaxPages: 100, Kind: "template"}
)

// Result describes a PDF that passed Check
type Result struct {
	PageCount int
	FileSize  int64
}

// IsPDF reports whether a file name looks like a PDF
func IsPDF(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".pdf")
}

// Check parses content and enforces limits. Every rejection wraps one of
// the package errors or a parse error, with a message fit for clients.
func Check(content []byte, limits Limits) (*Result, error) {
	size := int64(len(content))
	if size > int64(limits.MaxFileSizeMB)<<20 {
		return nil, fmt.Errorf("%w of %dMB", ErrTooLarge, limits.MaxFileSizeMB)
	}
	if !bytes.HasPrefix(content, []byte("%PDF-")) {
		return nil, ErrNotPDF
	}

	pages, err := PageCount(content)
	if err != nil {
		return nil, err
	}
	if pages == 0 {
		return nil, ErrNoPages
	}
	if limits.MaxPages > 0 && pages > limits.MaxPages {
		return nil, fmt.Errorf("PDF has %d pages, the maximum for a %s is %d", pages, limits.Kind, limits.MaxPages)
	}
	return &Result{PageCount: pages, FileSize: size}, nil
}

// trimTrailer drops bytes after the last %%EOF; some generators append
// garbage the parser trips over
func trimTrailer(content []byte) []byte {
	end := bytes.LastIndex(content, []byte("%%EOF"))
	if end == -1 {
		return content
	}
	end += len("%%EOF")
	for end < len(content) && (content[end] == '\n' || content[end] == '\r') {
		end++
	}
	return content[:end]
}

// PageCount returns the number of pages in a PDF
func PageCount(content []byte) (int, error) {
	content = trimTrailer(content)
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return 0, fmt.Errorf("failed to parse PDF: %w", err)
	}
	return r.NumPage(), nil
}
