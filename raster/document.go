package raster

import (
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Document is an opened PDF file. It carries only the path and page count;
// page content is read on demand by the renderer.
type Document struct {
	path  string
	pages int
}

// OpenDocument probes a PDF file and returns its handle. Corrupt or
// unreadable files yield a DecodeError.
func OpenDocument(path string) (*Document, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &DecodeError{Page: -1, Reason: ReasonDecode, Err: err}
	}
	pages, err := api.PageCountFile(path)
	if err != nil {
		return nil, &DecodeError{Page: -1, Reason: ReasonDecode, Err: fmt.Errorf("page count: %w", err)}
	}
	if pages < 1 {
		return nil, &DecodeError{Page: -1, Reason: ReasonDecode, Err: fmt.Errorf("document has no pages")}
	}
	return &Document{path: path, pages: pages}, nil
}

// Path returns the file path the document was opened from.
func (d *Document) Path() string { return d.path }

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int { return d.pages }

// HasPage reports whether the zero-based page index exists.
func (d *Document) HasPage(page int) bool { return page >= 0 && page < d.pages }
