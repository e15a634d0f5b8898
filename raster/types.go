// Package raster converts PDF pages into pixel images for recognition. The
// pdftoppm-backed renderer is the production implementation; the Renderer
// interface keeps the pipeline testable without poppler installed.
package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/png"
)

// PageKey identifies one rasterization/recognition unit: a page rendered at a
// specific resolution. Two keys are equal iff both fields match exactly.
type PageKey struct {
	Page int
	DPI  float64
}

// Validate reports whether the key identifies a renderable unit.
func (k PageKey) Validate() error {
	if k.Page < 0 {
		return fmt.Errorf("page index %d is negative", k.Page)
	}
	if k.DPI <= 0 {
		return fmt.Errorf("resolution %v is not positive", k.DPI)
	}
	return nil
}

func (k PageKey) String() string {
	return fmt.Sprintf("page %d @ %gdpi", k.Page, k.DPI)
}

// RasterImage is one rendered page. The PNG payload is immutable once the
// renderer returns it; ownership passes to the page cache entry.
type RasterImage struct {
	Key    PageKey
	Width  int
	Height int
	PNG    []byte
}

// Decode returns the pixel data as a standard image.
func (r *RasterImage) Decode() (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(r.PNG))
	if err != nil {
		return nil, fmt.Errorf("decode raster image: %w", err)
	}
	return img, nil
}

// Renderer rasterizes a single page of an open document.
type Renderer interface {
	Render(ctx context.Context, doc *Document, key PageKey) (*RasterImage, error)
}

// ReasonDecode is the failure reason attached to pages that cannot be
// rasterized.
const ReasonDecode = "decode-error"

// DecodeError reports a page that could not be rasterized, typically corrupt
// or unsupported PDF content. Page is -1 when the whole document is affected.
type DecodeError struct {
	Page   int
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Page < 0 {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("page %d: %s: %v", e.Page, e.Reason, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
