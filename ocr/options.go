package ocr

import (
	"strconv"

	"github.com/KunalKalawant/Engineering-Drawing/coords"
	"github.com/KunalKalawant/Engineering-Drawing/raster"
)

// RequestOption mutates a recognition request before submission.
type RequestOption func(*Request)

// NewRequest builds a request for a rendered page.
func NewRequest(img *raster.RasterImage, opts ...RequestOption) Request {
	req := Request{Image: img}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}

// WithRegion restricts recognition to a pixel-space subsection of the image.
func WithRegion(region coords.Rect) RequestOption {
	return func(req *Request) {
		if region.IsEmpty() {
			req.Region = nil
			return
		}
		r := region
		req.Region = &r
	}
}

// WithLanguages overrides the engine's configured language hints.
func WithLanguages(langs ...string) RequestOption {
	return func(req *Request) { req.Languages = append([]string(nil), langs...) }
}

// WithVariable sets one engine-specific variable.
func WithVariable(key, value string) RequestOption {
	return func(req *Request) {
		if req.Variables == nil {
			req.Variables = make(map[string]string)
		}
		req.Variables[key] = value
	}
}

// WithPSM sets the Tesseract page segmentation mode.
func WithPSM(mode int) RequestOption {
	return WithVariable("tessedit_pageseg_mode", strconv.Itoa(mode))
}

// WithWhitelist restricts recognition to the provided characters.
func WithWhitelist(chars string) RequestOption {
	return WithVariable("tessedit_char_whitelist", chars)
}

// WithNumberMode tunes the engine for dimension callouts: single-word
// segmentation with a numeric character set.
func WithNumberMode() RequestOption {
	return func(req *Request) {
		WithPSM(8)(req)
		WithWhitelist("0123456789.,-+=")(req)
	}
}

// WithTextMode tunes the engine for general text blocks.
func WithTextMode() RequestOption {
	return WithPSM(6)
}
