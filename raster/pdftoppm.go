package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/KunalKalawant/Engineering-Drawing/observability"
)

// PdftoppmRenderer rasterizes pages by shelling out to pdftoppm from
// poppler-utils. One invocation renders exactly one page.
type PdftoppmRenderer struct {
	binary     string
	preprocess bool
	log        observability.Logger
}

// PdftoppmOption configures a PdftoppmRenderer.
type PdftoppmOption func(*PdftoppmRenderer)

// WithBinary overrides the pdftoppm executable path.
func WithBinary(path string) PdftoppmOption {
	return func(r *PdftoppmRenderer) { r.binary = path }
}

// WithPreprocess enables OCR-oriented image cleanup (grayscale, contrast
// stretch, sharpening) on rendered pages.
func WithPreprocess() PdftoppmOption {
	return func(r *PdftoppmRenderer) { r.preprocess = true }
}

// WithRenderLogger sets the logger used for render diagnostics.
func WithRenderLogger(l observability.Logger) PdftoppmOption {
	return func(r *PdftoppmRenderer) { r.log = l }
}

// NewPdftoppmRenderer constructs a renderer. The pdftoppm binary is resolved
// from PATH unless overridden; resolution failure is reported on first
// Render, not here, so construction never fails.
func NewPdftoppmRenderer(opts ...PdftoppmOption) *PdftoppmRenderer {
	r := &PdftoppmRenderer{log: observability.NopLogger{}}
	for _, opt := range opts {
		opt(r)
	}
	if r.binary == "" {
		if path, err := exec.LookPath("pdftoppm"); err == nil {
			r.binary = path
		}
	}
	return r
}

// Render rasterizes one page to PNG at the key's resolution.
func (r *PdftoppmRenderer) Render(ctx context.Context, doc *Document, key PageKey) (*RasterImage, error) {
	if err := key.Validate(); err != nil {
		return nil, &DecodeError{Page: key.Page, Reason: ReasonDecode, Err: err}
	}
	if doc == nil {
		return nil, &DecodeError{Page: key.Page, Reason: ReasonDecode, Err: fmt.Errorf("no document")}
	}
	if !doc.HasPage(key.Page) {
		return nil, &DecodeError{Page: key.Page, Reason: ReasonDecode, Err: fmt.Errorf("page out of range, document has %d pages", doc.PageCount())}
	}
	if r.binary == "" {
		return nil, &DecodeError{Page: key.Page, Reason: ReasonDecode, Err: fmt.Errorf("pdftoppm not found in PATH")}
	}

	tmpDir, err := os.MkdirTemp("", "drawing-raster-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	// pdftoppm numbers pages from 1.
	pageArg := strconv.Itoa(key.Page + 1)
	prefix := filepath.Join(tmpDir, "page")
	args := []string{
		"-png",
		"-r", strconv.FormatFloat(key.DPI, 'f', -1, 64),
		"-f", pageArg,
		"-l", pageArg,
		"-singlefile",
		doc.Path(),
		prefix,
	}

	out, err := exec.CommandContext(ctx, r.binary, args...).CombinedOutput()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		r.log.Error("pdftoppm failed",
			observability.Int("page", key.Page),
			observability.Error("err", err),
			observability.String("output", string(out)))
		return nil, &DecodeError{Page: key.Page, Reason: ReasonDecode, Err: fmt.Errorf("pdftoppm: %w: %s", err, bytes.TrimSpace(out))}
	}

	data, err := os.ReadFile(prefix + ".png")
	if err != nil {
		return nil, &DecodeError{Page: key.Page, Reason: ReasonDecode, Err: fmt.Errorf("read rendered page: %w", err)}
	}
	if len(data) == 0 {
		return nil, &DecodeError{Page: key.Page, Reason: ReasonDecode, Err: fmt.Errorf("rendered page is empty")}
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Page: key.Page, Reason: ReasonDecode, Err: fmt.Errorf("decode rendered page: %w", err)}
	}

	if r.preprocess {
		data, cfg, err = r.preprocessPNG(data)
		if err != nil {
			return nil, &DecodeError{Page: key.Page, Reason: ReasonDecode, Err: err}
		}
	}

	r.log.Debug("page rendered",
		observability.Int("page", key.Page),
		observability.Float64("dpi", key.DPI),
		observability.Int("width", cfg.Width),
		observability.Int("height", cfg.Height))

	return &RasterImage{Key: key, Width: cfg.Width, Height: cfg.Height, PNG: data}, nil
}

func (r *PdftoppmRenderer) preprocessPNG(data []byte) ([]byte, image.Config, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, image.Config{}, fmt.Errorf("decode for preprocess: %w", err)
	}
	processed := Preprocess(img)
	var buf bytes.Buffer
	if err := png.Encode(&buf, processed); err != nil {
		return nil, image.Config{}, fmt.Errorf("encode preprocessed page: %w", err)
	}
	b := processed.Bounds()
	return buf.Bytes(), image.Config{Width: b.Dx(), Height: b.Dy()}, nil
}
