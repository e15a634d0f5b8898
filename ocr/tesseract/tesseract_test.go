package tesseract

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os/exec"
	"strings"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/KunalKalawant/Engineering-Drawing/coords"
	"github.com/KunalKalawant/Engineering-Drawing/ocr"
	"github.com/KunalKalawant/Engineering-Drawing/raster"
)

// ensureTesseractAvailable checks that the tesseract binary is reachable.
func ensureTesseractAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed in PATH")
	}
}

func textImage(t *testing.T, text string) *raster.RasterImage {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 240, 80))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(10, 50),
	}
	d.DrawString(text)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return &raster.RasterImage{
		Key:    raster.PageKey{Page: 0, DPI: 300},
		Width:  240,
		Height: 80,
		PNG:    buf.Bytes(),
	}
}

func TestRecognize(t *testing.T) {
	ensureTesseractAvailable(t)

	e := New(ocr.Config{Languages: []string{"eng"}})
	res, err := e.Recognize(context.Background(), ocr.NewRequest(textImage(t, "Hello Drawing")))
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if res.Status == ocr.StatusFailed {
		t.Fatalf("unexpected failed status: %s", res.Reason)
	}
	joined := strings.ToLower(tokensText(res.Tokens))
	if !strings.Contains(joined, "hello") {
		t.Fatalf("unexpected OCR output: %q", joined)
	}
	if res.CompletedAt.IsZero() {
		t.Fatal("completion timestamp not set")
	}
}

func TestRecognizeBlankPage(t *testing.T) {
	ensureTesseractAvailable(t)

	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	ri := &raster.RasterImage{Key: raster.PageKey{Page: 0, DPI: 300}, Width: 200, Height: 100, PNG: buf.Bytes()}

	e := New(ocr.Config{})
	res, err := e.Recognize(context.Background(), ocr.NewRequest(ri))
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if res.Status != ocr.StatusSuccess {
		t.Fatalf("blank page status = %q, want success", res.Status)
	}
	if len(res.Tokens) != 0 {
		t.Fatalf("blank page tokens = %v", res.Tokens)
	}
}

func TestRecognizeNilImage(t *testing.T) {
	e := New(ocr.Config{})
	_, err := e.Recognize(context.Background(), ocr.Request{})
	if err == nil {
		t.Fatal("expected error for missing image")
	}
	var engineErr *ocr.EngineError
	if !errors.As(err, &engineErr) {
		t.Fatalf("error = %T, want EngineError", err)
	}
}

func TestCropImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 100, 60))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	data := buf.Bytes()

	got, err := cropImage(data, nil)
	if err != nil {
		t.Fatalf("nil region: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("nil region must return input unchanged")
	}

	cropped, err := cropImage(data, &coords.Rect{X: 10, Y: 10, Width: 30, Height: 20})
	if err != nil {
		t.Fatalf("crop: %v", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(cropped))
	if err != nil {
		t.Fatalf("decode cropped: %v", err)
	}
	if cfg.Width != 30 || cfg.Height != 20 {
		t.Fatalf("cropped size = %dx%d, want 30x20", cfg.Width, cfg.Height)
	}

	if _, err := cropImage(data, &coords.Rect{X: 500, Y: 500, Width: 10, Height: 10}); err == nil {
		t.Fatal("expected error for region outside bounds")
	}
	if _, err := cropImage([]byte("junk"), &coords.Rect{X: 0, Y: 0, Width: 1, Height: 1}); err == nil {
		t.Fatal("expected error for corrupt image")
	}
}

func tokensText(tokens []ocr.RecognizedToken) string {
	parts := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		parts = append(parts, tok.Text)
	}
	return strings.Join(parts, " ")
}
