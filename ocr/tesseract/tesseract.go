// Package tesseract binds the gosseract client as the production OCR engine.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"math"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"

	"github.com/KunalKalawant/Engineering-Drawing/coords"
	"github.com/KunalKalawant/Engineering-Drawing/ocr"
)

// Engine implements ocr.Engine using a local Tesseract installation via
// gosseract. A fresh client is created per call; the pipeline serializes
// calls, so no internal locking is needed.
type Engine struct {
	cfg           ocr.Config
	clientFactory func() *gosseract.Client
}

// New constructs a Tesseract-backed engine from explicit configuration.
func New(cfg ocr.Config) *Engine {
	return &Engine{cfg: cfg.WithDefaults(), clientFactory: gosseract.NewClient}
}

func (e *Engine) Name() string { return "tesseract" }

// Recognize runs OCR on one rendered page or region.
func (e *Engine) Recognize(ctx context.Context, req ocr.Request) (ocr.RecognitionResult, error) {
	if req.Image == nil {
		return ocr.RecognitionResult{}, &ocr.EngineError{Engine: e.Name(), Err: fmt.Errorf("no image")}
	}
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return ocr.RecognitionResult{}, err
	}

	imgData, err := cropImage(req.Image.PNG, req.Region)
	if err != nil {
		return ocr.RecognitionResult{}, &ocr.EngineError{Engine: e.Name(), Err: err}
	}

	c := e.clientFactory()
	defer c.Close()

	if e.cfg.EnginePath != "" {
		if err := c.SetTessdataPrefix(e.cfg.EnginePath); err != nil {
			return ocr.RecognitionResult{}, &ocr.EngineError{Engine: e.Name(), Err: fmt.Errorf("set tessdata prefix: %w", err)}
		}
	}
	if err := c.SetImageFromBytes(imgData); err != nil {
		return ocr.RecognitionResult{}, &ocr.EngineError{Engine: e.Name(), Err: fmt.Errorf("set image: %w", err)}
	}
	langs := req.Languages
	if len(langs) == 0 {
		langs = e.cfg.Languages
	}
	if len(langs) > 0 {
		if err := c.SetLanguage(langs...); err != nil {
			return ocr.RecognitionResult{}, &ocr.EngineError{Engine: e.Name(), Err: fmt.Errorf("set languages: %w", err)}
		}
	}
	if dpi := int(math.Round(req.Image.Key.DPI)); dpi > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(dpi)); err != nil {
			return ocr.RecognitionResult{}, &ocr.EngineError{Engine: e.Name(), Err: fmt.Errorf("set dpi: %w", err)}
		}
	}
	for k, v := range req.Variables {
		if err := c.SetVariable(gosseract.SettableVariable(k), v); err != nil {
			return ocr.RecognitionResult{}, &ocr.EngineError{Engine: e.Name(), Err: fmt.Errorf("set variable %s: %w", k, err)}
		}
	}

	text, err := c.Text()
	if ctxErr := ctx.Err(); ctxErr != nil {
		// The engine call is not interruptible; report the cancellation once
		// it returns.
		return ocr.RecognitionResult{}, ctxErr
	}
	if err != nil {
		return ocr.RecognitionResult{}, &ocr.EngineError{Engine: e.Name(), Err: fmt.Errorf("recognize text: %w", err)}
	}
	plain := strings.TrimSpace(text)

	tokens := extractTokens(c, req.Region)
	ocr.MarkLowConfidence(tokens, e.cfg.ConfidenceThreshold)

	status := ocr.StatusSuccess
	reason := ""
	if plain != "" && len(tokens) == 0 {
		status = ocr.StatusPartial
		reason = "word geometry unavailable"
	}

	return ocr.RecognitionResult{
		Key:         req.Image.Key,
		Tokens:      tokens,
		Status:      status,
		Reason:      reason,
		CompletedAt: time.Now(),
	}, nil
}

// extractTokens reads word-level boxes from the client. When recognition ran
// on a cropped region, boxes are shifted back into full-image coordinates.
func extractTokens(c *gosseract.Client, region *coords.Rect) []ocr.RecognizedToken {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return nil
	}
	var offX, offY float64
	if region != nil {
		offX, offY = region.X, region.Y
	}
	tokens := make([]ocr.RecognizedToken, 0, len(boxes))
	for _, b := range boxes {
		word := strings.TrimSpace(b.Word)
		if word == "" {
			continue
		}
		tokens = append(tokens, ocr.RecognizedToken{
			Text:       word,
			Confidence: b.Confidence / 100.0,
			Bounds: coords.Rect{
				X:      float64(b.Box.Min.X) + offX,
				Y:      float64(b.Box.Min.Y) + offY,
				Width:  float64(b.Box.Dx()),
				Height: float64(b.Box.Dy()),
			},
		})
	}
	return tokens
}

func cropImage(data []byte, region *coords.Rect) ([]byte, error) {
	if region == nil || region.IsEmpty() {
		return data, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode for region: %w", err)
	}
	rect := image.Rect(
		int(math.Round(region.X)),
		int(math.Round(region.Y)),
		int(math.Round(region.X+region.Width)),
		int(math.Round(region.Y+region.Height)),
	).Intersect(img.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("region outside image bounds")
	}
	subImg, ok := img.(interface {
		SubImage(r image.Rectangle) image.Image
	})
	if !ok {
		return nil, fmt.Errorf("image does not support sub-image")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, subImg.SubImage(rect)); err != nil {
		return nil, fmt.Errorf("encode cropped image: %w", err)
	}
	return buf.Bytes(), nil
}
