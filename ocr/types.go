package ocr

import (
	"context"
	"fmt"
	"time"

	"github.com/KunalKalawant/Engineering-Drawing/coords"
	"github.com/KunalKalawant/Engineering-Drawing/raster"
)

// Status is the engine-reported outcome of one recognition run.
type Status string

const (
	// StatusSuccess means the engine completed normally. Zero tokens with
	// StatusSuccess is a valid blank page, not a failure.
	StatusSuccess Status = "success"
	// StatusPartial means the engine produced text but lost some structure,
	// for example word geometry was unavailable.
	StatusPartial Status = "partial"
	// StatusFailed means the engine errored; Reason carries the cause.
	StatusFailed Status = "failed"
)

// RecognizedToken is a single recognized word. Bounds are image-pixel
// coordinates relative to the RasterImage the token came from.
type RecognizedToken struct {
	Text       string
	Confidence float64
	Bounds     coords.Rect
	// LowConfidence marks tokens below the configured threshold. They are
	// flagged rather than dropped so the viewer can highlight them.
	LowConfidence bool
}

// RecognitionResult is the ordered engine output for one page key.
type RecognitionResult struct {
	Key         raster.PageKey
	Tokens      []RecognizedToken
	Status      Status
	Reason      string
	CompletedAt time.Time
}

// Request is one recognition submission.
type Request struct {
	// Image is the rendered page to recognize.
	Image *raster.RasterImage
	// Region restricts recognition to a subsection of the image, in pixel
	// coordinates. Nil means the full image.
	Region *coords.Rect
	// Languages overrides the engine's configured language hints.
	Languages []string
	// Variables passes engine-specific knobs (e.g. Tesseract variables)
	// without hard-coding them into the API surface.
	Variables map[string]string
}

// Engine is the recognizer contract: one image in, one result out. Engines
// are synchronous; the pipeline runs them off the interactive context and
// serializes calls into a single instance.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, req Request) (RecognitionResult, error)
}

// EngineError reports a recognizer failure or unavailability.
type EngineError struct {
	Engine string
	Err    error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("ocr engine %s: %v", e.Engine, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// Config is the explicit recognizer configuration passed at construction.
type Config struct {
	// EnginePath points the engine at its installed data (for Tesseract,
	// the tessdata directory). Empty uses the engine default.
	EnginePath string
	// Languages lists trained-data hints, e.g. "eng", "deu".
	Languages []string
	// ConfidenceThreshold is the bound below which tokens are flagged
	// low-confidence, in [0, 1].
	ConfidenceThreshold float64
	// Timeout bounds a single recognition call. Zero means no limit.
	Timeout time.Duration
}

// DefaultConfig returns the configuration used when fields are left zero.
func DefaultConfig() Config {
	return Config{
		Languages:           []string{"eng"},
		ConfidenceThreshold: 0.6,
		Timeout:             30 * time.Second,
	}
}

// WithDefaults fills zero fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if len(c.Languages) == 0 {
		c.Languages = def.Languages
	}
	if c.ConfidenceThreshold <= 0 {
		c.ConfidenceThreshold = def.ConfidenceThreshold
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	return c
}
