package pipeline

import (
	"context"
	"sync"

	"github.com/segmentio/ksuid"

	"github.com/KunalKalawant/Engineering-Drawing/ocr"
	"github.com/KunalKalawant/Engineering-Drawing/raster"
)

// Handle tracks one processing job. Concurrent requests for the same key
// share a single handle; a request for an already-Ready key gets a handle
// that is complete on return.
type Handle struct {
	id   string
	key  raster.PageKey
	done chan struct{}

	mu     sync.Mutex
	result *ocr.RecognitionResult
	err    error
}

func newHandle(key raster.PageKey) *Handle {
	return &Handle{
		id:   ksuid.New().String(),
		key:  key,
		done: make(chan struct{}),
	}
}

func completedHandle(key raster.PageKey, res *ocr.RecognitionResult) *Handle {
	h := newHandle(key)
	h.complete(res, nil)
	return h
}

// ID returns the unique job identifier, stable across shared requests.
func (h *Handle) ID() string { return h.id }

// Key returns the page key this handle tracks.
func (h *Handle) Key() raster.PageKey { return h.key }

// Done is closed when the job reaches Ready, Failed, or is canceled.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Result returns the outcome. Only valid once Done is closed.
func (h *Handle) Result() (*ocr.RecognitionResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result, h.err
}

// Wait blocks until the job completes or ctx expires.
func (h *Handle) Wait(ctx context.Context) (*ocr.RecognitionResult, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-h.done:
		return h.Result()
	}
}

// complete records the outcome exactly once; later calls are no-ops, so a
// late engine result never overwrites a cancellation.
func (h *Handle) complete(res *ocr.RecognitionResult, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	select {
	case <-h.done:
		return
	default:
	}
	h.result = res
	h.err = err
	close(h.done)
}
