// Package pipeline coordinates rasterization and recognition for the viewer:
// it runs both stages off the interactive context on a bounded worker pool,
// guarantees at most one concurrent job per page key, and reports progress
// through a single-consumer notification queue.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/KunalKalawant/Engineering-Drawing/observability"
	"github.com/KunalKalawant/Engineering-Drawing/ocr"
	"github.com/KunalKalawant/Engineering-Drawing/pagecache"
	"github.com/KunalKalawant/Engineering-Drawing/raster"
)

var (
	// ErrCanceled is reported by handles whose job was canceled or whose
	// entry was invalidated before completion.
	ErrCanceled = errors.New("processing canceled")
	// ErrClosed is returned by Request after Close.
	ErrClosed = errors.New("pipeline closed")
)

// Notification reports one entry state change. Notifications for a given key
// arrive in transition order; different keys are unordered relative to each
// other. The queue must be drained by a single consumer, typically the UI
// event loop.
type Notification struct {
	Key    raster.PageKey
	State  pagecache.State
	Result *ocr.RecognitionResult
	Err    error
}

const (
	// DefaultWorkers bounds concurrent page jobs. Small by default: each job
	// holds a full-page raster in memory and the recognizer is a single
	// local engine instance.
	DefaultWorkers = 2
	// DefaultQueueSize is the notification buffer length.
	DefaultQueueSize = 64
)

// Processor is the page-processing coordinator.
type Processor struct {
	renderer raster.Renderer
	engine   ocr.Engine
	cache    *pagecache.Cache

	sem     *semaphore.Weighted
	log     observability.Logger
	metrics observability.Metrics
	tracer  observability.Tracer
	notes   chan Notification

	// engineMu serializes calls into the engine instance, which is not
	// reentrant across pages.
	engineMu sync.Mutex

	mu       sync.Mutex
	inflight map[raster.PageKey]*job
	wg       sync.WaitGroup
	closed   bool
}

type job struct {
	handle *Handle
	cancel context.CancelFunc
	gen    uint64
}

// Option configures a Processor.
type Option func(*Processor)

// WithWorkers sets the number of pages processed concurrently.
func WithWorkers(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(l observability.Logger) Option {
	return func(p *Processor) { p.log = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m observability.Metrics) Option {
	return func(p *Processor) { p.metrics = m }
}

// WithTracer sets the stage tracer.
func WithTracer(t observability.Tracer) Option {
	return func(p *Processor) { p.tracer = t }
}

// WithQueueSize sets the notification buffer length.
func WithQueueSize(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.notes = make(chan Notification, n)
		}
	}
}

// New builds a Processor over the given collaborators.
func New(renderer raster.Renderer, engine ocr.Engine, cache *pagecache.Cache, opts ...Option) *Processor {
	p := &Processor{
		renderer: renderer,
		engine:   engine,
		cache:    cache,
		sem:      semaphore.NewWeighted(DefaultWorkers),
		log:      observability.NopLogger{},
		metrics:  observability.NopMetrics(),
		tracer:   observability.NopTracer(),
		notes:    make(chan Notification, DefaultQueueSize),
		inflight: make(map[raster.PageKey]*job),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Notifications returns the state-change queue. Drain it from one goroutine.
func (p *Processor) Notifications() <-chan Notification { return p.notes }

// Request asks for the page to be rasterized and recognized. It never
// blocks: a Ready entry yields an already-completed handle, an in-flight
// entry yields the existing job's handle, and otherwise a new job starts on
// the worker pool.
func (p *Processor) Request(ctx context.Context, doc *raster.Document, key raster.PageKey) (*Handle, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrClosed
	}
	if j, ok := p.inflight[key]; ok {
		return j.handle, nil
	}

	view := p.cache.GetOrCreate(key)
	p.metrics.SetCacheEntries(p.cache.Len())
	if view.State == pagecache.StateReady {
		return completedHandle(key, view.Result), nil
	}

	gen, ok := p.cache.StartRastering(key)
	if !ok {
		// Active entry without a tracked job; transient at worst, a logic
		// fault if persistent.
		return nil, fmt.Errorf("entry for %s is busy", key)
	}

	// The job outlives the requesting call; only Cancel, Invalidate, or
	// Close stop it.
	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	j := &job{handle: newHandle(key), cancel: cancel, gen: gen}
	p.inflight[key] = j
	p.wg.Add(1)
	go p.run(jobCtx, doc, key, j)
	return j.handle, nil
}

// Cancel requests cooperative cancellation of in-flight work for key and
// reverts its entry to Empty. Engine calls already dispatched may still
// complete; their late results are discarded. Cached Ready results of other
// keys, and of this key if nothing is in flight, are untouched.
func (p *Processor) Cancel(key raster.PageKey) {
	p.mu.Lock()
	j, ok := p.inflight[key]
	if ok {
		j.cancel()
		delete(p.inflight, key)
	}
	p.mu.Unlock()
	if !ok {
		return
	}
	p.cache.Invalidate(key)
	p.notify(Notification{Key: key, State: pagecache.StateEmpty})
}

// Invalidate discards any cached image and result for key, canceling
// in-flight work first. The next Request re-runs both stages.
func (p *Processor) Invalidate(key raster.PageKey) {
	p.mu.Lock()
	if j, ok := p.inflight[key]; ok {
		j.cancel()
		delete(p.inflight, key)
	}
	p.mu.Unlock()
	p.cache.Invalidate(key)
	p.notify(Notification{Key: key, State: pagecache.StateEmpty})
}

// InvalidateAll resets the whole cache, used when the document changes.
func (p *Processor) InvalidateAll() {
	p.mu.Lock()
	for key, j := range p.inflight {
		j.cancel()
		delete(p.inflight, key)
	}
	p.mu.Unlock()
	p.cache.InvalidateAll()
}

// Close cancels all in-flight work, waits for workers to exit, and closes
// the notification queue. Request fails with ErrClosed afterwards.
func (p *Processor) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	for key, j := range p.inflight {
		j.cancel()
		delete(p.inflight, key)
	}
	p.mu.Unlock()
	p.wg.Wait()
	close(p.notes)
}

func (p *Processor) run(ctx context.Context, doc *raster.Document, key raster.PageKey, j *job) {
	defer p.wg.Done()
	defer func() {
		p.mu.Lock()
		if p.inflight[key] == j {
			delete(p.inflight, key)
		}
		p.mu.Unlock()
	}()

	if err := p.sem.Acquire(ctx, 1); err != nil {
		j.handle.complete(nil, ErrCanceled)
		return
	}
	defer p.sem.Release(1)

	log := p.log.With(
		observability.Int("page", key.Page),
		observability.Float64("dpi", key.DPI),
		observability.String("job", j.handle.ID()),
	)

	img, ok := p.raster(ctx, doc, key, j, log)
	if !ok {
		return
	}

	// Cancellation checkpoint between stages: recognition is the expensive
	// half and must not start for a page nobody wants anymore.
	if ctx.Err() != nil {
		j.handle.complete(nil, ErrCanceled)
		return
	}
	if !p.cache.StartRecognizing(key, j.gen) {
		j.handle.complete(nil, ErrCanceled)
		return
	}
	p.notify(Notification{Key: key, State: pagecache.StateRecognizing})

	p.recognize(ctx, key, img, j, log)
}

func (p *Processor) raster(ctx context.Context, doc *raster.Document, key raster.PageKey, j *job, log observability.Logger) (*raster.RasterImage, bool) {
	p.notify(Notification{Key: key, State: pagecache.StateRastering})

	start := time.Now()
	spanCtx, span := p.tracer.StartSpan(ctx, "pipeline.raster")
	img, err := p.renderer.Render(spanCtx, doc, key)
	span.SetError(err)
	span.Finish()

	if ctx.Err() != nil {
		p.metrics.ObserveStage(observability.StageRaster, observability.OutcomeCanceled, time.Since(start))
		j.handle.complete(nil, ErrCanceled)
		return nil, false
	}
	if err != nil {
		p.metrics.ObserveStage(observability.StageRaster, observability.OutcomeFailed, time.Since(start))
		p.fail(key, j, err, log)
		return nil, false
	}
	p.metrics.ObserveStage(observability.StageRaster, observability.OutcomeOK, time.Since(start))

	if !p.cache.StoreImage(key, j.gen, img) {
		// Invalidated while rendering; the image is stale, drop it.
		j.handle.complete(nil, ErrCanceled)
		return nil, false
	}
	p.notify(Notification{Key: key, State: pagecache.StateRastered})
	log.Debug("page rastered", observability.Duration("took", time.Since(start)))
	return img, true
}

func (p *Processor) recognize(ctx context.Context, key raster.PageKey, img *raster.RasterImage, j *job, log observability.Logger) {
	start := time.Now()
	spanCtx, span := p.tracer.StartSpan(ctx, "pipeline.recognize")
	p.engineMu.Lock()
	res, err := p.engine.Recognize(spanCtx, ocr.NewRequest(img))
	p.engineMu.Unlock()
	span.SetError(err)
	span.Finish()

	if ctx.Err() != nil {
		p.metrics.ObserveStage(observability.StageRecognize, observability.OutcomeCanceled, time.Since(start))
		j.handle.complete(nil, ErrCanceled)
		return
	}
	if err != nil {
		p.metrics.ObserveStage(observability.StageRecognize, observability.OutcomeFailed, time.Since(start))
		p.fail(key, j, err, log)
		return
	}
	p.metrics.ObserveStage(observability.StageRecognize, observability.OutcomeOK, time.Since(start))

	res.Key = key
	if res.CompletedAt.IsZero() {
		res.CompletedAt = time.Now()
	}
	if !p.cache.StoreResult(key, j.gen, &res) {
		// Canceled or invalidated while the engine ran; the late result
		// must not resurrect the entry.
		j.handle.complete(nil, ErrCanceled)
		return
	}
	log.Debug("page ready",
		observability.Int("tokens", len(res.Tokens)),
		observability.String("status", string(res.Status)),
		observability.Duration("took", time.Since(start)))
	p.notify(Notification{Key: key, State: pagecache.StateReady, Result: &res})
	j.handle.complete(&res, nil)
}

// fail marks the entry Failed with a taxonomy reason and completes the
// handle. The failure is contained to this key; no retry is scheduled.
func (p *Processor) fail(key raster.PageKey, j *job, err error, log observability.Logger) {
	if p.cache.Fail(key, j.gen, failureReason(err)) {
		p.notify(Notification{Key: key, State: pagecache.StateFailed, Err: err})
	}
	log.Error("page processing failed", observability.Error("err", err))
	j.handle.complete(nil, err)
}

func failureReason(err error) string {
	var decodeErr *raster.DecodeError
	if errors.As(err, &decodeErr) {
		return decodeErr.Reason
	}
	var engineErr *ocr.EngineError
	if errors.As(err, &engineErr) {
		return "engine-error"
	}
	return err.Error()
}

// notify enqueues without blocking a worker: when the queue is full the
// notification is dropped and counted, the cache state stays authoritative.
func (p *Processor) notify(n Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	select {
	case p.notes <- n:
	default:
		p.metrics.IncNotificationsDropped()
		p.log.Warn("notification queue full",
			observability.Int("page", n.Key.Page),
			observability.String("state", n.State.String()))
	}
}
