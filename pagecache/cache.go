// Package pagecache keys rasterized pages and their recognition results by
// (page, resolution) so repeated views never re-trigger work. It is the only
// structure the pipeline mutates from multiple worker goroutines; every
// operation goes through the cache's internal lock.
package pagecache

import (
	"container/list"
	"sync"

	"github.com/KunalKalawant/Engineering-Drawing/ocr"
	"github.com/KunalKalawant/Engineering-Drawing/raster"
)

// State is the lifecycle position of a cache entry. Entries only move
// forward; Invalidate is the sole path back to Empty.
type State int

const (
	StateEmpty State = iota
	StateRastering
	StateRastered
	StateRecognizing
	StateReady
	StateFailed
)

var stateNames = [...]string{"empty", "rastering", "rastered", "recognizing", "ready", "failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Active reports whether the entry has in-flight work and must not be
// evicted.
func (s State) Active() bool { return s == StateRastering || s == StateRecognizing }

type entry struct {
	key    raster.PageKey
	state  State
	gen    uint64
	image  *raster.RasterImage
	result *ocr.RecognitionResult
	reason string
	elem   *list.Element
}

// View is a consistent read-only snapshot of one entry.
type View struct {
	Key    raster.PageKey
	State  State
	Gen    uint64
	Image  *raster.RasterImage
	Result *ocr.RecognitionResult
	Reason string
}

func (e *entry) view() View {
	return View{
		Key:    e.key,
		State:  e.state,
		Gen:    e.gen,
		Image:  e.image,
		Result: e.result,
		Reason: e.reason,
	}
}

// DefaultCapacity bounds the cache when no capacity is configured.
const DefaultCapacity = 32

// Cache is a bounded keyed store of page entries with least-recently-touched
// eviction. Safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	capacity int
	entries  map[raster.PageKey]*entry
	lru      *list.List // front = most recently touched
}

// New creates a cache bounded to capacity entries. Non-positive capacity
// falls back to DefaultCapacity.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[raster.PageKey]*entry),
		lru:      list.New(),
	}
}

// GetOrCreate returns a snapshot of the entry for key, creating an Empty one
// if absent. Never blocks on processing.
func (c *Cache) GetOrCreate(key raster.PageKey) View {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.getOrCreateLocked(key)
	c.lru.MoveToFront(e.elem)
	c.evictLocked()
	return e.view()
}

// Lookup returns a snapshot without creating or touching anything.
func (c *Cache) Lookup(key raster.PageKey) (View, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return View{}, false
	}
	return e.view(), true
}

// Touch marks key as most recently requested and runs an eviction pass.
func (c *Cache) Touch(key raster.PageKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		c.lru.MoveToFront(e.elem)
	}
	c.evictLocked()
}

// Len returns the current entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// StartRastering transitions Empty (or Failed, for a user re-request) to
// Rastering and returns the generation the job must tag its results with.
func (c *Cache) StartRastering(key raster.PageKey) (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.getOrCreateLocked(key)
	if e.state != StateEmpty && e.state != StateFailed {
		return 0, false
	}
	e.state = StateRastering
	e.image = nil
	e.result = nil
	e.reason = ""
	c.lru.MoveToFront(e.elem)
	return e.gen, true
}

// StoreImage transitions Rastering to Rastered. Results tagged with a stale
// generation are discarded and false is returned.
func (c *Cache) StoreImage(key raster.PageKey, gen uint64, img *raster.RasterImage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.gen != gen || e.state != StateRastering {
		return false
	}
	e.state = StateRastered
	e.image = img
	return true
}

// StartRecognizing transitions Rastered to Recognizing.
func (c *Cache) StartRecognizing(key raster.PageKey, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.gen != gen || e.state != StateRastered {
		return false
	}
	e.state = StateRecognizing
	return true
}

// StoreResult transitions Recognizing to Ready. Late results from canceled or
// invalidated jobs are discarded and false is returned.
func (c *Cache) StoreResult(key raster.PageKey, gen uint64, res *ocr.RecognitionResult) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.gen != gen || e.state != StateRecognizing {
		return false
	}
	e.state = StateReady
	e.result = res
	return true
}

// Fail moves an in-flight entry to Failed with the given reason.
func (c *Cache) Fail(key raster.PageKey, gen uint64, reason string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.gen != gen || !(e.state == StateRastering || e.state == StateRastered || e.state == StateRecognizing) {
		return false
	}
	e.state = StateFailed
	e.reason = reason
	e.image = nil
	e.result = nil
	return true
}

// Invalidate discards the entry's image and result and resets it to Empty.
// Safe while processing is in flight: the generation bump makes any late
// result a no-op on arrival.
func (c *Cache) Invalidate(key raster.PageKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		c.resetLocked(e)
	}
}

// InvalidateAll resets every entry, used when the document changes.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		c.resetLocked(e)
	}
}

func (c *Cache) resetLocked(e *entry) {
	e.state = StateEmpty
	e.gen++
	e.image = nil
	e.result = nil
	e.reason = ""
}

func (c *Cache) getOrCreateLocked(key raster.PageKey) *entry {
	if e, ok := c.entries[key]; ok {
		return e
	}
	e := &entry{key: key, state: StateEmpty}
	e.elem = c.lru.PushFront(key)
	c.entries[key] = e
	return e
}

// evictLocked removes least-recently-touched entries until the cache is at
// capacity, skipping entries with in-flight work. If every over-capacity
// entry is active the pass leaves the cache over capacity; that resolves as
// jobs finish and the next touch runs another pass.
func (c *Cache) evictLocked() {
	if len(c.entries) <= c.capacity {
		return
	}
	// The front entry is the one being requested right now; it is never a
	// candidate even when everything older is pinned by in-flight work.
	for el := c.lru.Back(); el != nil && el != c.lru.Front() && len(c.entries) > c.capacity; {
		prev := el.Prev()
		key := el.Value.(raster.PageKey)
		if e := c.entries[key]; e != nil && !e.state.Active() {
			c.lru.Remove(el)
			delete(c.entries, key)
		}
		el = prev
	}
}
