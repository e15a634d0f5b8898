package pagecache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/KunalKalawant/Engineering-Drawing/ocr"
	"github.com/KunalKalawant/Engineering-Drawing/raster"
)

func key(page int) raster.PageKey { return raster.PageKey{Page: page, DPI: 150} }

func TestGetOrCreate(t *testing.T) {
	c := New(4)
	v := c.GetOrCreate(key(0))
	if v.State != StateEmpty {
		t.Fatalf("state = %v, want empty", v.State)
	}
	if c.Len() != 1 {
		t.Fatalf("Len() = %d", c.Len())
	}
	// Same key maps to the same entry.
	c.GetOrCreate(key(0))
	if c.Len() != 1 {
		t.Fatalf("Len() after repeat = %d", c.Len())
	}
	// Different resolution is a different entry.
	c.GetOrCreate(raster.PageKey{Page: 0, DPI: 300})
	if c.Len() != 2 {
		t.Fatalf("Len() with second resolution = %d", c.Len())
	}
}

func TestFullLifecycle(t *testing.T) {
	c := New(4)
	k := key(0)
	gen, ok := c.StartRastering(k)
	if !ok {
		t.Fatal("StartRastering refused on empty entry")
	}

	img := &raster.RasterImage{Key: k, Width: 10, Height: 10}
	if !c.StoreImage(k, gen, img) {
		t.Fatal("StoreImage refused")
	}
	if v, _ := c.Lookup(k); v.State != StateRastered || v.Image != img {
		t.Fatalf("after StoreImage: %+v", v)
	}

	if !c.StartRecognizing(k, gen) {
		t.Fatal("StartRecognizing refused")
	}
	res := &ocr.RecognitionResult{Key: k, Status: ocr.StatusSuccess}
	if !c.StoreResult(k, gen, res) {
		t.Fatal("StoreResult refused")
	}
	v, _ := c.Lookup(k)
	if v.State != StateReady || v.Result != res {
		t.Fatalf("after StoreResult: %+v", v)
	}
}

func TestForwardOnlyTransitions(t *testing.T) {
	c := New(4)
	k := key(0)
	gen, _ := c.StartRastering(k)

	// A second start on an in-flight entry must be refused.
	if _, ok := c.StartRastering(k); ok {
		t.Fatal("duplicate StartRastering allowed")
	}
	// Recognizing before the image is stored must be refused.
	if c.StartRecognizing(k, gen) {
		t.Fatal("StartRecognizing allowed from Rastering")
	}
	// Storing a result without recognizing must be refused.
	if c.StoreResult(k, gen, &ocr.RecognitionResult{}) {
		t.Fatal("StoreResult allowed from Rastering")
	}

	c.StoreImage(k, gen, &raster.RasterImage{})
	c.StartRecognizing(k, gen)
	c.StoreResult(k, gen, &ocr.RecognitionResult{})

	// Ready → Rastering requires invalidation first.
	if _, ok := c.StartRastering(k); ok {
		t.Fatal("StartRastering allowed on Ready entry without invalidation")
	}
	c.Invalidate(k)
	if _, ok := c.StartRastering(k); !ok {
		t.Fatal("StartRastering refused after Invalidate")
	}
}

func TestInvalidateDiscardsLateResults(t *testing.T) {
	c := New(4)
	k := key(0)
	gen, _ := c.StartRastering(k)
	c.StoreImage(k, gen, &raster.RasterImage{})
	c.StartRecognizing(k, gen)

	c.Invalidate(k)
	if v, _ := c.Lookup(k); v.State != StateEmpty || v.Image != nil || v.Result != nil {
		t.Fatalf("after Invalidate: %+v", v)
	}

	// The in-flight job finishes late; its result must not resurrect the
	// entry.
	if c.StoreResult(k, gen, &ocr.RecognitionResult{}) {
		t.Fatal("stale StoreResult accepted")
	}
	if c.Fail(k, gen, "late failure") {
		t.Fatal("stale Fail accepted")
	}
	if v, _ := c.Lookup(k); v.State != StateEmpty {
		t.Fatalf("entry resurrected: %v", v.State)
	}
}

func TestFail(t *testing.T) {
	c := New(4)
	k := key(0)
	gen, _ := c.StartRastering(k)
	if !c.Fail(k, gen, raster.ReasonDecode) {
		t.Fatal("Fail refused on rastering entry")
	}
	v, _ := c.Lookup(k)
	if v.State != StateFailed || v.Reason != raster.ReasonDecode {
		t.Fatalf("after Fail: %+v", v)
	}
	// A user re-request restarts a failed entry.
	if _, ok := c.StartRastering(k); !ok {
		t.Fatal("StartRastering refused on failed entry")
	}
}

func TestEvictionKeepsCapacity(t *testing.T) {
	c := New(3)
	for i := 0; i < 6; i++ {
		c.GetOrCreate(key(i))
	}
	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}
	// Oldest entries were evicted.
	for i := 0; i < 3; i++ {
		if _, ok := c.Lookup(key(i)); ok {
			t.Fatalf("page %d should have been evicted", i)
		}
	}
	for i := 3; i < 6; i++ {
		if _, ok := c.Lookup(key(i)); !ok {
			t.Fatalf("page %d missing", i)
		}
	}
}

func TestTouchChangesEvictionOrder(t *testing.T) {
	c := New(3)
	for i := 0; i < 3; i++ {
		c.GetOrCreate(key(i))
	}
	c.Touch(key(0))
	c.GetOrCreate(key(3))
	if _, ok := c.Lookup(key(0)); !ok {
		t.Fatal("recently touched page 0 was evicted")
	}
	if _, ok := c.Lookup(key(1)); ok {
		t.Fatal("least recently touched page 1 survived")
	}
}

func TestEvictionSkipsActiveEntries(t *testing.T) {
	c := New(2)
	c.StartRastering(key(0))
	gen, _ := c.StartRastering(key(1))
	c.StoreImage(key(1), gen, &raster.RasterImage{})
	c.StartRecognizing(key(1), gen)

	// Both existing entries are active; adding a third may exceed capacity
	// but must not evict them.
	c.GetOrCreate(key(2))
	if _, ok := c.Lookup(key(0)); !ok {
		t.Fatal("rastering entry evicted")
	}
	if _, ok := c.Lookup(key(1)); !ok {
		t.Fatal("recognizing entry evicted")
	}

	// Once an active entry completes it becomes evictable again.
	c.StoreResult(key(1), gen, &ocr.RecognitionResult{})
	c.GetOrCreate(key(3))
	c.Touch(key(3))
	if c.Len() > 3 {
		t.Fatalf("Len() = %d after eviction pass", c.Len())
	}
}

func TestInvalidateAll(t *testing.T) {
	c := New(8)
	for i := 0; i < 3; i++ {
		gen, _ := c.StartRastering(key(i))
		c.StoreImage(key(i), gen, &raster.RasterImage{})
		c.StartRecognizing(key(i), gen)
		c.StoreResult(key(i), gen, &ocr.RecognitionResult{})
	}
	c.InvalidateAll()
	for i := 0; i < 3; i++ {
		v, ok := c.Lookup(key(i))
		if !ok || v.State != StateEmpty || v.Result != nil {
			t.Fatalf("page %d not reset: %+v", i, v)
		}
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New(16)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				k := key(i % 24)
				c.GetOrCreate(k)
				if gen, ok := c.StartRastering(k); ok {
					c.StoreImage(k, gen, &raster.RasterImage{})
					c.StartRecognizing(k, gen)
					c.StoreResult(k, gen, &ocr.RecognitionResult{})
				}
				c.Touch(k)
				if i%17 == 0 {
					c.Invalidate(k)
				}
			}
		}(g)
	}
	wg.Wait()
	if c.Len() > 16 {
		t.Fatalf("Len() = %d, want <= 16", c.Len())
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{
		StateEmpty:       "empty",
		StateRastering:   "rastering",
		StateRastered:    "rastered",
		StateRecognizing: "recognizing",
		StateReady:       "ready",
		StateFailed:      "failed",
		State(99):        "unknown",
	} {
		if got := s.String(); got != want {
			t.Fatalf("State(%d).String() = %q, want %q", s, got, want)
		}
	}
	_ = fmt.Sprintf("%v", StateReady)
}
