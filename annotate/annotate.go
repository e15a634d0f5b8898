// Package annotate projects recognition tokens into document coordinates
// and maintains the user-editable annotation records built from them.
package annotate

import (
	"sort"

	"github.com/KunalKalawant/Engineering-Drawing/coords"
	"github.com/KunalKalawant/Engineering-Drawing/ocr"
)

// DocumentDPI is the resolution of document space. Page geometry is
// expressed in points, 72 per inch, regardless of the raster resolution.
const DocumentDPI = 72.0

// DefaultOverlapThreshold is the minimum bounding-box overlap ratio for a
// new token to be considered the same physical field as an old record.
const DefaultOverlapThreshold = 0.5

// Record is the user-facing projection of a recognized token, or a field
// the user added by hand. FieldName and Text are editable; once
// ManualOverride is set the record is never touched by re-recognition.
type Record struct {
	Page           int
	Balloon        int
	FieldName      string
	Text           string
	Confidence     float64
	Bounds         coords.Rect
	ManualOverride bool
}

// Mapper converts recognition results into Records and merges fresh
// results into an existing record set.
type Mapper struct {
	origin  coords.Point
	overlap float64
}

// MapperOption configures a Mapper.
type MapperOption func(*Mapper)

// WithOrigin sets the document-space position of the page's top-left
// corner. Zero by default; a viewer laying out pages vertically passes
// each page's offset here.
func WithOrigin(p coords.Point) MapperOption {
	return func(m *Mapper) { m.origin = p }
}

// WithOverlapThreshold overrides the match threshold used by Merge.
// Values outside (0, 1] fall back to the default.
func WithOverlapThreshold(t float64) MapperOption {
	return func(m *Mapper) {
		if t > 0 && t <= 1 {
			m.overlap = t
		}
	}
}

func NewMapper(opts ...MapperOption) *Mapper {
	m := &Mapper{overlap: DefaultOverlapThreshold}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Project converts every token of a recognition result into a Record in
// document space. The transform is built from the resolution the page was
// rastered at, so tokens from any DPI land on the same page geometry.
// Balloons are numbered sequentially from startBalloon in token order.
func (m *Mapper) Project(res *ocr.RecognitionResult, startBalloon int) []Record {
	if res == nil || len(res.Tokens) == 0 {
		return nil
	}
	s := DocumentDPI / res.Key.DPI
	mtx := coords.Scale(s, s).Multiply(coords.Translate(m.origin.X, m.origin.Y))

	records := make([]Record, 0, len(res.Tokens))
	for i, tok := range res.Tokens {
		records = append(records, Record{
			Page:       res.Key.Page,
			Balloon:    startBalloon + i,
			FieldName:  "",
			Text:       tok.Text,
			Confidence: tok.Confidence,
			Bounds:     mtx.TransformRect(tok.Bounds),
		})
	}
	return records
}

// Merge folds a fresh set of records into an existing one.
//
// Manual records survive verbatim. A fresh record whose bounds overlap an
// old record by at least the threshold is the same physical field: it
// inherits the old record's field name and balloon, or is dropped entirely
// when the old record is manual. Fresh records matching nothing get new
// balloon numbers past the highest surviving one. Old non-manual records
// matching nothing are replaced, which here means discarded.
//
// Matching is by best overlap, not positional index, because
// re-recognition may reorder tokens.
func (m *Mapper) Merge(existing, incoming []Record) []Record {
	matched := make(map[int]int, len(incoming)) // incoming index -> existing index
	taken := make(map[int]bool, len(existing))

	for i, in := range incoming {
		best, bestRatio := -1, 0.0
		for j, old := range existing {
			if taken[j] || old.Page != in.Page {
				continue
			}
			if r := in.Bounds.OverlapRatio(old.Bounds); r >= m.overlap && r > bestRatio {
				best, bestRatio = j, r
			}
		}
		if best >= 0 {
			matched[i] = best
			taken[best] = true
		}
	}

	var out []Record
	maxBalloon := 0
	for j, old := range existing {
		if old.ManualOverride {
			out = append(out, old)
			if old.Balloon > maxBalloon {
				maxBalloon = old.Balloon
			}
			continue
		}
		if taken[j] {
			// Replaced below by the incoming record that matched it; its
			// balloon stays reserved.
			if old.Balloon > maxBalloon {
				maxBalloon = old.Balloon
			}
		}
	}

	for i, in := range incoming {
		j, ok := matched[i]
		if !ok {
			continue
		}
		old := existing[j]
		if old.ManualOverride {
			continue // protected, the fresh token is dropped
		}
		in.FieldName = old.FieldName
		in.Balloon = old.Balloon
		out = append(out, in)
	}

	for i, in := range incoming {
		if _, ok := matched[i]; ok {
			continue
		}
		maxBalloon++
		in.Balloon = maxBalloon
		out = append(out, in)
	}

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Page != out[b].Page {
			return out[a].Page < out[b].Page
		}
		return out[a].Balloon < out[b].Balloon
	})
	return out
}
