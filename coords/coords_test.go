package coords

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestScaleThenTranslate(t *testing.T) {
	m := Scale(2, 2).Multiply(Translate(10, 20))
	got := m.Transform(Point{X: 3, Y: 4})
	if !almostEqual(got.X, 16) || !almostEqual(got.Y, 28) {
		t.Fatalf("Transform() = %+v, want (16, 28)", got)
	}
}

func TestInverseRoundTrip(t *testing.T) {
	m := Scale(0.48, 0.48).Multiply(Translate(36, 72))
	inv, err := m.Inverse()
	if err != nil {
		t.Fatalf("Inverse() error = %v", err)
	}
	p := Point{X: 123.5, Y: 456.25}
	back := inv.Transform(m.Transform(p))
	if !almostEqual(back.X, p.X) || !almostEqual(back.Y, p.Y) {
		t.Fatalf("round trip = %+v, want %+v", back, p)
	}
}

func TestInverseSingular(t *testing.T) {
	if _, err := Scale(0, 0).Inverse(); err == nil {
		t.Fatal("expected error for singular matrix")
	}
}

func TestRectIntersect(t *testing.T) {
	tests := []struct {
		name string
		a, b Rect
		want Rect
	}{
		{
			name: "partial overlap",
			a:    Rect{X: 0, Y: 0, Width: 10, Height: 10},
			b:    Rect{X: 5, Y: 5, Width: 10, Height: 10},
			want: Rect{X: 5, Y: 5, Width: 5, Height: 5},
		},
		{
			name: "disjoint",
			a:    Rect{X: 0, Y: 0, Width: 4, Height: 4},
			b:    Rect{X: 10, Y: 10, Width: 4, Height: 4},
			want: Rect{},
		},
		{
			name: "contained",
			a:    Rect{X: 0, Y: 0, Width: 10, Height: 10},
			b:    Rect{X: 2, Y: 2, Width: 3, Height: 3},
			want: Rect{X: 2, Y: 2, Width: 3, Height: 3},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Intersect(tt.b); got != tt.want {
				t.Fatalf("Intersect() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestOverlapRatio(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	b := Rect{X: 5, Y: 0, Width: 10, Height: 10}
	if got := a.OverlapRatio(b); !almostEqual(got, 0.5) {
		t.Fatalf("OverlapRatio() = %v, want 0.5", got)
	}
	small := Rect{X: 1, Y: 1, Width: 2, Height: 2}
	if got := a.OverlapRatio(small); !almostEqual(got, 1) {
		t.Fatalf("contained OverlapRatio() = %v, want 1", got)
	}
	if got := a.OverlapRatio(Rect{}); got != 0 {
		t.Fatalf("empty OverlapRatio() = %v, want 0", got)
	}
}

func TestTransformRect(t *testing.T) {
	m := Scale(0.5, 0.5)
	got := m.TransformRect(Rect{X: 10, Y: 20, Width: 40, Height: 80})
	want := Rect{X: 5, Y: 10, Width: 20, Height: 40}
	if got != want {
		t.Fatalf("TransformRect() = %+v, want %+v", got, want)
	}
}
