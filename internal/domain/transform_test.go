package domain

import (
	"math"
	"testing"
)

func TestViewTransformInvert(t *testing.T) {
	tr := ViewTransform{X: 30, Y: -10, K: 2}
	p := Point{X: 12, Y: 7}

	got := tr.Invert(tr.Apply(p))
	if math.Abs(got.X-p.X) > 1e-9 || math.Abs(got.Y-p.Y) > 1e-9 {
		t.Errorf("expected %+v, got %+v", p, got)
	}
}

func TestViewTransformScaleAbout(t *testing.T) {
	t.Run("keeps the anchor fixed", func(t *testing.T) {
		tr := IdentityTransform()
		center := Point{X: 400, Y: 300}

		scaled := tr.ScaleAbout(2, center)

		if scaled.K != 2 {
			t.Errorf("expected K=2, got %f", scaled.K)
		}
		if got := scaled.Apply(tr.Invert(center)); got != center {
			t.Errorf("expected anchor to stay at %+v, got %+v", center, got)
		}
	})

	t.Run("zero scale inverts to identity", func(t *testing.T) {
		tr := ViewTransform{}
		p := Point{X: 3, Y: 4}
		if tr.Invert(p) != p {
			t.Error("expected zero-scale transform to leave the point unchanged")
		}
	})
}

func TestSizeCenter(t *testing.T) {
	if (Size{Width: 800, Height: 600}).Center() != (Point{X: 400, Y: 300}) {
		t.Error("expected centre at (400, 300)")
	}
}
