package domain

// ViewTransform is the pan/zoom applied to the whole scene group.
// X and Y are the translation, K the scale factor.
type ViewTransform struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	K float64 `json:"k" yaml:"k"`
}

// IdentityTransform returns the transform with no pan and unit scale
func IdentityTransform() ViewTransform {
	return ViewTransform{K: 1}
}

// Apply maps a scene coordinate to a viewport coordinate
func (t ViewTransform) Apply(p Point) Point {
	return Point{X: p.X*t.K + t.X, Y: p.Y*t.K + t.Y}
}

// Invert maps a viewport coordinate back to a scene coordinate
func (t ViewTransform) Invert(p Point) Point {
	if t.K == 0 {
		return p
	}
	return Point{X: (p.X - t.X) / t.K, Y: (p.Y - t.Y) / t.K}
}

// ScaleAbout returns the transform scaled to k while keeping the scene
// point under the viewport coordinate c fixed.
func (t ViewTransform) ScaleAbout(k float64, c Point) ViewTransform {
	anchor := t.Invert(c)
	return ViewTransform{
		X: c.X - anchor.X*k,
		Y: c.Y - anchor.Y*k,
		K: k,
	}
}
