package routing

import (
	"math"

	"topomap/internal/domain"
)

const (
	// BaseOffset is the control point offset of the first two curves
	BaseOffset = 5.0
	// OffsetStep widens each further pair of curves
	OffsetStep = 10.0
)

// Offset returns the signed perpendicular control offset for a curve
// index: +5, -5, +15, -15, +25, ...
func Offset(index int) float64 {
	magnitude := float64(index/2)*OffsetStep + BaseOffset
	if index%2 == 1 {
		return -magnitude
	}
	return magnitude
}

// Route computes the path of link from its source coordinate to its
// target coordinate. The normal is taken in the pair's canonical
// orientation so links reported in opposite directions still land on
// distinct sides.
func Route(slot Slot, link domain.Link, from, to domain.Point) Path {
	if !slot.Curved() {
		return Path{Kind: Straight, From: from, To: to}
	}

	// canonical direction runs from Key.A to Key.B
	dir := to.Sub(from)
	if link.Source != slot.Key.A {
		dir = from.Sub(to)
	}

	normal := domain.Point{X: 0, Y: 1}
	if length := math.Hypot(dir.X, dir.Y); length > 0 {
		normal = domain.Point{X: -dir.Y / length, Y: dir.X / length}
	}

	control := from.Midpoint(to).Add(normal.Scale(Offset(slot.Index)))
	return Path{Kind: Curve, From: from, To: to, Control: control}
}
