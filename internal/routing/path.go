package routing

import (
	"math"
	"strconv"
	"strings"

	"topomap/internal/domain"
)

// PathKind distinguishes straight segments from curves
type PathKind string

const (
	Straight PathKind = "line"
	Curve    PathKind = "quadratic"
)

// Path is a routed link geometry
type Path struct {
	Kind    PathKind     `json:"kind" yaml:"kind"`
	From    domain.Point `json:"from" yaml:"from"`
	To      domain.Point `json:"to" yaml:"to"`
	Control domain.Point `json:"control" yaml:"control"`
}

// D returns the path as SVG path data
func (p Path) D() string {
	var sb strings.Builder
	sb.WriteString("M ")
	writePoint(&sb, p.From)
	if p.Kind == Curve {
		sb.WriteString(" Q ")
		writePoint(&sb, p.Control)
		sb.WriteString(" ")
	} else {
		sb.WriteString(" L ")
	}
	writePoint(&sb, p.To)
	return sb.String()
}

// Midpoint returns the visual middle of the path
func (p Path) Midpoint() domain.Point {
	mid := p.From.Midpoint(p.To)
	if p.Kind != Curve {
		return mid
	}
	// quadratic bezier at t=0.5
	return mid.Scale(0.5).Add(p.Control.Scale(0.5))
}

func writePoint(sb *strings.Builder, pt domain.Point) {
	sb.WriteString(formatCoord(pt.X))
	sb.WriteByte(',')
	sb.WriteString(formatCoord(pt.Y))
}

func formatCoord(v float64) string {
	// two decimals is below screen resolution
	r := math.Round(v*100) / 100
	if r == 0 {
		r = 0 // drop negative zero
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
