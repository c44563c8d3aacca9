package render

import "topomap/internal/domain"

// DefaultIcon is the icon key for unmapped node types
const DefaultIcon = "default"

// Styles are the lookup tables a render pass draws with
type Styles struct {
	Colors       map[string]string
	Widths       map[string]float64
	Icons        map[string]string
	DefaultColor string
	DefaultWidth float64
	LabelOffset  domain.Point
}

// DefaultStyles returns the stock tables
func DefaultStyles() Styles {
	return Styles{
		Colors: map[string]string{
			"Fibra":      "blue",
			"Eletrico":   "green",
			"Radio":      "orange",
			"Transporte": "brown",
		},
		Widths: map[string]float64{
			"10G":  3,
			"20G":  4,
			"40G":  5,
			"100G": 6,
		},
		Icons: map[string]string{
			"Transporte": "/img/icones/transporte.png",
			"Switch":     "/img/icones/switch.png",
			"Passivo":    "/img/icones/passivo.png",
			"Servidor":   "/img/icones/servidor.png",
			"VMWARE":     "/img/icones/vmware.png",
			"Olt":        "/img/icones/olt.png",
			DefaultIcon:  "/img/icones/default.png",
		},
		DefaultColor: "gray",
		DefaultWidth: 2,
		LabelOffset:  domain.Point{X: 40, Y: 5},
	}
}

// Merge returns s with every non-empty value of o layered on top
func (s Styles) Merge(o Styles) Styles {
	out := Styles{
		Colors:       mergeMap(s.Colors, o.Colors),
		Widths:       mergeMap(s.Widths, o.Widths),
		Icons:        mergeMap(s.Icons, o.Icons),
		DefaultColor: s.DefaultColor,
		DefaultWidth: s.DefaultWidth,
		LabelOffset:  s.LabelOffset,
	}
	if o.DefaultColor != "" {
		out.DefaultColor = o.DefaultColor
	}
	if o.DefaultWidth > 0 {
		out.DefaultWidth = o.DefaultWidth
	}
	if o.LabelOffset != (domain.Point{}) {
		out.LabelOffset = o.LabelOffset
	}
	return out
}

// Color maps a link type to its stroke color
func (s Styles) Color(linkType string) string {
	if c, ok := s.Colors[linkType]; ok {
		return c
	}
	return s.DefaultColor
}

// Width maps a link speed to its stroke width
func (s Styles) Width(speed string) float64 {
	if w, ok := s.Widths[speed]; ok {
		return w
	}
	return s.DefaultWidth
}

// Icon maps a node type to its icon, falling back to the default icon
func (s Styles) Icon(nodeType string) string {
	if icon, ok := s.Icons[nodeType]; ok {
		return icon
	}
	if icon, ok := s.Icons[DefaultIcon]; ok {
		return icon
	}
	return DefaultIcon
}

func mergeMap[V any](base, over map[string]V) map[string]V {
	out := make(map[string]V, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}
