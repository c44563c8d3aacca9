// Package codec exports rendered scenes and saved node positions in the
// formats the command line offers, and imports positions back.
package codec

import (
	"fmt"
	"io"
	"sort"

	"topomap/internal/domain"
	"topomap/internal/render"
)

// Document is what gets exported: one tenant's scene and the position
// overrides currently saved. Either part may be empty.
type Document struct {
	Scene     *render.Scene         `json:"scene,omitempty"`
	Positions []domain.NodePosition `json:"positions,omitempty"`
}

// Importer interface for reading position overrides from various formats
type Importer interface {
	Parse(r io.Reader) (*Document, error)
	Format() string
}

// Exporter interface for writing documents to various formats
type Exporter interface {
	Export(doc *Document, w io.Writer) error
	Format() string
}

var exporters = map[string]Exporter{
	"json":  NewJSONCodec(),
	"yaml":  NewYAMLCodec(),
	"table": NewTableCodec(),
}

var importers = map[string]Importer{
	"json": NewJSONCodec(),
	"yaml": NewYAMLCodec(),
}

// ExporterFor returns the exporter registered for format
func ExporterFor(format string) (Exporter, error) {
	e, ok := exporters[format]
	if !ok {
		return nil, fmt.Errorf("unknown export format %q (supported: %v)", format, ExportFormats())
	}
	return e, nil
}

// ImporterFor returns the importer registered for format
func ImporterFor(format string) (Importer, error) {
	i, ok := importers[format]
	if !ok {
		return nil, fmt.Errorf("unknown import format %q (supported: json, yaml)", format)
	}
	return i, nil
}

// ExportFormats lists the export formats in name order
func ExportFormats() []string {
	out := make([]string, 0, len(exporters))
	for name := range exporters {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
