package codec

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"topomap/internal/domain"
	"topomap/internal/render"
)

// YAMLCodec handles YAML import/export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// yamlDocument represents the YAML structure of an export
type yamlDocument struct {
	Scene     *render.Scene  `yaml:"scene,omitempty"`
	Positions []yamlPosition `yaml:"positions,omitempty"`
}

type yamlPosition struct {
	ID domain.ID `yaml:"id"`
	X  float64   `yaml:"x"`
	Y  float64   `yaml:"y"`
}

// Parse reads a document from YAML. An empty stream yields an empty
// document.
func (c *YAMLCodec) Parse(r io.Reader) (*Document, error) {
	var yd yamlDocument
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&yd); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	doc := &Document{Scene: yd.Scene}
	for _, yp := range yd.Positions {
		doc.Positions = append(doc.Positions, domain.NodePosition{
			NodeID: domain.ParseID(yp.ID.String()),
			X:      yp.X,
			Y:      yp.Y,
		})
	}
	return doc, nil
}

// Export writes the document as YAML
func (c *YAMLCodec) Export(doc *Document, w io.Writer) error {
	yd := yamlDocument{
		Scene:     doc.Scene,
		Positions: make([]yamlPosition, 0, len(doc.Positions)),
	}
	for _, p := range doc.Positions {
		yd.Positions = append(yd.Positions, yamlPosition{ID: p.NodeID, X: p.X, Y: p.Y})
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&yd); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
