package domain

import "encoding/json"

// StatusActive is the nominal operational state. Any other status draws
// the alarm overlay.
const StatusActive = "Ativo"

// Node represents a piece of equipment on the diagram
type Node struct {
	ID     ID
	Name   string
	Type   string
	Status string
	Tenant ID

	// Position is nil until the snapshot, the position cache or a drag
	// gives the node a coordinate.
	Position *Point
}

// nodeJSON is the wire shape of a node
type nodeJSON struct {
	ID     ID       `json:"id"`
	Name   string   `json:"nome"`
	Type   string   `json:"tipo"`
	Status string   `json:"status"`
	Tenant ID       `json:"empresa"`
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
}

// UnmarshalJSON decodes the backend node shape. A node only gets a
// position when both x and y are present.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw nodeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*n = Node{
		ID:     raw.ID,
		Name:   raw.Name,
		Type:   raw.Type,
		Status: raw.Status,
		Tenant: raw.Tenant,
	}
	if raw.X != nil && raw.Y != nil {
		n.Position = &Point{X: *raw.X, Y: *raw.Y}
	}
	return nil
}

// MarshalJSON encodes the node in the backend shape
func (n Node) MarshalJSON() ([]byte, error) {
	raw := nodeJSON{
		ID:     n.ID,
		Name:   n.Name,
		Type:   n.Type,
		Status: n.Status,
		Tenant: n.Tenant,
	}
	if n.Position != nil {
		x, y := n.Position.X, n.Position.Y
		raw.X, raw.Y = &x, &y
	}
	return json.Marshal(raw)
}

// IsActive reports whether the node is in the nominal operational state
func (n *Node) IsActive() bool {
	return n.Status == StatusActive
}

// HasPosition reports whether the node has a coordinate
func (n *Node) HasPosition() bool {
	return n.Position != nil
}

// MoveTo sets the node coordinate
func (n *Node) MoveTo(p Point) {
	n.Position = &Point{X: p.X, Y: p.Y}
}

// Clone returns a deep copy of the node
func (n Node) Clone() Node {
	if n.Position != nil {
		p := *n.Position
		n.Position = &p
	}
	return n
}
