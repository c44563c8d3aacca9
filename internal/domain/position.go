package domain

// NodePosition is a persisted coordinate override for one node
type NodePosition struct {
	NodeID ID      `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// NewNodePosition creates a new node position
func NewNodePosition(nodeID ID, x, y float64) *NodePosition {
	return &NodePosition{
		NodeID: nodeID,
		X:      x,
		Y:      y,
	}
}

// Point returns the position as a canvas point
func (p NodePosition) Point() Point {
	return Point{X: p.X, Y: p.Y}
}
