package render

import (
	"topomap/internal/domain"
	"topomap/internal/routing"
)

// SceneNode is one drawn piece of equipment
type SceneNode struct {
	ID       domain.ID    `json:"id" yaml:"id"`
	Name     string       `json:"name" yaml:"name"`
	Type     string       `json:"type" yaml:"type"`
	Status   string       `json:"status" yaml:"status"`
	Icon     string       `json:"icon" yaml:"icon"`
	Position domain.Point `json:"position" yaml:"position"`
	Placed   bool         `json:"placed" yaml:"placed"`
	Alarm    bool         `json:"alarm" yaml:"alarm"`
	Raised   bool         `json:"raised" yaml:"raised"`
}

// SceneEdge is one routed link
type SceneEdge struct {
	Key          string       `json:"key" yaml:"key"`
	Source       domain.ID    `json:"source" yaml:"source"`
	Target       domain.ID    `json:"target" yaml:"target"`
	Type         string       `json:"type" yaml:"type"`
	Speed        string       `json:"speed" yaml:"speed"`
	Color        string       `json:"color" yaml:"color"`
	Width        float64      `json:"width" yaml:"width"`
	Slot         routing.Slot `json:"-" yaml:"-"`
	Path         routing.Path `json:"path" yaml:"path"`
	D            string       `json:"d" yaml:"d"`
	SourcePort   string       `json:"source_port,omitempty" yaml:"source_port,omitempty"`
	TargetPort   string       `json:"target_port,omitempty" yaml:"target_port,omitempty"`
	SourcePortID domain.ID    `json:"source_port_id,omitempty" yaml:"source_port_id,omitempty"`
	Note         string       `json:"note,omitempty" yaml:"note,omitempty"`
	Ordinal      int          `json:"-" yaml:"-"`
}

// Link returns the link the edge was drawn from
func (e SceneEdge) Link() domain.Link {
	return domain.Link{
		Source:       e.Source,
		Target:       e.Target,
		Type:         e.Type,
		Speed:        e.Speed,
		SourcePort:   e.SourcePort,
		TargetPort:   e.TargetPort,
		SourcePortID: e.SourcePortID,
		Note:         e.Note,
		Ordinal:      e.Ordinal,
	}
}

// Label is the text drawn next to a node
type Label struct {
	NodeID   domain.ID    `json:"node_id" yaml:"node_id"`
	Text     string       `json:"text" yaml:"text"`
	Offset   domain.Point `json:"offset" yaml:"offset"`
	Position domain.Point `json:"position" yaml:"position"`
}

// Scene is the output of a render pass
type Scene struct {
	Tenant    domain.ID            `json:"tenant" yaml:"tenant"`
	Revision  uint64               `json:"revision" yaml:"revision"`
	Admin     bool                 `json:"admin" yaml:"admin"`
	Nodes     []SceneNode          `json:"nodes" yaml:"nodes"`
	Edges     []SceneEdge          `json:"edges" yaml:"edges"`
	Labels    []Label              `json:"labels" yaml:"labels"`
	Unplaced  []domain.ID          `json:"unplaced,omitempty" yaml:"unplaced,omitempty"`
	Deferred  []string             `json:"deferred,omitempty" yaml:"deferred,omitempty"`
	Transform domain.ViewTransform `json:"transform" yaml:"transform"`
}

// EmptyScene is the scene of an unselected tenant
func EmptyScene(transform domain.ViewTransform) *Scene {
	return &Scene{
		Nodes:     []SceneNode{},
		Edges:     []SceneEdge{},
		Labels:    []Label{},
		Transform: transform,
	}
}

// Node finds a scene node by ID
func (s *Scene) Node(id domain.ID) (*SceneNode, bool) {
	for i := range s.Nodes {
		if s.Nodes[i].ID == id {
			return &s.Nodes[i], true
		}
	}
	return nil, false
}

// Edge finds a scene edge by link key
func (s *Scene) Edge(key string) (*SceneEdge, bool) {
	for i := range s.Edges {
		if s.Edges[i].Key == key {
			return &s.Edges[i], true
		}
	}
	return nil, false
}

// Label finds the label of a node
func (s *Scene) Label(id domain.ID) (*Label, bool) {
	for i := range s.Labels {
		if s.Labels[i].NodeID == id {
			return &s.Labels[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy safe to hand to another goroutine
func (s *Scene) Clone() *Scene {
	out := *s
	out.Nodes = append([]SceneNode(nil), s.Nodes...)
	out.Edges = append([]SceneEdge(nil), s.Edges...)
	out.Labels = append([]Label(nil), s.Labels...)
	out.Unplaced = append([]domain.ID(nil), s.Unplaced...)
	out.Deferred = append([]string(nil), s.Deferred...)
	if out.Nodes == nil {
		out.Nodes = []SceneNode{}
	}
	if out.Edges == nil {
		out.Edges = []SceneEdge{}
	}
	if out.Labels == nil {
		out.Labels = []Label{}
	}
	return &out
}
