// Package render turns the topology store into a drawable scene.
//
// A full pass rebuilds the scene from scratch and regroups every link.
// Between passes Reroute and Relocate patch the scene for a single moved
// node using the grouping of the last full pass.
package render

import (
	"topomap/internal/domain"
	"topomap/internal/routing"
	"topomap/internal/topology"
)

// Placer assigns coordinates to nodes that have none. Nodes it leaves
// without a position are reported as unplaced.
type Placer interface {
	Place(nodes []*domain.Node)
}

// Input is the view state a pass is drawn for
type Input struct {
	Tenant    domain.ID
	Transform domain.ViewTransform
	// Raised is the node being dragged, if any
	Raised domain.ID
}

// Renderer produces scenes from a store
type Renderer struct {
	store  *topology.Store
	styles Styles
	placer Placer

	scene    *Scene
	nodes    map[domain.ID]*domain.Node
	links    []domain.Link
	grouping routing.Grouping
	// edgeAt maps a link index to its position in scene.Edges
	edgeAt map[int]int
}

// Option configures a Renderer
type Option func(*Renderer)

// WithPlacer sets the fallback layout for unpositioned nodes
func WithPlacer(p Placer) Option {
	return func(r *Renderer) {
		r.placer = p
	}
}

// New creates a renderer over store
func New(store *topology.Store, styles Styles, opts ...Option) *Renderer {
	r := &Renderer{
		store:  store,
		styles: styles,
		scene:  EmptyScene(domain.IdentityTransform()),
		nodes:  make(map[domain.ID]*domain.Node),
		edgeAt: make(map[int]int),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Styles returns the lookup tables in use
func (r *Renderer) Styles() Styles {
	return r.styles
}

// Scene returns the scene of the last pass
func (r *Renderer) Scene() *Scene {
	return r.scene
}

// Render runs a full pass. The previous scene is discarded; the transform
// is carried from in, never reset here.
func (r *Renderer) Render(in Input) *Scene {
	scene := EmptyScene(in.Transform)
	scene.Tenant = in.Tenant
	scene.Revision = r.store.Revision()
	scene.Admin = r.store.Admin()

	visible := r.visibleNodes(in.Tenant)
	if r.placer != nil {
		r.placer.Place(unpositioned(visible))
	}

	r.nodes = make(map[domain.ID]*domain.Node, len(visible))
	for _, n := range visible {
		r.nodes[n.ID] = n
		scene.Nodes = append(scene.Nodes, r.sceneNode(n, in.Raised))
		scene.Labels = append(scene.Labels, r.label(n))
		if !n.HasPosition() {
			scene.Unplaced = append(scene.Unplaced, n.ID)
		}
	}

	r.links = routing.Filter(routing.NewNodeSet(visible), r.store.Links())
	r.grouping = routing.Group(r.links)
	r.edgeAt = make(map[int]int, len(r.links))

	for i, link := range r.links {
		edge, ok := r.route(i, link)
		if !ok {
			scene.Deferred = append(scene.Deferred, link.Key())
			continue
		}
		r.edgeAt[i] = len(scene.Edges)
		scene.Edges = append(scene.Edges, edge)
	}

	r.scene = scene
	return scene
}

// Reroute recomputes the edges incident to a node from its current
// coordinate and returns them. Grouping is not recomputed.
func (r *Renderer) Reroute(nodeID domain.ID) []SceneEdge {
	var updated []SceneEdge
	for _, i := range routing.Incident(r.links, nodeID) {
		edge, ok := r.route(i, r.links[i])
		if !ok {
			continue
		}
		if at, drawn := r.edgeAt[i]; drawn {
			r.scene.Edges[at] = edge
		} else {
			r.edgeAt[i] = len(r.scene.Edges)
			r.scene.Edges = append(r.scene.Edges, edge)
			r.scene.Deferred = removeString(r.scene.Deferred, edge.Key)
		}
		updated = append(updated, edge)
	}
	return updated
}

// Relocate refreshes the scene node and label of a moved node
func (r *Renderer) Relocate(nodeID domain.ID) (SceneNode, Label, bool) {
	n, ok := r.nodes[nodeID]
	if !ok {
		return SceneNode{}, Label{}, false
	}
	sn, _ := r.scene.Node(nodeID)
	raised := sn != nil && sn.Raised
	node := r.sceneNode(n, "")
	node.Raised = raised
	label := r.label(n)

	if sn != nil {
		*sn = node
	}
	if l, ok := r.scene.Label(nodeID); ok {
		*l = label
	}
	if node.Placed {
		r.scene.Unplaced = removeID(r.scene.Unplaced, nodeID)
	}
	return node, label, true
}

// SetRaised marks one node as raised and clears the flag everywhere else.
// An empty ID clears it for all nodes.
func (r *Renderer) SetRaised(nodeID domain.ID) {
	for i := range r.scene.Nodes {
		r.scene.Nodes[i].Raised = r.scene.Nodes[i].ID == nodeID
	}
}

// SetTransform records the transform on the current scene
func (r *Renderer) SetTransform(t domain.ViewTransform) {
	r.scene.Transform = t
}

// Visible reports whether a node was drawn by the last pass
func (r *Renderer) Visible(nodeID domain.ID) bool {
	_, ok := r.nodes[nodeID]
	return ok
}

// Edge returns a drawn edge by key
func (r *Renderer) Edge(key string) (SceneEdge, bool) {
	e, ok := r.scene.Edge(key)
	if !ok {
		return SceneEdge{}, false
	}
	return *e, true
}

func (r *Renderer) visibleNodes(tenant domain.ID) []*domain.Node {
	all := r.store.Nodes()
	out := make([]*domain.Node, 0, len(all))
	for _, n := range all {
		if !tenant.IsZero() && !n.Tenant.IsZero() && n.Tenant != tenant {
			continue
		}
		out = append(out, n)
	}
	return out
}

func (r *Renderer) route(i int, link domain.Link) (SceneEdge, bool) {
	src, ok := r.nodes[link.Source]
	if !ok || !src.HasPosition() {
		return SceneEdge{}, false
	}
	dst, ok := r.nodes[link.Target]
	if !ok || !dst.HasPosition() {
		return SceneEdge{}, false
	}

	slot := r.grouping.Slots[i]
	path := routing.Route(slot, link, *src.Position, *dst.Position)
	return SceneEdge{
		Key:          link.Key(),
		Source:       link.Source,
		Target:       link.Target,
		Type:         link.Type,
		Speed:        link.Speed,
		Color:        r.styles.Color(link.Type),
		Width:        r.styles.Width(link.Speed),
		Slot:         slot,
		Path:         path,
		D:            path.D(),
		SourcePort:   link.SourcePort,
		TargetPort:   link.TargetPort,
		SourcePortID: link.SourcePortID,
		Note:         link.Note,
		Ordinal:      link.Ordinal,
	}, true
}

func (r *Renderer) sceneNode(n *domain.Node, raised domain.ID) SceneNode {
	sn := SceneNode{
		ID:     n.ID,
		Name:   n.Name,
		Type:   n.Type,
		Status: n.Status,
		Icon:   r.styles.Icon(n.Type),
		Placed: n.HasPosition(),
		Alarm:  !n.IsActive(),
		Raised: !raised.IsZero() && n.ID == raised,
	}
	if n.HasPosition() {
		sn.Position = *n.Position
	}
	return sn
}

func (r *Renderer) label(n *domain.Node) Label {
	l := Label{NodeID: n.ID, Text: n.Name, Offset: r.styles.LabelOffset}
	if n.HasPosition() {
		l.Position = n.Position.Add(r.styles.LabelOffset)
	}
	return l
}

func unpositioned(nodes []*domain.Node) []*domain.Node {
	var out []*domain.Node
	for _, n := range nodes {
		if !n.HasPosition() {
			out = append(out, n)
		}
	}
	return out
}

func removeString(items []string, value string) []string {
	out := items[:0]
	for _, item := range items {
		if item != value {
			out = append(out, item)
		}
	}
	return out
}

func removeID(items []domain.ID, value domain.ID) []domain.ID {
	out := items[:0]
	for _, item := range items {
		if item != value {
			out = append(out, item)
		}
	}
	return out
}
