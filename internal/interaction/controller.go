// Package interaction implements the drag, zoom and selection state
// machine of a diagram.
//
// Drags move a node in the store and patch only the incident edges; the
// position cache is written when the drag ends. Clicks are dispatched to a
// Remote, which performs the network round trips.
package interaction

import (
	"context"
	"fmt"
	"math"
	"time"

	"topomap/internal/domain"
	"topomap/internal/layout"
	"topomap/internal/logging"
	"topomap/internal/render"
	"topomap/internal/service"
	"topomap/internal/topology"
	"topomap/internal/ui"
)

// Remote performs the data source work behind a gesture
type Remote interface {
	ShowEquipment(id domain.ID)
	BeginPortConnection(pc ui.PortConnection)
	LoadDestinationPorts(node domain.ID)
	SubmitConnection(sourcePort, targetPort domain.ID, note string)
	SubmitDisconnection(port domain.ID)
}

// Options bounds the zoom and the position save
type Options struct {
	MinZoom     float64
	MaxZoom     float64
	SaveTimeout time.Duration
}

// DefaultOptions returns the stock zoom range [0.5, 3]
func DefaultOptions() Options {
	return Options{MinZoom: 0.5, MaxZoom: 3, SaveTimeout: 5 * time.Second}
}

// State is a snapshot of the controller for inspection
type State struct {
	Dragging    bool                 `json:"dragging"`
	Active      domain.ID            `json:"active,omitempty"`
	Transform   domain.ViewTransform `json:"transform"`
	Connecting  bool                 `json:"connecting"`
	Source      domain.ID            `json:"source,omitempty"`
	Destination domain.ID            `json:"destination,omitempty"`
}

// selection is a port connection in progress
type selection struct {
	source      domain.ID
	destination domain.ID
}

// Controller owns the view transform and the drag state machine
type Controller struct {
	store    *topology.Store
	cache    *layout.Cache
	renderer *render.Renderer
	surface  ui.Surface
	remote   Remote
	bus      *service.EventBus
	opts     Options

	transform domain.ViewTransform
	active    domain.ID
	dragAt    domain.Point
	selection *selection
}

// New creates an idle controller with the identity transform
func New(store *topology.Store, cache *layout.Cache, renderer *render.Renderer, surface ui.Surface, bus *service.EventBus, opts Options) *Controller {
	if opts.MinZoom <= 0 {
		opts.MinZoom = DefaultOptions().MinZoom
	}
	if opts.MaxZoom < opts.MinZoom {
		opts.MaxZoom = opts.MinZoom
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = DefaultOptions().SaveTimeout
	}
	return &Controller{
		store:     store,
		cache:     cache,
		renderer:  renderer,
		surface:   surface,
		bus:       bus,
		opts:      opts,
		transform: domain.IdentityTransform(),
	}
}

// SetRemote attaches the gesture backend
func (c *Controller) SetRemote(remote Remote) {
	c.remote = remote
}

// State returns the current controller state
func (c *Controller) State() State {
	s := State{
		Dragging:  !c.active.IsZero(),
		Active:    c.active,
		Transform: c.transform,
	}
	if c.selection != nil {
		s.Connecting = true
		s.Source = c.selection.source
		s.Destination = c.selection.destination
	}
	return s
}

// Transform returns the current view transform
func (c *Controller) Transform() domain.ViewTransform {
	return c.transform
}

// Active returns the node being dragged, or the zero ID
func (c *Controller) Active() domain.ID {
	return c.active
}

// DragStart moves the controller from idle to dragging. It is ignored
// while another drag is active or when the node is not drawn.
func (c *Controller) DragStart(id domain.ID) bool {
	if !c.active.IsZero() || !c.renderer.Visible(id) {
		return false
	}
	node, ok := c.store.Node(id)
	if !ok || !node.HasPosition() {
		return false
	}

	c.active = id
	c.dragAt = *node.Position
	c.renderer.SetRaised(id)
	c.surface.RaiseNode(id, true)
	return true
}

// DragMove updates the dragged node and redraws its incident edges. Moves
// for any other node, or while idle, are ignored.
func (c *Controller) DragMove(id domain.ID, p domain.Point) bool {
	if c.active.IsZero() || id != c.active || !finite(p) {
		return false
	}
	node, ok := c.store.Node(id)
	if !ok {
		return false
	}

	node.MoveTo(p)
	c.dragAt = p

	sn, label, _ := c.renderer.Relocate(id)
	c.surface.MoveNode(ui.Move{Node: sn, Label: label})
	if edges := c.renderer.Reroute(id); len(edges) > 0 {
		c.surface.UpdateEdges(edges)
	}
	return true
}

// DragEnd returns to idle and persists every node position
func (c *Controller) DragEnd(id domain.ID) bool {
	if c.active.IsZero() || id != c.active {
		return false
	}
	c.endDrag()
	return true
}

func (c *Controller) endDrag() {
	id := c.active
	c.active = ""
	c.renderer.SetRaised("")
	c.surface.RaiseNode(id, false)
	c.savePositions()
}

func (c *Controller) savePositions() {
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.SaveTimeout)
	defer cancel()

	if err := c.cache.Save(ctx, c.store.Nodes()); err != nil {
		logging.Warnf("positions not saved: %v", err)
		return
	}
	c.bus.Publish(service.Event{
		Type:    service.EventPositionsSaved,
		Payload: map[string]int{"count": c.cache.Len()},
	})
}

// Reassert puts the dragged node back at the drag coordinate after a
// snapshot replaced the store. A drag whose node vanished ends the way a
// release does, so the surface drops its raised state and positions are saved.
func (c *Controller) Reassert() {
	if c.active.IsZero() {
		return
	}
	node, ok := c.store.Node(c.active)
	if !ok {
		logging.Debugf("drag target %s left the snapshot", c.active)
		c.endDrag()
		return
	}
	node.MoveTo(c.dragAt)
}

// Zoom applies a canvas zoom/pan gesture, clamping the scale
func (c *Controller) Zoom(t domain.ViewTransform) domain.ViewTransform {
	if !finite(domain.Point{X: t.X, Y: t.Y}) || math.IsNaN(t.K) {
		return c.transform
	}
	t.K = c.clamp(t.K)
	c.setTransform(t)
	return t
}

// ZoomControl drives the scale from the zoom control, keeping the
// viewport centre fixed
func (c *Controller) ZoomControl(k float64, viewport domain.Size) domain.ViewTransform {
	if math.IsNaN(k) {
		return c.transform
	}
	t := c.transform.ScaleAbout(c.clamp(k), viewport.Center())
	c.setTransform(t)
	return t
}

// ResetTransform returns to the identity transform, used when the
// diagram is rebuilt for another tenant
func (c *Controller) ResetTransform() {
	c.setTransform(domain.IdentityTransform())
}

func (c *Controller) setTransform(t domain.ViewTransform) {
	c.transform = t
	c.renderer.SetTransform(t)
	c.surface.SetTransform(t)
	c.surface.SetZoomControl(t.K)
}

func (c *Controller) clamp(k float64) float64 {
	return math.Max(c.opts.MinZoom, math.Min(c.opts.MaxZoom, k))
}

// ClickNode opens the equipment detail for admins and shows a permission
// notice to everyone else
func (c *Controller) ClickNode(id domain.ID) bool {
	if !c.renderer.Visible(id) {
		return false
	}
	if !c.store.Admin() {
		c.surface.Notify(ui.Error(ui.MsgPermissionDenied))
		return false
	}
	if c.remote != nil {
		c.remote.ShowEquipment(id)
	}
	return true
}

// ClickLink opens the connection detail of a drawn edge
func (c *Controller) ClickLink(key string) bool {
	edge, ok := c.renderer.Edge(key)
	if !ok {
		return false
	}
	c.surface.OpenConnectionDetail(ui.ConnectionDetail{
		Key:          edge.Key,
		Type:         edge.Type,
		Speed:        edge.Speed,
		Source:       c.endpointText(edge.Source, edge.SourcePort),
		Target:       c.endpointText(edge.Target, edge.TargetPort),
		Note:         orNA(edge.Note),
		SourcePortID: edge.SourcePortID,
		Deletable:    !edge.SourcePortID.IsZero(),
	})
	return true
}

func (c *Controller) endpointText(id domain.ID, port string) string {
	name := id.String()
	if n, ok := c.store.Node(id); ok && n.Name != "" {
		name = n.Name
	}
	return fmt.Sprintf("%s (%s)", name, orNA(port))
}

// ContextNode starts a port connection from a node. Every other drawn
// node is offered as a destination.
func (c *Controller) ContextNode(id domain.ID) bool {
	node, ok := c.store.Node(id)
	if !ok || id.IsZero() {
		c.surface.Notify(ui.Error(ui.MsgEquipmentNotFound))
		return false
	}
	if !c.renderer.Visible(id) {
		c.surface.Notify(ui.Error(ui.MsgEquipmentWrongTenant))
		return false
	}

	pc := ui.PortConnection{Node: id, NodeName: node.Name, Ports: []ui.Option{}}
	for _, n := range c.renderer.Scene().Nodes {
		if n.ID != id {
			pc.Destinations = append(pc.Destinations, ui.Option{Value: n.ID, Text: n.Name})
		}
	}

	c.selection = &selection{source: id}
	if c.remote != nil {
		c.remote.BeginPortConnection(pc)
	}
	return true
}

// SelectDestination picks the destination node of the connection in
// progress and loads its free ports
func (c *Controller) SelectDestination(node domain.ID) bool {
	if c.selection == nil || node == c.selection.source || !c.renderer.Visible(node) {
		return false
	}
	c.selection.destination = node
	if c.remote != nil {
		c.remote.LoadDestinationPorts(node)
	}
	return true
}

// CancelConnection abandons the connection in progress
func (c *Controller) CancelConnection() {
	c.selection = nil
	c.surface.ClosePortConnection()
}

// Connect submits a connection between two ports. Both ports are
// required; the note is optional.
func (c *Controller) Connect(sourcePort, targetPort domain.ID, note string) bool {
	if sourcePort.IsZero() || targetPort.IsZero() {
		c.surface.Notify(ui.Error(ui.MsgSelectPorts))
		return false
	}
	if c.remote != nil {
		c.remote.SubmitConnection(sourcePort, targetPort, note)
	}
	return true
}

// DeleteConnection submits the removal of the connection leaving port
func (c *Controller) DeleteConnection(port domain.ID) bool {
	if port.IsZero() {
		c.surface.Notify(ui.Error(ui.MsgMissingPort))
		return false
	}
	if c.remote != nil {
		c.remote.SubmitDisconnection(port)
	}
	return true
}

// Recover returns the controller to idle: an active drag ends and is
// saved, a connection in progress is abandoned and modals close.
func (c *Controller) Recover() {
	if !c.active.IsZero() {
		c.endDrag()
	}
	c.selection = nil
	c.surface.CloseModals()
}

func finite(p domain.Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
