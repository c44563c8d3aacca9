package ui

import (
	"sync"

	"topomap/internal/domain"
	"topomap/internal/render"
)

// Call is one recorded slot invocation
type Call struct {
	Slot    string
	Payload interface{}
}

// Recorder is an in-memory Surface. It keeps every call and the latest
// state of each surface so tests can assert on what a user would see.
type Recorder struct {
	mu    sync.Mutex
	calls []Call

	scene       *render.Scene
	transform   domain.ViewTransform
	zoom        float64
	notices     []Notice
	equipment   *domain.Equipment
	connection  *ConnectionDetail
	portConn    *PortConnection
	destination *DestinationPorts
}

var _ Surface = (*Recorder)(nil)

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) record(slot string, payload interface{}) {
	r.calls = append(r.calls, Call{Slot: slot, Payload: payload})
}

// DrawScene stores a copy of the scene
func (r *Recorder) DrawScene(scene *render.Scene) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scene = scene.Clone()
	r.transform = scene.Transform
	r.record(SlotDrawScene, r.scene)
}

// UpdateEdges patches the stored scene
func (r *Recorder) UpdateEdges(edges []render.SceneEdge) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scene != nil {
		for _, e := range edges {
			if cur, ok := r.scene.Edge(e.Key); ok {
				*cur = e
			} else {
				r.scene.Edges = append(r.scene.Edges, e)
			}
		}
	}
	r.record(SlotUpdateEdges, append([]render.SceneEdge(nil), edges...))
}

// MoveNode patches the stored scene
func (r *Recorder) MoveNode(move Move) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scene != nil {
		if n, ok := r.scene.Node(move.Node.ID); ok {
			*n = move.Node
		}
		if l, ok := r.scene.Label(move.Node.ID); ok {
			*l = move.Label
		}
	}
	r.record(SlotMoveNode, move)
}

// RaiseNode marks the node in the stored scene
func (r *Recorder) RaiseNode(id domain.ID, raised bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scene != nil {
		if n, ok := r.scene.Node(id); ok {
			n.Raised = raised
		}
	}
	r.record(SlotRaiseNode, map[string]interface{}{"id": id, "raised": raised})
}

// SetTransform records the transform
func (r *Recorder) SetTransform(t domain.ViewTransform) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transform = t
	if r.scene != nil {
		r.scene.Transform = t
	}
	r.record(SlotSetTransform, t)
}

// SetZoomControl records the zoom control value
func (r *Recorder) SetZoomControl(k float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.zoom = k
	r.record(SlotSetZoomControl, k)
}

// Notify records a notice
func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
	r.record(SlotNotify, n)
}

// OpenEquipmentDetail records the opened detail
func (r *Recorder) OpenEquipmentDetail(eq domain.Equipment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.equipment = &eq
	r.record(SlotOpenEquipmentDetail, eq)
}

// OpenConnectionDetail records the opened detail
func (r *Recorder) OpenConnectionDetail(detail ConnectionDetail) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connection = &detail
	r.record(SlotOpenConnectionDetail, detail)
}

// OpenPortConnection records the opened surface
func (r *Recorder) OpenPortConnection(pc PortConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.portConn = &pc
	r.destination = nil
	r.record(SlotOpenPortConnection, pc)
}

// PopulateDestinationPorts records the destination dropdown
func (r *Recorder) PopulateDestinationPorts(dp DestinationPorts) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.destination = &dp
	r.record(SlotPopulateDestinationPorts, dp)
}

// ClosePortConnection closes the port-connection surface
func (r *Recorder) ClosePortConnection() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.portConn = nil
	r.destination = nil
	r.record(SlotClosePortConnection, nil)
}

// CloseModals closes every detail surface
func (r *Recorder) CloseModals() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.equipment = nil
	r.connection = nil
	r.portConn = nil
	r.destination = nil
	r.record(SlotCloseModals, nil)
}

// Scene returns a copy of the last drawn scene, patched by later updates
func (r *Recorder) Scene() *render.Scene {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scene == nil {
		return nil
	}
	return r.scene.Clone()
}

// Transform returns the last transform pushed to the surface
func (r *Recorder) Transform() domain.ViewTransform {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transform
}

// Zoom returns the zoom control value
func (r *Recorder) Zoom() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zoom
}

// Notices returns every notice so far
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

// LastNotice returns the most recent notice
func (r *Recorder) LastNotice() (Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return Notice{}, false
	}
	return r.notices[len(r.notices)-1], true
}

// Equipment returns the open equipment detail, if any
func (r *Recorder) Equipment() (domain.Equipment, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.equipment == nil {
		return domain.Equipment{}, false
	}
	return *r.equipment, true
}

// Connection returns the open connection detail, if any
func (r *Recorder) Connection() (ConnectionDetail, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.connection == nil {
		return ConnectionDetail{}, false
	}
	return *r.connection, true
}

// PortConnection returns the open port-connection surface, if any
func (r *Recorder) PortConnection() (PortConnection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.portConn == nil {
		return PortConnection{}, false
	}
	return *r.portConn, true
}

// DestinationPorts returns the populated destination dropdown, if any
func (r *Recorder) DestinationPorts() (DestinationPorts, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.destination == nil {
		return DestinationPorts{}, false
	}
	return *r.destination, true
}

// Calls returns every recorded call
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Count returns how often a slot was called
func (r *Recorder) Count(slot string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Slot == slot {
			n++
		}
	}
	return n
}

// Reset forgets recorded calls and notices but keeps surface state
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
	r.notices = nil
}

// Multi fans every slot call out to several surfaces
type Multi []Surface

var _ Surface = Multi(nil)

func (m Multi) DrawScene(scene *render.Scene) {
	for _, s := range m {
		s.DrawScene(scene)
	}
}

func (m Multi) UpdateEdges(edges []render.SceneEdge) {
	for _, s := range m {
		s.UpdateEdges(edges)
	}
}

func (m Multi) MoveNode(move Move) {
	for _, s := range m {
		s.MoveNode(move)
	}
}

func (m Multi) RaiseNode(id domain.ID, raised bool) {
	for _, s := range m {
		s.RaiseNode(id, raised)
	}
}

func (m Multi) SetTransform(t domain.ViewTransform) {
	for _, s := range m {
		s.SetTransform(t)
	}
}

func (m Multi) SetZoomControl(k float64) {
	for _, s := range m {
		s.SetZoomControl(k)
	}
}

func (m Multi) Notify(n Notice) {
	for _, s := range m {
		s.Notify(n)
	}
}

func (m Multi) OpenEquipmentDetail(eq domain.Equipment) {
	for _, s := range m {
		s.OpenEquipmentDetail(eq)
	}
}

func (m Multi) OpenConnectionDetail(detail ConnectionDetail) {
	for _, s := range m {
		s.OpenConnectionDetail(detail)
	}
}

func (m Multi) OpenPortConnection(pc PortConnection) {
	for _, s := range m {
		s.OpenPortConnection(pc)
	}
}

func (m Multi) PopulateDestinationPorts(dp DestinationPorts) {
	for _, s := range m {
		s.PopulateDestinationPorts(dp)
	}
}

func (m Multi) ClosePortConnection() {
	for _, s := range m {
		s.ClosePortConnection()
	}
}

func (m Multi) CloseModals() {
	for _, s := range m {
		s.CloseModals()
	}
}
