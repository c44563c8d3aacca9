package hub

import (
	"sync"

	"topomap/internal/domain"
	"topomap/internal/render"
	"topomap/internal/service"
	"topomap/internal/ui"
)

// Command is one surface slot call as sent to browsers
type Command struct {
	Slot    string      `json:"slot"`
	Payload interface{} `json:"payload,omitempty"`
}

// Notification wraps an engine event for browsers
type Notification struct {
	Event service.Event `json:"event"`
}

// Surface forwards slot calls to every connected browser. It remembers the
// last scene and transform so late joiners start from the current view.
type Surface struct {
	hub *Hub

	mu        sync.Mutex
	scene     *render.Scene
	transform domain.ViewTransform
	zoom      float64
}

var _ ui.Surface = (*Surface)(nil)

// NewSurface creates a surface broadcasting through h and installs its
// greeting on h
func NewSurface(h *Hub) *Surface {
	s := &Surface{hub: h, transform: domain.IdentityTransform(), zoom: 1}
	h.SetGreeting(s.greeting)
	return s
}

func (s *Surface) greeting() []interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scene == nil {
		return nil
	}
	return []interface{}{
		Command{Slot: ui.SlotDrawScene, Payload: s.scene},
		Command{Slot: ui.SlotSetTransform, Payload: s.transform},
		Command{Slot: ui.SlotSetZoomControl, Payload: s.zoom},
	}
}

func (s *Surface) emit(slot string, payload interface{}) {
	s.hub.Broadcast(Command{Slot: slot, Payload: payload})
}

// Forward relays engine events from the bus until ch is closed
func (s *Surface) Forward(ch <-chan service.Event) {
	for ev := range ch {
		s.hub.Broadcast(Notification{Event: ev})
	}
}

// DrawScene stores a copy of scene as the replay state and broadcasts it
func (s *Surface) DrawScene(scene *render.Scene) {
	copied := scene.Clone()
	s.mu.Lock()
	s.scene = copied
	s.transform = copied.Transform
	s.mu.Unlock()
	s.emit(ui.SlotDrawScene, copied)
}

// UpdateEdges merges the rerouted edges into the replay scene and broadcasts them
func (s *Surface) UpdateEdges(edges []render.SceneEdge) {
	copied := append([]render.SceneEdge(nil), edges...)
	s.mu.Lock()
	if s.scene != nil {
		for _, e := range copied {
			if existing, ok := s.scene.Edge(e.Key); ok {
				*existing = e
			} else {
				s.scene.Edges = append(s.scene.Edges, e)
			}
		}
	}
	s.mu.Unlock()
	s.emit(ui.SlotUpdateEdges, copied)
}

// MoveNode updates the node and its label in the replay scene
func (s *Surface) MoveNode(move ui.Move) {
	s.mu.Lock()
	if s.scene != nil {
		if n, ok := s.scene.Node(move.Node.ID); ok {
			*n = move.Node
		}
		if l, ok := s.scene.Label(move.Node.ID); ok {
			*l = move.Label
		}
	}
	s.mu.Unlock()
	s.emit(ui.SlotMoveNode, move)
}

// RaiseNode broadcasts the raised state of a dragged node
func (s *Surface) RaiseNode(id domain.ID, raised bool) {
	s.emit(ui.SlotRaiseNode, map[string]interface{}{"id": id, "raised": raised})
}

// SetTransform records the view transform and broadcasts it
func (s *Surface) SetTransform(t domain.ViewTransform) {
	s.mu.Lock()
	s.transform = t
	s.mu.Unlock()
	s.emit(ui.SlotSetTransform, t)
}

// SetZoomControl records the zoom control value and broadcasts it
func (s *Surface) SetZoomControl(k float64) {
	s.mu.Lock()
	s.zoom = k
	s.mu.Unlock()
	s.emit(ui.SlotSetZoomControl, k)
}

// Notify broadcasts a user notice
func (s *Surface) Notify(n ui.Notice) {
	s.emit(ui.SlotNotify, n)
}

// OpenEquipmentDetail asks clients to show the equipment modal
func (s *Surface) OpenEquipmentDetail(eq domain.Equipment) {
	s.emit(ui.SlotOpenEquipmentDetail, eq)
}

// OpenConnectionDetail asks clients to show the link detail modal
func (s *Surface) OpenConnectionDetail(detail ui.ConnectionDetail) {
	s.emit(ui.SlotOpenConnectionDetail, detail)
}

// OpenPortConnection asks clients to open the port connection form
func (s *Surface) OpenPortConnection(pc ui.PortConnection) {
	s.emit(ui.SlotOpenPortConnection, pc)
}

// PopulateDestinationPorts sends the free ports of the chosen destination
func (s *Surface) PopulateDestinationPorts(dp ui.DestinationPorts) {
	s.emit(ui.SlotPopulateDestinationPorts, dp)
}

// ClosePortConnection closes the port connection form
func (s *Surface) ClosePortConnection() {
	s.emit(ui.SlotClosePortConnection, nil)
}

// CloseModals closes every open modal
func (s *Surface) CloseModals() {
	s.emit(ui.SlotCloseModals, nil)
}
