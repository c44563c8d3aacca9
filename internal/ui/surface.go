// Package ui defines the presentation boundary the diagram engine drives.
//
// The engine never touches a widget directly. It calls named slots on a
// Surface; the SSE hub forwards them to browsers and Recorder keeps them
// in memory.
package ui

import (
	"topomap/internal/domain"
	"topomap/internal/render"
)

// Slot names, also used as SSE command names
const (
	SlotDrawScene                = "draw_scene"
	SlotUpdateEdges              = "update_edges"
	SlotMoveNode                 = "move_node"
	SlotRaiseNode                = "raise_node"
	SlotSetTransform             = "set_transform"
	SlotSetZoomControl           = "set_zoom_control"
	SlotNotify                   = "notify"
	SlotOpenEquipmentDetail      = "open_equipment_detail"
	SlotOpenConnectionDetail     = "open_connection_detail"
	SlotOpenPortConnection       = "open_port_connection"
	SlotPopulateDestinationPorts = "populate_destination_ports"
	SlotClosePortConnection      = "close_port_connection"
	SlotCloseModals              = "close_modals"
)

// Notice levels
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelError   = "error"
)

// Notice is a user-facing message
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Move is a node displacement during a drag
type Move struct {
	Node  render.SceneNode `json:"node"`
	Label render.Label     `json:"label"`
}

// ConnectionDetail describes a link for its detail surface
type ConnectionDetail struct {
	Key          string    `json:"key"`
	Type         string    `json:"tipo"`
	Speed        string    `json:"speed"`
	Source       string    `json:"fonte"`
	Target       string    `json:"destino"`
	Note         string    `json:"obs"`
	SourcePortID domain.ID `json:"porta_origem_id"`
	// Deletable is false when the backend gave no originating port
	Deletable bool `json:"deletable"`
}

// Option is one dropdown entry
type Option struct {
	Value domain.ID `json:"value"`
	Text  string    `json:"text"`
}

// PortConnection populates the port-connection surface
type PortConnection struct {
	Node         domain.ID `json:"equipamento_id"`
	NodeName     string    `json:"equipamento"`
	Tenant       domain.ID `json:"empresa_id"`
	Ports        []Option  `json:"portas"`
	Destinations []Option  `json:"equipamentos"`
}

// DestinationPorts populates the destination port dropdown
type DestinationPorts struct {
	Node  domain.ID `json:"equipamento_id"`
	Ports []Option  `json:"portas"`
}

// Surface is the set of named slots the engine calls
type Surface interface {
	DrawScene(scene *render.Scene)
	UpdateEdges(edges []render.SceneEdge)
	MoveNode(move Move)
	RaiseNode(id domain.ID, raised bool)
	SetTransform(t domain.ViewTransform)
	SetZoomControl(k float64)
	Notify(n Notice)
	OpenEquipmentDetail(eq domain.Equipment)
	OpenConnectionDetail(detail ConnectionDetail)
	OpenPortConnection(pc PortConnection)
	PopulateDestinationPorts(dp DestinationPorts)
	ClosePortConnection()
	CloseModals()
}

// PortOptions turns port descriptors into dropdown entries
func PortOptions(ports []domain.Port) []Option {
	out := make([]Option, 0, len(ports))
	for _, p := range ports {
		out = append(out, Option{Value: p.ID, Text: p.Describe()})
	}
	return out
}

// Info builds an informational notice
func Info(msg string) Notice {
	return Notice{Level: LevelInfo, Message: msg}
}

// Success builds a success notice
func Success(msg string) Notice {
	return Notice{Level: LevelSuccess, Message: msg}
}

// Error builds an error notice
func Error(msg string) Notice {
	return Notice{Level: LevelError, Message: msg}
}
