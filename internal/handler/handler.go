package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"topomap/internal/diagram"
	"topomap/internal/domain"
	"topomap/internal/logging"
)

// Drag phases
const (
	PhaseStart = "start"
	PhaseMove  = "move"
	PhaseEnd   = "end"
)

// maxBody caps gesture request bodies
const maxBody = 64 << 10

// DiagramHandler exposes the gestures of one diagram over HTTP
type DiagramHandler struct {
	d *diagram.Diagram
}

// NewDiagramHandler creates a new diagram handler
func NewDiagramHandler(d *diagram.Diagram) *DiagramHandler {
	return &DiagramHandler{d: d}
}

// Register installs the gesture routes on mux. events serves the SSE
// stream and may be nil.
func (h *DiagramHandler) Register(mux *http.ServeMux, events http.Handler) {
	mux.HandleFunc("GET /api/scene", h.GetScene)
	mux.HandleFunc("GET /api/state", h.GetState)
	mux.HandleFunc("GET /api/positions", h.GetPositions)
	mux.HandleFunc("POST /api/tenant", h.SelectTenant)
	mux.HandleFunc("POST /api/refresh", h.Refresh)

	mux.HandleFunc("POST /api/nodes/{id}/drag", h.DragNode)
	mux.HandleFunc("POST /api/nodes/{id}/click", h.ClickNode)
	mux.HandleFunc("POST /api/nodes/{id}/context", h.ContextNode)
	mux.HandleFunc("POST /api/edges/{id}/click", h.ClickEdge)

	mux.HandleFunc("POST /api/zoom", h.Zoom)
	mux.HandleFunc("POST /api/zoom/control", h.ZoomControl)

	mux.HandleFunc("POST /api/connections", h.Connect)
	mux.HandleFunc("POST /api/connections/destination", h.SelectDestination)
	mux.HandleFunc("POST /api/connections/cancel", h.CancelConnection)
	mux.HandleFunc("DELETE /api/connections/{port_id}", h.DeleteConnection)

	if events != nil {
		mux.Handle("GET /events", events)
	}
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// GestureResponse reports whether the controller acted on a gesture
type GestureResponse struct {
	Accepted bool `json:"accepted"`
}

// TenantRequest selects the tenant to display
type TenantRequest struct {
	Tenant domain.ID `json:"empresa_id"`
}

// DragRequest is one step of a node drag
type DragRequest struct {
	Phase string  `json:"phase"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// ZoomControlRequest sets the scale from the zoom control
type ZoomControlRequest struct {
	K float64 `json:"k"`
}

// ConnectRequest submits a port connection
type ConnectRequest struct {
	SourcePort domain.ID `json:"porta_origem_id"`
	TargetPort domain.ID `json:"porta_destino_id"`
	Note       string    `json:"observacao"`
}

// DestinationRequest picks the destination node
type DestinationRequest struct {
	Node domain.ID `json:"equipamento_id"`
}

// GetScene returns the last rendered scene
func (h *DiagramHandler) GetScene(w http.ResponseWriter, r *http.Request) {
	scene, err := h.d.Scene(r.Context())
	if err != nil {
		h.unavailable(w, err)
		return
	}
	h.writeJSON(w, scene, http.StatusOK)
}

// GetState returns the interaction state
func (h *DiagramHandler) GetState(w http.ResponseWriter, r *http.Request) {
	state, err := h.d.State(r.Context())
	if err != nil {
		h.unavailable(w, err)
		return
	}
	h.writeJSON(w, state, http.StatusOK)
}

// GetPositions returns the saved position overrides
func (h *DiagramHandler) GetPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.d.Positions(r.Context())
	if err != nil {
		h.unavailable(w, err)
		return
	}
	h.writeJSON(w, positions, http.StatusOK)
}

// SelectTenant switches the displayed tenant
func (h *DiagramHandler) SelectTenant(w http.ResponseWriter, r *http.Request) {
	var req TenantRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.d.SelectTenant(r.Context(), req.Tenant); err != nil {
		h.unavailable(w, err)
		return
	}
	h.writeJSON(w, map[string]interface{}{"status": "loading", "empresa_id": req.Tenant}, http.StatusAccepted)
}

// Refresh reloads the selected tenant
func (h *DiagramHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.d.Refresh(r.Context()); err != nil {
		h.unavailable(w, err)
		return
	}
	h.writeJSON(w, map[string]string{"status": "refresh_triggered"}, http.StatusAccepted)
}

// DragNode handles the start, move and end steps of a drag
func (h *DiagramHandler) DragNode(w http.ResponseWriter, r *http.Request) {
	id := domain.ParseID(r.PathValue("id"))
	var req DragRequest
	if !h.decode(w, r, &req) {
		return
	}

	var (
		ok  bool
		err error
	)
	switch req.Phase {
	case PhaseStart:
		ok, err = h.d.DragStart(r.Context(), id)
	case PhaseMove:
		ok, err = h.d.DragMove(r.Context(), id, domain.Point{X: req.X, Y: req.Y})
	case PhaseEnd:
		ok, err = h.d.DragEnd(r.Context(), id)
	default:
		h.writeError(w, "Invalid drag phase", fmt.Sprintf("phase must be %s, %s or %s", PhaseStart, PhaseMove, PhaseEnd), http.StatusBadRequest)
		return
	}
	h.gesture(w, ok, err)
}

// ClickNode handles a primary click on a node
func (h *DiagramHandler) ClickNode(w http.ResponseWriter, r *http.Request) {
	ok, err := h.d.ClickNode(r.Context(), domain.ParseID(r.PathValue("id")))
	h.gesture(w, ok, err)
}

// ContextNode handles a secondary click on a node
func (h *DiagramHandler) ContextNode(w http.ResponseWriter, r *http.Request) {
	ok, err := h.d.ContextNode(r.Context(), domain.ParseID(r.PathValue("id")))
	h.gesture(w, ok, err)
}

// ClickEdge handles a click on an edge, identified by its link key
func (h *DiagramHandler) ClickEdge(w http.ResponseWriter, r *http.Request) {
	ok, err := h.d.ClickLink(r.Context(), r.PathValue("id"))
	h.gesture(w, ok, err)
}

// Zoom applies a canvas zoom or pan gesture
func (h *DiagramHandler) Zoom(w http.ResponseWriter, r *http.Request) {
	var t domain.ViewTransform
	if !h.decode(w, r, &t) {
		return
	}
	got, err := h.d.Zoom(r.Context(), t)
	if err != nil {
		h.unavailable(w, err)
		return
	}
	h.writeJSON(w, got, http.StatusOK)
}

// ZoomControl sets the scale from the zoom control
func (h *DiagramHandler) ZoomControl(w http.ResponseWriter, r *http.Request) {
	var req ZoomControlRequest
	if !h.decode(w, r, &req) {
		return
	}
	got, err := h.d.ZoomControl(r.Context(), req.K)
	if err != nil {
		h.unavailable(w, err)
		return
	}
	h.writeJSON(w, got, http.StatusOK)
}

// Connect submits a connection between two ports
func (h *DiagramHandler) Connect(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if !h.decode(w, r, &req) {
		return
	}
	ok, err := h.d.Connect(r.Context(), req.SourcePort, req.TargetPort, req.Note)
	h.gesture(w, ok, err)
}

// SelectDestination picks the destination node of a port connection
func (h *DiagramHandler) SelectDestination(w http.ResponseWriter, r *http.Request) {
	var req DestinationRequest
	if !h.decode(w, r, &req) {
		return
	}
	ok, err := h.d.SelectDestination(r.Context(), req.Node)
	h.gesture(w, ok, err)
}

// CancelConnection abandons a port connection
func (h *DiagramHandler) CancelConnection(w http.ResponseWriter, r *http.Request) {
	err := h.d.CancelConnection(r.Context())
	h.gesture(w, err == nil, err)
}

// DeleteConnection removes the connection leaving a port
func (h *DiagramHandler) DeleteConnection(w http.ResponseWriter, r *http.Request) {
	ok, err := h.d.DeleteConnection(r.Context(), domain.ParseID(r.PathValue("port_id")))
	h.gesture(w, ok, err)
}

// Helper methods

func (h *DiagramHandler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (h *DiagramHandler) gesture(w http.ResponseWriter, ok bool, err error) {
	if err != nil {
		h.unavailable(w, err)
		return
	}
	h.writeJSON(w, GestureResponse{Accepted: ok}, http.StatusOK)
}

func (h *DiagramHandler) unavailable(w http.ResponseWriter, err error) {
	logging.Warnf("diagram request failed: %v", err)
	h.writeError(w, "Diagram unavailable", err.Error(), http.StatusServiceUnavailable)
}

func (h *DiagramHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Errorf("failed to encode JSON: %v", err)
	}
}

func (h *DiagramHandler) writeError(w http.ResponseWriter, error, details string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Details: details,
	}); err != nil {
		logging.Errorf("failed to encode error response: %v", err)
	}
}
