package interaction

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topomap/internal/domain"
	"topomap/internal/layout"
	"topomap/internal/render"
	"topomap/internal/service"
	"topomap/internal/topology"
	"topomap/internal/ui"
)

type memoryStore struct {
	data map[string][]byte
}

func (m *memoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryStore) Put(_ context.Context, key string, value []byte) error {
	m.data[key] = value
	return nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *memoryStore) Keys(context.Context) ([]string, error) { return nil, nil }
func (m *memoryStore) Close() error                           { return nil }

type fakeRemote struct {
	equipment    []domain.ID
	connections  []ui.PortConnection
	destinations []domain.ID
	submitted    [][3]string
	disconnected []domain.ID
}

func (f *fakeRemote) ShowEquipment(id domain.ID) { f.equipment = append(f.equipment, id) }
func (f *fakeRemote) BeginPortConnection(pc ui.PortConnection) {
	f.connections = append(f.connections, pc)
}
func (f *fakeRemote) LoadDestinationPorts(node domain.ID) {
	f.destinations = append(f.destinations, node)
}
func (f *fakeRemote) SubmitConnection(a, b domain.ID, note string) {
	f.submitted = append(f.submitted, [3]string{a.String(), b.String(), note})
}
func (f *fakeRemote) SubmitDisconnection(port domain.ID) {
	f.disconnected = append(f.disconnected, port)
}

type harness struct {
	store    *topology.Store
	kv       *memoryStore
	cache    *layout.Cache
	renderer *render.Renderer
	surface  *ui.Recorder
	remote   *fakeRemote
	bus      *service.EventBus
	events   chan service.Event
	ctrl     *Controller
}

func newHarness(t *testing.T, admin bool) *harness {
	t.Helper()
	h := &harness{
		store:   topology.NewStore(),
		kv:      &memoryStore{data: make(map[string][]byte)},
		surface: ui.NewRecorder(),
		remote:  &fakeRemote{},
		bus:     service.NewEventBus(),
		events:  make(chan service.Event, 16),
	}
	h.bus.Subscribe(h.events)
	h.cache = layout.NewCache(h.kv, "")
	h.renderer = render.New(h.store, render.DefaultStyles())
	h.ctrl = New(h.store, h.cache, h.renderer, h.surface, h.bus, DefaultOptions())
	h.ctrl.SetRemote(h.remote)

	h.store.Replace([]domain.Node{
		{ID: "1", Name: "olt-01", Status: domain.StatusActive, Tenant: "10", Position: &domain.Point{X: 0, Y: 0}},
		{ID: "2", Name: "sw-core", Status: domain.StatusActive, Tenant: "10", Position: &domain.Point{X: 100, Y: 0}},
		{ID: "3", Name: "srv", Status: domain.StatusActive, Tenant: "10", Position: &domain.Point{X: 0, Y: 100}},
		{ID: "4", Name: "foreign", Status: domain.StatusActive, Tenant: "20", Position: &domain.Point{X: 9, Y: 9}},
	}, []domain.Link{
		{Source: "1", Target: "2", Type: "Fibra", Speed: "10G", SourcePort: "ge-1", TargetPort: "ge-2", SourcePortID: "501", Note: "uplink"},
		{Source: "2", Target: "3", Type: "Eletrico"},
	})
	h.store.SetTenantContext(admin)
	h.surface.DrawScene(h.renderer.Render(render.Input{Tenant: "10", Transform: h.ctrl.Transform()}))
	return h
}

func TestDragStateMachine(t *testing.T) {
	h := newHarness(t, true)

	t.Run("moves while idle are ignored", func(t *testing.T) {
		assert.False(t, h.ctrl.DragMove("1", domain.Point{X: 5, Y: 5}))
		node, _ := h.store.Node("1")
		assert.Equal(t, domain.Point{X: 0, Y: 0}, *node.Position)
	})

	t.Run("start raises the node", func(t *testing.T) {
		require.True(t, h.ctrl.DragStart("1"))
		assert.True(t, h.ctrl.State().Dragging)
		assert.Equal(t, domain.ID("1"), h.ctrl.Active())
		sn, _ := h.surface.Scene().Node("1")
		assert.True(t, sn.Raised)
	})

	t.Run("second start is ignored", func(t *testing.T) {
		assert.False(t, h.ctrl.DragStart("2"))
		assert.Equal(t, domain.ID("1"), h.ctrl.Active())
	})

	t.Run("moves of another node are ignored", func(t *testing.T) {
		assert.False(t, h.ctrl.DragMove("2", domain.Point{X: 7, Y: 7}))
	})

	t.Run("move redraws only incident edges", func(t *testing.T) {
		h.surface.Reset()
		require.True(t, h.ctrl.DragMove("1", domain.Point{X: 0, Y: -50}))

		assert.Equal(t, 0, h.surface.Count(ui.SlotDrawScene))
		assert.Equal(t, 1, h.surface.Count(ui.SlotMoveNode))
		calls := h.surface.Calls()
		last := calls[len(calls)-1]
		require.Equal(t, ui.SlotUpdateEdges, last.Slot)
		edges := last.Payload.([]render.SceneEdge)
		require.Len(t, edges, 1)
		assert.Equal(t, "M 0,-50 L 100,0", edges[0].D)
	})

	t.Run("end saves every position", func(t *testing.T) {
		require.True(t, h.ctrl.DragEnd("1"))
		assert.False(t, h.ctrl.State().Dragging)

		var saved []domain.NodePosition
		require.NoError(t, json.Unmarshal(h.kv.data[layout.DefaultKey], &saved))
		assert.Len(t, saved, 4)
		assert.Equal(t, domain.NodePosition{NodeID: "1", X: 0, Y: -50}, saved[0])

		sn, _ := h.surface.Scene().Node("1")
		assert.False(t, sn.Raised)

		select {
		case ev := <-h.events:
			assert.Equal(t, service.EventPositionsSaved, ev.Type)
		default:
			t.Fatal("expected positions_saved event")
		}
	})

	t.Run("end while idle is ignored", func(t *testing.T) {
		assert.False(t, h.ctrl.DragEnd("1"))
	})
}

func TestDragRejectsHiddenNodes(t *testing.T) {
	h := newHarness(t, true)
	assert.False(t, h.ctrl.DragStart("4"), "other tenant's node is not drawn")
	assert.False(t, h.ctrl.DragStart("99"))
}

func TestZoom(t *testing.T) {
	h := newHarness(t, false)

	t.Run("clamps canvas zoom", func(t *testing.T) {
		got := h.ctrl.Zoom(domain.ViewTransform{X: 10, Y: 20, K: 10})
		assert.Equal(t, 3.0, got.K)
		assert.Equal(t, 3.0, h.surface.Zoom())
		assert.Equal(t, got, h.surface.Transform())

		got = h.ctrl.Zoom(domain.ViewTransform{K: 0.1})
		assert.Equal(t, 0.5, got.K)
	})

	t.Run("control scales about viewport centre", func(t *testing.T) {
		h.ctrl.ResetTransform()
		viewport := domain.Size{Width: 800, Height: 600}

		got := h.ctrl.ZoomControl(2, viewport)
		assert.Equal(t, domain.ViewTransform{X: -400, Y: -300, K: 2}, got)
		assert.Equal(t, 2.0, h.surface.Zoom())

		centre := viewport.Center()
		assert.Equal(t, centre, got.Apply(domain.IdentityTransform().Invert(centre)))
	})

	t.Run("reset returns to identity", func(t *testing.T) {
		h.ctrl.ResetTransform()
		assert.Equal(t, domain.IdentityTransform(), h.ctrl.Transform())
		assert.Equal(t, 1.0, h.surface.Zoom())
	})
}

func TestClickNodeGatedOnAdmin(t *testing.T) {
	t.Run("non-admin gets a permission notice", func(t *testing.T) {
		h := newHarness(t, false)
		assert.False(t, h.ctrl.ClickNode("1"))

		assert.Empty(t, h.remote.equipment)
		n, ok := h.surface.LastNotice()
		require.True(t, ok)
		assert.Equal(t, ui.MsgPermissionDenied, n.Message)
		_, open := h.surface.Equipment()
		assert.False(t, open)
	})

	t.Run("admin opens the detail", func(t *testing.T) {
		h := newHarness(t, true)
		assert.True(t, h.ctrl.ClickNode("1"))

		assert.Equal(t, []domain.ID{"1"}, h.remote.equipment)
		assert.Empty(t, h.surface.Notices())
	})
}

func TestClickLink(t *testing.T) {
	h := newHarness(t, false)
	key := (&domain.Link{Source: "1", Target: "2", SourcePort: "ge-1", TargetPort: "ge-2"}).Key()

	require.True(t, h.ctrl.ClickLink(key))
	detail, ok := h.surface.Connection()
	require.True(t, ok)
	assert.Equal(t, "olt-01 (ge-1)", detail.Source)
	assert.Equal(t, "sw-core (ge-2)", detail.Target)
	assert.Equal(t, "uplink", detail.Note)
	assert.Equal(t, domain.ID("501"), detail.SourcePortID)
	assert.True(t, detail.Deletable)

	assert.False(t, h.ctrl.ClickLink("unknown"))
}

func TestPortConnectionFlow(t *testing.T) {
	h := newHarness(t, true)

	require.True(t, h.ctrl.ContextNode("1"))
	require.Len(t, h.remote.connections, 1)
	pc := h.remote.connections[0]
	assert.Equal(t, domain.ID("1"), pc.Node)
	assert.Equal(t, []ui.Option{{Value: "2", Text: "sw-core"}, {Value: "3", Text: "srv"}}, pc.Destinations)

	assert.False(t, h.ctrl.SelectDestination("1"), "source cannot be its own destination")
	assert.False(t, h.ctrl.SelectDestination("4"), "other tenant's node")
	assert.True(t, h.ctrl.SelectDestination("2"))
	assert.Equal(t, []domain.ID{"2"}, h.remote.destinations)
	assert.Equal(t, domain.ID("2"), h.ctrl.State().Destination)

	t.Run("connect needs both ports", func(t *testing.T) {
		assert.False(t, h.ctrl.Connect("11", "", "note"))
		n, _ := h.surface.LastNotice()
		assert.Equal(t, ui.MsgSelectPorts, n.Message)
		assert.Empty(t, h.remote.submitted)
	})

	t.Run("connect without note is allowed", func(t *testing.T) {
		assert.True(t, h.ctrl.Connect("11", "22", ""))
		assert.Equal(t, [][3]string{{"11", "22", ""}}, h.remote.submitted)
	})

	t.Run("cancel abandons the selection", func(t *testing.T) {
		h.ctrl.CancelConnection()
		assert.False(t, h.ctrl.State().Connecting)
		assert.False(t, h.ctrl.SelectDestination("3"))
	})
}

func TestContextNodeRejections(t *testing.T) {
	h := newHarness(t, true)

	assert.False(t, h.ctrl.ContextNode("99"))
	n, _ := h.surface.LastNotice()
	assert.Equal(t, ui.MsgEquipmentNotFound, n.Message)

	assert.False(t, h.ctrl.ContextNode("4"))
	n, _ = h.surface.LastNotice()
	assert.Equal(t, ui.MsgEquipmentWrongTenant, n.Message)
	assert.Empty(t, h.remote.connections)
}

func TestDeleteConnection(t *testing.T) {
	h := newHarness(t, true)

	assert.False(t, h.ctrl.DeleteConnection(""))
	n, _ := h.surface.LastNotice()
	assert.Equal(t, ui.MsgMissingPort, n.Message)

	assert.True(t, h.ctrl.DeleteConnection("501"))
	assert.Equal(t, []domain.ID{"501"}, h.remote.disconnected)
}

func TestRecover(t *testing.T) {
	h := newHarness(t, true)
	require.True(t, h.ctrl.DragStart("2"))
	require.True(t, h.ctrl.DragMove("2", domain.Point{X: 300, Y: 300}))
	require.True(t, h.ctrl.ContextNode("1"))
	h.surface.OpenEquipmentDetail(domain.Equipment{ID: "1"})

	h.ctrl.Recover()

	state := h.ctrl.State()
	assert.False(t, state.Dragging)
	assert.False(t, state.Connecting)
	_, open := h.surface.Equipment()
	assert.False(t, open)
	assert.Contains(t, string(h.kv.data[layout.DefaultKey]), `"id":2,"x":300,"y":300`)
}

func TestReassert(t *testing.T) {
	h := newHarness(t, true)
	require.True(t, h.ctrl.DragStart("1"))
	require.True(t, h.ctrl.DragMove("1", domain.Point{X: 42, Y: 24}))

	// a refresh lands mid-drag with the server's stale coordinate
	h.store.Replace([]domain.Node{
		{ID: "1", Name: "olt-01", Tenant: "10", Position: &domain.Point{X: 0, Y: 0}},
	}, nil)
	h.ctrl.Reassert()

	node, _ := h.store.Node("1")
	assert.Equal(t, domain.Point{X: 42, Y: 24}, *node.Position)
	assert.True(t, h.ctrl.State().Dragging)

	// the dragged node disappears from the next snapshot
	h.store.Replace(nil, nil)
	h.ctrl.Reassert()
	assert.False(t, h.ctrl.State().Dragging)
}

func TestReassertVanishedNodeEndsDrag(t *testing.T) {
	h := newHarness(t, true)
	require.True(t, h.ctrl.DragStart("1"))
	require.True(t, h.ctrl.DragMove("1", domain.Point{X: 42, Y: 24}))
	h.surface.Reset()

	h.store.Replace([]domain.Node{
		{ID: "2", Name: "sw-core", Tenant: "10", Position: &domain.Point{X: 100, Y: 0}},
	}, nil)
	h.ctrl.Reassert()

	assert.False(t, h.ctrl.State().Dragging)
	assert.True(t, h.ctrl.Active().IsZero())

	calls := h.surface.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, ui.SlotRaiseNode, calls[0].Slot)
	assert.Equal(t, map[string]interface{}{"id": domain.ID("1"), "raised": false}, calls[0].Payload)

	var saved []domain.NodePosition
	require.NoError(t, json.Unmarshal(h.kv.data[layout.DefaultKey], &saved))
	assert.Equal(t, []domain.NodePosition{{NodeID: "2", X: 100, Y: 0}}, saved)

	select {
	case ev := <-h.events:
		assert.Equal(t, service.EventPositionsSaved, ev.Type)
	default:
		t.Fatal("expected positions_saved event")
	}
}
