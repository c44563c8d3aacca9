package hub

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"topomap/internal/domain"
	"topomap/internal/render"
	"topomap/internal/service"
	"topomap/internal/ui"
)

type frame struct {
	Slot    string          `json:"slot"`
	Payload json.RawMessage `json:"payload"`
	Event   *service.Event  `json:"event"`
}

func startHub(t *testing.T) (*Hub, *Surface, *httptest.Server) {
	t.Helper()
	h := New()
	s := NewSurface(h)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	srv := httptest.NewServer(h)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return h, s, srv
}

func connect(t *testing.T, srv *httptest.Server) <-chan frame {
	t.Helper()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected text/event-stream, got %q", ct)
	}

	frames := make(chan frame, 16)
	go func() {
		defer resp.Body.Close()
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var f frame
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &f); err == nil {
				frames <- f
			}
		}
		close(frames)
	}()
	return frames
}

func next(t *testing.T, frames <-chan frame) frame {
	t.Helper()
	select {
	case f, ok := <-frames:
		if !ok {
			t.Fatal("stream closed")
		}
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
	}
	return frame{}
}

func TestSurfaceBroadcastsSlots(t *testing.T) {
	h, s, srv := startHub(t)
	frames := connect(t, srv)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	s.Notify(ui.Error(ui.MsgPermissionDenied))
	f := next(t, frames)
	if f.Slot != ui.SlotNotify {
		t.Errorf("expected slot %s, got %s", ui.SlotNotify, f.Slot)
	}
	var notice ui.Notice
	require.NoError(t, json.Unmarshal(f.Payload, &notice))
	if notice.Message != ui.MsgPermissionDenied || notice.Level != ui.LevelError {
		t.Errorf("unexpected notice %+v", notice)
	}

	s.CloseModals()
	if f := next(t, frames); f.Slot != ui.SlotCloseModals {
		t.Errorf("expected slot %s, got %s", ui.SlotCloseModals, f.Slot)
	}
}

func TestSurfaceRaiseNode(t *testing.T) {
	h, s, srv := startHub(t)
	var surface ui.Surface = s
	frames := connect(t, srv)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	surface.RaiseNode("7", true)
	f := next(t, frames)
	if f.Slot != ui.SlotRaiseNode {
		t.Errorf("expected slot %s, got %s", ui.SlotRaiseNode, f.Slot)
	}
	var payload struct {
		ID     domain.ID `json:"id"`
		Raised bool      `json:"raised"`
	}
	require.NoError(t, json.Unmarshal(f.Payload, &payload))
	if payload.ID != "7" || !payload.Raised {
		t.Errorf("unexpected payload %+v", payload)
	}
}

func TestLateJoinerReceivesCurrentScene(t *testing.T) {
	h, s, srv := startHub(t)

	scene := render.EmptyScene(domain.IdentityTransform())
	scene.Tenant = "3"
	scene.Nodes = []render.SceneNode{{ID: "1", Name: "olt"}}
	s.DrawScene(scene)
	s.SetZoomControl(2)

	frames := connect(t, srv)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	first := next(t, frames)
	if first.Slot != ui.SlotDrawScene {
		t.Fatalf("expected catch-up %s, got %s", ui.SlotDrawScene, first.Slot)
	}
	var got render.Scene
	require.NoError(t, json.Unmarshal(first.Payload, &got))
	if got.Tenant != "3" || len(got.Nodes) != 1 {
		t.Errorf("unexpected catch-up scene %+v", got)
	}
	if f := next(t, frames); f.Slot != ui.SlotSetTransform {
		t.Errorf("expected %s, got %s", ui.SlotSetTransform, f.Slot)
	}
	f := next(t, frames)
	if f.Slot != ui.SlotSetZoomControl || string(f.Payload) != "2" {
		t.Errorf("expected zoom 2, got %s %s", f.Slot, f.Payload)
	}
}

func TestForwardRelaysEvents(t *testing.T) {
	h, s, srv := startHub(t)
	frames := connect(t, srv)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	ch := make(chan service.Event, 1)
	go s.Forward(ch)
	ch <- service.Event{Type: service.EventSnapshotApplied}
	close(ch)

	f := next(t, frames)
	if f.Event == nil || f.Event.Type != service.EventSnapshotApplied {
		t.Errorf("expected snapshot_applied event, got %+v", f)
	}
}

func TestClientDisconnectUnregisters(t *testing.T) {
	h := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	reqCtx, stop := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(reqCtx)
	rec := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		h.ServeHTTP(rec, req)
		close(done)
	}()

	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	stop()
	<-done
	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}
