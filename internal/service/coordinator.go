package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"topomap/internal/domain"
	"topomap/internal/layout"
	"topomap/internal/logging"
	"topomap/internal/topology"
	"topomap/internal/ui"
)

// DataSource is the remote side of a diagram
type DataSource interface {
	FetchSnapshot(ctx context.Context, tenant domain.ID) (*domain.Snapshot, error)
	// ListPorts returns the free ports of a piece of equipment. A refusal
	// is reported as *domain.RejectionError.
	ListPorts(ctx context.Context, equipment, tenant domain.ID) ([]domain.Port, error)
	GetEquipment(ctx context.Context, id domain.ID) (*domain.Equipment, error)
	Connect(ctx context.Context, req domain.ConnectRequest) (*domain.CommandResult, error)
	Disconnect(ctx context.Context, req domain.DisconnectRequest) (*domain.CommandResult, error)
}

// Scheduler runs continuations on the diagram's event loop
type Scheduler interface {
	Post(fn func()) bool
}

// Renderer redraws the whole diagram
type Renderer interface {
	RenderAll()
}

// Interaction is the part of the interaction controller the coordinator
// drives
type Interaction interface {
	Recover()
	Reassert()
	ResetTransform()
}

// Options tunes the coordinator
type Options struct {
	// Timeout bounds each round trip
	Timeout time.Duration
	// Interval is the refresh period of Run
	Interval time.Duration
}

// Coordinator keeps the store in step with the data source
type Coordinator struct {
	loop     Scheduler
	source   DataSource
	store    *topology.Store
	cache    *layout.Cache
	ctrl     Interaction
	renderer Renderer
	surface  ui.Surface
	bus      *EventBus
	opts     Options

	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	tenant     domain.ID
	generation uint64
	applied    uint64
}

// NewCoordinator creates a coordinator. Interaction and Renderer are
// attached with Attach once the diagram has built them.
func NewCoordinator(loop Scheduler, source DataSource, store *topology.Store, cache *layout.Cache, surface ui.Surface, bus *EventBus, opts Options) *Coordinator {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	base, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		loop:    loop,
		source:  source,
		store:   store,
		cache:   cache,
		surface: surface,
		bus:     bus,
		opts:    opts,
		base:    base,
		cancel:  cancel,
	}
}

// Attach wires the interaction controller and the renderer
func (c *Coordinator) Attach(ctrl Interaction, renderer Renderer) {
	c.ctrl = ctrl
	c.renderer = renderer
}

// Tenant returns the selected tenant
func (c *Coordinator) Tenant() domain.ID {
	return c.tenant
}

// SelectTenant records the selection and loads its snapshot. Switching to
// another tenant resets the view transform.
func (c *Coordinator) SelectTenant(tenant domain.ID) {
	if tenant != c.tenant {
		logging.Infof("tenant selected: %q (was %q)", tenant, c.tenant)
		c.tenant = tenant
		c.ctrl.ResetTransform()
	}
	c.LoadSnapshot(tenant)
}

// Refresh reloads the selected tenant
func (c *Coordinator) Refresh() {
	c.LoadSnapshot(c.tenant)
}

// LoadSnapshot fetches the snapshot of tenant. An empty tenant clears the
// diagram immediately.
func (c *Coordinator) LoadSnapshot(tenant domain.ID) {
	if tenant.IsZero() {
		c.clear()
		return
	}

	req := c.beginLoad(tenant)
	c.spawn(func(ctx context.Context) {
		snap, err := c.source.FetchSnapshot(ctx, tenant)
		c.loop.Post(func() { c.completeLoad(req, snap, err) })
	})
}

// loadRequest identifies one snapshot fetch
type loadRequest struct {
	tenant     domain.ID
	generation uint64
}

func (c *Coordinator) beginLoad(tenant domain.ID) loadRequest {
	c.generation++
	return loadRequest{tenant: tenant, generation: c.generation}
}

// completeLoad runs on the loop when a fetch returns
func (c *Coordinator) completeLoad(req loadRequest, snap *domain.Snapshot, err error) {
	if req.tenant != c.tenant || req.generation <= c.applied {
		logging.Debugf("discarding snapshot for tenant %q (generation %d, selected %q, applied %d)",
			req.tenant, req.generation, c.tenant, c.applied)
		c.bus.Publish(Event{Type: EventSnapshotDiscarded, Payload: map[string]interface{}{
			"tenant":     req.tenant,
			"generation": req.generation,
		}})
		return
	}

	if err == nil && snap == nil {
		err = errors.New("empty snapshot response")
	}
	if err != nil {
		logging.Warnf("snapshot for tenant %q failed: %v", req.tenant, err)
		c.surface.Notify(ui.Error(ui.MsgSnapshotFailed))
		c.ctrl.Recover()
		c.bus.Publish(Event{Type: EventSnapshotFailed, Payload: map[string]interface{}{
			"tenant": req.tenant,
			"error":  err.Error(),
		}})
		return
	}

	c.applied = req.generation
	c.apply(snap)
	c.bus.Publish(Event{Type: EventSnapshotApplied, Payload: map[string]interface{}{
		"tenant":     req.tenant,
		"generation": req.generation,
		"nodes":      len(snap.Nodes),
		"links":      len(snap.Links),
	}})
}

func (c *Coordinator) apply(snap *domain.Snapshot) {
	c.store.Replace(snap.Nodes, snap.Links)
	c.store.SetTenantContext(snap.Admin)
	c.cache.Apply(c.store.Nodes())
	c.ctrl.Reassert()
	c.renderer.RenderAll()
}

func (c *Coordinator) clear() {
	// outstanding fetches must not repopulate the cleared diagram
	c.generation++
	c.applied = c.generation
	c.store.Clear()
	c.ctrl.Reassert()
	c.renderer.RenderAll()
	c.bus.Publish(Event{Type: EventSnapshotApplied, Payload: map[string]interface{}{
		"tenant": "",
		"nodes":  0,
		"links":  0,
	}})
}

// SubmitConnection asks the data source to connect two ports. On success
// the diagram is reloaded so it shows the confirmed state.
func (c *Coordinator) SubmitConnection(sourcePort, targetPort domain.ID, note string) {
	req := domain.ConnectRequest{SourcePortID: sourcePort, TargetPortID: targetPort, Note: note}
	c.spawn(func(ctx context.Context) {
		res, err := c.source.Connect(ctx, req)
		c.loop.Post(func() {
			c.completeCommand(EventConnectionCreated, res, err, commandTexts{
				success:  ui.MsgConnectCreated,
				rejected: ui.MsgConnectRejected,
				failed:   ui.MsgConnectFailed,
			}, req)
		})
	})
}

// SubmitDisconnection asks the data source to clear the connection of a
// port
func (c *Coordinator) SubmitDisconnection(port domain.ID) {
	req := domain.DisconnectRequest{PortID: port}
	c.spawn(func(ctx context.Context) {
		res, err := c.source.Disconnect(ctx, req)
		c.loop.Post(func() {
			c.completeCommand(EventConnectionDeleted, res, err, commandTexts{
				success:  ui.MsgDisconnectDone,
				rejected: ui.MsgDisconnectRejected,
				failed:   ui.MsgDisconnectFailed,
			}, req)
		})
	})
}

type commandTexts struct {
	success  string
	rejected string
	failed   string
}

func (c *Coordinator) completeCommand(event EventType, res *domain.CommandResult, err error, texts commandTexts, req interface{}) {
	switch {
	case err != nil:
		logging.Warnf("%s request failed: %v", event, err)
		c.surface.Notify(ui.Error(texts.failed))
		c.ctrl.Recover()
		c.bus.Publish(Event{Type: EventCommandFailed, Payload: map[string]interface{}{
			"command": event, "request": req, "error": err.Error(),
		}})

	case !res.OK():
		reason := ui.MsgUnknownError
		if res != nil && res.Error != "" {
			reason = res.Error
		}
		logging.Infof("%s rejected: %s", event, reason)
		c.surface.Notify(ui.Error(texts.rejected + reason))
		c.ctrl.Recover()
		c.bus.Publish(Event{Type: EventCommandFailed, Payload: map[string]interface{}{
			"command": event, "request": req, "error": reason,
		}})

	default:
		msg := texts.success
		if res.Message != "" {
			msg = res.Message
		}
		c.surface.Notify(ui.Success(msg))
		c.surface.CloseModals()
		c.bus.Publish(Event{Type: event, Payload: req})
		c.LoadSnapshot(c.tenant)
	}
}

// ShowEquipment fetches equipment details and opens the detail surface
func (c *Coordinator) ShowEquipment(id domain.ID) {
	c.spawn(func(ctx context.Context) {
		eq, err := c.source.GetEquipment(ctx, id)
		c.loop.Post(func() {
			if err != nil || eq == nil {
				logging.Warnf("equipment %s detail failed: %v", id, err)
				c.surface.Notify(ui.Error(ui.MsgEquipmentFailed))
				c.ctrl.Recover()
				return
			}
			c.surface.OpenEquipmentDetail(*eq)
		})
	})
}

// BeginPortConnection loads the free ports of the source node and opens
// the port-connection surface
func (c *Coordinator) BeginPortConnection(pc ui.PortConnection) {
	tenant := c.tenant
	if tenant.IsZero() || pc.Node.IsZero() {
		c.surface.Notify(ui.Error(ui.MsgInvalidSelection))
		c.ctrl.Recover()
		return
	}
	pc.Tenant = tenant

	c.spawn(func(ctx context.Context) {
		ports, err := c.source.ListPorts(ctx, pc.Node, tenant)
		c.loop.Post(func() {
			if tenant != c.tenant {
				return
			}
			if err != nil {
				c.portsFailed(pc.Node, err)
				return
			}
			pc.Ports = ui.PortOptions(ports)
			c.surface.OpenPortConnection(pc)
		})
	})
}

// LoadDestinationPorts fills the destination dropdown with the free ports
// of node
func (c *Coordinator) LoadDestinationPorts(node domain.ID) {
	tenant := c.tenant
	c.spawn(func(ctx context.Context) {
		ports, err := c.source.ListPorts(ctx, node, tenant)
		c.loop.Post(func() {
			if tenant != c.tenant {
				return
			}
			if err != nil {
				c.portsFailed(node, err)
				return
			}
			c.surface.PopulateDestinationPorts(ui.DestinationPorts{Node: node, Ports: ui.PortOptions(ports)})
		})
	})
}

func (c *Coordinator) portsFailed(node domain.ID, err error) {
	var rejected *domain.RejectionError
	if errors.As(err, &rejected) {
		c.surface.Notify(ui.Error(rejected.Message))
	} else {
		logging.Warnf("port listing for %s failed: %v", node, err)
		c.surface.Notify(ui.Error(ui.MsgPortsFailed))
	}
	c.surface.ClosePortConnection()
	c.ctrl.Recover()
}

// Run refreshes the selected tenant every interval until ctx is done.
// Ticks while no tenant is selected do nothing.
func (c *Coordinator) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.loop.Post(func() {
				if !c.tenant.IsZero() {
					c.LoadSnapshot(c.tenant)
				}
			})
		}
	}
}

// spawn runs one round trip off the loop
func (c *Coordinator) spawn(fn func(ctx context.Context)) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(c.base, c.opts.Timeout)
		defer cancel()
		fn(ctx)
	}()
}

// Wait blocks until every round trip in flight has posted its continuation
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Close cancels round trips in flight and waits for them
func (c *Coordinator) Close() {
	c.cancel()
	c.wg.Wait()
}
