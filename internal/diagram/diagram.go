// Package diagram assembles one interactive topology diagram.
//
// A Diagram owns its store, position cache, renderer, interaction
// controller and sync coordinator. Every component is touched only from
// the diagram's event loop; the exported methods post their work onto it
// and wait for the result. Several diagrams can run side by side.
package diagram

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"topomap/internal/domain"
	"topomap/internal/eventloop"
	"topomap/internal/interaction"
	"topomap/internal/layout"
	"topomap/internal/logging"
	"topomap/internal/render"
	"topomap/internal/repository"
	"topomap/internal/service"
	"topomap/internal/topology"
	"topomap/internal/ui"
)

// Options configures a Diagram
type Options struct {
	Styles       render.Styles
	Interaction  interaction.Options
	Coordinator  service.Options
	Viewport     domain.Size
	PositionsKey string
	Placer       render.Placer
}

// DefaultOptions returns the stock styles, zoom range and an 800x600
// viewport
func DefaultOptions() Options {
	return Options{
		Styles:       render.DefaultStyles(),
		Interaction:  interaction.DefaultOptions(),
		Viewport:     domain.Size{Width: 800, Height: 600},
		PositionsKey: layout.DefaultKey,
	}
}

// Diagram is one diagram instance
type Diagram struct {
	loop     *eventloop.Loop
	store    *topology.Store
	cache    *layout.Cache
	renderer *render.Renderer
	ctrl     *interaction.Controller
	coord    *service.Coordinator
	surface  ui.Surface
	bus      *service.EventBus
	viewport domain.Size
}

// New wires a diagram over source, persisting positions in kv
func New(source service.DataSource, kv repository.KeyValue, surface ui.Surface, bus *service.EventBus, opts Options) *Diagram {
	if bus == nil {
		bus = service.NewEventBus()
	}
	if opts.Styles.Colors == nil && opts.Styles.Widths == nil && opts.Styles.Icons == nil {
		opts.Styles = render.DefaultStyles()
	}
	if opts.Viewport.Width <= 0 || opts.Viewport.Height <= 0 {
		opts.Viewport = DefaultOptions().Viewport
	}

	d := &Diagram{
		loop:     eventloop.New(),
		store:    topology.NewStore(),
		surface:  surface,
		bus:      bus,
		viewport: opts.Viewport,
	}
	d.cache = layout.NewCache(kv, opts.PositionsKey)

	var renderOpts []render.Option
	if opts.Placer != nil {
		renderOpts = append(renderOpts, render.WithPlacer(opts.Placer))
	}
	d.renderer = render.New(d.store, opts.Styles, renderOpts...)
	d.ctrl = interaction.New(d.store, d.cache, d.renderer, surface, bus, opts.Interaction)
	d.coord = service.NewCoordinator(d.loop, source, d.store, d.cache, surface, bus, opts.Coordinator)

	d.ctrl.SetRemote(d.coord)
	d.coord.Attach(d.ctrl, d)
	return d
}

// RenderAll runs a full render pass and draws it. Loop only.
func (d *Diagram) RenderAll() {
	scene := d.renderer.Render(render.Input{
		Tenant:    d.coord.Tenant(),
		Transform: d.ctrl.Transform(),
		Raised:    d.ctrl.Active(),
	})
	d.surface.DrawScene(scene)
}

// Bus returns the event bus the diagram publishes on
func (d *Diagram) Bus() *service.EventBus {
	return d.bus
}

// Viewport returns the canvas size used by the zoom control
func (d *Diagram) Viewport() domain.Size {
	return d.viewport
}

// Run loads the position cache, then runs the event loop and the
// periodic refresh until ctx is done
func (d *Diagram) Run(ctx context.Context) error {
	overrides := d.cache.Load(ctx)
	logging.Infof("diagram started with %d saved positions", len(overrides))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return d.loop.Run(gctx)
	})
	g.Go(func() error {
		return d.coord.Run(gctx)
	})

	err := g.Wait()
	d.coord.Close()
	return err
}

// call runs fn on the loop and returns its result
func call[T any](ctx context.Context, d *Diagram, fn func() T) (T, error) {
	var out T
	err := d.loop.Call(ctx, func() error {
		out = fn()
		return nil
	})
	if err != nil {
		return out, fmt.Errorf("diagram unavailable: %w", err)
	}
	return out, nil
}

func do(ctx context.Context, d *Diagram, fn func()) error {
	_, err := call(ctx, d, func() struct{} {
		fn()
		return struct{}{}
	})
	return err
}

// SelectTenant switches the diagram to tenant. The empty ID clears it.
func (d *Diagram) SelectTenant(ctx context.Context, tenant domain.ID) error {
	return do(ctx, d, func() { d.coord.SelectTenant(tenant) })
}

// Refresh reloads the selected tenant
func (d *Diagram) Refresh(ctx context.Context) error {
	return do(ctx, d, d.coord.Refresh)
}

// Tenant returns the selected tenant
func (d *Diagram) Tenant(ctx context.Context) (domain.ID, error) {
	return call(ctx, d, d.coord.Tenant)
}

// Scene returns a copy of the last rendered scene
func (d *Diagram) Scene(ctx context.Context) (*render.Scene, error) {
	return call(ctx, d, func() *render.Scene {
		return d.renderer.Scene().Clone()
	})
}

// State returns the interaction state
func (d *Diagram) State(ctx context.Context) (interaction.State, error) {
	return call(ctx, d, d.ctrl.State)
}

// Positions returns the saved position overrides
func (d *Diagram) Positions(ctx context.Context) ([]domain.NodePosition, error) {
	return call(ctx, d, d.cache.Positions)
}

// DragStart begins dragging a node
func (d *Diagram) DragStart(ctx context.Context, id domain.ID) (bool, error) {
	return call(ctx, d, func() bool { return d.ctrl.DragStart(id) })
}

// DragMove moves the dragged node to p
func (d *Diagram) DragMove(ctx context.Context, id domain.ID, p domain.Point) (bool, error) {
	return call(ctx, d, func() bool { return d.ctrl.DragMove(id, p) })
}

// DragEnd releases the dragged node and saves positions
func (d *Diagram) DragEnd(ctx context.Context, id domain.ID) (bool, error) {
	return call(ctx, d, func() bool { return d.ctrl.DragEnd(id) })
}

// Zoom applies a canvas zoom or pan gesture
func (d *Diagram) Zoom(ctx context.Context, t domain.ViewTransform) (domain.ViewTransform, error) {
	return call(ctx, d, func() domain.ViewTransform { return d.ctrl.Zoom(t) })
}

// ZoomControl sets the scale from the zoom control
func (d *Diagram) ZoomControl(ctx context.Context, k float64) (domain.ViewTransform, error) {
	return call(ctx, d, func() domain.ViewTransform { return d.ctrl.ZoomControl(k, d.viewport) })
}

// ClickNode dispatches a primary click on a node
func (d *Diagram) ClickNode(ctx context.Context, id domain.ID) (bool, error) {
	return call(ctx, d, func() bool { return d.ctrl.ClickNode(id) })
}

// ClickLink dispatches a click on an edge
func (d *Diagram) ClickLink(ctx context.Context, key string) (bool, error) {
	return call(ctx, d, func() bool { return d.ctrl.ClickLink(key) })
}

// ContextNode starts a port connection from a node
func (d *Diagram) ContextNode(ctx context.Context, id domain.ID) (bool, error) {
	return call(ctx, d, func() bool { return d.ctrl.ContextNode(id) })
}

// SelectDestination picks the destination node of a port connection
func (d *Diagram) SelectDestination(ctx context.Context, node domain.ID) (bool, error) {
	return call(ctx, d, func() bool { return d.ctrl.SelectDestination(node) })
}

// CancelConnection abandons a port connection
func (d *Diagram) CancelConnection(ctx context.Context) error {
	return do(ctx, d, d.ctrl.CancelConnection)
}

// Connect submits a connection between two ports
func (d *Diagram) Connect(ctx context.Context, sourcePort, targetPort domain.ID, note string) (bool, error) {
	return call(ctx, d, func() bool { return d.ctrl.Connect(sourcePort, targetPort, note) })
}

// DeleteConnection submits the removal of a port's connection
func (d *Diagram) DeleteConnection(ctx context.Context, port domain.ID) (bool, error) {
	return call(ctx, d, func() bool { return d.ctrl.DeleteConnection(port) })
}

// Recover returns the interaction state machine to idle
func (d *Diagram) Recover(ctx context.Context) error {
	return do(ctx, d, d.ctrl.Recover)
}
