// Package layout persists manual node positions across topology refreshes.
package layout

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"topomap/internal/domain"
	"topomap/internal/logging"
	"topomap/internal/repository"
)

// DefaultKey is the storage key position overrides live under
const DefaultKey = "posicoesEquipamentos"

// Cache holds position overrides keyed by node ID
type Cache struct {
	store     repository.KeyValue
	key       string
	overrides map[domain.ID]domain.Point
}

// NewCache creates a cache over store. An empty key selects DefaultKey.
func NewCache(store repository.KeyValue, key string) *Cache {
	if key == "" {
		key = DefaultKey
	}
	return &Cache{
		store:     store,
		key:       key,
		overrides: make(map[domain.ID]domain.Point),
	}
}

// Key returns the storage key
func (c *Cache) Key() string {
	return c.key
}

// Load restores overrides from the store. Missing or unreadable data
// leaves the cache empty; the problem is logged, never returned.
func (c *Cache) Load(ctx context.Context) map[domain.ID]domain.Point {
	c.overrides = make(map[domain.ID]domain.Point)

	data, ok, err := c.store.Get(ctx, c.key)
	if err != nil {
		logging.Warnf("position cache unavailable, using snapshot layout: %v", err)
		return c.Overrides()
	}
	if !ok {
		return c.Overrides()
	}

	var entries []domain.NodePosition
	if err := json.Unmarshal(data, &entries); err != nil {
		logging.Warnf("discarding corrupt position cache %q: %v", c.key, err)
		return c.Overrides()
	}

	for _, e := range entries {
		if e.NodeID.IsZero() {
			continue
		}
		c.overrides[e.NodeID] = e.Point()
	}
	logging.Debugf("loaded %d position overrides", len(c.overrides))
	return c.Overrides()
}

// Save records the coordinate of every positioned node and persists the
// full override set. Overrides for nodes not in nodes are kept.
func (c *Cache) Save(ctx context.Context, nodes []*domain.Node) error {
	for _, n := range nodes {
		if n.HasPosition() {
			c.overrides[n.ID] = *n.Position
		}
	}

	return c.persist(ctx)
}

// Import merges externally supplied entries into the overrides and
// persists the result. Entries without a node ID or with a non-finite
// coordinate are skipped. It returns how many entries were taken.
func (c *Cache) Import(ctx context.Context, entries []domain.NodePosition) (int, error) {
	taken := 0
	for _, e := range entries {
		p := e.Point()
		if e.NodeID.IsZero() || !finite(p) {
			continue
		}
		c.overrides[e.NodeID] = p
		taken++
	}
	if taken == 0 {
		return 0, nil
	}
	return taken, c.persist(ctx)
}

func (c *Cache) persist(ctx context.Context) error {
	data, err := json.Marshal(c.Positions())
	if err != nil {
		return fmt.Errorf("failed to encode positions: %w", err)
	}
	if err := c.store.Put(ctx, c.key, data); err != nil {
		return fmt.Errorf("failed to save positions: %w", err)
	}
	return nil
}

// Apply moves every node with an override to the overridden coordinate.
// It returns how many nodes moved.
func (c *Cache) Apply(nodes []*domain.Node) int {
	applied := 0
	for _, n := range nodes {
		if p, ok := c.overrides[n.ID]; ok {
			n.MoveTo(p)
			applied++
		}
	}
	return applied
}

// Clear drops every override and removes the stored key
func (c *Cache) Clear(ctx context.Context) error {
	c.overrides = make(map[domain.ID]domain.Point)
	if err := c.store.Delete(ctx, c.key); err != nil {
		return fmt.Errorf("failed to clear positions: %w", err)
	}
	return nil
}

// Lookup returns the override for one node
func (c *Cache) Lookup(id domain.ID) (domain.Point, bool) {
	p, ok := c.overrides[id]
	return p, ok
}

// Overrides returns a copy of the override map
func (c *Cache) Overrides() map[domain.ID]domain.Point {
	out := make(map[domain.ID]domain.Point, len(c.overrides))
	for id, p := range c.overrides {
		out[id] = p
	}
	return out
}

// Positions returns the overrides as persisted entries ordered by node ID
func (c *Cache) Positions() []domain.NodePosition {
	out := make([]domain.NodePosition, 0, len(c.overrides))
	for id, p := range c.overrides {
		out = append(out, *domain.NewNodePosition(id, p.X, p.Y))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].NodeID < out[j].NodeID
	})
	return out
}

// Len returns the number of overrides
func (c *Cache) Len() int {
	return len(c.overrides)
}

func finite(p domain.Point) bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}
