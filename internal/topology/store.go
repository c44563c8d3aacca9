// Package topology holds the node and link collections a diagram renders.
//
// The store is replaced wholesale from snapshots and never patched. It is
// owned by a single event loop and does no locking.
package topology

import "topomap/internal/domain"

// Store is the single source of truth for render passes
type Store struct {
	nodes    []*domain.Node
	byID     map[domain.ID]*domain.Node
	links    []domain.Link
	admin    bool
	revision uint64
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{byID: make(map[domain.ID]*domain.Node)}
}

// Replace swaps both collections. Nodes are copied so later position
// mutations never reach the caller's snapshot. A repeated node ID keeps its
// first occurrence.
func (s *Store) Replace(nodes []domain.Node, links []domain.Link) {
	s.nodes = make([]*domain.Node, 0, len(nodes))
	s.byID = make(map[domain.ID]*domain.Node, len(nodes))
	for _, n := range nodes {
		if n.ID.IsZero() {
			continue
		}
		if _, dup := s.byID[n.ID]; dup {
			continue
		}
		node := n.Clone()
		s.nodes = append(s.nodes, &node)
		s.byID[node.ID] = &node
	}

	s.links = make([]domain.Link, len(links))
	copy(s.links, links)
	s.revision++
}

// SetTenantContext records whether the viewer has elevated capability
func (s *Store) SetTenantContext(admin bool) {
	s.admin = admin
}

// Admin reports the viewer capability recorded by SetTenantContext
func (s *Store) Admin() bool {
	return s.admin
}

// Clear empties the store and drops the admin flag
func (s *Store) Clear() {
	s.Replace(nil, nil)
	s.admin = false
}

// Nodes returns the current nodes in snapshot order. The pointers are
// live; moving a node through them is how drags update the store.
func (s *Store) Nodes() []*domain.Node {
	return s.nodes
}

// Links returns the current links in snapshot order
func (s *Store) Links() []domain.Link {
	return s.links
}

// Node looks up a node by ID
func (s *Store) Node(id domain.ID) (*domain.Node, bool) {
	n, ok := s.byID[id]
	return n, ok
}

// Revision increases on every Replace
func (s *Store) Revision() uint64 {
	return s.revision
}

// Len returns the node and link counts
func (s *Store) Len() (nodes, links int) {
	return len(s.nodes), len(s.links)
}
