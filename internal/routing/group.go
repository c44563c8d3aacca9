// Package routing groups parallel links and computes their paths.
//
// Links between the same unordered pair of nodes form a group. A lone link
// is drawn straight; members of a larger group fan out as quadratic curves
// on alternating sides with growing offset.
package routing

import "topomap/internal/domain"

// PairKey is the unordered pair of endpoints a link connects. A <= B.
type PairKey struct {
	A domain.ID
	B domain.ID
}

// KeyOf returns the same key for (a, b) and (b, a)
func KeyOf(a, b domain.ID) PairKey {
	if b < a {
		a, b = b, a
	}
	return PairKey{A: a, B: b}
}

// String renders the key as "A|B"
func (k PairKey) String() string {
	return string(k.A) + "|" + string(k.B)
}

// Slot locates one link inside its group
type Slot struct {
	Key   PairKey
	Index int
	Size  int
}

// Curved reports whether the link shares its pair with others
func (s Slot) Curved() bool {
	return s.Size > 1
}

// EdgeGroup lists the links sharing one pair, in encounter order.
// Members holds indices into the grouped link slice.
type EdgeGroup struct {
	Key     PairKey
	Members []int
}

// Grouping is the result of one grouping pass
type Grouping struct {
	// Groups in order of first encounter
	Groups []EdgeGroup
	// Slots is parallel to the grouped link slice
	Slots []Slot
}

// Group assigns every link a slot. The result depends only on the order
// of links, so grouping the same slice twice gives identical slots.
func Group(links []domain.Link) Grouping {
	g := Grouping{Slots: make([]Slot, len(links))}
	index := make(map[PairKey]int)

	for i, link := range links {
		key := KeyOf(link.Source, link.Target)
		gi, ok := index[key]
		if !ok {
			gi = len(g.Groups)
			index[key] = gi
			g.Groups = append(g.Groups, EdgeGroup{Key: key})
		}
		g.Slots[i] = Slot{Key: key, Index: len(g.Groups[gi].Members)}
		g.Groups[gi].Members = append(g.Groups[gi].Members, i)
	}

	for _, group := range g.Groups {
		for _, member := range group.Members {
			g.Slots[member].Size = len(group.Members)
		}
	}
	return g
}

// Incident returns the indices of links touching the node
func Incident(links []domain.Link, nodeID domain.ID) []int {
	var out []int
	for i := range links {
		if links[i].Involves(nodeID) {
			out = append(out, i)
		}
	}
	return out
}

// NodeSet is the set of node IDs links may resolve against
type NodeSet map[domain.ID]struct{}

// NewNodeSet collects the IDs of nodes
func NewNodeSet(nodes []*domain.Node) NodeSet {
	set := make(NodeSet, len(nodes))
	for _, n := range nodes {
		set[n.ID] = struct{}{}
	}
	return set
}

// Has reports membership
func (s NodeSet) Has(id domain.ID) bool {
	_, ok := s[id]
	return ok
}

// Filter keeps links whose endpoints are both in nodes. A labeled link
// whose key was already seen is the mirror report of a kept connection
// and is dropped. Unlabeled links are always kept; identical ones get
// increasing ordinals so every kept link has its own key. Order is
// preserved.
func Filter(nodes NodeSet, links []domain.Link) []domain.Link {
	out := make([]domain.Link, 0, len(links))
	seen := make(map[string]struct{}, len(links))
	for _, link := range links {
		if !nodes.Has(link.Source) || !nodes.Has(link.Target) {
			continue
		}
		key := link.Key()
		if _, dup := seen[key]; dup {
			if link.Mirrorable() {
				continue
			}
			for dup {
				link.Ordinal++
				key = link.Key()
				_, dup = seen[key]
			}
		}
		seen[key] = struct{}{}
		out = append(out, link)
	}
	return out
}
