// Package domain defines the core types of the topomap diagram engine.
//
// Node is a piece of equipment (switch, OLT, router...) owned by a tenant.
// Link is a port-to-port connection between two nodes; it references its
// endpoints by ID and is resolved against the current node set when the
// diagram is rendered.
//
// All identifiers (nodes, tenants, ports) use the ID type. The backend
// mixes numeric and string identifiers; they are normalised to ID when a
// payload is decoded and are never compared in any other form.
//
// NodePosition is a manually dragged coordinate persisted independently of
// the topology snapshot. ViewTransform is the pan/zoom of a rendered
// diagram.
//
// The package has no infrastructure dependencies.
package domain
