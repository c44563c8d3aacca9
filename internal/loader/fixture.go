// Package loader serves a topology from a YAML fixture file.
//
// A Fixture behaves like the inventory backend: links are derived from
// port-to-port connections, reported once from each side, and connect or
// disconnect commands mutate the in-memory state.
package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"topomap/internal/domain"
	"topomap/internal/logging"
)

// Rejection messages returned in command results
const (
	MsgPortNotFound      = "Porta não encontrada"
	MsgSamePort          = "Não é possível conectar uma porta a ela mesma"
	MsgPortBusy          = "Porta já está conectada"
	MsgTenantMismatch    = "As portas pertencem a empresas diferentes"
	MsgNotConnected      = "Porta não está conectada"
	MsgEquipmentNotFound = "Equipamento não encontrado"
	MsgWrongTenant       = "Equipamento não pertence à empresa selecionada"
	MsgConnected         = "Portas conectadas com sucesso."
	MsgDisconnected      = "Conexão removida com sucesso."
)

// ErrNotFound is returned for unknown equipment
var ErrNotFound = errors.New("equipment not found")

// FixtureYAML represents the YAML file structure
type FixtureYAML struct {
	Version   string          `yaml:"version"`
	Admin     bool            `yaml:"admin"`
	Tenants   []TenantYAML    `yaml:"tenants,omitempty"`
	Equipment []EquipmentYAML `yaml:"equipment"`
}

// TenantYAML represents a tenant
type TenantYAML struct {
	ID   domain.ID `yaml:"id"`
	Name string    `yaml:"name"`
}

// EquipmentYAML represents a piece of equipment
type EquipmentYAML struct {
	ID       domain.ID  `yaml:"id"`
	Name     string     `yaml:"name"`
	Type     string     `yaml:"type"`
	Status   string     `yaml:"status,omitempty"`
	Tenant   domain.ID  `yaml:"tenant"`
	IP       string     `yaml:"ip,omitempty"`
	User     string     `yaml:"user,omitempty"`
	Password string     `yaml:"password,omitempty"`
	X        *float64   `yaml:"x,omitempty"`
	Y        *float64   `yaml:"y,omitempty"`
	Ports    []PortYAML `yaml:"ports,omitempty"`
}

// PortYAML represents a port and its connection
type PortYAML struct {
	ID          domain.ID `yaml:"id"`
	Name        string    `yaml:"name"`
	Type        string    `yaml:"type,omitempty"`
	Speed       string    `yaml:"speed,omitempty"`
	ConnectedTo domain.ID `yaml:"connected_to,omitempty"`
	Note        string    `yaml:"note,omitempty"`
}

// Tenant is a tenant known to the fixture
type Tenant struct {
	ID   domain.ID
	Name string
}

type equipment struct {
	domain.Equipment
	tenant   domain.ID
	position *domain.Point
	ports    []domain.ID
}

type port struct {
	domain.Port
	owner domain.ID
	peer  domain.ID
	note  string
}

// Fixture is an in-memory data source
type Fixture struct {
	mu        sync.RWMutex
	path      string
	version   string
	admin     bool
	tenants   []Tenant
	order     []domain.ID
	equipment map[domain.ID]*equipment
	ports     map[domain.ID]*port
}

// LoadFixture loads a fixture from a YAML file
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	f, err := ParseFixture(data)
	if err != nil {
		return nil, err
	}
	f.path = path
	return f, nil
}

// ParseFixture parses a fixture from YAML bytes
func ParseFixture(data []byte) (*Fixture, error) {
	var y FixtureYAML
	if err := yaml.Unmarshal(data, &y); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	f := &Fixture{}
	if err := f.build(&y); err != nil {
		return nil, err
	}
	return f, nil
}

// Reload re-reads the fixture file. On error the current state is kept.
func (f *Fixture) Reload() error {
	f.mu.RLock()
	path := f.path
	f.mu.RUnlock()
	if path == "" {
		return errors.New("fixture was not loaded from a file")
	}

	next, err := LoadFixture(path)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.version = next.version
	f.admin = next.admin
	f.tenants = next.tenants
	f.order = next.order
	f.equipment = next.equipment
	f.ports = next.ports
	logging.Infof("fixture reloaded from %s: %d equipment, %d ports", path, len(f.order), len(f.ports))
	return nil
}

// Path returns the file the fixture was loaded from
func (f *Fixture) Path() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.path
}

// Tenants returns the tenants declared in the fixture
func (f *Fixture) Tenants() []Tenant {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]Tenant(nil), f.tenants...)
}

func (f *Fixture) build(y *FixtureYAML) error {
	f.version = y.Version
	f.admin = y.Admin
	f.equipment = make(map[domain.ID]*equipment, len(y.Equipment))
	f.ports = make(map[domain.ID]*port)
	f.order = nil
	f.tenants = nil

	for _, t := range y.Tenants {
		f.tenants = append(f.tenants, Tenant{ID: t.ID, Name: t.Name})
	}

	for _, e := range y.Equipment {
		if e.ID.IsZero() {
			return fmt.Errorf("equipment %q has no id", e.Name)
		}
		if _, dup := f.equipment[e.ID]; dup {
			return fmt.Errorf("duplicate equipment id %s", e.ID)
		}

		status := e.Status
		if status == "" {
			status = domain.StatusActive
		}
		eq := &equipment{
			Equipment: domain.Equipment{
				ID:       e.ID,
				Name:     e.Name,
				Type:     e.Type,
				Address:  e.IP,
				Username: e.User,
				Password: e.Password,
				Status:   status,
			},
			tenant: e.Tenant,
		}
		if e.X != nil && e.Y != nil {
			eq.position = &domain.Point{X: *e.X, Y: *e.Y}
		}

		for _, p := range e.Ports {
			if p.ID.IsZero() {
				return fmt.Errorf("port %q on equipment %s has no id", p.Name, e.ID)
			}
			if _, dup := f.ports[p.ID]; dup {
				return fmt.Errorf("duplicate port id %s", p.ID)
			}
			f.ports[p.ID] = &port{
				Port:  domain.Port{ID: p.ID, Name: p.Name, Type: p.Type, Speed: p.Speed},
				owner: e.ID,
				peer:  p.ConnectedTo,
				note:  p.Note,
			}
			eq.ports = append(eq.ports, p.ID)
		}

		f.equipment[e.ID] = eq
		f.order = append(f.order, e.ID)
	}

	// Connections may be declared from one side only
	for id, p := range f.ports {
		if p.peer.IsZero() {
			continue
		}
		peer, ok := f.ports[p.peer]
		if !ok {
			return fmt.Errorf("port %s connected to unknown port %s", id, p.peer)
		}
		if peer.peer.IsZero() {
			peer.peer = id
		} else if peer.peer != id {
			return fmt.Errorf("port %s is connected to %s but %s is connected to %s", id, p.peer, p.peer, peer.peer)
		}
	}
	return nil
}

// FetchSnapshot returns the equipment of tenant and the links reported by
// their ports. Every connection is reported once from each side.
func (f *Fixture) FetchSnapshot(ctx context.Context, tenant domain.ID) (*domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	snap := &domain.Snapshot{Admin: f.admin}
	for _, id := range f.order {
		eq := f.equipment[id]
		if eq.tenant != tenant {
			continue
		}

		node := domain.Node{
			ID:     eq.ID,
			Name:   eq.Name,
			Type:   eq.Type,
			Status: eq.Status,
			Tenant: eq.tenant,
		}
		if eq.position != nil {
			node.MoveTo(*eq.position)
		}
		snap.Nodes = append(snap.Nodes, node)

		for _, pid := range eq.ports {
			p := f.ports[pid]
			if p.peer.IsZero() {
				continue
			}
			peer := f.ports[p.peer]
			snap.Links = append(snap.Links, domain.Link{
				Source:       p.owner,
				Target:       peer.owner,
				Type:         p.Type,
				Speed:        p.Speed,
				SourcePort:   p.Name,
				TargetPort:   peer.Name,
				SourcePortID: p.ID,
				Note:         p.note,
			})
		}
	}
	return snap, nil
}

// ListPorts returns the free ports of a piece of equipment
func (f *Fixture) ListPorts(ctx context.Context, equipmentID, tenant domain.ID) ([]domain.Port, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	eq, ok := f.equipment[equipmentID]
	if !ok {
		return nil, &domain.RejectionError{Message: MsgEquipmentNotFound}
	}
	if !tenant.IsZero() && eq.tenant != tenant {
		return nil, &domain.RejectionError{Message: MsgWrongTenant}
	}

	free := make([]domain.Port, 0, len(eq.ports))
	for _, pid := range eq.ports {
		if p := f.ports[pid]; p.peer.IsZero() {
			free = append(free, p.Port)
		}
	}
	return free, nil
}

// GetEquipment returns the detail record of a piece of equipment
func (f *Fixture) GetEquipment(ctx context.Context, id domain.ID) (*domain.Equipment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	eq, ok := f.equipment[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	detail := eq.Equipment
	return &detail, nil
}

// Connect joins two free ports of the same tenant
func (f *Fixture) Connect(ctx context.Context, req domain.ConnectRequest) (*domain.CommandResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	src, okSrc := f.ports[req.SourcePortID]
	dst, okDst := f.ports[req.TargetPortID]
	switch {
	case !okSrc || !okDst:
		return rejected(MsgPortNotFound), nil
	case src.ID == dst.ID:
		return rejected(MsgSamePort), nil
	case !src.peer.IsZero() || !dst.peer.IsZero():
		return rejected(MsgPortBusy), nil
	case f.equipment[src.owner].tenant != f.equipment[dst.owner].tenant:
		return rejected(MsgTenantMismatch), nil
	}

	src.peer = dst.ID
	dst.peer = src.ID
	src.note = req.Note
	logging.Infof("fixture: connected port %s to %s", src.ID, dst.ID)
	return &domain.CommandResult{Success: true, Message: MsgConnected}, nil
}

// Disconnect clears the connection of a port on both sides
func (f *Fixture) Disconnect(ctx context.Context, req domain.DisconnectRequest) (*domain.CommandResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.ports[req.PortID]
	if !ok {
		return rejected(MsgPortNotFound), nil
	}
	if p.peer.IsZero() {
		return rejected(MsgNotConnected), nil
	}

	if peer, ok := f.ports[p.peer]; ok {
		peer.peer = ""
		peer.note = ""
	}
	logging.Infof("fixture: disconnected port %s from %s", p.ID, p.peer)
	p.peer = ""
	p.note = ""
	return &domain.CommandResult{Success: true, Message: MsgDisconnected}, nil
}

func rejected(msg string) *domain.CommandResult {
	return &domain.CommandResult{Error: msg}
}
