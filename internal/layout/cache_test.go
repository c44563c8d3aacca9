package layout

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"topomap/internal/domain"
	"topomap/internal/repository"
	"topomap/internal/repository/file"
	"topomap/internal/repository/sqlite"
)

// memoryStore is a repository.KeyValue for tests
type memoryStore struct {
	data   map[string][]byte
	getErr error
	putErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string][]byte)}
}

func (m *memoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryStore) Put(_ context.Context, key string, value []byte) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.data[key] = value
	return nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *memoryStore) Keys(context.Context) ([]string, error) { return nil, nil }
func (m *memoryStore) Close() error                           { return nil }

func positioned(id domain.ID, x, y float64) *domain.Node {
	return &domain.Node{ID: id, Position: &domain.Point{X: x, Y: y}}
}

func TestCacheRoundTrip(t *testing.T) {
	backends := map[string]func(t *testing.T) repository.KeyValue{
		"memory": func(t *testing.T) repository.KeyValue { return newMemoryStore() },
		"file": func(t *testing.T) repository.KeyValue {
			s, err := file.New(filepath.Join(t.TempDir(), "positions.json"))
			if err != nil {
				t.Fatalf("failed to create file store: %v", err)
			}
			return s
		},
		"sqlite": func(t *testing.T) repository.KeyValue {
			s, err := sqlite.New(":memory:")
			if err != nil {
				t.Fatalf("failed to create sqlite store: %v", err)
			}
			t.Cleanup(func() { s.Close() })
			return s
		},
	}

	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(t)
			nodes := []*domain.Node{
				positioned("1", 12.5, -40),
				positioned("2", 300, 0.125),
				{ID: "3"},
			}

			if err := NewCache(store, "").Save(ctx, nodes); err != nil {
				t.Fatalf("Save() error: %v", err)
			}

			reloaded := NewCache(store, "")
			overrides := reloaded.Load(ctx)
			if len(overrides) != 2 {
				t.Fatalf("expected 2 overrides, got %d", len(overrides))
			}

			fresh := []*domain.Node{{ID: "1"}, {ID: "2"}, {ID: "3"}}
			if applied := reloaded.Apply(fresh); applied != 2 {
				t.Errorf("expected 2 nodes moved, got %d", applied)
			}
			for i := 0; i < 2; i++ {
				if *fresh[i].Position != *nodes[i].Position {
					t.Errorf("node %s: expected %+v, got %+v", fresh[i].ID, *nodes[i].Position, *fresh[i].Position)
				}
			}
			if fresh[2].HasPosition() {
				t.Error("expected unpositioned node to stay unpositioned")
			}
		})
	}
}

func TestCacheLoadFailsSoft(t *testing.T) {
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		cache := NewCache(newMemoryStore(), "")
		if got := cache.Load(ctx); len(got) != 0 {
			t.Errorf("expected empty overrides, got %v", got)
		}
	})

	t.Run("corrupt data", func(t *testing.T) {
		store := newMemoryStore()
		store.data[DefaultKey] = []byte(`{"id": broken`)
		cache := NewCache(store, "")
		if got := cache.Load(ctx); len(got) != 0 {
			t.Errorf("expected empty overrides, got %v", got)
		}
	})

	t.Run("store error", func(t *testing.T) {
		store := newMemoryStore()
		store.getErr = errors.New("disk gone")
		cache := NewCache(store, "")
		if got := cache.Load(ctx); len(got) != 0 {
			t.Errorf("expected empty overrides, got %v", got)
		}
	})

	t.Run("corrupt data replaces previous overrides", func(t *testing.T) {
		store := newMemoryStore()
		cache := NewCache(store, "")
		if err := cache.Save(ctx, []*domain.Node{positioned("1", 1, 1)}); err != nil {
			t.Fatalf("Save() error: %v", err)
		}
		store.data[DefaultKey] = []byte("garbage")
		cache.Load(ctx)
		if cache.Len() != 0 {
			t.Errorf("expected cache discarded, got %d overrides", cache.Len())
		}
	})
}

func TestCacheSaveMergesOtherNodes(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	store.data[DefaultKey] = []byte(`[{"id":100,"x":1,"y":2}]`)

	cache := NewCache(store, "")
	cache.Load(ctx)
	if err := cache.Save(ctx, []*domain.Node{positioned("1", 10, 20)}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	want := `[{"id":1,"x":10,"y":20},{"id":100,"x":1,"y":2}]`
	if got := string(store.data[DefaultKey]); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestCacheSaveError(t *testing.T) {
	store := newMemoryStore()
	store.putErr = errors.New("read-only")

	err := NewCache(store, "").Save(context.Background(), []*domain.Node{positioned("1", 0, 0)})
	if err == nil {
		t.Fatal("expected save error")
	}
	if !errors.Is(err, store.putErr) {
		t.Errorf("expected wrapped store error, got %v", err)
	}
}

func TestCacheClear(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	cache := NewCache(store, "custom")

	if err := cache.Save(ctx, []*domain.Node{positioned("1", 5, 5)}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if _, ok := store.data["custom"]; !ok {
		t.Fatal("expected custom key to be written")
	}

	if err := cache.Clear(ctx); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if _, ok := store.data["custom"]; ok {
		t.Error("expected key removed")
	}
	if _, ok := cache.Lookup("1"); ok {
		t.Error("expected overrides dropped")
	}
}

func TestCacheImport(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	cache := NewCache(store, "")

	taken, err := cache.Import(ctx, []domain.NodePosition{
		{NodeID: "2", X: 3, Y: 4},
		{NodeID: "", X: 1, Y: 1},
		{NodeID: "3", X: math.NaN(), Y: 0},
		{NodeID: "1", X: 1, Y: 2},
	})
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	if taken != 2 {
		t.Errorf("expected 2 entries taken, got %d", taken)
	}

	want := `[{"id":1,"x":1,"y":2},{"id":2,"x":3,"y":4}]`
	if got := string(store.data[DefaultKey]); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}

	store.data = make(map[string][]byte)
	if taken, _ := cache.Import(ctx, nil); taken != 0 {
		t.Errorf("expected nothing taken, got %d", taken)
	}
	if _, ok := store.data[DefaultKey]; ok {
		t.Error("expected empty import to leave the store untouched")
	}
}
