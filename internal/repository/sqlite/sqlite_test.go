package sqlite

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
)

// newTestRepo creates an in-memory SQLite repository for testing
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}

	t.Cleanup(func() {
		repo.Close()
	})
	return repo
}

// assertNoError fails the test if err is not nil
func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// assertEqual fails the test if expected != actual
func assertEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()
	if !reflect.DeepEqual(expected, actual) {
		t.Fatalf("expected %v, got %v", expected, actual)
	}
}

func TestGetMissing(t *testing.T) {
	repo := newTestRepo(t)

	value, ok, err := repo.Get(context.Background(), "posicoesEquipamentos")
	assertNoError(t, err)
	if ok {
		t.Error("expected missing key")
	}
	if value != nil {
		t.Errorf("expected nil value, got %q", value)
	}
}

func TestPutGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	t.Run("stores value", func(t *testing.T) {
		assertNoError(t, repo.Put(ctx, "positions", []byte(`[{"id":7,"x":1,"y":2}]`)))

		value, ok, err := repo.Get(ctx, "positions")
		assertNoError(t, err)
		assertEqual(t, true, ok)
		assertEqual(t, `[{"id":7,"x":1,"y":2}]`, string(value))
	})

	t.Run("overwrites value", func(t *testing.T) {
		assertNoError(t, repo.Put(ctx, "positions", []byte(`[]`)))

		value, _, err := repo.Get(ctx, "positions")
		assertNoError(t, err)
		assertEqual(t, `[]`, string(value))
	})
}

func TestDeleteAndKeys(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	assertNoError(t, repo.Put(ctx, "b", []byte("2")))
	assertNoError(t, repo.Put(ctx, "a", []byte("1")))

	keys, err := repo.Keys(ctx)
	assertNoError(t, err)
	assertEqual(t, []string{"a", "b"}, keys)

	assertNoError(t, repo.Delete(ctx, "a"))
	assertNoError(t, repo.Delete(ctx, "missing"))

	_, ok, err := repo.Get(ctx, "a")
	assertNoError(t, err)
	assertEqual(t, false, ok)

	keys, err = repo.Keys(ctx)
	assertNoError(t, err)
	assertEqual(t, []string{"b"}, keys)
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topomap.db")
	ctx := context.Background()

	repo, err := New(path)
	assertNoError(t, err)
	assertNoError(t, repo.Put(ctx, "k", []byte("v")))
	assertNoError(t, repo.Close())

	reopened, err := New(path)
	assertNoError(t, err)
	defer reopened.Close()

	value, ok, err := reopened.Get(ctx, "k")
	assertNoError(t, err)
	assertEqual(t, true, ok)
	assertEqual(t, "v", string(value))
}
