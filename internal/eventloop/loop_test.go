package eventloop

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopRunsInOrder(t *testing.T) {
	loop := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	var got []int
	for i := 0; i < 100; i++ {
		i := i
		loop.Post(func() { got = append(got, i) })
	}

	err := loop.Call(ctx, func() error { return nil })
	require.NoError(t, err)

	require.Len(t, got, 100)
	for i, v := range got {
		if v != i {
			t.Fatalf("task %d ran at position %d", v, i)
		}
	}
}

func TestLoopPostFromManyGoroutines(t *testing.T) {
	loop := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				loop.Post(func() { counter++ })
			}
		}()
	}
	wg.Wait()

	require.NoError(t, loop.Call(ctx, func() error { return nil }))
	assert.Equal(t, 1000, counter)
}

func TestLoopCall(t *testing.T) {
	loop := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	want := errors.New("boom")
	err := loop.Call(ctx, func() error { return want })
	assert.ErrorIs(t, err, want)
}

func TestLoopStopped(t *testing.T) {
	loop := New()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	assert.False(t, loop.Post(func() {}))
	assert.ErrorIs(t, loop.Call(context.Background(), func() error { return nil }), ErrStopped)
}

func TestLoopDrain(t *testing.T) {
	loop := New()

	var order []string
	loop.Post(func() {
		order = append(order, "first")
		loop.Post(func() { order = append(order, "nested") })
	})
	loop.Post(func() { order = append(order, "second") })

	assert.Equal(t, 2, loop.Pending())
	assert.Equal(t, 3, loop.Drain())
	assert.Equal(t, []string{"first", "second", "nested"}, order)
	assert.Equal(t, 0, loop.Pending())
}
