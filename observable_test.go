package nanitws

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intObservable(initial int) *Observable[int] {
	return newObservable(initial, func(a, b int) bool { return a == b })
}

func TestObservable_ReplaysCurrentValue(t *testing.T) {
	o := intObservable(7)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.Equal(t, 7, recv(t, o.Subscribe(ctx)))
	assert.Equal(t, 7, o.Get())
}

func TestObservable_DistinctInOrder(t *testing.T) {
	o := intObservable(0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := o.Subscribe(ctx)

	assert.True(t, o.set(1))
	assert.True(t, o.set(2))
	assert.False(t, o.set(2))
	assert.True(t, o.set(3))

	var got []int
	for i := 0; i < 4; i++ {
		got = append(got, recv(t, ch))
	}
	assert.Equal(t, []int{0, 1, 2, 3}, got)
}

func TestObservable_SlowSubscriberMissesNothing(t *testing.T) {
	o := intObservable(0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := o.Subscribe(ctx)
	for i := 1; i <= 500; i++ {
		o.set(i)
	}

	for i := 0; i <= 500; i++ {
		require.Equal(t, i, recv(t, ch))
	}
}

func TestObservable_Update(t *testing.T) {
	o := intObservable(1)
	assert.True(t, o.update(func(v int) int { return v + 1 }))
	assert.False(t, o.update(func(v int) int { return v }))
	assert.Equal(t, 2, o.Get())
}

func TestObservable_CancelClosesChannel(t *testing.T) {
	o := intObservable(0)
	ctx, cancel := context.WithCancel(context.Background())

	ch := o.Subscribe(ctx)
	assert.Equal(t, 1, o.Subscribers())

	cancel()
	drain(t, ch)

	require.Eventually(t, func() bool { return o.Subscribers() == 0 }, testTimeout, 5*time.Millisecond)

	// Setting after every subscriber left must not block.
	o.set(1)
}

func TestObservable_IndependentSubscribers(t *testing.T) {
	o := intObservable(0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := o.Subscribe(ctx)
	o.set(1)
	b := o.Subscribe(ctx)
	o.set(2)

	assert.Equal(t, 0, recv(t, a))
	assert.Equal(t, 1, recv(t, a))
	assert.Equal(t, 2, recv(t, a))

	assert.Equal(t, 1, recv(t, b))
	assert.Equal(t, 2, recv(t, b))
}
