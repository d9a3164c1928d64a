package nanitws

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventEmitter_SingleListener(t *testing.T) {
	emitter := NewEventEmitter[SessionEventType, SessionEvent]()
	var got []SessionEvent

	emitter.On(SessionCompleted, func(ev SessionEvent) {
		got = append(got, ev)
	})

	emitter.Emit(SessionCompleted, SessionEvent{Type: SessionCompleted, Record: milaRecord()})

	assert.Len(t, got, 1)
	assert.Equal(t, "Mila", got[0].Record.Name)
}

func TestEventEmitter_ListenersRunInOrder(t *testing.T) {
	emitter := NewEventEmitter[string, int]()
	var got []int

	emitter.On("event", func(v int) { got = append(got, v) })
	emitter.On("event", func(v int) { got = append(got, v*2) })

	emitter.Emit("event", 10)

	assert.Equal(t, []int{10, 20}, got)
}

func TestEventEmitter_Isolation(t *testing.T) {
	emitter := NewEventEmitter[SessionEventType, int]()
	var completed, ended int

	emitter.On(SessionCompleted, func(v int) { completed = v })
	emitter.On(SessionEnded, func(v int) { ended = v })

	emitter.Emit(SessionCompleted, 5)
	emitter.Emit(SessionEnded, 15)
	// No listeners: nothing happens.
	emitter.Emit(SessionEventType(42), 100)

	assert.Equal(t, 5, completed)
	assert.Equal(t, 15, ended)
}

func TestEventEmitter_ListenerMayRegister(t *testing.T) {
	emitter := NewEventEmitter[string, int]()
	calls := 0

	emitter.On("event", func(int) {
		calls++
		emitter.On("event", func(int) { calls++ })
	})

	emitter.Emit("event", 1)
	assert.Equal(t, 1, calls)

	emitter.Emit("event", 1)
	assert.Equal(t, 3, calls)
}

func TestEventEmitter_Close(t *testing.T) {
	emitter := NewEventEmitter[string, int]()
	calls := 0
	emitter.On("event", func(int) { calls++ })

	emitter.Close()
	emitter.Emit("event", 1)

	assert.Zero(t, calls)
}

func TestEventEmitter_Concurrent(t *testing.T) {
	emitter := NewEventEmitter[string, int]()
	var mu sync.Mutex
	var results []int
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			emitter.On("event", func(data int) {
				mu.Lock()
				results = append(results, data+i)
				mu.Unlock()
			})
		}(i)
	}
	wg.Wait()

	for j := 0; j < 10; j++ {
		wg.Add(1)
		go func(j int) {
			defer wg.Done()
			emitter.Emit("event", j)
		}(j)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, results, 100)
}
