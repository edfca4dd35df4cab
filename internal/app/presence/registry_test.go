package presence

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeHandle is a minimal Handle recording kicks and enqueued events.
type fakeHandle struct {
	mu     sync.Mutex
	kicked []string
	queued [][]byte
}

func (f *fakeHandle) Enqueue(message []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queued = append(f.queued, message)
	return true
}

func (f *fakeHandle) Kick(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kicked = append(f.kicked, reason)
}

func (f *fakeHandle) kickCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.kicked)
}

func TestRegisterAndLookup(t *testing.T) {
	r := NewMemoryRegistry()
	h := &fakeHandle{}

	_, ok := r.Lookup("u1")
	require.False(t, ok)

	r.Register("u1", h)

	got, ok := r.Lookup("u1")
	require.True(t, ok)
	require.Same(t, h, got.(*fakeHandle))
}

func TestRegisterReplacesAndKicksPrevious(t *testing.T) {
	r := NewMemoryRegistry()
	first := &fakeHandle{}
	second := &fakeHandle{}

	r.Register("u1", first)
	r.Register("u1", second)

	got, ok := r.Lookup("u1")
	require.True(t, ok)
	require.Same(t, second, got.(*fakeHandle))

	require.Equal(t, 1, first.kickCount())
	require.Equal(t, 0, second.kickCount())
}

func TestUnregisterRemovesOwnHandleOnly(t *testing.T) {
	r := NewMemoryRegistry()
	first := &fakeHandle{}
	second := &fakeHandle{}

	r.Register("u1", first)
	r.Register("u1", second)

	// The replaced connection's teardown must not evict the new one.
	r.Unregister("u1", first)

	got, ok := r.Lookup("u1")
	require.True(t, ok)
	require.Same(t, second, got.(*fakeHandle))

	r.Unregister("u1", second)

	_, ok = r.Lookup("u1")
	require.False(t, ok)
}

func TestUnregisterUnknownUserIsNoOp(t *testing.T) {
	r := NewMemoryRegistry()
	r.Unregister("ghost", &fakeHandle{})

	_, ok := r.Lookup("ghost")
	require.False(t, ok)
}

func TestShutdownKicksEveryone(t *testing.T) {
	r := NewMemoryRegistry()
	a := &fakeHandle{}
	b := &fakeHandle{}

	r.Register("u1", a)
	r.Register("u2", b)

	r.Shutdown()

	require.Equal(t, 1, a.kickCount())
	require.Equal(t, 1, b.kickCount())

	_, ok := r.Lookup("u1")
	require.False(t, ok)
	_, ok = r.Lookup("u2")
	require.False(t, ok)
}

func TestConcurrentRegisterUnregister(t *testing.T) {
	r := NewMemoryRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h := &fakeHandle{}
			r.Register("u1", h)
			r.Lookup("u1")
			r.Unregister("u1", h)
		}()
	}
	wg.Wait()

	_, ok := r.Lookup("u1")
	require.False(t, ok)
}
