/*
Package presence tracks which users currently hold an open push connection.

The registry is process-wide and ephemeral: it is rebuilt from zero on
restart and its entries live exactly as long as the underlying connection.
It exists solely so the delivery relay can find an online receiver; it is
exposed through an interface so a distributed registry could replace the
in-memory one without touching callers.
*/
package presence

import (
	"sync"

	"github.com/rs/zerolog"

	"ichats/internal/pkg/logx"
)

// Handle is an active connection belonging to one user. Implementations must
// make Enqueue non-blocking: delivery is a hint, never a dependency.
type Handle interface {
	// Enqueue attempts to queue an already-encoded event for writing.
	// It reports false when the connection's buffer is full or closed.
	Enqueue(message []byte) bool

	// Kick closes the connection, telling the client why.
	Kick(reason string)
}

// Registry maps user ids to their single active connection handle.
type Registry interface {
	// Register stores the handle for the user. A previous handle for the same
	// user is kicked and replaced (last-connect-wins).
	Register(userID string, h Handle)

	// Unregister removes the user's entry, but only if it still belongs to the
	// given handle; a disconnect from a superseded connection is a no-op.
	Unregister(userID string, h Handle)

	// Lookup returns the user's active handle, if any.
	Lookup(userID string) (Handle, bool)
}

// MemoryRegistry is the in-process Registry implementation.
type MemoryRegistry struct {
	mu      sync.RWMutex
	handles map[string]Handle
	logger  zerolog.Logger
}

// NewMemoryRegistry constructs an empty MemoryRegistry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		handles: make(map[string]Handle),
		logger:  logx.Logger().With().Str("component", "presence").Logger(),
	}
}

func (r *MemoryRegistry) Register(userID string, h Handle) {
	r.mu.Lock()
	previous, replaced := r.handles[userID]
	r.handles[userID] = h
	r.mu.Unlock()

	if replaced && previous != h {
		r.logger.Warn().
			Str("user_id", userID).
			Msg("User already connected. Closing old connection for replacement.")

		previous.Kick("Session replaced by new connection. Check other tabs.")
	}

	r.logger.Info().Str("user_id", userID).Msg("User registered for push delivery.")
}

func (r *MemoryRegistry) Unregister(userID string, h Handle) {
	r.mu.Lock()
	current, ok := r.handles[userID]
	if ok && current == h {
		delete(r.handles, userID)
	}
	r.mu.Unlock()

	if ok && current != h {
		r.logger.Info().Str("user_id", userID).Msg("Ignoring unregister for stale connection.")
		return
	}

	if ok {
		r.logger.Info().Str("user_id", userID).Msg("User unregistered from push delivery.")
	}
}

func (r *MemoryRegistry) Lookup(userID string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handles[userID]
	return h, ok
}

// Shutdown kicks every connected client. Called during server teardown so
// clients learn the server is going away instead of timing out.
func (r *MemoryRegistry) Shutdown() {
	r.mu.Lock()
	handles := r.handles
	r.handles = make(map[string]Handle)
	r.mu.Unlock()

	for userID, h := range handles {
		r.logger.Info().Str("user_id", userID).Msg("Closing connection for server shutdown.")
		h.Kick("Server is shutting down.")
	}
}
