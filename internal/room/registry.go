package room

import (
	"log/slog"
	"sync"
)

// Registry - process-wide table of live rooms. Rooms are created on first
// resolve and removed again once their last member detaches; nothing survives
// a restart.
type Registry struct {
	logger   *slog.Logger
	recorder Recorder

	mu    sync.Mutex
	rooms map[string]*Room
}

// NewRegistry - creates an empty registry. recorder may be nil.
func NewRegistry(logger *slog.Logger, recorder Recorder) *Registry {
	return &Registry{
		logger:   logger.With("component", "registry"),
		recorder: recorder,
		rooms:    make(map[string]*Room),
	}
}

// Resolve - returns the room for token, creating it if none exists. Safe
// under concurrent resolution of the same token: exactly one room is created
// and every caller receives the same instance.
func (that *Registry) Resolve(token string) *Room {
	that.mu.Lock()
	defer that.mu.Unlock()

	existing, ok := that.rooms[token]
	if ok {
		return existing
	}

	created := New(token, that.logger, that.recorder, that.Release)
	that.rooms[token] = created
	that.logger.Info("room created", "token", token)

	return created
}

// Release - removes the room for token if it is still empty. A room that
// gained a new member between going empty and this call is kept; the check
// reads the room's own member count, not a stale flag.
func (that *Registry) Release(token string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	existing, ok := that.rooms[token]
	if !ok {
		return
	}

	if existing.MemberCount() > 0 {
		return
	}

	delete(that.rooms, token)
	that.logger.Info("room released", "token", token)
}

// Len - number of live rooms.
func (that *Registry) Len() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.rooms)
}
