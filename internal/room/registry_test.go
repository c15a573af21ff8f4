package room_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Resolve(t *testing.T) {
	t.Run("Returns the same room for the same token", func(t *testing.T) {
		// Given: an empty registry
		registry := room.NewRegistry(testLogger(), nil)

		// When: resolving one token twice and another token once
		first := registry.Resolve("room1")
		second := registry.Resolve("room1")
		other := registry.Resolve("room2")

		// Then: the token maps to a single instance
		assert.Same(t, first, second)
		assert.NotSame(t, first, other)
		assert.Equal(t, 2, registry.Len())
	})

	t.Run("Concurrent first arrivals receive a single instance", func(t *testing.T) {
		// Given: an empty registry and many connections racing one token
		registry := room.NewRegistry(testLogger(), nil)

		const arrivals = 32
		rooms := make([]*room.Room, arrivals)

		var wg sync.WaitGroup
		wg.Add(arrivals)
		for i := 0; i < arrivals; i++ {
			go func(i int) {
				defer wg.Done()
				rooms[i] = registry.Resolve("room1")
			}(i)
		}
		wg.Wait()

		// Then: every arrival got the same room and only one exists
		for i := 1; i < arrivals; i++ {
			assert.Same(t, rooms[0], rooms[i])
		}
		assert.Equal(t, 1, registry.Len())
	})
}

func TestRegistry_Release(t *testing.T) {
	t.Run("Removes an empty room", func(t *testing.T) {
		// Given: a registry with one empty room
		registry := room.NewRegistry(testLogger(), nil)
		registry.Resolve("room1")

		// When: the token is released
		registry.Release("room1")

		// Then: the room is gone and the next resolve creates a fresh one
		assert.Equal(t, 0, registry.Len())
	})

	t.Run("Keeps a room that gained a member before the release", func(t *testing.T) {
		// Given: a room that became occupied again
		registry := room.NewRegistry(testLogger(), nil)
		occupied := registry.Resolve("room1")

		_, _, err := occupied.Attach(&fakeSender{})
		require.NoError(t, err)

		// When: a stale release races the new member
		registry.Release("room1")

		// Then: the occupied room survives
		assert.Equal(t, 1, registry.Len())
		assert.Same(t, occupied, registry.Resolve("room1"))
	})

	t.Run("Releasing an unknown token is a no-op", func(t *testing.T) {
		registry := room.NewRegistry(testLogger(), nil)
		registry.Release("missing")
		assert.Equal(t, 0, registry.Len())
	})
}

func TestRegistry_Lifecycle(t *testing.T) {
	t.Run("Room is reclaimed when its last member detaches", func(t *testing.T) {
		// Given: a registry-managed room with two members
		registry := room.NewRegistry(testLogger(), nil)
		gameRoom := registry.Resolve("room1")

		conn1 := &fakeSender{}
		_, _, err := gameRoom.Attach(conn1)
		require.NoError(t, err)
		conn2 := &fakeSender{}
		_, _, err = gameRoom.Attach(conn2)
		require.NoError(t, err)

		// When: both members detach
		gameRoom.Detach(conn1)
		assert.Equal(t, 1, registry.Len())

		gameRoom.Detach(conn2)

		// Then: the registry dropped the empty room
		assert.Equal(t, 0, registry.Len())
	})

	t.Run("Independent rooms do not interfere", func(t *testing.T) {
		registry := room.NewRegistry(testLogger(), nil)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()

				token := fmt.Sprintf("room-%d", i)
				gameRoom := registry.Resolve(token)

				conn := &fakeSender{}
				_, _, err := gameRoom.Attach(conn)
				assert.NoError(t, err)
				assert.NoError(t, gameRoom.ApplyMove(conn, 0, 0))
				gameRoom.Detach(conn)
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 0, registry.Len())
	})
}
