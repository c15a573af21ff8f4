package room

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

const (
	EventPlayerJoined = "player_joined"
	EventGameUpdate   = "game_update"
	EventGameReset    = "game_reset"
	EventPlayerLeft   = "player_left"
)

const recordTimeout = 5 * time.Second

// Sender - the outbound half of one member's connection. Send must not block
// the caller; a returned error marks the connection as dead and the member is
// detached.
type Sender interface {
	Send(event *Event) error
}

// Event - a state change pushed to room members. The websocket codec turns it
// into the outbound envelope.
type Event struct {
	Type      string `json:"type"`
	Symbol    string `json:"symbol,omitempty"`
	GameState *State `json:"game_state"`
}

// State - a snapshot of the room taken under the mutation gate. Winner is a
// pointer so an open game serializes as null.
type State struct {
	Board         [entity.BoardSize][entity.BoardSize]string `json:"board"`
	CurrentPlayer string                                     `json:"current_player"`
	GameOver      bool                                       `json:"game_over"`
	Winner        *string                                    `json:"winner"`
	PlayersCount  int                                        `json:"players_count"`
}

// Recorder - archives finished games. Implementations must be safe for
// concurrent use; failures are logged and never affect gameplay.
type Recorder interface {
	Record(ctx context.Context, result *entity.MatchResult) error
}

// Member - one connection's binding to the room.
type Member struct {
	Role string
	conn Sender
}

// Room - owns the game state and the attached members for one token. Every
// mutation runs under a single mutex so concurrent operations are applied in
// a well-defined serial order.
type Room struct {
	token    string
	logger   *slog.Logger
	recorder Recorder
	onEmpty  func(token string)

	mu      sync.Mutex
	game    *entity.Game
	members []*Member
	byConn  map[Sender]*Member
}

// New - creates an empty room. recorder and onEmpty may be nil.
func New(token string, logger *slog.Logger, recorder Recorder, onEmpty func(token string)) *Room {
	return &Room{
		token:    token,
		logger:   logger.With("component", "room", "token", token),
		recorder: recorder,
		onEmpty:  onEmpty,
		game:     entity.NewGame(),
		byConn:   make(map[Sender]*Member),
	}
}

func (that *Room) Token() string {
	return that.token
}

// MemberCount - number of currently attached members.
func (that *Room) MemberCount() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.members)
}

// Attach - binds conn to the first unused role, A before B. The new member
// receives a player_joined event with its symbol; members already present
// receive a game_update carrying the new count. A third connection is
// rejected with ErrRoomFull.
func (that *Room) Attach(conn Sender) (string, *State, error) {
	that.mu.Lock()

	if len(that.members) >= 2 {
		that.mu.Unlock()
		return "", nil, apperror.ErrRoomFull
	}

	role := entity.PlayerA
	for _, member := range that.members {
		if member.Role == entity.PlayerA {
			role = entity.PlayerB
		}
	}

	member := &Member{Role: role, conn: conn}
	that.members = append(that.members, member)
	that.byConn[conn] = member

	snapshot := that.snapshotLocked()

	var failed []Sender

	if err := conn.Send(&Event{Type: EventPlayerJoined, Symbol: role, GameState: snapshot}); err != nil {
		failed = append(failed, conn)
	}

	for _, other := range that.members {
		if other == member {
			continue
		}

		if err := other.conn.Send(&Event{Type: EventGameUpdate, GameState: snapshot}); err != nil {
			failed = append(failed, other.conn)
		}
	}

	that.mu.Unlock()

	that.logger.Info("member attached", "role", role, "members", snapshot.PlayersCount)
	that.detachFailed(failed)

	return role, snapshot, nil
}

// Detach - removes the member bound to conn, broadcasts player_left to the
// remaining members and hands the token back to the registry when the room
// becomes empty. Detaching an unknown conn is a no-op.
func (that *Room) Detach(conn Sender) {
	that.mu.Lock()

	member, ok := that.byConn[conn]
	if !ok {
		that.mu.Unlock()
		return
	}

	delete(that.byConn, conn)
	for i, m := range that.members {
		if m == member {
			that.members = append(that.members[:i], that.members[i+1:]...)
			break
		}
	}

	empty := len(that.members) == 0

	var failed []Sender
	if !empty {
		failed = that.broadcastLocked(&Event{Type: EventPlayerLeft, GameState: that.snapshotLocked()})
	}

	that.mu.Unlock()

	that.logger.Info("member detached", "role", member.Role, "empty", empty)

	if empty && that.onEmpty != nil {
		that.onEmpty(that.token)
	}

	that.detachFailed(failed)
}

// ApplyMove - applies a move requested over conn. On success the new state is
// broadcast to every member; on rejection nothing is broadcast and the error
// describes the reason.
func (that *Room) ApplyMove(conn Sender, row, col int) error {
	that.mu.Lock()

	member, ok := that.byConn[conn]
	if !ok {
		that.mu.Unlock()
		return apperror.ErrUnattached
	}

	if err := that.game.ApplyMove(member.Role, row, col); err != nil {
		that.mu.Unlock()
		return err
	}

	snapshot := that.snapshotLocked()
	failed := that.broadcastLocked(&Event{Type: EventGameUpdate, GameState: snapshot})

	var result *entity.MatchResult
	if that.game.Over {
		result = &entity.MatchResult{
			RoomToken:  that.token,
			Winner:     that.game.Winner,
			Moves:      that.game.MoveCount(),
			FinishedAt: time.Now().UTC(),
		}
	}

	that.mu.Unlock()

	if result != nil {
		that.logger.Info("game finished", "winner", result.Winner, "moves", result.Moves)
		that.recordResult(result)
	}

	that.detachFailed(failed)

	return nil
}

// Reset - clears the game and broadcasts game_reset. Deliberately not gated
// by turn or terminal state; either member may reset mid-game.
func (that *Room) Reset() {
	that.mu.Lock()
	that.game.Reset()
	failed := that.broadcastLocked(&Event{Type: EventGameReset, GameState: that.snapshotLocked()})
	that.mu.Unlock()

	that.logger.Info("game reset")
	that.detachFailed(failed)
}

// broadcastLocked - delivers event to every member, best effort. Callers must
// hold the mutex. Senders that fail are returned so the caller can detach
// them after releasing the lock.
func (that *Room) broadcastLocked(event *Event) []Sender {
	var failed []Sender

	for _, member := range that.members {
		if err := member.conn.Send(event); err != nil {
			that.logger.Warn("failed to deliver event", "type", event.Type, "role", member.Role, "error", err)
			failed = append(failed, member.conn)
		}
	}

	return failed
}

func (that *Room) snapshotLocked() *State {
	state := &State{
		Board:         that.game.Board,
		CurrentPlayer: that.game.Turn,
		GameOver:      that.game.Over,
		PlayersCount:  len(that.members),
	}

	if that.game.Winner != entity.EmptyCell {
		winner := that.game.Winner
		state.Winner = &winner
	}

	return state
}

func (that *Room) detachFailed(failed []Sender) {
	for _, conn := range failed {
		that.Detach(conn)
	}
}

func (that *Room) recordResult(result *entity.MatchResult) {
	if that.recorder == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		if err := that.recorder.Record(ctx, result); err != nil {
			that.logger.Error("failed to record match result", "error", err)
		}
	}()
}
