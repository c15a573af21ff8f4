package websocket

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/room"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second

	sendBuffer = 16
)

var (
	errSessionClosed = errors.New("session is closed")
	errSlowConsumer  = errors.New("send buffer is full")
)

// session - the per-connection actor. The read side runs in the server's
// handler goroutine; outbound traffic goes through a buffered channel drained
// by writePump so a slow socket never blocks a room's mutation gate.
type session struct {
	logger *slog.Logger
	conn   *websocket.Conn

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newSession(logger *slog.Logger, conn *websocket.Conn) *session {
	return &session{
		logger: logger,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

// Send - implements room.Sender. Encodes the event and enqueues it without
// blocking; an error here means the room should detach this member.
func (that *session) Send(event *room.Event) error {
	data, err := EncodeEvent(event)
	if err != nil {
		return err
	}

	return that.enqueue(data)
}

// sendError - delivers an error envelope to this connection only.
func (that *session) sendError(message string) {
	data, err := EncodeError(message)
	if err != nil {
		that.logger.Error("failed to encode error message", "error", err)
		return
	}

	if err = that.enqueue(data); err != nil {
		that.logger.Warn("failed to enqueue error message", "error", err)
	}
}

func (that *session) enqueue(data []byte) error {
	select {
	case <-that.done:
		return errSessionClosed
	default:
	}

	select {
	case that.send <- data:
		return nil
	case <-that.done:
		return errSessionClosed
	default:
		return errSlowConsumer
	}
}

// close - enters the terminal state; no further sends are accepted.
func (that *session) close() {
	that.closeOnce.Do(func() {
		close(that.done)
	})
}

// writePump - the only goroutine that writes to the socket. Drains the send
// channel, keeps the connection alive with pings and closes the socket when
// the session ends.
func (that *session) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		that.conn.Close()
	}()

	for {
		select {
		case data := <-that.send:
			if err := that.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}

			if err := that.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			if err := that.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}

			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-that.done:
			// flush whatever is already queued before closing
			for {
				select {
				case data := <-that.send:
					_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
					if err := that.conn.WriteMessage(websocket.TextMessage, data); err != nil {
						return
					}
				default:
					_ = that.conn.SetWriteDeadline(time.Now().Add(time.Second))
					_ = that.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return
				}
			}
		}
	}
}
