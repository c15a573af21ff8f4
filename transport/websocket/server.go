package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/room"
)

// Server - accepts websocket connections addressed by room token and runs one
// session per connection.
type Server struct {
	logger   *slog.Logger
	registry *room.Registry
	upgrader websocket.Upgrader
}

// New - creates the websocket server. allowedOrigins gates the upgrade
// handshake; an empty list allows every origin.
func New(logger *slog.Logger, registry *room.Registry, allowedOrigins []string) *Server {
	return &Server{
		logger:   logger.With("component", "websocket"),
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// Start - starts the websocket server and blocks until ctx is canceled or the
// listener fails.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/{roomToken}", that.serveWS)

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down websocket server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Handler - the upgrade handler, exposed for tests.
func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/{roomToken}", that.serveWS)

	return mux
}

// serveWS - upgrades the connection, attaches it to the room named by the
// path token and pumps messages until the transport closes.
func (that *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("roomToken")
	if token == "" {
		http.Error(w, "missing room token", http.StatusBadRequest)
		return
	}

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		that.logger.Error("failed to upgrade connection", "error", err)
		return
	}

	log := that.logger.With("token", token)
	sess := newSession(log, conn)

	go sess.writePump()

	gameRoom := that.registry.Resolve(token)

	role, _, err := gameRoom.Attach(sess)
	if err != nil {
		// fatal setup error: tell the client why, then drop the connection
		sess.sendError(err.Error())
		sess.close()
		log.Info("attach rejected", "error", err)

		return
	}

	log = log.With("role", role)
	log.Info("session attached")

	that.readLoop(sess, gameRoom)

	gameRoom.Detach(sess)
	sess.close()
	log.Info("session closed")
}

// readLoop - decodes inbound envelopes and dispatches them to the room.
// Rejections are answered on this connection only; the loop ends on the first
// transport error.
func (that *Server) readLoop(sess *session, gameRoom *room.Room) {
	conn := sess.conn

	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				sess.logger.Warn("read failed", "error", err)
			}

			return
		}

		message, err := DecodeInbound(data)
		if err != nil {
			sess.logger.Warn("dropping malformed message", "error", err)
			sess.sendError(apperror.ErrMalformedMessage.Error())

			continue
		}

		switch message.Type {
		case actionMove:
			if err = gameRoom.ApplyMove(sess, *message.Row, *message.Col); err != nil {
				sess.sendError(err.Error())
			}
		case actionReset:
			gameRoom.Reset()
		default:
			sess.sendError("unknown message type: " + message.Type)
		}
	}
}

func originChecker(allowedOrigins []string) func(r *http.Request) bool {
	if len(allowedOrigins) == 0 {
		return func(*http.Request) bool { return true }
	}

	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}

		_, ok := allowed[origin]

		return ok
	}
}
