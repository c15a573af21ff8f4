package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"
)

// Server - the request/response surface: room token generation and health.
type Server struct {
	logger         *slog.Logger
	allowedOrigins []string
}

func New(logger *slog.Logger, allowedOrigins []string) *Server {
	return &Server{
		logger:         logger.With("component", "rest"),
		allowedOrigins: allowedOrigins,
	}
}

// Start - starts the HTTP server and blocks until ctx is canceled or the
// listener fails.
func (that *Server) Start(ctx context.Context, port string) error {
	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   that.allowedOrigins,
		AllowedMethods:   []string{http.MethodGet},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      corsMiddleware.Handler(that.Routes()),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down http server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Routes - the bare mux without CORS, exposed for tests.
func (that *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", that.handleRoot)
	mux.HandleFunc("GET /ping", that.handlePing)
	mux.HandleFunc("GET /create-room", that.handleCreateRoom)

	return mux
}
