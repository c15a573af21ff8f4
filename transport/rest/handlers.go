package rest

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

const tokenLength = 8

// handleCreateRoom - generates a fresh room token. The room itself is created
// lazily when the first connection attaches, so abandoned tokens cost
// nothing.
func (that *Server) handleCreateRoom(w http.ResponseWriter, _ *http.Request) {
	token := uuid.NewString()[:tokenLength]

	that.logger.Info("room token generated", "token", token)
	that.writeJSON(w, map[string]string{"room_id": token})
}

func (that *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	that.writeJSON(w, map[string]string{"message": "Tic Tac Toe Server"})
}

func (that *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

func (that *Server) writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		that.logger.Error("failed to encode response", "error", err)
	}
}
