package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/room"
)

const (
	actionMove  = "move"
	actionReset = "reset"

	eventError = "error"
)

// InboundMessage - the envelope clients send. Row and Col are pointers so a
// missing coordinate can be told apart from zero.
type InboundMessage struct {
	Type string `json:"type"`
	Row  *int   `json:"row,omitempty"`
	Col  *int   `json:"col,omitempty"`
}

// ErrorMessage - sent only to the offending connection, never broadcast.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// DecodeInbound - parses a client envelope into a typed request. Unknown
// types pass through; the session decides how to answer them. A move without
// both coordinates is malformed.
func DecodeInbound(data []byte) (*InboundMessage, error) {
	var message InboundMessage
	if err := json.Unmarshal(data, &message); err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrMalformedMessage, err)
	}

	if message.Type == "" {
		return nil, fmt.Errorf("%w: missing type", apperror.ErrMalformedMessage)
	}

	if message.Type == actionMove && (message.Row == nil || message.Col == nil) {
		return nil, fmt.Errorf("%w: move requires row and col", apperror.ErrMalformedMessage)
	}

	return &message, nil
}

// EncodeEvent - serializes a room event into the outbound envelope.
func EncodeEvent(event *room.Event) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	return data, nil
}

// EncodeError - serializes a per-connection error envelope.
func EncodeError(message string) ([]byte, error) {
	data, err := json.Marshal(ErrorMessage{Type: eventError, Message: message})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal error: %w", err)
	}

	return data, nil
}
