package apperror

import "errors"

var (
	ErrRoomFull         = errors.New("room is full")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrCellOccupied     = errors.New("cell is already occupied")
	ErrGameFinished     = errors.New("game is already finished")
	ErrOutOfBounds      = errors.New("cell is out of bounds")
	ErrUnattached       = errors.New("connection is not attached to this room")
	ErrMalformedMessage = errors.New("malformed message")
)
