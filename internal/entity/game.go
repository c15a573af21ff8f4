package entity

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
)

const (
	BoardSize = 3

	PlayerA = "A"
	PlayerB = "B"
	Draw    = "Draw"

	EmptyCell = ""
)

// WinLines - every row, column and the two diagonals of the 3x3 board,
// expressed as cell coordinates.
var WinLines = [][3][2]int{
	{{0, 0}, {0, 1}, {0, 2}},
	{{1, 0}, {1, 1}, {1, 2}},
	{{2, 0}, {2, 1}, {2, 2}},
	{{0, 0}, {1, 0}, {2, 0}},
	{{0, 1}, {1, 1}, {2, 1}},
	{{0, 2}, {1, 2}, {2, 2}},
	{{0, 0}, {1, 1}, {2, 2}},
	{{0, 2}, {1, 1}, {2, 0}},
}

// Game - the authoritative state of one grid game. It is a plain value with
// pure methods; concurrency control belongs to whoever owns the instance.
type Game struct {
	Board  [BoardSize][BoardSize]string
	Turn   string
	Over   bool
	Winner string
}

// NewGame - returns an empty board with player A to move.
func NewGame() *Game {
	game := &Game{}
	game.Reset()

	return game
}

// Reset - clears the board and restores the initial turn order.
func (that *Game) Reset() {
	for row := range that.Board {
		for col := range that.Board[row] {
			that.Board[row][col] = EmptyCell
		}
	}

	that.Turn = PlayerA
	that.Over = false
	that.Winner = EmptyCell
}

// CheckOutcome - evaluates the board for a winner or a draw.
// Returns PlayerA or PlayerB if a line is complete, Draw if no empty cell
// remains, or EmptyCell while the game is still open. Deterministic; the
// board is the only input.
func (that *Game) CheckOutcome() string {
	for _, line := range WinLines {
		a := that.Board[line[0][0]][line[0][1]]
		b := that.Board[line[1][0]][line[1][1]]
		c := that.Board[line[2][0]][line[2][1]]

		if a != EmptyCell && a == b && b == c {
			return a
		}
	}

	for row := range that.Board {
		for col := range that.Board[row] {
			if that.Board[row][col] == EmptyCell {
				return EmptyCell
			}
		}
	}

	return Draw
}

// IsLegalMove - reports whether role may claim the cell right now.
func (that *Game) IsLegalMove(role string, row, col int) bool {
	if row < 0 || row >= BoardSize || col < 0 || col >= BoardSize {
		return false
	}

	return !that.Over && that.Turn == role && that.Board[row][col] == EmptyCell
}

// ApplyMove - validates and applies a move for role, recomputes the outcome
// and flips the turn if the game continues. The board is never touched when
// an error is returned.
func (that *Game) ApplyMove(role string, row, col int) error {
	if row < 0 || row >= BoardSize || col < 0 || col >= BoardSize {
		return fmt.Errorf("%w: row %d col %d", apperror.ErrOutOfBounds, row, col)
	}

	if that.Over {
		return apperror.ErrGameFinished
	}

	if that.Turn != role {
		return apperror.ErrNotYourTurn
	}

	if that.Board[row][col] != EmptyCell {
		return apperror.ErrCellOccupied
	}

	that.Board[row][col] = role

	switch outcome := that.CheckOutcome(); outcome {
	case PlayerA, PlayerB, Draw:
		that.Over = true
		that.Winner = outcome
	default:
		that.Turn = toggleRole(role)
	}

	return nil
}

// MoveCount - number of non-empty cells on the board.
func (that *Game) MoveCount() int {
	count := 0

	for row := range that.Board {
		for col := range that.Board[row] {
			if that.Board[row][col] != EmptyCell {
				count++
			}
		}
	}

	return count
}

func toggleRole(role string) string {
	if role == PlayerA {
		return PlayerB
	}

	return PlayerA
}
