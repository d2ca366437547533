// Package rules is the thin facade over a chess rule engine described in
// §4.3. It is the only package that imports the chess library; everything
// above it deals in Board, Color and move strings only.
package rules

import (
	"errors"
	"fmt"

	"github.com/notnil/chess"
)

// Color is a side to move or a seat assignment.
type Color int

const (
	White Color = iota
	Black
)

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// Opponent returns the other color.
func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

func fromLibColor(c chess.Color) Color {
	if c == chess.White {
		return White
	}
	return Black
}

// Board wraps a chess.Game, which tracks both the current position and the
// move history needed to detect repetition-style draws if that is ever
// implemented (see DESIGN.md open question (a)).
type Board struct {
	g *chess.Game
}

// NewBoard returns the standard initial position, White to move.
func NewBoard() *Board {
	return &Board{g: chess.NewGame()}
}

// ErrParseMove is returned when notation cannot be parsed as either long
// algebraic ("e2e4") or standard algebraic (including "O-O"/"O-O-O").
var ErrParseMove = errors.New("rules: could not parse move")

// ErrIllegalMove is returned when notation parses but is not legal in the
// current position.
var ErrIllegalMove = errors.New("rules: illegal move")

// ApplyMove parses notation against the current position — trying long
// algebraic ("e2e4") first, then standard algebraic (including castling) —
// and, if legal, applies it in place. The side to move is whatever the
// underlying engine's position says it is; callers are responsible for
// checking it matches the mover's seat before calling ApplyMove (§4.5).
func ApplyMove(b *Board, notation string) error {
	pos := b.g.Position()

	mv, err := chess.UCINotation{}.Decode(pos, notation)
	if err != nil {
		mv, err = chess.AlgebraicNotation{}.Decode(pos, notation)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrParseMove, notation)
		}
	}

	if err := b.g.Move(mv); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrIllegalMove, notation, err)
	}
	return nil
}

// Turn returns the side to move in the current position.
func Turn(b *Board) Color {
	return fromLibColor(b.g.Position().Turn())
}

// InCheck reports whether the side to move is in check.
func InCheck(b *Board) bool {
	return b.g.Position().InCheck()
}

// HasLegalMove reports whether the side to move has at least one legal
// move. Combined with InCheck: false and in check means checkmate; false
// and not in check means stalemate (§4.3).
func HasLegalMove(b *Board) bool {
	return len(b.g.Position().ValidMoves()) > 0
}

// Serialize renders the board as FEN, a compact, fully-recoverable textual
// encoding of the position.
func Serialize(b *Board) string {
	return b.g.FEN()
}
