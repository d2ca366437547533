// Package game implements the per-game entity of §3/§4.5: a chess board, a
// side to move (mirrored from the board, kept in sync by construction since
// it is read straight off the engine), seat assignments, status and result.
package game

import (
	"sync"

	"github.com/chessd/chessd/internal/rules"
)

// Status is a game's lifecycle state (§3 invariant I4, I6).
type Status int

const (
	StatusPending Status = iota
	StatusInProgress
	StatusFinished
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusInProgress:
		return "in_progress"
	case StatusFinished:
		return "finished"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Result is the terminal outcome of a Finished game.
type Result int

const (
	ResultNone Result = iota
	ResultWhiteWinsMate
	ResultBlackWinsMate
	ResultWhiteResigns
	ResultBlackResigns
	ResultDraw
)

func (r Result) String() string {
	switch r {
	case ResultWhiteWinsMate:
		return "WhiteWinsMate"
	case ResultBlackWinsMate:
		return "BlackWinsMate"
	case ResultWhiteResigns:
		return "WhiteResigns"
	case ResultBlackResigns:
		return "BlackResigns"
	case ResultDraw:
		return "Draw"
	default:
		return "None"
	}
}

// Game is one match. It embeds its own mutex rather than hiding it behind
// fine-grained accessors: §5 requires apply-move-then-broadcast to run as a
// single critical section, so callers are expected to Lock a Game for the
// whole of that section (seat, move, status/result transition, broadcast)
// and Unlock only once it is done. Every exported method below assumes the
// caller already holds the lock; none of them lock internally.
type Game struct {
	sync.Mutex

	ID uint32

	board  *rules.Board
	white  string
	black  string
	status Status
	result Result
}

// New creates a fresh Pending game with a standard opening board and no
// seated players.
func New(id uint32) *Game {
	return &Game{
		ID:     id,
		board:  rules.NewBoard(),
		status: StatusPending,
	}
}

// Board returns the game's board. Precondition: caller holds the lock.
func (g *Game) Board() *rules.Board { return g.board }

// SideToMove returns whose turn it is, read straight off the board.
// Precondition: caller holds the lock.
func (g *Game) SideToMove() rules.Color { return rules.Turn(g.board) }

// White returns the white seat's username, or "" if empty.
// Precondition: caller holds the lock.
func (g *Game) White() string { return g.white }

// Black returns the black seat's username, or "" if empty.
// Precondition: caller holds the lock.
func (g *Game) Black() string { return g.black }

// Status returns the game's lifecycle state. Precondition: caller holds the lock.
func (g *Game) Status() Status { return g.status }

// SetStatus transitions the game's lifecycle state. Precondition: caller holds the lock.
func (g *Game) SetStatus(s Status) { g.status = s }

// Result returns the terminal result, meaningful only once Status is
// Finished. Precondition: caller holds the lock.
func (g *Game) Result() Result { return g.result }

// SetResult records the terminal result. Precondition: caller holds the lock.
func (g *Game) SetResult(r Result) { g.result = r }

// FirstOpenSeat returns the first empty seat, white preferred, and whether
// one exists. Precondition: caller holds the lock.
func (g *Game) FirstOpenSeat() (rules.Color, bool) {
	if g.white == "" {
		return rules.White, true
	}
	if g.black == "" {
		return rules.Black, true
	}
	return 0, false
}

// Seat assigns name to color's seat. Precondition: caller holds the lock.
func (g *Game) Seat(name string, color rules.Color) {
	if color == rules.White {
		g.white = name
	} else {
		g.black = name
	}
}

// IsFull reports whether both seats are occupied. Precondition: caller holds the lock.
func (g *Game) IsFull() bool { return g.white != "" && g.black != "" }

// SeatColor returns the color name is seated as, if any.
// Precondition: caller holds the lock.
func (g *Game) SeatColor(name string) (rules.Color, bool) {
	if g.white != "" && g.white == name {
		return rules.White, true
	}
	if g.black != "" && g.black == name {
		return rules.Black, true
	}
	return 0, false
}

// ApplyMove parses and applies notation to the game's board.
// Precondition: caller holds the lock.
func (g *Game) ApplyMove(notation string) error {
	return rules.ApplyMove(g.board, notation)
}
