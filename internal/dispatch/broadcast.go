package dispatch

import (
	"fmt"

	"github.com/chessd/chessd/internal/game"
	"github.com/chessd/chessd/internal/rules"
	"github.com/chessd/chessd/internal/wire"
)

// broadcastBoard implements §4.5's "Broadcast game state": the new Board to
// both seats, a "your turn" Log to whichever seat is now to move, a
// "Check!" Log to both if the side to move is in check, and finally, if
// the game has just finished, a "Game finished: <result>" Log to both.
// Precondition: caller holds g's lock, so everything read here is
// consistent with whatever change triggered the broadcast.
func (d *Dispatcher) broadcastBoard(g *game.Game) {
	fen := rules.Serialize(g.Board())
	board := g.Board()
	toMove := g.SideToMove()
	finished := g.Status() == game.StatusFinished

	for _, name := range []string{g.White(), g.Black()} {
		if name == "" {
			continue
		}
		peer, ok := d.reg.PeerForUser(name)
		if !ok {
			continue
		}
		send(peer, wire.Board(fen))

		if !finished {
			seat, ok := g.SeatColor(name)
			if ok && seat == toMove {
				send(peer, wire.Log(fmt.Sprintf("Your turn, %s player %s!", seat.String(), name)))
			}
		}

		if rules.InCheck(board) {
			send(peer, wire.Log("Check!"))
		}

		if finished {
			send(peer, wire.Log("Game finished: "+g.Result().String()))
		}
	}
}
