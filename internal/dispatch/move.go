package dispatch

import (
	"github.com/chessd/chessd/internal/game"
	"github.com/chessd/chessd/internal/registry"
	"github.com/chessd/chessd/internal/rules"
	"github.com/chessd/chessd/internal/wire"
)

// handleMove implements §4.5: a seated player submits a move; it is
// rejected if the game isn't InProgress, if it isn't that player's seat's
// turn (I5), or if the engine rejects the notation. A legal move, the
// resulting mate/stalemate check, any status/result transition, and the
// broadcast to both seats all happen under the one game lock acquired
// here, per §5.
func (d *Dispatcher) handleMove(addr string, peer *registry.Peer, msg wire.Message) {
	name, ok := d.requireLogin(addr, peer, "/move")
	if !ok {
		return
	}

	g, ok := d.reg.GameOf(name)
	if !ok {
		send(peer, wire.Error("not in a game"))
		return
	}

	g.Lock()
	defer g.Unlock()

	if g.Status() != game.StatusInProgress {
		send(peer, wire.Error("game is not in progress"))
		return
	}

	seat, ok := g.SeatColor(name)
	if !ok {
		send(peer, wire.Error("not seated in this game"))
		return
	}
	if seat != g.SideToMove() {
		send(peer, wire.Error("It's not your turn."))
		return
	}

	if err := g.ApplyMove(msg.Payload); err != nil {
		send(peer, wire.Error("illegal move: "+err.Error()))
		return
	}

	d.checkGameEnd(g)
	d.broadcastBoard(g)

	if g.Status() != game.StatusInProgress {
		d.reg.Finish(g)
	}
}

// checkGameEnd implements the terminal-condition check of §4.5: if the new
// side to move has no legal move, the game ends either by checkmate (the
// mover's opponent, i.e. whoever is now stuck, loses) or by stalemate
// (a draw). Precondition: caller holds g's lock.
func (d *Dispatcher) checkGameEnd(g *game.Game) {
	b := g.Board()
	if rules.HasLegalMove(b) {
		return
	}

	g.SetStatus(game.StatusFinished)
	newSide := g.SideToMove()
	switch {
	case rules.InCheck(b) && newSide == rules.White:
		g.SetResult(game.ResultBlackWinsMate)
	case rules.InCheck(b) && newSide == rules.Black:
		g.SetResult(game.ResultWhiteWinsMate)
	default:
		g.SetResult(game.ResultDraw)
	}
	d.log.Info("game ended", "game_id", g.ID, "result", g.Result().String())
}
