package dispatch

import (
	"github.com/chessd/chessd/internal/game"
	"github.com/chessd/chessd/internal/registry"
	"github.com/chessd/chessd/internal/rules"
	"github.com/chessd/chessd/internal/wire"
)

// handleConcede implements §4.5's resignation path: a seated player in an
// in-progress game forfeits immediately, regardless of whose turn it is.
func (d *Dispatcher) handleConcede(addr string, peer *registry.Peer) {
	name, ok := d.requireLogin(addr, peer, "/concede")
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

	g.SetStatus(game.StatusFinished)
	if seat == rules.White {
		g.SetResult(game.ResultWhiteResigns)
	} else {
		g.SetResult(game.ResultBlackResigns)
	}
	d.log.Info("concede", "game_id", g.ID, "name", name, "result", g.Result().String())

	d.broadcastBoard(g)
	d.reg.Finish(g)
}
