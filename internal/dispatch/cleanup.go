package dispatch

import (
	"github.com/chessd/chessd/internal/game"
	"github.com/chessd/chessd/internal/registry"
	"github.com/chessd/chessd/internal/rules"
	"github.com/chessd/chessd/internal/wire"
)

// Cleanup implements the disconnect path of §4.6. It must run, and send
// the final "disconnected" message, before the caller calls peer.Shutdown
// — Shutdown closes Out, and sending on a closed channel panics. After
// Cleanup returns there is no registry path left that could still send to
// this peer.
func (d *Dispatcher) Cleanup(addr string, peer *registry.Peer) {
	name, ok := d.reg.LookupUserByAddr(addr)
	if !ok {
		d.reg.DetachAnon(addr)
		send(peer, wire.Log("You have been disconnected. Bye!"))
		return
	}

	if g, ok := d.reg.GameOf(name); ok {
		d.abandon(g, name)
	}

	d.reg.DetachUser(addr, name)
	d.log.Info("disconnect", "name", name, "addr", addr)
	send(peer, wire.Log("You have been disconnected. Bye!"))
}

// abandon ends a disconnecting player's game: a Pending game is simply
// cancelled (there was no opponent to forfeit to yet), an InProgress game
// is forfeited to whoever remains seated.
func (d *Dispatcher) abandon(g *game.Game, name string) {
	g.Lock()
	defer g.Unlock()

	switch g.Status() {
	case game.StatusPending:
		g.SetStatus(game.StatusCancelled)
		d.reg.Finish(g)
	case game.StatusInProgress:
		g.SetStatus(game.StatusFinished)
		seat, _ := g.SeatColor(name)
		if seat == rules.White {
			g.SetResult(game.ResultWhiteResigns)
		} else {
			g.SetResult(game.ResultBlackResigns)
		}
		d.log.Info("game abandoned", "game_id", g.ID, "name", name, "result", g.Result().String())
		d.broadcastBoard(g)
		d.reg.Finish(g)
	}
}
