package dispatch

import (
	"github.com/chessd/chessd/internal/game"
	"github.com/chessd/chessd/internal/registry"
	"github.com/chessd/chessd/internal/wire"
)

// handlePlay implements §4.4's matchmaking: a logged-in user with no
// current game joins the oldest Pending game with an open seat, white
// preferred, or starts a new one. Seat performs the join atomically and
// hands the game back still locked, so the "did this seating just fill
// the game" check, the status transition and the broadcast all happen
// under that same lock — nothing else can act on the game in between
// (§5: seat, status transition and broadcast belong to one critical
// section).
func (d *Dispatcher) handlePlay(addr string, peer *registry.Peer) {
	name, ok := d.requireLogin(addr, peer, "/play")
	if !ok {
		return
	}

	if _, inGame := d.reg.GameOf(name); inGame {
		send(peer, wire.Error("already in a game"))
		return
	}

	g, becameFull := d.reg.Seat(name)
	defer g.Unlock()

	if becameFull {
		g.SetStatus(game.StatusInProgress)
		d.log.Info("game started", "game_id", g.ID, "white", g.White(), "black", g.Black())
		d.broadcastBoard(g)
	} else {
		send(peer, wire.Log("You're in a game now!"))
	}
}
