package dispatch

import (
	"fmt"

	"github.com/chessd/chessd/internal/registry"
	"github.com/chessd/chessd/internal/wire"
)

// handleStats answers the /stats command. The original protocol leaves the
// exact statistics tracked as an open question (see DESIGN.md); for now a
// logged-in user gets back the number of finished or cancelled games they
// were seated in, the one piece of per-user history the registry already
// retains without adding new bookkeeping.
func (d *Dispatcher) handleStats(addr string, peer *registry.Peer) {
	name, ok := d.requireLogin(addr, peer, "/stats")
	if !ok {
		return
	}

	played := d.reg.FinishedCountFor(name)
	send(peer, wire.Log(fmt.Sprintf("%s has played %d finished game(s)", name, played)))
}
