package dispatch

import (
	"github.com/chessd/chessd/internal/registry"
	"github.com/chessd/chessd/internal/wire"
)

// handleText implements §4's chat relay: free text from a seated player is
// forwarded verbatim to their opponent, and only their opponent — there is
// no server-wide chat, and the wire protocol carries no "from" field of
// its own.
func (d *Dispatcher) handleText(addr string, peer *registry.Peer, msg wire.Message) {
	name, ok := d.requireLogin(addr, peer, "/chat")
	if !ok {
		return
	}

	g, ok := d.reg.GameOf(name)
	if !ok {
		send(peer, wire.Error("You have no opponent to chat with"))
		return
	}

	g.Lock()
	white, black := g.White(), g.Black()
	g.Unlock()

	opponent := white
	if name == white {
		opponent = black
	}
	if opponent == "" {
		send(peer, wire.Log("no opponent to receive your message yet"))
		return
	}

	if oppPeer, ok := d.reg.PeerForUser(opponent); ok {
		send(oppPeer, wire.Text(msg.Payload))
	}
}
