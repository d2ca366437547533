// Package dispatch implements the per-message server logic of §4: routing
// an incoming Message to the right handler, enforcing the protocol's
// ordering rules (I1-I6), and broadcasting the resulting state to the
// affected peers. A Dispatcher owns no locks of its own beyond what
// Registry and Game already provide; it is safe for concurrent use by
// many connection goroutines.
package dispatch

import (
	"context"
	"log/slog"

	"github.com/chessd/chessd/internal/registry"
	"github.com/chessd/chessd/internal/userstore"
	"github.com/chessd/chessd/internal/wire"
)

// Dispatcher wires together the session registry and the user store and
// turns decoded protocol messages into registry/game mutations plus
// outbound messages.
type Dispatcher struct {
	reg   *registry.Registry
	store *userstore.Store
	log   *slog.Logger
}

// New returns a Dispatcher over reg and store, logging with log.
func New(reg *registry.Registry, store *userstore.Store, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{reg: reg, store: store, log: log}
}

// Handle routes one decoded message from the connection at addr, backed by
// peer. It never blocks on network I/O itself: any outbound messages it
// produces are sent by enqueueing onto a Peer's Out channel, which the
// connection's own writer task drains (§4.6, §5 "send outside of lock").
func (d *Dispatcher) Handle(ctx context.Context, addr string, peer *registry.Peer, msg wire.Message) {
	switch msg.Kind {
	case wire.KindCommand:
		d.handleCommand(ctx, addr, peer, msg)
	case wire.KindMove:
		d.handleMove(addr, peer, msg)
	case wire.KindText:
		d.handleText(addr, peer, msg)
	default:
		d.violation(peer, "unexpected message kind from client")
	}
}

func (d *Dispatcher) handleCommand(ctx context.Context, addr string, peer *registry.Peer, msg wire.Message) {
	switch msg.Cmd {
	case wire.CmdLogIn:
		d.handleLogIn(ctx, addr, peer, msg.Name)
	case wire.CmdPlay:
		d.handlePlay(addr, peer)
	case wire.CmdConcede:
		d.handleConcede(addr, peer)
	case wire.CmdStats:
		d.handleStats(addr, peer)
	default:
		d.violation(peer, "unexpected command from client")
	}
}

// violation logs and reports a protocol violation back to the offending
// peer without tearing down the connection. Violations are not counted; a
// client may keep sending after any number of them.
func (d *Dispatcher) violation(peer *registry.Peer, reason string) {
	d.log.Warn("protocol violation", "addr", peer.Addr, "reason", reason)
	send(peer, wire.Error(reason))
}

// requireLogin implements §7's Auth/user-state error category: an
// anonymous connection attempting Play, Move, Concede or Text gets an
// Error naming the offending action and keeps its connection. It returns
// the caller's username and whether the check passed.
func (d *Dispatcher) requireLogin(addr string, peer *registry.Peer, action string) (string, bool) {
	name, ok := d.reg.LookupUserByAddr(addr)
	if !ok {
		send(peer, wire.Error("Anonymous users cannot "+action+"; use /log in"))
		return "", false
	}
	return name, true
}

// send enqueues msg on peer's outbound channel. Out is bounded (§4.6), so
// a send to a full channel blocks until that peer's writer task drains it;
// a send to a channel already closed by Shutdown drops msg. Handlers hold
// no registry lock at this point, but broadcasts and move/concede replies
// are sent while the game's lock is held (the writer task needs no lock to
// drain Out).
func send(peer *registry.Peer, msg wire.Message) {
	if peer == nil {
		return
	}
	defer func() { recover() }() // Out may already be closed by Shutdown
	peer.Out <- msg
}
