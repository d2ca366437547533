package dispatch

import (
	"context"

	"github.com/chessd/chessd/internal/registry"
	"github.com/chessd/chessd/internal/wire"
)

// handleLogIn implements §4.2: validate the name, register it on first use,
// and claim it for this connection — superseding whatever connection
// already held it (I2). LogIn is the only command a not-yet-logged-in
// connection may send; everything else is answered with an "Anonymous
// users cannot ..." Error until it succeeds.
func (d *Dispatcher) handleLogIn(ctx context.Context, addr string, peer *registry.Peer, name string) {
	if _, alreadyUser := d.reg.LookupUserByAddr(addr); alreadyUser {
		d.violation(peer, "already logged in")
		return
	}

	if err := wire.ValidateUsername(name); err != nil {
		send(peer, wire.Error("invalid username: "+err.Error()))
		return
	}

	exists, err := d.store.Exists(name)
	if err != nil {
		d.log.Error("user store lookup failed", "name", name, "err", err)
		send(peer, wire.Error("internal error"))
		return
	}

	greeting := "Welcome back, " + name + "!"
	if !exists {
		if err := d.store.Register(name); err != nil {
			d.log.Error("user store register failed", "name", name, "err", err)
			send(peer, wire.Error("internal error"))
			return
		}
		d.log.Info("registered new user", "name", name)
		greeting = "Registered a new user. Welcome, " + name + "!"
	}

	superseded := d.reg.Promote(addr, name, peer)
	if superseded != nil {
		d.log.Info("connection superseded", "name", name, "old_addr", superseded.Addr, "new_addr", addr)
		send(superseded, wire.Log("You have been superseded by a new login"))
		superseded.Shutdown()
	}

	d.log.Info("login", "name", name, "addr", addr)
	send(peer, wire.Log(greeting))
}
