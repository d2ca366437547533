// Package registry is the session registry described in §3/§4.2: the
// server-wide indices of connected peers, live and finished games, and the
// mappings between them. It is the one place that owns the lock-ordering
// discipline required to keep I1-I4 intact: anyone touching more than one
// of its maps at once acquires them in the fixed order documented on
// Registry, and never sends on a Peer's channel while holding any of its
// locks (sends happen after the lock that produced the *Peer is released).
package registry

import (
	"sync"
	"sync/atomic"

	"github.com/chessd/chessd/internal/game"
)

// Registry indexes connections and games. Lock order, when more than one
// mutex must be held at once: utgMu -> gamesMu -> usersMu -> anonMu ->
// addrMu. Methods that need this ordering document it; methods that touch
// a single map lock only that map.
type Registry struct {
	anonMu sync.RWMutex
	anon   map[string]*Peer // addr -> peer, not yet logged in

	usersMu sync.RWMutex
	users   map[string]*Peer // username -> peer, logged in

	addrMu     sync.RWMutex
	addrToUser map[string]string // addr -> username, logged in

	gamesMu sync.RWMutex
	games   map[uint32]*game.Game // id -> live game (Pending or InProgress)
	order   []uint32              // insertion order of games, for matchmaking tie-break

	finishedMu sync.RWMutex
	finished   map[uint32]*game.Game // id -> Finished or Cancelled game

	utgMu      sync.RWMutex
	userToGame map[string]uint32 // username -> game id, for logged-in users with a game

	nextID atomic.Uint32
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		anon:       make(map[string]*Peer),
		users:      make(map[string]*Peer),
		addrToUser: make(map[string]string),
		games:      make(map[uint32]*game.Game),
		finished:   make(map[uint32]*game.Game),
		userToGame: make(map[string]uint32),
	}
}

// AttachAnon registers a freshly accepted, not-yet-logged-in connection.
func (r *Registry) AttachAnon(p *Peer) {
	r.anonMu.Lock()
	r.anon[p.Addr] = p
	r.anonMu.Unlock()
}

// DetachAnon removes an anonymous connection, e.g. on disconnect before
// LogIn. A no-op if addr was never anonymous (e.g. already promoted).
func (r *Registry) DetachAnon(addr string) {
	r.anonMu.Lock()
	delete(r.anon, addr)
	r.anonMu.Unlock()
}

// Promote moves a peer from anonymous to logged-in under name, superseding
// any existing connection for that name (I2) and dropping the superseded
// peer's address from the addr-to-user index. It returns the superseded
// peer, if any, so the caller can Shutdown it and notify it after Promote
// returns — Promote itself never sends on a channel while holding a lock.
func (r *Registry) Promote(addr, name string, p *Peer) (superseded *Peer) {
	r.anonMu.Lock()
	delete(r.anon, addr)
	r.anonMu.Unlock()

	r.usersMu.Lock()
	superseded = r.users[name]
	r.users[name] = p
	r.usersMu.Unlock()

	r.addrMu.Lock()
	if superseded != nil && superseded.Addr != addr {
		delete(r.addrToUser, superseded.Addr)
	}
	r.addrToUser[addr] = name
	r.addrMu.Unlock()

	return superseded
}

// DetachUser removes a logged-in user's registry entries entirely, used on
// disconnect (§4.6). It does not touch userToGame; callers handle the
// game side of a disconnect (forfeit or cancel) separately, since that
// requires the game's own lock.
func (r *Registry) DetachUser(addr, name string) {
	r.usersMu.Lock()
	delete(r.users, name)
	r.usersMu.Unlock()

	r.addrMu.Lock()
	delete(r.addrToUser, addr)
	r.addrMu.Unlock()
}

// LookupUserByAddr returns the username logged in on addr, if any.
func (r *Registry) LookupUserByAddr(addr string) (string, bool) {
	r.addrMu.RLock()
	defer r.addrMu.RUnlock()
	name, ok := r.addrToUser[addr]
	return name, ok
}

// PeerForUser returns the peer currently logged in as name, if any.
func (r *Registry) PeerForUser(name string) (*Peer, bool) {
	r.usersMu.RLock()
	defer r.usersMu.RUnlock()
	p, ok := r.users[name]
	return p, ok
}

// PeerForAddr returns the anonymous peer at addr, if it is still anonymous.
func (r *Registry) PeerForAddr(addr string) (*Peer, bool) {
	r.anonMu.RLock()
	defer r.anonMu.RUnlock()
	p, ok := r.anon[addr]
	return p, ok
}

// GameOf returns the game a logged-in user is currently seated in, if any.
func (r *Registry) GameOf(name string) (*game.Game, bool) {
	r.utgMu.RLock()
	id, ok := r.userToGame[name]
	r.utgMu.RUnlock()
	if !ok {
		return nil, false
	}
	r.gamesMu.RLock()
	g, ok := r.games[id]
	r.gamesMu.RUnlock()
	return g, ok
}

// Game returns the live game with the given id, if it is still live.
func (r *Registry) Game(id uint32) (*game.Game, bool) {
	r.gamesMu.RLock()
	defer r.gamesMu.RUnlock()
	g, ok := r.games[id]
	return g, ok
}

// Seat places name into matchmaking (§4.4) as a single atomic operation:
// it joins the oldest Pending game with an open seat, white seat
// preferred, or starts a new Pending game if none has room, seats name
// into it, and reports whether that seating just filled the last seat —
// all without releasing the game's lock in between, so no other Seat call
// can observe or act on the game between "became full" and the caller's
// own status transition and broadcast. It returns the game still locked;
// the caller must Unlock it once done (§5: seat, status transition and
// broadcast belong to one critical section).
//
// Lock order: utgMu -> gamesMu -> the returned game, consistent with the
// order documented on Registry.
func (r *Registry) Seat(name string) (target *game.Game, becameFull bool) {
	r.utgMu.Lock()
	defer r.utgMu.Unlock()

	r.gamesMu.Lock()
	for _, id := range r.order {
		g := r.games[id]
		g.Lock()
		if g.Status() == game.StatusPending {
			if _, ok := g.FirstOpenSeat(); ok {
				target = g
				break // keep target locked
			}
		}
		g.Unlock()
	}
	if target == nil {
		id := r.nextID.Add(1) - 1
		target = game.New(id)
		r.games[id] = target
		r.order = append(r.order, id)
		target.Lock()
	}
	r.gamesMu.Unlock()

	color, _ := target.FirstOpenSeat()
	target.Seat(name, color)
	r.userToGame[name] = target.ID

	return target, target.IsFull()
}

// Finish moves a game from the live index to the finished index. Callers
// must already hold g's lock and have set its status to Finished or
// Cancelled and its result before calling Finish; Finish itself only
// touches the registry's own maps.
func (r *Registry) Finish(g *game.Game) {
	r.gamesMu.Lock()
	delete(r.games, g.ID)
	for i, id := range r.order {
		if id == g.ID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.gamesMu.Unlock()

	r.finishedMu.Lock()
	r.finished[g.ID] = g
	r.finishedMu.Unlock()

	r.utgMu.Lock()
	for _, name := range []string{g.White(), g.Black()} {
		if name != "" {
			delete(r.userToGame, name)
		}
	}
	r.utgMu.Unlock()
}

// Finished returns a game that has already finished or been cancelled.
func (r *Registry) Finished(id uint32) (*game.Game, bool) {
	r.finishedMu.RLock()
	defer r.finishedMu.RUnlock()
	g, ok := r.finished[id]
	return g, ok
}

// UserCount returns the number of currently authenticated connections,
// used for periodic server-health logging.
func (r *Registry) UserCount() int {
	r.usersMu.RLock()
	defer r.usersMu.RUnlock()
	return len(r.users)
}

// LiveGameCount returns the number of games that are Pending or
// InProgress, used for periodic server-health logging.
func (r *Registry) LiveGameCount() int {
	r.gamesMu.RLock()
	defer r.gamesMu.RUnlock()
	return len(r.games)
}

// FinishedCountFor returns how many finished-or-cancelled games name was
// seated in, backing the /stats command.
func (r *Registry) FinishedCountFor(name string) int {
	r.finishedMu.RLock()
	defer r.finishedMu.RUnlock()
	n := 0
	for _, g := range r.finished {
		g.Lock()
		if g.White() == name || g.Black() == name {
			n++
		}
		g.Unlock()
	}
	return n
}
