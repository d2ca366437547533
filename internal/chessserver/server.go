// Package chessserver assembles the registry, user store and dispatcher
// into a single TCP server, mirroring the teacher's login.Server: an
// accept loop per listener, one goroutine pair per connection, and a
// context-driven shutdown that closes the listener and lets in-flight
// connections wind down on their own.
package chessserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/chessd/chessd/internal/connhandler"
	"github.com/chessd/chessd/internal/dispatch"
	"github.com/chessd/chessd/internal/registry"
	"github.com/chessd/chessd/internal/userstore"
)

// Server is the chess protocol server described in §3/§6: it accepts TCP
// connections and serves the message protocol over each.
type Server struct {
	host string
	port int
	log  *slog.Logger

	store *userstore.Store
	reg   *registry.Registry
	disp  *dispatch.Dispatcher

	mu       sync.Mutex
	listener net.Listener
}

// New creates a Server bound to host:port, backed by a user store opened
// at dbPath (§7: the store's file must already exist — callers that want
// it created should call userstore.EnsureFile first).
func New(host string, port int, dbPath string, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = slog.Default()
	}

	store, err := userstore.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening user store %s: %w", dbPath, err)
	}

	reg := registry.New()
	disp := dispatch.New(reg, store, log)

	return &Server{
		host:  host,
		port:  port,
		log:   log,
		store: store,
		reg:   reg,
		disp:  disp,
	}, nil
}

// Registry exposes the server's session registry, mainly for tests that
// want to assert on matchmaking and game state directly.
func (s *Server) Registry() *registry.Registry { return s.reg }

// Addr returns the address the server is listening on. Returns nil if Run
// or Serve has not yet bound a listener.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close closes the listener, unblocking any pending Accept. It does not
// close the user store; callers should do that separately once Run/Serve
// has returned.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

// CloseStore closes the server's user store. Call once Run/Serve has
// returned and no more connections are in flight.
func (s *Server) CloseStore() error {
	return s.store.Close()
}

// Run listens on host:port and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	return s.Serve(ctx, ln)
}

// Serve accepts connections on an already-bound listener until ctx is
// cancelled or the listener is closed. Exposed separately from Run so
// tests can serve on a loopback listener with an OS-assigned port.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	s.log.Info("chess server listening", "addr", ln.Addr())
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				break
			}
			select {
			case <-ctx.Done():
			default:
				s.log.Error("accept failed", "err", err)
			}
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			connhandler.Serve(ctx, conn, s.reg, s.disp, s.log)
		}()
	}

	wg.Wait()
	return nil
}
