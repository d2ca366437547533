// Package connhandler wires one accepted net.Conn to the dispatcher: a
// reader task that decodes frames and feeds them to the Dispatcher, and a
// writer task that drains a Peer's outbound channel onto the wire. The two
// run as sibling goroutines for the lifetime of the connection (§4.6).
package connhandler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"

	"github.com/chessd/chessd/internal/dispatch"
	"github.com/chessd/chessd/internal/registry"
	"github.com/chessd/chessd/internal/wire"
)

// Serve owns conn for its entire lifetime: it registers an anonymous peer,
// runs the reader loop until the client disconnects or sends a malformed
// frame, then cleans up and waits for the writer loop to drain and exit
// before returning. It never returns an error the caller must act on;
// connection-level failures are logged and simply end that connection.
func Serve(ctx context.Context, conn net.Conn, reg *registry.Registry, disp *dispatch.Dispatcher, log *slog.Logger) {
	addr := conn.RemoteAddr().String()
	peer := registry.NewPeer(addr, conn)
	reg.AttachAnon(peer)

	done := make(chan struct{})
	go func() {
		defer close(done)
		writerLoop(conn, peer, log)
	}()

	readerLoop(ctx, conn, addr, peer, disp, log)

	disp.Cleanup(addr, peer)
	peer.Shutdown()
	<-done
}

// readerLoop decodes frames off conn and dispatches them until the
// connection errors out or ctx is cancelled. A framing error (truncated or
// oversized frame) ends the connection rather than attempting to
// resynchronize, since the stream's frame boundary is no longer known.
func readerLoop(ctx context.Context, conn net.Conn, addr string, peer *registry.Peer, disp *dispatch.Dispatcher, log *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msg, err := wire.ReadFrame(conn)
		if err != nil {
			if errors.Is(err, io.EOF) {
				log.Info("connection closed by peer", "addr", addr)
			} else {
				log.Warn("connection read error", "addr", addr, "err", err)
			}
			return
		}

		if !msg.IsClientOriginOnly() {
			log.Warn("protocol violation: server-only message kind from client, closing connection", "addr", addr, "kind", msg.Kind.String())
			return
		}

		disp.Handle(ctx, addr, peer, msg)
	}
}

// writerLoop drains peer's outbound channel onto conn until the channel is
// closed (by Shutdown), then closes conn itself: closing conn is the
// writer's job specifically so that a message enqueued just before
// Shutdown is written before the connection goes away, rather than racing
// an external Close against this loop's pending write. A write error ends
// the loop early — the reader loop will observe the same dead connection
// on its own next read and unwind normally.
func writerLoop(conn net.Conn, peer *registry.Peer, log *slog.Logger) {
	defer peer.CloseConn()
	for msg := range peer.Out {
		if err := wire.WriteFrame(conn, msg); err != nil {
			log.Warn("connection write error", "addr", peer.Addr, "err", err)
			return
		}
	}
}
