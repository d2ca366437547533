package registry

import (
	"io"
	"sync"

	"github.com/chessd/chessd/internal/wire"
)

// Peer is the duple of §3's Connection: a peer address and its outbound
// message channel, plus the underlying connection, which the peer's writer
// task closes once Out has been closed and drained (see CloseConn). The channel is bounded (capacity 100, see NewPeer) so a slow
// client applies backpressure to whichever goroutine is trying to send to
// it rather than to the rest of the server (§5).
type Peer struct {
	Addr string
	Out  chan wire.Message

	conn      io.Closer
	closeOnce sync.Once
}

// outboundBufferSize is the outbound channel capacity prescribed by §4.6.
const outboundBufferSize = 100

// NewPeer creates a Peer for addr backed by conn, which the writer task
// closes once it has drained Out (see CloseConn).
func NewPeer(addr string, conn io.Closer) *Peer {
	return &Peer{
		Addr: addr,
		Out:  make(chan wire.Message, outboundBufferSize),
		conn: conn,
	}
}

// Shutdown closes the outbound channel, signalling the peer's writer task
// to drain whatever is still enqueued and exit. It does not touch the
// underlying connection: the writer task owns that close, once its drain
// loop ends, so a message sent just before Shutdown is still written to
// the wire rather than racing conn.Close. Safe to call more than once and
// from any goroutine.
func (p *Peer) Shutdown() {
	p.closeOnce.Do(func() {
		close(p.Out)
	})
}

// CloseConn closes the underlying connection. Only the writer task that
// drained Out should call this, once its range loop over Out has ended.
func (p *Peer) CloseConn() {
	_ = p.conn.Close()
}
