package registry

import (
	"net"
	"testing"

	"github.com/chessd/chessd/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nopCloser lets tests build Peers without a real net.Conn.
type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func newTestPeer(addr string) *Peer {
	return NewPeer(addr, nopCloser{})
}

func TestAttachPromoteDetachAnon(t *testing.T) {
	r := New()
	p := newTestPeer("127.0.0.1:1")
	r.AttachAnon(p)

	got, ok := r.PeerForAddr("127.0.0.1:1")
	require.True(t, ok)
	assert.Same(t, p, got)

	superseded := r.Promote("127.0.0.1:1", "alice", p)
	assert.Nil(t, superseded)

	_, ok = r.PeerForAddr("127.0.0.1:1")
	assert.False(t, ok)

	got, ok = r.PeerForUser("alice")
	require.True(t, ok)
	assert.Same(t, p, got)

	name, ok := r.LookupUserByAddr("127.0.0.1:1")
	require.True(t, ok)
	assert.Equal(t, "alice", name)
}

func TestPromoteSupersedesExistingConnection(t *testing.T) {
	r := New()
	old := newTestPeer("127.0.0.1:1")
	r.AttachAnon(old)
	superseded := r.Promote("127.0.0.1:1", "alice", old)
	assert.Nil(t, superseded)

	fresh := newTestPeer("127.0.0.1:2")
	r.AttachAnon(fresh)
	superseded = r.Promote("127.0.0.1:2", "alice", fresh)
	require.NotNil(t, superseded)
	assert.Same(t, old, superseded)

	got, ok := r.PeerForUser("alice")
	require.True(t, ok)
	assert.Same(t, fresh, got)
}

func TestSeatFillsOneGameThenStartsAnother(t *testing.T) {
	r := New()
	g1, full1 := r.Seat("alice")
	g1.Unlock()
	assert.False(t, full1)

	g2, full2 := r.Seat("bob")
	assert.Same(t, g1, g2, "second player should join the first pending game")
	assert.True(t, full2, "seating the second player should fill the game")
	g2.Unlock()

	g3, full3 := r.Seat("carol")
	assert.NotSame(t, g1, g3, "third player should start a new game")
	assert.False(t, full3)
	g3.Unlock()
}

func TestGameOfTracksSeating(t *testing.T) {
	r := New()
	g, _ := r.Seat("alice")
	g.Unlock()

	got, ok := r.GameOf("alice")
	require.True(t, ok)
	assert.Equal(t, g.ID, got.ID)

	_, ok = r.GameOf("nobody")
	assert.False(t, ok)
}

func TestFinishMovesGameToFinishedIndex(t *testing.T) {
	r := New()
	g, _ := r.Seat("alice")
	g.Unlock()
	g2, _ := r.Seat("bob")
	g2.Unlock()

	g.Lock()
	g.SetStatus(game.StatusFinished)
	g.SetResult(game.ResultWhiteResigns)
	g.Unlock()

	r.Finish(g)

	_, ok := r.Game(g.ID)
	assert.False(t, ok)

	done, ok := r.Finished(g.ID)
	require.True(t, ok)
	assert.Equal(t, game.StatusFinished, done.Status())

	_, ok = r.GameOf("alice")
	assert.False(t, ok)
	_, ok = r.GameOf("bob")
	assert.False(t, ok)
}

func TestPeerShutdownClosesChannelOnly(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()
	p := NewPeer("127.0.0.1:1", c1)
	p.Shutdown()
	p.Shutdown() // must not panic on double Shutdown

	_, open := <-p.Out
	assert.False(t, open)
}

func TestPeerCloseConnClosesUnderlyingConn(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c2.Close()
	p := NewPeer("127.0.0.1:1", c1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		buf := make([]byte, 1)
		c2.Read(buf)
	}()

	p.CloseConn()
	<-done // c2's read unblocks once c1 is closed
}
