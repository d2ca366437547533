package chessserver

import (
	"context"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/chessd/chessd/internal/userstore"
	"github.com/chessd/chessd/internal/wire"
	"github.com/stretchr/testify/require"
)

func dialAndLogin(t *testing.T, addr string, name string) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	require.NoError(t, wire.WriteFrame(conn, wire.LogIn(name)))
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	reply, err := wire.ReadFrame(conn)
	require.NoError(t, err)
	require.Equal(t, wire.KindLog, reply.Kind)
	return conn
}

// readBoardAndFollowing reads one Board frame followed by zero or more Log
// frames belonging to the same broadcast (turn notice, "Check!", and/or a
// finish notice), stopping as soon as a read would block.
func readBoardAndFollowing(t *testing.T, conn net.Conn) []wire.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	board, err := wire.ReadFrame(conn)
	require.NoError(t, err)
	require.Equal(t, wire.KindBoard, board.Kind)
	msgs := []wire.Message{board}

	for {
		conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		msg, err := wire.ReadFrame(conn)
		if err != nil {
			return msgs
		}
		msgs = append(msgs, msg)
	}
}

func TestEndToEndMatchAndCheckmate(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "usernames.txt")
	require.NoError(t, userstore.EnsureFile(dbPath))
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv, err := New("127.0.0.1", 0, dbPath, log)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.Serve(ctx, ln)
	}()
	defer func() {
		cancel()
		<-done
		srv.CloseStore()
	}()

	addr := ln.Addr().String()
	white := dialAndLogin(t, addr, "alice")
	defer white.Close()
	black := dialAndLogin(t, addr, "bob")
	defer black.Close()

	require.NoError(t, wire.WriteFrame(white, wire.Play()))
	white.SetReadDeadline(time.Now().Add(2 * time.Second))
	seated, err := wire.ReadFrame(white)
	require.NoError(t, err)
	require.Equal(t, wire.KindLog, seated.Kind)

	require.NoError(t, wire.WriteFrame(black, wire.Play()))

	whiteMsgs := readBoardAndFollowing(t, white)
	require.Equal(t, wire.KindLog, whiteMsgs[len(whiteMsgs)-1].Kind) // white to move, fresh game
	readBoardAndFollowing(t, black)

	moves := []struct {
		conn net.Conn
		mv   string
	}{
		{white, "f2f3"},
		{black, "e7e5"},
		{white, "g2g4"},
		{black, "d8h4"},
	}
	for _, m := range moves {
		require.NoError(t, wire.WriteFrame(m.conn, wire.Move(m.mv)))
		readBoardAndFollowing(t, white)
		readBoardAndFollowing(t, black)
	}

	g, ok := srv.Registry().Finished(0)
	require.True(t, ok)
	require.Equal(t, "BlackWinsMate", g.Result().String())
}
