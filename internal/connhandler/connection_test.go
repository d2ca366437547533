package connhandler

import (
	"context"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/chessd/chessd/internal/dispatch"
	"github.com/chessd/chessd/internal/registry"
	"github.com/chessd/chessd/internal/userstore"
	"github.com/chessd/chessd/internal/wire"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(t *testing.T) (*registry.Registry, *dispatch.Dispatcher) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "usernames.txt")
	require.NoError(t, userstore.EnsureFile(path))
	store, err := userstore.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := registry.New()
	return reg, dispatch.New(reg, store, log)
}

func TestServeLoginRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	reg, disp := newTestDispatcher(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	serveDone := make(chan struct{})
	go func() {
		defer close(serveDone)
		Serve(ctx, server, reg, disp, log)
	}()

	require.NoError(t, wire.WriteFrame(client, wire.LogIn("alice")))

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	reply, err := wire.ReadFrame(client)
	require.NoError(t, err)
	require.Equal(t, wire.KindLog, reply.Kind)

	_, ok := reg.LookupUserByAddr(server.RemoteAddr().String())
	require.True(t, ok)

	client.Close()
	<-serveDone

	_, stillOk := reg.LookupUserByAddr(server.RemoteAddr().String())
	require.False(t, stillOk)
}
