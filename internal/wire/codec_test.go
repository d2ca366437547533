package wire

import (
	"bytes"
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	msg := Move("e2e4")

	require.NoError(t, WriteFrame(&buf, msg))

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, msg, got)
}

func TestReadFrameCleanEOF(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader(nil))
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadFrameTruncatedHeader(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader([]byte{0x00, 0x01}))
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReadFrameTruncatedPayload(t *testing.T) {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], 10)
	buf := bytes.NewBuffer(header[:])
	buf.WriteString("short")

	_, err := ReadFrame(buf)
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

// TestReadFrameTooLargeWithoutAllocating is property P3: a frame declaring a
// length over MaxFrameSize is rejected before its payload is read, so a
// malicious peer cannot force a multi-gigabyte allocation merely by sending
// an oversized length header and never following up with data.
func TestReadFrameTooLargeWithoutAllocating(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	var header [4]byte
	binary.BigEndian.PutUint32(header[:], MaxFrameSize+1)

	done := make(chan error, 1)
	go func() {
		_, err := ReadFrame(server)
		done <- err
	}()

	require.NoError(t, client.SetWriteDeadline(time.Now().Add(time.Second)))
	_, err := client.Write(header[:])
	require.NoError(t, err)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrFrameTooLarge)
	case <-time.After(time.Second):
		t.Fatal("ReadFrame blocked waiting for a payload it should have rejected up front")
	}
}

func TestWriteFrameOverNetPipe(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	msg := Board("startpos")
	done := make(chan Message, 1)
	go func() {
		got, err := ReadFrame(server)
		require.NoError(t, err)
		done <- got
	}()

	require.NoError(t, WriteFrame(client, msg))
	assert.Equal(t, msg, <-done)
}
