package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// MaxFrameSize is the largest payload a frame may declare (§4.1). A frame
// whose length header exceeds this is rejected before the payload buffer is
// allocated, so a hostile length prefix cannot force a 4 GiB allocation.
const MaxFrameSize = 10 * 1024 * 1024

// ErrFrameTooLarge is returned by ReadFrame when a frame's declared length
// exceeds MaxFrameSize.
var ErrFrameTooLarge = errors.New("wire: frame exceeds maximum size")

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("wire: building cbor encode mode: %v", err))
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("wire: building cbor decode mode: %v", err))
	}
}

// ReadFrame reads one length-prefixed CBOR-encoded Message from r.
//
// A clean end of stream before any byte of a new frame's header arrives is
// reported as io.EOF. A short read partway through the 4-byte header or the
// payload is a truncated frame, reported wrapped around io.ErrUnexpectedEOF.
// A declared length over MaxFrameSize is rejected without allocating the
// payload buffer.
func ReadFrame(r io.Reader) (Message, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return Message{}, io.EOF
		}
		return Message{}, fmt.Errorf("wire: reading frame header: %w", err)
	}

	n := binary.BigEndian.Uint32(header[:])
	if n > MaxFrameSize {
		return Message{}, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, n)
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return Message{}, fmt.Errorf("wire: reading frame payload: %w", err)
	}

	var msg Message
	if err := decMode.Unmarshal(payload, &msg); err != nil {
		return Message{}, fmt.Errorf("wire: decoding message: %w", err)
	}
	return msg, nil
}

// WriteFrame encodes msg as CBOR, length-prefixes it, and writes both in a
// single Write call so that the frame lands atomically with respect to any
// other goroutine writing to the same stream (§4.1, §5) — in practice this
// holds because each connection has exactly one writer goroutine consuming
// its outbound channel (§4.6), and WriteFrame is only ever called from it.
func WriteFrame(w io.Writer, msg Message) error {
	payload, err := encMode.Marshal(msg)
	if err != nil {
		return fmt.Errorf("wire: encoding message: %w", err)
	}

	frame := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(frame[:4], uint32(len(payload)))
	copy(frame[4:], payload)

	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("wire: writing frame: %w", err)
	}
	return nil
}
