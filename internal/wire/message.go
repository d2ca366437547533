// Package wire defines the Message tagged union exchanged between the
// chess server and its clients, and its CBOR encoding.
package wire

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Kind discriminates the six Message variants.
type Kind uint8

const (
	KindCommand Kind = iota
	KindMove
	KindText
	KindBoard
	KindError
	KindLog
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "Command"
	case KindMove:
		return "Move"
	case KindText:
		return "Text"
	case KindBoard:
		return "Board"
	case KindError:
		return "Error"
	case KindLog:
		return "Log"
	default:
		return "Unknown"
	}
}

// CmdKind discriminates the four Command variants.
type CmdKind uint8

const (
	CmdLogIn CmdKind = iota
	CmdPlay
	CmdConcede
	CmdStats
)

func (c CmdKind) String() string {
	switch c {
	case CmdLogIn:
		return "LogIn"
	case CmdPlay:
		return "Play"
	case CmdConcede:
		return "Concede"
	case CmdStats:
		return "Stats"
	default:
		return "Unknown"
	}
}

// Message is the wire tagged union. Only the fields relevant to Kind (and,
// for KindCommand, to Cmd) are meaningful; the rest are zero. It is encoded
// as a fixed-size CBOR array (see the `cbor:",toarray"` tag) so the
// discriminant and payload travel compactly and the schema is unambiguous
// between independent encoder/decoder implementations.
type Message struct {
	_       struct{} `cbor:",toarray"`
	Kind    Kind
	Cmd     CmdKind
	Name    string // meaningful iff Kind == KindCommand && Cmd == CmdLogIn
	Payload string // meaningful iff Kind is Move, Text, Board, Error or Log
}

// ErrInvalidUsername is wrapped by every error ValidateUsername returns.
var ErrInvalidUsername = errors.New("wire: invalid username")

// ValidateUsername enforces the §3 User identity contract: non-empty,
// printable, no embedded newline.
func ValidateUsername(name string) error {
	if name == "" {
		return errInvalidUsername("must not be empty")
	}
	if strings.ContainsAny(name, "\n\r") {
		return errInvalidUsername("must not contain a newline")
	}
	for _, r := range name {
		if !unicode.IsPrint(r) {
			return errInvalidUsername("must be printable")
		}
	}
	return nil
}

func errInvalidUsername(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidUsername, reason)
}

// LogIn builds a Command(LogIn(name)) message. Callers should validate name
// with ValidateUsername beforehand if they need a specific rejection reason;
// LogIn itself does not validate, matching the dispatcher's responsibility
// to reply with a user-visible Error rather than fail silently.
func LogIn(name string) Message { return Message{Kind: KindCommand, Cmd: CmdLogIn, Name: name} }

// Play builds a Command(Play) message.
func Play() Message { return Message{Kind: KindCommand, Cmd: CmdPlay} }

// Concede builds a Command(Concede) message.
func Concede() Message { return Message{Kind: KindCommand, Cmd: CmdConcede} }

// Stats builds a Command(Stats) message.
func Stats() Message { return Message{Kind: KindCommand, Cmd: CmdStats} }

// Move builds a Move(s) message.
func Move(s string) Message { return Message{Kind: KindMove, Payload: s} }

// Text builds a Text(s) chat message.
func Text(s string) Message { return Message{Kind: KindText, Payload: s} }

// Board builds a Board(s) message carrying a FEN-like board serialization.
func Board(s string) Message { return Message{Kind: KindBoard, Payload: s} }

// Error builds a server-to-client Error(s) message.
func Error(s string) Message { return Message{Kind: KindError, Payload: s} }

// Log builds a server-to-client informational Log(s) message.
func Log(s string) Message { return Message{Kind: KindLog, Payload: s} }

// IsCommand reports whether m is a Command variant.
func (m Message) IsCommand() bool { return m.Kind == KindCommand }

// IsClientOriginOnly reports whether m is a variant clients are allowed to
// send (Command, Move, Text). Board/Error/Log are server-to-client only;
// a client sending one is a protocol violation (§4.5).
func (m Message) IsClientOriginOnly() bool {
	switch m.Kind {
	case KindCommand, KindMove, KindText:
		return true
	default:
		return false
	}
}
