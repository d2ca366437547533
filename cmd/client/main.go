// Command client is the line-mode text client of §6's "informational, not
// part of the core" client surface: a thin prompt loop that classifies
// each line of stdin as a command, a chat message, or a move, and prints
// whatever the server sends back. Board rendering, input validation and
// any richer TUI are explicitly out of scope (§1 non-goal (b)); this is
// deliberately the simplest thing that can drive the protocol manually.
package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"os"
	"regexp"
	"strings"

	"github.com/chessd/chessd/internal/wire"
)

const (
	defaultHost = "127.0.0.1"
	defaultPort = "11111"
)

var movePattern = regexp.MustCompile(`^([a-h][1-8][a-h][1-8]|O-O(-O)?)\+?#?$`)

// sanPattern is a loose standard-algebraic-notation check: a piece letter
// or file disambiguator, an optional capture, a destination square, and
// optional check/mate/promotion suffixes. The server is the source of
// truth on legality; this only decides whether to try sending it as a
// move at all.
var sanPattern = regexp.MustCompile(`^[KQRBN]?[a-h]?[1-8]?x?[a-h][1-8](=[QRBN])?[+#]?$`)

func looksLikeSAN(line string) bool {
	return sanPattern.MatchString(line)
}

func main() {
	host := defaultHost
	if len(os.Args) > 1 {
		host = os.Args[1]
	}
	port := defaultPort
	if len(os.Args) > 2 {
		port = os.Args[2]
	}

	conn, err := net.Dial("tcp", net.JoinHostPort(host, port))
	if err != nil {
		slog.Error("failed to connect", "err", err)
		os.Exit(1)
	}
	defer conn.Close()
	slog.Info("connected", "host", host, "port", port)

	go receiveLoop(conn)
	inputLoop(conn)
}

// receiveLoop prints every message the server sends until the connection
// closes.
func receiveLoop(conn net.Conn) {
	for {
		msg, err := wire.ReadFrame(conn)
		if err != nil {
			slog.Info("disconnected", "err", err)
			os.Exit(0)
		}
		fmt.Println(render(msg))
	}
}

func render(msg wire.Message) string {
	switch msg.Kind {
	case wire.KindBoard:
		return "board: " + msg.Payload
	case wire.KindError:
		return "error: " + msg.Payload
	case wire.KindLog:
		return msg.Payload
	case wire.KindText:
		return "> " + msg.Payload
	default:
		return fmt.Sprintf("(unexpected %s from server)", msg.Kind.String())
	}
}

// inputLoop implements §6's client command surface: lines starting with
// "/" are commands, lines starting with ":" are chat, anything matching
// long-algebraic or SAN notation (castling included) is a move, everything
// else is rejected client-side without being sent.
func inputLoop(conn net.Conn) {
	fmt.Println("Please enter your command, chat message, or chess move.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		msg, ok := classify(line)
		if !ok {
			fmt.Println("Unrecognized input. Try /log in <name>, /play, /stats, /concede, or a move.")
			continue
		}

		if err := wire.WriteFrame(conn, msg); err != nil {
			slog.Error("failed to send message", "err", err)
		}
	}
}

func classify(line string) (wire.Message, bool) {
	switch {
	case strings.HasPrefix(line, "/log in "):
		name := strings.TrimSpace(strings.TrimPrefix(line, "/log in "))
		if err := wire.ValidateUsername(name); err != nil {
			return wire.Message{}, false
		}
		return wire.LogIn(name), true
	case strings.HasPrefix(line, "/play"):
		return wire.Play(), true
	case strings.HasPrefix(line, "/concede"):
		return wire.Concede(), true
	case strings.HasPrefix(line, "/stat"):
		return wire.Stats(), true
	case strings.HasPrefix(line, "/"):
		return wire.Message{}, false
	case strings.HasPrefix(line, ":"):
		return wire.Text(strings.TrimPrefix(line, ":")), true
	case movePattern.MatchString(line) || looksLikeSAN(line):
		return wire.Move(line), true
	default:
		return wire.Message{}, false
	}
}
