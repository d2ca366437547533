package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chessd/chessd/internal/chessserver"
	"github.com/chessd/chessd/internal/config"
	"github.com/chessd/chessd/internal/userstore"
)

const defaultConfigPath = "config/server.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx, os.Args[1:]); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cfgPath := defaultConfigPath
	if p := os.Getenv("CHESSD_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// §6: server [host [port]] overrides whatever the config file says.
	host, port, err := parseArgs(args, cfg.BindAddress, cfg.Port)
	if err != nil {
		return err
	}
	cfg.BindAddress, cfg.Port = host, port

	logLevel := parseLogLevel(envOr("CHESSD_LOG_LEVEL", cfg.LogLevel))
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	slog.Info("chessd starting", "bind", cfg.BindAddress, "port", cfg.Port, "user_store", cfg.UserStorePath)

	if err := userstore.EnsureFile(cfg.UserStorePath); err != nil {
		return fmt.Errorf("preparing user store: %w", err)
	}

	srv, err := chessserver.New(cfg.BindAddress, cfg.Port, cfg.UserStorePath, slog.Default())
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer srv.CloseStore()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Run(gctx)
	})

	g.Go(func() error {
		reportHealth(gctx, srv)
		return nil
	})

	return g.Wait()
}

// reportHealth periodically logs the server's connected-user and
// live-game counts, the one piece of ambient observability this server
// carries beyond per-event logging.
func reportHealth(ctx context.Context, srv *chessserver.Server) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reg := srv.Registry()
			slog.Info("server health", "users", reg.UserCount(), "live_games", reg.LiveGameCount())
		}
	}
}

// parseArgs implements §6's CLI: `server [host [port]]`. Either, both or
// neither may be given; whatever isn't given falls back to the supplied
// default (from config).
func parseArgs(args []string, defaultHost string, defaultPort int) (string, int, error) {
	host, port := defaultHost, defaultPort
	if len(args) > 0 {
		host = args[0]
	}
	if len(args) > 1 {
		p, err := strconv.Atoi(args[1])
		if err != nil {
			return "", 0, fmt.Errorf("invalid port %q: %w", args[1], err)
		}
		port = p
	}
	if len(args) > 2 {
		return "", 0, fmt.Errorf("usage: server [host [port]]")
	}
	return host, port, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
