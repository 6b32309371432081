package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/numberdesk/numberdesk/internal/config"
	"github.com/numberdesk/numberdesk/internal/events"
	"github.com/numberdesk/numberdesk/internal/service"
	"github.com/numberdesk/numberdesk/internal/store"
)

// newLogger returns the process logger. Logs go to stderr so stdout stays
// free for command output and the MCP stdio transport.
func newLogger(w io.Writer, dev bool) *slog.Logger {
	level := slog.LevelInfo
	if dev {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

const storePingTimeout = 5 * time.Second

// openStore resolves the database location (falling back when the primary
// directory cannot be created), opens it and checks the connection.
func openStore(cfg config.Config, logger *slog.Logger) (*store.Store, error) {
	path, err := store.ResolvePath(cfg.Database.Path, cfg.Database.FallbackPath)
	if err != nil {
		return nil, err
	}
	if path != cfg.Database.Path {
		logger.Warn("database directory not writable, using fallback",
			"path", cfg.Database.Path,
			"fallback", path,
		)
	}
	st, err := store.NewStore(path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), storePingTimeout)
	defer cancel()
	if err := st.Ping(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("ping store %s: %w", path, err)
	}
	return st, nil
}

// newPublisher selects the event publisher. Events are dropped unless an
// AMQP URL is configured.
func newPublisher(cfg config.Config, logger *slog.Logger) events.Publisher {
	if cfg.Events.AMQPURL == "" {
		return events.Discard
	}
	p := events.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.Queue,
		events.WithDialTimeout(cfg.Events.DialTimeout),
		events.WithRetryBackoff(cfg.Events.RetryBackoff),
	)
	logger.Info("publishing events", "queue", p.Queue())
	return events.NewAsync(p, cfg.Events.BufferSize, logger)
}

// openDirectory opens the store and wraps it in a Directory. The returned
// cleanup closes both the publisher and the store.
func openDirectory(cfg config.Config, logger *slog.Logger) (*service.Directory, *store.Store, func(), error) {
	st, err := openStore(cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	pub := newPublisher(cfg, logger)
	cleanup := func() {
		pub.Close()
		st.Close()
	}
	return service.NewDirectory(st, pub, logger), st, cleanup, nil
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}

func stderrLogger(cfg config.Config) *slog.Logger {
	return newLogger(os.Stderr, cfg.Dev)
}
