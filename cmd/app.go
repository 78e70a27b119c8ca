package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Dosada05/beach-tennis-live/config"
	"github.com/Dosada05/beach-tennis-live/db"
	"github.com/Dosada05/beach-tennis-live/live"
	"github.com/Dosada05/beach-tennis-live/repositories"
	"github.com/jonboulle/clockwork"
)

const dbConnectTimeout = 5 * time.Second

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

type notifiable interface {
	SetNotifier(n repositories.ChangeNotifier)
}

// backend — хранилище и всё, что нужно закрыть при выходе.
type backend struct {
	store   repositories.DocumentStore
	conn    *sql.DB
	closers []func()
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openStore returns the Postgres store when dsn is set, the memory store
// otherwise.
func openStore(dsn string, pool db.Pool, clock clockwork.Clock, logger *slog.Logger) (*backend, error) {
	if dsn == "" {
		logger.Warn("DATABASE_URL is not set, using in-memory store")
		return &backend{store: repositories.NewMemoryStore(clock)}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbConnectTimeout)
	defer cancel()
	conn, err := db.Connect(ctx, dsn, pool, logger)
	if err != nil {
		return nil, err
	}
	b := &backend{store: repositories.NewPostgresStore(conn, clock), conn: conn}
	b.closers = append(b.closers, func() {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	})
	return b, nil
}

// wireChangeFeed connects the store's writes to hub according to the
// configured feed. With several server instances only postgres or nats
// reach every instance.
func wireChangeFeed(ctx context.Context, cfg *config.Config, b *backend, hub *live.Hub, logger *slog.Logger) error {
	n, ok := b.store.(notifiable)
	if !ok {
		return fmt.Errorf("store %T cannot report changes", b.store)
	}

	switch cfg.ChangeFeed {
	case config.ChangeFeedLocal:
		n.SetNotifier(hub)
	case config.ChangeFeedPostgres:
		if b.conn == nil {
			return fmt.Errorf("postgres change feed needs DATABASE_URL")
		}
		// Уведомления приходят из триггера, сам store ничего не шлёт.
		go live.ListenPostgres(ctx, cfg.DatabaseURL, db.ChangeChannel, hub, logger)
	case config.ChangeFeedNATS:
		bridge, err := live.NewNATSBridge(cfg.NATSURL, cfg.NATSPrefix, logger)
		if err != nil {
			return err
		}
		if err := bridge.Start(hub); err != nil {
			bridge.Close()
			return err
		}
		n.SetNotifier(bridge)
		b.closers = append(b.closers, bridge.Close)
	default:
		return fmt.Errorf("unknown change feed %q", cfg.ChangeFeed)
	}
	logger.Info("change feed wired", slog.String("feed", string(cfg.ChangeFeed)))
	return nil
}
