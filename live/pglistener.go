package live

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/beach-tennis-live/repositories"
	"github.com/jackc/pgx/v5"
)

const (
	reconnectBackoff = 1 * time.Second
	maxReconnect     = 30 * time.Second
)

// ListenPostgres holds a dedicated connection LISTENing on channel and
// forwards every document change to target. It reconnects on connection
// loss and blocks until ctx is cancelled. Intended to be called with `go`.
func ListenPostgres(ctx context.Context, dbURL, channel string, target repositories.ChangeNotifier, logger *slog.Logger) {
	backoff := reconnectBackoff

	for {
		err := listenLoop(ctx, dbURL, channel, target, logger, func() { backoff = reconnectBackoff })
		if ctx.Err() != nil {
			logger.Info("change listener stopped (context cancelled)")
			return
		}

		logger.Error("change listener disconnected, reconnecting",
			slog.Any("error", err), slog.Duration("backoff", backoff))

		select {
		case <-time.After(backoff):
			backoff = nextBackoff(backoff)
		case <-ctx.Done():
			return
		}
	}
}

func listenLoop(ctx context.Context, dbURL, channel string, target repositories.ChangeNotifier, logger *slog.Logger, connected func()) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
		return fmt.Errorf("LISTEN %s: %w", channel, err)
	}
	connected()
	logger.Info("change listener connected", slog.String("channel", channel))

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}

		change, err := decodeChange([]byte(notification.Payload))
		if err != nil {
			logger.Warn("failed to parse change notification",
				slog.String("payload", notification.Payload), slog.Any("error", err))
			continue
		}
		target.NotifyChange(change)
	}
}

func nextBackoff(d time.Duration) time.Duration {
	return min(d*2, maxReconnect)
}

// decodeChange parses a change message from the trigger or from NATS.
func decodeChange(data []byte) (repositories.Change, error) {
	var change repositories.Change
	if err := json.Unmarshal(data, &change); err != nil {
		return change, err
	}
	if !change.Collection.Valid() {
		return change, fmt.Errorf("unknown collection %q", change.Collection)
	}
	switch change.Op {
	case repositories.OpCreate, repositories.OpUpdate, repositories.OpDelete:
	default:
		return change, fmt.Errorf("unknown op %q", change.Op)
	}
	return change, nil
}
