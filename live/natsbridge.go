package live

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/beach-tennis-live/models"
	"github.com/Dosada05/beach-tennis-live/repositories"
	"github.com/nats-io/nats.go"
)

const DefaultSubjectPrefix = "beachtennis.changes"

// NATSBridge publishes local store changes to NATS and feeds changes from
// every instance (its own included) into the local hub. With the bridge in
// place the store notifies the bridge, never the hub directly.
type NATSBridge struct {
	nc     *nats.Conn
	sub    *nats.Subscription
	prefix string
	logger *slog.Logger
}

func NewNATSBridge(url, prefix string, logger *slog.Logger) (*NATSBridge, error) {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	opts := []nats.Option{
		nats.Name("beach-tennis-live"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Error("NATS disconnected", slog.Any("error", err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSBridge{nc: nc, prefix: prefix, logger: logger}, nil
}

// Start subscribes to all change subjects and forwards them to target.
func (b *NATSBridge) Start(target repositories.ChangeNotifier) error {
	sub, err := b.nc.Subscribe(b.prefix+".>", func(msg *nats.Msg) {
		change, err := decodeChange(msg.Data)
		if err != nil {
			b.logger.Warn("failed to parse change message",
				slog.String("subject", msg.Subject), slog.Any("error", err))
			return
		}
		target.NotifyChange(change)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s.>: %w", b.prefix, err)
	}
	b.sub = sub
	return nil
}

// NotifyChange implements repositories.ChangeNotifier.
func (b *NATSBridge) NotifyChange(change repositories.Change) {
	data, err := json.Marshal(change)
	if err != nil {
		b.logger.Error("failed to encode change", slog.Any("error", err))
		return
	}
	subject := changeSubject(b.prefix, change.Collection)
	if err := b.nc.Publish(subject, data); err != nil {
		b.logger.Error("failed to publish change",
			slog.String("subject", subject), slog.Any("error", err))
	}
}

func changeSubject(prefix string, coll models.Collection) string {
	return prefix + "." + string(coll)
}

func (b *NATSBridge) Close() {
	if b.sub != nil {
		_ = b.sub.Unsubscribe()
	}
	b.nc.Close()
}
