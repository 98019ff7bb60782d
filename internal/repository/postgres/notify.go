package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"plume/internal/domain/models"
	"plume/internal/domain/repositories"
)

// Notifier publishes creation events with pg_notify so every server
// instance listening on the channel refreshes its live lists.
type Notifier struct {
	pool    *pgxpool.Pool
	channel string
}

// NewNotifier creates a publisher on the prefixed events channel.
func NewNotifier(config *RepositoryConfig) repositories.EventPublisher {
	return &Notifier{pool: config.Pool, channel: config.Tables.EventsChannel}
}

// Publish sends the event. Inside a transaction the notification is only
// delivered on commit.
func (n *Notifier) Publish(ctx context.Context, event models.CreationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	executor := GetExecutor(ctx, n.pool)
	if _, err := executor.Exec(ctx, "SELECT pg_notify($1, $2)", n.channel, string(payload)); err != nil {
		return fmt.Errorf("notify %s: %w", n.channel, err)
	}
	return nil
}

// Listener relays notifications from the events channel to a handler.
type Listener struct {
	pool    *pgxpool.Pool
	channel string
	logger  *slog.Logger
}

// NewListener creates a listener on the prefixed events channel.
func NewListener(config *RepositoryConfig) *Listener {
	return &Listener{pool: config.Pool, channel: config.Tables.EventsChannel, logger: config.Logger}
}

// Run listens until ctx is done, reconnecting with backoff on failure.
func (l *Listener) Run(ctx context.Context, handle func(models.CreationEvent)) {
	backoff := time.Second
	for {
		err := l.listen(ctx, handle)
		if ctx.Err() != nil {
			return
		}
		l.logger.Warn("event listener disconnected, retrying", "error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (l *Listener) listen(ctx context.Context, handle func(models.CreationEvent)) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listener connection: %w", err)
	}
	defer conn.Release()

	channel := pgx.Identifier{l.channel}.Sanitize()
	if _, err := conn.Exec(ctx, "LISTEN "+channel); err != nil {
		return fmt.Errorf("listen %s: %w", l.channel, err)
	}
	defer func() {
		// Pooled connections must not keep the subscription
		unlistenCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, _ = conn.Exec(unlistenCtx, "UNLISTEN "+channel)
	}()

	l.logger.Info("listening for creation events", "channel", l.channel)

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}

		var event models.CreationEvent
		if err := json.Unmarshal([]byte(notification.Payload), &event); err != nil {
			l.logger.Warn("malformed creation event", "payload", notification.Payload, "error", err)
			continue
		}
		handle(event)
	}
}
