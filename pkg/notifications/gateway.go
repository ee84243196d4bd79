package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/auditoria/auditoria/pkg/kvstore"
	"github.com/auditoria/auditoria/pkg/logger"
)

// Event names written to a stream.
const (
	EventConnected    = "connected"
	EventNotification = "notification"
)

// StreamWriter is the framing surface a stream writes to. sse.Writer
// satisfies it.
type StreamWriter interface {
	Event(name string, data []byte) error
	Comment(text string) error
}

// Subscriber opens dedicated pub/sub subscriptions.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (kvstore.Subscription, error)
}

// Gateway bridges a target's pub/sub channel to a long-lived client stream.
// Every stream owns its subscription; nothing is shared between streams.
type Gateway struct {
	subscriber Subscriber
	logger     *slog.Logger
	heartbeat  time.Duration
	active     atomic.Int64
}

type GatewayOption func(*Gateway)

// WithHeartbeat writes a comment every d while a stream is idle. Zero
// disables heartbeats.
func WithHeartbeat(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		if d >= 0 {
			g.heartbeat = d
		}
	}
}

func WithGatewayLogger(l *slog.Logger) GatewayOption {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

func NewGateway(subscriber Subscriber, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		subscriber: subscriber,
		logger:     slog.Default(),
		heartbeat:  25 * time.Second,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With(logger.Component("notifications.gateway"))
	return g
}

// Active reports the number of open streams.
func (g *Gateway) Active() int {
	return int(g.active.Load())
}

// Stream acknowledges the connection, subscribes to target's channel and
// forwards every published message as one notification event until ctx is
// done. A subscribe failure after the acknowledgement ends the stream and
// is returned wrapped in ErrSubscribe; the client is expected to reconnect.
func (g *Gateway) Stream(ctx context.Context, target Target, w StreamWriter) error {
	g.active.Add(1)
	defer g.active.Add(-1)

	channel := target.Channel()
	log := g.logger.With(logger.Channel(channel))

	if err := w.Event(EventConnected, []byte("{}")); err != nil {
		return err
	}

	sub, err := g.subscriber.Subscribe(ctx, channel)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		log.LogAttrs(ctx, slog.LevelError, "subscribe failed", logger.Error(err))
		return fmt.Errorf("%w: %w", ErrSubscribe, err)
	}
	defer func() {
		if err := sub.Close(); err != nil {
			log.LogAttrs(context.WithoutCancel(ctx), slog.LevelWarn, "unsubscribe failed", logger.Error(err))
		}
	}()

	var tick <-chan time.Time
	if g.heartbeat > 0 {
		ticker := time.NewTicker(g.heartbeat)
		defer ticker.Stop()
		tick = ticker.C
	}

	messages := sub.Messages()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				if ctx.Err() == nil {
					log.LogAttrs(ctx, slog.LevelWarn, "subscription closed by store")
				}
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			if err := w.Event(EventNotification, []byte(msg)); err != nil {
				return err
			}
		case <-tick:
			if ctx.Err() != nil {
				return nil
			}
			if err := w.Comment("ping"); err != nil {
				return err
			}
		}
	}
}
