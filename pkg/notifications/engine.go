package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/auditoria/auditoria/pkg/logger"
)

// Publisher publishes a message on a pub/sub channel.
type Publisher interface {
	Publish(ctx context.Context, channel, message string) error
}

// Engine accepts inbound payloads, answers with the normalized notification
// and persists and publishes it in the background.
type Engine struct {
	storage    Storage
	publisher  Publisher
	dispatcher *Dispatcher
	ownsPool   bool
	logger     *slog.Logger
	now        func() time.Time
}

type EngineOption func(*Engine)

func WithEngineLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithDispatcher runs the background tail on d instead of a private pool.
// The caller then owns stopping d.
func WithDispatcher(d *Dispatcher) EngineOption {
	return func(e *Engine) {
		if d != nil {
			e.dispatcher = d
		}
	}
}

// WithClock overrides the clock used for default timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func NewEngine(storage Storage, publisher Publisher, opts ...EngineOption) *Engine {
	e := &Engine{
		storage:   storage,
		publisher: publisher,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.dispatcher == nil {
		e.dispatcher = NewDispatcher(WithDispatcherLogger(e.logger))
		e.ownsPool = true
	}
	e.logger = e.logger.With(logger.Component("notifications.engine"))
	return e
}

// Ingest normalizes p and schedules it for storage and publication. It
// returns as soon as the notification is validated; storage and publish
// failures are logged, never returned.
func (e *Engine) Ingest(ctx context.Context, p Payload) (Notification, error) {
	n, err := p.Normalize(e.now())
	if err != nil {
		return Notification{}, err
	}

	target := n.Target()
	attrs := []slog.Attr{logger.NotificationID(n.UUID), logger.RecipientKey(target.Key())}
	err = e.dispatcher.Submit(context.WithoutCancel(ctx), "notification.deliver", func(ctx context.Context) error {
		return e.deliver(ctx, target, n)
	}, attrs...)
	if err != nil {
		e.logger.LogAttrs(ctx, slog.LevelError, "notification dropped", append(attrs, logger.Error(err))...)
	}
	return n, nil
}

// AddGlobal ingests p as a global notification whatever its userId.
func (e *Engine) AddGlobal(ctx context.Context, p Payload) (Notification, error) {
	p.UserID = ""
	return e.Ingest(ctx, p)
}

func (e *Engine) deliver(ctx context.Context, target Target, n Notification) error {
	if err := e.storage.Upsert(ctx, target, n); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	msg, err := json.Marshal(n)
	if err != nil {
		return err
	}
	if err := e.publisher.Publish(ctx, target.Channel(), string(msg)); err != nil {
		return fmt.Errorf("publish on %s: %w", target.Channel(), err)
	}
	return nil
}

func (e *Engine) List(ctx context.Context, target Target) ([]Notification, error) {
	return e.storage.List(ctx, target)
}

// Delete removes one notification from target. It returns ErrNotFound when
// no notification with id is stored there.
func (e *Engine) Delete(ctx context.Context, target Target, id string) error {
	ok, err := e.storage.Delete(ctx, target, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (e *Engine) PurgeGlobal(ctx context.Context) error {
	return e.storage.Purge(ctx, Global)
}

// Wait blocks until every scheduled delivery has settled.
func (e *Engine) Wait() {
	e.dispatcher.Wait()
}

// Close stops the private dispatcher, draining queued deliveries until ctx
// ends. It is a no-op when the dispatcher was supplied by the caller.
func (e *Engine) Close(ctx context.Context) error {
	if !e.ownsPool {
		return nil
	}
	return e.dispatcher.Stop(ctx)
}
