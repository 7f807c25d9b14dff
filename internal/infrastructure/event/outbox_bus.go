package event

import (
	"context"
	"sync"
	"time"

	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/astralisone/platform/internal/infrastructure/config"
	"go.uber.org/zap"
)

const (
	defaultOutboxPollInterval = 2 * time.Second
	defaultOutboxBatchSize    = 100
	defaultOutboxRetention    = 7 * 24 * time.Hour
)

// OutboxEventBus implements shared.EventBus with durable delivery. Publish
// persists events as outbox rows; a background processor claims and
// dispatches them to registered handlers with retry, so events survive a
// crash between the aggregate save and handler execution.
type OutboxEventBus struct {
	cfg        config.EventConfig
	repo       shared.OutboxRepository
	serializer *EventSerializer
	registry   *HandlerRegistry
	logger     *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewOutboxEventBus creates a new outbox-backed event bus
func NewOutboxEventBus(cfg config.EventConfig, repo shared.OutboxRepository, serializer *EventSerializer, logger *zap.Logger) *OutboxEventBus {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultOutboxPollInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultOutboxBatchSize
	}
	if cfg.Retention <= 0 {
		cfg.Retention = defaultOutboxRetention
	}

	return &OutboxEventBus{
		cfg:        cfg,
		repo:       repo,
		serializer: serializer,
		registry:   NewHandlerRegistry(),
		logger:     logger,
	}
}

// Publish persists events as pending outbox entries. Delivery to handlers
// happens asynchronously in the processor loop.
func (b *OutboxEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	entries := make([]*shared.OutboxEntry, 0, len(events))
	for _, evt := range events {
		payload, err := b.serializer.Serialize(evt)
		if err != nil {
			return err
		}
		entries = append(entries, shared.NewOutboxEntry(evt, payload))
	}
	return b.repo.Save(ctx, entries...)
}

// Subscribe registers a handler for specific event types
func (b *OutboxEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed",
		zap.Strings("event_types", eventTypes),
	)
}

// Unsubscribe removes a handler
func (b *OutboxEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
	b.logger.Debug("handler unsubscribed")
}

// Start begins the processor loop. Calling Start on a running bus is a
// no-op.
func (b *OutboxEventBus) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.isRunning {
		b.mu.Unlock()
		return nil
	}
	b.isRunning = true
	b.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel

	b.wg.Add(1)
	go b.processLoop(ctx)

	b.logger.Info("outbox event bus started",
		zap.Duration("poll_interval", b.cfg.PollInterval),
		zap.Int("batch_size", b.cfg.BatchSize),
	)
	return nil
}

// Stop cancels the processor loop and waits for the in-flight batch,
// bounded by the caller's context.
func (b *OutboxEventBus) Stop(ctx context.Context) error {
	b.mu.Lock()
	if !b.isRunning {
		b.mu.Unlock()
		return nil
	}
	b.isRunning = false
	b.mu.Unlock()

	if b.cancel != nil {
		b.cancel()
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("outbox event bus stopped")
		return nil
	case <-ctx.Done():
		b.logger.Warn("outbox event bus stop timed out")
		return ctx.Err()
	}
}

func (b *OutboxEventBus) processLoop(ctx context.Context) {
	defer b.wg.Done()

	ticker := time.NewTicker(b.cfg.PollInterval)
	defer ticker.Stop()

	cleanup := time.NewTicker(time.Hour)
	defer cleanup.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := b.ProcessBatch(ctx); err != nil {
				b.logger.Error("outbox batch failed", zap.Error(err))
			}
		case <-cleanup.C:
			deleted, err := b.repo.DeleteSentBefore(ctx, time.Now().Add(-b.cfg.Retention))
			if err != nil {
				b.logger.Error("outbox cleanup failed", zap.Error(err))
			} else if deleted > 0 {
				b.logger.Info("pruned sent outbox entries", zap.Int64("deleted", deleted))
			}
		}
	}
}

// ProcessBatch claims one batch of dispatchable entries and delivers them.
// Exported so a batch can be triggered manually.
func (b *OutboxEventBus) ProcessBatch(ctx context.Context) error {
	entries, err := b.repo.ClaimDispatchable(ctx, time.Now(), b.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		b.dispatchEntry(ctx, entry)
	}
	return nil
}

func (b *OutboxEventBus) dispatchEntry(ctx context.Context, entry *shared.OutboxEntry) {
	evt, err := b.serializer.Deserialize(entry.EventType, entry.Payload)
	if err != nil {
		// an undecodable payload cannot succeed on retry
		entry.Attempts = entry.MaxAttempts - 1
		entry.MarkFailed(err.Error())
		b.logger.Error("outbox entry is undecodable",
			zap.String("event_type", entry.EventType),
			zap.String("event_id", entry.EventID.String()),
			zap.Error(err),
		)
		b.persistEntry(ctx, entry)
		return
	}

	var firstErr error
	for _, handler := range b.registry.GetHandlers(entry.EventType) {
		if err := b.dispatchToHandler(ctx, handler, evt); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if firstErr != nil {
		entry.MarkFailed(firstErr.Error())
		if entry.IsDead() {
			b.logger.Error("outbox entry moved to dead letter",
				zap.String("event_type", entry.EventType),
				zap.String("event_id", entry.EventID.String()),
				zap.String("last_error", entry.LastError),
			)
		}
	} else {
		entry.MarkSent()
	}
	b.persistEntry(ctx, entry)
}

func (b *OutboxEventBus) persistEntry(ctx context.Context, entry *shared.OutboxEntry) {
	if err := b.repo.Update(ctx, entry); err != nil {
		b.logger.Error("failed to update outbox entry",
			zap.String("event_id", entry.EventID.String()),
			zap.Error(err),
		)
	}
}

func (b *OutboxEventBus) dispatchToHandler(ctx context.Context, handler shared.EventHandler, evt shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panicked",
				zap.String("event_type", evt.EventType()),
				zap.Any("panic", r),
			)
		}
	}()

	return handler.Handle(ctx, evt)
}

var _ shared.EventBus = (*OutboxEventBus)(nil)
