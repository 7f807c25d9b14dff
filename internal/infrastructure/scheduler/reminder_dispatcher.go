// Package scheduler hosts the background workers: reminder dispatch and
// agent log retention.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/astralisone/platform/internal/domain/scheduling"
	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/astralisone/platform/internal/infrastructure/config"
)

// ReminderNotifier delivers a due reminder over the outbound channel.
type ReminderNotifier interface {
	Notify(ctx context.Context, reminder *scheduling.EventReminder, event *scheduling.SchedulingEvent) error
}

// LogNotifier writes reminders to the application log. It stands in until an
// email or push channel is configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, reminder *scheduling.EventReminder, event *scheduling.SchedulingEvent) error {
	n.logger.Info("event reminder",
		zap.String("org_id", reminder.OrgID.String()),
		zap.String("event_id", reminder.EventID.String()),
		zap.String("event_title", event.Title),
		zap.Time("event_start", event.StartAt),
		zap.Duration("offset", reminder.Offset),
	)
	return nil
}

var _ ReminderNotifier = (*LogNotifier)(nil)

const (
	defaultPollInterval  = 30 * time.Second
	defaultBatchSize     = 100
	defaultMaxConcurrent = 4
	defaultDedupTTL      = 24 * time.Hour
)

// ReminderDispatcher polls for due reminders and hands them to the notifier.
// A dedup store fences concurrent instances so each reminder is delivered
// at most once per TTL window.
type ReminderDispatcher struct {
	cfg       config.ReminderConfig
	reminders scheduling.ReminderRepository
	events    scheduling.EventRepository
	dedup     shared.DedupStore
	notifier  ReminderNotifier
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

func NewReminderDispatcher(
	cfg config.ReminderConfig,
	reminders scheduling.ReminderRepository,
	events scheduling.EventRepository,
	dedup shared.DedupStore,
	notifier ReminderNotifier,
	logger *zap.Logger,
) *ReminderDispatcher {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = defaultMaxConcurrent
	}
	if cfg.DedupTTL <= 0 {
		cfg.DedupTTL = defaultDedupTTL
	}

	return &ReminderDispatcher{
		cfg:       cfg,
		reminders: reminders,
		events:    events,
		dedup:     dedup,
		notifier:  notifier,
		logger:    logger,
	}
}

// Start begins the poll loop. Calling Start on a running dispatcher is a
// no-op.
func (d *ReminderDispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.isRunning {
		d.mu.Unlock()
		return nil
	}
	d.isRunning = true
	d.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.wg.Add(1)
	go d.pollLoop(ctx)

	d.logger.Info("reminder dispatcher started",
		zap.Duration("poll_interval", d.cfg.PollInterval),
		zap.Int("batch_size", d.cfg.BatchSize),
		zap.Int("max_concurrent", d.cfg.MaxConcurrent),
	)
	return nil
}

// Stop cancels the poll loop and waits for in-flight dispatches, bounded by
// the caller's context.
func (d *ReminderDispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.isRunning {
		d.mu.Unlock()
		return nil
	}
	d.isRunning = false
	d.mu.Unlock()

	if d.cancel != nil {
		d.cancel()
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("reminder dispatcher stopped")
		return nil
	case <-ctx.Done():
		d.logger.Warn("reminder dispatcher stop timed out")
		return ctx.Err()
	}
}

func (d *ReminderDispatcher) pollLoop(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.DispatchDue(ctx); err != nil {
				d.logger.Error("reminder dispatch cycle failed", zap.Error(err))
			}
		}
	}
}

// DispatchDue runs one dispatch cycle: load due reminders and deliver them
// with bounded concurrency. Exported so a cycle can be triggered manually.
func (d *ReminderDispatcher) DispatchDue(ctx context.Context) error {
	due, err := d.reminders.FindDue(ctx, time.Now().UTC(), d.cfg.BatchSize)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}

	d.logger.Debug("dispatching due reminders", zap.Int("count", len(due)))

	sem := make(chan struct{}, d.cfg.MaxConcurrent)
	var wg sync.WaitGroup
	for i := range due {
		reminder := &due[i]

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			d.dispatchOne(ctx, reminder)
		}()
	}
	wg.Wait()
	return nil
}

func (d *ReminderDispatcher) dispatchOne(ctx context.Context, reminder *scheduling.EventReminder) {
	claimed, err := d.dedup.MarkProcessed(ctx, reminder.GetID().String(), d.cfg.DedupTTL)
	if err != nil {
		d.logger.Error("reminder dedup check failed",
			zap.String("reminder_id", reminder.GetID().String()),
			zap.Error(err),
		)
		return
	}
	if !claimed {
		// Another instance already delivered this one.
		return
	}

	event, err := d.events.FindByID(ctx, reminder.OrgID, reminder.EventID)
	if err != nil {
		d.failReminder(ctx, reminder, "event lookup failed: "+err.Error())
		return
	}

	// The event may have been cancelled after the reminder was scheduled.
	if event.Status == scheduling.EventStatusCancelled {
		if err := reminder.Cancel(); err == nil {
			d.saveReminder(ctx, reminder)
		}
		return
	}

	if err := d.notifier.Notify(ctx, reminder, event); err != nil {
		d.failReminder(ctx, reminder, err.Error())
		return
	}

	if err := reminder.MarkSent(time.Now()); err != nil {
		d.logger.Warn("reminder state transition rejected",
			zap.String("reminder_id", reminder.GetID().String()),
			zap.Error(err),
		)
		return
	}
	d.saveReminder(ctx, reminder)
}

func (d *ReminderDispatcher) failReminder(ctx context.Context, reminder *scheduling.EventReminder, reason string) {
	d.logger.Warn("reminder dispatch failed",
		zap.String("reminder_id", reminder.GetID().String()),
		zap.String("event_id", reminder.EventID.String()),
		zap.String("reason", reason),
	)
	if err := reminder.MarkFailed(reason); err != nil {
		return
	}
	d.saveReminder(ctx, reminder)

	// A pending reminder has retry budget left. Give the dedup key back so
	// the next cycle can claim it again instead of waiting out the TTL.
	if reminder.Status == scheduling.ReminderStatusPending {
		if err := d.dedup.Release(ctx, reminder.GetID().String()); err != nil {
			d.logger.Error("failed to release reminder dedup key",
				zap.String("reminder_id", reminder.GetID().String()),
				zap.Error(err),
			)
		}
	}
}

func (d *ReminderDispatcher) saveReminder(ctx context.Context, reminder *scheduling.EventReminder) {
	if err := d.reminders.Save(ctx, reminder); err != nil {
		d.logger.Error("failed to persist reminder state",
			zap.String("reminder_id", reminder.GetID().String()),
			zap.Error(err),
		)
	}
}
