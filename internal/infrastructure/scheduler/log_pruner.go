package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/astralisone/platform/internal/domain/agent"
)

const (
	defaultPruneInterval = 1 * time.Hour
	defaultLogRetention  = 30 * 24 * time.Hour
)

// LogPruner deletes agent log rows older than the retention window.
type LogPruner struct {
	logs      agent.LogRepository
	retention time.Duration
	interval  time.Duration
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

func NewLogPruner(logs agent.LogRepository, retention time.Duration, logger *zap.Logger) *LogPruner {
	if retention <= 0 {
		retention = defaultLogRetention
	}
	return &LogPruner{
		logs:      logs,
		retention: retention,
		interval:  defaultPruneInterval,
		logger:    logger,
	}
}

func (p *LogPruner) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.isRunning {
		p.mu.Unlock()
		return nil
	}
	p.isRunning = true
	p.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.loop(ctx)

	p.logger.Info("agent log pruner started",
		zap.Duration("retention", p.retention),
		zap.Duration("interval", p.interval),
	)
	return nil
}

func (p *LogPruner) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.isRunning {
		p.mu.Unlock()
		return nil
	}
	p.isRunning = false
	p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("agent log pruner stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *LogPruner) loop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.PruneOnce(ctx); err != nil {
				p.logger.Error("agent log prune failed", zap.Error(err))
			}
		}
	}
}

// PruneOnce deletes everything older than the retention cutoff.
func (p *LogPruner) PruneOnce(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-p.retention)
	deleted, err := p.logs.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	if deleted > 0 {
		p.logger.Info("pruned agent logs",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff),
		)
	}
	return nil
}
