package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-mailroom/internal/config"
	"github.com/spec-kit/ticket-mailroom/internal/mailbox"
	"github.com/spec-kit/ticket-mailroom/internal/observability"
)

// PollRunner runs one mailbox poll cycle.
type PollRunner interface {
	Poll(ctx context.Context) (int, error)
}

// RunMailboxPoller polls the support mailbox on a fixed interval until ctx
// is cancelled. Each cycle gets its own deadline; a failed cycle is logged
// and the next tick retries from scratch.
func RunMailboxPoller(ctx context.Context, poller PollRunner, cfg config.MailboxConfig, metrics *observability.Metrics, logger *zap.Logger) {
	if !cfg.Enabled() {
		logger.Info("mailbox polling disabled; no account configured")
		return
	}

	ticker := time.NewTicker(cfg.PollInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		cycleCtx, cancel := context.WithTimeout(ctx, cfg.PollTimeout())
		processed, err := poller.Poll(cycleCtx)
		cancel()

		if err != nil {
			if errors.Is(err, mailbox.ErrNotConfigured) {
				return
			}
			logger.Error("mailbox poll cycle failed", zap.Error(err))
			continue
		}
		metrics.RecordPollCycle(processed)
		if processed > 0 {
			logger.Info("mailbox poll cycle complete", zap.Int("processed", processed))
		}
	}
}
