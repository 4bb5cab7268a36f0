// Package retention prunes expired usage-ledger records in the background.
package retention

import (
	"context"
	"log/slog"
	"time"
)

// Pruner deletes ledger records older than a TTL.
type Pruner interface {
	CleanupExchanges(ctx context.Context, ttl time.Duration) (int64, error)
}

// StartWorker runs a background goroutine that prunes ledger records older
// than ttl every interval until ctx is cancelled. The returned channel is
// closed once the goroutine has exited.
func StartWorker(ctx context.Context, repo Pruner, ttl, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	ticker := time.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		slog.Info("Retention worker started", "interval", interval, "ttl", ttl)

		sweep(ctx, repo, ttl)
		for {
			select {
			case <-ticker.C:
				sweep(ctx, repo, ttl)
			case <-ctx.Done():
				slog.Info("Retention worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
	return done
}

func sweep(ctx context.Context, repo Pruner, ttl time.Duration) {
	deleted, err := repo.CleanupExchanges(ctx, ttl)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Error("Retention worker failed to prune usage records", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("Retention worker pruned usage records", "count", deleted)
	}
}
