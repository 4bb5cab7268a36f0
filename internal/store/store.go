// Package store provides the relay usage ledger.
package store

import (
	"context"
	"time"

	"github.com/ashureev/consolebot/internal/domain"
)

// Repository defines the interface for persisting relay usage metadata.
// Message content is never stored.
type Repository interface {
	// RecordExchange stores one relay round trip.
	RecordExchange(ctx context.Context, ex *domain.Exchange) error

	// UsageSummary aggregates exchanges created at or after since.
	UsageSummary(ctx context.Context, since time.Time) (*domain.UsageSummary, error)

	// CleanupExchanges removes exchanges older than ttl.
	CleanupExchanges(ctx context.Context, ttl time.Duration) (int64, error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
