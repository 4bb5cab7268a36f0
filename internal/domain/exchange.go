package domain

import (
	"time"
)

// Exchange is the usage-ledger record of one relay round trip.
// It carries metadata only; message content is never stored.
type Exchange struct {
	RequestID    string
	Model        string
	MessageCount int
	Status       int
	Latency      time.Duration
	CreatedAt    time.Time
}

// Succeeded returns true if the relay answered with a 2xx status.
func (e *Exchange) Succeeded() bool {
	return e.Status >= 200 && e.Status < 300
}

// UsageSummary aggregates exchanges over a time window.
type UsageSummary struct {
	Since        time.Time `json:"since"`
	Total        int64     `json:"total"`
	Succeeded    int64     `json:"succeeded"`
	Failed       int64     `json:"failed"`
	AvgLatencyMs int64     `json:"avg_latency_ms"`
	LastStatus   int       `json:"last_status,omitempty"`
}
