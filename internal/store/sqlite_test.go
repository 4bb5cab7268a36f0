package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ashureev/consolebot/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "nested", "usage.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStorePing(t *testing.T) {
	s := newTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestSQLiteStoreUsageSummary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	records := []domain.Exchange{
		{RequestID: "old", Model: "m", MessageCount: 1, Status: 200, Latency: time.Second, CreatedAt: now.Add(-48 * time.Hour)},
		{RequestID: "a", Model: "m", MessageCount: 2, Status: 200, Latency: 100 * time.Millisecond, CreatedAt: now.Add(-2 * time.Minute)},
		{RequestID: "b", Model: "m", MessageCount: 4, Status: 200, Latency: 300 * time.Millisecond, CreatedAt: now.Add(-time.Minute)},
		{RequestID: "c", Model: "m", MessageCount: 6, Status: 429, Latency: 200 * time.Millisecond, CreatedAt: now},
	}
	for i := range records {
		if err := s.RecordExchange(ctx, &records[i]); err != nil {
			t.Fatalf("RecordExchange(%s) failed: %v", records[i].RequestID, err)
		}
	}

	summary, err := s.UsageSummary(ctx, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("UsageSummary failed: %v", err)
	}
	if summary.Total != 3 {
		t.Errorf("expected 3 exchanges in window, got %d", summary.Total)
	}
	if summary.Succeeded != 2 || summary.Failed != 1 {
		t.Errorf("expected 2 succeeded / 1 failed, got %d / %d", summary.Succeeded, summary.Failed)
	}
	if summary.AvgLatencyMs != 200 {
		t.Errorf("expected avg latency 200ms, got %d", summary.AvgLatencyMs)
	}
	if summary.LastStatus != 429 {
		t.Errorf("expected last status 429, got %d", summary.LastStatus)
	}
}

func TestSQLiteStoreUsageSummaryEmpty(t *testing.T) {
	s := newTestStore(t)

	summary, err := s.UsageSummary(context.Background(), time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("UsageSummary failed: %v", err)
	}
	if summary.Total != 0 || summary.LastStatus != 0 {
		t.Errorf("expected empty summary, got %+v", summary)
	}
}

func TestSQLiteStoreCleanupExchanges(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	for _, created := range []time.Time{now.Add(-72 * time.Hour), now.Add(-25 * time.Hour), now} {
		if err := s.RecordExchange(ctx, &domain.Exchange{RequestID: "r", Model: "m", Status: 200, CreatedAt: created}); err != nil {
			t.Fatalf("RecordExchange failed: %v", err)
		}
	}

	deleted, err := s.CleanupExchanges(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("CleanupExchanges failed: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 rows deleted, got %d", deleted)
	}

	summary, err := s.UsageSummary(ctx, time.Time{})
	if err != nil {
		t.Fatalf("UsageSummary failed: %v", err)
	}
	if summary.Total != 1 {
		t.Fatalf("expected 1 remaining exchange, got %d", summary.Total)
	}
}
