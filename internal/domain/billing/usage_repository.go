package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UsageRecordRepository persists the append-only usage ledger.
type UsageRecordRepository interface {
	Append(ctx context.Context, record *UsageRecord) error
	// SumSince returns the total recorded quantity for a tenant with
	// recorded_at at or after the given time.
	SumSince(ctx context.Context, tenantID uuid.UUID, since time.Time) (int64, error)
}

// SeatSnapshotRepository persists the append-only seat count ledger.
type SeatSnapshotRepository interface {
	Append(ctx context.Context, snapshot *SeatSnapshot) error
	// MaxSince returns the highest snapshot seat count for a tenant with
	// recorded_at at or after the given time, and whether any snapshot
	// existed in the window.
	MaxSince(ctx context.Context, tenantID uuid.UUID, since time.Time) (int64, bool, error)
}
