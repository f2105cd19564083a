package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/nexora/backend/internal/domain/shared"
)

// SeatSnapshot is an immutable record of a tenant's seat count at a point in
// time, appended whenever a membership is created or removed. Billing charges
// for the maximum concurrent seats used in a period, so the ledger must keep
// every observation, including a drop to zero.
type SeatSnapshot struct {
	shared.BaseEntity
	TenantID   uuid.UUID
	SeatCount  int64
	RecordedAt time.Time
}

// NewSeatSnapshot creates a snapshot of the seat count after a membership
// change.
func NewSeatSnapshot(tenantID uuid.UUID, seatCount int64) (*SeatSnapshot, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if seatCount < 0 {
		return nil, shared.NewDomainError("INVALID_SEAT_COUNT", "Seat count cannot be negative")
	}

	return &SeatSnapshot{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		SeatCount:  seatCount,
		RecordedAt: time.Now(),
	}, nil
}
