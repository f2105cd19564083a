package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/nexora/backend/internal/domain/shared"
)

// UsageType tags a metered consumption event.
type UsageType string

const (
	UsageTypeAPICall       UsageType = "api_call"
	UsageTypeReport        UsageType = "report"
	UsageTypeAutomationRun UsageType = "automation_run"
)

// IsValid reports whether the usage type is non-empty. Usage types are an
// open set; new modules introduce their own tags without touching this
// package.
func (t UsageType) IsValid() bool {
	return t != ""
}

// UsageRecord is a single immutable row in the usage ledger. Records are
// never updated or deleted by normal operation; period consumption is
// computed by windowing the ledger, not by resetting counters.
type UsageRecord struct {
	shared.BaseEntity
	TenantID   uuid.UUID
	UsageType  UsageType
	Quantity   int64
	RecordedAt time.Time
}

// NewUsageRecord creates a usage record with a positive quantity.
func NewUsageRecord(tenantID uuid.UUID, usageType UsageType, quantity int64) (*UsageRecord, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if !usageType.IsValid() {
		return nil, shared.NewDomainError("INVALID_USAGE_TYPE", "Usage type cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	return &UsageRecord{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		UsageType:  usageType,
		Quantity:   quantity,
		RecordedAt: time.Now(),
	}, nil
}
