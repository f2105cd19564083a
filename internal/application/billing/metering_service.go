package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nexora/backend/internal/domain/billing"
	"github.com/nexora/backend/internal/domain/shared"
	"github.com/nexora/backend/internal/domain/tenancy"
	"go.uber.org/zap"
)

// reportTimeout bounds the background usage report spawned after an append.
const reportTimeout = 30 * time.Second

// MeteringService tracks seat and usage consumption per tenant. Both meters
// are computed by windowing immutable ledgers over the active billing
// period rather than resetting counters, so historic periods stay auditable.
type MeteringService struct {
	subscriptionRepo billing.SubscriptionRepository
	usageRepo        billing.UsageRecordRepository
	seatRepo         billing.SeatSnapshotRepository
	membershipRepo   tenancy.MembershipRepository
	reporter         *UsageReporter
	logger           *zap.Logger
}

// NewMeteringService creates a metering service. The reporter may be nil
// when external reporting is not wired up.
func NewMeteringService(
	subscriptionRepo billing.SubscriptionRepository,
	usageRepo billing.UsageRecordRepository,
	seatRepo billing.SeatSnapshotRepository,
	membershipRepo tenancy.MembershipRepository,
	reporter *UsageReporter,
	logger *zap.Logger,
) *MeteringService {
	return &MeteringService{
		subscriptionRepo: subscriptionRepo,
		usageRepo:        usageRepo,
		seatRepo:         seatRepo,
		membershipRepo:   membershipRepo,
		reporter:         reporter,
		logger:           logger,
	}
}

// RecordUsage appends a usage event to the ledger and schedules a
// best-effort report of the new period total to the billing provider. The
// append is durable before the report is scheduled; a failed report never
// rolls back the append.
func (s *MeteringService) RecordUsage(ctx context.Context, tenantID uuid.UUID, usageType billing.UsageType, quantity int64) (*billing.UsageRecord, error) {
	record, err := billing.NewUsageRecord(tenantID, usageType, quantity)
	if err != nil {
		return nil, err
	}
	if err := s.usageRepo.Append(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Debug("Usage recorded",
		zap.String("tenant_id", tenantID.String()),
		zap.String("usage_type", string(usageType)),
		zap.Int64("quantity", quantity))

	if s.reporter != nil {
		go func() {
			reportCtx, cancel := context.WithTimeout(context.Background(), reportTimeout)
			defer cancel()
			if err := s.ReportUsage(reportCtx, tenantID); err != nil {
				s.logger.Warn("Background usage report failed",
					zap.String("tenant_id", tenantID.String()),
					zap.Error(err))
			}
		}()
	}

	return record, nil
}

// CurrentPeriodUsage sums the usage ledger over the current billing period.
// Without a subscription the window is a fixed one-month lookback.
func (s *MeteringService) CurrentPeriodUsage(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	since := s.usageWindowStart(ctx, tenantID)
	return s.usageRepo.SumSince(ctx, tenantID, since)
}

// RemainingQuota returns how much of the subscription's usage quota is
// left this period, floored at zero.
func (s *MeteringService) RemainingQuota(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	sub, err := s.subscriptionRepo.FindByTenantID(ctx, tenantID)
	if err != nil {
		return 0, shared.ErrNotFound
	}
	used, err := s.CurrentPeriodUsage(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	remaining := sub.UsageQuota - used
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// IsOverQuota reports whether the tenant has consumed more than its quota
// this period.
func (s *MeteringService) IsOverQuota(ctx context.Context, tenantID uuid.UUID) (bool, error) {
	sub, err := s.subscriptionRepo.FindByTenantID(ctx, tenantID)
	if err != nil {
		return false, shared.ErrNotFound
	}
	used, err := s.CurrentPeriodUsage(ctx, tenantID)
	if err != nil {
		return false, err
	}
	return used > sub.UsageQuota, nil
}

// CurrentSeatCount returns the live membership count for the tenant.
func (s *MeteringService) CurrentSeatCount(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return s.membershipRepo.CountByTenant(ctx, tenantID)
}

// PeakSeatCount returns the highest seat count snapshotted during the
// current billing period. A tenant that briefly over-provisioned seats
// mid-period still owes for the peak. Falls back to the live count when no
// snapshot landed in the window.
func (s *MeteringService) PeakSeatCount(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	sub, err := s.subscriptionRepo.FindByTenantID(ctx, tenantID)
	if err == nil && sub != nil {
		if start, ok := sub.PeriodStart(); ok {
			peak, found, err := s.seatRepo.MaxSince(ctx, tenantID, start)
			if err != nil {
				return 0, err
			}
			if found {
				return peak, nil
			}
		}
	}
	return s.CurrentSeatCount(ctx, tenantID)
}

// ReportSeats pushes the current period's peak seat count to the billing
// provider as an absolute quantity. No-op when the subscription is not
// active or the seat price is not synced.
func (s *MeteringService) ReportSeats(ctx context.Context, tenantID uuid.UUID) error {
	if s.reporter == nil {
		return nil
	}
	peak, err := s.PeakSeatCount(ctx, tenantID)
	if err != nil {
		return err
	}
	return s.reporter.ReportSeats(ctx, tenantID, peak)
}

// ReportUsage pushes the current period's usage total to the billing
// provider as an absolute quantity. No-op when the subscription is not
// active or the usage price is not synced.
func (s *MeteringService) ReportUsage(ctx context.Context, tenantID uuid.UUID) error {
	if s.reporter == nil {
		return nil
	}
	total, err := s.CurrentPeriodUsage(ctx, tenantID)
	if err != nil {
		return err
	}
	return s.reporter.ReportUsage(ctx, tenantID, total)
}

// usageWindowStart resolves the start of the usage window: one month back
// from the subscription's period end when one is known, else one month back
// from now. Usage meters monthly even on annual subscriptions; only the
// seat meter spans the full billing interval.
func (s *MeteringService) usageWindowStart(ctx context.Context, tenantID uuid.UUID) time.Time {
	sub, err := s.subscriptionRepo.FindByTenantID(ctx, tenantID)
	if err == nil && sub != nil && sub.CurrentPeriodEnd != nil {
		return sub.CurrentPeriodEnd.AddDate(0, -1, 0)
	}
	return time.Now().UTC().AddDate(0, -1, 0)
}
