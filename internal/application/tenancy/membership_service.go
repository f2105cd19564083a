package tenancy

import (
	"context"

	"github.com/google/uuid"
	"github.com/nexora/backend/internal/domain/billing"
	"github.com/nexora/backend/internal/domain/shared"
	"github.com/nexora/backend/internal/domain/tenancy"
	"go.uber.org/zap"
)

// MembershipService manages tenant memberships. Every membership creation
// or removal appends a seat snapshot with the count after the change, in
// the same transaction as the mutation, so peak-seat billing always sees
// the true high-water mark.
type MembershipService struct {
	membershipRepo tenancy.MembershipRepository
	userRepo       tenancy.UserRepository
	roleRepo       tenancy.RoleRepository
	seatRepo       billing.SeatSnapshotRepository
	txManager      shared.TransactionManager
	logger         *zap.Logger
}

// NewMembershipService creates a membership service.
func NewMembershipService(
	membershipRepo tenancy.MembershipRepository,
	userRepo tenancy.UserRepository,
	roleRepo tenancy.RoleRepository,
	seatRepo billing.SeatSnapshotRepository,
	txManager shared.TransactionManager,
	logger *zap.Logger,
) *MembershipService {
	return &MembershipService{
		membershipRepo: membershipRepo,
		userRepo:       userRepo,
		roleRepo:       roleRepo,
		seatRepo:       seatRepo,
		txManager:      txManager,
		logger:         logger,
	}
}

// AddMember creates a membership for an existing user with the given role
// and records the resulting seat count.
func (s *MembershipService) AddMember(ctx context.Context, tenantID, userID uuid.UUID, roleSlug string) (*tenancy.TenantMembership, error) {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, shared.ErrNotFound
	}

	role, err := s.roleRepo.FindBySlug(ctx, roleSlug)
	if err != nil {
		return nil, shared.NewDomainError("ROLE_NOT_FOUND", "Role not found: "+roleSlug)
	}

	if existing, err := s.membershipRepo.FindByTenantAndUser(ctx, tenantID, userID); err == nil && existing != nil {
		return nil, shared.ErrAlreadyExists
	}

	membership, err := tenancy.NewTenantMembership(tenantID, userID, role.ID)
	if err != nil {
		return nil, err
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.membershipRepo.Save(txCtx, membership); err != nil {
			return err
		}
		return s.appendSeatSnapshot(txCtx, tenantID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Member added to tenant",
		zap.String("tenant_id", tenantID.String()),
		zap.String("user_id", userID.String()),
		zap.String("role", roleSlug))

	return membership, nil
}

// RemoveMember deletes a membership and records the resulting seat count.
// Removing the tenant's last owner fails with shared.ErrLastOwner.
func (s *MembershipService) RemoveMember(ctx context.Context, tenantID, userID uuid.UUID) error {
	membership, err := s.membershipRepo.FindByTenantAndUser(ctx, tenantID, userID)
	if err != nil {
		return shared.ErrNotFound
	}

	role, err := s.roleRepo.FindByID(ctx, membership.RoleID)
	if err != nil {
		return err
	}
	if role.IsOwner() {
		if err := s.requireAnotherOwner(ctx, tenantID, role.ID); err != nil {
			return err
		}
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.membershipRepo.Delete(txCtx, membership.ID); err != nil {
			return err
		}
		return s.appendSeatSnapshot(txCtx, tenantID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Member removed from tenant",
		zap.String("tenant_id", tenantID.String()),
		zap.String("user_id", userID.String()))

	return nil
}

// ChangeRole reassigns a member's role. Demoting the sole owner fails with
// shared.ErrLastOwner. Role changes do not alter the seat count, so no
// snapshot is appended.
func (s *MembershipService) ChangeRole(ctx context.Context, tenantID, userID uuid.UUID, roleSlug string) error {
	membership, err := s.membershipRepo.FindByTenantAndUser(ctx, tenantID, userID)
	if err != nil {
		return shared.ErrNotFound
	}

	newRole, err := s.roleRepo.FindBySlug(ctx, roleSlug)
	if err != nil {
		return shared.NewDomainError("ROLE_NOT_FOUND", "Role not found: "+roleSlug)
	}
	if newRole.ID == membership.RoleID {
		return nil
	}

	currentRole, err := s.roleRepo.FindByID(ctx, membership.RoleID)
	if err != nil {
		return err
	}
	if currentRole.IsOwner() && !newRole.IsOwner() {
		if err := s.requireAnotherOwner(ctx, tenantID, currentRole.ID); err != nil {
			return err
		}
	}

	membership.RoleID = newRole.ID
	return s.membershipRepo.Save(ctx, membership)
}

// SeatCount returns the tenant's live membership count.
func (s *MembershipService) SeatCount(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return s.membershipRepo.CountByTenant(ctx, tenantID)
}

func (s *MembershipService) requireAnotherOwner(ctx context.Context, tenantID, ownerRoleID uuid.UUID) error {
	owners, err := s.membershipRepo.CountByTenantAndRole(ctx, tenantID, ownerRoleID)
	if err != nil {
		return err
	}
	if owners <= 1 {
		return shared.ErrLastOwner
	}
	return nil
}

func (s *MembershipService) appendSeatSnapshot(ctx context.Context, tenantID uuid.UUID) error {
	count, err := s.membershipRepo.CountByTenant(ctx, tenantID)
	if err != nil {
		return err
	}
	snapshot, err := billing.NewSeatSnapshot(tenantID, count)
	if err != nil {
		return err
	}
	return s.seatRepo.Append(ctx, snapshot)
}
