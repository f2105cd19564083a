package tenancy

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nexora/backend/internal/domain/billing"
	"github.com/nexora/backend/internal/domain/shared"
	"github.com/nexora/backend/internal/domain/tenancy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockMembershipRepository struct {
	mock.Mock
}

func (m *mockMembershipRepository) FindByID(ctx context.Context, id uuid.UUID) (*tenancy.TenantMembership, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenancy.TenantMembership), args.Error(1)
}

func (m *mockMembershipRepository) FindByTenantAndUser(ctx context.Context, tenantID, userID uuid.UUID) (*tenancy.TenantMembership, error) {
	args := m.Called(ctx, tenantID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenancy.TenantMembership), args.Error(1)
}

func (m *mockMembershipRepository) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockMembershipRepository) CountByTenantAndRole(ctx context.Context, tenantID, roleID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID, roleID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockMembershipRepository) Save(ctx context.Context, membership *tenancy.TenantMembership) error {
	args := m.Called(ctx, membership)
	return args.Error(0)
}

func (m *mockMembershipRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*tenancy.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenancy.User), args.Error(1)
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*tenancy.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenancy.User), args.Error(1)
}

func (m *mockUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepository) Save(ctx context.Context, user *tenancy.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

type mockRoleRepository struct {
	mock.Mock
}

func (m *mockRoleRepository) FindByID(ctx context.Context, id uuid.UUID) (*tenancy.Role, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenancy.Role), args.Error(1)
}

func (m *mockRoleRepository) FindBySlug(ctx context.Context, slug string) (*tenancy.Role, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenancy.Role), args.Error(1)
}

func (m *mockRoleRepository) Save(ctx context.Context, role *tenancy.Role) error {
	args := m.Called(ctx, role)
	return args.Error(0)
}

type mockSeatSnapshotRepository struct {
	mock.Mock
}

func (m *mockSeatSnapshotRepository) Append(ctx context.Context, snapshot *billing.SeatSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *mockSeatSnapshotRepository) MaxSince(ctx context.Context, tenantID uuid.UUID, since time.Time) (int64, bool, error) {
	args := m.Called(ctx, tenantID, since)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

type fakeTxManager struct{}

func (fakeTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type membershipMocks struct {
	membershipRepo *mockMembershipRepository
	userRepo       *mockUserRepository
	roleRepo       *mockRoleRepository
	seatRepo       *mockSeatSnapshotRepository
}

func newMembershipMocks() *membershipMocks {
	return &membershipMocks{
		membershipRepo: new(mockMembershipRepository),
		userRepo:       new(mockUserRepository),
		roleRepo:       new(mockRoleRepository),
		seatRepo:       new(mockSeatSnapshotRepository),
	}
}

func (m *membershipMocks) service() *MembershipService {
	return NewMembershipService(m.membershipRepo, m.userRepo, m.roleRepo, m.seatRepo, fakeTxManager{}, zap.NewNop())
}

func testRole(t *testing.T, slug string) *tenancy.Role {
	t.Helper()
	role, err := tenancy.NewRole(slug, slug)
	require.NoError(t, err)
	return role
}

func testMembership(t *testing.T, tenantID, userID, roleID uuid.UUID) *tenancy.TenantMembership {
	t.Helper()
	membership, err := tenancy.NewTenantMembership(tenantID, userID, roleID)
	require.NoError(t, err)
	return membership
}

func TestMembershipService_AddMember(t *testing.T) {
	tenantID := uuid.New()
	userID := uuid.New()

	t.Run("creates a membership and records the seat count", func(t *testing.T) {
		m := newMembershipMocks()
		user, err := tenancy.NewProvisionedUser("ada@example.com")
		require.NoError(t, err)
		role := testRole(t, tenancy.RoleSlugMember)

		m.userRepo.On("FindByID", mock.Anything, userID).Return(user, nil)
		m.roleRepo.On("FindBySlug", mock.Anything, tenancy.RoleSlugMember).Return(role, nil)
		m.membershipRepo.On("FindByTenantAndUser", mock.Anything, tenantID, userID).Return(nil, shared.ErrNotFound)
		m.membershipRepo.On("Save", mock.Anything, mock.AnythingOfType("*tenancy.TenantMembership")).Return(nil)
		m.membershipRepo.On("CountByTenant", mock.Anything, tenantID).Return(int64(4), nil)
		m.seatRepo.On("Append", mock.Anything, mock.MatchedBy(func(s *billing.SeatSnapshot) bool {
			return s.TenantID == tenantID && s.SeatCount == 4
		})).Return(nil)

		membership, err := m.service().AddMember(context.Background(), tenantID, userID, tenancy.RoleSlugMember)

		require.NoError(t, err)
		require.NotNil(t, membership)
		assert.Equal(t, role.ID, membership.RoleID)
		m.seatRepo.AssertExpectations(t)
	})

	t.Run("rejects an unknown user", func(t *testing.T) {
		m := newMembershipMocks()
		m.userRepo.On("FindByID", mock.Anything, userID).Return(nil, shared.ErrNotFound)

		_, err := m.service().AddMember(context.Background(), tenantID, userID, tenancy.RoleSlugMember)

		assert.ErrorIs(t, err, shared.ErrNotFound)
		m.membershipRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("rejects an unknown role", func(t *testing.T) {
		m := newMembershipMocks()
		user, err := tenancy.NewProvisionedUser("ada@example.com")
		require.NoError(t, err)

		m.userRepo.On("FindByID", mock.Anything, userID).Return(user, nil)
		m.roleRepo.On("FindBySlug", mock.Anything, "superuser").Return(nil, shared.ErrNotFound)

		_, err = m.service().AddMember(context.Background(), tenantID, userID, "superuser")

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ROLE_NOT_FOUND", domainErr.Code)
	})

	t.Run("rejects a duplicate membership", func(t *testing.T) {
		m := newMembershipMocks()
		user, err := tenancy.NewProvisionedUser("ada@example.com")
		require.NoError(t, err)
		role := testRole(t, tenancy.RoleSlugMember)
		existing := testMembership(t, tenantID, userID, role.ID)

		m.userRepo.On("FindByID", mock.Anything, userID).Return(user, nil)
		m.roleRepo.On("FindBySlug", mock.Anything, tenancy.RoleSlugMember).Return(role, nil)
		m.membershipRepo.On("FindByTenantAndUser", mock.Anything, tenantID, userID).Return(existing, nil)

		_, err = m.service().AddMember(context.Background(), tenantID, userID, tenancy.RoleSlugMember)

		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
		m.membershipRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestMembershipService_RemoveMember(t *testing.T) {
	tenantID := uuid.New()
	userID := uuid.New()

	t.Run("removes a member and records the seat count", func(t *testing.T) {
		m := newMembershipMocks()
		role := testRole(t, tenancy.RoleSlugMember)
		membership := testMembership(t, tenantID, userID, role.ID)

		m.membershipRepo.On("FindByTenantAndUser", mock.Anything, tenantID, userID).Return(membership, nil)
		m.roleRepo.On("FindByID", mock.Anything, role.ID).Return(role, nil)
		m.membershipRepo.On("Delete", mock.Anything, membership.ID).Return(nil)
		m.membershipRepo.On("CountByTenant", mock.Anything, tenantID).Return(int64(3), nil)
		m.seatRepo.On("Append", mock.Anything, mock.MatchedBy(func(s *billing.SeatSnapshot) bool {
			return s.SeatCount == 3
		})).Return(nil)

		err := m.service().RemoveMember(context.Background(), tenantID, userID)

		require.NoError(t, err)
		m.membershipRepo.AssertExpectations(t)
		m.seatRepo.AssertExpectations(t)
	})

	t.Run("refuses to remove the last owner", func(t *testing.T) {
		m := newMembershipMocks()
		owner := testRole(t, tenancy.RoleSlugOwner)
		membership := testMembership(t, tenantID, userID, owner.ID)

		m.membershipRepo.On("FindByTenantAndUser", mock.Anything, tenantID, userID).Return(membership, nil)
		m.roleRepo.On("FindByID", mock.Anything, owner.ID).Return(owner, nil)
		m.membershipRepo.On("CountByTenantAndRole", mock.Anything, tenantID, owner.ID).Return(int64(1), nil)

		err := m.service().RemoveMember(context.Background(), tenantID, userID)

		assert.ErrorIs(t, err, shared.ErrLastOwner)
		m.membershipRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("removes an owner when another owner remains", func(t *testing.T) {
		m := newMembershipMocks()
		owner := testRole(t, tenancy.RoleSlugOwner)
		membership := testMembership(t, tenantID, userID, owner.ID)

		m.membershipRepo.On("FindByTenantAndUser", mock.Anything, tenantID, userID).Return(membership, nil)
		m.roleRepo.On("FindByID", mock.Anything, owner.ID).Return(owner, nil)
		m.membershipRepo.On("CountByTenantAndRole", mock.Anything, tenantID, owner.ID).Return(int64(2), nil)
		m.membershipRepo.On("Delete", mock.Anything, membership.ID).Return(nil)
		m.membershipRepo.On("CountByTenant", mock.Anything, tenantID).Return(int64(5), nil)
		m.seatRepo.On("Append", mock.Anything, mock.Anything).Return(nil)

		err := m.service().RemoveMember(context.Background(), tenantID, userID)

		assert.NoError(t, err)
	})

	t.Run("unknown membership fails", func(t *testing.T) {
		m := newMembershipMocks()
		m.membershipRepo.On("FindByTenantAndUser", mock.Anything, tenantID, userID).Return(nil, shared.ErrNotFound)

		err := m.service().RemoveMember(context.Background(), tenantID, userID)

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestMembershipService_ChangeRole(t *testing.T) {
	tenantID := uuid.New()
	userID := uuid.New()

	t.Run("reassigns the role without a seat snapshot", func(t *testing.T) {
		m := newMembershipMocks()
		member := testRole(t, tenancy.RoleSlugMember)
		admin := testRole(t, tenancy.RoleSlugAdmin)
		membership := testMembership(t, tenantID, userID, member.ID)

		m.membershipRepo.On("FindByTenantAndUser", mock.Anything, tenantID, userID).Return(membership, nil)
		m.roleRepo.On("FindBySlug", mock.Anything, tenancy.RoleSlugAdmin).Return(admin, nil)
		m.roleRepo.On("FindByID", mock.Anything, member.ID).Return(member, nil)
		m.membershipRepo.On("Save", mock.Anything, membership).Return(nil)

		err := m.service().ChangeRole(context.Background(), tenantID, userID, tenancy.RoleSlugAdmin)

		require.NoError(t, err)
		assert.Equal(t, admin.ID, membership.RoleID)
		m.seatRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("same role is a no-op", func(t *testing.T) {
		m := newMembershipMocks()
		member := testRole(t, tenancy.RoleSlugMember)
		membership := testMembership(t, tenantID, userID, member.ID)

		m.membershipRepo.On("FindByTenantAndUser", mock.Anything, tenantID, userID).Return(membership, nil)
		m.roleRepo.On("FindBySlug", mock.Anything, tenancy.RoleSlugMember).Return(member, nil)

		err := m.service().ChangeRole(context.Background(), tenantID, userID, tenancy.RoleSlugMember)

		require.NoError(t, err)
		m.membershipRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("refuses to demote the sole owner", func(t *testing.T) {
		m := newMembershipMocks()
		owner := testRole(t, tenancy.RoleSlugOwner)
		member := testRole(t, tenancy.RoleSlugMember)
		membership := testMembership(t, tenantID, userID, owner.ID)

		m.membershipRepo.On("FindByTenantAndUser", mock.Anything, tenantID, userID).Return(membership, nil)
		m.roleRepo.On("FindBySlug", mock.Anything, tenancy.RoleSlugMember).Return(member, nil)
		m.roleRepo.On("FindByID", mock.Anything, owner.ID).Return(owner, nil)
		m.membershipRepo.On("CountByTenantAndRole", mock.Anything, tenantID, owner.ID).Return(int64(1), nil)

		err := m.service().ChangeRole(context.Background(), tenantID, userID, tenancy.RoleSlugMember)

		assert.ErrorIs(t, err, shared.ErrLastOwner)
		assert.Equal(t, owner.ID, membership.RoleID)
	})
}

func TestMembershipService_SeatCount(t *testing.T) {
	m := newMembershipMocks()
	tenantID := uuid.New()
	m.membershipRepo.On("CountByTenant", mock.Anything, tenantID).Return(int64(7), nil)

	count, err := m.service().SeatCount(context.Background(), tenantID)

	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
}
