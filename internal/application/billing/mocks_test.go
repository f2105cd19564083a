package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nexora/backend/internal/domain/billing"
	"github.com/nexora/backend/internal/domain/tenancy"
	"github.com/stretchr/testify/mock"
)

type mockSubscriptionRepository struct {
	mock.Mock
}

func (m *mockSubscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.TenantSubscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.TenantSubscription), args.Error(1)
}

func (m *mockSubscriptionRepository) FindByTenantID(ctx context.Context, tenantID uuid.UUID) (*billing.TenantSubscription, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.TenantSubscription), args.Error(1)
}

func (m *mockSubscriptionRepository) FindByStripeSubscriptionID(ctx context.Context, stripeSubscriptionID string) (*billing.TenantSubscription, error) {
	args := m.Called(ctx, stripeSubscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.TenantSubscription), args.Error(1)
}

func (m *mockSubscriptionRepository) FindExpiredReadOnly(ctx context.Context, now time.Time) ([]*billing.TenantSubscription, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.TenantSubscription), args.Error(1)
}

func (m *mockSubscriptionRepository) Save(ctx context.Context, subscription *billing.TenantSubscription) error {
	args := m.Called(ctx, subscription)
	return args.Error(0)
}

type mockUsageRecordRepository struct {
	mock.Mock
}

func (m *mockUsageRecordRepository) Append(ctx context.Context, record *billing.UsageRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *mockUsageRecordRepository) SumSince(ctx context.Context, tenantID uuid.UUID, since time.Time) (int64, error) {
	args := m.Called(ctx, tenantID, since)
	return args.Get(0).(int64), args.Error(1)
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

type mockModuleRepository struct {
	mock.Mock
}

func (m *mockModuleRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Module, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Module), args.Error(1)
}

func (m *mockModuleRepository) FindBySlug(ctx context.Context, slug string) (*billing.Module, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Module), args.Error(1)
}

func (m *mockModuleRepository) FindActive(ctx context.Context) ([]*billing.Module, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.Module), args.Error(1)
}

func (m *mockModuleRepository) FindAll(ctx context.Context) ([]*billing.Module, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.Module), args.Error(1)
}

func (m *mockModuleRepository) Save(ctx context.Context, module *billing.Module) error {
	args := m.Called(ctx, module)
	return args.Error(0)
}

type mockAppSettingRepository struct {
	mock.Mock
}

func (m *mockAppSettingRepository) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *mockAppSettingRepository) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

type mockCheckoutSessionRepository struct {
	mock.Mock
}

func (m *mockCheckoutSessionRepository) FindBySessionID(ctx context.Context, sessionID string) (*billing.CheckoutSession, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.CheckoutSession), args.Error(1)
}

func (m *mockCheckoutSessionRepository) Save(ctx context.Context, session *billing.CheckoutSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *mockCheckoutSessionRepository) Delete(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
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

type mockTenantRepository struct {
	mock.Mock
}

func (m *mockTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*tenancy.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenancy.Tenant), args.Error(1)
}

func (m *mockTenantRepository) FindBySlug(ctx context.Context, slug string) (*tenancy.Tenant, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenancy.Tenant), args.Error(1)
}

func (m *mockTenantRepository) FindByStripeCustomerID(ctx context.Context, customerID string) (*tenancy.Tenant, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenancy.Tenant), args.Error(1)
}

func (m *mockTenantRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	args := m.Called(ctx, slug)
	return args.Bool(0), args.Error(1)
}

func (m *mockTenantRepository) Save(ctx context.Context, tenant *tenancy.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

func (m *mockTenantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
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

type mockStripeGateway struct {
	mock.Mock
}

func (m *mockStripeGateway) IsConfigured() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *mockStripeGateway) CreateCustomer(ctx context.Context, name, email string) (string, error) {
	args := m.Called(ctx, name, email)
	return args.String(0), args.Error(1)
}

func (m *mockStripeGateway) CreateCheckoutSession(ctx context.Context, input CheckoutSessionInput) (*ProviderCheckoutSession, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ProviderCheckoutSession), args.Error(1)
}

func (m *mockStripeGateway) GetSubscription(ctx context.Context, subscriptionID string) (*ProviderSubscription, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ProviderSubscription), args.Error(1)
}

func (m *mockStripeGateway) EnsureProduct(ctx context.Context, productID, name, description string) error {
	args := m.Called(ctx, productID, name, description)
	return args.Error(0)
}

func (m *mockStripeGateway) GetPrice(ctx context.Context, priceID string) (*ProviderPrice, error) {
	args := m.Called(ctx, priceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ProviderPrice), args.Error(1)
}

func (m *mockStripeGateway) CreateLicensedPrice(ctx context.Context, input LicensedPriceInput) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}

func (m *mockStripeGateway) CreateTieredPrice(ctx context.Context, input TieredPriceInput) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}

func (m *mockStripeGateway) DeactivatePrice(ctx context.Context, priceID string) error {
	args := m.Called(ctx, priceID)
	return args.Error(0)
}

func (m *mockStripeGateway) FindMeterByEventName(ctx context.Context, eventName string) (string, error) {
	args := m.Called(ctx, eventName)
	return args.String(0), args.Error(1)
}

func (m *mockStripeGateway) CreateMeter(ctx context.Context, eventName, displayName string) (string, error) {
	args := m.Called(ctx, eventName, displayName)
	return args.String(0), args.Error(1)
}

func (m *mockStripeGateway) FindSubscriptionItemByPrice(ctx context.Context, subscriptionID, priceID string) (string, error) {
	args := m.Called(ctx, subscriptionID, priceID)
	return args.String(0), args.Error(1)
}

func (m *mockStripeGateway) SetUsage(ctx context.Context, subscriptionItemID string, quantity int64, at time.Time) error {
	args := m.Called(ctx, subscriptionItemID, quantity, at)
	return args.Error(0)
}

type mockSeatReporter struct {
	mock.Mock
}

func (m *mockSeatReporter) ReportSeats(ctx context.Context, tenantID uuid.UUID) error {
	args := m.Called(ctx, tenantID)
	return args.Error(0)
}

// fakeTxManager runs the unit of work inline without a real transaction.
type fakeTxManager struct{}

func (fakeTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
