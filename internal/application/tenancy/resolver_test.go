package tenancy

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/nexora/backend/internal/domain/shared"
	"github.com/nexora/backend/internal/domain/tenancy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

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

type mockTenantCache struct {
	mock.Mock
}

func (m *mockTenantCache) Get(ctx context.Context, slug string) (*tenancy.Tenant, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenancy.Tenant), args.Error(1)
}

func (m *mockTenantCache) Set(ctx context.Context, tenant *tenancy.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

func (m *mockTenantCache) Invalidate(ctx context.Context, slug string) error {
	args := m.Called(ctx, slug)
	return args.Error(0)
}

func newTestResolver(repo *mockTenantRepository, cache TenantCache, sharedSecret string) *Resolver {
	return NewResolver(repo, cache, ResolverConfig{
		BaseDomain:   "nexora.test",
		SharedSecret: sharedSecret,
	}, zap.NewNop())
}

func createTestTenant(t *testing.T, slug string, active bool) *tenancy.Tenant {
	t.Helper()
	tenant, err := tenancy.NewTenant("Acme Corp", slug, active)
	require.NoError(t, err)
	return tenant
}

func TestResolver_Resolve_Subdomain(t *testing.T) {
	t.Run("resolves an active tenant by subdomain", func(t *testing.T) {
		repo := new(mockTenantRepository)
		tenant := createTestTenant(t, "acme", true)
		repo.On("FindBySlug", mock.Anything, "acme").Return(tenant, nil)

		resolver := newTestResolver(repo, nil, "")
		result, err := resolver.Resolve(context.Background(), ResolveInput{Host: "acme.nexora.test"})

		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, tenant, result.Tenant)
		assert.Equal(t, StrategySubdomain, result.Strategy)
	})

	t.Run("strips the port before extracting the slug", func(t *testing.T) {
		repo := new(mockTenantRepository)
		tenant := createTestTenant(t, "acme", true)
		repo.On("FindBySlug", mock.Anything, "acme").Return(tenant, nil)

		resolver := newTestResolver(repo, nil, "")
		result, err := resolver.Resolve(context.Background(), ResolveInput{Host: "acme.nexora.test:8080"})

		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, "acme", result.Tenant.Slug)
	})

	t.Run("unknown slug fails closed", func(t *testing.T) {
		repo := new(mockTenantRepository)
		repo.On("FindBySlug", mock.Anything, "ghost").Return(nil, shared.ErrNotFound)

		resolver := newTestResolver(repo, nil, "")
		result, err := resolver.Resolve(context.Background(), ResolveInput{Host: "ghost.nexora.test"})

		assert.ErrorIs(t, err, shared.ErrTenantNotFound)
		assert.Nil(t, result)
	})

	t.Run("inactive tenant is rejected", func(t *testing.T) {
		repo := new(mockTenantRepository)
		tenant := createTestTenant(t, "acme", false)
		repo.On("FindBySlug", mock.Anything, "acme").Return(tenant, nil)

		resolver := newTestResolver(repo, nil, "")
		result, err := resolver.Resolve(context.Background(), ResolveInput{Host: "acme.nexora.test"})

		assert.ErrorIs(t, err, shared.ErrTenantInactive)
		assert.Nil(t, result)
	})

	t.Run("hosts without a tenant subdomain carry no signal", func(t *testing.T) {
		hosts := []string{"nexora.test", "www.nexora.test", "a.b.nexora.test", "other.example.com"}
		for _, host := range hosts {
			t.Run(host, func(t *testing.T) {
				repo := new(mockTenantRepository)

				resolver := newTestResolver(repo, nil, "")
				result, err := resolver.Resolve(context.Background(), ResolveInput{Host: host})

				assert.NoError(t, err)
				assert.Nil(t, result)
				repo.AssertNotCalled(t, "FindBySlug", mock.Anything, mock.Anything)
			})
		}
	})

	t.Run("subdomain wins over the signed header", func(t *testing.T) {
		repo := new(mockTenantRepository)
		tenant := createTestTenant(t, "acme", true)
		other := createTestTenant(t, "globex", true)
		repo.On("FindBySlug", mock.Anything, "acme").Return(tenant, nil)

		resolver := newTestResolver(repo, nil, "test-secret")
		result, err := resolver.Resolve(context.Background(), ResolveInput{
			Host:            "acme.nexora.test",
			TenantIDHeader:  other.ID.String(),
			SignatureHeader: SignTenantID("test-secret", other.ID.String()),
		})

		require.NoError(t, err)
		assert.Equal(t, StrategySubdomain, result.Strategy)
		assert.Equal(t, "acme", result.Tenant.Slug)
		repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})
}

func TestResolver_Resolve_Cache(t *testing.T) {
	t.Run("cache hit skips the repository", func(t *testing.T) {
		repo := new(mockTenantRepository)
		cache := new(mockTenantCache)
		tenant := createTestTenant(t, "acme", true)
		cache.On("Get", mock.Anything, "acme").Return(tenant, nil)

		resolver := newTestResolver(repo, cache, "")
		result, err := resolver.Resolve(context.Background(), ResolveInput{Host: "acme.nexora.test"})

		require.NoError(t, err)
		assert.Equal(t, tenant, result.Tenant)
		repo.AssertNotCalled(t, "FindBySlug", mock.Anything, mock.Anything)
	})

	t.Run("cache miss populates the cache", func(t *testing.T) {
		repo := new(mockTenantRepository)
		cache := new(mockTenantCache)
		tenant := createTestTenant(t, "acme", true)
		cache.On("Get", mock.Anything, "acme").Return(nil, nil)
		cache.On("Set", mock.Anything, tenant).Return(nil)
		repo.On("FindBySlug", mock.Anything, "acme").Return(tenant, nil)

		resolver := newTestResolver(repo, cache, "")
		_, err := resolver.Resolve(context.Background(), ResolveInput{Host: "acme.nexora.test"})

		require.NoError(t, err)
		cache.AssertExpectations(t)
	})

	t.Run("cache errors degrade to a miss", func(t *testing.T) {
		repo := new(mockTenantRepository)
		cache := new(mockTenantCache)
		tenant := createTestTenant(t, "acme", true)
		cache.On("Get", mock.Anything, "acme").Return(nil, assert.AnError)
		cache.On("Set", mock.Anything, tenant).Return(nil)
		repo.On("FindBySlug", mock.Anything, "acme").Return(tenant, nil)

		resolver := newTestResolver(repo, cache, "")
		result, err := resolver.Resolve(context.Background(), ResolveInput{Host: "acme.nexora.test"})

		require.NoError(t, err)
		assert.Equal(t, tenant, result.Tenant)
	})
}

func TestResolver_Resolve_SignedHeader(t *testing.T) {
	t.Run("resolves a correctly signed tenant ID", func(t *testing.T) {
		repo := new(mockTenantRepository)
		tenant := createTestTenant(t, "acme", true)
		repo.On("FindByID", mock.Anything, tenant.ID).Return(tenant, nil)

		resolver := newTestResolver(repo, nil, "test-secret")
		result, err := resolver.Resolve(context.Background(), ResolveInput{
			Host:            "nexora.test",
			TenantIDHeader:  tenant.ID.String(),
			SignatureHeader: SignTenantID("test-secret", tenant.ID.String()),
		})

		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, tenant, result.Tenant)
		assert.Equal(t, StrategyHeader, result.Strategy)
	})

	t.Run("rejects a signature from the wrong secret", func(t *testing.T) {
		repo := new(mockTenantRepository)
		tenantID := uuid.New().String()

		resolver := newTestResolver(repo, nil, "test-secret")
		result, err := resolver.Resolve(context.Background(), ResolveInput{
			Host:            "nexora.test",
			TenantIDHeader:  tenantID,
			SignatureHeader: SignTenantID("other-secret", tenantID),
		})

		assert.ErrorIs(t, err, shared.ErrInvalidTenantSignature)
		assert.Nil(t, result)
		repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("rejects a signature over a different tenant ID", func(t *testing.T) {
		repo := new(mockTenantRepository)

		resolver := newTestResolver(repo, nil, "test-secret")
		_, err := resolver.Resolve(context.Background(), ResolveInput{
			Host:            "nexora.test",
			TenantIDHeader:  uuid.New().String(),
			SignatureHeader: SignTenantID("test-secret", uuid.New().String()),
		})

		assert.ErrorIs(t, err, shared.ErrInvalidTenantSignature)
		repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("rejects a missing signature", func(t *testing.T) {
		repo := new(mockTenantRepository)

		resolver := newTestResolver(repo, nil, "test-secret")
		_, err := resolver.Resolve(context.Background(), ResolveInput{
			Host:           "nexora.test",
			TenantIDHeader: uuid.New().String(),
		})

		assert.ErrorIs(t, err, shared.ErrInvalidTenantSignature)
		repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("rejects the header strategy when no secret is configured", func(t *testing.T) {
		repo := new(mockTenantRepository)
		tenantID := uuid.New().String()

		resolver := newTestResolver(repo, nil, "")
		_, err := resolver.Resolve(context.Background(), ResolveInput{
			Host:            "nexora.test",
			TenantIDHeader:  tenantID,
			SignatureHeader: SignTenantID("test-secret", tenantID),
		})

		assert.ErrorIs(t, err, shared.ErrInvalidTenantSignature)
	})

	t.Run("valid signature over an unknown tenant fails closed", func(t *testing.T) {
		repo := new(mockTenantRepository)
		tenantID := uuid.New()
		repo.On("FindByID", mock.Anything, tenantID).Return(nil, shared.ErrNotFound)

		resolver := newTestResolver(repo, nil, "test-secret")
		_, err := resolver.Resolve(context.Background(), ResolveInput{
			Host:            "nexora.test",
			TenantIDHeader:  tenantID.String(),
			SignatureHeader: SignTenantID("test-secret", tenantID.String()),
		})

		assert.ErrorIs(t, err, shared.ErrTenantNotFound)
	})
}

func TestResolver_Resolve_NoSignals(t *testing.T) {
	repo := new(mockTenantRepository)

	resolver := newTestResolver(repo, nil, "test-secret")
	result, err := resolver.Resolve(context.Background(), ResolveInput{Host: "nexora.test"})

	assert.NoError(t, err)
	assert.Nil(t, result)
}
