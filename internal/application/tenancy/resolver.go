package tenancy

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"strings"

	"github.com/google/uuid"
	"github.com/nexora/backend/internal/domain/shared"
	"github.com/nexora/backend/internal/domain/tenancy"
	"go.uber.org/zap"
)

// Resolution strategies, in precedence order.
const (
	StrategySubdomain = "subdomain"
	StrategyHeader    = "header"
)

// Header names for the signed-header resolution strategy.
const (
	HeaderTenantID  = "X-Tenant-ID"
	HeaderSignature = "X-Tenant-Signature"
)

// TenantCache caches resolved tenants keyed by slug to keep tenant lookup
// off the hot path. Implementations must treat a miss as (nil, nil).
type TenantCache interface {
	Get(ctx context.Context, slug string) (*tenancy.Tenant, error)
	Set(ctx context.Context, tenant *tenancy.Tenant) error
	Invalidate(ctx context.Context, slug string) error
}

// ResolveInput carries the request attributes the resolver inspects.
type ResolveInput struct {
	Host            string
	TenantIDHeader  string
	SignatureHeader string
}

// ResolveResult reports which strategy produced the tenant.
type ResolveResult struct {
	Tenant   *tenancy.Tenant
	Strategy string
}

// ResolverConfig contains configuration for tenant resolution.
type ResolverConfig struct {
	// BaseDomain is the apex domain tenants live under, e.g. "nexora.test".
	// Requests to the apex itself carry no subdomain.
	BaseDomain string

	// SharedSecret signs the X-Tenant-ID header for API clients that
	// cannot use subdomains. Empty disables the header strategy.
	SharedSecret string
}

// Resolver maps an incoming request to a tenant. Resolution is fail-closed:
// any identified-but-invalid tenant reference is an error, never a fallback
// to a default tenant.
type Resolver struct {
	tenantRepo tenancy.TenantRepository
	cache      TenantCache
	config     ResolverConfig
	logger     *zap.Logger
}

// NewResolver creates a tenant resolver.
func NewResolver(
	tenantRepo tenancy.TenantRepository,
	cache TenantCache,
	config ResolverConfig,
	logger *zap.Logger,
) *Resolver {
	return &Resolver{
		tenantRepo: tenantRepo,
		cache:      cache,
		config:     config,
		logger:     logger,
	}
}

// Resolve identifies the tenant for a request. The subdomain strategy wins
// when the host carries one; the signed header is consulted only when it
// does not. A request that carries neither signal resolves to no tenant at
// all (nil, nil) and proceeds as public traffic.
func (r *Resolver) Resolve(ctx context.Context, input ResolveInput) (*ResolveResult, error) {
	if slug, ok := r.subdomainSlug(input.Host); ok {
		tenant, err := r.lookupBySlug(ctx, slug)
		if err != nil {
			r.logger.Warn("Tenant resolution failed",
				zap.String("strategy", StrategySubdomain),
				zap.String("slug", slug),
				zap.Error(err))
			return nil, err
		}
		return &ResolveResult{Tenant: tenant, Strategy: StrategySubdomain}, nil
	}

	if input.TenantIDHeader != "" {
		tenant, err := r.resolveSignedHeader(ctx, input.TenantIDHeader, input.SignatureHeader)
		if err != nil {
			r.logger.Warn("Tenant resolution failed",
				zap.String("strategy", StrategyHeader),
				zap.String("tenant_id", input.TenantIDHeader),
				zap.Error(err))
			return nil, err
		}
		return &ResolveResult{Tenant: tenant, Strategy: StrategyHeader}, nil
	}

	return nil, nil
}

// subdomainSlug extracts the tenant slug from the request host. The apex
// domain, a bare "www", and hosts outside the base domain all yield no slug.
func (r *Resolver) subdomainSlug(host string) (string, bool) {
	if host == "" || r.config.BaseDomain == "" {
		return "", false
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(host)
	base := strings.ToLower(r.config.BaseDomain)

	if host == base {
		return "", false
	}
	suffix := "." + base
	if !strings.HasSuffix(host, suffix) {
		return "", false
	}
	sub := strings.TrimSuffix(host, suffix)
	if sub == "" || sub == "www" || strings.Contains(sub, ".") {
		return "", false
	}
	return sub, true
}

// resolveSignedHeader validates the HMAC-SHA256 signature over the tenant ID
// header before any lookup happens. An unsigned or mis-signed header is
// rejected even when the tenant exists.
func (r *Resolver) resolveSignedHeader(ctx context.Context, tenantID, signature string) (*tenancy.Tenant, error) {
	if r.config.SharedSecret == "" || signature == "" {
		return nil, shared.ErrInvalidTenantSignature
	}

	mac := hmac.New(sha256.New, []byte(r.config.SharedSecret))
	mac.Write([]byte(tenantID))
	expected := mac.Sum(nil)

	provided, err := hex.DecodeString(signature)
	if err != nil || !hmac.Equal(expected, provided) {
		return nil, shared.ErrInvalidTenantSignature
	}

	id, err := uuid.Parse(tenantID)
	if err != nil {
		return nil, shared.ErrTenantNotFound
	}
	tenant, err := r.tenantRepo.FindByID(ctx, id)
	if err != nil {
		return nil, shared.ErrTenantNotFound
	}
	return r.checkActive(tenant)
}

// lookupBySlug resolves through the cache, falling back to the repository
// and populating the cache on a hit. Inactive tenants are rejected.
func (r *Resolver) lookupBySlug(ctx context.Context, slug string) (*tenancy.Tenant, error) {
	if r.cache != nil {
		if tenant, err := r.cache.Get(ctx, slug); err == nil && tenant != nil {
			return r.checkActive(tenant)
		}
	}

	tenant, err := r.tenantRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, shared.ErrTenantNotFound
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, tenant); err != nil {
			r.logger.Debug("Failed to cache resolved tenant",
				zap.String("slug", slug),
				zap.Error(err))
		}
	}

	return r.checkActive(tenant)
}

func (r *Resolver) checkActive(tenant *tenancy.Tenant) (*tenancy.Tenant, error) {
	if !tenant.Active {
		return nil, shared.ErrTenantInactive
	}
	return tenant, nil
}

// SignTenantID computes the hex HMAC-SHA256 signature an API client must
// present alongside the tenant ID header. Exposed for provisioning flows
// that hand credentials to integrations.
func SignTenantID(sharedSecret, tenantID string) string {
	mac := hmac.New(sha256.New, []byte(sharedSecret))
	mac.Write([]byte(tenantID))
	return hex.EncodeToString(mac.Sum(nil))
}
