package tenancy

import (
	"context"

	"github.com/nexora/backend/internal/domain/shared"
	"github.com/nexora/backend/internal/domain/tenancy"
	"go.uber.org/zap"
)

// ProvisionedNotifier reacts to tenant provisioning by handing the owner
// their workspace URL. Delivery is a collaborator concern; this handler
// builds the message and passes it on.
type ProvisionedNotifier struct {
	sender     WelcomeSender
	baseDomain string
	scheme     string
	logger     *zap.Logger
}

// WelcomeSender delivers the workspace setup message to the new owner.
type WelcomeSender interface {
	SendWelcome(ctx context.Context, email, tenantName, workspaceURL string) error
}

// NewProvisionedNotifier creates a notifier. A nil sender logs instead of
// delivering, which is the development default.
func NewProvisionedNotifier(sender WelcomeSender, scheme, baseDomain string, logger *zap.Logger) *ProvisionedNotifier {
	if scheme == "" {
		scheme = "https"
	}
	return &ProvisionedNotifier{
		sender:     sender,
		baseDomain: baseDomain,
		scheme:     scheme,
		logger:     logger,
	}
}

// EventTypes implements shared.EventHandler
func (n *ProvisionedNotifier) EventTypes() []string {
	return []string{tenancy.EventTypeTenantProvisioned}
}

// Handle implements shared.EventHandler
func (n *ProvisionedNotifier) Handle(ctx context.Context, event shared.DomainEvent) error {
	provisioned, ok := event.(*tenancy.TenantProvisionedEvent)
	if !ok {
		return nil
	}

	url := tenancy.TenantURL(n.scheme, n.baseDomain, &tenancy.Tenant{Slug: provisioned.TenantSlug}, "/")

	if n.sender == nil {
		n.logger.Info("Tenant provisioned, welcome delivery not configured",
			zap.String("tenant_slug", provisioned.TenantSlug),
			zap.String("owner_email", provisioned.OwnerEmail),
			zap.String("workspace_url", url))
		return nil
	}

	if err := n.sender.SendWelcome(ctx, provisioned.OwnerEmail, provisioned.TenantName, url); err != nil {
		n.logger.Error("Failed to send welcome message",
			zap.String("tenant_slug", provisioned.TenantSlug),
			zap.Error(err))
		return err
	}
	return nil
}

var _ shared.EventHandler = (*ProvisionedNotifier)(nil)
