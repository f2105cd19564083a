package billing

import "context"

// CheckoutSessionRepository persists pending purchase intents.
type CheckoutSessionRepository interface {
	FindBySessionID(ctx context.Context, sessionID string) (*CheckoutSession, error)
	Save(ctx context.Context, session *CheckoutSession) error
	Delete(ctx context.Context, sessionID string) error
}
