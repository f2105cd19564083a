package billing

import (
	"context"

	"github.com/google/uuid"
)

// ModuleRepository persists the sellable module catalog.
type ModuleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Module, error)
	FindBySlug(ctx context.Context, slug string) (*Module, error)
	FindActive(ctx context.Context) ([]*Module, error)
	FindAll(ctx context.Context) ([]*Module, error)
	Save(ctx context.Context, module *Module) error
}

// AppSettingRepository persists instance-level key/value settings.
type AppSettingRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}
