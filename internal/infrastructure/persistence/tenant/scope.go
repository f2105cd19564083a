// Package tenant provides multi-tenant database scoping for GORM.
//
// It applies WHERE tenant_id = ? filtering for the given tenant, failing
// closed: a query scoped to the nil tenant errors instead of returning
// cross-tenant rows.
package tenant

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrTenantIDRequired is returned when a query is scoped to the nil tenant
var ErrTenantIDRequired = errors.New("tenant_id is required but no tenant is in scope")

// Scope applies tenant filtering to GORM queries
func Scope(tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tenant_id = ?", tenantID)
	}
}

// TenantDB wraps a GORM handle with tenant scoping for repositories whose
// rows belong to exactly one tenant.
type TenantDB struct {
	db *gorm.DB
}

// NewTenantDB creates a TenantDB.
func NewTenantDB(db *gorm.DB) *TenantDB {
	return &TenantDB{db: db}
}

// WithTenant returns a GORM handle scoped to the tenant. The nil tenant
// fails every operation on the returned handle with ErrTenantIDRequired.
func (t *TenantDB) WithTenant(tenantID uuid.UUID) *gorm.DB {
	if tenantID == uuid.Nil {
		db := t.db.Session(&gorm.Session{})
		_ = db.AddError(ErrTenantIDRequired)
		return db
	}
	return t.db.Scopes(Scope(tenantID))
}
