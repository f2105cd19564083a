package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound      = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput  = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState  = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrForbidden     = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")

	// Tenancy resolution errors. These fail closed: a request that carries a
	// tenant signal which cannot be verified is rejected, never served
	// tenant-less.
	ErrTenantNotFound         = NewDomainError("TENANT_NOT_FOUND", "Tenant not found")
	ErrTenantInactive         = NewDomainError("TENANT_INACTIVE", "Tenant is inactive")
	ErrInvalidTenantSignature = NewDomainError("INVALID_TENANT_SIGNATURE", "Tenant signature verification failed")
	ErrNoTenantResolved       = NewDomainError("NO_TENANT_RESOLVED", "No tenant resolved for this request")

	// ErrLastOwner is raised synchronously when a mutation would leave a
	// tenant with no owner membership.
	ErrLastOwner = NewDomainError("LAST_OWNER_VIOLATION", "Cannot remove the last owner of a tenant")

	// ErrBillingUnavailable wraps network/API failures against the external
	// billing provider. Surfaced to retry-capable callers, never persisted.
	ErrBillingUnavailable = NewDomainError("EXTERNAL_BILLING_UNAVAILABLE", "External billing provider is unavailable")
)
