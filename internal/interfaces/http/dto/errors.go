package dto

import "net/http"

// General error codes
const (
	ErrCodeInternal   = "INTERNAL_ERROR"
	ErrCodeBadRequest = "BAD_REQUEST"
)

// Domain error codes surfaced over HTTP. These mirror the codes carried
// by shared.DomainError so handlers can map errors without string
// matching on messages.
const (
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeAlreadyExists = "ALREADY_EXISTS"
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeInvalidState  = "INVALID_STATE"
	ErrCodeForbidden     = "FORBIDDEN"

	ErrCodeTenantNotFound         = "TENANT_NOT_FOUND"
	ErrCodeTenantInactive         = "TENANT_INACTIVE"
	ErrCodeInvalidTenantSignature = "INVALID_TENANT_SIGNATURE"
	ErrCodeNoTenantResolved       = "NO_TENANT_RESOLVED"

	ErrCodeLastOwner          = "LAST_OWNER_VIOLATION"
	ErrCodeBillingUnavailable = "EXTERNAL_BILLING_UNAVAILABLE"
	ErrCodeSubscriptionLocked = "SUBSCRIPTION_LOCKED"
	ErrCodeReadOnly           = "SUBSCRIPTION_READ_ONLY"

	ErrCodeModuleNotAvailable = "MODULE_NOT_AVAILABLE"
	ErrCodeModuleNotSynced    = "MODULE_NOT_SYNCED"
)

// errorCodeHTTPStatus maps error codes to HTTP status codes
var errorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,

	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,
	ErrCodeInvalidInput:  http.StatusBadRequest,
	ErrCodeInvalidState:  http.StatusUnprocessableEntity,
	ErrCodeForbidden:     http.StatusForbidden,

	// A verifiable tenant signal that fails verification is rejected,
	// never downgraded to tenant-less access.
	ErrCodeTenantNotFound:         http.StatusNotFound,
	ErrCodeTenantInactive:         http.StatusForbidden,
	ErrCodeInvalidTenantSignature: http.StatusForbidden,
	ErrCodeNoTenantResolved:       http.StatusBadRequest,

	ErrCodeLastOwner:          http.StatusUnprocessableEntity,
	ErrCodeBillingUnavailable: http.StatusServiceUnavailable,
	ErrCodeSubscriptionLocked: http.StatusPaymentRequired,
	ErrCodeReadOnly:           http.StatusForbidden,

	ErrCodeModuleNotAvailable: http.StatusUnprocessableEntity,
	ErrCodeModuleNotSynced:    http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not known.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
