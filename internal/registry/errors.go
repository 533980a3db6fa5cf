package registry

import "errors"

var (
	// ErrNotFound is returned when a store or domain does not exist or
	// belongs to a different tenant. The two cases are deliberately
	// indistinguishable to callers.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateDomain is returned when the hostname already exists
	// for the tenant
	ErrDuplicateDomain = errors.New("domain already exists for tenant")

	// ErrDuplicateSlug is returned when the store slug already exists
	// for the tenant
	ErrDuplicateSlug = errors.New("slug already exists for tenant")

	// ErrInvalidHostname is returned when the hostname fails validation
	ErrInvalidHostname = errors.New("invalid hostname")

	// ErrInvalidInput is returned when required fields are missing or malformed
	ErrInvalidInput = errors.New("invalid input")

	// ErrVerificationInFlight is returned when a verification attempt is
	// already running for the domain
	ErrVerificationInFlight = errors.New("verification already in flight")
)
