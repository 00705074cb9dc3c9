package certbase

import "errors"

// Sentinel errors for common error conditions
var (
	ErrCAAlreadyExists    = errors.New("ca certificate already exists")
	ErrCANotFound         = errors.New("ca certificate not found")
	ErrCertNotFound       = errors.New("certificate not found")
	ErrInvalidHostname    = errors.New("invalid hostname")
	ErrMissingSNI         = errors.New("client hello has no server name")
	ErrUnknownReusePolicy = errors.New("unknown reuse policy")
)
