package contract

import "errors"

// Failure kinds surfaced to callers. Operations wrap them with context so the
// kind survives errors.Is and the message names the failing operation.
var (
	ErrMalformedInput       = errors.New("malformed input")
	ErrNotFound             = errors.New("not found")
	ErrDuplicateIdentifier  = errors.New("duplicate identifier")
	ErrReferentialIntegrity = errors.New("referential integrity violation")
	ErrAlreadyInstantiated  = errors.New("ledger already instantiated")
)
