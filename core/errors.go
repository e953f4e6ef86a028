package core

import "errors"

// Store errors shared between the ports and their adapters.
var (
	ErrDuplicateCredentialID = errors.New("credential id already registered")
	ErrCredentialNotFound    = errors.New("credential not found")
	ErrStoreUnavailable      = errors.New("store unavailable")
)
