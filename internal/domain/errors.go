package domain

import "errors"

var (
	// ErrConfiguration marks problems an operator has to fix in persisted data
	// or configuration (corrupt autochecks file, invalid filter regex, ...).
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidLabel is returned when a label fails validation at construction.
	ErrInvalidLabel = errors.New("invalid label")

	// ErrIdentityConflict is returned when host and service label collections
	// are combined.
	ErrIdentityConflict = errors.New("label identity conflict")
)
