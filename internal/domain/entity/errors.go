package entity

import "errors"

var (
	// ErrValidation is returned when input fails validation before any AI call
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when an entity does not exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when two transitions race on the same entity.
	// Callers should re-fetch and retry.
	ErrConflict = errors.New("concurrent modification conflict")

	// ErrDuplicateApplication is returned when the user already has a live
	// application for the policy
	ErrDuplicateApplication = errors.New("user already has an application for this policy")

	// ErrPolicyNotActive is returned when a claim references an application
	// that is not in ACTIVE status
	ErrPolicyNotActive = errors.New("application is not active")
)

// EntityKind constants used by payments, notifications and leases.
const (
	KindApplication = "application"
	KindClaim       = "claim"
)
