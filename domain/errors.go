/*
errors.go - Centralized error taxonomy for the analytics core

PURPOSE:
  All error kinds in one place so every layer classifies failures the same
  way. The API layer maps these onto HTTP statuses in exactly one place.

ERROR CATEGORIES:
  1. Not-found errors     - a referenced record/hospital/gas/user is missing
  2. Authorization errors - role or affiliation forbids the operation
  3. Input errors         - malformed filters or record payloads
  4. Configuration errors - an actor record is internally inconsistent

Anything else (store failures and the like) is unclassified and propagates
wrapped; callers surface it as a generic failure with the detail masked
outside debug mode.

USAGE:
  if domain.IsNotFound(err) { ... }
  if errors.Is(err, domain.ErrForbidden) { ... }
*/
package domain

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the actor's role or hospital affiliation
	// forbids the requested scope or transition. No partial effect occurs.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidInput is returned for malformed filters or payloads before
	// any read or write is attempted.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMisconfigured is returned when an actor record violates the
	// role/affiliation invariant. Server-side defect, logged, never retried.
	ErrMisconfigured = errors.New("actor misconfigured")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError identifies which entity was missing.
type NotFoundError struct {
	Kind string // "consumo", "hospital", "gas", "usuario"
	ID   int64
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s %d not found", e.Kind, e.ID) }
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ScopeError reports a cross-hospital access attempt.
type ScopeError struct {
	ActorID    int64
	HospitalID int64
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("actor %d may not act on hospital %d", e.ActorID, e.HospitalID)
}
func (e *ScopeError) Unwrap() error { return ErrForbidden }

// InputError reports a malformed field in a filter or payload.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string { return e.Field + ": " + e.Reason }
func (e *InputError) Unwrap() error { return ErrInvalidInput }

// ConfigError reports an internally inconsistent actor record.
type ConfigError struct {
	ActorID int64
	Reason  string
}

func (e *ConfigError) Error() string { return fmt.Sprintf("actor %d: %s", e.ActorID, e.Reason) }
func (e *ConfigError) Unwrap() error { return ErrMisconfigured }

// =============================================================================
// ERROR HELPERS
// =============================================================================

func IsNotFound(err error) bool      { return errors.Is(err, ErrNotFound) }
func IsForbidden(err error) bool     { return errors.Is(err, ErrForbidden) }
func IsInvalidInput(err error) bool  { return errors.Is(err, ErrInvalidInput) }
func IsMisconfigured(err error) bool { return errors.Is(err, ErrMisconfigured) }

// IsClientError returns true when the failure is attributable to the caller
// and safe to surface verbatim.
func IsClientError(err error) bool {
	return IsNotFound(err) || IsForbidden(err) || IsInvalidInput(err)
}
