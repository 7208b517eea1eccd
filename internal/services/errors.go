package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrAccountExists       = errors.New("account already exists")
	ErrOrphanedAccount     = errors.New("orphaned account requires manual cleanup")
	ErrCleanupUnconfirmed  = errors.New("orphan cleanup could not be confirmed")
	ErrDuplicateRequest    = errors.New("registration request already exists")
	ErrNotFound            = errors.New("not found")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrAlreadyResolved     = errors.New("registration request already resolved")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrForbidden           = errors.New("forbidden")
	ErrUnauthorized        = errors.New("invalid email or password")
)

// AccountError carries what a client needs to offer a remediation for a
// failed signup: redirect to login or request manual cleanup.
type AccountError struct {
	Kind        error      `json:"-"`
	Email       string     `json:"email"`
	UserID      *uuid.UUID `json:"user_id,omitempty"`
	PrincipalID *uuid.UUID `json:"principal_id,omitempty"`
	Hint        string     `json:"hint,omitempty"`
	Cause       error      `json:"-"`
}

func (e *AccountError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Email)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *AccountError) Unwrap() error { return e.Kind }

func accountExists(email string, userID uuid.UUID) *AccountError {
	return &AccountError{
		Kind:   ErrAccountExists,
		Email:  email,
		UserID: &userID,
		Hint:   "sign in with the existing account",
	}
}

func orphanedAccount(email string, principalID uuid.UUID, cause error) *AccountError {
	return &AccountError{
		Kind:        ErrOrphanedAccount,
		Email:       email,
		PrincipalID: &principalID,
		Hint:        "an administrator must remove the stale identity record before signing up again",
		Cause:       cause,
	}
}

// upstream classifies an infrastructure failure.
func upstream(action string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUpstreamUnavailable, action, err)
}

func invalidInput(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}
