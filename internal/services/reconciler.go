package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kku-mis/course-registration/internal/identity"
	"github.com/kku-mis/course-registration/internal/metrics"
	"github.com/kku-mis/course-registration/internal/models"
	"github.com/kku-mis/course-registration/internal/retry"
	"gorm.io/gorm"
)

var errPrincipalStillPresent = errors.New("principal still present after delete")

// ReconcileResult describes what the reconciler removed. Warning is set to an
// error wrapping ErrCleanupUnconfirmed when a deleted principal could not be
// confirmed gone; signup may still proceed.
type ReconcileResult struct {
	RemovedPrincipalID *uuid.UUID
	RemovedUserID      *uuid.UUID
	Warning            error
}

// Reconciler keeps principals and user rows 1:1 for an email before a new
// account is created.
type Reconciler struct {
	db       *gorm.DB
	provider identity.Provider
	verify   retry.Policy
}

func NewReconciler(db *gorm.DB, provider identity.Provider, verifyAttempts int) *Reconciler {
	return &Reconciler{
		db:       db,
		provider: provider,
		verify: retry.Policy{
			Attempts: verifyAttempts,
			Initial:  200 * time.Millisecond,
			Max:      2 * time.Second,
		},
	}
}

// ReconcileBeforeSignup fails with an *AccountError wrapping
// ErrAccountExists when email already belongs to a complete account, or
// ErrOrphanedAccount when a stale principal could not be removed.
func (r *Reconciler) ReconcileBeforeSignup(ctx context.Context, email string) (*ReconcileResult, error) {
	email = identity.NormalizeEmail(email)
	db := r.db.WithContext(ctx)
	result := &ReconcileResult{}

	principal, err := r.provider.FindPrincipalByEmail(ctx, email)
	if err != nil && !errors.Is(err, identity.ErrNotFound) {
		return nil, upstream("find principal", err)
	}

	if principal != nil {
		var linked models.User
		err := db.Where("principal_id = ?", principal.ID).First(&linked).Error
		if err == nil {
			return nil, accountExists(email, linked.ID)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, upstream("find user by principal", err)
		}
	}

	staleUser, err := r.findStaleUser(ctx, email)
	if err != nil {
		return nil, err
	}

	if principal != nil {
		if err := r.removePrincipal(ctx, email, principal.ID, result); err != nil {
			return nil, err
		}
	}

	if staleUser != nil {
		err := db.Transaction(func(tx *gorm.DB) error {
			return deleteUserRows(tx, staleUser.ID)
		})
		if err != nil {
			return nil, upstream("delete orphaned user", err)
		}
		result.RemovedUserID = &staleUser.ID
		metrics.OrphansRemoved.WithLabelValues("user").Inc()
		slog.Info("removed orphaned user row", "email", email, "user_id", staleUser.ID)
	}

	return result, nil
}

// findStaleUser returns the user row holding email when it has no live
// principal. A row backed by a live principal is a complete account.
func (r *Reconciler) findStaleUser(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, upstream("find user by email", err)
	}

	if user.PrincipalID == nil {
		return &user, nil
	}
	_, err = r.provider.GetPrincipal(ctx, *user.PrincipalID)
	switch {
	case errors.Is(err, identity.ErrNotFound):
		return &user, nil
	case err != nil:
		return nil, upstream("check principal liveness", err)
	}
	return nil, accountExists(email, user.ID)
}

func (r *Reconciler) removePrincipal(ctx context.Context, email string, id uuid.UUID, result *ReconcileResult) error {
	if err := r.provider.DeletePrincipal(ctx, id); err != nil && !errors.Is(err, identity.ErrNotFound) {
		slog.Error("failed to delete orphaned principal", "email", email, "principal_id", id, "error", err)
		return orphanedAccount(email, id, err)
	}
	result.RemovedPrincipalID = &id
	metrics.OrphansRemoved.WithLabelValues("principal").Inc()

	err := retry.Do(ctx, r.verify, func() error {
		_, err := r.provider.FindPrincipalByEmail(ctx, email)
		switch {
		case errors.Is(err, identity.ErrNotFound):
			return nil
		case err == nil:
			return errPrincipalStillPresent
		}
		return err
	})
	switch {
	case err == nil:
		slog.Info("removed orphaned principal", "email", email, "principal_id", id)
	case errors.Is(err, errPrincipalStillPresent):
		slog.Error("orphaned principal survived delete", "email", email, "principal_id", id)
		return orphanedAccount(email, id, err)
	default:
		result.Warning = fmt.Errorf("%w: %w", ErrCleanupUnconfirmed, err)
		slog.Warn("could not confirm orphaned principal removal", "email", email, "principal_id", id, "error", err)
	}
	return nil
}
