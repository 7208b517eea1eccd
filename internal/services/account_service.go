package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kku-mis/course-registration/internal/dto"
	"github.com/kku-mis/course-registration/internal/identity"
	"github.com/kku-mis/course-registration/internal/metrics"
	"github.com/kku-mis/course-registration/internal/models"
	"gorm.io/gorm"
)

const (
	defaultMajor      = "MIS"
	defaultDepartment = "MIS"

	// Principals younger than this may belong to a signup still in flight.
	orphanSweepGrace = 10 * time.Minute
)

type SignupResult struct {
	User     *models.User
	Warnings []string
}

type OrphanSweepResult struct {
	PrincipalID uuid.UUID `json:"principal_id"`
	Email       string    `json:"email"`
	Removed     bool      `json:"removed"`
	Error       string    `json:"error,omitempty"`
}

type AccountService struct {
	db          *gorm.DB
	provider    identity.Provider
	reconciler  *Reconciler
	emailDomain string
}

func NewAccountService(db *gorm.DB, provider identity.Provider, reconciler *Reconciler, emailDomain string) *AccountService {
	return &AccountService{
		db:          db,
		provider:    provider,
		reconciler:  reconciler,
		emailDomain: strings.ToLower(emailDomain),
	}
}

// CreateAccount reconciles the email, creates the principal and the user row
// and, best-effort, the role's profile. A failed user insert deletes the
// principal again.
func (s *AccountService) CreateAccount(ctx context.Context, req *dto.SignupRequest) (*SignupResult, error) {
	req.Email = identity.NormalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := dto.Validate(req); err != nil {
		metrics.Signups.WithLabelValues("invalid").Inc()
		return nil, invalidInput(err)
	}
	if s.emailDomain != "" && !strings.HasSuffix(req.Email, s.emailDomain) {
		metrics.Signups.WithLabelValues("invalid").Inc()
		return nil, invalidInput(&dto.ValidationError{Fields: map[string]string{
			"email": fmt.Sprintf("email must end with %s", s.emailDomain),
		}})
	}

	reconciled, err := s.reconciler.ReconcileBeforeSignup(ctx, req.Email)
	if err != nil {
		metrics.Signups.WithLabelValues(outcomeOf(err)).Inc()
		return nil, err
	}

	result := &SignupResult{}
	if reconciled.Warning != nil {
		result.Warnings = append(result.Warnings, reconciled.Warning.Error())
	}

	principal, err := s.provider.CreatePrincipal(ctx, req.Email, req.Password)
	if errors.Is(err, identity.ErrConflict) {
		metrics.Signups.WithLabelValues("account_exists").Inc()
		return nil, &AccountError{Kind: ErrAccountExists, Email: req.Email, Hint: "sign in with the existing account"}
	}
	if err != nil {
		metrics.Signups.WithLabelValues("error").Inc()
		return nil, upstream("create principal", err)
	}

	user := &models.User{
		PrincipalID:     &principal.ID,
		Email:           req.Email,
		Name:            req.Name,
		Role:            models.Role(req.Role),
		StudentIDNumber: req.StudentIDNumber,
		Phone:           req.Phone,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		s.compensate(ctx, principal)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			metrics.Signups.WithLabelValues("account_exists").Inc()
			return nil, s.existingAccount(ctx, req.Email)
		}
		metrics.Signups.WithLabelValues("error").Inc()
		return nil, upstream("create user", err)
	}

	s.createProfile(ctx, user, req)

	metrics.Signups.WithLabelValues("created").Inc()
	slog.Info("account created", "user_id", user.ID, "email", user.Email, "role", user.Role)
	result.User = user
	return result, nil
}

// compensate undoes a principal whose user row could not be written. It runs
// even when the request context has been cancelled.
func (s *AccountService) compensate(ctx context.Context, principal *models.Principal) {
	metrics.CompensationsTotal.Inc()
	if err := s.provider.DeletePrincipal(context.WithoutCancel(ctx), principal.ID); err != nil {
		slog.Error("failed to compensate principal after user insert failure",
			"principal_id", principal.ID, "email", principal.Email, "error", err)
	}
}

func (s *AccountService) existingAccount(ctx context.Context, email string) error {
	var existing models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error; err == nil {
		return accountExists(email, existing.ID)
	}
	return &AccountError{Kind: ErrAccountExists, Email: email, Hint: "sign in with the existing account"}
}

func (s *AccountService) createProfile(ctx context.Context, user *models.User, req *dto.SignupRequest) {
	db := s.db.WithContext(ctx)

	switch user.Role {
	case models.RoleStudent:
		profile := &models.StudentProfile{
			UserID: user.ID,
			Major:  valueOr(req.Major, defaultMajor),
			Level:  models.MinLevel,
			GPA:    models.MinGPA,
		}
		if req.Level != nil {
			profile.Level = *req.Level
		}
		if req.GPA != nil {
			profile.GPA = *req.GPA
		}
		if err := db.Create(profile).Error; err != nil {
			slog.Error("failed to create student profile", "user_id", user.ID, "email", user.Email, "error", err)
			return
		}
		user.StudentProfile = profile
	case models.RoleAdvisor:
		profile := &models.SupervisorProfile{
			UserID:         user.ID,
			Department:     valueOr(req.Department, defaultDepartment),
			OfficeLocation: req.OfficeLocation,
			OfficeHours:    req.OfficeHours,
		}
		if err := db.Create(profile).Error; err != nil {
			slog.Error("failed to create supervisor profile", "user_id", user.ID, "email", user.Email, "error", err)
			return
		}
		user.SupervisorProfile = profile
	}
}

// SignIn returns a session for a principal that has a user row. A principal
// without one is reported as ErrNotFound and its fresh session revoked.
func (s *AccountService) SignIn(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	req.Email = identity.NormalizeEmail(req.Email)
	if err := dto.Validate(req); err != nil {
		return nil, invalidInput(err)
	}

	session, err := s.provider.SignIn(ctx, req.Email, req.Password)
	if errors.Is(err, identity.ErrInvalidCredential) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, upstream("sign in", err)
	}

	user, err := s.UserByPrincipal(ctx, session.Principal.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			if signOutErr := s.provider.SignOut(ctx, session.AccessToken); signOutErr != nil {
				slog.Warn("failed to revoke session of user-less principal", "email", req.Email, "error", signOutErr)
			}
			return nil, fmt.Errorf("%w: user data not found", ErrNotFound)
		}
		return nil, err
	}

	return authResponse(session, user), nil
}

func (s *AccountService) Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	if err := dto.Validate(req); err != nil {
		return nil, invalidInput(err)
	}

	session, err := s.provider.Refresh(ctx, req.RefreshToken)
	if errors.Is(err, identity.ErrInvalidRefreshToken) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, upstream("refresh session", err)
	}

	user, err := s.UserByPrincipal(ctx, session.Principal.ID)
	if err != nil {
		return nil, err
	}
	return authResponse(session, user), nil
}

func (s *AccountService) SignOut(ctx context.Context, accessToken string) error {
	err := s.provider.SignOut(ctx, accessToken)
	if errors.Is(err, identity.ErrInvalidCredential) {
		return ErrUnauthorized
	}
	if err != nil {
		return upstream("sign out", err)
	}
	return nil
}

// UserByPrincipal loads the user row, with profiles, that a principal maps to.
func (s *AccountService) UserByPrincipal(ctx context.Context, principalID uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Preload("StudentProfile").
		Preload("SupervisorProfile").
		Where("principal_id = ?", principalID).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, upstream("load user", err)
	}
	return &user, nil
}

// CleanupOrphan deletes the principal for email only when no user row refers
// to it. It reports whether anything was deleted.
func (s *AccountService) CleanupOrphan(ctx context.Context, req *dto.CleanupOrphanRequest) (bool, error) {
	req.Email = identity.NormalizeEmail(req.Email)
	if err := dto.Validate(req); err != nil {
		return false, invalidInput(err)
	}

	principal, err := s.provider.FindPrincipalByEmail(ctx, req.Email)
	if errors.Is(err, identity.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, upstream("find principal", err)
	}

	linked, err := s.hasUser(ctx, principal.ID)
	if err != nil || linked {
		return false, err
	}

	if err := s.provider.DeletePrincipal(ctx, principal.ID); err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return false, nil
		}
		return false, upstream("delete principal", err)
	}
	metrics.OrphansRemoved.WithLabelValues("principal").Inc()
	slog.Info("orphaned principal cleaned up", "email", req.Email, "principal_id", principal.ID)
	return true, nil
}

// SweepOrphans deletes every principal without a user row that is older than
// the sweep grace period.
func (s *AccountService) SweepOrphans(ctx context.Context) ([]OrphanSweepResult, error) {
	principals, err := s.provider.ListPrincipals(ctx)
	if err != nil {
		return nil, upstream("list principals", err)
	}

	var linked []uuid.UUID
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("principal_id IS NOT NULL").
		Pluck("principal_id", &linked).Error; err != nil {
		return nil, upstream("list linked principals", err)
	}
	linkedSet := make(map[uuid.UUID]struct{}, len(linked))
	for _, id := range linked {
		linkedSet[id] = struct{}{}
	}

	cutoff := time.Now().Add(-orphanSweepGrace)
	results := make([]OrphanSweepResult, 0)
	for _, p := range principals {
		if _, ok := linkedSet[p.ID]; ok || p.CreatedAt.After(cutoff) {
			continue
		}

		res := OrphanSweepResult{PrincipalID: p.ID, Email: p.Email}
		if err := s.provider.DeletePrincipal(ctx, p.ID); err != nil && !errors.Is(err, identity.ErrNotFound) {
			res.Error = err.Error()
			slog.Error("orphan sweep failed to delete principal", "principal_id", p.ID, "email", p.Email, "error", err)
		} else {
			res.Removed = true
			metrics.OrphansRemoved.WithLabelValues("principal").Inc()
		}
		results = append(results, res)
	}

	slog.Info("orphan sweep completed", "checked", len(principals), "orphans", len(results))
	return results, nil
}

// DeleteUser removes a user and everything that belongs to it. The principal
// is deleted first, best-effort.
func (s *AccountService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return upstream("load user", err)
	}

	if user.PrincipalID != nil {
		if err := s.provider.DeletePrincipal(ctx, *user.PrincipalID); err != nil && !errors.Is(err, identity.ErrNotFound) {
			slog.Warn("failed to delete principal of deleted user", "user_id", user.ID, "principal_id", *user.PrincipalID, "error", err)
		}
	}

	if err := db.Transaction(func(tx *gorm.DB) error {
		return deleteUserRows(tx, user.ID)
	}); err != nil {
		return upstream("delete user", err)
	}

	slog.Info("user deleted", "user_id", user.ID, "email", user.Email)
	return nil
}

// ListUsers returns users newest first, optionally filtered by role.
func (s *AccountService) ListUsers(ctx context.Context, role string) ([]models.User, error) {
	query := s.db.WithContext(ctx).Order("created_at DESC")
	if role != "" {
		if !models.Role(role).Valid() {
			return nil, invalidInput(fmt.Errorf("unknown role %q", role))
		}
		query = query.Where("role = ?", role)
	}

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, upstream("list users", err)
	}
	return users, nil
}

func (s *AccountService) ListStudents(ctx context.Context) ([]models.User, error) {
	var students []models.User
	err := s.db.WithContext(ctx).
		Preload("StudentProfile").
		Where("role = ?", models.RoleStudent).
		Order("created_at DESC").
		Find(&students).Error
	if err != nil {
		return nil, upstream("list students", err)
	}
	return students, nil
}

func (s *AccountService) hasUser(ctx context.Context, principalID uuid.UUID) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("principal_id = ?", principalID).Count(&count).Error; err != nil {
		return false, upstream("find user by principal", err)
	}
	return count > 0, nil
}

func authResponse(session *identity.Session, user *models.User) *dto.AuthResponse {
	return &dto.AuthResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		ExpiresAt:    session.ExpiresAt,
		User:         user,
	}
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrAccountExists):
		return "account_exists"
	case errors.Is(err, ErrOrphanedAccount):
		return "orphaned_account"
	}
	return "error"
}

func valueOr(s, fallback string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return fallback
}
