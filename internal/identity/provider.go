package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kku-mis/course-registration/internal/models"
)

//go:generate mockgen -source=provider.go -destination=mocks/provider.go -package=mocks Provider

var (
	ErrNotFound            = errors.New("principal not found")
	ErrConflict            = errors.New("principal already exists")
	ErrInvalidCredential   = errors.New("invalid or expired credential")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
)

// Session is the token pair handed out on sign-in and refresh.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Principal    *models.Principal
}

// Provider owns principals and the bearer credentials issued for them.
type Provider interface {
	CreatePrincipal(ctx context.Context, email, password string) (*models.Principal, error)
	FindPrincipalByEmail(ctx context.Context, email string) (*models.Principal, error)
	GetPrincipal(ctx context.Context, id uuid.UUID) (*models.Principal, error)
	ListPrincipals(ctx context.Context) ([]models.Principal, error)
	DeletePrincipal(ctx context.Context, id uuid.UUID) error
	VerifyCredential(ctx context.Context, token string) (*models.Principal, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	SignOut(ctx context.Context, token string) error
}

// NormalizeEmail is applied by every entry point that accepts an email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
