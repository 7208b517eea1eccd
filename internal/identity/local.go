package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/kku-mis/course-registration/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type LocalConfig struct {
	Secret        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

// LocalProvider keeps principals in the application database and signs
// HS256 access tokens.
type LocalProvider struct {
	db      *gorm.DB
	cfg     LocalConfig
	revoked RevocationList
	now     func() time.Time
}

func NewLocalProvider(db *gorm.DB, cfg LocalConfig, revoked RevocationList) *LocalProvider {
	if revoked == nil {
		revoked = NewMemoryRevocationList()
	}
	return &LocalProvider{db: db, cfg: cfg, revoked: revoked, now: time.Now}
}

func (p *LocalProvider) CreatePrincipal(ctx context.Context, email, password string) (*models.Principal, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	principal := models.Principal{
		Email:          NormalizeEmail(email),
		PasswordHash:   string(hash),
		EmailConfirmed: true,
	}
	if err := p.db.WithContext(ctx).Create(&principal).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to create principal: %w", err)
	}
	return &principal, nil
}

func (p *LocalProvider) FindPrincipalByEmail(ctx context.Context, email string) (*models.Principal, error) {
	var principal models.Principal
	err := p.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&principal).Error
	return lookupResult(&principal, err)
}

func (p *LocalProvider) GetPrincipal(ctx context.Context, id uuid.UUID) (*models.Principal, error) {
	var principal models.Principal
	err := p.db.WithContext(ctx).First(&principal, "id = ?", id).Error
	return lookupResult(&principal, err)
}

func (p *LocalProvider) ListPrincipals(ctx context.Context) ([]models.Principal, error) {
	var principals []models.Principal
	if err := p.db.WithContext(ctx).Order("created_at").Find(&principals).Error; err != nil {
		return nil, fmt.Errorf("failed to list principals: %w", err)
	}
	return principals, nil
}

func (p *LocalProvider) DeletePrincipal(ctx context.Context, id uuid.UUID) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("principal_id = ?", id).Delete(&models.RefreshToken{}).Error; err != nil {
			return fmt.Errorf("failed to delete refresh tokens: %w", err)
		}
		result := tx.Where("id = ?", id).Delete(&models.Principal{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete principal: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (p *LocalProvider) VerifyCredential(ctx context.Context, token string) (*models.Principal, error) {
	claims, err := p.parse(token)
	if err != nil {
		return nil, err
	}

	revoked, err := p.revoked.IsRevoked(ctx, claims.tokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to check revocation: %w", err)
	}
	if revoked {
		return nil, ErrInvalidCredential
	}

	principal, err := p.GetPrincipal(ctx, claims.principalID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredential
	}
	return principal, err
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	principal, err := p.FindPrincipalByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredential
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(principal.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredential
	}

	return p.issueSession(ctx, principal)
}

func (p *LocalProvider) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	db := p.db.WithContext(ctx)

	var stored models.RefreshToken
	if err := db.Where("token_hash = ? AND revoked = ?", hashToken(refreshToken), false).First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to load refresh token: %w", err)
	}

	// Rotation: the presented token is spent whether or not it is still valid.
	if err := db.Model(&stored).Update("revoked", true).Error; err != nil {
		return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	if p.now().After(stored.ExpiresAt) {
		return nil, ErrInvalidRefreshToken
	}

	principal, err := p.GetPrincipal(ctx, stored.PrincipalID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidRefreshToken
	}
	if err != nil {
		return nil, err
	}

	return p.issueSession(ctx, principal)
}

// SignOut revokes the access token until it would have expired anyway and
// every outstanding refresh token of its principal.
func (p *LocalProvider) SignOut(ctx context.Context, token string) error {
	claims, err := p.parse(token)
	if err != nil {
		return err
	}

	if ttl := claims.expiresAt.Sub(p.now()); ttl > 0 {
		if err := p.revoked.Revoke(ctx, claims.tokenID, ttl); err != nil {
			return fmt.Errorf("failed to revoke access token: %w", err)
		}
	}

	err = p.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("principal_id = ? AND revoked = ?", claims.principalID, false).
		Update("revoked", true).Error
	if err != nil {
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	return nil
}

type accessClaims struct {
	principalID uuid.UUID
	tokenID     string
	expiresAt   time.Time
}

func (p *LocalProvider) parse(token string) (*accessClaims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return []byte(p.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(p.now))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidCredential
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidCredential
	}
	sub, _ := claims["sub"].(string)
	principalID, err := uuid.Parse(sub)
	if err != nil {
		return nil, ErrInvalidCredential
	}
	jti, _ := claims["jti"].(string)
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, ErrInvalidCredential
	}

	return &accessClaims{principalID: principalID, tokenID: jti, expiresAt: exp.Time}, nil
}

func (p *LocalProvider) issueSession(ctx context.Context, principal *models.Principal) (*Session, error) {
	now := p.now()
	expiresAt := now.Add(p.cfg.AccessExpiry)

	claims := jwt.MapClaims{
		"sub":   principal.ID.String(),
		"email": principal.Email,
		"jti":   uuid.NewString(),
		"iat":   now.Unix(),
		"exp":   expiresAt.Unix(),
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(p.cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshToken, err := p.generateRefreshToken(ctx, principal.ID, now)
	if err != nil {
		return nil, err
	}

	slog.Info("session issued", "principal_id", principal.ID, "email", principal.Email)
	return &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		Principal:    principal,
	}, nil
}

func (p *LocalProvider) generateRefreshToken(ctx context.Context, principalID uuid.UUID, now time.Time) (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	rawToken := base64.URLEncoding.EncodeToString(rawBytes)
	record := models.RefreshToken{
		PrincipalID: principalID,
		TokenHash:   hashToken(rawToken),
		ExpiresAt:   now.Add(p.cfg.RefreshExpiry),
	}
	if err := p.db.WithContext(ctx).Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}
	return rawToken, nil
}

func lookupResult(principal *models.Principal, err error) (*models.Principal, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load principal: %w", err)
	}
	return principal, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
