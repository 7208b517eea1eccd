package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/kku-mis/course-registration/internal/identity"
	"github.com/kku-mis/course-registration/internal/models"
	"github.com/kku-mis/course-registration/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newProvider(t *testing.T) (*identity.LocalProvider, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	p := identity.NewLocalProvider(db, identity.LocalConfig{
		Secret:        "test-secret",
		AccessExpiry:  time.Hour,
		RefreshExpiry: 24 * time.Hour,
	}, nil)
	return p, db
}

func TestCreatePrincipal(t *testing.T) {
	ctx := context.Background()
	p, _ := newProvider(t)

	principal, err := p.CreatePrincipal(ctx, "  Ali@KKU.edu.sa ", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "ali@kku.edu.sa", principal.Email)
	assert.True(t, principal.EmailConfirmed)
	assert.NotEqual(t, "secret123", principal.PasswordHash)

	_, err = p.CreatePrincipal(ctx, "ali@kku.edu.sa", "another1")
	assert.ErrorIs(t, err, identity.ErrConflict)
}

func TestFindAndDeletePrincipal(t *testing.T) {
	ctx := context.Background()
	p, db := newProvider(t)

	principal, err := p.CreatePrincipal(ctx, "sara@kku.edu.sa", "secret123")
	require.NoError(t, err)
	_, err = p.SignIn(ctx, "sara@kku.edu.sa", "secret123")
	require.NoError(t, err)

	found, err := p.FindPrincipalByEmail(ctx, "SARA@kku.edu.sa")
	require.NoError(t, err)
	assert.Equal(t, principal.ID, found.ID)

	require.NoError(t, p.DeletePrincipal(ctx, principal.ID))

	_, err = p.GetPrincipal(ctx, principal.ID)
	assert.ErrorIs(t, err, identity.ErrNotFound)
	_, err = p.FindPrincipalByEmail(ctx, "sara@kku.edu.sa")
	assert.ErrorIs(t, err, identity.ErrNotFound)

	var tokens int64
	require.NoError(t, db.Model(&models.RefreshToken{}).Where("principal_id = ?", principal.ID).Count(&tokens).Error)
	assert.Zero(t, tokens)

	assert.ErrorIs(t, p.DeletePrincipal(ctx, principal.ID), identity.ErrNotFound)
}

func TestListPrincipals(t *testing.T) {
	ctx := context.Background()
	p, _ := newProvider(t)

	_, err := p.CreatePrincipal(ctx, "a@kku.edu.sa", "secret123")
	require.NoError(t, err)
	_, err = p.CreatePrincipal(ctx, "b@kku.edu.sa", "secret123")
	require.NoError(t, err)

	principals, err := p.ListPrincipals(ctx)
	require.NoError(t, err)
	assert.Len(t, principals, 2)
}

func TestSignInAndVerify(t *testing.T) {
	ctx := context.Background()
	p, _ := newProvider(t)

	principal, err := p.CreatePrincipal(ctx, "omar@kku.edu.sa", "secret123")
	require.NoError(t, err)

	_, err = p.SignIn(ctx, "omar@kku.edu.sa", "wrong-password")
	assert.ErrorIs(t, err, identity.ErrInvalidCredential)
	_, err = p.SignIn(ctx, "nobody@kku.edu.sa", "secret123")
	assert.ErrorIs(t, err, identity.ErrInvalidCredential)

	session, err := p.SignIn(ctx, "omar@kku.edu.sa", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)

	verified, err := p.VerifyCredential(ctx, session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, principal.ID, verified.ID)

	_, err = p.VerifyCredential(ctx, "not-a-token")
	assert.ErrorIs(t, err, identity.ErrInvalidCredential)
}

func TestVerifyRejectsDeletedPrincipal(t *testing.T) {
	ctx := context.Background()
	p, _ := newProvider(t)

	principal, err := p.CreatePrincipal(ctx, "gone@kku.edu.sa", "secret123")
	require.NoError(t, err)
	session, err := p.SignIn(ctx, "gone@kku.edu.sa", "secret123")
	require.NoError(t, err)

	require.NoError(t, p.DeletePrincipal(ctx, principal.ID))

	_, err = p.VerifyCredential(ctx, session.AccessToken)
	assert.ErrorIs(t, err, identity.ErrInvalidCredential)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	ctx := context.Background()
	p, db := newProvider(t)
	other := identity.NewLocalProvider(db, identity.LocalConfig{
		Secret:        "other-secret",
		AccessExpiry:  time.Hour,
		RefreshExpiry: time.Hour,
	}, nil)

	_, err := p.CreatePrincipal(ctx, "x@kku.edu.sa", "secret123")
	require.NoError(t, err)
	session, err := other.SignIn(ctx, "x@kku.edu.sa", "secret123")
	require.NoError(t, err)

	_, err = p.VerifyCredential(ctx, session.AccessToken)
	assert.ErrorIs(t, err, identity.ErrInvalidCredential)
}

func TestRefreshRotatesToken(t *testing.T) {
	ctx := context.Background()
	p, _ := newProvider(t)

	_, err := p.CreatePrincipal(ctx, "nora@kku.edu.sa", "secret123")
	require.NoError(t, err)
	session, err := p.SignIn(ctx, "nora@kku.edu.sa", "secret123")
	require.NoError(t, err)

	next, err := p.Refresh(ctx, session.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, session.RefreshToken, next.RefreshToken)

	_, err = p.Refresh(ctx, session.RefreshToken)
	assert.ErrorIs(t, err, identity.ErrInvalidRefreshToken)

	_, err = p.Refresh(ctx, "unknown")
	assert.ErrorIs(t, err, identity.ErrInvalidRefreshToken)
}

func TestSignOutRevokesTokens(t *testing.T) {
	ctx := context.Background()
	p, _ := newProvider(t)

	_, err := p.CreatePrincipal(ctx, "huda@kku.edu.sa", "secret123")
	require.NoError(t, err)
	session, err := p.SignIn(ctx, "huda@kku.edu.sa", "secret123")
	require.NoError(t, err)

	require.NoError(t, p.SignOut(ctx, session.AccessToken))

	_, err = p.VerifyCredential(ctx, session.AccessToken)
	assert.ErrorIs(t, err, identity.ErrInvalidCredential)
	_, err = p.Refresh(ctx, session.RefreshToken)
	assert.ErrorIs(t, err, identity.ErrInvalidRefreshToken)

	fresh, err := p.SignIn(ctx, "huda@kku.edu.sa", "secret123")
	require.NoError(t, err)
	_, err = p.VerifyCredential(ctx, fresh.AccessToken)
	assert.NoError(t, err)
}

func TestMemoryRevocationList(t *testing.T) {
	ctx := context.Background()
	trl := identity.NewMemoryRevocationList()

	revoked, err := trl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, trl.Revoke(ctx, "jti-1", time.Minute))
	revoked, err = trl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	require.NoError(t, trl.Revoke(ctx, "jti-2", -time.Second))
	revoked, err = trl.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@kku.edu.sa", identity.NormalizeEmail(" A@KKU.EDU.SA\t"))
	assert.Equal(t, "", identity.NormalizeEmail("   "))
}
