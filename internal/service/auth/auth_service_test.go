package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/config"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/mocks"
	"github.com/phrazzld/taskboard-api/internal/service/auth"
	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) (auth.Service, *mocks.MemoryDB, auth.JWTService) {
	t.Helper()

	db := mocks.NewMemoryDB()
	users, _, _ := db.Stores()
	tokens, err := auth.NewJWTService(config.AuthConfig{
		JWTSecret:                   "auth-service-test-secret-of-32-chars!",
		TokenLifetimeMinutes:        15,
		RefreshTokenLifetimeMinutes: 60,
	})
	require.NoError(t, err)

	pw := &mocks.MockPasswordVerifier{}
	svc, err := auth.NewService(users, tokens, pw, pw, nil)
	require.NoError(t, err)
	return svc, db, tokens
}

func TestService_RegisterAndLogin(t *testing.T) {
	t.Parallel()
	svc, _, tokens := newAuthService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, "New.User@Example.com", "New User", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "new.user@example.com", session.User.Email)
	assert.Equal(t, domain.RoleUser, session.User.Role)
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)

	claims, err := tokens.ValidateToken(ctx, session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.UserID)

	login, err := svc.Login(ctx, "NEW.USER@example.com ", "secret123")
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, login.User.ID)

	_, err = svc.Register(ctx, "new.user@example.com", "Dup", "secret123")
	assert.ErrorIs(t, err, store.ErrEmailExists)
}

func TestService_LoginFailuresAreIndistinguishable(t *testing.T) {
	t.Parallel()
	svc, _, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "known@example.com", "Known", "right-password")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "known@example.com", "wrong-password")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "unknown@example.com", "right-password")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestService_Refresh(t *testing.T) {
	t.Parallel()
	svc, db, _ := newAuthService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, "refresh@example.com", "Refresh", "secret123")
	require.NoError(t, err)

	renewed, err := svc.Refresh(ctx, session.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, renewed.User.ID)

	_, err = svc.Refresh(ctx, session.AccessToken)
	assert.ErrorIs(t, err, auth.ErrWrongTokenType)

	users, _, _ := db.Stores()
	_, err = users.SoftDelete(ctx, session.User.ID)
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, session.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
}

func TestService_StoreFailureIsNotAnAuthError(t *testing.T) {
	t.Parallel()

	users := mocks.NewMockUserStore()
	boom := errors.New("connection reset")
	users.GetByEmailFn = func(context.Context, string) (*domain.User, error) { return nil, boom }

	pw := &mocks.MockPasswordVerifier{}
	svc, err := auth.NewService(users, &mocks.MockJWTService{}, pw, pw, nil)
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "a@example.com", "x")
	assert.ErrorIs(t, err, boom)
	assert.False(t, auth.IsAuthError(err))
}

func TestNewService_RequiresDependencies(t *testing.T) {
	t.Parallel()

	_, err := auth.NewService(nil, &mocks.MockJWTService{}, auth.NewBcrypt(4), auth.NewBcrypt(4), nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestBcrypt_HashAndCompare(t *testing.T) {
	t.Parallel()

	b := auth.NewBcrypt(4)
	hashed, err := b.Hash("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hashed)
	assert.NoError(t, b.Compare(hashed, "password123"))
	assert.Error(t, b.Compare(hashed, "password124"))
}

func TestUserIDFromClaims(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	got, err := auth.UserIDFromClaims(&auth.Claims{UserID: id})
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = auth.UserIDFromClaims(nil)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
