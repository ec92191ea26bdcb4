package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// Session is the result of a successful register, login or refresh.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         *domain.User
}

// Service registers users and issues token pairs.
type Service interface {
	// Register creates a USER account and signs it in. An email that is
	// already registered yields store.ErrEmailExists.
	Register(ctx context.Context, email, name, password string) (*Session, error)

	// Login exchanges credentials for a token pair.
	Login(ctx context.Context, email, password string) (*Session, error)

	// Refresh exchanges a refresh token for a new token pair. Tokens of
	// deleted users are rejected.
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
}

type service struct {
	users    store.UserStore
	tokens   JWTService
	hasher   PasswordHasher
	verifier PasswordVerifier
	logger   *slog.Logger
}

var _ Service = (*service)(nil)

// NewService creates an authentication Service.
func NewService(
	users store.UserStore,
	tokens JWTService,
	hasher PasswordHasher,
	verifier PasswordVerifier,
	logger *slog.Logger,
) (Service, error) {
	if users == nil {
		return nil, domain.NewValidationError("users", "cannot be nil", domain.ErrValidation)
	}
	if tokens == nil {
		return nil, domain.NewValidationError("tokens", "cannot be nil", domain.ErrValidation)
	}
	if hasher == nil {
		return nil, domain.NewValidationError("hasher", "cannot be nil", domain.ErrValidation)
	}
	if verifier == nil {
		return nil, domain.NewValidationError("verifier", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &service{
		users:    users,
		tokens:   tokens,
		hasher:   hasher,
		verifier: verifier,
		logger:   logger.With(slog.String("component", "auth_service")),
	}, nil
}

// Register implements Service.
func (s *service) Register(ctx context.Context, email, name, password string) (*Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	user, err := domain.NewUser(email, name, hashed)
	if err != nil {
		return nil, domain.NewValidationError("user", err.Error(), err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		if !errors.Is(err, store.ErrEmailExists) {
			log.Error("failed to create user", slog.String("error", err.Error()))
		}
		return nil, err
	}

	log.Info("user registered", slog.String("user_id", user.ID.String()))
	return s.issue(ctx, user)
}

// Login implements Service.
func (s *service) Login(ctx context.Context, email, password string) (*Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Debug("login for unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
		log.Debug("login with wrong password", slog.String("user_id", user.ID.String()))
		return nil, ErrInvalidCredentials
	}

	return s.issue(ctx, user)
}

// Refresh implements Service.
func (s *service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := s.tokens.ValidateRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	return s.issue(ctx, user)
}

func (s *service) issue(ctx context.Context, user *domain.User) (*Session, error) {
	access, err := s.tokens.GenerateToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.GenerateRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	claims, err := s.tokens.ValidateToken(ctx, access)
	if err != nil {
		return nil, err
	}
	return &Session{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    claims.ExpiresAt,
		User:         user,
	}, nil
}

// UserIDFromClaims returns the user the claims were issued for.
func UserIDFromClaims(c *Claims) (uuid.UUID, error) {
	if c == nil || c.UserID == uuid.Nil {
		return uuid.Nil, ErrInvalidToken
	}
	return c.UserID, nil
}
