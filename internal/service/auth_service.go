package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"userhub/internal/blacklist"
	"userhub/internal/cache"
	"userhub/internal/models"
	"userhub/internal/repository"
	"userhub/internal/security"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = repository.ErrEmailTaken
	ErrUserNotFound       = repository.ErrUserNotFound
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrWrongTokenType     = errors.New("refresh token required")
)

type AuthService struct {
	users   UserStore
	codec   *security.TokenCodec
	revoked *blacklist.Blacklist
	cache   *cache.Store
	log     zerolog.Logger
}

func NewAuthService(
	users UserStore,
	codec *security.TokenCodec,
	revoked *blacklist.Blacklist,
	cacheStore *cache.Store,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:   users,
		codec:   codec,
		revoked: revoked,
		cache:   cacheStore,
		log:     log,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// Register creates a user. A duplicate email is a checked store result, not
// an inferred exception: callers always get ErrEmailTaken and map it to 409.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (models.User, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))

	role := models.UserRoleUser
	if models.ValidRole(input.Role) {
		role = models.UserRole(input.Role)
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: passwordHash,
		Role:         role,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return models.User{}, err
	}

	s.cache.InvalidatePrefix(ctx, listCachePrefix)
	s.log.Info().Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")
	return user, nil
}

// Authenticate returns ErrInvalidCredentials on any mismatch without
// distinguishing an unknown email from a wrong password.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}

	if !security.VerifyPassword(password, user.PasswordHash) {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

func (s *AuthService) IssueTokens(user models.User, fingerprint string) (TokenPair, error) {
	access, err := s.codec.IssueAccess(user, fingerprint)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.codec.IssueRefresh(user, fingerprint)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Rotate exchanges a refresh token for a fresh pair. Bumping token_version
// invalidates every previously issued access and refresh token for the user,
// a single global rotation rather than per-token state.
func (s *AuthService) Rotate(ctx context.Context, refreshToken, fingerprint string) (TokenPair, error) {
	claims, err := s.codec.Parse(refreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	if claims.TokenType != security.TokenTypeRefresh {
		return TokenPair{}, ErrWrongTokenType
	}

	userID, err := claims.UserID()
	if err != nil {
		return TokenPair{}, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return TokenPair{}, err
	}

	if claims.Version != user.TokenVersion {
		return TokenPair{}, ErrTokenRevoked
	}

	version, err := s.users.IncrementTokenVersion(ctx, user.ID)
	if err != nil {
		return TokenPair{}, err
	}
	user.TokenVersion = version

	s.log.Info().Int64("user_id", user.ID).Int("token_version", version).Msg("refresh rotated")
	return s.IssueTokens(user, fingerprint)
}

// RevokeAll bumps token_version, invalidating every outstanding token.
func (s *AuthService) RevokeAll(ctx context.Context, userID int64) error {
	version, err := s.users.IncrementTokenVersion(ctx, userID)
	if err != nil {
		return err
	}
	s.log.Info().Int64("user_id", userID).Int("token_version", version).Msg("all tokens revoked")
	return nil
}

// Logout blacklists a single token id until its natural expiry, narrower than
// RevokeAll: other tokens for the same user stay valid.
func (s *AuthService) Logout(ctx context.Context, claims *security.Claims) {
	ttl := s.codec.AccessTTL()
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	s.revoked.Add(ctx, claims.ID, ttl)
	s.log.Info().Str("jti", claims.ID).Msg("token blacklisted")
}
