// Package services contains the server-side business logic: the token
// lifecycle (AuthService) and user accounts (UserService).
package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// TokenPair is what a client receives after login or refresh.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	ExpiresIn        int
	RefreshExpiresIn int
}

// RefreshTokenStore is the persistence AuthService needs; see
// tokenstore.Store.
type RefreshTokenStore interface {
	Create(ctx context.Context, userID int64, username string, ttl time.Duration) (*models.RefreshToken, error)
	Revoke(ctx context.Context, token string) (bool, error)
	RevokeAllForUser(ctx context.Context, userID int64) (int64, error)
	Rotate(ctx context.Context, oldToken string, ttl time.Duration) (*models.RefreshToken, error)
}

type UserFinder interface {
	GetUserByLogin(ctx context.Context, username string) (*models.User, error)
}

type TokenCodec interface {
	Encode(subject string, issuedAt time.Time, ttl time.Duration) (string, error)
	Decode(token string) (*auth.Claims, error)
}

// AuthService issues, verifies, rotates and revokes tokens.
type AuthService struct {
	users      UserFinder
	store      RefreshTokenStore
	codec      TokenCodec
	passwords  PasswordHasher
	dummyHash  string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	logger     logging.Logger
}

// NewAuthService wires the service. A throwaway hash is computed up front so
// that logins for unknown users cost one password comparison as well.
func NewAuthService(users UserFinder, store RefreshTokenStore, codec TokenCodec, passwords PasswordHasher,
	cfg *config.Config, logger logging.Logger) *AuthService {
	s := &AuthService{
		users:      users,
		store:      store,
		codec:      codec,
		passwords:  passwords,
		accessTTL:  cfg.AccessTokenValidityDuration,
		refreshTTL: cfg.RefreshTokenValidityDuration,
		now:        time.Now,
		logger:     logger.With("module", "auth"),
	}

	dummy, err := common.MakeRandURLString(16)
	if err == nil {
		s.dummyHash, err = passwords.Hash(dummy)
	}
	if err != nil {
		s.logger.Warn(context.Background(), "dummy password hash not prepared", "error", err)
	}
	return s
}

var errInvalidCredentials = common.Unauthorized("Invalid credentials", nil)

// Login checks username and password and issues a token pair. Unknown
// users, wrong passwords and inactive accounts are indistinguishable.
func (s *AuthService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.users.GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.passwords.Verify(s.dummyHash, password)
			s.logger.Info(ctx, "login rejected", "username", username, "reason", "unknown user")
			return nil, errInvalidCredentials
		}
		s.logger.Error(ctx, "user lookup failed", "username", username, "error", err)
		return nil, common.Storage(err)
	}

	if !s.passwords.Verify(user.PasswordHash, password) {
		s.logger.Info(ctx, "login rejected", "username", username, "reason", "password mismatch")
		return nil, errInvalidCredentials
	}
	if !user.IsActive {
		s.logger.Info(ctx, "login rejected", "username", username, "reason", "inactive")
		return nil, errInvalidCredentials
	}

	pair, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "login succeeded", "username", username)
	return pair, nil
}

func (s *AuthService) issue(ctx context.Context, user *models.User) (*TokenPair, error) {
	if user.ID == 0 {
		return nil, common.Internal("User ID is required for token creation", nil)
	}

	access, err := s.codec.Encode(user.Username, s.now(), s.accessTTL)
	if err != nil {
		return nil, common.Internal("Token creation failed", err)
	}
	refresh, err := s.store.Create(ctx, user.ID, user.Username, s.refreshTTL)
	if err != nil {
		s.logger.Error(ctx, "refresh token not stored", "username", user.Username, "error", err)
		return nil, err
	}
	return s.pair(access, refresh.Token), nil
}

func (s *AuthService) pair(access, refresh string) *TokenPair {
	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		ExpiresIn:        int(s.accessTTL / time.Second),
		RefreshExpiresIn: int(s.refreshTTL / time.Second),
	}
}

// Verify decodes an access token and returns its subject.
func (s *AuthService) Verify(_ context.Context, accessToken string) (string, error) {
	claims, err := s.codec.Decode(accessToken)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return "", common.Unauthorized("Token expired", err)
		}
		return "", common.Unauthorized("Invalid token", err)
	}
	return claims.Subject, nil
}

// Refresh rotates refreshToken and issues a new pair. Once the rotation
// commits the presented token is spent; a storage failure rolls it back and
// leaves the token usable.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	next, err := s.store.Rotate(ctx, refreshToken, s.refreshTTL)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "refresh rejected", "reason", err.Error())
			return nil, common.Unauthorized("Invalid or expired refresh token", nil)
		}
		s.logger.Error(ctx, "refresh failed", "error", err)
		return nil, common.Storage(err)
	}

	access, err := s.codec.Encode(next.Username, s.now(), s.accessTTL)
	if err != nil {
		return nil, common.Internal("Token creation failed", err)
	}
	s.logger.Info(ctx, "tokens refreshed", "username", next.Username)
	return s.pair(access, next.Token), nil
}

// Logout revokes refreshToken. It never fails from the caller's point of
// view; storage problems are only logged.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	revoked, err := s.store.Revoke(ctx, refreshToken)
	if err != nil {
		s.logger.Error(ctx, "logout revoke failed", "error", err)
		return
	}
	s.logger.Info(ctx, "logout", "revoked", revoked)
}

// RevokeAllForUser ends every session of the user.
func (s *AuthService) RevokeAllForUser(ctx context.Context, userID int64) (int64, error) {
	n, err := s.store.RevokeAllForUser(ctx, userID)
	if err != nil {
		s.logger.Error(ctx, "revoke all failed", "user_id", userID, "error", err)
		return 0, err
	}
	s.logger.Info(ctx, "revoked all refresh tokens", "user_id", userID, "count", n)
	return n, nil
}
