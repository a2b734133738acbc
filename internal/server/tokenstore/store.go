// Package tokenstore manages the refresh token lifecycle on top of the
// refresh_tokens repository: issuing, lookup, revocation and single-use
// rotation.
package tokenstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
)

// TokenBytes is the entropy of a refresh token.
const TokenBytes = 32

// Rotation rejections. All of them match common.ErrorNotFound.
var (
	ErrTokenRevoked  = fmt.Errorf("refresh token revoked: %w", common.ErrorNotFound)
	ErrTokenExpired  = fmt.Errorf("refresh token expired: %w", common.ErrorNotFound)
	ErrRotationRaced = fmt.Errorf("refresh token rotated concurrently: %w", common.ErrorNotFound)
)

// createAttempts bounds retries after a token collision.
const createAttempts = 3

type Store struct {
	db       *sql.DB
	repos    repomanager.RepositoryManager
	timeout  time.Duration
	now      func() time.Time
	newToken func() (string, error)
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithTokenGenerator replaces the random token source.
func WithTokenGenerator(gen func() (string, error)) Option {
	return func(s *Store) { s.newToken = gen }
}

// New returns a Store. Each call is bounded by timeout on top of the
// caller's context.
func New(db *sql.DB, repos repomanager.RepositoryManager, timeout time.Duration, opts ...Option) *Store {
	s := &Store{
		db:       db,
		repos:    repos,
		timeout:  timeout,
		now:      time.Now,
		newToken: func() (string, error) { return common.MakeRandURLString(TokenBytes) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Store) record(userID int64, username string, ttl time.Duration) (*models.RefreshToken, error) {
	token, err := s.newToken()
	if err != nil {
		return nil, common.Internal("generate refresh token", err)
	}
	now := s.now().UTC()
	return &models.RefreshToken{
		Token:     token,
		UserID:    userID,
		Username:  username,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}, nil
}

// Create issues a new refresh token for the user, valid for ttl.
func (s *Store) Create(ctx context.Context, userID int64, username string, ttl time.Duration) (*models.RefreshToken, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	repo := s.repos.RefreshTokens(s.db)
	for attempt := 1; ; attempt++ {
		rec, err := s.record(userID, username, ttl)
		if err != nil {
			return nil, err
		}
		created, err := repo.Create(ctx, rec)
		if errors.Is(err, common.ErrorAlreadyExists) && attempt < createAttempts {
			continue
		}
		if err != nil {
			return nil, common.Storage(err)
		}
		return created, nil
	}
}

// FindByToken returns the record for token, revoked or not, or an error
// matching common.ErrorNotFound.
func (s *Store) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rec, err := s.repos.RefreshTokens(s.db).Find(ctx, token)
	switch {
	case err == nil:
		return rec, nil
	case errors.Is(err, common.ErrorNotFound):
		return nil, err
	default:
		return nil, common.Storage(err)
	}
}

// Revoke flips token to revoked. It reports false for absent or already
// revoked tokens, so repeated calls are harmless.
func (s *Store) Revoke(ctx context.Context, token string) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	ok, err := s.repos.RefreshTokens(s.db).Revoke(ctx, token)
	if err != nil {
		return false, common.Storage(err)
	}
	return ok, nil
}

// RevokeAllForUser revokes every valid token of the user.
func (s *Store) RevokeAllForUser(ctx context.Context, userID int64) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	n, err := s.repos.RefreshTokens(s.db).RevokeAllForUser(ctx, userID, s.now().UTC())
	if err != nil {
		return 0, common.Storage(err)
	}
	return n, nil
}

// Rotate exchanges oldToken for a successor in one serializable
// transaction: the old row is locked, checked, revoked with a
// compare-and-swap and the successor inserted. Of any number of
// concurrent rotations of the same token at most one succeeds; the rest
// get an error matching common.ErrorNotFound.
func (s *Store) Rotate(ctx context.Context, oldToken string, ttl time.Duration) (*models.RefreshToken, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var rotated *models.RefreshToken

	err := dbx.WithTx(ctx, s.db, dbx.Serializable, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.RefreshTokens(tx)

		current, err := repo.FindForUpdate(ctx, oldToken)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		if current.Revoked {
			return ErrTokenRevoked
		}
		if !current.ExpiresAt.UTC().After(now) {
			return ErrTokenExpired
		}

		swapped, err := repo.RevokeByID(ctx, current.ID)
		if err != nil {
			return err
		}
		if !swapped {
			return ErrRotationRaced
		}

		next, err := s.record(current.UserID, current.Username, ttl)
		if err != nil {
			return err
		}
		rotated, err = repo.Create(ctx, next)
		return err
	})

	switch {
	case err == nil:
		return rotated, nil
	case errors.Is(err, common.ErrorNotFound):
		return nil, err
	case dbx.IsConcurrencyConflict(err):
		return nil, fmt.Errorf("%w: %w", ErrRotationRaced, err)
	default:
		return nil, common.Storage(err)
	}
}
