// Package storefake is an in-memory refresh token store for service tests.
// Every operation holds one mutex, which gives the same single-winner
// rotation guarantee as the PostgreSQL store.
package storefake

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/tokenstore"
)

type Store struct {
	mu     sync.Mutex
	now    func() time.Time
	nextID int64
	byTok  map[string]*models.RefreshToken

	// Err, when set, is returned by every operation as a storage failure.
	Err error
}

func New(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{now: now, byTok: make(map[string]*models.RefreshToken)}
}

func (s *Store) failure() error {
	if s.Err != nil {
		return common.Storage(s.Err)
	}
	return nil
}

func (s *Store) insert(userID int64, username string, ttl time.Duration) (*models.RefreshToken, error) {
	token, err := common.MakeRandURLString(tokenstore.TokenBytes)
	if err != nil {
		return nil, err
	}
	s.nextID++
	now := s.now().UTC()
	rec := &models.RefreshToken{
		ID:        s.nextID,
		Token:     token,
		UserID:    userID,
		Username:  username,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	s.byTok[token] = rec
	cp := *rec
	return &cp, nil
}

func (s *Store) Create(_ context.Context, userID int64, username string, ttl time.Duration) (*models.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(); err != nil {
		return nil, err
	}
	return s.insert(userID, username, ttl)
}

func (s *Store) FindByToken(_ context.Context, token string) (*models.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(); err != nil {
		return nil, err
	}
	rec, ok := s.byTok[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *Store) Revoke(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(); err != nil {
		return false, err
	}
	rec, ok := s.byTok[token]
	if !ok || rec.Revoked {
		return false, nil
	}
	rec.Revoked = true
	return true, nil
}

func (s *Store) RevokeAllForUser(_ context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(); err != nil {
		return 0, err
	}
	var n int64
	now := s.now()
	for _, rec := range s.byTok {
		if rec.UserID == userID && rec.IsValid(now) {
			rec.Revoked = true
			n++
		}
	}
	return n, nil
}

func (s *Store) Rotate(_ context.Context, oldToken string, ttl time.Duration) (*models.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(); err != nil {
		return nil, err
	}
	rec, ok := s.byTok[oldToken]
	switch {
	case !ok:
		return nil, fmt.Errorf("refresh token absent: %w", common.ErrorNotFound)
	case rec.Revoked:
		return nil, tokenstore.ErrTokenRevoked
	case !rec.IsValid(s.now()):
		return nil, tokenstore.ErrTokenExpired
	}
	rec.Revoked = true
	return s.insert(rec.UserID, rec.Username, ttl)
}

// Len returns the number of stored records, revoked ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byTok)
}
