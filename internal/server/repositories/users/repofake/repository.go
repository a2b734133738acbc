// Package repofake is an in-memory users.Repository for tests.
package repofake

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

type Repository struct {
	mu     sync.Mutex
	nextID int64
	users  map[string]*models.User

	// Err, when set, is returned by every operation.
	Err error
	// SkipIDs makes Create return users without an id.
	SkipIDs bool
}

func New() *Repository {
	return &Repository{users: make(map[string]*models.User)}
}

func (r *Repository) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	if _, ok := r.users[user.Username]; ok {
		return nil, fmt.Errorf("username %q: %w", user.Username, common.ErrorAlreadyExists)
	}
	u := *user
	if !r.SkipIDs {
		r.nextID++
		u.ID = r.nextID
	}
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	r.users[u.Username] = &u
	cp := u
	return &cp, nil
}

func (r *Repository) GetUserByLogin(_ context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	u, ok := r.users[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *Repository) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	for _, u := range r.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *Repository) UpdateProfile(_ context.Context, username string, upd models.ProfileUpdate) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	u, ok := r.users[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if upd.Nickname != nil {
		u.Nickname = upd.Nickname
	}
	if upd.Email != nil {
		u.Email = upd.Email
	}
	if upd.AvatarURL != nil {
		u.AvatarURL = upd.AvatarURL
	}
	u.UpdatedAt = time.Now().UTC()
	cp := *u
	return &cp, nil
}

// Put stores u as is, replacing any user with the same username.
func (r *Repository) Put(u *models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.users[u.Username] = &cp
	if u.ID > r.nextID {
		r.nextID = u.ID
	}
}
