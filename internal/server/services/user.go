package services

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// UserService manages accounts and profiles.
type UserService struct {
	users         users.Repository
	passwords     PasswordHasher
	adminUsername string
	adminPassword string
	logger        logging.Logger
}

func NewUserService(repo users.Repository, passwords PasswordHasher, cfg *config.Config, logger logging.Logger) *UserService {
	return &UserService{
		users:         repo,
		passwords:     passwords,
		adminUsername: cfg.AdminUsername,
		adminPassword: cfg.AdminPassword,
		logger:        logger.With("module", "users"),
	}
}

// Register creates a regular user whose nickname defaults to the username.
func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, common.Invalid("Username is required")
	}
	if password == "" {
		return nil, common.Invalid("Password is required")
	}

	_, err := s.users.GetUserByLogin(ctx, username)
	switch {
	case err == nil:
		return nil, common.Conflict("User already exists")
	case !errors.Is(err, common.ErrorNotFound):
		return nil, common.Storage(err)
	}

	return s.create(ctx, username, password, common.RoleUser)
}

func (s *UserService) create(ctx context.Context, username, password, role string) (*models.User, error) {
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, common.Internal("Create user failed", err)
	}

	nickname := username
	user, err := s.users.Create(ctx, &models.User{
		Username:     username,
		PasswordHash: hash,
		Nickname:     &nickname,
		Role:         role,
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.Conflict("User already exists")
		}
		return nil, common.Storage(err)
	}
	if user.ID == 0 {
		return nil, common.Internal("Create user failed", nil)
	}
	s.logger.Info(ctx, "user registered", "username", username, "role", role)
	return user, nil
}

func (s *UserService) Profile(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NotFound("User not found")
		}
		return nil, common.Storage(err)
	}
	return user, nil
}

// ByID returns the user with id or a KindNotFound error.
func (s *UserService) ByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NotFound("User not found")
		}
		return nil, common.Storage(err)
	}
	return user, nil
}

// UpdateProfile applies the non-nil fields of upd. An empty update returns
// the current profile.
func (s *UserService) UpdateProfile(ctx context.Context, username string, upd models.ProfileUpdate) (*models.User, error) {
	if upd.IsEmpty() {
		return s.Profile(ctx, username)
	}
	user, err := s.users.UpdateProfile(ctx, username, upd)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NotFound("User not found")
		}
		return nil, common.Storage(err)
	}
	return user, nil
}

// EnsureAdmin creates the configured admin account if it does not exist.
func (s *UserService) EnsureAdmin(ctx context.Context) error {
	_, err := s.users.GetUserByLogin(ctx, s.adminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return common.Storage(err)
	}
	_, err = s.create(ctx, s.adminUsername, s.adminPassword, common.RoleAdmin)
	if common.KindOf(err) == common.KindConflict {
		return nil
	}
	return err
}
