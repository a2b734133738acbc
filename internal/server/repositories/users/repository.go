// Package users declares the repository contract for user accounts and its
// PostgreSQL implementation.
package users

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

type Repository interface {
	// Create inserts user and returns it with ID and timestamps set. A taken
	// username yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetUserByLogin returns the user or common.ErrorNotFound.
	GetUserByLogin(ctx context.Context, username string) (*models.User, error)

	GetUserByID(ctx context.Context, id int64) (*models.User, error)

	// UpdateProfile applies the non-nil fields of upd and returns the
	// updated user, or common.ErrorNotFound.
	UpdateProfile(ctx context.Context, username string, upd models.ProfileUpdate) (*models.User, error)
}
