// Package refreshtokens declares the repository contract for refresh token
// records and its PostgreSQL implementation.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Repository reads and writes refresh_tokens rows. Implementations are
// bound to a dbx.DBTX, so the same code runs inside or outside a
// transaction.
type Repository interface {
	// Create inserts t and returns it with ID and CreatedAt filled in.
	Create(ctx context.Context, t *models.RefreshToken) (*models.RefreshToken, error)

	// Find returns the record for token or common.ErrorNotFound.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// FindForUpdate is Find with a row lock held until the enclosing
	// transaction ends.
	FindForUpdate(ctx context.Context, token string) (*models.RefreshToken, error)

	// Revoke flips a live record identified by token. It reports whether a
	// row changed.
	Revoke(ctx context.Context, token string) (bool, error)

	// RevokeByID flips the record with id if it is not yet revoked.
	RevokeByID(ctx context.Context, id int64) (bool, error)

	// RevokeAllForUser revokes every record of userID still valid at now and
	// returns how many changed.
	RevokeAllForUser(ctx context.Context, userID int64, now time.Time) (int64, error)
}
