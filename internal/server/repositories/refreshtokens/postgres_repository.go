package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectColumns = `id, token, user_id, username, expires_at, revoked, created_at`

func (r *PostgresRepository) Create(ctx context.Context, t *models.RefreshToken) (*models.RefreshToken, error) {
	query := `
		INSERT INTO refresh_tokens (token, user_id, username, expires_at, revoked, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	created := *t
	err := r.db.QueryRowContext(ctx, query,
		t.Token, t.UserID, t.Username, t.ExpiresAt.UTC(), t.Revoked, t.CreatedAt.UTC(),
	).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, fmt.Errorf("refresh token collision: %w", common.ErrorAlreadyExists)
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return &created, nil
}

func (r *PostgresRepository) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM refresh_tokens
		WHERE token = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, token))
}

func (r *PostgresRepository) FindForUpdate(ctx context.Context, token string) (*models.RefreshToken, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM refresh_tokens
		WHERE token = $1
		FOR UPDATE
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, token))
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.RefreshToken, error) {
	t := &models.RefreshToken{}
	err := row.Scan(&t.ID, &t.Token, &t.UserID, &t.Username, &t.ExpiresAt, &t.Revoked, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	t.ExpiresAt = t.ExpiresAt.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	return t, nil
}

func (r *PostgresRepository) Revoke(ctx context.Context, token string) (bool, error) {
	query := `
		UPDATE refresh_tokens
		SET revoked = TRUE
		WHERE token = $1 AND revoked = FALSE
	`
	return r.execChanged(ctx, query, token)
}

func (r *PostgresRepository) RevokeByID(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE refresh_tokens
		SET revoked = TRUE
		WHERE id = $1 AND revoked = FALSE
	`
	return r.execChanged(ctx, query, id)
}

func (r *PostgresRepository) RevokeAllForUser(ctx context.Context, userID int64, now time.Time) (int64, error) {
	query := `
		UPDATE refresh_tokens
		SET revoked = TRUE
		WHERE user_id = $1 AND revoked = FALSE AND expires_at > $2
	`
	res, err := r.db.ExecContext(ctx, query, userID, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) execChanged(ctx context.Context, query string, arg any) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, arg)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}
