package users

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

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, username, password_hash, nickname, email, avatar_url, role, is_active, created_at, updated_at`

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (username, password_hash, nickname, email, avatar_url, role, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	created := *user
	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.PasswordHash, user.Nickname, user.Email, user.AvatarURL, user.Role, user.IsActive,
	).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, fmt.Errorf("username %q: %w", user.Username, common.ErrorAlreadyExists)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &created, nil
}

func (r *PostgresRepository) GetUserByLogin(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, username))
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, username string, upd models.ProfileUpdate) (*models.User, error) {
	query := `
		UPDATE users
		SET nickname = COALESCE($2, nickname),
		    email = COALESCE($3, email),
		    avatar_url = COALESCE($4, avatar_url),
		    updated_at = $5
		WHERE username = $1
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, query,
		username, upd.Nickname, upd.Email, upd.AvatarURL, time.Now().UTC()))
}

func scanUser(row *sql.Row) (*models.User, error) {
	var (
		u                       models.User
		nickname, email, avatar sql.NullString
	)
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &nickname, &email, &avatar,
		&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	u.Nickname = nullable(nickname)
	u.Email = nullable(email)
	u.AvatarURL = nullable(avatar)
	return &u, nil
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
