package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-crm/meridian/internal/auth"
)

// Repository defines the persistence operations the users module needs.
type Repository interface {
	GetUser(ctx context.Context, id int64) (*auth.User, error)
	UpdateAvatar(ctx context.Context, id int64, avatarURL string) error
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// GetUser fetches a user by id.
func (r *PGRepository) GetUser(ctx context.Context, id int64) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, full_name, avatar_url, is_active, is_verified, role, created_at, updated_at
		FROM users WHERE id = $1`, id)
	var (
		u         auth.User
		fullName  pgtype.Text
		avatarURL pgtype.Text
		role      string
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &fullName, &avatarURL, &u.IsActive, &u.IsVerified, &role, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrNotFound
		}
		return nil, err
	}
	u.FullName = fullName.String
	u.AvatarURL = avatarURL.String
	u.CreatedAt = createdAt.Time
	u.UpdatedAt = updatedAt.Time
	parsed, err := auth.ParseRole(role)
	if err != nil {
		return nil, err
	}
	u.Role = parsed
	return &u, nil
}

// UpdateAvatar stores a new avatar URL.
func (r *PGRepository) UpdateAvatar(ctx context.Context, id int64, avatarURL string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET avatar_url = $2, updated_at = now() WHERE id = $1`, id, avatarURL)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
