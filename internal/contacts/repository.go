package contacts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-crm/meridian/internal/platform/db"
)

// Repository defines data access for contacts. Every operation is
// scoped to the owning user; rows belonging to other users read as
// missing.
type Repository interface {
	Create(ctx context.Context, c Contact) (*Contact, error)
	Get(ctx context.Context, userID, id int64) (*Contact, error)
	List(ctx context.Context, userID int64, filter ListFilter) ([]Contact, int, error)
	ListAll(ctx context.Context, userID int64) ([]Contact, error)
	Update(ctx context.Context, userID, id int64, patch Patch) (*Contact, error)
	Delete(ctx context.Context, userID, id int64) error
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const contactColumns = `id, user_id, first_name, last_name, email, phone, birthday, notes, created_at, updated_at`

func scanContact(row pgx.Row) (*Contact, error) {
	var (
		c         Contact
		birthday  pgtype.Date
		notes     pgtype.Text
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	if err := row.Scan(&c.ID, &c.UserID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &birthday, &notes, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	c.Birthday = birthday.Time
	c.Notes = notes.String
	c.CreatedAt = createdAt.Time
	c.UpdatedAt = updatedAt.Time
	return &c, nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrEmailExists
	}
	return err
}

// Create inserts a new contact.
func (r *PGRepository) Create(ctx context.Context, c Contact) (*Contact, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO contacts (user_id, first_name, last_name, email, phone, birthday, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+contactColumns,
		c.UserID, c.FirstName, c.LastName, c.Email, c.Phone, c.Birthday,
		pgtype.Text{String: c.Notes, Valid: c.Notes != ""})
	created, err := scanContact(row)
	if err != nil {
		return nil, mapUniqueViolation(err)
	}
	return created, nil
}

// Get fetches one contact owned by userID.
func (r *PGRepository) Get(ctx context.Context, userID, id int64) (*Contact, error) {
	return scanContact(r.pool.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = $1 AND user_id = $2`, id, userID))
}

func buildSearchClause(filter ListFilter, args *[]interface{}) string {
	var clauses []string
	arg := func(pattern string) string {
		*args = append(*args, pattern)
		return fmt.Sprintf("$%d", len(*args))
	}
	if filter.Query != "" {
		p := "%" + filter.Query + "%"
		n := arg(p)
		clauses = append(clauses, fmt.Sprintf("(first_name ILIKE %s OR last_name ILIKE %s OR email ILIKE %s)", n, n, n))
	}
	if filter.FirstName != "" {
		clauses = append(clauses, "first_name ILIKE "+arg("%"+filter.FirstName+"%"))
	}
	if filter.LastName != "" {
		clauses = append(clauses, "last_name ILIKE "+arg("%"+filter.LastName+"%"))
	}
	if filter.Email != "" {
		clauses = append(clauses, "email ILIKE "+arg("%"+filter.Email+"%"))
	}
	if len(clauses) == 0 {
		return ""
	}
	return " AND " + strings.Join(clauses, " AND ")
}

// List returns a page of contacts plus the total match count.
func (r *PGRepository) List(ctx context.Context, userID int64, filter ListFilter) ([]Contact, int, error) {
	args := []interface{}{userID}
	where := `WHERE user_id = $1` + buildSearchClause(filter, &args)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM contacts `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM contacts %s ORDER BY last_name, first_name, id LIMIT $%d OFFSET $%d`,
		contactColumns, where, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

// ListAll returns every contact owned by userID, used by the birthday
// lookahead which needs year-rollover arithmetic in application code.
func (r *PGRepository) ListAll(ctx context.Context, userID int64) ([]Contact, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+contactColumns+` FROM contacts WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

// Update applies a partial update inside a transaction so the
// read-modify-write cannot interleave with a concurrent patch.
func (r *PGRepository) Update(ctx context.Context, userID, id int64, patch Patch) (*Contact, error) {
	var updated *Contact
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		current, err := scanContact(tx.QueryRow(ctx,
			`SELECT `+contactColumns+` FROM contacts WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID))
		if err != nil {
			return err
		}
		if patch.FirstName != nil {
			current.FirstName = *patch.FirstName
		}
		if patch.LastName != nil {
			current.LastName = *patch.LastName
		}
		if patch.Email != nil {
			current.Email = *patch.Email
		}
		if patch.Phone != nil {
			current.Phone = *patch.Phone
		}
		if patch.Birthday != nil {
			current.Birthday = *patch.Birthday
		}
		if patch.Notes != nil {
			current.Notes = *patch.Notes
		}
		row := tx.QueryRow(ctx, `
			UPDATE contacts
			SET first_name = $3, last_name = $4, email = $5, phone = $6, birthday = $7, notes = $8, updated_at = now()
			WHERE id = $1 AND user_id = $2
			RETURNING `+contactColumns,
			id, userID, current.FirstName, current.LastName, current.Email, current.Phone, current.Birthday,
			pgtype.Text{String: current.Notes, Valid: current.Notes != ""})
		updated, err = scanContact(row)
		return err
	})
	if err != nil {
		return nil, mapUniqueViolation(err)
	}
	return updated, nil
}

// Delete removes a contact owned by userID.
func (r *PGRepository) Delete(ctx context.Context, userID, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM contacts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
