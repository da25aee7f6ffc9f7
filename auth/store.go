package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/accounts-go/apperror"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pgUniqueViolation = "23505"

// ListParams describes filtering, sorting, and pagination for listing users.
// SortBy and SortOrder must already be normalized against the whitelists
// below; the store rejects anything else rather than interpolating it.
type ListParams struct {
	NameContains  string
	EmailContains string
	SortBy        string // one of: id, name, email
	SortOrder     string // one of: asc, desc
	Page          int
	PerPage       int
}

// UserStore is the credential store: persistence for user records. The auth
// and users services depend on this interface, with PGStore as the
// PostgreSQL implementation.
type UserStore interface {
	Create(ctx context.Context, user *User) (*User, error)
	ByID(ctx context.Context, id int) (*User, error)
	ByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, params ListParams) ([]User, int, error)
}

// PGStore implements UserStore on top of a pgx connection pool.
type PGStore struct {
	db *pgxpool.Pool
}

// NewPGStore creates a new PGStore.
func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

// Create inserts a new user and fills in its server-assigned fields.
// A duplicate email surfaces as a field-level validation error.
func (s *PGStore) Create(ctx context.Context, user *User) (*User, error) {
	query := `INSERT INTO users (name, email, password)
	          VALUES ($1, $2, $3)
	          RETURNING id, created_at, updated_at`
	err := s.db.QueryRow(ctx, query, user.Name, user.Email, user.HashedPassword).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && strings.Contains(pgErr.ConstraintName, "email") {
			return nil, apperror.NewFieldError("email", "The email has already been taken.")
		}
		return nil, apperror.NewDatabaseError("failed to create user", err)
	}
	return user, nil
}

// ByID retrieves a user by primary key.
func (s *PGStore) ByID(ctx context.Context, id int) (*User, error) {
	query := `SELECT id, name, email, password, created_at, updated_at FROM users WHERE id = $1`
	var user User
	err := s.db.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Name, &user.Email, &user.HashedPassword, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError("User not found", nil)
		}
		return nil, apperror.NewDatabaseError("failed to get user by id", err)
	}
	return &user, nil
}

// ByEmail retrieves a user by email. Emails are stored lowercase, so the
// lookup lowercases its argument to match.
func (s *PGStore) ByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT id, name, email, password, created_at, updated_at FROM users WHERE email = $1`
	var user User
	err := s.db.QueryRow(ctx, query, strings.ToLower(email)).Scan(
		&user.ID, &user.Name, &user.Email, &user.HashedPassword, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError("User not found", nil)
		}
		return nil, apperror.NewDatabaseError("failed to get user by email", err)
	}
	return &user, nil
}

// Update persists name, email, and password hash for an existing user.
func (s *PGStore) Update(ctx context.Context, user *User) error {
	query := `UPDATE users SET name = $1, email = $2, password = $3, updated_at = now()
	          WHERE id = $4
	          RETURNING updated_at`
	err := s.db.QueryRow(ctx, query, user.Name, user.Email, user.HashedPassword, user.ID).
		Scan(&user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperror.NewNotFoundError("User not found", nil)
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && strings.Contains(pgErr.ConstraintName, "email") {
			return apperror.NewFieldError("email", "The email has already been taken.")
		}
		return apperror.NewDatabaseError("failed to update user", err)
	}
	return nil
}

// Delete hard-deletes a user record.
func (s *PGStore) Delete(ctx context.Context, id int) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return apperror.NewDatabaseError("failed to delete user", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFoundError("User not found", nil)
	}
	return nil
}

// sortColumns whitelists the columns a client may sort the listing by.
var sortColumns = map[string]bool{"id": true, "name": true, "email": true}

// List returns a page of users matching the filters plus the total match
// count for pagination metadata.
func (s *PGStore) List(ctx context.Context, params ListParams) ([]User, int, error) {
	if !sortColumns[params.SortBy] {
		return nil, 0, apperror.NewBadRequestError(fmt.Sprintf("cannot sort by %q", params.SortBy), nil)
	}
	order := "ASC"
	if strings.EqualFold(params.SortOrder, "desc") {
		order = "DESC"
	}

	var where []string
	var args []interface{}
	argID := 1
	if params.NameContains != "" {
		where = append(where, fmt.Sprintf("name ILIKE $%d", argID))
		args = append(args, "%"+params.NameContains+"%")
		argID++
	}
	if params.EmailContains != "" {
		where = append(where, fmt.Sprintf("email ILIKE $%d", argID))
		args = append(args, "%"+params.EmailContains+"%")
		argID++
	}
	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT count(*) FROM users %s`, whereClause)
	if err := s.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, apperror.NewDatabaseError("failed to count users", err)
	}

	query := fmt.Sprintf(
		`SELECT id, name, email, password, created_at, updated_at FROM users %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		whereClause, params.SortBy, order, argID, argID+1,
	)
	args = append(args, params.PerPage, (params.Page-1)*params.PerPage)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, apperror.NewDatabaseError("failed to list users", err)
	}
	defer rows.Close()

	var result []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.HashedPassword, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, 0, apperror.NewDatabaseError("failed to scan user row", err)
		}
		result = append(result, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperror.NewDatabaseError("failed to iterate user rows", err)
	}

	return result, total, nil
}
