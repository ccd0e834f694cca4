// Package user implements the User repository using PostgreSQL.
package user

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/adapter/postgres"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/domain"
)

var columns = []string{
	"id", "email", "first_name", "last_name", "password_hash",
	"is_admin", "is_active", "created_at", "updated_at",
}

// Repo provides user persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new user repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// GetByID returns a user by primary key.
func (r *Repo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getOne(ctx, sq.Eq{"id": id}, id)
}

// GetByEmail returns a user by email address. The lookup is case-insensitive
// because stored emails are lower-case.
func (r *Repo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	return r.getOne(ctx, sq.Eq{"email": email}, email)
}

// EnsureSystemUser returns the proxy-authorship user, creating it on first
// use. Concurrent callers converge on the same row.
func (r *Repo) EnsureSystemUser(ctx context.Context) (*domain.User, error) {
	u, err := r.GetByEmail(ctx, domain.SystemUserEmail)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := unusablePasswordHash()
	if err != nil {
		return nil, fmt.Errorf("system user password: %w", err)
	}

	query, args, err := postgres.Builder.
		Insert("users").
		Columns("email", "first_name", "last_name", "password_hash", "is_admin", "is_active").
		Values(domain.SystemUserEmail, "System", "User", hash, false, true).
		Suffix("ON CONFLICT (email) DO NOTHING").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert system user: %w", err)
	}

	if _, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, query, args...); err != nil {
		return nil, postgres.MapError(err, "user", domain.SystemUserEmail)
	}

	return r.GetByEmail(ctx, domain.SystemUserEmail)
}

func (r *Repo) getOne(ctx context.Context, where sq.Sqlizer, key any) (*domain.User, error) {
	query, args, err := postgres.Builder.
		Select(columns...).
		From("users").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user: %w", err)
	}

	u, err := scanUser(postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, postgres.MapError(err, "user", key)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash,
		&u.IsAdmin, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// unusablePasswordHash hashes random bytes nobody knows, so the account can
// exist without ever being able to log in.
func unusablePasswordHash() (string, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword(secret, bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
