package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"scribeai/pkg/models"
)

var (
	// ErrDuplicateEmail is returned when a user with the same email exists.
	ErrDuplicateEmail = errors.New("User with this email already exists")

	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
)

// Repository reads and writes users.
type Repository struct {
	db *DB
}

func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// CreateUser inserts u, filling in ID and CreatedAt when they are empty.
func (r *Repository) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	}

	_, err := r.db.conn.ExecContext(ctx, r.db.rebind(`
		insert into users (id, name, email, email_verified, image, password, created_at)
		values (?, ?, ?, ?, ?, ?, ?)
	`), u.ID, nullString(u.Name), u.Email, nullTime(u.EmailVerified), nullString(u.Image), nullString(u.PasswordHash), u.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	r.db.log.Debug().Str("user_id", u.ID).Msg("User created")
	return nil
}

// GetUserByEmail returns ErrUserNotFound when no user has the email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getUser(ctx, "email", email)
}

// GetUserByID returns ErrUserNotFound when no user has the id.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.getUser(ctx, "id", id)
}

func (r *Repository) getUser(ctx context.Context, column, value string) (*models.User, error) {
	row := r.db.conn.QueryRowContext(ctx, r.db.rebind(`
		select id, name, email, email_verified, image, password, created_at
		from users
		where `+column+` = ?
	`), value)

	var (
		u        models.User
		name     sql.NullString
		verified sql.NullTime
		image    sql.NullString
		password sql.NullString
	)
	err := row.Scan(&u.ID, &name, &u.Email, &verified, &image, &password, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	u.Name = name.String
	u.Image = image.String
	u.PasswordHash = password.String
	if verified.Valid {
		t := verified.Time
		u.EmailVerified = &t
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
