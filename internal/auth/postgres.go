package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"estatehub.app/internal/ids"
)

const pgErrUniqueViolation = "23505"

var _ UserStore = (*PGStore)(nil)

// PGStore implements UserStore using PostgreSQL.
type PGStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db, now: time.Now}
}

const userColumns = `id, email, password_hash, full_name, phone, role, status, avatar_url,
	email_verified, last_login, reset_token_hash, reset_token_expiry, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var (
		u         User
		avatar    sql.NullString
		resetHash sql.NullString
		lastLogin sql.NullTime
		resetExp  sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Phone, &u.Role, &u.Status,
		&avatar, &u.EmailVerified, &lastLogin, &resetHash, &resetExp, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	u.AvatarURL = avatar.String
	u.ResetTokenHash = resetHash.String
	if lastLogin.Valid {
		t := lastLogin.Time.UTC()
		u.LastLoginAt = &t
	}
	if resetExp.Valid {
		t := resetExp.Time.UTC()
		u.ResetTokenExpiry = &t
	}
	return &u, nil
}

func (s *PGStore) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = ids.New()
	}
	row := s.db.QueryRowContext(ctx, `
		insert into users(id, email, password_hash, full_name, phone, role, status, email_verified)
		values($1,$2,$3,$4,$5,$6,$7,$8)
		returning created_at, updated_at
	`, u.ID, u.Email, u.PasswordHash, u.FullName, u.Phone, u.Role, u.Status, u.EmailVerified)
	if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
			return ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *PGStore) Find(ctx context.Context, id string) (*User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `select `+userColumns+` from users where id=$1`, id))
}

func (s *PGStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `select `+userColumns+` from users where email=$1`, email))
}

func (s *PGStore) ListByRole(ctx context.Context, role Role) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx, `select `+userColumns+` from users where role=$1 order by created_at`, role)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *PGStore) execOne(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return s.execOne(ctx, `update users set last_login=$2, updated_at=now() where id=$1`, id, at.UTC())
}

func (s *PGStore) SetResetToken(ctx context.Context, id, digest string, expiresAt time.Time) error {
	return s.execOne(ctx,
		`update users set reset_token_hash=$2, reset_token_expiry=$3, updated_at=now() where id=$1`,
		id, digest, expiresAt.UTC())
}

func (s *PGStore) ConsumeResetToken(ctx context.Context, digest, passwordHash string, now time.Time) (string, error) {
	if digest == "" {
		return "", ErrInvalidResetToken
	}
	var id string
	err := s.db.QueryRowContext(ctx, `
		update users
		set password_hash=$2, reset_token_hash=null, reset_token_expiry=null, updated_at=now()
		where reset_token_hash=$1 and reset_token_expiry > $3
		returning id
	`, digest, passwordHash, now.UTC()).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrInvalidResetToken
	}
	if err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}
	return id, nil
}

func (s *PGStore) UpdateProfile(ctx context.Context, id string, upd UserUpdate) (*User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `
		update users set
			full_name  = coalesce($2, full_name),
			phone      = coalesce($3, phone),
			avatar_url = coalesce($4, avatar_url),
			updated_at = now()
		where id=$1
		returning `+userColumns,
		id, upd.FullName, upd.Phone, upd.AvatarURL))
}

func (s *PGStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return s.execOne(ctx, `update users set password_hash=$2, updated_at=now() where id=$1`, id, passwordHash)
}
