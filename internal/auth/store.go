package auth

import (
	"context"
	"time"
)

// UserStore describes persistence operations required by the auth subsystem.
type UserStore interface {
	// Create inserts u. A duplicate email yields ErrAlreadyExists.
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	ListByRole(ctx context.Context, role Role) ([]*User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	SetResetToken(ctx context.Context, id, digest string, expiresAt time.Time) error
	// ConsumeResetToken swaps the password hash and clears the reset token in
	// one step, provided digest matches and has not expired at now.
	ConsumeResetToken(ctx context.Context, digest, passwordHash string, now time.Time) (string, error)
	UpdateProfile(ctx context.Context, id string, upd UserUpdate) (*User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}
