package auth

import "errors"

var (
	ErrNotFound      = errors.New("auth: not found")
	ErrAlreadyExists = errors.New("auth: already exists")
	ErrInvalidInput  = errors.New("auth: invalid input")

	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrAccountInactive    = errors.New("auth: account is not active")

	// ErrInvalidToken is the only error Verify returns for a rejected token.
	ErrInvalidToken = errors.New("auth: invalid or expired token")

	ErrInvalidResetToken = errors.New("auth: invalid or expired reset token")
)
