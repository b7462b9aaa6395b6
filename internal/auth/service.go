package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

const DefaultResetTTL = time.Hour

// ResetNotifier delivers a raw reset token to the account owner.
type ResetNotifier interface {
	SendPasswordReset(ctx context.Context, u *User, rawToken string, expiresAt time.Time) error
}

type noopNotifier struct{}

func (noopNotifier) SendPasswordReset(context.Context, *User, string, time.Time) error { return nil }

// Service implements the credential lifecycle on top of a UserStore and a
// TokenService.
type Service struct {
	users    UserStore
	tokens   *TokenService
	notifier ResetNotifier
	resetTTL time.Duration
	now      func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithResetNotifier sets the channel used to deliver reset tokens.
func WithResetNotifier(n ResetNotifier) ServiceOption {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithResetTTL sets how long a reset token stays usable.
func WithResetTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.resetTTL = ttl
		}
	}
}

// WithClock overrides the time source.
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

func NewService(users UserStore, tokens *TokenService, opts ...ServiceOption) (*Service, error) {
	if users == nil {
		return nil, errors.New("auth: user store is required")
	}
	if tokens == nil {
		return nil, errors.New("auth: token service is required")
	}
	s := &Service{
		users:    users,
		tokens:   tokens,
		notifier: noopNotifier{},
		resetTTL: DefaultResetTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Tokens exposes the token service for the access gate.
func (s *Service) Tokens() *TokenService { return s.tokens }

// NormalizeEmail trims and lower-cases an address and validates its syntax.
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: email is invalid", ErrInvalidInput)
	}
	return email, nil
}

// Register creates an active account and issues its first token.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, string, error) {
	email, err := NormalizeEmail(in.Email)
	if err != nil {
		return nil, "", err
	}
	if err := ValidatePassword(in.Password); err != nil {
		return nil, "", err
	}
	fullName := strings.TrimSpace(in.FullName)
	if fullName == "" {
		return nil, "", fmt.Errorf("%w: full_name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Phone) == "" {
		return nil, "", fmt.Errorf("%w: phone is required", ErrInvalidInput)
	}
	phone, err := NormalizePhone(in.Phone)
	if err != nil {
		return nil, "", err
	}
	role := RoleTenant
	if strings.TrimSpace(in.Role) != "" {
		if role, err = ParseRole(in.Role); err != nil {
			return nil, "", err
		}
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}
	u := &User{
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		Phone:        phone,
		Role:         role,
		Status:       StatusActive,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, "", err
	}
	token, _, err := s.tokens.Issue(u.Identity())
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Login authenticates by email and password. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}
	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		burnCompare(password)
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if err := VerifyPassword(u.PasswordHash, password); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	if u.Status != StatusActive {
		return nil, "", ErrAccountInactive
	}

	now := s.now().UTC()
	if err := s.users.TouchLastLogin(ctx, u.ID, now); err != nil {
		return nil, "", err
	}
	u.LastLoginAt = &now
	token, _, err := s.tokens.Issue(u.Identity())
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// RequestPasswordReset stores a fresh reset digest for the account, if any,
// and hands the raw token to the notifier. It reports success for unknown
// addresses so callers cannot enumerate accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	raw, digest, err := NewResetToken()
	if err != nil {
		return err
	}
	expiresAt := s.now().UTC().Add(s.resetTTL)
	if err := s.users.SetResetToken(ctx, u.ID, digest, expiresAt); err != nil {
		return err
	}
	return s.notifier.SendPasswordReset(ctx, u, raw, expiresAt)
}

// ResetPassword consumes a reset token and installs the new password.
func (s *Service) ResetPassword(ctx context.Context, rawToken, password string) (string, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return "", fmt.Errorf("%w: token is required", ErrInvalidInput)
	}
	if err := ValidatePassword(password); err != nil {
		return "", err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return s.users.ConsumeResetToken(ctx, HashResetToken(rawToken), hash, s.now().UTC())
}

// Refresh re-issues a token for the identity carried by verified claims.
func (s *Service) Refresh(c *Claims) (string, *Claims, error) {
	if c == nil {
		return "", nil, ErrInvalidToken
	}
	return s.tokens.Issue(c.Identity())
}

// Profile returns the stored account for id.
func (s *Service) Profile(ctx context.Context, id string) (*User, error) {
	return s.users.Find(ctx, id)
}

// UpdateProfile applies a partial update. Phone numbers are normalized.
func (s *Service) UpdateProfile(ctx context.Context, id string, upd UserUpdate) (*User, error) {
	if upd.FullName != nil {
		name := strings.TrimSpace(*upd.FullName)
		if name == "" {
			return nil, fmt.Errorf("%w: full_name cannot be empty", ErrInvalidInput)
		}
		upd.FullName = &name
	}
	if upd.Phone != nil {
		phone, err := NormalizePhone(*upd.Phone)
		if err != nil {
			return nil, err
		}
		upd.Phone = &phone
	}
	if upd.Empty() {
		return nil, fmt.Errorf("%w: no fields to update", ErrInvalidInput)
	}
	return s.users.UpdateProfile(ctx, id, upd)
}

// ChangePassword replaces the password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, id, current, next string) error {
	if current == "" {
		return fmt.Errorf("%w: current_password is required", ErrInvalidInput)
	}
	if err := ValidatePassword(next); err != nil {
		return err
	}
	u, err := s.users.Find(ctx, id)
	if err != nil {
		return err
	}
	if err := VerifyPassword(u.PasswordHash, current); err != nil {
		return ErrInvalidCredentials
	}
	hash, err := HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.users.UpdatePassword(ctx, id, hash)
}
