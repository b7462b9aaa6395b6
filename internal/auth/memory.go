package auth

import (
	"context"
	"sort"
	"sync"
	"time"

	"estatehub.app/internal/ids"
)

var _ UserStore = (*MemoryStore)(nil)

// MemoryStore is an in-process UserStore used when no database is configured
// and in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*User
	byEmail map[string]string
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]*User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func cloneUser(u *User) *User {
	cp := *u
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		cp.LastLoginAt = &t
	}
	if u.ResetTokenExpiry != nil {
		t := *u.ResetTokenExpiry
		cp.ResetTokenExpiry = &t
	}
	return &cp
}

func (s *MemoryStore) Create(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail[u.Email]; taken {
		return ErrAlreadyExists
	}
	if u.ID == "" {
		u.ID = ids.New()
	}
	now := s.now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	s.byID[u.ID] = cloneUser(u)
	s.byEmail[u.Email] = u.ID
	return nil
}

func (s *MemoryStore) Find(_ context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(s.byID[id]), nil
}

func (s *MemoryStore) ListByRole(_ context.Context, role Role) ([]*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*User
	for _, u := range s.byID {
		if u.Role == role {
			out = append(out, cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) mutate(id string, fn func(u *User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	fn(u)
	u.UpdatedAt = s.now().UTC()
	return nil
}

func (s *MemoryStore) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	return s.mutate(id, func(u *User) {
		at := at.UTC()
		u.LastLoginAt = &at
	})
}

func (s *MemoryStore) SetResetToken(_ context.Context, id, digest string, expiresAt time.Time) error {
	return s.mutate(id, func(u *User) {
		exp := expiresAt.UTC()
		u.ResetTokenHash = digest
		u.ResetTokenExpiry = &exp
	})
}

func (s *MemoryStore) ConsumeResetToken(_ context.Context, digest, passwordHash string, now time.Time) (string, error) {
	if digest == "" {
		return "", ErrInvalidResetToken
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.ResetTokenHash != digest || u.ResetTokenExpiry == nil || !u.ResetTokenExpiry.After(now) {
			continue
		}
		u.PasswordHash = passwordHash
		u.ResetTokenHash = ""
		u.ResetTokenExpiry = nil
		u.UpdatedAt = s.now().UTC()
		return u.ID, nil
	}
	return "", ErrInvalidResetToken
}

func (s *MemoryStore) UpdateProfile(_ context.Context, id string, upd UserUpdate) (*User, error) {
	var out *User
	err := s.mutate(id, func(u *User) {
		if upd.FullName != nil {
			u.FullName = *upd.FullName
		}
		if upd.Phone != nil {
			u.Phone = *upd.Phone
		}
		if upd.AvatarURL != nil {
			u.AvatarURL = *upd.AvatarURL
		}
		out = u
	})
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneUser(out), nil
}

func (s *MemoryStore) UpdatePassword(_ context.Context, id, passwordHash string) error {
	return s.mutate(id, func(u *User) { u.PasswordHash = passwordHash })
}

// SetStatus changes an account's status. Administrative tooling and tests use it.
func (s *MemoryStore) SetStatus(id string, st Status) error {
	return s.mutate(id, func(u *User) { u.Status = st })
}
