package auth

import "time"

// User is a stored credential together with its profile fields.
type User struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	FullName      string     `json:"full_name"`
	Phone         string     `json:"phone"`
	Role          Role       `json:"role"`
	Status        Status     `json:"status"`
	AvatarURL     string     `json:"avatar_url,omitempty"`
	EmailVerified bool       `json:"email_verified"`
	LastLoginAt   *time.Time `json:"last_login,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	ResetTokenHash   string     `json:"-"`
	ResetTokenExpiry *time.Time `json:"-"`
}

// Identity returns the token identity for u.
func (u *User) Identity() Identity {
	return Identity{Subject: u.ID, Email: u.Email, FullName: u.FullName, Role: u.Role}
}

// UserUpdate carries a partial profile update. Nil fields are left untouched.
type UserUpdate struct {
	FullName  *string `json:"full_name,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u UserUpdate) Empty() bool {
	return u.FullName == nil && u.Phone == nil && u.AvatarURL == nil
}

// RegisterInput is the payload accepted by Service.Register.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}
