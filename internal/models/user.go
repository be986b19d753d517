package models

import (
	"time"
)

// User represents a registered author or reader.
// Email and PasswordHash never leave the service; use NewProfile for output.
type User struct {
	ID           int64     `json:"-" db:"id"`
	Username     string    `json:"-" db:"username"`
	Email        string    `json:"-" db:"email"`
	PasswordHash string    `json:"-" db:"password"`
	Bio          string    `json:"-" db:"bio"`
	Image        string    `json:"-" db:"image"`
	CreatedAt    time.Time `json:"-" db:"created_at"`
	UpdatedAt    time.Time `json:"-" db:"updated_at"`
}

// Profile is the public view of a User
type Profile struct {
	Username  string `json:"username"`
	Bio       string `json:"bio"`
	Image     string `json:"image"`
	Following bool   `json:"following"`
}

// NewProfile copies the allow-listed fields of u into a Profile.
// This is the only place a User is converted for output.
func NewProfile(u *User, following bool) Profile {
	if u == nil {
		return Profile{}
	}
	return Profile{
		Username:  u.Username,
		Bio:       u.Bio,
		Image:     u.Image,
		Following: following,
	}
}

// ProfileResponse wraps a single profile
type ProfileResponse struct {
	Profile Profile `json:"profile"`
}

// UserInput is the payload for creating a user record.
// Credentials are verified upstream and are not accepted here.
type UserInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Bio      string `json:"bio"`
	Image    string `json:"image"`
}

// UserPatch carries the optional fields of a user update.
// Nil fields are left untouched; an empty string clears the field.
type UserPatch struct {
	Bio   *string `json:"bio"`
	Image *string `json:"image"`
}

// Apply merges the non-nil patch fields into u
func (p UserPatch) Apply(u *User) {
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.Image != nil {
		u.Image = *p.Image
	}
}

// UserView is the caller's own account as returned by the user endpoints.
// Email and PasswordHash are not part of it.
type UserView struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Bio       string    `json:"bio"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewUserView copies the allow-listed account fields of u
func NewUserView(u *User) UserView {
	return UserView{
		ID:        u.ID,
		Username:  u.Username,
		Bio:       u.Bio,
		Image:     u.Image,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// UserResponse wraps a single user account
type UserResponse struct {
	User UserView `json:"user"`
}
