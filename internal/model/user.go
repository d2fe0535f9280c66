package model

import "time"

// User is an account that records impact logs.
type User struct {
	BaseEntity
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FullName     string    `json:"full_name" db:"full_name"`
	Role         Role      `json:"role" db:"role"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserInfo is the public view of a User.
type UserInfo struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FullName  string     `json:"full_name"`
	Role      Role       `json:"role"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Info returns the public view without the creation time.
func (u *User) Info() UserInfo {
	return UserInfo{ID: u.ID.String(), Email: u.Email, FullName: u.FullName, Role: u.Role}
}

// AdminInfo returns the public view including the creation time.
func (u *User) AdminInfo() UserInfo {
	info := u.Info()
	created := u.CreatedAt
	info.CreatedAt = &created
	return info
}
