// Package models defines server-side data models persisted in the database.
package models

import "time"

type Role string

const RoleUser Role = "user"

// User is a credential-store row. PasswordHash never leaves the server; use
// View for anything sent to a client.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	IsVerified   bool
	IsActive     bool
	IsNew        bool
	IsDeleted    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Live reports whether the account may authenticate and be targeted.
func (u *User) Live() bool {
	return u != nil && u.IsActive && !u.IsDeleted
}

// UserView is the sanitized user record returned by the API.
type UserView struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	IsVerified bool      `json:"isVerified"`
	IsActive   bool      `json:"isActive"`
	IsNew      bool      `json:"isNew"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (u *User) View() *UserView {
	return &UserView{
		ID:         u.ID,
		Email:      u.Email,
		Role:       u.Role,
		IsVerified: u.IsVerified,
		IsActive:   u.IsActive,
		IsNew:      u.IsNew,
		CreatedAt:  u.CreatedAt,
	}
}
