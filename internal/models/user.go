package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role represents user roles in the system
type Role string

const (
	RoleOwner  Role = "owner"
	RoleDriver Role = "driver"
)

// User is a login identity. Owners register themselves; driver users are
// created together with their Driver record.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email,omitempty" json:"email,omitempty"`
	Mobile       string             `bson:"mobile,omitempty" json:"mobile,omitempty"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	LastLogin    *time.Time         `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// LoginRequest represents a login request. Either Email or Mobile identifies the user.
type LoginRequest struct {
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
}

// Identifier returns whichever login identifier was supplied, email first.
func (r LoginRequest) Identifier() string {
	if r.Email != "" {
		return r.Email
	}
	return r.Mobile
}

// RegisterRequest represents an owner registration request
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
}

// UserSummary is the public part of a user returned on login
type UserSummary struct {
	ID     primitive.ObjectID `json:"id"`
	Name   string             `json:"name"`
	Email  string             `json:"email,omitempty"`
	Mobile string             `json:"mobile,omitempty"`
	Role   Role               `json:"role"`
}

// Summary returns the public view of the user
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Mobile: u.Mobile,
		Role:   u.Role,
	}
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	Token  string      `json:"token"`
	User   UserSummary `json:"user"`
	Driver *Driver     `json:"driver"`
}

// Claims represents JWT claims
type Claims struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
	Exp    int64  `json:"exp"`
}

// IsValidRole checks if a role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleOwner, RoleDriver:
		return true
	default:
		return false
	}
}

// HasPermission checks if a user has permission for a specific action
func (u *User) HasPermission(action string) bool {
	switch u.Role {
	case RoleOwner:
		return true
	case RoleDriver:
		return action == "view_vehicles" || action == "submit_expense" ||
			action == "submit_checklist" || action == "view_expenses" ||
			action == "view_checklists"
	default:
		return false
	}
}
