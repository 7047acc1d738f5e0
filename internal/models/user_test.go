package models

import (
	"testing"
	"time"
)

func TestIsValidRole(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		expected bool
	}{
		{"owner role", RoleOwner, true},
		{"driver role", RoleDriver, true},
		{"invalid role", "admin", false},
		{"empty role", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValidRole(tt.role)
			if result != tt.expected {
				t.Errorf("IsValidRole(%s) = %v, want %v", tt.role, result, tt.expected)
			}
		})
	}
}

func TestUser_HasPermission(t *testing.T) {
	tests := []struct {
		name     string
		user     *User
		action   string
		expected bool
	}{
		{"owner can do anything", &User{Role: RoleOwner}, "manage_drivers", true},
		{"driver can submit expense", &User{Role: RoleDriver}, "submit_expense", true},
		{"driver can submit checklist", &User{Role: RoleDriver}, "submit_checklist", true},
		{"driver can view vehicles", &User{Role: RoleDriver}, "view_vehicles", true},
		{"driver cannot manage drivers", &User{Role: RoleDriver}, "manage_drivers", false},
		{"driver cannot approve expenses", &User{Role: RoleDriver}, "approve_expense", false},
		{"unknown role has no permissions", &User{Role: "ghost"}, "view_vehicles", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.user.HasPermission(tt.action)
			if result != tt.expected {
				t.Errorf("User with role %s HasPermission(%s) = %v, want %v",
					tt.user.Role, tt.action, result, tt.expected)
			}
		})
	}
}

func TestUser_Summary(t *testing.T) {
	now := time.Now()
	user := &User{
		Name:         "Ravi",
		Email:        "ravi@example.com",
		Mobile:       "9000000001",
		PasswordHash: "hashedpassword",
		Role:         RoleOwner,
		LastLogin:    &now,
	}

	s := user.Summary()
	if s.Name != "Ravi" || s.Email != "ravi@example.com" || s.Mobile != "9000000001" {
		t.Errorf("unexpected summary %+v", s)
	}
	if s.Role != RoleOwner {
		t.Errorf("Expected Role to be owner, got %s", s.Role)
	}
}

func TestLoginRequest_Identifier(t *testing.T) {
	if got := (LoginRequest{Email: "a@b.co", Mobile: "900"}).Identifier(); got != "a@b.co" {
		t.Errorf("expected email first, got %s", got)
	}
	if got := (LoginRequest{Mobile: "900"}).Identifier(); got != "900" {
		t.Errorf("expected mobile, got %s", got)
	}
}
