package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/rmc-fleet/internal/auth"
	"github.com/ukydev/rmc-fleet/internal/db"
	"github.com/ukydev/rmc-fleet/internal/fleet"
	"github.com/ukydev/rmc-fleet/internal/models"
)

// ProfileService loads the driver record shown alongside a driver user.
type ProfileService interface {
	DriverProfile(ctx context.Context, identity fleet.Identity) (*models.Driver, error)
}

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService    *auth.Service
	userCollection db.UserCollection
	profiles       ProfileService
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *auth.Service, userCollection db.UserCollection, profiles ProfileService) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		userCollection: userCollection,
		profiles:       profiles,
	}
}

// tokenResponse writes {success, token, data: {user, driver}}.
func (h *AuthHandler) tokenResponse(w http.ResponseWriter, r *http.Request, status int, user *models.User, driver *models.Driver) {
	token, err := h.authService.GenerateToken(user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, status, envelope{
		"success": true,
		"token":   token,
		"data":    envelope{"user": user.Summary(), "driver": driver},
	})
}

// Login handles POST /auth/login with an email or a mobile number.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var loginReq models.LoginRequest
	if err := decodeJSON(r, &loginReq); err != nil {
		writeError(w, r, err)
		return
	}

	if loginReq.Identifier() == "" || loginReq.Password == "" {
		writeError(w, r, badRequest("Please provide email/mobile and password"))
		return
	}

	var (
		user *models.User
		err  error
	)
	if loginReq.Email != "" {
		user, err = h.userCollection.FindUserByEmail(r.Context(), strings.ToLower(strings.TrimSpace(loginReq.Email)))
	} else {
		user, err = h.userCollection.FindUserByMobile(r.Context(), strings.TrimSpace(loginReq.Mobile))
	}
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, r, unauthorized("Invalid credentials"))
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	if !h.authService.CheckPassword(loginReq.Password, user.PasswordHash) {
		log.WithField("user_id", user.ID.Hex()).Warn("login with wrong password")
		writeError(w, r, unauthorized("Invalid credentials"))
		return
	}

	driver, err := h.profiles.DriverProfile(r.Context(), fleet.Identity{UserID: user.ID, Role: user.Role})
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.userCollection.UpdateLastLogin(r.Context(), user.ID); err != nil {
		log.WithError(err).WithField("user_id", user.ID.Hex()).Warn("failed to update last login")
	}

	h.tokenResponse(w, r, http.StatusOK, user, driver)
}

// Register handles POST /auth/register. Registration creates owner accounts
// only; driver users are created with their driver record.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var registerReq models.RegisterRequest
	if err := decodeJSON(r, &registerReq); err != nil {
		writeError(w, r, err)
		return
	}

	name := strings.TrimSpace(registerReq.Name)
	email := strings.ToLower(strings.TrimSpace(registerReq.Email))
	mobile := strings.TrimSpace(registerReq.Mobile)
	if name == "" {
		writeError(w, r, badRequest("Please add a name"))
		return
	}
	if email == "" && mobile == "" {
		writeError(w, r, badRequest("Please provide an email or mobile number"))
		return
	}
	if email != "" {
		if err := h.authService.ValidateEmail(email); err != nil {
			writeError(w, r, badRequest(err.Error()))
			return
		}
	}
	if err := h.authService.ValidatePassword(registerReq.Password); err != nil {
		writeError(w, r, badRequest(err.Error()))
		return
	}

	passwordHash, err := h.authService.HashPassword(registerReq.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		Mobile:       mobile,
		PasswordHash: passwordHash,
		Role:         models.RoleOwner,
	}
	if err := h.userCollection.InsertUser(r.Context(), user); err != nil {
		var dup *db.DuplicateKeyError
		if errors.As(err, &dup) {
			field := "Email"
			if dup.Index == db.IndexUserMobile {
				field = "Mobile number"
			}
			writeError(w, r, &fleet.DuplicateError{Field: field})
			return
		}
		writeError(w, r, err)
		return
	}

	log.WithField("user_id", user.ID.Hex()).Info("owner registered")
	h.tokenResponse(w, r, http.StatusCreated, user, nil)
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), id.UserID)
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, r, &fleet.NotFoundError{Message: "User not found"})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	driver, err := h.profiles.DriverProfile(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, envelope{"user": user, "driver": driver})
}

// Logout handles GET /auth/logout. Tokens are stateless, so the client just
// drops its copy.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, struct{}{})
}

// ChangePassword handles PUT /auth/password for the current user
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var passwordReq struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := decodeJSON(r, &passwordReq); err != nil {
		writeError(w, r, err)
		return
	}

	if passwordReq.CurrentPassword == "" || passwordReq.NewPassword == "" {
		writeError(w, r, badRequest("Current password and new password are required"))
		return
	}
	if err := h.authService.ValidatePassword(passwordReq.NewPassword); err != nil {
		writeError(w, r, badRequest(err.Error()))
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), id.UserID)
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, r, &fleet.NotFoundError{Message: "User not found"})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	if !h.authService.CheckPassword(passwordReq.CurrentPassword, user.PasswordHash) {
		writeError(w, r, unauthorized("Current password is incorrect"))
		return
	}

	newPasswordHash, err := h.authService.HashPassword(passwordReq.NewPassword)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user.PasswordHash = newPasswordHash
	if err := h.userCollection.UpdateUser(r.Context(), user); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Password changed successfully"})
}
