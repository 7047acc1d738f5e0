package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/rmc-fleet/internal/config"
	"github.com/ukydev/rmc-fleet/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestService() *Service {
	return NewService(config.AuthConfig{JWTSecret: "test-secret", JWTExpiry: time.Hour})
}

func testUser(role models.Role) *models.User {
	return &models.User{ID: primitive.NewObjectID(), Name: "Test", Role: role}
}

func TestNewService(t *testing.T) {
	service := newTestService()
	assert.Equal(t, []byte("test-secret"), service.jwtSecret)
	assert.Equal(t, time.Hour, service.tokenExp)

	service = NewService(config.AuthConfig{JWTSecret: "x"})
	assert.Equal(t, 30*24*time.Hour, service.tokenExp)
}

func TestService_HashPassword(t *testing.T) {
	service := newTestService()

	password := "testpassword123"
	hash, err := service.HashPassword(password)

	assert.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, password, hash)
}

func TestService_CheckPassword(t *testing.T) {
	service := newTestService()

	password := "testpassword123"
	hash, _ := service.HashPassword(password)

	assert.True(t, service.CheckPassword(password, hash))
	assert.False(t, service.CheckPassword("wrongpassword", hash))
}

func TestService_ValidateToken(t *testing.T) {
	service := newTestService()
	user := testUser(models.RoleDriver)

	token, err := service.GenerateToken(user)
	require.NoError(t, err)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
	assert.Equal(t, models.RoleDriver, claims.Role)

	_, err = service.ValidateToken("invalid-token")
	assert.Equal(t, ErrInvalidToken, err)

	_, err = service.ValidateToken("Bearer " + token)
	assert.NoError(t, err)
}

func TestService_ValidateToken_WrongSecret(t *testing.T) {
	token, err := newTestService().GenerateToken(testUser(models.RoleOwner))
	require.NoError(t, err)

	other := NewService(config.AuthConfig{JWTSecret: "other-secret", JWTExpiry: time.Hour})
	_, err = other.ValidateToken(token)
	assert.Equal(t, ErrInvalidToken, err)
}

func TestService_ValidateToken_UnknownRole(t *testing.T) {
	service := newTestService()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": primitive.NewObjectID().Hex(),
		"role":    "admin",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(service.jwtSecret)
	require.NoError(t, err)

	_, err = service.ValidateToken(signed)
	assert.Equal(t, ErrInvalidToken, err)
}

func TestService_TokenExpiration(t *testing.T) {
	service := newTestService()
	issued := time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return issued }

	token, err := service.GenerateToken(testUser(models.RoleOwner))
	require.NoError(t, err)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, issued.Add(time.Hour).Unix(), claims.Exp)

	service.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = service.ValidateToken(token)
	assert.Equal(t, ErrExpiredToken, err)
}

func TestService_ExtractTokenFromHeader(t *testing.T) {
	service := newTestService()

	extracted, err := service.ExtractTokenFromHeader("Bearer valid-token")
	assert.NoError(t, err)
	assert.Equal(t, "valid-token", extracted)

	for _, header := range []string{"", "InvalidFormat", "Bearer ", "Basic abc"} {
		_, err = service.ExtractTokenFromHeader(header)
		assert.Equal(t, ErrInvalidToken, err, "header %q", header)
	}
}

func TestService_ValidatePassword(t *testing.T) {
	service := newTestService()

	assert.NoError(t, service.ValidatePassword("secret"))

	err := service.ValidatePassword("short")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "at least 6 characters")
}

func TestService_ValidateEmail(t *testing.T) {
	service := newTestService()

	assert.NoError(t, service.ValidateEmail("owner@example.com"))
	for _, email := range []string{"testexample.com", "test@", "test", "@example.com"} {
		assert.Error(t, service.ValidateEmail(email), email)
	}
}
