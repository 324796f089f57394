package handler_test

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/luminalms/lumina-api/internal/dto"
	"github.com/luminalms/lumina-api/internal/models"
)

func TestAuthRegisterAndLogin(t *testing.T) {
	app, _ := setupApp(t)

	token, userID := registerUser(t, app, "ada@example.com", "")
	require.NotZero(t, userID)
	require.NotEmpty(t, token)

	resp := doJSON(t, app, "POST", "/api/v1/auth/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "secret-password",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var auth dto.AuthResponse
	env := decodeData(t, resp, &auth)
	require.True(t, env.Success)
	require.Equal(t, models.RoleStudent, auth.User.Role)
	require.NotEmpty(t, auth.RefreshToken)
}

func TestAuthRegisterDuplicateEmail(t *testing.T) {
	app, _ := setupApp(t)

	registerUser(t, app, "ada@example.com", "")

	resp := doJSON(t, app, "POST", "/api/v1/auth/register", "", map[string]string{
		"email":      "ada@example.com",
		"password":   "secret-password",
		"first_name": "Test",
		"last_name":  "User",
	})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	env := decodeEnvelope(t, resp)
	require.False(t, env.Success)
}

func TestAuthLoginWrongPassword(t *testing.T) {
	app, _ := setupApp(t)

	registerUser(t, app, "ada@example.com", "")

	resp := doJSON(t, app, "POST", "/api/v1/auth/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "wrong",
	})
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthRegisterValidation(t *testing.T) {
	app, _ := setupApp(t)

	resp := doJSON(t, app, "POST", "/api/v1/auth/register", "", map[string]string{
		"email":      "not-an-email",
		"password":   "short",
		"first_name": "",
		"last_name":  "",
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAuthMe(t *testing.T) {
	app, _ := setupApp(t)

	resp := doJSON(t, app, "GET", "/api/v1/auth/me", "", nil)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, app, "GET", "/api/v1/auth/me", "garbage-token", nil)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	token, _ := registerUser(t, app, "ada@example.com", "")

	resp = doJSON(t, app, "GET", "/api/v1/auth/me", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var profile dto.UserResponse
	decodeData(t, resp, &profile)
	require.Equal(t, "ada@example.com", profile.Email)
}

func TestAuthRefresh(t *testing.T) {
	app, _ := setupApp(t)

	resp := doJSON(t, app, "POST", "/api/v1/auth/register", "", map[string]string{
		"email":      "ada@example.com",
		"password":   "secret-password",
		"first_name": "Test",
		"last_name":  "User",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var auth dto.AuthResponse
	decodeData(t, resp, &auth)

	resp = doJSON(t, app, "POST", "/api/v1/auth/refresh", "", map[string]string{
		"refresh_token": auth.RefreshToken,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var refreshed dto.AuthResponse
	decodeData(t, resp, &refreshed)
	require.NotEmpty(t, refreshed.Token)

	resp = doJSON(t, app, "POST", "/api/v1/auth/refresh", "", map[string]string{
		"refresh_token": auth.Token,
	})
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
