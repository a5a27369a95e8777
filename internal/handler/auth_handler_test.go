package handler_test

import (
	"io"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/skolahub/skola-api/internal/config"
	"github.com/skolahub/skola-api/internal/dto"
	"github.com/skolahub/skola-api/internal/handler"
	"github.com/skolahub/skola-api/internal/middleware"
	"github.com/skolahub/skola-api/internal/repository"
	"github.com/skolahub/skola-api/internal/router"
	"github.com/skolahub/skola-api/internal/service"
)

// setupAuthApp wires the auth stack against the real JWT middleware so the
// issued tokens are checked the same way production requests are.
func setupAuthApp(t *testing.T, dbName string) *fiber.App {
	t.Helper()

	db := openHandlerDB(t, dbName)
	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	authService := service.NewAuthService(repository.NewUserRepository(db), "handler-test-secret", 15*time.Minute, 7*24*time.Hour, validate, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test"}, router.Dependencies{
		AuthHandler:   handler.NewAuthHandler(authService, logger),
		JWTMiddleware: middleware.JWTProtected("handler-test-secret"),
	})

	return app
}

func TestAuthHandlerRegisterLoginAndMe(t *testing.T) {
	app := setupAuthApp(t, "auth_flow")

	resp, err := app.Test(jsonRequest(t, fiber.MethodPost, "/api/v1/auth/register", map[string]interface{}{
		"name":     "Dewi Sari",
		"email":    "dewi@school.test",
		"password": "correct-horse",
		"role":     "teacher",
	}, 0, ""))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var registerBody struct {
		Success bool              `json:"success"`
		Data    dto.TokenResponse `json:"data"`
		Message string            `json:"message"`
	}
	decodeResponse(t, resp, &registerBody)
	require.True(t, registerBody.Success)
	require.Equal(t, "account registered", registerBody.Message)
	require.NotEmpty(t, registerBody.Data.AccessToken)
	require.NotEmpty(t, registerBody.Data.RefreshToken)
	require.Equal(t, "teacher", registerBody.Data.User.Role)

	resp, err = app.Test(jsonRequest(t, fiber.MethodPost, "/api/v1/auth/login", map[string]interface{}{
		"email":    "DEWI@school.test",
		"password": "correct-horse",
	}, 0, ""))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var loginBody struct {
		Success bool              `json:"success"`
		Data    dto.TokenResponse `json:"data"`
		Message string            `json:"message"`
	}
	decodeResponse(t, resp, &loginBody)
	require.Equal(t, "login successful", loginBody.Message)
	require.NotEmpty(t, loginBody.Data.AccessToken)

	meReq := jsonRequest(t, fiber.MethodGet, "/api/v1/auth/me", nil, 0, "")
	meReq.Header.Set("Authorization", "Bearer "+loginBody.Data.AccessToken)
	resp, err = app.Test(meReq)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var meBody struct {
		Success bool             `json:"success"`
		Data    dto.UserResponse `json:"data"`
	}
	decodeResponse(t, resp, &meBody)
	require.Equal(t, "Dewi Sari", meBody.Data.Name)
	require.Equal(t, "dewi@school.test", meBody.Data.Email)
}

func TestAuthHandlerRejectsBadCredentials(t *testing.T) {
	app := setupAuthApp(t, "auth_bad_credentials")

	resp, err := app.Test(jsonRequest(t, fiber.MethodPost, "/api/v1/auth/register", map[string]interface{}{
		"name":     "Dewi Sari",
		"email":    "dewi@school.test",
		"password": "correct-horse",
	}, 0, ""))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	resp, err = app.Test(jsonRequest(t, fiber.MethodPost, "/api/v1/auth/login", map[string]interface{}{
		"email":    "dewi@school.test",
		"password": "wrong-password",
	}, 0, ""))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	decodeResponse(t, resp, &body)
	require.False(t, body.Success)
	require.Equal(t, "invalid credentials", body.Message)
}

func TestAuthHandlerDuplicateEmailConflicts(t *testing.T) {
	app := setupAuthApp(t, "auth_duplicate")

	payload := map[string]interface{}{
		"name":     "Dewi Sari",
		"email":    "dewi@school.test",
		"password": "correct-horse",
	}

	resp, err := app.Test(jsonRequest(t, fiber.MethodPost, "/api/v1/auth/register", payload, 0, ""))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	resp, err = app.Test(jsonRequest(t, fiber.MethodPost, "/api/v1/auth/register", payload, 0, ""))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestAuthHandlerRefreshRotatesTokens(t *testing.T) {
	app := setupAuthApp(t, "auth_refresh")

	resp, err := app.Test(jsonRequest(t, fiber.MethodPost, "/api/v1/auth/register", map[string]interface{}{
		"name":     "Dewi Sari",
		"email":    "dewi@school.test",
		"password": "correct-horse",
	}, 0, ""))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var registerBody struct {
		Data dto.TokenResponse `json:"data"`
	}
	decodeResponse(t, resp, &registerBody)

	resp, err = app.Test(jsonRequest(t, fiber.MethodPost, "/api/v1/auth/refresh", map[string]interface{}{
		"refresh_token": registerBody.Data.RefreshToken,
	}, 0, ""))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var refreshBody struct {
		Success bool              `json:"success"`
		Data    dto.TokenResponse `json:"data"`
		Message string            `json:"message"`
	}
	decodeResponse(t, resp, &refreshBody)
	require.Equal(t, "token refreshed", refreshBody.Message)
	require.NotEmpty(t, refreshBody.Data.AccessToken)

	// An access token is not accepted where a refresh token is expected.
	resp, err = app.Test(jsonRequest(t, fiber.MethodPost, "/api/v1/auth/refresh", map[string]interface{}{
		"refresh_token": registerBody.Data.AccessToken,
	}, 0, ""))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthHandlerMeRequiresToken(t *testing.T) {
	app := setupAuthApp(t, "auth_me_guard")

	resp, err := app.Test(jsonRequest(t, fiber.MethodGet, "/api/v1/auth/me", nil, 0, ""))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
