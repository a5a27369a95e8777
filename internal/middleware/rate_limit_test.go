package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestRuleForKnownGroup(t *testing.T) {
	rule := RuleFor("auth")
	require.Equal(t, 10, rule.Max)
	require.Equal(t, time.Minute, rule.Window)
}

func TestRuleForUnknownGroupFallsBack(t *testing.T) {
	rule := RuleFor("no-such-group")
	require.Equal(t, defaultRule, rule)
}

func TestRateLimitRejectsAfterBudget(t *testing.T) {
	app := fiber.New()
	app.Get("/login", RateLimit("auth"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	budget := RuleFor("auth").Max
	for i := 0; i < budget; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/login", nil), -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/login", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestRateLimitKeysGroupsIndependently(t *testing.T) {
	app := fiber.New()
	app.Get("/login", RateLimit("auth"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/list", RateLimit("reads"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	budget := RuleFor("auth").Max
	for i := 0; i <= budget; i++ {
		_, err := app.Test(httptest.NewRequest(http.MethodGet, "/login", nil), -1)
		require.NoError(t, err)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/list", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
