package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/skolahub/skola-api/internal/observability"
	"github.com/skolahub/skola-api/internal/utils"
)

// Rule describes the fixed request budget for one route group.
type Rule struct {
	Max    int
	Window time.Duration
}

var defaultRule = Rule{Max: 60, Window: time.Minute}

// rules is the fixed lookup table of per-group budgets. Credential endpoints
// are kept tight, mutation endpoints moderate, read endpoints generous.
var rules = map[string]Rule{
	"auth":        {Max: 10, Window: time.Minute},
	"submissions": {Max: 30, Window: time.Minute},
	"uploads":     {Max: 10, Window: time.Minute},
	"writes":      {Max: 60, Window: time.Minute},
	"reads":       {Max: 120, Window: time.Minute},
}

// RuleFor returns the budget configured for a route group, falling back to
// the default budget for unknown groups.
func RuleFor(group string) Rule {
	if rule, ok := rules[group]; ok {
		return rule
	}
	return defaultRule
}

// RateLimit creates a limiter middleware for a route group, keyed by the
// authenticated user and falling back to the client IP before login.
func RateLimit(group string) fiber.Handler {
	rule := RuleFor(group)

	return limiter.New(limiter.Config{
		Max:        rule.Max,
		Expiration: rule.Window,
		KeyGenerator: func(c *fiber.Ctx) string {
			if userID := AuthenticatedUserID(c); userID != 0 {
				return fmt.Sprintf("%s:user:%d", group, userID)
			}
			return fmt.Sprintf("%s:ip:%s", group, c.IP())
		},
		LimitReached: func(c *fiber.Ctx) error {
			observability.RateLimitRejections().WithLabelValues(group).Inc()
			return utils.SendError(c, fiber.StatusTooManyRequests, "rate limit exceeded")
		},
	})
}

// RateLimitReadWrite charges safe methods against the read budget and
// mutations against the write budget, so one attachment per route group
// covers both.
func RateLimitReadWrite() fiber.Handler {
	reads := RateLimit("reads")
	writes := RateLimit("writes")

	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case fiber.MethodGet, fiber.MethodHead:
			return reads(c)
		default:
			return writes(c)
		}
	}
}
