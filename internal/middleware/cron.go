package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// CronToken returns a middleware gating the /v1/cron trigger endpoints.
// External schedulers authenticate with a static bearer token; there is
// no user identity behind these calls, only the shared secret from the
// environment. Comparison is constant-time.
func CronToken(token string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")
			if subtle.ConstantTimeCompare([]byte(raw), []byte(token)) != 1 {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			return next(c)
		}
	}
}
