package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// Identity helpers shared by the rate limiter and cache key builders.
// Both can run before JWTAuth, so the user id may legitimately be
// absent.

// currentUserID returns the authenticated user id as a string, or
// "anon" for unauthenticated traffic. JWTAuth stores the raw claim, so
// both string and numeric forms are handled.
func currentUserID(c echo.Context) string {
	switch v := c.Get("user_id").(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	}
	return "anon"
}

// clientIP never returns an empty key segment.
func clientIP(c echo.Context) string {
	if ip := c.RealIP(); ip != "" {
		return ip
	}
	return "unknown"
}
