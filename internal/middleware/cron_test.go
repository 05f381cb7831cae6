package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func cronRequest(t *testing.T, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/cron/package-expiry-reminder", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := CronToken("s3cret")(func(c echo.Context) error {
		return c.String(http.StatusOK, "ran")
	})
	if err := h(c); err != nil {
		t.Fatalf("handler returned %v", err)
	}
	return rec
}

func TestCronTokenAccepts(t *testing.T) {
	rec := cronRequest(t, "Bearer s3cret")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestCronTokenRejectsWrongToken(t *testing.T) {
	rec := cronRequest(t, "Bearer nope")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestCronTokenRejectsMissingHeader(t *testing.T) {
	rec := cronRequest(t, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
