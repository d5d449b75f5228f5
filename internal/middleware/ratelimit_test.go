package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func TestRateLimitKeys(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	logger := zap.NewNop()
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }

	app := fiber.New()
	app.Post("/login", RateLimit(limiter, ByIP, logger), ok)
	app.Post("/otp", RateLimit(limiter, ByBodyField("mobile"), logger), ok)

	post := func(path, body string) int {
		t.Helper()
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatalf("POST %s: %v", path, err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	cases := []struct {
		name string
		path string
		body string
		want int
	}{
		{"first by address", "/login", `{}`, http.StatusOK},
		{"second by address", "/login", `{}`, http.StatusTooManyRequests},
		{"mobile has its own bucket", "/otp", `{"mobile":"9876543210"}`, http.StatusOK},
		{"same mobile again", "/otp", `{"mobile":"9876543210"}`, http.StatusTooManyRequests},
		{"other mobile", "/otp", `{"mobile":"9876543211"}`, http.StatusOK},
		{"missing mobile falls back to address", "/otp", `{}`, http.StatusTooManyRequests},
	}
	for _, tt := range cases {
		if got := post(tt.path, tt.body); got != tt.want {
			t.Fatalf("%s: status %d, want %d", tt.name, got, tt.want)
		}
	}
}
