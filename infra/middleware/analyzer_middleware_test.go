package middleware

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"

	"ticket_analyzer/pkg/apperr"
)

func newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})
	app.Use(RequestID(), Recover())
	return app
}

func decodeError(t *testing.T, body io.Reader) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"app error", apperr.InvalidInput("limit", "must be positive"), 400, apperr.CodeInvalidInput},
		{"wrapped app error", errors.Join(errors.New("ctx"), apperr.ExternalError("helpdesk", errors.New("reset"))), 502, apperr.CodeExternalError},
		{"fiber error", fiber.NewError(fiber.StatusTooManyRequests, "slow down"), 429, "RATE_LIMITED"},
		{"unknown", errors.New("boom"), 500, apperr.CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp()
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			body := decodeError(t, resp.Body)
			if body.Error.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", body.Error.Code, tt.wantCode)
			}
			if body.RequestID == "" || resp.Header.Get("X-Request-ID") != body.RequestID {
				t.Errorf("request id not propagated: %q / %q", body.RequestID, resp.Header.Get("X-Request-ID"))
			}
		})
	}
}

func TestRecover(t *testing.T) {
	app := newApp()
	app.Get("/", func(c *fiber.Ctx) error { panic("nil map") })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 500 {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	app := newApp()
	app.Post("/analyze", rl.Handler(), func(c *fiber.Ctx) error { return c.SendStatus(200) })

	for i, want := range []int{200, 200, 429} {
		resp, err := app.Test(httptest.NewRequest("POST", "/analyze", nil))
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != want {
			t.Errorf("request %d: status = %d, want %d", i, resp.StatusCode, want)
		}
	}

	now = now.Add(2 * time.Minute)
	resp, _ := app.Test(httptest.NewRequest("POST", "/analyze", nil))
	if resp.StatusCode != 200 {
		t.Errorf("after window: status = %d", resp.StatusCode)
	}
}

func TestRequireJSON(t *testing.T) {
	app := newApp()
	app.Post("/", RequireJSON(), func(c *fiber.Ctx) error { return c.SendStatus(200) })

	req := httptest.NewRequest("POST", "/", strings.NewReader("limit=5"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, _ := app.Test(req)
	if resp.StatusCode != 415 {
		t.Errorf("form body: status = %d", resp.StatusCode)
	}

	req = httptest.NewRequest("POST", "/", strings.NewReader(`{"limit":5}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ = app.Test(req)
	if resp.StatusCode != 200 {
		t.Errorf("json body: status = %d", resp.StatusCode)
	}
}
