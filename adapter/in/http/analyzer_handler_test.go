package http

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"

	"ticket_analyzer/core/domain"
	"ticket_analyzer/infra/middleware"
	"ticket_analyzer/pkg/apperr"
	"ticket_analyzer/pkg/response"
)

type fakeAnalyzer struct {
	got    domain.AnalysisRequest
	result *domain.BatchResult
	err    error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, req domain.AnalysisRequest) (*domain.BatchResult, error) {
	f.got = req
	return f.result, f.err
}

func (f *fakeAnalyzer) Stats() map[string]any {
	return map[string]any{"batches": 1}
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func newTestApp(svc *fakeAnalyzer, checks map[string]HealthChecker) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(),
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})
	NewHealthHandler(checks).Register(app)
	NewAnalyzeHandler(svc).Register(app)
	return app
}

func post(t *testing.T, app *fiber.App, body string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/v1/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data
}

func TestAnalyze_Defaults(t *testing.T) {
	svc := &fakeAnalyzer{result: &domain.BatchResult{RunID: "run-1", Total: 2, Succeeded: 1, Failed: 1}}
	app := newTestApp(svc, nil)

	status, body := post(t, app, "")
	if status != 200 {
		t.Fatalf("status = %d: %s", status, body)
	}
	if svc.got.Filter.Limit != 10 || svc.got.Filter.Status != "closed" || svc.got.UseAI {
		t.Errorf("request = %+v", svc.got)
	}

	var resp response.Response
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.Meta == nil || resp.Meta.RunID != "run-1" || resp.Meta.Failed != 1 {
		t.Errorf("response = %s", body)
	}
}

func TestAnalyze_Overrides(t *testing.T) {
	svc := &fakeAnalyzer{result: &domain.BatchResult{}}
	app := newTestApp(svc, nil)

	status, body := post(t, app, `{"limit": 25, "status": "open", "use_ai": true, "title": " Weekly "}`)
	if status != 200 {
		t.Fatalf("status = %d: %s", status, body)
	}
	want := domain.AnalysisRequest{Filter: domain.TicketFilter{Limit: 25, Status: "open"}, UseAI: true, Title: "Weekly"}
	if svc.got != want {
		t.Errorf("request = %+v, want %+v", svc.got, want)
	}
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{"zero limit", `{"limit": 0}`, nil, 400, apperr.CodeInvalidInput},
		{"huge limit", `{"limit": 5000}`, nil, 400, apperr.CodeInvalidInput},
		{"malformed", `{"limit":`, nil, 400, apperr.CodeBadRequest},
		{"upstream", `{}`, apperr.ExternalError("helpdesk", errors.New("reset")), 502, apperr.CodeExternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(&fakeAnalyzer{err: tt.svcErr}, nil)
			status, body := post(t, app, tt.body)
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d (%s)", status, tt.wantStatus, body)
			}
			var resp middleware.ErrorResponse
			if err := json.Unmarshal(body, &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Error.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", resp.Error.Code, tt.wantCode)
			}
		})
	}
}

func TestRootAndStats(t *testing.T) {
	app := newTestApp(&fakeAnalyzer{}, nil)

	for _, path := range []string{"/", "/api/v1/stats", "/health"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != 200 {
			t.Errorf("%s: status = %d", path, resp.StatusCode)
		}
	}
}

func TestReady(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]HealthChecker
		want   int
	}{
		{"no dependencies", nil, 200},
		{"healthy redis", map[string]HealthChecker{"redis": fakePinger{}}, 200},
		{"down redis", map[string]HealthChecker{"redis": fakePinger{err: errors.New("refused")}}, 503},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(&fakeAnalyzer{}, tt.checks)
			resp, err := app.Test(httptest.NewRequest("GET", "/ready", nil))
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}
