package bootstrap

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"ticket_analyzer/config"
	"ticket_analyzer/core/domain"
	"ticket_analyzer/core/service/analyzer"
)

type emptyHelpdesk struct{}

func (emptyHelpdesk) FetchTickets(context.Context, domain.TicketFilter) ([]*domain.Ticket, error) {
	return []*domain.Ticket{{CaseID: 1, CreatedAt: "Mon, 01 Jan 2024 10:00:00 +0000"}}, nil
}

func (emptyHelpdesk) FetchMessages(context.Context, int64) ([]domain.RawMessage, error) {
	return []domain.RawMessage{{Content: "hi", MessageType: "reply_user", SentAt: "Mon, 01 Jan 2024 10:00:00 +0000"}}, nil
}

func (emptyHelpdesk) StaffDirectory(context.Context) (map[int64]string, error) {
	return map[int64]string{}, nil
}

func (emptyHelpdesk) GroupDirectory(context.Context) (map[int64]string, error) {
	return map[int64]string{}, nil
}

func testDeps() *Dependencies {
	src := emptyHelpdesk{}
	return &Dependencies{
		Analyzer: analyzer.NewService(analyzer.Deps{
			Tickets:   src,
			Messages:  src,
			Directory: src,
		}, analyzer.Config{Workers: 2, BatchTimeout: time.Second}, zerolog.Nop()),
	}
}

func TestNewApp_Routes(t *testing.T) {
	cfg := &config.Config{Environment: "test", BatchTimeout: time.Second}
	app, stop := NewApp(cfg, testDeps())
	defer stop()

	tests := []struct {
		method      string
		path        string
		body        string
		contentType string
		want        int
	}{
		{"GET", "/", "", "", 200},
		{"GET", "/health", "", "", 200},
		{"GET", "/ready", "", "", 200},
		{"GET", "/api/v1/stats", "", "", 200},
		{"POST", "/api/v1/analyze", `{"limit": 1}`, "application/json", 200},
		{"POST", "/api/v1/analyze", "limit=1", "application/x-www-form-urlencoded", 415},
		{"POST", "/api/v1/analyze", `{"limit": -1}`, "application/json", 400},
		{"POST", "/analyze", `{"limit": 1}`, "application/json", 200},
		{"POST", "/analyze", "limit=1", "application/x-www-form-urlencoded", 415},
		{"GET", "/missing", "", "", 404},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
			if resp.Header.Get("X-Request-ID") == "" {
				t.Error("missing request id header")
			}
		})
	}
}
