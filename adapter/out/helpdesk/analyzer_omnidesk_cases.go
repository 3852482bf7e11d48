package helpdesk

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"

	"ticket_analyzer/core/domain"
)

type caseEnvelope struct {
	Case *caseRecord `json:"case"`
}

type caseRecord struct {
	CaseID     int64           `json:"case_id"`
	CaseNumber string          `json:"case_number"`
	GroupID    int64           `json:"group_id"`
	UserID     int64           `json:"user_id"`
	StaffID    int64           `json:"staff_id"`
	Rating     json.RawMessage `json:"rating"`
	CreatedAt  string          `json:"created_at"`
	Status     string          `json:"status"`
}

func (r *caseRecord) validate() error {
	switch {
	case r.CaseID <= 0:
		return fmt.Errorf("missing case_id")
	case r.CaseNumber == "":
		return fmt.Errorf("missing case_number")
	case r.CreatedAt == "":
		return fmt.Errorf("missing created_at")
	}
	return nil
}

// rating returns the numeric rating, or nil when the case was not rated.
func (r *caseRecord) rating() *int {
	if len(r.Rating) == 0 || string(r.Rating) == "null" {
		return nil
	}
	var n int
	if err := json.Unmarshal(r.Rating, &n); err == nil {
		return &n
	}
	var s string
	if err := json.Unmarshal(r.Rating, &s); err == nil {
		if n, err := strconv.Atoi(s); err == nil {
			return &n
		}
	}
	return nil
}

// CaseLink returns the staff UI address of a case.
func (c *Client) CaseLink(caseNumber string) string {
	return c.cfg.BaseURL + "/staff/cases/record/" + caseNumber
}

// FetchTickets lists cases matching filter, paging until a short page or filter.Limit is reached.
// Malformed case records are skipped.
func (c *Client) FetchTickets(ctx context.Context, filter domain.TicketFilter) ([]*domain.Ticket, error) {
	perPage := c.cfg.PageSize
	if filter.Limit > 0 && filter.Limit < perPage {
		perPage = filter.Limit
	}

	var tickets []*domain.Ticket
	for page := 1; ; page++ {
		query := url.Values{}
		query.Set("page", strconv.Itoa(page))
		query.Set("limit", strconv.Itoa(perPage))
		if filter.Status != "" {
			query.Set("status", filter.Status)
		}

		var resp positional
		if err := c.getJSON(ctx, "/api/cases.json", query, &resp); err != nil {
			return nil, fmt.Errorf("fetch cases page %d: %w", page, err)
		}

		for _, rec := range resp.records {
			t, err := c.decodeCase(rec)
			if err != nil {
				c.log.Warn().Err(err).Int("page", page).Msg("skipping invalid case record")
				continue
			}
			tickets = append(tickets, t)
		}

		c.log.Debug().Int("page", page).Int("records", len(resp.records)).Int("total", len(tickets)).Msg("cases page fetched")

		if len(resp.records) < perPage || (filter.Limit > 0 && len(tickets) >= filter.Limit) {
			break
		}
	}

	if filter.Limit > 0 && len(tickets) > filter.Limit {
		tickets = tickets[:filter.Limit]
	}
	return tickets, nil
}

func (c *Client) decodeCase(raw json.RawMessage) (*domain.Ticket, error) {
	var env caseEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode case: %w", err)
	}
	if env.Case == nil {
		return nil, fmt.Errorf("record has no case")
	}
	rec := env.Case
	if err := rec.validate(); err != nil {
		return nil, fmt.Errorf("case %d: %w", rec.CaseID, err)
	}
	return &domain.Ticket{
		Link:       c.CaseLink(rec.CaseNumber),
		CaseID:     rec.CaseID,
		CaseNumber: rec.CaseNumber,
		GroupID:    rec.GroupID,
		UserID:     rec.UserID,
		StaffID:    rec.StaffID,
		Rating:     rec.rating(),
		CreatedAt:  rec.CreatedAt,
		Status:     rec.Status,
	}, nil
}

type messageEnvelope struct {
	Message *domain.RawMessage `json:"message"`
}

// FetchMessages returns the raw thread of a case in helpdesk order.
func (c *Client) FetchMessages(ctx context.Context, caseID int64) ([]domain.RawMessage, error) {
	var resp positional
	path := fmt.Sprintf("/api/cases/%d/messages.json", caseID)
	if err := c.getJSON(ctx, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch messages of case %d: %w", caseID, err)
	}

	messages := make([]domain.RawMessage, 0, len(resp.records))
	for _, rec := range resp.records {
		var env messageEnvelope
		if err := json.Unmarshal(rec, &env); err != nil {
			return nil, fmt.Errorf("decode message of case %d: %w", caseID, err)
		}
		if env.Message == nil {
			continue
		}
		messages = append(messages, *env.Message)
	}
	return messages, nil
}
