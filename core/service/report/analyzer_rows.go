// Package report builds the spreadsheet rows for analyzed tickets.
// Column order is fixed for compatibility with existing sheets.
package report

import (
	"fmt"
	"reflect"
	"strings"

	"ticket_analyzer/core/domain"
)

// TicketHeaders is the ticket block column order.
var TicketHeaders = []string{
	"link", "case_id", "user_id", "rating",
	"created_at", "status", "staff_count", "user_count",
	"earliest_message", "assignee", "group", "first_response_score",
}

// ScoreHeaders is the score block column order, written to the right of the ticket block.
var ScoreHeaders = []string{
	"difficulty_level", "time_spent", "is_solved", "solution_comment",
	"solution_score", "communication_style", "communication_comment",
	"communication_score", "total_score", "improvement_recommendations",
}

// noReply is written in place of a missing earliest reply, as existing sheets expect.
const noReply = 0

// TicketRow returns the ticket values in TicketHeaders order.
func TicketRow(t *domain.Ticket) []any {
	var rating any = ""
	if t.Rating != nil {
		rating = *t.Rating
	}

	var staff, users, firstResponse any = "", "", ""
	var earliest any = ""
	if m := t.Metrics; m != nil {
		staff, users, firstResponse = m.StaffCount, m.UserCount, m.FirstResponseScore
		earliest = noReply
		if m.EarliestMessage != "" {
			earliest = m.EarliestMessage
		}
	}

	row := []any{
		t.Link, t.CaseID, t.UserID, rating,
		t.CreatedAt, t.Status, staff, users,
		earliest, t.Assignee, t.Group, firstResponse,
	}
	for i, v := range row {
		row[i] = Flatten(v)
	}
	return row
}

// ScoreRow returns the score values in ScoreHeaders order. A nil score yields empty cells.
func ScoreRow(s *domain.Score) []any {
	if s == nil {
		row := make([]any, len(ScoreHeaders))
		for i := range row {
			row[i] = ""
		}
		return row
	}
	row := []any{
		s.DifficultyLevel, int(s.TimeSpent), bool(s.IsSolved), []string(s.SolutionComment),
		int(s.SolutionScore), s.CommunicationStyle, s.CommunicationComment,
		int(s.CommunicationScore), int(s.TotalScore), []string(s.ImprovementRecommendations),
	}
	for i, v := range row {
		row[i] = Flatten(v)
	}
	return row
}

// TicketTable returns the header row followed by one row per ticket.
func TicketTable(tickets []*domain.Ticket) [][]any {
	rows := make([][]any, 0, len(tickets)+1)
	rows = append(rows, headerRow(TicketHeaders))
	for _, t := range tickets {
		rows = append(rows, TicketRow(t))
	}
	return rows
}

// ScoreTable returns the header row followed by one score row per ticket, aligned with TicketTable.
func ScoreTable(tickets []*domain.Ticket) [][]any {
	rows := make([][]any, 0, len(tickets)+1)
	rows = append(rows, headerRow(ScoreHeaders))
	for _, t := range tickets {
		rows = append(rows, ScoreRow(t.Score))
	}
	return rows
}

// Flatten joins lists with newlines and renders maps with their string form.
// Scalars pass through unchanged.
func Flatten(v any) any {
	if v == nil {
		return ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = fmt.Sprint(rv.Index(i).Interface())
		}
		return strings.Join(parts, "\n")
	case reflect.Map:
		return fmt.Sprint(v)
	default:
		return v
	}
}

func headerRow(headers []string) []any {
	row := make([]any, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	return row
}
