package domain

// Placeholders written when a directory has no entry for a ticket's key.
const (
	UnassignedPlaceholder = "Ответственный не назначен"
	UngroupedPlaceholder  = "Группа не указана"
)

// TicketFilter selects tickets from the helpdesk.
type TicketFilter struct {
	Limit  int    `json:"limit"`
	Status string `json:"status"`
}

// Ticket is a helpdesk case plus the fields derived during enrichment.
type Ticket struct {
	Link       string `json:"link"`
	CaseID     int64  `json:"case_id"`
	CaseNumber string `json:"case_number"`
	GroupID    int64  `json:"group_id"`
	UserID     int64  `json:"user_id"`
	StaffID    int64  `json:"staff_id"`
	Rating     *int   `json:"rating"`
	CreatedAt  string `json:"created_at"`
	Status     string `json:"status"`

	Messages []Message `json:"messages,omitempty"`
	Metrics  *Metrics  `json:"metrics,omitempty"`
	Assignee string    `json:"assignee,omitempty"`
	Group    string    `json:"group,omitempty"`
	Score    *Score    `json:"ai_result,omitempty"`
}

// Metrics are the scalar values derived from a ticket thread.
type Metrics struct {
	StaffCount  int `json:"staff_count"`
	UserCount   int `json:"user_count"`
	SystemCount int `json:"system_count"`

	// EarliestMessage is the raw sent_at of the first agent reply, empty when none was recorded.
	EarliestMessage string `json:"earliest_message"`

	// FirstResponseScore is 0 both for an instant reply and when it could not be computed;
	// FirstResponseKnown tells the two apart.
	FirstResponseScore float64 `json:"first_response_score"`
	FirstResponseKnown bool    `json:"first_response_known"`
}
