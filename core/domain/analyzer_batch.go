package domain

import "time"

// Batch stages used when reporting failures.
const (
	StageFetchMessages = "fetch_messages"
	StageNormalize     = "normalize"
	StageTiming        = "timing"
	StageCanceled      = "canceled"
	StageScoring       = "scoring"
)

// TicketFailure records why a ticket was left out of the enriched output.
type TicketFailure struct {
	CaseID int64  `json:"case_id"`
	Stage  string `json:"stage"`
	Error  string `json:"error"`
}

// AnalysisRequest describes one analysis run.
type AnalysisRequest struct {
	Filter   TicketFilter `json:"filter"`
	UseAI    bool         `json:"use_ai"`
	Title    string       `json:"title,omitempty"`
	SkipSink bool         `json:"-"`
}

// BatchResult is the outcome of one analysis run.
type BatchResult struct {
	RunID         string          `json:"run_id"`
	Tickets       []*Ticket       `json:"tickets"`
	Failures      []TicketFailure `json:"failures,omitempty"`
	ScoreFailures []TicketFailure `json:"score_failures,omitempty"`
	Total         int             `json:"total"`
	Succeeded     int             `json:"succeeded"`
	Failed        int             `json:"failed"`
	Scored        int             `json:"scored"`
	SheetURL      string          `json:"sheet_url,omitempty"`
	StartedAt     time.Time       `json:"started_at"`
	Duration      time.Duration   `json:"duration"`
}
