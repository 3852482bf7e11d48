package scoring

import (
	"context"
	"errors"
	"testing"

	"ticket_analyzer/core/domain"
	"ticket_analyzer/pkg/apperr"
	"ticket_analyzer/pkg/resilience"

	"github.com/rs/zerolog"
)

type fakeOracle struct {
	responses  []string
	errs       []error
	calls      int
	lastRubric string
	lastThread []domain.Message
}

func (f *fakeOracle) Invoke(ctx context.Context, prompt string, thread []domain.Message) (string, error) {
	i := f.calls
	f.calls++
	f.lastRubric = prompt
	f.lastThread = thread
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return f.responses[len(f.responses)-1], nil
}

const validAnswer = "Here is the assessment:\n```json\n" + `{
  "difficulty_level": "Hard",
  "time_spent": "25",
  "is_solved": "да",
  "solution_comment": ["customer asked about a refund", "agent issued the refund"],
  "solution_score": 5,
  "communication_style": "matches tone of voice",
  "communication_comment": "friendly",
  "communication_score": "2",
  "total_score": 8,
  "improvement_recommendations": "mention the webinar"
}` + "\n```"

func thread() []domain.Message {
	text := "Where is my refund?"
	return []domain.Message{{Content: &text, Role: domain.RoleCustomer, SentAt: "Mon, 01 Jan 2024 10:00:00 +0000", ContentType: domain.ChannelChat}}
}

func newTestAdapter(oracle *fakeOracle, opts ...Option) *Adapter {
	opts = append([]Option{WithRetry(resilience.RetryConfig{MaxAttempts: MaxAttempts})}, opts...)
	return NewAdapter(oracle, zerolog.Nop(), opts...)
}

func TestScore_EmptyThreadSkipsOracle(t *testing.T) {
	oracle := &fakeOracle{responses: []string{validAnswer}}
	score, err := newTestAdapter(oracle).Score(context.Background(), nil)
	if err != nil || score != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", score, err)
	}
	if oracle.calls != 0 {
		t.Errorf("expected no oracle calls, got %d", oracle.calls)
	}
}

func TestScore_ParsesFencedAnswer(t *testing.T) {
	oracle := &fakeOracle{responses: []string{validAnswer}}
	score, err := newTestAdapter(oracle, WithRubric("custom rubric")).Score(context.Background(), thread())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if oracle.lastRubric != "custom rubric" {
		t.Errorf("expected custom rubric, got %q", oracle.lastRubric)
	}
	if len(oracle.lastThread) != 1 {
		t.Errorf("expected thread to be forwarded, got %d messages", len(oracle.lastThread))
	}

	if score.DifficultyLevel != "Hard" || score.TimeSpent != 25 || !bool(score.IsSolved) {
		t.Errorf("unexpected score header fields: %+v", score)
	}
	if len(score.SolutionComment) != 2 {
		t.Errorf("expected 2 solution facts, got %v", score.SolutionComment)
	}
	if score.CommunicationScore != 2 || score.TotalScore != 8 {
		t.Errorf("unexpected scores: %+v", score)
	}
	if len(score.ImprovementRecommendations) != 1 || score.ImprovementRecommendations[0] != "mention the webinar" {
		t.Errorf("unexpected recommendations: %v", score.ImprovementRecommendations)
	}
}

func TestScore_RetriesTransientAndMalformed(t *testing.T) {
	oracle := &fakeOracle{
		errs:      []error{errors.New("502 bad gateway"), nil, nil},
		responses: []string{"", "I cannot comply", validAnswer},
	}
	score, err := newTestAdapter(oracle).Score(context.Background(), thread())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score == nil || score.TotalScore != 8 {
		t.Fatalf("unexpected score: %+v", score)
	}
	if oracle.calls != 3 {
		t.Errorf("expected 3 calls, got %d", oracle.calls)
	}
}

func TestScore_ExhaustionIsReported(t *testing.T) {
	oracle := &fakeOracle{responses: []string{"```json\n{not json}\n```"}}
	score, err := newTestAdapter(oracle).Score(context.Background(), thread())
	if score != nil {
		t.Errorf("expected no score, got %+v", score)
	}
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
	if !apperr.HasCode(err, apperr.CodeParseError) {
		t.Errorf("expected last parse error to be wrapped, got %v", err)
	}
	if oracle.calls != MaxAttempts {
		t.Errorf("expected %d calls, got %d", MaxAttempts, oracle.calls)
	}
}

func TestWithRetry_CapsAttempts(t *testing.T) {
	oracle := &fakeOracle{errs: []error{errors.New("x"), errors.New("x"), errors.New("x"), errors.New("x"), errors.New("x"), errors.New("x"), errors.New("x")}}
	_, err := NewAdapter(oracle, zerolog.Nop(), WithRetry(resilience.RetryConfig{MaxAttempts: 50})).Score(context.Background(), thread())
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
	if oracle.calls != MaxAttempts {
		t.Errorf("expected attempts capped at %d, got %d", MaxAttempts, oracle.calls)
	}
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		total   int
	}{
		{"bare object", `{"total_score": 6}`, false, 6},
		{"object in prose", "Result: {\"total_score\": \"4\"} done", false, 4},
		{"fence without language", "```\n{\"total_score\": 3}\n```", false, 3},
		{"no object", "sorry", true, 0},
		{"broken object", "```json\n{\"total_score\": }\n```", true, 0},
		{"out of range", `{"total_score": 11}`, true, 0},
		{"unknown solved word", `{"is_solved": "maybe"}`, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, err := ParseResponse(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error=%v, got %v", tt.wantErr, err)
			}
			if err != nil {
				if !apperr.HasCode(err, apperr.CodeParseError) {
					t.Errorf("expected PARSE_ERROR, got %v", err)
				}
				return
			}
			if int(score.TotalScore) != tt.total {
				t.Errorf("expected total %d, got %d", tt.total, score.TotalScore)
			}
		})
	}
}
