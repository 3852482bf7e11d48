package domain

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Score is the structured quality assessment returned by the scoring oracle.
type Score struct {
	DifficultyLevel            string     `json:"difficulty_level"`
	TimeSpent                  FlexInt    `json:"time_spent"`
	IsSolved                   FlexBool   `json:"is_solved"`
	SolutionComment            StringList `json:"solution_comment"`
	SolutionScore              FlexInt    `json:"solution_score"`
	CommunicationStyle         string     `json:"communication_style"`
	CommunicationComment       string     `json:"communication_comment"`
	CommunicationScore         FlexInt    `json:"communication_score"`
	TotalScore                 FlexInt    `json:"total_score"`
	ImprovementRecommendations StringList `json:"improvement_recommendations"`
}

// Validate checks the fields the sheet relies on.
func (s *Score) Validate() error {
	if s.TotalScore < 0 || s.TotalScore > 10 {
		return fmt.Errorf("total_score %d out of range 0-10", s.TotalScore)
	}
	return nil
}

// FlexInt accepts a JSON number or a numeric string.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("flexint: %q is not a number", s)
		}
		*f = FlexInt(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = FlexInt(v)
	return nil
}

// FlexBool accepts a JSON bool or a yes/no word (English or Russian).
type FlexBool bool

func (f *FlexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = false
		return nil
	}
	if len(data) > 0 && data[0] != '"' {
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*f = FlexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "да", "решен", "решён":
		*f = true
	case "false", "no", "n", "нет", "", "не решен", "не решён":
		*f = false
	default:
		return fmt.Errorf("flexbool: unrecognized value %q", s)
	}
	return nil
}

// StringList accepts a JSON array of scalars or a single string.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*l = nil
			return nil
		}
		*l = StringList{s}
		return nil
	}
	var items []any
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	out := make(StringList, 0, len(items))
	for _, item := range items {
		out = append(out, fmt.Sprint(item))
	}
	*l = out
	return nil
}
