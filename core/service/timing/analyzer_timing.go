// Package timing computes first-response metrics from ticket threads.
package timing

import (
	"strings"
	"time"

	"ticket_analyzer/core/domain"
)

// Layout is the helpdesk timestamp grammar, e.g. "Mon, 01 Jan 2024 10:15:00 +0000".
const Layout = time.RFC1123Z

// layoutShortDay accepts a day of month without zero padding.
const layoutShortDay = "Mon, 2 Jan 2006 15:04:05 -0700"

// ParseTimestamp parses a helpdesk timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(Layout, s)
	if err == nil {
		return t, nil
	}
	if t2, err2 := time.Parse(layoutShortDay, s); err2 == nil {
		return t2, nil
	}
	return time.Time{}, err
}

// EarliestAgentReply returns the raw sent_at of the earliest agent message.
// ok is false when there is no agent message or any agent timestamp fails to parse;
// that is the "no first response recorded" signal, not a failure.
func EarliestAgentReply(messages []domain.Message) (sentAt string, ok bool) {
	var earliest time.Time
	for _, m := range messages {
		if m.Role != domain.RoleAgent {
			continue
		}
		t, err := ParseTimestamp(m.SentAt)
		if err != nil {
			return "", false
		}
		if !ok || t.Before(earliest) {
			earliest, sentAt, ok = t, m.SentAt, true
		}
	}
	return sentAt, ok
}

// MinutesBetween returns the minutes from created to reply. It returns 0 when either
// value is not a valid timestamp, including the empty no-reply sentinel.
func MinutesBetween(created, reply string) float64 {
	minutes, _ := MinutesBetweenKnown(created, reply)
	return minutes
}

// MinutesBetweenKnown is MinutesBetween with an explicit flag telling a computed value
// apart from the 0 fallback.
func MinutesBetweenKnown(created, reply string) (float64, bool) {
	c, err := ParseTimestamp(created)
	if err != nil {
		return 0, false
	}
	r, err := ParseTimestamp(reply)
	if err != nil {
		return 0, false
	}
	return r.Sub(c).Minutes(), true
}
