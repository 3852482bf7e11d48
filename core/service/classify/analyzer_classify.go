// Package classify maps helpdesk message types to author roles and tallies them.
package classify

import "ticket_analyzer/core/domain"

// Raw helpdesk message types.
const (
	TypeReplyUser  = "reply_user"
	TypeReplyStaff = "reply_staff"
)

// Counts is the role partition of a thread.
type Counts struct {
	Agent    int
	Customer int
	System   int
}

// Total returns the number of messages counted.
func (c Counts) Total() int {
	return c.Agent + c.Customer + c.System
}

// RoleOf maps a raw message type to a role. Unknown and empty types are system messages.
func RoleOf(messageType string) domain.Role {
	switch messageType {
	case TypeReplyUser:
		return domain.RoleCustomer
	case TypeReplyStaff:
		return domain.RoleAgent
	default:
		return domain.RoleSystem
	}
}

// Count tallies messages by role.
func Count(messages []domain.Message) Counts {
	var c Counts
	for _, m := range messages {
		switch m.Role {
		case domain.RoleAgent:
			c.Agent++
		case domain.RoleCustomer:
			c.Customer++
		default:
			c.System++
		}
	}
	return c
}
