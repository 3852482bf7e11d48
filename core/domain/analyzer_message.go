package domain

// Role is the author role of a message in a ticket thread.
type Role string

const (
	RoleAgent    Role = "agent"
	RoleCustomer Role = "customer"
	RoleSystem   Role = "system"
)

// Channel is the medium a message arrived through. It selects the normalization rules.
type Channel string

const (
	ChannelChat  Channel = "chat"
	ChannelEmail Channel = "email"
)

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	return c == ChannelChat || c == ChannelEmail
}

// RawMessage is a message as returned by the helpdesk, before normalization.
type RawMessage struct {
	Content     string `json:"content"`
	ContentHTML string `json:"content_html"`
	MessageType string `json:"message_type"`
	SentAt      string `json:"sent_at"`
}

// Channel derives the message channel: chat when the plain content is present, email otherwise.
func (r RawMessage) Channel() Channel {
	if r.Content != "" {
		return ChannelChat
	}
	return ChannelEmail
}

// Body returns the channel-specific raw body.
func (r RawMessage) Body() string {
	if r.Content != "" {
		return r.Content
	}
	return r.ContentHTML
}

// Message is one entry of a ticket thread.
// Content is nil when normalization found no usable text; the message stays in the thread.
type Message struct {
	Content     *string `json:"content"`
	Role        Role    `json:"role"`
	SentAt      string  `json:"sent_at"`
	ContentType Channel `json:"content_type"`
}

// Text returns the content or an empty string for messages without usable text.
func (m Message) Text() string {
	if m.Content == nil {
		return ""
	}
	return *m.Content
}
