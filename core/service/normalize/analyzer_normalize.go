// Package normalize strips channel boilerplate from raw helpdesk message bodies.
package normalize

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"ticket_analyzer/core/domain"
)

// Chat widget markers.
const (
	continuationPrefix = "[lastMessageId:"
	editedMarker       = "Пользователь отредактировал сообщение:"
)

var (
	// continuationTag matches the internal tag up to the first "] :" separator.
	continuationTag = regexp.MustCompile(`(?s)^\[lastMessageId:.*?\] :`)

	// ticketReference marks an auto-reply template.
	ticketReference = regexp.MustCompile(`^#\d{1,10}`)

	// autoReplyBody captures the customer text framed by the greeting and the
	// "we are slower than usual" sentence of the auto-reply template.
	autoReplyBody = regexp.MustCompile(`(?s)Уточните, пожалуйста, в чем именно заключается ваш вопрос\?\s*(.*?)\s*Сейчас мы отвечаем чуть дольше, чем обычно\. Не переживайте, мы рядом и обязательно напишем вам :heart:`)

	// senderPrefix captures the text after a "[HH:MM | name] :" prefix, up to end of line.
	senderPrefix = regexp.MustCompile(`\[\d{2}:\d{2} \| [^\]]+\] : (.+)`)

	// trailingLine splits off the last non-empty line (signature or widget footer).
	trailingLine = regexp.MustCompile(`(?s)^(.*?)\n[^\n]+\n?$`)

	markupTag = regexp.MustCompile(`(?s)<.*?>`)
)

// Normalize cleans text according to its channel. ok is false when the message has no
// usable content, which is distinct from an empty string after cleaning. An unknown
// channel is an error.
func Normalize(text string, channel domain.Channel) (string, bool, error) {
	if !channel.Valid() {
		return "", false, fmt.Errorf("normalize: unknown channel %q", channel)
	}
	if channel == domain.ChannelEmail {
		return normalizeEmail(text), true, nil
	}
	out, ok := normalizeChat(text)
	return out, ok, nil
}

func normalizeChat(text string) (string, bool) {
	switch {
	case strings.HasPrefix(text, continuationPrefix):
		text = strings.TrimSpace(continuationTag.ReplaceAllString(text, ""))
		if strings.HasPrefix(text, editedMarker) {
			text = strings.TrimPrefix(text, editedMarker)
		}
		return collapseSpace(text), true

	case ticketReference.MatchString(text):
		return extractAutoReply(text)

	default:
		if m := trailingLine.FindStringSubmatch(text); m != nil {
			text = m[1]
		}
		return collapseSpace(text), true
	}
}

func extractAutoReply(text string) (string, bool) {
	body := autoReplyBody.FindStringSubmatch(text)
	if body == nil {
		return "", false
	}
	inner := senderPrefix.FindStringSubmatch(strings.TrimSpace(body[1]))
	if inner == nil {
		return "", false
	}
	return strings.TrimSpace(inner[1]), true
}

// normalizeEmail strips tags and decodes entities until neither changes the text, so
// entity-encoded markup does not survive as real markup. Both steps only shorten the text.
func normalizeEmail(text string) string {
	for {
		next := html.UnescapeString(markupTag.ReplaceAllString(text, " "))
		if next == text {
			break
		}
		text = next
	}
	return collapseSpace(text)
}

// collapseSpace turns every run of Unicode whitespace (including NBSP) into one space and trims.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
