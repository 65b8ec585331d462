// Package conversation partitions a flat chat export into ordered conversations.
package conversation

import (
	"slices"
	"strings"
	"time"

	"github.com/sells-group/lead-classifier/internal/model"
)

// Conversation is the time-ordered set of messages sharing a chat ID.
// It always holds at least one message.
type Conversation struct {
	ChatID   string
	Messages []model.Message
}

// Group partitions messages by chat ID and orders each conversation by the
// raw creationTime string. Ties keep their input order. Messages without a
// chat ID are dropped.
func Group(messages []model.Message) map[string]Conversation {
	grouped := make(map[string]Conversation)
	for _, msg := range messages {
		id := msg.Chat.ChatID
		if id == "" {
			continue
		}
		c := grouped[id]
		c.ChatID = id
		c.Messages = append(c.Messages, msg)
		grouped[id] = c
	}

	for id, c := range grouped {
		slices.SortStableFunc(c.Messages, func(a, b model.Message) int {
			return strings.Compare(a.CreationTime, b.CreationTime)
		})
		grouped[id] = c
	}
	return grouped
}

// UserMessages returns the lead-authored messages in conversation order.
func (c Conversation) UserMessages() []model.Message {
	var out []model.Message
	for _, m := range c.Messages {
		if m.IsUser() {
			out = append(out, m)
		}
	}
	return out
}

// Phone returns the first non-empty contact ID of the conversation.
func (c Conversation) Phone() string {
	for _, m := range c.Messages {
		if p := strings.TrimSpace(m.Chat.ContactID.String()); p != "" {
			return p
		}
	}
	return ""
}

// StartTime returns the creationTime of the earliest message.
func (c Conversation) StartTime() string {
	if len(c.Messages) == 0 {
		return ""
	}
	return c.Messages[0].CreationTime
}

// Span returns the time between the first and last message. Unparseable
// timestamps yield zero.
func (c Conversation) Span() time.Duration {
	if len(c.Messages) == 0 {
		return 0
	}
	start, ok := ParseTimestamp(c.Messages[0].CreationTime)
	if !ok {
		return 0
	}
	end, ok := ParseTimestamp(c.Messages[len(c.Messages)-1].CreationTime)
	if !ok {
		return 0
	}
	if d := end.Sub(start); d > 0 {
		return d
	}
	return 0
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses an ISO-8601 message timestamp. Timestamps without an
// offset are read as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
