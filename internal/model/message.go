package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser  Role = "user"
	RoleBot   Role = "bot"
	RoleAgent Role = "agent"
)

// IsAgentSide reports whether the role speaks for the business (bot or human agent).
func (r Role) IsAgentSide() bool {
	return r == RoleBot || r == RoleAgent
}

// ContentType is the payload kind of a chat message.
type ContentType string

const (
	ContentText        ContentType = "text"
	ContentImage       ContentType = "image"
	ContentFile        ContentType = "file"
	ContentAudio       ContentType = "audio"
	ContentVideo       ContentType = "video"
	ContentDocument    ContentType = "document"
	ContentUnsupported ContentType = "unsupported"
)

// Content holds the message payload. Text is only meaningful for ContentText.
type Content struct {
	Type ContentType `json:"type"`
	Text string      `json:"text,omitempty"`
	URL  string      `json:"url,omitempty"`
}

// ChatRef links a message to its conversation and contact.
type ChatRef struct {
	ChatID    string     `json:"chatId"`
	ContactID FlexString `json:"contactId"`
}

// Message is a single entry of a chat export. Messages are never mutated
// after decoding.
type Message struct {
	ID           string  `json:"id"`
	CreationTime string  `json:"creationTime"`
	From         Role    `json:"from"`
	Content      Content `json:"content"`
	Chat         ChatRef `json:"chat"`
}

// Text returns the message text for text messages and "" for every other
// content type.
func (m Message) Text() string {
	if m.Content.Type != ContentText {
		return ""
	}
	return m.Content.Text
}

// IsUser reports whether the lead authored the message.
func (m Message) IsUser() bool {
	return m.From == RoleUser
}

// ChatExport is the top-level envelope of a chat log export.
type ChatExport struct {
	Items []Message `json:"items"`
}

// FlexString decodes from either a JSON string or a JSON number. Chat exports
// are inconsistent about how they encode contact phone numbers.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		*f = FlexString(s)
		return nil
	}
	// Spreadsheet exports write phones as 593993575726.0 or 5.93993575726e11.
	// Both truncate to the integer part.
	v, err := n.Float64()
	if err != nil {
		return err
	}
	*f = FlexString(strconv.FormatFloat(math.Trunc(v), 'f', 0, 64))
	return nil
}

// String returns the raw value.
func (f FlexString) String() string {
	return string(f)
}
