// Package transcript holds the chat message model shared by every other package,
// together with the parsers that turn raw chat exports into ordered message records.
package transcript

import (
	"encoding/json"
	"time"
)

// Message is a single record of a chat transcript.
// An empty Sender marks a system message (joins, leaves, media notices).
type Message struct {
	Sender    string `json:"sender"`
	Timestamp string `json:"timestamp"`
	Body      string `json:"message"`
}

// IsSystem reports whether the message was produced by the chat service rather than a participant.
func (m Message) IsSystem() bool {
	return m.Sender == ""
}

// Time parses the raw timestamp of the message.
func (m Message) Time() (time.Time, bool) {
	return ParseTimestamp(m.Timestamp)
}

type wireMessage struct {
	Timestamp string  `json:"timestamp"`
	Sender    *string `json:"sender"`
	Body      string  `json:"message"`
}

// MarshalJSON encodes system messages with a null sender.
func (m Message) MarshalJSON() ([]byte, error) {
	w := wireMessage{Timestamp: m.Timestamp, Body: m.Body}
	if m.Sender != "" {
		sender := m.Sender
		w.Sender = &sender
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts a null or missing sender as a system message.
func (m *Message) UnmarshalJSON(data []byte) error {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	m.Timestamp = w.Timestamp
	m.Body = w.Body
	m.Sender = ""
	if w.Sender != nil {
		m.Sender = *w.Sender
	}
	return nil
}

// Senders enumerates distinct non-system senders in first-seen order.
func Senders(messages []Message) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range messages {
		if m.IsSystem() {
			continue
		}
		if _, ok := seen[m.Sender]; ok {
			continue
		}
		seen[m.Sender] = struct{}{}
		out = append(out, m.Sender)
	}
	return out
}
