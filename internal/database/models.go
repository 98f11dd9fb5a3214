package database

import (
	"database/sql"
	"time"

	"github.com/edgard/chatinsight/internal/transcript"
)

// Group sources.
const (
	SourceWhatsApp = "whatsapp"
	SourceTelegram = "telegram"
)

// Import statuses.
const (
	ImportPending = "pending"
	ImportDone    = "done"
	ImportFailed  = "failed"
)

// Group is a named transcript: either an imported export or a live Telegram chat.
type Group struct {
	ID        string        `db:"id"         json:"id"`
	Name      string        `db:"name"       json:"name"`
	Source    string        `db:"source"     json:"source"`
	ChatID    sql.NullInt64 `db:"chat_id"    json:"-"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`

	MessageCount int `db:"message_count" json:"message_count"`
}

// Message is one stored transcript record. Position orders messages within a group.
type Message struct {
	ID        int64          `db:"id"`
	GroupID   string         `db:"group_id"`
	Position  int            `db:"position"`
	Sender    sql.NullString `db:"sender"`
	Timestamp string         `db:"timestamp"`
	SentAt    sql.NullTime   `db:"sent_at"`
	Body      string         `db:"body"`
}

// Transcript converts the stored row back into a corpus record.
func (m Message) Transcript() transcript.Message {
	return transcript.Message{
		Sender:    m.Sender.String,
		Timestamp: m.Timestamp,
		Body:      m.Body,
	}
}

func newMessage(groupID string, position int, tm transcript.Message) Message {
	m := Message{
		GroupID:   groupID,
		Position:  position,
		Sender:    sql.NullString{String: tm.Sender, Valid: tm.Sender != ""},
		Timestamp: tm.Timestamp,
		Body:      tm.Body,
	}
	if at, ok := tm.Time(); ok {
		m.SentAt = sql.NullTime{Time: at, Valid: true}
	}
	return m
}

// Import records one transcript import attempt.
type Import struct {
	ID           string         `db:"id"`
	GroupName    string         `db:"group_name"`
	FileName     string         `db:"file_name"`
	Status       string         `db:"status"`
	MessageCount int            `db:"message_count"`
	Error        sql.NullString `db:"error"`
	StartedAt    time.Time      `db:"started_at"`
	FinishedAt   sql.NullTime   `db:"finished_at"`
}
