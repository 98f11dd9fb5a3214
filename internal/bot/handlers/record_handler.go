package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/chatinsight/internal/transcript"
)

const dbSaveTimeout = 5 * time.Second

// NewRecordHandler returns the default handler. It stores every plain
// group message so later questions can be asked about it.
func NewRecordHandler(deps HandlerDeps) bot.HandlerFunc {
	return recordHandler{deps}.Handle
}

type recordHandler struct {
	deps HandlerDeps
}

func (h recordHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "record")

	msg, ok := recordable(update)
	if !ok {
		return
	}

	saveCtx, cancel := context.WithTimeout(ctx, dbSaveTimeout)
	defer cancel()

	if err := h.deps.Service.Record(saveCtx, msg.Chat.ID, chatTitle(msg.Chat), toTranscript(msg)); err != nil {
		log.ErrorContext(ctx, "Failed to record message", "chat_id", msg.Chat.ID, "message_id", msg.ID, "error", err)
		return
	}
	log.DebugContext(ctx, "Recorded message", "chat_id", msg.Chat.ID, "message_id", msg.ID)
}

// recordable picks the messages worth storing: human text or captions
// that are not bot commands.
func recordable(update *models.Update) (*models.Message, bool) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.From.IsBot {
		return nil, false
	}
	body := messageBody(msg)
	if strings.TrimSpace(body) == "" || strings.HasPrefix(body, "/") {
		return nil, false
	}
	return msg, true
}

func messageBody(msg *models.Message) string {
	if msg.Text != "" {
		return msg.Text
	}
	return msg.Caption
}

// toTranscript converts a Telegram message into the shared message shape.
func toTranscript(msg *models.Message) transcript.Message {
	return transcript.Message{
		Sender:    senderName(msg.From),
		Timestamp: transcript.FormatTimestamp(time.Unix(int64(msg.Date), 0)),
		Body:      messageBody(msg),
	}
}
