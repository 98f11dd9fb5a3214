package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/chatinsight/internal/database"
	"github.com/edgard/chatinsight/internal/query"
)

const askTimeout = 2 * time.Minute

// NewAskHandler returns a handler for /ask, which answers a question over
// the recorded history of the chat it is sent in.
func NewAskHandler(deps HandlerDeps) bot.HandlerFunc {
	return askHandler{deps}.Handle
}

type askHandler struct {
	deps HandlerDeps
}

func (h askHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "ask")

	msg := update.Message
	if msg == nil || msg.From == nil {
		log.WarnContext(ctx, "Ask handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	question := commandArgs(msg.Text)
	if question == "" {
		reply(ctx, b, log, msg, h.deps.Config.Messages.ProvideQuestion)
		return
	}

	log.InfoContext(ctx, "Handling /ask command", "chat_id", msg.Chat.ID, "user_id", msg.From.ID)

	stopTyping := keepTyping(ctx, b, log, msg.Chat.ID)
	askCtx, cancel := context.WithTimeout(ctx, askTimeout)
	resp, err := h.deps.Service.AskChat(askCtx, msg.Chat.ID, question)
	cancel()
	stopTyping()

	if err != nil {
		reply(ctx, b, log, msg, h.errorText(ctx, msg.Chat.ID, err))
		return
	}
	reply(ctx, b, log, msg, resp.Answer)
}

// errorText maps a failed question onto the reply shown to the user.
func (h askHandler) errorText(ctx context.Context, chatID int64, err error) string {
	log := h.deps.Logger.With("handler", "ask")

	var qerr *query.Error
	switch {
	case errors.Is(err, database.ErrGroupNotFound):
		return h.deps.Config.Messages.NoMessages
	case errors.Is(err, query.ErrInternal):
		log.ErrorContext(ctx, "Question failed", "chat_id", chatID, "error", err)
		return h.deps.Config.Messages.GeneralError
	case errors.As(err, &qerr):
		return qerr.Message
	default:
		log.ErrorContext(ctx, "Question failed", "chat_id", chatID, "error", err)
		return h.deps.Config.Messages.GeneralError
	}
}
