package handlers

import (
	"context"
	"errors"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/chatinsight/internal/database"
)

// NewStatsHandler returns a handler for /stats.
func NewStatsHandler(deps HandlerDeps) bot.HandlerFunc {
	return statsHandler{deps}.Handle
}

type statsHandler struct {
	deps HandlerDeps
}

func (h statsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "stats")

	msg := update.Message
	if msg == nil {
		return
	}

	text, err := h.deps.Service.ChatStats(ctx, msg.Chat.ID)
	switch {
	case errors.Is(err, database.ErrGroupNotFound):
		text = h.deps.Config.Messages.NoMessages
	case err != nil:
		log.ErrorContext(ctx, "Failed to compute chat statistics", "chat_id", msg.Chat.ID, "error", err)
		text = h.deps.Config.Messages.GeneralError
	}
	reply(ctx, b, log, msg, text)
}
