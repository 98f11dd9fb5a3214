package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/edgard/chatinsight/internal/config"
	"github.com/edgard/chatinsight/internal/database"
	"github.com/edgard/chatinsight/internal/query"
	"github.com/edgard/chatinsight/internal/transcript"
)

// ChatService is the part of the service layer the handlers use.
type ChatService interface {
	AskChat(ctx context.Context, chatID int64, question string) (*query.Response, error)
	ChatStats(ctx context.Context, chatID int64) (string, error)
	Record(ctx context.Context, chatID int64, title string, message transcript.Message) error
	Import(ctx context.Context, transport, fileName, groupName string, r io.Reader) (*database.Group, error)
}

// HandlerDeps provides dependencies for Telegram handlers.
type HandlerDeps struct {
	Logger     *slog.Logger
	Config     *config.TelegramConfig
	Service    ChatService
	HTTPClient *http.Client
}

func (d HandlerDeps) httpClient() *http.Client {
	if d.HTTPClient != nil {
		return d.HTTPClient
	}
	return http.DefaultClient
}
