package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/chatinsight/internal/service"
)

const (
	downloadTimeout = 30 * time.Second

	// maxDocumentBytes is the largest file the Bot API lets bots download.
	maxDocumentBytes = 20 << 20
)

// IsTranscriptDocument matches messages carrying a .txt document.
func IsTranscriptDocument(update *models.Update) bool {
	if update.Message == nil || update.Message.Document == nil {
		return false
	}
	return strings.EqualFold(filepath.Ext(update.Message.Document.FileName), ".txt")
}

// NewImportHandler returns a handler that imports a WhatsApp export sent as
// a document. The caption, when present, names the group.
func NewImportHandler(deps HandlerDeps) bot.HandlerFunc {
	return importHandler{deps}.Handle
}

type importHandler struct {
	deps HandlerDeps
}

func (h importHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "import")

	msg := update.Message
	if msg == nil || msg.Document == nil {
		return
	}
	doc := msg.Document
	log.InfoContext(ctx, "Handling transcript import", "chat_id", msg.Chat.ID, "file_name", doc.FileName, "file_size", doc.FileSize)

	if doc.FileSize > maxDocumentBytes {
		log.WarnContext(ctx, "Transcript too large", "file_size", doc.FileSize)
		reply(ctx, b, log, msg, h.deps.Config.Messages.ImportFailed)
		return
	}

	data, err := h.download(ctx, b, doc.FileID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to download transcript", "file_name", doc.FileName, "error", err)
		reply(ctx, b, log, msg, h.deps.Config.Messages.ImportFailed)
		return
	}

	group, err := h.deps.Service.Import(ctx, service.TransportTelegram, doc.FileName, strings.TrimSpace(msg.Caption), bytes.NewReader(data))
	if err != nil {
		log.WarnContext(ctx, "Failed to import transcript", "file_name", doc.FileName, "error", err)
		reply(ctx, b, log, msg, h.deps.Config.Messages.ImportFailed)
		return
	}

	log.InfoContext(ctx, "Imported transcript", "group", group.Name, "messages", group.MessageCount)
	reply(ctx, b, log, msg, fmt.Sprintf(h.deps.Config.Messages.ImportDone, group.MessageCount, group.Name))
}

// download fetches a file through the Bot API file endpoint.
func (h importHandler) download(ctx context.Context, b *bot.Bot, fileID string) (data []byte, err error) {
	downloadCtx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	file, err := b.GetFile(downloadCtx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	if file.FilePath == "" {
		return nil, fmt.Errorf("empty file path returned from Telegram")
	}

	req, err := http.NewRequestWithContext(downloadCtx, http.MethodGet, b.FileDownloadLink(file), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := h.deps.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close response body: %w", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}
	data, err = io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read file data: %w", err)
	}
	return data, nil
}
