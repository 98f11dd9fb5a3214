package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"
	"testing"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/chatinsight/internal/config"
	"github.com/edgard/chatinsight/internal/database"
	"github.com/edgard/chatinsight/internal/query"
	"github.com/edgard/chatinsight/internal/service"
	"github.com/edgard/chatinsight/internal/transcript"
)

const adminID = 7

// fakeAPI is a minimal Bot API server recording the messages it is asked to send.
type fakeAPI struct {
	mu    sync.Mutex
	sent  []string
	file  string
	calls map[string]int
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.Contains(r.URL.Path, "/file/bot") {
		_, _ = io.WriteString(w, f.file)
		return
	}

	fields := map[string]string{}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			for k, v := range r.MultipartForm.Value {
				fields[k] = v[0]
			}
		}
	} else {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			for k, v := range body {
				fields[k] = fmt.Sprint(v)
			}
		}
	}

	method := path.Base(r.URL.Path)
	f.mu.Lock()
	f.calls[method]++
	if method == "sendMessage" {
		f.sent = append(f.sent, fields["text"])
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch method {
	case "sendMessage":
		_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":100,"date":0,"chat":{"id":42,"type":"group"}}}`)
	case "getFile":
		_, _ = io.WriteString(w, `{"ok":true,"result":{"file_id":"f1","file_unique_id":"u1","file_path":"documents/chat.txt"}}`)
	default:
		_, _ = io.WriteString(w, `{"ok":true,"result":true}`)
	}
}

func (f *fakeAPI) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func newFakeBot(t *testing.T) (*tgbot.Bot, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{calls: map[string]int{}}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	b, err := tgbot.New("123:test", tgbot.WithServerURL(srv.URL), tgbot.WithSkipGetMe())
	require.NoError(t, err)
	return b, api
}

type fakeService struct {
	mu       sync.Mutex
	answer   *query.Response
	err      error
	stats    string
	recorded []transcript.Message
	titles   []string
	imported string
	caption  string
}

func (f *fakeService) AskChat(context.Context, int64, string) (*query.Response, error) {
	return f.answer, f.err
}

func (f *fakeService) ChatStats(context.Context, int64) (string, error) {
	return f.stats, f.err
}

func (f *fakeService) Record(_ context.Context, _ int64, title string, msg transcript.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, msg)
	f.titles = append(f.titles, title)
	return f.err
}

func (f *fakeService) Import(_ context.Context, transport, _, groupName string, r io.Reader) (*database.Group, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.imported = string(data)
	f.caption = groupName
	if groupName == "" {
		groupName = "Chat"
	}
	return &database.Group{Name: groupName, Source: transport, MessageCount: strings.Count(f.imported, "\n")}, nil
}

func newDeps(svc ChatService) HandlerDeps {
	return HandlerDeps{
		Logger:  slog.New(slog.DiscardHandler),
		Config:  &config.TelegramConfig{Enabled: true, AdminID: adminID, Messages: config.DefaultMessages},
		Service: svc,
	}
}

func textUpdate(from int64, text string) *models.Update {
	return &models.Update{
		ID: 1,
		Message: &models.Message{
			ID:   10,
			Date: int(time.Date(2024, time.March, 9, 10, 30, 0, 0, time.UTC).Unix()),
			Chat: models.Chat{ID: 42, Title: "Friends"},
			From: &models.User{ID: from, FirstName: "Ann", LastName: "Lee"},
			Text: text,
		},
	}
}

func TestAskHandler(t *testing.T) {
	t.Parallel()

	msgs := config.DefaultMessages
	tests := []struct {
		name string
		text string
		resp *query.Response
		err  error
		want string
	}{
		{name: "answer", text: "/ask who is most active?", resp: &query.Response{Answer: "Ann: 3 messages"}, want: "Ann: 3 messages"},
		{name: "missing question", text: "/ask", want: msgs.ProvideQuestion},
		{name: "unknown chat", text: "/ask hi", err: database.ErrGroupNotFound, want: msgs.NoMessages},
		{name: "resolution", text: "/ask what did Zed say?", err: &query.Error{Kind: query.ErrResolution, Message: "Could not find user 'Zed'"}, want: "Could not find user 'Zed'"},
		{name: "internal", text: "/ask hi", err: &query.Error{Kind: query.ErrInternal, Message: "Error processing question: boom"}, want: msgs.GeneralError},
		{name: "unexpected", text: "/ask hi", err: errors.New("disk gone"), want: msgs.GeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b, api := newFakeBot(t)
			h := NewAskHandler(newDeps(&fakeService{answer: tt.resp, err: tt.err}))
			h(context.Background(), b, textUpdate(1, tt.text))

			assert.Equal(t, []string{tt.want}, api.messages())
		})
	}
}

func TestStatsHandler(t *testing.T) {
	t.Parallel()

	b, api := newFakeBot(t)
	NewStatsHandler(newDeps(&fakeService{stats: "Total messages: 3"}))(context.Background(), b, textUpdate(1, "/stats"))
	NewStatsHandler(newDeps(&fakeService{err: database.ErrGroupNotFound}))(context.Background(), b, textUpdate(1, "/stats"))

	assert.Equal(t, []string{"Total messages: 3", config.DefaultMessages.NoMessages}, api.messages())
}

func TestStartAndHelp(t *testing.T) {
	t.Parallel()

	b, api := newFakeBot(t)
	deps := newDeps(&fakeService{})
	NewStartHandler(deps)(context.Background(), b, textUpdate(1, "/start"))
	NewHelpHandler(deps)(context.Background(), b, textUpdate(1, "/help"))

	assert.Equal(t, []string{config.DefaultMessages.Welcome, config.DefaultMessages.Help}, api.messages())
}

func TestRecordHandler(t *testing.T) {
	t.Parallel()

	svc := &fakeService{}
	h := NewRecordHandler(newDeps(svc))

	h(context.Background(), nil, textUpdate(1, "good morning"))
	h(context.Background(), nil, textUpdate(1, "/ask something"))
	h(context.Background(), nil, textUpdate(1, "   "))
	h(context.Background(), nil, &models.Update{ID: 2})

	fromBot := textUpdate(1, "beep")
	fromBot.Message.From.IsBot = true
	h(context.Background(), nil, fromBot)

	captioned := textUpdate(1, "")
	captioned.Message.Caption = "look at this"
	captioned.Message.From = &models.User{ID: 3, Username: "ben"}
	h(context.Background(), nil, captioned)

	require.Len(t, svc.recorded, 2)
	assert.Equal(t, transcript.Message{Sender: "Ann Lee", Timestamp: "2024-03-09, 10:30:00", Body: "good morning"}, svc.recorded[0])
	assert.Equal(t, "ben", svc.recorded[1].Sender)
	assert.Equal(t, "look at this", svc.recorded[1].Body)
	assert.Equal(t, []string{"Friends", "Friends"}, svc.titles)
}

func documentUpdate(from int64, name, caption string) *models.Update {
	u := textUpdate(from, "")
	u.Message.Caption = caption
	u.Message.Document = &models.Document{FileID: "f1", FileUniqueID: "u1", FileName: name, FileSize: 64}
	return u
}

func TestImportHandler(t *testing.T) {
	t.Parallel()

	const export = "07/03/2024, 9:00 am - Ann: hi\n07/03/2024, 9:01 am - Ben: hello\n"

	b, api := newFakeBot(t)
	api.file = export
	svc := &fakeService{}
	deps := newDeps(svc)
	h := AdminOnly(deps)(NewImportHandler(deps))

	h(context.Background(), b, documentUpdate(adminID, "chat.txt", "Team"))
	assert.Equal(t, export, svc.imported)
	assert.Equal(t, "Team", svc.caption)

	h(context.Background(), b, documentUpdate(99, "chat.txt", ""))

	assert.Equal(t, []string{
		fmt.Sprintf(config.DefaultMessages.ImportDone, 2, "Team"),
		config.DefaultMessages.NotAuthorized,
	}, api.messages())
}

func TestImportHandlerFailure(t *testing.T) {
	t.Parallel()

	b, api := newFakeBot(t)
	api.file = "not an export"
	deps := newDeps(&fakeService{err: database.ErrEmptyTranscript})
	NewImportHandler(deps)(context.Background(), b, documentUpdate(adminID, "chat.txt", ""))

	big := documentUpdate(adminID, "chat.txt", "")
	big.Message.Document.FileSize = maxDocumentBytes + 1
	NewImportHandler(deps)(context.Background(), b, big)

	assert.Equal(t, []string{config.DefaultMessages.ImportFailed, config.DefaultMessages.ImportFailed}, api.messages())
}

func TestIsTranscriptDocument(t *testing.T) {
	t.Parallel()

	assert.True(t, IsTranscriptDocument(documentUpdate(1, "WhatsApp Chat.TXT", "")))
	assert.False(t, IsTranscriptDocument(documentUpdate(1, "photo.jpg", "")))
	assert.False(t, IsTranscriptDocument(textUpdate(1, "hello")))
}

func TestHelpers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "who is active?", commandArgs("/ask@chatinsight_bot   who is active? "))
	assert.Equal(t, "", commandArgs("/ask"))
	assert.Equal(t, "ab\u2026", clip("abcdef", 3))
	assert.Equal(t, "abc", clip("abc", 3))
	assert.Equal(t, "user 5", senderName(&models.User{ID: 5}))
	assert.Equal(t, "Ann", chatTitle(models.Chat{FirstName: "Ann"}))
}

func TestBotCommands(t *testing.T) {
	t.Parallel()

	cmds := BotCommands(RegisterAllCommands(newDeps(&fakeService{})))
	var names []string
	for _, c := range cmds {
		names = append(names, c.Command)
	}
	assert.Equal(t, []string{"ask", "help", "start", "stats"}, names)
}

var _ ChatService = (*service.Service)(nil)
