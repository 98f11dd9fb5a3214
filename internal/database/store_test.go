package database

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/chatinsight/internal/transcript"
)

func newTestStore(t *testing.T) *sqlxStore {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { CloseDB(db) })
	return NewStore(db, slog.New(slog.DiscardHandler)).(*sqlxStore)
}

func chat() []transcript.Message {
	return []transcript.Message{
		{Sender: "Jane Doe", Timestamp: "07/03/24, 9:00 am", Body: "morning all"},
		{Sender: "", Timestamp: "07/03/24, 9:01 am", Body: "John added Alice"},
		{Sender: "John", Timestamp: "08/03/24, 10:15 am", Body: "invoice attached"},
		{Sender: "Alice", Timestamp: "garbled", Body: "hi"},
	}
}

func TestNewDBAppliesMigrationsIdempotently(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "twice.db")
	db, err := NewDB(path)
	require.NoError(t, err)
	CloseDB(db)

	db, err = NewDB(path)
	require.NoError(t, err)
	defer CloseDB(db)

	var tables int
	require.NoError(t, db.Get(&tables, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('groups', 'messages', 'imports');`))
	assert.Equal(t, 3, tables)
}

func TestDataSourceName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "chat.db?_time_format=sqlite&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dataSourceName("chat.db"))
	assert.Equal(t, "file:chat.db?mode=rwc&_time_format=sqlite&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dataSourceName("file:chat.db?mode=rwc"))
	assert.Equal(t, "chat.db?_pragma=journal_mode(WAL)", dataSourceName("chat.db?_pragma=journal_mode(WAL)"))
	assert.Equal(t, "/data/my chat.db", ExtractDBNameFromPath("file:/data/my%20chat.db?mode=ro"))
}

func TestImportTranscript(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	group, err := store.ImportTranscript(ctx, "Team Chat", "team_chat.txt", chat())
	require.NoError(t, err)
	assert.Equal(t, "Team Chat", group.Name)
	assert.Equal(t, SourceWhatsApp, group.Source)
	assert.Equal(t, 4, group.MessageCount)

	got, err := store.GetGroupMessages(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, chat(), got)

	dates, err := store.GroupDates(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-07", "2024-03-08"}, dates)

	var imp Import
	require.NoError(t, store.db.Get(&imp, `SELECT * FROM imports;`))
	assert.Equal(t, ImportDone, imp.Status)
	assert.Equal(t, 4, imp.MessageCount)
	assert.Equal(t, "team_chat.txt", imp.FileName)
	assert.True(t, imp.FinishedAt.Valid)
}

func TestImportTranscriptReplacesGroup(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.ImportTranscript(ctx, "Team", "a.txt", chat())
	require.NoError(t, err)

	replacement := []transcript.Message{{Sender: "Bob", Timestamp: "09/03/24, 1:00 pm", Body: "fresh start"}}
	second, err := store.ImportTranscript(ctx, "Team", "b.txt", replacement)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	got, err := store.GetGroupMessages(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, replacement, got)

	groups, err := store.ListGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, 1, groups[0].MessageCount)
}

func TestImportTranscriptErrors(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.ImportTranscript(ctx, "Team", "a.txt", nil)
	require.ErrorIs(t, err, ErrEmptyTranscript)

	_, err = store.ImportTranscript(ctx, "  ", "a.txt", chat())
	require.Error(t, err)

	require.NoError(t, store.SaveChatMessage(ctx, 77, "", transcript.Message{Sender: "Jane", Timestamp: "2024-03-07, 09:00:00", Body: "hi"}))
	_, err = store.ImportTranscript(ctx, TelegramGroupName(77, ""), "a.txt", chat())
	require.ErrorIs(t, err, ErrGroupConflict)

	var statuses []string
	require.NoError(t, store.db.Select(&statuses, `SELECT status FROM imports;`))
	assert.Equal(t, []string{ImportFailed}, statuses)
}

func TestGetGroup(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetGroup(ctx, "missing")
	require.ErrorIs(t, err, ErrGroupNotFound)

	imported, err := store.ImportTranscript(ctx, "Team", "a.txt", chat())
	require.NoError(t, err)

	group, err := store.GetGroup(ctx, "Team")
	require.NoError(t, err)
	assert.Equal(t, imported.ID, group.ID)
	assert.Equal(t, 4, group.MessageCount)
	assert.False(t, group.ChatID.Valid)
}

func TestSaveChatMessage(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	at := time.Date(2024, time.March, 7, 9, 30, 0, 0, time.UTC)
	first := transcript.Message{Sender: "Jane", Timestamp: transcript.FormatTimestamp(at), Body: "first"}
	second := transcript.Message{Sender: "John", Timestamp: transcript.FormatTimestamp(at.Add(time.Minute)), Body: "second"}
	require.NoError(t, store.SaveChatMessage(ctx, -100123, "Book Club", first))
	require.NoError(t, store.SaveChatMessage(ctx, -100123, "Renamed Club", second))

	group, err := store.GetGroupByChat(ctx, -100123)
	require.NoError(t, err)
	assert.Equal(t, "Book Club [-100123]", group.Name)
	assert.Equal(t, SourceTelegram, group.Source)
	assert.Equal(t, 2, group.MessageCount)

	got, err := store.GetGroupMessages(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, []transcript.Message{first, second}, got)

	_, err = store.GetGroupByChat(ctx, 1)
	require.ErrorIs(t, err, ErrGroupNotFound)

	require.Error(t, store.SaveChatMessage(ctx, 0, "", first))
	require.Error(t, store.SaveChatMessage(ctx, 5, "", transcript.Message{Sender: "Jane", Body: "  "}))
}

func TestDeleteGroup(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	group, err := store.ImportTranscript(ctx, "Team", "a.txt", chat())
	require.NoError(t, err)

	require.NoError(t, store.DeleteGroup(ctx, "Team"))
	require.ErrorIs(t, store.DeleteGroup(ctx, "Team"), ErrGroupNotFound)

	var remaining int
	require.NoError(t, store.db.Get(&remaining, `SELECT COUNT(*) FROM messages WHERE group_id = ?;`, group.ID))
	assert.Zero(t, remaining)
}

func TestCleanupStaleImports(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	old := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
	for _, imp := range []Import{
		{ID: "old", GroupName: "a", FileName: "a.txt", Status: ImportPending, StartedAt: old},
		{ID: "recent", GroupName: "b", FileName: "b.txt", Status: ImportPending, StartedAt: recent},
		{ID: "done", GroupName: "c", FileName: "c.txt", Status: ImportDone, StartedAt: old},
	} {
		_, err := store.db.NamedExec(`INSERT INTO imports (id, group_name, file_name, status, message_count, started_at)
            VALUES (:id, :group_name, :file_name, :status, :message_count, :started_at);`, imp)
		require.NoError(t, err)
	}

	n, err := store.CleanupStaleImports(ctx, time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var status string
	require.NoError(t, store.db.Get(&status, `SELECT status FROM imports WHERE id = 'old';`))
	assert.Equal(t, ImportFailed, status)
	require.NoError(t, store.db.Get(&status, `SELECT status FROM imports WHERE id = 'recent';`))
	assert.Equal(t, ImportPending, status)
}

func TestRunSQLMaintenance(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	require.NoError(t, store.RunSQLMaintenance(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, store.RunSQLMaintenance(ctx), context.Canceled)
	require.NoError(t, store.Ping(context.Background()))
}
