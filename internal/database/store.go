package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edgard/chatinsight/internal/transcript"
)

// insertBatchSize bounds the rows of one multi-row INSERT.
const insertBatchSize = 500

var (
	// ErrGroupNotFound is returned when no group matches the requested name or chat.
	ErrGroupNotFound = errors.New("group not found")
	// ErrEmptyTranscript is returned when an import carries no messages.
	ErrEmptyTranscript = errors.New("transcript contains no messages")
	// ErrGroupConflict is returned when an import targets a group recorded from a live chat.
	ErrGroupConflict = errors.New("group name belongs to a recorded chat")
)

// Store defines the interface for database operations.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// ImportTranscript stores messages as the full content of the named group,
	// replacing what an earlier import of the same name stored.
	ImportTranscript(ctx context.Context, groupName, fileName string, messages []transcript.Message) (*Group, error)

	// ListGroups returns every group with its message count, ordered by name.
	ListGroups(ctx context.Context) ([]Group, error)

	// GetGroup finds a group by name.
	GetGroup(ctx context.Context, name string) (*Group, error)

	// GetGroupByChat finds the group recording a Telegram chat.
	GetGroupByChat(ctx context.Context, chatID int64) (*Group, error)

	// GetGroupMessages returns the corpus of a group in stored order.
	GetGroupMessages(ctx context.Context, groupID string) ([]transcript.Message, error)

	// GroupDates lists the distinct calendar dates (YYYY-MM-DD) with messages, ascending.
	GroupDates(ctx context.Context, groupID string) ([]string, error)

	// SaveChatMessage appends a live message to the group of chatID, creating it when needed.
	SaveChatMessage(ctx context.Context, chatID int64, title string, message transcript.Message) error

	// DeleteGroup removes a group and its messages.
	DeleteGroup(ctx context.Context, name string) error

	// CleanupStaleImports marks imports still pending since before cutoff as failed.
	CleanupStaleImports(ctx context.Context, cutoff time.Time) (int64, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates a new Store implementation backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// TelegramGroupName names the group that records a Telegram chat.
func TelegramGroupName(chatID int64, title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Sprintf("telegram %d", chatID)
	}
	return fmt.Sprintf("%s [%d]", title, chatID)
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) ImportTranscript(ctx context.Context, groupName, fileName string, messages []transcript.Message) (*Group, error) {
	groupName = strings.TrimSpace(groupName)
	if groupName == "" {
		return nil, errors.New("group name cannot be empty")
	}
	if len(messages) == 0 {
		return nil, ErrEmptyTranscript
	}

	imp := Import{
		ID:        uuid.NewString(),
		GroupName: groupName,
		FileName:  fileName,
		Status:    ImportPending,
		StartedAt: s.now(),
	}
	if _, err := s.db.NamedExecContext(ctx, `
        INSERT INTO imports (id, group_name, file_name, status, message_count, started_at)
        VALUES (:id, :group_name, :file_name, :status, :message_count, :started_at);
    `, imp); err != nil {
		return nil, fmt.Errorf("failed to record import: %w", err)
	}

	group, err := s.replaceGroupMessages(ctx, groupName, messages)
	if err != nil {
		s.finishImport(ctx, imp.ID, ImportFailed, 0, err)
		s.logger.ErrorContext(ctx, "Transcript import failed", "import_id", imp.ID, "group", groupName, "error", err)
		return nil, err
	}
	s.finishImport(ctx, imp.ID, ImportDone, len(messages), nil)

	s.logger.InfoContext(ctx, "Transcript imported", "import_id", imp.ID, "group", groupName, "messages", len(messages))
	return group, nil
}

func (s *sqlxStore) replaceGroupMessages(ctx context.Context, groupName string, messages []transcript.Message) (*Group, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.rollback(ctx, tx)

	now := s.now()
	var group Group
	err = tx.GetContext(ctx, &group, `SELECT id, name, source, chat_id, created_at, updated_at, 0 AS message_count FROM groups WHERE name = ?;`, groupName)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		group = Group{ID: uuid.NewString(), Name: groupName, Source: SourceWhatsApp, CreatedAt: now, UpdatedAt: now}
		if _, err := tx.NamedExecContext(ctx, `
            INSERT INTO groups (id, name, source, chat_id, created_at, updated_at)
            VALUES (:id, :name, :source, :chat_id, :created_at, :updated_at);
        `, group); err != nil {
			return nil, fmt.Errorf("failed to create group %q: %w", groupName, err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to look up group %q: %w", groupName, err)
	case group.Source != SourceWhatsApp:
		return nil, fmt.Errorf("%w: %q", ErrGroupConflict, groupName)
	default:
		if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE group_id = ?;`, group.ID); err != nil {
			return nil, fmt.Errorf("failed to clear group %q: %w", groupName, err)
		}
		group.UpdatedAt = now
		if _, err := tx.ExecContext(ctx, `UPDATE groups SET updated_at = ? WHERE id = ?;`, now, group.ID); err != nil {
			return nil, fmt.Errorf("failed to update group %q: %w", groupName, err)
		}
	}

	rows := make([]Message, len(messages))
	for i, m := range messages {
		rows[i] = newMessage(group.ID, i+1, m)
	}
	for batch := range slices.Chunk(rows, insertBatchSize) {
		if _, err := tx.NamedExecContext(ctx, `
            INSERT INTO messages (group_id, position, sender, timestamp, sent_at, body)
            VALUES (:group_id, :position, :sender, :timestamp, :sent_at, :body);
        `, batch); err != nil {
			return nil, fmt.Errorf("failed to insert messages: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	group.MessageCount = len(messages)
	return &group, nil
}

func (s *sqlxStore) finishImport(ctx context.Context, id, status string, count int, cause error) {
	var errText sql.NullString
	if cause != nil {
		errText = sql.NullString{String: cause.Error(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
        UPDATE imports SET status = ?, message_count = ?, error = ?, finished_at = ?
        WHERE id = ?;
    `, status, count, errText, s.now(), id)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to update import record", "import_id", id, "status", status, "error", err)
	}
}

const groupColumns = `g.id, g.name, g.source, g.chat_id, g.created_at, g.updated_at,
        (SELECT COUNT(*) FROM messages m WHERE m.group_id = g.id) AS message_count`

func (s *sqlxStore) ListGroups(ctx context.Context) ([]Group, error) {
	var groups []Group
	if err := s.db.SelectContext(ctx, &groups, `SELECT `+groupColumns+` FROM groups g ORDER BY g.name;`); err != nil {
		s.logger.ErrorContext(ctx, "Error listing groups", "error", err)
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

func (s *sqlxStore) GetGroup(ctx context.Context, name string) (*Group, error) {
	return s.getGroup(ctx, `SELECT `+groupColumns+` FROM groups g WHERE g.name = ?;`, name)
}

func (s *sqlxStore) GetGroupByChat(ctx context.Context, chatID int64) (*Group, error) {
	return s.getGroup(ctx, `SELECT `+groupColumns+` FROM groups g WHERE g.chat_id = ?;`, chatID)
}

func (s *sqlxStore) getGroup(ctx context.Context, query string, arg any) (*Group, error) {
	var group Group
	if err := s.db.GetContext(ctx, &group, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return &group, nil
}

func (s *sqlxStore) GetGroupMessages(ctx context.Context, groupID string) ([]transcript.Message, error) {
	var rows []Message
	err := s.db.SelectContext(ctx, &rows, `
        SELECT id, group_id, position, sender, timestamp, sent_at, body
        FROM messages
        WHERE group_id = ?
        ORDER BY position;
    `, groupID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error fetching group messages", "group_id", groupID, "error", err)
		return nil, fmt.Errorf("failed to get messages for group %s: %w", groupID, err)
	}

	messages := make([]transcript.Message, len(rows))
	for i, r := range rows {
		messages[i] = r.Transcript()
	}
	return messages, nil
}

func (s *sqlxStore) GroupDates(ctx context.Context, groupID string) ([]string, error) {
	var stamps []time.Time
	err := s.db.SelectContext(ctx, &stamps, `
        SELECT sent_at FROM messages
        WHERE group_id = ? AND sent_at IS NOT NULL;
    `, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get dates for group %s: %w", groupID, err)
	}

	seen := make(map[string]struct{})
	dates := []string{}
	for _, at := range stamps {
		d := at.UTC().Format(time.DateOnly)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		dates = append(dates, d)
	}
	slices.Sort(dates)
	return dates, nil
}

func (s *sqlxStore) SaveChatMessage(ctx context.Context, chatID int64, title string, message transcript.Message) error {
	if chatID == 0 {
		return errors.New("chat_id cannot be zero")
	}
	if strings.TrimSpace(message.Body) == "" {
		return errors.New("message must have non-empty content")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.rollback(ctx, tx)

	var groupID string
	err = tx.GetContext(ctx, &groupID, `SELECT id FROM groups WHERE chat_id = ?;`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		now := s.now()
		group := Group{
			ID:        uuid.NewString(),
			Name:      TelegramGroupName(chatID, title),
			Source:    SourceTelegram,
			ChatID:    sql.NullInt64{Int64: chatID, Valid: true},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err := tx.NamedExecContext(ctx, `
            INSERT INTO groups (id, name, source, chat_id, created_at, updated_at)
            VALUES (:id, :name, :source, :chat_id, :created_at, :updated_at);
        `, group); err != nil {
			return fmt.Errorf("failed to create group for chat %d: %w", chatID, err)
		}
		groupID = group.ID
		s.logger.InfoContext(ctx, "Started recording chat", "chat_id", chatID, "group", group.Name)
	} else if err != nil {
		return fmt.Errorf("failed to look up chat %d: %w", chatID, err)
	}

	var position int
	if err := tx.GetContext(ctx, &position, `SELECT COALESCE(MAX(position), 0) + 1 FROM messages WHERE group_id = ?;`, groupID); err != nil {
		return fmt.Errorf("failed to compute message position: %w", err)
	}

	if _, err := tx.NamedExecContext(ctx, `
        INSERT INTO messages (group_id, position, sender, timestamp, sent_at, body)
        VALUES (:group_id, :position, :sender, :timestamp, :sent_at, :body);
    `, newMessage(groupID, position, message)); err != nil {
		return fmt.Errorf("failed to save message (chat %d): %w", chatID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.logger.DebugContext(ctx, "Message saved successfully", "chat_id", chatID, "position", position)
	return nil
}

func (s *sqlxStore) DeleteGroup(ctx context.Context, name string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.rollback(ctx, tx)

	var groupID string
	if err := tx.GetContext(ctx, &groupID, `SELECT id FROM groups WHERE name = ?;`, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrGroupNotFound
		}
		return fmt.Errorf("failed to look up group %q: %w", name, err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE group_id = ?;`, groupID)
	if err != nil {
		return fmt.Errorf("failed to delete messages of group %q: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM groups WHERE id = ?;`, groupID); err != nil {
		return fmt.Errorf("failed to delete group %q: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	deleted, _ := result.RowsAffected()
	s.logger.InfoContext(ctx, "Group deleted", "group", name, "messages_deleted", deleted)
	return nil
}

func (s *sqlxStore) CleanupStaleImports(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
        UPDATE imports SET status = ?, error = ?, finished_at = ?
        WHERE status = ? AND started_at < ?;
    `, ImportFailed, "abandoned before completion", s.now(), ImportPending, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to clean up stale imports: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cleaned imports: %w", err)
	}
	if affected > 0 {
		s.logger.InfoContext(ctx, "Marked stale imports as failed", "count", affected, "cutoff", cutoff)
	}
	return affected, nil
}

// RunSQLMaintenance executes VACUUM and lets SQLite refresh its planner statistics.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction.
	_, err := s.db.ExecContext(ctx, "VACUUM;")
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)
	case err != nil:
		s.logger.ErrorContext(ctx, "Error running VACUUM", "error", err)
		return fmt.Errorf("failed to run VACUUM: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, "PRAGMA optimize;"); err != nil {
		s.logger.WarnContext(ctx, "PRAGMA optimize failed", "error", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully.")
	return nil
}

func (s *sqlxStore) rollback(ctx context.Context, tx *sqlx.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		s.logger.WarnContext(ctx, "Error rolling back transaction", "error", err)
	}
}
