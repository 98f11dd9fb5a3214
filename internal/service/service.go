// Package service ties the question engine to stored groups. The HTTP API,
// the Telegram handlers and the CLI all go through it.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/edgard/chatinsight/internal/database"
	"github.com/edgard/chatinsight/internal/query"
	"github.com/edgard/chatinsight/internal/report"
	"github.com/edgard/chatinsight/internal/transcript"
)

// Transports reported to the Observer.
const (
	TransportHTTP     = "http"
	TransportTelegram = "telegram"
	TransportCLI      = "cli"
)

// Observer is notified of imports and recorded chat messages.
type Observer interface {
	ObserveImport(transport string, messages int, err error)
	ObserveRecorded()
}

type nopObserver struct{}

func (nopObserver) ObserveImport(string, int, error) {}
func (nopObserver) ObserveRecorded()                 {}

// DateSpan lists the days of a group that carry messages.
type DateSpan struct {
	Start string   `json:"start_date"`
	End   string   `json:"end_date"`
	Dates []string `json:"dates"`
}

// ErrNoDates is returned for groups whose messages carry no parsable timestamp.
var ErrNoDates = errors.New("group has no dated messages")

type Service struct {
	store    database.Store
	engine   *query.Engine
	reporter *report.Reporter
	observer Observer
	log      *slog.Logger
}

// New creates a Service. A nil reporter gets the offline defaults and a nil
// observer disables notifications.
func New(store database.Store, engine *query.Engine, reporter *report.Reporter, observer Observer, log *slog.Logger) *Service {
	if reporter == nil {
		reporter = report.New(report.Options{Logger: log})
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &Service{
		store:    store,
		engine:   engine,
		reporter: reporter,
		observer: observer,
		log:      log.With("component", "service"),
	}
}

// Ask answers a question over the stored group called groupName.
// An unknown group yields database.ErrGroupNotFound.
func (s *Service) Ask(ctx context.Context, groupName string, req query.Request) (*query.Response, error) {
	group, err := s.store.GetGroup(ctx, groupName)
	if err != nil {
		return nil, err
	}
	return s.ask(ctx, group, req)
}

// AskChat answers a question over the recorded history of a Telegram chat.
func (s *Service) AskChat(ctx context.Context, chatID int64, question string) (*query.Response, error) {
	group, err := s.store.GetGroupByChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return s.ask(ctx, group, query.Request{Question: question})
}

func (s *Service) ask(ctx context.Context, group *database.Group, req query.Request) (*query.Response, error) {
	messages, err := s.store.GetGroupMessages(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	resp, err := s.engine.Ask(ctx, query.Corpus{Group: group.Name, Messages: messages}, req)
	if err != nil {
		s.log.DebugContext(ctx, "Question not answered", "group", group.Name, "error", err)
		return nil, err
	}
	s.log.InfoContext(ctx, "Question answered", "group", group.Name, "intent", resp.Classification.Intent, "source", resp.Source)
	return resp, nil
}

// ChatStats renders the general statistics of a recorded Telegram chat.
func (s *Service) ChatStats(ctx context.Context, chatID int64) (string, error) {
	group, err := s.store.GetGroupByChat(ctx, chatID)
	if err != nil {
		return "", err
	}
	messages, err := s.store.GetGroupMessages(ctx, group.ID)
	if err != nil {
		return "", err
	}
	return query.Render(query.StatsResult{Stats: query.ComputeStats(messages)}), nil
}

// Import parses a WhatsApp export and stores it. An empty groupName derives
// the name from fileName.
func (s *Service) Import(ctx context.Context, transport, fileName, groupName string, r io.Reader) (group *database.Group, err error) {
	defer func() {
		count := 0
		if group != nil {
			count = group.MessageCount
		}
		s.observer.ObserveImport(transport, count, err)
	}()

	if groupName == "" {
		groupName = transcript.GroupNameFromFile(fileName)
	}
	messages, err := transcript.ParseWhatsApp(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", fileName, err)
	}
	if len(messages) == 0 {
		return nil, database.ErrEmptyTranscript
	}
	return s.store.ImportTranscript(ctx, groupName, fileName, transcript.SortChronological(messages))
}

// Record stores one live chat message.
func (s *Service) Record(ctx context.Context, chatID int64, title string, message transcript.Message) error {
	if err := s.store.SaveChatMessage(ctx, chatID, title, message); err != nil {
		return err
	}
	s.observer.ObserveRecorded()
	return nil
}

func (s *Service) Groups(ctx context.Context) ([]database.Group, error) {
	return s.store.ListGroups(ctx)
}

func (s *Service) DeleteGroup(ctx context.Context, name string) error {
	return s.store.DeleteGroup(ctx, name)
}

// Dates lists the days of the named group that carry messages.
func (s *Service) Dates(ctx context.Context, name string) (DateSpan, error) {
	group, err := s.store.GetGroup(ctx, name)
	if err != nil {
		return DateSpan{}, err
	}
	dates, err := s.store.GroupDates(ctx, group.ID)
	if err != nil {
		return DateSpan{}, err
	}
	if len(dates) == 0 {
		return DateSpan{}, ErrNoDates
	}
	return DateSpan{Start: dates[0], End: dates[len(dates)-1], Dates: dates}, nil
}

// SummaryRequest selects a summary of a stored group, optionally restricted
// to an inclusive date range.
type SummaryRequest struct {
	Kind  report.Kind
	User  string
	Start *query.Date
	End   *query.Date
}

// Summarize builds a summary of the named group.
func (s *Service) Summarize(ctx context.Context, name string, req SummaryRequest) (report.Summary, error) {
	messages, err := s.groupMessages(ctx, name)
	if err != nil {
		return report.Summary{}, err
	}
	sum, err := s.reporter.Summarize(ctx, query.FilterByDateRange(messages, req.Start, req.End), req.Kind, req.User)
	if err != nil {
		return report.Summary{}, err
	}
	s.log.InfoContext(ctx, "Summary built", "group", name, "kind", sum.Kind, "source", sum.Source)
	return sum, nil
}

// Activity breaks down the activity of the named group.
func (s *Service) Activity(ctx context.Context, name string, req report.ActivityRequest) (report.Activity, error) {
	messages, err := s.groupMessages(ctx, name)
	if err != nil {
		return report.Activity{}, err
	}
	return s.reporter.Activity(messages, req)
}

// Sentiment scores the mood of the named group over an optional date range.
func (s *Service) Sentiment(ctx context.Context, name string, start, end *query.Date) (report.SentimentOverview, error) {
	messages, err := s.groupMessages(ctx, name)
	if err != nil {
		return report.SentimentOverview{}, err
	}
	return s.reporter.Sentiment(ctx, query.FilterByDateRange(messages, start, end))
}

func (s *Service) groupMessages(ctx context.Context, name string) ([]transcript.Message, error) {
	group, err := s.store.GetGroup(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.store.GetGroupMessages(ctx, group.ID)
}
