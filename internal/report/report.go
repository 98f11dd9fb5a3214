// Package report builds the whole-transcript reports of chatinsight:
// summaries of a date range, activity breakdowns and the sentiment overview.
// Unlike the question engine it does not interpret free text; callers pick
// the report and its parameters explicitly.
package report

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/edgard/chatinsight/internal/query"
	"github.com/edgard/chatinsight/internal/transcript"
)

const (
	defaultAITimeout           = 30 * time.Second
	defaultMaxPromptMessages   = 100
	defaultMaxBriefMessages    = 200
	defaultMaxActivityMessages = 10000
)

var (
	// ErrNoMessages is returned when the selected range holds no messages.
	ErrNoMessages = errors.New("no messages found in the selected date range")
	// ErrUnknownKind is returned for summary kinds this package does not produce.
	ErrUnknownKind = errors.New("invalid summary type")
	// ErrUserRequired is returned by the per-user summary kinds when no user is named.
	ErrUserRequired = errors.New("no user specified")
	// ErrNoAnalyzer is returned by Sentiment when no analyzer is configured.
	ErrNoAnalyzer = errors.New("no sentiment analyzer configured")
)

// Options configures a Reporter. Zero values select the defaults.
type Options struct {
	Completer query.Completer
	Sentiment query.SentimentAnalyzer
	Observer  query.Observer
	Logger    *slog.Logger

	AITimeout           time.Duration
	FallbackExamples    int
	MaxPromptMessages   int
	MaxBriefMessages    int
	MaxActivityMessages int
}

type nopObserver struct{}

func (nopObserver) ObserveQuestion(query.Intent, query.Source, error) {}
func (nopObserver) ObserveCompletion(query.CompletionStatus)          {}

// Reporter produces reports over message sets. It is safe for concurrent use.
type Reporter struct {
	opts  Options
	synth *query.Synthesizer
	log   *slog.Logger
}

// New creates a Reporter from opts.
func New(opts Options) *Reporter {
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.AITimeout <= 0 {
		opts.AITimeout = defaultAITimeout
	}
	if opts.MaxPromptMessages <= 0 {
		opts.MaxPromptMessages = defaultMaxPromptMessages
	}
	if opts.MaxBriefMessages <= 0 {
		opts.MaxBriefMessages = defaultMaxBriefMessages
	}
	if opts.MaxActivityMessages <= 0 {
		opts.MaxActivityMessages = defaultMaxActivityMessages
	}
	return &Reporter{
		opts:  opts,
		synth: query.NewSynthesizer(opts.FallbackExamples),
		log:   opts.Logger.With("component", "reporter"),
	}
}

// complete asks the completer once. The second return value is false when
// no completer is configured or it produced no usable text.
func (r *Reporter) complete(ctx context.Context, prompt string) (string, bool) {
	if r.opts.Completer == nil {
		return "", false
	}
	cctx, cancel := context.WithTimeout(ctx, r.opts.AITimeout)
	defer cancel()

	c := r.opts.Completer.Complete(cctx, prompt)
	r.opts.Observer.ObserveCompletion(c.Status)
	if c.Status == query.CompletionOK && strings.TrimSpace(c.Text) != "" {
		return c.Text, true
	}
	r.log.WarnContext(ctx, "Completion unavailable, using offline report", "status", c.Status, "error", c.Err)
	return "", false
}

// participantMessages drops system lines and export noise.
func participantMessages(messages []transcript.Message) []transcript.Message {
	var out []transcript.Message
	for _, m := range messages {
		if !query.IsNoise(m) {
			out = append(out, m)
		}
	}
	return out
}

func dateOf(m transcript.Message) (query.Date, bool) {
	at, ok := m.Time()
	if !ok {
		return query.Date{}, false
	}
	return query.DateOf(at), true
}

func weekday(d query.Date) time.Weekday {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Weekday()
}

// monday returns the Monday starting the week of d.
func monday(d query.Date) query.Date {
	return d.AddDays(-((int(weekday(d)) + 6) % 7))
}

// spanDays counts the calendar days between the first and last dated message, inclusive.
// Fewer than two dated messages count as one day.
func spanDays(messages []transcript.Message) int {
	var first, last query.Date
	n := 0
	for _, m := range messages {
		d, ok := dateOf(m)
		if !ok {
			continue
		}
		if n == 0 || d.Compare(first) < 0 {
			first = d
		}
		if n == 0 || d.Compare(last) > 0 {
			last = d
		}
		n++
	}
	if n < 2 {
		return 1
	}
	a := time.Date(first.Year, first.Month, first.Day, 0, 0, 0, 0, time.UTC)
	b := time.Date(last.Year, last.Month, last.Day, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours()/24) + 1
}
