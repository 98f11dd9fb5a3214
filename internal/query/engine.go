// Package query answers free-text questions about a chat transcript.
// It classifies the question, extracts dates, clock times and participants from it,
// runs the matching analytics over the messages and renders a textual answer.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/edgard/chatinsight/internal/transcript"
)

// Source tells where an answer came from.
type Source string

const (
	SourceComputed Source = "computed"
	SourceAI       Source = "ai"
	SourceFallback Source = "fallback"
)

const (
	defaultAITimeout     = 30 * time.Second
	defaultModeledTopics = 5
)

// Options configures an Engine. Zero values select the defaults.
type Options struct {
	Completer Completer
	Sentiment SentimentAnalyzer
	Topics    TopicModeler
	Observer  Observer
	Logger    *slog.Logger
	Now       func() time.Time

	UserMatchThreshold int
	MaxUserMessages    int
	MaxWindowMessages  int
	MaxContextMessages int
	RankingLimit       int
	FallbackExamples   int
	ModeledTopics      int
	AITimeout          time.Duration
}

func (o Options) withDefaults() Options {
	if o.Observer == nil {
		o.Observer = nopObserver{}
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.UserMatchThreshold <= 0 {
		o.UserMatchThreshold = DefaultUserMatchThreshold
	}
	if o.MaxUserMessages <= 0 {
		o.MaxUserMessages = defaultMaxUserMessages
	}
	if o.MaxWindowMessages <= 0 {
		o.MaxWindowMessages = defaultWindowMessages
	}
	if o.MaxContextMessages <= 0 {
		o.MaxContextMessages = defaultMaxContextMessages
	}
	if o.RankingLimit <= 0 {
		o.RankingLimit = defaultRankingLimit
	}
	if o.ModeledTopics <= 0 {
		o.ModeledTopics = defaultModeledTopics
	}
	if o.AITimeout <= 0 {
		o.AITimeout = defaultAITimeout
	}
	return o
}

// Engine answers questions. It holds no per-request state and is safe for concurrent use.
type Engine struct {
	opts  Options
	synth *Synthesizer
	log   *slog.Logger
}

// New creates an Engine from opts.
func New(opts Options) *Engine {
	opts = opts.withDefaults()
	return &Engine{
		opts:  opts,
		synth: NewSynthesizer(opts.FallbackExamples),
		log:   opts.Logger.With("component", "query_engine"),
	}
}

// Corpus is the read-only message set a question is asked against.
type Corpus struct {
	Group    string
	Messages []transcript.Message
}

// Request is one question, optionally restricted to an inclusive date range.
type Request struct {
	Question string
	Start    *Date
	End      *Date
}

// Response is the answer to a question together with how it was produced.
type Response struct {
	Answer         string         `json:"answer"`
	Source         Source         `json:"source"`
	Classification Classification `json:"classification"`
	Result         Result         `json:"data"`
}

// Ask answers req over corpus. Errors are *Error values whose kind can be matched
// with errors.Is against ErrInput, ErrResolution, ErrEmptyResult and ErrInternal.
func (e *Engine) Ask(ctx context.Context, corpus Corpus, req Request) (resp *Response, err error) {
	var cls Classification
	defer func() {
		if r := recover(); r != nil {
			e.log.ErrorContext(ctx, "Recovered from panic while answering question", "panic", r, "question", req.Question)
			resp, err = nil, internalError(fmt.Errorf("%v", r))
		}
		var source Source
		if resp != nil {
			source = resp.Source
		}
		e.opts.Observer.ObserveQuestion(cls.Intent, source, err)
	}()

	if strings.TrimSpace(req.Question) == "" {
		return nil, inputError("Question cannot be empty")
	}
	if len(corpus.Messages) == 0 {
		return nil, inputError("No messages available for analysis")
	}

	resolver := NewResolver(transcript.Senders(corpus.Messages), e.opts.UserMatchThreshold)
	cls = NewClassifier(resolver, DateOf(e.opts.Now())).Classify(req.Question)
	e.log.DebugContext(ctx, "Classified question", "intent", cls.Intent, "group", corpus.Group)

	messages := corpus.Messages
	if cls.Intent != IntentDateBased {
		messages = FilterByDateRange(messages, req.Start, req.End)
		if len(messages) == 0 {
			return nil, emptyResultError("No messages found in the selected date range")
		}
	}

	result, source, err := e.dispatch(ctx, corpus.Group, cls, messages)
	if err != nil {
		var qerr *Error
		if !errors.As(err, &qerr) {
			err = internalError(err)
		}
		return nil, err
	}
	return &Response{Answer: Render(result), Source: source, Classification: cls, Result: result}, nil
}

func (e *Engine) dispatch(ctx context.Context, group string, cls Classification, messages []transcript.Message) (Result, Source, error) {
	p := cls.Params
	switch cls.Intent {
	case IntentDateBased:
		r, err := MessagesOnDate(messages, p.Date, p.TimeRange)
		return r, SourceComputed, err
	case IntentUserMessages:
		r, err := MessagesFromUser(messages, p.User, p.TimeRange, e.opts.MaxUserMessages)
		return r, SourceComputed, err
	case IntentTimeBased:
		r, err := MessagesInWindow(messages, p.TimeRange, e.opts.MaxWindowMessages)
		return r, SourceComputed, err
	}

	messages = filterOptionalTime(messages, p.TimeRange)
	if len(messages) == 0 {
		return nil, "", emptyResultError("No messages found in the specified time range")
	}

	switch cls.Intent {
	case IntentAnalytics:
		switch p.Metric {
		case MetricMostActive, MetricLeastActive, MetricTopUsers:
			return RankUsers(messages, p.Metric, e.opts.RankingLimit), SourceComputed, nil
		case MetricMessageCount:
			return CountMessages(messages), SourceComputed, nil
		default:
			return StatsResult{Stats: ComputeStats(messages)}, SourceComputed, nil
		}
	case IntentTopics:
		return e.topics(ctx, messages), SourceComputed, nil
	case IntentSentiment:
		return e.sentiment(ctx, messages), SourceComputed, nil
	default:
		r, source := e.general(ctx, group, cls.Question, messages)
		return r, source, nil
	}
}

func (e *Engine) topics(ctx context.Context, messages []transcript.Message) TopicsResult {
	res := ExtractTopics(messages)
	if e.opts.Topics == nil {
		return res
	}
	modeled, err := e.opts.Topics.ModelTopics(ctx, messages, e.opts.ModeledTopics)
	if err != nil {
		e.log.WarnContext(ctx, "Topic modeling failed, keeping keyword topics only", "error", err)
		return res
	}
	res.Modeled = modeled
	return res
}

func (e *Engine) sentiment(ctx context.Context, messages []transcript.Message) SentimentResult {
	res := SentimentResult{Analyzed: len(messages)}
	if e.opts.Sentiment == nil {
		res.Error = "no sentiment analyzer configured"
		return res
	}
	report, err := e.opts.Sentiment.AnalyzeSentiment(ctx, messages)
	if err != nil {
		e.log.WarnContext(ctx, "Sentiment analysis failed", "error", err)
		res.Error = err.Error()
		return res
	}
	res.Report = &report
	return res
}

// general asks the completer once under the configured timeout and
// synthesizes an answer from statistics whenever that does not yield text.
func (e *Engine) general(ctx context.Context, group, question string, messages []transcript.Message) (GeneralResult, Source) {
	res := GeneralResult{Question: question, Context: BuildContext(group, messages, e.opts.MaxContextMessages)}

	if e.opts.Completer != nil {
		cctx, cancel := context.WithTimeout(ctx, e.opts.AITimeout)
		defer cancel()
		c := e.opts.Completer.Complete(cctx, BuildPrompt(res.Context, question))
		e.opts.Observer.ObserveCompletion(c.Status)
		if c.Status == CompletionOK && strings.TrimSpace(c.Text) != "" {
			res.Answer = c.Text
			return res, SourceAI
		}
		e.log.WarnContext(ctx, "Completion unavailable, synthesizing answer", "status", c.Status, "error", c.Err)
	}

	res.Answer = e.synth.Answer(question, messages)
	return res, SourceFallback
}
