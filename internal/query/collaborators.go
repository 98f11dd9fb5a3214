package query

import (
	"context"

	"github.com/edgard/chatinsight/internal/transcript"
)

// CompletionStatus is the outcome of a text completion attempt.
type CompletionStatus int

const (
	CompletionOK CompletionStatus = iota
	CompletionQuotaExceeded
	CompletionTransientError
)

func (s CompletionStatus) String() string {
	switch s {
	case CompletionOK:
		return "ok"
	case CompletionQuotaExceeded:
		return "quota_exceeded"
	default:
		return "transient_error"
	}
}

// Completion is the result of one completion call. Text is only meaningful for CompletionOK.
type Completion struct {
	Status CompletionStatus
	Text   string
	Err    error
}

// Completer produces free text for a prompt. Implementations make a single attempt.
type Completer interface {
	Complete(ctx context.Context, prompt string) Completion
}

// SentimentReport is the breakdown returned by a sentiment analyzer.
type SentimentReport struct {
	Overall      string          `json:"overall"`
	AverageScore float64         `json:"average_score"`
	Positive     int             `json:"positive"`
	Negative     int             `json:"negative"`
	Neutral      int             `json:"neutral"`
	ByUser       []UserSentiment `json:"by_user,omitempty"`
}

// UserSentiment is the average sentiment of one participant.
type UserSentiment struct {
	User         string  `json:"user"`
	AverageScore float64 `json:"average_score"`
	Messages     int     `json:"messages"`
}

// SentimentAnalyzer scores the mood of a set of messages.
type SentimentAnalyzer interface {
	AnalyzeSentiment(ctx context.Context, messages []transcript.Message) (SentimentReport, error)
}

// ModeledTopic is one topic discovered by a topic modeler.
type ModeledTopic struct {
	Label  string   `json:"label"`
	Terms  []string `json:"terms"`
	Weight float64  `json:"weight"`
}

// TopicModeler discovers up to n topics in a set of messages.
type TopicModeler interface {
	ModelTopics(ctx context.Context, messages []transcript.Message, n int) ([]ModeledTopic, error)
}

// Observer receives one notification per answered question and per completion attempt.
type Observer interface {
	ObserveQuestion(intent Intent, source Source, err error)
	ObserveCompletion(status CompletionStatus)
}

type nopObserver struct{}

func (nopObserver) ObserveQuestion(Intent, Source, error) {}
func (nopObserver) ObserveCompletion(CompletionStatus)    {}
