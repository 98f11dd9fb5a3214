package report

import (
	"context"

	"github.com/edgard/chatinsight/internal/query"
	"github.com/edgard/chatinsight/internal/transcript"
)

// SentimentBreakdown counts messages per polarity.
type SentimentBreakdown struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// SentimentOverview is the mood report of a period.
type SentimentOverview struct {
	Overall       string                `json:"overall_sentiment"`
	AverageScore  float64               `json:"average_score"`
	Breakdown     SentimentBreakdown    `json:"sentiment_breakdown"`
	TotalAnalyzed int                   `json:"total_analyzed"`
	ByUser        []query.UserSentiment `json:"by_user"`
}

// Sentiment scores the mood of messages with the configured analyzer.
func (r *Reporter) Sentiment(ctx context.Context, messages []transcript.Message) (SentimentOverview, error) {
	if r.opts.Sentiment == nil {
		return SentimentOverview{}, ErrNoAnalyzer
	}
	if len(messages) == 0 {
		return SentimentOverview{}, ErrNoMessages
	}
	rep, err := r.opts.Sentiment.AnalyzeSentiment(ctx, messages)
	if err != nil {
		return SentimentOverview{}, err
	}

	o := SentimentOverview{
		Overall:      rep.Overall,
		AverageScore: rep.AverageScore,
		Breakdown:    SentimentBreakdown{Positive: rep.Positive, Neutral: rep.Neutral, Negative: rep.Negative},
		ByUser:       rep.ByUser,
	}
	o.TotalAnalyzed = rep.Positive + rep.Neutral + rep.Negative
	if o.ByUser == nil {
		o.ByUser = []query.UserSentiment{}
	}
	return o, nil
}
