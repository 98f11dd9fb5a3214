package report_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/chatinsight/internal/query"
	"github.com/edgard/chatinsight/internal/report"
	"github.com/edgard/chatinsight/internal/transcript"
)

func ptr(d query.Date) *query.Date { return &d }

func TestActivityForOneDay(t *testing.T) {
	t.Parallel()

	a, err := report.New(report.Options{}).Activity(chat(), report.ActivityRequest{Day: ptr(date(2024, 3, 7))})
	require.NoError(t, err)
	assert.Equal(t, report.AnalysisHourly, a.AnalysisType)
	assert.Equal(t, 3, a.TotalMessages)
	assert.Equal(t, 2, a.TotalUsers)
	assert.Equal(t, 2, a.HourlyActivity[9], "system lines do not count as activity")
	assert.Equal(t, 2, a.DailyActivity[time.Thursday])
	require.NotNil(t, a.PeakHour)
	assert.Equal(t, 9, *a.PeakHour)
	assert.Equal(t, "Thursday", a.PeakDay)
	assert.Equal(t, []string{"Jane Doe", "John Smith"}, a.AllUsers)
	assert.Equal(t, map[string]int{"Jane Doe": 1, "John Smith": 1}, a.MessageCounts)
	assert.Nil(t, a.Weeks)
	assert.Nil(t, a.Messages)
}

func TestActivityRangeSplitsWeeks(t *testing.T) {
	t.Parallel()

	a, err := report.New(report.Options{}).Activity(chat(), report.ActivityRequest{
		Start:           ptr(date(2024, 3, 7)),
		End:             ptr(date(2024, 3, 11)),
		IncludeMessages: true,
	})
	require.NoError(t, err)
	assert.Equal(t, report.AnalysisRange, a.AnalysisType)
	assert.Len(t, a.Messages, 6)
	require.Len(t, a.Weeks, 2)

	first := a.Weeks[0]
	assert.Equal(t, date(2024, 3, 4), first.Start)
	assert.Equal(t, date(2024, 3, 10), first.End)
	assert.Equal(t, 4, first.MessageCount)
	assert.Equal(t, []string{"Jane Doe", "John Smith"}, first.Users)
	assert.Equal(t, map[string]int{"Jane Doe": 2, "John Smith": 1}, first.MessageCounts)
	assert.Equal(t, "Jane Doe", first.MostActiveUser)
	require.NotNil(t, first.PeakHour)
	assert.Equal(t, 9, *first.PeakHour)
	assert.Equal(t, 1, first.DailyActivity[time.Friday])
	assert.Len(t, first.Messages, 4)

	second := a.Weeks[1]
	assert.Equal(t, date(2024, 3, 11), second.Start)
	assert.Equal(t, date(2024, 3, 11), second.End, "the last week stops at the end of the range")
	assert.Equal(t, 2, second.MessageCount)
	assert.Equal(t, "Alice", second.MostActiveUser, "ties go to the first sender seen")
	require.NotNil(t, second.PeakHour)
	assert.Equal(t, 10, *second.PeakHour)
}

func TestActivityUserFilterKeepsAllUsers(t *testing.T) {
	t.Parallel()

	a, err := report.New(report.Options{}).Activity(chat(), report.ActivityRequest{User: "Jane Doe"})
	require.NoError(t, err)
	assert.Equal(t, report.AnalysisAll, a.AnalysisType)
	assert.Equal(t, 3, a.TotalMessages)
	assert.Equal(t, map[string]int{"Jane Doe": 3}, a.MessageCounts)
	assert.Equal(t, []string{"Alice", "Jane Doe", "John Smith"}, a.AllUsers)
}

func TestActivitySamplesLargePeriods(t *testing.T) {
	t.Parallel()

	a, err := report.New(report.Options{MaxActivityMessages: 2}).Activity(chat(), report.ActivityRequest{IncludeMessages: true})
	require.NoError(t, err)
	assert.True(t, a.Sampled)
	require.Len(t, a.Messages, 2)
	assert.Equal(t, "Good morning team, the project meeting is at 10", a.Messages[0].Body)
	assert.Equal(t, "We decided the delivery goes out on Friday", a.Messages[1].Body)
}

func TestActivityWithoutMessages(t *testing.T) {
	t.Parallel()

	r := report.New(report.Options{})
	tests := []struct {
		name string
		req  report.ActivityRequest
	}{
		{name: "empty day", req: report.ActivityRequest{Day: ptr(date(2024, 1, 1))}},
		{name: "unknown user", req: report.ActivityRequest{User: "Zed"}},
		{name: "empty week", req: report.ActivityRequest{WeekStart: ptr(date(2024, 4, 1)), WeekEnd: ptr(date(2024, 4, 7))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := r.Activity(chat(), tt.req)
			assert.ErrorIs(t, err, report.ErrNoMessages)
		})
	}
}

type fakeAnalyzer struct {
	report query.SentimentReport
	err    error
}

func (f fakeAnalyzer) AnalyzeSentiment(context.Context, []transcript.Message) (query.SentimentReport, error) {
	return f.report, f.err
}

func TestSentiment(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	analyzer := fakeAnalyzer{report: query.SentimentReport{
		Overall:      "positive",
		AverageScore: 0.4,
		Positive:     2,
		Neutral:      1,
		ByUser:       []query.UserSentiment{{User: "Jane Doe", AverageScore: 0.5, Messages: 2}},
	}}

	o, err := report.New(report.Options{Sentiment: analyzer}).Sentiment(ctx, chat())
	require.NoError(t, err)
	assert.Equal(t, "positive", o.Overall)
	assert.Equal(t, report.SentimentBreakdown{Positive: 2, Neutral: 1}, o.Breakdown)
	assert.Equal(t, 3, o.TotalAnalyzed)
	assert.Len(t, o.ByUser, 1)

	_, err = report.New(report.Options{}).Sentiment(ctx, chat())
	assert.ErrorIs(t, err, report.ErrNoAnalyzer)

	_, err = report.New(report.Options{Sentiment: analyzer}).Sentiment(ctx, nil)
	assert.ErrorIs(t, err, report.ErrNoMessages)

	boom := errors.New("boom")
	_, err = report.New(report.Options{Sentiment: fakeAnalyzer{err: boom}}).Sentiment(ctx, chat())
	assert.ErrorIs(t, err, boom)
}
