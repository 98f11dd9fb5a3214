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

func msg(sender, timestamp, body string) transcript.Message {
	return transcript.Message{Sender: sender, Timestamp: timestamp, Body: body}
}

// chat spans Thursday 7 March to Monday 11 March 2024.
func chat() []transcript.Message {
	return []transcript.Message{
		msg("Jane Doe", "07/03/2024, 9:00 am", "Good morning team, the project meeting is at 10"),
		msg("John Smith", "07/03/2024, 9:05 am", "I will share the invoice.pdf shortly"),
		msg("", "07/03/2024, 9:06 am", "Messages and calls are end-to-end encrypted."),
		msg("Jane Doe", "08/03/2024, 2:30 pm", "We decided the delivery goes out on Friday"),
		msg("Alice", "11/03/2024, 10:00 am", "Can we review the contract today?"),
		msg("Jane Doe", "11/03/2024, 4:15 pm", "<Media omitted>"),
	}
}

func date(y, m, d int) query.Date {
	return query.Date{Year: y, Month: time.Month(m), Day: d}
}

type fakeCompleter struct {
	completion query.Completion
	prompts    []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) query.Completion {
	f.prompts = append(f.prompts, prompt)
	return f.completion
}

type recordingObserver struct {
	statuses []query.CompletionStatus
}

func (o *recordingObserver) ObserveQuestion(query.Intent, query.Source, error) {}
func (o *recordingObserver) ObserveCompletion(s query.CompletionStatus) {
	o.statuses = append(o.statuses, s)
}

func TestSummarizeOffline(t *testing.T) {
	t.Parallel()

	r := report.New(report.Options{})
	ctx := context.Background()

	t.Run("total", func(t *testing.T) {
		t.Parallel()
		s, err := r.Summarize(ctx, chat(), "", "")
		require.NoError(t, err)
		assert.Equal(t, report.KindTotal, s.Kind)
		assert.Equal(t, query.SourceFallback, s.Source)
		assert.Contains(t, s.Text, "Total messages: 4")
		assert.Contains(t, s.Text, "Participants: 3")
		assert.NotContains(t, s.Text, "Media omitted")
	})

	t.Run("brief", func(t *testing.T) {
		t.Parallel()
		s, err := r.Summarize(ctx, chat(), report.KindBrief, "")
		require.NoError(t, err)
		assert.Equal(t, query.SourceFallback, s.Source)
		for _, want := range []string{
			"Total messages: 6 from 3 participants over 5 days",
			"Most active: Jane Doe with 3 messages (60.0% of activity)",
			`1. "Good morning team, the project meeting is at 10"`,
			"Peak activity: 09:00 on Thursday",
			"Files shared: 1 | Links shared: 0",
			"Decisions made: 1 | Questions asked: 1 | Meetings planned: 1",
		} {
			assert.Contains(t, s.Text, want)
		}
	})

	t.Run("weekly", func(t *testing.T) {
		t.Parallel()
		s, err := r.Summarize(ctx, chat(), report.KindWeekly, "")
		require.NoError(t, err)
		require.Len(t, s.Weeks, 2)
		assert.Equal(t, date(2024, 3, 4), s.Weeks[0].Start)
		assert.Equal(t, date(2024, 3, 10), s.Weeks[0].End)
		assert.Equal(t, 4, s.Weeks[0].MessageCount)
		assert.Equal(t, date(2024, 3, 11), s.Weeks[1].Start)
		assert.Equal(t, 2, s.Weeks[1].MessageCount)
		assert.Contains(t, s.Weeks[1].Summary, "Total messages: 1")
		assert.Empty(t, s.Text)
	})

	t.Run("comprehensive", func(t *testing.T) {
		t.Parallel()
		s, err := r.Summarize(ctx, chat(), report.KindComprehensive, "")
		require.NoError(t, err)
		assert.Contains(t, s.Text, "CONVERSATION OVERVIEW")
		assert.Len(t, s.Weeks, 2)
	})

	t.Run("user messages", func(t *testing.T) {
		t.Parallel()
		s, err := r.Summarize(ctx, chat(), report.KindUserMessages, "")
		require.NoError(t, err)
		require.Len(t, s.Groups, 3)
		assert.Equal(t, "Jane Doe", s.Groups[0].Sender)
		assert.Len(t, s.Groups[0].Messages, 3)
		assert.Equal(t, "Alice", s.Groups[2].Sender)
	})

	t.Run("user wise", func(t *testing.T) {
		t.Parallel()
		s, err := r.Summarize(ctx, chat(), report.KindUserWise, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"Alice", "Jane Doe", "John Smith"}, s.Users)
	})

	t.Run("messages for user", func(t *testing.T) {
		t.Parallel()
		s, err := r.Summarize(ctx, chat(), report.KindUserMessagesForUser, " John Smith ")
		require.NoError(t, err)
		assert.Equal(t, "John Smith", s.User)
		require.Len(t, s.Messages, 1)
		assert.Empty(t, s.Text)

		s, err = r.Summarize(ctx, chat(), report.KindUserMessagesForUser, "Zed")
		require.NoError(t, err)
		assert.Empty(t, s.Messages)
		assert.Equal(t, "No messages found for user Zed.", s.Text)
	})

	t.Run("daily user messages", func(t *testing.T) {
		t.Parallel()
		s, err := r.Summarize(ctx, chat(), report.KindDailyUserMessages, "")
		require.NoError(t, err)
		require.Len(t, s.Days, 3)
		assert.Equal(t, date(2024, 3, 7), s.Days[0].Date)
		assert.Equal(t, 2, s.Days[0].MessageCount)
		assert.Equal(t, []query.UserActivity{
			{User: "Jane Doe", Count: 1, Percentage: 50},
			{User: "John Smith", Count: 1, Percentage: 50},
		}, s.Days[0].Users)
		assert.Equal(t, "2024-03-07\n- Jane Doe: 1 messages\n- John Smith: 1 messages", s.Days[0].Summary)
	})

	t.Run("detailed user report", func(t *testing.T) {
		t.Parallel()
		s, err := r.Summarize(ctx, chat(), report.KindUserDetailed, "Jane Doe")
		require.NoError(t, err)
		assert.Contains(t, s.Text, "Detailed report for Jane Doe\nTotal messages: 3")
		assert.Contains(t, s.Text, "2024-03-08 (1 messages):\n- We decided the delivery goes out on Friday")
		assert.Contains(t, s.String(), "Detailed report for Jane Doe")
	})
}

func TestSummarizeErrors(t *testing.T) {
	t.Parallel()

	r := report.New(report.Options{})
	tests := []struct {
		name     string
		messages []transcript.Message
		kind     report.Kind
		user     string
		want     error
	}{
		{name: "unknown kind", messages: chat(), kind: "poem", want: report.ErrUnknownKind},
		{name: "user required", messages: chat(), kind: report.KindUserMessagesForUser, user: "  ", want: report.ErrUserRequired},
		{name: "detailed needs user", messages: chat(), kind: report.KindUserDetailed, want: report.ErrUserRequired},
		{name: "no messages", kind: report.KindTotal, want: report.ErrNoMessages},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := r.Summarize(context.Background(), tt.messages, tt.kind, tt.user)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSummarizeWithCompleter(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{completion: query.Completion{Status: query.CompletionOK, Text: "The team planned a delivery."}}
	obs := &recordingObserver{}
	r := report.New(report.Options{Completer: completer, Observer: obs})

	s, err := r.Summarize(context.Background(), chat(), report.KindTotal, "")
	require.NoError(t, err)
	assert.Equal(t, query.SourceAI, s.Source)
	assert.Equal(t, "The team planned a delivery.", s.Text)
	require.Len(t, completer.prompts, 1)
	assert.Contains(t, completer.prompts[0], "07/03/2024, 9:00 am - Jane Doe: Good morning team")
	assert.NotContains(t, completer.prompts[0], "end-to-end encrypted")
	assert.Equal(t, []query.CompletionStatus{query.CompletionOK}, obs.statuses)

	s, err = r.Summarize(context.Background(), chat(), report.KindBrief, "")
	require.NoError(t, err)
	assert.Equal(t, query.SourceAI, s.Source)
	assert.Contains(t, completer.prompts[1], "from the last 5 days")
	assert.Contains(t, completer.prompts[1], "Most active: Jane Doe with 3 messages")
}

func TestSummarizeFallsBackWhenCompletionFails(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{completion: query.Completion{Status: query.CompletionQuotaExceeded, Err: errors.New("quota")}}
	obs := &recordingObserver{}
	r := report.New(report.Options{Completer: completer, Observer: obs})

	s, err := r.Summarize(context.Background(), chat(), report.KindWeekly, "")
	require.NoError(t, err)
	require.Len(t, s.Weeks, 2)
	for _, w := range s.Weeks {
		assert.Equal(t, query.SourceFallback, w.Source)
		assert.Contains(t, w.Summary, "ACTIVITY OVERVIEW")
	}
	assert.Equal(t, []query.CompletionStatus{query.CompletionQuotaExceeded, query.CompletionQuotaExceeded}, obs.statuses)
}
