package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/chatinsight/internal/report"
)

func TestSummarize(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	require.Equal(t, http.StatusOK, upload(t, s, "/api/upload", "team.txt", export).Code)

	rec := do(t, s, http.MethodPost, "/api/summarize", SummarizeRequest{GroupName: "Team"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "total", body["summary_type"])
	assert.Equal(t, "fallback", body["source"])
	assert.Contains(t, body["summary"], "Total messages: 4")

	rec = do(t, s, http.MethodPost, "/api/summarize", SummarizeRequest{GroupName: "Team", SummaryType: "user_messages_for_user", User: "Jane Smith"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body = decode(t, rec)
	assert.Equal(t, "Jane Smith", body["user"])
	assert.Len(t, body["user_messages"], 1)

	rec = do(t, s, http.MethodPost, "/api/summarize", SummarizeRequest{GroupName: "Team", SummaryType: "weekly_summary", StartDate: "2024-03-08", EndDate: "2024-03-08"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	weeks := decode(t, rec)["weekly_summaries"].([]any)
	require.Len(t, weeks, 1)
	week := weeks[0].(map[string]any)
	assert.Equal(t, "2024-03-04", week["week_start"])
	assert.InDelta(t, 1, week["message_count"], 0)
}

func TestActivityAndSentiment(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	require.Equal(t, http.StatusOK, upload(t, s, "/api/upload", "team.txt", export).Code)

	rec := do(t, s, http.MethodPost, "/api/activity", ActivityRequest{GroupName: "Team", SpecificDate: "2024-03-07", IncludeMessages: true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "hourly", body["analysis_type"])
	assert.InDelta(t, 3, body["total_messages"], 0)
	assert.InDelta(t, 9, body["peak_hour"], 0)
	assert.Equal(t, []any{"Jane Smith", "John Doe"}, body["all_users"])
	assert.Len(t, body["messages"], 3)
	assert.Len(t, body["hourly_activity"], 24)

	rec = do(t, s, http.MethodPost, "/api/activity", ActivityRequest{GroupName: "Team", StartDate: "2024-03-07", EndDate: "2024-03-08", User: "John Doe"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body = decode(t, rec)
	assert.Equal(t, "range", body["analysis_type"])
	assert.Equal(t, map[string]any{"John Doe": float64(3)}, body["message_counts"])
	assert.Len(t, body["weeks"], 1)

	rec = do(t, s, http.MethodPost, "/api/sentiment", SentimentRequest{GroupName: "Team"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body = decode(t, rec)
	assert.NotEmpty(t, body["overall_sentiment"])
	assert.Contains(t, body, "sentiment_breakdown")
}

func TestReportErrors(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	require.Equal(t, http.StatusOK, upload(t, s, "/api/upload", "team.txt", export).Code)

	tests := []struct {
		name    string
		target  string
		req     any
		status  int
		message string
	}{
		{name: "unknown summary type", target: "/api/summarize", req: SummarizeRequest{GroupName: "Team", SummaryType: "poem"}, status: http.StatusBadRequest, message: "invalid summary type"},
		{name: "summary needs user", target: "/api/summarize", req: SummarizeRequest{GroupName: "Team", SummaryType: "user_wise_detailed"}, status: http.StatusBadRequest, message: "no user specified"},
		{name: "summary of empty range", target: "/api/summarize", req: SummarizeRequest{GroupName: "Team", StartDate: "2025-01-01"}, status: http.StatusBadRequest, message: "no messages found in the selected date range"},
		{name: "summary of unknown group", target: "/api/summarize", req: SummarizeRequest{GroupName: "Nope"}, status: http.StatusNotFound, message: "Group not found"},
		{name: "activity without group", target: "/api/activity", req: ActivityRequest{}, status: http.StatusBadRequest, message: "Invalid group name"},
		{name: "activity with bad date", target: "/api/activity", req: ActivityRequest{GroupName: "Team", SpecificDate: "7 March"}, status: http.StatusBadRequest, message: "Dates must use the YYYY-MM-DD format"},
		{name: "activity of unknown user", target: "/api/activity", req: ActivityRequest{GroupName: "Team", User: "Zed"}, status: http.StatusBadRequest, message: "no messages found in the selected date range"},
		{name: "sentiment of empty range", target: "/api/sentiment", req: SentimentRequest{GroupName: "Team", EndDate: "2020-01-01"}, status: http.StatusBadRequest, message: "no messages found in the selected date range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, tt.target, tt.req)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.message, decode(t, rec)["error"])
		})
	}
}

func TestWriteErrorWithoutAnalyzer(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodPost, "/api/sentiment", nil), rec)
	require.NoError(t, s.writeError(c, report.ErrNoAnalyzer))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
