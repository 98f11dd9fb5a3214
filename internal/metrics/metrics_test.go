package metrics

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/chatinsight/internal/query"
)

func TestErrorKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{nil, "none"},
		{&query.Error{Kind: query.ErrInput, Message: "Question cannot be empty"}, "input"},
		{fmt.Errorf("wrapped: %w", &query.Error{Kind: query.ErrResolution}), "resolution"},
		{&query.Error{Kind: query.ErrEmptyResult}, "empty_result"},
		{&query.Error{Kind: query.ErrInternal}, "internal"},
		{errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorKind(tt.err))
	}
}

func TestObserveQuestion(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveQuestion(query.IntentAnalytics, query.SourceComputed, nil)
	m.ObserveQuestion(query.IntentAnalytics, query.SourceComputed, nil)
	m.ObserveQuestion("", "", &query.Error{Kind: query.ErrInput})

	assert.InDelta(t, 2, testutil.ToFloat64(m.QuestionsTotal.WithLabelValues(string(query.IntentAnalytics), "computed", "none")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.QuestionsTotal.WithLabelValues("unclassified", "none", "input")), 0)
}

func TestObserveCompletionAndImport(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveCompletion(query.CompletionQuotaExceeded)
	m.ObserveImport("http", 42, nil)
	m.ObserveImport("telegram", 0, errors.New("bad file"))
	m.ObserveRecorded()

	assert.InDelta(t, 1, testutil.ToFloat64(m.CompletionsTotal.WithLabelValues("quota_exceeded")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ImportsTotal.WithLabelValues("http", "ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ImportsTotal.WithLabelValues("telegram", "error")), 0)
	assert.InDelta(t, 42, testutil.ToFloat64(m.ImportedMessages), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RecordedMessages), 0)
}

func TestHandler(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveCompletion(query.CompletionOK)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `chatinsight_completions_total{status="ok"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
