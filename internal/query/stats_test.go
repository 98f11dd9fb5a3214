package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/chatinsight/internal/query"
	"github.com/edgard/chatinsight/internal/transcript"
)

func TestComputeStats(t *testing.T) {
	t.Parallel()

	s := query.ComputeStats(sampleChat())

	assert.Equal(t, 6, s.TotalMessages)
	assert.Equal(t, 3, s.TotalUsers)
	assert.Equal(t, map[string]int{"Jane Doe": 3, "John Smith": 1, "Alice": 1}, s.MessagesPerUser)
	assert.Equal(t, 2, s.ActivityByHour[9], "system lines do not count as activity")
	assert.Equal(t, 1, s.ActivityByHour[14])
	require.True(t, s.HasPeakHour())
	assert.Equal(t, 9, s.PeakHour)
	assert.Equal(t, "Thursday", s.PeakDay)
	assert.Len(t, s.ActivityByDay, 7)
	assert.Equal(t, 3, s.ActivityByDay["Thursday"])
	assert.Equal(t, 2, s.ActivityByDay["Friday"])
	assert.Zero(t, s.ActivityByDay["Monday"])
	assert.Equal(t, "Jane Doe", s.MostActiveUser)
	assert.Equal(t, "07/03/2024, 9:00 am", s.FirstTimestamp)
	assert.Equal(t, "08/03/2024, 6:45 pm", s.LastTimestamp)
	assert.Contains(t, s.BusinessCounts, query.KeywordCount{Keyword: "invoice", Count: 1})
	assert.LessOrEqual(t, len(s.TopKeywords), 20)
}

func TestComputeStatsTiesGoToFirstSeen(t *testing.T) {
	t.Parallel()

	s := query.ComputeStats([]transcript.Message{
		msg("Bea", "05/03/2024, 15:00", "first"),
		msg("Al", "04/03/2024, 08:00", "second"),
	})
	assert.Equal(t, 15, s.PeakHour)
	assert.Equal(t, "Tuesday", s.PeakDay)
	assert.Equal(t, "Bea", s.MostActiveUser)

	ranked := s.RankedUsers()
	require.Len(t, ranked, 2)
	assert.Equal(t, "Bea", ranked[0].User)
	assert.InDelta(t, 50.0, ranked[0].Percentage, 1e-9)
}

func TestComputeStatsWithoutTimestamps(t *testing.T) {
	t.Parallel()

	s := query.ComputeStats([]transcript.Message{msg("Al", "whenever", "hello there")})
	assert.False(t, s.HasPeakHour())
	assert.Empty(t, s.PeakDay)
	assert.Equal(t, 1, s.TotalUsers)

	assert.Empty(t, s.FirstTimestamp)
	assert.Empty(t, s.LastTimestamp)

	empty := query.ComputeStats(nil)
	assert.Zero(t, empty.TotalMessages)
	assert.Empty(t, empty.MostActiveUser)
}

func TestComputeStatsTimeSpanSkipsUnparsableTimestamps(t *testing.T) {
	t.Parallel()

	s := query.ComputeStats([]transcript.Message{
		msg("Al", "soon", "hello"),
		msg("Al", "07/02/24, 10:00", "first dated"),
		msg("Bea", "07/02/24, 11:30", "last dated"),
		msg("Bea", "bad", "trailing"),
	})
	assert.Equal(t, "07/02/24, 10:00", s.FirstTimestamp)
	assert.Equal(t, "07/02/24, 11:30", s.LastTimestamp)
}
