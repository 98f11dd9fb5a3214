package transcript_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/chatinsight/internal/transcript"
)

func TestParseWhatsApp(t *testing.T) {
	t.Parallel()

	export := strings.Join([]string{
		"\ufeff07/02/24, 9:00\u202fAM - Messages and calls are end-to-end encrypted. Tap to learn more.",
		"07/02/24, 9:01\u202fAM - John Doe: Morning all",
		"07/02/24, 9:02\u202fAM - Jane Smith: Agenda for today:",
		"1. budget",
		"",
		"2. hiring",
		"[08/02/24, 10:15:00 AM] +91 98765 43210: see you at 5",
		"2024-02-09, 18:30 - John Doe: done: shipped",
		"09/02/2024, 19:00 - Jane Smith added Bob",
	}, "\n")

	msgs, err := transcript.ParseWhatsApp(strings.NewReader(export))
	require.NoError(t, err)
	require.Len(t, msgs, 6)

	assert.True(t, msgs[0].IsSystem())
	assert.Equal(t, "John Doe", msgs[1].Sender)
	assert.Equal(t, "07/02/24, 9:01 AM", msgs[1].Timestamp)
	assert.Equal(t, "Agenda for today:\n1. budget\n2. hiring", msgs[2].Body)
	assert.Equal(t, "+91 98765 43210", msgs[3].Sender)
	assert.Equal(t, "done: shipped", msgs[4].Body)
	assert.True(t, msgs[5].IsSystem())
	assert.Equal(t, "Jane Smith added Bob", msgs[5].Body)

	for _, m := range msgs {
		_, ok := m.Time()
		assert.True(t, ok, "timestamp %q should parse", m.Timestamp)
	}
}

func TestParseWhatsAppIgnoresLeadingContinuation(t *testing.T) {
	t.Parallel()

	msgs, err := transcript.ParseWhatsApp(strings.NewReader("orphan line\n07/02/24, 9:01 AM - John: hi"))
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", msgs[0].Body)
}

func TestGroupNameFromFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"family_chat-2024.txt", "Family Chat 2024"},
		{"WORK_TEAM.txt", "Work Team"},
		{"/tmp/uploads/book club.txt", "Book Club"},
		{"", transcript.DefaultGroupName},
		{"undefined", transcript.DefaultGroupName},
		{"___.txt", transcript.DefaultGroupName},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, transcript.GroupNameFromFile(tt.in))
		})
	}
}

func TestSortChronological(t *testing.T) {
	t.Parallel()

	in := []transcript.Message{
		{Sender: "b", Timestamp: "08/02/24, 10:00 AM", Body: "later"},
		{Sender: "x", Timestamp: "not a time", Body: "first unparsable"},
		{Sender: "a", Timestamp: "07/02/24, 10:00 AM", Body: "earlier"},
		{Sender: "y", Timestamp: "", Body: "second unparsable"},
	}
	out := transcript.SortChronological(in)

	bodies := make([]string, len(out))
	for i, m := range out {
		bodies[i] = m.Body
	}
	assert.Equal(t, []string{"first unparsable", "second unparsable", "earlier", "later"}, bodies)
	assert.Equal(t, "later", in[0].Body, "input must not be reordered")
}

func TestMessageJSON(t *testing.T) {
	t.Parallel()

	var msgs []transcript.Message
	raw := `[{"timestamp":"07/02/24, 9:00 AM","sender":null,"message":"joined"},{"timestamp":"07/02/24, 9:01 AM","sender":"John","message":"hi"}]`
	require.NoError(t, json.Unmarshal([]byte(raw), &msgs))
	require.Len(t, msgs, 2)
	assert.True(t, msgs[0].IsSystem())
	assert.Equal(t, "John", msgs[1].Sender)

	out, err := json.Marshal(msgs[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"timestamp":"07/02/24, 9:00 AM","sender":null,"message":"joined"}`, string(out))
}

func TestSenders(t *testing.T) {
	t.Parallel()

	msgs := []transcript.Message{
		{Sender: "B"}, {Sender: ""}, {Sender: "A"}, {Sender: "B"},
	}
	assert.Equal(t, []string{"B", "A"}, transcript.Senders(msgs))
}
