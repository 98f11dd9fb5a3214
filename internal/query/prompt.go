package query

import (
	"fmt"
	"strings"

	"github.com/edgard/chatinsight/internal/transcript"
)

const defaultMaxContextMessages = 100

// BuildContext describes the group and its most recent messages for a completion prompt.
// Only the last limit messages are included.
func BuildContext(group string, messages []transcript.Message, limit int) string {
	if limit <= 0 {
		limit = defaultMaxContextMessages
	}
	var b strings.Builder
	if group != "" {
		fmt.Fprintf(&b, "Group: %s\n", group)
	}
	fmt.Fprintf(&b, "Total messages: %d\n", len(messages))
	fmt.Fprintf(&b, "Participants: %s\n", strings.Join(transcript.Senders(messages), ", "))

	recent := messages[max(0, len(messages)-limit):]
	fmt.Fprintf(&b, "\nRecent messages (%d):\n", len(recent))
	for _, m := range recent {
		fmt.Fprintf(&b, "%s: %s\n", senderLabel(m.Sender), m.Body)
	}
	return b.String()
}

// BuildPrompt assembles the question-answering prompt from a prepared context.
func BuildPrompt(context, question string) string {
	var b strings.Builder
	b.WriteString("Conversation context:\n")
	b.WriteString(context)
	fmt.Fprintf(&b, "\nQuestion: %s\n", question)
	b.WriteString(`
Instructions:
1. Answer only from the conversation context above.
2. If the information is not in the conversation, say so clearly.
3. Give specific numbers for questions about activity, counts or statistics.
4. Reference timestamps for time-based questions when relevant.

Answer:`)
	return b.String()
}
