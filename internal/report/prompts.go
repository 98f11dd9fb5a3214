package report

import (
	"fmt"
	"strings"

	"github.com/edgard/chatinsight/internal/transcript"
)

func totalPrompt(messages []transcript.Message) string {
	var b strings.Builder
	b.WriteString(`Provide a comprehensive summary of the following chat messages.
Include:
1. Overall activity level
2. Key participants and their activity
3. Main topics discussed
4. Important events or decisions
5. Overall sentiment

Messages:
`)
	for _, m := range messages {
		fmt.Fprintf(&b, "%s - %s: %s\n", m.Timestamp, m.Sender, m.Body)
	}
	return b.String()
}

func briefPrompt(f briefFacts, messages []transcript.Message) string {
	var b strings.Builder
	if f.shortPeriod() {
		fmt.Fprintf(&b, "Analyze this group conversation from the last %d days and write a detailed brief summary.\n", f.days)
		b.WriteString("Quote messages exactly, name who said what, and highlight urgent information.\n")
	} else {
		b.WriteString("Analyze this group conversation and write a brief summary with actionable insights.\n")
	}

	b.WriteString("\nFacts:\n")
	fmt.Fprintf(&b, "- Total messages: %d from %d participants\n", f.stats.TotalMessages, f.stats.TotalUsers)
	if f.stats.MostActiveUser != "" {
		fmt.Fprintf(&b, "- Most active: %s with %d messages\n", f.stats.MostActiveUser, f.stats.MessagesPerUser[f.stats.MostActiveUser])
	}
	if f.stats.HasPeakHour() {
		fmt.Fprintf(&b, "- Peak activity: %02d:00 on %s\n", f.stats.PeakHour, f.stats.PeakDay)
	}
	h := f.highlights
	fmt.Fprintf(&b, "- Files shared: %d, links shared: %d\n", h.Files, h.Links)
	fmt.Fprintf(&b, "- Decisions: %d, questions: %d, meetings: %d\n", h.Decisions, h.Questions, h.Meetings)

	b.WriteString(`
Sections: conversation overview, key participants, activity patterns, main discussion topics,
important resources, actionable insights, recommendations. Use plain text headings.

Conversation:
`)
	for _, m := range messages {
		if m.IsSystem() {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", m.Sender, m.Body)
	}
	return b.String()
}
