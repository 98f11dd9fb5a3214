package query

import (
	"fmt"
	"strings"

	"github.com/edgard/chatinsight/internal/transcript"
)

const systemSender = "system"

// Render turns a computed result into the textual answer shown to the user.
func Render(r Result) string {
	var b strings.Builder
	switch r := r.(type) {
	case RankingResult:
		renderRanking(&b, r)
	case CountResult:
		renderCount(&b, r)
	case StatsResult:
		renderStats(&b, r.Stats)
	case DateMessagesResult:
		renderDate(&b, r)
	case UserMessagesResult:
		renderUser(&b, r)
	case TimeWindowResult:
		renderWindow(&b, r)
	case TopicsResult:
		renderTopics(&b, r)
	case SentimentResult:
		renderSentiment(&b, r)
	case GeneralResult:
		b.WriteString(r.Answer)
	default:
		fmt.Fprintf(&b, "Unsupported result type %T", r)
	}
	return strings.TrimRight(b.String(), "\n")
}

func senderLabel(sender string) string {
	if sender == "" {
		return systemSender
	}
	return sender
}

func renderRanking(b *strings.Builder, r RankingResult) {
	title := "Most Active Users"
	switch r.Metric {
	case MetricLeastActive:
		title = "Least Active Users"
	case MetricTopUsers:
		title = "Top Users"
	}
	fmt.Fprintf(b, "%s (out of %d messages):\n", title, r.Total)
	if len(r.Users) == 0 {
		b.WriteString("No user activity found.\n")
		return
	}
	for i, u := range r.Users {
		fmt.Fprintf(b, "%d. %s: %d messages (%.1f%%)\n", i+1, u.User, u.Count, u.Percentage)
	}
}

func renderCount(b *strings.Builder, r CountResult) {
	fmt.Fprintf(b, "Total messages: %d\n", r.Total)
	fmt.Fprintf(b, "Total users: %d\n", r.Users)
	fmt.Fprintf(b, "Average messages per user: %.1f\n", r.Average)
}

func renderStats(b *strings.Builder, s Stats) {
	fmt.Fprintf(b, "Total messages: %d\n", s.TotalMessages)
	fmt.Fprintf(b, "Total users: %d\n", s.TotalUsers)
	if s.MostActiveUser != "" {
		fmt.Fprintf(b, "Most active user: %s (%d messages)\n", s.MostActiveUser, s.MessagesPerUser[s.MostActiveUser])
	}
	if s.HasPeakHour() {
		fmt.Fprintf(b, "Peak hour: %02d:00\n", s.PeakHour)
	}
	if s.PeakDay != "" {
		fmt.Fprintf(b, "Peak day: %s\n", s.PeakDay)
	}
	if len(s.BusinessCounts) > 0 {
		b.WriteString("Business keywords:\n")
		writeKeywords(b, s.BusinessCounts)
	}
	if len(s.TopKeywords) > 0 {
		b.WriteString("Top keywords:\n")
		writeKeywords(b, s.TopKeywords)
	}
}

func renderDate(b *strings.Builder, r DateMessagesResult) {
	fmt.Fprintf(b, "Messages on %s", r.Date)
	if r.TimeRange != nil {
		fmt.Fprintf(b, " (%s)", r.TimeRange)
	}
	fmt.Fprintf(b, ": %d total\n", r.Total)
	for _, g := range r.Groups {
		fmt.Fprintf(b, "\n%s (%d):\n", senderLabel(g.Sender), len(g.Messages))
		for _, m := range g.Messages {
			fmt.Fprintf(b, "  [%s] %s\n", m.Timestamp, m.Body)
		}
	}
}

func renderUser(b *strings.Builder, r UserMessagesResult) {
	fmt.Fprintf(b, "Messages from %s", r.User)
	if r.TimeRange != nil {
		fmt.Fprintf(b, " (%s)", r.TimeRange)
	}
	fmt.Fprintf(b, ": %d total\n", r.Total)
	if r.Note != "" {
		b.WriteString(r.Note + "\n")
	}
	writeMessages(b, r.Messages)
}

func renderWindow(b *strings.Builder, r TimeWindowResult) {
	fmt.Fprintf(b, "Messages %s: %d total", r.TimeRange, r.Total)
	if len(r.Messages) < r.Total {
		fmt.Fprintf(b, ", showing the last %d", len(r.Messages))
	}
	b.WriteString("\n")
	writeMessages(b, r.Messages)
}

func renderTopics(b *strings.Builder, r TopicsResult) {
	fmt.Fprintf(b, "Topics across %d messages:\n", r.Analyzed)
	if len(r.Topics) > 0 {
		b.WriteString("Main topics:\n")
		writeKeywords(b, r.Topics)
	}
	if len(r.BusinessKeywords) > 0 {
		b.WriteString("Business keywords:\n")
		writeKeywords(b, r.BusinessKeywords)
	}
	if len(r.TopKeywords) > 0 {
		b.WriteString("Top keywords:\n")
		writeKeywords(b, r.TopKeywords)
	}
	if len(r.Modeled) > 0 {
		b.WriteString("Discovered themes:\n")
		for _, t := range r.Modeled {
			fmt.Fprintf(b, "- %s: %s\n", t.Label, strings.Join(t.Terms, ", "))
		}
	}
	if len(r.KeyMessages) > 0 {
		b.WriteString("Key messages:\n")
		writeMessages(b, r.KeyMessages)
	}
}

func renderSentiment(b *strings.Builder, r SentimentResult) {
	if !r.Available() {
		b.WriteString("Sentiment analysis not available")
		if r.Error != "" {
			b.WriteString(": " + r.Error)
		}
		return
	}
	rep := r.Report
	fmt.Fprintf(b, "Overall sentiment: %s (average score %.2f over %d messages)\n", rep.Overall, rep.AverageScore, r.Analyzed)
	fmt.Fprintf(b, "Positive: %d, negative: %d, neutral: %d\n", rep.Positive, rep.Negative, rep.Neutral)
	for _, u := range rep.ByUser {
		fmt.Fprintf(b, "- %s: %.2f (%d messages)\n", u.User, u.AverageScore, u.Messages)
	}
}

func writeKeywords(b *strings.Builder, kws []KeywordCount) {
	for _, k := range kws {
		fmt.Fprintf(b, "- %s: %d\n", k.Keyword, k.Count)
	}
}

func writeMessages(b *strings.Builder, msgs []transcript.Message) {
	for _, m := range msgs {
		fmt.Fprintf(b, "[%s] %s: %s\n", m.Timestamp, senderLabel(m.Sender), m.Body)
	}
}
