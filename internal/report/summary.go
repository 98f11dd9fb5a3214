package report

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/edgard/chatinsight/internal/query"
	"github.com/edgard/chatinsight/internal/transcript"
)

// Kind selects a summary flavor.
type Kind string

const (
	KindTotal               Kind = "total"
	KindBrief               Kind = "brief"
	KindWeekly              Kind = "weekly_summary"
	KindComprehensive       Kind = "comprehensive"
	KindUserMessages        Kind = "user_messages"
	KindUserWise            Kind = "user_wise"
	KindUserMessagesForUser Kind = "user_messages_for_user"
	KindDailyUserMessages   Kind = "daily_user_messages"
	KindUserDetailed        Kind = "user_wise_detailed"
)

// Kinds lists every summary kind in the order clients present them.
func Kinds() []Kind {
	return []Kind{
		KindTotal, KindBrief, KindWeekly, KindComprehensive, KindUserMessages,
		KindUserWise, KindUserMessagesForUser, KindDailyUserMessages, KindUserDetailed,
	}
}

// needsUser reports whether the kind summarizes a single participant.
func (k Kind) needsUser() bool {
	return k == KindUserMessagesForUser || k == KindUserDetailed
}

// WeekSummary summarizes the messages of one Monday-to-Sunday week.
type WeekSummary struct {
	Start        query.Date   `json:"week_start"`
	End          query.Date   `json:"week_end"`
	MessageCount int          `json:"message_count"`
	Summary      string       `json:"summary"`
	Source       query.Source `json:"source"`
}

// DaySummary counts what each participant wrote on one day.
type DaySummary struct {
	Date         query.Date           `json:"date"`
	MessageCount int                  `json:"message_count"`
	Users        []query.UserActivity `json:"users"`
	Summary      string               `json:"summary"`
}

// Summary is the result of one summary request. Which fields are set depends on Kind.
type Summary struct {
	Kind     Kind                 `json:"summary_type"`
	Source   query.Source         `json:"source"`
	Text     string               `json:"summary,omitempty"`
	Weeks    []WeekSummary        `json:"weekly_summaries,omitempty"`
	Days     []DaySummary         `json:"daily_summaries,omitempty"`
	Groups   []query.SenderGroup  `json:"user_messages_by_user,omitempty"`
	Users    []string             `json:"users,omitempty"`
	User     string               `json:"user,omitempty"`
	Messages []transcript.Message `json:"user_messages,omitempty"`
}

// Summarize produces the summary of the given kind over messages, which the
// caller has already restricted to the wanted date range.
func (r *Reporter) Summarize(ctx context.Context, messages []transcript.Message, kind Kind, user string) (Summary, error) {
	if kind == "" {
		kind = KindTotal
	}
	if !slices.Contains(Kinds(), kind) {
		return Summary{}, ErrUnknownKind
	}
	user = strings.TrimSpace(user)
	if kind.needsUser() && user == "" {
		return Summary{}, ErrUserRequired
	}
	if len(messages) == 0 {
		return Summary{}, ErrNoMessages
	}

	s := Summary{Kind: kind, Source: query.SourceComputed}
	switch kind {
	case KindTotal:
		s.Text, s.Source = r.total(ctx, messages)
	case KindBrief:
		s.Text, s.Source = r.brief(ctx, messages)
	case KindWeekly:
		s.Weeks = r.weekly(ctx, messages)
	case KindComprehensive:
		s.Text, s.Source = r.brief(ctx, messages)
		s.Weeks = r.weekly(ctx, messages)
	case KindUserMessages:
		s.Groups = bySender(messages)
	case KindUserWise:
		s.Users = transcript.Senders(messages)
		slices.Sort(s.Users)
	case KindUserMessagesForUser:
		s.User = user
		s.Messages = fromSender(messages, user)
		if len(s.Messages) == 0 {
			s.Text = fmt.Sprintf("No messages found for user %s.", user)
		}
	case KindDailyUserMessages:
		s.Days = daily(messages)
	case KindUserDetailed:
		s.User = user
		s.Text = detailed(messages, user)
	}
	return s, nil
}

// total summarizes participant messages, by completion when possible.
func (r *Reporter) total(ctx context.Context, messages []transcript.Message) (string, query.Source) {
	filtered := participantMessages(messages)
	if len(filtered) == 0 {
		return "No meaningful messages to summarize.", query.SourceComputed
	}
	if text, ok := r.complete(ctx, totalPrompt(filtered[:min(len(filtered), r.opts.MaxPromptMessages)])); ok {
		return text, query.SourceAI
	}
	return r.synth.Answer("summary", filtered), query.SourceFallback
}

// brief reports the first MaxBriefMessages messages with activity figures and
// keyword tallies. Spans of a week or less quote the most active participant.
func (r *Reporter) brief(ctx context.Context, messages []transcript.Message) (string, query.Source) {
	messages = messages[:min(len(messages), r.opts.MaxBriefMessages)]
	b := briefFacts{
		stats:      query.ComputeStats(messages),
		highlights: query.CountHighlights(messages),
		days:       spanDays(messages),
	}
	if text, ok := r.complete(ctx, briefPrompt(b, messages)); ok {
		return text, query.SourceAI
	}
	return b.render(messages), query.SourceFallback
}

type briefFacts struct {
	stats      query.Stats
	highlights query.Highlights
	days       int
}

func (b briefFacts) shortPeriod() bool {
	return b.days <= 7
}

func (b briefFacts) render(messages []transcript.Message) string {
	var sb strings.Builder
	sb.WriteString("CONVERSATION OVERVIEW\n")
	fmt.Fprintf(&sb, "Total messages: %d from %d participants", b.stats.TotalMessages, b.stats.TotalUsers)
	if b.shortPeriod() {
		fmt.Fprintf(&sb, " over %d days", b.days)
	}
	sb.WriteString("\n")

	if ranked := b.stats.RankedUsers(); len(ranked) > 0 {
		top := ranked[0]
		sb.WriteString("\nKEY PARTICIPANTS\n")
		fmt.Fprintf(&sb, "Most active: %s with %d messages (%.1f%% of activity)\n", top.User, top.Count, top.Percentage)
		if b.shortPeriod() {
			quoted := fromSender(participantMessages(messages), top.User)
			for i, m := range quoted[:min(len(quoted), 3)] {
				fmt.Fprintf(&sb, "%d. %q\n", i+1, clip(m.Body))
			}
		}
	}

	sb.WriteString("\nACTIVITY PATTERNS\n")
	if b.stats.HasPeakHour() {
		fmt.Fprintf(&sb, "Peak activity: %02d:00 on %s\n", b.stats.PeakHour, b.stats.PeakDay)
	} else {
		sb.WriteString("Peak activity: N/A\n")
	}

	h := b.highlights
	sb.WriteString("\nIMPORTANT RESOURCES\n")
	fmt.Fprintf(&sb, "Files shared: %d | Links shared: %d\n", h.Files, h.Links)
	sb.WriteString("\nACTIONABLE INSIGHTS\n")
	fmt.Fprintf(&sb, "Decisions made: %d | Questions asked: %d | Meetings planned: %d", h.Decisions, h.Questions, h.Meetings)
	return sb.String()
}

// weekly groups dated messages by the Monday of their week and summarizes each week.
func (r *Reporter) weekly(ctx context.Context, messages []transcript.Message) []WeekSummary {
	weeks := make(map[query.Date][]transcript.Message)
	var starts []query.Date
	for _, m := range messages {
		d, ok := dateOf(m)
		if !ok {
			continue
		}
		start := monday(d)
		if _, seen := weeks[start]; !seen {
			starts = append(starts, start)
		}
		weeks[start] = append(weeks[start], m)
	}
	slices.SortFunc(starts, query.Date.Compare)

	out := make([]WeekSummary, 0, len(starts))
	for _, start := range starts {
		msgs := weeks[start]
		text, source := r.total(ctx, msgs)
		out = append(out, WeekSummary{
			Start:        start,
			End:          start.AddDays(6),
			MessageCount: len(msgs),
			Summary:      text,
			Source:       source,
		})
	}
	return out
}

func bySender(messages []transcript.Message) []query.SenderGroup {
	idx := make(map[string]int)
	var out []query.SenderGroup
	for _, m := range messages {
		if m.IsSystem() {
			continue
		}
		i, ok := idx[m.Sender]
		if !ok {
			i = len(out)
			idx[m.Sender] = i
			out = append(out, query.SenderGroup{Sender: m.Sender})
		}
		out[i].Messages = append(out[i].Messages, m)
	}
	return out
}

func fromSender(messages []transcript.Message, user string) []transcript.Message {
	var out []transcript.Message
	for _, m := range messages {
		if !m.IsSystem() && m.Sender == user {
			out = append(out, m)
		}
	}
	return out
}

// daily counts participant messages per calendar day and sender.
func daily(messages []transcript.Message) []DaySummary {
	byDay := make(map[query.Date][]transcript.Message)
	var days []query.Date
	for _, m := range messages {
		if m.IsSystem() {
			continue
		}
		d, ok := dateOf(m)
		if !ok {
			continue
		}
		if _, seen := byDay[d]; !seen {
			days = append(days, d)
		}
		byDay[d] = append(byDay[d], m)
	}
	slices.SortFunc(days, query.Date.Compare)

	out := make([]DaySummary, 0, len(days))
	for _, d := range days {
		msgs := byDay[d]
		ds := DaySummary{Date: d, MessageCount: len(msgs)}
		lines := []string{d.String()}
		for _, g := range bySender(msgs) {
			ds.Users = append(ds.Users, query.UserActivity{
				User:       g.Sender,
				Count:      len(g.Messages),
				Percentage: percent(len(g.Messages), len(msgs)),
			})
			lines = append(lines, fmt.Sprintf("- %s: %d messages", g.Sender, len(g.Messages)))
		}
		ds.Summary = strings.Join(lines, "\n")
		out = append(out, ds)
	}
	return out
}

// detailed lists everything user wrote, day by day.
func detailed(messages []transcript.Message, user string) string {
	mine := fromSender(messages, user)
	if len(mine) == 0 {
		return fmt.Sprintf("No messages found for user %s.", user)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Detailed report for %s\nTotal messages: %d\n", user, len(mine))
	for _, ds := range daily(mine) {
		fmt.Fprintf(&sb, "\n%s (%d messages):\n", ds.Date, ds.MessageCount)
		for _, m := range mine {
			if d, ok := dateOf(m); ok && d == ds.Date {
				fmt.Fprintf(&sb, "- %s\n", strings.TrimSpace(m.Body))
			}
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// String renders the summary as plain text.
func (s Summary) String() string {
	var sb strings.Builder
	if s.Text != "" {
		sb.WriteString(s.Text)
	}
	for _, w := range s.Weeks {
		fmt.Fprintf(&sb, "\n\nWeek %s to %s (%d messages)\n%s", w.Start, w.End, w.MessageCount, w.Summary)
	}
	for _, d := range s.Days {
		fmt.Fprintf(&sb, "\n\n%s", d.Summary)
	}
	for _, g := range s.Groups {
		fmt.Fprintf(&sb, "\n\n%s (%d messages)", g.Sender, len(g.Messages))
		for _, m := range g.Messages {
			fmt.Fprintf(&sb, "\n- [%s] %s", m.Timestamp, m.Body)
		}
	}
	if len(s.Users) > 0 {
		sb.WriteString("\n\n" + strings.Join(s.Users, "\n"))
	}
	for _, m := range s.Messages {
		fmt.Fprintf(&sb, "\n[%s] %s", m.Timestamp, m.Body)
	}
	return strings.TrimSpace(sb.String())
}

func clip(body string) string {
	body = strings.TrimSpace(body)
	if r := []rune(body); len(r) > 100 {
		return string(r[:100]) + "..."
	}
	return body
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*1000) / 10
}
