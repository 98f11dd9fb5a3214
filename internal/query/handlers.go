package query

import (
	"fmt"
	"slices"
	"strings"

	"github.com/edgard/chatinsight/internal/transcript"
)

const (
	defaultRankingLimit    = 10
	defaultMaxUserMessages = 100
	defaultWindowMessages  = 20
	keyMessageCandidates   = 10
	keyMessageMinLength    = 20
)

// FilterByDateRange keeps messages whose calendar date falls within [start, end].
// Either bound may be nil. When a bound is given, messages with unparsable timestamps are dropped.
func FilterByDateRange(messages []transcript.Message, start, end *Date) []transcript.Message {
	if start == nil && end == nil {
		return messages
	}
	var out []transcript.Message
	for _, m := range messages {
		at, ok := m.Time()
		if !ok {
			continue
		}
		d := DateOf(at)
		if start != nil && d.Compare(*start) < 0 {
			continue
		}
		if end != nil && d.Compare(*end) > 0 {
			continue
		}
		out = append(out, m)
	}
	return out
}

// FilterByTime keeps messages whose clock time satisfies tr.
// Messages with unparsable timestamps are dropped.
func FilterByTime(messages []transcript.Message, tr TimeRange) []transcript.Message {
	var out []transcript.Message
	for _, m := range messages {
		at, ok := m.Time()
		if ok && tr.Contains(at) {
			out = append(out, m)
		}
	}
	return out
}

func filterOptionalTime(messages []transcript.Message, tr *TimeRange) []transcript.Message {
	if tr == nil {
		return messages
	}
	return FilterByTime(messages, *tr)
}

// RankUsers ranks participants by message count. System messages are ignored.
// Most and top order by count descending with first-seen tie breaking;
// least is the exact reverse of that ordering. At most limit rows are returned.
func RankUsers(messages []transcript.Message, metric Metric, limit int) RankingResult {
	if limit <= 0 {
		limit = defaultRankingLimit
	}
	order, counts, total := senderCounts(messages)

	users := make([]UserActivity, 0, len(order))
	for _, u := range order {
		users = append(users, UserActivity{User: u, Count: counts[u], Percentage: percent(counts[u], total)})
	}
	slices.SortStableFunc(users, func(a, b UserActivity) int { return b.Count - a.Count })
	if metric == MetricLeastActive {
		slices.Reverse(users)
	}
	if len(users) > limit {
		users = users[:limit]
	}
	return RankingResult{Metric: metric, Users: users, Total: total}
}

// CountMessages summarizes how many messages each participant sent.
func CountMessages(messages []transcript.Message) CountResult {
	order, counts, total := senderCounts(messages)
	res := CountResult{Total: total, Users: len(order), Breakdown: counts}
	if len(order) > 0 {
		res.Average = round1(float64(total) / float64(len(order)))
	}
	return res
}

func senderCounts(messages []transcript.Message) (order []string, counts map[string]int, total int) {
	counts = make(map[string]int)
	for _, m := range messages {
		if m.IsSystem() {
			continue
		}
		if _, ok := counts[m.Sender]; !ok {
			order = append(order, m.Sender)
		}
		counts[m.Sender]++
		total++
	}
	return order, counts, total
}

// MessagesOnDate returns the messages sent on date, optionally narrowed by a time range,
// grouped by sender in first-seen order.
func MessagesOnDate(messages []transcript.Message, spec *DateSpec, tr *TimeRange) (DateMessagesResult, error) {
	if spec == nil {
		return DateMessagesResult{}, resolutionError("Could not extract date information from your question")
	}

	var (
		onDate           []transcript.Message
		earliest, latest Date
		anyDate          bool
	)
	for _, m := range messages {
		at, ok := m.Time()
		if !ok {
			continue
		}
		d := DateOf(at)
		if !anyDate || d.Compare(earliest) < 0 {
			earliest = d
		}
		if !anyDate || d.Compare(latest) > 0 {
			latest = d
		}
		anyDate = true
		if d == spec.Date {
			onDate = append(onDate, m)
		}
	}

	if len(onDate) == 0 {
		span := "Available dates range from None to None"
		if anyDate {
			span = fmt.Sprintf("Available dates range from %s to %s", earliest, latest)
		}
		return DateMessagesResult{}, emptyResultError("No messages found on %s. %s", spec.Date, span)
	}

	onDate = filterOptionalTime(onDate, tr)
	if len(onDate) == 0 {
		return DateMessagesResult{}, emptyResultError("No messages found on %s in the specified time range", spec.Date)
	}

	return DateMessagesResult{
		Date:      spec.Date,
		Total:     len(onDate),
		Groups:    groupBySender(onDate),
		TimeRange: tr,
	}, nil
}

func groupBySender(messages []transcript.Message) []SenderGroup {
	index := make(map[string]int)
	var groups []SenderGroup
	for _, m := range messages {
		i, ok := index[m.Sender]
		if !ok {
			i = len(groups)
			index[m.Sender] = i
			groups = append(groups, SenderGroup{Sender: m.Sender})
		}
		groups[i].Messages = append(groups[i].Messages, m)
	}
	return groups
}

// MessagesFromUser returns what user wrote, optionally narrowed by a time range.
// Only the most recent limit messages are kept; the rest are reported as omitted.
func MessagesFromUser(messages []transcript.Message, user string, tr *TimeRange, limit int) (UserMessagesResult, error) {
	if user == "" {
		return UserMessagesResult{}, resolutionError("Could not identify the user in your question. Please specify the user name or phone number.")
	}
	if limit <= 0 {
		limit = defaultMaxUserMessages
	}

	var own []transcript.Message
	for _, m := range messages {
		if m.Sender == user {
			own = append(own, m)
		}
	}
	if len(own) == 0 {
		return UserMessagesResult{}, emptyResultError("No messages found from user: %s", user)
	}

	own = filterOptionalTime(own, tr)
	if len(own) == 0 {
		return UserMessagesResult{}, emptyResultError("No messages found from %s in the specified time range", user)
	}

	res := UserMessagesResult{User: user, Total: len(own), Messages: own, TimeRange: tr}
	if len(own) > limit {
		res.Messages = own[len(own)-limit:]
		res.Omitted = len(own) - limit
		res.Note = fmt.Sprintf("Showing %d most recent messages out of %d total messages", limit, len(own))
	}
	return res, nil
}

// MessagesInWindow returns the messages inside a clock-time window, keeping the last show of them.
func MessagesInWindow(messages []transcript.Message, tr *TimeRange, show int) (TimeWindowResult, error) {
	if tr == nil {
		return TimeWindowResult{}, resolutionError("Could not extract time information from your question")
	}
	if show <= 0 {
		show = defaultWindowMessages
	}
	inWindow := FilterByTime(messages, *tr)
	if len(inWindow) == 0 {
		return TimeWindowResult{}, emptyResultError("No messages found in the specified time range")
	}
	shown := inWindow
	if len(shown) > show {
		shown = shown[len(shown)-show:]
	}
	return TimeWindowResult{TimeRange: *tr, Total: len(inWindow), Messages: shown}, nil
}

// ExtractTopics tallies general topics, business keywords and the most frequent words,
// and picks key example messages among the first few of the set.
func ExtractTopics(messages []transcript.Message) TopicsResult {
	freq := countWords(messages)

	topics := freq.tally(GeneralTopics)
	slices.SortStableFunc(topics, func(a, b KeywordCount) int { return b.Count - a.Count })
	if len(topics) > defaultRankingLimit {
		topics = topics[:defaultRankingLimit]
	}

	res := TopicsResult{
		Analyzed:         len(messages),
		Topics:           topics,
		BusinessKeywords: freq.tally(BusinessKeywords),
		TopKeywords: freq.top(topKeywordLimit, func(w string) bool {
			_, stop := stopWords[w]
			return !stop && len([]rune(w)) > 2
		}),
	}

	for i, m := range messages {
		if i == keyMessageCandidates {
			break
		}
		if len([]rune(m.Body)) > keyMessageMinLength || strings.ContainsAny(m.Body, ".!?") {
			res.KeyMessages = append(res.KeyMessages, m)
		}
	}
	return res
}
