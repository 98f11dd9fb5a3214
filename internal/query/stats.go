package query

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/edgard/chatinsight/internal/transcript"
)

// BusinessKeywords are the domain terms tallied by the analytics and topic handlers.
var BusinessKeywords = []string{
	"price", "cost", "order", "delivery", "payment", "product", "service", "meeting", "client",
	"customer", "project", "deadline", "invoice", "contract", "deal", "offer", "discount", "profit",
	"loss", "revenue", "sales", "marketing", "promotion",
}

// GeneralTopics are the everyday discussion subjects tallied by the topic handler.
var GeneralTopics = []string{
	"meeting", "project", "work", "update", "plan", "schedule", "event", "discussion", "question",
	"issue", "problem", "solution", "idea", "feedback", "review", "decision", "agreement", "disagreement",
}

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`the and or but in on at to for of with by is are was were be been
		have has had do does did will would could should may might must can this that these those a an`) {
		stopWords[w] = struct{}{}
	}
}

const topKeywordLimit = 20

// Stats is the general analytics summary of a set of messages.
// FirstTimestamp and LastTimestamp are the first and last parsable timestamps in corpus order.
type Stats struct {
	TotalMessages   int            `json:"total_messages"`
	TotalUsers      int            `json:"total_users"`
	MessagesPerUser map[string]int `json:"messages_per_user"`
	ActivityByHour  [24]int        `json:"activity_by_hour"`
	ActivityByDay   map[string]int `json:"activity_by_day"`
	PeakHour        int            `json:"peak_hour"`
	PeakDay         string         `json:"peak_day,omitempty"`
	MostActiveUser  string         `json:"most_active_user,omitempty"`
	TopKeywords     []KeywordCount `json:"top_keywords"`
	BusinessCounts  []KeywordCount `json:"business_keywords_count"`
	FirstTimestamp  string         `json:"first_timestamp,omitempty"`
	LastTimestamp   string         `json:"last_timestamp,omitempty"`
	userOrder       []string
}

// HasPeakHour reports whether any message carried a parsable timestamp.
func (s Stats) HasPeakHour() bool {
	return s.PeakHour >= 0
}

// RankedUsers returns participants by message count, ties in first-seen order.
func (s Stats) RankedUsers() []UserActivity {
	senders := 0
	for _, n := range s.MessagesPerUser {
		senders += n
	}
	out := make([]UserActivity, 0, len(s.userOrder))
	for _, u := range s.userOrder {
		out = append(out, UserActivity{User: u, Count: s.MessagesPerUser[u], Percentage: percent(s.MessagesPerUser[u], senders)})
	}
	slices.SortStableFunc(out, func(a, b UserActivity) int { return b.Count - a.Count })
	return out
}

// ComputeStats summarizes messages: totals, per-user counts, hourly and weekday activity,
// peaks, the most active participant and keyword frequencies.
func ComputeStats(messages []transcript.Message) Stats {
	s := Stats{
		TotalMessages:   len(messages),
		MessagesPerUser: make(map[string]int),
		ActivityByDay:   make(map[string]int, 7),
		PeakHour:        -1,
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		s.ActivityByDay[d.String()] = 0
	}
	for _, m := range messages {
		if _, ok := m.Time(); ok {
			if s.FirstTimestamp == "" {
				s.FirstTimestamp = m.Timestamp
			}
			s.LastTimestamp = m.Timestamp
		}
	}

	var (
		hourOrder []int
		dayOrder  []string
		seenHour  [24]bool
	)
	for _, m := range messages {
		if m.IsSystem() {
			continue
		}
		if _, ok := s.MessagesPerUser[m.Sender]; !ok {
			s.userOrder = append(s.userOrder, m.Sender)
		}
		s.MessagesPerUser[m.Sender]++

		at, ok := m.Time()
		if !ok {
			continue
		}
		h := at.Hour()
		if !seenHour[h] {
			seenHour[h] = true
			hourOrder = append(hourOrder, h)
		}
		s.ActivityByHour[h]++
		day := at.Weekday().String()
		if !slices.Contains(dayOrder, day) {
			dayOrder = append(dayOrder, day)
		}
		s.ActivityByDay[day]++
	}
	s.TotalUsers = len(s.userOrder)

	for _, h := range hourOrder {
		if s.PeakHour < 0 || s.ActivityByHour[h] > s.ActivityByHour[s.PeakHour] {
			s.PeakHour = h
		}
	}
	for _, d := range dayOrder {
		if s.PeakDay == "" || s.ActivityByDay[d] > s.ActivityByDay[s.PeakDay] {
			s.PeakDay = d
		}
	}
	for _, u := range s.userOrder {
		if s.MostActiveUser == "" || s.MessagesPerUser[u] > s.MessagesPerUser[s.MostActiveUser] {
			s.MostActiveUser = u
		}
	}

	freq := countWords(messages)
	s.TopKeywords = freq.top(topKeywordLimit, func(w string) bool {
		_, stop := stopWords[w]
		return !stop && len([]rune(w)) > 2
	})
	s.BusinessCounts = freq.tally(BusinessKeywords)
	return s
}

// wordFrequency counts lower-cased word tokens, remembering first-seen order.
type wordFrequency struct {
	counts map[string]int
	order  []string
}

func countWords(messages []transcript.Message) wordFrequency {
	f := wordFrequency{counts: make(map[string]int)}
	for _, m := range messages {
		for _, w := range wordRe.FindAllString(strings.ToLower(m.Body), -1) {
			if _, ok := f.counts[w]; !ok {
				f.order = append(f.order, w)
			}
			f.counts[w]++
		}
	}
	return f
}

func (f wordFrequency) top(limit int, keep func(string) bool) []KeywordCount {
	var out []KeywordCount
	for _, w := range f.order {
		if keep(w) {
			out = append(out, KeywordCount{Keyword: w, Count: f.counts[w]})
		}
	}
	slices.SortStableFunc(out, func(a, b KeywordCount) int { return b.Count - a.Count })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// tally counts the given keywords in list order, dropping those never seen.
func (f wordFrequency) tally(keywords []string) []KeywordCount {
	var out []KeywordCount
	for _, k := range keywords {
		if n := f.counts[k]; n > 0 {
			out = append(out, KeywordCount{Keyword: k, Count: n})
		}
	}
	return out
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(part) / float64(total) * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
