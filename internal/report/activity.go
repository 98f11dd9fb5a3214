package report

import (
	"slices"
	"time"

	"github.com/edgard/chatinsight/internal/query"
	"github.com/edgard/chatinsight/internal/transcript"
)

// Analysis types reported by Activity.
const (
	AnalysisHourly = "hourly"
	AnalysisWeekly = "weekly"
	AnalysisRange  = "range"
	AnalysisAll    = "all"
)

// ActivityRequest selects the period and participant of an activity breakdown.
// The first period given wins: Day, then WeekStart with WeekEnd, then Start or End.
type ActivityRequest struct {
	Day             *query.Date
	WeekStart       *query.Date
	WeekEnd         *query.Date
	Start           *query.Date
	End             *query.Date
	User            string
	IncludeMessages bool
}

// Activity is the hourly and weekday breakdown of a period.
// DailyActivity is indexed by time.Weekday, Sunday first.
type Activity struct {
	AnalysisType   string               `json:"analysis_type"`
	TotalMessages  int                  `json:"total_messages"`
	TotalUsers     int                  `json:"total_users"`
	HourlyActivity [24]int              `json:"hourly_activity"`
	DailyActivity  [7]int               `json:"daily_activity"`
	MessageCounts  map[string]int       `json:"message_counts"`
	TopUsers       []query.UserActivity `json:"top_users"`
	PeakHour       *int                 `json:"peak_hour,omitempty"`
	PeakDay        string               `json:"peak_day,omitempty"`
	AllUsers       []string             `json:"all_users"`
	Sampled        bool                 `json:"sampled,omitempty"`
	Weeks          []ActivityWeek       `json:"weeks,omitempty"`
	Messages       []transcript.Message `json:"messages,omitempty"`
}

// ActivityWeek is one Monday-aligned week of a range breakdown.
type ActivityWeek struct {
	Start          query.Date           `json:"start"`
	End            query.Date           `json:"end"`
	MessageCount   int                  `json:"message_count"`
	Users          []string             `json:"users"`
	MessageCounts  map[string]int       `json:"message_counts"`
	MostActiveUser string               `json:"most_active_user,omitempty"`
	PeakHour       *int                 `json:"peak_hour,omitempty"`
	DailyActivity  [7]int               `json:"daily_activity"`
	HourlyActivity [24]int              `json:"hourly_activity"`
	Messages       []transcript.Message `json:"messages,omitempty"`
}

// Activity breaks down the messages of the requested period by hour, weekday and sender.
// AllUsers lists everyone active in the period regardless of req.User. Periods with more
// than MaxActivityMessages messages are sampled evenly. When both Start and End are given
// the period is also split into Monday-aligned weeks.
func (r *Reporter) Activity(messages []transcript.Message, req ActivityRequest) (Activity, error) {
	var (
		a      = Activity{AnalysisType: AnalysisAll}
		period = messages
	)
	switch {
	case req.Day != nil:
		a.AnalysisType = AnalysisHourly
		period = query.FilterByDateRange(messages, req.Day, req.Day)
	case req.WeekStart != nil && req.WeekEnd != nil:
		a.AnalysisType = AnalysisWeekly
		period = query.FilterByDateRange(messages, req.WeekStart, req.WeekEnd)
	case req.Start != nil || req.End != nil:
		a.AnalysisType = AnalysisRange
		period = query.FilterByDateRange(messages, req.Start, req.End)
	}

	a.AllUsers = transcript.Senders(period)
	slices.Sort(a.AllUsers)
	if a.AllUsers == nil {
		a.AllUsers = []string{}
	}

	filtered := period
	if req.User != "" {
		filtered = fromSender(period, req.User)
	}
	if len(filtered) == 0 {
		return Activity{}, ErrNoMessages
	}
	if limit := r.opts.MaxActivityMessages; len(filtered) > limit {
		filtered = sample(filtered, limit)
		a.Sampled = true
	}

	stats := query.ComputeStats(filtered)
	a.TotalMessages = stats.TotalMessages
	a.TotalUsers = stats.TotalUsers
	a.HourlyActivity = stats.ActivityByHour
	for d := time.Sunday; d <= time.Saturday; d++ {
		a.DailyActivity[d] = stats.ActivityByDay[d.String()]
	}
	a.MessageCounts = stats.MessagesPerUser
	a.TopUsers = stats.RankedUsers()
	if stats.HasPeakHour() {
		peak := stats.PeakHour
		a.PeakHour = &peak
		a.PeakDay = stats.PeakDay
	}

	if req.Day == nil && req.Start != nil && req.End != nil {
		a.Weeks = splitWeeks(filtered, *req.Start, *req.End, req.IncludeMessages)
	}
	if req.IncludeMessages {
		a.Messages = filtered
	}
	return a, nil
}

// sample keeps every step-th message so the result still spans the whole period.
func sample(messages []transcript.Message, limit int) []transcript.Message {
	step := len(messages) / limit
	out := make([]transcript.Message, 0, limit)
	for i := 0; i < len(messages) && len(out) < limit; i += step {
		out = append(out, messages[i])
	}
	return out
}

func splitWeeks(messages []transcript.Message, start, end query.Date, withMessages bool) []ActivityWeek {
	var weeks []ActivityWeek
	for cur := monday(start); cur.Compare(end) <= 0; cur = cur.AddDays(7) {
		last := cur.AddDays(6)
		if last.Compare(end) > 0 {
			last = end
		}
		w := ActivityWeek{Start: cur, End: last, MessageCounts: make(map[string]int)}

		var senders []string
		for _, m := range messages {
			d, ok := dateOf(m)
			if !ok || d.Compare(cur) < 0 || d.Compare(last) > 0 {
				continue
			}
			w.MessageCount++
			if withMessages {
				w.Messages = append(w.Messages, m)
			}
			if m.IsSystem() {
				continue
			}
			at, _ := m.Time()
			w.HourlyActivity[at.Hour()]++
			w.DailyActivity[at.Weekday()]++
			if _, seen := w.MessageCounts[m.Sender]; !seen {
				senders = append(senders, m.Sender)
			}
			w.MessageCounts[m.Sender]++
		}

		for _, s := range senders {
			if w.MostActiveUser == "" || w.MessageCounts[s] > w.MessageCounts[w.MostActiveUser] {
				w.MostActiveUser = s
			}
		}
		if w.MessageCount > 0 {
			peak := 0
			for h, n := range w.HourlyActivity {
				if n > w.HourlyActivity[peak] {
					peak = h
				}
			}
			w.PeakHour = &peak
		}
		w.Users = slices.Clone(senders)
		slices.Sort(w.Users)
		if w.Users == nil {
			w.Users = []string{}
		}
		weeks = append(weeks, w)
	}
	return weeks
}
