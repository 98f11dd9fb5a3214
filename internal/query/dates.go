package query

import (
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/edgard/chatinsight/internal/transcript"
)

// Date is a calendar date without clock or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in its own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses an ISO "2006-01-02" date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// AddDays shifts the date by n calendar days.
func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC))
}

// Compare returns -1, 0 or 1 depending on the chronological order of d and o.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DateKindSpecific is the only kind of date a question can resolve to.
const DateKindSpecific = "specific_date"

// DateSpec is a single calendar date extracted from a question.
type DateSpec struct {
	Date Date   `json:"date"`
	Kind string `json:"type"`
}

var monthNames = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

const monthAlternation = `january|february|march|april|may|june|july|august|september|october|november|december`

var (
	relativeDayRe   = regexp.MustCompile(`\b(today|yesterday|tomorrow)\b`)
	isoDateRe       = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	numericDateRe   = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{4})\b`)
	shortDateRe     = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{2})\b`)
	monthDayYearRe  = regexp.MustCompile(`\b(` + monthAlternation + `)\s+(\d{1,2})(?:st|nd|rd|th)?,?\s*(\d{4})\b`)
	monthDayRe      = regexp.MustCompile(`\b(` + monthAlternation + `)\s+(\d{1,2})(?:st|nd|rd|th)?\b(?:,?\s*(\d{4})\b)?`)
	dayMonthYearRe  = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(` + monthAlternation + `)\b(?:,?\s*(\d{4})\b)?`)
	anyDateShapeRes = []*regexp.Regexp{
		isoDateRe,
		regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`),
		regexp.MustCompile(`\b(` + monthAlternation + `)\b`),
		regexp.MustCompile(`\b\d{1,2}(st|nd|rd|th)\b`),
		relativeDayRe,
	}
)

// HasDateShape reports whether the question mentions something that looks like a date.
func HasDateShape(question string) bool {
	q := strings.ToLower(question)
	for _, re := range anyDateShapeRes {
		if re.MatchString(q) {
			return true
		}
	}
	return false
}

// ExtractDate finds the calendar date a question refers to.
// Relative words resolve against today and take precedence over explicit dates.
// Explicit dates are tried family by family (ISO, D/M/YYYY, D/M/YY, "Month D, YYYY",
// "Month D [YYYY]", "Dth Month [YYYY]") and the first valid match wins.
func ExtractDate(question string, today Date) (DateSpec, bool) {
	q := strings.ToLower(question)

	if words := relativeDayRe.FindAllString(q, -1); len(words) > 0 {
		switch {
		case slices.Contains(words, "today"):
			return specific(today), true
		case slices.Contains(words, "yesterday"):
			return specific(today.AddDays(-1)), true
		default:
			return specific(today.AddDays(1)), true
		}
	}

	families := []func(string, Date) (Date, bool){
		isoDate,
		numericDate(numericDateRe),
		numericDate(shortDateRe),
		monthFirstDate(monthDayYearRe),
		monthFirstDate(monthDayRe),
		dayFirstDate,
	}
	for _, family := range families {
		if d, ok := family(q, today); ok {
			return specific(d), true
		}
	}
	return DateSpec{}, false
}

func isoDate(q string, _ Date) (Date, bool) {
	m := isoDateRe.FindStringSubmatch(q)
	if m == nil {
		return Date{}, false
	}
	return makeDate(mustAtoi(m[1]), mustAtoi(m[2]), mustAtoi(m[3]))
}

func numericDate(re *regexp.Regexp) func(string, Date) (Date, bool) {
	return func(q string, _ Date) (Date, bool) {
		m := re.FindStringSubmatch(q)
		if m == nil {
			return Date{}, false
		}
		day, month := transcript.DayMonth(mustAtoi(m[1]), mustAtoi(m[2]))
		return makeDate(transcript.ExpandYear(m[3]), month, day)
	}
}

func monthFirstDate(re *regexp.Regexp) func(string, Date) (Date, bool) {
	return func(q string, today Date) (Date, bool) {
		m := re.FindStringSubmatch(q)
		if m == nil {
			return Date{}, false
		}
		year := today.Year
		if m[3] != "" {
			year = transcript.ExpandYear(m[3])
		}
		return makeDate(year, int(monthNames[m[1]]), mustAtoi(m[2]))
	}
}

func dayFirstDate(q string, today Date) (Date, bool) {
	m := dayMonthYearRe.FindStringSubmatch(q)
	if m == nil {
		return Date{}, false
	}
	year := today.Year
	if m[3] != "" {
		year = transcript.ExpandYear(m[3])
	}
	return makeDate(year, int(monthNames[m[2]]), mustAtoi(m[1]))
}

func makeDate(year, month, day int) (Date, bool) {
	if !transcript.ValidDate(year, month, day) {
		return Date{}, false
	}
	return Date{Year: year, Month: time.Month(month), Day: day}, true
}

func specific(d Date) DateSpec {
	return DateSpec{Date: d, Kind: DateKindSpecific}
}

// Clock is a wall-clock time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:MM" in 24-hour form.
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return Clock{}, fmt.Errorf("invalid clock %q: %w", s, err)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Seconds is the number of seconds since midnight.
func (c Clock) Seconds() int {
	return c.Hour*3600 + c.Minute*60
}

// TimeRange kinds.
const (
	TimeRangeInterval = "time_range"
	TimeRangeSpecific = "specific_time"
)

// SpecificTimeTolerance is the matching window around a single requested time.
const SpecificTimeTolerance = 30 * time.Minute

// TimeRange is a clock-time constraint: an inclusive interval, or a single time
// matched with SpecificTimeTolerance on either side.
type TimeRange struct {
	Kind  string
	Start Clock
	End   Clock
	At    Clock
}

// Contains reports whether the clock part of t satisfies the range.
// Only the time of day is compared; the date of t is irrelevant.
func (r TimeRange) Contains(t time.Time) bool {
	secs := t.Hour()*3600 + t.Minute()*60 + t.Second()
	if r.Kind == TimeRangeSpecific {
		diff := secs - r.At.Seconds()
		if diff < 0 {
			diff = -diff
		}
		return diff <= int(SpecificTimeTolerance/time.Second)
	}
	return secs >= r.Start.Seconds() && secs <= r.End.Seconds()
}

func (r TimeRange) String() string {
	if r.Kind == TimeRangeSpecific {
		return "around " + r.At.String()
	}
	return r.Start.String() + " to " + r.End.String()
}

type timeRangeJSON struct {
	Kind  string `json:"type"`
	Start string `json:"start_time,omitempty"`
	End   string `json:"end_time,omitempty"`
	At    string `json:"time,omitempty"`
}

func (r TimeRange) MarshalJSON() ([]byte, error) {
	out := timeRangeJSON{Kind: r.Kind}
	if r.Kind == TimeRangeSpecific {
		out.At = r.At.String()
	} else {
		out.Start, out.End = r.Start.String(), r.End.String()
	}
	return json.Marshal(out)
}

const clockPattern = `\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`

var (
	toRangeRe      = regexp.MustCompile(clockPattern + `\s*\bto\b\s*` + clockPattern)
	betweenRangeRe = regexp.MustCompile(`\bbetween\s+` + clockPattern + `\s+and\s+` + clockPattern)
	atTimeRe       = regexp.MustCompile(`\bat\s+` + clockPattern)
)

// ExtractTimeRange finds a clock-time constraint in a question.
// Recognized forms are "HH:MM to HH:MM" (optionally after "from"), "between HH:MM and HH:MM"
// and "at HH:MM", each side with an optional am/pm marker. An hour without minutes needs
// a marker, either its own or one borrowed from the other side of a range.
// Intervals that would cross midnight are rejected.
func ExtractTimeRange(question string) (TimeRange, bool) {
	q := strings.ToLower(question)

	for _, re := range []*regexp.Regexp{toRangeRe, betweenRangeRe} {
		for _, m := range re.FindAllStringSubmatch(q, -1) {
			if r, ok := intervalFromMatch(m[1:4], m[4:7]); ok {
				return r, true
			}
		}
	}

	for _, m := range atTimeRe.FindAllStringSubmatch(q, -1) {
		if c, ok := clockFrom(m[1], m[2], m[3]); ok {
			return TimeRange{Kind: TimeRangeSpecific, At: c}, true
		}
	}
	return TimeRange{}, false
}

func intervalFromMatch(start, end []string) (TimeRange, bool) {
	startMarker, endMarker := start[2], end[2]

	// a bare hour borrows the marker of the other side
	if start[1] == "" && startMarker == "" && endMarker != "" {
		if c, ok := clockFrom(start[0], "", endMarker); ok {
			if e, ok := clockFrom(end[0], end[1], endMarker); ok && c.Seconds() > e.Seconds() && endMarker == "pm" {
				startMarker = "am"
			} else {
				startMarker = endMarker
			}
		}
	}
	if end[1] == "" && endMarker == "" && startMarker != "" {
		endMarker = startMarker
	}

	s, ok := clockFrom(start[0], start[1], startMarker)
	if !ok {
		return TimeRange{}, false
	}
	e, ok := clockFrom(end[0], end[1], endMarker)
	if !ok {
		return TimeRange{}, false
	}
	if s.Seconds() > e.Seconds() {
		return TimeRange{}, false
	}
	return TimeRange{Kind: TimeRangeInterval, Start: s, End: e}, true
}

func clockFrom(hourStr, minuteStr, marker string) (Clock, bool) {
	if minuteStr == "" && marker == "" {
		return Clock{}, false
	}
	hour := mustAtoi(hourStr)
	minute := 0
	if minuteStr != "" {
		minute = mustAtoi(minuteStr)
	}
	if marker != "" {
		if hour < 1 || hour > 12 {
			return Clock{}, false
		}
		hour = transcript.To24Hour(hour, marker)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return Clock{}, false
	}
	return Clock{Hour: hour, Minute: minute}, true
}

func mustAtoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
