package transcript

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	numericTimestampRe = regexp.MustCompile(`^(\d{1,2})[/.-](\d{1,2})[/.-](\d{4}|\d{2}),?\s+(\d{1,2}):(\d{2})(?::(\d{2}))?\s*([AaPp])\.?\s*[Mm]\.?$`)
	numeric24hRe       = regexp.MustCompile(`^(\d{1,2})[/.-](\d{1,2})[/.-](\d{4}|\d{2}),?\s+(\d{1,2}):(\d{2})(?::(\d{2}))?$`)
	isoTimestampRe     = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})(?:,\s*|T|\s+)(\d{1,2}):(\d{2})(?::(\d{2}))?$`)
)

// ParseTimestamp converts a raw export timestamp into a time value in UTC.
// Supported shapes are the WhatsApp export forms (d/m/yy with 12h or 24h clocks,
// optional seconds and bracket wrapping), ISO "yyyy-mm-dd, hh:mm" and RFC 3339.
// The second return value is false when the timestamp cannot be understood.
func ParseTimestamp(raw string) (time.Time, bool) {
	s := normalizeTimestamp(raw)
	if s == "" {
		return time.Time{}, false
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}

	if m := isoTimestampRe.FindStringSubmatch(s); m != nil {
		year, month, day := atoi(m[1]), atoi(m[2]), atoi(m[3])
		return buildTime(year, month, day, atoi(m[4]), atoi(m[5]), atoi(m[6]))
	}

	if m := numericTimestampRe.FindStringSubmatch(s); m != nil {
		hour := atoi(m[4])
		if hour < 1 || hour > 12 {
			return time.Time{}, false
		}
		hour = To24Hour(hour, strings.ToLower(m[7])+"m")
		day, month := DayMonth(atoi(m[1]), atoi(m[2]))
		return buildTime(ExpandYear(m[3]), month, day, hour, atoi(m[5]), atoi(m[6]))
	}

	if m := numeric24hRe.FindStringSubmatch(s); m != nil {
		day, month := DayMonth(atoi(m[1]), atoi(m[2]))
		return buildTime(ExpandYear(m[3]), month, day, atoi(m[4]), atoi(m[5]), atoi(m[6]))
	}

	return time.Time{}, false
}

// DayMonth orders two ambiguous numeric date components.
// A first value above 12 can only be a day; otherwise a second value above 12
// forces month-first. When both fit either slot, day-first wins.
func DayMonth(first, second int) (day, month int) {
	switch {
	case first > 12:
		return first, second
	case second > 12:
		return second, first
	default:
		return first, second
	}
}

// ExpandYear turns a two or four digit year string into a full year.
// Two digit years below 50 land in the 2000s, the rest in the 1900s.
func ExpandYear(s string) int {
	y := atoi(s)
	if len(s) != 2 {
		return y
	}
	if y < 50 {
		return 2000 + y
	}
	return 1900 + y
}

// To24Hour converts a 12-hour clock hour using an "am" or "pm" marker.
// An empty marker leaves the hour untouched.
func To24Hour(hour int, marker string) int {
	switch strings.ToLower(marker) {
	case "pm":
		if hour != 12 {
			return hour + 12
		}
	case "am":
		if hour == 12 {
			return 0
		}
	}
	return hour
}

// ValidDate reports whether the components form a real calendar date.
func ValidDate(year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Year() == year && int(t.Month()) == month && t.Day() == day
}

func buildTime(year, month, day, hour, minute, second int) (time.Time, bool) {
	if !ValidDate(year, month, day) {
		return time.Time{}, false
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC), true
}

func normalizeTimestamp(raw string) string {
	s := strings.NewReplacer("\u202f", " ", "\u00a0", " ").Replace(raw)
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	return strings.TrimSpace(s)
}

func atoi(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}

// FormatTimestamp renders t in the ISO shape accepted by ParseTimestamp.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02, 15:04:05")
}
