package transcript

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultGroupName is used when an export filename carries no usable name.
const DefaultGroupName = "Unnamed WhatsApp Group"

const maxLineBytes = 1 << 20

var (
	senderLinePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^\[(\d{1,2}/\d{1,2}/\d{2,4}, \d{1,2}:\d{2}(?::\d{2})?(?: ?[AP]M)?)\] (.*?): (.*)$`),
		regexp.MustCompile(`(?i)^(\d{1,2}/\d{1,2}/\d{2,4}, \d{1,2}:\d{2}(?: ?[AP]M)?) - (.*?): (.*)$`),
		regexp.MustCompile(`^(\d{4}-\d{1,2}-\d{1,2}, \d{1,2}:\d{2}) - (.*?): (.*)$`),
	}
	systemLinePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^\[(\d{1,2}/\d{1,2}/\d{2,4}, \d{1,2}:\d{2}(?::\d{2})?(?: ?[AP]M)?)\] (.*)$`),
		regexp.MustCompile(`(?i)^(\d{1,2}/\d{1,2}/\d{2,4}, \d{1,2}:\d{2}(?: ?[AP]M)?) - (.*)$`),
		regexp.MustCompile(`^(\d{4}-\d{1,2}-\d{1,2}, \d{1,2}:\d{2}) - (.*)$`),
	}
	lineCleaner = strings.NewReplacer("\u202f", " ", "\u00a0", " ", "\u200e", "", "\ufeff", "")
)

// ParseWhatsApp reads a WhatsApp text export and returns its messages in file order.
// Lines that do not start a new message are appended to the previous body.
// Service lines without a sender become system messages.
func ParseWhatsApp(r io.Reader) ([]Message, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var (
		messages []Message
		current  *Message
	)
	flush := func() {
		if current != nil {
			messages = append(messages, *current)
			current = nil
		}
	}

	for scanner.Scan() {
		line := strings.TrimSpace(lineCleaner.Replace(scanner.Text()))
		if line == "" {
			continue
		}

		if msg, ok := parseLine(line); ok {
			flush()
			current = &msg
			continue
		}

		if current == nil {
			continue
		}
		if current.Body == "" {
			current.Body = line
		} else {
			current.Body += "\n" + line
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read export: %w", err)
	}
	flush()

	return messages, nil
}

func parseLine(line string) (Message, bool) {
	for _, re := range senderLinePatterns {
		if m := re.FindStringSubmatch(line); m != nil {
			return Message{Timestamp: m[1], Sender: strings.TrimSpace(m[2]), Body: m[3]}, true
		}
	}
	for _, re := range systemLinePatterns {
		if m := re.FindStringSubmatch(line); m != nil {
			return Message{Timestamp: m[1], Body: m[2]}, true
		}
	}
	return Message{}, false
}

// GroupNameFromFile derives a display name from an uploaded export filename:
// the extension is dropped, underscores and dashes become spaces and every word is capitalized.
func GroupNameFromFile(filename string) string {
	base := filepath.Base(strings.TrimSpace(filename))
	if base == "" || base == "." || base == "/" || base == "undefined" {
		return DefaultGroupName
	}
	name := strings.TrimSuffix(base, filepath.Ext(base))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return DefaultGroupName
	}
	return cases.Title(language.Und).String(name)
}

// SortChronological orders messages by parsed timestamp.
// Messages whose timestamps cannot be parsed keep their relative order and come first.
func SortChronological(messages []Message) []Message {
	type keyed struct {
		msg Message
		at  time.Time
		ok  bool
	}
	items := make([]keyed, len(messages))
	for i, m := range messages {
		at, ok := m.Time()
		items[i] = keyed{msg: m, at: at, ok: ok}
	}
	slices.SortStableFunc(items, func(a, b keyed) int {
		switch {
		case !a.ok && !b.ok:
			return 0
		case !a.ok:
			return -1
		case !b.ok:
			return 1
		default:
			return a.at.Compare(b.at)
		}
	})
	out := make([]Message, len(items))
	for i, it := range items {
		out[i] = it.msg
	}
	return out
}
