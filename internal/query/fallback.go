package query

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/edgard/chatinsight/internal/transcript"
)

const (
	defaultFallbackExamples = 5
	meaningfulMinLength     = 15
	exampleMaxLength        = 100
	emptyFallbackAnswer     = "I don't have any messages to analyze for this date range."
)

// Chat export noise that never counts as discussion.
var (
	systemPhrases = []string{
		"media omitted", "security code", "tap to learn", "this message was deleted",
		"end-to-end encrypted", "joined using this group",
	}
	systemWords = keywords("left", "added", "removed")
)

var (
	meetingWords  = keywords("meet", "meeting", "meetings", "call", "zoom", "teams", "hangout", "schedule", "scheduled", "appointment")
	fileWords     = keywords("file", "files", "document", "documents", "pdf", "attachment", "attachments", "shared", "share")
	linkWords     = keywords("link", "links", "url", "urls", "website", "websites")
	questionWords = keywords("question", "questions", "asked", "ask")
	decisionWords = keywords("decision", "decisions", "decided", "decide", "agreed", "agree", "finalized", "approved", "confirmed")
	leastWords    = keywords("least active", "least", "inactive", "quiet", "quietest")
	mostWords     = keywords("most active", "most", "busiest", "top")
	dayPartWords  = keywords("morning", "afternoon", "evening", "night")

	fileExtRe = regexp.MustCompile(`\.(?:pdf|docx?|xlsx?|pptx?|jpe?g|png|mp4|zip)\b`)
	linkRe    = regexp.MustCompile(`https?://\S+|www\.\S+`)
)

// Synthesizer writes a deterministic report from message statistics.
// It answers free-form questions when no completion backend is usable.
type Synthesizer struct {
	examples int
}

// NewSynthesizer returns a synthesizer quoting up to examples messages as discussion topics.
func NewSynthesizer(examples int) *Synthesizer {
	if examples <= 0 {
		examples = defaultFallbackExamples
	}
	return &Synthesizer{examples: examples}
}

type digest struct {
	meaningful []transcript.Message
	meetings   []transcript.Message
	files      []transcript.Message
	links      []transcript.Message
	questions  []transcript.Message
	decisions  []transcript.Message
}

func digestMessages(messages []transcript.Message) digest {
	var d digest
	for _, m := range messages {
		if m.IsSystem() {
			continue
		}
		body := strings.TrimSpace(m.Body)
		lower := strings.ToLower(body)
		if isSystemText(lower) || len([]rune(body)) <= meaningfulMinLength {
			continue
		}
		d.meaningful = append(d.meaningful, m)
		if meetingWords.in(lower) {
			d.meetings = append(d.meetings, m)
		}
		if fileExtRe.MatchString(lower) {
			d.files = append(d.files, m)
		}
		if linkRe.MatchString(lower) {
			d.links = append(d.links, m)
		}
		if strings.Contains(body, "?") {
			d.questions = append(d.questions, m)
		}
		if decisionWords.in(lower) {
			d.decisions = append(d.decisions, m)
		}
	}
	return d
}

// Highlights counts the notable messages of a transcript.
type Highlights struct {
	Meaningful int `json:"meaningful"`
	Meetings   int `json:"meetings"`
	Files      int `json:"files"`
	Links      int `json:"links"`
	Questions  int `json:"questions"`
	Decisions  int `json:"decisions"`
}

// CountHighlights tallies meetings, files, links, questions and decisions
// over the participant messages long enough to carry discussion.
func CountHighlights(messages []transcript.Message) Highlights {
	d := digestMessages(messages)
	return Highlights{
		Meaningful: len(d.meaningful),
		Meetings:   len(d.meetings),
		Files:      len(d.files),
		Links:      len(d.links),
		Questions:  len(d.questions),
		Decisions:  len(d.decisions),
	}
}

// IsNoise reports whether m is a system line or export noise such as
// "<Media omitted>" rather than something a participant wrote.
func IsNoise(m transcript.Message) bool {
	return m.IsSystem() || isSystemText(strings.ToLower(m.Body))
}

func isSystemText(lower string) bool {
	for _, p := range systemPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return systemWords.in(lower)
}

// Answer builds the report for question over messages. It never fails:
// if anything goes wrong it falls back to a stub with the raw counts.
func (s *Synthesizer) Answer(question string, messages []transcript.Message) (answer string) {
	if len(messages) == 0 {
		return emptyFallbackAnswer
	}
	defer func() {
		if r := recover(); r != nil {
			answer = stubAnswer(messages)
		}
	}()

	stats := ComputeStats(messages)
	d := digestMessages(messages)
	lower := strings.ToLower(question)

	var b strings.Builder
	b.WriteString("ACTIVITY OVERVIEW\n")
	fmt.Fprintf(&b, "Total messages: %d\n", stats.TotalMessages)
	fmt.Fprintf(&b, "Participants: %d\n", stats.TotalUsers)
	if stats.FirstTimestamp != "" {
		fmt.Fprintf(&b, "Time span: %s to %s\n", stats.FirstTimestamp, stats.LastTimestamp)
	}

	ranked := stats.RankedUsers()
	if len(ranked) > 0 {
		b.WriteString("\nKEY PARTICIPANTS\n")
		top := ranked[0]
		fmt.Fprintf(&b, "Most active: %s with %d messages (%.1f%% of activity)\n", top.User, top.Count, top.Percentage)
	}

	b.WriteString("\nACTIVITY PATTERNS\n")
	if stats.HasPeakHour() {
		fmt.Fprintf(&b, "Peak hour: %02d:00 (%s)\n", stats.PeakHour, dayPart(stats.PeakHour))
		fmt.Fprintf(&b, "Peak day: %s\n", stats.PeakDay)
	} else {
		b.WriteString("Peak activity: N/A\n")
	}

	s.writeFocus(&b, lower, stats, ranked, d)
	s.writeTopics(&b, d, messages)

	b.WriteString("\nKEYWORD TALLIES\n")
	fmt.Fprintf(&b, "Meetings: %d | Files shared: %d | Links shared: %d | Decisions: %d | Questions: %d\n",
		len(d.meetings), len(d.files), len(d.links), len(d.decisions), len(d.questions))

	return strings.TrimRight(b.String(), "\n")
}

func (s *Synthesizer) writeFocus(b *strings.Builder, lower string, stats Stats, ranked []UserActivity, d digest) {
	var lines []string
	quote := func(title string, msgs []transcript.Message, none string) {
		if len(msgs) == 0 {
			lines = append(lines, none)
			return
		}
		lines = append(lines, title)
		for _, m := range msgs[:min(len(msgs), s.examples)] {
			lines = append(lines, fmt.Sprintf("- [%s] %s: %s", m.Timestamp, m.Sender, truncate(m.Body)))
		}
	}

	if meetingWords.in(lower) {
		quote("Meetings mentioned:", d.meetings, "No meetings found in the conversation.")
	}
	if fileWords.in(lower) {
		quote("Files shared:", d.files, "No files or documents were shared.")
	}
	if linkWords.in(lower) {
		quote("Links shared:", d.links, "No links were shared.")
	}
	if questionWords.in(lower) {
		quote("Questions asked:", d.questions, "No questions were asked.")
	}
	if decisionWords.in(lower) {
		quote("Decisions:", d.decisions, "No decisions were recorded.")
	}
	if len(ranked) > 0 {
		switch {
		case leastWords.in(lower):
			u := ranked[len(ranked)-1]
			lines = append(lines, fmt.Sprintf("Least active: %s with %d messages (%.1f%%)", u.User, u.Count, u.Percentage))
		case mostWords.in(lower):
			for i, u := range ranked[:min(len(ranked), 3)] {
				lines = append(lines, fmt.Sprintf("%d. %s: %d messages (%.1f%%)", i+1, u.User, u.Count, u.Percentage))
			}
		}
	}
	if part := dayPartWords.re.FindString(lower); part != "" && stats.HasPeakHour() {
		n := 0
		for h, c := range stats.ActivityByHour {
			if dayPart(h) == part {
				n += c
			}
		}
		lines = append(lines, fmt.Sprintf("Messages in the %s: %d", part, n))
	}

	if len(lines) == 0 {
		return
	}
	b.WriteString("\nQUESTION FOCUS\n")
	for _, l := range lines {
		b.WriteString(l + "\n")
	}
}

// writeTopics quotes one message per participant first, then fills up with the rest.
func (s *Synthesizer) writeTopics(b *strings.Builder, d digest, all []transcript.Message) {
	b.WriteString("\nMAIN DISCUSSION TOPICS\n")
	pool := d.meaningful
	if len(pool) == 0 {
		for _, m := range all {
			if !m.IsSystem() {
				pool = append(pool, m)
			}
		}
	}
	if len(pool) == 0 {
		b.WriteString("No conversations recorded\n")
		return
	}

	picked := make([]bool, len(pool))
	seen := make(map[string]bool)
	var order []int
	for i, m := range pool {
		if len(order) == s.examples {
			break
		}
		if !seen[m.Sender] {
			seen[m.Sender] = true
			picked[i] = true
			order = append(order, i)
		}
	}
	for i := range pool {
		if len(order) == s.examples {
			break
		}
		if !picked[i] {
			picked[i] = true
			order = append(order, i)
		}
	}
	for n, i := range order {
		fmt.Fprintf(b, "- Topic %d: %s: %s\n", n+1, pool[i].Sender, truncate(pool[i].Body))
	}
}

func stubAnswer(messages []transcript.Message) string {
	return fmt.Sprintf("ACTIVITY OVERVIEW\nTotal messages: %d\nParticipants: %d",
		len(messages), len(transcript.Senders(messages)))
}

func dayPart(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 17:
		return "afternoon"
	case hour >= 17 && hour < 21:
		return "evening"
	default:
		return "night"
	}
}

func truncate(body string) string {
	body = strings.TrimSpace(body)
	r := []rune(body)
	if len(r) <= exampleMaxLength {
		return body
	}
	return string(r[:exampleMaxLength]) + "..."
}
