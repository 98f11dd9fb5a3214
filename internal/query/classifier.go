package query

import (
	"regexp"
	"strings"
)

// keywordSet matches any of its phrases as whole words.
type keywordSet struct {
	re *regexp.Regexp
}

func keywords(phrases ...string) keywordSet {
	parts := make([]string, len(phrases))
	for i, p := range phrases {
		parts[i] = strings.ReplaceAll(regexp.QuoteMeta(p), " ", `\s+`)
	}
	return keywordSet{re: regexp.MustCompile(`\b(?:` + strings.Join(parts, "|") + `)\b`)}
}

func (k keywordSet) in(lower string) bool {
	return k.re.MatchString(lower)
}

var (
	dateAnchorWords = keywords("on", "date", "day", "today", "yesterday", "tomorrow")
	userPhrases     = regexp.MustCompile(`\b(?:messages?\s+(?:from|by|of)|message\s+list|what\s+did|what\s+messages|(?:show|list)\s+(?:all\s+)?messages|messages?\s+on\s+this\s+day|this\s+particular\s+user|user\s+message\s+list|what\s+.*\bsaid)\b`)
	topicWords      = keywords("topic", "topics", "subject", "subjects", "discuss", "discussed", "discussing",
		"discussion", "discussions", "talk about", "talked about", "talking about", "about", "main theme", "main themes")
	analyticsWords = keywords("active", "inactive", "most", "least", "fewest", "top", "bottom", "count",
		"number", "how many", "less", "total", "messages")
	temporalWords = keywords("time", "hour", "hours", "when", "between", "from", "to", "at",
		"morning", "afternoon", "evening", "night")
	sentimentWords = keywords("sentiment", "mood", "moods", "emotion", "emotions", "emotional", "positive",
		"negative", "happy", "sad", "feel", "feeling", "feelings")
)

// Metric keywords are scanned in order; least must outrank most so that
// "less active users" is not read as a request for active users.
var metricRules = []struct {
	metric Metric
	words  keywordSet
}{
	{MetricLeastActive, keywords("least", "inactive", "less active", "lowest activity", "less user", "less users",
		"less messages", "fewest", "bottom")},
	{MetricMostActive, keywords("most active", "active", "highest activity", "top contributors", "most messages")},
	{MetricTopUsers, keywords("top")},
	{MetricMessageCount, keywords("count", "how many", "total", "number of", "messages", "message count")},
}

type question struct {
	raw       string
	lower     string
	timeRange *TimeRange
}

type rule struct {
	intent Intent
	apply  func(c *Classifier, q *question) (Params, bool)
}

// rules is evaluated top to bottom and the first rule that applies decides the intent.
var rules = []rule{
	{IntentDateBased, (*Classifier).dateRule},
	{IntentUserMessages, (*Classifier).userRule},
	{IntentTopics, (*Classifier).topicsRule},
	{IntentAnalytics, (*Classifier).analyticsRule},
	{IntentTimeBased, (*Classifier).timeRule},
	{IntentSentiment, (*Classifier).sentimentRule},
}

// RuleOrder lists intents in the precedence the classifier applies them.
// IntentGeneral is always last and applies when nothing else does.
func RuleOrder() []Intent {
	out := make([]Intent, 0, len(rules)+1)
	for _, r := range rules {
		out = append(out, r.intent)
	}
	return append(out, IntentGeneral)
}

// Classifier decides what a question is asking for.
type Classifier struct {
	resolver *Resolver
	today    Date
}

// NewClassifier creates a classifier. Relative dates resolve against today;
// a nil resolver disables user-targeted classification.
func NewClassifier(resolver *Resolver, today Date) *Classifier {
	return &Classifier{resolver: resolver, today: today}
}

// Classify never fails: questions no rule understands are classified as general.
func (c *Classifier) Classify(text string) Classification {
	q := &question{raw: text, lower: strings.ToLower(text)}
	if tr, ok := ExtractTimeRange(text); ok {
		q.timeRange = &tr
	}

	for _, r := range rules {
		if params, ok := r.apply(c, q); ok {
			params.TimeRange = q.timeRange
			return Classification{Intent: r.intent, Params: params, Question: text}
		}
	}
	return Classification{Intent: IntentGeneral, Params: Params{TimeRange: q.timeRange}, Question: text}
}

func (c *Classifier) dateRule(q *question) (Params, bool) {
	if !HasDateShape(q.lower) || !dateAnchorWords.in(q.lower) {
		return Params{}, false
	}
	var params Params
	if spec, ok := ExtractDate(q.raw, c.today); ok {
		params.Date = &spec
	}
	return params, true
}

func (c *Classifier) userRule(q *question) (Params, bool) {
	if c.resolver == nil || !userPhrases.MatchString(q.lower) {
		return Params{}, false
	}
	user, ok := c.resolver.Resolve(q.raw)
	if !ok {
		return Params{}, false
	}
	return Params{User: user}, true
}

func (c *Classifier) topicsRule(q *question) (Params, bool) {
	return Params{}, topicWords.in(q.lower)
}

func (c *Classifier) analyticsRule(q *question) (Params, bool) {
	if !analyticsWords.in(q.lower) {
		return Params{}, false
	}
	return Params{Metric: metricFor(q.lower)}, true
}

func (c *Classifier) timeRule(q *question) (Params, bool) {
	return Params{}, q.timeRange != nil && temporalWords.in(q.lower)
}

func (c *Classifier) sentimentRule(q *question) (Params, bool) {
	return Params{}, sentimentWords.in(q.lower)
}

func metricFor(lower string) Metric {
	for _, mr := range metricRules {
		if mr.words.in(lower) {
			return mr.metric
		}
	}
	return MetricGeneral
}
