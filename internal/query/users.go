package query

import (
	"regexp"
	"strings"
)

// DefaultUserMatchThreshold is the minimum name score accepted as a match.
const DefaultUserMatchThreshold = 5

var (
	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\+?91\s?\d{5}\s?\d{5})`),
		regexp.MustCompile(`(\d{10})`),
		regexp.MustCompile(`(\+91\d{10})`),
		regexp.MustCompile(`(\d{5}\s?\d{5})`),
	}
	wordRe      = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	phoneStrip  = strings.NewReplacer(" ", "", "+", "", "-", "")
	minTokenLen = 3
)

// Resolver maps free text onto one of the sender identities of a corpus.
type Resolver struct {
	identities []string
	threshold  int
}

// NewResolver creates a resolver over identities, given in first-seen corpus order.
// A threshold of zero or less falls back to DefaultUserMatchThreshold.
func NewResolver(identities []string, threshold int) *Resolver {
	if threshold <= 0 {
		threshold = DefaultUserMatchThreshold
	}
	return &Resolver{identities: identities, threshold: threshold}
}

// Identities returns the candidate identities in enumeration order.
func (r *Resolver) Identities() []string {
	return r.identities
}

// Resolve returns the identity the question refers to.
// Phone numbers are tried first; names are scored only when no phone number matched.
func (r *Resolver) Resolve(question string) (string, bool) {
	if id, ok := r.resolvePhone(question); ok {
		return id, true
	}

	best, bestScore := "", 0
	for _, id := range r.identities {
		score := r.Score(question, id)
		if score > bestScore {
			best, bestScore = id, score
		}
	}
	if bestScore >= r.threshold {
		return best, true
	}
	return "", false
}

func (r *Resolver) resolvePhone(question string) (string, bool) {
	for _, re := range phonePatterns {
		m := re.FindStringSubmatch(question)
		if m == nil {
			continue
		}
		phone := phoneStrip.Replace(m[1])
		for _, id := range r.identities {
			clean := phoneStrip.Replace(id)
			if clean == "" {
				continue
			}
			if strings.Contains(clean, phone) || strings.Contains(phone, clean) {
				return id, true
			}
		}
	}
	return "", false
}

// Score rates how strongly the question points at identity.
// Only the part of the identity before any "+" is treated as the display name,
// and names shorter than two characters never score. Word-level matches only
// consider words of at least three characters on both sides.
func (r *Resolver) Score(question, identity string) int {
	name, _, _ := strings.Cut(identity, "+")
	name = strings.TrimSpace(name)
	if len([]rune(name)) < 2 {
		return 0
	}

	q := strings.ToLower(question)
	n := strings.ToLower(name)
	qWords := wordRe.FindAllString(q, -1)
	nWords := wordRe.FindAllString(n, -1)

	score := 0
	for _, qw := range qWords {
		if len([]rune(qw)) < minTokenLen {
			continue
		}
		for _, nw := range nWords {
			switch {
			case qw == nw:
				score += 10
			case len([]rune(nw)) >= minTokenLen && (strings.Contains(nw, qw) || strings.Contains(qw, nw)):
				score += 5
			}
		}
	}

	if strings.Contains(q, n) {
		score += 8
	} else if anyWord(qWords, func(w string) bool { return strings.Contains(n, w) }) {
		score += 3
	}

	if anyWord(nWords, func(w string) bool { return strings.Contains(q, w) }) {
		score += 2
	}

	if len([]rune(name)) > 5 {
		score++
	}
	return score
}

func anyWord(words []string, pred func(string) bool) bool {
	for _, w := range words {
		if len([]rune(w)) >= minTokenLen && pred(w) {
			return true
		}
	}
	return false
}
