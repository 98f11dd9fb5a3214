// Package analysis provides the in-process sentiment and topic collaborators
// used by the question engine when no external service is configured.
package analysis

import (
	"regexp"
	"strings"

	"github.com/edgard/chatinsight/internal/transcript"
)

// maxMessages caps how many messages a single analysis considers.
const maxMessages = 500

var (
	urlRe     = regexp.MustCompile(`(?:https?://|www\.)\S+`)
	mentionRe = regexp.MustCompile(`@\w+`)
	tokenRe   = regexp.MustCompile(`[a-z]+(?:'[a-z]+)?`)
)

// noisePhrases mark export artifacts that carry no participant text.
var noisePhrases = []string{
	"media omitted",
	"security code",
	"tap to learn",
	"this message was deleted",
	"messages and calls are end-to-end encrypted",
}

var stopWords = toSet(
	"the", "is", "in", "and", "to", "a", "of", "for", "on", "with", "at", "by", "an", "be",
	"this", "that", "it", "as", "are", "was", "from", "or", "but", "not", "have", "has", "had",
	"you", "i", "we", "they", "he", "she", "his", "her", "them", "our", "your", "my", "me",
	"so", "do", "does", "did", "can", "could", "will", "would", "should", "about", "just",
	"if", "then", "than", "too", "very", "all", "any", "some", "no", "yes", "one", "two",
	"up", "down", "out", "over", "under", "again", "more", "most", "such", "only", "own",
	"same", "other", "new", "now", "after", "before", "because", "how", "when", "where",
	"who", "what", "which", "why", "whom", "whose", "been", "being", "into", "during",
	"while", "through", "each", "few", "many", "much", "every", "both", "either", "neither",
	"between", "among", "against", "per", "via", "like", "unlike", "within", "without",
	"across", "toward", "upon", "off", "onto", "beside", "besides", "along", "around",
	"behind", "beyond", "despite", "except", "inside", "outside", "past", "since", "until",
	"there", "here", "their", "also", "its", "get", "got", "let", "lets", "okay", "ok",
)

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// usable drops system messages and export artifacts, keeping at most maxMessages.
func usable(messages []transcript.Message) []transcript.Message {
	var out []transcript.Message
	for _, m := range messages {
		if m.IsSystem() || strings.TrimSpace(m.Body) == "" || isNoise(m.Body) {
			continue
		}
		out = append(out, m)
		if len(out) == maxMessages {
			break
		}
	}
	return out
}

func isNoise(body string) bool {
	lower := strings.ToLower(body)
	for _, p := range noisePhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// tokens lower-cases body and strips links and mentions before splitting it into words.
func tokens(body string) []string {
	text := strings.ToLower(body)
	text = urlRe.ReplaceAllString(text, " ")
	text = mentionRe.ReplaceAllString(text, " ")
	return tokenRe.FindAllString(text, -1)
}
