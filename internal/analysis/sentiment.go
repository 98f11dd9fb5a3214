package analysis

import (
	"context"
	"math"

	"github.com/edgard/chatinsight/internal/query"
	"github.com/edgard/chatinsight/internal/transcript"
)

// neutralBand is the half-width of the score interval labelled neutral.
const neutralBand = 0.05

var positiveWords = toSet(
	"good", "great", "awesome", "amazing", "excellent", "nice", "love", "loved", "like", "liked",
	"happy", "glad", "thanks", "thank", "thx", "cool", "perfect", "fantastic", "wonderful",
	"congrats", "congratulations", "well", "best", "better", "fun", "enjoy", "enjoyed",
	"agree", "yay", "brilliant", "beautiful", "excited", "success", "successful", "win",
	"helpful", "appreciate", "appreciated", "welcome", "haha", "lol", "sure", "fine",
)

var negativeWords = toSet(
	"bad", "terrible", "awful", "horrible", "hate", "hated", "sad", "angry", "annoyed",
	"annoying", "worst", "worse", "problem", "problems", "issue", "issues", "fail", "failed",
	"failure", "broken", "bug", "wrong", "sorry", "unfortunately", "upset", "disappointed",
	"disappointing", "late", "delay", "delayed", "sick", "tired", "boring", "stupid",
	"useless", "error", "crash", "crashed", "difficult", "hard", "ugh", "sucks", "cancelled",
)

var negators = toSet("not", "no", "never", "don't", "didn't", "isn't", "wasn't", "can't", "won't", "nothing")

// Lexicon is a word-list sentiment analyzer. A message scores
// (positive - negative) / (positive + negative), with a preceding negator
// flipping the polarity of the next sentiment word.
type Lexicon struct{}

var _ query.SentimentAnalyzer = Lexicon{}

func NewLexicon() Lexicon {
	return Lexicon{}
}

// AnalyzeSentiment scores every participant message and averages the scores
// overall and per sender, in first-seen sender order.
func (Lexicon) AnalyzeSentiment(ctx context.Context, messages []transcript.Message) (query.SentimentReport, error) {
	if err := ctx.Err(); err != nil {
		return query.SentimentReport{}, err
	}

	var (
		report query.SentimentReport
		sum    float64
		order  []string
		byUser = make(map[string]*query.UserSentiment)
		scored = usable(messages)
	)
	for _, m := range scored {
		score := Score(m.Body)
		sum += score
		switch {
		case score > neutralBand:
			report.Positive++
		case score < -neutralBand:
			report.Negative++
		default:
			report.Neutral++
		}

		us, ok := byUser[m.Sender]
		if !ok {
			us = &query.UserSentiment{User: m.Sender}
			byUser[m.Sender] = us
			order = append(order, m.Sender)
		}
		us.AverageScore += score
		us.Messages++
	}

	if len(scored) > 0 {
		report.AverageScore = round2(sum / float64(len(scored)))
	}
	report.Overall = Label(report.AverageScore)
	for _, name := range order {
		us := byUser[name]
		us.AverageScore = round2(us.AverageScore / float64(us.Messages))
		report.ByUser = append(report.ByUser, *us)
	}
	return report, nil
}

// Score rates a single message body in [-1, 1].
func Score(body string) float64 {
	var pos, neg int
	negate := false
	for _, tok := range tokens(body) {
		if _, ok := negators[tok]; ok {
			negate = true
			continue
		}
		polarity := 0
		if _, ok := positiveWords[tok]; ok {
			polarity = 1
		} else if _, ok := negativeWords[tok]; ok {
			polarity = -1
		}
		if polarity == 0 {
			continue
		}
		if negate {
			polarity = -polarity
			negate = false
		}
		if polarity > 0 {
			pos++
		} else {
			neg++
		}
	}
	if pos+neg == 0 {
		return 0
	}
	return float64(pos-neg) / float64(pos+neg)
}

// Label names the mood of an average score.
func Label(score float64) string {
	switch {
	case score > neutralBand:
		return "positive"
	case score < -neutralBand:
		return "negative"
	default:
		return "neutral"
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
