package analysis

import (
	"cmp"
	"context"
	"math"
	"slices"

	"github.com/edgard/chatinsight/internal/query"
	"github.com/edgard/chatinsight/internal/transcript"
)

const (
	maxFeatures   = 500
	minTermLength = 3
	relatedTerms  = 4
)

// TFIDF models topics as the highest scoring TF-IDF terms of the corpus.
// Each topic is labelled by its anchor term and lists the terms that most
// often share a message with it.
type TFIDF struct{}

var _ query.TopicModeler = TFIDF{}

func NewTFIDF() TFIDF {
	return TFIDF{}
}

type termScore struct {
	term  string
	score float64
}

// ModelTopics returns at most n topics ordered by weight.
func (TFIDF) ModelTopics(ctx context.Context, messages []transcript.Message, n int) ([]query.ModeledTopic, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}

	docs := documents(usable(messages))
	if len(docs) == 0 {
		return nil, nil
	}
	vocab := vocabulary(docs)
	weights := weigh(docs, vocab)

	totals := make(map[string]float64)
	for _, w := range weights {
		for term, v := range w {
			totals[term] += v
		}
	}
	ranked := rank(totals)

	var topics []query.ModeledTopic
	for _, anchor := range ranked {
		if len(topics) == n {
			break
		}
		topics = append(topics, query.ModeledTopic{
			Label:  anchor.term,
			Terms:  append([]string{anchor.term}, related(anchor.term, weights)...),
			Weight: round2(anchor.score),
		})
	}
	return topics, nil
}

func documents(messages []transcript.Message) [][]string {
	var docs [][]string
	for _, m := range messages {
		var doc []string
		for _, tok := range tokens(m.Body) {
			if len([]rune(tok)) < minTermLength {
				continue
			}
			if _, stop := stopWords[tok]; stop {
				continue
			}
			doc = append(doc, tok)
		}
		if len(doc) > 0 {
			docs = append(docs, doc)
		}
	}
	return docs
}

// vocabulary keeps the maxFeatures most frequent terms.
func vocabulary(docs [][]string) map[string]struct{} {
	freq := make(map[string]float64)
	for _, doc := range docs {
		for _, tok := range doc {
			freq[tok]++
		}
	}
	vocab := make(map[string]struct{})
	for i, ts := range rank(freq) {
		if i == maxFeatures {
			break
		}
		vocab[ts.term] = struct{}{}
	}
	return vocab
}

// weigh computes L2-normalized TF-IDF vectors with smoothed IDF.
func weigh(docs [][]string, vocab map[string]struct{}) []map[string]float64 {
	df := make(map[string]int)
	counts := make([]map[string]int, len(docs))
	for i, doc := range docs {
		counts[i] = make(map[string]int)
		for _, tok := range doc {
			if _, ok := vocab[tok]; !ok {
				continue
			}
			if counts[i][tok] == 0 {
				df[tok]++
			}
			counts[i][tok]++
		}
	}

	n := float64(len(docs))
	out := make([]map[string]float64, 0, len(docs))
	for _, c := range counts {
		if len(c) == 0 {
			continue
		}
		vec := make(map[string]float64, len(c))
		var norm float64
		for term, tf := range c {
			idf := math.Log((1+n)/(1+float64(df[term]))) + 1
			v := float64(tf) * idf
			vec[term] = v
			norm += v * v
		}
		norm = math.Sqrt(norm)
		for term := range vec {
			vec[term] /= norm
		}
		out = append(out, vec)
	}
	return out
}

func related(anchor string, weights []map[string]float64) []string {
	totals := make(map[string]float64)
	for _, vec := range weights {
		if _, ok := vec[anchor]; !ok {
			continue
		}
		for term, v := range vec {
			if term != anchor {
				totals[term] += v
			}
		}
	}
	var out []string
	for _, ts := range rank(totals) {
		if len(out) == relatedTerms {
			break
		}
		out = append(out, ts.term)
	}
	return out
}

// rank orders terms by score descending, then alphabetically.
func rank(scores map[string]float64) []termScore {
	out := make([]termScore, 0, len(scores))
	for term, s := range scores {
		out = append(out, termScore{term: term, score: s})
	}
	slices.SortFunc(out, func(a, b termScore) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return cmp.Compare(a.term, b.term)
	})
	return out
}
