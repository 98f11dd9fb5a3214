package query

import (
	"github.com/edgard/chatinsight/internal/transcript"
)

// Result is the computed answer payload of one question.
// Each intent has its own concrete result type; callers switch on the type.
type Result interface {
	Intent() Intent
	isResult()
}

// UserActivity is one row of an activity ranking.
type UserActivity struct {
	User       string  `json:"user"`
	Count      int     `json:"message_count"`
	Percentage float64 `json:"percentage"`
}

// RankingResult answers most, least and top active user questions.
type RankingResult struct {
	Metric Metric         `json:"type"`
	Users  []UserActivity `json:"users"`
	Total  int            `json:"total_messages"`
}

// CountResult answers message count questions.
type CountResult struct {
	Total     int            `json:"total_messages"`
	Users     int            `json:"total_users"`
	Average   float64        `json:"average_messages_per_user"`
	Breakdown map[string]int `json:"user_breakdown"`
}

// StatsResult answers open analytics questions with the full statistics set.
type StatsResult struct {
	Stats Stats `json:"metrics"`
}

// SenderGroup holds the messages of one sender, in corpus order.
// An empty Sender groups system messages.
type SenderGroup struct {
	Sender   string               `json:"sender"`
	Messages []transcript.Message `json:"messages"`
}

// DateMessagesResult answers questions about a specific calendar day.
type DateMessagesResult struct {
	Date      Date          `json:"date"`
	Total     int           `json:"total_messages"`
	Groups    []SenderGroup `json:"groups"`
	TimeRange *TimeRange    `json:"time_range,omitempty"`
}

// UserMessagesResult answers questions about what one participant wrote.
type UserMessagesResult struct {
	User      string               `json:"user"`
	Total     int                  `json:"total_messages"`
	Messages  []transcript.Message `json:"messages"`
	Omitted   int                  `json:"omitted,omitempty"`
	Note      string               `json:"note,omitempty"`
	TimeRange *TimeRange           `json:"time_range,omitempty"`
}

// TimeWindowResult answers questions about a clock-time window.
type TimeWindowResult struct {
	TimeRange TimeRange            `json:"time_range"`
	Total     int                  `json:"total_messages"`
	Messages  []transcript.Message `json:"messages"`
}

// KeywordCount is a keyword together with its number of occurrences.
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// TopicsResult answers questions about what the chat discussed.
type TopicsResult struct {
	Analyzed         int                  `json:"total_messages_analyzed"`
	Topics           []KeywordCount       `json:"main_topics"`
	BusinessKeywords []KeywordCount       `json:"business_keywords"`
	TopKeywords      []KeywordCount       `json:"top_keywords"`
	KeyMessages      []transcript.Message `json:"key_messages"`
	Modeled          []ModeledTopic       `json:"modeled_topics,omitempty"`
}

// SentimentResult answers mood questions. Report is nil when no analyzer was available.
type SentimentResult struct {
	Analyzed int              `json:"total_messages_analyzed"`
	Report   *SentimentReport `json:"report,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// Available reports whether a sentiment report was produced.
func (r SentimentResult) Available() bool {
	return r.Report != nil
}

// GeneralResult answers free-form questions, either by completion or by synthesis.
type GeneralResult struct {
	Question string `json:"question"`
	Context  string `json:"context"`
	Answer   string `json:"answer"`
}

func (RankingResult) Intent() Intent      { return IntentAnalytics }
func (CountResult) Intent() Intent        { return IntentAnalytics }
func (StatsResult) Intent() Intent        { return IntentAnalytics }
func (DateMessagesResult) Intent() Intent { return IntentDateBased }
func (UserMessagesResult) Intent() Intent { return IntentUserMessages }
func (TimeWindowResult) Intent() Intent   { return IntentTimeBased }
func (TopicsResult) Intent() Intent       { return IntentTopics }
func (SentimentResult) Intent() Intent    { return IntentSentiment }
func (GeneralResult) Intent() Intent      { return IntentGeneral }

func (RankingResult) isResult()      {}
func (CountResult) isResult()        {}
func (StatsResult) isResult()        {}
func (DateMessagesResult) isResult() {}
func (UserMessagesResult) isResult() {}
func (TimeWindowResult) isResult()   {}
func (TopicsResult) isResult()       {}
func (SentimentResult) isResult()    {}
func (GeneralResult) isResult()      {}
