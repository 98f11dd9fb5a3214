package query

// Intent is the category a question is classified into.
type Intent string

const (
	IntentDateBased    Intent = "date_based"
	IntentUserMessages Intent = "user_messages"
	IntentTopics       Intent = "topics"
	IntentAnalytics    Intent = "analytics"
	IntentTimeBased    Intent = "time_based"
	IntentSentiment    Intent = "sentiment"
	IntentGeneral      Intent = "general"
)

// Metric selects the computation behind an analytics question.
type Metric string

const (
	MetricMostActive   Metric = "most_active_users"
	MetricLeastActive  Metric = "least_active_users"
	MetricTopUsers     Metric = "top_users"
	MetricMessageCount Metric = "message_count"
	MetricGeneral      Metric = "general_analytics"
)

// Params holds everything extracted from the question text.
// Which fields are set depends on the intent.
type Params struct {
	Date      *DateSpec  `json:"date,omitempty"`
	User      string     `json:"user,omitempty"`
	Metric    Metric     `json:"metric,omitempty"`
	TimeRange *TimeRange `json:"time_range,omitempty"`
}

// Classification is the outcome of classifying one question.
type Classification struct {
	Intent   Intent `json:"intent"`
	Params   Params `json:"parameters"`
	Question string `json:"original_question"`
}
