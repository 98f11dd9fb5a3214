package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultLogLevel     = "info"
	DefaultDatabasePath = "chatinsight.db"
	DefaultGeminiModel  = "gemini-2.0-flash"
	DefaultHTTPAddr     = ":8080"
)

// DefaultMessages are the bot replies used when the config file sets none.
var DefaultMessages = TelegramMessages{
	Welcome: "I record this group's messages and answer questions about them. Use /ask followed by your question.",
	Help: "Commands:\n" +
		"/ask <question> - ask about this chat, e.g. /ask who is most active?\n" +
		"/stats - activity statistics for this chat\n" +
		"/help - this message\n" +
		"Send a WhatsApp .txt export as a document to import it (admin only).",
	NotAuthorized:   "You are not authorized to use this command.",
	ProvideQuestion: "Please provide a question, e.g. /ask what did we discuss yesterday?",
	GeneralError:    "An error occurred. Please try again later.",
	NoMessages:      "I haven't recorded any messages in this chat yet.",
	ImportDone:      "Imported %d messages into group %q.",
	ImportFailed:    "Could not import that file. Is it a WhatsApp chat export?",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", false)

	v.SetDefault("database.path", DefaultDatabasePath)

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", DefaultGeminiModel)
	v.SetDefault("gemini.temperature", 0.3)
	v.SetDefault("gemini.system_instruction", "")

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_id", 0)
	v.SetDefault("telegram.messages.welcome", DefaultMessages.Welcome)
	v.SetDefault("telegram.messages.help", DefaultMessages.Help)
	v.SetDefault("telegram.messages.not_authorized", DefaultMessages.NotAuthorized)
	v.SetDefault("telegram.messages.provide_question", DefaultMessages.ProvideQuestion)
	v.SetDefault("telegram.messages.general_error", DefaultMessages.GeneralError)
	v.SetDefault("telegram.messages.no_messages", DefaultMessages.NoMessages)
	v.SetDefault("telegram.messages.import_done", DefaultMessages.ImportDone)
	v.SetDefault("telegram.messages.import_failed", DefaultMessages.ImportFailed)

	v.SetDefault("http.enabled", true)
	v.SetDefault("http.addr", DefaultHTTPAddr)
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 60*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("http.max_upload_bytes", 32<<20)

	v.SetDefault("query.user_match_threshold", 5)
	v.SetDefault("query.max_user_messages", 100)
	v.SetDefault("query.max_window_messages", 20)
	v.SetDefault("query.max_context_messages", 100)
	v.SetDefault("query.fallback_examples", 5)
	v.SetDefault("query.modeled_topics", 5)
	v.SetDefault("query.ai_timeout", 30*time.Second)

	v.SetDefault("scheduler.sql_maintenance", "0 3 * * *")
	v.SetDefault("scheduler.import_cleanup", "30 * * * *")
	v.SetDefault("scheduler.stale_import_age", time.Hour)
}
