// Package config loads the chatinsight configuration from a YAML file and
// CHATINSIGHT_* environment variables, on top of the defaults registered in code.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable override, e.g. CHATINSIGHT_GEMINI_API_KEY.
const EnvPrefix = "CHATINSIGHT"

// Config defines the application configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Query     QueryConfig     `mapstructure:"query"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// GeminiConfig configures the completion backend. An empty APIKey disables it
// and every free-form question is answered from statistics instead.
type GeminiConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	ModelName         string  `mapstructure:"model_name"         validate:"required"`
	Temperature       float32 `mapstructure:"temperature"        validate:"gte=0,lte=2"`
	SystemInstruction string  `mapstructure:"system_instruction"`
}

type TelegramConfig struct {
	Enabled  bool             `mapstructure:"enabled"`
	Token    string           `mapstructure:"token"    validate:"required_if=Enabled true"`
	AdminID  int64            `mapstructure:"admin_id" validate:"required_if=Enabled true"`
	Messages TelegramMessages `mapstructure:"messages"`
}

// TelegramMessages are the canned replies of the bot.
type TelegramMessages struct {
	Welcome         string `mapstructure:"welcome"          validate:"required"`
	Help            string `mapstructure:"help"             validate:"required"`
	NotAuthorized   string `mapstructure:"not_authorized"   validate:"required"`
	ProvideQuestion string `mapstructure:"provide_question" validate:"required"`
	GeneralError    string `mapstructure:"general_error"    validate:"required"`
	NoMessages      string `mapstructure:"no_messages"      validate:"required"`
	ImportDone      string `mapstructure:"import_done"      validate:"required"`
	ImportFailed    string `mapstructure:"import_failed"    validate:"required"`
}

type HTTPConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Addr            string        `mapstructure:"addr"              validate:"required_if=Enabled true"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"      validate:"gte=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"     validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"  validate:"gte=0"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"  validate:"gt=0"`
}

// QueryConfig tunes the question engine.
type QueryConfig struct {
	UserMatchThreshold int           `mapstructure:"user_match_threshold" validate:"gt=0"`
	MaxUserMessages    int           `mapstructure:"max_user_messages"    validate:"gt=0"`
	MaxWindowMessages  int           `mapstructure:"max_window_messages"  validate:"gt=0"`
	MaxContextMessages int           `mapstructure:"max_context_messages" validate:"gt=0"`
	FallbackExamples   int           `mapstructure:"fallback_examples"    validate:"gt=0"`
	ModeledTopics      int           `mapstructure:"modeled_topics"       validate:"gt=0"`
	AITimeout          time.Duration `mapstructure:"ai_timeout"           validate:"gt=0"`
}

// SchedulerConfig holds cron expressions for the background tasks. An empty
// expression disables the task.
type SchedulerConfig struct {
	SQLMaintenance string        `mapstructure:"sql_maintenance"`
	ImportCleanup  string        `mapstructure:"import_cleanup"`
	StaleImportAge time.Duration `mapstructure:"stale_import_age" validate:"gt=0"`
}

// LoadConfig reads the file at path, when given, then applies environment
// overrides and validates the result. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section against its validation tags.
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
