package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	ParserDateparser = "dateparser"
	ParserOpenAI     = "openai"
)

type Config struct {
	DatabaseDriver string `envconfig:"DATABASE_DRIVER" default:"sqlite"`
	DatabaseURI    string `envconfig:"DATABASE_URI"`
	SQLitePath     string `envconfig:"SQLITE_PATH" default:"data/remindme.db"`

	TelegramToken string `envconfig:"TELEGRAM_TOKEN"`
	// BotOwner is the handle named in the help text and crash replies.
	BotOwner    string `envconfig:"BOT_OWNER" default:"remindme_owner"`
	DebugChatID string `envconfig:"DEBUG_CHAT_ID"`

	DateParser string `envconfig:"DATE_PARSER" default:"dateparser"`
	AIAPIKey   string `envconfig:"AI_API_KEY"`
	AIBaseURL  string `envconfig:"AI_BASE_URL" default:"https://openrouter.ai/api/v1"`
	AIModel    string `envconfig:"AI_MODEL" default:"openai/gpt-4o-mini"`

	// RedisURL switches per-conversation locking to Redis when set.
	RedisURL string `envconfig:"REDIS_URL"`

	DeliveryErrorLimit int           `envconfig:"DELIVERY_ERROR_LIMIT" default:"10"`
	DeliveryBatchSize  int           `envconfig:"DELIVERY_BATCH_SIZE" default:"100"`
	PollInterval       time.Duration `envconfig:"POLL_INTERVAL" default:"1s"`
	VacuumSchedule     string        `envconfig:"VACUUM_SCHEDULE" default:"@every 1m"`
	SendRetries        int           `envconfig:"SEND_RETRIES" default:"3"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads path into the environment, then builds the Config from the
// environment. A missing file is only an error when required is set.
func Load(path string, required bool) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			if required || !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to load %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	return &cfg, nil
}

// Validate reports every missing or malformed setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.TelegramToken == "" {
		errs = append(errs, errors.New("TELEGRAM_TOKEN is required"))
	}

	switch c.DatabaseDriver {
	case DriverPostgres:
		if c.DatabaseURI == "" {
			errs = append(errs, errors.New("DATABASE_URI is required for the postgres driver"))
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported DATABASE_DRIVER: %s", c.DatabaseDriver))
	}

	switch c.DateParser {
	case ParserDateparser:
	case ParserOpenAI:
		if c.AIAPIKey == "" {
			errs = append(errs, errors.New("AI_API_KEY is required for the openai date parser"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported DATE_PARSER: %s", c.DateParser))
	}

	if c.DeliveryErrorLimit < 0 {
		errs = append(errs, errors.New("DELIVERY_ERROR_LIMIT must not be negative"))
	}
	if c.DeliveryBatchSize <= 0 {
		errs = append(errs, errors.New("DELIVERY_BATCH_SIZE must be positive"))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, errors.New("POLL_INTERVAL must be positive"))
	}
	if c.SendRetries < 0 {
		errs = append(errs, errors.New("SEND_RETRIES must not be negative"))
	}
	if _, err := cron.ParseStandard(c.VacuumSchedule); err != nil {
		errs = append(errs, fmt.Errorf("invalid VACUUM_SCHEDULE: %w", err))
	}

	return errors.Join(errs...)
}
