package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the bot settings read from the environment.
type Config struct {
	TelegramToken  string `env:"TELEGRAM_BOT_TOKEN,required,notEmpty"`
	Debug          bool   `env:"BOT_DEBUG" envDefault:"false"`
	UpdateTimeout  int    `env:"UPDATE_TIMEOUT" envDefault:"60"`
	QuestionsFile  string `env:"QUESTIONS_FILE" envDefault:"questions.txt"`
	ShuffleOptions bool   `env:"SHUFFLE_OPTIONS" envDefault:"false"`

	SheetsCredentialsPath string        `env:"GOOGLE_SHEETS_CREDENTIALS_PATH"`
	ProfessionsSheetID    string        `env:"PROFESSIONS_SHEET_ID"`
	ResultsSheetID        string        `env:"RESULTS_SHEET_ID"`
	ResultsWorksheet      string        `env:"RESULTS_WORKSHEET" envDefault:"Results"`
	ProfessionsCacheTTL   time.Duration `env:"PROFESSIONS_CACHE_TTL" envDefault:"10m"`

	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"720h"`
}

// SheetsEnabled reports whether a service account key is configured.
func (c *Config) SheetsEnabled() bool {
	return c.SheetsCredentialsPath != ""
}

// LoadConfig reads the configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
