package chatserver

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Config holds server settings. Every field can be overridden from the
// environment.
type Config struct {
	Addr            string        `env:"LIVECHATD_ADDR" validate:"required"`
	DBPath          string        `env:"LIVECHATD_DB_PATH" validate:"required"`
	AllowedOrigins  []string      `env:"LIVECHATD_ALLOWED_ORIGINS" envSeparator:","`
	HistoryDefault  int           `env:"LIVECHATD_HISTORY_DEFAULT" validate:"gte=1"`
	HistoryMax      int           `env:"LIVECHATD_HISTORY_MAX" validate:"gtefield=HistoryDefault,lte=1000"`
	SendBuffer      int           `env:"LIVECHATD_SEND_BUFFER" validate:"gte=1"`
	MaxMessageLen   int           `env:"LIVECHATD_MAX_MESSAGE_LEN" validate:"gte=1"`
	WriteTimeout    time.Duration `env:"LIVECHATD_WRITE_TIMEOUT" validate:"gte=0"`
	ShutdownTimeout time.Duration `env:"LIVECHATD_SHUTDOWN_TIMEOUT" validate:"gte=0"`
}

// DefaultConfig returns the settings used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		DBPath:          "./data/livechat.db",
		AllowedOrigins:  []string{"*"},
		HistoryDefault:  50,
		HistoryMax:      500,
		SendBuffer:      32,
		MaxMessageLen:   2000,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// LoadConfig reads the environment on top of DefaultConfig.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
