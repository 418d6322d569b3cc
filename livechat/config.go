package livechat

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Config controls how the SDK connects.
type Config struct {
	URL          string `env:"LIVECHAT_URL" validate:"required,url"`
	HistoryURL   string `env:"LIVECHAT_HISTORY_URL" validate:"omitempty,url"` // REST base for history, e.g. http://host/api
	HistoryLimit int    `env:"LIVECHAT_HISTORY_LIMIT" validate:"gte=1,lte=500"`

	// ConnectTimeout bounds a single dial. Set to 0 to disable it.
	ConnectTimeout time.Duration `env:"LIVECHAT_CONNECT_TIMEOUT" validate:"gte=0"`
	WriteTimeout   time.Duration `env:"LIVECHAT_WRITE_TIMEOUT" validate:"gte=0"`

	ReconnectBase        time.Duration `env:"LIVECHAT_RECONNECT_BASE" validate:"gt=0"`
	ReconnectCap         time.Duration `env:"LIVECHAT_RECONNECT_CAP" validate:"gtefield=ReconnectBase"`
	MaxReconnectAttempts int           `env:"LIVECHAT_MAX_RECONNECT_ATTEMPTS" validate:"gte=0"` // 0 disables automatic reconnect

	// OutboundBuffer is the per-transport write queue size. Frames that do not
	// fit are dropped.
	OutboundBuffer int `env:"LIVECHAT_OUTBOUND_BUFFER" validate:"gte=1"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		HistoryLimit:         50,
		ConnectTimeout:       10 * time.Second,
		WriteTimeout:         10 * time.Second,
		ReconnectBase:        time.Second,
		ReconnectCap:         30 * time.Second,
		MaxReconnectAttempts: 5,
		OutboundBuffer:       16,
	}
}

// LoadConfig overlays LIVECHAT_* environment variables on DefaultConfig and
// validates the result.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, WrapError(ErrorInvalidConfig, "parse env", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return WrapError(ErrorInvalidConfig, "invalid configuration", err)
	}
	return nil
}

// Policy returns the reconnect policy described by the config.
func (c Config) Policy() ReconnectPolicy {
	return ReconnectPolicy{
		Base:        c.ReconnectBase,
		Cap:         c.ReconnectCap,
		MaxAttempts: c.MaxReconnectAttempts,
	}
}
