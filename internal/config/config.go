package config

import "github.com/kelseyhightower/envconfig"

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken    string `envconfig:"BOT_TOKEN" required:"true"`
	TokenSecret string `envconfig:"TOKEN_SECRET" required:"true"` // HMAC secret for magic-link/session tokens
	DBPath      string `envconfig:"DB_PATH" default:"./data/towel.db"`
	StoreMode   string `envconfig:"STORE_MODE" default:"sqlite"` // sqlite|memory
	BaseURL     string `envconfig:"BASE_URL" default:"http://localhost:8080"`
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`
	DefaultTZ   string `envconfig:"DEFAULT_TZ" default:"Europe/Moscow"`
	NotifyHour  int    `envconfig:"DEFAULT_NOTIFY_HOUR" default:"9"` // 0..23, local to user's TZ
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`        // debug|info|warn|error
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
