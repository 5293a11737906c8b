package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type StoreConfig struct {
	// Driver is badger, sqlite or memory (badger without disk).
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

type ChatConfig struct {
	RateLimit    int           `mapstructure:"rate_limit"`
	RateInterval time.Duration `mapstructure:"rate_interval"`
	LogQueue     int           `mapstructure:"log_queue"`
}

type ICEServer struct {
	URLs       []string `mapstructure:"urls"`
	Username   string   `mapstructure:"username"`
	Credential string   `mapstructure:"credential"`
}

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	PongWait   time.Duration `mapstructure:"pong_wait"`
	SendBuffer int           `mapstructure:"send_buffer"`
	Secret     string        `mapstructure:"secret"`
	LogLevel   string        `mapstructure:"log_level"`
	Store      StoreConfig   `mapstructure:"store"`
	Chat       ChatConfig    `mapstructure:"chat"`
	ICEServers []ICEServer   `mapstructure:"ice_servers"`
}

var (
	ErrPongWait    = errors.New("pong_wait must be longer than ping_period")
	ErrStoreDriver = errors.New("unknown store driver")
)

// Load reads config/config.<CONFIG_ENV>.yaml. A .env file in the working
// directory, if present, is applied to the environment first.
func Load() (*Config, error) {
	_ = godotenv.Load()
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

// LoadFile reads fileName over the defaults. A missing file is not an
// error. STREAM_* environment variables override both, with "." in a key
// written as "_" (STREAM_STORE_DRIVER).
func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)

	v.SetEnvPrefix("STREAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("secret", "change-me")
	v.SetDefault("log_level", "info")
	v.SetDefault("store.driver", "badger")
	v.SetDefault("store.path", "./data")
	v.SetDefault("chat.rate_limit", 5)
	v.SetDefault("chat.rate_interval", "1s")
	v.SetDefault("chat.log_queue", 256)
	v.SetDefault("ice_servers", []map[string]any{
		{"urls": []string{"stun:stun.l.google.com:19302"}},
	})

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log.Info().
		Str("module", "config").
		Str("mode", cfg.Mode).
		Int("port", cfg.Port).
		Str("store", cfg.Store.Driver).
		Msg("config ready")
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.PongWait <= c.PingPeriod {
		return fmt.Errorf("%w: %s <= %s", ErrPongWait, c.PongWait, c.PingPeriod)
	}
	switch c.Store.Driver {
	case "badger", "sqlite", "memory":
	default:
		return fmt.Errorf("%w: %q", ErrStoreDriver, c.Store.Driver)
	}
	return nil
}
