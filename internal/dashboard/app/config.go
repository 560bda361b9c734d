package app

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the process-wide configuration, loaded from an optional
// YAML file with environment overrides. It is threaded explicitly into
// the components that need it; nothing reads it from ambient state.
type Config struct {
	Host    string `yaml:"host" env:"NODECG_HOST" env-default:"0.0.0.0"`
	Port    int    `yaml:"port" env:"NODECG_PORT" env-default:"9090"`
	BaseURL string `yaml:"baseURL" env:"NODECG_BASE_URL" env-default:"localhost:9090"`

	SSL      SSLConfig      `yaml:"ssl"`
	Login    LoginConfig    `yaml:"login"`
	Database DatabaseConfig `yaml:"database"`
	Sessions SessionsConfig `yaml:"sessions"`
	Logging  LoggingConfig  `yaml:"logging"`

	ShutdownGracePeriod time.Duration `yaml:"shutdownGracePeriod" env:"NODECG_SHUTDOWN_GRACE_PERIOD" env-default:"10s"`
}

type SSLConfig struct {
	Enabled     bool   `yaml:"enabled" env:"NODECG_SSL_ENABLED" env-default:"false"`
	Certificate string `yaml:"certificate" env:"NODECG_SSL_CERTIFICATE"`
	Key         string `yaml:"key" env:"NODECG_SSL_KEY"`
}

type LoginConfig struct {
	Enabled bool           `yaml:"enabled" env:"NODECG_LOGIN_ENABLED" env-default:"false"`
	Twitch  ProviderConfig `yaml:"twitch"`
	Steam   ProviderConfig `yaml:"steam"`
	Discord ProviderConfig `yaml:"discord"`
}

type ProviderConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ProviderEnabled reports whether the named provider is enabled. Any
// provider the configuration does not know is disabled.
func (c LoginConfig) ProviderEnabled(name string) bool {
	switch name {
	case "twitch":
		return c.Twitch.Enabled
	case "steam":
		return c.Steam.Enabled
	case "discord":
		return c.Discord.Enabled
	default:
		return false
	}
}

type DatabaseConfig struct {
	File string `yaml:"file" env:"NODECG_DATABASE_FILE" env-default:"nodecg.db"`
}

type SessionsConfig struct {
	// Backend selects where session rows live: "sqlite" keeps them in
	// the primary database, "redis" moves them to a Redis server.
	Backend   string `yaml:"backend" env:"NODECG_SESSIONS_BACKEND" env-default:"sqlite"`
	RedisAddr string `yaml:"redisAddr" env:"NODECG_SESSIONS_REDIS_ADDR" env-default:"localhost:6379"`

	CheckExpirationInterval time.Duration `yaml:"checkExpirationInterval" env:"NODECG_SESSIONS_CHECK_EXPIRATION_INTERVAL" env-default:"15m"`
	Expiration              time.Duration `yaml:"expiration" env:"NODECG_SESSIONS_EXPIRATION" env-default:"24h"`
}

type LoggingConfig struct {
	Env    string `yaml:"env" env:"NODECG_ENV" env-default:"dev"`
	Level  string `yaml:"level" env:"NODECG_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"NODECG_LOG_FORMAT" env-default:"json"`
}

// LoadConfig reads configuration from the file named by the -config
// flag or NODECG_CONFIG, falling back to environment variables alone
// when no file is given.
func LoadConfig() (Config, error) {
	var cfg Config

	path := fetchConfigPath()
	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, err
		}
		return cfg, nil
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to the config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("NODECG_CONFIG")
	}
	return res
}
