// Package config loads service configuration from an optional YAML file with
// environment-variable overrides.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type App struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type Server struct {
	// Addr serves the operational endpoints only (/healthz, /readyz,
	// /metrics); business routing lives in the gateway.
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
}

type DB struct {
	DSN          string        `mapstructure:"dsn"`
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
}

type Redis struct {
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	OpTimeout time.Duration `mapstructure:"op_timeout"`
}

type JWT struct {
	Secret     string        `mapstructure:"secret"`
	Issuer     string        `mapstructure:"issuer"`
	AccessTTL  time.Duration `mapstructure:"access_ttl"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
}

type Password struct {
	MinLength       int  `mapstructure:"min_length"`
	RequireLetter   bool `mapstructure:"require_letter"`
	RequireDigit    bool `mapstructure:"require_digit"`
	RequireSpecial  bool `mapstructure:"require_special"`
	BcryptCost      int  `mapstructure:"bcrypt_cost"`
	HashConcurrency int  `mapstructure:"hash_concurrency"`
}

type RateLimit struct {
	LoginLimit     int           `mapstructure:"login_limit"`
	LoginWindow    time.Duration `mapstructure:"login_window"`
	RegisterLimit  int           `mapstructure:"register_limit"`
	RegisterWindow time.Duration `mapstructure:"register_window"`
}

type Mail struct {
	ResendAPIKey string `mapstructure:"resend_api_key"`
	From         string `mapstructure:"from"`
}

type Config struct {
	App       App       `mapstructure:"app"`
	Log       Log       `mapstructure:"log"`
	Server    Server    `mapstructure:"server"`
	DB        DB        `mapstructure:"db"`
	Redis     Redis     `mapstructure:"redis"`
	JWT       JWT       `mapstructure:"jwt"`
	Password  Password  `mapstructure:"password"`
	RateLimit RateLimit `mapstructure:"rate_limit"`
	Mail      Mail      `mapstructure:"mail"`
}

// Load reads the file at path (optional) and applies env overrides, e.g.
// JWT_SECRET overrides jwt.secret.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		_ = v.ReadInConfig()
	}

	v.SetDefault("app.name", "userd")
	v.SetDefault("app.env", "dev")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("server.addr", ":8084")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.graceful_timeout", "10s")

	v.SetDefault("db.dsn", "")
	v.SetDefault("db.query_timeout", "3s")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.op_timeout", "3s")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "forgeml-userd")
	v.SetDefault("jwt.access_ttl", "30m")
	v.SetDefault("jwt.refresh_ttl", "168h")

	v.SetDefault("password.min_length", 8)
	v.SetDefault("password.require_letter", true)
	v.SetDefault("password.require_digit", true)
	v.SetDefault("password.require_special", false)
	v.SetDefault("password.bcrypt_cost", 12)
	v.SetDefault("password.hash_concurrency", 8)

	v.SetDefault("rate_limit.login_limit", 5)
	v.SetDefault("rate_limit.login_window", "1m")
	v.SetDefault("rate_limit.register_limit", 3)
	v.SetDefault("rate_limit.register_window", "1h")

	v.SetDefault("mail.resend_api_key", "")
	v.SetDefault("mail.from", "noreply@forgeml.dev")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.JWT.Secret == "" {
		return nil, errors.New("config: jwt secret is required")
	}
	if cfg.DB.DSN == "" {
		return nil, errors.New("config: db dsn is required")
	}
	return &cfg, nil
}
