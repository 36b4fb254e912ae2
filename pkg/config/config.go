package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Parser   ParserConfig
	Auth     AuthConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	HTTPPort    int           `mapstructure:"http_port"`
	MetricsPort int           `mapstructure:"metrics_port"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	SSLMode      string `mapstructure:"ssl_mode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Addresses []string `mapstructure:"addresses"`
	Password  string   `mapstructure:"password"`
	DB        int      `mapstructure:"db"`
	PoolSize  int      `mapstructure:"pool_size"`
}

// ParserConfig points at the downstream log-parsing service. The notifier is
// disabled when BaseURL is empty; ingestion keeps working either way.
type ParserConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	NotifyTimeout time.Duration `mapstructure:"notify_timeout"`
	SimulateDelay time.Duration `mapstructure:"simulate_delay"`
	AutoSimulate  bool          `mapstructure:"auto_simulate"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/logcollector/")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("LOGCOLLECTOR")
	viper.AutomaticEnv()

	viper.SetDefault("server.http_port", 3344)
	viper.SetDefault("server.metrics_port", 9091)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.pool_size", 100)
	viper.SetDefault("parser.base_url", "")
	viper.SetDefault("parser.notify_timeout", "5s")
	viper.SetDefault("parser.simulate_delay", "2s")
	viper.SetDefault("parser.auto_simulate", false)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Warnings reports configuration gaps that degrade the service without
// preventing startup.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.Database.Database == "" {
		warnings = append(warnings, "database.database is not set")
	}
	if c.Parser.BaseURL == "" {
		warnings = append(warnings, "parser.base_url is not set; downstream parse triggering is disabled")
	}
	if c.Auth.JWTSecret == "" {
		warnings = append(warnings, "auth.jwt_secret is not set; protected routes will reject all tokens")
	}
	return warnings
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
