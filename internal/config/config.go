// Package config loads application configuration from .env, config files and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const defaultJWTSecret = "change-me-in-production"

type Config struct {
	Env            string `mapstructure:"APP_ENV"`
	Port           string `mapstructure:"PORT"`
	DBHost         string `mapstructure:"DB_HOST"`
	DBPort         string `mapstructure:"DB_PORT"`
	DBUser         string `mapstructure:"DB_USER"`
	DBPassword     string `mapstructure:"DB_PASSWORD"`
	DBName         string `mapstructure:"DB_NAME"`
	DBSSLMode      string `mapstructure:"DB_SSLMODE"`
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	KafkaBroker    string `mapstructure:"KAFKA_BROKER"`
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	// LEAVE_WORKING_DAY_POLICY is "calendar" or "business".
	WorkingDayPolicy string `mapstructure:"LEAVE_WORKING_DAY_POLICY"`
	// LEAVE_HOLIDAYS is a comma separated list of YYYY-MM-DD dates.
	Holidays string `mapstructure:"LEAVE_HOLIDAYS"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AutomaticEnv()

	// config.yml is optional, env vars are enough
	_ = v.ReadInConfig()

	setDefaults(v)

	// AutomaticEnv only resolves keys viper already knows about.
	for _, key := range keys() {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "3000")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "leave_portal")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("KAFKA_BROKER", "")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")
	v.SetDefault("LEAVE_WORKING_DAY_POLICY", "calendar")
	v.SetDefault("LEAVE_HOLIDAYS", "")
}

func keys() []string {
	return []string{
		"APP_ENV", "PORT",
		"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
		"REDIS_ADDR", "KAFKA_BROKER", "JWT_SECRET", "ALLOWED_ORIGINS",
		"LEAVE_WORKING_DAY_POLICY", "LEAVE_HOLIDAYS",
	}
}

func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Validate ensures required values are present.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.WorkingDayPolicy {
	case "calendar", "business":
	default:
		return fmt.Errorf("LEAVE_WORKING_DAY_POLICY must be calendar or business, got %q", c.WorkingDayPolicy)
	}

	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.AllowedOrigins == "*" {
			zap.L().Warn("ALLOWED_ORIGINS is '*' in production")
		}
	}
	return nil
}

func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (c *Config) HolidayList() []string {
	var out []string
	for _, h := range strings.Split(c.Holidays, ",") {
		if h = strings.TrimSpace(h); h != "" {
			out = append(out, h)
		}
	}
	return out
}
