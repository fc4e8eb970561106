package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// ConfigFileEnv names the environment variable pointing at an optional config file.
const ConfigFileEnv = "CASHBOOK_CONFIG"

// PlaceholderJWTSecret is the value local setups copy around. It is refused
// in production.
const PlaceholderJWTSecret = "change-me"

var (
	// ErrMissingJWTSecret is returned when no session signing secret is configured.
	ErrMissingJWTSecret = errors.New("JWT_SECRET is required")
	// ErrPlaceholderJWTSecret is returned when production runs with the placeholder secret.
	ErrPlaceholderJWTSecret = errors.New("JWT_SECRET must not be the development placeholder in production")
)

// Config holds application level configuration loaded from environment variables
// and, when CASHBOOK_CONFIG is set, a config file.
type Config struct {
	ServerPort   string `mapstructure:"port"`
	AppEnv       string `mapstructure:"app_env"`
	StoreDriver  string `mapstructure:"store_driver"`
	StoreDSN     string `mapstructure:"store_dsn"`
	DBName       string `mapstructure:"db_name"`
	RedisAddr    string `mapstructure:"redis_addr"`
	RedisDB      int    `mapstructure:"redis_db"`
	RedisPass    string `mapstructure:"redis_password"`
	JWTSecret    string `mapstructure:"jwt_secret"`
	ClientOrigin string `mapstructure:"client_origin"`
	SwaggerHost  string `mapstructure:"swagger_host"`
	BcryptCost   int    `mapstructure:"bcrypt_cost"`
	LogLevel     string `mapstructure:"log_level"`
	LogFormat    string `mapstructure:"log_format"`
}

var defaults = map[string]any{
	"port":           "5000",
	"app_env":        "development",
	"store_driver":   "mysql",
	"store_dsn":      "user:password@tcp(localhost:3306)/cashbook?charset=utf8mb4&parseTime=True&loc=UTC",
	"db_name":        "",
	"redis_addr":     "localhost:6379",
	"redis_db":       0,
	"redis_password": "",
	"jwt_secret":     "",
	"client_origin":  "http://localhost:5173",
	"swagger_host":   "",
	"bcrypt_cost":    10,
	"log_level":      "info",
	"log_format":     "text",
}

// Load builds Config from the environment. The signing secret has no default
// and production refuses the placeholder.
func Load() (*Config, error) {
	c, err := LoadStore()
	if err != nil {
		return nil, err
	}
	if c.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}
	if c.IsProduction() && c.JWTSecret == PlaceholderJWTSecret {
		return nil, ErrPlaceholderJWTSecret
	}
	return c, nil
}

// LoadStore builds Config for tools that only touch the store and never
// sign sessions.
func LoadStore() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv(ConfigFileEnv); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// IsProduction reports whether cookies must be Secure and SameSite=Strict.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}
