package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"financeapi.app/errors"
)

const (
	maxPortNumber   = 65535
	maxRedisDB      = 15
	maxListPages    = 10
	minBcryptCost   = 4
	maxBcryptCost   = 31
	maxSessionHours = 24 * 90
)

// Config represents the application configuration structure
type Config struct {
	Server    ServerConfig    `split_words:"true"`
	Database  DatabaseConfig  `split_words:"true"`
	Cache     CacheConfig     `split_words:"true"`
	Auth      AuthConfig      `split_words:"true"`
	RateLimit RateLimitConfig `split_words:"true"`
	Scheduler SchedulerConfig `split_words:"true"`
	LogLevel  string          `envconfig:"LOG_LEVEL" default:"info"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port int `envconfig:"SERVER_PORT" default:"8080"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name     string `envconfig:"DB_NAME" default:"financeapi"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
}

// GetDSN returns a formatted database connection string
func (c DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// RedisConfig contains connection settings for the cache store
type RedisConfig struct {
	Addr         string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password     string `envconfig:"REDIS_PASSWORD" default:""`
	DB           int    `envconfig:"REDIS_DB" default:"0"`
	DialTimeout  int    `envconfig:"REDIS_DIAL_TIMEOUT" default:"5"`
	ReadTimeout  int    `envconfig:"REDIS_READ_TIMEOUT" default:"3"`
	WriteTimeout int    `envconfig:"REDIS_WRITE_TIMEOUT" default:"3"`
}

// CacheConfig contains settings for the caching layer
type CacheConfig struct {
	Redis           RedisConfig `split_words:"true"`
	OpTimeoutMS     int         `envconfig:"CACHE_OP_TIMEOUT_MS" default:"250"`
	PingInterval    int         `envconfig:"CACHE_PING_INTERVAL_SECONDS" default:"15"`
	WarmConcurrency int         `envconfig:"CACHE_WARM_CONCURRENCY" default:"4"`
	ListPages       int         `envconfig:"CACHE_LIST_PAGES" default:"3"`
}

// AuthConfig contains session and credential settings
type AuthConfig struct {
	SessionTTLHours int      `envconfig:"AUTH_SESSION_TTL_HOURS" default:"72"`
	BcryptCost      int      `envconfig:"AUTH_BCRYPT_COST" default:"10"`
	AdminEmails     []string `envconfig:"AUTH_ADMIN_EMAILS" default:""`
}

// IsAdminEmail reports whether the given email is configured as an administrator
func (a AuthConfig) IsAdminEmail(email string) bool {
	for _, admin := range a.AdminEmails {
		if strings.EqualFold(strings.TrimSpace(admin), email) {
			return true
		}
	}
	return false
}

// RateLimitConfig contains request throttling settings
type RateLimitConfig struct {
	Enabled bool    `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	RPS     float64 `envconfig:"RATE_LIMIT_RPS" default:"10"`
	Burst   int     `envconfig:"RATE_LIMIT_BURST" default:"20"`
}

// SchedulerConfig contains background job intervals, in minutes
type SchedulerConfig struct {
	SessionCleanupInterval int `envconfig:"SCHEDULER_SESSION_CLEANUP_MINUTES" default:"60"`
	CategoriesWarmInterval int `envconfig:"SCHEDULER_CATEGORIES_WARM_MINUTES" default:"300"`
}

// LoadConfig loads and validates application configuration from environment variables
func LoadConfig() (*Config, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, errors.NewConfigurationError("error processing config", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.RateLimit.Validate(); err != nil {
		return err
	}
	if err := c.Scheduler.Validate(); err != nil {
		return err
	}
	return nil
}

// Validate checks server configuration
func (s *ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > maxPortNumber {
		return errors.NewConfigurationError("SERVER_PORT must be between 1 and 65535", nil)
	}
	return nil
}

// ValidateSSLMode validates the SSL mode configuration
func (d *DatabaseConfig) ValidateSSLMode() error {
	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	for _, mode := range validSSLModes {
		if d.SSLMode == mode {
			return nil
		}
	}
	return errors.NewConfigurationError(
		fmt.Sprintf("DB_SSL_MODE must be one of: %s", strings.Join(validSSLModes, ", ")), nil)
}

// Validate checks database configuration
func (d *DatabaseConfig) Validate() error {
	if d.Host == "" {
		return errors.NewConfigurationError("DB_HOST cannot be empty", nil)
	}
	if d.Port < 1 || d.Port > maxPortNumber {
		return errors.NewConfigurationError("DB_PORT must be between 1 and 65535", nil)
	}
	if d.User == "" {
		return errors.NewConfigurationError("DB_USER cannot be empty", nil)
	}
	if d.Name == "" {
		return errors.NewConfigurationError("DB_NAME cannot be empty", nil)
	}
	if err := d.ValidateSSLMode(); err != nil {
		return err
	}
	return nil
}

// Validate checks cache configuration
func (c *CacheConfig) Validate() error {
	if c.Redis.Addr == "" {
		return errors.NewConfigurationError("REDIS_ADDR cannot be empty", nil)
	}
	if c.Redis.DB < 0 || c.Redis.DB > maxRedisDB {
		return errors.NewConfigurationError("REDIS_DB must be between 0 and 15", nil)
	}
	if c.Redis.DialTimeout < 1 || c.Redis.ReadTimeout < 1 || c.Redis.WriteTimeout < 1 {
		return errors.NewConfigurationError("redis timeouts must be at least 1 second", nil)
	}
	if c.OpTimeoutMS < 1 {
		return errors.NewConfigurationError("CACHE_OP_TIMEOUT_MS must be positive", nil)
	}
	if c.PingInterval < 1 {
		return errors.NewConfigurationError("CACHE_PING_INTERVAL_SECONDS must be positive", nil)
	}
	if c.WarmConcurrency < 1 {
		return errors.NewConfigurationError("CACHE_WARM_CONCURRENCY must be positive", nil)
	}
	if c.ListPages < 1 || c.ListPages > maxListPages {
		return errors.NewConfigurationError("CACHE_LIST_PAGES must be between 1 and 10", nil)
	}
	return nil
}

// Validate checks auth configuration
func (a *AuthConfig) Validate() error {
	if a.SessionTTLHours < 1 || a.SessionTTLHours > maxSessionHours {
		return errors.NewConfigurationError("AUTH_SESSION_TTL_HOURS must be between 1 and 2160", nil)
	}
	if a.BcryptCost < minBcryptCost || a.BcryptCost > maxBcryptCost {
		return errors.NewConfigurationError("AUTH_BCRYPT_COST must be between 4 and 31", nil)
	}
	return nil
}

// Validate checks rate limit configuration
func (r *RateLimitConfig) Validate() error {
	if !r.Enabled {
		return nil
	}
	if r.RPS <= 0 {
		return errors.NewConfigurationError("RATE_LIMIT_RPS must be positive", nil)
	}
	if r.Burst < 1 {
		return errors.NewConfigurationError("RATE_LIMIT_BURST must be at least 1", nil)
	}
	return nil
}

// Validate checks scheduler configuration
func (s *SchedulerConfig) Validate() error {
	if s.SessionCleanupInterval < 1 {
		return errors.NewConfigurationError("SCHEDULER_SESSION_CLEANUP_MINUTES must be positive", nil)
	}
	if s.CategoriesWarmInterval < 1 {
		return errors.NewConfigurationError("SCHEDULER_CATEGORIES_WARM_MINUTES must be positive", nil)
	}
	return nil
}
