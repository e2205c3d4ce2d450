package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultAppName  = "Todo Manager"
	DefaultMaxTodos = 100
)

type Config struct {
	App       AppConfig       `toml:"app" json:"app"`
	Server    ServerConfig    `toml:"server" json:"server"`
	Database  DatabaseConfig  `toml:"database" json:"database"`
	Redis     RedisConfig     `toml:"redis" json:"redis"`
	RateLimit RateLimitConfig `toml:"rate_limit" json:"rate_limit"`
	CORS      CORSConfig      `toml:"cors" json:"cors"`
	Log       LogConfig       `toml:"log" json:"log"`
}

type AppConfig struct {
	Name        string `toml:"name" json:"name"`
	MaxTodos    int    `toml:"max_todos" json:"max_todos"`
	Environment string `toml:"environment" json:"environment"`
}

type ServerConfig struct {
	Host            string        `toml:"host" json:"host"`
	Port            string        `toml:"port" json:"port"`
	ReadTimeout     time.Duration `toml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout" json:"write_timeout"`
	IdleTimeout     time.Duration `toml:"idle_timeout" json:"idle_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" json:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `toml:"url" json:"-"`
	Name            string        `toml:"name" json:"name"`
	MaxOpenConns    int           `toml:"max_open_conns" json:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns" json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime" json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `toml:"conn_max_idle_time" json:"conn_max_idle_time"`
	ConnectTimeout  time.Duration `toml:"connect_timeout" json:"connect_timeout"`
	AutoMigrate     bool          `toml:"auto_migrate" json:"auto_migrate"`
}

type RedisConfig struct {
	Enabled      bool          `toml:"enabled" json:"enabled"`
	Host         string        `toml:"host" json:"host"`
	Port         string        `toml:"port" json:"port"`
	Password     string        `toml:"password" json:"-"`
	DB           int           `toml:"db" json:"db"`
	PoolSize     int           `toml:"pool_size" json:"pool_size"`
	MinIdleConns int           `toml:"min_idle_conns" json:"min_idle_conns"`
	MaxRetries   int           `toml:"max_retries" json:"max_retries"`
	DialTimeout  time.Duration `toml:"dial_timeout" json:"dial_timeout"`
	ReadTimeout  time.Duration `toml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout" json:"write_timeout"`
	CacheTTL     time.Duration `toml:"cache_ttl" json:"cache_ttl"`
}

type RateLimitConfig struct {
	Enabled        bool `toml:"enabled" json:"enabled"`
	RequestsPerMin int  `toml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize      int  `toml:"burst_size" json:"burst_size"`
}

type CORSConfig struct {
	AllowedOrigins []string `toml:"allowed_origins" json:"allowed_origins"`
}

type LogConfig struct {
	Level  string `toml:"level" json:"level"`
	Format string `toml:"format" json:"format"`
}

func Defaults() *Config {
	return &Config{
		App: AppConfig{
			Name:        DefaultAppName,
			MaxTodos:    DefaultMaxTodos,
			Environment: "development",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    10,
			ConnMaxLifetime: time.Hour,
			ConnMaxIdleTime: 30 * time.Minute,
			ConnectTimeout:  10 * time.Second,
			AutoMigrate:     true,
		},
		Redis: RedisConfig{
			Enabled:      false,
			Host:         "localhost",
			Port:         "6379",
			DB:           0,
			PoolSize:     10,
			MinIdleConns: 5,
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			CacheTTL:     10 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:        true,
			RequestsPerMin: 100,
			BurstSize:      10,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig layers defaults, an optional TOML file and the environment, in that order.
// path falls back to CONFIG_FILE; with neither set no file is read.
func LoadConfig(path string) (*Config, error) {
	config := Defaults()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := config.loadFile(path); err != nil {
			return nil, err
		}
	}

	config.applyEnv()

	if config.App.MaxTodos <= 0 {
		config.App.MaxTodos = DefaultMaxTodos
	}
	if strings.TrimSpace(config.App.Name) == "" {
		config.App.Name = DefaultAppName
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) loadFile(path string) error {
	meta, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("unknown keys in config file %s: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

func (c *Config) applyEnv() {
	c.App.Name = getEnv("APP_NAME", c.App.Name)
	c.App.MaxTodos = getEnvAsInt("MAX_TODOS", c.App.MaxTodos)
	c.App.Environment = getEnv("ENVIRONMENT", c.App.Environment)

	c.Server.Host = getEnv("HOST", c.Server.Host)
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvAsDuration("READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvAsDuration("WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvAsDuration("IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = getEnvAsDuration("SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)
	c.Database.Name = getEnv("DATABASE_NAME", c.Database.Name)
	c.Database.MaxOpenConns = getEnvAsInt("DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns)
	c.Database.MaxIdleConns = getEnvAsInt("DB_MAX_IDLE_CONNS", c.Database.MaxIdleConns)
	c.Database.ConnMaxLifetime = getEnvAsDuration("DB_CONN_MAX_LIFETIME", c.Database.ConnMaxLifetime)
	c.Database.ConnMaxIdleTime = getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", c.Database.ConnMaxIdleTime)
	c.Database.ConnectTimeout = getEnvAsDuration("DB_CONNECT_TIMEOUT", c.Database.ConnectTimeout)
	c.Database.AutoMigrate = getEnvAsBool("DB_AUTO_MIGRATE", c.Database.AutoMigrate)

	c.Redis.Enabled = getEnvAsBool("REDIS_ENABLED", c.Redis.Enabled)
	c.Redis.Host = getEnv("REDIS_HOST", c.Redis.Host)
	c.Redis.Port = getEnv("REDIS_PORT", c.Redis.Port)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvAsInt("REDIS_DB", c.Redis.DB)
	c.Redis.PoolSize = getEnvAsInt("REDIS_POOL_SIZE", c.Redis.PoolSize)
	c.Redis.MinIdleConns = getEnvAsInt("REDIS_MIN_IDLE_CONNS", c.Redis.MinIdleConns)
	c.Redis.MaxRetries = getEnvAsInt("REDIS_MAX_RETRIES", c.Redis.MaxRetries)
	c.Redis.DialTimeout = getEnvAsDuration("REDIS_DIAL_TIMEOUT", c.Redis.DialTimeout)
	c.Redis.ReadTimeout = getEnvAsDuration("REDIS_READ_TIMEOUT", c.Redis.ReadTimeout)
	c.Redis.WriteTimeout = getEnvAsDuration("REDIS_WRITE_TIMEOUT", c.Redis.WriteTimeout)
	c.Redis.CacheTTL = getEnvAsDuration("CACHE_TTL", c.Redis.CacheTTL)

	c.RateLimit.Enabled = getEnvAsBool("RATE_LIMIT_ENABLED", c.RateLimit.Enabled)
	c.RateLimit.RequestsPerMin = getEnvAsInt("RATE_LIMIT_RPM", c.RateLimit.RequestsPerMin)
	c.RateLimit.BurstSize = getEnvAsInt("RATE_LIMIT_BURST", c.RateLimit.BurstSize)

	c.CORS.AllowedOrigins = getEnvAsSlice("CORS_ALLOWED_ORIGINS", c.CORS.AllowedOrigins)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.URL) == "" {
		return errors.New("DATABASE_URL is required")
	}

	if port, err := strconv.Atoi(c.Server.Port); err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid port %q", c.Server.Port)
	}

	if c.Database.MaxOpenConns < 0 || c.Database.MaxIdleConns < 0 {
		return errors.New("database pool sizes must not be negative")
	}

	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMin <= 0 {
		return errors.New("rate limit must allow at least one request per minute")
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unsupported log format %q", c.Log.Format)
	}

	return nil
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsSlice splits a comma-separated value, dropping blanks.
func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
