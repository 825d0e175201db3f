package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Log      LogConfig
	HTTP     HTTPConfig
	Queue    QueueConfig
	Sync     SyncConfig
	Tracing  TracingConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
}

// QueueConfig holds job queue consumer configuration
type QueueConfig struct {
	Workers       int           // concurrent job handlers per process
	PollTimeout   time.Duration // blocking pop timeout per iteration
	MaxDeliveries int           // delivery attempts before dead-lettering
}

// SyncConfig holds sync orchestration configuration
type SyncConfig struct {
	LockTTL                time.Duration // lease duration for a running sync
	MaxConsecutiveFailures int           // quarantine threshold
	CustomerPageSize       int
	ProductPageSize        int
	OrderPageSize          int
	CustomerInterval       time.Duration // scheduler interval for customers
	ProductInterval        time.Duration // scheduler interval for products
	OrderInterval          time.Duration // scheduler interval for orders
	SchedulerEnabled       bool
	SchedulerCheckInterval time.Duration // how often the scheduler tick runs
	RequestTimeout         time.Duration // per platform API call
}

// TracingConfig holds OpenTelemetry tracing configuration
type TracingConfig struct {
	Enabled           bool
	CollectorEndpoint string  // OTLP gRPC endpoint, host:port
	SamplingRatio     float64 // 0.0 to 1.0
	Insecure          bool    // plaintext connection to the collector
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with MIRROR_ prefix (e.g., MIRROR_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("MIRROR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
		},
		Queue: QueueConfig{
			Workers:       v.GetInt("queue.workers"),
			PollTimeout:   v.GetDuration("queue.poll_timeout"),
			MaxDeliveries: v.GetInt("queue.max_deliveries"),
		},
		Sync: SyncConfig{
			LockTTL:                v.GetDuration("sync.lock_ttl"),
			MaxConsecutiveFailures: v.GetInt("sync.max_consecutive_failures"),
			CustomerPageSize:       v.GetInt("sync.customer_page_size"),
			ProductPageSize:        v.GetInt("sync.product_page_size"),
			OrderPageSize:          v.GetInt("sync.order_page_size"),
			CustomerInterval:       v.GetDuration("sync.customer_interval"),
			ProductInterval:        v.GetDuration("sync.product_interval"),
			OrderInterval:          v.GetDuration("sync.order_interval"),
			SchedulerEnabled:       v.GetBool("sync.scheduler_enabled"),
			SchedulerCheckInterval: v.GetDuration("sync.scheduler_check_interval"),
			RequestTimeout:         v.GetDuration("sync.request_timeout"),
		},
		Tracing: TracingConfig{
			Enabled:           v.GetBool("tracing.enabled"),
			CollectorEndpoint: v.GetString("tracing.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("tracing.sampling_ratio"),
			Insecure:          v.GetBool("tracing.insecure"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "shopmirror-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "shopmirror"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.Queue.Workers == 0 {
		cfg.Queue.Workers = 4
	}
	if cfg.Queue.PollTimeout == 0 {
		cfg.Queue.PollTimeout = 5 * time.Second
	}
	if cfg.Queue.MaxDeliveries == 0 {
		cfg.Queue.MaxDeliveries = 3
	}
	if cfg.Sync.LockTTL == 0 {
		cfg.Sync.LockTTL = 30 * time.Minute
	}
	if cfg.Sync.MaxConsecutiveFailures == 0 {
		cfg.Sync.MaxConsecutiveFailures = 5
	}
	if cfg.Sync.CustomerPageSize == 0 {
		cfg.Sync.CustomerPageSize = 250
	}
	if cfg.Sync.ProductPageSize == 0 {
		cfg.Sync.ProductPageSize = 250
	}
	if cfg.Sync.OrderPageSize == 0 {
		cfg.Sync.OrderPageSize = 250
	}
	if cfg.Sync.CustomerInterval == 0 {
		cfg.Sync.CustomerInterval = 5 * time.Minute
	}
	if cfg.Sync.ProductInterval == 0 {
		cfg.Sync.ProductInterval = 5 * time.Minute
	}
	// Orders are cheap to under-sync: webhooks provide a near-real-time
	// side channel, so the scheduled interval is longer
	if cfg.Sync.OrderInterval == 0 {
		cfg.Sync.OrderInterval = 10 * time.Minute
	}
	if cfg.Sync.SchedulerCheckInterval == 0 {
		cfg.Sync.SchedulerCheckInterval = time.Minute
	}
	if cfg.Sync.RequestTimeout == 0 {
		cfg.Sync.RequestTimeout = 30 * time.Second
	}
	if cfg.Tracing.CollectorEndpoint == "" {
		cfg.Tracing.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Tracing.SamplingRatio == 0 {
		cfg.Tracing.SamplingRatio = 1.0
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Sync.MaxConsecutiveFailures < 1 {
		return fmt.Errorf("sync.max_consecutive_failures must be at least 1")
	}
	if c.Sync.LockTTL < time.Minute {
		return fmt.Errorf("sync.lock_ttl must be at least one minute")
	}
	for name, size := range map[string]int{
		"sync.customer_page_size": c.Sync.CustomerPageSize,
		"sync.product_page_size":  c.Sync.ProductPageSize,
		"sync.order_page_size":    c.Sync.OrderPageSize,
	} {
		if size <= 0 || size > 250 {
			return fmt.Errorf("%s must be between 1 and 250", name)
		}
	}
	if c.Tracing.SamplingRatio < 0 || c.Tracing.SamplingRatio > 1 {
		return fmt.Errorf("tracing.sampling_ratio must be between 0.0 and 1.0")
	}
	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
	}
	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the Redis address in host:port form
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
