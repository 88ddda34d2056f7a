package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const devJWTSecret = "default_secret_change_in_production"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Policy    PolicyConfig    `mapstructure:"policy"`
}

type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	Environment    string        `mapstructure:"environment"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	UploadDir      string        `mapstructure:"upload_dir"`
	// PublicURL prefixes uploaded image URLs; empty means derive from the request.
	PublicURL string `mapstructure:"public_url"`
}

type DatabaseConfig struct {
	// Driver selects the store backend: "postgres" or "mongo".
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	Name            string        `mapstructure:"name"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	LogLevel        string        `mapstructure:"log_level"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	MongoURI        string        `mapstructure:"mongo_uri"`
}

type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	MaxRetries   int           `mapstructure:"max_retries"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type AuthConfig struct {
	JWTSecret     string `mapstructure:"jwt_secret"`
	AdminJoinCode string `mapstructure:"admin_join_code"`
	// TokenTTL of zero issues tokens without an expiry claim.
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
}

type RateLimitConfig struct {
	RequestsPerMin int `mapstructure:"requests_per_min"`
	BurstSize      int `mapstructure:"burst_size"`
	SigninPerMin   int `mapstructure:"signin_per_min"`
	// MutationsPerMin caps task writes per user; enforced only with Redis.
	MutationsPerMin int `mapstructure:"mutations_per_min"`
}

type CacheConfig struct {
	DashboardTTL    time.Duration `mapstructure:"dashboard_ttl"`
	WarmupWorkers   int           `mapstructure:"warmup_workers"`
	// RefreshInterval rebuilds the global dashboard on a timer; zero disables it.
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// PolicyConfig switches on authorization checks the task endpoints do not
// apply by default.
type PolicyConfig struct {
	RestrictTaskReads  bool `mapstructure:"restrict_task_reads"`
	RestrictTaskEdits  bool `mapstructure:"restrict_task_edits"`
	AdminOnlyDashboard bool `mapstructure:"admin_only_dashboard"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:3000"})
	v.SetDefault("server.upload_dir", "uploads")
	v.SetDefault("server.public_url", "")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "host=localhost user=postgres password=postgres dbname=taskboard port=5432 sslmode=disable")
	v.SetDefault("database.name", "taskboard")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", 30*time.Minute)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.mongo_uri", "mongodb://localhost:27017")

	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.admin_join_code", "")
	v.SetDefault("auth.token_ttl", time.Duration(0))
	v.SetDefault("auth.cookie_secure", false)

	v.SetDefault("rate_limit.requests_per_min", 600)
	v.SetDefault("rate_limit.burst_size", 50)
	v.SetDefault("rate_limit.signin_per_min", 10)
	v.SetDefault("rate_limit.mutations_per_min", 120)

	v.SetDefault("cache.dashboard_ttl", 30*time.Second)
	v.SetDefault("cache.warmup_workers", 2)
	v.SetDefault("cache.refresh_interval", 5*time.Minute)

	v.SetDefault("policy.restrict_task_reads", false)
	v.SetDefault("policy.restrict_task_edits", false)
	v.SetDefault("policy.admin_only_dashboard", true)
}

// LoadConfig reads the optional YAML file at path and applies TASKBOARD_*
// environment overrides on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TASKBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
			log.Printf("⚠️  Config file %s not found, using defaults and environment", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "mongo":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Auth.JWTSecret == "" {
		if c.IsProduction() {
			return errors.New("auth.jwt_secret must be set in production")
		}
		log.Println("⚠️  auth.jwt_secret not set, using development secret")
		c.Auth.JWTSecret = devJWTSecret
	}

	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
