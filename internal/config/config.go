// Package config defines the runtime configuration of numberdesk and loads it
// from defaults, an optional numberdesk.yaml, a .env file, and NUMBERDESK_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable viper consults.
const EnvPrefix = "NUMBERDESK"

// Config is the complete runtime configuration. It is built once at startup
// and passed explicitly to the components that need it.
type Config struct {
	Dev      bool           `mapstructure:"dev" yaml:"dev"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Auth     AuthConfig     `mapstructure:"auth" yaml:"auth"`
	Session  SessionConfig  `mapstructure:"session" yaml:"session"`
	Events   EventsConfig   `mapstructure:"events" yaml:"events"`
}

// ServerConfig controls the HTTP server behavior.
type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	CORSOrigins     []string      `mapstructure:"cors_origins" yaml:"cors_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size" yaml:"max_body_size"`
}

// DatabaseConfig locates the SQLite file. FallbackPath is used when the
// directory of Path cannot be created.
type DatabaseConfig struct {
	Path         string `mapstructure:"path" yaml:"path"`
	FallbackPath string `mapstructure:"fallback_path" yaml:"fallback_path"`
}

// AuthConfig controls credential checks and token issuance.
type AuthConfig struct {
	// JWTSecret signs legacy bearer credentials. When empty a random key is
	// generated at startup, so legacy tokens do not survive a restart.
	JWTSecret      string         `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	SessionTTL     time.Duration  `mapstructure:"session_ttl" yaml:"session_ttl"`
	LegacyTTL      time.Duration  `mapstructure:"legacy_ttl" yaml:"legacy_ttl"`
	ProtectNumbers bool           `mapstructure:"protect_numbers" yaml:"protect_numbers"`
	Admin          AdminConfig    `mapstructure:"admin" yaml:"admin"`
	Legacy         LegacyIdentity `mapstructure:"legacy" yaml:"legacy"`
}

// AdminConfig is the credential seeded into an empty admin_users table.
// An empty Password means one is generated and logged once.
type AdminConfig struct {
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
}

// LegacyIdentity is the single name/email/phone triple accepted by the
// identity-match login. The flow is disabled while Name is empty.
type LegacyIdentity struct {
	Name  string `mapstructure:"name" yaml:"name"`
	Email string `mapstructure:"email" yaml:"email"`
	Phone string `mapstructure:"phone" yaml:"phone"`
}

// Enabled reports whether an identity has been configured.
func (l LegacyIdentity) Enabled() bool {
	return l.Name != ""
}

// SessionConfig selects the session store. Sessions are kept in memory
// unless RedisAddr is set.
type SessionConfig struct {
	RedisAddr     string `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password" yaml:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" yaml:"redis_db"`
	Prefix        string `mapstructure:"prefix" yaml:"prefix"`
}

// EventsConfig enables RabbitMQ event publishing when AMQPURL is set.
type EventsConfig struct {
	AMQPURL      string        `mapstructure:"amqp_url" yaml:"amqp_url"`
	Queue        string        `mapstructure:"queue" yaml:"queue"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff" yaml:"retry_backoff"`
	BufferSize   int           `mapstructure:"buffer_size" yaml:"buffer_size"`
}

// Default returns a Config with the built-in defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			CORSOrigins:     []string{"*"},
			ShutdownTimeout: 30 * time.Second,
			MaxBodySize:     1 << 20,
		},
		Database: DatabaseConfig{
			Path:         filepath.Join("db", "users.db"),
			FallbackPath: filepath.Join(os.TempDir(), "numberdesk", "users.db"),
		},
		Auth: AuthConfig{
			SessionTTL:     24 * time.Hour,
			LegacyTTL:      15 * time.Minute,
			ProtectNumbers: true,
			Admin:          AdminConfig{Username: "admin"},
		},
		Session: SessionConfig{
			Prefix: "numberdesk:session:",
		},
		Events: EventsConfig{
			Queue:        "numberdesk.events",
			DialTimeout:  2 * time.Second,
			RetryBackoff: 10 * time.Second,
			BufferSize:   256,
		},
	}
}

// SetDefaults registers every key of Default on v. Keys must be known to
// viper for environment overrides to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("dev", d.Dev)

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.cors_origins", d.Server.CORSOrigins)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.max_body_size", d.Server.MaxBodySize)

	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("database.fallback_path", d.Database.FallbackPath)

	v.SetDefault("auth.jwt_secret", d.Auth.JWTSecret)
	v.SetDefault("auth.session_ttl", d.Auth.SessionTTL)
	v.SetDefault("auth.legacy_ttl", d.Auth.LegacyTTL)
	v.SetDefault("auth.protect_numbers", d.Auth.ProtectNumbers)
	v.SetDefault("auth.admin.username", d.Auth.Admin.Username)
	v.SetDefault("auth.admin.password", d.Auth.Admin.Password)
	v.SetDefault("auth.legacy.name", d.Auth.Legacy.Name)
	v.SetDefault("auth.legacy.email", d.Auth.Legacy.Email)
	v.SetDefault("auth.legacy.phone", d.Auth.Legacy.Phone)

	v.SetDefault("session.redis_addr", d.Session.RedisAddr)
	v.SetDefault("session.redis_password", d.Session.RedisPassword)
	v.SetDefault("session.redis_db", d.Session.RedisDB)
	v.SetDefault("session.prefix", d.Session.Prefix)

	v.SetDefault("events.amqp_url", d.Events.AMQPURL)
	v.SetDefault("events.queue", d.Events.Queue)
	v.SetDefault("events.dial_timeout", d.Events.DialTimeout)
	v.SetDefault("events.retry_backoff", d.Events.RetryBackoff)
	v.SetDefault("events.buffer_size", d.Events.BufferSize)
}

// BindEnv turns on NUMBERDESK_* lookups for every key (server.port becomes
// NUMBERDESK_SERVER_PORT) and accepts the short DB_PATH, PORT and DEBUG
// names used by simple deployments.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("database.path", EnvPrefix+"_DATABASE_PATH", "DB_PATH")
	v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT")
	v.BindEnv("dev", EnvPrefix+"_DEV", "DEBUG")
}

// LoadDotEnv reads KEY=VALUE pairs from the given files (".env" when none are
// named) into the process environment. Variables that are already set win.
// Missing files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	if err := godotenv.Load(present...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// Load decodes the effective configuration held by v and validates it.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Auth.SessionTTL <= 0 {
		errs = append(errs, errors.New("auth.session_ttl must be positive"))
	}
	if c.Auth.LegacyTTL <= 0 {
		errs = append(errs, errors.New("auth.legacy_ttl must be positive"))
	}
	if c.Events.BufferSize < 1 {
		errs = append(errs, errors.New("events.buffer_size must be at least 1"))
	}
	if c.Auth.Admin.Username == "" {
		errs = append(errs, errors.New("auth.admin.username is required"))
	}
	return errors.Join(errs...)
}

// Addr returns the host:port the HTTP server listens on.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
