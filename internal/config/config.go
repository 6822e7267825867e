package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Backend modes.
const (
	BackendRemote = "remote"
	BackendLocal  = "local"
)

// service config
type Config struct {
	Provider string `mapstructure:"ai_provider"`
	Model    string `mapstructure:"ai_model"`
	Port     string `mapstructure:"port"`

	BackendMode  string `mapstructure:"backend_mode"`
	BackendURL   string `mapstructure:"backend_url"`
	BackendToken string `mapstructure:"backend_token"`

	DBDriver   string         `mapstructure:"db_driver"`
	SQLitePath string         `mapstructure:"sqlite_path"`
	Postgres   PostgresConfig `mapstructure:",squash"`

	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`

	JWTSecret      string   `mapstructure:"jwt_secret"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	NextURL        string        `mapstructure:"next_url"`
	RoundSeconds   int           `mapstructure:"round_seconds"`
	SessionIdleTTL time.Duration `mapstructure:"session_idle_ttl"`
	ReapSchedule   string        `mapstructure:"reap_schedule"`

	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"postgres_host"`
	Port     string `mapstructure:"postgres_port"`
	User     string `mapstructure:"postgres_user"`
	Password string `mapstructure:"postgres_password"`
	DB       string `mapstructure:"postgres_db"`
	SSLMode  string `mapstructure:"postgres_sslmode"`
}

// DSN builds the postgres connection string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		p.Host, p.User, p.Password, p.DB, p.Port, p.SSLMode)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ai_provider", "gemini")
	v.SetDefault("ai_model", "")
	v.SetDefault("port", "8080")

	v.SetDefault("backend_mode", BackendRemote)
	v.SetDefault("backend_url", "")
	v.SetDefault("backend_token", "")

	v.SetDefault("db_driver", "postgres")
	v.SetDefault("sqlite_path", "codinground.db")
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", "5432")
	v.SetDefault("postgres_user", "postgres")
	v.SetDefault("postgres_password", "postgres")
	v.SetDefault("postgres_db", "postgres")
	v.SetDefault("postgres_sslmode", "disable")

	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")

	v.SetDefault("jwt_secret", "")
	v.SetDefault("allowed_origins", []string{"http://localhost:5173"})

	v.SetDefault("next_url", "/interview/{session_id}")
	v.SetDefault("round_seconds", 1800)
	v.SetDefault("session_idle_ttl", "2h")
	v.SetDefault("reap_schedule", "@every 10m")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
}

// LoadConfig reads defaults, an optional YAML file named by CONFIG_FILE, and
// environment variables, in increasing priority.
func LoadConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file := v.GetString("config_file"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	// env lists arrive as one comma-separated string
	config.AllowedOrigins = splitList(v.GetStringSlice("allowed_origins"))

	if err := validateConfig(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

func validateConfig(config *Config) error {
	switch config.Provider {
	case "gemini", "gateway":
	default:
		return errors.New("unsupported AI provider: " + config.Provider + ". Currently supported: gemini, gateway")
	}
	// provider credentials are validated by the provider's own NewConfig()

	switch config.BackendMode {
	case BackendLocal:
	case BackendRemote:
		if config.BackendURL == "" {
			return errors.New("BACKEND_URL is required when BACKEND_MODE is remote")
		}
		if _, err := url.ParseRequestURI(config.BackendURL); err != nil {
			return fmt.Errorf("invalid BACKEND_URL: %w", err)
		}
	default:
		return errors.New("unsupported BACKEND_MODE: " + config.BackendMode + ". Use remote or local")
	}

	switch config.DBDriver {
	case "postgres", "sqlite":
	default:
		return errors.New("unsupported DB_DRIVER: " + config.DBDriver)
	}

	if config.RoundSeconds <= 0 {
		return errors.New("ROUND_SECONDS must be positive")
	}
	if config.SessionIdleTTL <= 0 {
		return errors.New("SESSION_IDLE_TTL must be positive")
	}
	return nil
}

func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
