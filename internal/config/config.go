package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// EnvPrefix prefixes every environment override, e.g. ADMISSIONS_SERVER_PORT
const EnvPrefix = "ADMISSIONS"

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Logger     LoggerConfig     `mapstructure:"logger"`
	History    HistoryConfig    `mapstructure:"history"`
	Admissions AdmissionsConfig `mapstructure:"admissions"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// HistoryConfig holds transition history storage configuration
type HistoryConfig struct {
	Driver          string        `mapstructure:"driver"` // memory, sqlite or postgres
	Path            string        `mapstructure:"path"`
	DSN             string        `mapstructure:"dsn"`
	Table           string        `mapstructure:"table"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// AdmissionsConfig holds the pipeline rules
type AdmissionsConfig struct {
	IQPassScore             float64 `mapstructure:"iq_pass_score"`
	PassedInterviewDecision string  `mapstructure:"passed_interview_decision"`
}

// Load reads configuration from configPath, then applies environment
// overrides. Variables in envFile are loaded into the environment first
// without replacing ones already set. Missing files fall back to defaults.
func Load(configPath, envFile string) (*Config, error) {
	if envFile != "" {
		if err := gotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, fs.ErrNotExist) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	// History defaults
	v.SetDefault("history.driver", "memory")
	v.SetDefault("history.path", "data/admissions.db")
	v.SetDefault("history.dsn", "")
	v.SetDefault("history.table", "transition_history")
	v.SetDefault("history.max_open_conns", 10)
	v.SetDefault("history.max_idle_conns", 5)
	v.SetDefault("history.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("history.connect_timeout", 10*time.Second)
	v.SetDefault("history.migrations_dir", "")

	// Admissions defaults
	v.SetDefault("admissions.iq_pass_score", 75)
	v.SetDefault("admissions.passed_interview_decision", "passed_interview")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.History.Driver {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("history.driver must be memory, sqlite or postgres, got %q", c.History.Driver)
	}
	if c.History.Driver == "sqlite" && c.History.Path == "" {
		return fmt.Errorf("history.path is required for the sqlite driver")
	}
	if c.History.Driver == "postgres" && c.History.DSN == "" {
		return fmt.Errorf("history.dsn is required for the postgres driver")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}

	if !(c.Admissions.IQPassScore > 0) {
		return fmt.Errorf("admissions.iq_pass_score must be positive")
	}
	if c.Admissions.PassedInterviewDecision == "" {
		return fmt.Errorf("admissions.passed_interview_decision is required")
	}

	return nil
}
