// Package container provides dependency injection and lifecycle management
// for the admissions service.
package container

import (
	"fmt"
	"time"
)

// History drivers
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all configuration for the Container.
type Config struct {
	// History journal configuration
	History HistoryConfig

	// Admissions rules
	Admissions AdmissionsConfig

	// Server configuration
	Server ServerConfig
}

// HistoryConfig selects and configures the transition history store.
type HistoryConfig struct {
	// Driver is one of memory, sqlite or postgres
	Driver string

	// Path to the SQLite database file
	Path string

	// DSN of the PostgreSQL database
	DSN string

	// Table overrides the PostgreSQL table name
	Table string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// ConnectTimeout bounds how long startup waits for PostgreSQL
	ConnectTimeout time.Duration

	// MigrationsDir overrides the embedded SQLite migrations
	MigrationsDir string
}

// AdmissionsConfig holds the tunable pipeline rules.
type AdmissionsConfig struct {
	// IQPassScore is the lowest passing IQ test score
	IQPassScore float64

	// PassedInterviewDecision is the decision value that passes the interview
	PassedInterviewDecision string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		History: HistoryConfig{
			Driver:          DriverMemory,
			Path:            "data/admissions.db",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnectTimeout:  10 * time.Second,
		},
		Admissions: AdmissionsConfig{
			IQPassScore:             75,
			PassedInterviewDecision: "passed_interview",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	switch c.History.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.History.Path == "" {
			return fmt.Errorf("history.path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.History.DSN == "" {
			return fmt.Errorf("history.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown history driver %q", c.History.Driver)
	}

	if !(c.Admissions.IQPassScore > 0) {
		return fmt.Errorf("admissions.iq_pass_score must be positive")
	}
	if c.Admissions.PassedInterviewDecision == "" {
		return fmt.Errorf("admissions.passed_interview_decision is required")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}

	return nil
}
