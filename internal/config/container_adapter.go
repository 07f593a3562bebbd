package config

import (
	"github.com/garyjia/admissions-flow/internal/container"
	"github.com/garyjia/admissions-flow/pkg/utils"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		History: container.HistoryConfig{
			Driver:          c.History.Driver,
			Path:            c.History.Path,
			DSN:             c.History.DSN,
			Table:           c.History.Table,
			MaxOpenConns:    c.History.MaxOpenConns,
			MaxIdleConns:    c.History.MaxIdleConns,
			ConnMaxLifetime: c.History.ConnMaxLifetime,
			ConnectTimeout:  c.History.ConnectTimeout,
			MigrationsDir:   c.History.MigrationsDir,
		},
		Admissions: container.AdmissionsConfig{
			IQPassScore:             c.Admissions.IQPassScore,
			PassedInterviewDecision: c.Admissions.PassedInterviewDecision,
		},
		Server: container.ServerConfig{
			Host:            c.Server.Host,
			Port:            c.Server.Port,
			ReadTimeout:     c.Server.ReadTimeout,
			WriteTimeout:    c.Server.WriteTimeout,
			ShutdownTimeout: c.Server.ShutdownTimeout,
		},
	}
}

// ToLoggerConfig converts the logger section for utils.NewLogger
func (c *Config) ToLoggerConfig() utils.LoggerConfig {
	return utils.LoggerConfig{
		Level:      c.Logger.Level,
		OutputPath: c.Logger.OutputPath,
		Format:     c.Logger.Format,
	}
}
