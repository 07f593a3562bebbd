package container

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/admissions-flow/internal/application/dispatcher"
	"github.com/garyjia/admissions-flow/internal/application/port"
	"github.com/garyjia/admissions-flow/internal/application/service"
	"github.com/garyjia/admissions-flow/internal/application/workflow"
	"github.com/garyjia/admissions-flow/internal/infrastructure/persistence/memory"
	"github.com/garyjia/admissions-flow/internal/infrastructure/persistence/postgres"
	"github.com/garyjia/admissions-flow/internal/infrastructure/persistence/repository"
	"github.com/garyjia/admissions-flow/migrations"
	"github.com/garyjia/admissions-flow/pkg/database"
	"github.com/garyjia/admissions-flow/pkg/utils"
)

// HistoryBundle holds the history store and its lifecycle hooks.
type HistoryBundle struct {
	Repo  port.HistoryRepository
	Ping  func(ctx context.Context) error
	Close func() error
}

// ProvideHistory opens the history store selected by cfg.Driver.
// SQLite migrations run from the embedded set unless MigrationsDir is given.
func ProvideHistory(ctx context.Context, cfg *HistoryConfig, runID string, logger *zap.Logger) (*HistoryBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("history config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	switch cfg.Driver {
	case DriverMemory:
		return &HistoryBundle{
			Repo:  memory.NewHistoryRepository(),
			Ping:  func(context.Context) error { return nil },
			Close: func() error { return nil },
		}, nil

	case DriverSQLite:
		db, err := database.New(database.Config{
			Path:            cfg.Path,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
		}, logger)
		if err != nil {
			return nil, err
		}

		migrator := database.NewMigrator(db, logger)
		if cfg.MigrationsDir != "" {
			err = migrator.RunMigrations(ctx, cfg.MigrationsDir)
		} else {
			err = migrator.RunMigrationsFS(ctx, migrations.SQLite, migrations.SQLiteDir)
		}
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		return &HistoryBundle{
			Repo:  repository.NewHistoryRepository(db.DB, runID, logger),
			Ping:  db.PingContext,
			Close: db.Close,
		}, nil

	case DriverPostgres:
		store, err := postgres.NewHistoryStore(ctx, postgres.Config{
			DSN:             cfg.DSN,
			Table:           cfg.Table,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
			ConnectTimeout:  cfg.ConnectTimeout,
		}, runID)
		if err != nil {
			return nil, err
		}
		return &HistoryBundle{
			Repo:  store,
			Ping:  store.Ping,
			Close: store.Close,
		}, nil
	}

	return nil, fmt.Errorf("unknown history driver %q", cfg.Driver)
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return dispatcher.NewDispatcher(dispatcher.WithLogger(utils.NewKeyValueLogger(logger))), nil
}

// EngineDeps holds dependencies for the completion engine.
type EngineDeps struct {
	Applicants port.ApplicantRepository
	Dispatcher dispatcher.Dispatcher
	Rules      *AdmissionsConfig
	Logger     *zap.Logger
}

// ProvideEngine creates the step completion engine.
func ProvideEngine(deps *EngineDeps) (workflow.CompletionEngine, error) {
	if deps == nil {
		return nil, fmt.Errorf("engine dependencies are required")
	}
	if deps.Applicants == nil {
		return nil, fmt.Errorf("applicant repository is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	rules := workflow.DefaultRules()
	if deps.Rules != nil {
		if deps.Rules.IQPassScore > 0 {
			rules.IQPassScore = deps.Rules.IQPassScore
		}
		if deps.Rules.PassedInterviewDecision != "" {
			rules.PassedInterviewDecision = deps.Rules.PassedInterviewDecision
		}
	}

	return workflow.NewEngine(deps.Applicants,
		workflow.WithDispatcher(deps.Dispatcher),
		workflow.WithLogger(utils.NewKeyValueLogger(deps.Logger)),
		workflow.WithRules(rules),
	), nil
}

// ServiceDeps holds dependencies for the admissions service.
type ServiceDeps struct {
	Applicants port.ApplicantRepository
	History    port.HistoryRepository
	Engine     workflow.CompletionEngine
	Dispatcher dispatcher.Dispatcher
	RunID      string
	Logger     *zap.Logger
}

// ProvideAdmissionsService creates the admissions service and subscribes the
// history recorder to the dispatcher.
func ProvideAdmissionsService(deps *ServiceDeps) (service.AdmissionsService, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Applicants == nil || deps.History == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.Engine == nil {
		return nil, fmt.Errorf("completion engine is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	logger := utils.NewKeyValueLogger(deps.Logger)

	if deps.Dispatcher != nil {
		service.NewHistoryRecorder(deps.History, deps.RunID, logger).Register(deps.Dispatcher)
	}

	return service.NewAdmissionsService(deps.Applicants, deps.History, deps.Engine, deps.Dispatcher, logger), nil
}
