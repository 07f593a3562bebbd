package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/admissions-flow/internal/application/dispatcher"
	"github.com/garyjia/admissions-flow/internal/application/port"
	"github.com/garyjia/admissions-flow/internal/application/service"
	"github.com/garyjia/admissions-flow/internal/application/workflow"
	"github.com/garyjia/admissions-flow/internal/infrastructure/persistence/memory"
)

const healthPingTimeout = 2 * time.Second

// Container manages all application dependencies and lifecycle.
// Components are initialized in dependency order and torn down in reverse.
type Container struct {
	config *Config
	logger *zap.Logger
	runID  string

	// Infrastructure
	applicants *memory.ApplicantRepository
	history    *HistoryBundle

	// Application
	dispatcher dispatcher.Dispatcher
	engine     workflow.CompletionEngine
	admissions service.AdmissionsService

	// Lifecycle
	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	runID := uuid.NewString()
	return &Container{
		config: cfg,
		logger: logger.With(zap.String("run_id", runID)),
		runID:  runID,
	}, nil
}

// Start initializes all components:
// 1. Applicant directory and history store
// 2. Event dispatcher and completion engine
// 3. Admissions service and history recorder
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization", zap.String("history_driver", c.config.History.Driver))

	// Step 1: Storage
	c.applicants = memory.NewApplicantRepository()

	history, err := ProvideHistory(ctx, &c.config.History, c.runID, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize history store: %w", err)
	}
	c.history = history
	c.logger.Info("History store initialized")

	// Step 2: Dispatcher and engine
	if c.dispatcher, err = ProvideDispatcher(c.logger); err != nil {
		c.closeHistory()
		return fmt.Errorf("failed to initialize dispatcher: %w", err)
	}

	c.engine, err = ProvideEngine(&EngineDeps{
		Applicants: c.applicants,
		Dispatcher: c.dispatcher,
		Rules:      &c.config.Admissions,
		Logger:     c.logger,
	})
	if err != nil {
		c.closeHistory()
		return fmt.Errorf("failed to initialize completion engine: %w", err)
	}
	c.logger.Info("Dispatcher and completion engine initialized")

	// Step 3: Service
	c.admissions, err = ProvideAdmissionsService(&ServiceDeps{
		Applicants: c.applicants,
		History:    c.history.Repo,
		Engine:     c.engine,
		Dispatcher: c.dispatcher,
		RunID:      c.runID,
		Logger:     c.logger,
	})
	if err != nil {
		c.closeHistory()
		return fmt.Errorf("failed to initialize admissions service: %w", err)
	}

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

func (c *Container) closeHistory() {
	if c.history == nil {
		return
	}
	if err := c.history.Close(); err != nil {
		c.logger.Error("Failed to close history store", zap.Error(err))
	}
	c.history = nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
	}

	if c.history != nil {
		if err := c.history.Close(); err != nil {
			c.logger.Error("Failed to close history store", zap.Error(err))
			errs = append(errs, fmt.Errorf("close history: %w", err))
		} else {
			c.logger.Info("History store closed")
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health() *HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	set := func(name string, h ComponentHealth) {
		status.Components[name] = h
		if !h.Healthy {
			status.Overall = false
		}
	}

	if c.history != nil {
		ctx, cancel := context.WithTimeout(context.Background(), healthPingTimeout)
		defer cancel()
		if err := c.history.Ping(ctx); err != nil {
			set("history", ComponentHealth{Healthy: false, Message: fmt.Sprintf("ping failed: %v", err)})
		} else {
			set("history", ComponentHealth{Healthy: true, Message: c.config.History.Driver})
		}
	} else {
		set("history", ComponentHealth{Healthy: false, Message: "not initialized"})
	}

	if c.applicants != nil {
		set("applicants", ComponentHealth{Healthy: true, Message: fmt.Sprintf("applicant count: %d", c.applicants.Count())})
	} else {
		set("applicants", ComponentHealth{Healthy: false, Message: "not initialized"})
	}

	if c.dispatcher != nil && !c.closed.Load() {
		set("dispatcher", ComponentHealth{Healthy: true})
	} else {
		set("dispatcher", ComponentHealth{Healthy: false, Message: "not running"})
	}

	return status
}

// Getters for accessing container components

// RunID identifies this process in the history journal.
func (c *Container) RunID() string {
	return c.runID
}

// Applicants returns the applicant directory.
func (c *Container) Applicants() port.ApplicantRepository {
	return c.applicants
}

// History returns the history store.
func (c *Container) History() port.HistoryRepository {
	if c.history == nil {
		return nil
	}
	return c.history.Repo
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Engine returns the completion engine.
func (c *Container) Engine() workflow.CompletionEngine {
	return c.engine
}

// Admissions returns the admissions service.
func (c *Container) Admissions() service.AdmissionsService {
	return c.admissions
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}
