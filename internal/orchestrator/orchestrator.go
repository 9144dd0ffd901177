// Package orchestrator wires the tilegrid runtime: NATS, the dashboard
// store, the query runner and the TUI.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "charm.land/bubbletea/v2"
	"github.com/mark3labs/tilegrid/internal/config"
	"github.com/mark3labs/tilegrid/internal/logger"
	"github.com/mark3labs/tilegrid/internal/nats"
	"github.com/mark3labs/tilegrid/internal/query"
	"github.com/mark3labs/tilegrid/internal/refresh"
	"github.com/mark3labs/tilegrid/internal/store"
	"github.com/mark3labs/tilegrid/internal/tui"
	"github.com/mark3labs/tilegrid/internal/viz"
	natsserver "github.com/nats-io/nats-server/v2/server"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Orchestrator owns the long-lived resources of one tilegrid process.
type Orchestrator struct {
	cfg       *config.Config
	ns        *natsserver.Server // Embedded NATS server (nil if node mode)
	nc        *natsgo.Conn       // NATS connection
	store     *store.Store       // Dashboard store
	runner    *query.Runner      // SQLite query runner
	pipeline  *refresh.Pipeline  // Widget refresh pipeline
	ctx       context.Context    // Context for cancellation
	cancel    context.CancelFunc // Cancel function
	stopped   bool               // Track if Stop() was already called
	isPrimary bool               // True if this instance owns the NATS server
}

// New creates an Orchestrator for cfg. Nothing is started until Start.
func New(ctx context.Context, cfg *config.Config) (*Orchestrator, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Orchestrator{cfg: cfg, ctx: ctx, cancel: cancel}, nil
}

// Start connects to NATS, sets up the event stream and opens the database.
func (o *Orchestrator) Start() error {
	logger.Debug("Starting tilegrid runtime in %s", o.cfg.DataDir)

	if err := o.ensureNATS(); err != nil {
		logger.Error("Failed to ensure NATS: %v", err)
		return fmt.Errorf("failed to ensure NATS: %w", err)
	}
	if o.isPrimary {
		logger.Debug("Running as primary (owns NATS server)")
	} else {
		logger.Debug("Running as node (connected to existing server)")
	}

	if err := o.setupJetStream(); err != nil {
		logger.Error("Failed to setup JetStream: %v", err)
		_ = o.Stop()
		return fmt.Errorf("failed to setup JetStream: %w", err)
	}

	runner, err := query.Open(o.cfg.Database, o.cfg.Table.MaxRows)
	if err != nil {
		_ = o.Stop()
		return fmt.Errorf("failed to open database: %w", err)
	}
	o.runner = runner
	o.pipeline = refresh.New(runner, viz.NewRenderer(), o.cfg.RefreshConcurrency)

	logger.Debug("Runtime started")
	return nil
}

// Context returns the runtime context. It is cancelled by Stop.
func (o *Orchestrator) Context() context.Context {
	return o.ctx
}

// Config returns the loaded configuration.
func (o *Orchestrator) Config() *config.Config {
	return o.cfg
}

// Store returns the dashboard store.
func (o *Orchestrator) Store() *store.Store {
	return o.store
}

// Runner returns the query runner.
func (o *Orchestrator) Runner() *query.Runner {
	return o.runner
}

// Pipeline returns the refresh pipeline.
func (o *Orchestrator) Pipeline() *refresh.Pipeline {
	return o.pipeline
}

// Conn returns the NATS connection.
func (o *Orchestrator) Conn() *natsgo.Conn {
	return o.nc
}

// IsPrimary reports whether this process owns the NATS server.
func (o *Orchestrator) IsPrimary() bool {
	return o.isPrimary
}

// RunTUI shows dashboard ref full screen until the user quits.
func (o *Orchestrator) RunTUI(ref string) error {
	if _, err := o.store.ResolveDashboard(o.ctx, ref); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(o.ctx)
	defer cancel()

	app := tui.NewApp(ctx, tui.Options{
		Store:     o.store,
		Refresher: o.pipeline,
		Conn:      o.nc,
		Dashboard: ref,
		DataDir:   o.cfg.DataDir,
		Terminal:  o.cfg.TerminalGeometry(),
		Pixels:    o.cfg.PixelGeometry(),
	})

	program := tea.NewProgram(app, tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI error: %w", err)
	}
	logger.Debug("TUI quit")
	return nil
}

// Stop releases everything Start acquired. It is safe to call more than
// once.
func (o *Orchestrator) Stop() error {
	if o.stopped {
		return nil
	}
	o.stopped = true

	if o.cancel != nil {
		o.cancel()
	}

	var errs []error
	if o.runner != nil {
		if err := o.runner.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing database: %w", err))
		}
	}

	if o.isPrimary {
		// Primary mode: shut down the server we own
		logger.Debug("Shutting down NATS server (primary mode)")
		if err := nats.Shutdown(o.nc, o.ns, o.natsDir()); err != nil {
			logger.Error("NATS shutdown failed: %v", err)
			errs = append(errs, fmt.Errorf("NATS shutdown failed: %w", err))
		}
	} else if o.nc != nil {
		// Node mode: just close the connection, don't kill the server
		logger.Debug("Closing NATS connection (node mode)")
		o.nc.Close()
	}

	o.nc = nil
	o.ns = nil
	o.runner = nil

	return errors.Join(errs...)
}

func (o *Orchestrator) natsDir() string {
	return filepath.Join(o.cfg.DataDir, "nats")
}

// ensureNATS connects to an existing NATS server or starts a new one.
// If another tilegrid process is already serving the data directory, this
// one runs in "node mode" and connects to it. Otherwise it starts a new
// embedded server and runs in "primary mode".
func (o *Orchestrator) ensureNATS() error {
	dataDir := o.natsDir()
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create NATS data directory: %w", err)
	}

	if nc := nats.TryConnectExisting(dataDir); nc != nil {
		logger.Info("Connected to existing NATS server (node mode)")
		o.nc = nc
		o.isPrimary = false
		return nil
	}

	logger.Info("Starting NATS server (primary mode)")
	ns, _, err := nats.StartEmbeddedNATS(dataDir)
	if err != nil {
		return fmt.Errorf("failed to start NATS server: %w", err)
	}
	o.ns = ns
	o.isPrimary = true

	nc, err := nats.ConnectInProcess(ns)
	if err != nil {
		// Failed to connect to server we just started - shut it down
		ns.Shutdown()
		o.ns = nil
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	o.nc = nc
	return nil
}

// setupJetStream creates the JetStream stream and the dashboard store.
func (o *Orchestrator) setupJetStream() error {
	js, err := jetstream.New(o.nc)
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	stream, err := nats.SetupStream(o.ctx, js)
	if err != nil {
		return fmt.Errorf("failed to setup stream: %w", err)
	}

	o.store = store.NewStore(js, stream, store.Options{
		Columns:  o.cfg.Columns,
		Geometry: o.cfg.PixelGeometry(),
		Estimate: o.cfg.EstimateOptions(),
	})
	return nil
}
