package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/deachawatss/pickbench/internal/repositories"
	"github.com/deachawatss/pickbench/internal/services"
	"github.com/deachawatss/pickbench/internal/shared"
	"github.com/deachawatss/pickbench/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config  *shared.Config
	backend services.Service
	logger  *log.Logger
	output  io.Writer

	db      *sql.DB
	monitor *shared.Monitor
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config  *shared.Config
	Backend services.Service
	Logger  *log.Logger
	Output  io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:  opts.Config,
		backend: opts.Backend,
		logger:  opts.Logger,
		output:  opts.Output,
	}
}

// Shutdown releases anything the runner opened lazily.
func (r *Runner) Shutdown() {
	if r.monitor != nil {
		r.monitor.Close()
	}
	if r.db != nil {
		r.db.Close()
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, runCommand, scaleCommand, cacheCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// openCache opens the cache database on first use, running migrations.
func (r *Runner) openCache() (*repositories.RunCacheRepository, error) {
	if r.db == nil {
		db, err := shared.NewDatabase(r.config.Cache.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open cache database: %w", err)
		}

		shared.ConfigureDatabase(db, r.config.Cache.MaxOpenConns, r.config.Cache.MaxIdleConns)

		if err := shared.RunMigrations(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		r.db = db
	}

	return repositories.NewRunCacheRepository(r.db, r.config.Cache.Capacity), nil
}

// newEngine wires the gateway engine with the cache and a running connectivity monitor.
func (r *Runner) newEngine() (*tasks.Engine, error) {
	cache, err := r.openCache()
	if err != nil {
		return nil, err
	}

	if r.monitor == nil {
		interval := time.Duration(r.config.Connectivity.IntervalSeconds) * time.Second
		r.monitor = shared.NewMonitor(r.config.Connectivity.ProbeURL, interval, r.logger)
		r.monitor.Start()
	}

	return tasks.NewEngine(r.backend, cache, r.monitor, r.logger), nil
}

// drainProgress prints progress messages until the channel closes.
func (r *Runner) drainProgress(progress <-chan tasks.ProgressUpdate) {
	for update := range progress {
		r.logger.Info(update.Message, "phase", update.Phase.String())
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
