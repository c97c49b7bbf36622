package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"tunedex/internal/repositories"
	"tunedex/internal/services"
	"tunedex/internal/shared"
	"tunedex/internal/tasks"
	"tunedex/internal/vault"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	source     services.LibrarySource
	spotify    *services.SpotifyService
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Source     services.LibrarySource
	Spotify    *services.SpotifyService
	Logger     *log.Logger
	Output     io.Writer
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
	if opts.Source == nil && opts.Spotify != nil {
		opts.Source = opts.Spotify
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		source:     opts.Source,
		spotify:    opts.Spotify,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, spotifyCommand, syncCommand, scanCommand, vaultCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger swaps the runner's logger.
func (r *Runner) SetLogger(l *log.Logger) { r.logger = l }

// openDatabase opens the configured SQLite database with migrations applied.
func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// vaultRepository builds the note repository over the configured vault root.
func (r *Runner) vaultRepository() *vault.Repository {
	return vault.NewRepository(r.config.Vault, r.config.Sync.CollisionLimit, r.logger)
}

// buildEngine wires a SyncEngine from config. The caller owns closing db.
func (r *Runner) buildEngine(db *sql.DB) (*tasks.SyncEngine, error) {
	if r.source == nil {
		return nil, fmt.Errorf("%w: Spotify service not initialized, run 'tunedex spotify auth'", shared.ErrServiceUnavailable)
	}

	logger := shared.WithLogger(r.logger, "component", "sync")
	notes := r.vaultRepository()
	enricher := services.NewEnricher(r.source, logger)

	opts := tasks.SyncOpts{
		Workers:  r.config.Sync.Workers,
		Debounce: time.Duration(r.config.Sync.DebounceSeconds) * time.Second,
		LockPath: r.config.Sync.LockPath,
	}

	engine := tasks.NewSyncEngine(r.source, enricher, notes, opts, logger)

	if db != nil {
		files := repositories.NewLocalFileRepository(db)
		engine.SetMatcher(repositories.NewFileMatcher(files))
		engine.SetHistory(repositories.NewSyncPassRepository(db))
	}

	return engine, nil
}

// authenticate restores the persisted token into the source.
func (r *Runner) authenticate(ctx context.Context) error {
	if r.source == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}
	return r.source.Authenticate(ctx, map[string]string{})
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if output, err = shared.MarshalJSON(data, pretty); err != nil {
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
