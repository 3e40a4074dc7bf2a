package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/segue/internal/queue"
	"github.com/desertthunder/segue/internal/repositories"
	"github.com/desertthunder/segue/internal/services"
	"github.com/desertthunder/segue/internal/shared"
	"github.com/desertthunder/segue/internal/tasks"
	"github.com/urfave/cli/v3"
)

// progressBuffer is the capacity of the populator progress channel consumed by
// the TUI; sends are non-blocking so overflow drops updates, never stalls.
const progressBuffer = 50

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The resolution session (services, resolver, queue, engine) is assembled
// lazily on the first command that needs it, so config-only commands work
// without reachable backends.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer

	engine     tasks.Engine
	resolver   *tasks.Resolver
	supervisor *tasks.Supervisor
	progress   chan tasks.ProgressUpdate
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer

	// Engine overrides lazy session assembly; tests inject a mock-backed one.
	Engine     tasks.Engine
	Resolver   *tasks.Resolver
	Supervisor *tasks.Supervisor
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
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		engine:     opts.Engine,
		resolver:   opts.Resolver,
		supervisor: opts.Supervisor,
	}
}

// SetLogger swaps the runner's logger, used when the TUI takes over the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		playCommand, searchCommand, queueCommand, backendsCommand, setupCommand, configCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// session assembles (once) the full resolution pipeline from config: backend
// services, track cache, resolver, ranker, queue, populator and supervisor.
func (r *Runner) session() (tasks.Engine, error) {
	if r.engine != nil {
		return r.engine, nil
	}

	if err := r.config.Validate(); err != nil {
		return nil, fmt.Errorf("cannot start a session: %w", err)
	}

	svcs, err := buildServices(r.config)
	if err != nil {
		return nil, err
	}

	cache := r.openCache()
	resolver := tasks.NewResolver(svcs, cache, r.logger)
	ranker := tasks.NewRanker(r.config.Playback.BackendPriority, r.config.Playback.PreferHighBitrate)
	q := queue.New(queue.Options{
		RestartThresholdMS: r.config.Playback.RestartThresholdMS,
		SuppressDuplicates: r.config.Playback.SuppressDuplicates,
		Logger:             r.logger,
	})

	r.progress = make(chan tasks.ProgressUpdate, progressBuffer)
	populator := tasks.NewPopulator(resolver, q, r.config.Playback.ResolveRate, r.progress, r.logger)
	supervisor := tasks.NewSupervisor(populator, r.logger)

	r.resolver = resolver
	r.supervisor = supervisor
	r.engine = tasks.NewSessionEngine(resolver, ranker, q, supervisor, r.config.Playback, r.logger)

	return r.engine, nil
}

// buildServices constructs one Service per enabled backend in configured enable order.
func buildServices(config *shared.Config) ([]services.Service, error) {
	var svcs []services.Service

	if config.Backends.Subsonic.Enabled {
		svc, err := services.NewSubsonicService(config.Backends.Subsonic)
		if err != nil {
			return nil, fmt.Errorf("failed to configure subsonic backend: %w", err)
		}
		svcs = append(svcs, svc)
	}

	if config.Backends.Plex.Enabled {
		svc, err := services.NewPlexService(config.Backends.Plex)
		if err != nil {
			return nil, fmt.Errorf("failed to configure plex backend: %w", err)
		}
		svcs = append(svcs, svc)
	}

	if len(svcs) == 0 {
		return nil, shared.ErrNoBackends
	}
	return svcs, nil
}

// openCache opens the resolved-track cache. A missing or broken database only
// disables caching; resolution falls through to the backends.
func (r *Runner) openCache() tasks.TrackCacher {
	path := r.config.Database.Path
	if path == "" {
		return nil
	}

	db, err := shared.NewDatabase(path)
	if err != nil {
		r.logger.Warn("track cache unavailable", "path", path, "error", err)
		return nil
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	return repositories.NewTrackCacheAdapter(repositories.NewTrackRepository(db))
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
