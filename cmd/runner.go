package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mfx/internal/repositories"
	"github.com/desertthunder/mfx/internal/services"
	"github.com/desertthunder/mfx/internal/shared"
	"github.com/desertthunder/mfx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	needsConfig bool
	api         *services.APIService
	service     services.ManifestService
	httpClient  *http.Client
	db          *sql.DB
	records     *repositories.TaskRecordRepository
	logger      *log.Logger
	output      io.Writer
	input       io.Reader
	mu          sync.Mutex
}

// RunnerOpts contains configuration options for creating a Runner.
//
// A nil Config is loaded from the --config file before any command runs.
type RunnerOpts struct {
	Config     *shared.Config
	API        *services.APIService
	Service    services.ManifestService
	HTTPClient *http.Client
	DB         *sql.DB
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	needsConfig := opts.Config == nil
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	r := &Runner{
		config:      opts.Config,
		needsConfig: needsConfig,
		api:         opts.API,
		service:     opts.Service,
		httpClient:  opts.HTTPClient,
		db:          opts.DB,
		logger:      opts.Logger,
		output:      opts.Output,
		input:       opts.Input,
	}
	if opts.DB != nil {
		r.records = repositories.NewTaskRecordRepository(opts.DB)
	}
	return r
}

func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "mfx",
		Usage:   "Manage subscription manifests of a Katello organization",
		Version: "0.3.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Before:   r.before,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, manifestCommand, taskCommand, orgCommand, apiCommand, sandboxCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// before loads the configuration once, applying MFX_* overrides from the environment.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	if !r.needsConfig {
		return ctx, nil
	}

	path := cmd.String("config")
	if _, err := os.Stat(path); err == nil {
		config, err := shared.LoadConfig(path)
		if err != nil {
			return ctx, err
		}
		r.config = config
		r.logger.Debug("config loaded", "path", path)
	} else {
		r.logger.Debug("config file not found, using defaults", "path", path)
	}
	shared.ApplyEnv(r.config)
	r.needsConfig = false
	return ctx, nil
}

// SetLogger replaces the logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) apiService() (*services.APIService, error) {
	if r.api != nil {
		return r.api, nil
	}
	if err := r.config.Validate(); err != nil {
		return nil, err
	}

	r.api = services.NewAPIService(services.APIOpts{
		BaseURL:   r.config.Server.URL,
		Username:  r.config.Server.Username,
		Password:  r.config.Server.Password,
		Token:     r.config.Server.Token,
		RateLimit: r.config.Server.RateLimit,
		Client:    r.httpClient,
		Logger:    r.logger,
	})
	return r.api, nil
}

func (r *Runner) manifestService() (services.ManifestService, error) {
	if r.service != nil {
		return r.service, nil
	}
	api, err := r.apiService()
	if err != nil {
		return nil, err
	}
	r.service = services.NewKatelloService(api, r.config.Server.OrganizationID)
	return r.service, nil
}

// taskRecords opens the configured database on first use. An empty path disables local records.
func (r *Runner) taskRecords() (*repositories.TaskRecordRepository, error) {
	if r.records != nil {
		return r.records, nil
	}
	if r.config.Database.Path == "" {
		return nil, fmt.Errorf("%w: database.path is empty", shared.ErrMissingConfig)
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, err
	}
	r.db = db
	r.records = repositories.NewTaskRecordRepository(db)
	return r.records, nil
}

// recorder returns the outcome recorder, or nil when records cannot be stored.
func (r *Runner) recorder(organizationID int) tasks.Recorder {
	repo, err := r.taskRecords()
	if err != nil {
		r.logger.Debug("task records disabled", "error", err)
		return nil
	}
	return repositories.NewTaskRecorder(repo, organizationID)
}

// Close releases the database opened by the runner.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Runner) confirm(prompt string) bool {
	r.writePlain("%s [y/N]: ", prompt)
	scanner := bufio.NewScanner(r.input)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writeRaw(data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	return r.writeRaw([]byte(fmt.Sprintf(format, args...)))
}

func (r *Runner) writePlainln(format string, args ...any) error {
	return r.writeRaw([]byte("\n" + fmt.Sprintf(format, args...) + "\n"))
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
