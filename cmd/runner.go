package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/avalverde/butaca/internal/backend"
	"github.com/avalverde/butaca/internal/catalog"
	"github.com/avalverde/butaca/internal/repositories"
	"github.com/avalverde/butaca/internal/session"
	"github.com/avalverde/butaca/internal/shared"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	logger *log.Logger
	output io.Writer

	db        *sql.DB
	store     *session.Store
	sessions  *session.Manager
	backend   *backend.Client
	catalog   *catalog.Client
	browse    *catalog.Service
	favorites *catalog.Favorites
	history   *repositories.HistoryRepository
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	Logger *log.Logger
	Output io.Writer
	// DB lets tests inject an open database; when nil the runner opens the
	// configured one on first use.
	DB *sql.DB
}

// NewRunner creates a new Runner with the provided configuration.
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
		config: opts.Config,
		logger: opts.Logger,
		output: opts.Output,
		db:     opts.DB,
	}
}

// bootstrap opens the database and wires the session, backend, and catalog
// layers. Migrations are idempotent, so running them here keeps every
// command usable on a fresh install.
func (r *Runner) bootstrap() error {
	if r.sessions != nil {
		return nil
	}

	if r.db == nil {
		db, err := shared.NewDatabase(r.config.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
		r.db = db
	}

	if err := shared.RunMigrations(r.db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.store = session.NewStore(r.db)
	r.backend = backend.NewClient(r.config.Backend, shared.WithLogger(r.logger, "component", "backend"))
	r.sessions = session.NewManager(session.ManagerOpts{
		Store:     r.store,
		Backend:   r.backend,
		JWTSecret: r.config.Backend.JWTSecret,
		Logger:    shared.WithLogger(r.logger, "component", "session"),
	})
	catalogLogger := shared.WithLogger(r.logger, "component", "catalog")
	r.catalog = catalog.NewClient(catalog.ClientOpts{Config: r.config.Catalog, Logger: catalogLogger})
	r.browse = catalog.NewService(r.catalog, catalogLogger)
	r.favorites = catalog.NewFavorites(r.catalog, r.sessions, catalogLogger)
	r.history = repositories.NewHistoryRepository(r.db)

	return nil
}

// Close releases the runner's resources.
func (r *Runner) Close() {
	if r.favorites != nil {
		r.favorites.Close()
	}
	if r.db != nil {
		r.db.Close()
	}
}

// requireAccount returns the connected catalog account id, failing typed when
// there is no logged-in user or no linked account.
func (r *Runner) requireAccount() (int, error) {
	user := r.sessions.Current()
	if user == nil {
		return 0, shared.ErrNotLoggedIn
	}
	if !user.Connected() {
		return 0, shared.ErrNotConnected
	}
	return user.CatalogAccountID, nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, connectCommand, catalogCommand, favoritesCommand, usersCommand, historyCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
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
