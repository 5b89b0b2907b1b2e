package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/CTAG07/wordchain/pkg/markov"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// app carries the state shared by every subcommand. The store is opened
// lazily so commands that never touch the database don't create one.
type app struct {
	configPath string
	dbPath     string
	logLevel   string

	config *Config
	logger *slog.Logger
	db     *sql.DB
	store  *markov.Store
}

// newRootCmd builds the command tree. The returned function releases the
// database and must be called once execution finishes, whether it failed or not.
func newRootCmd() (*cobra.Command, func() error) {
	a := &app{}

	root := &cobra.Command{
		Use:           "wordchain",
		Short:         "Train character-level Markov models and generate new words from them",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "./wordchain.json", "path to the JSON configuration file")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "path to the SQLite database (overrides the config file)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error (overrides the config file)")

	root.AddCommand(
		newTrainCmd(a),
		newGenerateCmd(a),
		newListCmd(a),
		newStatsCmd(a),
		newPruneCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newRemoveCmd(a),
	)

	return root, a.close
}

func (a *app) init(cmd *cobra.Command) error {
	config, err := LoadConfig(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if a.dbPath != "" {
		config.DatabasePath = a.dbPath
	}
	if a.logLevel != "" {
		config.LogLevel = a.logLevel
	}
	if err = config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.config = config

	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: parseLogLevel(config.LogLevel)}))
	a.logger.Debug("Configuration loaded", "config_path", a.configPath, "database_path", config.DatabasePath)
	return nil
}

// openStore returns the shared store, opening the database and creating the
// schema on first use.
func (a *app) openStore() (*markov.Store, error) {
	if a.store != nil {
		return a.store, nil
	}

	db, err := initDB(a.config.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err = markov.SetupSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to setup markov schema: %w", err)
	}
	store, err := markov.NewStore(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create model store: %w", err)
	}
	store.SetLogger(a.logger)

	a.db = db
	a.store = store
	return store, nil
}

func (a *app) close() error {
	if a.store != nil {
		a.store.Close()
		a.store = nil
	}
	if a.db != nil {
		err := a.db.Close()
		a.db = nil
		if err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}
	return nil
}

// modelInfo resolves a model name, turning a missing row into a readable error.
func (a *app) modelInfo(ctx context.Context, name string) (markov.ModelInfo, error) {
	store, err := a.openStore()
	if err != nil {
		return markov.ModelInfo{}, err
	}
	info, err := store.GetModelInfo(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		return markov.ModelInfo{}, fmt.Errorf("model %q not found", name)
	}
	if err != nil {
		return markov.ModelInfo{}, fmt.Errorf("failed to look up model %q: %w", name, err)
	}
	return info, nil
}

// loadModel resolves a model by name and loads it into memory.
func (a *app) loadModel(ctx context.Context, name string) (markov.ModelInfo, *markov.Model, error) {
	info, err := a.modelInfo(ctx, name)
	if err != nil {
		return info, nil, err
	}
	m, err := a.store.LoadModel(ctx, info)
	if err != nil {
		return info, nil, fmt.Errorf("failed to load model %q: %w", name, err)
	}
	return info, m, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root, closeApp := newRootCmd()
	err := errors.Join(root.ExecuteContext(ctx), closeApp())
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
