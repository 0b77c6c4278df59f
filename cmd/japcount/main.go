package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aayushbajaj/japcount/internal/config"
	"github.com/aayushbajaj/japcount/internal/counter"
	"github.com/aayushbajaj/japcount/internal/storage"
	"github.com/aayushbajaj/japcount/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath string
	dbPath     string
	verbose    bool

	fileCfg config.FileConfig
	logger  = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "japcount",
	Short: "Naam jap counter - tally your daily chanting",
	Long: `A tally counter for naam jap. Tracks lifetime and daily counts against a
daily goal, keeps a streak, unlocks milestones and charts your history.

Run without arguments to open the interactive counter.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		fileCfg, err = config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		applyStringConfig(cmd, "db", &dbPath, fileCfg.Storage.Path)

		logger, err = newLogger(cmd)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath(), "Path to the TOML config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", config.DefaultDBPath(), "Path to the SQLite database")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger builds the zap logger for cmd. The interactive counter owns the
// terminal, so it logs to a file; everything else logs to stderr.
func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	interactive := !cmd.HasParent()

	level := zapcore.WarnLevel
	if interactive || cmd.Name() == "serve" {
		level = zapcore.InfoLevel
	}
	if fileCfg.Log.Level != nil {
		parsed, err := zapcore.ParseLevel(*fileCfg.Log.Level)
		if err != nil {
			return nil, err
		}
		level = parsed
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	if interactive {
		dir := config.DefaultLogDir()
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
		path := filepath.Join(dir, "japcount.log")
		cfg.OutputPaths = []string{path}
		cfg.ErrorOutputPaths = []string{path}
	}
	return cfg.Build()
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

// openCounter opens the store and loads the counter from it. Call the
// returned func to close the store.
func openCounter() (*counter.Counter, func(), error) {
	opts, err := config.CounterOptions(fileCfg, logger)
	if err != nil {
		return nil, nil, err
	}

	store, closeFn, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	return counter.New(store, opts...), closeFn, nil
}

func openStore() (*storage.Store, func(), error) {
	store, err := storage.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open storage: %w", err)
	}
	logger.Debug("Storage opened", zap.String("path", dbPath))

	closeFn := func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close storage", zap.Error(err))
		}
	}
	return store, closeFn, nil
}

func runTUI() error {
	c, closeStore, err := openCounter()
	if err != nil {
		return err
	}
	defer closeStore()

	p := tea.NewProgram(tui.New(c), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}
