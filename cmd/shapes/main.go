package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jward/shapes"
	"github.com/jward/shapes/internal/config"
	"github.com/jward/shapes/internal/logging"
	"github.com/jward/shapes/scripts"
)

var (
	flagDB       string
	flagFormat   string
	flagConfig   string
	flagVerbose  bool
	flagNoRecord bool
)

var (
	cfg    = config.DefaultConfig()
	logger = zap.NewNop()

	// stdout receives command results. Tests swap it for a buffer.
	stdout io.Writer = os.Stdout
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "shapes",
	Short:         "Shape areas and first-character search with a recorded history",
	Long:          "Computes areas of circles, squares and rectangles, finds the first occurrence of a character in text, runs Risor scripts over both, and records every result to a SQLite history.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	// No Run: prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default: .shapes/history.db relative to repo root)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: .shapes/config.yaml relative to repo root)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging to stderr")
	rootCmd.PersistentFlags().BoolVar(&flagNoRecord, "no-record", false, "do not write results to the history")

	rootCmd.AddCommand(areaCmd)
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(historyCmd)
}

// setup loads the config, lets explicitly set flags override it, and builds
// the logger.
func setup(cmd *cobra.Command) error {
	repoRoot := currentRepoRoot()

	path := flagConfig
	if path == "" {
		path = filepath.Join(repoRoot, config.DefaultPath)
	}
	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	cfg = loaded

	if cmd.Flags().Changed("format") {
		cfg.Output.Format = flagFormat
	} else {
		flagFormat = cfg.Output.Format
	}
	if err := config.ValidateFormat(flagFormat); err != nil {
		return err
	}
	if flagNoRecord {
		cfg.Database.Record = false
	}

	logger, err = logging.New(cfg.Logging.Level, flagVerbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Debug("config loaded", zap.String("path", path), zap.String("format", flagFormat))
	return nil
}

// currentRepoRoot returns the repo root containing the working directory.
func currentRepoRoot() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return findRepoRoot(cwd)
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root without finding .git.
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath returns the database path from the --db flag, else the
// config, resolved against repoRoot when relative.
func resolveDBPath(repoRoot string) string {
	path := cfg.Database.Path
	if flagDB != "" {
		path = flagDB
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(repoRoot, path)
}

// openEngine creates an Engine for command, creating the database directory
// if needed.
func openEngine(command string, record bool) (*shapes.Engine, error) {
	dbPath := resolveDBPath(currentRepoRoot())
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err)
	}

	opts := []shapes.Option{
		shapes.WithLogger(logger),
		shapes.WithSource("cli:" + command),
		shapes.WithConcurrency(cfg.Batch.Concurrency),
		shapes.WithRecording(record),
	}

	// Script source: scripts.dir overrides embedded FS.
	scriptsDir := cfg.Scripts.Dir
	if scriptsDir == "" {
		opts = append(opts, shapes.WithScriptsFS(scripts.FS))
	}

	engine, err := shapes.New(dbPath, scriptsDir, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	return engine, nil
}
