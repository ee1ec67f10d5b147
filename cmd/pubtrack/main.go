// Package main provides the pubtrack CLI entry point.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/pubtrack/internal/config"
	"github.com/matsen/pubtrack/internal/reconcile"
	"github.com/matsen/pubtrack/internal/roster"
	"github.com/matsen/pubtrack/internal/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	humanOutput bool
	configFile  string
	repoFlag    string
)

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		// SilenceErrors is set, so cobra usage errors are printed here
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pubtrack",
	Short: "Track publications of a research group from citation lists",
	Long: `pubtrack parses citation lists, Word documents, PDFs, MEDLINE exports
and structured records, matches their authors against a roster of
researchers and keeps a deduplicated publication set per author and project.

The saved set lives in .pubtrack/publications.jsonl with an SQLite index
for search. All commands output JSON by default.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: pubtrack.yaml in .pubtrack/, the repository root or ~/.config/pubtrack)")
	rootCmd.PersistentFlags().StringVar(&repoFlag, "repo", "", "Repository root (default: search upward from the working directory)")
	rootCmd.Version = Version
}

// mustFindRepository finds the repository root, exits on error.
func mustFindRepository() string {
	start := repoFlag
	if start == "" {
		cwd, err := os.Getwd()
		if err != nil {
			exitWithError(ExitError, "getting current directory: %v", err)
		}
		start = cwd
	}
	root, err := config.FindRepository(start)
	if err != nil {
		exitWithError(ExitConfigError, "%v\n\nRun 'pubtrack init' to create one.", err)
	}
	return root
}

// mustLoadConfig loads configuration and installs the global logger, exits
// on error. root may be empty outside a repository.
func mustLoadConfig(root string) *config.Config {
	cfg, err := config.Load(configFile, config.SearchDirs(root)...)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	if _, err := config.InitLogger(cfg.Log); err != nil {
		exitWithError(ExitConfigError, "initializing logger: %v", err)
	}
	return cfg
}

// mustLoadRoster loads the repository roster, exits on error.
func mustLoadRoster(root string) *roster.Roster {
	r, err := roster.Load(config.RosterPath(root))
	if err != nil {
		exitWithError(exitCodeFor(err), "loading roster: %v", err)
	}
	return r
}

// mustOpenDatabase opens the SQLite index, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenDatabase(root string) *storage.DB {
	if err := os.MkdirAll(config.CachePath(root), 0755); err != nil {
		exitWithError(ExitError, "creating cache directory: %v", err)
	}
	db, err := storage.OpenDB(config.DBPath(root))
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}

// exitCodeFor maps an error to the exit code contract: missing or invalid
// configuration is a config error, bad roster or saved state is a data
// error.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, config.ErrNoRepository),
		errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, roster.ErrNoRoster):
		return ExitConfigError
	case errors.Is(err, storage.ErrCorruptState),
		errors.Is(err, reconcile.ErrInvalidAnchor),
		errors.Is(err, roster.ErrEmptyRoster),
		errors.Is(err, roster.ErrEmptyID),
		errors.Is(err, roster.ErrInvalidID),
		errors.Is(err, roster.ErrEmptyName),
		errors.Is(err, roster.ErrInvalidORCID),
		errors.Is(err, roster.ErrDuplicateID),
		errors.Is(err, roster.ErrProjectNotFound),
		errors.Is(err, roster.ErrAuthorNotFound):
		return ExitDataError
	}
	return ExitError
}

func commandLogger(name string) *zap.Logger {
	return zap.L().With(zap.String("command", name))
}
