package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/pubtrack/internal/config"
)

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the search index from the saved publication set",
	Long: `Rebuild the SQLite index from .pubtrack/publications.jsonl.

Use this after pulling changes from git or if the index becomes corrupted.`,
	RunE: runRebuild,
}

func runRebuild(cmd *cobra.Command, args []string) error {
	root := mustFindRepository()
	db := mustOpenDatabase(root)
	defer db.Close()

	count, err := db.RebuildFromJSONL(config.PublicationsPath(root))
	if err != nil {
		exitWithError(exitCodeFor(err), "rebuilding index: %v", err)
	}

	if humanOutput {
		fmt.Printf("Rebuilt index with %d publications\n", count)
	} else {
		outputJSON(StatusResponse{Status: "rebuilt", Path: config.DBPath(root), Count: count})
	}
	return nil
}
