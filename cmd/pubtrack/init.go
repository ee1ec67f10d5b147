package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/pubtrack/internal/config"
)

const exampleRoster = `# Researchers whose publications are tracked.
authors:
  - id: jsmith
    first_name: John
    last_name: Smith
    variants:
      - J. A. Smith
      - Smith JA
    affiliations:
      - University of Somewhere
    orcid: 0000-0002-1825-0097
    projects: [sleep]

# Projects group authors for reporting. A project without members is open
# to every author; cutoff_year drops publications from before that year.
projects:
  - id: sleep
    name: Sleep and memory
    grants: [R01-000000]
    cutoff_year: 2015
`

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create a new pubtrack repository",
	Long: `Create .pubtrack/ in dir (default: the working directory) with an empty
publication set and an example roster to edit.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		exitWithError(ExitError, "creating %s: %v", root, err)
	}
	if err := config.InitRepository(root, []byte(exampleRoster)); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		fmt.Printf("Initialized pubtrack repository in %s\n", config.RepoPath(root))
		fmt.Printf("Edit %s to list your researchers.\n", config.RosterPath(root))
	} else {
		outputJSON(StatusResponse{Status: "initialized", Path: config.RepoPath(root)})
	}
	return nil
}
