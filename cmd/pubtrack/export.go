package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/pubtrack/internal/config"
	"github.com/matsen/pubtrack/internal/publication"
	"github.com/matsen/pubtrack/internal/report"
	"github.com/matsen/pubtrack/internal/storage"
)

var (
	exportAuthor string
	exportAppend string
)

func init() {
	exportCmd.Flags().StringVarP(&exportAuthor, "author", "a", "", "Only publications matched to this roster author id")
	exportCmd.Flags().StringVar(&exportAppend, "append", "", "Append to this .bib file, skipping entries already present by DOI or key")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the saved publication set as BibTeX",
	Long: `Write the saved publication set as BibTeX to stdout, or append the
entries missing from an existing .bib file with --append.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	root := mustFindRepository()
	saved, err := storage.ReadAll(config.PublicationsPath(root))
	if err != nil {
		exitWithError(exitCodeFor(err), "loading saved publications: %v", err)
	}

	var pubs []*publication.Publication
	for i := range saved {
		if exportAuthor == "" || saved[i].HasMatchedAuthor(exportAuthor) {
			pubs = append(pubs, &saved[i])
		}
	}

	if exportAppend == "" {
		fmt.Fprint(os.Stdout, report.ToBibTeXList(pubs))
		return nil
	}

	n, err := report.AppendBibTeX(exportAppend, pubs)
	if err != nil {
		exitWithError(ExitError, "appending to %s: %v", exportAppend, err)
	}
	if humanOutput {
		fmt.Printf("Appended %d entries to %s (%d already present)\n", n, exportAppend, len(pubs)-n)
	} else {
		outputJSON(StatusResponse{Status: "appended", Path: exportAppend, Count: n})
	}
	return nil
}
