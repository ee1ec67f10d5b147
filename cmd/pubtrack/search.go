package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/pubtrack/internal/publication"
	"github.com/matsen/pubtrack/internal/storage"
)

var (
	searchLimit    int
	searchAuthors  []string
	searchProject  string
	searchYear     string
	searchYearFrom int
	searchYearTo   int
	searchDOI      string
)

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", DefaultSearchLimit, "Maximum results to return")
	searchCmd.Flags().StringArrayVarP(&searchAuthors, "author", "a", nil, "Roster author id (repeatable, AND logic)")
	searchCmd.Flags().StringVarP(&searchProject, "project", "p", "", "Roster project id")
	searchCmd.Flags().StringVar(&searchYear, "year", "", "Year: exact (2024), range (2020:2024), or open (2020: or :2024)")
	searchCmd.Flags().IntVar(&searchYearFrom, "year-from", 0, "Earliest publication year")
	searchCmd.Flags().IntVar(&searchYearTo, "year-to", 0, "Latest publication year")
	searchCmd.Flags().StringVar(&searchDOI, "doi", "", "Lookup by exact DOI")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the saved publication set",
	Long: `Search saved publications by keyword over title, authors and venue,
filtered by roster author, project and year.

Run 'pubtrack rebuild' first if the index is missing or stale.

Examples:
  pubtrack search "sleep spindles"
  pubtrack search -a jsmith -a adoe --year 2020:
  pubtrack search -p sleep --year-from 2018 --year-to 2022`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

// SearchResult is the response for the search command.
type SearchResult struct {
	Count        int                       `json:"count"`
	Publications []publication.Publication `json:"publications"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	filters := storage.SearchFilters{
		Authors:  searchAuthors,
		Project:  searchProject,
		YearFrom: searchYearFrom,
		YearTo:   searchYearTo,
		DOI:      publication.NormalizeDOI(searchDOI),
	}
	if len(args) > 0 {
		filters.Keyword = args[0]
	}
	if searchYear != "" {
		from, to, err := parseYearRange(searchYear)
		if err != nil {
			exitWithError(ExitError, "invalid year format: %v", err)
		}
		filters.YearFrom, filters.YearTo = from, to
	}

	root := mustFindRepository()
	db := mustOpenDatabase(root)
	defer db.Close()

	pubs, err := db.Search(filters, searchLimit)
	if err != nil {
		exitWithError(ExitError, "searching: %v", err)
	}
	if pubs == nil {
		pubs = []publication.Publication{}
	}

	if !humanOutput {
		return outputJSON(SearchResult{Count: len(pubs), Publications: pubs})
	}
	if len(pubs) == 0 {
		fmt.Println("No publications found")
		return nil
	}
	fmt.Printf("Found %d publication(s):\n\n", len(pubs))
	for i := range pubs {
		printPublicationHuman(i, &pubs[i])
	}
	return nil
}
