package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/pubtrack/internal/config"
	"github.com/matsen/pubtrack/internal/match"
	"github.com/matsen/pubtrack/internal/roster"
	"github.com/matsen/pubtrack/internal/storage"
)

func init() {
	rosterCmd.AddCommand(rosterCheckCmd)
	rootCmd.AddCommand(rosterCmd)
}

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Inspect the roster",
}

var rosterCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the roster and list the name variants seen for each author",
	Long: `Validate .pubtrack/roster.yaml and match the authors of every saved
publication against it, listing for each roster author the spellings that
matched. Spellings missing from the author's variants are worth adding.`,
	Args: cobra.NoArgs,
	RunE: runRosterCheck,
}

// RosterAuthorStatus is one row of the roster check.
type RosterAuthorStatus struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Projects        []string `json:"projects"`
	Publications    int      `json:"publications"`
	MatchedVariants []string `json:"matched_variants"`
	Unlisted        []string `json:"unlisted"` // Matched spellings not among the variants
}

// RosterCheckResult is the response for the roster check command.
type RosterCheckResult struct {
	Status   string               `json:"status"`
	Authors  []RosterAuthorStatus `json:"authors"`
	Projects int                  `json:"projects"`
}

func runRosterCheck(cmd *cobra.Command, args []string) error {
	root := mustFindRepository()
	cfg := mustLoadConfig(root)
	r := mustLoadRoster(root)

	saved, err := storage.ReadAll(config.PublicationsPath(root))
	if err != nil {
		exitWithError(exitCodeFor(err), "loading saved publications: %v", err)
	}

	m := match.NewMatcher(
		match.WithThresholds(cfg.Match.AcceptThreshold, cfg.Match.FuzzyThreshold),
		match.WithRequireAffiliation(cfg.Match.RequireAffiliation),
	)
	counts := make(map[string]int)
	for i := range saved {
		for _, res := range match.WithStatus(m.Match(saved[i].Authors, r), match.StatusAccepted) {
			res.Candidate.RecordVariant(res.Token.FullName())
		}
		for _, aid := range saved[i].MatchedAuthors {
			counts[aid]++
		}
	}

	res := RosterCheckResult{Status: "ok", Projects: len(r.Projects)}
	for _, a := range r.Authors {
		res.Authors = append(res.Authors, RosterAuthorStatus{
			ID:              a.ID,
			Name:            a.CanonicalName(),
			Projects:        nonNil(r.ProjectsFor(a.ID)),
			Publications:    counts[a.ID],
			MatchedVariants: nonNil(a.MatchedVariants),
			Unlisted:        unlisted(a),
		})
	}

	if !humanOutput {
		return outputJSON(res)
	}
	fmt.Printf("Roster OK: %d authors, %d projects\n\n", len(r.Authors), len(r.Projects))
	fmt.Printf("%-12s %-24s %5s  %s\n", "ID", "NAME", "PUBS", "MATCHED SPELLINGS")
	for _, a := range res.Authors {
		spellings := strings.Join(a.MatchedVariants, "; ")
		if len(a.Unlisted) > 0 {
			spellings += fmt.Sprintf("  (unlisted: %s)", strings.Join(a.Unlisted, "; "))
		}
		fmt.Printf("%-12s %-24s %5d  %s\n", a.ID, truncateString(a.Name, 24), a.Publications, spellings)
	}
	return nil
}

// unlisted returns matched spellings that are neither the canonical name
// nor a declared variant, compared after normalization.
func unlisted(a *roster.Author) []string {
	known := make(map[string]bool)
	for _, n := range a.Names() {
		known[match.Normalize(n)] = true
	}
	out := []string{}
	for _, v := range a.MatchedVariants {
		if !known[match.Normalize(v)] {
			out = append(out, v)
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
