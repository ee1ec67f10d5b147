package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/pubtrack/internal/citation"
	"github.com/matsen/pubtrack/internal/match"
	"github.com/matsen/pubtrack/internal/reconcile"
	"github.com/matsen/pubtrack/internal/tracker"
)

func init() {
	rootCmd.AddCommand(tokenizeCmd)
}

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize FILE",
	Short: "Parse a citation file and print the tokenized citations",
	Long: `Parse a plain-text or Word citation list, a PDF reference section or a
MEDLINE export, and print each tokenized citation together with the lines that
could not be parsed and groups of duplicate citations.

Does not need a repository.`,
	Args: cobra.ExactArgs(1),
	RunE: runTokenize,
}

// TokenizeFailure is one citation that could not be tokenized.
type TokenizeFailure struct {
	Reason string `json:"reason"`
	Error  string `json:"error"`
}

// TokenizeResult is the response for the tokenize command.
type TokenizeResult struct {
	Citations  []citation.Tokenized `json:"citations"`
	Failures   []TokenizeFailure    `json:"failures"`
	Duplicates [][]string           `json:"duplicates,omitempty"` // Origins per group
}

func runTokenize(cmd *cobra.Command, args []string) error {
	toks, errs, err := tracker.Tokenize(args[0])
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	res := TokenizeResult{Citations: toks, Failures: []TokenizeFailure{}}
	if res.Citations == nil {
		res.Citations = []citation.Tokenized{}
	}
	for _, e := range errs {
		res.Failures = append(res.Failures, TokenizeFailure{Reason: citation.ReasonCode(e), Error: e.Error()})
	}
	sameTitle := func(a, b string) bool { return match.TitlesMatch(a, b, reconcile.DefaultTitleThreshold) }
	for _, group := range citation.FindDuplicates(toks, sameTitle) {
		origins := make([]string, len(group))
		for i, idx := range group {
			origins[i] = toks[idx].Origin
		}
		res.Duplicates = append(res.Duplicates, origins)
	}

	if !humanOutput {
		return outputJSON(res)
	}

	for _, t := range toks {
		fmt.Printf("%s [%s]\n", t.Origin, t.Style)
		fmt.Printf("   authors: %s\n", formatAuthorsShort(t.Authors, 6))
		fmt.Printf("   title:   %s\n", t.Title)
		if t.Year > 0 {
			fmt.Printf("   year:    %d\n", t.Year)
		}
		var ids []string
		for _, id := range []struct{ name, value string }{{"doi", t.DOI}, {"pmid", t.PMID}, {"pmcid", t.PMCID}} {
			if id.value != "" {
				ids = append(ids, id.name+":"+id.value)
			}
		}
		if len(ids) > 0 {
			fmt.Printf("   ids:     %s\n", strings.Join(ids, " "))
		}
	}
	if len(res.Failures) > 0 {
		fmt.Printf("\n%d citation(s) could not be parsed:\n", len(res.Failures))
		for _, f := range res.Failures {
			fmt.Printf("  [%s] %s\n", f.Reason, f.Error)
		}
	}
	for _, d := range res.Duplicates {
		fmt.Printf("\nduplicates: %s\n", strings.Join(d, ", "))
	}
	return nil
}
