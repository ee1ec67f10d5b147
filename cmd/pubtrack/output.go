package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/matsen/pubtrack/internal/publication"
)

const (
	DefaultSearchLimit = 50
	TitleMaxLen        = 70
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
	Count  int    `json:"count,omitempty"`
}

// truncateString truncates a string to maxLen runes, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

// formatAuthorsShort formats authors as "Last F" with "et al." beyond maxCount.
func formatAuthorsShort(authors []publication.Author, maxCount int) string {
	var names []string
	for i, a := range authors {
		if i >= maxCount {
			names = append(names, "et al.")
			break
		}
		if initials := a.GivenInitials(); initials != "" {
			names = append(names, a.Last+" "+initials)
		} else {
			names = append(names, a.Last)
		}
	}
	return strings.Join(names, ", ")
}

// printPublicationHuman prints a one-entry summary.
func printPublicationHuman(i int, p *publication.Publication) {
	year := "n.d."
	if p.Year() > 0 {
		year = strconv.Itoa(p.Year())
	}
	fmt.Printf("%d. %s\n", i+1, p.ID)
	fmt.Printf("   %s\n", truncateString(p.Title, TitleMaxLen))
	fmt.Printf("   %s (%s)\n", formatAuthorsShort(p.Authors, 3), year)
	if len(p.MatchedAuthors) > 0 {
		fmt.Printf("   roster: %s\n", strings.Join(p.MatchedAuthors, ", "))
	}
	fmt.Println()
}

// parseYearRange parses "2024", "2020:2024", "2020:" or ":2024". Zero
// means unbounded.
func parseYearRange(yearRange string) (from, to int, err error) {
	yearRange = strings.TrimSpace(yearRange)
	if yearRange == "" {
		return 0, 0, nil
	}
	lo, hi, isRange := strings.Cut(yearRange, ":")
	if !isRange {
		y, err := strconv.Atoi(yearRange)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid year %q", yearRange)
		}
		return y, y, nil
	}
	if lo = strings.TrimSpace(lo); lo != "" {
		if from, err = strconv.Atoi(lo); err != nil {
			return 0, 0, fmt.Errorf("invalid start year %q", lo)
		}
	}
	if hi = strings.TrimSpace(hi); hi != "" {
		if to, err = strconv.Atoi(hi); err != nil {
			return 0, 0, fmt.Errorf("invalid end year %q", hi)
		}
	}
	return from, to, nil
}
