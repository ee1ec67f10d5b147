package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/pubtrack/internal/config"
	"github.com/matsen/pubtrack/internal/crossref"
	"github.com/matsen/pubtrack/internal/match"
	"github.com/matsen/pubtrack/internal/reconcile"
	"github.com/matsen/pubtrack/internal/report"
	"github.com/matsen/pubtrack/internal/storage"
	"github.com/matsen/pubtrack/internal/tracker"
)

var (
	trackCitations []string
	trackRecords   []string
	trackLookup    bool
	trackOut       string
	trackFormat    string
	trackSave      bool
)

func init() {
	trackCmd.Flags().StringArrayVarP(&trackCitations, "citations", "c", nil, "Citation file: .txt, .docx, .pdf or MEDLINE (repeatable)")
	trackCmd.Flags().StringArrayVarP(&trackRecords, "records", "r", nil, "Structured records JSON, generic or Crossref (repeatable)")
	trackCmd.Flags().BoolVar(&trackLookup, "lookup", false, "Look citations up on Crossref before reconciling")
	trackCmd.Flags().StringVarP(&trackOut, "out", "o", "pubtrack-report", "Report directory")
	trackCmd.Flags().StringVar(&trackFormat, "format", "", "Report format: json, csv or xlsx (default from config)")
	trackCmd.Flags().BoolVar(&trackSave, "save", false, "Write the updated publication set and rebuild the index")
	rootCmd.AddCommand(trackCmd)
}

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Match citations to the roster and update the publication set",
	Long: `Run the full pipeline: tokenize citation files, read structured records,
match authors against the roster, reconcile with the saved publication set
and write a report with the new and known publications, per-author and
per-project views and the citations that need review.

Without --save the saved set is left untouched.

Examples:
  pubtrack track -c cv_smith.txt -c reprints.pdf
  pubtrack track -r crossref.json --format xlsx -o reports/2024
  pubtrack track -c medline.nbib --lookup --save`,
	RunE: runTrack,
}

// TrackResult is the response for the track command.
type TrackResult struct {
	RunID   string         `json:"run_id"`
	Summary report.Summary `json:"summary"`
	Files   []string       `json:"files"`
	Saved   bool           `json:"saved"`
}

func runTrack(cmd *cobra.Command, args []string) error {
	if len(trackCitations) == 0 && len(trackRecords) == 0 {
		exitWithError(ExitError, "nothing to track: pass --citations or --records")
	}

	root := mustFindRepository()
	cfg := mustLoadConfig(root)
	log := commandLogger("track")
	r := mustLoadRoster(root)

	anchors, err := storage.ReadAll(config.PublicationsPath(root))
	if err != nil {
		exitWithError(exitCodeFor(err), "loading saved publications: %v", err)
	}

	opts := []tracker.Option{
		tracker.WithLogger(log),
		tracker.WithMatcher(match.NewMatcher(
			match.WithThresholds(cfg.Match.AcceptThreshold, cfg.Match.FuzzyThreshold),
			match.WithRequireAffiliation(cfg.Match.RequireAffiliation),
		)),
		tracker.WithTitleThreshold(cfg.Reconcile.TitleThreshold),
		tracker.WithReconcileOptions(
			reconcile.WithTitleThreshold(cfg.Reconcile.TitleThreshold),
			reconcile.WithYearTolerance(cfg.Reconcile.YearTolerance),
		),
	}
	if trackLookup {
		client := crossref.NewClient(
			crossref.WithBaseURL(cfg.Crossref.BaseURL),
			crossref.WithMailto(cfg.Crossref.Mailto),
			crossref.WithRate(cfg.Crossref.Rate),
			crossref.WithMaxRetries(cfg.Crossref.MaxRetries),
			crossref.WithTitleThreshold(cfg.Reconcile.TitleThreshold),
			crossref.WithLogger(log),
		)
		opts = append(opts, tracker.WithLookup(client, cfg.Crossref.Concurrency))
	}

	session, err := tracker.New(r, anchors, opts...)
	if err != nil {
		exitWithError(exitCodeFor(err), "starting run: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	for _, path := range trackCitations {
		if err := session.TrackFile(ctx, path); err != nil {
			exitWithError(ExitError, "tracking %s: %v", path, err)
		}
	}
	for _, path := range trackRecords {
		if err := session.TrackRecordsFile(ctx, path); err != nil {
			exitWithError(ExitError, "tracking %s: %v", path, err)
		}
	}

	rep := session.Report()
	format := trackFormat
	if format == "" {
		format = cfg.Report.Format
	}
	files, err := report.Write(trackOut, format, rep)
	if err != nil {
		exitWithError(ExitError, "writing report: %v", err)
	}

	if trackSave {
		if err := save(root, session); err != nil {
			exitWithError(ExitError, "saving publications: %v", err)
		}
		log.Info("saved publication set", zap.Int("publications", len(session.Publications())))
	}

	if humanOutput {
		s := rep.Summary
		fmt.Printf("Run %s\n", rep.RunID)
		fmt.Printf("  %d inputs, %d tokenized, %d failed\n", s.Inputs, s.Tokenized, s.Failed)
		fmt.Printf("  %d new, %d known, %d merged, %d conflicts\n", s.Created, s.Known, s.Merged, s.Conflicts)
		fmt.Printf("  %d item(s) need review\n", s.NeedReview)
		for _, f := range files {
			fmt.Printf("  wrote %s\n", f)
		}
		if trackSave {
			fmt.Printf("  saved %s\n", config.PublicationsPath(root))
		}
		return nil
	}
	return outputJSON(TrackResult{RunID: rep.RunID, Summary: rep.Summary, Files: files, Saved: trackSave})
}

// save rewrites the saved set, since known publications may have gained
// roster authors, and refreshes the index.
func save(root string, s *tracker.Session) error {
	pubs := s.Publications()
	if err := storage.WriteAll(config.PublicationsPath(root), pubs); err != nil {
		return err
	}
	db := mustOpenDatabase(root)
	defer db.Close()
	return db.Replace(pubs)
}
