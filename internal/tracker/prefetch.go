package tracker

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/matsen/pubtrack/internal/citation"
	"github.com/matsen/pubtrack/internal/crossref"
	"github.com/matsen/pubtrack/internal/source"
)

// DefaultConcurrency bounds in-flight lookups when none is configured.
const DefaultConcurrency = 4

// Lookuper fetches the external record for a tokenized citation.
// *crossref.Client implements it.
type Lookuper interface {
	Lookup(ctx context.Context, tok citation.Tokenized) (*source.Record, error)
}

// Prefetch looks up every citation concurrently. The returned slices are
// parallel to toks: a nil record with a nil error means nothing was found.
// Individual failures never abort the batch; only cancellation of ctx
// returns an error.
func Prefetch(ctx context.Context, l Lookuper, toks []citation.Tokenized, concurrency int, log *zap.Logger) ([]*source.Record, []error, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	recs := make([]*source.Record, len(toks))
	errs := make([]error, len(toks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var found, missing, failed atomic.Int64
	for i, tok := range toks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, err := l.Lookup(gctx, tok)
			switch {
			case err == nil:
				found.Add(1)
				recs[i] = rec
			case crossref.IsNotFound(err):
				missing.Add(1)
				log.Debug("no external record", zap.String("origin", tok.Origin))
			case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
				return err
			default:
				failed.Add(1)
				errs[i] = err
				log.Warn("lookup failed", zap.String("origin", tok.Origin), zap.Error(err))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, eris.Wrap(err, "prefetch")
	}

	log.Info("prefetch complete",
		zap.Int64("found", found.Load()),
		zap.Int64("not_found", missing.Load()),
		zap.Int64("failed", failed.Load()))
	return recs, errs, nil
}
