// Package batch implements the processing tools that map layer rows to PDOK
// queries: geocoder, reverse geocoder and elevation.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/arbakker/pdok-services/internal/metrics"

	"github.com/pkg/errors"
	"github.com/sourcegraph/conc/pool"
)

// ProcessingError is the single failure a tool run reports. Err carries the
// stack of the failing row; print it with %+v.
type ProcessingError struct {
	Tool string
	Err  error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("unexpected error occurred while running %s: %v", e.Tool, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

func (e *ProcessingError) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		_, _ = fmt.Fprintf(s, "unexpected error occurred while running %s: %+v", e.Tool, e.Err)
		return
	}
	_, _ = fmt.Fprint(s, e.Error())
}

// RowFunc processes one feature. A nil feature without error drops the row
// from the output.
type RowFunc func(ctx context.Context, index int, f Feature) (*Feature, error)

// Runner applies a RowFunc to every feature of a layer with bounded
// concurrency. The first failing row cancels the rest.
type Runner struct {
	concurrency int
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

func NewRunner(concurrency int, m *metrics.Metrics, logger *slog.Logger) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		concurrency: concurrency,
		metrics:     m,
		logger:      logger.With("component", "batch"),
	}
}

// Run returns the produced features in input order.
func (r *Runner) Run(ctx context.Context, tool string, features []Feature, fn RowFunc) ([]Feature, error) {
	start := time.Now()
	results := make([]*Feature, len(features))
	var done atomic.Int64

	p := pool.New().
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError().
		WithMaxGoroutines(r.concurrency)

	for i, f := range features {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}

			out, err := callRow(ctx, fn, i, f)
			if err != nil {
				r.metrics.ObserveRow(tool, "error")
				return errors.WithMessagef(err, "row %d", i+1)
			}
			if out == nil {
				r.metrics.ObserveRow(tool, "skipped")
			} else {
				r.metrics.ObserveRow(tool, "ok")
			}
			results[i] = out

			if n := done.Add(1); n%100 == 0 {
				r.logger.Info("progress", "tool", tool, "rows", n, "total", len(features))
			}
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		r.logger.Error("processing failed", "tool", tool, "error", err)
		return nil, &ProcessingError{Tool: tool, Err: err}
	}

	out := make([]Feature, 0, len(features))
	for _, f := range results {
		if f != nil {
			out = append(out, *f)
		}
	}
	r.logger.Info("processing finished",
		"tool", tool,
		"rows", len(features),
		"written", len(out),
		"elapsed", time.Since(start),
	)
	return out, nil
}

// callRow runs fn and turns a panic into an error. Errors get a stack
// attached at this point.
func callRow(ctx context.Context, fn RowFunc, i int, f Feature) (out *Feature, err error) {
	defer func() {
		if p := recover(); p != nil {
			out, err = nil, errors.Errorf("panic: %v", p)
		}
	}()
	out, err = fn(ctx, i, f)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return out, nil
}
