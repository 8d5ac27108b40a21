// Package session runs one import over a batch of class units: units are read
// in parallel, then assembled single-threaded into a frozen domain graph.
package session

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"classgraph/internal/assembler"
	"classgraph/internal/classfile"
	"classgraph/internal/domain"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one import.
type Result struct {
	Graph       *domain.Graph
	Diagnostics []Diagnostic
	Stats       assembler.Stats
}

// DiagnosticsOf returns the diagnostics of one kind in report order.
func (r *Result) DiagnosticsOf(kind DiagnosticKind) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

type options struct {
	workers          int
	logger           logr.Logger
	cache            *DescriptorCache
	includeInvisible bool
}

type Option func(*options)

// WithWorkers bounds the number of units read concurrently. Values below one
// use GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

func WithLogger(l logr.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithCache reuses parsed descriptors across imports.
func WithCache(c *DescriptorCache) Option {
	return func(o *options) { o.cache = c }
}

// WithIncludeInvisible controls whether class-retention annotations are kept.
// They are kept by default.
func WithIncludeInvisible(include bool) Option {
	return func(o *options) { o.includeInvisible = include }
}

// Import reads and assembles units. Per-unit failures become diagnostics and
// never abort the batch. Cancelling ctx stops the import only while units are
// being read; Import then returns ctx.Err() and no result. Duplicate unit
// names are reported and only the first unit with a name is imported.
func Import(ctx context.Context, units []Unit, opts ...Option) (*Result, error) {
	o := options{logger: logr.Discard(), includeInvisible: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = runtime.GOMAXPROCS(0)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	res := &Result{}
	accepted := make([]Unit, 0, len(units))
	seen := make(map[string]bool, len(units))
	for _, u := range units {
		if seen[u.Name] {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Unit:    u.Name,
				Kind:    DuplicateImport,
				Message: fmt.Sprintf("unit name %s appears more than once in the batch", u.Name),
			})
			continue
		}
		seen[u.Name] = true
		accepted = append(accepted, u)
	}

	raws, errs, err := readAll(ctx, accepted, o)
	if err != nil {
		return nil, err
	}
	o.logger.V(1).Info("read units", "units", len(accepted), "workers", o.workers, "elapsed", time.Since(start))

	batch := make([]*classfile.RawClass, 0, len(raws))
	for i, u := range accepted {
		if errs[i] != nil {
			res.Diagnostics = append(res.Diagnostics, readDiagnostic(u.Name, errs[i]))
			o.logger.V(1).Info("skipped unreadable unit", "unit", u.Name, "error", errs[i].Error())
			continue
		}
		batch = append(batch, raws[i])
	}

	reg := domain.NewRegistry()
	ar := assembler.Assemble(reg, batch, assembler.Options{
		IncludeInvisible: o.includeInvisible,
		Logger:           o.logger,
	})
	for _, issue := range ar.Issues {
		res.Diagnostics = append(res.Diagnostics, issueDiagnostic(issue))
	}
	res.Stats = ar.Stats
	res.Stats.Units = len(units)
	res.Graph = reg.Freeze()

	o.logger.Info("import finished",
		"units", len(units),
		"classes", len(res.Graph.Classes()),
		"diagnostics", len(res.Diagnostics),
		"elapsed", time.Since(start))
	return res, nil
}

// readAll parses units on a bounded worker pool. Slot i of the returned slices
// belongs to units[i]; a unit either has a descriptor or an error. The error
// return is non-nil only when ctx was cancelled.
func readAll(ctx context.Context, units []Unit, o options) ([]*classfile.RawClass, []error, error) {
	raws := make([]*classfile.RawClass, len(units))
	errs := make([]error, len(units))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, u := range units {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := u.read()
			if err != nil {
				errs[i] = err
				return nil
			}
			if o.cache != nil {
				raws[i], errs[i] = o.cache.Parse(u.Name, data)
			} else {
				raws[i], errs[i] = classfile.Parse(u.Name, data)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return raws, errs, nil
}
