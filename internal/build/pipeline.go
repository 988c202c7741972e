// Package build runs the rewrite rules over a tree of units and joins the
// extracted phrases with the translation table.
package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"auto-i18n/internal/cache"
	"auto-i18n/internal/collect"
	"auto-i18n/internal/filewalker"
	"auto-i18n/internal/locale"
	"auto-i18n/internal/reconcile"
	"auto-i18n/internal/sheet"
	"auto-i18n/internal/worker"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ErrUnitsFailed is returned when units failed and KeepGoing was not set.
var ErrUnitsFailed = errors.New("units failed")

// Options configures a Pipeline.
type Options struct {
	Workers int
	// OutDir receives rewritten units under their unit path. Empty means no
	// output is written.
	OutDir string
	// KeepGoing skips failed units instead of failing the run.
	KeepGoing bool
	// Cache is consulted per unit when set.
	Cache *cache.UnitCache
}

// UnitError records a unit that could not be rewritten.
type UnitError struct {
	Unit string
	Err  error
}

// Extraction is the outcome of rewriting every unit under a root.
type Extraction struct {
	Units     []*UnitResult
	Failed    []UnitError
	Registry  *collect.Registry
	Aggregate *collect.Table
}

// Pipeline walks units, rewrites them concurrently and aggregates phrases.
type Pipeline struct {
	walker   *filewalker.Walker
	rewriter *Rewriter
	opts     Options
}

// NewPipeline creates a Pipeline.
func NewPipeline(w *filewalker.Walker, r *Rewriter, opts Options) *Pipeline {
	return &Pipeline{walker: w, rewriter: r, opts: opts}
}

func (p *Pipeline) process(ctx context.Context, entry filewalker.FileEntry) (*UnitResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(entry.Path)
	if err != nil {
		return nil, fmt.Errorf("read unit %s: %w", entry.Unit, err)
	}

	var res *UnitResult
	if p.opts.Cache != nil {
		res, err = p.rewriter.RewriteCached(p.opts.Cache, entry.Unit, data)
	} else {
		res, err = p.rewriter.Rewrite(entry.Unit, data)
	}
	if err != nil {
		return nil, err
	}

	if p.opts.OutDir != "" {
		if err := writeUnit(p.opts.OutDir, res); err != nil {
			return nil, err
		}
	}

	log.Debug().
		Str("unit", res.Unit).
		Int("phrases", res.Phrases.Len()).
		Bool("cached", res.Cached).
		Bool("disabled", res.Disabled).
		Bool("needs_import", res.NeedsImport).
		Msg("Unit rewritten")
	return res, nil
}

func writeUnit(outDir string, res *UnitResult) error {
	outPath := filepath.Join(outDir, filepath.FromSlash(res.Unit))
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(outPath, res.Tree, 0644); err != nil {
		return fmt.Errorf("write unit %s: %w", res.Unit, err)
	}
	return nil
}

// Extract rewrites every unit under root. Unit tables are registered and
// aggregated in unit order, so the aggregate does not depend on scheduling.
func (p *Pipeline) Extract(ctx context.Context, root string) (*Extraction, error) {
	entries, err := p.walker.Walk(root)
	if err != nil {
		return nil, err
	}

	pool := worker.NewPool(p.opts.Workers, p.process)
	tasks := pool.Execute(ctx, entries)

	out := &Extraction{Registry: collect.NewRegistry()}
	var active []string
	for _, task := range tasks {
		if task.Err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			out.Failed = append(out.Failed, UnitError{Unit: task.Input.Unit, Err: task.Err})
			continue
		}
		out.Units = append(out.Units, task.Result)
		out.Registry.Replace(task.Result.Unit, task.Result.Phrases)
		active = append(active, task.Result.Unit)
	}

	for _, f := range out.Failed {
		log.Warn().Err(f.Err).Str("unit", f.Unit).Msg("Unit skipped")
	}
	if len(out.Failed) > 0 && !p.opts.KeepGoing {
		return nil, fmt.Errorf("%w: %d of %d, first %s: %w",
			ErrUnitsFailed, len(out.Failed), len(entries), out.Failed[0].Unit, out.Failed[0].Err)
	}

	out.Aggregate = out.Registry.Aggregate(active)

	log.Info().
		Int("units", len(out.Units)).
		Int("failed", len(out.Failed)).
		Int("phrases", out.Aggregate.Len()).
		Msg("Extraction complete")
	return out, nil
}

// RetainCache drops cache entries no unit of ext used. It does nothing when
// the pipeline has no cache or some units failed.
func (p *Pipeline) RetainCache(ext *Extraction) (int, error) {
	if p.opts.Cache == nil || len(ext.Failed) > 0 {
		return 0, nil
	}
	keep := make(map[string]struct{}, len(ext.Units))
	for _, u := range ext.Units {
		keep[u.CacheKey] = struct{}{}
	}
	return p.opts.Cache.Retain(keep)
}

// Build is the joined outcome of extraction and table decoding.
type Build struct {
	Extraction *Extraction
	// Table is nil when no table path was given.
	Table *locale.Table
	Diff  reconcile.Result
}

// Run extracts phrases under root while decoding the table at tablePath,
// then reconciles the aggregate against the table's base column.
func (p *Pipeline) Run(ctx context.Context, root, tablePath, defaultLocale string) (*Build, error) {
	g, gctx := errgroup.WithContext(ctx)

	var ext *Extraction
	g.Go(func() error {
		var err error
		ext, err = p.Extract(gctx, root)
		return err
	})

	var table *locale.Table
	if tablePath != "" {
		g.Go(func() error {
			var err error
			table, err = DecodeTable(tablePath, defaultLocale)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var baseline []string
	if table != nil {
		baseline = table.BaseTexts()
	}

	return &Build{
		Extraction: ext,
		Table:      table,
		Diff:       reconcile.Diff(ext.Aggregate.Texts(), baseline),
	}, nil
}

// DecodeTable opens and decodes a translation table file.
func DecodeTable(path, defaultLocale string) (*locale.Table, error) {
	grid, err := sheet.Open(path)
	if err != nil {
		return nil, err
	}
	table, err := locale.Decode(grid, defaultLocale)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return table, nil
}
