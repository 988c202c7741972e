package build

import (
	"fmt"
	"strings"

	"auto-i18n/internal/cache"
	"auto-i18n/internal/collect"
	"auto-i18n/internal/engine"
	"auto-i18n/internal/syntax"
)

// UnitResult is the outcome of rewriting one unit.
type UnitResult struct {
	Unit    string
	Tree    []byte
	Phrases *collect.Table
	// NeedsImport is set when the unit now calls the translate function and
	// the host must make it available.
	NeedsImport bool
	// Disabled units carry the disable marker and are left untouched.
	Disabled bool
	Cached   bool
	// CacheKey is set when the result went through a cache.
	CacheKey string
}

// Rewriter rewrites unit documents with an engine.
type Rewriter struct {
	eng         *engine.Engine
	marker      string
	fingerprint string
}

// NewRewriter creates a Rewriter. Units whose comments contain marker are
// skipped; an empty marker disables the check.
func NewRewriter(eng *engine.Engine, marker string) *Rewriter {
	return &Rewriter{
		eng:         eng,
		marker:      marker,
		fingerprint: fingerprint(eng.Options(), marker),
	}
}

// Fingerprint identifies the rule configuration. Cached results are only
// valid for an identical fingerprint.
func (r *Rewriter) Fingerprint() string {
	return r.fingerprint
}

func fingerprint(opts engine.Options, marker string) string {
	table := opts.Detector.Table()
	return fmt.Sprintf("%s|%t|%t|%s|%s|%v|%v",
		opts.TranslateFunc,
		opts.EnableConcatenation,
		opts.EnableDirectiveFilter,
		opts.BuilderMethod,
		marker,
		table.R16,
		table.R32,
	)
}

// Rewrite decodes data, applies the rules and re-encodes the tree.
func (r *Rewriter) Rewrite(unit string, data []byte) (*UnitResult, error) {
	root, err := syntax.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("unit %s: %w", unit, err)
	}

	if r.marker != "" && HasMarker(root, r.marker) {
		return &UnitResult{
			Unit:     unit,
			Tree:     data,
			Phrases:  collect.NewTable(),
			Disabled: true,
		}, nil
	}

	table := collect.NewTable()
	root, err = r.eng.Run(root, table.Collect)
	if err != nil {
		return nil, fmt.Errorf("unit %s: %w", unit, err)
	}

	tree, err := syntax.Encode(root)
	if err != nil {
		return nil, fmt.Errorf("unit %s: %w", unit, err)
	}

	return &UnitResult{
		Unit:        unit,
		Tree:        tree,
		Phrases:     table,
		NeedsImport: table.Len() > 0,
	}, nil
}

// RewriteCached consults c before rewriting and stores fresh results in it.
func (r *Rewriter) RewriteCached(c *cache.UnitCache, unit string, data []byte) (*UnitResult, error) {
	key := cache.Key(data, r.fingerprint)
	if e, ok := c.Get(key); ok {
		table := collect.FromPhrases(e.Phrases)
		return &UnitResult{
			Unit:        unit,
			Tree:        e.Tree,
			Phrases:     table,
			NeedsImport: table.Len() > 0,
			Disabled:    e.Disabled,
			Cached:      true,
			CacheKey:    key,
		}, nil
	}

	res, err := r.Rewrite(unit, data)
	if err != nil {
		return nil, err
	}
	if err := c.Set(key, cache.Entry{
		Tree:     res.Tree,
		Phrases:  res.Phrases.Phrases(),
		Disabled: res.Disabled,
	}); err != nil {
		return nil, fmt.Errorf("unit %s: %w", unit, err)
	}
	res.CacheKey = key
	return res, nil
}

// HasMarker reports whether any comment in the tree contains marker.
func HasMarker(root syntax.Node, marker string) bool {
	found := false
	syntax.Walk(root, func(n syntax.Node) bool {
		if found {
			return false
		}
		g, ok := n.(*syntax.Generic)
		if !ok {
			return true
		}
		if g.Type == "CommentLine" || g.Type == "CommentBlock" {
			if strings.Contains(g.String("value"), marker) {
				found = true
			}
			return false
		}
		return true
	})
	return found
}
