// Package locale decodes translation spreadsheets into per-locale message
// tables and splits them into eagerly and lazily loaded bundles.
package locale

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"auto-i18n/internal/sheet"
	"auto-i18n/internal/textutil"

	"github.com/rs/zerolog/log"
)

// MaxColumns is the widest sheet accepted: columns A through Z.
const MaxColumns = 26

var (
	ErrTableTooWide      = errors.New("table has more than 26 columns")
	ErrMissingLocaleName = errors.New("missing locale name")
	ErrUnknownLocale     = errors.New("unknown locale")
	ErrDuplicateLocale   = errors.New("duplicate locale name")
)

// Table holds every locale's messages keyed by the hash of the base text.
// The base locale is the first column; its cells are the source texts.
type Table struct {
	// Locales lists locale names in column order.
	Locales []string
	// Entries maps locale → hash → text. Blank cells are absent.
	Entries map[string]map[string]string
	// Keys lists hashes in row order, first occurrence only.
	Keys []string
	// Default is the locale loaded eagerly.
	Default string
}

// Base returns the base locale name.
func (t *Table) Base() string {
	if len(t.Locales) == 0 {
		return ""
	}
	return t.Locales[0]
}

// BaseTexts returns the source texts in row order.
func (t *Table) BaseTexts() []string {
	base := t.Entries[t.Base()]
	texts := make([]string, 0, len(t.Keys))
	for _, k := range t.Keys {
		texts = append(texts, base[k])
	}
	return texts
}

// Has reports whether locale is a column of the table.
func (t *Table) Has(locale string) bool {
	return slices.Contains(t.Locales, locale)
}

// Decode reads a grid whose first row names the locales and whose later rows
// hold one phrase each, keyed by the hash of the trimmed column A text.
// defaultLocale selects the eager locale; empty means the base locale.
func Decode(g sheet.Grid, defaultLocale string) (*Table, error) {
	cols := g.Columns()
	if cols > MaxColumns {
		return nil, fmt.Errorf("decode table: %w (%d columns)", ErrTableTooWide, cols)
	}
	if cols == 0 {
		return nil, fmt.Errorf("decode table: %w: no header row", ErrMissingLocaleName)
	}

	t := &Table{
		Locales: make([]string, 0, cols),
		Entries: make(map[string]map[string]string, cols),
	}
	names := make([]string, cols)
	for c := 1; c <= cols; c++ {
		names[c-1] = sheet.ColumnName(c)
		v, _ := g.Cell(names[c-1], 1)
		locale := strings.TrimSpace(v)
		if locale == "" {
			return nil, fmt.Errorf("decode table: %w in column %s", ErrMissingLocaleName, names[c-1])
		}
		if _, dup := t.Entries[locale]; dup {
			return nil, fmt.Errorf("decode table: %w %q in column %s", ErrDuplicateLocale, locale, names[c-1])
		}
		t.Locales = append(t.Locales, locale)
		t.Entries[locale] = make(map[string]string)
	}

	switch {
	case defaultLocale == "":
		t.Default = t.Locales[0]
	case t.Has(defaultLocale):
		t.Default = defaultLocale
	default:
		return nil, fmt.Errorf("decode table: %w %q (have %s)", ErrUnknownLocale, defaultLocale, strings.Join(t.Locales, ", "))
	}

	skipped := 0
	for row := 2; row <= g.Rows(); row++ {
		v, _ := g.Cell(names[0], row)
		base := strings.TrimSpace(v)
		if base == "" {
			skipped++
			continue
		}

		hash := textutil.Hash(base)
		if _, seen := t.Entries[t.Locales[0]][hash]; seen {
			log.Debug().Int("row", row).Str("text", textutil.Truncate(base, 30)).Msg("Duplicate base text, keeping first row")
			continue
		}
		t.Keys = append(t.Keys, hash)

		for c, locale := range t.Locales {
			cell, _ := g.Cell(names[c], row)
			if text := strings.TrimSpace(cell); text != "" {
				t.Entries[locale][hash] = text
			}
		}
	}

	log.Debug().
		Strs("locales", t.Locales).
		Int("phrases", len(t.Keys)).
		Int("skipped", skipped).
		Msg("Decoded translation table")

	return t, nil
}

// WithFallback returns a copy of t whose default locale also carries every
// collected phrase missing from the sheet. Sheet entries win.
func (t *Table) WithFallback(collected map[string]string) *Table {
	out := &Table{
		Locales: slices.Clone(t.Locales),
		Entries: make(map[string]map[string]string, len(t.Entries)),
		Keys:    slices.Clone(t.Keys),
		Default: t.Default,
	}
	for locale, msgs := range t.Entries {
		copied := make(map[string]string, len(msgs))
		for k, v := range msgs {
			copied[k] = v
		}
		out.Entries[locale] = copied
	}

	def, ok := out.Entries[out.Default]
	if !ok {
		def = make(map[string]string, len(collected))
		out.Entries[out.Default] = def
	}
	for hash, text := range collected {
		if _, ok := def[hash]; !ok {
			def[hash] = text
		}
	}
	return out
}
