package textutil

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/text/unicode/rangetable"
)

// CJK is the default target script: the CJK Unified Ideographs block U+4E00..U+9FA5.
var CJK = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x4E00, Hi: 0x9FA5, Stride: 1},
	},
}

// Scripts maps configurable script names to their range tables.
var Scripts = map[string]*unicode.RangeTable{
	"cjk":      CJK,
	"han":      unicode.Han,
	"hiragana": unicode.Hiragana,
	"katakana": unicode.Katakana,
	"hangul":   unicode.Hangul,
}

// Detector reports whether text contains characters of the target script.
type Detector struct {
	table *unicode.RangeTable
}

// NewDetector builds a detector over the union of the given tables.
// With no tables it detects CJK.
func NewDetector(tables ...*unicode.RangeTable) *Detector {
	if len(tables) == 0 {
		return &Detector{table: CJK}
	}
	if len(tables) == 1 {
		return &Detector{table: tables[0]}
	}
	return &Detector{table: rangetable.Merge(tables...)}
}

// DetectorFor resolves a script name plus optional extra ranges ("3040-30FF")
// into a detector.
func DetectorFor(script string, extraRanges []string) (*Detector, error) {
	name := strings.ToLower(strings.TrimSpace(script))
	if name == "" {
		name = "cjk"
	}
	base, ok := Scripts[name]
	if !ok {
		return nil, fmt.Errorf("unknown target script %q", script)
	}

	tables := []*unicode.RangeTable{base}
	if len(extraRanges) > 0 {
		var runes []rune
		for _, rng := range extraRanges {
			lo, hi, err := parseRange(rng)
			if err != nil {
				return nil, err
			}
			for r := lo; r <= hi; r++ {
				runes = append(runes, r)
			}
		}
		tables = append(tables, rangetable.New(runes...))
	}
	return NewDetector(tables...), nil
}

// ContainsTarget checks if a string contains at least one target-script character.
func (d *Detector) ContainsTarget(s string) bool {
	for _, r := range s {
		if unicode.Is(d.table, r) {
			return true
		}
	}
	return false
}

// Table returns the detector's range table.
func (d *Detector) Table() *unicode.RangeTable {
	return d.table
}

func parseRange(rng string) (rune, rune, error) {
	loStr, hiStr, found := strings.Cut(strings.TrimSpace(rng), "-")
	if !found {
		hiStr = loStr
	}
	lo, err := strconv.ParseUint(strings.TrimPrefix(strings.ToUpper(loStr), "U+"), 16, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("parse range %q: %w", rng, err)
	}
	hi, err := strconv.ParseUint(strings.TrimPrefix(strings.ToUpper(hiStr), "U+"), 16, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("parse range %q: %w", rng, err)
	}
	if hi < lo || hi > unicode.MaxRune {
		return 0, 0, fmt.Errorf("invalid range %q", rng)
	}
	return rune(lo), rune(hi), nil
}

// Hash computes the content key of a phrase: the base36 form of its 64-bit xxhash.
func Hash(s string) string {
	return strconv.FormatUint(xxhash.Sum64String(s), 36)
}

// Truncate shortens a string to maxLen runes, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
