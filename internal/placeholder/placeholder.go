// Package placeholder verifies that translations keep the interpolation
// placeholders of their source text.
package placeholder

import (
	"regexp"
	"slices"
	"sort"

	"auto-i18n/internal/locale"
	"auto-i18n/internal/textutil"
)

// patterns detect interpolation variables in phrase texts.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`\{[0-9]+\}`),                           // {0}, {1}
	regexp.MustCompile(`\{[a-zA-Z_][a-zA-Z0-9_]*\}`),           // {name}
	regexp.MustCompile(`%[-+0-9]*\.?[0-9]*[dsfieEgGxXoubcpq]`), // %d, %s, %2d
}

// match stores a detected placeholder position.
type match struct {
	start, end int
	value      string
}

// Extract returns the placeholders of text in order of appearance.
func Extract(text string) []string {
	var all []match
	for _, p := range patterns {
		for _, loc := range p.FindAllStringIndex(text, -1) {
			all = append(all, match{start: loc[0], end: loc[1], value: text[loc[0]:loc[1]]})
		}
	}
	if len(all) == 0 {
		return nil
	}

	// Earliest first; on equal start the longer match wins.
	sort.Slice(all, func(i, j int) bool {
		if all[i].start != all[j].start {
			return all[i].start < all[j].start
		}
		return all[i].end-all[i].start > all[j].end-all[j].start
	})

	var out []string
	lastEnd := -1
	for _, m := range all {
		if m.start >= lastEnd {
			out = append(out, m.value)
			lastEnd = m.end
		}
	}
	return out
}

// Issue is a translation whose placeholders differ from its source text.
type Issue struct {
	Locale  string   `json:"locale"`
	Hash    string   `json:"hash"`
	Source  string   `json:"source"`
	Text    string   `json:"text"`
	Missing []string `json:"missing,omitempty"`
	Extra   []string `json:"extra,omitempty"`
}

// Compare returns the placeholders of source absent from translated and the
// placeholders of translated absent from source, counting duplicates.
// Order within the text does not matter.
func Compare(source, translated string) (missing, extra []string) {
	want := counts(Extract(source))
	got := counts(Extract(translated))

	for _, p := range sortedKeys(want) {
		for i := got[p]; i < want[p]; i++ {
			missing = append(missing, p)
		}
	}
	for _, p := range sortedKeys(got) {
		for i := want[p]; i < got[p]; i++ {
			extra = append(extra, p)
		}
	}
	return missing, extra
}

// Check compares every translation in t against its base text.
func Check(t *locale.Table) []Issue {
	if len(t.Locales) < 2 {
		return nil
	}
	base := t.Entries[t.Base()]
	var issues []Issue
	for _, loc := range t.Locales[1:] {
		msgs := t.Entries[loc]
		for _, key := range t.Keys {
			text, ok := msgs[key]
			if !ok {
				continue
			}
			missing, extra := Compare(base[key], text)
			if len(missing) == 0 && len(extra) == 0 {
				continue
			}
			issues = append(issues, Issue{
				Locale:  loc,
				Hash:    key,
				Source:  textutil.Truncate(base[key], 60),
				Text:    textutil.Truncate(text, 60),
				Missing: missing,
				Extra:   extra,
			})
		}
	}
	return issues
}

func counts(values []string) map[string]int {
	m := make(map[string]int, len(values))
	for _, v := range values {
		m[v]++
	}
	return m
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
