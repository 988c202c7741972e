// Package collect stores the phrases the engine extracts, per source unit and
// merged across units.
package collect

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"auto-i18n/internal/syntax"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Phrase is one extracted text and its content hash. Params is the number of
// {i} placeholders the text carries.
type Phrase struct {
	Hash   string `json:"hash"`
	Text   string `json:"text"`
	Params int    `json:"params,omitempty"`
}

// Table is an insertion-ordered hash → phrase map. The first phrase stored
// under a hash wins; later ones are ignored.
type Table struct {
	phrases *orderedmap.OrderedMap[string, Phrase]
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{phrases: orderedmap.New[string, Phrase]()}
}

// Collect records a phrase. Its signature matches the engine's collect callback.
func (t *Table) Collect(hash, text string, args []syntax.Node) {
	t.Add(Phrase{Hash: hash, Text: text, Params: len(args)})
}

// Add stores p unless its hash is already present. It reports whether p was stored.
func (t *Table) Add(p Phrase) bool {
	if _, ok := t.phrases.Get(p.Hash); ok {
		return false
	}
	t.phrases.Set(p.Hash, p)
	return true
}

// Merge adds every phrase of other, in order, under first-writer-wins.
func (t *Table) Merge(other *Table) {
	for pair := other.phrases.Oldest(); pair != nil; pair = pair.Next() {
		t.Add(pair.Value)
	}
}

// Lookup returns the phrase stored under hash.
func (t *Table) Lookup(hash string) (Phrase, bool) {
	return t.phrases.Get(hash)
}

func (t *Table) Len() int {
	return t.phrases.Len()
}

// Phrases returns the phrases in insertion order.
func (t *Table) Phrases() []Phrase {
	out := make([]Phrase, 0, t.phrases.Len())
	for pair := t.phrases.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Texts returns the phrase texts in insertion order.
func (t *Table) Texts() []string {
	out := make([]string, 0, t.phrases.Len())
	for pair := t.phrases.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value.Text)
	}
	return out
}

// Messages returns the table as hash → text.
func (t *Table) Messages() map[string]string {
	out := make(map[string]string, t.phrases.Len())
	for pair := t.phrases.Oldest(); pair != nil; pair = pair.Next() {
		out[pair.Key] = pair.Value.Text
	}
	return out
}

// MarshalJSON encodes the table as an ordered phrase list.
func (t *Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Phrases())
}

// UnmarshalJSON decodes an ordered phrase list.
func (t *Table) UnmarshalJSON(data []byte) error {
	var phrases []Phrase
	if err := json.Unmarshal(data, &phrases); err != nil {
		return fmt.Errorf("decode phrase table: %w", err)
	}
	t.phrases = orderedmap.New[string, Phrase]()
	for _, p := range phrases {
		t.Add(p)
	}
	return nil
}

// FromPhrases builds a table from an ordered phrase list.
func FromPhrases(phrases []Phrase) *Table {
	t := NewTable()
	for _, p := range phrases {
		t.Add(p)
	}
	return t
}

// Registry keeps the latest phrase table of every unit. It is safe for
// concurrent use.
type Registry struct {
	mu    sync.RWMutex
	units map[string]*Table
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{units: make(map[string]*Table)}
}

// Replace sets the table of unit, dropping any previous one.
func (r *Registry) Replace(unit string, table *Table) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.units[unit] = table
}

// Forget removes unit from the registry.
func (r *Registry) Forget(unit string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.units, unit)
}

// Unit returns the table recorded for unit.
func (r *Registry) Unit(unit string) (*Table, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.units[unit]
	return t, ok
}

// Units returns the registered unit ids in sorted order.
func (r *Registry) Units() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.units))
	for id := range r.units {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Aggregate merges the tables of the active units in the given order. Units
// not listed never contribute, even if registered.
func (r *Registry) Aggregate(active []string) *Table {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agg := NewTable()
	for _, id := range active {
		if t, ok := r.units[id]; ok {
			agg.Merge(t)
		}
	}
	return agg
}
