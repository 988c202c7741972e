package graph

import (
	"context"
	"fmt"

	"auto-i18n/internal/collect"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// UsageQuerier reads the usage graph.
type UsageQuerier struct {
	driver neo4j.DriverWithContext
}

// NewUsageQuerier creates a new usage graph querier.
func NewUsageQuerier(driver neo4j.DriverWithContext) *UsageQuerier {
	return &UsageQuerier{driver: driver}
}

// PhrasesForUnit returns the phrases a unit uses, ordered by hash.
func (uq *UsageQuerier) PhrasesForUnit(ctx context.Context, unit string) ([]collect.Phrase, error) {
	return uq.phrases(ctx, `
		MATCH (:Unit {path: $unit})-[:USES]->(p:Phrase)
		RETURN p.hash AS hash, p.text AS text, coalesce(p.params, 0) AS params
		ORDER BY p.hash
	`, map[string]any{"unit": unit})
}

// Untranslated returns phrases used by some unit that have no translation in
// locale, ordered by hash.
func (uq *UsageQuerier) Untranslated(ctx context.Context, locale string) ([]collect.Phrase, error) {
	return uq.phrases(ctx, `
		MATCH (:Unit)-[:USES]->(p:Phrase)
		WHERE NOT (p)-[:TRANSLATED_IN]->(:Locale {name: $locale})
		RETURN DISTINCT p.hash AS hash, p.text AS text, coalesce(p.params, 0) AS params
		ORDER BY hash
	`, map[string]any{"locale": locale})
}

func (uq *UsageQuerier) phrases(ctx context.Context, cypher string, params map[string]any) ([]collect.Phrase, error) {
	session := uq.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("query phrases: %w", err)
	}

	var phrases []collect.Phrase
	for result.Next(ctx) {
		record := result.Record()
		hash, _ := record.Get("hash")
		text, _ := record.Get("text")
		count, _ := record.Get("params")

		p := collect.Phrase{
			Hash: fmt.Sprintf("%v", hash),
			Text: fmt.Sprintf("%v", text),
		}
		if n, ok := count.(int64); ok {
			p.Params = int(n)
		}
		phrases = append(phrases, p)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("read phrases: %w", err)
	}

	return phrases, nil
}

// UnitsForPhrase returns the units that use the phrase with the given hash.
func (uq *UsageQuerier) UnitsForPhrase(ctx context.Context, hash string) ([]string, error) {
	session := uq.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (u:Unit)-[:USES]->(:Phrase {hash: $hash})
		RETURN u.path AS path
		ORDER BY path
	`, map[string]any{"hash": hash})
	if err != nil {
		return nil, fmt.Errorf("query units: %w", err)
	}

	var units []string
	for result.Next(ctx) {
		path, _ := result.Record().Get("path")
		units = append(units, fmt.Sprintf("%v", path))
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("read units: %w", err)
	}

	return units, nil
}
