package graph

import (
	"context"
	"fmt"

	"auto-i18n/internal/collect"
	"auto-i18n/internal/locale"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// UsageBuilder maintains the unit → phrase usage graph in Neo4j:
//
//	(:Unit {path})-[:USES]->(:Phrase {hash, text})-[:TRANSLATED_IN {text}]->(:Locale {name})
type UsageBuilder struct {
	driver neo4j.DriverWithContext
}

// NewUsageBuilder creates a new usage graph builder.
func NewUsageBuilder(driver neo4j.DriverWithContext) *UsageBuilder {
	return &UsageBuilder{driver: driver}
}

// EnsureSchema creates constraints on the Neo4j database.
func (ub *UsageBuilder) EnsureSchema(ctx context.Context) error {
	session := ub.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	constraints := []string{
		"CREATE CONSTRAINT IF NOT EXISTS FOR (u:Unit) REQUIRE u.path IS UNIQUE",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (p:Phrase) REQUIRE p.hash IS UNIQUE",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (l:Locale) REQUIRE l.name IS UNIQUE",
	}

	for _, c := range constraints {
		if _, err := session.Run(ctx, c, nil); err != nil {
			return fmt.Errorf("create constraint: %w", err)
		}
	}

	log.Info().Msg("Graph schema ensured")
	return nil
}

func phraseParams(phrases []collect.Phrase) []any {
	out := make([]any, len(phrases))
	for i, p := range phrases {
		out[i] = map[string]any{
			"hash":   p.Hash,
			"text":   p.Text,
			"params": p.Params,
		}
	}
	return out
}

// SyncUnit replaces the USES edges of unit with the given phrases.
func (ub *UsageBuilder) SyncUnit(ctx context.Context, unit string, phrases []collect.Phrase) error {
	session := ub.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, `
			MERGE (u:Unit {path: $unit})
			WITH u
			OPTIONAL MATCH (u)-[r:USES]->()
			DELETE r
		`, map[string]any{"unit": unit}); err != nil {
			return nil, err
		}

		_, err := tx.Run(ctx, `
			MATCH (u:Unit {path: $unit})
			UNWIND $phrases AS p
			MERGE (ph:Phrase {hash: p.hash})
			ON CREATE SET ph.text = p.text, ph.params = p.params
			MERGE (u)-[:USES]->(ph)
		`, map[string]any{
			"unit":    unit,
			"phrases": phraseParams(phrases),
		})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("sync unit %s: %w", unit, err)
	}

	log.Debug().Str("unit", unit).Int("phrases", len(phrases)).Msg("Synced unit usage")
	return nil
}

// PruneUnits deletes Unit nodes not listed in active.
func (ub *UsageBuilder) PruneUnits(ctx context.Context, active []string) (int, error) {
	session := ub.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (u:Unit)
		WHERE NOT u.path IN $active
		DETACH DELETE u
	`, map[string]any{"active": active})
	if err != nil {
		return 0, fmt.Errorf("prune units: %w", err)
	}

	summary, err := result.Consume(ctx)
	if err != nil {
		return 0, fmt.Errorf("prune units: %w", err)
	}
	return summary.Counters().NodesDeleted(), nil
}

// translationParams flattens a table into one row per non-base translation,
// keyed by the hash of the base text.
func translationParams(t *locale.Table) []any {
	base := t.Base()
	out := []any{}
	for _, hash := range t.Keys {
		for _, l := range t.Locales {
			if l == base {
				continue
			}
			text, ok := t.Entries[l][hash]
			if !ok {
				continue
			}
			out = append(out, map[string]any{
				"hash":   hash,
				"source": t.Entries[base][hash],
				"locale": l,
				"text":   text,
			})
		}
	}
	return out
}

// SyncTranslations records which phrases each locale of t translates.
func (ub *UsageBuilder) SyncTranslations(ctx context.Context, t *locale.Table) error {
	rows := translationParams(t)

	session := ub.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.Run(ctx, `
		UNWIND $rows AS row
		MERGE (ph:Phrase {hash: row.hash})
		ON CREATE SET ph.text = row.source
		MERGE (l:Locale {name: row.locale})
		MERGE (ph)-[r:TRANSLATED_IN]->(l)
		SET r.text = row.text
	`, map[string]any{"rows": rows})
	if err != nil {
		return fmt.Errorf("sync translations: %w", err)
	}

	log.Info().Int("translations", len(rows)).Msg("Synced translations")
	return nil
}
