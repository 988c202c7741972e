// Package store publishes the aggregate phrase registry and reconciliation
// runs to PostgreSQL.
package store

import (
	"context"
	"fmt"
	"time"

	"auto-i18n/internal/collect"
	"auto-i18n/internal/reconcile"
	"auto-i18n/internal/worker"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
)

// DBTX is the subset of pgxpool.Pool, pgx.Conn and pgx.Tx the store uses.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS i18n_phrases (
	hash       TEXT PRIMARY KEY,
	text       TEXT NOT NULL,
	params     INT NOT NULL DEFAULT 0,
	first_seen TIMESTAMPTZ NOT NULL DEFAULT now(),
	last_seen  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS i18n_runs (
	id         UUID PRIMARY KEY,
	added      INT NOT NULL,
	removed    INT NOT NULL,
	common     INT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS i18n_run_changes (
	run_id   UUID NOT NULL REFERENCES i18n_runs(id) ON DELETE CASCADE,
	kind     TEXT NOT NULL,
	position INT NOT NULL,
	text     TEXT NOT NULL,
	PRIMARY KEY (run_id, kind, position)
);`

const upsertPhraseSQL = `
INSERT INTO i18n_phrases (hash, text, params)
VALUES ($1, $2, $3)
ON CONFLICT (hash) DO UPDATE SET last_seen = now()`

const insertRunSQL = `
INSERT INTO i18n_runs (id, added, removed, common)
VALUES ($1, $2, $3, $4)`

const insertChangeSQL = `
INSERT INTO i18n_run_changes (run_id, kind, position, text)
VALUES ($1, $2, $3, $4)`

// Change kinds recorded per run. Common texts are counted, not listed.
const (
	KindAdded   = "added"
	KindRemoved = "removed"
)

// Store handles persistence of phrases and runs.
type Store struct {
	db        DBTX
	batchSize int
}

// New creates a store. batchSize bounds the statements sent per round trip.
func New(db DBTX, batchSize int) *Store {
	if batchSize < 1 {
		batchSize = 500
	}
	return &Store{db: db, batchSize: batchSize}
}

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// UpsertPhrases stores phrases, keeping the first text seen per hash and
// refreshing last_seen on conflicts. It returns the number of new rows.
func (s *Store) UpsertPhrases(ctx context.Context, phrases []collect.Phrase) (int, error) {
	inserted := 0
	for _, chunk := range worker.Batch(phrases, s.batchSize) {
		batch := &pgx.Batch{}
		for _, p := range chunk {
			batch.Queue(upsertPhraseSQL, p.Hash, p.Text, p.Params)
		}

		n, err := s.exec(ctx, batch)
		if err != nil {
			return inserted, fmt.Errorf("upsert phrases: %w", err)
		}
		inserted += n
	}

	log.Info().Int("phrases", len(phrases)).Int("inserted", inserted).Msg("Upserted phrases")
	return inserted, nil
}

// RecordRun stores a reconciliation result and returns its run id.
func (s *Store) RecordRun(ctx context.Context, r reconcile.Result) (uuid.UUID, error) {
	id := uuid.New()
	added, removed, common := r.Counts()

	batch := &pgx.Batch{}
	batch.Queue(insertRunSQL, id, added, removed, common)
	for i, text := range r.Added {
		batch.Queue(insertChangeSQL, id, KindAdded, i, text)
	}
	for i, text := range r.Removed {
		batch.Queue(insertChangeSQL, id, KindRemoved, i, text)
	}

	if _, err := s.exec(ctx, batch); err != nil {
		return uuid.Nil, fmt.Errorf("record run: %w", err)
	}

	log.Info().Str("run", id.String()).Int("added", added).Int("removed", removed).Msg("Recorded run")
	return id, nil
}

// exec sends a batch and returns the total rows affected.
func (s *Store) exec(ctx context.Context, batch *pgx.Batch) (int, error) {
	br := s.db.SendBatch(ctx, batch)
	affected := 0
	for i := 0; i < batch.Len(); i++ {
		tag, err := br.Exec()
		if err != nil {
			br.Close()
			return affected, err
		}
		affected += int(tag.RowsAffected())
	}
	return affected, br.Close()
}

// Phrases returns every stored phrase ordered by first appearance.
func (s *Store) Phrases(ctx context.Context) ([]collect.Phrase, error) {
	rows, err := s.db.Query(ctx, `SELECT hash, text, params FROM i18n_phrases ORDER BY first_seen, hash`)
	if err != nil {
		return nil, fmt.Errorf("query phrases: %w", err)
	}
	phrases, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (collect.Phrase, error) {
		var p collect.Phrase
		err := row.Scan(&p.Hash, &p.Text, &p.Params)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan phrases: %w", err)
	}
	return phrases, nil
}

// Run is a recorded reconciliation summary.
type Run struct {
	ID        uuid.UUID
	Added     int
	Removed   int
	Common    int
	CreatedAt time.Time
}

// Runs returns the most recent runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, added, removed, common, created_at FROM i18n_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	runs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Run, error) {
		var r Run
		err := row.Scan(&r.ID, &r.Added, &r.Removed, &r.Common, &r.CreatedAt)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan runs: %w", err)
	}
	return runs, nil
}
