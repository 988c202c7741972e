package store

import (
	"context"
	"errors"
	"testing"

	"auto-i18n/internal/collect"
	"auto-i18n/internal/reconcile"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResults struct {
	n      int
	failAt int
	closed bool
}

func (f *fakeResults) Exec() (pgconn.CommandTag, error) {
	f.n++
	if f.n == f.failAt {
		return pgconn.CommandTag{}, errors.New("conflict")
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeResults) Query() (pgx.Rows, error) { return nil, errors.New("unused") }
func (f *fakeResults) QueryRow() pgx.Row        { return nil }
func (f *fakeResults) Close() error {
	f.closed = true
	return nil
}

type fakeDB struct {
	execs   []string
	batches []*pgx.Batch
	results []*fakeResults
	failAt  int
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("unused")
}

func (f *fakeDB) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	f.batches = append(f.batches, b)
	r := &fakeResults{failAt: f.failAt}
	f.results = append(f.results, r)
	return r
}

func TestEnsureSchema(t *testing.T) {
	db := &fakeDB{}
	require.NoError(t, New(db, 0).EnsureSchema(context.Background()))
	require.Len(t, db.execs, 1)
	assert.Contains(t, db.execs[0], "CREATE TABLE IF NOT EXISTS i18n_phrases")
}

func TestUpsertPhrasesBatches(t *testing.T) {
	db := &fakeDB{}
	phrases := []collect.Phrase{
		{Hash: "a", Text: "甲"},
		{Hash: "b", Text: "乙{0}", Params: 1},
		{Hash: "c", Text: "丙"},
	}

	n, err := New(db, 2).UpsertPhrases(context.Background(), phrases)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.Len(t, db.batches, 2)
	assert.Equal(t, 2, db.batches[0].Len())
	assert.Equal(t, 1, db.batches[1].Len())
	assert.Equal(t, []any{"b", "乙{0}", 1}, db.batches[0].QueuedQueries[1].Arguments)
	for _, r := range db.results {
		assert.True(t, r.closed)
	}
}

func TestUpsertPhrasesError(t *testing.T) {
	db := &fakeDB{failAt: 2}
	_, err := New(db, 10).UpsertPhrases(context.Background(), []collect.Phrase{{Hash: "a"}, {Hash: "b"}})
	assert.ErrorContains(t, err, "conflict")
	assert.True(t, db.results[0].closed)
}

func TestRecordRun(t *testing.T) {
	db := &fakeDB{}
	id, err := New(db, 0).RecordRun(context.Background(), reconcile.Result{
		Added:   []string{"新"},
		Removed: []string{"旧", "老"},
		Common:  []string{"同"},
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	require.Len(t, db.batches, 1)
	queued := db.batches[0].QueuedQueries
	require.Len(t, queued, 4)
	assert.Equal(t, []any{id, 1, 2, 1}, queued[0].Arguments)
	assert.Equal(t, []any{id, KindAdded, 0, "新"}, queued[1].Arguments)
	assert.Equal(t, []any{id, KindRemoved, 1, "老"}, queued[3].Arguments)
}
