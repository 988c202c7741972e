package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"auto-i18n/internal/cache"
	"auto-i18n/internal/engine"
	"auto-i18n/internal/filewalker"
	"auto-i18n/internal/syntax"
	"auto-i18n/internal/textutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const marker = "auto-i18n-disable"

// unitJSON builds a File whose program holds one expression statement per
// string, with optional line comments.
func unitJSON(texts []string, comments ...string) string {
	var body, notes []string
	for _, s := range texts {
		body = append(body, fmt.Sprintf(
			`{"type":"ExpressionStatement","expression":{"type":"StringLiteral","value":%q}}`, s))
	}
	for _, c := range comments {
		notes = append(notes, fmt.Sprintf(`{"type":"CommentLine","value":%q}`, c))
	}
	return fmt.Sprintf(
		`{"type":"File","program":{"type":"Program","sourceType":"module","body":[%s]},"comments":[%s]}`,
		strings.Join(body, ","), strings.Join(notes, ","))
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func newPipeline(t *testing.T, opts Options) *Pipeline {
	t.Helper()
	w, err := filewalker.NewWalker("node_modules")
	require.NoError(t, err)
	return NewPipeline(w, NewRewriter(engine.New(engine.DefaultOptions()), marker), opts)
}

func fixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "src/a.ast.json", unitJSON([]string{"你好", "世界"}))
	writeFile(t, root, "src/b.ast.json", unitJSON([]string{"你好", "hello", "再见"}))
	writeFile(t, root, "src/skip.ast.json", unitJSON([]string{"离开"}, " "+marker))
	writeFile(t, root, "node_modules/lib/x.ast.json", unitJSON([]string{"忽略"}))
	return root
}

func TestRewrite(t *testing.T) {
	r := NewRewriter(engine.New(engine.DefaultOptions()), marker)

	res, err := r.Rewrite("u", []byte(unitJSON([]string{"你好", "plain"}, " note")))
	require.NoError(t, err)
	assert.True(t, res.NeedsImport)
	assert.False(t, res.Disabled)
	assert.Equal(t, []string{"你好"}, res.Phrases.Texts())

	tree := string(res.Tree)
	assert.Contains(t, tree, `"callee":{"type":"Identifier","name":"$t"}`)
	assert.Contains(t, tree, textutil.Hash("你好"))
	assert.Contains(t, tree, `"value":"plain"`)
	assert.Contains(t, tree, `" note"`)
}

func TestRewriteNothingCollected(t *testing.T) {
	r := NewRewriter(engine.New(engine.DefaultOptions()), marker)
	res, err := r.Rewrite("u", []byte(unitJSON([]string{"plain"})))
	require.NoError(t, err)
	assert.False(t, res.NeedsImport)
	assert.Equal(t, 0, res.Phrases.Len())
}

func TestRewriteDisabled(t *testing.T) {
	r := NewRewriter(engine.New(engine.DefaultOptions()), marker)
	data := []byte(unitJSON([]string{"你好"}, "* "+marker+" *"))

	res, err := r.Rewrite("u", data)
	require.NoError(t, err)
	assert.True(t, res.Disabled)
	assert.False(t, res.NeedsImport)
	assert.Equal(t, data, res.Tree)

	// An empty marker turns the check off.
	res, err = NewRewriter(engine.New(engine.DefaultOptions()), "").Rewrite("u", data)
	require.NoError(t, err)
	assert.False(t, res.Disabled)
	assert.Equal(t, 1, res.Phrases.Len())
}

func TestRewriteMalformed(t *testing.T) {
	r := NewRewriter(engine.New(engine.DefaultOptions()), marker)
	_, err := r.Rewrite("bad.ast.json", []byte(`{"type":"StringLiteral"}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrMalformedSyntax))
	assert.Contains(t, err.Error(), "bad.ast.json")
}

func TestHasMarker(t *testing.T) {
	root, err := syntax.Decode([]byte(unitJSON([]string{"x"}, "eslint-disable", " "+marker)))
	require.NoError(t, err)
	assert.True(t, HasMarker(root, marker))
	assert.False(t, HasMarker(root, "other-marker"))
}

func TestFingerprintTracksOptions(t *testing.T) {
	base := NewRewriter(engine.New(engine.DefaultOptions()), marker)

	opts := engine.DefaultOptions()
	opts.EnableConcatenation = true
	concat := NewRewriter(engine.New(opts), marker)

	opts = engine.DefaultOptions()
	kana, err := textutil.DetectorFor("cjk", []string{"3040-30FF"})
	require.NoError(t, err)
	opts.Detector = kana
	wide := NewRewriter(engine.New(opts), marker)

	assert.NotEqual(t, base.Fingerprint(), concat.Fingerprint())
	assert.NotEqual(t, base.Fingerprint(), wide.Fingerprint())
	assert.Equal(t, base.Fingerprint(), NewRewriter(engine.New(engine.DefaultOptions()), marker).Fingerprint())
}

func TestRewriteCached(t *testing.T) {
	r := NewRewriter(engine.New(engine.DefaultOptions()), marker)
	c := cache.NewMemory()
	data := []byte(unitJSON([]string{"你好"}))

	first, err := r.RewriteCached(c, "u", data)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := r.RewriteCached(c, "u", data)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.NotEmpty(t, first.CacheKey)
	assert.Equal(t, first.CacheKey, second.CacheKey)
	assert.True(t, second.NeedsImport)
	assert.JSONEq(t, string(first.Tree), string(second.Tree))
	assert.Equal(t, first.Phrases.Phrases(), second.Phrases.Phrases())
}

func TestExtract(t *testing.T) {
	root := fixture(t)
	out := t.TempDir()

	ext, err := newPipeline(t, Options{Workers: 3, OutDir: out}).Extract(context.Background(), root)
	require.NoError(t, err)

	require.Len(t, ext.Units, 3)
	assert.Empty(t, ext.Failed)
	assert.Equal(t, []string{"src/a.ast.json", "src/b.ast.json", "src/skip.ast.json"}, ext.Registry.Units())
	assert.Equal(t, []string{"你好", "世界", "再见"}, ext.Aggregate.Texts())
	assert.True(t, ext.Units[2].Disabled)

	written, err := os.ReadFile(filepath.Join(out, "src", "a.ast.json"))
	require.NoError(t, err)
	assert.Contains(t, string(written), textutil.Hash("世界"))

	_, err = os.Stat(filepath.Join(out, "node_modules"))
	assert.True(t, os.IsNotExist(err))
}

func TestRetainCache(t *testing.T) {
	root := fixture(t)
	c := cache.NewMemory()
	stale := cache.Key([]byte("gone"), "x")
	require.NoError(t, c.Set(stale, cache.Entry{}))

	p := newPipeline(t, Options{Cache: c})
	ext, err := p.Extract(context.Background(), root)
	require.NoError(t, err)

	_, err = p.RetainCache(ext)
	require.NoError(t, err)
	_, ok := c.Get(stale)
	assert.False(t, ok)
	_, ok = c.Get(ext.Units[0].CacheKey)
	assert.True(t, ok)

	again, err := p.Extract(context.Background(), root)
	require.NoError(t, err)
	assert.True(t, again.Units[0].Cached)
	assert.Equal(t, ext.Aggregate.Texts(), again.Aggregate.Texts())
}

func TestExtractFailedUnits(t *testing.T) {
	root := fixture(t)
	writeFile(t, root, "src/broken.ast.json", `{"type":"StringLiteral"}`)

	_, err := newPipeline(t, Options{Workers: 2}).Extract(context.Background(), root)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnitsFailed))
	assert.True(t, errors.Is(err, engine.ErrMalformedSyntax))
	assert.Contains(t, err.Error(), "src/broken.ast.json")

	ext, err := newPipeline(t, Options{Workers: 2, KeepGoing: true}).Extract(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, ext.Failed, 1)
	assert.Equal(t, "src/broken.ast.json", ext.Failed[0].Unit)
	assert.Equal(t, []string{"你好", "世界", "再见"}, ext.Aggregate.Texts())
}

func TestExtractCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newPipeline(t, Options{}).Extract(ctx, fixture(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun(t *testing.T) {
	root := fixture(t)
	table := filepath.Join(t.TempDir(), "i18n.csv")
	require.NoError(t, os.WriteFile(table, []byte("zh,en\n你好,hello\n旧的,old\n"), 0644))

	b, err := newPipeline(t, Options{Workers: 2}).Run(context.Background(), root, table, "")
	require.NoError(t, err)
	require.NotNil(t, b.Table)
	assert.Equal(t, []string{"世界", "再见"}, b.Diff.Added)
	assert.Equal(t, []string{"旧的"}, b.Diff.Removed)
	assert.Equal(t, []string{"你好"}, b.Diff.Common)
}

func TestRunWithoutTable(t *testing.T) {
	b, err := newPipeline(t, Options{}).Run(context.Background(), fixture(t), "", "")
	require.NoError(t, err)
	assert.Nil(t, b.Table)
	assert.Equal(t, []string{"你好", "世界", "再见"}, b.Diff.Added)
	assert.Empty(t, b.Diff.Removed)
}

func TestRunTableError(t *testing.T) {
	table := filepath.Join(t.TempDir(), "i18n.csv")
	require.NoError(t, os.WriteFile(table, []byte(""), 0644))

	_, err := newPipeline(t, Options{}).Run(context.Background(), fixture(t), table, "")
	assert.Error(t, err)
}
