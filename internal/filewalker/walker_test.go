package filewalker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, root, rel string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))
}

func units(entries []FileEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Unit
	}
	return out
}

func TestWalk(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "src/b.ast.json")
	touch(t, root, "src/a.AST.JSON")
	touch(t, root, "src/readme.md")
	touch(t, root, "node_modules/lib/index.ast.json")
	touch(t, root, "src/nested/node_modules.ast.json")

	w, err := NewWalker("node_modules")
	require.NoError(t, err)

	entries, err := w.Walk(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.AST.JSON", "src/b.ast.json"}, units(entries))
	assert.Equal(t, filepath.Join(root, "src", "a.AST.JSON"), entries[0].Path)
}

func TestWalkNoExclude(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "node_modules/x.ast.json")
	touch(t, root, "y.json")

	w, err := NewWalker("", ".json")
	require.NoError(t, err)

	entries, err := w.Walk(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"node_modules/x.ast.json", "y.json"}, units(entries))
}

func TestWalkErrors(t *testing.T) {
	_, err := NewWalker("(")
	assert.Error(t, err)

	w, err := NewWalker("")
	require.NoError(t, err)

	_, err = w.Walk(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "f.ast.json")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	_, err = w.Walk(file)
	assert.ErrorContains(t, err, "not a directory")
}
