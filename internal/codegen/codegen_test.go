package codegen

import (
	"os"
	"path/filepath"
	"testing"

	"auto-i18n/internal/locale"
	"auto-i18n/internal/sheet"
	"auto-i18n/internal/textutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func partitioned(t *testing.T, async bool) *locale.Partitioned {
	t.Helper()
	table, err := locale.Decode(sheet.NewMemory([][]string{
		{"zh", "en", "ja"},
		{"你好", "hello", "こんにちは"},
	}), "")
	require.NoError(t, err)
	return locale.Partition(table, async)
}

func TestIndexAsync(t *testing.T) {
	h := textutil.Hash("你好")
	code, err := Index(partitioned(t, true), QueryPath("/src/i18n.xlsx"))
	require.NoError(t, err)

	want := `var locale = "zh";
var messages = {
  "zh": {"` + h + `":"你好"}
};
var asyncLangs = {
  "en": function() { return import("/src/i18n.xlsx?lang=en"); },
  "ja": function() { return import("/src/i18n.xlsx?lang=ja"); }
};
export default messages;
export { locale, asyncLangs };
`
	assert.Equal(t, want, code)
}

func TestIndexInlineAll(t *testing.T) {
	code, err := Index(partitioned(t, false), QueryPath("x"))
	require.NoError(t, err)
	assert.Contains(t, code, `"ja": {`)
	assert.Contains(t, code, "var asyncLangs = {};\n")
	assert.NotContains(t, code, "import(")
}

func TestLocale(t *testing.T) {
	code, err := Locale(map[string]string{"b": "<乙>", "a": "甲"})
	require.NoError(t, err)
	assert.Equal(t, "var result = {\"a\":\"甲\",\"b\":\"<乙>\"};\nexport default result;\n", code)

	code, err = Locale(nil)
	require.NoError(t, err)
	assert.Equal(t, "var result = {};\nexport default result;\n", code)
}

func TestWriteBundle(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	written, err := WriteBundle(dir, "i18n", partitioned(t, true))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "i18n.js"),
		filepath.Join(dir, "i18n.en.js"),
		filepath.Join(dir, "i18n.ja.js"),
	}, written)

	index, err := os.ReadFile(filepath.Join(dir, "i18n.js"))
	require.NoError(t, err)
	assert.Contains(t, string(index), `import("./i18n.en.js")`)

	ja, err := os.ReadFile(filepath.Join(dir, "i18n.ja.js"))
	require.NoError(t, err)
	assert.Contains(t, string(ja), "こんにちは")
}
