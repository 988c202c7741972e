package placeholder

import (
	"testing"

	"auto-i18n/internal/locale"
	"auto-i18n/internal/sheet"
	"auto-i18n/internal/textutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"没有占位符", nil},
		{"共{0}条，第{1}页", []string{"{0}", "{1}"}},
		{"{name}你好 %d 次", []string{"{name}", "%d"}},
		{"进度 %5.2f%", []string{"%5.2f"}},
		{"{1}{0}{1}", []string{"{1}", "{0}", "{1}"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.in))
		})
	}
}

func TestCompare(t *testing.T) {
	missing, extra := Compare("共{0}条，第{1}页", "Page {1} of {0}")
	assert.Empty(t, missing)
	assert.Empty(t, extra)

	missing, extra = Compare("共{0}条", "total")
	assert.Equal(t, []string{"{0}"}, missing)
	assert.Empty(t, extra)

	missing, extra = Compare("{0}", "{0} {0} {1}")
	assert.Empty(t, missing)
	assert.Equal(t, []string{"{0}", "{1}"}, extra)
}

func TestCheck(t *testing.T) {
	table, err := locale.Decode(sheet.NewMemory([][]string{
		{"zh", "en", "ja"},
		{"共{0}条", "{0} items", "{0}件"},
		{"第{0}页", "page", ""},
		{"你好", "hello {name}", "こんにちは"},
	}), "")
	require.NoError(t, err)

	issues := Check(table)
	require.Len(t, issues, 2)

	assert.Equal(t, "en", issues[0].Locale)
	assert.Equal(t, textutil.Hash("第{0}页"), issues[0].Hash)
	assert.Equal(t, []string{"{0}"}, issues[0].Missing)

	assert.Equal(t, "en", issues[1].Locale)
	assert.Equal(t, []string{"{name}"}, issues[1].Extra)
}
