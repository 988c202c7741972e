package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"auto-i18n/internal/reconcile"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() reconcile.Result {
	return reconcile.Diff([]string{"新增<b>", "共同"}, []string{"共同", "删除&"})
}

func TestHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, HTML(&buf, "", sample()))
	out := buf.String()

	assert.Contains(t, out, "<title>i18n phrase list</title>")
	assert.Contains(t, out, "Added: 1")
	assert.Contains(t, out, "Removed: 1")
	assert.Contains(t, out, "Unchanged: 1")
	assert.Contains(t, out, `<li class="add"><pre>新增&lt;b&gt;</pre></li>`)
	assert.Contains(t, out, `<li class="reduce"><pre>删除&amp;</pre></li>`)
	assert.Contains(t, out, `<li class=""><pre>共同</pre></li>`)
	assert.Less(t, strings.Index(out, "新增"), strings.Index(out, "删除"))
	assert.Less(t, strings.Index(out, "删除"), strings.Index(out, "<pre>共同"))
}

func TestHTMLTotalWhenUnchanged(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, HTML(&buf, "report", reconcile.Diff([]string{"甲"}, []string{"甲"})))
	assert.Contains(t, buf.String(), "Total: 1")
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, sample()))

	var got reconcile.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, sample(), got)
	assert.Contains(t, buf.String(), "新增<b>")
}

func TestSummary(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	Summary(&buf, sample(), false)
	assert.Equal(t, "+ 新增<b>\n- 删除&\nadded 1, removed 1, common 1\n", buf.String())

	buf.Reset()
	Summary(&buf, sample(), true)
	assert.Contains(t, buf.String(), "  共同\n")
}
