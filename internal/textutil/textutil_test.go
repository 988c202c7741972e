package textutil

import (
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectorDefault(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		in   string
		want bool
	}{
		{"", false},
		{"hello", false},
		{"你好", true},
		{"abc中def", true},
		{"{0}条记录", true},
		{"こんにちは", false},
		{"龥", true},
		{"龦", false},
		{"䷿", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, d.ContainsTarget(tt.in))
		})
	}
}

func TestDetectorMerge(t *testing.T) {
	d := NewDetector(CJK, unicode.Hiragana)
	assert.True(t, d.ContainsTarget("こんにちは"))
	assert.True(t, d.ContainsTarget("中"))
	assert.False(t, d.ContainsTarget("abc"))
}

func TestDetectorFor(t *testing.T) {
	d, err := DetectorFor("", []string{"3040-309F"})
	require.NoError(t, err)
	assert.True(t, d.ContainsTarget("あ"))
	assert.True(t, d.ContainsTarget("中"))
	assert.False(t, d.ContainsTarget("한"))

	d, err = DetectorFor("hangul", nil)
	require.NoError(t, err)
	assert.True(t, d.ContainsTarget("한국어"))

	_, err = DetectorFor("klingon", nil)
	assert.Error(t, err)

	_, err = DetectorFor("cjk", []string{"zz-10"})
	assert.Error(t, err)

	_, err = DetectorFor("cjk", []string{"30FF-3040"})
	assert.Error(t, err)
}

func TestHash(t *testing.T) {
	a := Hash("中文")
	assert.Equal(t, a, Hash("中文"))
	assert.NotEqual(t, a, Hash("中文 "))
	assert.LessOrEqual(t, len(a), 13)
	assert.Regexp(t, `^[0-9a-z]+$`, a)
	assert.False(t, NewDetector().ContainsTarget(a))
	assert.NotEmpty(t, Hash(""))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab...", Truncate("abcdef", 2))
	assert.Equal(t, "中文...", Truncate("中文字符", 2))
}
