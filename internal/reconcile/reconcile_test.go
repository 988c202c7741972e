package reconcile

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

// quadratic is the reference scan-and-remove algorithm.
func quadratic(current, baseline []string) Result {
	res := Result{Added: []string{}, Removed: []string{}, Common: []string{}}
	rest := append([]string(nil), baseline...)
	for _, text := range current {
		found := -1
		for i, b := range rest {
			if b == text {
				found = i
				break
			}
		}
		if found < 0 {
			res.Added = append(res.Added, text)
			continue
		}
		rest = append(rest[:found], rest[found+1:]...)
		res.Common = append(res.Common, text)
	}
	res.Removed = append(res.Removed, rest...)
	return res
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name     string
		current  []string
		baseline []string
		want     Result
	}{
		{
			name:     "multiplicity",
			current:  []string{"中", "中", "文"},
			baseline: []string{"中"},
			want:     Result{Added: []string{"中", "文"}, Removed: []string{}, Common: []string{"中"}},
		},
		{
			name:     "empty baseline",
			current:  []string{"a", "b"},
			baseline: nil,
			want:     Result{Added: []string{"a", "b"}, Removed: []string{}, Common: []string{}},
		},
		{
			name:     "empty current",
			current:  nil,
			baseline: []string{"a", "b"},
			want:     Result{Added: []string{}, Removed: []string{"a", "b"}, Common: []string{}},
		},
		{
			name: "both empty",
			want: Result{Added: []string{}, Removed: []string{}, Common: []string{}},
		},
		{
			name:     "removed keeps baseline order",
			current:  []string{"乙"},
			baseline: []string{"丙", "乙", "甲", "丙"},
			want:     Result{Added: []string{}, Removed: []string{"丙", "甲", "丙"}, Common: []string{"乙"}},
		},
		{
			name:     "duplicates in baseline matched pairwise",
			current:  []string{"甲", "乙", "甲", "甲"},
			baseline: []string{"甲", "甲", "丁"},
			want:     Result{Added: []string{"乙", "甲"}, Removed: []string{"丁"}, Common: []string{"甲", "甲"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.current, tt.baseline)
			assert.Empty(t, cmp.Diff(tt.want, got))
			assert.Empty(t, cmp.Diff(quadratic(tt.current, tt.baseline), got))
		})
	}
}

func TestDiffMatchesQuadratic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	alphabet := []string{"甲", "乙", "丙", "丁", "戊"}
	sample := func() []string {
		n := rng.Intn(12)
		out := make([]string, n)
		for i := range out {
			out[i] = alphabet[rng.Intn(len(alphabet))]
		}
		return out
	}

	for i := 0; i < 200; i++ {
		current, baseline := sample(), sample()
		assert.Empty(t, cmp.Diff(quadratic(current, baseline), Diff(current, baseline)), "current=%v baseline=%v", current, baseline)
	}
}

func TestResultHelpers(t *testing.T) {
	r := Diff([]string{"a", "b"}, []string{"b", "c"})
	added, removed, common := r.Counts()
	assert.Equal(t, 1, added)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, common)
	assert.True(t, r.Changed())
	assert.False(t, Diff([]string{"a"}, []string{"a"}).Changed())
}
