// Package reconcile compares extracted phrase texts against a translation
// table's base texts.
package reconcile

// Result classifies texts. Each list keeps the order of its input.
type Result struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
	Common  []string `json:"common"`
}

// Diff matches current against baseline one-for-one by text. A current text
// is common if an unmatched equal baseline text remains, otherwise added.
// Baseline texts left unmatched are removed. Duplicates are matched pairwise,
// never collapsed.
func Diff(current, baseline []string) Result {
	res := Result{
		Added:   []string{},
		Removed: []string{},
		Common:  []string{},
	}
	if len(baseline) == 0 {
		res.Added = append(res.Added, current...)
		return res
	}
	if len(current) == 0 {
		res.Removed = append(res.Removed, baseline...)
		return res
	}

	// positions holds, per text, the baseline indexes not yet matched, in order.
	positions := make(map[string][]int, len(baseline))
	for i, text := range baseline {
		positions[text] = append(positions[text], i)
	}
	matched := make([]bool, len(baseline))

	for _, text := range current {
		idx := positions[text]
		if len(idx) == 0 {
			res.Added = append(res.Added, text)
			continue
		}
		matched[idx[0]] = true
		positions[text] = idx[1:]
		res.Common = append(res.Common, text)
	}

	for i, text := range baseline {
		if !matched[i] {
			res.Removed = append(res.Removed, text)
		}
	}
	return res
}

// Counts returns the sizes of the three lists.
func (r Result) Counts() (added, removed, common int) {
	return len(r.Added), len(r.Removed), len(r.Common)
}

// Changed reports whether current and baseline differ.
func (r Result) Changed() bool {
	return len(r.Added) > 0 || len(r.Removed) > 0
}
