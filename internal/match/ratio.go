package match

import (
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// similarity returns the character-level sequence similarity of two strings
// on the conventional 0.0-1.0 scale: 2*M/T, where M is the number of
// characters in common (longest common subsequence) and T the combined
// length. The diff timeout is disabled so the ratio is exact rather than
// an approximation under time pressure.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	diffs := dmp.DiffMain(a, b, false)

	matched := 0
	for _, d := range diffs {
		if d.Type == diffmatchpatch.DiffEqual {
			matched += utf8.RuneCountInString(d.Text)
		}
	}
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	return float64(2*matched) / float64(total)
}
