package match

import (
	"math"
	"sort"
	"unicode"
	"unicode/utf8"

	"github.com/hyperifyio/pagediff/internal/extract"
	"github.com/hyperifyio/pagediff/internal/normalize"
	"github.com/hyperifyio/pagediff/internal/report"
)

// Mode selects between the two matcher behaviors that exist in the tool's
// history. Strict compares normalized keys with set semantics and is the
// reference behavior; pairwise compares raw text with a single similarity
// threshold and reports whitespace-level changes the strict mode ignores.
type Mode string

const (
	ModeStrict   Mode = "strict"
	ModePairwise Mode = "pairwise"
)

// Fixed constants of the strict algorithm. These are properties of the
// heuristic, not user configuration.
const (
	// Keys shorter than this are too noisy to consider at all.
	minKeyRunes = 30
	// Added/removed entries must have keys strictly longer than this.
	significantKeyRunes = 50
	// Candidate pairs whose key lengths differ by more than 25% are skipped
	// before the similarity computation.
	lengthRatioFloor = 0.75
	// A fuzzy match counts as modified only inside this open interval:
	// at or above the upper bound the pair is treated as unchanged noise,
	// at or below the lower bound it is not the same item at all.
	modifiedSimilarityFloor   = 0.75
	modifiedSimilarityCeiling = 0.9
	// Secondary verification on the original text.
	minWordChanges = 5
	minRuneDiff    = 50
)

// Options tunes the matcher. The zero value selects strict mode.
type Options struct {
	Mode Mode
	// SimilarityThreshold gates added/removed vs modified in pairwise mode.
	// Zero means the default of 0.7. Ignored by strict mode, whose
	// thresholds are fixed.
	SimilarityThreshold float64
}

// Changes classifies every significant block as unchanged, added, removed,
// or modified. It is a pure function: no I/O, no shared state, and it never
// fails for well-formed input. Block order is not significant; comparison
// uses multiset semantics over normalized keys.
func Changes(oldBlocks, newBlocks []extract.Block, opts Options) report.Report {
	if opts.Mode == ModePairwise {
		threshold := opts.SimilarityThreshold
		if threshold == 0 {
			threshold = 0.7
		}
		return pairwise(oldBlocks, newBlocks, threshold)
	}
	return strict(oldBlocks, newBlocks)
}

// keyIndex groups blocks by normalized key, remembering first-seen key
// order so report output is deterministic.
type keyIndex struct {
	blocks map[string][]extract.Block
	order  []string
}

func indexBlocks(blocks []extract.Block) keyIndex {
	idx := keyIndex{blocks: make(map[string][]extract.Block, len(blocks))}
	for _, b := range blocks {
		key := normalize.Key(b.Text)
		if utf8.RuneCountInString(key) < minKeyRunes {
			continue
		}
		if _, ok := idx.blocks[key]; !ok {
			idx.order = append(idx.order, key)
		}
		idx.blocks[key] = append(idx.blocks[key], b)
	}
	return idx
}

func (idx keyIndex) has(key string) bool {
	_, ok := idx.blocks[key]
	return ok
}

func strict(oldBlocks, newBlocks []extract.Block) report.Report {
	oldIdx := indexBlocks(oldBlocks)
	newIdx := indexBlocks(newBlocks)

	var rep report.Report

	// Added: keys present only on the new side, long enough to matter.
	// Duplicate blocks under one key are all emitted, no dedup.
	for _, key := range newIdx.order {
		if oldIdx.has(key) {
			continue
		}
		if utf8.RuneCountInString(key) <= significantKeyRunes {
			continue
		}
		for _, b := range newIdx.blocks[key] {
			rep.Added = append(rep.Added, report.ExcerptOf(b))
		}
	}

	// Removed: symmetric.
	for _, key := range oldIdx.order {
		if newIdx.has(key) {
			continue
		}
		if utf8.RuneCountInString(key) <= significantKeyRunes {
			continue
		}
		for _, b := range oldIdx.blocks[key] {
			rep.Removed = append(rep.Removed, report.ExcerptOf(b))
		}
	}

	// Modified: best fuzzy match between keys unique to each side.
	candidates := newCandidateSet(oldIdx, newIdx)
	for _, newKey := range newIdx.order {
		if oldIdx.has(newKey) {
			continue
		}
		bestKey, bestSim := candidates.best(newKey)
		if bestKey == "" {
			continue
		}
		if bestSim <= modifiedSimilarityFloor || bestSim >= modifiedSimilarityCeiling {
			continue
		}
		for _, nb := range newIdx.blocks[newKey] {
			for _, ob := range oldIdx.blocks[bestKey] {
				if significantRewording(ob.Text, nb.Text) {
					rep.Modified = append(rep.Modified, report.Modification{
						Old: report.ExcerptOf(ob),
						New: report.ExcerptOf(nb),
					})
				}
			}
		}
	}

	return rep
}

// candidateSet holds old-side keys unique to the old document, sorted by
// rune length so the 25% length-ratio window can be binary-searched instead
// of scanning every key.
type candidateSet struct {
	keys  []string
	runes []int
}

func newCandidateSet(oldIdx, newIdx keyIndex) candidateSet {
	var cs candidateSet
	for _, key := range oldIdx.order {
		if newIdx.has(key) {
			continue
		}
		cs.keys = append(cs.keys, key)
	}
	// Length first; key as tiebreak for deterministic traversal.
	sort.Slice(cs.keys, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(cs.keys[i]), utf8.RuneCountInString(cs.keys[j])
		if li != lj {
			return li < lj
		}
		return cs.keys[i] < cs.keys[j]
	})
	cs.runes = make([]int, len(cs.keys))
	for i, k := range cs.keys {
		cs.runes[i] = utf8.RuneCountInString(k)
	}
	return cs
}

// best returns the old key most similar to newKey among candidates inside
// the length window, provided the similarity exceeds the modified floor.
// Ties keep the first candidate seen in bucket order.
func (cs candidateSet) best(newKey string) (string, float64) {
	n := utf8.RuneCountInString(newKey)
	if n == 0 || len(cs.keys) == 0 {
		return "", 0
	}
	// Window of lengths m with min(n,m)/max(n,m) >= lengthRatioFloor.
	lo := sort.SearchInts(cs.runes, int(math.Ceil(float64(n)*lengthRatioFloor)))
	hi := sort.Search(len(cs.runes), func(i int) bool {
		return float64(cs.runes[i]) > float64(n)/lengthRatioFloor
	})

	bestKey := ""
	bestSim := 0.0
	for i := lo; i < hi; i++ {
		m := cs.runes[i]
		minLen, maxLen := m, n
		if n < m {
			minLen, maxLen = n, m
		}
		if float64(minLen)/float64(maxLen) < lengthRatioFloor {
			continue
		}
		sim := similarity(newKey, cs.keys[i])
		if sim > bestSim && sim > modifiedSimilarityFloor {
			bestSim = sim
			bestKey = cs.keys[i]
		}
	}
	return bestKey, bestSim
}

// significantRewording verifies a fuzzy key match against the original
// texts: it must change at least 5 distinct words and more than 50
// characters of length, otherwise the pair is either two different snippets
// of similar shape or a change too trivial to report.
func significantRewording(oldText, newText string) bool {
	oldWords := wordSet(oldText)
	newWords := wordSet(newText)

	changes := 0
	for w := range newWords {
		if !oldWords[w] {
			changes++
		}
	}
	for w := range oldWords {
		if !newWords[w] {
			changes++
		}
	}

	oldLen := utf8.RuneCountInString(oldText)
	newLen := utf8.RuneCountInString(newText)
	diff := oldLen - newLen
	if diff < 0 {
		diff = -diff
	}
	return changes >= minWordChanges && diff > minRuneDiff
}

// wordSet returns the case-folded words of a text: maximal runs of letters,
// digits, and underscores.
func wordSet(text string) map[string]bool {
	words := make(map[string]bool)
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words[string(cur)] = true
			cur = cur[:0]
		}
	}
	for _, r := range text {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur = append(cur, unicode.ToLower(r))
			continue
		}
		flush()
	}
	flush()
	return words
}
