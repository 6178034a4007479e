package match

import (
	"strings"
	"testing"

	"github.com/hyperifyio/pagediff/internal/extract"
)

func p(text string) extract.Block {
	return extract.Block{Kind: extract.Paragraph, Text: text}
}

func TestChanges_IdenticalInputsYieldEmptyReport(t *testing.T) {
	blocks := []extract.Block{
		p("Hello world, this is a test paragraph with enough length to pass filters."),
		{Kind: extract.Heading2, Text: "A heading that is comfortably past the noise filters"},
	}
	for _, mode := range []Mode{ModeStrict, ModePairwise} {
		rep := Changes(blocks, blocks, Options{Mode: mode})
		if !rep.Empty() {
			t.Fatalf("mode %s: expected empty report for identical inputs, got %+v", mode, rep)
		}
	}
}

func TestChanges_EmptySidesAreNotErrors(t *testing.T) {
	if rep := Changes(nil, nil, Options{}); !rep.Empty() {
		t.Fatalf("expected empty report for empty inputs")
	}
	rep := Changes(nil, []extract.Block{
		p("A brand new substantial paragraph of significant length exceeding fifty normalized characters for sure."),
	}, Options{})
	if len(rep.Added) != 1 || len(rep.Removed) != 0 || len(rep.Modified) != 0 {
		t.Fatalf("expected exactly one addition, got %+v", rep)
	}
}

func TestChanges_RemovedIsSymmetric(t *testing.T) {
	rep := Changes([]extract.Block{
		p("A brand new substantial paragraph of significant length exceeding fifty normalized characters for sure."),
	}, nil, Options{})
	if len(rep.Removed) != 1 || len(rep.Added) != 0 || len(rep.Modified) != 0 {
		t.Fatalf("expected exactly one removal, got %+v", rep)
	}
}

func TestChanges_ShortKeysNeverReported(t *testing.T) {
	// Normalized key is well under 30 runes, so the block is boilerplate
	// regardless of which side it appears on.
	rep := Changes(nil, []extract.Block{p("Tiny little header here!")}, Options{})
	if !rep.Empty() {
		t.Fatalf("expected sub-30-rune key to be filtered, got %+v", rep)
	}
}

func TestChanges_MidLengthUniqueKeysNotSignificantEnough(t *testing.T) {
	// Key length lands between the 30-rune noise filter and the 50-rune
	// significance threshold: kept for matching, but never added/removed.
	text := "Forty characters of normalized key text!!" // key ~38 runes
	rep := Changes(nil, []extract.Block{p(text)}, Options{})
	if !rep.Empty() {
		t.Fatalf("expected mid-length unique key to be ignored, got %+v", rep)
	}
}

func TestChanges_ModifiedRequiresAllGates(t *testing.T) {
	// Keys are similar (ratio in the open (0.75, 0.9) interval), lengths
	// within 25%, the rewording touches six words, and the padded new text
	// differs by more than 50 characters. Keys stay at or under 50 runes so
	// the added/removed categories stay quiet.
	oldText := "Alpha beta gamma delta epsilon zeta eta theta."
	newText := "Alpha beta gamma delta epsilon iota kappa lambda " + strings.Repeat(".", 60)

	rep := Changes([]extract.Block{p(oldText)}, []extract.Block{p(newText)}, Options{})
	if len(rep.Modified) != 1 {
		t.Fatalf("expected one modification, got %+v", rep)
	}
	if len(rep.Added) != 0 || len(rep.Removed) != 0 {
		t.Fatalf("expected no added/removed entries, got %+v", rep)
	}
	if rep.Modified[0].Old.Text != oldText {
		t.Fatalf("expected original old text in excerpt, got %q", rep.Modified[0].Old.Text)
	}
}

func TestChanges_TrivialRewordingRejectedBySecondaryVerification(t *testing.T) {
	// Similar keys but only two words change and the length difference is
	// small: the fuzzy match must be discarded.
	oldText := "Alpha beta gamma delta epsilon zeta eta theta omega kappa."
	newText := "Alpha beta gamma delta epsilon zeta eta theta sigma rho."
	rep := Changes([]extract.Block{p(oldText)}, []extract.Block{p(newText)}, Options{})
	if len(rep.Modified) != 0 {
		t.Fatalf("expected secondary verification to reject trivial change, got %+v", rep)
	}
}

func TestChanges_NearIdenticalKeysTreatedAsUnchanged(t *testing.T) {
	// Similarity at or above 0.9 is noise, not a modification.
	oldText := "This is a sentence about nothing in particular number one"
	newText := "This is a sentence about nothing in particular number ones"
	rep := Changes([]extract.Block{p(oldText)}, []extract.Block{p(newText)}, Options{})
	if len(rep.Modified) != 0 {
		t.Fatalf("expected near-identical pair to be unchanged, got %+v", rep)
	}
}

func TestChanges_NormalizationMakesCasingAndPunctuationInvisible(t *testing.T) {
	oldText := "Hello, World! This is a decently long paragraph for keys."
	newText := "hello world   this is a decently long paragraph FOR keys"
	rep := Changes([]extract.Block{p(oldText)}, []extract.Block{p(newText)}, Options{})
	if !rep.Empty() {
		t.Fatalf("expected normalized-equal blocks to be unchanged, got %+v", rep)
	}
}

func TestChanges_DuplicateBlocksUnderOneKeyAllEmitted(t *testing.T) {
	text := "A brand new substantial paragraph of significant length exceeding fifty normalized characters for sure."
	old := []extract.Block{
		p(text),
		{Kind: extract.Quote, Text: text},
	}
	rep := Changes(old, nil, Options{})
	if len(rep.Removed) != 2 {
		t.Fatalf("expected both duplicate blocks removed, got %+v", rep)
	}
}

func TestChanges_PairwiseModifiedAndRemoved(t *testing.T) {
	old := []extract.Block{
		p("The committee will meet on Tuesday afternoon in the main hall."),
		p("This entire paragraph disappears from the next revision of the page."),
	}
	new := []extract.Block{
		p("The committee will meet on Wednesday morning in the main hall."),
	}
	rep := Changes(old, new, Options{Mode: ModePairwise})
	if len(rep.Modified) != 1 {
		t.Fatalf("expected one pairwise modification, got %+v", rep)
	}
	if len(rep.Removed) != 1 {
		t.Fatalf("expected one pairwise removal, got %+v", rep)
	}
	if len(rep.Added) != 0 {
		t.Fatalf("expected no pairwise additions, got %+v", rep)
	}
}

func TestChanges_PairwiseAddedBelowThreshold(t *testing.T) {
	old := []extract.Block{p("Completely unrelated text lives here on the old page.")}
	new := []extract.Block{
		p("Completely unrelated text lives here on the old page."),
		p("Fresh announcement about an upcoming community event next month."),
	}
	rep := Changes(old, new, Options{Mode: ModePairwise, SimilarityThreshold: 0.7})
	if len(rep.Added) != 1 {
		t.Fatalf("expected one pairwise addition, got %+v", rep)
	}
	if len(rep.Removed) != 0 || len(rep.Modified) != 0 {
		t.Fatalf("expected clean addition, got %+v", rep)
	}
}

func TestSimilarity_Bounds(t *testing.T) {
	if got := similarity("abc", "abc"); got != 1 {
		t.Fatalf("expected identical strings to score 1, got %f", got)
	}
	if got := similarity("abc", ""); got != 0 {
		t.Fatalf("expected empty side to score 0, got %f", got)
	}
	got := similarity("abcd", "abce")
	if got <= 0.5 || got >= 1 {
		t.Fatalf("expected partial similarity in (0.5, 1), got %f", got)
	}
}

func TestWordSet_FoldsCaseAndSplitsOnNonWordRunes(t *testing.T) {
	words := wordSet("Hello, WORLD-wide_web 42!")
	for _, w := range []string{"hello", "world", "wide_web", "42"} {
		if !words[w] {
			t.Fatalf("expected word %q in %v", w, words)
		}
	}
}
