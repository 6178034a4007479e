package report

import (
	"fmt"
	"strings"

	"github.com/hyperifyio/pagediff/internal/extract"
)

// maxExcerptRunes bounds excerpt text in reports; longer originals are cut
// and marked with an ellipsis. Display concern only, never used in matching.
const maxExcerptRunes = 150

// Excerpt references the original (non-normalized) text of a block,
// truncated for display.
type Excerpt struct {
	Kind extract.Kind `json:"kind"`
	Text string       `json:"text"`
}

// Modification pairs the old and new side of a changed block.
type Modification struct {
	Old Excerpt `json:"old"`
	New Excerpt `json:"new"`
}

// Report is the structured outcome of one comparison.
type Report struct {
	Added    []Excerpt      `json:"added"`
	Removed  []Excerpt      `json:"removed"`
	Modified []Modification `json:"modified"`
}

// ExcerptOf builds a display excerpt from a block, truncating to 150 runes
// plus an ellipsis when the original is longer.
func ExcerptOf(b extract.Block) Excerpt {
	return Excerpt{Kind: b.Kind, Text: truncate(b.Text)}
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= maxExcerptRunes {
		return s
	}
	return string(runes[:maxExcerptRunes]) + "..."
}

// Counts returns the number of entries per category.
func (r Report) Counts() (added, removed, modified int) {
	return len(r.Added), len(r.Removed), len(r.Modified)
}

// Empty reports whether no changes were detected in any category.
func (r Report) Empty() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0 && len(r.Modified) == 0
}

// Markdown renders the report as a Markdown summary with per-category
// counts and labeled excerpts. Pure formatting, no decision logic.
func (r Report) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "## New Content (%d)\n\n", len(r.Added))
	if len(r.Added) == 0 {
		b.WriteString("No new content detected.\n")
	}
	for _, e := range r.Added {
		fmt.Fprintf(&b, "- **%s**: %s\n", e.Kind.Label(), e.Text)
	}

	fmt.Fprintf(&b, "\n## Removed Content (%d)\n\n", len(r.Removed))
	if len(r.Removed) == 0 {
		b.WriteString("No removed content detected.\n")
	}
	for _, e := range r.Removed {
		fmt.Fprintf(&b, "- **%s**: %s\n", e.Kind.Label(), e.Text)
	}

	fmt.Fprintf(&b, "\n## Modified Content (%d)\n\n", len(r.Modified))
	if len(r.Modified) == 0 {
		b.WriteString("No modified content detected.\n")
	}
	for _, m := range r.Modified {
		fmt.Fprintf(&b, "- Before **%s**: %s\n", m.Old.Kind.Label(), m.Old.Text)
		fmt.Fprintf(&b, "  After **%s**: %s\n", m.New.Kind.Label(), m.New.Text)
	}

	return b.String()
}
