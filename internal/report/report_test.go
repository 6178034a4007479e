package report

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/hyperifyio/pagediff/internal/extract"
)

func TestExcerptOf_ShortTextKeptVerbatim(t *testing.T) {
	b := extract.Block{Kind: extract.Paragraph, Text: "short enough text"}
	e := ExcerptOf(b)
	if e.Text != b.Text {
		t.Fatalf("expected verbatim text, got %q", e.Text)
	}
	if e.Kind != extract.Paragraph {
		t.Fatalf("expected paragraph kind, got %q", e.Kind)
	}
}

func TestExcerptOf_LongTextTruncatedWithEllipsis(t *testing.T) {
	long := strings.Repeat("é", 200)
	e := ExcerptOf(extract.Block{Kind: extract.Quote, Text: long})
	if !strings.HasSuffix(e.Text, "...") {
		t.Fatalf("expected ellipsis suffix, got %q", e.Text)
	}
	body := strings.TrimSuffix(e.Text, "...")
	if utf8.RuneCountInString(body) != 150 {
		t.Fatalf("expected exactly 150 runes before ellipsis, got %d", utf8.RuneCountInString(body))
	}
}

func TestExcerptOf_Exactly150RunesNotTruncated(t *testing.T) {
	exact := strings.Repeat("x", 150)
	e := ExcerptOf(extract.Block{Kind: extract.Paragraph, Text: exact})
	if e.Text != exact {
		t.Fatalf("expected no truncation at exactly 150 runes")
	}
}

func TestReport_CountsAndEmpty(t *testing.T) {
	var r Report
	if !r.Empty() {
		t.Fatalf("expected zero-value report to be empty")
	}
	r.Added = append(r.Added, Excerpt{Kind: extract.Paragraph, Text: "a"})
	r.Modified = append(r.Modified, Modification{})
	a, rm, m := r.Counts()
	if a != 1 || rm != 0 || m != 1 {
		t.Fatalf("unexpected counts: %d %d %d", a, rm, m)
	}
	if r.Empty() {
		t.Fatalf("expected non-empty report")
	}
}

func TestMarkdown_RendersCountsAndPlaceholders(t *testing.T) {
	r := Report{
		Added: []Excerpt{{Kind: extract.Heading1, Text: "A freshly added heading"}},
		Modified: []Modification{{
			Old: Excerpt{Kind: extract.Paragraph, Text: "old wording"},
			New: Excerpt{Kind: extract.Paragraph, Text: "new wording"},
		}},
	}
	md := r.Markdown()
	for _, want := range []string{
		"## New Content (1)",
		"- **H1**: A freshly added heading",
		"## Removed Content (0)",
		"No removed content detected.",
		"## Modified Content (1)",
		"- Before **P**: old wording",
		"  After **P**: new wording",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("expected rendering to contain %q; got:\n%s", want, md)
		}
	}
}
