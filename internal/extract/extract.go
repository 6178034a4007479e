package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// Kind identifies the element kind a content block was taken from. Values
// are the HTML tag names so the scan list and report labels stay aligned.
type Kind string

const (
	Paragraph   Kind = "p"
	Heading1    Kind = "h1"
	Heading2    Kind = "h2"
	Heading3    Kind = "h3"
	Heading4    Kind = "h4"
	Heading5    Kind = "h5"
	Heading6    Kind = "h6"
	ListItem    Kind = "li"
	TableHeader Kind = "th"
	TableCell   Kind = "td"
	Caption     Kind = "figcaption"
	Quote       Kind = "blockquote"
)

// Label returns the display form used in report excerpts, e.g. "H1".
func (k Kind) Label() string { return strings.ToUpper(string(k)) }

// Block is the flattened visible text of one content-bearing element.
// Blocks are never mutated after extraction.
type Block struct {
	Kind Kind
	Text string
}

// contentKinds is the fixed allow-list of content-bearing elements, scanned
// kind by kind. Order across kinds is not relied upon downstream.
var contentKinds = []Kind{
	Paragraph,
	Heading1, Heading2, Heading3, Heading4, Heading5, Heading6,
	ListItem, TableHeader, TableCell, Caption, Quote,
}

// nonContentSelector matches elements that carry styling, metadata, or
// vector graphics rather than readable text. Their subtrees are removed
// before scanning.
const nonContentSelector = "script,style,meta,link,svg,path,noscript"

// Blocks parses an HTML document leniently and returns its significant text
// blocks. Fragments of 10 runes or fewer, and fragments with no letters
// (bare numbers, separators), are dropped as noise. An empty or unparsable
// document yields an empty slice, not an error.
func Blocks(document string) []Block {
	if document == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return nil
	}
	doc.Find(nonContentSelector).Remove()

	var out []Block
	for _, kind := range contentKinds {
		doc.Find(string(kind)).Each(func(_ int, sel *goquery.Selection) {
			text := strings.TrimSpace(sel.Text())
			if utf8.RuneCountInString(text) <= 10 {
				return
			}
			if !hasLetter(text) {
				return
			}
			out = append(out, Block{Kind: kind, Text: text})
		})
	}
	return out
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
