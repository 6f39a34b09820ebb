package render

import "github.com/aleksaelezovic/rdfpreview/pkg/store"

// SegmentKind tags the pieces a rendered block is made of
type SegmentKind byte

const (
	SegSubject SegmentKind = iota + 1
	SegPredicate
	SegObject
	// SegText is punctuation or spacing between terms
	SegText
	// SegIndent is a run of Width non-breaking columns
	SegIndent
	// SegBreak ends a line within a block
	SegBreak
)

func (k SegmentKind) String() string {
	switch k {
	case SegSubject:
		return "subject"
	case SegPredicate:
		return "predicate"
	case SegObject:
		return "object"
	case SegText:
		return "text"
	case SegIndent:
		return "indent"
	case SegBreak:
		return "break"
	default:
		return "unknown"
	}
}

// Segment is one piece of a block. Term segments carry the display text,
// the kind of the term, an optional link target and, for subjects, the
// anchor other segments may link to.
type Segment struct {
	Kind     SegmentKind
	Text     string
	TermKind store.Kind
	Href     string
	Anchor   string
	Width    int
}

// Block renders all consecutive triples sharing one subject
type Block struct {
	Segments []Segment
}

func (b *Block) add(seg Segment) {
	b.Segments = append(b.Segments, seg)
}

func (b *Block) text(s string) {
	b.add(Segment{Kind: SegText, Text: s})
}

func (b *Block) indent(width int) {
	b.add(Segment{Kind: SegIndent, Width: width})
}

func (b *Block) lineBreak() {
	b.add(Segment{Kind: SegBreak})
}

// PrefixLine is one entry of the prefix block
type PrefixLine struct {
	Name string
	IRI  string
}

// Document is a rendered triple store, independent of any output format
type Document struct {
	Prefixes []PrefixLine
	Blocks   []Block
}
