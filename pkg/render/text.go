package render

import (
	"bufio"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/aleksaelezovic/rdfpreview/pkg/store"
)

const nbsp = "\u00a0"

type textOptions struct {
	indent string
	color  bool
}

// TextOption configures WriteText
type TextOption func(*textOptions)

// WithNonBreakingIndent indents continuation lines with U+00A0 instead of
// spaces
func WithNonBreakingIndent() TextOption {
	return func(o *textOptions) {
		o.indent = nbsp
	}
}

// WithColor enables or disables ANSI colours regardless of the terminal
func WithColor(enabled bool) TextOption {
	return func(o *textOptions) {
		o.color = enabled
	}
}

type palette struct {
	subject, predicate, named, blank, literal *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		subject:   color.New(color.FgBlue, color.Bold),
		predicate: color.New(color.FgGreen),
		named:     color.New(color.FgCyan),
		blank:     color.New(color.FgMagenta),
		literal:   color.New(color.FgYellow),
	}
	for _, c := range []*color.Color{p.subject, p.predicate, p.named, p.blank, p.literal} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) sprint(seg Segment) string {
	switch seg.Kind {
	case SegSubject:
		return p.subject.Sprint(seg.Text)
	case SegPredicate:
		return p.predicate.Sprint(seg.Text)
	}
	switch seg.TermKind {
	case store.KindNamed:
		return p.named.Sprint(seg.Text)
	case store.KindBlank:
		return p.blank.Sprint(seg.Text)
	default:
		return p.literal.Sprint(seg.Text)
	}
}

// WriteText writes the document as plain text: the prefix block as
// @prefix lines, then one paragraph per block, separated by blank lines
func (d *Document) WriteText(w io.Writer, opts ...TextOption) error {
	o := textOptions{indent: " "}
	for _, opt := range opts {
		opt(&o)
	}
	colors := newPalette(o.color)

	bw := bufio.NewWriter(w)
	for _, p := range d.Prefixes {
		bw.WriteString("@prefix " + p.Name + ": <" + p.IRI + "> .\n")
	}
	for i, block := range d.Blocks {
		if i > 0 || len(d.Prefixes) > 0 {
			bw.WriteString("\n")
		}
		for _, seg := range block.Segments {
			switch seg.Kind {
			case SegText:
				bw.WriteString(seg.Text)
			case SegIndent:
				bw.WriteString(strings.Repeat(o.indent, seg.Width))
			case SegBreak:
				bw.WriteString("\n")
			default:
				bw.WriteString(colors.sprint(seg))
			}
		}
		bw.WriteString("\n")
	}
	return bw.Flush()
}

// String returns the uncoloured text form of the document
func (d *Document) String() string {
	var sb strings.Builder
	_ = d.WriteText(&sb)
	return sb.String()
}
