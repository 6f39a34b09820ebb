package render

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func element(a atom.Atom, class string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	if class != "" {
		n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: class})
	}
	return n
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// linkSchemes are the IRI schemes rendered as clickable links
var linkSchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"ftp":    true,
	"mailto": true,
}

// safeHref reports whether href may be emitted as a link target. Fragment
// references to anchors always may; other IRIs only with a known scheme.
func safeHref(href string) bool {
	if strings.HasPrefix(href, "#") {
		return len(href) > 1
	}
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	return linkSchemes[strings.ToLower(u.Scheme)]
}

// termNode is a link for terms with a safe target and a plain span otherwise
func termNode(seg Segment) *html.Node {
	var n *html.Node
	if safeHref(seg.Href) {
		n = element(atom.A, "")
		n.Attr = append(n.Attr, html.Attribute{Key: "href", Val: seg.Href})
	} else {
		n = element(atom.Span, "")
	}
	if seg.Kind == SegSubject && seg.Anchor != "" {
		n.Attr = append(n.Attr, html.Attribute{Key: "id", Val: seg.Anchor})
	}
	n.AppendChild(textNode(seg.Text))
	return n
}

var wrapperClass = map[SegmentKind]string{
	SegSubject:   "subject",
	SegPredicate: "predicate",
	SegObject:    "object",
}

// HTMLNodes returns the document as two detached elements:
// div.prefixes with one line per binding, and div.triples with one
// p.triple per block. Indents are runs of U+00A0 and line breaks are <br>.
func (d *Document) HTMLNodes() []*html.Node {
	prefixes := element(atom.Div, "prefixes")
	for _, p := range d.Prefixes {
		line := element(atom.Span, "prefix")
		line.AppendChild(textNode("@prefix " + p.Name + ": "))
		link := element(atom.Span, "")
		if safeHref(p.IRI) {
			link = element(atom.A, "")
			link.Attr = append(link.Attr, html.Attribute{Key: "href", Val: p.IRI})
		}
		link.AppendChild(textNode("<" + p.IRI + ">"))
		line.AppendChild(link)
		line.AppendChild(textNode(" ."))
		prefixes.AppendChild(line)
		prefixes.AppendChild(element(atom.Br, ""))
	}

	triples := element(atom.Div, "triples")
	for _, block := range d.Blocks {
		p := element(atom.P, "triple")
		for _, seg := range block.Segments {
			switch seg.Kind {
			case SegText:
				p.AppendChild(textNode(seg.Text))
			case SegIndent:
				p.AppendChild(textNode(strings.Repeat(nbsp, seg.Width)))
			case SegBreak:
				p.AppendChild(element(atom.Br, ""))
			default:
				wrapper := element(atom.Span, wrapperClass[seg.Kind])
				wrapper.AppendChild(termNode(seg))
				p.AppendChild(wrapper)
			}
		}
		triples.AppendChild(p)
	}
	return []*html.Node{prefixes, triples}
}

// WriteHTML writes the HTML fragment of the document
func (d *Document) WriteHTML(w io.Writer) error {
	for _, n := range d.HTMLNodes() {
		if err := html.Render(w, n); err != nil {
			return err
		}
	}
	return nil
}
