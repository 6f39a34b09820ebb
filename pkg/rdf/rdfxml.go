package rdf

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// xmlDecoder decodes RDF/XML from an XML token stream. It handles node
// elements (rdf:Description and typed nodes), property elements and
// attributes, rdf:about/ID/nodeID/resource/datatype, xml:lang and xml:base
// inheritance, rdf:li numbering, and the Resource, Literal and Collection
// parse types. Namespace declarations are emitted as prefix events as soon
// as the declaring element is read.
type xmlDecoder struct {
	dec    *xml.Decoder
	em     *emitter
	bnodes int

	// depth counts the open node and property elements
	depth    int
	maxDepth int
}

// xmlScope carries the inherited xml:base and xml:lang
type xmlScope struct {
	base *url.URL
	lang string
}

func decodeRDFXML(r io.Reader, format Format, opts options, em *emitter) error {
	dec := xml.NewDecoder(r)
	// Input has already been transcoded to UTF-8 by the caller
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	d := &xmlDecoder{dec: dec, em: em, maxDepth: opts.maxDepth}

	var scope xmlScope
	if opts.baseIRI != "" {
		if u, err := url.Parse(opts.baseIRI); err == nil {
			scope.base = u
		}
	}

	if err := d.document(scope); err != nil {
		line, _ := dec.InputPos()
		return &ParseError{Format: format, Line: line, Err: err}
	}
	return nil
}

func (d *xmlDecoder) document(scope xmlScope) error {
	for {
		tok, err := d.dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("XML parse error: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Space == RDFNamespace && start.Name.Local == "RDF" {
			if err := d.nodeElementList(d.enter(start, scope)); err != nil {
				return err
			}
		} else if _, err := d.nodeElement(start, scope); err != nil {
			return err
		}
	}
}

func (d *xmlDecoder) nodeElementList(scope xmlScope) error {
	for {
		tok, err := d.dec.Token()
		if err != nil {
			return fmt.Errorf("error reading node elements: %w", unexpected(err))
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if _, err := d.nodeElement(t, scope); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

// nodeElement parses a node element whose start tag has been read and
// returns its subject
func (d *xmlDecoder) nodeElement(start xml.StartElement, parent xmlScope) (Term, error) {
	defer d.unnest()
	if err := d.nest(); err != nil {
		return nil, err
	}
	scope := d.enter(start, parent)

	var subject Term
	if about, ok := rdfAttr(start.Attr, "about"); ok {
		subject = NewNamedNode(resolveIRI(scope.base, about))
	} else if id, ok := rdfAttr(start.Attr, "ID"); ok {
		subject = NewNamedNode(resolveIRI(scope.base, "#"+id))
	} else if nodeID, ok := rdfAttr(start.Attr, "nodeID"); ok {
		subject = NewBlankNode(nodeID)
	} else {
		subject = d.newBlankNode()
	}

	if !(start.Name.Space == RDFNamespace && start.Name.Local == "Description") {
		d.em.triple(subject, RDFType, NewNamedNode(nameIRI(start.Name)))
	}
	d.propertyAttrs(subject, start.Attr, scope)

	li := 0
	for {
		tok, err := d.dec.Token()
		if err != nil {
			return nil, fmt.Errorf("error reading node element: %w", unexpected(err))
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := d.propertyElement(t, subject, scope, &li); err != nil {
				return nil, err
			}
		case xml.EndElement:
			return subject, nil
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return nil, fmt.Errorf("unexpected text in node element <%s>", start.Name.Local)
			}
		}
	}
}

func (d *xmlDecoder) propertyElement(start xml.StartElement, subject Term, parent xmlScope, li *int) error {
	defer d.unnest()
	if err := d.nest(); err != nil {
		return err
	}
	scope := d.enter(start, parent)

	predicate := NewNamedNode(nameIRI(start.Name))
	if start.Name.Space == RDFNamespace && start.Name.Local == "li" {
		*li++
		predicate = NewNamedNode(RDFNamespace + "_" + strconv.Itoa(*li))
	}

	if parseType, ok := rdfAttr(start.Attr, "parseType"); ok {
		switch parseType {
		case "Resource":
			node := d.newBlankNode()
			d.em.triple(subject, predicate, node)
			return d.propertyElements(node, scope)
		case "Collection":
			return d.collection(subject, predicate, scope)
		default:
			text, err := d.innerXML()
			if err != nil {
				return err
			}
			d.em.triple(subject, predicate, NewLiteralWithDatatype(text, RDFXMLLiteral))
			return nil
		}
	}

	var object Term
	if resource, ok := rdfAttr(start.Attr, "resource"); ok {
		object = NewNamedNode(resolveIRI(scope.base, resource))
	} else if nodeID, ok := rdfAttr(start.Attr, "nodeID"); ok {
		object = NewBlankNode(nodeID)
	}
	if object == nil && hasPropertyAttrs(start.Attr) {
		object = d.newBlankNode()
	}
	if object != nil {
		d.em.triple(subject, predicate, object)
		d.propertyAttrs(object, start.Attr, scope)
		return d.skipEmpty(start)
	}

	var text strings.Builder
	for {
		tok, err := d.dec.Token()
		if err != nil {
			return fmt.Errorf("error reading property content: %w", unexpected(err))
		}
		switch t := tok.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.StartElement:
			node, err := d.nodeElement(t, scope)
			if err != nil {
				return err
			}
			d.em.triple(subject, predicate, node)
			return d.skipEmpty(start)
		case xml.EndElement:
			d.em.triple(subject, predicate, d.literal(text.String(), start.Attr, scope))
			return nil
		}
	}
}

// propertyElements parses the children of a parseType="Resource" element
func (d *xmlDecoder) propertyElements(subject Term, scope xmlScope) error {
	li := 0
	for {
		tok, err := d.dec.Token()
		if err != nil {
			return fmt.Errorf("error reading property elements: %w", unexpected(err))
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := d.propertyElement(t, subject, scope, &li); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

func (d *xmlDecoder) collection(subject Term, predicate *NamedNode, scope xmlScope) error {
	var items []Term
	for {
		tok, err := d.dec.Token()
		if err != nil {
			return fmt.Errorf("error reading collection: %w", unexpected(err))
		}
		if start, ok := tok.(xml.StartElement); ok {
			node, err := d.nodeElement(start, scope)
			if err != nil {
				return err
			}
			items = append(items, node)
			continue
		}
		if _, ok := tok.(xml.EndElement); ok {
			break
		}
	}

	if len(items) == 0 {
		d.em.triple(subject, predicate, RDFNil)
		return nil
	}
	head := d.newBlankNode()
	node := head
	for i, item := range items {
		d.em.triple(node, RDFFirst, item)
		if i == len(items)-1 {
			d.em.triple(node, RDFRest, RDFNil)
			break
		}
		next := d.newBlankNode()
		d.em.triple(node, RDFRest, next)
		node = next
	}
	d.em.triple(subject, predicate, head)
	return nil
}

// innerXML re-serializes the content of the current element up to its end tag
func (d *xmlDecoder) innerXML() (string, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	depth := 0
	for {
		tok, err := d.dec.Token()
		if err != nil {
			return "", fmt.Errorf("error reading XML literal: %w", unexpected(err))
		}
		tok = xml.CopyToken(tok)
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			tok = withoutNamespaceDecls(t)
		case xml.EndElement:
			if depth == 0 {
				if err := enc.Flush(); err != nil {
					return "", err
				}
				return buf.String(), nil
			}
			depth--
		}
		if err := enc.EncodeToken(tok); err != nil {
			return "", fmt.Errorf("error encoding XML literal: %w", err)
		}
	}
}

// skipEmpty consumes the rest of a property element that must have no content
func (d *xmlDecoder) skipEmpty(start xml.StartElement) error {
	for {
		tok, err := d.dec.Token()
		if err != nil {
			return fmt.Errorf("error reading property element: %w", unexpected(err))
		}
		switch t := tok.(type) {
		case xml.EndElement:
			return nil
		case xml.StartElement:
			return fmt.Errorf("unexpected element <%s> in property <%s>", t.Name.Local, start.Name.Local)
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return fmt.Errorf("unexpected text in property <%s>", start.Name.Local)
			}
		}
	}
}

func (d *xmlDecoder) literal(text string, attrs []xml.Attr, scope xmlScope) *Literal {
	if datatype, ok := rdfAttr(attrs, "datatype"); ok {
		return NewLiteralWithDatatype(text, NewNamedNode(resolveIRI(scope.base, datatype)))
	}
	if scope.lang != "" {
		return NewLiteralWithLanguage(text, scope.lang)
	}
	return NewLiteral(text)
}

// propertyAttrs emits one triple per property attribute of an element
func (d *xmlDecoder) propertyAttrs(subject Term, attrs []xml.Attr, scope xmlScope) {
	for _, attr := range attrs {
		if !isPropertyAttr(attr.Name) {
			continue
		}
		if attr.Name.Space == RDFNamespace && attr.Name.Local == "type" {
			d.em.triple(subject, RDFType, NewNamedNode(resolveIRI(scope.base, attr.Value)))
			continue
		}
		var object Term = NewLiteral(attr.Value)
		if scope.lang != "" {
			object = NewLiteralWithLanguage(attr.Value, scope.lang)
		}
		d.em.triple(subject, NewNamedNode(nameIRI(attr.Name)), object)
	}
}

// enter emits the namespace declarations of an element and returns the
// scope its content inherits
func (d *xmlDecoder) enter(start xml.StartElement, parent xmlScope) xmlScope {
	scope := parent
	for _, attr := range start.Attr {
		switch {
		case attr.Name.Space == "xmlns":
			d.em.prefix(attr.Name.Local, attr.Value)
		case attr.Name.Space == "" && attr.Name.Local == "xmlns":
			d.em.prefix("", attr.Value)
		case attr.Name.Space == xmlNamespace && attr.Name.Local == "lang":
			scope.lang = attr.Value
		case attr.Name.Space == xmlNamespace && attr.Name.Local == "base":
			if u, err := url.Parse(resolveIRI(parent.base, attr.Value)); err == nil {
				scope.base = u
			}
		}
	}
	return scope
}

// withoutNamespaceDecls drops xmlns attributes; the encoder declares the
// namespaces it needs itself
func withoutNamespaceDecls(start xml.StartElement) xml.StartElement {
	attrs := start.Attr[:0]
	for _, attr := range start.Attr {
		if attr.Name.Space == "xmlns" || (attr.Name.Space == "" && attr.Name.Local == "xmlns") {
			continue
		}
		attrs = append(attrs, attr)
	}
	start.Attr = attrs
	return start
}

func (d *xmlDecoder) nest() error {
	d.depth++
	if d.maxDepth > 0 && d.depth > d.maxDepth {
		return errors.Wrapf(ErrDepthExceeded, "more than %d nested elements", d.maxDepth)
	}
	return nil
}

func (d *xmlDecoder) unnest() {
	d.depth--
}

func (d *xmlDecoder) newBlankNode() *BlankNode {
	d.bnodes++
	return NewBlankNode(fmt.Sprintf("genid%d", d.bnodes))
}

// rdfSyntaxAttrs are rdf: attributes that never denote properties
var rdfSyntaxAttrs = map[string]bool{
	"about": true, "ID": true, "nodeID": true, "resource": true,
	"datatype": true, "parseType": true, "aboutEach": true,
	"aboutEachPrefix": true, "bagID": true,
}

func isPropertyAttr(name xml.Name) bool {
	switch {
	case name.Space == "xmlns", name.Space == "" && name.Local == "xmlns":
		return false
	case name.Space == xmlNamespace:
		return false
	case name.Space == RDFNamespace && rdfSyntaxAttrs[name.Local]:
		return false
	case name.Space == "":
		// unqualified attributes carry no property IRI
		return false
	}
	return true
}

func hasPropertyAttrs(attrs []xml.Attr) bool {
	for _, attr := range attrs {
		if isPropertyAttr(attr.Name) {
			return true
		}
	}
	return false
}

// rdfAttr gets an rdf: attribute, also accepting the unqualified form
func rdfAttr(attrs []xml.Attr, local string) (string, bool) {
	for _, attr := range attrs {
		if attr.Name.Local == local && (attr.Name.Space == RDFNamespace || attr.Name.Space == "") {
			return attr.Value, true
		}
	}
	return "", false
}

func nameIRI(name xml.Name) string {
	return name.Space + name.Local
}

func resolveIRI(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() {
		return ref
	}
	return base.ResolveReference(u).String()
}
