package rdf

import (
	"fmt"
	"strings"
)

// TermType represents the variant of a raw RDF term as produced by a decoder
type TermType byte

const (
	TermTypeNamedNode TermType = iota + 1
	TermTypeBlankNode
	TermTypeLiteral
)

func (t TermType) String() string {
	switch t {
	case TermTypeNamedNode:
		return "NamedNode"
	case TermTypeBlankNode:
		return "BlankNode"
	case TermTypeLiteral:
		return "Literal"
	default:
		return fmt.Sprintf("TermType(%d)", byte(t))
	}
}

// Term represents an RDF term (IRI, blank node, or literal)
type Term interface {
	Type() TermType
	String() string
	Equals(other Term) bool
}

// NamedNode represents an IRI
type NamedNode struct {
	IRI string
}

func NewNamedNode(iri string) *NamedNode {
	return &NamedNode{IRI: iri}
}

func (n *NamedNode) Type() TermType {
	return TermTypeNamedNode
}

func (n *NamedNode) String() string {
	return "<" + n.IRI + ">"
}

func (n *NamedNode) Equals(other Term) bool {
	if on, ok := other.(*NamedNode); ok {
		return n.IRI == on.IRI
	}
	return false
}

// BlankNode represents a blank node
type BlankNode struct {
	ID string
}

func NewBlankNode(id string) *BlankNode {
	return &BlankNode{ID: id}
}

func (b *BlankNode) Type() TermType {
	return TermTypeBlankNode
}

func (b *BlankNode) String() string {
	return "_:" + b.ID
}

func (b *BlankNode) Equals(other Term) bool {
	if ob, ok := other.(*BlankNode); ok {
		return b.ID == ob.ID
	}
	return false
}

// Literal represents an RDF literal.
// Tagged distinguishes a literal carrying a (possibly empty) language tag
// from one that carries none.
type Literal struct {
	Value    string
	Language string
	Tagged   bool
	Datatype *NamedNode
}

func NewLiteral(value string) *Literal {
	return &Literal{Value: value, Datatype: XSDString}
}

func NewLiteralWithLanguage(value, language string) *Literal {
	return &Literal{Value: value, Language: language, Tagged: true, Datatype: RDFLangString}
}

func NewLiteralWithDatatype(value string, datatype *NamedNode) *Literal {
	return &Literal{Value: value, Datatype: datatype}
}

func (l *Literal) Type() TermType {
	return TermTypeLiteral
}

// DatatypeIRI returns the datatype IRI, defaulting to xsd:string
func (l *Literal) DatatypeIRI() string {
	if l.Datatype != nil {
		return l.Datatype.IRI
	}
	if l.Tagged {
		return RDFLangString.IRI
	}
	return XSDString.IRI
}

func (l *Literal) String() string {
	var sb strings.Builder
	sb.WriteByte('"')
	sb.WriteString(EscapeString(l.Value))
	sb.WriteByte('"')
	if l.Tagged {
		sb.WriteString("@" + l.Language)
	} else if l.Datatype != nil && l.Datatype.IRI != XSDString.IRI {
		sb.WriteString("^^" + l.Datatype.String())
	}
	return sb.String()
}

func (l *Literal) Equals(other Term) bool {
	ol, ok := other.(*Literal)
	if !ok {
		return false
	}
	return l.Value == ol.Value &&
		l.Tagged == ol.Tagged &&
		l.Language == ol.Language &&
		l.DatatypeIRI() == ol.DatatypeIRI()
}

// Triple represents an RDF triple (subject, predicate, object) of raw terms.
// Decoders never validate positions; a nil or foreign term marks the triple
// as malformed for the consumer to drop.
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

func NewTriple(subject, predicate, object Term) *Triple {
	return &Triple{
		Subject:   subject,
		Predicate: predicate,
		Object:    object,
	}
}

func (t *Triple) String() string {
	return fmt.Sprintf("%s %s %s .", termString(t.Subject), termString(t.Predicate), termString(t.Object))
}

func termString(t Term) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

const (
	RDFNamespace = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	XSDNamespace = "http://www.w3.org/2001/XMLSchema#"
	OWLNamespace = "http://www.w3.org/2002/07/owl#"
	LogNamespace = "http://www.w3.org/2000/10/swap/log#"
	xmlNamespace = "http://www.w3.org/XML/1998/namespace"
)

// Well-known terms
var (
	XSDString     = NewNamedNode(XSDNamespace + "string")
	XSDInteger    = NewNamedNode(XSDNamespace + "integer")
	XSDDecimal    = NewNamedNode(XSDNamespace + "decimal")
	XSDDouble     = NewNamedNode(XSDNamespace + "double")
	XSDBoolean    = NewNamedNode(XSDNamespace + "boolean")
	RDFLangString = NewNamedNode(RDFNamespace + "langString")
	RDFXMLLiteral = NewNamedNode(RDFNamespace + "XMLLiteral")
	RDFType       = NewNamedNode(RDFNamespace + "type")
	RDFFirst      = NewNamedNode(RDFNamespace + "first")
	RDFRest       = NewNamedNode(RDFNamespace + "rest")
	RDFNil        = NewNamedNode(RDFNamespace + "nil")
	OWLSameAs     = NewNamedNode(OWLNamespace + "sameAs")
	LogImplies    = NewNamedNode(LogNamespace + "implies")
)
