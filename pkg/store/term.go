package store

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/aleksaelezovic/rdfpreview/pkg/rdf"
)

// Kind is the variant of an interned term
type Kind byte

const (
	KindBlank Kind = iota + 1
	KindNamed
	KindLiteral
)

func (k Kind) String() string {
	switch k {
	case KindBlank:
		return "blank"
	case KindNamed:
		return "named"
	case KindLiteral:
		return "literal"
	default:
		return "unknown"
	}
}

// TermKey identifies a term. Blank nodes are identified by label, named
// nodes by IRI, and literals by value, datatype, language and whether a
// language is present at all.
type TermKey struct {
	Kind        Kind
	Value       string
	Datatype    string
	Language    string
	HasLanguage bool
}

// KeyFor converts a decoded term into its key
func KeyFor(term rdf.Term) (TermKey, error) {
	switch t := term.(type) {
	case *rdf.NamedNode:
		if t == nil {
			break
		}
		return TermKey{Kind: KindNamed, Value: t.IRI}, nil
	case *rdf.BlankNode:
		if t == nil {
			break
		}
		return TermKey{Kind: KindBlank, Value: t.ID}, nil
	case *rdf.Literal:
		if t == nil {
			break
		}
		return TermKey{
			Kind:        KindLiteral,
			Value:       t.Value,
			Datatype:    t.DatatypeIRI(),
			Language:    t.Language,
			HasLanguage: t.Tagged,
		}, nil
	}
	return TermKey{}, errors.Wrapf(ErrMalformedTerm, "term %T", term)
}

// Display is the rendered form of a term: its text and, for terms that
// can be linked to, the link target
type Display struct {
	Text string
	Href string
}

// Term is an interned term. A term belongs to the registry that created it
// and is shared by every triple referring to it.
type Term struct {
	key      TermKey
	registry *Registry

	// subjectCount counts the triples the term is the subject of
	subjectCount int
	anchor       string

	displayOnce sync.Once
	display     Display
}

func (t *Term) Kind() Kind {
	return t.key.Kind
}

// Value returns the IRI, blank node label or literal lexical form
func (t *Term) Value() string {
	return t.key.Value
}

// Datatype returns a literal's datatype IRI
func (t *Term) Datatype() string {
	return t.key.Datatype
}

// Language returns a literal's language tag and whether one is present
func (t *Term) Language() (string, bool) {
	return t.key.Language, t.key.HasLanguage
}

func (t *Term) Key() TermKey {
	return t.key
}

// Anchor returns the identifier other parts of a rendering can link to,
// or "" when the term has none. Anchors are assigned by Finalize.
func (t *Term) Anchor() string {
	return t.anchor
}

// Display returns the term's display form, calling compute the first time
// only. Every later call returns the memoized value regardless of compute.
func (t *Term) Display(compute func(*Term) Display) Display {
	t.displayOnce.Do(func() {
		t.display = compute(t)
	})
	return t.display
}

// RDF converts the term back into a decoded term
func (t *Term) RDF() rdf.Term {
	switch t.key.Kind {
	case KindNamed:
		return rdf.NewNamedNode(t.key.Value)
	case KindBlank:
		return rdf.NewBlankNode(t.key.Value)
	default:
		if t.key.HasLanguage {
			return rdf.NewLiteralWithLanguage(t.key.Value, t.key.Language)
		}
		return rdf.NewLiteralWithDatatype(t.key.Value, rdf.NewNamedNode(t.key.Datatype))
	}
}

// String returns the N-Triples form of the term
func (t *Term) String() string {
	return t.RDF().String()
}
