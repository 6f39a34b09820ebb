package store

import "github.com/aleksaelezovic/rdfpreview/pkg/rdf"

// Registry interns terms so that equal terms share one *Term.
// Terms are bucketed by a 128-bit hash of their key and compared field by
// field within a bucket, so a hash collision never merges distinct terms.
// A Registry is not safe for concurrent use.
type Registry struct {
	buckets map[termHash][]*Term
	count   int
}

func NewRegistry() *Registry {
	return &Registry{buckets: make(map[termHash][]*Term)}
}

// Intern returns the term equal to key, creating it on first use
func (r *Registry) Intern(key TermKey) *Term {
	h := hashKey(key)
	for _, t := range r.buckets[h] {
		if t.key == key {
			return t
		}
	}
	t := &Term{key: key, registry: r}
	r.buckets[h] = append(r.buckets[h], t)
	r.count++
	return t
}

// Len returns the number of distinct terms
func (r *Registry) Len() int {
	return r.count
}

func (r *Registry) BlankNode(label string) *Term {
	return r.Intern(TermKey{Kind: KindBlank, Value: label})
}

func (r *Registry) NamedNode(iri string) *Term {
	return r.Intern(TermKey{Kind: KindNamed, Value: iri})
}

// Literal interns a literal without language tag. An empty datatype means
// xsd:string.
func (r *Registry) Literal(value, datatype string) *Term {
	if datatype == "" {
		datatype = rdf.XSDString.IRI
	}
	return r.Intern(TermKey{Kind: KindLiteral, Value: value, Datatype: datatype})
}

// LangLiteral interns a language-tagged literal. An empty datatype means
// rdf:langString; an empty lang is still a present language tag.
func (r *Registry) LangLiteral(value, datatype, lang string) *Term {
	if datatype == "" {
		datatype = rdf.RDFLangString.IRI
	}
	return r.Intern(TermKey{Kind: KindLiteral, Value: value, Datatype: datatype, Language: lang, HasLanguage: true})
}
