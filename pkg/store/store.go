package store

import (
	"fmt"

	"github.com/pkg/errors"
)

// Field selects one position of a triple
type Field byte

const (
	FieldSubject Field = iota
	FieldPredicate
	FieldObject
)

func (f Field) String() string {
	switch f {
	case FieldSubject:
		return "subject"
	case FieldPredicate:
		return "predicate"
	case FieldObject:
		return "object"
	default:
		return fmt.Sprintf("Field(%d)", byte(f))
	}
}

// Prefix binds a prefix name to a namespace IRI
type Prefix struct {
	Name string
	IRI  string
}

// Triple is a statement of interned terms
type Triple struct {
	Subject   *Term
	Predicate *Term
	Object    *Term
}

// Field returns the term at position f
func (t Triple) Field(f Field) *Term {
	switch f {
	case FieldSubject:
		return t.Subject
	case FieldPredicate:
		return t.Predicate
	default:
		return t.Object
	}
}

func (t Triple) String() string {
	return fmt.Sprintf("%s %s %s .", t.Subject, t.Predicate, t.Object)
}

// TripleStore holds the triples and prefix bindings of one document in
// arrival order. It is filled by a single goroutine, sealed with Finalize
// and read-only afterwards; it has no internal locking.
type TripleStore struct {
	registry    *Registry
	prefixes    []Prefix
	prefixIndex map[string]int
	triples     []Triple
	finalized   bool
}

func New() *TripleStore {
	return &TripleStore{
		registry:    NewRegistry(),
		prefixIndex: make(map[string]int),
	}
}

// Registry returns the registry terms must be interned with before they
// are added to this store
func (s *TripleStore) Registry() *Registry {
	return s.registry
}

// AddPrefix binds name to iri. Rebinding a name keeps its position and
// replaces the IRI.
func (s *TripleStore) AddPrefix(name, iri string) error {
	if s.finalized {
		return ErrFinalized
	}
	if i, ok := s.prefixIndex[name]; ok {
		s.prefixes[i].IRI = iri
		return nil
	}
	s.prefixIndex[name] = len(s.prefixes)
	s.prefixes = append(s.prefixes, Prefix{Name: name, IRI: iri})
	return nil
}

// AddTriple appends a triple. Duplicates are kept.
func (s *TripleStore) AddTriple(subject, predicate, object *Term) error {
	if s.finalized {
		return ErrFinalized
	}
	for _, t := range []*Term{subject, predicate, object} {
		if t == nil {
			return errors.Wrap(ErrMalformedTerm, "nil term")
		}
		if t.registry != s.registry {
			return errors.Wrapf(ErrMalformedTerm, "term %s belongs to another store", t)
		}
	}
	if subject.Kind() == KindLiteral {
		return errors.Wrapf(ErrMalformedTerm, "literal subject %s", subject)
	}
	if predicate.Kind() != KindNamed {
		return errors.Wrapf(ErrMalformedTerm, "predicate %s is not an IRI", predicate)
	}

	subject.subjectCount++
	s.triples = append(s.triples, Triple{Subject: subject, Predicate: predicate, Object: object})
	return nil
}

// Finalize seals the store and assigns anchors: every term that is the
// subject of more than one triple gets n1, n2, ... in order of its first
// appearance as a subject. Calling Finalize again has no effect.
func (s *TripleStore) Finalize() {
	if s.finalized {
		return
	}
	s.finalized = true

	next := 1
	for _, t := range s.triples {
		subject := t.Subject
		if subject.anchor != "" || subject.subjectCount < 2 {
			continue
		}
		subject.anchor = fmt.Sprintf("n%d", next)
		next++
	}
}

func (s *TripleStore) Finalized() bool {
	return s.finalized
}

// Len returns the number of triples
func (s *TripleStore) Len() int {
	return len(s.triples)
}

// Triple returns the i-th triple in arrival order
func (s *TripleStore) Triple(i int) Triple {
	return s.triples[i]
}

// Prefixes returns the prefix bindings in insertion order
func (s *TripleStore) Prefixes() []Prefix {
	out := make([]Prefix, len(s.prefixes))
	copy(out, s.prefixes)
	return out
}

// TriplesWithSameFieldAs returns the indices of the run of consecutive
// triples, starting at index, whose field term is the one of triple index.
// The run always contains index itself. An out-of-range index yields nil.
func (s *TripleStore) TriplesWithSameFieldAs(index int, field Field) []int {
	if index < 0 || index >= len(s.triples) {
		return nil
	}
	ref := s.triples[index].Field(field)
	run := []int{index}
	for i := index + 1; i < len(s.triples) && s.triples[i].Field(field) == ref; i++ {
		run = append(run, i)
	}
	return run
}

// TriplesWithSameFieldAsIn is TriplesWithSameFieldAs over a subset of
// triple indices: it scans subset from position start and returns the
// leading entries whose field term is the one of triple index.
func (s *TripleStore) TriplesWithSameFieldAsIn(index int, field Field, subset []int, start int) []int {
	if index < 0 || index >= len(s.triples) || start < 0 {
		return nil
	}
	ref := s.triples[index].Field(field)
	var run []int
	for k := start; k < len(subset); k++ {
		i := subset[k]
		if i < 0 || i >= len(s.triples) || s.triples[i].Field(field) != ref {
			break
		}
		run = append(run, i)
	}
	return run
}
