package store

import "github.com/pkg/errors"

var (
	// ErrMalformedTerm is returned for terms that cannot take part in a
	// triple: nil terms, unknown kinds, literal subjects, non-IRI
	// predicates and terms interned by another store
	ErrMalformedTerm = errors.New("malformed term")

	// ErrFinalized is returned when mutating a store after Finalize
	ErrFinalized = errors.New("triple store is finalized")
)
