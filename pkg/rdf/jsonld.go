package rdf

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/piprate/json-gold/ld"
)

const defaultGraph = "@default"

// decodeJSONLD decodes a JSON-LD document. The JSON-LD algorithms need the
// whole document, so events start once the input is complete: first one
// context event per top-level @context, then the triples of the default
// graph, then those of the named graphs in name order.
func decodeJSONLD(r io.Reader, format Format, opts options, em *emitter) error {
	doc, err := ld.DocumentFromReader(r)
	if err != nil {
		return fmt.Errorf("error parsing JSON: %w", err)
	}

	for _, ctx := range topLevelContexts(doc) {
		em.context(contextBindings(ctx))
	}

	ldOpts := ld.NewJsonLdOptions(opts.baseIRI)
	if opts.loader != nil {
		ldOpts.DocumentLoader = opts.loader
	}
	res, err := ld.NewJsonLdProcessor().ToRDF(doc, ldOpts)
	if err != nil {
		return fmt.Errorf("error converting JSON-LD to RDF: %w", err)
	}
	dataset, ok := res.(*ld.RDFDataset)
	if !ok {
		return fmt.Errorf("unexpected JSON-LD result %T", res)
	}

	for _, name := range graphNames(dataset) {
		for _, quad := range dataset.Graphs[name] {
			em.triple(fromLDNode(quad.Subject), fromLDNode(quad.Predicate), fromLDNode(quad.Object))
		}
	}
	return nil
}

func graphNames(dataset *ld.RDFDataset) []string {
	names := make([]string, 0, len(dataset.Graphs))
	for name := range dataset.Graphs {
		if name != defaultGraph {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if _, ok := dataset.Graphs[defaultGraph]; ok {
		names = append([]string{defaultGraph}, names...)
	}
	return names
}

// topLevelContexts collects the @context values of the document's top-level
// object or of each object of a top-level array
func topLevelContexts(doc interface{}) []interface{} {
	var contexts []interface{}
	collect := func(v interface{}) {
		obj, ok := v.(map[string]interface{})
		if !ok {
			return
		}
		if ctx, ok := obj["@context"]; ok {
			contexts = append(contexts, ctx)
		}
	}
	switch v := doc.(type) {
	case map[string]interface{}:
		collect(v)
	case []interface{}:
		for _, item := range v {
			collect(item)
		}
	}
	return contexts
}

// contextBindings returns the string-valued entries of a context in key
// order. Arrays are flattened; remote (string) contexts and non-string
// entries are skipped.
func contextBindings(ctx interface{}) []Binding {
	switch v := ctx.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var bindings []Binding
		for _, k := range keys {
			if iri, ok := v[k].(string); ok {
				bindings = append(bindings, Binding{Name: k, IRI: iri})
			}
		}
		return bindings
	case []interface{}:
		var bindings []Binding
		for _, item := range v {
			bindings = append(bindings, contextBindings(item)...)
		}
		return bindings
	}
	return nil
}

// fromLDNode converts a json-gold node. Unknown node kinds yield nil, which
// the consumer treats as a malformed term.
func fromLDNode(node ld.Node) Term {
	switch n := node.(type) {
	case ld.IRI:
		return NewNamedNode(n.Value)
	case *ld.IRI:
		return NewNamedNode(n.Value)
	case ld.BlankNode:
		return NewBlankNode(strings.TrimPrefix(n.Attribute, "_:"))
	case *ld.BlankNode:
		return NewBlankNode(strings.TrimPrefix(n.Attribute, "_:"))
	case ld.Literal:
		return fromLDLiteral(n)
	case *ld.Literal:
		return fromLDLiteral(*n)
	}
	return nil
}

func fromLDLiteral(l ld.Literal) Term {
	if l.Language != "" {
		return NewLiteralWithLanguage(l.Value, l.Language)
	}
	if l.Datatype == "" {
		return NewLiteral(l.Value)
	}
	return NewLiteralWithDatatype(l.Value, NewNamedNode(l.Datatype))
}
