package render

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aleksaelezovic/rdfpreview/pkg/rdf"
	"github.com/aleksaelezovic/rdfpreview/pkg/store"
)

var (
	integerPattern = regexp.MustCompile(`^[+-]?[0-9]+$`)
	decimalPattern = regexp.MustCompile(`^[+-]?[0-9]*\.[0-9]+$`)
)

// displayer computes display forms against a store's prefix table
type displayer struct {
	// namespaces usable for compaction, longest IRI first
	namespaces []store.Prefix
}

func newDisplayer(prefixes []store.Prefix) *displayer {
	var usable []store.Prefix
	for _, p := range prefixes {
		if p.IRI != "" && validPrefixName(p.Name) {
			usable = append(usable, p)
		}
	}
	// stable, so that equally long namespaces keep table order
	sort.SliceStable(usable, func(i, j int) bool {
		return len(usable[i].IRI) > len(usable[j].IRI)
	})
	return &displayer{namespaces: usable}
}

// display returns the memoized display form of t
func (d *displayer) display(t *store.Term) store.Display {
	return t.Display(d.compute)
}

func (d *displayer) compute(t *store.Term) store.Display {
	switch t.Kind() {
	case store.KindNamed:
		return store.Display{Text: d.iri(t.Value()), Href: t.Value()}
	case store.KindBlank:
		return store.Display{Text: "_:" + t.Value()}
	default:
		return store.Display{Text: d.literal(t)}
	}
}

func (d *displayer) literal(t *store.Term) string {
	value := t.Value()
	if lang, ok := t.Language(); ok {
		return `"` + rdf.EscapeString(value) + `"@` + lang
	}
	switch t.Datatype() {
	case rdf.XSDString.IRI:
		return `"` + rdf.EscapeString(value) + `"`
	case rdf.XSDInteger.IRI:
		if integerPattern.MatchString(value) {
			return value
		}
	case rdf.XSDDecimal.IRI:
		if decimalPattern.MatchString(value) {
			return value
		}
	case rdf.XSDBoolean.IRI:
		if value == "true" || value == "false" {
			return value
		}
	}
	return `"` + rdf.EscapeString(value) + `"^^` + d.iri(t.Datatype())
}

// iri compacts iri with the longest matching namespace whose remainder is
// a plain local name, and falls back to <iri>
func (d *displayer) iri(iri string) string {
	for _, ns := range d.namespaces {
		if local, ok := strings.CutPrefix(iri, ns.IRI); ok && validLocalName(local) {
			return ns.Name + ":" + local
		}
	}
	return "<" + iri + ">"
}

func isNameRune(r rune) bool {
	return r == '_' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// validPrefixName accepts "" and names that start with a letter, continue
// with name characters or '.', and do not end with '.'
func validPrefixName(name string) bool {
	if name == "" {
		return true
	}
	first, _ := utf8.DecodeRuneInString(name)
	if !unicode.IsLetter(first) || strings.HasSuffix(name, ".") {
		return false
	}
	for _, r := range name {
		if !isNameRune(r) && r != '.' {
			return false
		}
	}
	return true
}

// validLocalName accepts local names that need no escaping
func validLocalName(local string) bool {
	if local == "" {
		return true
	}
	if strings.HasPrefix(local, ".") || strings.HasPrefix(local, "-") || strings.HasSuffix(local, ".") {
		return false
	}
	for _, r := range local {
		if !isNameRune(r) && r != '.' {
			return false
		}
	}
	return true
}
