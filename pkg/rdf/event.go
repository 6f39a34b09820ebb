package rdf

// EventKind tags the events an adapter emits
type EventKind byte

const (
	// EventContext carries a batch of prefix bindings (JSON-LD @context)
	EventContext EventKind = iota + 1
	// EventPrefix carries a single prefix binding (@prefix, PREFIX, xmlns:)
	EventPrefix
	// EventTriple carries one decoded triple
	EventTriple
	// EventEnd terminates a successful stream
	EventEnd
	// EventError terminates a failed stream
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventContext:
		return "context"
	case EventPrefix:
		return "prefix"
	case EventTriple:
		return "triple"
	case EventEnd:
		return "end"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Binding maps a prefix name to a namespace IRI
type Binding struct {
	Name string
	IRI  string
}

// Event is one item of an adapter's event sequence. Only the field matching
// Kind is set.
type Event struct {
	Kind     EventKind
	Bindings []Binding
	Prefix   Binding
	Triple   *Triple
	Err      error
}

// Terminal reports whether the event ends the sequence
func (e Event) Terminal() bool {
	return e.Kind == EventEnd || e.Kind == EventError
}
