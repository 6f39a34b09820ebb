package rdf

import (
	"io"

	"github.com/piprate/json-gold/ld"
)

// Adapter presents one concrete RDF syntax decoder as a uniform event sequence
type Adapter interface {
	// Format returns the syntax this adapter decodes
	Format() Format

	// Stream starts decoding r in a new goroutine. The returned channel
	// yields zero or more context, prefix and triple events followed by
	// exactly one EventEnd or EventError, and is then closed. The consumer
	// must drain the channel up to the terminal event.
	Stream(r io.Reader) <-chan Event
}

// Option configures an adapter
type Option func(*options)

type options struct {
	baseIRI    string
	loader     ld.DocumentLoader
	bufferSize int
	maxDepth   int
}

// WithBaseIRI sets the IRI relative references are resolved against
func WithBaseIRI(iri string) Option {
	return func(o *options) {
		o.baseIRI = iri
	}
}

// WithDocumentLoader sets the loader JSON-LD uses for remote contexts
func WithDocumentLoader(loader ld.DocumentLoader) Option {
	return func(o *options) {
		o.loader = loader
	}
}

// WithBufferSize sets the capacity of the event channel
func WithBufferSize(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.bufferSize = n
		}
	}
}

// WithMaxDepth limits how deeply blank node property lists, collections
// and RDF/XML elements may nest. Values below 1 select DefaultMaxDepth.
func WithMaxDepth(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = DefaultMaxDepth
		}
		o.maxDepth = n
	}
}

const defaultBufferSize = 64

// DefaultMaxDepth is the nesting limit used without WithMaxDepth
const DefaultMaxDepth = 1000

// NewAdapter selects the adapter for a media type. It returns
// ErrUnsupportedFormat when none matches.
func NewAdapter(mediaType string, opts ...Option) (Adapter, error) {
	format, err := FormatForMediaType(mediaType)
	if err != nil {
		return nil, err
	}

	o := options{bufferSize: defaultBufferSize, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&o)
	}

	a := &adapter{format: format, opts: o}
	switch format {
	case FormatRDFXML:
		a.decode = decodeRDFXML
	case FormatJSONLD:
		a.decode = decodeJSONLD
	default:
		a.decode = decodeTurtleFamily
	}
	return a, nil
}

type decodeFunc func(r io.Reader, format Format, opts options, em *emitter) error

type adapter struct {
	format Format
	opts   options
	decode decodeFunc
}

func (a *adapter) Format() Format {
	return a.format
}

func (a *adapter) Stream(r io.Reader) <-chan Event {
	events := make(chan Event, a.opts.bufferSize)
	go func() {
		defer close(events)
		em := &emitter{events: events}
		if err := a.decode(r, a.format, a.opts, em); err != nil {
			events <- Event{Kind: EventError, Err: newParseError(a.format, 0, err)}
			return
		}
		events <- Event{Kind: EventEnd}
	}()
	return events
}

// emitter sends non-terminal events on behalf of a decoder
type emitter struct {
	events chan<- Event
}

func (e *emitter) context(bindings []Binding) {
	if len(bindings) == 0 {
		return
	}
	e.events <- Event{Kind: EventContext, Bindings: bindings}
}

func (e *emitter) prefix(name, iri string) {
	e.events <- Event{Kind: EventPrefix, Prefix: Binding{Name: name, IRI: iri}}
}

func (e *emitter) triple(s, p, o Term) {
	e.events <- Event{Kind: EventTriple, Triple: NewTriple(s, p, o)}
}
