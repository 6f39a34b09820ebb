package ingest

import (
	"io"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"

	"github.com/aleksaelezovic/rdfpreview/pkg/rdf"
	"github.com/aleksaelezovic/rdfpreview/pkg/store"
)

// AdapterFactory selects the adapter for a media type. It must return an
// error wrapping rdf.ErrUnsupportedFormat for unknown media types.
type AdapterFactory func(mediaType string) (rdf.Adapter, error)

// Stats summarizes one ingestion
type Stats struct {
	Format   rdf.Format
	Bytes    int64
	Triples  int
	Skipped  int
	Prefixes int
	Duration time.Duration
}

// Observer is told about every ingestion that got past format selection
type Observer interface {
	ObserveIngest(stats Stats, err error)
}

// Result is the settled outcome of IngestAsync
type Result struct {
	Store *store.TripleStore
	Err   error
}

// Coordinator drives source streams through format adapters into triple
// stores. A Coordinator holds no per-ingestion state and may be shared.
type Coordinator struct {
	logger     *logrus.Entry
	newAdapter AdapterFactory
	observer   Observer
	rdfOpts    []rdf.Option
}

// Option configures a Coordinator
type Option func(*Coordinator)

func WithLogger(logger *logrus.Entry) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithAdapterFactory replaces rdf.NewAdapter as the adapter source
func WithAdapterFactory(f AdapterFactory) Option {
	return func(c *Coordinator) {
		c.newAdapter = f
	}
}

// WithAdapterOptions passes options to rdf.NewAdapter. It has no effect
// together with WithAdapterFactory.
func WithAdapterOptions(opts ...rdf.Option) Option {
	return func(c *Coordinator) {
		c.rdfOpts = append(c.rdfOpts, opts...)
	}
}

func WithObserver(o Observer) Option {
	return func(c *Coordinator) {
		c.observer = o
	}
}

func New(opts ...Option) *Coordinator {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	c := &Coordinator{logger: logrus.NewEntry(discard)}
	for _, opt := range opts {
		opt(c)
	}
	if c.newAdapter == nil {
		c.newAdapter = func(mediaType string) (rdf.Adapter, error) {
			return rdf.NewAdapter(mediaType, c.rdfOpts...)
		}
	}
	return c
}

// Ingest reads the document from src into a new triple store and returns
// it finalized. enc decodes the raw bytes to UTF-8; nil means the bytes
// already are UTF-8.
//
// An unknown mediaType fails with rdf.ErrUnsupportedFormat before src is
// attached. Malformed terms drop their triple. A decoding failure returns
// an *rdf.ParseError and no store.
func (c *Coordinator) Ingest(src Stream, enc encoding.Encoding, mediaType string) (*store.TripleStore, error) {
	adapter, err := c.newAdapter(mediaType)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	stats := Stats{Format: adapter.Format()}
	log := c.logger.WithField("format", adapter.Format())

	pr, pw := io.Pipe()
	defer pr.Close()

	var w io.Writer = pw
	var tw *transform.Writer
	if enc != nil {
		tw = transform.NewWriter(pw, enc.NewDecoder())
		w = tw
	}

	// The adapter reads before the source is attached, and data only
	// queues, so a source may deliver everything from inside Attach.
	events := adapter.Stream(pr)
	q := newRelay()
	go q.run(w, func() {
		var err error
		if tw != nil {
			err = tw.Close()
		}
		_ = pw.CloseWithError(err)
	})

	var received atomic.Int64
	data := func(chunk []byte) {
		received.Add(int64(len(chunk)))
		q.push(chunk)
	}
	if err := src.Attach(data, q.end); err != nil {
		err = errors.Wrap(err, "attaching source stream")
		q.end()
		_ = pr.CloseWithError(err)
		go drain(events)
		return nil, err
	}

	ts := store.New()
	err = c.consume(events, ts, &stats, log)
	if err != nil {
		// the relay stops writing and drops the remaining input
		_ = pr.CloseWithError(err)
		go drain(events)
	}

	stats.Bytes = received.Load()
	stats.Duration = time.Since(start)
	if c.observer != nil {
		c.observer.ObserveIngest(stats, err)
	}
	if err != nil {
		log.WithError(err).Debug("ingestion failed")
		return nil, err
	}

	ts.Finalize()
	log.WithFields(logrus.Fields{
		"triples":  stats.Triples,
		"skipped":  stats.Skipped,
		"prefixes": stats.Prefixes,
		"bytes":    stats.Bytes,
	}).Debug("ingestion finished")
	return ts, nil
}

// IngestAsync runs Ingest in a new goroutine. The channel delivers exactly
// one Result and is then closed.
func (c *Coordinator) IngestAsync(src Stream, enc encoding.Encoding, mediaType string) <-chan Result {
	results := make(chan Result, 1)
	go func() {
		defer close(results)
		ts, err := c.Ingest(src, enc, mediaType)
		results <- Result{Store: ts, Err: err}
	}()
	return results
}

// consume applies adapter events to ts until the terminal event
func (c *Coordinator) consume(events <-chan rdf.Event, ts *store.TripleStore, stats *Stats, log *logrus.Entry) error {
	for ev := range events {
		if ev.Terminal() {
			return terminalErr(ev, stats.Format)
		}
		switch ev.Kind {
		case rdf.EventTriple:
			if err := addTriple(ts, ev.Triple); err != nil {
				stats.Skipped++
				log.WithError(err).Debug("skipping triple")
				continue
			}
			stats.Triples++
		case rdf.EventPrefix:
			if err := ts.AddPrefix(ev.Prefix.Name, ev.Prefix.IRI); err != nil {
				return err
			}
			stats.Prefixes++
		case rdf.EventContext:
			for _, b := range ev.Bindings {
				if err := ts.AddPrefix(b.Name, b.IRI); err != nil {
					return err
				}
				stats.Prefixes++
			}
		}
	}
	return &rdf.ParseError{Format: stats.Format, Err: errors.New("event stream closed without end")}
}

// terminalErr is nil for the end event and a *rdf.ParseError otherwise
func terminalErr(ev rdf.Event, format rdf.Format) error {
	if ev.Kind == rdf.EventEnd {
		return nil
	}
	var pe *rdf.ParseError
	if errors.As(ev.Err, &pe) {
		return pe
	}
	return &rdf.ParseError{Format: format, Err: ev.Err}
}

func drain(events <-chan rdf.Event) {
	for range events {
	}
}

func addTriple(ts *store.TripleStore, t *rdf.Triple) error {
	if t == nil {
		return errors.Wrap(store.ErrMalformedTerm, "nil triple")
	}
	reg := ts.Registry()
	terms := make([]*store.Term, 3)
	for i, raw := range []rdf.Term{t.Subject, t.Predicate, t.Object} {
		key, err := store.KeyFor(raw)
		if err != nil {
			return err
		}
		terms[i] = reg.Intern(key)
	}
	return ts.AddTriple(terms[0], terms[1], terms[2])
}
