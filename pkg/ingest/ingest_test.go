package ingest

import (
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/aleksaelezovic/rdfpreview/pkg/rdf"
	"github.com/aleksaelezovic/rdfpreview/pkg/store"
)

// chunkStream delivers fixed chunks and records whether it was attached
type chunkStream struct {
	chunks   [][]byte
	attached bool
}

func (s *chunkStream) Attach(data func([]byte), end func()) error {
	s.attached = true
	go func() {
		defer end()
		for _, c := range s.chunks {
			data(c)
		}
	}()
	return nil
}

// syncStream delivers its whole document from inside Attach
type syncStream struct {
	chunks [][]byte
}

func (s *syncStream) Attach(data func([]byte), end func()) error {
	for _, c := range s.chunks {
		data(c)
	}
	end()
	return nil
}

func byteChunks(b []byte) [][]byte {
	chunks := make([][]byte, len(b))
	for i := range b {
		chunks[i] = b[i : i+1]
	}
	return chunks
}

// recordingObserver keeps the stats of the last ingestion
type recordingObserver struct {
	mu    sync.Mutex
	stats Stats
	err   error
}

func (o *recordingObserver) ObserveIngest(stats Stats, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stats = stats
	o.err = err
}

func TestIngest_EmptyDocumentForEveryMediaType(t *testing.T) {
	empty := map[string]string{
		"application/rdf+xml":   `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"></rdf:RDF>`,
		"application/ld+json":   `{}`,
		"application/trig":      ``,
		"application/n-quads":   ``,
		"application/n-triples": ``,
		"text/n3":               ``,
		"text/turtle":           ``,
	}
	require.Len(t, empty, len(rdf.SupportedMediaTypes()))

	for _, mt := range rdf.SupportedMediaTypes() {
		t.Run(mt, func(t *testing.T) {
			doc, ok := empty[mt]
			require.True(t, ok)

			ts, err := New().Ingest(NewReaderStream(strings.NewReader(doc), 0), nil, mt)
			require.NoError(t, err)
			assert.True(t, ts.Finalized())
			assert.Equal(t, 0, ts.Len())
		})
	}
}

func TestIngest_UnsupportedFormatDoesNotAttach(t *testing.T) {
	src := &chunkStream{chunks: [][]byte{[]byte("hello")}}

	ts, err := New().Ingest(src, nil, "text/plain")
	assert.Nil(t, ts)
	assert.True(t, errors.Is(err, rdf.ErrUnsupportedFormat))
	assert.False(t, src.attached)
}

// fakeAdapter replays a fixed event sequence without reading its input
type fakeAdapter struct {
	events []rdf.Event
}

func (a *fakeAdapter) Format() rdf.Format {
	return rdf.FormatTurtle
}

func (a *fakeAdapter) Stream(io.Reader) <-chan rdf.Event {
	ch := make(chan rdf.Event, len(a.events))
	for _, ev := range a.events {
		ch <- ev
	}
	close(ch)
	return ch
}

func TestIngest_SkipsMalformedTriples(t *testing.T) {
	s := rdf.NewNamedNode("http://example.org/s")
	p := rdf.NewNamedNode("http://example.org/p")
	adapter := &fakeAdapter{events: []rdf.Event{
		{Kind: rdf.EventPrefix, Prefix: rdf.Binding{Name: "ex", IRI: "http://example.org/"}},
		{Kind: rdf.EventTriple, Triple: rdf.NewTriple(s, p, rdf.NewLiteral("first"))},
		{Kind: rdf.EventTriple, Triple: rdf.NewTriple(s, p, nil)},
		{Kind: rdf.EventTriple, Triple: rdf.NewTriple(rdf.NewLiteral("x"), p, s)},
		{Kind: rdf.EventTriple, Triple: rdf.NewTriple(s, p, rdf.NewLiteral("second"))},
		{Kind: rdf.EventEnd},
	}}
	obs := &recordingObserver{}
	c := New(
		WithAdapterFactory(func(string) (rdf.Adapter, error) { return adapter, nil }),
		WithObserver(obs),
	)

	ts, err := c.Ingest(&chunkStream{chunks: [][]byte{[]byte("ignored")}}, nil, "text/turtle")
	require.NoError(t, err)
	require.Equal(t, 2, ts.Len())
	assert.Equal(t, "first", ts.Triple(0).Object.Value())
	assert.Equal(t, "second", ts.Triple(1).Object.Value())
	assert.Equal(t, []store.Prefix{{Name: "ex", IRI: "http://example.org/"}}, ts.Prefixes())

	assert.Equal(t, 2, obs.stats.Triples)
	assert.Equal(t, 2, obs.stats.Skipped)
	assert.NoError(t, obs.err)
}

func TestIngest_ContextBindings(t *testing.T) {
	doc := `{"@context": {"ex": "http://example.org/", "n": {"@id": "http://example.org/n"}}, "@id": "ex:a", "ex:p": "v"}`

	ts, err := New().Ingest(NewReaderStream(strings.NewReader(doc), 4), nil, "application/ld+json")
	require.NoError(t, err)
	assert.Equal(t, []store.Prefix{{Name: "ex", IRI: "http://example.org/"}}, ts.Prefixes())
	assert.Equal(t, 1, ts.Len())
}

func TestIngest_JSONLDTriplesReachStore(t *testing.T) {
	doc := `{
  "@context": {"ex": "http://example.org/"},
  "@id": "ex:a",
  "ex:p": "v",
  "ex:q": {"@id": "ex:b"},
  "ex:r": {"@value": "chat", "@language": "fr"},
  "ex:s": {"ex:t": true}
}`
	obs := &recordingObserver{}

	ts, err := New(WithObserver(obs)).Ingest(NewReaderStream(strings.NewReader(doc), 7), nil, "application/ld+json")
	require.NoError(t, err)
	require.Equal(t, 5, ts.Len())
	assert.Equal(t, 0, obs.stats.Skipped)

	objects := map[string]*store.Term{}
	for i := 0; i < ts.Len(); i++ {
		tr := ts.Triple(i)
		objects[tr.Predicate.Value()] = tr.Object
	}
	assert.Equal(t, "v", objects["http://example.org/p"].Value())
	assert.Equal(t, "http://example.org/b", objects["http://example.org/q"].Value())
	assert.Equal(t, "chat", objects["http://example.org/r"].Value())
	assert.Equal(t, "true", objects["http://example.org/t"].Value())
}

func TestIngest_SourceDeliveringInsideAttach(t *testing.T) {
	doc := []byte("<http://example.org/s> <http://example.org/p> \"caf\xe9\" .\n" +
		strings.Repeat("<http://example.org/s> <http://example.org/p> <http://example.org/o> .\n", 2000))

	for name, enc := range map[string]encoding.Encoding{"utf8": nil, "latin1": charmap.ISO8859_1} {
		t.Run(name, func(t *testing.T) {
			src := &syncStream{chunks: [][]byte{doc[:10], doc[10:]}}
			results := New().IngestAsync(src, enc, "application/n-triples")
			select {
			case res := <-results:
				require.NoError(t, res.Err)
				assert.Equal(t, 2001, res.Store.Len())
			case <-time.After(5 * time.Second):
				t.Fatal("ingestion blocked on a synchronous source")
			}
		})
	}
}

func TestIngest_ParseErrorReturnsNoStore(t *testing.T) {
	obs := &recordingObserver{}
	doc := "@prefix ex: <http://example.org/> .\nex:s ex:p ex:o .\nex:s ex:p"

	ts, err := New(WithObserver(obs)).Ingest(NewReaderStream(strings.NewReader(doc), 8), nil, "text/turtle")
	assert.Nil(t, ts)

	var pe *rdf.ParseError
	require.True(t, errors.As(err, &pe), "got %v", err)
	assert.Equal(t, rdf.FormatTurtle, pe.Format)
	assert.Error(t, obs.err)
}

func TestIngest_ErrorUnblocksLongInput(t *testing.T) {
	// the error comes early; the rest of the input must not block the pump
	doc := "this is not turtle\n" + strings.Repeat("<http://a> <http://b> <http://c> .\n", 10000)

	_, err := New().Ingest(NewReaderStream(strings.NewReader(doc), 16), nil, "text/turtle")
	assert.Error(t, err)
}

func TestIngest_MultiByteSequenceSplitAcrossChunks(t *testing.T) {
	doc := []byte(`<http://example.org/s> <http://example.org/p> "héllo wörld €" .`)

	ts, err := New().Ingest(&chunkStream{chunks: byteChunks(doc)}, unicode.UTF8, "application/n-triples")
	require.NoError(t, err)
	require.Equal(t, 1, ts.Len())
	assert.Equal(t, "héllo wörld €", ts.Triple(0).Object.Value())
}

func TestIngest_DecodesLegacyCharset(t *testing.T) {
	doc := []byte("<http://example.org/s> <http://example.org/p> \"caf\xe9\" .")

	ts, err := New().Ingest(&chunkStream{chunks: byteChunks(doc)}, charmap.ISO8859_1, "application/n-triples")
	require.NoError(t, err)
	require.Equal(t, 1, ts.Len())
	assert.Equal(t, "café", ts.Triple(0).Object.Value())
}

func TestIngestAsync(t *testing.T) {
	doc := "<http://example.org/s> <http://example.org/p> <http://example.org/o> ."

	res, ok := <-New().IngestAsync(NewReaderStream(strings.NewReader(doc), 0), nil, "text/turtle")
	require.True(t, ok)
	require.NoError(t, res.Err)
	assert.Equal(t, 1, res.Store.Len())

	results := New().IngestAsync(&chunkStream{}, nil, "text/html")
	res = <-results
	assert.True(t, errors.Is(res.Err, rdf.ErrUnsupportedFormat))
	_, ok = <-results
	assert.False(t, ok, "exactly one result is delivered")
}

func TestReaderStream_AttachOnce(t *testing.T) {
	s := NewReaderStream(strings.NewReader("abc"), 2)

	var mu sync.Mutex
	var got []string
	done := make(chan struct{})
	require.NoError(t, s.Attach(func(b []byte) {
		mu.Lock()
		got = append(got, string(b))
		mu.Unlock()
	}, func() { close(done) }))
	<-done

	assert.Equal(t, []string{"ab", "c"}, got)
	assert.NoError(t, s.Err())
	assert.True(t, errors.Is(s.Attach(func([]byte) {}, func() {}), ErrStreamAttached))
}
