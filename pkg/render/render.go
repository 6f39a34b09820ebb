package render

import (
	"fmt"
	"io"

	"github.com/mattn/go-runewidth"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/aleksaelezovic/rdfpreview/pkg/store"
)

// ErrNotFinalized is returned when rendering a store that is still being
// filled
var ErrNotFinalized = errors.New("triple store is not finalized")

// Renderer turns finalized triple stores into documents. Rendering only
// reads the store; the display forms it computes are memoized on the
// store's terms.
type Renderer struct {
	logger *logrus.Entry
}

// Option configures a Renderer
type Option func(*Renderer)

func WithLogger(logger *logrus.Entry) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func New(opts ...Option) *Renderer {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	r := &Renderer{logger: logrus.NewEntry(discard)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render groups the triples of ts Turtle-style. Each run of consecutive
// triples sharing a subject becomes one block; within it each run sharing
// a predicate becomes one predicate group. Triples are never reordered, so
// a subject that reappears later starts a new block.
func (r *Renderer) Render(ts *store.TripleStore) (*Document, error) {
	if !ts.Finalized() {
		return nil, ErrNotFinalized
	}

	prefixes := ts.Prefixes()
	d := newDisplayer(prefixes)
	doc := &Document{}
	for _, p := range prefixes {
		doc.Prefixes = append(doc.Prefixes, PrefixLine{Name: p.Name, IRI: p.IRI})
	}

	subjectIndex := 0
	for subjectIndex < ts.Len() {
		var block Block
		subjectIndex = r.writeBlock(ts, d, subjectIndex, &block)
		doc.Blocks = append(doc.Blocks, block)
	}

	r.logger.WithFields(logrus.Fields{
		"triples":  ts.Len(),
		"blocks":   len(doc.Blocks),
		"prefixes": len(doc.Prefixes),
	}).Debug("rendered triple store")
	return doc, nil
}

// writeBlock renders the block starting at subjectIndex and returns the
// index of the first triple after it. The subject, predicate and object
// positions advance together, one step per rendered object.
func (r *Renderer) writeBlock(ts *store.TripleStore, d *displayer, subjectIndex int, b *Block) int {
	subject := ts.Triple(subjectIndex).Subject
	subjectDisplay := d.display(subject)
	subjectWidth := runewidth.StringWidth(subjectDisplay.Text)
	b.add(Segment{
		Kind:     SegSubject,
		Text:     subjectDisplay.Text,
		TermKind: subject.Kind(),
		Href:     subjectDisplay.Href,
		Anchor:   subject.Anchor(),
	})
	b.text(" ")

	predicateList := ts.TriplesWithSameFieldAs(subjectIndex, store.FieldSubject)
	predicateIndex := 0
	for predicateIndex < len(predicateList) {
		predicate := ts.Triple(predicateList[predicateIndex]).Predicate
		predicateDisplay := d.display(predicate)
		predicateWidth := runewidth.StringWidth(predicateDisplay.Text)
		if predicateIndex > 0 {
			b.indent(subjectWidth + 1)
		}
		b.add(Segment{
			Kind:     SegPredicate,
			Text:     predicateDisplay.Text,
			TermKind: predicate.Kind(),
			Href:     predicateDisplay.Href,
		})
		b.text(" ")

		objectList := ts.TriplesWithSameFieldAsIn(predicateList[predicateIndex], store.FieldPredicate, predicateList, predicateIndex)
		if len(objectList) == 0 {
			panic(fmt.Sprintf("render: predicate group at triple %d has no objects", predicateList[predicateIndex]))
		}
		objectIndex := 0
		for objectIndex < len(objectList) {
			object := ts.Triple(objectList[objectIndex]).Object
			if objectIndex > 0 {
				b.indent(subjectWidth + predicateWidth + 2)
			}
			b.add(objectSegment(d, object))

			subjectIndex++
			predicateIndex++
			objectIndex++
			if objectIndex < len(objectList) {
				b.text(" ,")
				b.lineBreak()
			}
		}
		if predicateIndex < len(predicateList) {
			b.text(" ;")
			b.lineBreak()
		}
	}
	b.text(" .")
	return subjectIndex
}

// objectSegment links objects that are rendered elsewhere as an anchored
// subject to that block rather than to their IRI
func objectSegment(d *displayer, object *store.Term) Segment {
	display := d.display(object)
	seg := Segment{
		Kind:     SegObject,
		Text:     display.Text,
		TermKind: object.Kind(),
		Href:     display.Href,
	}
	if anchor := object.Anchor(); anchor != "" {
		seg.Href = "#" + anchor
	}
	return seg
}
