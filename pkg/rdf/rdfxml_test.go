package rdf

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rdfxmlHeader = `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:ex="http://example.org/"
         xml:base="http://example.org/base/">`

func TestRDFXML_DescriptionAndPrefixes(t *testing.T) {
	input := rdfxmlHeader + `
  <rdf:Description rdf:about="http://example.org/s" ex:title="Title">
    <ex:p rdf:resource="http://example.org/o"/>
    <ex:name xml:lang="en">Alice</ex:name>
    <ex:age rdf:datatype="http://www.w3.org/2001/XMLSchema#integer">30</ex:age>
  </rdf:Description>
</rdf:RDF>`

	out := decode(t, "application/rdf+xml", input)
	require.NoError(t, out.err)
	assert.Equal(t, []Binding{
		{Name: "rdf", IRI: RDFNamespace},
		{Name: "ex", IRI: "http://example.org/"},
	}, out.prefixes)
	assert.Equal(t, []string{
		`<http://example.org/s> <http://example.org/title> "Title" .`,
		`<http://example.org/s> <http://example.org/p> <http://example.org/o> .`,
		`<http://example.org/s> <http://example.org/name> "Alice"@en .`,
		`<http://example.org/s> <http://example.org/age> "30"^^<http://www.w3.org/2001/XMLSchema#integer> .`,
	}, tripleStrings(out.triples))
}

func TestRDFXML_TypedNodeNestingAndBase(t *testing.T) {
	input := rdfxmlHeader + `
  <ex:Person rdf:ID="alice">
    <ex:knows>
      <ex:Person rdf:about="bob"/>
    </ex:knows>
    <ex:address rdf:parseType="Resource">
      <ex:city>Paris</ex:city>
    </ex:address>
  </ex:Person>
</rdf:RDF>`

	out := decode(t, "application/rdf+xml", input)
	require.NoError(t, out.err)
	assert.Equal(t, []string{
		`<http://example.org/base/#alice> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://example.org/Person> .`,
		`<http://example.org/base/bob> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://example.org/Person> .`,
		`<http://example.org/base/#alice> <http://example.org/knows> <http://example.org/base/bob> .`,
		`<http://example.org/base/#alice> <http://example.org/address> _:genid1 .`,
		`_:genid1 <http://example.org/city> "Paris" .`,
	}, tripleStrings(out.triples))
}

func TestRDFXML_ListItemsAndCollection(t *testing.T) {
	input := rdfxmlHeader + `
  <rdf:Seq rdf:about="http://example.org/seq">
    <rdf:li>one</rdf:li>
    <rdf:li>two</rdf:li>
  </rdf:Seq>
  <rdf:Description rdf:about="http://example.org/s">
    <ex:list rdf:parseType="Collection">
      <rdf:Description rdf:about="http://example.org/a"/>
    </ex:list>
  </rdf:Description>
</rdf:RDF>`

	out := decode(t, "application/rdf+xml", input)
	require.NoError(t, out.err)
	assert.Equal(t, []string{
		`<http://example.org/seq> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/1999/02/22-rdf-syntax-ns#Seq> .`,
		`<http://example.org/seq> <http://www.w3.org/1999/02/22-rdf-syntax-ns#_1> "one" .`,
		`<http://example.org/seq> <http://www.w3.org/1999/02/22-rdf-syntax-ns#_2> "two" .`,
		`_:genid1 <http://www.w3.org/1999/02/22-rdf-syntax-ns#first> <http://example.org/a> .`,
		`_:genid1 <http://www.w3.org/1999/02/22-rdf-syntax-ns#rest> <http://www.w3.org/1999/02/22-rdf-syntax-ns#nil> .`,
		`<http://example.org/s> <http://example.org/list> _:genid1 .`,
	}, tripleStrings(out.triples))
}

func TestRDFXML_ParseTypeLiteral(t *testing.T) {
	input := rdfxmlHeader + `
  <rdf:Description rdf:about="http://example.org/s">
    <ex:body rdf:parseType="Literal"><b>bold</b> text</ex:body>
  </rdf:Description>
</rdf:RDF>`

	out := decode(t, "application/rdf+xml", input)
	require.NoError(t, out.err)
	require.Len(t, out.triples, 1)
	lit, ok := out.triples[0].Object.(*Literal)
	require.True(t, ok)
	assert.Equal(t, RDFXMLLiteral.IRI, lit.DatatypeIRI())
	assert.Equal(t, "<b>bold</b> text", lit.Value)
}

func TestRDFXML_MalformedXML(t *testing.T) {
	out := decode(t, "application/rdf+xml", rdfxmlHeader+`<rdf:Description rdf:about="x">`)
	require.Error(t, out.err)

	var pe *ParseError
	require.ErrorAs(t, out.err, &pe)
	assert.Equal(t, FormatRDFXML, pe.Format)
}

func TestRDFXML_MatchesTurtle(t *testing.T) {
	xmlDoc := rdfxmlHeader + `
  <rdf:Description rdf:about="http://example.org/s">
    <ex:p>
      <rdf:Description>
        <ex:q rdf:resource="http://example.org/o"/>
      </rdf:Description>
    </ex:p>
  </rdf:Description>
</rdf:RDF>`
	ttl := `@prefix ex: <http://example.org/> .
ex:s ex:p [ ex:q ex:o ] .`

	fromXML := decode(t, "application/rdf+xml", xmlDoc)
	fromTurtle := decode(t, "text/turtle", ttl)
	require.NoError(t, fromXML.err)
	require.NoError(t, fromTurtle.err)
	assert.True(t, areGraphsIsomorphic(fromTurtle.triples, fromXML.triples))
}

func TestRDFXML_MaxDepth(t *testing.T) {
	// Description, ex:p, Description, ex:q: four nested elements
	doc := rdfxmlHeader + `
  <rdf:Description rdf:about="http://example.org/s">
    <ex:p>
      <rdf:Description>
        <ex:q rdf:resource="http://example.org/o"/>
      </rdf:Description>
    </ex:p>
  </rdf:Description>
</rdf:RDF>`

	out := decode(t, "application/rdf+xml", doc, WithMaxDepth(4))
	require.NoError(t, out.err)
	assert.Len(t, out.triples, 2)

	out = decode(t, "application/rdf+xml", doc, WithMaxDepth(3))
	var pe *ParseError
	require.ErrorAs(t, out.err, &pe)
	assert.Equal(t, FormatRDFXML, pe.Format)
	assert.True(t, errors.Is(out.err, ErrDepthExceeded), "got %v", out.err)
}

func TestRDFXML_DefaultMaxDepth(t *testing.T) {
	n := DefaultMaxDepth
	doc := rdfxmlHeader + strings.Repeat("<rdf:Description><ex:p>", n) +
		strings.Repeat("</ex:p></rdf:Description>", n) + "</rdf:RDF>"

	out := decode(t, "application/rdf+xml", doc)
	assert.True(t, errors.Is(out.err, ErrDepthExceeded), "got %v", out.err)
}
