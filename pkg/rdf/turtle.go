package rdf

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// dialect selects the Turtle-family features a decoder accepts
type dialect struct {
	directives bool // @prefix, PREFIX, @base, BASE, VERSION
	graphs     bool // TriG graph blocks
	quads      bool // trailing graph label on N-Quads statements
	n3         bool // = and => shorthands
}

func dialectFor(format Format) dialect {
	switch format {
	case FormatNTriples:
		return dialect{}
	case FormatNQuads:
		return dialect{quads: true}
	case FormatTriG:
		return dialect{directives: true, graphs: true}
	case FormatN3:
		return dialect{directives: true, n3: true}
	default:
		return dialect{directives: true}
	}
}

// turtleDecoder is a streaming recursive-descent decoder for Turtle, TriG,
// N-Triples, N-Quads and the Turtle subset of N3. It reads only as far as
// the current token requires, so triples are emitted while input is still
// arriving.
type turtleDecoder struct {
	r        *bufio.Reader
	line     int
	dialect  dialect
	base     *url.URL
	prefixes map[string]string
	bnodes   int
	em       *emitter

	depth    int
	maxDepth int
}

func decodeTurtleFamily(r io.Reader, format Format, opts options, em *emitter) error {
	d := &turtleDecoder{
		r:        bufio.NewReader(r),
		line:     1,
		dialect:  dialectFor(format),
		prefixes: make(map[string]string),
		em:       em,
		maxDepth: opts.maxDepth,
	}
	if opts.baseIRI != "" {
		if u, err := url.Parse(opts.baseIRI); err == nil {
			d.base = u
		}
	}
	if err := d.run(); err != nil {
		return &ParseError{Format: format, Line: d.line, Err: err}
	}
	return nil
}

func (d *turtleDecoder) run() error {
	for {
		if err := d.skipWhitespaceAndComments(); err != nil {
			return err
		}
		c, err := d.peek()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := d.statement(c); err != nil {
			return err
		}
	}
}

func (d *turtleDecoder) statement(c byte) error {
	if d.dialect.directives {
		if c == '@' {
			return d.atDirective()
		}
		if handled, err := d.sparqlDirective(); handled || err != nil {
			return err
		}
	}

	if d.dialect.graphs {
		if c == '{' {
			d.discard(1)
			return d.graphBody()
		}
		if d.matchKeyword("GRAPH") {
			if err := d.skipWhitespaceAndComments(); err != nil {
				return err
			}
			if _, _, err := d.subject(); err != nil {
				return err
			}
			if err := d.expect('{'); err != nil {
				return err
			}
			return d.graphBody()
		}
	}

	subject, propertyList, err := d.subject()
	if err != nil {
		return err
	}
	if err := d.skipWhitespaceAndComments(); err != nil {
		return err
	}
	c, err = d.peekIn()
	if err != nil {
		return err
	}

	// TriG: "<g> { ... }" where the label was read as a subject
	if d.dialect.graphs && c == '{' && !propertyList {
		d.discard(1)
		return d.graphBody()
	}

	// "[ :p :o ] ." is a complete statement
	if !(propertyList && c == '.') {
		if err := d.predicateObjectList(subject); err != nil {
			return err
		}
	}
	return d.expect('.')
}

// graphBody parses the triples of a TriG graph block after its opening brace.
// The final '.' before '}' is optional.
func (d *turtleDecoder) graphBody() error {
	for {
		if err := d.skipWhitespaceAndComments(); err != nil {
			return err
		}
		c, err := d.peekIn()
		if err != nil {
			return err
		}
		if c == '}' {
			d.discard(1)
			return nil
		}

		subject, propertyList, err := d.subject()
		if err != nil {
			return err
		}
		if err := d.skipWhitespaceAndComments(); err != nil {
			return err
		}
		if c, err = d.peekIn(); err != nil {
			return err
		}
		if !(propertyList && (c == '.' || c == '}')) {
			if err := d.predicateObjectList(subject); err != nil {
				return err
			}
		}

		if err := d.skipWhitespaceAndComments(); err != nil {
			return err
		}
		if c, err = d.peekIn(); err != nil {
			return err
		}
		switch c {
		case '.':
			d.discard(1)
		case '}':
		default:
			return fmt.Errorf("expected '.' or '}' in graph block, found %q", c)
		}
	}
}

func (d *turtleDecoder) atDirective() error {
	d.discard(1)
	word, err := d.readWord()
	if err != nil {
		return err
	}
	switch word {
	case "prefix":
		if err := d.prefixDecl(); err != nil {
			return err
		}
	case "base":
		if err := d.baseDecl(); err != nil {
			return err
		}
	case "version":
		if err := d.versionDecl(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown directive @%s", word)
	}
	return d.expect('.')
}

// sparqlDirective handles the case-insensitive PREFIX, BASE and VERSION
// forms, which take no trailing '.'
func (d *turtleDecoder) sparqlDirective() (bool, error) {
	switch {
	case d.matchKeyword("PREFIX"):
		return true, d.prefixDecl()
	case d.matchKeyword("BASE"):
		return true, d.baseDecl()
	case d.matchKeyword("VERSION"):
		return true, d.versionDecl()
	}
	return false, nil
}

func (d *turtleDecoder) prefixDecl() error {
	if err := d.skipWhitespaceAndComments(); err != nil {
		return err
	}
	name, err := d.readName(false)
	if err != nil {
		return err
	}
	c, err := d.peekIn()
	if err != nil {
		return err
	}
	if c != ':' {
		return fmt.Errorf("expected ':' after prefix name %q", name)
	}
	d.discard(1)
	if err := d.expectPeek('<'); err != nil {
		return err
	}
	iri, err := d.iriRef()
	if err != nil {
		return err
	}
	d.prefixes[name] = iri
	d.em.prefix(name, iri)
	return nil
}

func (d *turtleDecoder) baseDecl() error {
	if err := d.expectPeek('<'); err != nil {
		return err
	}
	iri, err := d.iriRef()
	if err != nil {
		return err
	}
	u, err := url.Parse(iri)
	if err != nil {
		return fmt.Errorf("invalid base IRI %q: %w", iri, err)
	}
	d.base = u
	return nil
}

func (d *turtleDecoder) versionDecl() error {
	if err := d.skipWhitespaceAndComments(); err != nil {
		return err
	}
	c, err := d.peekIn()
	if err != nil {
		return err
	}
	if c != '"' && c != '\'' {
		return fmt.Errorf("expected string literal after VERSION")
	}
	d.discard(1)
	_, err = d.shortString(c)
	return err
}

// subject parses a statement subject. propertyList reports whether it was
// a non-empty blank node property list.
func (d *turtleDecoder) subject() (Term, bool, error) {
	c, err := d.peekIn()
	if err != nil {
		return nil, false, err
	}
	switch c {
	case '<':
		iri, err := d.iriRef()
		if err != nil {
			return nil, false, err
		}
		return NewNamedNode(iri), false, nil
	case '_':
		b, err := d.blankNodeLabel()
		return b, false, err
	case '[':
		return d.blankNodePropertyList()
	case '(':
		t, err := d.collection()
		return t, false, err
	default:
		t, err := d.prefixedName()
		return t, false, err
	}
}

func (d *turtleDecoder) verb() (Term, error) {
	if d.matchExact("a") {
		return RDFType, nil
	}
	c, err := d.peekIn()
	if err != nil {
		return nil, err
	}
	if d.dialect.n3 && c == '=' {
		if d.matchExactPunct("=>") {
			return LogImplies, nil
		}
		d.discard(1)
		return OWLSameAs, nil
	}
	return d.iri()
}

// iri parses an IRI reference or a prefixed name
func (d *turtleDecoder) iri() (Term, error) {
	c, err := d.peekIn()
	if err != nil {
		return nil, err
	}
	if c == '<' {
		iri, err := d.iriRef()
		if err != nil {
			return nil, err
		}
		return NewNamedNode(iri), nil
	}
	return d.prefixedName()
}

func (d *turtleDecoder) object() (Term, error) {
	c, err := d.peekIn()
	if err != nil {
		return nil, err
	}
	switch {
	case c == '<':
		iri, err := d.iriRef()
		if err != nil {
			return nil, err
		}
		return NewNamedNode(iri), nil
	case c == '_':
		return d.blankNodeLabel()
	case c == '[':
		t, _, err := d.blankNodePropertyList()
		return t, err
	case c == '(':
		return d.collection()
	case c == '"' || c == '\'':
		return d.literal()
	case c == '+' || c == '-' || isDigit(c):
		return d.number()
	case c == '.':
		if b := d.peekN(2); len(b) == 2 && isDigit(b[1]) {
			return d.number()
		}
		return nil, fmt.Errorf("unexpected '.' where an object was expected")
	case d.matchExact("true"):
		return NewLiteralWithDatatype("true", XSDBoolean), nil
	case d.matchExact("false"):
		return NewLiteralWithDatatype("false", XSDBoolean), nil
	default:
		return d.prefixedName()
	}
}

func (d *turtleDecoder) predicateObjectList(subject Term) error {
	for {
		if err := d.skipWhitespaceAndComments(); err != nil {
			return err
		}
		predicate, err := d.verb()
		if err != nil {
			return err
		}
		if err := d.objectList(subject, predicate); err != nil {
			return err
		}

		c, err := d.peek()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if c != ';' {
			return nil
		}
		for c == ';' {
			d.discard(1)
			if err := d.skipWhitespaceAndComments(); err != nil {
				return err
			}
			if c, err = d.peekIn(); err != nil {
				return err
			}
		}
		if c == '.' || c == ']' || c == '}' {
			return nil
		}
	}
}

func (d *turtleDecoder) objectList(subject, predicate Term) error {
	for {
		if err := d.skipWhitespaceAndComments(); err != nil {
			return err
		}
		object, err := d.object()
		if err != nil {
			return err
		}
		if err := d.skipWhitespaceAndComments(); err != nil {
			return err
		}
		if d.dialect.quads {
			// the graph label is read and dropped
			if c, err := d.peek(); err == nil && (c == '<' || c == '_') {
				if _, _, err := d.subject(); err != nil {
					return err
				}
				if err := d.skipWhitespaceAndComments(); err != nil {
					return err
				}
			}
		}
		d.em.triple(subject, predicate, object)

		c, err := d.peek()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if c != ',' {
			return nil
		}
		d.discard(1)
	}
}

// nest enters one level of [ ] or ( ); callers must defer d.unnest()
func (d *turtleDecoder) nest() error {
	d.depth++
	if d.maxDepth > 0 && d.depth > d.maxDepth {
		return errors.Wrapf(ErrDepthExceeded, "more than %d levels", d.maxDepth)
	}
	return nil
}

func (d *turtleDecoder) unnest() {
	d.depth--
}

func (d *turtleDecoder) newBlankNode() *BlankNode {
	d.bnodes++
	return NewBlankNode(fmt.Sprintf("genid%d", d.bnodes))
}

// blankNodePropertyList parses "[ ... ]". Triples inside the brackets are
// emitted before the caller emits the triple that references the node.
func (d *turtleDecoder) blankNodePropertyList() (Term, bool, error) {
	d.discard(1)
	defer d.unnest()
	if err := d.nest(); err != nil {
		return nil, false, err
	}
	if err := d.skipWhitespaceAndComments(); err != nil {
		return nil, false, err
	}
	node := d.newBlankNode()
	c, err := d.peekIn()
	if err != nil {
		return nil, false, err
	}
	if c == ']' {
		d.discard(1)
		return node, false, nil
	}
	if err := d.predicateObjectList(node); err != nil {
		return nil, false, err
	}
	if err := d.expect(']'); err != nil {
		return nil, false, err
	}
	return node, true, nil
}

func (d *turtleDecoder) collection() (Term, error) {
	d.discard(1)
	defer d.unnest()
	if err := d.nest(); err != nil {
		return nil, err
	}
	var items []Term
	for {
		if err := d.skipWhitespaceAndComments(); err != nil {
			return nil, err
		}
		c, err := d.peekIn()
		if err != nil {
			return nil, err
		}
		if c == ')' {
			d.discard(1)
			break
		}
		item, err := d.object()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return RDFNil, nil
	}
	head := d.newBlankNode()
	node := head
	for i, item := range items {
		d.em.triple(node, RDFFirst, item)
		if i == len(items)-1 {
			d.em.triple(node, RDFRest, RDFNil)
			break
		}
		next := d.newBlankNode()
		d.em.triple(node, RDFRest, next)
		node = next
	}
	return head, nil
}

func (d *turtleDecoder) iriRef() (string, error) {
	d.discard(1)
	var sb strings.Builder
	for {
		r, err := d.readRune()
		if err != nil {
			return "", unexpected(err)
		}
		switch r {
		case '>':
			return d.resolve(sb.String()), nil
		case '\\':
			u, err := d.readRune()
			if err != nil {
				return "", unexpected(err)
			}
			if u != 'u' && u != 'U' {
				return "", fmt.Errorf("invalid escape \\%c in IRI", u)
			}
			decoded, err := d.unicodeEscape(u)
			if err != nil {
				return "", err
			}
			sb.WriteRune(decoded)
		case '\n', '<', '"', '{', '}', '|', '^', '`':
			return "", fmt.Errorf("invalid character %q in IRI", r)
		default:
			sb.WriteRune(r)
		}
	}
}

func (d *turtleDecoder) resolve(iri string) string {
	if d.base == nil {
		return iri
	}
	ref, err := url.Parse(iri)
	if err != nil || ref.IsAbs() {
		return iri
	}
	return d.base.ResolveReference(ref).String()
}

func (d *turtleDecoder) blankNodeLabel() (Term, error) {
	b := d.peekN(2)
	if len(b) < 2 || b[1] != ':' {
		return nil, fmt.Errorf("expected blank node label")
	}
	d.discard(2)
	label, err := d.readName(true)
	if err != nil {
		return nil, err
	}
	if label == "" {
		return nil, fmt.Errorf("empty blank node label")
	}
	return NewBlankNode(label), nil
}

func (d *turtleDecoder) prefixedName() (Term, error) {
	prefix, err := d.readName(false)
	if err != nil {
		return nil, err
	}
	c, err := d.peekIn()
	if err != nil {
		return nil, err
	}
	if c != ':' {
		if prefix == "" {
			return nil, fmt.Errorf("unexpected character %q", c)
		}
		return nil, fmt.Errorf("expected ':' after %q", prefix)
	}
	d.discard(1)
	local, err := d.readName(true)
	if err != nil {
		return nil, err
	}
	ns, ok := d.prefixes[prefix]
	if !ok {
		return nil, fmt.Errorf("undefined prefix %q", prefix)
	}
	return NewNamedNode(ns + local), nil
}

func (d *turtleDecoder) literal() (Term, error) {
	q, err := d.peekIn()
	if err != nil {
		return nil, err
	}
	var value string
	if b := d.peekN(3); len(b) == 3 && b[1] == q && b[2] == q {
		d.discard(3)
		value, err = d.longString(q)
	} else {
		d.discard(1)
		value, err = d.shortString(q)
	}
	if err != nil {
		return nil, err
	}

	c, err := d.peek()
	if err != nil {
		if err == io.EOF {
			return NewLiteral(value), nil
		}
		return nil, err
	}
	switch c {
	case '@':
		d.discard(1)
		lang, err := d.readLanguage()
		if err != nil {
			return nil, err
		}
		return NewLiteralWithLanguage(value, lang), nil
	case '^':
		if b := d.peekN(2); len(b) < 2 || b[1] != '^' {
			return nil, fmt.Errorf("expected '^^' after literal")
		}
		d.discard(2)
		dt, err := d.iri()
		if err != nil {
			return nil, err
		}
		nn, ok := dt.(*NamedNode)
		if !ok {
			return nil, fmt.Errorf("literal datatype must be an IRI")
		}
		return NewLiteralWithDatatype(value, nn), nil
	}
	return NewLiteral(value), nil
}

func (d *turtleDecoder) shortString(q byte) (string, error) {
	var sb strings.Builder
	for {
		r, err := d.readRune()
		if err != nil {
			return "", unexpected(err)
		}
		switch {
		case r == rune(q):
			return sb.String(), nil
		case r == '\\':
			if err := d.escape(&sb); err != nil {
				return "", err
			}
		case r == '\n' || r == '\r':
			return "", fmt.Errorf("line break in short string literal")
		default:
			sb.WriteRune(r)
		}
	}
}

func (d *turtleDecoder) longString(q byte) (string, error) {
	var sb strings.Builder
	for {
		r, err := d.readRune()
		if err != nil {
			return "", unexpected(err)
		}
		switch {
		case r == rune(q):
			if b := d.peekN(2); len(b) == 2 && b[0] == q && b[1] == q {
				d.discard(2)
				return sb.String(), nil
			}
			sb.WriteRune(r)
		case r == '\\':
			if err := d.escape(&sb); err != nil {
				return "", err
			}
		default:
			sb.WriteRune(r)
		}
	}
}

func (d *turtleDecoder) escape(sb *strings.Builder) error {
	r, err := d.readRune()
	if err != nil {
		return unexpected(err)
	}
	switch r {
	case 't':
		sb.WriteByte('\t')
	case 'b':
		sb.WriteByte('\b')
	case 'n':
		sb.WriteByte('\n')
	case 'r':
		sb.WriteByte('\r')
	case 'f':
		sb.WriteByte('\f')
	case '"', '\'', '\\':
		sb.WriteRune(r)
	case 'u', 'U':
		decoded, err := d.unicodeEscape(r)
		if err != nil {
			return err
		}
		sb.WriteRune(decoded)
	default:
		return fmt.Errorf("invalid escape sequence \\%c", r)
	}
	return nil
}

func (d *turtleDecoder) unicodeEscape(kind rune) (rune, error) {
	n := 4
	if kind == 'U' {
		n = 8
	}
	hex := make([]byte, 0, n)
	for i := 0; i < n; i++ {
		c, err := d.r.ReadByte()
		if err != nil {
			return 0, unexpected(err)
		}
		if !isHexDigit(c) {
			return 0, fmt.Errorf("invalid hex digit %q in \\%c escape", c, kind)
		}
		hex = append(hex, c)
	}
	code, err := strconv.ParseUint(string(hex), 16, 32)
	if err != nil {
		return 0, err
	}
	if !utf8.ValidRune(rune(code)) {
		return 0, fmt.Errorf("invalid code point U+%s", strings.ToUpper(string(hex)))
	}
	return rune(code), nil
}

func (d *turtleDecoder) readLanguage() (string, error) {
	var sb strings.Builder
	for {
		c, err := d.peek()
		if err != nil && err != io.EOF {
			return "", err
		}
		if err == io.EOF || !(isAlpha(c) || isDigit(c) || c == '-') {
			break
		}
		sb.WriteByte(c)
		d.discard(1)
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("empty language tag")
	}
	return sb.String(), nil
}

func (d *turtleDecoder) number() (Term, error) {
	var sb strings.Builder
	datatype := XSDInteger

	if c, _ := d.peek(); c == '+' || c == '-' {
		sb.WriteByte(c)
		d.discard(1)
	}
	d.digits(&sb)
	if b := d.peekN(2); len(b) == 2 && b[0] == '.' && isDigit(b[1]) {
		sb.WriteByte('.')
		d.discard(1)
		d.digits(&sb)
		datatype = XSDDecimal
	}
	if c, err := d.peek(); err == nil && (c == 'e' || c == 'E') {
		sb.WriteByte(c)
		d.discard(1)
		if c, _ := d.peek(); c == '+' || c == '-' {
			sb.WriteByte(c)
			d.discard(1)
		}
		if n := d.digits(&sb); n == 0 {
			return nil, fmt.Errorf("missing exponent digits in %q", sb.String())
		}
		datatype = XSDDouble
	}

	lexical := sb.String()
	if lexical == "" || lexical == "+" || lexical == "-" {
		return nil, fmt.Errorf("invalid number %q", lexical)
	}
	return NewLiteralWithDatatype(lexical, datatype), nil
}

func (d *turtleDecoder) digits(sb *strings.Builder) int {
	n := 0
	for {
		c, err := d.peek()
		if err != nil || !isDigit(c) {
			return n
		}
		sb.WriteByte(c)
		d.discard(1)
		n++
	}
}

// readName reads prefix names, local names and blank node labels. A '.' is
// kept only when another name character follows it. Local names also accept
// ':', %-escapes and backslash escapes.
func (d *turtleDecoder) readName(local bool) (string, error) {
	var sb strings.Builder
	for {
		c, err := d.peek()
		if err == io.EOF {
			return sb.String(), nil
		}
		if err != nil {
			return "", err
		}
		switch {
		case c >= utf8.RuneSelf:
			r, err := d.readRune()
			if err != nil {
				return "", err
			}
			sb.WriteRune(r)
		case isNameByte(c):
			sb.WriteByte(c)
			d.discard(1)
		case c == '.':
			b := d.peekN(2)
			if len(b) < 2 || !(isNameByte(b[1]) || b[1] >= utf8.RuneSelf || (local && (b[1] == ':' || b[1] == '%' || b[1] == '\\'))) {
				return sb.String(), nil
			}
			sb.WriteByte('.')
			d.discard(1)
		case local && c == ':':
			sb.WriteByte(c)
			d.discard(1)
		case local && c == '%':
			b := d.peekN(3)
			if len(b) < 3 || !isHexDigit(b[1]) || !isHexDigit(b[2]) {
				return "", fmt.Errorf("invalid percent escape in local name")
			}
			sb.Write(b)
			d.discard(3)
		case local && c == '\\':
			b := d.peekN(2)
			if len(b) < 2 || !strings.ContainsRune("_~.-!$&'()*+,;=/?#@%", rune(b[1])) {
				return "", fmt.Errorf("invalid escape in local name")
			}
			sb.WriteByte(b[1])
			d.discard(2)
		default:
			return sb.String(), nil
		}
	}
}

func (d *turtleDecoder) readWord() (string, error) {
	var sb strings.Builder
	for {
		c, err := d.peek()
		if err != nil || !isAlpha(c) {
			if err != nil && err != io.EOF {
				return "", err
			}
			return sb.String(), nil
		}
		sb.WriteByte(c)
		d.discard(1)
	}
}

// matchKeyword consumes a case-insensitive keyword that is not followed by
// a name character or ':'
func (d *turtleDecoder) matchKeyword(keyword string) bool {
	return d.match(keyword, strings.EqualFold)
}

// matchExact consumes a case-sensitive keyword such as "a" or "true"
func (d *turtleDecoder) matchExact(keyword string) bool {
	return d.match(keyword, func(a, b string) bool { return a == b })
}

func (d *turtleDecoder) match(keyword string, eq func(a, b string) bool) bool {
	b := d.peekN(len(keyword) + 1)
	if len(b) < len(keyword) || !eq(string(b[:len(keyword)]), keyword) {
		return false
	}
	if len(b) > len(keyword) {
		next := b[len(keyword)]
		if isNameByte(next) || next == ':' || next >= utf8.RuneSelf {
			return false
		}
	}
	d.discard(len(keyword))
	return true
}

func (d *turtleDecoder) matchExactPunct(punct string) bool {
	b := d.peekN(len(punct))
	if string(b) != punct {
		return false
	}
	d.discard(len(punct))
	return true
}

func (d *turtleDecoder) skipWhitespaceAndComments() error {
	for {
		c, err := d.peek()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch c {
		case ' ', '\t', '\r':
			d.discard(1)
		case '\n':
			d.discard(1)
			d.line++
		case '#':
			if _, err := d.r.ReadString('\n'); err != nil {
				if err == io.EOF {
					return nil
				}
				return err
			}
			d.line++
		default:
			return nil
		}
	}
}

// expect skips whitespace and consumes c
func (d *turtleDecoder) expect(c byte) error {
	if err := d.expectPeek(c); err != nil {
		return err
	}
	d.discard(1)
	return nil
}

// expectPeek skips whitespace and checks that c comes next without consuming it
func (d *turtleDecoder) expectPeek(c byte) error {
	if err := d.skipWhitespaceAndComments(); err != nil {
		return err
	}
	found, err := d.peekIn()
	if err != nil {
		return err
	}
	if found != c {
		return fmt.Errorf("expected %q, found %q", c, found)
	}
	return nil
}

func (d *turtleDecoder) peek() (byte, error) {
	b, err := d.r.Peek(1)
	if len(b) == 0 {
		return 0, err
	}
	return b[0], nil
}

// peekIn is peek for positions where the input must continue
func (d *turtleDecoder) peekIn() (byte, error) {
	c, err := d.peek()
	return c, unexpected(err)
}

func (d *turtleDecoder) peekN(n int) []byte {
	b, _ := d.r.Peek(n)
	return b
}

// discard drops n already-peeked ASCII bytes that contain no line break
func (d *turtleDecoder) discard(n int) {
	_, _ = d.r.Discard(n)
}

func (d *turtleDecoder) readRune() (rune, error) {
	r, _, err := d.r.ReadRune()
	if err != nil {
		return 0, err
	}
	if r == '\n' {
		d.line++
	}
	return r, nil
}

func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isNameByte(c byte) bool {
	return isAlpha(c) || isDigit(c) || c == '_' || c == '-'
}
