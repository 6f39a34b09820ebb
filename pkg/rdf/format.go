package rdf

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Format identifies an RDF serialization
type Format string

const (
	FormatRDFXML   Format = "rdfxml"
	FormatJSONLD   Format = "jsonld"
	FormatTurtle   Format = "turtle"
	FormatTriG     Format = "trig"
	FormatNTriples Format = "ntriples"
	FormatNQuads   Format = "nquads"
	FormatN3       Format = "n3"
)

var mediaTypes = []struct {
	mediaType string
	format    Format
}{
	{"application/rdf+xml", FormatRDFXML},
	{"application/ld+json", FormatJSONLD},
	{"application/trig", FormatTriG},
	{"application/n-quads", FormatNQuads},
	{"application/n-triples", FormatNTriples},
	{"text/n3", FormatN3},
	{"text/turtle", FormatTurtle},
}

// FormatForMediaType maps one of the supported media types to its format.
// Matching is exact: parameters such as charset must be stripped by the caller.
func FormatForMediaType(mediaType string) (Format, error) {
	for _, mt := range mediaTypes {
		if mt.mediaType == mediaType {
			return mt.format, nil
		}
	}
	return "", errors.Wrapf(ErrUnsupportedFormat, "media type %q", mediaType)
}

// MediaType returns the canonical media type of the format
func (f Format) MediaType() string {
	for _, mt := range mediaTypes {
		if mt.format == f {
			return mt.mediaType
		}
	}
	return ""
}

// SupportedMediaTypes returns all media types an adapter exists for
func SupportedMediaTypes() []string {
	types := make([]string, len(mediaTypes))
	for i, mt := range mediaTypes {
		types[i] = mt.mediaType
	}
	return types
}

// ParseFormat accepts either a format name such as "turtle" or one of the
// supported media types
func ParseFormat(s string) (Format, error) {
	for _, mt := range mediaTypes {
		if string(mt.format) == s {
			return mt.format, nil
		}
	}
	return FormatForMediaType(s)
}

var extensions = map[string]Format{
	".ttl":    FormatTurtle,
	".nt":     FormatNTriples,
	".nq":     FormatNQuads,
	".trig":   FormatTriG,
	".n3":     FormatN3,
	".rdf":    FormatRDFXML,
	".owl":    FormatRDFXML,
	".xml":    FormatRDFXML,
	".jsonld": FormatJSONLD,
	".json":   FormatJSONLD,
}

// FormatForExtension guesses the format of a file from its extension,
// including the leading dot. Matching ignores case.
func FormatForExtension(ext string) (Format, error) {
	if f, ok := extensions[strings.ToLower(ext)]; ok {
		return f, nil
	}
	return "", errors.Wrapf(ErrUnsupportedFormat, "file extension %q", ext)
}

// Extensions returns the file extensions FormatForExtension maps to f,
// sorted
func (f Format) Extensions() []string {
	var out []string
	for ext, format := range extensions {
		if format == f {
			out = append(out, ext)
		}
	}
	sort.Strings(out)
	return out
}
