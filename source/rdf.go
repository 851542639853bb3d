package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/knakk/rdf"

	"github.com/grbba/skosdoc/graph"
)

// MIME types of the supported serialisations.
const (
	MimeTurtle   = "text/turtle"
	MimeNTriples = "application/n-triples"
)

// prefixDecl matches both "@prefix p: <ns> ." and SPARQL style "PREFIX p: <ns>".
var prefixDecl = regexp.MustCompile(`(?mi)^\s*@?prefix\s+([A-Za-z][\w.-]*)?:\s*<([^>]*)>`)

// RDFParser decodes Turtle or N-Triples with knakk/rdf.
type RDFParser struct {
	mimeType string
	aliases  []string
	format   rdf.Format
}

// NewTurtleParser returns a parser for text/turtle.
func NewTurtleParser() *RDFParser {
	return &RDFParser{
		mimeType: MimeTurtle,
		aliases:  []string{"application/x-turtle"},
		format:   rdf.Turtle,
	}
}

// NewNTriplesParser returns a parser for application/n-triples.
func NewNTriplesParser() *RDFParser {
	return &RDFParser{
		mimeType: MimeNTriples,
		aliases:  []string{"text/plain+ntriples"},
		format:   rdf.NTriples,
	}
}

// MimeType implements Parser.
func (p *RDFParser) MimeType() string { return p.mimeType }

// CanParse implements Parser.
func (p *RDFParser) CanParse(mimeType string) bool {
	if mimeType == p.mimeType {
		return true
	}
	for _, a := range p.aliases {
		if a == mimeType {
			return true
		}
	}
	return false
}

// Parse implements Parser.
func (p *RDFParser) Parse(filename string, content []byte) (*Document, error) {
	doc := &Document{
		Path:     filename,
		Format:   p.mimeType,
		Prefixes: scanPrefixes(content),
		Hash:     ContentHash(content),
	}

	dec := rdf.NewTripleDecoder(bytes.NewReader(content), p.format)
	for {
		tr, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", filename, err)
		}
		t, err := convertTriple(tr)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", filename, err)
		}
		doc.Triples = append(doc.Triples, t)
	}
	return doc, nil
}

func scanPrefixes(content []byte) map[string]string {
	out := make(map[string]string)
	for _, m := range prefixDecl.FindAllSubmatch(content, -1) {
		out[string(m[1])] = string(m[2])
	}
	return out
}

func convertTriple(tr rdf.Triple) (graph.Triple, error) {
	subj, err := convertTerm(tr.Subj)
	if err != nil {
		return graph.Triple{}, err
	}
	obj, err := convertTerm(tr.Obj)
	if err != nil {
		return graph.Triple{}, err
	}
	return graph.Triple{Subject: subj, Predicate: tr.Pred.String(), Object: obj}, nil
}

func convertTerm(t rdf.Term) (graph.Term, error) {
	switch v := t.(type) {
	case rdf.IRI:
		return graph.IRI(v.String()), nil
	case rdf.Blank:
		return graph.Blank(strings.TrimPrefix(v.String(), "_:")), nil
	case rdf.Literal:
		if lang := v.Lang(); lang != "" {
			return graph.LangLiteral(v.String(), lang), nil
		}
		return graph.TypedLiteral(v.String(), v.DataType.String()), nil
	default:
		return graph.Term{}, fmt.Errorf("unexpected term %T", t)
	}
}
