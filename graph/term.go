// Package graph provides the in-memory triple store the documentation
// pipeline reads from. It is loaded once per run and never mutated while
// documents are rendered.
package graph

import (
	"fmt"
	"strings"
)

// TermKind distinguishes the three RDF node kinds.
type TermKind int

const (
	// KindIRI is a named resource.
	KindIRI TermKind = iota
	// KindBlank is an anonymous resource.
	KindBlank
	// KindLiteral is a lexical value with optional language or datatype.
	KindLiteral
)

// String returns the kind name.
func (k TermKind) String() string {
	switch k {
	case KindIRI:
		return "iri"
	case KindBlank:
		return "blank"
	case KindLiteral:
		return "literal"
	default:
		return "unknown"
	}
}

// XSDString is the implicit datatype of plain literals. It is normalised
// away so that "x" and "x"^^xsd:string compare equal.
const XSDString = "http://www.w3.org/2001/XMLSchema#string"

// rdfLangString is the datatype RDF 1.1 assigns to language-tagged literals.
const rdfLangString = "http://www.w3.org/1999/02/22-rdf-syntax-ns#langString"

// Term is a subject, predicate or object value.
type Term struct {
	Kind TermKind

	// Value is the IRI, the blank node label or the literal's lexical form.
	Value string

	// Lang is the literal language tag, lower-cased. Empty for non-literals.
	Lang string

	// Datatype is the literal datatype IRI. Empty for plain and
	// language-tagged literals.
	Datatype string
}

// IRI returns a named resource term.
func IRI(iri string) Term {
	return Term{Kind: KindIRI, Value: iri}
}

// Blank returns a blank node term.
func Blank(id string) Term {
	return Term{Kind: KindBlank, Value: id}
}

// Literal returns a plain literal.
func Literal(value string) Term {
	return Term{Kind: KindLiteral, Value: value}
}

// LangLiteral returns a language-tagged literal.
func LangLiteral(value, lang string) Term {
	return Term{Kind: KindLiteral, Value: value, Lang: strings.ToLower(lang)}
}

// TypedLiteral returns a literal with an explicit datatype.
func TypedLiteral(value, datatype string) Term {
	if datatype == XSDString || datatype == rdfLangString {
		datatype = ""
	}
	return Term{Kind: KindLiteral, Value: value, Datatype: datatype}
}

// IsLiteral reports whether the term is a literal.
func (t Term) IsLiteral() bool { return t.Kind == KindLiteral }

// IsResource reports whether the term is an IRI or blank node.
func (t Term) IsResource() bool { return t.Kind == KindIRI || t.Kind == KindBlank }

// IsZero reports whether the term is the zero value.
func (t Term) IsZero() bool { return t == Term{} }

// Key returns a string that uniquely identifies the term inside a store.
func (t Term) Key() string {
	switch t.Kind {
	case KindIRI:
		return "<" + t.Value + ">"
	case KindBlank:
		return "_:" + t.Value
	default:
		return fmt.Sprintf("%q@%s^^%s", t.Value, t.Lang, t.Datatype)
	}
}

// LocalName returns the trailing fragment or path segment of an IRI, or
// the term value itself for anything else.
func (t Term) LocalName() string {
	if t.Kind != KindIRI {
		return t.Value
	}
	v := t.Value
	if i := strings.LastIndex(v, "#"); i >= 0 && i < len(v)-1 {
		return v[i+1:]
	}
	v = strings.TrimRight(v, "/")
	if i := strings.LastIndex(v, "/"); i >= 0 && i < len(v)-1 {
		return v[i+1:]
	}
	return v
}

// String returns the N-Triples style rendering of the term.
func (t Term) String() string {
	switch t.Kind {
	case KindIRI:
		return "<" + t.Value + ">"
	case KindBlank:
		return "_:" + t.Value
	}
	s := fmt.Sprintf("%q", t.Value)
	if t.Lang != "" {
		return s + "@" + t.Lang
	}
	if t.Datatype != "" {
		return s + "^^<" + t.Datatype + ">"
	}
	return s
}

// Less orders terms by kind, then language, then value, then datatype.
// Every multi-valued lookup in the store is returned in this order.
func Less(a, b Term) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	if a.Lang != b.Lang {
		return a.Lang < b.Lang
	}
	if a.Value != b.Value {
		return a.Value < b.Value
	}
	return a.Datatype < b.Datatype
}

// Triple is a single statement. Predicates are always IRIs and are kept as
// plain strings.
type Triple struct {
	Subject   Term
	Predicate string
	Object    Term
}
