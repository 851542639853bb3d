package skos

import "github.com/c360studio/semstreams/vocabulary"

// Namespace is the SKOS core namespace.
const Namespace = "http://www.w3.org/2004/02/skos/core#"

// Well-known namespaces bound when a source does not declare them.
const (
	RDFNamespace     = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFSNamespace    = "http://www.w3.org/2000/01/rdf-schema#"
	XSDNamespace     = "http://www.w3.org/2001/XMLSchema#"
	DCTermsNamespace = "http://purl.org/dc/terms/"
	ProvNamespace    = "http://www.w3.org/ns/prov#"
)

// Class IRIs.
const (
	// ClassConcept marks a taxonomy term.
	ClassConcept = Namespace + "Concept"

	// ClassConceptScheme marks a named grouping of concepts.
	ClassConceptScheme = Namespace + "ConceptScheme"
)

// Labelling and documentation properties.
const (
	PrefLabel  = vocabulary.SkosPrefLabel
	AltLabel   = vocabulary.SkosAltLabel
	Notation   = vocabulary.SkosNotation
	Definition = Namespace + "definition"

	// Label is rdfs:label, the secondary label predicate.
	Label = vocabulary.RdfsLabel

	// Comment is rdfs:comment, used for reference entity remarks.
	Comment = vocabulary.RdfsComment

	// Description is dcterms:description, used for scheme descriptions.
	Description = DCTermsNamespace + "description"

	// Identifier is dcterms:identifier, written by the rewrite flow.
	Identifier = vocabulary.DcIdentifier

	// WasDerivedFrom points a rewritten concept at its previous IRI.
	WasDerivedFrom = vocabulary.ProvWasDerivedFrom
)

// Semantic relation properties.
const (
	Broader  = vocabulary.SkosBroader
	Narrower = vocabulary.SkosNarrower
	Related  = vocabulary.SkosRelated
)

// Scheme membership properties.
const (
	InScheme      = Namespace + "inScheme"
	HasTopConcept = Namespace + "hasTopConcept"
	TopConceptOf  = Namespace + "topConceptOf"
)

// DefaultReferenceNamespace is the namespace of the default reference
// predicate.
const DefaultReferenceNamespace = "http://example.org/apmwg#"

// DefaultReference links a concept to its external reference entity (SSR).
const DefaultReference = DefaultReferenceNamespace + "linkedSSR"

// DefaultPrefixes returns the prefixes every output document may rely on.
func DefaultPrefixes() map[string]string {
	return map[string]string{
		"rdf":     RDFNamespace,
		"rdfs":    RDFSNamespace,
		"xsd":     XSDNamespace,
		"skos":    Namespace,
		"dcterms": DCTermsNamespace,
		"prov":    ProvNamespace,
	}
}
