package skos

import (
	"strings"

	"github.com/c360studio/semstreams/vocabulary"
)

// Concept predicates in dotted notation.
const (
	ConceptPrefLabel  = "taxonomy.concept.pref_label"
	ConceptAltLabel   = "taxonomy.concept.alt_label"
	ConceptLabel      = "taxonomy.concept.label"
	ConceptDefinition = "taxonomy.concept.definition"
	ConceptNotation   = "taxonomy.concept.notation"
	ConceptLinkedSSR  = "taxonomy.concept.linked_ssr"
	ConceptIdentifier = "taxonomy.concept.identifier"
)

// Relation predicates.
const (
	RelBroader        = "taxonomy.rel.broader"
	RelRelated        = "taxonomy.rel.related"
	RelInScheme       = "taxonomy.rel.in_scheme"
	RelWasDerivedFrom = "taxonomy.rel.derived_from"
)

// Scheme predicates.
const (
	SchemeDescription   = "taxonomy.scheme.description"
	SchemeHasTopConcept = "taxonomy.scheme.has_top_concept"
)

func init() {
	vocabulary.Register(ConceptPrefLabel,
		vocabulary.WithDescription("Preferred label of a concept, one per language"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(PrefLabel))

	vocabulary.Register(ConceptAltLabel,
		vocabulary.WithDescription("Alternative label, rendered as a used-for entry"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(AltLabel))

	vocabulary.Register(ConceptLabel,
		vocabulary.WithDescription("Plain rdfs label used when no preferred label exists"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(Label))

	vocabulary.Register(ConceptDefinition,
		vocabulary.WithDescription("Free-text definition of a concept"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(Definition))

	vocabulary.Register(ConceptNotation,
		vocabulary.WithDescription("Short code identifying a concept within its scheme"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(Notation))

	vocabulary.Register(ConceptLinkedSSR,
		vocabulary.WithDescription("Link from a concept to its external reference entity"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(DefaultReference))

	vocabulary.Register(ConceptIdentifier,
		vocabulary.WithDescription("Display identifier minted for a concept"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(Identifier))

	vocabulary.Register(RelBroader,
		vocabulary.WithDescription("Link from a concept to a more general concept"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(Broader))

	vocabulary.Register(RelRelated,
		vocabulary.WithDescription("Associative link between two concepts"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(Related))

	vocabulary.Register(RelInScheme,
		vocabulary.WithDescription("Membership of a concept in a concept scheme"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(InScheme))

	vocabulary.Register(RelWasDerivedFrom,
		vocabulary.WithDescription("Previous IRI of a rewritten concept"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(WasDerivedFrom))

	vocabulary.Register(SchemeDescription,
		vocabulary.WithDescription("Free-text description of a concept scheme"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(Description))

	vocabulary.Register(SchemeHasTopConcept,
		vocabulary.WithDescription("Explicit top concept of a concept scheme"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(HasTopConcept))
}

// ResolvePredicate maps a dotted predicate name to its IRI. Anything that
// already looks like an IRI is returned unchanged, as is an unknown name.
func ResolvePredicate(nameOrIRI string) string {
	if strings.Contains(nameOrIRI, "://") {
		return nameOrIRI
	}
	if meta := vocabulary.GetPredicateMetadata(nameOrIRI); meta != nil && meta.StandardIRI != "" {
		return meta.StandardIRI
	}
	return nameOrIRI
}
