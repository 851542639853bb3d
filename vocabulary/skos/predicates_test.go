package skos

import (
	"testing"

	"github.com/c360studio/semstreams/vocabulary"
	"github.com/stretchr/testify/assert"
)

func TestPredicatesRegistered(t *testing.T) {
	predicates := map[string]string{
		ConceptPrefLabel:    PrefLabel,
		ConceptAltLabel:     AltLabel,
		ConceptLabel:        Label,
		ConceptDefinition:   Definition,
		ConceptNotation:     Notation,
		ConceptLinkedSSR:    DefaultReference,
		ConceptIdentifier:   Identifier,
		RelBroader:          Broader,
		RelRelated:          Related,
		RelInScheme:         InScheme,
		RelWasDerivedFrom:   WasDerivedFrom,
		SchemeDescription:   Description,
		SchemeHasTopConcept: HasTopConcept,
	}

	for pred, iri := range predicates {
		t.Run(pred, func(t *testing.T) {
			meta := vocabulary.GetPredicateMetadata(pred)
			if meta == nil || meta.Description == "" {
				t.Fatalf("predicate %s not registered or missing description", pred)
			}
			assert.Equal(t, iri, meta.StandardIRI)
		})
	}
}

func TestResolvePredicate(t *testing.T) {
	assert.Equal(t, DefaultReference, ResolvePredicate(ConceptLinkedSSR))
	assert.Equal(t, "http://example.org/custom#ref", ResolvePredicate("http://example.org/custom#ref"))
	assert.Equal(t, "not.registered", ResolvePredicate("not.registered"))
}

func TestIRIs(t *testing.T) {
	assert.Equal(t, "http://www.w3.org/2004/02/skos/core#broader", Broader)
	assert.Equal(t, "http://www.w3.org/2004/02/skos/core#prefLabel", PrefLabel)
	assert.Equal(t, "http://www.w3.org/2000/01/rdf-schema#label", Label)
	assert.Equal(t, Namespace, DefaultPrefixes()["skos"])
}
