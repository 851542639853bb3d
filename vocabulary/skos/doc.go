// Package skos provides the IRIs and dotted predicates used to read SKOS
// taxonomies.
//
// Standard IRIs come from the semstreams vocabulary where it defines them;
// the remaining SKOS and DCTERMS terms are declared here. Importing the
// package registers the taxonomy.* predicates so configuration can refer
// to them by dotted name:
//
//	import "github.com/grbba/skosdoc/vocabulary/skos"
//
//	iri := skos.ResolvePredicate("taxonomy.concept.linked_ssr")
package skos
