package taxonomy

import (
	"slices"
	"strings"

	"github.com/grbba/skosdoc/graph"
	"github.com/grbba/skosdoc/vocabulary/skos"
)

// Schemes returns every node typed skos:ConceptScheme. When none is typed,
// every object of skos:inScheme counts as a scheme. The result is ordered
// by qualified name.
func (c *Context) Schemes() []graph.Term {
	schemes := resources(c.store.SubjectsOfType(skos.ClassConceptScheme))
	if len(schemes) == 0 {
		schemes = resources(c.store.ObjectsOf(skos.InScheme))
	}
	slices.SortStableFunc(schemes, func(a, b graph.Term) int {
		return strings.Compare(c.QName(a), c.QName(b))
	})
	return schemes
}

// SchemesOf returns the schemes node declares membership in.
func (c *Context) SchemesOf(node graph.Term) []graph.Term {
	return resources(c.store.Objects(node, skos.InScheme))
}

// ConceptsInScheme returns the concepts that declare membership in scheme,
// ordered by IRI.
func (c *Context) ConceptsInScheme(scheme graph.Term) []graph.Term {
	var out []graph.Term
	for _, t := range c.concepts {
		if c.store.Has(t, skos.InScheme, scheme) {
			out = append(out, t)
		}
	}
	return out
}

// SchemeTopTerms returns the roots of scheme, ordered by label: members
// whose broader targets all lie outside the scheme, plus one entry point per
// broader cycle inside it. A concept whose only parent is in another scheme
// is therefore a top term of this one.
func (c *Context) SchemeTopTerms(scheme graph.Term) []graph.Term {
	return c.Roots(c.ConceptsInScheme(scheme))
}

// SchemeDescriptions returns dcterms:description followed by
// skos:definition literals of scheme.
func (c *Context) SchemeDescriptions(scheme graph.Term) []graph.Term {
	out := literals(c.store.Objects(scheme, skos.Description))
	return append(out, c.Definitions(scheme)...)
}
