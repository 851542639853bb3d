// Package taxonomy derives SKOS views (labels, hierarchy, schemes) from a
// loaded graph. A Context is built once per run and passed to every
// component that needs it; nothing in this package mutates the store.
package taxonomy

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/grbba/skosdoc/graph"
	"github.com/grbba/skosdoc/vocabulary/skos"
)

// DefaultLanguage is the preferred label language when none is configured.
const DefaultLanguage = "en"

// Context is the per-run view over a taxonomy graph.
type Context struct {
	store     *graph.Store
	lang      string
	reference string
	logger    *slog.Logger

	concepts   []graph.Term
	conceptSet map[string]bool

	labelMu sync.RWMutex
	labels  map[string]string
}

// Option configures a Context.
type Option func(*Context)

// WithLanguage sets the preferred label language.
func WithLanguage(lang string) Option {
	return func(c *Context) {
		if lang != "" {
			c.lang = lang
		}
	}
}

// WithReferencePredicate sets the predicate linking a concept to its
// reference entity. Dotted names are resolved through the vocabulary.
func WithReferencePredicate(predicate string) Option {
	return func(c *Context) {
		if predicate != "" {
			c.reference = skos.ResolvePredicate(predicate)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Context) {
		c.logger = logger
	}
}

// New builds a Context over store. The concept set is every subject typed
// skos:Concept.
func New(store *graph.Store, opts ...Option) *Context {
	c := &Context{
		store:      store,
		lang:       DefaultLanguage,
		reference:  skos.DefaultReference,
		logger:     slog.Default(),
		conceptSet: make(map[string]bool),
		labels:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}

	for _, t := range store.SubjectsOfType(skos.ClassConcept) {
		if t.IsResource() {
			c.concepts = append(c.concepts, t)
			c.conceptSet[t.Key()] = true
		}
	}

	c.logger.Debug("Taxonomy context built",
		"concepts", len(c.concepts),
		"language", c.lang)
	return c
}

// Store returns the underlying triple store.
func (c *Context) Store() *graph.Store { return c.store }

// Language returns the preferred label language.
func (c *Context) Language() string { return c.lang }

// ReferencePredicate returns the IRI of the reference entity link.
func (c *Context) ReferencePredicate() string { return c.reference }

// Concepts returns every concept, ordered by IRI.
func (c *Context) Concepts() []graph.Term {
	return slices.Clone(c.concepts)
}

// IsConcept reports whether t is a member of the concept set.
func (c *Context) IsConcept(t graph.Term) bool {
	return c.conceptSet[t.Key()]
}

// QName shortens an IRI using the store's prefix bindings.
func (c *Context) QName(t graph.Term) string {
	if t.Kind != graph.KindIRI {
		return t.String()
	}
	return c.store.QName(t.Value)
}
