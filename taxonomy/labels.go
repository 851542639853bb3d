package taxonomy

import (
	"regexp"
	"slices"
	"strings"

	"github.com/grbba/skosdoc/graph"
	"github.com/grbba/skosdoc/vocabulary/skos"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Anchor turns a label into a link fragment: lower-cased, every run of
// non-alphanumeric characters collapsed to one hyphen, hyphens trimmed.
// Distinct labels can collide; nothing here resolves that.
func Anchor(label string) string {
	return strings.Trim(nonAlnum.ReplaceAllString(strings.ToLower(label), "-"), "-")
}

// Label returns the display label of node. Preference order: preferred
// label in the context language, any preferred label, rdfs:label in the
// context language, any rdfs:label, then the IRI local name. "Any" picks
// the first literal in store order, so the result is stable for a given
// graph.
func (c *Context) Label(node graph.Term) string {
	key := node.Key()
	c.labelMu.RLock()
	label, ok := c.labels[key]
	c.labelMu.RUnlock()
	if ok {
		return label
	}

	label = c.resolveLabel(node)
	c.labelMu.Lock()
	c.labels[key] = label
	c.labelMu.Unlock()
	return label
}

func (c *Context) resolveLabel(node graph.Term) string {
	for _, pred := range []string{skos.PrefLabel, skos.Label} {
		if v, ok := pickLiteral(c.store.Objects(node, pred), c.lang); ok {
			return v
		}
	}
	return node.LocalName()
}

func pickLiteral(objs []graph.Term, lang string) (string, bool) {
	first, found := "", false
	for _, o := range objs {
		if !o.IsLiteral() {
			continue
		}
		if o.Lang == lang {
			return o.Value, true
		}
		if !found {
			first, found = o.Value, true
		}
	}
	return first, found
}

func literals(objs []graph.Term) []graph.Term {
	out := objs[:0]
	for _, o := range objs {
		if o.IsLiteral() {
			out = append(out, o)
		}
	}
	return out
}

// PrefLabels returns every preferred label literal in store order.
func (c *Context) PrefLabels(node graph.Term) []graph.Term {
	return literals(c.store.Objects(node, skos.PrefLabel))
}

// AltLabels returns every alternative label literal.
func (c *Context) AltLabels(node graph.Term) []graph.Term {
	return literals(c.store.Objects(node, skos.AltLabel))
}

// Definitions returns every definition literal.
func (c *Context) Definitions(node graph.Term) []graph.Term {
	return literals(c.store.Objects(node, skos.Definition))
}

// Notations returns every notation literal.
func (c *Context) Notations(node graph.Term) []graph.Term {
	return literals(c.store.Objects(node, skos.Notation))
}

// Comments returns every rdfs:comment literal.
func (c *Context) Comments(node graph.Term) []graph.Term {
	return literals(c.store.Objects(node, skos.Comment))
}

// LangSorted orders literals with lang first, then by language tag (untagged
// last), then case-insensitively by text.
func LangSorted(lits []graph.Term, lang string) []graph.Term {
	out := slices.Clone(lits)
	rank := func(t graph.Term) (int, string) {
		switch {
		case t.Lang == lang:
			return 0, ""
		case t.Lang == "":
			return 1, "zz"
		default:
			return 1, t.Lang
		}
	}
	slices.SortStableFunc(out, func(a, b graph.Term) int {
		ra, la := rank(a)
		rb, lb := rank(b)
		if ra != rb {
			return ra - rb
		}
		if la != lb {
			return strings.Compare(la, lb)
		}
		return strings.Compare(strings.ToLower(a.Value), strings.ToLower(b.Value))
	})
	return out
}

// Reference is the external entity a concept links to.
type Reference struct {
	IRI     string
	Label   string
	Comment string
}

// Reference returns the entity linked through the reference predicate.
// Only the first link is used.
func (c *Context) Reference(node graph.Term) (Reference, bool) {
	ref, ok := c.store.Value(node, c.reference)
	if !ok || !ref.IsResource() {
		return Reference{}, false
	}
	var comments []string
	for _, l := range c.Comments(ref) {
		comments = append(comments, l.Value)
	}
	return Reference{
		IRI:     ref.Value,
		Label:   c.Label(ref),
		Comment: strings.Join(comments, " "),
	}, true
}
