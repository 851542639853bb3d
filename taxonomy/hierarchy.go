package taxonomy

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/grbba/skosdoc/graph"
	"github.com/grbba/skosdoc/vocabulary/skos"
)

// UnknownFacet is the facet context used when the broader walk of a
// concept ends on a node without a preferred label.
const UnknownFacet = "Unknown Facet"

func resources(objs []graph.Term) []graph.Term {
	out := objs[:0]
	for _, o := range objs {
		if o.IsResource() {
			out = append(out, o)
		}
	}
	return out
}

// Broader returns the direct broader targets of node.
func (c *Context) Broader(node graph.Term) []graph.Term {
	return resources(c.store.Objects(node, skos.Broader))
}

// Related returns the related targets of node.
func (c *Context) Related(node graph.Term) []graph.Term {
	return resources(c.store.Objects(node, skos.Related))
}

// IsTopTerm reports whether node has no broader edge.
func (c *Context) IsTopTerm(node graph.Term) bool {
	return len(c.Broader(node)) == 0
}

// Ancestors returns every node reachable over broader edges, nearest first
// in depth-first discovery order. Each node appears once, and cycles
// terminate.
func (c *Context) Ancestors(node graph.Term) []graph.Term {
	var out []graph.Term
	seen := make(map[string]bool)
	var dfs func(graph.Term)
	dfs = func(n graph.Term) {
		for _, b := range c.Broader(n) {
			if seen[b.Key()] {
				continue
			}
			seen[b.Key()] = true
			out = append(out, b)
			dfs(b)
		}
	}
	dfs(node)
	return out
}

// Children returns the nodes whose broader set contains node, ordered
// case-insensitively by label.
func (c *Context) Children(node graph.Term) []graph.Term {
	return c.SortByLabel(resources(c.store.Subjects(skos.Broader, node)))
}

// Descendants returns the pre-order depth-first expansion of Children.
// A node reached twice is emitted once.
func (c *Context) Descendants(node graph.Term) []graph.Term {
	var out []graph.Term
	visited := map[string]bool{node.Key(): true}
	var walk func(graph.Term)
	walk = func(n graph.Term) {
		for _, child := range c.Children(n) {
			if visited[child.Key()] {
				continue
			}
			visited[child.Key()] = true
			out = append(out, child)
			walk(child)
		}
	}
	walk(node)
	return out
}

// TopTerms returns the members of concepts without broader edges, ordered
// by label.
func (c *Context) TopTerms(concepts []graph.Term) []graph.Term {
	var tops []graph.Term
	for _, t := range concepts {
		if c.IsTopTerm(t) {
			tops = append(tops, t)
		}
	}
	return c.SortByLabel(tops)
}

// Roots returns the entry points for rendering concepts: every member
// whose broader targets all lie outside concepts, then one member of each
// broader cycle no such root reaches. The result is ordered by label.
func (c *Context) Roots(concepts []graph.Term) []graph.Term {
	in := make(map[string]bool, len(concepts))
	for _, t := range concepts {
		in[t.Key()] = true
	}

	var roots []graph.Term
	for _, t := range concepts {
		inside := false
		for _, b := range c.Broader(t) {
			if in[b.Key()] {
				inside = true
				break
			}
		}
		if !inside {
			roots = append(roots, t)
		}
	}

	reached := make(map[string]bool, len(concepts))
	mark := func(root graph.Term) {
		reached[root.Key()] = true
		for _, d := range c.Descendants(root) {
			reached[d.Key()] = true
		}
	}
	for _, r := range roots {
		mark(r)
	}
	for _, t := range c.SortByLabel(slices.Clone(concepts)) {
		if !reached[t.Key()] {
			roots = append(roots, t)
			mark(t)
		}
	}
	return c.SortByLabel(roots)
}

// SortByLabel sorts nodes in place by case-folded label, then by IRI.
func (c *Context) SortByLabel(nodes []graph.Term) []graph.Term {
	fold := cases.Fold()
	keys := make(map[string]string, len(nodes))
	for _, n := range nodes {
		keys[n.Key()] = fold.String(c.Label(n))
	}
	slices.SortStableFunc(nodes, func(a, b graph.Term) int {
		if d := strings.Compare(keys[a.Key()], keys[b.Key()]); d != 0 {
			return d
		}
		return strings.Compare(a.Value, b.Value)
	})
	return nodes
}

// FacetLabel follows the first broader edge of node until it reaches a top
// term and returns that term's label. It returns UnknownFacet when the top
// term has no preferred label or the walk runs into a cycle.
func (c *Context) FacetLabel(node graph.Term) string {
	seen := make(map[string]bool)
	current := node
	for {
		if seen[current.Key()] {
			return UnknownFacet
		}
		seen[current.Key()] = true

		broader := c.Broader(current)
		if len(broader) == 0 {
			if len(c.PrefLabels(current)) == 0 {
				return UnknownFacet
			}
			return c.Label(current)
		}
		current = broader[0]
	}
}
