package taxonomy

import "github.com/grbba/skosdoc/graph"

// Node is one entry of a depth-first hierarchy walk.
type Node struct {
	Concept  graph.Term
	Depth    int
	Children []*Node
}

// Tree expands root over Children. Every node appears at most once in the
// tree; a node reached again through another parent or a cycle is left
// out. The visited set is local to this call, so the same concept can
// appear in the trees of several roots.
func (c *Context) Tree(root graph.Term) *Node {
	visited := make(map[string]bool)
	var build func(graph.Term, int) *Node
	build = func(t graph.Term, depth int) *Node {
		visited[t.Key()] = true
		n := &Node{Concept: t, Depth: depth}
		for _, child := range c.Children(t) {
			if visited[child.Key()] {
				continue
			}
			n.Children = append(n.Children, build(child, depth+1))
		}
		return n
	}
	return build(root, 0)
}

// Forest builds one Tree per root.
func (c *Context) Forest(roots []graph.Term) []*Node {
	out := make([]*Node, 0, len(roots))
	for _, r := range roots {
		out = append(out, c.Tree(r))
	}
	return out
}

// Walk visits n and its descendants in pre-order.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// Size returns the number of nodes in the subtree rooted at n.
func (n *Node) Size() int {
	count := 0
	n.Walk(func(*Node) { count++ })
	return count
}
