package render

import (
	"github.com/grbba/skosdoc/graph"
)

// previewLines lists the outgoing triples of node in compact form:
// subject, predicate and IRI objects as qualified names, literals quoted
// with their language tag or datatype.
func (r *Renderer) previewLines(node graph.Term) []string {
	triples := r.tax.Store().PredicateObjects(node)
	lines := make([]string, 0, len(triples))
	for _, t := range triples {
		lines = append(lines, r.tax.QName(node)+" "+r.tax.Store().QName(t.Predicate)+" "+r.objectText(t.Object)+" .")
	}
	return lines
}

func (r *Renderer) objectText(o graph.Term) string {
	switch {
	case !o.IsLiteral():
		return r.tax.QName(o)
	case o.Lang != "":
		return `"` + o.Value + `"@` + o.Lang
	case o.Datatype != "":
		return `"` + o.Value + `"^^` + r.tax.Store().QName(o.Datatype)
	default:
		return `"` + o.Value + `"`
	}
}
