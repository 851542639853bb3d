package export

import (
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/grbba/skosdoc/graph"
)

// FormatInfo provides metadata about an export format.
type FormatInfo struct {
	// Name is the format identifier.
	Name Format

	// MIMEType is the standard MIME type.
	MIMEType string

	// Extension is the file extension (with dot).
	Extension string

	// Description describes the format.
	Description string
}

// FormatRegistry contains metadata for all supported formats.
var FormatRegistry = map[Format]FormatInfo{
	FormatTurtle: {
		Name:        FormatTurtle,
		MIMEType:    "text/turtle",
		Extension:   ".ttl",
		Description: "Turtle - Terse RDF Triple Language",
	},
	FormatNTriples: {
		Name:        FormatNTriples,
		MIMEType:    "application/n-triples",
		Extension:   ".nt",
		Description: "N-Triples - Line-based RDF format",
	},
	FormatJSONLD: {
		Name:        FormatJSONLD,
		MIMEType:    "application/ld+json",
		Extension:   ".jsonld",
		Description: "JSON-LD - JSON for Linked Data",
	},
}

// GetFormatInfo returns metadata for a format.
func GetFormatInfo(format Format) (FormatInfo, bool) {
	info, ok := FormatRegistry[format]
	return info, ok
}

// ParseFormat resolves a format name or file extension.
func ParseFormat(name string) (Format, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for f, info := range FormatRegistry {
		if name == string(f) || name == info.Extension || name == strings.TrimPrefix(info.Extension, ".") {
			return f, true
		}
	}
	switch name {
	case "ttl":
		return FormatTurtle, true
	case "nt":
		return FormatNTriples, true
	case "json-ld":
		return FormatJSONLD, true
	}
	return "", false
}

const rdfType = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"

// localName matches the local parts written as prefixed names; anything
// else is written as a full IRI.
var localName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_\-]*$`)

// TurtleWriter writes RDF in Turtle format, one block per subject.
type TurtleWriter struct {
	prefixes map[string]string
	sb       strings.Builder
}

// NewTurtleWriter creates a Turtle writer using prefixes for prefixed names.
func NewTurtleWriter(prefixes map[string]string) *TurtleWriter {
	w := &TurtleWriter{prefixes: make(map[string]string, len(prefixes))}
	for p, ns := range prefixes {
		w.prefixes[p] = ns
	}
	return w
}

// SetPrefix sets a namespace prefix.
func (w *TurtleWriter) SetPrefix(prefix, iri string) {
	w.prefixes[prefix] = iri
}

// WritePrefixes writes prefix declarations.
func (w *TurtleWriter) WritePrefixes() {
	keys := make([]string, 0, len(w.prefixes))
	for k := range w.prefixes {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, prefix := range keys {
		w.sb.WriteString(fmt.Sprintf("@prefix %s: <%s> .\n", prefix, w.prefixes[prefix]))
	}
	w.sb.WriteString("\n")
}

// WriteSubject writes one subject block. rdf:type comes first as "a".
func (w *TurtleWriter) WriteSubject(subject graph.Term, triples []graph.Triple) {
	if len(triples) == 0 {
		return
	}
	ordered := slices.Clone(triples)
	slices.SortStableFunc(ordered, func(a, b graph.Triple) int {
		switch {
		case a.Predicate == rdfType && b.Predicate != rdfType:
			return -1
		case b.Predicate == rdfType && a.Predicate != rdfType:
			return 1
		default:
			return strings.Compare(a.Predicate, b.Predicate)
		}
	})

	w.sb.WriteString(w.term(subject) + "\n")
	for i, t := range ordered {
		pred := "a"
		if t.Predicate != rdfType {
			pred = w.iri(t.Predicate)
		}
		terminator := " ;"
		if i == len(ordered)-1 {
			terminator = " ."
		}
		w.sb.WriteString(fmt.Sprintf("    %s %s%s\n", pred, w.term(t.Object), terminator))
	}
}

// WriteStore writes prefixes and every subject of store in sorted order.
func (w *TurtleWriter) WriteStore(store *graph.Store) {
	w.WritePrefixes()
	for i, subject := range store.SubjectTerms() {
		if i > 0 {
			w.WriteBlank()
		}
		w.WriteSubject(subject, store.PredicateObjects(subject))
	}
}

// WriteBlank writes a blank line for readability.
func (w *TurtleWriter) WriteBlank() {
	w.sb.WriteString("\n")
}

// String returns the accumulated Turtle output.
func (w *TurtleWriter) String() string {
	return w.sb.String()
}

// iri writes a prefixed name when a bound namespace covers iri with a
// simple local part.
func (w *TurtleWriter) iri(iri string) string {
	best, bestNS := "", ""
	for prefix, ns := range w.prefixes {
		if !strings.HasPrefix(iri, ns) || len(ns) < len(bestNS) {
			continue
		}
		if len(ns) == len(bestNS) && prefix > best {
			continue
		}
		best, bestNS = prefix, ns
	}
	if bestNS != "" && localName.MatchString(iri[len(bestNS):]) {
		return best + ":" + iri[len(bestNS):]
	}
	return "<" + iri + ">"
}

func (w *TurtleWriter) term(t graph.Term) string {
	switch t.Kind {
	case graph.KindIRI:
		return w.iri(t.Value)
	case graph.KindBlank:
		return "_:" + t.Value
	}
	lit := `"` + escapeString(t.Value) + `"`
	switch {
	case t.Lang != "":
		return lit + "@" + t.Lang
	case t.Datatype != "":
		return lit + "^^" + w.iri(t.Datatype)
	default:
		return lit
	}
}

// NTriplesWriter writes RDF in N-Triples format.
type NTriplesWriter struct {
	sb strings.Builder
}

// NewNTriplesWriter creates a new N-Triples writer.
func NewNTriplesWriter() *NTriplesWriter {
	return &NTriplesWriter{}
}

// WriteTriple writes a single triple.
func (w *NTriplesWriter) WriteTriple(t graph.Triple) {
	w.sb.WriteString(fmt.Sprintf("%s <%s> %s .\n", ntTerm(t.Subject), t.Predicate, ntTerm(t.Object)))
}

// String returns the accumulated N-Triples output.
func (w *NTriplesWriter) String() string {
	return w.sb.String()
}

func ntTerm(t graph.Term) string {
	switch t.Kind {
	case graph.KindIRI:
		return "<" + t.Value + ">"
	case graph.KindBlank:
		return "_:" + t.Value
	}
	lit := `"` + escapeString(t.Value) + `"`
	switch {
	case t.Lang != "":
		return lit + "@" + t.Lang
	case t.Datatype != "":
		return lit + "^^<" + t.Datatype + ">"
	default:
		return lit
	}
}

// JSONLDDocument represents a JSON-LD document structure.
type JSONLDDocument struct {
	Context map[string]any `json:"@context"`
	Graph   []JSONLDNode   `json:"@graph"`
}

// JSONLDNode represents a node in a JSON-LD graph. Property keys are full
// predicate IRIs.
type JSONLDNode struct {
	ID         string         `json:"@id"`
	Type       []string       `json:"@type,omitempty"`
	Properties map[string]any `json:"-"`
}

// MarshalJSON implements custom JSON marshaling for JSONLDNode.
func (n JSONLDNode) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(n.Properties)+2)
	m["@id"] = n.ID
	if len(n.Type) > 0 {
		m["@type"] = n.Type
	}
	for k, v := range n.Properties {
		m[k] = v
	}
	return json.Marshal(m)
}

// JSONLDWriter writes RDF in expanded-value JSON-LD.
type JSONLDWriter struct {
	doc JSONLDDocument
}

// NewJSONLDWriter creates a new JSON-LD writer.
func NewJSONLDWriter() *JSONLDWriter {
	return &JSONLDWriter{
		doc: JSONLDDocument{
			Context: make(map[string]any),
			Graph:   make([]JSONLDNode, 0),
		},
	}
}

// SetContext sets the @context with prefixes.
func (w *JSONLDWriter) SetContext(prefixes map[string]string) {
	for k, v := range prefixes {
		w.doc.Context[k] = v
	}
}

// AddNode adds a node to the graph.
func (w *JSONLDWriter) AddNode(id string, types []string, properties map[string]any) {
	w.doc.Graph = append(w.doc.Graph, JSONLDNode{
		ID:         id,
		Type:       types,
		Properties: properties,
	})
}

// AddStore adds one node per subject of store.
func (w *JSONLDWriter) AddStore(store *graph.Store) {
	for _, subject := range store.SubjectTerms() {
		var types []string
		props := make(map[string]any)
		for _, t := range store.PredicateObjects(subject) {
			if t.Predicate == rdfType && t.Object.Kind == graph.KindIRI {
				types = append(types, t.Object.Value)
				continue
			}
			values, _ := props[t.Predicate].([]any)
			props[t.Predicate] = append(values, jsonldValue(t.Object))
		}
		w.AddNode(jsonldID(subject), types, props)
	}
}

func jsonldID(t graph.Term) string {
	if t.Kind == graph.KindBlank {
		return "_:" + t.Value
	}
	return t.Value
}

func jsonldValue(t graph.Term) map[string]string {
	if t.IsResource() {
		return map[string]string{"@id": jsonldID(t)}
	}
	v := map[string]string{"@value": t.Value}
	switch {
	case t.Lang != "":
		v["@language"] = t.Lang
	case t.Datatype != "":
		v["@type"] = t.Datatype
	}
	return v
}

// String returns the JSON-LD output.
func (w *JSONLDWriter) String() (string, error) {
	data, err := json.MarshalIndent(w.doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal json-ld: %w", err)
	}
	return string(data) + "\n", nil
}
