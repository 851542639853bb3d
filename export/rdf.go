// Package export serialises taxonomy graphs and builds the rewritten graph
// of the update flow.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/grbba/skosdoc/graph"
)

// Format specifies the output serialization format.
type Format string

const (
	// FormatTurtle produces Turtle (.ttl) output.
	FormatTurtle Format = "turtle"

	// FormatNTriples produces N-Triples (.nt) output.
	FormatNTriples Format = "ntriples"

	// FormatJSONLD produces JSON-LD (.jsonld) output.
	FormatJSONLD Format = "jsonld"
)

// Export serializes store in format.
func Export(store *graph.Store, format Format) (string, error) {
	switch format {
	case FormatTurtle:
		w := NewTurtleWriter(store.Prefixes())
		w.WriteStore(store)
		return w.String(), nil
	case FormatNTriples:
		w := NewNTriplesWriter()
		for _, subject := range store.SubjectTerms() {
			for _, t := range store.PredicateObjects(subject) {
				w.WriteTriple(t)
			}
		}
		return w.String(), nil
	case FormatJSONLD:
		w := NewJSONLDWriter()
		w.SetContext(store.Prefixes())
		w.AddStore(store)
		return w.String()
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// Write serializes store in format to w.
func Write(w io.Writer, store *graph.Store, format Format) error {
	out, err := Export(store, format)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, out); err != nil {
		return fmt.Errorf("write %s: %w", format, err)
	}
	return nil
}

// escapeString escapes special characters in strings for RDF serialization.
func escapeString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return s
}
