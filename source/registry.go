package source

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// Parser decodes one RDF serialisation.
type Parser interface {
	// Parse decodes the content of filename.
	Parse(filename string, content []byte) (*Document, error)

	// CanParse returns true if this parser handles the given MIME type.
	CanParse(mimeType string) bool

	// MimeType returns the primary MIME type for this parser.
	MimeType() string
}

// Registry manages source parsers keyed by MIME type.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]Parser
}

// NewRegistry creates a registry holding the Turtle and N-Triples parsers.
func NewRegistry() *Registry {
	r := &Registry{
		parsers: make(map[string]Parser),
	}
	r.Register(NewTurtleParser())
	r.Register(NewNTriplesParser())
	return r
}

// Register adds a parser, replacing any parser with the same MIME type.
func (r *Registry) Register(p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[p.MimeType()] = p
}

// GetByMimeType returns the parser for mimeType, or nil.
func (r *Registry) GetByMimeType(mimeType string) Parser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.parsers[mimeType]; ok {
		return p
	}
	for _, p := range r.parsers {
		if p.CanParse(mimeType) {
			return p
		}
	}
	return nil
}

// GetByExtension returns the parser for filename based on its extension.
func (r *Registry) GetByExtension(filename string) Parser {
	return r.GetByMimeType(MimeTypeFromExtension(filepath.Ext(filename)))
}

// Parse decodes content with the parser matching filename.
func (r *Registry) Parse(filename string, content []byte) (*Document, error) {
	p := r.GetByExtension(filename)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
	return p.Parse(filename, content)
}

// Extensions lists the file extensions some registered parser accepts.
func (r *Registry) Extensions() []string {
	var out []string
	for _, ext := range []string{".ttl", ".turtle", ".nt"} {
		if r.GetByExtension("x"+ext) != nil {
			out = append(out, ext)
		}
	}
	return out
}

// ListMimeTypes returns all registered MIME types, sorted.
func (r *Registry) ListMimeTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.parsers))
	for t := range r.parsers {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// MimeTypeFromExtension returns the MIME type for a file extension.
func MimeTypeFromExtension(ext string) string {
	switch strings.ToLower(ext) {
	case ".ttl", ".turtle":
		return MimeTurtle
	case ".nt":
		return MimeNTriples
	default:
		return "application/octet-stream"
	}
}
