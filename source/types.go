// Package source loads taxonomy files into a graph store.
package source

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/grbba/skosdoc/graph"
)

var (
	// ErrNoSources is returned when the configured patterns match no file.
	ErrNoSources = errors.New("no source files matched")

	// ErrUnsupportedFormat is returned for files no registered parser accepts.
	ErrUnsupportedFormat = errors.New("unsupported source format")
)

// Document is a single parsed source file.
type Document struct {
	// Path is the file the triples were read from.
	Path string

	// Format is the MIME type of the parser that read the file.
	Format string

	// Triples holds every statement in file order.
	Triples []graph.Triple

	// Prefixes maps the namespace prefixes declared in the file.
	Prefixes map[string]string

	// Hash is the SHA-256 of the raw content.
	Hash string
}

// ContentHash returns the hex SHA-256 of content.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
