package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/grbba/skosdoc/graph"
)

// Loader reads source files into a single store.
type Loader struct {
	registry *Registry
	logger   *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithRegistry overrides the parser registry.
func WithRegistry(r *Registry) LoaderOption {
	return func(l *Loader) {
		l.registry = r
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader creates a loader with the default registry.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		registry: NewRegistry(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Result is what one Load call produced.
type Result struct {
	Store     *graph.Store
	Documents []*Document
}

// Load resolves patterns, parses every file and merges them into one store.
// Prefix bindings from earlier files win over later redefinitions.
func (l *Loader) Load(ctx context.Context, patterns []string) (*Result, error) {
	paths, err := ResolveFiles(patterns)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSources, strings.Join(patterns, ", "))
	}

	res := &Result{Store: graph.NewStore()}
	bound := make(map[string]bool)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read source %s: %w", path, err)
		}
		doc, err := l.registry.Parse(path, content)
		if err != nil {
			return nil, fmt.Errorf("parse source %s: %w", path, err)
		}

		added := res.Store.AddAll(doc.Triples)
		prefixes := make([]string, 0, len(doc.Prefixes))
		for p := range doc.Prefixes {
			prefixes = append(prefixes, p)
		}
		slices.Sort(prefixes)
		for _, p := range prefixes {
			if bound[p] {
				continue
			}
			bound[p] = true
			res.Store.BindPrefix(p, doc.Prefixes[p])
		}
		res.Documents = append(res.Documents, doc)

		l.logger.Debug("Loaded source",
			"path", path,
			"format", doc.Format,
			"triples", len(doc.Triples),
			"new", added)
	}

	l.logger.Info("Sources loaded",
		"files", len(paths),
		"triples", res.Store.Len())
	return res, nil
}

// ResolveFiles expands glob patterns (including **) to regular files.
// Plain paths are returned as-is when they exist. Results are
// de-duplicated and keep pattern order; matches of one pattern are sorted.
func ResolveFiles(patterns []string) ([]string, error) {
	var resolved []string
	seen := make(map[string]bool)

	for _, pattern := range patterns {
		matches, err := resolvePattern(pattern)
		if err != nil {
			return nil, fmt.Errorf("resolve pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				resolved = append(resolved, m)
			}
		}
	}
	return resolved, nil
}

func resolvePattern(pattern string) ([]string, error) {
	if !containsGlob(pattern) {
		info, err := os.Stat(pattern)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			return nil, fmt.Errorf("path is a directory: %s", pattern)
		}
		return []string{filepath.Clean(pattern)}, nil
	}

	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob error: %w", err)
	}

	var files []string
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, m)
	}
	slices.Sort(files)
	return files, nil
}

func containsGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// WatchRoots returns the directories to watch for the given patterns: the
// static prefix of every glob, or the parent directory of a plain path.
func WatchRoots(patterns []string) []string {
	var roots []string
	seen := make(map[string]bool)
	for _, pattern := range patterns {
		root := filepath.Dir(pattern)
		if containsGlob(pattern) {
			base, _ := doublestar.SplitPattern(filepath.ToSlash(pattern))
			root = filepath.FromSlash(base)
		}
		root = filepath.Clean(root)
		if !seen[root] {
			seen[root] = true
			roots = append(roots, root)
		}
	}
	return roots
}
