package identifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/grbba/skosdoc/graph"
)

// ErrExhausted is returned when no unique identifier could be minted for a
// concept within the attempt budget.
var ErrExhausted = errors.New("identifier attempts exhausted")

const defaultMaxAttempts = 16

// Map is the run-scoped concept to identifier mapping. It is read-only once
// Assign returns, so renderers may share it across goroutines.
type Map struct {
	byKey map[string]string
	order []string
}

func newMap() *Map {
	return &Map{byKey: make(map[string]string)}
}

func (m *Map) set(key, id string) {
	if _, ok := m.byKey[key]; !ok {
		m.order = append(m.order, key)
	}
	m.byKey[key] = id
}

// Get returns the identifier of a concept.
func (m *Map) Get(concept graph.Term) (string, bool) {
	id, ok := m.byKey[concept.Value]
	return id, ok
}

// Lookup returns the identifier of a concept, or "" when it has none.
func (m *Map) Lookup(concept graph.Term) string {
	return m.byKey[concept.Value]
}

// Len returns the number of assigned identifiers.
func (m *Map) Len() int { return len(m.byKey) }

// Entries returns a copy of the mapping keyed by concept IRI.
func (m *Map) Entries() map[string]string {
	return maps.Clone(m.byKey)
}

// Store persists identifiers across runs.
type Store interface {
	Load(ctx context.Context) (map[string]string, error)
	Save(ctx context.Context, entries map[string]string) error
}

// Assigner mints a unique identifier for every concept of a run.
type Assigner struct {
	strategy    Strategy
	store       Store
	maxAttempts int
	logger      *slog.Logger
	onCollision func()
}

// Option configures an Assigner.
type Option func(*Assigner)

// WithStore keeps identifiers in store so they survive between runs.
func WithStore(s Store) Option {
	return func(a *Assigner) {
		a.store = s
	}
}

// WithMaxAttempts bounds how many candidates are tried per concept.
func WithMaxAttempts(n int) Option {
	return func(a *Assigner) {
		if n > 0 {
			a.maxAttempts = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assigner) {
		a.logger = logger
	}
}

// WithCollisionHook is called once per rejected duplicate candidate.
func WithCollisionHook(fn func()) Option {
	return func(a *Assigner) {
		a.onCollision = fn
	}
}

// NewAssigner creates an Assigner using strategy.
func NewAssigner(strategy Strategy, opts ...Option) *Assigner {
	a := &Assigner{
		strategy:    strategy,
		maxAttempts: defaultMaxAttempts,
		logger:      slog.Default(),
		onCollision: func() {},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assign returns an identifier for every concept. All identifiers are
// minted before Assign returns, and no two concepts share one. Concepts
// already present in the store keep their stored identifier.
func (a *Assigner) Assign(ctx context.Context, concepts []graph.Term) (*Map, error) {
	m := newMap()
	used := make(map[string]string)

	if a.store != nil {
		stored, err := a.store.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load identifiers: %w", err)
		}
		for _, key := range slices.Sorted(maps.Keys(stored)) {
			used[stored[key]] = key
		}
		for _, c := range concepts {
			if id, ok := stored[c.Value]; ok {
				m.set(c.Value, id)
			}
		}
	}

	fresh := make(map[string]string)
	for _, c := range concepts {
		if _, ok := m.byKey[c.Value]; ok {
			continue
		}
		id, err := a.mint(c.Value, used)
		if err != nil {
			return nil, err
		}
		used[id] = c.Value
		fresh[c.Value] = id
		m.set(c.Value, id)
	}

	if a.store != nil && len(fresh) > 0 {
		if err := a.store.Save(ctx, fresh); err != nil {
			return nil, fmt.Errorf("save identifiers: %w", err)
		}
	}

	a.logger.Debug("Identifiers assigned",
		"concepts", len(concepts),
		"minted", len(fresh))
	return m, nil
}

func (a *Assigner) mint(key string, used map[string]string) (string, error) {
	for attempt := 0; attempt < a.maxAttempts; attempt++ {
		id, err := a.strategy.Mint(key, attempt)
		if err != nil {
			return "", err
		}
		owner, taken := used[id]
		if !taken || owner == key {
			return id, nil
		}
		a.onCollision()
		a.logger.Warn("Identifier collision", "concept", key, "id", id, "owner", owner, "attempt", attempt)
	}
	return "", fmt.Errorf("%w: %s after %d attempts", ErrExhausted, key, a.maxAttempts)
}
