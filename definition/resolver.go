package definition

import (
	"context"
	"log/slog"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/grbba/skosdoc/graph"
	"github.com/grbba/skosdoc/taxonomy"
)

// Outcome labels how a definition was obtained.
type Outcome string

// Resolution outcomes reported to the outcome hook.
const (
	OutcomeLiteral   Outcome = "literal"
	OutcomeGenerated Outcome = "generated"
	OutcomeEmpty     Outcome = "empty"
	OutcomeFailed    Outcome = "failed"
)

const defaultTimeout = 30 * time.Second

// Definition is the resolved text of one concept.
type Definition struct {
	// Texts holds one entry per definition literal, or the generated text.
	Texts []string

	// Generated is true when Texts came from the generator.
	Generated bool
}

// Empty reports whether there is no definition text.
func (d Definition) Empty() bool {
	return len(d.Texts) == 0
}

// Join escapes every text, turns its newlines into lineBreak and joins the
// texts with lineBreak. A nil escape leaves text unchanged.
func (d Definition) Join(lineBreak string, escape func(string) string) string {
	parts := make([]string, 0, len(d.Texts))
	for _, t := range d.Texts {
		if escape != nil {
			t = escape(t)
		}
		parts = append(parts, strings.ReplaceAll(t, "\n", lineBreak))
	}
	return strings.Join(parts, lineBreak)
}

// Resolver returns definitions for concepts of one taxonomy. Generated
// definitions are cached per concept so a concept rendered under several
// facets triggers one generation.
type Resolver struct {
	tax         *taxonomy.Context
	gen         Generator
	timeout     time.Duration
	concurrency int
	logger      *slog.Logger
	onOutcome   func(Outcome)

	mu        sync.Mutex
	generated map[string]string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithGenerator sets the fallback generator.
func WithGenerator(g Generator) Option {
	return func(r *Resolver) {
		if g != nil {
			r.gen = g
		}
	}
}

// WithTimeout bounds each generator call.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithConcurrency bounds parallel generator calls during Prefetch.
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithOutcomeHook receives the outcome of every literal lookup and every
// generator call. Cached generated definitions are not reported again.
func WithOutcomeHook(fn func(Outcome)) Option {
	return func(r *Resolver) {
		r.onOutcome = fn
	}
}

// NewResolver creates a resolver over tax. Without WithGenerator it uses Nop.
func NewResolver(tax *taxonomy.Context, opts ...Option) *Resolver {
	r := &Resolver{
		tax:         tax,
		gen:         Nop{},
		timeout:     defaultTimeout,
		concurrency: 4,
		logger:      slog.Default(),
		onOutcome:   func(Outcome) {},
		generated:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the definition literals of concept, or a generated
// definition when it has none. Generation failures are logged and yield an
// empty Definition.
func (r *Resolver) Resolve(ctx context.Context, concept graph.Term) Definition {
	lits := r.tax.Definitions(concept)
	if len(lits) > 0 {
		texts := make([]string, len(lits))
		for i, l := range lits {
			texts[i] = l.Value
		}
		r.onOutcome(OutcomeLiteral)
		return Definition{Texts: texts}
	}

	text := r.generate(ctx, concept)
	if text == "" {
		return Definition{}
	}
	return Definition{Texts: []string{text}, Generated: true}
}

func (r *Resolver) generate(ctx context.Context, concept graph.Term) string {
	key := concept.Value
	r.mu.Lock()
	text, ok := r.generated[key]
	r.mu.Unlock()
	if ok {
		return text
	}

	label := r.tax.Label(concept)
	facet := r.tax.FacetLabel(concept)

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	text, err := r.gen.Generate(callCtx, label, facet)
	text = strings.TrimSpace(text)
	switch {
	case err != nil:
		r.logger.Warn("Definition generation failed", "concept", label, "error", err)
		r.onOutcome(OutcomeFailed)
		text = ""
	case text == "":
		r.onOutcome(OutcomeEmpty)
	default:
		r.onOutcome(OutcomeGenerated)
	}

	r.mu.Lock()
	r.generated[key] = text
	r.mu.Unlock()
	return text
}

// Prefetch generates definitions for every concept without definition
// literals, at most WithConcurrency calls at a time. Rendering afterwards
// hits the cache only.
func (r *Resolver) Prefetch(ctx context.Context, concepts []graph.Term) {
	if _, nop := r.gen.(Nop); nop {
		return
	}
	p := pool.New().WithMaxGoroutines(r.concurrency)
	for _, c := range concepts {
		if len(r.tax.Definitions(c)) > 0 {
			continue
		}
		p.Go(func() {
			if ctx.Err() != nil {
				return
			}
			r.generate(ctx, c)
		})
	}
	p.Wait()
}

// Generated returns the non-empty generated definitions keyed by concept IRI.
func (r *Resolver) Generated() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := maps.Clone(r.generated)
	maps.DeleteFunc(out, func(_, v string) bool { return v == "" })
	return out
}
