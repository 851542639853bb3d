package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Plan is a publishing run: an entry page under a parent and optional
// child pages under the entry page.
type Plan struct {
	ParentID string
	Entry    Page
	Children []Page
}

// Result reports the outcome of one page.
type Result struct {
	Title  string
	Action Action
	Ref    *PageRef
	Err    error
}

// Runner executes plans against a Publisher.
type Runner struct {
	publisher      Publisher
	ledger         *Ledger
	dryRun         bool
	updateIfExists bool
	logger         *slog.Logger
	onResult       func(Result)
	now            func() time.Time
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLedger skips pages whose body is unchanged since the last run and
// records every published page.
func WithLedger(l *Ledger) RunnerOption {
	return func(r *Runner) { r.ledger = l }
}

// WithDryRun logs the planned actions without any network call.
func WithDryRun(on bool) RunnerOption {
	return func(r *Runner) { r.dryRun = on }
}

// WithUpdateIfExists updates pages that already exist instead of creating.
func WithUpdateIfExists(on bool) RunnerOption {
	return func(r *Runner) { r.updateIfExists = on }
}

// WithRunnerLogger sets the logger.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

// WithResultHook is called for every page result.
func WithResultHook(fn func(Result)) RunnerOption {
	return func(r *Runner) {
		if fn != nil {
			r.onResult = fn
		}
	}
}

// NewRunner creates a runner. p may be nil for dry runs.
func NewRunner(p Publisher, opts ...RunnerOption) *Runner {
	r := &Runner{
		publisher: p,
		logger:    slog.Default(),
		onResult:  func(Result) {},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run publishes the entry page, then every child under it. A failed entry
// page stops the run; failed children are collected and returned together.
func (r *Runner) Run(ctx context.Context, plan Plan) ([]Result, error) {
	if !r.dryRun && r.publisher == nil {
		return nil, errors.New("publish: no publisher configured")
	}

	entry := r.publish(ctx, plan.Entry, plan.ParentID)
	results := []Result{entry}
	if entry.Err != nil {
		return results, entry.Err
	}

	parentID := ""
	if entry.Ref != nil {
		parentID = entry.Ref.ID
	}
	var errs []error
	for _, child := range plan.Children {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		res := r.publish(ctx, child, parentID)
		results = append(results, res)
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
	}
	return results, errors.Join(errs...)
}

func (r *Runner) publish(ctx context.Context, page Page, parentID string) (res Result) {
	res.Title = page.Title
	defer func() { r.onResult(res) }()

	if r.dryRun {
		verb := "create"
		if r.updateIfExists {
			verb = "create or update"
		}
		r.logger.Info("Dry run: would "+verb+" page", "title", page.Title, "parent", parentID, "bytes", len(page.Body))
		res.Action = ActionDryRun
		return res
	}

	hash := BodyHash(page.Body)
	if r.ledger != nil {
		rec, err := r.ledger.Lookup(ctx, page.Title)
		switch {
		case err == nil && rec.Hash == hash && rec.PageID != "":
			r.logger.Info("Page unchanged", "title", page.Title, "id", rec.PageID)
			res.Action = ActionUnchanged
			res.Ref = &PageRef{ID: rec.PageID, Title: rec.Title, Version: rec.Version}
			return res
		case err != nil && !errors.Is(err, ErrPageNotFound):
			r.logger.Warn("Ledger lookup failed", "title", page.Title, "error", err)
		}
	}

	ref, action, err := CreateOrUpdate(ctx, r.publisher, page, parentID, r.updateIfExists)
	res.Action, res.Ref = action, ref
	if err != nil {
		r.logger.Error("Publish failed", "title", page.Title, "error", err)
		res.Err = err
		return res
	}

	if r.ledger != nil {
		rec := PageRecord{Title: page.Title, PageID: ref.ID, Version: ref.Version, Hash: hash, PublishedAt: r.now().UTC()}
		if err := r.ledger.Record(ctx, rec); err != nil {
			r.logger.Warn("Ledger record failed", "title", page.Title, "error", err)
		}
	}
	return res
}

// Summary counts results per action.
func Summary(results []Result) map[Action]int {
	out := make(map[Action]int)
	for _, r := range results {
		out[r.Action]++
	}
	return out
}

// String renders a result for logs and CLI output.
func (r Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", r.Title, r.Action, r.Err)
	}
	if r.Ref != nil && r.Ref.URL != "" {
		return fmt.Sprintf("%s: %s %s", r.Title, r.Action, r.Ref.URL)
	}
	return fmt.Sprintf("%s: %s", r.Title, r.Action)
}
