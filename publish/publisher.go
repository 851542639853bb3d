// Package publish pushes rendered pages to a wiki.
package publish

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// ErrPageNotFound is returned by Find when no page has the title.
var ErrPageNotFound = errors.New("page not found")

// PageRef identifies a published page.
type PageRef struct {
	ID      string
	Title   string
	Version int
	URL     string
}

// Page is a page to publish. Body is in Confluence storage format.
type Page struct {
	Title string
	Body  string
}

// Publisher creates and updates pages.
type Publisher interface {
	// Find looks a page up by title. It returns ErrPageNotFound when absent.
	Find(ctx context.Context, title string) (*PageRef, error)

	// Create adds a page below parentID. An empty parentID creates a
	// top-level page.
	Create(ctx context.Context, page Page, parentID string) (*PageRef, error)

	// Update replaces the body of an existing page and bumps its version.
	Update(ctx context.Context, ref *PageRef, page Page) (*PageRef, error)
}

// Action says what happened to a page.
type Action string

// Publish actions.
const (
	ActionCreated   Action = "created"
	ActionUpdated   Action = "updated"
	ActionUnchanged Action = "unchanged"
	ActionDryRun    Action = "dry-run"
	ActionFailed    Action = "failed"
)

// CreateOrUpdate publishes page below parentID. With updateIfExists an
// existing page of the same title is updated in place; otherwise a create
// is always attempted.
func CreateOrUpdate(ctx context.Context, p Publisher, page Page, parentID string, updateIfExists bool) (*PageRef, Action, error) {
	if updateIfExists {
		existing, err := p.Find(ctx, page.Title)
		switch {
		case err == nil:
			ref, err := p.Update(ctx, existing, page)
			if err != nil {
				return nil, ActionFailed, fmt.Errorf("update page %q: %w", page.Title, err)
			}
			return ref, ActionUpdated, nil
		case !errors.Is(err, ErrPageNotFound):
			return nil, ActionFailed, fmt.Errorf("find page %q: %w", page.Title, err)
		}
	}

	ref, err := p.Create(ctx, page, parentID)
	if err != nil {
		return nil, ActionFailed, fmt.Errorf("create page %q: %w", page.Title, err)
	}
	return ref, ActionCreated, nil
}

var parentPath = regexp.MustCompile(`/spaces/([^/]+)/pages/(\d+)`)

// ParseParentURL extracts the space key and page ID from a Confluence page
// URL such as https://wiki.example.com/wiki/spaces/DOC/pages/12345/Title.
func ParseParentURL(raw string) (space, pageID string, err error) {
	m := parentPath.FindStringSubmatch(raw)
	if m == nil {
		return "", "", fmt.Errorf("parse parent url %q: expected /spaces/<KEY>/pages/<ID>", raw)
	}
	return m[1], m[2], nil
}
