package llm

import (
	"context"
	"maps"
	"net/http"
	"slices"
	"sync"
)

// Provider adapts a Request to one model server's wire format.
type Provider interface {
	Name() string

	// NewRequest builds the POST for req against ep. An empty ep.URL selects
	// the provider's default server.
	NewRequest(ctx context.Context, ep Endpoint, req Request) (*http.Request, error)

	// Decode returns the generated text of a successful response body.
	Decode(body []byte) (string, error)
}

var providers sync.Map

// Register makes p available to clients under p.Name().
func Register(p Provider) {
	providers.Store(p.Name(), p)
}

// Lookup returns the provider registered under name.
func Lookup(name string) (Provider, bool) {
	p, ok := providers.Load(name)
	if !ok {
		return nil, false
	}
	return p.(Provider), true
}

// Providers lists the registered provider names in order.
func Providers() []string {
	names := map[string]struct{}{}
	providers.Range(func(k, _ any) bool {
		names[k.(string)] = struct{}{}
		return true
	})
	return slices.Sorted(maps.Keys(names))
}
