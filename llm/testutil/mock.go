// Package testutil provides a scripted completion client for tests of code
// that talks to a model.
package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/grbba/skosdoc/llm"
)

// MockCompleter replays configured responses in order and records every
// request it receives. Safe for concurrent use.
//
//	mock := &testutil.MockCompleter{
//	    Responses: []*llm.Response{{Content: "A sugary taste."}},
//	}
type MockCompleter struct {
	mu       sync.Mutex
	requests []llm.Request

	// Responses are returned in sequence; the last one repeats.
	Responses []*llm.Response
	// Err takes precedence over Responses.
	Err error
	// ErrOn fails only the calls whose prompt contains one of these keys.
	ErrOn map[string]error
}

// Complete records req and returns the next scripted response.
func (m *MockCompleter) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	for key, err := range m.ErrOn {
		if len(req.Messages) > 0 && strings.Contains(req.Messages[len(req.Messages)-1].Content, key) {
			return nil, err
		}
	}

	switch n := len(m.Responses); {
	case n == 0:
		return &llm.Response{Model: "test-model"}, nil
	case len(m.requests) <= n:
		return m.Responses[len(m.requests)-1], nil
	default:
		return m.Responses[n-1], nil
	}
}

// Calls returns how many requests were made.
func (m *MockCompleter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// LastRequest returns the most recent request, or a zero Request.
func (m *MockCompleter) LastRequest() llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return llm.Request{}
	}
	return m.requests[len(m.requests)-1]
}

// Reset forgets recorded requests.
func (m *MockCompleter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
}
