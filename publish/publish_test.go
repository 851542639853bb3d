package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grbba/skosdoc/llm"
)

func TestParseParentURL(t *testing.T) {
	tests := []struct {
		url     string
		space   string
		id      string
		wantErr bool
	}{
		{"https://wiki.example.com/wiki/spaces/DOC/pages/12345/Taxonomy", "DOC", "12345", false},
		{"https://x.atlassian.net/wiki/spaces/~jdoe/pages/987", "~jdoe", "987", false},
		{"https://wiki.example.com/display/DOC/Taxonomy", "", "", true},
		{"", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			space, id, err := ParseParentURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.space, space)
			assert.Equal(t, tt.id, id)
		})
	}
}

func TestExamplePayload(t *testing.T) {
	data, err := ExamplePayload(Page{Title: "Vocabulary", Body: "<p>x</p>"}, "", "")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "page", got["type"])
	assert.Equal(t, "Vocabulary", got["title"])
	assert.Equal(t, map[string]any{"key": "SPACE"}, got["space"])
	assert.Equal(t, []any{map[string]any{"id": "123456"}}, got["ancestors"])
	assert.Equal(t, map[string]any{"storage": map[string]any{"value": "<p>x</p>", "representation": "storage"}}, got["body"])
	assert.NotContains(t, got, "version")

	data, err = ExamplePayload(Page{Title: "Vocabulary"}, "DOC", "42")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"key": "DOC"`)
	assert.Contains(t, string(data), `"id": "42"`)
}

// fakeConfluence is an in-memory Confluence content API.
type fakeConfluence struct {
	mu       sync.Mutex
	pages    map[string]*contentResponse
	requests []string
	bodies   []map[string]any
	nextID   int
	status   int
}

func newFakeConfluence() *fakeConfluence {
	return &fakeConfluence{pages: make(map[string]*contentResponse), nextID: 100}
}

func (f *fakeConfluence) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	user, pass, ok := r.BasicAuth()
	if !ok || user != "bot" || pass != "secret" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, "unavailable")
		return
	}

	var body map[string]any
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	if body != nil {
		f.bodies = append(f.bodies, body)
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/rest/api/content":
		var res searchResponse
		if p, ok := f.pages[r.URL.Query().Get("title")]; ok && r.URL.Query().Get("spaceKey") == "DOC" {
			res.Results = append(res.Results, *p)
		}
		_ = json.NewEncoder(w).Encode(res)
	case r.Method == http.MethodPost && r.URL.Path == "/rest/api/content":
		title := body["title"].(string)
		p := &contentResponse{ID: fmt.Sprint(f.nextID), Title: title, Version: version{Number: 1}}
		p.Links.WebUI = "/spaces/DOC/pages/" + p.ID
		f.nextID++
		f.pages[title] = p
		_ = json.NewEncoder(w).Encode(p)
	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/rest/api/content/"):
		title := body["title"].(string)
		p := f.pages[title]
		p.Version.Number = int(body["version"].(map[string]any)["number"].(float64))
		_ = json.NewEncoder(w).Encode(p)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newClient(t *testing.T, f *fakeConfluence) *Confluence {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return NewConfluence(srv.URL+"/", "DOC", "bot", "secret", WithHTTPClient(srv.Client()))
}

func TestConfluence_CreateFindUpdate(t *testing.T) {
	f := newFakeConfluence()
	c := newClient(t, f)
	ctx := context.Background()

	_, err := c.Find(ctx, "Vocabulary")
	assert.ErrorIs(t, err, ErrPageNotFound)

	ref, err := c.Create(ctx, Page{Title: "Vocabulary", Body: "<p>v1</p>"}, "42")
	require.NoError(t, err)
	assert.Equal(t, "100", ref.ID)
	assert.Equal(t, 1, ref.Version)
	assert.True(t, strings.HasSuffix(ref.URL, "/spaces/DOC/pages/100"))

	created := f.bodies[0]
	assert.Equal(t, "page", created["type"])
	assert.Equal(t, map[string]any{"key": "DOC"}, created["space"])
	assert.Equal(t, []any{map[string]any{"id": "42"}}, created["ancestors"])

	found, err := c.Find(ctx, "Vocabulary")
	require.NoError(t, err)
	assert.Equal(t, "100", found.ID)

	updated, err := c.Update(ctx, found, Page{Title: "Vocabulary", Body: "<p>v2</p>"})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)

	put := f.bodies[1]
	assert.Equal(t, "100", put["id"])
	assert.Equal(t, map[string]any{"number": float64(2)}, put["version"])
	assert.NotContains(t, put, "space")
	assert.NotContains(t, put, "ancestors")
}

func TestConfluence_ErrorClassification(t *testing.T) {
	f := newFakeConfluence()
	c := newClient(t, f)

	f.status = http.StatusServiceUnavailable
	_, err := c.Find(context.Background(), "x")
	assert.True(t, llm.IsTransient(err))

	f.status = 0
	bad := NewConfluence(c.baseURL, "DOC", "bot", "wrong", WithHTTPClient(c.httpClient))
	_, err = bad.Create(context.Background(), Page{Title: "x"}, "")
	assert.True(t, llm.IsFatal(err))
	assert.Contains(t, err.Error(), "status 401")
}

func TestCreateOrUpdate(t *testing.T) {
	f := newFakeConfluence()
	c := newClient(t, f)
	ctx := context.Background()
	page := Page{Title: "Vocabulary", Body: "<p/>"}

	ref, action, err := CreateOrUpdate(ctx, c, page, "42", true)
	require.NoError(t, err)
	assert.Equal(t, ActionCreated, action)

	ref2, action, err := CreateOrUpdate(ctx, c, page, "42", true)
	require.NoError(t, err)
	assert.Equal(t, ActionUpdated, action)
	assert.Equal(t, ref.ID, ref2.ID)
	assert.Equal(t, 2, ref2.Version)

	f.requests = nil
	_, action, err = CreateOrUpdate(ctx, c, Page{Title: "Other"}, "42", false)
	require.NoError(t, err)
	assert.Equal(t, ActionCreated, action)
	assert.Equal(t, []string{"POST /rest/api/content"}, f.requests, "no lookup without update-if-exists")
}

// recorder is a Publisher that records calls and fails selected titles.
type recorder struct {
	calls []string
	fail  map[string]bool
	next  int
}

func (r *recorder) Find(context.Context, string) (*PageRef, error) {
	return nil, ErrPageNotFound
}

func (r *recorder) Create(_ context.Context, page Page, parentID string) (*PageRef, error) {
	r.calls = append(r.calls, page.Title+"<"+parentID)
	if r.fail[page.Title] {
		return nil, errors.New("boom")
	}
	r.next++
	return &PageRef{ID: fmt.Sprint(r.next), Title: page.Title, Version: 1}, nil
}

func (r *recorder) Update(_ context.Context, ref *PageRef, page Page) (*PageRef, error) {
	r.calls = append(r.calls, "update "+page.Title)
	return &PageRef{ID: ref.ID, Title: page.Title, Version: ref.Version + 1}, nil
}

func TestRunner_ChildrenUnderEntry(t *testing.T) {
	rec := &recorder{fail: map[string]bool{"b": true, "c": true}}
	var seen []Action
	r := NewRunner(rec, WithResultHook(func(res Result) { seen = append(seen, res.Action) }))

	results, err := r.Run(context.Background(), Plan{
		ParentID: "42",
		Entry:    Page{Title: "entry"},
		Children: []Page{{Title: "a"}, {Title: "b"}, {Title: "c"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `create page "b"`)
	assert.Contains(t, err.Error(), `create page "c"`)
	assert.Equal(t, []string{"entry<42", "a<1", "b<1", "c<1"}, rec.calls)
	assert.Len(t, results, 4)
	assert.Equal(t, []Action{ActionCreated, ActionCreated, ActionFailed, ActionFailed}, seen)
	assert.Equal(t, map[Action]int{ActionCreated: 2, ActionFailed: 2}, Summary(results))
}

func TestRunner_EntryFailureStops(t *testing.T) {
	rec := &recorder{fail: map[string]bool{"entry": true}}
	results, err := NewRunner(rec).Run(context.Background(), Plan{
		Entry:    Page{Title: "entry"},
		Children: []Page{{Title: "a"}},
	})
	require.Error(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, []string{"entry<"}, rec.calls)
}

func TestRunner_DryRunMakesNoCalls(t *testing.T) {
	f := newFakeConfluence()
	c := newClient(t, f)
	results, err := NewRunner(c, WithDryRun(true)).Run(context.Background(), Plan{
		Entry:    Page{Title: "entry"},
		Children: []Page{{Title: "a"}},
	})
	require.NoError(t, err)
	assert.Empty(t, f.requests)
	assert.Equal(t, map[Action]int{ActionDryRun: 2}, Summary(results))

	_, err = NewRunner(nil, WithDryRun(true)).Run(context.Background(), Plan{Entry: Page{Title: "entry"}})
	assert.NoError(t, err)

	_, err = NewRunner(nil).Run(context.Background(), Plan{Entry: Page{Title: "entry"}})
	assert.Error(t, err)
}

// memBucket is an in-memory pageBucket with revision checks.
type memBucket struct {
	values map[string][]byte
	revs   map[string]uint64
	seq    uint64
}

func newMemBucket() *memBucket {
	return &memBucket{values: make(map[string][]byte), revs: make(map[string]uint64)}
}

func (b *memBucket) Get(_ context.Context, key string) ([]byte, uint64, error) {
	v, ok := b.values[key]
	if !ok {
		return nil, 0, errKeyNotFound
	}
	return v, b.revs[key], nil
}

func (b *memBucket) Create(_ context.Context, key string, value []byte) (uint64, error) {
	if _, ok := b.values[key]; ok {
		return 0, errors.New("key exists")
	}
	b.seq++
	b.values[key], b.revs[key] = value, b.seq
	return b.seq, nil
}

func (b *memBucket) Update(_ context.Context, key string, value []byte, revision uint64) (uint64, error) {
	if b.revs[key] != revision {
		return 0, errors.New("wrong last sequence")
	}
	b.seq++
	b.values[key], b.revs[key] = value, b.seq
	return b.seq, nil
}

func TestLedger_RecordAndLookup(t *testing.T) {
	l := newLedger(newMemBucket(), nil)
	ctx := context.Background()

	_, err := l.Lookup(ctx, "Vocabulary / All")
	assert.ErrorIs(t, err, ErrPageNotFound)

	require.NoError(t, l.Record(ctx, PageRecord{Title: "Vocabulary / All", PageID: "7", Version: 1, Hash: "h1"}))
	require.NoError(t, l.Record(ctx, PageRecord{Title: "Vocabulary / All", PageID: "7", Version: 2, Hash: "h2"}))

	rec, err := l.Lookup(ctx, "Vocabulary / All")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Version)
	assert.Equal(t, "h2", rec.Hash)
}

func TestLedgerKey(t *testing.T) {
	key := ledgerKey("SKOS Concept Scheme: apmwg:Flavours")
	assert.True(t, strings.HasPrefix(key, "page."))
	assert.NotContains(t, key, " ")
	assert.NotContains(t, key, ":")
}

func TestRunner_LedgerSkipsUnchanged(t *testing.T) {
	l := newLedger(newMemBucket(), nil)
	rec := &recorder{}
	r := NewRunner(rec, WithLedger(l), WithUpdateIfExists(true))
	plan := Plan{Entry: Page{Title: "entry", Body: "<p>1</p>"}, Children: []Page{{Title: "a", Body: "<p>a</p>"}}}

	_, err := r.Run(context.Background(), plan)
	require.NoError(t, err)
	assert.Len(t, rec.calls, 2)

	plan.Children[0].Body = "<p>a2</p>"
	results, err := r.Run(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, ActionUnchanged, results[0].Action)
	assert.Equal(t, ActionCreated, results[1].Action)
	assert.Equal(t, "a<1", rec.calls[2], "children go under the recorded entry page")

	stored, err := l.Lookup(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, BodyHash("<p>a2</p>"), stored.Hash)
}
