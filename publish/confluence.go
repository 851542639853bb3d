package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/grbba/skosdoc/llm"
)

const defaultHTTPTimeout = 60 * time.Second

// Confluence publishes through the Confluence REST content API with basic
// authentication.
type Confluence struct {
	baseURL    string
	space      string
	user       string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// ConfluenceOption configures a Confluence client.
type ConfluenceOption func(*Confluence)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ConfluenceOption {
	return func(c *Confluence) {
		c.httpClient = client
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ConfluenceOption {
	return func(c *Confluence) {
		c.logger = logger
	}
}

// NewConfluence creates a client for the space at baseURL
// (e.g. https://example.atlassian.net/wiki).
func NewConfluence(baseURL, space, user, token string, opts ...ConfluenceOption) *Confluence {
	c := &Confluence{
		baseURL:    strings.TrimRight(baseURL, "/"),
		space:      space,
		user:       user,
		token:      token,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type spaceKey struct {
	Key string `json:"key"`
}

type ancestor struct {
	ID string `json:"id"`
}

type version struct {
	Number int `json:"number"`
}

type storage struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

type pageBody struct {
	Storage storage `json:"storage"`
}

// pagePayload is the JSON body of create and update requests.
type pagePayload struct {
	ID        string     `json:"id,omitempty"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Space     *spaceKey  `json:"space,omitempty"`
	Ancestors []ancestor `json:"ancestors,omitempty"`
	Version   *version   `json:"version,omitempty"`
	Body      pageBody   `json:"body"`
}

type contentResponse struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Version version `json:"version"`
	Links   struct {
		Base  string `json:"base"`
		WebUI string `json:"webui"`
	} `json:"_links"`
}

type searchResponse struct {
	Results []contentResponse `json:"results"`
}

func newPayload(page Page) pagePayload {
	return pagePayload{
		Type:  "page",
		Title: page.Title,
		Body:  pageBody{Storage: storage{Value: page.Body, Representation: "storage"}},
	}
}

// Find implements Publisher.
func (c *Confluence) Find(ctx context.Context, title string) (*PageRef, error) {
	q := url.Values{}
	q.Set("spaceKey", c.space)
	q.Set("title", title)
	q.Set("expand", "version,ancestors")

	var res searchResponse
	if err := c.do(ctx, http.MethodGet, "/rest/api/content?"+q.Encode(), nil, &res); err != nil {
		return nil, err
	}
	if len(res.Results) == 0 {
		return nil, ErrPageNotFound
	}
	return c.ref(res.Results[0]), nil
}

// Create implements Publisher.
func (c *Confluence) Create(ctx context.Context, page Page, parentID string) (*PageRef, error) {
	payload := newPayload(page)
	payload.Space = &spaceKey{Key: c.space}
	if parentID != "" {
		payload.Ancestors = []ancestor{{ID: parentID}}
	}

	var res contentResponse
	if err := c.do(ctx, http.MethodPost, "/rest/api/content", payload, &res); err != nil {
		return nil, err
	}
	c.logger.Info("Created page", "title", page.Title, "id", res.ID)
	return c.ref(res), nil
}

// Update implements Publisher.
func (c *Confluence) Update(ctx context.Context, ref *PageRef, page Page) (*PageRef, error) {
	payload := newPayload(page)
	payload.ID = ref.ID
	payload.Version = &version{Number: ref.Version + 1}

	var res contentResponse
	if err := c.do(ctx, http.MethodPut, "/rest/api/content/"+url.PathEscape(ref.ID), payload, &res); err != nil {
		return nil, err
	}
	c.logger.Info("Updated page", "title", page.Title, "id", res.ID, "version", res.Version.Number)
	return c.ref(res), nil
}

func (c *Confluence) ref(res contentResponse) *PageRef {
	base := res.Links.Base
	if base == "" {
		base = c.baseURL
	}
	ref := &PageRef{ID: res.ID, Title: res.Title, Version: res.Version.Number}
	if res.Links.WebUI != "" {
		ref.URL = base + res.Links.WebUI
	}
	return ref
}

func (c *Confluence) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.user, c.token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return llm.NewTransientError(fmt.Errorf("confluence request: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.NewTransientError(fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return llm.ClassifyHTTPError("confluence", resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return llm.NewFatalError(fmt.Errorf("parse confluence response: %w", err))
	}
	return nil
}

// Placeholders used in the example payload when no target is configured.
const (
	PlaceholderSpace  = "SPACE"
	PlaceholderParent = "123456"
)

// ExamplePayload returns the indented JSON of a create request for page,
// usable with curl. Empty space or parentID are replaced by placeholders.
func ExamplePayload(page Page, space, parentID string) ([]byte, error) {
	if space == "" {
		space = PlaceholderSpace
	}
	if parentID == "" {
		parentID = PlaceholderParent
	}
	payload := newPayload(page)
	payload.Space = &spaceKey{Key: space}
	payload.Ancestors = []ancestor{{ID: parentID}}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal example payload: %w", err)
	}
	return data, nil
}
