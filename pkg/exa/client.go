// Package exa is a client for the Exa Websets API, the asynchronous entity
// discovery backend: create a webset, poll its status, page through items.
package exa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

// Default base URL for the Exa Websets API.
const defaultBaseURL = "https://api.exa.ai/websets/v0"

// Client defines the Websets API operations used by the discovery coordinator.
type Client interface {
	CreateWebset(ctx context.Context, req CreateWebsetRequest) (*Webset, error)
	GetWebset(ctx context.Context, id string) (*Webset, error)
	ListItems(ctx context.Context, id string, cursor string, limit int) (*ListItemsResponse, error)
}

// Criterion is one natural-language match condition evaluated per item.
type Criterion struct {
	Description string `json:"description"`
}

// SearchSpec describes the discovery search inside a webset.
type SearchSpec struct {
	Query    string      `json:"query"`
	Count    int         `json:"count,omitempty"`
	Criteria []Criterion `json:"criteria,omitempty"`
}

// CreateWebsetRequest is the body for POST /websets.
type CreateWebsetRequest struct {
	Search SearchSpec `json:"search"`
}

// SearchProgress reports remote progress counters for a webset search.
type SearchProgress struct {
	Found      int     `json:"found"`
	Analyzed   int     `json:"analyzed"`
	Completion float64 `json:"completion"`
}

// WebsetSearch is the search sub-object on a webset.
type WebsetSearch struct {
	ID       string         `json:"id"`
	Status   string         `json:"status"`
	Progress SearchProgress `json:"progress"`
}

// Webset is the response shape of POST /websets and GET /websets/{id}.
// Status is one of idle, pending, running, paused, completed, failed.
type Webset struct {
	ID        string         `json:"id"`
	Status    string         `json:"status"`
	Searches  []WebsetSearch `json:"searches,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// ItemPerson is the typed person sub-object of an item's properties.
type ItemPerson struct {
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
	Position string `json:"position,omitempty"`
	Company  string `json:"company,omitempty"`
}

// ItemProperties carries the entity fields of a discovered item.
type ItemProperties struct {
	Type        string      `json:"type"`
	URL         string      `json:"url,omitempty"`
	Name        string      `json:"name,omitempty"`
	Description string      `json:"description,omitempty"`
	Person      *ItemPerson `json:"person,omitempty"`
}

// Evaluation is the API's verdict for one criterion on one item.
// Satisfied is "yes", "no", or "unclear".
type Evaluation struct {
	Criterion string `json:"criterion"`
	Satisfied string `json:"satisfied"`
	Reasoning string `json:"reasoning,omitempty"`
}

// ItemSource is a supporting excerpt behind an item.
type ItemSource struct {
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Excerpt string `json:"excerpt,omitempty"`
}

// Item is one entity surfaced by a webset.
type Item struct {
	ID          string         `json:"id"`
	Properties  ItemProperties `json:"properties"`
	Evaluations []Evaluation   `json:"evaluations,omitempty"`
	Sources     []ItemSource   `json:"sources,omitempty"`
}

// ListItemsResponse is the response from GET /websets/{id}/items.
type ListItemsResponse struct {
	Data       []Item `json:"data"`
	HasMore    bool   `json:"hasMore"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// APIError is returned when the API responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("exa: HTTP %d: %s", e.StatusCode, e.Body)
}

// HTTPStatus exposes the status code for error classification.
func (e *APIError) HTTPStatus() int {
	return e.StatusCode
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a new Websets client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) CreateWebset(ctx context.Context, req CreateWebsetRequest) (*Webset, error) {
	var resp Webset
	if err := c.post(ctx, "/websets", req, &resp); err != nil {
		return nil, eris.Wrap(err, "exa: create webset")
	}
	return &resp, nil
}

func (c *httpClient) GetWebset(ctx context.Context, id string) (*Webset, error) {
	var resp Webset
	if err := c.get(ctx, "/websets/"+id, &resp); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("exa: get webset %s", id))
	}
	return &resp, nil
}

func (c *httpClient) ListItems(ctx context.Context, id string, cursor string, limit int) (*ListItemsResponse, error) {
	path := fmt.Sprintf("/websets/%s/items", id)
	q := url.Values{}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp ListItemsResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("exa: list items %s", id))
	}
	return &resp, nil
}

func (c *httpClient) post(ctx context.Context, path string, body any, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return eris.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	return c.do(req, out)
}

func (c *httpClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("x-api-key", c.apiKey)

	return c.do(req, out)
}

func (c *httpClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "execute request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return eris.Wrap(err, "decode response")
	}

	return nil
}
