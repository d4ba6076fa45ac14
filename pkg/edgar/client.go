// Package edgar queries SEC EDGAR full-text search for insider filings.
// The SEC requires a descriptive User-Agent on every request.
package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://efts.sec.gov/LATEST"

// InsiderForms are the ownership forms that indicate insider status.
var InsiderForms = []string{"3", "4", "5"}

// Client searches EDGAR filings.
type Client interface {
	SearchFilings(ctx context.Context, personName string, forms []string) (*SearchResponse, error)
}

// Filing is one full-text search hit.
type Filing struct {
	AccessionNo  string   `json:"accession_no"`
	FormType     string   `json:"form_type"`
	FileDate     string   `json:"file_date"`
	DisplayNames []string `json:"display_names"`
	CIKs         []string `json:"ciks"`
}

// SearchResponse is the parsed result of a full-text search.
type SearchResponse struct {
	Total   int      `json:"total"`
	Filings []Filing `json:"filings"`
}

// APIError is returned when EDGAR responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("edgar: HTTP %d: %s", e.StatusCode, e.Body)
}

// HTTPStatus exposes the status code for error classification.
func (e *APIError) HTTPStatus() int {
	return e.StatusCode
}

// raw wire shapes of efts.sec.gov/LATEST/search-index.
type ftsResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string `json:"_id"`
			Source struct {
				Adsh         string   `json:"adsh"`
				RootForms    []string `json:"root_forms"`
				FileDate     string   `json:"file_date"`
				DisplayNames []string `json:"display_names"`
				CIKs         []string `json:"ciks"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Option configures the client.
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
	userAgent string
	baseURL   string
	http      *http.Client
}

// NewClient creates an EDGAR full-text search client. userAgent must
// identify the caller per SEC fair-access policy.
func NewClient(userAgent string, opts ...Option) Client {
	c := &httpClient{
		userAgent: userAgent,
		baseURL:   defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) SearchFilings(ctx context.Context, personName string, forms []string) (*SearchResponse, error) {
	if strings.TrimSpace(personName) == "" {
		return nil, eris.New("edgar: empty person name")
	}

	q := url.Values{}
	q.Set("q", fmt.Sprintf("%q", personName))
	if len(forms) > 0 {
		q.Set("forms", strings.Join(forms, ","))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search-index?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "edgar: create request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "edgar: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "edgar: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var fts ftsResponse
	if err := json.Unmarshal(body, &fts); err != nil {
		return nil, eris.Wrap(err, "edgar: decode response")
	}

	out := &SearchResponse{Total: fts.Hits.Total.Value}
	for _, h := range fts.Hits.Hits {
		form := ""
		if len(h.Source.RootForms) > 0 {
			form = h.Source.RootForms[0]
		}
		out.Filings = append(out.Filings, Filing{
			AccessionNo:  h.Source.Adsh,
			FormType:     form,
			FileDate:     h.Source.FileDate,
			DisplayNames: h.Source.DisplayNames,
			CIKs:         h.Source.CIKs,
		})
	}
	return out, nil
}
