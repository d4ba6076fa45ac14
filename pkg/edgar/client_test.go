package edgar

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchFilings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search-index", r.URL.Path)
		assert.Equal(t, `"Jane Calloway"`, r.URL.Query().Get("q"))
		assert.Equal(t, "3,4,5", r.URL.Query().Get("forms"))
		assert.Contains(t, r.Header.Get("User-Agent"), "@")

		w.Write([]byte(`{
			"hits": {
				"total": {"value": 2},
				"hits": [
					{"_id": "0001-24-000001:doc.xml", "_source": {
						"adsh": "0001-24-000001",
						"root_forms": ["4"],
						"file_date": "2024-03-12",
						"display_names": ["CALLOWAY JANE (CIK 0001234567)"],
						"ciks": ["0001234567"]
					}},
					{"_id": "0001-23-000099:doc.xml", "_source": {
						"adsh": "0001-23-000099",
						"root_forms": ["3"],
						"file_date": "2023-01-05",
						"display_names": ["CALLOWAY JANE (CIK 0001234567)"],
						"ciks": ["0001234567"]
					}}
				]
			}
		}`))
	}))
	defer srv.Close()

	c := NewClient("intel research ops@example.org", WithBaseURL(srv.URL))
	resp, err := c.SearchFilings(context.Background(), "Jane Calloway", InsiderForms)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Total)
	require.Len(t, resp.Filings, 2)
	assert.Equal(t, "4", resp.Filings[0].FormType)
	assert.Equal(t, "0001-24-000001", resp.Filings[0].AccessionNo)
}

func TestSearchFilings_EmptyName(t *testing.T) {
	c := NewClient("intel research ops@example.org")
	_, err := c.SearchFilings(context.Background(), "  ", nil)
	require.Error(t, err)
}

func TestSearchFilings_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient("intel research ops@example.org", WithBaseURL(srv.URL))
	_, err := c.SearchFilings(context.Background(), "Jane Calloway", nil)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.HTTPStatus())
}
