package report

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/justice-rest/Intel-sub010/internal/provider"
	"github.com/justice-rest/Intel-sub010/pkg/edgar"
	"github.com/justice-rest/Intel-sub010/pkg/perplexity"
)

// Provider names as registered with the call client.
const (
	ProviderPerplexity = "perplexity"
	ProviderEdgar      = "edgar"
)

// SearchParams is the wire shape of a perplexity search invocation.
type SearchParams struct {
	Query        string `json:"query"`
	SystemPrompt string `json:"system_prompt,omitempty"`
}

// SearchReply mirrors perplexity.SearchResult across the invoke boundary.
type SearchReply struct {
	Answer    string   `json:"answer"`
	Citations []string `json:"citations"`
}

// PerplexityProvider adapts the perplexity client to the invoke contract so
// calls flow through the breaker, limiter, and retry layers.
type PerplexityProvider struct {
	client perplexity.Client
}

// NewPerplexityProvider wraps an existing client. A nil client means the
// credential was never configured.
func NewPerplexityProvider(client perplexity.Client) *PerplexityProvider {
	return &PerplexityProvider{client: client}
}

func (p *PerplexityProvider) Name() string { return ProviderPerplexity }

func (p *PerplexityProvider) Configured() bool { return p.client != nil }

func (p *PerplexityProvider) Invoke(ctx context.Context, operation string, params json.RawMessage) (json.RawMessage, error) {
	if operation != "search" {
		return nil, eris.Errorf("perplexity: unknown operation %q", operation)
	}
	var sp SearchParams
	if err := json.Unmarshal(params, &sp); err != nil {
		return nil, eris.Wrap(err, "perplexity: decode params")
	}
	res, err := p.client.Search(ctx, perplexity.SearchRequest{
		Query:        sp.Query,
		SystemPrompt: sp.SystemPrompt,
	})
	if err != nil {
		return nil, err
	}
	return json.Marshal(SearchReply{Answer: res.Answer, Citations: res.Citations})
}

// FilingsParams is the wire shape of an EDGAR insider-filings invocation.
type FilingsParams struct {
	PersonName string   `json:"person_name"`
	Forms      []string `json:"forms,omitempty"`
}

// EdgarProvider adapts the EDGAR full-text search client to the invoke
// contract.
type EdgarProvider struct {
	client edgar.Client
}

func NewEdgarProvider(client edgar.Client) *EdgarProvider {
	return &EdgarProvider{client: client}
}

func (p *EdgarProvider) Name() string { return ProviderEdgar }

func (p *EdgarProvider) Configured() bool { return p.client != nil }

func (p *EdgarProvider) Invoke(ctx context.Context, operation string, params json.RawMessage) (json.RawMessage, error) {
	if operation != "insider_filings" {
		return nil, eris.Errorf("edgar: unknown operation %q", operation)
	}
	var fp FilingsParams
	if err := json.Unmarshal(params, &fp); err != nil {
		return nil, eris.Wrap(err, "edgar: decode params")
	}
	forms := fp.Forms
	if len(forms) == 0 {
		forms = edgar.InsiderForms
	}
	res, err := p.client.SearchFilings(ctx, fp.PersonName, forms)
	if err != nil {
		return nil, err
	}
	return json.Marshal(res)
}

var (
	_ provider.Provider = (*PerplexityProvider)(nil)
	_ provider.Provider = (*EdgarProvider)(nil)
)
