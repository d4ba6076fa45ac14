package report

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/justice-rest/Intel-sub010/internal/capacity"
	"github.com/justice-rest/Intel-sub010/internal/claims"
	"github.com/justice-rest/Intel-sub010/internal/provider"
	"github.com/justice-rest/Intel-sub010/internal/resilience"
	"github.com/justice-rest/Intel-sub010/pkg/edgar"
)

const (
	searchTimeout  = 45 * time.Second
	filingsTimeout = 20 * time.Second

	// collectConcurrency bounds the fan-out; each provider still has its
	// own rate limiter underneath.
	collectConcurrency = 4
)

// topicQuery builds the research question for one topic.
type topicQuery struct {
	topic  string
	prompt string
	build  func(Subject) string
}

func subjectRef(s Subject) string {
	ref := s.Name
	if s.Location != "" {
		ref += " of " + s.Location
	}
	if s.Context != "" {
		ref += " (" + s.Context + ")"
	}
	return ref
}

var topics = []topicQuery{
	{
		topic:  SectionPersonal,
		prompt: "Answer from public records and published sources only. Cite every fact.",
		build: func(s Subject) string {
			return fmt.Sprintf("Biographical background of %s: age, education, family, residence history.", subjectRef(s))
		},
	},
	{
		topic:  SectionProfessional,
		prompt: "Answer from public records and published sources only. Cite every fact.",
		build: func(s Subject) string {
			return fmt.Sprintf("Career history and business interests of %s: employers, executive roles, board seats, company ownership.", subjectRef(s))
		},
	},
	{
		topic:  SectionRealEstate,
		prompt: "Prefer county assessor and deed records. Cite every fact.",
		build: func(s Subject) string {
			return fmt.Sprintf("Real estate owned by %s: properties, assessed values, purchase history.", subjectRef(s))
		},
	},
	{
		topic:  SectionPhilanthropy,
		prompt: "Prefer IRS 990 filings, foundation directories, and donor recognition lists. Cite every fact.",
		build: func(s Subject) string {
			return fmt.Sprintf("Charitable giving history of %s: named gifts, foundation involvement, nonprofit board service.", subjectRef(s))
		},
	},
}

// Collector fans research lookups out through the resilient call client and
// registers every collected fact with the claim ledger. Ledger writes are
// serialized; provider calls are not.
type Collector struct {
	client *provider.Client
	capCfg capacity.Config
}

func NewCollector(client *provider.Client) *Collector {
	return &Collector{client: client, capCfg: capacity.DefaultConfig()}
}

// WithCapacityConfig overrides the default formula constants.
func (c *Collector) WithCapacityConfig(cfg capacity.Config) *Collector {
	c.capCfg = cfg
	return c
}

// Collect gathers all topics plus SEC insider filings, runs the capacity
// engine, and returns the filled cache. Individual lookup failures degrade
// to not-found findings rather than failing the run; Collect itself only
// fails on invalid input or context cancellation.
func (c *Collector) Collect(ctx context.Context, req Request, tracker *claims.Tracker) (*Cache, error) {
	if req.Subject.Name == "" {
		return nil, resilience.NewError(resilience.CodeUnknown, "", fmt.Errorf("subject name is required"))
	}

	cache := NewCache(req.Subject)
	cache.Inputs = req.Capacity

	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(collectConcurrency)

	for _, tq := range topics {
		g.Go(func() error {
			finding := c.search(gctx, req.Subject, tq)
			mu.Lock()
			cache.Findings[tq.topic] = finding
			mu.Unlock()
			registerFinding(tracker, finding)
			return nil
		})
	}

	g.Go(func() error {
		filings, err := c.insiderFilings(gctx, req.Subject.Name)
		if err != nil {
			zap.L().Warn("report: insider filing lookup unavailable",
				zap.String("subject", req.Subject.Name),
				zap.String("code", string(resilience.CodeOf(err))),
				zap.Error(err),
			)
			return nil
		}
		mu.Lock()
		cache.Filings = filings
		mu.Unlock()
		registerFilings(tracker, filings)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, resilience.NewError(resilience.CodeTimeout, "", err)
	}

	// Insider filings upgrade the capacity inputs before calculation.
	if cache.Filings != nil && cache.Filings.Total > 0 {
		cache.Inputs.HasSECFilings = true
	}

	calcType := req.CapacityType
	if calcType == "" {
		calcType = capacity.TypeAll
	}
	cache.Capacity = capacity.Calculate(c.capCfg, cache.Inputs, calcType)
	registerCapacity(tracker, cache, req.CapacitySources)

	return cache, nil
}

// search runs one topic lookup, degrading to an unavailable finding on any
// failure.
func (c *Collector) search(ctx context.Context, subject Subject, tq topicQuery) Finding {
	params, err := json.Marshal(SearchParams{Query: tq.build(subject), SystemPrompt: tq.prompt})
	if err != nil {
		return Finding{Topic: tq.topic, Unavailable: err.Error()}
	}

	raw, err := c.client.Call(ctx, ProviderPerplexity, "search", params, searchTimeout)
	if err != nil {
		zap.L().Warn("report: topic lookup unavailable",
			zap.String("topic", tq.topic),
			zap.String("code", string(resilience.CodeOf(err))),
			zap.Error(err),
		)
		return Finding{Topic: tq.topic, Unavailable: string(resilience.CodeOf(err))}
	}

	var reply SearchReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return Finding{Topic: tq.topic, Unavailable: "malformed provider response"}
	}
	return Finding{Topic: tq.topic, Answer: reply.Answer, Citations: reply.Citations}
}

func (c *Collector) insiderFilings(ctx context.Context, personName string) (*edgar.SearchResponse, error) {
	params, err := json.Marshal(FilingsParams{PersonName: personName})
	if err != nil {
		return nil, err
	}
	raw, err := c.client.Call(ctx, ProviderEdgar, "insider_filings", params, filingsTimeout)
	if err != nil {
		return nil, err
	}
	var res edgar.SearchResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// registerFinding records one research answer with its citation sources.
// Findings that came back empty or unavailable still leave an explicit
// not-found claim so the ledger covers every section.
func registerFinding(tracker *claims.Tracker, f Finding) {
	if f.Answer == "" {
		tracker.AddUnverified(f.Topic, "research_summary", notFound,
			[]claims.SourceRef{claims.NewSourceRef("web search", "", claims.KindWebSearch, claims.DataWebSearch)})
		return
	}
	sources := make([]claims.SourceRef, 0, len(f.Citations))
	for _, url := range f.Citations {
		sources = append(sources, claims.NewSourceRef(url, url, claims.KindFromName(url), claims.DataWebSearch))
	}
	if len(sources) == 0 {
		sources = append(sources, claims.NewSourceRef("web search", "", claims.KindWebSearch, claims.DataWebSearch))
	}
	tracker.AddUnverified(f.Topic, "research_summary", f.Answer, sources)
}

func registerFilings(tracker *claims.Tracker, filings *edgar.SearchResponse) {
	if filings == nil || filings.Total == 0 {
		return
	}
	src := claims.NewSourceRef("SEC EDGAR full-text search",
		"https://efts.sec.gov/LATEST/search-index", claims.KindSECFiling, claims.DataOfficialRecord)
	tracker.AddVerified(SectionProfessional, "sec_insider_filings", filings.Total, src)
}

// registerCapacity records the estimate and, when the salary proxy fired,
// its derivation. Caller-supplied input provenance attaches to the inputs
// claim when present.
func registerCapacity(tracker *claims.Tracker, cache *Cache, inputSources []claims.SourceRef) {
	res := cache.Capacity
	if res.Insufficient {
		return
	}

	if len(inputSources) > 0 {
		tracker.AddUnverified(SectionCapacity, "capacity_inputs", cache.Inputs, inputSources)
	}

	calc := claims.NewSourceRef("capacity formula", "", claims.KindCalculation, claims.DataEstimate)
	methodology := fmt.Sprintf("%s formula over real-estate, giving, and business signals", res.RecommendedFormula)
	// AddEstimated only rejects a blank methodology, which is constant here.
	_ = tracker.AddEstimated(SectionCapacity, "estimated_capacity",
		capacity.FormatUSD(res.Recommended), methodology, calc)

	if res.UsedSalaryProxy {
		_ = tracker.AddEstimated(SectionCapacity, "salary_proxy",
			"derived from real-estate value", "estimated from real-estate value at the configured proxy rate", calc)
	}
}
