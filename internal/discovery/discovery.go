// Package discovery drives long-running asynchronous entity-discovery jobs:
// submit, poll to a terminal state, then collect paginated results as
// canonical candidates.
package discovery

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/justice-rest/Intel-sub010/internal/resilience"
)

// Status is a discovery job state. The coordinator never guesses state;
// every transition comes from a polled provider status.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	// StatusPaused and StatusIdle are provider quirks passed through while
	// polling continues.
	StatusPaused Status = "paused"
	StatusIdle   Status = "idle"
)

// Terminal reports whether polling should stop at this status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// MatchCondition is one name + natural-language description pair the
// provider evaluates per candidate.
type MatchCondition struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Request describes one discovery run.
type Request struct {
	Objective  string           `json:"objective"`
	Conditions []MatchCondition `json:"conditions"`
	Limit      int              `json:"limit"`
}

// Job is the canonical view of one remote discovery job.
type Job struct {
	ID        string    `json:"id"`
	Objective string    `json:"objective"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Generated int       `json:"generated"`
	Matched   int       `json:"matched"`
}

// MatchStatus classifies a candidate against the request's conditions.
// Computed once at materialization time from provider evaluations.
type MatchStatus string

const (
	MatchGenerated MatchStatus = "generated"
	MatchMatched   MatchStatus = "matched"
	MatchUnmatched MatchStatus = "unmatched"
	MatchDiscarded MatchStatus = "discarded"
)

// Excerpt is a supporting source snippet behind a candidate.
type Excerpt struct {
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Excerpt string `json:"excerpt,omitempty"`
}

// Candidate is one entity surfaced by a discovery job, immutable once
// materialized from a provider item.
type Candidate struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	URL         string      `json:"url,omitempty"`
	Match       MatchStatus `json:"match"`
	Sources     []Excerpt   `json:"sources,omitempty"`
}

// Page is one page of materialized candidates.
type Page struct {
	Candidates []Candidate
	HasMore    bool
	NextCursor string
}

// Runner adapts one provider's discovery protocol. Implementations own all
// provider-specific shapes and field-priority mapping; nothing past a
// Runner sees a provider payload.
type Runner interface {
	// Provider returns the breaker key for this runner.
	Provider() string
	// Configured reports whether the provider credential is present.
	Configured() bool
	// Submit creates the remote job.
	Submit(ctx context.Context, req Request) (Job, error)
	// Poll reads the remote job status.
	Poll(ctx context.Context, jobID string) (Job, error)
	// Page fetches one page of results. An empty cursor means the first page.
	Page(ctx context.Context, jobID, cursor string) (Page, error)
}

// EventType identifies a progress event.
type EventType string

const (
	// EventStatus is emitted on every poll with the current job state.
	EventStatus EventType = "status"
	// EventCandidateMatched is emitted once per matched candidate after
	// final results are fetched.
	EventCandidateMatched EventType = "candidate_matched"
)

// Event is a best-effort progress notification. The authoritative result
// set is always the returned candidate slice, never accumulated events.
type Event struct {
	Type      EventType
	Job       Job
	Candidate *Candidate
}

// ProgressFunc receives best-effort progress events.
type ProgressFunc func(Event)

// Options tune the coordinator's polling behavior.
type Options struct {
	// PollInterval between status reads. Default: 3s.
	PollInterval time.Duration
	// MaxWait is the wall-clock budget for the whole run. Exceeding it
	// yields a retryable TIMEOUT carrying the job id; the remote job may
	// still be running. Default: 600s.
	MaxWait time.Duration
}

// DefaultOptions returns the recommended polling configuration.
func DefaultOptions() Options {
	return Options{
		PollInterval: 3 * time.Second,
		MaxWait:      600 * time.Second,
	}
}

// Coordinator runs discovery jobs against one Runner, sharing the injected
// breaker registry with every other caller of the same provider.
type Coordinator struct {
	runner   Runner
	breakers *resilience.Registry
	opts     Options
}

// NewCoordinator creates a coordinator.
func NewCoordinator(runner Runner, breakers *resilience.Registry, opts Options) *Coordinator {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 3 * time.Second
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = 600 * time.Second
	}
	return &Coordinator{runner: runner, breakers: breakers, opts: opts}
}

// Run submits the request, polls to a terminal state, and collects all
// result pages. Cancellation is cooperative: the caller's context stops
// polling, no server-side cancel is attempted. onEvent may be nil.
func (c *Coordinator) Run(ctx context.Context, req Request, onEvent ProgressFunc) (Job, []Candidate, error) {
	if strings.TrimSpace(req.Objective) == "" {
		return Job{}, nil, eris.New("discovery: empty objective")
	}

	provider := c.runner.Provider()
	if !c.runner.Configured() {
		return Job{}, nil, resilience.NewError(resilience.CodeNotConfigured, provider, nil)
	}

	job, err := c.submit(ctx, req)
	if err != nil {
		return Job{}, nil, err
	}

	zap.L().Info("discovery job submitted",
		zap.String("provider", provider),
		zap.String("job_id", job.ID),
		zap.String("objective", req.Objective),
	)

	job, err = c.pollUntilTerminal(ctx, job, onEvent)
	if err != nil {
		return job, nil, err
	}

	if job.Status == StatusFailed {
		return job, nil, resilience.NewJobError(resilience.CodeRunFailed, provider, job.ID, nil)
	}

	candidates, err := c.collect(ctx, job.ID)
	if err != nil {
		return job, nil, err
	}

	job.Generated = len(candidates)
	job.Matched = 0
	for i := range candidates {
		if candidates[i].Match == MatchMatched {
			job.Matched++
			if onEvent != nil {
				onEvent(Event{Type: EventCandidateMatched, Job: job, Candidate: &candidates[i]})
			}
		}
	}

	zap.L().Info("discovery job completed",
		zap.String("provider", provider),
		zap.String("job_id", job.ID),
		zap.Int("generated", job.Generated),
		zap.Int("matched", job.Matched),
	)

	return job, candidates, nil
}

func (c *Coordinator) submit(ctx context.Context, req Request) (Job, error) {
	provider := c.runner.Provider()
	breaker := c.breakers.Get(provider)

	if err := breaker.Allow(); err != nil {
		return Job{}, err
	}

	job, rawErr := c.runner.Submit(ctx, req)
	if rawErr != nil {
		classified := resilience.Classify(provider, rawErr)
		breaker.Record(classified)
		return Job{}, classified
	}
	breaker.Record(nil)
	return job, nil
}

func (c *Coordinator) pollUntilTerminal(ctx context.Context, job Job, onEvent ProgressFunc) (Job, error) {
	provider := c.runner.Provider()
	breaker := c.breakers.Get(provider)
	deadline := time.NewTimer(c.opts.MaxWait)
	defer deadline.Stop()

	for {
		if err := breaker.Allow(); err != nil {
			return job, err
		}
		polled, rawErr := c.runner.Poll(ctx, job.ID)
		if rawErr != nil {
			classified := resilience.Classify(provider, rawErr)
			breaker.Record(classified)
			return job, resilience.NewJobError(classified.Code, provider, job.ID, rawErr)
		}
		breaker.Record(nil)
		job = polled

		if onEvent != nil {
			onEvent(Event{Type: EventStatus, Job: job})
		}
		if job.Status.Terminal() {
			return job, nil
		}

		select {
		case <-ctx.Done():
			return job, resilience.NewJobError(resilience.CodeTimeout, provider, job.ID, ctx.Err())
		case <-deadline.C:
			// The remote job may still be running; reconciling or
			// abandoning it is the caller's responsibility.
			return job, resilience.NewJobError(resilience.CodeTimeout, provider, job.ID,
				eris.Errorf("job still %s after %s", job.Status, c.opts.MaxWait))
		case <-time.After(c.opts.PollInterval):
		}
	}
}

// collect pages through results until the provider reports no more pages.
func (c *Coordinator) collect(ctx context.Context, jobID string) ([]Candidate, error) {
	provider := c.runner.Provider()
	breaker := c.breakers.Get(provider)

	var all []Candidate
	cursor := ""
	for {
		if err := breaker.Allow(); err != nil {
			return nil, err
		}
		page, rawErr := c.runner.Page(ctx, jobID, cursor)
		if rawErr != nil {
			classified := resilience.Classify(provider, rawErr)
			breaker.Record(classified)
			return nil, resilience.NewJobError(classified.Code, provider, jobID, rawErr)
		}
		breaker.Record(nil)

		all = append(all, page.Candidates...)
		if !page.HasMore {
			return all, nil
		}
		cursor = page.NextCursor
	}
}
