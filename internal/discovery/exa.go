package discovery

import (
	"context"

	"github.com/justice-rest/Intel-sub010/pkg/exa"
)

// ProviderExa is the breaker key for the Exa Websets runner.
const ProviderExa = "exa"

const defaultPageSize = 100

// ExaRunner adapts the Exa Websets API to the Runner contract. All
// webset-specific field priority and status mapping lives here.
type ExaRunner struct {
	client     exa.Client
	configured bool
}

// NewExaRunner creates a runner. configured should reflect credential
// presence; an unconfigured runner never reaches the network.
func NewExaRunner(client exa.Client, configured bool) *ExaRunner {
	return &ExaRunner{client: client, configured: configured}
}

func (r *ExaRunner) Provider() string { return ProviderExa }

func (r *ExaRunner) Configured() bool { return r.configured }

func (r *ExaRunner) Submit(ctx context.Context, req Request) (Job, error) {
	criteria := make([]exa.Criterion, 0, len(req.Conditions))
	for _, cond := range req.Conditions {
		criteria = append(criteria, exa.Criterion{Description: cond.Description})
	}

	ws, err := r.client.CreateWebset(ctx, exa.CreateWebsetRequest{
		Search: exa.SearchSpec{
			Query:    req.Objective,
			Count:    req.Limit,
			Criteria: criteria,
		},
	})
	if err != nil {
		return Job{}, err
	}
	return r.toJob(ws, req.Objective), nil
}

func (r *ExaRunner) Poll(ctx context.Context, jobID string) (Job, error) {
	ws, err := r.client.GetWebset(ctx, jobID)
	if err != nil {
		return Job{}, err
	}
	return r.toJob(ws, ""), nil
}

func (r *ExaRunner) Page(ctx context.Context, jobID, cursor string) (Page, error) {
	resp, err := r.client.ListItems(ctx, jobID, cursor, defaultPageSize)
	if err != nil {
		return Page{}, err
	}

	page := Page{HasMore: resp.HasMore, NextCursor: resp.NextCursor}
	for _, item := range resp.Data {
		page.Candidates = append(page.Candidates, mapItem(item))
	}
	return page, nil
}

func (r *ExaRunner) toJob(ws *exa.Webset, objective string) Job {
	found := 0
	for _, s := range ws.Searches {
		found += s.Progress.Found
	}
	return Job{
		ID:        ws.ID,
		Objective: objective,
		Status:    mapStatus(ws),
		CreatedAt: ws.CreatedAt,
		UpdatedAt: ws.UpdatedAt,
		Generated: found,
	}
}

// mapStatus translates webset statuses into the canonical job states.
// A webset goes "idle" when its searches finish, so idle with every
// search completed means the job is done; idle before any search has
// completed passes through and polling continues.
func mapStatus(ws *exa.Webset) Status {
	switch ws.Status {
	case "pending":
		return StatusQueued
	case "running":
		return StatusRunning
	case "paused":
		return StatusPaused
	case "completed":
		return StatusCompleted
	case "failed":
		return StatusFailed
	case "idle":
		if len(ws.Searches) == 0 {
			return StatusIdle
		}
		for _, s := range ws.Searches {
			if s.Status != "completed" {
				return StatusIdle
			}
		}
		return StatusCompleted
	default:
		return StatusPending
	}
}

// mapItem materializes a candidate from a webset item. Field priority:
// the typed person sub-object wins over the generic name/description.
func mapItem(item exa.Item) Candidate {
	c := Candidate{
		ID:          item.ID,
		Name:        item.Properties.Name,
		Description: item.Properties.Description,
		URL:         item.Properties.URL,
		Match:       evaluate(item.Evaluations),
	}

	if p := item.Properties.Person; p != nil {
		if p.Name != "" {
			c.Name = p.Name
		}
		if c.Description == "" {
			switch {
			case p.Position != "" && p.Company != "":
				c.Description = p.Position + ", " + p.Company
			case p.Position != "":
				c.Description = p.Position
			case p.Company != "":
				c.Description = p.Company
			}
		}
	}

	for _, s := range item.Sources {
		c.Sources = append(c.Sources, Excerpt{URL: s.URL, Title: s.Title, Excerpt: s.Excerpt})
	}
	return c
}

// evaluate classifies a candidate from its evaluation list: every
// criterion satisfied means matched, any miss means discarded, anything
// else stays generated.
func evaluate(evals []exa.Evaluation) MatchStatus {
	if len(evals) == 0 {
		return MatchGenerated
	}
	allYes := true
	for _, e := range evals {
		switch e.Satisfied {
		case "no":
			return MatchDiscarded
		case "yes":
		default:
			allYes = false
		}
	}
	if allYes {
		return MatchMatched
	}
	return MatchGenerated
}
