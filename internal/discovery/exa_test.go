package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/justice-rest/Intel-sub010/pkg/exa"
)

func TestMapStatus(t *testing.T) {
	cases := []struct {
		name string
		ws   exa.Webset
		want Status
	}{
		{"pending maps to queued", exa.Webset{Status: "pending"}, StatusQueued},
		{"running", exa.Webset{Status: "running"}, StatusRunning},
		{"paused passes through", exa.Webset{Status: "paused"}, StatusPaused},
		{"failed", exa.Webset{Status: "failed"}, StatusFailed},
		{"idle with no searches stays idle", exa.Webset{Status: "idle"}, StatusIdle},
		{
			"idle with incomplete search stays idle",
			exa.Webset{Status: "idle", Searches: []exa.WebsetSearch{{Status: "running"}}},
			StatusIdle,
		},
		{
			"idle with all searches completed is done",
			exa.Webset{Status: "idle", Searches: []exa.WebsetSearch{
				{Status: "completed"}, {Status: "completed"},
			}},
			StatusCompleted,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, mapStatus(&tc.ws))
		})
	}
}

func TestMapItem_PersonFieldPriority(t *testing.T) {
	item := exa.Item{
		ID: "item_1",
		Properties: exa.ItemProperties{
			Type:        "person",
			Name:        "jane calloway — profile page",
			Description: "",
			URL:         "https://example.com/jane",
			Person: &exa.ItemPerson{
				Name:     "Jane Calloway",
				Position: "Founder",
				Company:  "Calloway Logistics",
			},
		},
		Sources: []exa.ItemSource{
			{URL: "https://news.example.com/a", Title: "Gift announcement"},
		},
	}

	c := mapItem(item)
	assert.Equal(t, "Jane Calloway", c.Name, "typed person name wins over generic name")
	assert.Equal(t, "Founder, Calloway Logistics", c.Description)
	assert.Equal(t, "https://example.com/jane", c.URL)
	assert.Len(t, c.Sources, 1)
}

func TestMapItem_GenericFallback(t *testing.T) {
	c := mapItem(exa.Item{
		ID: "item_2",
		Properties: exa.ItemProperties{
			Name:        "J. Calloway Family Foundation",
			Description: "Private foundation",
		},
	})
	assert.Equal(t, "J. Calloway Family Foundation", c.Name)
	assert.Equal(t, "Private foundation", c.Description)
}

func TestEvaluate(t *testing.T) {
	yes := exa.Evaluation{Satisfied: "yes"}
	no := exa.Evaluation{Satisfied: "no"}
	unclear := exa.Evaluation{Satisfied: "unclear"}

	cases := []struct {
		name  string
		evals []exa.Evaluation
		want  MatchStatus
	}{
		{"no evaluations", nil, MatchGenerated},
		{"all passed", []exa.Evaluation{yes, yes}, MatchMatched},
		{"any failed", []exa.Evaluation{yes, no, yes}, MatchDiscarded},
		{"unclear stays generated", []exa.Evaluation{yes, unclear}, MatchGenerated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, evaluate(tc.evals))
		})
	}
}
