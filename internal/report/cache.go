// Package report collects public-record research about one subject and
// narrates it into an ordered, source-attributed prospect report. Collection
// and narration are strictly separated: the collector does all provider I/O
// up front and parks results in a Cache, and section builders are pure
// functions over that cache. A builder can never reach the network.
package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/justice-rest/Intel-sub010/internal/capacity"
	"github.com/justice-rest/Intel-sub010/internal/claims"
	"github.com/justice-rest/Intel-sub010/pkg/edgar"
)

// Research topics, also used as ledger section names.
const (
	SectionPersonal     = "personal_background"
	SectionProfessional = "professional_background"
	SectionRealEstate   = "real_estate_holdings"
	SectionPhilanthropy = "philanthropic_history"
	SectionCapacity     = "giving_capacity"
)

// Subject identifies the person under research.
type Subject struct {
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
	// Context disambiguates common names, e.g. an employer or a role.
	Context string `json:"context,omitempty"`
}

// Request is everything a report build needs up front. CapacitySources
// optionally attaches provenance for the caller-supplied capacity inputs;
// without it those inputs are treated as unverified.
type Request struct {
	Subject         Subject
	Capacity        capacity.Inputs
	CapacityType    capacity.Type
	CapacitySources []claims.SourceRef
}

// Finding is one research topic's collected answer. Unavailable is set when
// the lookup failed or the provider was not configured; the section builder
// then degrades to explicit not-found language instead of omitting the
// section.
type Finding struct {
	Topic       string   `json:"topic"`
	Answer      string   `json:"answer,omitempty"`
	Citations   []string `json:"citations,omitempty"`
	Unavailable string   `json:"unavailable,omitempty"`
}

// Cache is the resident data a report is narrated from. Filled once by the
// collector, then read-only.
type Cache struct {
	RunID       string    `json:"run_id"`
	Subject     Subject   `json:"subject"`
	GeneratedAt time.Time `json:"generated_at"`

	Findings map[string]Finding    `json:"findings"`
	Filings  *edgar.SearchResponse `json:"filings,omitempty"`

	Inputs   capacity.Inputs `json:"inputs"`
	Capacity capacity.Result `json:"capacity"`
}

// NewCache allocates an empty cache for one report run.
func NewCache(subject Subject) *Cache {
	return &Cache{
		RunID:       uuid.NewString(),
		Subject:     subject,
		GeneratedAt: time.Now().UTC(),
		Findings:    make(map[string]Finding),
	}
}

// Finding returns the topic's finding, or a zero Finding when the topic was
// never collected.
func (c *Cache) Finding(topic string) Finding {
	if c.Findings == nil {
		return Finding{}
	}
	return c.Findings[topic]
}
