package report

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/justice-rest/Intel-sub010/internal/capacity"
	"github.com/justice-rest/Intel-sub010/internal/claims"
)

// Summary is the machine-readable companion to the rendered sections, so
// downstream renderers never re-parse prose.
type Summary struct {
	RecommendedCapacity float64            `json:"recommended_capacity"`
	Rating              capacity.Rating    `json:"rating"`
	Range               string             `json:"range"`
	Formula             string             `json:"formula"`
	DataQuality         claims.DataQuality `json:"data_quality"`
	Insufficient        bool               `json:"insufficient"`
}

// Report is the synthesized output: ordered sections plus the summary.
type Report struct {
	RunID       string    `json:"run_id"`
	Subject     Subject   `json:"subject"`
	GeneratedAt time.Time `json:"generated_at"`
	Sections    []Section `json:"sections"`
	Summary     Summary   `json:"summary"`
}

// Render joins the sections into one markdown document.
func (r *Report) Render() string {
	var b strings.Builder
	for i, s := range r.Sections {
		if i > 0 {
			b.WriteString("\n")
		}
		// The header section carries its own top-level heading.
		if s.Key != "header" {
			b.WriteString("## " + s.Title + "\n\n")
		}
		b.WriteString(strings.TrimRight(s.Body, "\n"))
		b.WriteString("\n")
		if len(s.Sources) > 0 {
			b.WriteString("\nSources: " + strings.Join(s.Sources, ", ") + "\n")
		}
	}
	return b.String()
}

// Synthesizer narrates a filled cache in a fixed section order.
type Synthesizer struct {
	builders []Builder
}

// NewSynthesizer returns a synthesizer with the standard section order.
func NewSynthesizer() *Synthesizer {
	return &Synthesizer{
		builders: []Builder{
			headerSection,
			executiveSummary,
			findingSection(SectionPersonal, "Personal Background"),
			professionalSection,
			findingSection(SectionRealEstate, "Real Estate Holdings"),
			findingSection(SectionPhilanthropy, "Philanthropic History"),
			capacitySection,
			methodologySection,
		},
	}
}

// Synthesize builds the report. It refuses to narrate when nothing at all
// was collected and no capacity estimate exists, rather than fabricating an
// empty-but-plausible document.
func (s *Synthesizer) Synthesize(cache *Cache, tracker *claims.Tracker) (*Report, error) {
	if cache == nil {
		return nil, eris.New("report: nil cache")
	}

	anyFinding := false
	for _, f := range cache.Findings {
		if f.Answer != "" {
			anyFinding = true
			break
		}
	}
	noFilings := cache.Filings == nil || cache.Filings.Total == 0
	if !anyFinding && noFilings && cache.Capacity.Insufficient {
		return nil, eris.Errorf("report: insufficient data for %s, no findings and no capacity inputs", cache.Subject.Name)
	}

	rep := &Report{
		RunID:       cache.RunID,
		Subject:     cache.Subject,
		GeneratedAt: cache.GeneratedAt,
		Summary: Summary{
			RecommendedCapacity: cache.Capacity.Recommended,
			Rating:              cache.Capacity.Rating,
			Range:               cache.Capacity.Range,
			Formula:             cache.Capacity.RecommendedFormula,
			DataQuality:         tracker.DataQuality(),
			Insufficient:        cache.Capacity.Insufficient,
		},
	}
	for _, build := range s.builders {
		rep.Sections = append(rep.Sections, build(cache, tracker))
	}
	return rep, nil
}
