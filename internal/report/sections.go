package report

import (
	"fmt"
	"strings"

	"github.com/justice-rest/Intel-sub010/internal/capacity"
	"github.com/justice-rest/Intel-sub010/internal/claims"
)

// Section is one rendered block of the report with its own source list and
// confidence rating.
type Section struct {
	Key        string        `json:"key"`
	Title      string        `json:"title"`
	Body       string        `json:"body"`
	Sources    []string      `json:"sources,omitempty"`
	Confidence claims.Rating `json:"confidence"`
}

// Builder narrates one section from resident data. Builders never do I/O.
type Builder func(c *Cache, tracker *claims.Tracker) Section

const notFound = "Not found in public records searched for this report."

// findingSection renders a collected topic, degrading to explicit not-found
// language when the lookup produced nothing.
func findingSection(key, title string) Builder {
	return func(c *Cache, tracker *claims.Tracker) Section {
		f := c.Finding(key)
		sec := Section{
			Key:        key,
			Title:      title,
			Sources:    f.Citations,
			Confidence: tracker.Section(key).Overall,
		}
		switch {
		case f.Answer != "":
			sec.Body = f.Answer
		case f.Unavailable != "":
			sec.Body = fmt.Sprintf("%s (lookup unavailable: %s)", notFound, f.Unavailable)
		default:
			sec.Body = notFound
		}
		return sec
	}
}

func headerSection(c *Cache, tracker *claims.Tracker) Section {
	var b strings.Builder
	fmt.Fprintf(&b, "# Prospect Research Report: %s\n", c.Subject.Name)
	if c.Subject.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", c.Subject.Location)
	}
	fmt.Fprintf(&b, "Run: %s\n", c.RunID)
	fmt.Fprintf(&b, "Generated: %s\n", c.GeneratedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "Data quality: %s\n", tracker.DataQuality())
	return Section{Key: "header", Title: "Header", Body: b.String(), Confidence: claims.RatingHigh}
}

func executiveSummary(c *Cache, tracker *claims.Tracker) Section {
	var b strings.Builder

	res := c.Capacity
	if res.Insufficient {
		b.WriteString("Insufficient data to estimate giving capacity. ")
		b.WriteString("See missing inputs under Giving Capacity.\n")
	} else {
		fmt.Fprintf(&b, "Estimated giving capacity: %s (rating %s, %s), from the %s formula.\n",
			capacity.FormatUSD(res.Recommended), res.Rating, res.Range, res.RecommendedFormula)
	}

	collected := 0
	for _, f := range c.Findings {
		if f.Answer != "" {
			collected++
		}
	}
	fmt.Fprintf(&b, "Research coverage: %d of %d topics returned public-record findings.\n", collected, len(topics))
	if c.Filings != nil && c.Filings.Total > 0 {
		fmt.Fprintf(&b, "SEC insider filings on record: %d.\n", c.Filings.Total)
	}
	fmt.Fprintf(&b, "Overall data quality: %s.\n", tracker.DataQuality())

	return Section{Key: "executive_summary", Title: "Executive Summary", Body: b.String(),
		Confidence: tracker.Section(SectionCapacity).Overall}
}

// professionalSection extends the collected finding with filing evidence.
func professionalSection(c *Cache, tracker *claims.Tracker) Section {
	sec := findingSection(SectionProfessional, "Professional Background")(c, tracker)
	if c.Filings == nil || c.Filings.Total == 0 {
		return sec
	}

	var b strings.Builder
	b.WriteString(sec.Body)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "SEC insider filings (%d total):\n", c.Filings.Total)
	limit := len(c.Filings.Filings)
	if limit > 10 {
		limit = 10
	}
	for _, f := range c.Filings.Filings[:limit] {
		fmt.Fprintf(&b, "- Form %s filed %s (%s)\n", f.FormType, f.FileDate, strings.Join(f.DisplayNames, "; "))
	}
	sec.Body = b.String()
	sec.Sources = append(sec.Sources, "SEC EDGAR full-text search")
	return sec
}

func capacitySection(c *Cache, tracker *claims.Tracker) Section {
	var b strings.Builder
	res := c.Capacity

	if res.Insufficient {
		b.WriteString("No capacity estimate could be produced.\n")
		for _, m := range res.MissingInputs {
			fmt.Fprintf(&b, "- Missing: %s\n", m)
		}
		return Section{Key: SectionCapacity, Title: "Giving Capacity", Body: b.String(), Confidence: claims.RatingLow}
	}

	fmt.Fprintf(&b, "Recommended estimate: %s (rating %s, %s), %s formula.\n\n",
		capacity.FormatUSD(res.Recommended), res.Rating, res.Range, res.RecommendedFormula)

	for _, bd := range []*capacity.Breakdown{res.Basic, res.Enhanced, res.Thorough} {
		if bd == nil {
			continue
		}
		fmt.Fprintf(&b, "### %s formula: %s\n", bd.Formula, capacity.FormatUSD(bd.Total))
		for _, comp := range bd.Components {
			fmt.Fprintf(&b, "- %s: %s (%s)\n", comp.Name, capacity.FormatUSD(comp.Value), comp.Derivation)
		}
		b.WriteString("\n")
	}

	if len(res.Modifiers) > 0 {
		b.WriteString("Applied adjustments:\n")
		for _, m := range res.Modifiers {
			fmt.Fprintf(&b, "- %s (%+.0f%%): %s\n", m.Name, m.Percent*100, m.Justification)
		}
		b.WriteString("\n")
	}

	if res.UsedSalaryProxy {
		b.WriteString("Salary was estimated from real-estate value, not provided.\n")
	}
	if len(res.MissingInputs) > 0 {
		b.WriteString("Inputs that would improve this estimate:\n")
		for _, m := range res.MissingInputs {
			fmt.Fprintf(&b, "- %s\n", m)
		}
	}

	return Section{
		Key:        SectionCapacity,
		Title:      "Giving Capacity",
		Body:       b.String(),
		Confidence: tracker.Section(SectionCapacity).Overall,
	}
}

func methodologySection(c *Cache, tracker *claims.Tracker) Section {
	return Section{
		Key:        "sources_methodology",
		Title:      "Sources & Methodology",
		Body:       tracker.MethodologySection(),
		Confidence: claims.RatingHigh,
	}
}
