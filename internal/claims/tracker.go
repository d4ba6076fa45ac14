package claims

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// Claim is one asserted fact: a (section, label, value) triple with its
// sources. Appended once to the ledger and never mutated.
type Claim struct {
	Section     string      `json:"section"`
	Label       string      `json:"label"`
	Value       any         `json:"value"`
	Sources     []SourceRef `json:"sources"`
	Verified    bool        `json:"verified"`
	Estimated   bool        `json:"estimated"`
	Methodology string      `json:"methodology,omitempty"`
	Confidence  Confidence  `json:"confidence"`
	AddedAt     time.Time   `json:"added_at"`
}

// Rating is a section- or report-level confidence band.
type Rating string

const (
	RatingHigh   Rating = "HIGH"
	RatingMedium Rating = "MEDIUM"
	RatingLow    Rating = "LOW"
)

// SectionConfidence is a read-only aggregate over one section's claims.
type SectionConfidence struct {
	Section       string `json:"section"`
	Claims        int    `json:"claims"`
	Verified      int    `json:"verified"`
	Estimated     int    `json:"estimated"`
	Unverified    int    `json:"unverified"`
	UniqueSources int    `json:"unique_sources"`
	Overall       Rating `json:"overall"`
}

// DataQuality classifies how well-sourced the whole ledger is.
type DataQuality string

const (
	QualityComplete DataQuality = "complete"
	QualityPartial  DataQuality = "partial"
	QualityLimited  DataQuality = "limited"
)

// Tracker is the single-owner append-only claim ledger for one report
// build. Writes are serialized internally, so section collectors may run
// concurrently against one tracker.
type Tracker struct {
	mu     sync.Mutex
	claims []Claim
}

// NewTracker creates an empty ledger.
func NewTracker() *Tracker {
	return &Tracker{}
}

// AddVerified records a fact confirmed by a single source; confidence
// derives from that source's rank.
func (t *Tracker) AddVerified(section, label string, value any, source SourceRef) {
	t.append(Claim{
		Section:    section,
		Label:      label,
		Value:      value,
		Sources:    []SourceRef{source},
		Verified:   true,
		Confidence: ConfidenceFromSources([]SourceRef{source}),
	})
}

// AddEstimated records a derived value. Confidence is forced to low no
// matter how strong the sources are: the derivation, not the source, is
// the weak link. A methodology description is mandatory.
func (t *Tracker) AddEstimated(section, label string, value any, methodology string, sources ...SourceRef) error {
	if strings.TrimSpace(methodology) == "" {
		return eris.New("claims: estimated claim requires a methodology")
	}
	t.append(Claim{
		Section:     section,
		Label:       label,
		Value:       value,
		Sources:     sources,
		Estimated:   true,
		Methodology: methodology,
		Confidence:  ConfidenceLow,
	})
	return nil
}

// AddUnverified records a fact reported by sources but not confirmed;
// confidence derives from the best source rank.
func (t *Tracker) AddUnverified(section, label string, value any, sources []SourceRef) {
	t.append(Claim{
		Section:    section,
		Label:      label,
		Value:      value,
		Sources:    sources,
		Confidence: ConfidenceFromSources(sources),
	})
}

func (t *Tracker) append(c Claim) {
	c.AddedAt = time.Now().UTC()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.claims = append(t.claims, c)
}

// Claims returns a copy of every claim in insertion order.
func (t *Tracker) Claims() []Claim {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Claim, len(t.claims))
	copy(out, t.claims)
	return out
}

// SectionClaims returns a copy of one section's claims.
func (t *Tracker) SectionClaims(section string) []Claim {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []Claim
	for _, c := range t.claims {
		if c.Section == section {
			out = append(out, c)
		}
	}
	return out
}

// Sections returns the distinct section names in first-seen order.
func (t *Tracker) Sections() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, c := range t.claims {
		if !seen[c.Section] {
			seen[c.Section] = true
			out = append(out, c.Section)
		}
	}
	return out
}

// Section computes the confidence aggregate for one section. A section
// with no claims rates LOW.
func (t *Tracker) Section(section string) SectionConfidence {
	cs := t.SectionClaims(section)

	sc := SectionConfidence{Section: section, Claims: len(cs), Overall: RatingLow}
	if len(cs) == 0 {
		return sc
	}

	uniq := make(map[string]bool)
	for _, c := range cs {
		switch {
		case c.Verified:
			sc.Verified++
		case c.Estimated:
			sc.Estimated++
		default:
			sc.Unverified++
		}
		for _, s := range c.Sources {
			uniq[s.Name] = true
		}
	}
	sc.UniqueSources = len(uniq)

	verifiedRatio := float64(sc.Verified) / float64(sc.Claims)
	estimatedRatio := float64(sc.Estimated) / float64(sc.Claims)
	switch {
	case verifiedRatio >= 0.7:
		sc.Overall = RatingHigh
	case verifiedRatio >= 0.3 || estimatedRatio <= 0.5:
		sc.Overall = RatingMedium
	default:
		sc.Overall = RatingLow
	}
	return sc
}

// distinctSources returns one reference per distinct source name, keeping
// the first seen.
func (t *Tracker) distinctSources() []SourceRef {
	t.mu.Lock()
	defer t.mu.Unlock()
	seen := make(map[string]bool)
	var out []SourceRef
	for _, c := range t.claims {
		for _, s := range c.Sources {
			if !seen[s.Name] {
				seen[s.Name] = true
				out = append(out, s)
			}
		}
	}
	return out
}

// DataQuality classifies the ledger: complete needs at least three
// distinct high-rank sources and a verified-claim ratio of 0.5; partial
// needs any high-rank source or any verified claim; everything else is
// limited.
func (t *Tracker) DataQuality() DataQuality {
	all := t.Claims()
	sources := t.distinctSources()

	highRank := 0
	for _, s := range sources {
		if s.Rank() >= 80 {
			highRank++
		}
	}

	verified := 0
	for _, c := range all {
		if c.Verified {
			verified++
		}
	}
	verifiedRatio := 0.0
	if len(all) > 0 {
		verifiedRatio = float64(verified) / float64(len(all))
	}

	switch {
	case highRank >= 3 && verifiedRatio >= 0.5:
		return QualityComplete
	case highRank >= 1 || verified >= 1:
		return QualityPartial
	default:
		return QualityLimited
	}
}

// MethodologySection renders the human-readable "Sources & Methodology"
// text: distinct sources grouped by reliability band, then per-section
// verified/total ratios with the resulting confidence. The text is part
// of the final report, not a separate artifact.
func (t *Tracker) MethodologySection() string {
	var b strings.Builder

	sources := t.distinctSources()
	byTier := map[Tier][]SourceRef{}
	for _, s := range sources {
		tier := TierOfRank(s.Rank())
		byTier[tier] = append(byTier[tier], s)
	}

	tierLabels := []struct {
		tier  Tier
		label string
	}{
		{TierHigh, "High-reliability sources (official records)"},
		{TierMedium, "Medium-reliability sources (structured databases)"},
		{TierLow, "Lower-reliability sources (web research, estimates)"},
	}

	b.WriteString("### Sources\n\n")
	if len(sources) == 0 {
		b.WriteString("No sources were consulted.\n")
	}
	for _, tl := range tierLabels {
		refs := byTier[tl.tier]
		if len(refs) == 0 {
			continue
		}
		sort.Slice(refs, func(i, j int) bool { return refs[i].Rank() > refs[j].Rank() })
		fmt.Fprintf(&b, "%s:\n", tl.label)
		for _, s := range refs {
			if s.URL != "" {
				fmt.Fprintf(&b, "- %s (%s) — %s\n", s.Name, s.DataType, s.URL)
			} else {
				fmt.Fprintf(&b, "- %s (%s)\n", s.Name, s.DataType)
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("### Section confidence\n\n")
	sections := t.Sections()
	if len(sections) == 0 {
		b.WriteString("No claims were recorded.\n")
	}
	for _, name := range sections {
		sc := t.Section(name)
		fmt.Fprintf(&b, "- %s: %d/%d claims verified — %s confidence\n",
			name, sc.Verified, sc.Claims, sc.Overall)
	}

	fmt.Fprintf(&b, "\nOverall data quality: %s\n", t.DataQuality())
	return b.String()
}
