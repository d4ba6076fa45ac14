// Package claims is the append-only ledger of sourced facts behind a
// report. Every assertion carries its sources and a derived confidence so
// the final document is traceable end to end.
package claims

import (
	_ "embed"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// SourceKind is the canonical category of a data source. Ranks key off the
// kind, decided at claim-creation time, never off runtime string lookups.
type SourceKind string

const (
	KindGovernmentRegistry SourceKind = "government_registry"
	KindSECFiling          SourceKind = "sec_filing"
	KindCountyRecords      SourceKind = "county_records"
	KindIRSExemptOrg       SourceKind = "irs_exempt_org"
	KindNonprofitDatabase  SourceKind = "nonprofit_database"
	KindKnowledgeAPI       SourceKind = "knowledge_api"
	KindNewsMedia          SourceKind = "news_media"
	KindWebSearch          SourceKind = "web_search"
	KindCalculation        SourceKind = "calculation"
	KindUnknown            SourceKind = "unknown"
)

// DataType tags how a source's data was obtained.
type DataType string

const (
	DataOfficialRecord DataType = "official_record"
	DataAPIResponse    DataType = "api_response"
	DataWebSearch      DataType = "web_search"
	DataEstimate       DataType = "estimate"
)

// Tier is the coarse reliability band of a single source.
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

//go:embed ranks.yaml
var ranksYAML []byte

type rankTable struct {
	Ranks     map[SourceKind]int `yaml:"ranks"`
	Fallbacks []struct {
		Contains string     `yaml:"contains"`
		Kind     SourceKind `yaml:"kind"`
	} `yaml:"fallbacks"`
}

var ranks = loadRankTable()

func loadRankTable() rankTable {
	var t rankTable
	if err := yaml.Unmarshal(ranksYAML, &t); err != nil {
		panic("claims: invalid embedded rank table: " + err.Error())
	}
	return t
}

// RankOf returns the 0-100 reliability rank for a source kind.
func RankOf(kind SourceKind) int {
	if r, ok := ranks.Ranks[kind]; ok {
		return r
	}
	return ranks.Ranks[KindUnknown]
}

// KindFromName resolves a free-form source name to a kind via the
// substring fallback list. Used only when a caller cannot supply a kind.
func KindFromName(name string) SourceKind {
	lower := strings.ToLower(name)
	for _, f := range ranks.Fallbacks {
		if strings.Contains(lower, f.Contains) {
			return f.Kind
		}
	}
	return KindUnknown
}

// TierOfRank maps a rank to its reliability band.
func TierOfRank(rank int) Tier {
	switch {
	case rank >= 80:
		return TierHigh
	case rank >= 50:
		return TierMedium
	default:
		return TierLow
	}
}

// SourceRef identifies one data source behind a claim. Multiple claims may
// share a reference.
type SourceRef struct {
	Name        string     `json:"name"`
	URL         string     `json:"url,omitempty"`
	Kind        SourceKind `json:"kind"`
	Tier        Tier       `json:"tier"`
	DataType    DataType   `json:"data_type"`
	RetrievedAt time.Time  `json:"retrieved_at"`
}

// NewSourceRef builds a reference with its tier derived from the kind's rank.
func NewSourceRef(name, url string, kind SourceKind, dataType DataType) SourceRef {
	return SourceRef{
		Name:        name,
		URL:         url,
		Kind:        kind,
		Tier:        TierOfRank(RankOf(kind)),
		DataType:    dataType,
		RetrievedAt: time.Now().UTC(),
	}
}

// Rank returns the reference's reliability rank.
func (s SourceRef) Rank() int {
	return RankOf(s.Kind)
}

// Confidence is the derived certainty of a single claim.
type Confidence string

const (
	ConfidenceHigh    Confidence = "high"
	ConfidenceMedium  Confidence = "medium"
	ConfidenceLow     Confidence = "low"
	ConfidenceVeryLow Confidence = "very_low"
)

// ConfidenceFromSources derives claim confidence from the best rank among
// the attached sources.
func ConfidenceFromSources(sources []SourceRef) Confidence {
	best := 0
	for _, s := range sources {
		if r := s.Rank(); r > best {
			best = r
		}
	}
	switch {
	case best >= 80:
		return ConfidenceHigh
	case best >= 50:
		return ConfidenceMedium
	case best >= 30:
		return ConfidenceLow
	default:
		return ConfidenceVeryLow
	}
}
