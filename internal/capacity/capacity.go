// Package capacity derives giving-capacity estimates from collected wealth
// and giving signals. Three formulas of increasing fidelity run over the
// same inputs; the engine recommends the most complete one and reports
// every breakdown, adjustment, and missing input so the result is
// explainable end to end.
package capacity

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Type selects which formulas to compute.
type Type string

const (
	TypeBasic    Type = "basic"
	TypeEnhanced Type = "enhanced"
	TypeThorough Type = "thorough"
	TypeAll      Type = "all"
)

// Inputs is the flat signal record the engine consumes. Pointer fields are
// optional; a nil means the signal was never collected, which is different
// from a collected zero.
type Inputs struct {
	RealEstateValue *float64 `json:"real_estate_value,omitempty"`
	PropertyCount   *int     `json:"property_count,omitempty"`
	LifetimeGiving  float64  `json:"lifetime_giving"`
	RecentGiving    *float64 `json:"recent_giving,omitempty"`
	Salary          *float64 `json:"salary,omitempty"`
	Age             *int     `json:"age,omitempty"`
	BusinessRevenue *float64 `json:"business_revenue,omitempty"`

	HasBusiness        bool `json:"has_business"`
	HasSECFilings      bool `json:"has_sec_filings"`
	MultiBusinessOwner bool `json:"multi_business_owner"`
	SixFigureGift      bool `json:"six_figure_gift"`
	SevenFigureGift    bool `json:"seven_figure_gift"`
	// MultiOrgDonor records demonstrated generosity across multiple
	// organizations; nil means the history was never collected.
	MultiOrgDonor *bool `json:"multi_org_donor,omitempty"`
}

// Modifiers holds the signed DIF adjustment magnitudes. The defaults are
// empirically asserted rather than derived; they are configuration, not
// invariants, and should be validated against real portfolios.
type Modifiers struct {
	NoMultiOrgGenerosity float64 `yaml:"no_multi_org_generosity" mapstructure:"no_multi_org_generosity"`
	SmallRealEstate      float64 `yaml:"small_real_estate" mapstructure:"small_real_estate"`
	NotEntrepreneur      float64 `yaml:"not_entrepreneur" mapstructure:"not_entrepreneur"`
	MultiBusinessOwner   float64 `yaml:"multi_business_owner" mapstructure:"multi_business_owner"`
	SixFigureGift        float64 `yaml:"six_figure_gift" mapstructure:"six_figure_gift"`
	SevenFigureGift      float64 `yaml:"seven_figure_gift" mapstructure:"seven_figure_gift"`
}

// Config holds the tunable constants of the formulas.
type Config struct {
	// SalaryProxyRate derives a salary from real-estate value when no
	// salary was collected.
	SalaryProxyRate float64 `yaml:"salary_proxy_rate" mapstructure:"salary_proxy_rate"`
	// SalaryAgeRate scales salary × working-years in the enhanced and
	// thorough formulas.
	SalaryAgeRate float64 `yaml:"salary_age_rate" mapstructure:"salary_age_rate"`
	// BusinessRevenueRate scales business revenue.
	BusinessRevenueRate float64 `yaml:"business_revenue_rate" mapstructure:"business_revenue_rate"`

	Modifiers Modifiers `yaml:"modifiers" mapstructure:"modifiers"`
}

// DefaultConfig returns the documented default constants.
func DefaultConfig() Config {
	return Config{
		SalaryProxyRate:     0.15,
		SalaryAgeRate:       0.01,
		BusinessRevenueRate: 0.05,
		Modifiers: Modifiers{
			NoMultiOrgGenerosity: -0.25,
			SmallRealEstate:      -0.10,
			NotEntrepreneur:      -0.10,
			MultiBusinessOwner:   0.10,
			SixFigureGift:        0.10,
			SevenFigureGift:      0.15,
		},
	}
}

// Component is one labeled term of a formula with its derivation text.
type Component struct {
	Name       string  `json:"name"`
	Value      float64 `json:"value"`
	Derivation string  `json:"derivation"`
}

// Breakdown is one formula's result. A projection of the inputs, never
// persisted independently of the calculation that produced it.
type Breakdown struct {
	Formula    string      `json:"formula"`
	Components []Component `json:"components"`
	Total      float64     `json:"total"`
}

// Modifier is one applied DIF adjustment with its justification, retained
// so the report can show the full adjustment trail.
type Modifier struct {
	Name          string  `json:"name"`
	Percent       float64 `json:"percent"`
	Justification string  `json:"justification"`
}

// Rating is the capacity letter grade.
type Rating string

const (
	RatingA Rating = "A"
	RatingB Rating = "B"
	RatingC Rating = "C"
	RatingD Rating = "D"
)

// Result is the reconciled engine output.
type Result struct {
	Basic    *Breakdown `json:"basic,omitempty"`
	Enhanced *Breakdown `json:"enhanced,omitempty"`
	Thorough *Breakdown `json:"thorough,omitempty"`

	// Recommended is always one of the computed breakdown totals, never a
	// blend: thorough when available, else enhanced, else basic.
	Recommended        float64 `json:"recommended"`
	RecommendedFormula string  `json:"recommended_formula"`
	Rating             Rating  `json:"rating"`
	Range              string  `json:"range"`

	// Modifiers is the thorough formula's applied adjustment trail.
	Modifiers []Modifier `json:"modifiers,omitempty"`
	// UsedSalaryProxy is set when the enhanced/thorough salary was derived
	// from real-estate value rather than provided.
	UsedSalaryProxy bool `json:"used_salary_proxy"`
	// MissingInputs lists absent signals that would have improved accuracy.
	MissingInputs []string `json:"missing_inputs,omitempty"`
	// Insufficient is set when not even the basic formula could run.
	Insufficient bool `json:"insufficient"`
}

var usd = message.NewPrinter(language.AmericanEnglish)

// FormatUSD renders a dollar amount with thousands separators.
func FormatUSD(v float64) string {
	return usd.Sprintf("$%.0f", v)
}

// realEstateFactor steps with the number of properties: more parcels mean
// a larger share of the portfolio is liquid enough to matter.
func realEstateFactor(propertyCount int) float64 {
	switch {
	case propertyCount >= 3:
		return 0.15
	case propertyCount == 2:
		return 0.10
	case propertyCount == 1:
		return 0.05
	default:
		return 0
	}
}

// donationFactor rewards demonstrated lifetime giving.
func donationFactor(lifetimeGiving float64) float64 {
	switch {
	case lifetimeGiving >= 1_000_000:
		return 1.15
	case lifetimeGiving >= 100_000:
		return 1.10
	default:
		return 1.0
	}
}

func businessFactor(hasBusiness, hasSECFilings bool) float64 {
	if hasBusiness || hasSECFilings {
		return 1.1
	}
	return 1.0
}

// Calculate runs the selected formulas. It never fails on missing optional
// inputs: formulas that cannot run stay nil and the reason lands in
// MissingInputs. Pure function of (cfg, in, calcType).
func Calculate(cfg Config, in Inputs, calcType Type) Result {
	var res Result

	if in.RealEstateValue == nil || in.PropertyCount == nil {
		res.Insufficient = true
		res.MissingInputs = append(res.MissingInputs,
			"real estate value and property count (required for any capacity formula)")
		return res
	}

	if calcType == TypeBasic || calcType == TypeAll {
		res.Basic = basic(in)
	}
	if calcType == TypeEnhanced || calcType == TypeAll {
		res.Enhanced = enhanced(cfg, in, &res)
	}
	if calcType == TypeThorough || calcType == TypeAll {
		res.Thorough = thorough(cfg, in, &res)
	}
	// The recommendation needs a fallback even when a narrower type was
	// requested and could not run.
	if res.Basic == nil && res.Enhanced == nil && res.Thorough == nil {
		res.Basic = basic(in)
	}

	trackMissing(in, &res)
	reconcile(&res)
	return res
}

func basic(in Inputs) *Breakdown {
	reValue := *in.RealEstateValue
	props := *in.PropertyCount

	reFactor := realEstateFactor(props)
	reTerm := reValue * reFactor
	dFactor := donationFactor(in.LifetimeGiving)
	bFactor := businessFactor(in.HasBusiness, in.HasSECFilings)
	total := (reTerm + in.LifetimeGiving) * dFactor * bFactor

	return &Breakdown{
		Formula: string(TypeBasic),
		Components: []Component{
			{
				Name:  "real_estate",
				Value: reTerm,
				Derivation: usd.Sprintf("%s × %.2f (%d properties)",
					FormatUSD(reValue), reFactor, props),
			},
			{
				Name:       "lifetime_giving",
				Value:      in.LifetimeGiving,
				Derivation: FormatUSD(in.LifetimeGiving) + " documented lifetime giving",
			},
			{
				Name:       "donation_factor",
				Value:      dFactor,
				Derivation: usd.Sprintf("×%.2f for lifetime giving of %s", dFactor, FormatUSD(in.LifetimeGiving)),
			},
			{
				Name:       "business_factor",
				Value:      bFactor,
				Derivation: usd.Sprintf("×%.2f for business ownership or insider-filing evidence", bFactor),
			},
		},
		Total: total,
	}
}

// resolveSalary returns the salary to use and whether it was proxied from
// real-estate value.
func resolveSalary(cfg Config, in Inputs) (float64, bool) {
	if in.Salary != nil {
		return *in.Salary, false
	}
	return *in.RealEstateValue * cfg.SalaryProxyRate, true
}

func salaryDerivation(salary float64, proxied bool, cfg Config, in Inputs) string {
	if proxied {
		return usd.Sprintf("%s estimated from real-estate value (%s × %.2f)",
			FormatUSD(salary), FormatUSD(*in.RealEstateValue), cfg.SalaryProxyRate)
	}
	return FormatUSD(salary) + " provided"
}

func enhanced(cfg Config, in Inputs, res *Result) *Breakdown {
	if in.Age == nil {
		return nil
	}

	salary, proxied := resolveSalary(cfg, in)
	if proxied {
		res.UsedSalaryProxy = true
	}

	workingYears := float64(*in.Age - 22)
	if workingYears < 0 {
		workingYears = 0
	}
	salaryTerm := salary * workingYears * cfg.SalaryAgeRate

	reTerm := *in.RealEstateValue * realEstateFactor(*in.PropertyCount)

	bizRevenue := 0.0
	if in.BusinessRevenue != nil {
		bizRevenue = *in.BusinessRevenue
	}
	bizTerm := bizRevenue * cfg.BusinessRevenueRate

	total := salaryTerm + reTerm + bizTerm + in.LifetimeGiving

	return &Breakdown{
		Formula: string(TypeEnhanced),
		Components: []Component{
			{
				Name:  "salary_accumulation",
				Value: salaryTerm,
				Derivation: usd.Sprintf("%s × %.0f working years × %.2f; salary %s",
					FormatUSD(salary), workingYears, cfg.SalaryAgeRate,
					salaryDerivation(salary, proxied, cfg, in)),
			},
			{
				Name:  "real_estate",
				Value: reTerm,
				Derivation: usd.Sprintf("%s × %.2f (%d properties)",
					FormatUSD(*in.RealEstateValue), realEstateFactor(*in.PropertyCount), *in.PropertyCount),
			},
			{
				Name:       "business_revenue",
				Value:      bizTerm,
				Derivation: usd.Sprintf("%s × %.2f", FormatUSD(bizRevenue), cfg.BusinessRevenueRate),
			},
			{
				Name:       "lifetime_giving",
				Value:      in.LifetimeGiving,
				Derivation: FormatUSD(in.LifetimeGiving) + " documented lifetime giving",
			},
		},
		Total: total,
	}
}

func thorough(cfg Config, in Inputs, res *Result) *Breakdown {
	if in.Age == nil {
		return nil
	}

	salary, proxied := resolveSalary(cfg, in)
	if proxied {
		res.UsedSalaryProxy = true
	}

	workingYears := float64(*in.Age - 22)
	if workingYears < 0 {
		workingYears = 0
	}
	l1 := salary * workingYears * cfg.SalaryAgeRate
	l2 := *in.RealEstateValue * realEstateFactor(*in.PropertyCount)

	bizRevenue := 0.0
	if in.BusinessRevenue != nil {
		bizRevenue = *in.BusinessRevenue
	}
	l3 := bizRevenue * cfg.BusinessRevenueRate

	base := l1 + l2 + l3
	mods := applyModifiers(cfg.Modifiers, in)
	dif := 0.0
	for _, m := range mods {
		dif += m.Percent
	}
	adjusted := base * (1 + dif)

	recent := 0.0
	if in.RecentGiving != nil {
		recent = *in.RecentGiving
	}
	total := adjusted + recent

	res.Modifiers = mods

	return &Breakdown{
		Formula: string(TypeThorough),
		Components: []Component{
			{
				Name:       "l1_salary_accumulation",
				Value:      l1,
				Derivation: usd.Sprintf("salary %s × %.0f working years × %.2f", salaryDerivation(salary, proxied, cfg, in), workingYears, cfg.SalaryAgeRate),
			},
			{
				Name:       "l2_real_estate",
				Value:      l2,
				Derivation: usd.Sprintf("%s × %.2f (%d properties)", FormatUSD(*in.RealEstateValue), realEstateFactor(*in.PropertyCount), *in.PropertyCount),
			},
			{
				Name:       "l3_business_revenue",
				Value:      l3,
				Derivation: usd.Sprintf("%s × %.2f", FormatUSD(bizRevenue), cfg.BusinessRevenueRate),
			},
			{
				Name:       "dif_adjustment",
				Value:      adjusted - base,
				Derivation: usd.Sprintf("base %s × %+.0f%% across %d modifiers", FormatUSD(base), dif*100, len(mods)),
			},
			{
				Name:       "recent_giving",
				Value:      recent,
				Derivation: FormatUSD(recent) + " trailing-5-year giving at 100%",
			},
		},
		Total: total,
	}
}

// applyModifiers builds the DIF trail. Every fired modifier keeps its
// justification text for the report.
func applyModifiers(m Modifiers, in Inputs) []Modifier {
	var mods []Modifier

	if in.MultiOrgDonor != nil && !*in.MultiOrgDonor {
		mods = append(mods, Modifier{
			Name:          "no_multi_org_generosity",
			Percent:       m.NoMultiOrgGenerosity,
			Justification: "no demonstrated giving across multiple organizations",
		})
	}
	if *in.RealEstateValue < 1_000_000 || *in.PropertyCount < 3 {
		mods = append(mods, Modifier{
			Name:          "small_real_estate",
			Percent:       m.SmallRealEstate,
			Justification: "real-estate portfolio under $1M or fewer than 3 properties",
		})
	}
	if !in.HasBusiness {
		mods = append(mods, Modifier{
			Name:          "not_entrepreneur",
			Percent:       m.NotEntrepreneur,
			Justification: "no business ownership on record",
		})
	}
	if in.MultiBusinessOwner {
		mods = append(mods, Modifier{
			Name:          "multi_business_owner",
			Percent:       m.MultiBusinessOwner,
			Justification: "owns multiple businesses",
		})
	}
	if in.SevenFigureGift {
		mods = append(mods, Modifier{
			Name:          "seven_figure_gift",
			Percent:       m.SevenFigureGift,
			Justification: "documented seven-figure single gift",
		})
	} else if in.SixFigureGift {
		mods = append(mods, Modifier{
			Name:          "six_figure_gift",
			Percent:       m.SixFigureGift,
			Justification: "documented six-figure single gift",
		})
	}

	return mods
}

func trackMissing(in Inputs, res *Result) {
	if in.Age == nil {
		res.MissingInputs = append(res.MissingInputs,
			"age (unlocks the enhanced and thorough formulas)")
	}
	if in.Salary == nil {
		res.MissingInputs = append(res.MissingInputs,
			"salary (replaced by a real-estate proxy when absent)")
	}
	if in.BusinessRevenue == nil {
		res.MissingInputs = append(res.MissingInputs,
			"business revenue")
	}
	if in.RecentGiving == nil {
		res.MissingInputs = append(res.MissingInputs,
			"trailing-5-year giving total")
	}
	if in.MultiOrgDonor == nil {
		res.MissingInputs = append(res.MissingInputs,
			"multi-organization giving history")
	}
}

// reconcile picks the recommendation: the most complete formula wins, and
// the letter rating and bracket derive solely from the recommended value.
func reconcile(res *Result) {
	switch {
	case res.Thorough != nil:
		res.Recommended = res.Thorough.Total
		res.RecommendedFormula = string(TypeThorough)
	case res.Enhanced != nil:
		res.Recommended = res.Enhanced.Total
		res.RecommendedFormula = string(TypeEnhanced)
	case res.Basic != nil:
		res.Recommended = res.Basic.Total
		res.RecommendedFormula = string(TypeBasic)
	default:
		res.Insufficient = true
		return
	}

	switch {
	case res.Recommended >= 1_000_000:
		res.Rating = RatingA
		res.Range = "$1,000,000 or more"
	case res.Recommended >= 100_000:
		res.Rating = RatingB
		res.Range = "$100,000 – $999,999"
	case res.Recommended >= 25_000:
		res.Rating = RatingC
		res.Range = "$25,000 – $99,999"
	default:
		res.Rating = RatingD
		res.Range = "below $25,000"
	}
}
