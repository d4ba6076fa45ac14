package main

import (
	"github.com/spf13/cobra"

	"github.com/justice-rest/Intel-sub010/internal/capacity"
)

// capacityFlags holds the raw flag values behind the capacity inputs.
// Pointer inputs only materialize when their flag was set, so the engine
// can tell "never collected" from "collected as zero".
type capacityFlags struct {
	realEstateValue float64
	propertyCount   int
	lifetimeGiving  float64
	recentGiving    float64
	salary          float64
	age             int
	businessRevenue float64

	hasBusiness   bool
	multiBusiness bool
	sixFigure     bool
	sevenFigure   bool
	multiOrg      bool

	calcType string
}

func (f *capacityFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.Float64Var(&f.realEstateValue, "real-estate-value", 0, "total assessed real-estate value in USD")
	fl.IntVar(&f.propertyCount, "properties", 0, "number of properties owned")
	fl.Float64Var(&f.lifetimeGiving, "lifetime-giving", 0, "documented lifetime giving in USD")
	fl.Float64Var(&f.recentGiving, "recent-giving", 0, "trailing-5-year giving in USD")
	fl.Float64Var(&f.salary, "salary", 0, "annual salary in USD (proxied from real estate when unset)")
	fl.IntVar(&f.age, "age", 0, "subject age (unlocks enhanced and thorough formulas)")
	fl.Float64Var(&f.businessRevenue, "business-revenue", 0, "annual business revenue in USD")
	fl.BoolVar(&f.hasBusiness, "has-business", false, "subject owns a business")
	fl.BoolVar(&f.multiBusiness, "multi-business", false, "subject owns multiple businesses")
	fl.BoolVar(&f.sixFigure, "six-figure-gift", false, "documented six-figure single gift")
	fl.BoolVar(&f.sevenFigure, "seven-figure-gift", false, "documented seven-figure single gift")
	fl.BoolVar(&f.multiOrg, "multi-org-donor", false, "demonstrated giving across multiple organizations")
	fl.StringVar(&f.calcType, "calc", "all", "calculation type: basic|enhanced|thorough|all")
}

// inputs converts the flags to engine inputs, honoring set-vs-unset.
func (f *capacityFlags) inputs(cmd *cobra.Command) capacity.Inputs {
	in := capacity.Inputs{
		LifetimeGiving:     f.lifetimeGiving,
		HasBusiness:        f.hasBusiness,
		MultiBusinessOwner: f.multiBusiness,
		SixFigureGift:      f.sixFigure,
		SevenFigureGift:    f.sevenFigure,
	}
	fl := cmd.Flags()
	if fl.Changed("real-estate-value") {
		in.RealEstateValue = &f.realEstateValue
	}
	if fl.Changed("properties") {
		in.PropertyCount = &f.propertyCount
	}
	if fl.Changed("recent-giving") {
		in.RecentGiving = &f.recentGiving
	}
	if fl.Changed("salary") {
		in.Salary = &f.salary
	}
	if fl.Changed("age") {
		in.Age = &f.age
	}
	if fl.Changed("business-revenue") {
		in.BusinessRevenue = &f.businessRevenue
	}
	if fl.Changed("multi-org-donor") {
		in.MultiOrgDonor = &f.multiOrg
	}
	return in
}

func (f *capacityFlags) calculationType() capacity.Type {
	return capacity.Type(f.calcType)
}
