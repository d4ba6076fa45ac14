package main

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/justice-rest/Intel-sub010/internal/capacity"
)

var (
	capacityJSON   bool
	capacityInputs capacityFlags
)

var capacityCmd = &cobra.Command{
	Use:   "capacity",
	Short: "Run the giving-capacity formulas over supplied signals",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("capacity"); err != nil {
			return err
		}

		res := capacity.Calculate(cfg.Capacity, capacityInputs.inputs(cmd), capacityInputs.calculationType())

		if capacityJSON {
			out, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return eris.Wrap(err, "encode result")
			}
			fmt.Println(string(out))
			return nil
		}

		if res.Insufficient {
			fmt.Println("Insufficient data: no capacity formula could run.")
			for _, m := range res.MissingInputs {
				fmt.Printf("  missing: %s\n", m)
			}
			return nil
		}

		fmt.Printf("Recommended: %s (rating %s, %s) via %s\n",
			capacity.FormatUSD(res.Recommended), res.Rating, res.Range, res.RecommendedFormula)
		for _, bd := range []*capacity.Breakdown{res.Basic, res.Enhanced, res.Thorough} {
			if bd == nil {
				continue
			}
			fmt.Printf("\n%s: %s\n", bd.Formula, capacity.FormatUSD(bd.Total))
			for _, c := range bd.Components {
				fmt.Printf("  %-24s %14s  %s\n", c.Name, capacity.FormatUSD(c.Value), c.Derivation)
			}
		}
		if len(res.Modifiers) > 0 {
			fmt.Println("\nAdjustments:")
			for _, m := range res.Modifiers {
				fmt.Printf("  %-24s %+.0f%%  %s\n", m.Name, m.Percent*100, m.Justification)
			}
		}
		if len(res.MissingInputs) > 0 {
			fmt.Println("\nMissing inputs:")
			for _, m := range res.MissingInputs {
				fmt.Printf("  %s\n", m)
			}
		}
		return nil
	},
}

func init() {
	capacityCmd.Flags().BoolVar(&capacityJSON, "json", false, "emit the result as JSON")
	capacityInputs.register(capacityCmd)
	rootCmd.AddCommand(capacityCmd)
}
