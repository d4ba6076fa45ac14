package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/justice-rest/Intel-sub010/internal/claims"
	"github.com/justice-rest/Intel-sub010/internal/report"
)

var (
	reportName     string
	reportLocation string
	reportContext  string
	reportJSON     bool
	reportOut      string
	reportInputs   capacityFlags
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build a full prospect research report for one subject",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("report"); err != nil {
			return err
		}
		if reportName == "" {
			return eris.New("--name is required")
		}
		ctx := cmd.Context()

		e := initEnv()
		tracker := claims.NewTracker()
		collector := report.NewCollector(e.client).WithCapacityConfig(cfg.Capacity)

		req := report.Request{
			Subject: report.Subject{
				Name:     reportName,
				Location: reportLocation,
				Context:  reportContext,
			},
			Capacity:     reportInputs.inputs(cmd),
			CapacityType: reportInputs.calculationType(),
		}

		cache, err := collector.Collect(ctx, req, tracker)
		if err != nil {
			return eris.Wrap(err, "collect")
		}

		rep, err := report.NewSynthesizer().Synthesize(cache, tracker)
		if err != nil {
			return err
		}

		zap.L().Info("report built",
			zap.String("run_id", rep.RunID),
			zap.String("subject", rep.Subject.Name),
			zap.String("rating", string(rep.Summary.Rating)),
			zap.String("data_quality", string(rep.Summary.DataQuality)),
		)

		var out []byte
		if reportJSON {
			out, err = json.MarshalIndent(rep, "", "  ")
			if err != nil {
				return eris.Wrap(err, "encode report")
			}
		} else {
			out = []byte(rep.Render())
		}

		if reportOut != "" {
			return os.WriteFile(reportOut, out, 0644)
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportName, "name", "", "subject full name (required)")
	reportCmd.Flags().StringVar(&reportLocation, "location", "", "subject city/county/state")
	reportCmd.Flags().StringVar(&reportContext, "context", "", "disambiguation context, e.g. employer")
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "emit the full report as JSON")
	reportCmd.Flags().StringVar(&reportOut, "out", "", "write the report to a file instead of stdout")
	reportInputs.register(reportCmd)
	rootCmd.AddCommand(reportCmd)
}
