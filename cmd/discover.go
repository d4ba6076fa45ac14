package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/justice-rest/Intel-sub010/internal/discovery"
)

var (
	discoverObjective  string
	discoverConditions []string
	discoverLimit      int
	discoverJSON       bool
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Run an asynchronous prospect discovery search",
	Long:  "Submits a discovery job, polls it to completion, and prints every candidate with its match classification and supporting excerpts.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("discover"); err != nil {
			return err
		}
		if discoverObjective == "" {
			return eris.New("--objective is required")
		}

		conditions, err := parseConditions(discoverConditions)
		if err != nil {
			return err
		}

		e := initEnv()
		runner := discovery.NewExaRunner(e.exa, e.exa != nil)
		coord := discovery.NewCoordinator(runner, e.breakers, discovery.Options{
			PollInterval: time.Duration(cfg.Discovery.PollIntervalSecs) * time.Second,
			MaxWait:      time.Duration(cfg.Discovery.MaxWaitSecs) * time.Second,
		})

		limit := discoverLimit
		if limit == 0 {
			limit = cfg.Discovery.Limit
		}

		onEvent := func(ev discovery.Event) {
			if ev.Type == discovery.EventStatus {
				fmt.Printf("job %s: %s (%d generated)\n", ev.Job.ID, ev.Job.Status, ev.Job.Generated)
			}
		}
		if discoverJSON {
			onEvent = nil
		}

		job, candidates, err := coord.Run(cmd.Context(), discovery.Request{
			Objective:  discoverObjective,
			Conditions: conditions,
			Limit:      limit,
		}, onEvent)
		if err != nil {
			return err
		}

		if discoverJSON {
			out, err := json.MarshalIndent(struct {
				Job        discovery.Job         `json:"job"`
				Candidates []discovery.Candidate `json:"candidates"`
			}{job, candidates}, "", "  ")
			if err != nil {
				return eris.Wrap(err, "encode result")
			}
			fmt.Println(string(out))
			return nil
		}

		fmt.Printf("\njob %s finished: %d candidates, %d matched\n\n", job.ID, len(candidates), job.Matched)
		for _, c := range candidates {
			fmt.Printf("[%-9s] %s\n", c.Match, c.Name)
			if c.URL != "" {
				fmt.Printf("            %s\n", c.URL)
			}
			if c.Description != "" {
				fmt.Printf("            %s\n", c.Description)
			}
		}
		return nil
	},
}

// parseConditions parses repeated name=description pairs.
func parseConditions(raw []string) ([]discovery.MatchCondition, error) {
	conditions := make([]discovery.MatchCondition, 0, len(raw))
	for _, r := range raw {
		name, desc, ok := strings.Cut(r, "=")
		if !ok || name == "" || desc == "" {
			return nil, eris.Errorf("invalid --condition %q, want name=description", r)
		}
		conditions = append(conditions, discovery.MatchCondition{Name: name, Description: desc})
	}
	return conditions, nil
}

func init() {
	discoverCmd.Flags().StringVar(&discoverObjective, "objective", "", "natural-language search objective (required)")
	discoverCmd.Flags().StringArrayVar(&discoverConditions, "condition", nil, "match condition as name=description (repeatable)")
	discoverCmd.Flags().IntVar(&discoverLimit, "limit", 0, "max candidates (default from config)")
	discoverCmd.Flags().BoolVar(&discoverJSON, "json", false, "emit job and candidates as JSON")
	rootCmd.AddCommand(discoverCmd)
}
