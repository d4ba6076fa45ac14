package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Show provider configuration and circuit-breaker state",
	RunE: func(cmd *cobra.Command, args []string) error {
		e := initEnv()

		fmt.Printf("%-12s %-12s %s\n", "PROVIDER", "CONFIGURED", "BREAKER")
		states := e.breakers.States()
		for _, name := range e.client.Providers() {
			configured := "no"
			if p := e.client.Provider(name); p != nil && p.Configured() {
				configured = "yes"
			}
			state := "CLOSED"
			if s, ok := states[name]; ok {
				state = s.String()
			}
			fmt.Printf("%-12s %-12s %s\n", name, configured, state)
		}

		exaConfigured := "no"
		if e.exa != nil {
			exaConfigured = "yes"
		}
		fmt.Printf("%-12s %-12s %s\n", "exa", exaConfigured, "CLOSED")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
}
