package cmd

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the backend is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := backend()
		if err != nil {
			return err
		}

		status, err := client.Health(cmd.Context())
		if err != nil {
			return fmt.Errorf("backend unhealthy: %w", err)
		}

		fmt.Printf("backend %s is up\n", client.BaseURL())
		for _, k := range slices.Sorted(maps.Keys(status)) {
			fmt.Printf("  %s: %v\n", k, status[k])
		}
		return nil
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Print the backend's Prometheus metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := backend()
		if err != nil {
			return err
		}

		text, err := client.Metrics(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Print(text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd, metricsCmd)
}
