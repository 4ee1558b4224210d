package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var vendorsCmd = &cobra.Command{
	Use:   "vendors",
	Short: "List the vendors that have scraped jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := backend()
		if err != nil {
			return err
		}

		names, err := client.Vendors(cmd.Context())
		if err != nil {
			return err
		}

		if len(names) == 0 {
			fmt.Println("no vendors yet")
			return nil
		}

		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(vendorsCmd)
}
