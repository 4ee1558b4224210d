package cmd

import (
	"fmt"
	"jobdash/internal/autostart"

	"github.com/spf13/cobra"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the console from autostart",
	RunE: func(cmd *cobra.Command, args []string) error {
		as := autostart.New()
		installed, err := as.IsInstalled()
		if err != nil {
			return err
		}
		if !installed {
			fmt.Println("jobdash console is not registered for autostart")
			return nil
		}

		if err := as.Uninstall(); err != nil {
			return err
		}

		fmt.Println("jobdash console autostart removed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
}
