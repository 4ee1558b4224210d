package cmd

import (
	"fmt"
	"jobdash/internal/autostart"
	"os"

	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Start the console at login",
	RunE: func(cmd *cobra.Command, args []string) error {
		execPath, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to get executable path: %w", err)
		}

		if err := autostart.New().Install(execPath); err != nil {
			return err
		}

		fmt.Printf("jobdash console registered for autostart on %s\n", cfg.Listen)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
}
