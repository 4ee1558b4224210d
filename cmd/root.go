package cmd

import (
	"fmt"
	"jobdash/internal/api"
	"jobdash/internal/config"
	"jobdash/internal/db"
	"jobdash/internal/logger"
	"jobdash/internal/repository"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg   *config.Config
	debug bool
)

var rootCmd = &cobra.Command{
	Use:          "jobdash",
	Short:        "Admin console and CLI for the job scraping backend",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		logger.Init(debug)

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		noDB := map[string]bool{
			"install": true, "uninstall": true, "health": true, "metrics": true,
		}
		if !noDB[cmd.Name()] {
			if err := db.Init(cfg.DBPath); err != nil {
				return err
			}
		}

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// backend returns a client carrying the cookies saved by earlier
// invocations, so `auth login` survives across commands.
func backend() (*api.Client, error) {
	client, err := api.New(cfg.APIURL, cfg.RequestTimeout)
	if err != nil {
		return nil, err
	}

	if db.DB == nil {
		return client, nil
	}

	cookies, err := repository.NewCookieRepository().Load(client.BaseURL())
	if err != nil {
		logger.Log.Warn("failed to load saved session", zap.Error(err))
		return client, nil
	}
	client.SetCookies(cookies)
	return client, nil
}

func saveSession(client *api.Client) error {
	if err := repository.NewCookieRepository().Replace(client.BaseURL(), client.Cookies()); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug mode")
}
