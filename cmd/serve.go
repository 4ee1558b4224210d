package cmd

import (
	"context"
	"jobdash/internal/api"
	"jobdash/internal/config"
	"jobdash/internal/console"
	"jobdash/internal/logger"
	"jobdash/internal/model"
	"jobdash/internal/repository"
	"jobdash/internal/scheduler"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the admin console and scheduled scrapes",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Sync()

		if serveListen != "" {
			cfg.Listen = serveListen
		}

		triggers := repository.NewTriggerRepository()
		srv := console.NewServer(console.Options{
			APIURL:         cfg.APIURL,
			Listen:         cfg.Listen,
			RequestTimeout: cfg.RequestTimeout,
			PollInterval:   cfg.PollInterval,
			SearchDebounce: cfg.SearchDebounce,
			SessionTTL:     cfg.SessionTTL,
		}, triggers)

		svc, err := api.New(cfg.APIURL, cfg.RequestTimeout)
		if err != nil {
			return err
		}

		sched := scheduler.New(svc, model.Credentials{
			Email:    cfg.ServiceEmail,
			Password: cfg.ServicePassword,
		}, triggers, cfg.RequestTimeout)
		if err := sched.Apply(cfg.Schedules); err != nil {
			return err
		}
		sched.Start()

		if viper.ConfigFileUsed() != "" {
			viper.OnConfigChange(func(e fsnotify.Event) {
				next, err := config.Reload()
				if err != nil {
					logger.Log.Warn("ignoring invalid config change",
						zap.String("file", e.Name),
						zap.Error(err))
					return
				}
				if err := sched.Apply(next.Schedules); err != nil {
					logger.Log.Warn("failed to apply schedules", zap.Error(err))
				}
			})
			viper.WatchConfig()
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(srv.Run)
		g.Go(func() error {
			<-gctx.Done()
			logger.Log.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			sched.Stop()
			return srv.Stop(shutdownCtx)
		})

		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "address for the console (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
