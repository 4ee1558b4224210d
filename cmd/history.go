package cmd

import (
	"fmt"
	"jobdash/internal/logger"
	"jobdash/internal/model"
	"jobdash/internal/repository"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	historyN      int
	historyFailed bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View scrape runs started through jobdash",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := repository.NewTriggerRepository()

		var (
			triggers []model.Trigger
			err      error
		)
		if historyFailed {
			triggers, err = repo.GetFailed()
		} else {
			triggers, err = repo.GetRecent(historyN)
		}
		if err != nil {
			return err
		}

		if len(triggers) == 0 {
			fmt.Println("no history yet")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "\tWHEN\tSOURCE\tRUN\tSCRAPERS\tMODE\tBY")
		for _, t := range triggers {
			status := "✓"
			if t.ErrMsg != "" {
				status = "✗"
			}
			run := t.RunID
			if run == "" {
				run = "-"
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				status, humanize.Time(t.TriggeredAt), t.Source, run, t.Scrapers, t.DBMode, t.Actor)
			if t.ErrMsg != "" {
				_, _ = fmt.Fprintf(w, "\t\t\t%s\t\t\t\n", t.ErrMsg)
			}
		}
		return w.Flush()
	},
}

func recordTrigger(runID string, req model.RunRequest, actor string, runErr error) {
	err := repository.NewTriggerRepository().Save(runID, req, model.TriggerManual, actor, runErr)
	if err != nil {
		logger.Log.Warn("failed to record run", zap.Error(err))
	}
}

func init() {
	historyCmd.Flags().IntVar(&historyN, "n", 20, "number of history entries to show")
	historyCmd.Flags().BoolVar(&historyFailed, "failed", false, "only show runs that failed to start")
	rootCmd.AddCommand(historyCmd)
}
