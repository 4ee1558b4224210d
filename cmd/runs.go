package cmd

import (
	"fmt"
	"jobdash/internal/model"
	"jobdash/internal/runs"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	runScrapers    []string
	runDBMode      string
	runCombineFull bool
	runLimit       int
	runSince       string
	runWorkers     int
	runWatch       bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Start and inspect scrape runs (admin)",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scrape runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := backend()
		if err != nil {
			return err
		}

		list, err := client.ListRuns(cmd.Context())
		if err != nil {
			return err
		}

		return printRuns(list)
	},
}

var runsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the run list until no run is running",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := backend()
		if err != nil {
			return err
		}

		return watchRuns(cmd, runs.New(client, cfg.PollInterval))
	},
}

var runsLogsCmd = &cobra.Command{
	Use:   "logs [id]",
	Short: "Print the log of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := backend()
		if err != nil {
			return err
		}

		text, err := runs.New(client, cfg.PollInterval).Select(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Print(text)
		return nil
	},
}

var runsStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a scrape run",
	RunE: func(cmd *cobra.Command, args []string) error {
		req := model.RunRequest{
			Scrapers:    runScrapers,
			DBMode:      model.DBMode(runDBMode),
			CombineFull: runCombineFull,
			Since:       runSince,
		}
		if cmd.Flags().Changed("limit") {
			req.Limit = new(runLimit)
		}
		if cmd.Flags().Changed("workers") {
			req.Workers = new(runWorkers)
		}
		if err := req.Validate(); err != nil {
			return err
		}

		client, err := backend()
		if err != nil {
			return err
		}

		poller := runs.New(client, cfg.PollInterval)
		id, startErr := poller.StartRun(cmd.Context(), req)

		actor := ""
		if me, err := client.Me(cmd.Context()); err == nil {
			actor = me.Email
		}
		recordTrigger(id, req, actor, startErr)

		if startErr != nil {
			return startErr
		}

		if id == "" {
			fmt.Println("run started")
		} else {
			fmt.Printf("run started: %s\n", id)
		}

		if runWatch {
			return watchRuns(cmd, poller)
		}
		return nil
	},
}

func watchRuns(cmd *cobra.Command, poller *runs.Poller) error {
	ctx := cmd.Context()
	if err := poller.Start(ctx); err != nil {
		return err
	}
	defer poller.Stop()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	var shown time.Time
	lastErr := ""
	for {
		snap := poller.Snapshot()
		if !snap.LastRefresh.Equal(shown) {
			shown = snap.LastRefresh
			fmt.Printf("\n%s\n", snap.LastRefresh.Format("15:04:05"))
			if err := printRuns(snap.Runs); err != nil {
				return err
			}
		}
		if snap.Err != "" && snap.Err != lastErr {
			_, _ = fmt.Fprintf(os.Stderr, "refresh failed: %s\n", snap.Err)
		}
		lastErr = snap.Err
		if !snap.Polling {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func printRuns(list []model.Run) error {
	if len(list) == 0 {
		fmt.Println("no runs yet")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTATUS\tCREATED\tSCRAPERS")
	for _, r := range list {
		created := r.CreatedAt
		if t := r.Created(); !t.IsZero() {
			created = humanize.Time(t)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%v\n", r.ID, r.Status, created, r.Args["scrapers"])
	}
	return w.Flush()
}

func init() {
	f := runsStartCmd.Flags()
	f.StringSliceVar(&runScrapers, "scraper", nil, "scraper to run (repeatable)")
	f.StringVar(&runDBMode, "db-mode", string(model.DBModeMin), "min or full")
	f.BoolVar(&runCombineFull, "combine-full", false, "combine into the full dataset")
	f.IntVar(&runLimit, "limit", 0, "max postings per scraper")
	f.StringVar(&runSince, "since", "", "only postings on or after YYYY-MM-DD")
	f.IntVar(&runWorkers, "workers", 0, "parallel scraper workers")
	f.BoolVar(&runWatch, "watch", false, "follow the run list afterwards")

	runsCmd.AddCommand(runsListCmd, runsWatchCmd, runsLogsCmd, runsStartCmd)
	rootCmd.AddCommand(runsCmd)
}
