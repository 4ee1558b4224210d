package cmd

import (
	"context"
	"errors"
	"fmt"
	"jobdash/internal/joblist"
	"jobdash/internal/model"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	jobsVendor string
	jobsQuery  string
	jobsSince  string
	jobsPage   int
	jobsSort   string
	jobsDesc   bool
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List scraped jobs, 50 per page",
	RunE: func(cmd *cobra.Command, args []string) error {
		field, err := model.ParseSortField(jobsSort)
		if err != nil {
			return err
		}

		client, err := backend()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		c := joblist.New(ctx, client)
		c.SetFilters(model.FilterPatch{
			Vendor:     &jobsVendor,
			SearchTerm: &jobsQuery,
			Since:      &jobsSince,
		})

		if err := pageTo(ctx, c, jobsPage); err != nil {
			return err
		}

		var dir *model.Direction
		if cmd.Flags().Changed("desc") {
			dir = new(model.Asc)
			if jobsDesc {
				dir = new(model.Desc)
			}
		}
		applySort(c, field, dir)
		return printJobs(c.State())
	},
}

// pageTo walks forward one page at a time, the same way the console pager
// does, and stops early when the backend runs out of rows.
func pageTo(ctx context.Context, c *joblist.Controller, page int) error {
	if err := c.Wait(ctx); err != nil {
		return err
	}

	for range page {
		if err := c.SetPage(1); err != nil {
			if errors.Is(err, joblist.ErrPageMove) {
				return fmt.Errorf("page %d is past the last page", page)
			}
			return err
		}
		if err := c.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// applySort activates field with dir, or with the field's default
// direction when dir is nil.
func applySort(c *joblist.Controller, field model.SortField, dir *model.Direction) {
	if c.State().Sort.Field != field {
		c.SetSort(field)
	}
	if dir != nil && c.State().Sort.Direction != *dir {
		c.SetSort(field)
	}
}

func printJobs(st joblist.State) error {
	if st.Err != "" {
		return errors.New(st.Err)
	}

	if len(st.Records) == 0 {
		fmt.Println("no jobs match")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "POSTED\tCOMPANY\tTITLE\tLOCATION\tKEY")
	for _, r := range st.Records {
		posted := r.Date()
		if t := r.PostedAt(); !t.IsZero() {
			posted = humanize.Time(t)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			posted, r.Company(), r.Title(), r.Location(), r.Key())
	}
	if err := w.Flush(); err != nil {
		return err
	}

	more := ""
	if st.CanGoNext {
		more = fmt.Sprintf(", next: --page %d", st.Page+1)
	}
	fmt.Printf("\npage %d, %d rows%s\n", st.Page, len(st.Records), more)
	return nil
}

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Inspect a single job",
}

var jobShowCmd = &cobra.Command{
	Use:   "show [vendor] [key]",
	Short: "Show one job with its description",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := backend()
		if err != nil {
			return err
		}

		rec, err := client.GetJob(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}

		fmt.Println(rec.Title())
		fmt.Printf("company:  %s\n", rec.Company())
		fmt.Printf("location: %s\n", rec.Location())
		fmt.Printf("posted:   %s\n", rec.Date())
		if u := rec.URL(); u != "" {
			fmt.Printf("link:     %s\n", u)
		}
		if d := rec.Description(); d != "" {
			fmt.Printf("\n%s\n", d)
		}
		return nil
	},
}

func init() {
	jobsCmd.Flags().StringVar(&jobsVendor, "vendor", "", "only jobs from this vendor")
	jobsCmd.Flags().StringVar(&jobsQuery, "q", "", "free-text search")
	jobsCmd.Flags().StringVar(&jobsSince, "since", "", "only jobs posted on or after YYYY-MM-DD")
	jobsCmd.Flags().IntVar(&jobsPage, "page", 0, "zero-based page index")
	jobsCmd.Flags().StringVar(&jobsSort, "sort", string(model.SortDate), "sort field: date, title, location or company")
	jobsCmd.Flags().BoolVar(&jobsDesc, "desc", false, "sort descending (--desc=false for ascending)")

	jobCmd.AddCommand(jobShowCmd)
	rootCmd.AddCommand(jobsCmd, jobCmd)
}
