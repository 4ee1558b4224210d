package cmd

import (
	"fmt"
	"jobdash/internal/model"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List backend accounts (admin)",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := backend()
		if err != nil {
			return err
		}

		users, err := client.ListUsers(cmd.Context())
		if err != nil {
			return err
		}

		if len(users) == 0 {
			fmt.Println("no users")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "ID\tEMAIL\tROLE\tCREATED")
		for _, u := range users {
			created := u.CreatedAt
			if t := model.ParseDate(u.CreatedAt); !t.IsZero() {
				created = humanize.Time(t)
			}
			_, _ = fmt.Fprintf(w, "%v\t%s\t%s\t%s\n", u.ID, u.Email, u.Role, created)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(usersCmd)
}
