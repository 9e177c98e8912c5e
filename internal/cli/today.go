package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ag1104/attendance-system/internal/models"
)

func NewTodayCommand(opts *RootOptions) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "today",
		Short: "Print the staff who signed in on a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			day, err := resolveDate(date, a.svc.Today())
			if err != nil {
				return err
			}
			entries, err := a.svc.Entries(cmd.Context(), day)
			if err != nil {
				return err
			}
			dir, err := a.svc.Staff()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintf(out, "%-10s %-24s %-8s %-7s %s\n", e.StaffID, dir[e.StaffID], e.Time, e.Status, e.IP)
			}
			fmt.Fprintf(out, "%d signed in on %s\n", len(entries), day)
			return nil
		},
	}
	cmd.Flags().StringVarP(&date, "date", "d", "", "date as YYYY-MM-DD (default today)")
	return cmd
}

func resolveDate(date, today string) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return today, nil
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return "", fmt.Errorf("invalid date %q: want YYYY-MM-DD", date)
	}
	return date, nil
}
