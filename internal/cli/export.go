package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ag1104/attendance-system/internal/report"
)

func NewExportCommand(opts *RootOptions) *cobra.Command {
	var (
		date   string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the attendance for a date to an .xlsx file",
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

			if output == "" {
				output = fmt.Sprintf("attendance-%s.xlsx", day)
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := report.WriteAttendance(f, day, entries, dir); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d entries to %s\n", len(entries), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&date, "date", "d", "", "date as YYYY-MM-DD (default today)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default attendance-<date>.xlsx)")
	return cmd
}
