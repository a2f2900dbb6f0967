package main

import (
	"errors"
	"fmt"
	"time"

	"yogastudio/internal/database"
	"yogastudio/internal/export"

	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

func newExportCmd(a *app) *cobra.Command {
	var from, to, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write an xlsx report of bookings per class",
		Long: `Export writes one workbook covering classes that start in [from, to):
a summary sheet with seats taken per class and a sheet listing every booking.

Dates use YYYY-MM-DD in the studio time zone. Defaults: from today,
to seven days later, output into exports.path from the config.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			start, end, err := exportRange(from, to, time.Now(), a.cfg.App.Location)
			if err != nil {
				return err
			}
			dir := out
			if dir == "" {
				dir = a.cfg.Exports.Path
			}

			classes, err := a.db.ListClasses(ctx, database.ClassFilter{From: start, To: end})
			if err != nil {
				return err
			}
			records, err := a.db.ListBookingRecords(ctx, start, end)
			if err != nil {
				return err
			}

			report := &export.Report{From: start, To: end, Classes: classes, Bookings: records, Location: a.cfg.App.Location}
			path, err := report.Save(dir)
			if err != nil {
				return err
			}
			a.logger.Info().Str("path", path).Int("classes", len(classes)).Int("bookings", len(records)).Msg("Report exported")
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "day after the last one, YYYY-MM-DD")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output directory")
	return cmd
}

// exportRange resolves the report window as whole days in loc.
func exportRange(from, to string, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := now.In(loc).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if from != "" {
		t, err := time.ParseInLocation(dateLayout, from, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from format, use YYYY-MM-DD: %w", err)
		}
		start = t
	}

	end := start.AddDate(0, 0, 7)
	if to != "" {
		t, err := time.ParseInLocation(dateLayout, to, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to format, use YYYY-MM-DD: %w", err)
		}
		end = t
	}

	if !end.After(start) {
		return time.Time{}, time.Time{}, errors.New("--to must be after --from")
	}
	return start, end, nil
}
