package main

import (
	"errors"
	"fmt"

	"yogastudio/internal/models"
	"yogastudio/internal/service"

	"github.com/spf13/cobra"
)

func newCreateClassCmd(a *app) *cobra.Command {
	var (
		class    models.Class
		datetime string
	)

	cmd := &cobra.Command{
		Use:   "create-class",
		Short: "Add a class to the timetable",
		Example: `  studioctl create-class --name "Хатха йога" --datetime 2030-05-01T18:30:00 --max 12 --price 900
  studioctl create-class --name "Утренняя практика" --datetime 2030-05-02T07:00:00+03:00 --max 8 --price 700`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if class.Name == "" {
				return errors.New("--name is required")
			}
			if class.MaxParticipants <= 0 {
				return errors.New("--max must be positive")
			}
			startsAt, err := models.ParseClassTime(datetime, a.cfg.App.Location)
			if err != nil {
				return fmt.Errorf("invalid --datetime %q: use 2006-01-02T15:04:05 or RFC3339", datetime)
			}
			class.StartsAt = startsAt

			classes := service.NewClassService(a.db, nil, a.cfg.API.ClassesCacheTTL, a.logger)
			id, err := classes.CreateClass(cmd.Context(), &class)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "class %d created\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&class.Name, "name", "", "class name")
	cmd.Flags().StringVar(&class.Description, "description", "", "class description")
	cmd.Flags().StringVar(&datetime, "datetime", "", "start time, 2006-01-02T15:04:05 (studio time zone) or RFC3339")
	cmd.Flags().IntVar(&class.MaxParticipants, "max", 0, "seat capacity")
	cmd.Flags().Float64Var(&class.Price, "price", 0, "single visit price")
	return cmd
}
