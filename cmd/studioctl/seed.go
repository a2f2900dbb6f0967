package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"yogastudio/internal/database"
	"yogastudio/internal/models"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

type scheduleFile struct {
	Classes []scheduleClass `yaml:"classes"`
}

type scheduleClass struct {
	Name              string             `yaml:"name"`
	Description       string             `yaml:"description"`
	Datetime          string             `yaml:"datetime"`
	MaxParticipants   int                `yaml:"max_participants"`
	Price             float64            `yaml:"price"`
	SubscriptionTypes []scheduleSubsType `yaml:"subscription_types"`
}

type scheduleSubsType struct {
	Name          string  `yaml:"name"`
	VisitsAllowed int     `yaml:"visits_allowed"`
	Price         float64 `yaml:"price"`
}

// parseSchedule reads a YAML timetable into seed entries. Datetimes without
// an offset are wall-clock times in loc.
func parseSchedule(data []byte, loc *time.Location) ([]database.SeedClass, error) {
	var f scheduleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse schedule: %w", err)
	}
	if len(f.Classes) == 0 {
		return nil, errors.New("schedule has no classes")
	}

	out := make([]database.SeedClass, 0, len(f.Classes))
	for i, c := range f.Classes {
		if c.Name == "" {
			return nil, fmt.Errorf("class #%d: name is required", i+1)
		}
		startsAt, err := models.ParseClassTime(c.Datetime, loc)
		if err != nil {
			return nil, fmt.Errorf("class %q: invalid datetime %q", c.Name, c.Datetime)
		}
		if c.MaxParticipants <= 0 {
			return nil, fmt.Errorf("class %q: max_participants must be positive", c.Name)
		}

		entry := database.SeedClass{Class: models.Class{
			Name:            c.Name,
			Description:     c.Description,
			StartsAt:        startsAt,
			MaxParticipants: c.MaxParticipants,
			Price:           c.Price,
		}}
		for _, st := range c.SubscriptionTypes {
			if st.VisitsAllowed <= 0 {
				return nil, fmt.Errorf("subscription type %q: visits_allowed must be positive", st.Name)
			}
			entry.Types = append(entry.Types, models.SubscriptionType{
				Name:          st.Name,
				VisitsAllowed: st.VisitsAllowed,
				Price:         st.Price,
			})
		}
		out = append(out, entry)
	}
	return out, nil
}

func newSeedCmd(a *app) *cobra.Command {
	var (
		file  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the timetable with starter classes",
		Long: `Seed inserts classes and their subscription types.

Without --file the built-in timetable is used: three classes over the
next three days and two visit packages for the beginners class.
A database that already has classes is left alone unless --force is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			empty, err := a.db.IsEmpty(ctx)
			if err != nil {
				return err
			}
			if !empty && !force {
				return errors.New("database already has classes, use --force to add more")
			}

			schedule := database.DefaultSchedule(time.Now())
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				if schedule, err = parseSchedule(data, a.cfg.App.Location); err != nil {
					return err
				}
			}

			if err := a.db.Seed(ctx, schedule); err != nil {
				return err
			}
			a.logger.Info().Int("classes", len(schedule)).Str("file", file).Msg("Schedule seeded")
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d classes\n", len(schedule))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML schedule to load instead of the built-in one")
	cmd.Flags().BoolVar(&force, "force", false, "seed even when classes already exist")
	return cmd
}
