package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"yogastudio/internal/models"
)

// SeedClass is a class together with the subscription types sold for it.
type SeedClass struct {
	Class models.Class
	Types []models.SubscriptionType
}

// DefaultSchedule is the starter timetable: three classes over the next three days
// and two visit packages for the beginners class.
func DefaultSchedule(now time.Time) []SeedClass {
	start := now.Truncate(time.Minute)
	return []SeedClass{
		{
			Class: models.Class{
				Name:            "Йога для начинающих",
				Description:     "Базовые асаны и дыхательные практики",
				StartsAt:        start.AddDate(0, 0, 1),
				MaxParticipants: 10,
				Price:           800,
			},
			Types: []models.SubscriptionType{
				{Name: "Абонемент на 5 занятий", VisitsAllowed: 5, Price: 3500},
				{Name: "Абонемент на 10 занятий", VisitsAllowed: 10, Price: 6000},
			},
		},
		{
			Class: models.Class{
				Name:            "Продвинутая йога",
				Description:     "Сложные асаны и медитация",
				StartsAt:        start.AddDate(0, 0, 2),
				MaxParticipants: 8,
				Price:           1000,
			},
		},
		{
			Class: models.Class{
				Name:            "Йога для беременных",
				Description:     "Мягкая практика для будущих мам",
				StartsAt:        start.AddDate(0, 0, 3),
				MaxParticipants: 6,
				Price:           900,
			},
		},
	}
}

// Seed inserts the schedule in one transaction.
func (db *DB) Seed(ctx context.Context, schedule []SeedClass) error {
	return db.WithTx(ctx, func(tx *sql.Tx) error {
		for i := range schedule {
			class := schedule[i].Class
			if err := insertClass(ctx, tx, &class); err != nil {
				return fmt.Errorf("seed class %q: %w", class.Name, err)
			}
			for j := range schedule[i].Types {
				st := schedule[i].Types[j]
				st.ClassID = class.ID
				if err := insertSubscriptionType(ctx, tx, &st); err != nil {
					return fmt.Errorf("seed subscription type %q: %w", st.Name, err)
				}
			}
		}
		return nil
	})
}

// IsEmpty reports whether no classes have been created yet.
func (db *DB) IsEmpty(ctx context.Context) (bool, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM classes`).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to count classes: %w", err)
	}
	return n == 0, nil
}
