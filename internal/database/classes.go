package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"yogastudio/internal/models"

	sq "github.com/Masterminds/squirrel"
)

var classColumns = []string{"id", "name", "description", "starts_at", "max_participants", "price", "created_at"}

// ClassFilter narrows class listings. Zero bounds are open.
type ClassFilter struct {
	From time.Time
	To   time.Time
}

func (db *DB) CreateClass(ctx context.Context, class *models.Class) error {
	return insertClass(ctx, db, class)
}

func insertClass(ctx context.Context, q querier, class *models.Class) error {
	if class.Name == "" {
		return fmt.Errorf("class name is required: %w", ErrValidation)
	}
	if class.MaxParticipants <= 0 {
		return fmt.Errorf("class capacity must be positive: %w", ErrValidation)
	}
	if class.Price < 0 {
		return fmt.Errorf("class price must not be negative: %w", ErrValidation)
	}

	query := `INSERT INTO classes (name, description, starts_at, max_participants, price, created_at)
              VALUES (?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	result, err := q.ExecContext(ctx, query,
		class.Name,
		class.Description,
		class.StartsAt.UTC(),
		class.MaxParticipants,
		class.Price,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create class: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	class.ID = id
	class.CreatedAt = now
	return nil
}

// GetClass returns nil, nil when the class does not exist.
func (db *DB) GetClass(ctx context.Context, id int64) (*models.Class, error) {
	query, args, err := sq.Select(classColumns...).From("classes").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build class query: %w", err)
	}

	var c models.Class
	err = db.QueryRowContext(ctx, query, args...).Scan(
		&c.ID, &c.Name, &c.Description, &c.StartsAt, &c.MaxParticipants, &c.Price, &c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get class: %w", err)
	}
	return &c, nil
}

// ListClasses returns classes ordered by start time.
func (db *DB) ListClasses(ctx context.Context, filter ClassFilter) ([]*models.Class, error) {
	builder := sq.Select(classColumns...).From("classes").OrderBy("starts_at", "id")
	if !filter.From.IsZero() {
		builder = builder.Where(sq.GtOrEq{"starts_at": filter.From.UTC()})
	}
	if !filter.To.IsZero() {
		builder = builder.Where(sq.Lt{"starts_at": filter.To.UTC()})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build classes query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}
	defer rows.Close()

	classes := make([]*models.Class, 0)
	for rows.Next() {
		c := &models.Class{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.StartsAt, &c.MaxParticipants, &c.Price, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan class: %w", err)
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

func (db *DB) ListAllClasses(ctx context.Context) ([]*models.Class, error) {
	return db.ListClasses(ctx, ClassFilter{})
}
