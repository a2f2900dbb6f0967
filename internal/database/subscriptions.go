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

func (db *DB) CreateSubscriptionType(ctx context.Context, st *models.SubscriptionType) error {
	return insertSubscriptionType(ctx, db, st)
}

func insertSubscriptionType(ctx context.Context, q querier, st *models.SubscriptionType) error {
	if st.VisitsAllowed <= 0 {
		return fmt.Errorf("visits_allowed must be positive: %w", ErrValidation)
	}
	result, err := q.ExecContext(ctx,
		`INSERT INTO subscription_types (name, class_id, visits_allowed, price) VALUES (?, ?, ?, ?)`,
		st.Name, st.ClassID, st.VisitsAllowed, st.Price,
	)
	if err != nil {
		return fmt.Errorf("failed to create subscription type: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	st.ID = id
	return nil
}

// GetSubscriptionType returns nil, nil when the type does not exist.
func (db *DB) GetSubscriptionType(ctx context.Context, id int64) (*models.SubscriptionType, error) {
	var st models.SubscriptionType
	err := db.QueryRowContext(ctx,
		`SELECT id, name, class_id, visits_allowed, price FROM subscription_types WHERE id = ?`, id,
	).Scan(&st.ID, &st.Name, &st.ClassID, &st.VisitsAllowed, &st.Price)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription type: %w", err)
	}
	return &st, nil
}

func (db *DB) ListSubscriptionTypesByClass(ctx context.Context, classID int64) ([]*models.SubscriptionType, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, class_id, visits_allowed, price FROM subscription_types WHERE class_id = ? ORDER BY id`, classID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscription types: %w", err)
	}
	defer rows.Close()

	var types []*models.SubscriptionType
	for rows.Next() {
		st := &models.SubscriptionType{}
		if err := rows.Scan(&st.ID, &st.Name, &st.ClassID, &st.VisitsAllowed, &st.Price); err != nil {
			return nil, fmt.Errorf("failed to scan subscription type: %w", err)
		}
		types = append(types, st)
	}
	return types, rows.Err()
}

// CreateSubscription stores a purchase. VisitsRemaining must already be set by the caller.
func (db *DB) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	if sub.VisitsRemaining < 0 {
		return fmt.Errorf("visits_remaining must not be negative: %w", ErrValidation)
	}
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx,
		`INSERT INTO subscriptions (user_id, subscription_type_id, visits_remaining, purchase_date) VALUES (?, ?, ?, ?)`,
		sub.UserID, sub.SubscriptionTypeID, sub.VisitsRemaining, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	sub.ID = id
	sub.PurchaseDate = now
	return nil
}

// ListSubscriptionsByUser lists every subscription of an internal user id.
func (db *DB) ListSubscriptionsByUser(ctx context.Context, userID int64) ([]*models.Subscription, error) {
	query, args, err := sq.Select("s.id", "s.user_id", "s.subscription_type_id", "s.visits_remaining", "s.purchase_date", "st.name").
		From("subscriptions s").
		Join("subscription_types st ON st.id = s.subscription_type_id").
		Where(sq.Eq{"s.user_id": userID}).
		OrderBy("s.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build subscriptions query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	subs := make([]*models.Subscription, 0)
	for rows.Next() {
		s := &models.Subscription{}
		if err := rows.Scan(&s.ID, &s.UserID, &s.SubscriptionTypeID, &s.VisitsRemaining, &s.PurchaseDate, &s.Name); err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// ListActiveSubscriptions lists subscriptions with visits left, joined with type and class.
func (db *DB) ListActiveSubscriptions(ctx context.Context, userID int64) ([]*models.ActiveSubscription, error) {
	query, args, err := sq.Select(
		"s.id", "st.name", "c.id", "c.name", "st.visits_allowed", "s.visits_remaining", "st.price", "s.purchase_date",
	).
		From("subscriptions s").
		Join("subscription_types st ON st.id = s.subscription_type_id").
		Join("classes c ON c.id = st.class_id").
		Where(sq.Eq{"s.user_id": userID}).
		Where(sq.Gt{"s.visits_remaining": 0}).
		OrderBy("s.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build active subscriptions query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list active subscriptions: %w", err)
	}
	defer rows.Close()

	subs := make([]*models.ActiveSubscription, 0)
	for rows.Next() {
		a := &models.ActiveSubscription{}
		if err := rows.Scan(&a.ID, &a.Name, &a.ClassID, &a.ClassName, &a.VisitsAllowed, &a.VisitsRemaining, &a.Price, &a.PurchaseDate); err != nil {
			return nil, fmt.Errorf("failed to scan active subscription: %w", err)
		}
		subs = append(subs, a)
	}
	return subs, rows.Err()
}

// DecrementVisits consumes one visit; it never drives the counter below zero.
// Booking creation does not call it.
func (db *DB) DecrementVisits(ctx context.Context, subscriptionID int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE subscriptions SET visits_remaining = visits_remaining - 1 WHERE id = ? AND visits_remaining > 0`,
		subscriptionID,
	)
	if err != nil {
		return fmt.Errorf("failed to decrement visits: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrNoVisitsLeft
	}
	return nil
}
