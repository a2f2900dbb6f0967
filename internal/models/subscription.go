package models

import "time"

type SubscriptionType struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	ClassID       int64   `json:"class_id"`
	VisitsAllowed int     `json:"visits_allowed"`
	Price         float64 `json:"price"`
}

type Subscription struct {
	ID                 int64     `json:"id"`
	UserID             int64     `json:"user_id"`
	SubscriptionTypeID int64     `json:"subscription_type_id"`
	VisitsRemaining    int       `json:"visits_remaining"`
	PurchaseDate       time.Time `json:"purchase_date"`
	// Name is the subscription type name, filled by listing queries.
	Name string `json:"name"`
}

// ActiveSubscription joins a subscription with its type and class.
type ActiveSubscription struct {
	ID              int64
	Name            string
	ClassID         int64
	ClassName       string
	VisitsAllowed   int
	VisitsRemaining int
	Price           float64
	PurchaseDate    time.Time
}
