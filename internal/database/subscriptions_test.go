package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"yogastudio/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionLifecycle(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	user := mustUser(t, db, 10)
	class := mustClass(t, db, time.Hour, 5)

	st := &models.SubscriptionType{Name: "5 занятий", ClassID: class.ID, VisitsAllowed: 2, Price: 3500}
	require.NoError(t, db.CreateSubscriptionType(ctx, st))

	types, err := db.ListSubscriptionTypesByClass(ctx, class.ID)
	require.NoError(t, err)
	require.Len(t, types, 1)

	none, err := db.ListSubscriptionTypesByClass(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, none)

	gotType, err := db.GetSubscriptionType(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, gotType.VisitsAllowed)

	missingType, err := db.GetSubscriptionType(ctx, 999)
	assert.NoError(t, err)
	assert.Nil(t, missingType)

	sub := &models.Subscription{UserID: user.ID, SubscriptionTypeID: st.ID, VisitsRemaining: st.VisitsAllowed}
	require.NoError(t, db.CreateSubscription(ctx, sub))
	assert.False(t, sub.PurchaseDate.IsZero())

	subs, err := db.ListSubscriptionsByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "5 занятий", subs[0].Name)

	active, err := db.ListActiveSubscriptions(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, class.Name, active[0].ClassName)
	assert.Equal(t, 2, active[0].VisitsRemaining)

	require.NoError(t, db.DecrementVisits(ctx, sub.ID))
	require.NoError(t, db.DecrementVisits(ctx, sub.ID))
	assert.True(t, errors.Is(db.DecrementVisits(ctx, sub.ID), ErrNoVisitsLeft))

	active, err = db.ListActiveSubscriptions(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, active)

	subs, err = db.ListSubscriptionsByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, subs[0].VisitsRemaining)
}

func TestCreateSubscriptionTypeValidation(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	class := mustClass(t, db, time.Hour, 5)
	err := db.CreateSubscriptionType(context.Background(), &models.SubscriptionType{Name: "x", ClassID: class.ID})
	assert.True(t, errors.Is(err, ErrValidation))
}
