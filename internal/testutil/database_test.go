package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/recollect/internal/model"
	"github.com/Veraticus/recollect/internal/service"
)

func TestSetupTestDB_SeedsFixtures(t *testing.T) {
	snap := NewSnapshotBuilder().
		WithFixture(FixtureWeekOfSpending).
		WithFixture(FixtureBusyDay).
		WithFixture(FixtureFavoritePlaces).
		WithReceipt("extra", "Corner Store", 3.10, 1).
		Build()

	db := SetupTestDB(t, snap)

	assert.Equal(t, 6, db.MustCount(model.KindReceipt))
	assert.Equal(t, 3, db.MustCount(model.KindTask))
	assert.Equal(t, 2, db.MustCount(model.KindEmail))
	assert.Equal(t, 1, db.MustCount(model.KindNote))
	assert.Equal(t, 2, db.MustCount(model.KindLocation))

	loaded, err := db.Storage.LoadSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rcpt-coffee-1", loaded.Receipts[0].ID, "newest receipt first")
}

func TestSetupTestDBWithOptions(t *testing.T) {
	called := false
	db := SetupTestDBWithOptions(t, TestDBOptions{
		Profiles: []model.MerchantProfile{
			{Name: "Blue Bottle", Type: "coffee shop", Products: []string{"coffee"}, Source: model.SourceManual},
		},
		CustomSetup: func(ctx context.Context, s service.Storage) error {
			called = true
			return s.SaveNotes(ctx, []model.Note{{ID: "n", Title: "Seeded", CreatedAt: ReferenceTime}})
		},
	})

	assert.True(t, called)
	assert.Equal(t, 1, db.MustCount(model.KindNote))

	profile, err := db.Storage.GetMerchantProfile(context.Background(), "blue bottle")
	require.NoError(t, err)
	assert.Equal(t, model.SourceManual, profile.Source)
}

func TestFixturesAreIndependentCopies(t *testing.T) {
	a := FixtureWeekOfSpending.Snapshot()
	a.Receipts[0].Merchant = "changed"

	b := FixtureWeekOfSpending.Snapshot()
	assert.Equal(t, "Blue Bottle", b.Receipts[0].Merchant)
	assert.Equal(t, "WeekOfSpending", FixtureWeekOfSpending.Name())
}
