// Package testutil provides test databases seeded with personal records.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/recollect/internal/model"
	"github.com/Veraticus/recollect/internal/service"
	"github.com/Veraticus/recollect/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage  service.Storage
	t        *testing.T
	Snapshot model.Snapshot
}

// SetupTestDB creates a migrated in-memory database seeded with snap.
// The database is closed when the test finishes.
//
// Example:
//
//	db := testutil.SetupTestDB(t, testutil.NewSnapshotBuilder().
//		WithFixture(testutil.FixtureWeekOfSpending).
//		Build())
func SetupTestDB(t *testing.T, snap model.Snapshot) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{Snapshot: snap})
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup    func(context.Context, service.Storage) error
	Profiles       []model.MerchantProfile
	Snapshot       model.Snapshot
	SkipMigrations bool
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	ctx := context.Background()

	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	db := &TestDB{Storage: store, Snapshot: opts.Snapshot, t: t}
	db.Seed(opts.Snapshot)

	for i := range opts.Profiles {
		if err := store.SaveMerchantProfile(ctx, &opts.Profiles[i]); err != nil {
			t.Fatalf("failed to seed merchant profile %q: %v", opts.Profiles[i].Name, err)
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return db
}

// Seed saves every record in snap, failing the test on error.
func (db *TestDB) Seed(snap model.Snapshot) {
	db.t.Helper()
	ctx := context.Background()

	steps := []struct {
		save func() error
		kind model.Kind
	}{
		{kind: model.KindNote, save: func() error { return db.Storage.SaveNotes(ctx, snap.Notes) }},
		{kind: model.KindTask, save: func() error { return db.Storage.SaveTasks(ctx, snap.Tasks) }},
		{kind: model.KindLocation, save: func() error { return db.Storage.SaveLocations(ctx, snap.Locations) }},
		{kind: model.KindEmail, save: func() error { return db.Storage.SaveEmails(ctx, snap.Emails) }},
		{kind: model.KindReceipt, save: func() error { return db.Storage.SaveReceipts(ctx, snap.Receipts) }},
	}
	for _, step := range steps {
		if err := step.save(); err != nil {
			db.t.Fatalf("failed to seed %s records: %v", step.kind, err)
		}
	}
}

// MustCount returns the stored count for kind or fails the test.
func (db *TestDB) MustCount(kind model.Kind) int {
	db.t.Helper()
	counts, err := db.Storage.CountRecords(context.Background())
	if err != nil {
		db.t.Fatalf("failed to count records: %v", err)
	}
	return counts[kind]
}
