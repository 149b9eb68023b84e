package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/recollect/internal/cli"
	"github.com/Veraticus/recollect/internal/model"
	"github.com/Veraticus/recollect/internal/testutil"
)

const snapshotJSON = `{
	"notes": [{"id": "n1", "title": "Trip ideas", "content": "Kyoto in spring", "created_at": "2024-11-01T09:00:00Z", "updated_at": "2024-11-02T09:00:00Z"}],
	"receipts": [
		{"id": "r1", "merchant": "Blue Bottle", "amount": 6.5, "date": "2024-11-15T08:30:00Z", "category": "Coffee"},
		{"id": "r2", "merchant": "Shell", "amount": 45, "date": "2024-11-12T17:00:00Z", "category": "Gas"}
	]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadSnapshotFile(t *testing.T) {
	snap, err := loadSnapshotFile(writeFile(t, "export.json", snapshotJSON))
	require.NoError(t, err)

	require.Len(t, snap.Notes, 1)
	require.Len(t, snap.Receipts, 2)
	assert.Equal(t, "Blue Bottle", snap.Receipts[0].Merchant)
	assert.Equal(t, 3, snapshotSize(snap))

	_, err = loadSnapshotFile(writeFile(t, "bad.json", `{"notes": [`))
	assert.Error(t, err)

	_, err = loadSnapshotFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestMergeSnapshots(t *testing.T) {
	a := testutil.NewSnapshotBuilder().WithFixture(testutil.FixtureWeekOfSpending).Build()
	b := testutil.NewSnapshotBuilder().WithFixture(testutil.FixtureBusyDay).Build()

	merged := mergeSnapshots(a, b)
	assert.Len(t, merged.Receipts, 5)
	assert.Len(t, merged.Tasks, 3)
	assert.Len(t, merged.Emails, 2)
	assert.Len(t, merged.Notes, 1)
	assert.Equal(t, snapshotSize(a)+snapshotSize(b), snapshotSize(merged))
}

func TestSaveSnapshot(t *testing.T) {
	db := testutil.SetupTestDB(t, model.Snapshot{})
	snap := testutil.NewSnapshotBuilder().
		WithFixture(testutil.FixtureWeekOfSpending).
		WithFixture(testutil.FixtureBusyDay).
		WithFixture(testutil.FixtureFavoritePlaces).
		Build()

	var out bytes.Buffer
	progress := cli.NewProgress(&out, snapshotSize(snap), "Importing records...")

	saved, err := saveSnapshot(context.Background(), db.Storage, snap, progress)
	require.NoError(t, err)

	assert.Equal(t, snapshotSize(snap), progress.Done())
	assert.Equal(t, 5, saved[model.KindReceipt])
	assert.Equal(t, 2, saved[model.KindLocation])
	assert.Equal(t, 5, db.MustCount(model.KindReceipt))
	assert.Equal(t, 3, db.MustCount(model.KindTask))
	assert.Equal(t, 2, db.MustCount(model.KindLocation))
}

func TestSaveSnapshot_InvalidRecordStopsThatKind(t *testing.T) {
	db := testutil.SetupTestDB(t, model.Snapshot{})
	snap := model.Snapshot{
		Notes:    []model.Note{{ID: "n1", Title: "Fine"}},
		Receipts: []model.Receipt{{ID: "r1", Amount: 5, Date: testutil.ReferenceTime}},
	}

	saved, err := saveSnapshot(context.Background(), db.Storage, snap, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "receipts")
	assert.Equal(t, 1, saved[model.KindNote])
	assert.Equal(t, 1, db.MustCount(model.KindNote))
	assert.Equal(t, 0, db.MustCount(model.KindReceipt))
}

func TestSaveSnapshot_Canceled(t *testing.T) {
	db := testutil.SetupTestDB(t, model.Snapshot{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	snap := testutil.NewSnapshotBuilder().WithFixture(testutil.FixtureWeekOfSpending).Build()
	_, err := saveSnapshot(ctx, db.Storage, snap, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, db.MustCount(model.KindReceipt))
}

func TestExpandFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"jan.qfx", "feb.qfx", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0600))
	}

	files, err := expandFiles([]string{filepath.Join(dir, "*.qfx"), filepath.Join(dir, "jan.qfx")})
	require.NoError(t, err)
	assert.Len(t, files, 2)

	_, err = expandFiles([]string{filepath.Join(dir, "*.ofx")})
	assert.Error(t, err)
}

func TestPrintStatementSummary(t *testing.T) {
	receipts := []model.Receipt{
		{ID: "a", Merchant: "Shell", Amount: 45, Date: testutil.ReferenceTime, Category: "Gas"},
		{ID: "b", Merchant: "Safeway", Amount: 20.5, Date: testutil.ReferenceTime.Add(-72 * time.Hour)},
	}

	var out bytes.Buffer
	printStatementSummary(&out, receipts, map[string]int{"nov.qfx": 2}, false)

	assert.Contains(t, out.String(), "nov.qfx: 2 receipts")
	assert.Contains(t, out.String(), "2024-11-12 to 2024-11-15 (3 days)")
	assert.Contains(t, out.String(), "$65.50")
	assert.Contains(t, out.String(), "Safeway")
}
