package testutil

import (
	"time"

	"github.com/Veraticus/recollect/internal/model"
)

// ReferenceTime is the "now" that every fixture is dated against:
// Friday, November 15, 2024 at 10:00 UTC.
var ReferenceTime = time.Date(2024, 11, 15, 10, 0, 0, 0, time.UTC)

// Fixture represents a predefined set of records for testing.
type Fixture interface {
	// Name returns the fixture's descriptive name.
	Name() string

	// Snapshot returns the records included in this fixture.
	Snapshot() model.Snapshot
}

type fixture struct {
	build func() model.Snapshot
	name  string
}

func (f *fixture) Name() string             { return f.name }
func (f *fixture) Snapshot() model.Snapshot { return f.build() }

func daysAgo(n int) time.Time {
	return ReferenceTime.AddDate(0, 0, -n)
}

func ptr(t time.Time) *time.Time { return &t }

// Predefined fixtures for common test scenarios.
var (
	// FixtureWeekOfSpending has receipts across the current and previous week.
	FixtureWeekOfSpending Fixture = &fixture{
		name: "WeekOfSpending",
		build: func() model.Snapshot {
			return model.Snapshot{Receipts: []model.Receipt{
				{ID: "rcpt-coffee-1", Merchant: "Blue Bottle", Amount: 6.50, Date: daysAgo(0), Category: "Coffee", LineItems: []string{"Latte"}},
				{ID: "rcpt-grocery-1", Merchant: "Whole Foods", Amount: 84.20, Date: daysAgo(2), Category: "Groceries"},
				{ID: "rcpt-gas-1", Merchant: "Shell", Amount: 45.00, Date: daysAgo(3), Category: "Gas", PaymentMethod: "Visa"},
				{ID: "rcpt-coffee-2", Merchant: "Blue Bottle", Amount: 5.25, Date: daysAgo(8), Category: "Coffee"},
				{ID: "rcpt-books-1", Merchant: "Powell's Books", Amount: 32.99, Date: daysAgo(12), Category: "Books"},
			}}
		},
	}

	// FixtureBusyDay has tasks, emails and notes centered on the reference day.
	FixtureBusyDay Fixture = &fixture{
		name: "BusyDay",
		build: func() model.Snapshot {
			return model.Snapshot{
				Tasks: []model.Task{
					{ID: "task-dentist", Title: "Dentist appointment", ScheduledTime: ptr(ReferenceTime.Add(4 * time.Hour)), Priority: "high"},
					{ID: "task-report", Title: "Finish quarterly report", TargetDate: ptr(daysAgo(-1)), Tags: []string{"work"}},
					{ID: "task-gym", Title: "Gym", ScheduledTime: ptr(daysAgo(1)), IsCompleted: true},
				},
				Emails: []model.Email{
					{ID: "mail-flight", Subject: "Your flight to Denver", Sender: "alerts@airline.example", Body: "Boarding at 7:40 AM from gate B12.", Timestamp: daysAgo(1), IsImportant: true},
					{ID: "mail-news", Subject: "Weekly digest", Sender: "news@example.com", Timestamp: daysAgo(0), IsRead: true},
				},
				Notes: []model.Note{
					{ID: "note-packing", Title: "Packing list", Content: "Jacket, charger, passport, snacks for the flight.", Folder: "Travel", CreatedAt: daysAgo(3), UpdatedAt: daysAgo(1)},
				},
			}
		},
	}

	// FixtureFavoritePlaces has saved locations in two cities.
	FixtureFavoritePlaces Fixture = &fixture{
		name: "FavoritePlaces",
		build: func() model.Snapshot {
			return model.Snapshot{Locations: []model.Location{
				{ID: "loc-bluebottle", Name: "Blue Bottle Coffee", Category: "cafe", City: "Oakland", Province: "CA", Country: "USA", Rating: 4.6, Latitude: 37.8044, Longitude: -122.2712, SavedAt: daysAgo(40)},
				{ID: "loc-tartine", Name: "Tartine Bakery", Category: "bakery", City: "San Francisco", Province: "CA", Country: "USA", Rating: 4.7, Latitude: 37.7614, Longitude: -122.4241, SavedAt: daysAgo(90)},
			}}
		},
	}
)

// SnapshotBuilder provides a fluent interface for constructing test snapshots.
type SnapshotBuilder struct {
	snap model.Snapshot
}

// NewSnapshotBuilder returns an empty builder.
func NewSnapshotBuilder() *SnapshotBuilder {
	return &SnapshotBuilder{}
}

// WithFixture appends every record from fixture.
func (b *SnapshotBuilder) WithFixture(f Fixture) *SnapshotBuilder {
	s := f.Snapshot()
	b.snap.Notes = append(b.snap.Notes, s.Notes...)
	b.snap.Tasks = append(b.snap.Tasks, s.Tasks...)
	b.snap.Locations = append(b.snap.Locations, s.Locations...)
	b.snap.Emails = append(b.snap.Emails, s.Emails...)
	b.snap.Receipts = append(b.snap.Receipts, s.Receipts...)
	return b
}

// WithReceipt appends a receipt dated daysBack days before ReferenceTime.
func (b *SnapshotBuilder) WithReceipt(id, merchant string, amount float64, daysBack int) *SnapshotBuilder {
	b.snap.Receipts = append(b.snap.Receipts, model.Receipt{
		ID:       id,
		Merchant: merchant,
		Amount:   amount,
		Date:     daysAgo(daysBack),
	})
	return b
}

// WithNote appends a note created daysBack days before ReferenceTime.
func (b *SnapshotBuilder) WithNote(id, title, content string, daysBack int) *SnapshotBuilder {
	b.snap.Notes = append(b.snap.Notes, model.Note{
		ID:        id,
		Title:     title,
		Content:   content,
		CreatedAt: daysAgo(daysBack),
	})
	return b
}

// WithTask appends a task scheduled at the given time.
func (b *SnapshotBuilder) WithTask(id, title string, at time.Time) *SnapshotBuilder {
	b.snap.Tasks = append(b.snap.Tasks, model.Task{ID: id, Title: title, ScheduledTime: ptr(at)})
	return b
}

// WithEmail appends an email received daysBack days before ReferenceTime.
func (b *SnapshotBuilder) WithEmail(id, subject, sender string, daysBack int) *SnapshotBuilder {
	b.snap.Emails = append(b.snap.Emails, model.Email{
		ID:        id,
		Subject:   subject,
		Sender:    sender,
		Timestamp: daysAgo(daysBack),
	})
	return b
}

// Build returns the assembled snapshot.
func (b *SnapshotBuilder) Build() model.Snapshot {
	return b.snap
}
