// Package service defines the interfaces shared between application layers.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/recollect/internal/model"
)

// SnapshotSource supplies read-only copies of the user's records.
type SnapshotSource interface {
	LoadSnapshot(ctx context.Context) (model.Snapshot, error)
}

// MerchantProfileStore persists merchant classifications.
type MerchantProfileStore interface {
	GetMerchantProfile(ctx context.Context, name string) (*model.MerchantProfile, error)
	SaveMerchantProfile(ctx context.Context, profile *model.MerchantProfile) error
	ListMerchantProfiles(ctx context.Context) ([]model.MerchantProfile, error)
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	SnapshotSource
	MerchantProfileStore

	// Record operations
	SaveNotes(ctx context.Context, notes []model.Note) error
	SaveTasks(ctx context.Context, tasks []model.Task) error
	SaveLocations(ctx context.Context, locations []model.Location) error
	SaveEmails(ctx context.Context, emails []model.Email) error
	SaveReceipts(ctx context.Context, receipts []model.Receipt) error
	GetReceiptsByDateRange(ctx context.Context, start, end time.Time) ([]model.Receipt, error)
	CountRecords(ctx context.Context) (map[model.Kind]int, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
