package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/recollect/internal/model"
)

// Validation errors.
var (
	ErrNilContext       = errors.New("context cannot be nil")
	ErrEmptyString      = errors.New("string parameter cannot be empty")
	ErrNilParameter     = errors.New("parameter cannot be nil")
	ErrInvalidDateRange = errors.New("start date must be before end date")
	ErrInvalidRecord    = errors.New("invalid record")
	ErrInvalidProfile   = errors.New("invalid merchant profile")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateDateRange(start, end time.Time) error {
	if end.Before(start) {
		return ErrInvalidDateRange
	}
	return nil
}

// requireFields reports the first empty field as an invalid record.
func requireFields(kind model.Kind, index int, fields ...[2]string) error {
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			return fmt.Errorf("%s at index %d: %w: missing %s", kind, index, ErrInvalidRecord, f[0])
		}
	}
	return nil
}

func validateNotes(notes []model.Note) error {
	for i, n := range notes {
		if err := requireFields(model.KindNote, i, [2]string{"ID", n.ID}, [2]string{"title", n.Title}); err != nil {
			return err
		}
	}
	return nil
}

func validateTasks(tasks []model.Task) error {
	for i, t := range tasks {
		if err := requireFields(model.KindTask, i, [2]string{"ID", t.ID}, [2]string{"title", t.Title}); err != nil {
			return err
		}
	}
	return nil
}

func validateLocations(locations []model.Location) error {
	for i, l := range locations {
		if err := requireFields(model.KindLocation, i, [2]string{"ID", l.ID}, [2]string{"name", l.Name}); err != nil {
			return err
		}
	}
	return nil
}

func validateEmails(emails []model.Email) error {
	for i, e := range emails {
		if err := requireFields(model.KindEmail, i, [2]string{"ID", e.ID}, [2]string{"sender", e.Sender}); err != nil {
			return err
		}
		if e.Timestamp.IsZero() {
			return fmt.Errorf("%s at index %d: %w: missing timestamp", model.KindEmail, i, ErrInvalidRecord)
		}
	}
	return nil
}

func validateReceipts(receipts []model.Receipt) error {
	for i, r := range receipts {
		if err := requireFields(model.KindReceipt, i, [2]string{"ID", r.ID}, [2]string{"merchant", r.Merchant}); err != nil {
			return err
		}
		if r.Date.IsZero() {
			return fmt.Errorf("%s at index %d: %w: missing date", model.KindReceipt, i, ErrInvalidRecord)
		}
	}
	return nil
}

// validateProfile validates a merchant profile.
func validateProfile(profile *model.MerchantProfile) error {
	if profile == nil {
		return fmt.Errorf("%w: profile", ErrNilParameter)
	}
	if strings.TrimSpace(profile.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidProfile)
	}
	switch profile.Source {
	case "", model.SourceBuiltin, model.SourceAuto, model.SourceManual:
	default:
		return fmt.Errorf("%w: unknown source %q", ErrInvalidProfile, profile.Source)
	}
	return nil
}
