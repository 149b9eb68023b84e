package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Veraticus/recollect/internal/model"
)

// withTx runs fn inside a transaction, committing on success.
func (s *SQLiteStorage) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// SaveNotes inserts or replaces notes by id.
func (s *SQLiteStorage) SaveNotes(ctx context.Context, notes []model.Note) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateNotes(notes); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO notes (id, title, content, folder, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, n := range notes {
			if _, err := stmt.ExecContext(ctx, n.ID, n.Title, n.Content, n.Folder, n.CreatedAt, nullTime(n.UpdatedAt)); err != nil {
				return fmt.Errorf("failed to save note %s: %w", n.ID, err)
			}
		}
		return nil
	})
}

// SaveTasks inserts or replaces tasks by id.
func (s *SQLiteStorage) SaveTasks(ctx context.Context, tasks []model.Task) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTasks(tasks); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO tasks (id, title, description, scheduled_time, target_date, is_completed, priority, tags)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, t := range tasks {
			tags, err := encodeList(t.Tags)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, t.ID, t.Title, t.Description,
				nullTimePtr(t.ScheduledTime), nullTimePtr(t.TargetDate),
				t.IsCompleted, t.Priority, tags); err != nil {
				return fmt.Errorf("failed to save task %s: %w", t.ID, err)
			}
		}
		return nil
	})
}

// SaveLocations inserts or replaces saved places by id.
func (s *SQLiteStorage) SaveLocations(ctx context.Context, locations []model.Location) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateLocations(locations); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO locations (id, name, category, folder, address, city, province, country, rating, latitude, longitude, saved_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, l := range locations {
			if _, err := stmt.ExecContext(ctx, l.ID, l.Name, l.Category, l.Folder, l.Address,
				l.City, l.Province, l.Country, l.Rating, l.Latitude, l.Longitude, l.SavedAt); err != nil {
				return fmt.Errorf("failed to save location %s: %w", l.ID, err)
			}
		}
		return nil
	})
}

// SaveEmails inserts or replaces emails by id.
func (s *SQLiteStorage) SaveEmails(ctx context.Context, emails []model.Email) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateEmails(emails); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO emails (id, subject, sender, body, folder, timestamp, is_important, is_read)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, e := range emails {
			if _, err := stmt.ExecContext(ctx, e.ID, e.Subject, e.Sender, e.Body, e.Folder,
				e.Timestamp, e.IsImportant, e.IsRead); err != nil {
				return fmt.Errorf("failed to save email %s: %w", e.ID, err)
			}
		}
		return nil
	})
}

// SaveReceipts inserts or replaces receipts by id.
func (s *SQLiteStorage) SaveReceipts(ctx context.Context, receipts []model.Receipt) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateReceipts(receipts); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO receipts (id, merchant, amount, date, category, payment_method, notes, line_items)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, r := range receipts {
			items, err := encodeList(r.LineItems)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, r.ID, r.Merchant, r.Amount, r.Date,
				r.Category, r.PaymentMethod, r.Notes, items); err != nil {
				return fmt.Errorf("failed to save receipt %s: %w", r.ID, err)
			}
		}
		return nil
	})
}

// GetReceiptsByDateRange returns receipts dated within [start, end], newest first.
func (s *SQLiteStorage) GetReceiptsByDateRange(ctx context.Context, start, end time.Time) ([]model.Receipt, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateDateRange(start, end); err != nil {
		return nil, err
	}

	return s.queryReceipts(ctx, s.db, `
		SELECT id, merchant, amount, date, category, payment_method, notes, line_items
		FROM receipts
		WHERE date >= ? AND date <= ?
		ORDER BY date DESC, id
	`, start, end)
}

func (s *SQLiteStorage) loadNotes(ctx context.Context, q queryable) ([]model.Note, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, title, content, folder, created_at, updated_at
		FROM notes
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var notes []model.Note
	for rows.Next() {
		var (
			n       model.Note
			updated sql.NullTime
		)
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &n.Folder, &n.CreatedAt, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		if updated.Valid {
			n.UpdatedAt = updated.Time
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (s *SQLiteStorage) loadTasks(ctx context.Context, q queryable) ([]model.Task, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, title, description, scheduled_time, target_date, is_completed, priority, tags
		FROM tasks
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []model.Task
	for rows.Next() {
		var (
			t                 model.Task
			scheduled, target sql.NullTime
			tags              string
		)
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &scheduled, &target,
			&t.IsCompleted, &t.Priority, &tags); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		if scheduled.Valid {
			t.ScheduledTime = &scheduled.Time
		}
		if target.Valid {
			t.TargetDate = &target.Time
		}
		if t.Tags, err = decodeList(tags); err != nil {
			return nil, fmt.Errorf("task %s: %w", t.ID, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *SQLiteStorage) loadLocations(ctx context.Context, q queryable) ([]model.Location, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, category, folder, address, city, province, country, rating, latitude, longitude, saved_at
		FROM locations
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var locations []model.Location
	for rows.Next() {
		var l model.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Category, &l.Folder, &l.Address, &l.City,
			&l.Province, &l.Country, &l.Rating, &l.Latitude, &l.Longitude, &l.SavedAt); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

func (s *SQLiteStorage) loadEmails(ctx context.Context, q queryable) ([]model.Email, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, subject, sender, body, folder, timestamp, is_important, is_read
		FROM emails
		ORDER BY timestamp DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query emails: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var emails []model.Email
	for rows.Next() {
		var e model.Email
		if err := rows.Scan(&e.ID, &e.Subject, &e.Sender, &e.Body, &e.Folder,
			&e.Timestamp, &e.IsImportant, &e.IsRead); err != nil {
			return nil, fmt.Errorf("failed to scan email: %w", err)
		}
		emails = append(emails, e)
	}
	return emails, rows.Err()
}

func (s *SQLiteStorage) queryReceipts(ctx context.Context, q queryable, query string, args ...any) ([]model.Receipt, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query receipts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var receipts []model.Receipt
	for rows.Next() {
		var (
			r     model.Receipt
			items string
		)
		if err := rows.Scan(&r.ID, &r.Merchant, &r.Amount, &r.Date, &r.Category,
			&r.PaymentMethod, &r.Notes, &items); err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}
		if r.LineItems, err = decodeList(items); err != nil {
			return nil, fmt.Errorf("receipt %s: %w", r.ID, err)
		}
		receipts = append(receipts, r)
	}
	return receipts, rows.Err()
}

func encodeList(list []string) (string, error) {
	if len(list) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("failed to encode list: %w", err)
	}
	return string(data), nil
}

func decodeList(data string) ([]string, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		return nil, fmt.Errorf("failed to decode list: %w", err)
	}
	return list, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return nullTime(*t)
}
