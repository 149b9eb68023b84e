package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/recollect/internal/common"
	"github.com/Veraticus/recollect/internal/model"
)

// GetMerchantProfile returns the profile stored under name, ignoring case.
// It returns common.ErrNotFound when there is none.
func (s *SQLiteStorage) GetMerchantProfile(ctx context.Context, name string) (*model.MerchantProfile, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT name, type, products, source, use_count, last_updated
		FROM merchant_profiles
		WHERE name = ?
	`, name)

	profile, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("merchant profile %q: %w", name, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// SaveMerchantProfile upserts a profile. Re-saving an existing merchant
// bumps its use count.
func (s *SQLiteStorage) SaveMerchantProfile(ctx context.Context, profile *model.MerchantProfile) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateProfile(profile); err != nil {
		return err
	}

	products, err := encodeList(profile.Products)
	if err != nil {
		return err
	}
	source := profile.Source
	if source == "" {
		source = model.SourceAuto
	}
	updated := profile.LastUpdated
	if updated.IsZero() {
		updated = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO merchant_profiles (name, type, products, source, use_count, last_updated)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			type = excluded.type,
			products = excluded.products,
			source = excluded.source,
			use_count = merchant_profiles.use_count + 1,
			last_updated = excluded.last_updated
	`, profile.Name, profile.Type, products, string(source), max(profile.UseCount, 1), updated)
	if err != nil {
		return fmt.Errorf("failed to save merchant profile %s: %w", profile.Name, err)
	}
	return nil
}

// ListMerchantProfiles returns every stored profile ordered by name.
func (s *SQLiteStorage) ListMerchantProfiles(ctx context.Context) ([]model.MerchantProfile, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, type, products, source, use_count, last_updated
		FROM merchant_profiles
		ORDER BY name COLLATE NOCASE
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query merchant profiles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var profiles []model.MerchantProfile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (model.MerchantProfile, error) {
	var (
		p        model.MerchantProfile
		products string
		source   string
		updated  sql.NullTime
	)
	if err := row.Scan(&p.Name, &p.Type, &products, &source, &p.UseCount, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("failed to scan merchant profile: %w", err)
	}
	p.Source = model.ProfileSource(source)
	if updated.Valid {
		p.LastUpdated = updated.Time
	}
	list, err := decodeList(products)
	if err != nil {
		return p, fmt.Errorf("merchant %s: %w", p.Name, err)
	}
	p.Products = list
	return p, nil
}
