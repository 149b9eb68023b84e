package merchant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/recollect/internal/common"
	"github.com/Veraticus/recollect/internal/model"
	"github.com/Veraticus/recollect/internal/service"
)

// Config holds configuration options for the merchant service.
type Config struct {
	Clock    func() time.Time
	CacheTTL time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Clock:    time.Now,
		CacheTTL: 24 * time.Hour,
	}
}

// Service resolves merchant profiles from, in order, the cache, the
// profile store, the built-in table, and the classifier. Newly classified
// merchants are persisted.
type Service struct {
	store      service.MerchantProfileStore
	detector   *Detector
	classifier Classifier
	cache      *profileCache
	clock      func() time.Time
}

// NewService creates a merchant service. store and classifier may be nil.
func NewService(store service.MerchantProfileStore, detector *Detector, classifier Classifier, cfg Config) *Service {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Service{
		store:      store,
		detector:   detector,
		classifier: classifier,
		cache:      newProfileCache(cfg.CacheTTL, cfg.Clock),
		clock:      cfg.Clock,
	}
}

// Lookup returns profiles for the known merchants among names, keyed by the
// names as given. When the classifier fails, the profiles resolved so far
// are returned along with an error wrapping common.ErrMerchantLookup.
func (s *Service) Lookup(ctx context.Context, names []string) (map[string]model.MerchantProfile, error) {
	result := make(map[string]model.MerchantProfile, len(names))
	var pending []string
	seen := make(map[string]struct{}, len(names))

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("%w: %w", common.ErrMerchantLookup, err)
		}

		key := cacheKey(name)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if profile, ok := s.cache.get(name); ok {
			if !profile.IsUnknown() {
				result[name] = profile
			}
			continue
		}

		if profile, ok := s.fromStore(ctx, name); ok {
			s.cache.set(name, profile)
			result[name] = profile
			continue
		}

		if s.detector != nil {
			if profile, ok := s.detector.Match(name); ok {
				s.remember(ctx, name, profile)
				result[name] = profile
				continue
			}
		}

		pending = append(pending, name)
	}

	if len(pending) == 0 || s.classifier == nil {
		return result, nil
	}

	classified, err := s.classifier.Classify(ctx, pending)
	if err != nil {
		return result, fmt.Errorf("%w: %w", common.ErrMerchantLookup, err)
	}

	for _, name := range pending {
		profile, ok := classified[name]
		if !ok {
			s.cache.set(name, model.MerchantProfile{Name: name})
			continue
		}
		profile.Source = model.SourceAuto
		s.remember(ctx, name, profile)
		result[name] = profile
	}

	slog.Debug("classified merchants",
		"requested", len(pending),
		"classified", len(classified))
	return result, nil
}

func (s *Service) fromStore(ctx context.Context, name string) (model.MerchantProfile, bool) {
	if s.store == nil {
		return model.MerchantProfile{}, false
	}
	profile, err := s.store.GetMerchantProfile(ctx, name)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			slog.Warn("failed to read merchant profile", "merchant", name, "error", err)
		}
		return model.MerchantProfile{}, false
	}
	if profile == nil || profile.IsUnknown() {
		return model.MerchantProfile{}, false
	}
	return *profile, true
}

// remember caches profile and persists it. Persistence failures are logged.
func (s *Service) remember(ctx context.Context, name string, profile model.MerchantProfile) {
	profile.Name = name
	profile.LastUpdated = s.clock()
	s.cache.set(name, profile)

	if s.store == nil {
		return
	}
	if err := s.store.SaveMerchantProfile(ctx, &profile); err != nil {
		slog.Warn("failed to save merchant profile", "merchant", name, "error", err)
	}
}

// SetManual records a user supplied classification, replacing any other.
func (s *Service) SetManual(ctx context.Context, name, merchantType string, products []string) (*model.MerchantProfile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("merchant name is required")
	}

	profile := model.MerchantProfile{
		Name:        name,
		Type:        strings.ToLower(strings.TrimSpace(merchantType)),
		Products:    normalizeProducts(products),
		Source:      model.SourceManual,
		LastUpdated: s.clock(),
	}
	if profile.IsUnknown() {
		return nil, fmt.Errorf("merchant type or products are required")
	}

	if s.store != nil {
		if err := s.store.SaveMerchantProfile(ctx, &profile); err != nil {
			return nil, fmt.Errorf("failed to save merchant profile: %w", err)
		}
	}
	s.cache.set(name, profile)
	return &profile, nil
}

// List returns every persisted merchant profile.
func (s *Service) List(ctx context.Context) ([]model.MerchantProfile, error) {
	if s.store == nil {
		return nil, nil
	}
	profiles, err := s.store.ListMerchantProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list merchant profiles: %w", err)
	}
	return profiles, nil
}

// Close stops the cache's background cleanup.
func (s *Service) Close() error {
	s.cache.close()
	return nil
}
