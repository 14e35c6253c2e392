package services

import (
	"context"
	"fmt"
	"sync"

	"spendlog/internal/core"
)

type HomeRepository interface {
	LoadHome(ctx context.Context) (core.Option[core.Location], error)
	SaveHome(ctx context.Context, loc core.Option[core.Location]) error
}

// Geocoder resolves free text to candidate locations.
type Geocoder interface {
	Search(ctx context.Context, query string) ([]core.Location, error)
}

// LocationService keeps the saved home location and looks up places.
type LocationService struct {
	repo     HomeRepository
	geocoder Geocoder
	mu       sync.Mutex
}

// NewLocationService creates the service. geocoder may be nil, in which
// case Search always returns no candidates.
func NewLocationService(repo HomeRepository, geocoder Geocoder) *LocationService {
	return &LocationService{repo: repo, geocoder: geocoder}
}

func (s *LocationService) Home(ctx context.Context) (core.Option[core.Location], error) {
	return s.repo.LoadHome(ctx)
}

// SetHome stores loc; None clears it.
func (s *LocationService) SetHome(ctx context.Context, loc core.Option[core.Location]) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.SaveHome(ctx, loc); err != nil {
		return fmt.Errorf("save home location: %w", err)
	}
	return nil
}

func (s *LocationService) Search(ctx context.Context, query string) ([]core.Location, error) {
	if s.geocoder == nil {
		return []core.Location{}, nil
	}
	return s.geocoder.Search(ctx, query)
}
