package station

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing and local development. Production should use PostgresRepository.
type InMemoryRepository struct {
	mu       sync.RWMutex
	stations map[string]*Station
}

// NewInMemoryRepository creates a new in-memory station repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		stations: make(map[string]*Station),
	}
}

// Get retrieves a station by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Station, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.stations[id]
	if !ok {
		return nil, ErrStationNotFound
	}

	return copyStation(s), nil
}

// List retrieves stations, newest first.
func (r *InMemoryRepository) List(_ context.Context, opts ListOptions) ([]*Station, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stations := make([]*Station, 0, len(r.stations))
	for _, s := range r.stations {
		if opts.OwnerID != "" && s.OwnerID != opts.OwnerID {
			continue
		}
		stations = append(stations, copyStation(s))
	}

	sort.SliceStable(stations, func(i, j int) bool {
		if stations[i].CreatedAt.Equal(stations[j].CreatedAt) {
			return stations[i].ID > stations[j].ID
		}
		return stations[i].CreatedAt.After(stations[j].CreatedAt)
	})

	return stations, nil
}

// Create creates a new station.
func (r *InMemoryRepository) Create(_ context.Context, s *Station) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stations[s.ID] = copyStation(s)
	return nil
}

// Update updates an existing station.
func (r *InMemoryRepository) Update(_ context.Context, s *Station) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.stations[s.ID]; !ok {
		return ErrStationNotFound
	}

	r.stations[s.ID] = copyStation(s)
	return nil
}

// Delete deletes a station by ID.
func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.stations, id)
	return nil
}

// Count returns the number of stored stations.
func (r *InMemoryRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stations), nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
