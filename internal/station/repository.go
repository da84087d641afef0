package station

import "context"

// ListOptions contains options for listing stations.
type ListOptions struct {
	// OwnerID restricts the list to one owner's stations when set.
	OwnerID string
}

// Repository defines the interface for station data persistence.
// List results are ordered by creation time, newest first.
type Repository interface {
	// Get retrieves a station by ID.
	Get(ctx context.Context, id string) (*Station, error)

	// List retrieves stations matching the options.
	List(ctx context.Context, opts ListOptions) ([]*Station, error)

	// Create creates a new station.
	Create(ctx context.Context, station *Station) error

	// Update updates an existing station.
	// Returns ErrStationNotFound if the station doesn't exist.
	Update(ctx context.Context, station *Station) error

	// Delete deletes a station by ID.
	Delete(ctx context.Context, id string) error

	// Count returns the number of stored stations.
	Count(ctx context.Context) (int, error)
}
