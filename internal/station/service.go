package station

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mahatati/mahatati/internal/api/models"
	"github.com/mahatati/mahatati/internal/auth"
	"github.com/mahatati/mahatati/internal/events"
)

// Service errors.
var (
	ErrNotAuthorized     = errors.New("not authorized to modify this station")
	ErrInvalidTransition = errors.New("invalid verification transition")
)

// Cache keys for station lists.
const (
	cacheKeyAll         = "all"
	cacheKeyOwnerPrefix = "owner:"
)

// ListCache caches station lists by key. Implementations must be safe for
// concurrent use.
type ListCache interface {
	Get(key string) ([]*Station, bool)
	Set(key string, value []*Station)
	Remove(keys ...string)
}

// OwnerCounter reports how many owner profiles exist.
type OwnerCounter interface {
	Count(ctx context.Context) (int, error)
}

// Recorder receives directory metrics.
type Recorder interface {
	RecordMutation(ctx context.Context, kind string)
	RecordPublishFailure(ctx context.Context, eventType string)
	RecordSearch(ctx context.Context, hasTerm bool, results int)
}

type noopRecorder struct{}

func (noopRecorder) RecordMutation(context.Context, string)       {}
func (noopRecorder) RecordPublishFailure(context.Context, string) {}
func (noopRecorder) RecordSearch(context.Context, bool, int)      {}

// ServiceConfig holds the station service collaborators. Cache, Publisher,
// Owners and Recorder are optional.
type ServiceConfig struct {
	Repository Repository
	Cache      ListCache
	Publisher  events.Publisher
	Owners     OwnerCounter
	Recorder   Recorder
	Logger     zerolog.Logger
}

// Service provides station directory operations.
type Service struct {
	repo      Repository
	cache     ListCache
	publisher events.Publisher
	owners    OwnerCounter
	recorder  Recorder
	logger    zerolog.Logger
	now       func() time.Time

	// cacheMu orders cache fills against invalidation. generation is bumped
	// on every invalidate so a fill that raced a write is discarded.
	cacheMu    sync.Mutex
	generation uint64
}

// NewService creates a new station service.
func NewService(cfg ServiceConfig) *Service {
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	var recorder Recorder = noopRecorder{}
	if cfg.Recorder != nil {
		recorder = cfg.Recorder
	}

	return &Service{
		repo:      cfg.Repository,
		cache:     cfg.Cache,
		publisher: publisher,
		owners:    cfg.Owners,
		recorder:  recorder,
		logger:    cfg.Logger.With().Str("component", "station_service").Logger(),
		now:       time.Now,
	}
}

// Search returns the public directory filtered by params. The summary is
// computed over the unfiltered directory.
func (s *Service) Search(ctx context.Context, params QueryParams) (*models.StationSearchResponse, error) {
	all, err := s.listCached(ctx, cacheKeyAll, ListOptions{})
	if err != nil {
		return nil, err
	}

	filtered := Filter(all, params)
	s.recorder.RecordSearch(ctx, params.SearchTerm != "", len(filtered))

	result := &models.StationSearchResponse{
		Items:   toPublicStations(filtered),
		Summary: toAPISummary(Summarize(all)),
		Map:     toAPIMap(filtered),
		Query: models.StationQuery{
			Q:      params.SearchTerm,
			Status: string(ParseStatusFilter(string(params.Status))),
			Fuel:   string(ParseFuelFilter(string(params.Fuel))),
		},
	}
	return result, nil
}

// Get retrieves a single station without its identity documents.
func (s *Service) Get(ctx context.Context, id string) (*models.Station, error) {
	st, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	result := toPublicStation(st)
	return &result, nil
}

// ListOwned returns an owner's stations with a summary over them.
func (s *Service) ListOwned(ctx context.Context, ownerID string) (*models.OwnerStationsResponse, error) {
	owned, err := s.listCached(ctx, cacheKeyOwnerPrefix+ownerID, ListOptions{OwnerID: ownerID})
	if err != nil {
		return nil, err
	}

	return &models.OwnerStationsResponse{
		Items:   toAPIStations(owned),
		Summary: toAPISummary(Summarize(owned)),
	}, nil
}

// AdminList returns every station filtered by search term and verification
// status, with an unfiltered summary and the number of registered owners.
// The search term matches name and city only.
func (s *Service) AdminList(ctx context.Context, params QueryParams) (*models.AdminStationsResponse, error) {
	all, err := s.listCached(ctx, cacheKeyAll, ListOptions{})
	if err != nil {
		return nil, err
	}

	adminParams := QueryParams{
		SearchTerm:      params.SearchTerm,
		Verification:    params.Verification,
		NameAndCityOnly: true,
	}

	totalOwners := 0
	if s.owners != nil {
		totalOwners, err = s.owners.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("counting owners: %w", err)
		}
	}

	filtered := Filter(all, adminParams)
	items := toAPIStations(filtered)
	for i, st := range filtered {
		for _, d := range Decisions(st.VerificationStatus) {
			items[i].Decisions = append(items[i].Decisions, string(d))
		}
	}

	return &models.AdminStationsResponse{
		Items:       items,
		Summary:     toAPISummary(Summarize(all)),
		TotalOwners: totalOwners,
		Query: models.StationQuery{
			Q:            params.SearchTerm,
			Status:       string(StatusAll),
			Fuel:         string(FuelAll),
			Verification: string(ParseVerificationFilter(string(params.Verification))),
		},
	}, nil
}

// Create registers a new station for an owner. New stations start active
// and pending verification.
func (s *Service) Create(ctx context.Context, ownerID string, input *models.StationCreateRequest) (*models.Station, error) {
	if fieldErrors := validateCreateInput(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	now := s.now()
	st := &Station{
		ID:                 "stn_" + uuid.New().String()[:22],
		OwnerID:            ownerID,
		Name:               trim(input.Name),
		StationNumber:      optionalString(input.StationNumber),
		City:               optionalString(&input.City),
		Address:            optionalString(input.Address),
		Phone:              optionalString(input.Phone),
		FuelTypes:          normalizeFuelTypes(input.FuelTypes),
		IsActive:           true,
		VerificationStatus: VerificationPending,
		Lat:                copyFloat(input.Lat),
		Lng:                copyFloat(input.Lng),
		PassportImageURL:   optionalString(input.PassportImageURL),
		LicenseImageURL:    optionalString(input.LicenseImageURL),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.repo.Create(ctx, st); err != nil {
		return nil, err
	}

	s.invalidate(ownerID)
	ev := events.New(events.TypeStationCreated, st.ID)
	ev.OwnerID = ownerID
	ev.ActorID = ownerID
	ev.Status = string(st.VerificationStatus)
	s.publish(ctx, ev)

	s.logger.Info().Str("station_id", st.ID).Str("owner_id", ownerID).Msg("station created")

	result := toAPIStation(st)
	return &result, nil
}

// Update applies a partial update to an owner's station. Editing does not
// change the verification status.
func (s *Service) Update(ctx context.Context, ownerID, id string, input *models.StationUpdateRequest) (*models.Station, error) {
	st, err := s.getOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if fieldErrors := validateUpdateInput(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	if input.Name != nil {
		st.Name = trim(*input.Name)
	}
	if input.StationNumber != nil {
		st.StationNumber = optionalString(input.StationNumber)
	}
	if input.City != nil {
		st.City = optionalString(input.City)
	}
	if input.Address != nil {
		st.Address = optionalString(input.Address)
	}
	if input.Phone != nil {
		st.Phone = optionalString(input.Phone)
	}
	if input.FuelTypes != nil {
		st.FuelTypes = normalizeFuelTypes(input.FuelTypes)
	}
	if input.Lat != nil && input.Lng != nil {
		st.Lat = copyFloat(input.Lat)
		st.Lng = copyFloat(input.Lng)
	}
	if input.PassportImageURL != nil {
		st.PassportImageURL = optionalString(input.PassportImageURL)
	}
	if input.LicenseImageURL != nil {
		st.LicenseImageURL = optionalString(input.LicenseImageURL)
	}
	st.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, st); err != nil {
		return nil, err
	}

	s.invalidate(ownerID)
	ev := events.New(events.TypeStationUpdated, st.ID)
	ev.OwnerID = ownerID
	ev.ActorID = ownerID
	s.publish(ctx, ev)

	result := toAPIStation(st)
	return &result, nil
}

// ToggleActive flips whether an owner's station is open.
func (s *Service) ToggleActive(ctx context.Context, ownerID, id string) (*models.Station, error) {
	st, err := s.getOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	st.IsActive = !st.IsActive
	st.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, st); err != nil {
		return nil, err
	}

	s.invalidate(ownerID)
	active := st.IsActive
	ev := events.New(events.TypeStationActivityChanged, st.ID)
	ev.OwnerID = ownerID
	ev.ActorID = ownerID
	ev.IsActive = &active
	s.publish(ctx, ev)

	result := toAPIStation(st)
	return &result, nil
}

// Delete removes a station. Owners may delete their own stations,
// administrators may delete any.
func (s *Service) Delete(ctx context.Context, principal *auth.Principal, id string) error {
	if principal == nil {
		return ErrNotAuthorized
	}

	st, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if st.OwnerID != principal.UserID && !principal.IsAdmin() {
		return ErrNotAuthorized
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidate(st.OwnerID)
	ev := events.New(events.TypeStationDeleted, st.ID)
	ev.OwnerID = st.OwnerID
	ev.ActorID = principal.UserID
	s.publish(ctx, ev)

	s.logger.Info().
		Str("station_id", id).
		Str("owner_id", st.OwnerID).
		Str("actor_id", principal.UserID).
		Msg("station deleted")

	return nil
}

// SetVerification records an administrator's decision. Only verified and
// rejected may be set. Re-applying the current status is a no-op.
func (s *Service) SetVerification(ctx context.Context, actorID, id, status string) (*models.Station, error) {
	target, ok := ParseVerificationStatus(status)
	if !ok || target == VerificationPending {
		return nil, &ValidationError{Errors: []models.FieldError{{
			Field:   "status",
			Message: "must be one of: verified, rejected",
			Code:    "INVALID_VALUE",
		}}}
	}

	st, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if st.VerificationStatus == target {
		result := toAPIStation(st)
		return &result, nil
	}
	if !CanTransition(st.VerificationStatus, target) {
		return nil, ErrInvalidTransition
	}

	previous := st.VerificationStatus
	st.VerificationStatus = target
	st.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, st); err != nil {
		return nil, err
	}

	s.invalidate(st.OwnerID)
	ev := events.New(events.TypeStationVerificationChanged, st.ID)
	ev.OwnerID = st.OwnerID
	ev.ActorID = actorID
	ev.Status = string(target)
	s.publish(ctx, ev)

	s.logger.Info().
		Str("station_id", id).
		Str("actor_id", actorID).
		Str("from", string(previous)).
		Str("to", string(target)).
		Msg("verification status changed")

	result := toAPIStation(st)
	return &result, nil
}

// Count returns the number of stored stations, read straight from the
// repository.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// Snapshot returns the public directory with its summary, read straight
// from the repository.
func (s *Service) Snapshot(ctx context.Context) ([]models.Station, models.StationSummary, error) {
	all, err := s.repo.List(ctx, ListOptions{})
	if err != nil {
		return nil, models.StationSummary{}, err
	}
	return toPublicStations(all), toAPISummary(Summarize(all)), nil
}

// getOwned loads a station and checks that ownerID owns it.
func (s *Service) getOwned(ctx context.Context, ownerID, id string) (*Station, error) {
	st, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if st.OwnerID != ownerID {
		return nil, ErrNotAuthorized
	}
	return st, nil
}

func (s *Service) listCached(ctx context.Context, key string, opts ListOptions) ([]*Station, error) {
	if s.cache == nil {
		return s.repo.List(ctx, opts)
	}

	if list, ok := s.cache.Get(key); ok {
		return list, nil
	}

	s.cacheMu.Lock()
	gen := s.generation
	s.cacheMu.Unlock()

	list, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, err
	}

	s.cacheMu.Lock()
	if s.generation == gen {
		s.cache.Set(key, list)
	}
	s.cacheMu.Unlock()
	return list, nil
}

// invalidate drops the cached directory and the owner's list.
func (s *Service) invalidate(ownerID string) {
	if s.cache == nil {
		return
	}
	s.cacheMu.Lock()
	s.generation++
	s.cache.Remove(cacheKeyAll, cacheKeyOwnerPrefix+ownerID)
	s.cacheMu.Unlock()
}

// publish records the mutation and sends its event. Failures are logged
// and never fail the caller.
func (s *Service) publish(ctx context.Context, ev events.Event) {
	s.recorder.RecordMutation(ctx, mutationKind(ev.Type))
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.recorder.RecordPublishFailure(ctx, string(ev.Type))
		s.logger.Warn().
			Err(err).
			Str("event_id", ev.ID).
			Str("event_type", string(ev.Type)).
			Str("station_id", ev.StationID).
			Msg("failed to publish station event")
	}
}

func mutationKind(t events.Type) string {
	switch t {
	case events.TypeStationCreated:
		return "create"
	case events.TypeStationUpdated:
		return "update"
	case events.TypeStationActivityChanged:
		return "toggle_active"
	case events.TypeStationDeleted:
		return "delete"
	case events.TypeStationVerificationChanged:
		return "verification"
	default:
		return string(t)
	}
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
