package station_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahatati/mahatati/internal/api/models"
	"github.com/mahatati/mahatati/internal/auth"
	"github.com/mahatati/mahatati/internal/cache"
	"github.com/mahatati/mahatati/internal/events"
	"github.com/mahatati/mahatati/internal/station"
)

type fixedOwners struct {
	n   int
	err error
}

func (f fixedOwners) Count(context.Context) (int, error) { return f.n, f.err }

type testEnv struct {
	svc       *station.Service
	repo      *station.InMemoryRepository
	cache     *cache.TTLCache[[]*station.Station]
	publisher *events.InMemoryPublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	c, err := cache.New[[]*station.Station](16, time.Minute)
	require.NoError(t, err)

	env := &testEnv{
		repo:      station.NewInMemoryRepository(),
		cache:     c,
		publisher: events.NewInMemoryPublisher(),
	}
	env.svc = station.NewService(station.ServiceConfig{
		Repository: env.repo,
		Cache:      env.cache,
		Publisher:  env.publisher,
		Owners:     fixedOwners{n: 3},
		Logger:     zerolog.Nop(),
	})
	return env
}

func createRequest(name, city string) *models.StationCreateRequest {
	return &models.StationCreateRequest{
		Name:      name,
		City:      city,
		FuelTypes: []string{"benzine"},
	}
}

func (e *testEnv) create(t *testing.T, ownerID, name, city string) *models.Station {
	t.Helper()
	st, err := e.svc.Create(context.Background(), ownerID, createRequest(name, city))
	require.NoError(t, err)
	return st
}

func TestService_CreateDefaults(t *testing.T) {
	env := newTestEnv(t)

	st, err := env.svc.Create(context.Background(), "owner-1", &models.StationCreateRequest{
		Name:          "  Al Noor ",
		City:          "Tripoli",
		StationNumber: strPtr(" "),
		FuelTypes:     []string{" diesel", "diesel", "lpg", ""},
		Lat:           floatPtr(32.88),
		Lng:           floatPtr(13.19),
	})
	require.NoError(t, err)

	assert.Contains(t, st.ID, "stn_")
	assert.Equal(t, "owner-1", st.OwnerID)
	assert.Equal(t, "Al Noor", st.Name)
	assert.Nil(t, st.StationNumber)
	assert.Equal(t, []string{"diesel", "lpg"}, st.FuelTypes)
	assert.True(t, st.IsActive)
	assert.False(t, st.IsVerified)
	assert.Equal(t, "pending", st.VerificationStatus)
	require.NotNil(t, st.Location)
	assert.InDelta(t, 32.88, st.Location.Lat, 1e-9)
	require.NotNil(t, st.DirectionsURL)
	assert.Contains(t, *st.DirectionsURL, "destination=32.88,13.19")

	evs := env.publisher.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, events.TypeStationCreated, evs[0].Type)
	assert.Equal(t, st.ID, evs[0].StationID)
	assert.Equal(t, "pending", evs[0].Status)
}

func TestService_CreateValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		input *models.StationCreateRequest
		field string
	}{
		{"missing name", &models.StationCreateRequest{City: "Tripoli"}, "stationName"},
		{"missing city", &models.StationCreateRequest{Name: "Al Noor", City: "  "}, "city"},
		{"lat without lng", &models.StationCreateRequest{Name: "Al Noor", City: "Tripoli", Lat: floatPtr(1)}, "lat"},
		{"lat out of range", &models.StationCreateRequest{Name: "Al Noor", City: "Tripoli", Lat: floatPtr(91), Lng: floatPtr(1)}, "lat"},
		{"lng out of range", &models.StationCreateRequest{Name: "Al Noor", City: "Tripoli", Lat: floatPtr(1), Lng: floatPtr(-181)}, "lng"},
		{"bad url", &models.StationCreateRequest{Name: "Al Noor", City: "Tripoli", LicenseImageURL: strPtr("ftp://x")}, "licenseImageUrl"},
		{"long phone", &models.StationCreateRequest{Name: "Al Noor", City: "Tripoli", Phone: strPtr("0123456789012345678901234567890123")}, "phone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Create(context.Background(), "owner-1", tt.input)

			var vErr *station.ValidationError
			require.ErrorAs(t, err, &vErr)
			require.NotEmpty(t, vErr.Errors)
			assert.Equal(t, tt.field, vErr.Errors[0].Field)
		})
	}

	assert.Empty(t, env.publisher.Events())
}

func TestService_SearchSummarizesUnfilteredDirectory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	noor := env.create(t, "owner-1", "Al Noor", "Tripoli")
	env.create(t, "owner-2", "Al Nasr", "Benghazi")

	res, err := env.svc.Search(ctx, station.QueryParams{SearchTerm: "noor"})
	require.NoError(t, err)

	require.Len(t, res.Items, 1)
	assert.Equal(t, noor.ID, res.Items[0].ID)
	assert.Equal(t, 2, res.Summary.Total)
	assert.Equal(t, 2, res.Summary.Pending)
	assert.Equal(t, "noor", res.Query.Q)
	assert.Equal(t, "all", res.Query.Status)
	assert.Equal(t, "all", res.Query.Fuel)
	assert.Empty(t, res.Map.Markers)
	assert.Nil(t, res.Map.Center)
}

func TestService_SearchMap(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := createRequest("Al Noor", "Tripoli")
	req.Lat, req.Lng = floatPtr(32), floatPtr(13)
	_, err := env.svc.Create(ctx, "owner-1", req)
	require.NoError(t, err)
	env.create(t, "owner-1", "No Coordinates", "Sabha")

	res, err := env.svc.Search(ctx, station.QueryParams{})
	require.NoError(t, err)

	require.Len(t, res.Map.Markers, 1)
	assert.Equal(t, "Al Noor", res.Map.Markers[0].Name)
	require.NotNil(t, res.Map.Center)
	assert.InDelta(t, 32.0, res.Map.Center.Lat, 1e-9)
}

func TestService_WritesInvalidateCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	st := env.create(t, "owner-1", "Al Noor", "Tripoli")

	res, err := env.svc.Search(ctx, station.QueryParams{Status: station.StatusActive})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)

	_, err = env.svc.ToggleActive(ctx, "owner-1", st.ID)
	require.NoError(t, err)

	res, err = env.svc.Search(ctx, station.QueryParams{Status: station.StatusActive})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Equal(t, 0, res.Summary.Active)
}

func TestService_SearchUsesCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.create(t, "owner-1", "Al Noor", "Tripoli")

	_, err := env.svc.Search(ctx, station.QueryParams{})
	require.NoError(t, err)
	_, err = env.svc.Search(ctx, station.QueryParams{SearchTerm: "x"})
	require.NoError(t, err)

	stats := env.cache.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestService_ListOwned(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.create(t, "owner-1", "Al Noor", "Tripoli")
	env.create(t, "owner-1", "Al Noor 2", "Tripoli")
	env.create(t, "owner-2", "Al Nasr", "Benghazi")

	res, err := env.svc.ListOwned(ctx, "owner-1")
	require.NoError(t, err)
	assert.Len(t, res.Items, 2)
	assert.Equal(t, 2, res.Summary.Total)
	assert.Equal(t, 2, res.Summary.Active)
	for _, item := range res.Items {
		assert.Equal(t, "owner-1", item.OwnerID)
	}
}

func TestService_UpdateKeepsVerification(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	st := env.create(t, "owner-1", "Al Noor", "Tripoli")
	_, err := env.svc.SetVerification(ctx, "admin-1", st.ID, "verified")
	require.NoError(t, err)

	updated, err := env.svc.Update(ctx, "owner-1", st.ID, &models.StationUpdateRequest{
		Name:      strPtr("Al Noor Central"),
		Phone:     strPtr("+218 21 000 0000"),
		FuelTypes: []string{"diesel"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Al Noor Central", updated.Name)
	assert.Equal(t, "Tripoli", *updated.City)
	assert.Equal(t, []string{"diesel"}, updated.FuelTypes)
	assert.Equal(t, "verified", updated.VerificationStatus)
}

func TestService_UpdateClearsOptionalField(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := createRequest("Al Noor", "Tripoli")
	req.Phone = strPtr("0912345678")
	st, err := env.svc.Create(ctx, "owner-1", req)
	require.NoError(t, err)

	updated, err := env.svc.Update(ctx, "owner-1", st.ID, &models.StationUpdateRequest{Phone: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, updated.Phone)
}

func TestService_OwnershipEnforced(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	st := env.create(t, "owner-1", "Al Noor", "Tripoli")

	_, err := env.svc.Update(ctx, "owner-2", st.ID, &models.StationUpdateRequest{Name: strPtr("Mine")})
	assert.ErrorIs(t, err, station.ErrNotAuthorized)

	_, err = env.svc.ToggleActive(ctx, "owner-2", st.ID)
	assert.ErrorIs(t, err, station.ErrNotAuthorized)

	err = env.svc.Delete(ctx, &auth.Principal{UserID: "owner-2", Role: auth.RoleOwner}, st.ID)
	assert.ErrorIs(t, err, station.ErrNotAuthorized)

	err = env.svc.Delete(ctx, nil, st.ID)
	assert.ErrorIs(t, err, station.ErrNotAuthorized)

	_, err = env.svc.Update(ctx, "owner-1", "stn_missing", &models.StationUpdateRequest{})
	assert.ErrorIs(t, err, station.ErrStationNotFound)
}

func TestService_Delete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	own := env.create(t, "owner-1", "Al Noor", "Tripoli")
	other := env.create(t, "owner-2", "Al Nasr", "Benghazi")

	require.NoError(t, env.svc.Delete(ctx, &auth.Principal{UserID: "owner-1", Role: auth.RoleOwner}, own.ID))
	require.NoError(t, env.svc.Delete(ctx, &auth.Principal{UserID: "admin-1", Role: auth.RoleAdmin}, other.ID))

	_, err := env.svc.Get(ctx, own.ID)
	assert.ErrorIs(t, err, station.ErrStationNotFound)

	res, err := env.svc.Search(ctx, station.QueryParams{})
	require.NoError(t, err)
	assert.Empty(t, res.Items)

	evs := env.publisher.Events()
	last := evs[len(evs)-1]
	assert.Equal(t, events.TypeStationDeleted, last.Type)
	assert.Equal(t, "owner-2", last.OwnerID)
	assert.Equal(t, "admin-1", last.ActorID)
}

func TestService_SetVerification(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	st := env.create(t, "owner-1", "Al Noor", "Tripoli")

	verified, err := env.svc.SetVerification(ctx, "admin-1", st.ID, "verified")
	require.NoError(t, err)
	assert.Equal(t, "verified", verified.VerificationStatus)
	assert.True(t, verified.IsVerified)

	rejected, err := env.svc.SetVerification(ctx, "admin-1", st.ID, "REJECTED")
	require.NoError(t, err)
	assert.Equal(t, "rejected", rejected.VerificationStatus)
	assert.False(t, rejected.IsVerified)

	var changes []events.Event
	for _, ev := range env.publisher.Events() {
		if ev.Type == events.TypeStationVerificationChanged {
			changes = append(changes, ev)
		}
	}
	require.Len(t, changes, 2)
	assert.Equal(t, "verified", changes[0].Status)
	assert.Equal(t, "rejected", changes[1].Status)
	assert.Equal(t, "admin-1", changes[1].ActorID)
}

func TestService_SetVerificationSameStatusIsNoop(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	st := env.create(t, "owner-1", "Al Noor", "Tripoli")
	_, err := env.svc.SetVerification(ctx, "admin-1", st.ID, "verified")
	require.NoError(t, err)
	before := len(env.publisher.Events())

	again, err := env.svc.SetVerification(ctx, "admin-1", st.ID, "verified")
	require.NoError(t, err)
	assert.Equal(t, "verified", again.VerificationStatus)
	assert.Len(t, env.publisher.Events(), before)
}

func TestService_SetVerificationRejectsInvalidTarget(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	st := env.create(t, "owner-1", "Al Noor", "Tripoli")

	for _, status := range []string{"pending", "approved", ""} {
		_, err := env.svc.SetVerification(ctx, "admin-1", st.ID, status)

		var vErr *station.ValidationError
		require.ErrorAs(t, err, &vErr, "status %q", status)
		assert.Equal(t, "status", vErr.Errors[0].Field)
	}

	_, err := env.svc.SetVerification(ctx, "admin-1", "stn_missing", "verified")
	assert.ErrorIs(t, err, station.ErrStationNotFound)
}

func TestService_AdminList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	noor := env.create(t, "owner-1", "Al Noor", "Tripoli")
	env.create(t, "owner-2", "Al Nasr", "Benghazi")
	_, err := env.svc.SetVerification(ctx, "admin-1", noor.ID, "verified")
	require.NoError(t, err)
	_, err = env.svc.ToggleActive(ctx, "owner-1", noor.ID)
	require.NoError(t, err)

	res, err := env.svc.AdminList(ctx, station.QueryParams{
		Verification: station.ParseVerificationFilter("verified"),
		Status:       station.StatusActive,
	})
	require.NoError(t, err)

	// The status filter does not apply to the admin view.
	require.Len(t, res.Items, 1)
	assert.Equal(t, noor.ID, res.Items[0].ID)
	assert.Equal(t, []string{"rejected"}, res.Items[0].Decisions)
	assert.Equal(t, 2, res.Summary.Total)
	assert.Equal(t, 1, res.Summary.Verified)
	assert.Equal(t, 3, res.TotalOwners)
	assert.Equal(t, "verified", res.Query.Verification)

	all, err := env.svc.AdminList(ctx, station.QueryParams{})
	require.NoError(t, err)
	require.Len(t, all.Items, 2)
	for _, item := range all.Items {
		if item.VerificationStatus == "pending" {
			assert.Equal(t, []string{"verified", "rejected"}, item.Decisions)
		}
	}
}

func TestService_AdminListOwnerCountError(t *testing.T) {
	svc := station.NewService(station.ServiceConfig{
		Repository: station.NewInMemoryRepository(),
		Owners:     fixedOwners{err: errors.New("db down")},
		Logger:     zerolog.Nop(),
	})

	_, err := svc.AdminList(context.Background(), station.QueryParams{})
	assert.ErrorContains(t, err, "counting owners")
}

func TestService_PublishFailureDoesNotFailWrite(t *testing.T) {
	env := newTestEnv(t)
	env.publisher.FailWith(errors.New("broker unavailable"))

	st, err := env.svc.Create(context.Background(), "owner-1", createRequest("Al Noor", "Tripoli"))
	require.NoError(t, err)

	got, err := env.svc.Get(context.Background(), st.ID)
	require.NoError(t, err)
	assert.Equal(t, "Al Noor", got.Name)
	assert.Empty(t, env.publisher.Events())
}

func TestService_WithoutOptionalCollaborators(t *testing.T) {
	svc := station.NewService(station.ServiceConfig{
		Repository: station.NewInMemoryRepository(),
		Logger:     zerolog.Nop(),
	})
	ctx := context.Background()

	st, err := svc.Create(ctx, "owner-1", createRequest("Al Noor", "Tripoli"))
	require.NoError(t, err)

	res, err := svc.AdminList(ctx, station.QueryParams{})
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)
	assert.Equal(t, 0, res.TotalOwners)

	list, sum, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, st.ID, list[0].ID)
	assert.Equal(t, 1, sum.Total)
}

type recordingRecorder struct {
	mutations []string
	failures  []string
	searches  []int
}

func (r *recordingRecorder) RecordMutation(_ context.Context, kind string) {
	r.mutations = append(r.mutations, kind)
}

func (r *recordingRecorder) RecordPublishFailure(_ context.Context, eventType string) {
	r.failures = append(r.failures, eventType)
}

func (r *recordingRecorder) RecordSearch(_ context.Context, _ bool, results int) {
	r.searches = append(r.searches, results)
}

func TestService_RecordsMetrics(t *testing.T) {
	rec := &recordingRecorder{}
	publisher := events.NewInMemoryPublisher()
	svc := station.NewService(station.ServiceConfig{
		Repository: station.NewInMemoryRepository(),
		Publisher:  publisher,
		Recorder:   rec,
		Logger:     zerolog.Nop(),
	})
	ctx := context.Background()

	st, err := svc.Create(ctx, "owner-1", createRequest("Al Noor", "Tripoli"))
	require.NoError(t, err)
	_, err = svc.ToggleActive(ctx, "owner-1", st.ID)
	require.NoError(t, err)

	publisher.FailWith(errors.New("broker unavailable"))
	_, err = svc.SetVerification(ctx, "admin-1", st.ID, "verified")
	require.NoError(t, err)

	_, err = svc.Search(ctx, station.QueryParams{SearchTerm: "noor"})
	require.NoError(t, err)

	assert.Equal(t, []string{"create", "toggle_active", "verification"}, rec.mutations)
	assert.Equal(t, []string{string(events.TypeStationVerificationChanged)}, rec.failures)
	assert.Equal(t, []int{1}, rec.searches)
}

// gatedRepository pauses the first List after it has read its result until
// release is closed.
type gatedRepository struct {
	*station.InMemoryRepository
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func (g *gatedRepository) List(ctx context.Context, opts station.ListOptions) ([]*station.Station, error) {
	list, err := g.InMemoryRepository.List(ctx, opts)
	g.once.Do(func() {
		close(g.read)
		<-g.release
	})
	return list, err
}

func TestService_WriteDuringCacheFillIsNotMasked(t *testing.T) {
	c, err := cache.New[[]*station.Station](16, time.Minute)
	require.NoError(t, err)

	repo := &gatedRepository{
		InMemoryRepository: station.NewInMemoryRepository(),
		read:               make(chan struct{}),
		release:            make(chan struct{}),
	}
	svc := station.NewService(station.ServiceConfig{
		Repository: repo,
		Cache:      c,
		Logger:     zerolog.Nop(),
	})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := svc.Search(ctx, station.QueryParams{})
		done <- err
	}()

	<-repo.read
	_, err = svc.Create(ctx, "owner-1", createRequest("Al Noor", "Tripoli"))
	require.NoError(t, err)
	close(repo.release)
	require.NoError(t, <-done)

	result, err := svc.Search(ctx, station.QueryParams{})
	require.NoError(t, err)
	assert.Len(t, result.Items, 1)
	assert.Equal(t, 1, result.Summary.Total)

	owned, err := svc.ListOwned(ctx, "owner-1")
	require.NoError(t, err)
	assert.Len(t, owned.Items, 1)
}

func TestService_PublicViewsHideDocuments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := createRequest("Al Noor", "Tripoli")
	req.PassportImageURL = strPtr("https://files.example.com/passport.jpg")
	req.LicenseImageURL = strPtr("https://files.example.com/license.jpg")
	created, err := env.svc.Create(ctx, "owner-1", req)
	require.NoError(t, err)
	require.NotNil(t, created.PassportImageURL, "owner sees their own documents")

	result, err := env.svc.Search(ctx, station.QueryParams{})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Nil(t, result.Items[0].PassportImageURL)
	assert.Nil(t, result.Items[0].LicenseImageURL)

	got, err := env.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got.PassportImageURL)
	assert.Nil(t, got.LicenseImageURL)

	snapshot, _, err := env.svc.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	assert.Nil(t, snapshot[0].PassportImageURL)

	owned, err := env.svc.ListOwned(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, owned.Items, 1)
	assert.Equal(t, "https://files.example.com/passport.jpg", *owned.Items[0].PassportImageURL)

	admin, err := env.svc.AdminList(ctx, station.QueryParams{})
	require.NoError(t, err)
	require.Len(t, admin.Items, 1)
	assert.NotNil(t, admin.Items[0].LicenseImageURL)
}

func TestService_AdminSearchMatchesNameAndCityOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := createRequest("Al Noor", "Tripoli")
	req.StationNumber = strPtr("7781")
	_, err := env.svc.Create(ctx, "owner-1", req)
	require.NoError(t, err)

	admin, err := env.svc.AdminList(ctx, station.QueryParams{SearchTerm: "7781"})
	require.NoError(t, err)
	assert.Empty(t, admin.Items)

	admin, err = env.svc.AdminList(ctx, station.QueryParams{SearchTerm: "tripoli"})
	require.NoError(t, err)
	assert.Len(t, admin.Items, 1)

	public, err := env.svc.Search(ctx, station.QueryParams{SearchTerm: "7781"})
	require.NoError(t, err)
	assert.Len(t, public.Items, 1)
}
