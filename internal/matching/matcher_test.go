package matching

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/regami-app/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAvailabilityStore struct {
	requests []models.AvailabilityRequest
	offers   []models.AvailabilityOffer
	// failures makes the next N scans fail before succeeding.
	failures int
	calls    int
}

func (s *fakeAvailabilityStore) RequestsOverlapping(*models.AvailabilityOffer) ([]models.AvailabilityRequest, error) {
	s.calls++
	if s.failures > 0 {
		s.failures--
		return nil, errors.New("scan failed")
	}
	return s.requests, nil
}

func (s *fakeAvailabilityStore) OffersOverlapping(*models.AvailabilityRequest) ([]models.AvailabilityOffer, error) {
	s.calls++
	if s.failures > 0 {
		s.failures--
		return nil, errors.New("scan failed")
	}
	return s.offers, nil
}

func newTestMatcher(scan *fakeAvailabilityStore) (*Matcher, *fakeMatchStore, *fakeNotifier) {
	store := newFakeMatchStore()
	reader := &fakeAvailabilityReader{
		offers:   map[uint]*models.AvailabilityOffer{},
		requests: map[uint]*models.AvailabilityRequest{},
	}
	notifier := &fakeNotifier{}
	m := NewMatcher(scan, NewLifecycle(store, reader, notifier))
	m.retryDelay = time.Millisecond
	return m, store, notifier
}

func TestOfferUpsertedCreatesMatchPerCandidate(t *testing.T) {
	scan := &fakeAvailabilityStore{requests: []models.AvailabilityRequest{
		{ID: 1, UserID: 20},
		{ID: 2, UserID: 21},
	}}
	m, store, notifier := newTestMatcher(scan)

	offer := &models.AvailabilityOffer{ID: 1, UserID: 10}
	matches, err := m.OfferUpserted(context.Background(), offer)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
	assert.Len(t, store.matches, 2)
	// Two notifications per created match.
	assert.Len(t, notifier.sent, 4)
}

func TestOfferUpsertedNoCandidates(t *testing.T) {
	m, store, notifier := newTestMatcher(&fakeAvailabilityStore{})

	matches, err := m.OfferUpserted(context.Background(), &models.AvailabilityOffer{ID: 1, UserID: 10})
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.Empty(t, store.matches)
	assert.Empty(t, notifier.sent)
}

func TestOfferUpsertedReplayCreatesNothingNew(t *testing.T) {
	scan := &fakeAvailabilityStore{requests: []models.AvailabilityRequest{{ID: 1, UserID: 20}}}
	m, store, notifier := newTestMatcher(scan)

	offer := &models.AvailabilityOffer{ID: 1, UserID: 10}
	_, err := m.OfferUpserted(context.Background(), offer)
	require.NoError(t, err)

	matches, err := m.OfferUpserted(context.Background(), offer)
	require.NoError(t, err)
	assert.Len(t, matches, 1, "the existing match is still surfaced")
	assert.Len(t, store.matches, 1)
	assert.Len(t, notifier.sent, 2, "replays notify no one")
}

func TestRequestUpsertedScansOffers(t *testing.T) {
	scan := &fakeAvailabilityStore{offers: []models.AvailabilityOffer{{ID: 1, UserID: 10}}}
	m, store, _ := newTestMatcher(scan)

	matches, err := m.RequestUpserted(context.Background(), &models.AvailabilityRequest{ID: 1, UserID: 20})
	require.NoError(t, err)
	assert.Len(t, matches, 1)
	assert.Len(t, store.matches, 1)
}

func TestScanRetriesThenSucceeds(t *testing.T) {
	scan := &fakeAvailabilityStore{
		requests: []models.AvailabilityRequest{{ID: 1, UserID: 20}},
		failures: 2,
	}
	m, store, _ := newTestMatcher(scan)

	matches, err := m.OfferUpserted(context.Background(), &models.AvailabilityOffer{ID: 1, UserID: 10})
	require.NoError(t, err)
	assert.Len(t, matches, 1)
	assert.Len(t, store.matches, 1)
	assert.Equal(t, 3, scan.calls)
}

func TestScanGivesUpAfterBoundedAttempts(t *testing.T) {
	scan := &fakeAvailabilityStore{failures: 100}
	m, store, notifier := newTestMatcher(scan)

	_, err := m.OfferUpserted(context.Background(), &models.AvailabilityOffer{ID: 1, UserID: 10})
	require.Error(t, err)
	assert.Equal(t, int(m.attempts), scan.calls)
	// Nothing was half-done.
	assert.Empty(t, store.matches)
	assert.Empty(t, notifier.sent)
}

func TestCreateMatchesOrdering(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	offer := &models.AvailabilityOffer{ID: 1, UserID: 10, StartAt: base, EndAt: base.Add(12 * time.Hour)}

	// Three candidates: one with the longest overlap, two tied on overlap but
	// at different distances.
	longOverlap := models.AvailabilityRequest{ID: 1, UserID: 20, StartAt: base, EndAt: base.Add(8 * time.Hour), Lat: 1, Lng: 1}
	shortNear := models.AvailabilityRequest{ID: 2, UserID: 21, StartAt: base, EndAt: base.Add(2 * time.Hour), Lat: 0.01, Lng: 0.01}
	shortFar := models.AvailabilityRequest{ID: 3, UserID: 22, StartAt: base, EndAt: base.Add(2 * time.Hour), Lat: 2, Lng: 2}

	scan := &fakeAvailabilityStore{requests: []models.AvailabilityRequest{shortFar, shortNear, longOverlap}}
	m, _, _ := newTestMatcher(scan)

	matches, err := m.OfferUpserted(context.Background(), offer)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, longOverlap.ID, matches[0].RequestID)
	assert.Equal(t, shortNear.ID, matches[1].RequestID)
	assert.Equal(t, shortFar.ID, matches[2].RequestID)
}

func TestOverlapDuration(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	h := func(n int) time.Time { return base.Add(time.Duration(n) * time.Hour) }

	assert.Equal(t, 2*time.Hour, overlapDuration(h(0), h(4), h(2), h(8)))
	assert.Equal(t, 4*time.Hour, overlapDuration(h(0), h(4), h(0), h(4)))
	assert.Equal(t, time.Duration(0), overlapDuration(h(0), h(4), h(4), h(8)), "touching intervals do not overlap")
	assert.Equal(t, time.Duration(0), overlapDuration(h(0), h(2), h(6), h(8)))
	assert.Equal(t, 2*time.Hour, overlapDuration(h(2), h(8), h(0), h(4)))
}
