package matching

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/regami-app/backend/internal/geo"
	"github.com/regami-app/backend/internal/models"
)

// AvailabilityStore is the slice of the availability repository the matcher
// scans for counterparty candidates.
type AvailabilityStore interface {
	RequestsOverlapping(offer *models.AvailabilityOffer) ([]models.AvailabilityRequest, error)
	OffersOverlapping(req *models.AvailabilityRequest) ([]models.AvailabilityOffer, error)
}

// Matcher turns availability upserts into pending matches. It runs
// synchronously after each upsert; the only cross-request synchronization it
// relies on is the conditional insert inside the match store.
type Matcher struct {
	availability AvailabilityStore
	lifecycle    *Lifecycle
	attempts     uint
	retryDelay   time.Duration
}

// NewMatcher creates a new Matcher. The candidate scan is retried up to
// attempts times with backoff before the triggering event is given up on.
func NewMatcher(availability AvailabilityStore, lifecycle *Lifecycle) *Matcher {
	return &Matcher{
		availability: availability,
		lifecycle:    lifecycle,
		attempts:     4,
		retryDelay:   200 * time.Millisecond,
	}
}

type candidate struct {
	offer   *models.AvailabilityOffer
	request *models.AvailabilityRequest
	overlap time.Duration
	distM   float64
}

// OfferUpserted scans open requests against a new or updated offer and
// creates a pending match for every qualifying pair. Pairs that already have
// a match are skipped by the store, so replays and concurrent scans are safe.
func (m *Matcher) OfferUpserted(ctx context.Context, offer *models.AvailabilityOffer) ([]models.Match, error) {
	var requests []models.AvailabilityRequest
	err := retry.Do(
		func() error {
			var scanErr error
			requests, scanErr = m.availability.RequestsOverlapping(offer)
			return scanErr
		},
		retry.Attempts(m.attempts),
		retry.Delay(m.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		// No partial scan is treated as success: the whole event failed.
		log.Printf("matcher: giving up on offer %d after %d attempts: %v", offer.ID, m.attempts, err)
		return nil, fmt.Errorf("scanning requests for offer %d: %w", offer.ID, err)
	}

	candidates := make([]candidate, 0, len(requests))
	for i := range requests {
		req := &requests[i]
		candidates = append(candidates, candidate{
			offer:   offer,
			request: req,
			overlap: overlapDuration(offer.StartAt, offer.EndAt, req.StartAt, req.EndAt),
			distM:   geo.Distance(offer.Lat, offer.Lng, req.Lat, req.Lng),
		})
	}
	return m.createMatches(ctx, candidates)
}

// RequestUpserted is the symmetric scan run when a request is created or
// updated after existing offers.
func (m *Matcher) RequestUpserted(ctx context.Context, req *models.AvailabilityRequest) ([]models.Match, error) {
	var offers []models.AvailabilityOffer
	err := retry.Do(
		func() error {
			var scanErr error
			offers, scanErr = m.availability.OffersOverlapping(req)
			return scanErr
		},
		retry.Attempts(m.attempts),
		retry.Delay(m.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		log.Printf("matcher: giving up on request %d after %d attempts: %v", req.ID, m.attempts, err)
		return nil, fmt.Errorf("scanning offers for request %d: %w", req.ID, err)
	}

	candidates := make([]candidate, 0, len(offers))
	for i := range offers {
		offer := &offers[i]
		candidates = append(candidates, candidate{
			offer:   offer,
			request: req,
			overlap: overlapDuration(offer.StartAt, offer.EndAt, req.StartAt, req.EndAt),
			distM:   geo.Distance(offer.Lat, offer.Lng, req.Lat, req.Lng),
		})
	}
	return m.createMatches(ctx, candidates)
}

// createMatches orders candidates by (overlap desc, distance asc) and creates
// a pending match for each. The ordering only controls the order matches are
// surfaced in; every qualifying candidate gets a match.
func (m *Matcher) createMatches(ctx context.Context, candidates []candidate) ([]models.Match, error) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].overlap != candidates[j].overlap {
			return candidates[i].overlap > candidates[j].overlap
		}
		return candidates[i].distM < candidates[j].distM
	})

	matches := make([]models.Match, 0, len(candidates))
	for _, c := range candidates {
		match, err := m.lifecycle.CreatePendingMatch(ctx, c.offer, c.request)
		if err != nil {
			return matches, err
		}
		matches = append(matches, *match)
	}
	return matches, nil
}

// overlapDuration returns the length of the intersection of two half-open
// intervals, or zero when they do not intersect.
func overlapDuration(aStart, aEnd, bStart, bEnd time.Time) time.Duration {
	start := aStart
	if bStart.After(start) {
		start = bStart
	}
	end := aEnd
	if bEnd.Before(end) {
		end = bEnd
	}
	if !start.Before(end) {
		return 0
	}
	return end.Sub(start)
}
