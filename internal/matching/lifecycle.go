// Package matching owns the availability matcher and the match state machine.
package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/regami-app/backend/internal/models"
	"gorm.io/gorm"
)

// Action is a user-initiated lifecycle transition.
type Action string

const (
	ActionAccept  Action = "accept"
	ActionConfirm Action = "confirm"
	ActionReject  Action = "reject"
	ActionCancel  Action = "cancel"
)

// MatchStore is the slice of the match repository the lifecycle needs.
type MatchStore interface {
	CreatePendingMatch(offerID, requestID uint) (*models.Match, bool, error)
	GetMatchByID(id uint) (*models.Match, error)
	TransitionMatch(id uint, from, to models.MatchStatus, actorID uint, version, at time.Time) (bool, error)
}

// AvailabilityReader resolves the two parties of a match.
type AvailabilityReader interface {
	GetOfferByID(id uint) (*models.AvailabilityOffer, error)
	GetRequestByID(id uint) (*models.AvailabilityRequest, error)
}

// Notifier durably records an event for a user and pushes it to their live
// connections. It must not return until the durable append succeeded.
type Notifier interface {
	Notify(ctx context.Context, recipientID uint, eventType models.EventType, data interface{}, message string) error
}

// Lifecycle drives matches through pending → accepted → confirmed, with
// rejected/cancelled reachable from the two non-terminal states. It is the
// only writer of match state.
type Lifecycle struct {
	matches      MatchStore
	availability AvailabilityReader
	notifier     Notifier
}

// NewLifecycle creates a new Lifecycle
func NewLifecycle(matches MatchStore, availability AvailabilityReader, notifier Notifier) *Lifecycle {
	return &Lifecycle{matches: matches, availability: availability, notifier: notifier}
}

// CreatePendingMatch creates a pending match for the pair, or returns the
// existing match id without error when the pair is already matched, so
// replays are no-ops. Both parties are notified exactly once, on creation
// only, and the durable append happens before this returns.
func (l *Lifecycle) CreatePendingMatch(ctx context.Context, offer *models.AvailabilityOffer, request *models.AvailabilityRequest) (*models.Match, error) {
	match, created, err := l.matches.CreatePendingMatch(offer.ID, request.ID)
	if err != nil {
		return nil, fmt.Errorf("creating match for offer %d and request %d: %w", offer.ID, request.ID, err)
	}
	if !created {
		return match, nil
	}

	data := models.MatchEventData{
		MatchID:   match.ID,
		OfferID:   match.OfferID,
		RequestID: match.RequestID,
		Status:    match.Status,
	}
	if err := l.notifier.Notify(ctx, offer.UserID, models.EventNewMatch, data,
		"A seeker's care request fits one of your offers."); err != nil {
		return nil, err
	}
	if err := l.notifier.Notify(ctx, request.UserID, models.EventNewMatch, data,
		"An owner is available during your requested window."); err != nil {
		return nil, err
	}
	return match, nil
}

// Transition applies a user action to a match. The state check is optimistic:
// the update only lands if the match still has the expected status and
// last-transition timestamp, otherwise the caller gets ErrStaleTransition.
// Both parties are notified before the call returns.
func (l *Lifecycle) Transition(ctx context.Context, matchID uint, action Action, actorID uint) (*models.Match, error) {
	match, err := l.matches.GetMatchByID(matchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}

	offer, err := l.availability.GetOfferByID(match.OfferID)
	if err != nil {
		return nil, fmt.Errorf("resolving offer %d: %w", match.OfferID, err)
	}
	request, err := l.availability.GetRequestByID(match.RequestID)
	if err != nil {
		return nil, fmt.Errorf("resolving request %d: %w", match.RequestID, err)
	}
	ownerID, seekerID := offer.UserID, request.UserID

	if actorID != ownerID && actorID != seekerID {
		return nil, ErrForbidden
	}

	from, to, err := resolveTransition(action, match.Status, actorID, ownerID, seekerID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	applied, err := l.matches.TransitionMatch(matchID, from, to, actorID, match.UpdatedAt, now)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, ErrStaleTransition
	}

	// Build the result from the state this call applied rather than
	// re-reading: a re-read could observe an even later transition and
	// report it as this caller's outcome.
	updated := *match
	updated.Status = to
	updated.LastActorID = actorID
	updated.UpdatedAt = now

	data := models.MatchEventData{
		MatchID:   updated.ID,
		OfferID:   updated.OfferID,
		RequestID: updated.RequestID,
		Status:    updated.Status,
		ActorID:   actorID,
	}
	text := transitionText(action)
	if err := l.notifier.Notify(ctx, ownerID, models.EventMatchUpdated, data, text); err != nil {
		return nil, err
	}
	if err := l.notifier.Notify(ctx, seekerID, models.EventMatchUpdated, data, text); err != nil {
		return nil, err
	}
	return &updated, nil
}

// resolveTransition maps an action to its (from, to) edge and enforces who
// may take it. Accept belongs to the offer owner, confirm to the seeker;
// reject and cancel belong to either party from any non-terminal state.
func resolveTransition(action Action, current models.MatchStatus, actorID, ownerID, seekerID uint) (models.MatchStatus, models.MatchStatus, error) {
	switch action {
	case ActionAccept:
		if actorID != ownerID {
			return "", "", ErrForbidden
		}
		// from is fixed at pending: an accept against any other state must
		// fail as stale, which the conditional update enforces.
		return models.MatchPending, models.MatchAccepted, nil
	case ActionConfirm:
		if actorID != seekerID {
			return "", "", ErrForbidden
		}
		return models.MatchAccepted, models.MatchConfirmed, nil
	case ActionReject:
		if current.Terminal() {
			return "", "", ErrStaleTransition
		}
		return current, models.MatchRejected, nil
	case ActionCancel:
		if current.Terminal() {
			return "", "", ErrStaleTransition
		}
		return current, models.MatchCancelled, nil
	default:
		return "", "", ErrInvalidAction
	}
}

func transitionText(action Action) string {
	switch action {
	case ActionAccept:
		return "The owner accepted the match. Waiting for the seeker to confirm."
	case ActionConfirm:
		return "The care slot is confirmed."
	case ActionReject:
		return "The match was declined."
	case ActionCancel:
		return "The match was cancelled."
	}
	return string(action)
}
