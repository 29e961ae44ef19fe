package models

import "time"

// MatchStatus is the state of a match between an offer and a request.
//
// Flow: pending → accepted → confirmed, with rejected/cancelled reachable
// from pending and accepted. Confirmed, rejected and cancelled are terminal.
type MatchStatus string

const (
	MatchPending   MatchStatus = "pending"   // match found, awaiting offer owner response
	MatchAccepted  MatchStatus = "accepted"  // offer owner accepted, awaiting seeker confirmation
	MatchConfirmed MatchStatus = "confirmed" // both parties agreed, slot is assigned
	MatchRejected  MatchStatus = "rejected"  // either party rejected
	MatchCancelled MatchStatus = "cancelled" // either party backed out before confirmation
)

// Terminal reports whether no further transitions are valid from s.
func (s MatchStatus) Terminal() bool {
	switch s {
	case MatchConfirmed, MatchRejected, MatchCancelled:
		return true
	}
	return false
}

// Match pairs one offer with one request. The unique index on
// (offer_id, request_id) is what makes concurrent match creation safe:
// two racing matcher scans collapse onto a single row.
//
// UpdatedAt is the last-transition timestamp and doubles as the optimistic
// version token for transitions. Matches are never deleted; terminal rows
// are kept for history.
type Match struct {
	ID          uint        `json:"id" gorm:"primaryKey"`
	OfferID     uint        `json:"offer_id" gorm:"uniqueIndex:uq_offer_request,priority:1"`
	RequestID   uint        `json:"request_id" gorm:"uniqueIndex:uq_offer_request,priority:2"`
	Status      MatchStatus `json:"status" gorm:"size:20;index;default:pending"`
	LastActorID uint        `json:"last_actor_id"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
