package models

import "time"

// CloseReason identifies which trigger asked a round to close.
type CloseReason string

const (
	DeadlineElapsed    CloseReason = "deadline_elapsed"
	ExplicitAdminClose CloseReason = "admin_close"
	StaleSweepRecovery CloseReason = "stale_sweep"
)

// Valid reports whether r is one of the known close reasons.
func (r CloseReason) Valid() bool {
	switch r {
	case DeadlineElapsed, ExplicitAdminClose, StaleSweepRecovery:
		return true
	}
	return false
}

// Round is the timed bidding window for one item.
type Round struct {
	// ID is the unique identifier for the round (UUID format).
	ID string

	RoomID string
	ItemID string

	// NominatorID is the participant whose turn it was when the round started.
	// It receives the item at the fallback price when nobody bids.
	NominatorID string

	// TurnIndex is the room's turn index at start time.
	TurnIndex int

	StartTime time.Time
	EndTime   time.Time

	// Active is true from start until exactly one close request flips it.
	Active bool

	// ClosedAt and CloseReason are set by the close request that won the flip.
	ClosedAt    time.Time
	CloseReason CloseReason

	// SettledAt is set in the same transaction that allocates the item.
	// A round with Active=false and zero SettledAt is closed but unsettled.
	SettledAt time.Time
}

// Bid is a participant's current offer in a round.
// There is at most one Bid per (round, participant); later submissions replace it.
type Bid struct {
	RoundID       string
	ParticipantID string
	Amount        int

	// PlacedAt is the tie-break timestamp: the time the current amount was set.
	// Resubmitting the same amount keeps the original timestamp.
	PlacedAt time.Time

	// Seq orders bids that share a PlacedAt. Assigned by the store, per round.
	Seq int64
}
