package auction

import (
	"fmt"
	"time"

	"github.com/mmynk/draftbid/internal/models"
)

// State is the lifecycle position of a room's auction round.
//
//	Idle -> Active -> Closing -> Resolved -> Idle
//
// Active ends only through a successful close flip. Closing covers the span
// between the flip and the settlement commit, including a failed settlement
// waiting for the sweep to retry it.
type State int

const (
	StateIdle State = iota
	StateActive
	StateClosing
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateResolved:
		return "resolved"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// StateOf derives the state of a persisted round. A nil round is Idle.
func StateOf(r *models.Round) State {
	switch {
	case r == nil:
		return StateIdle
	case r.Active:
		return StateActive
	case r.SettledAt.IsZero():
		return StateClosing
	default:
		return StateResolved
	}
}

var transitions = map[State][]State{
	StateIdle:     {StateActive},
	StateActive:   {StateClosing},
	StateClosing:  {StateResolved},
	StateResolved: {StateIdle},
}

// Transition validates a state change.
func Transition(from, to State) error {
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// InFlight reports whether r still blocks the room: it is active, or closed
// but not yet settled. Turn changes and new rounds wait for it.
func InFlight(r *models.Round) bool {
	s := StateOf(r)
	return s == StateActive || s == StateClosing
}

// CheckBidWindow verifies that r accepts bids at now.
func CheckBidWindow(r *models.Round, now time.Time) error {
	if StateOf(r) != StateActive {
		return ErrRoundNotActive
	}
	if Expired(r.EndTime, now) {
		return ErrDeadlinePassed
	}
	return nil
}

// NewRound builds the round row for a nomination at now.
func NewRound(id, roomID, itemID, nominatorID string, turnIndex int, now time.Time, duration time.Duration) *models.Round {
	return &models.Round{
		ID:          id,
		RoomID:      roomID,
		ItemID:      itemID,
		NominatorID: nominatorID,
		TurnIndex:   turnIndex,
		StartTime:   now,
		EndTime:     now.Add(duration),
		Active:      true,
	}
}
