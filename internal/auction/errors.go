package auction

import "errors"

// Validation errors. They are returned before any state is mutated and are
// safe to show to the participant that caused them.
var (
	ErrAlreadyActive      = errors.New("a round is already active in this room")
	ErrItemUnavailable    = errors.New("item is already allocated")
	ErrNotYourTurn        = errors.New("not your turn")
	ErrInsufficientBudget = errors.New("insufficient budget")
	ErrQuotaExceeded      = errors.New("category quota reached")
	ErrRoundNotActive     = errors.New("round is not active")
	ErrDeadlinePassed     = errors.New("round deadline has passed")
	ErrInvalidAmount      = errors.New("bid amount must not be negative")

	ErrRoomPaused         = errors.New("room is paused")
	ErrRoomCompleted      = errors.New("room is completed")
	ErrRoundInFlight      = errors.New("a round is still in flight")
	ErrNoParticipants     = errors.New("room has no participants")
	ErrUnknownParticipant = errors.New("participant is not in this room")
	ErrInvalidTransition  = errors.New("invalid round state transition")
)

// IsValidation reports whether err is one of the validation errors above.
func IsValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

var validationErrors = []error{
	ErrAlreadyActive, ErrItemUnavailable, ErrNotYourTurn, ErrInsufficientBudget,
	ErrQuotaExceeded, ErrRoundNotActive, ErrDeadlinePassed, ErrInvalidAmount,
	ErrRoomPaused, ErrRoomCompleted, ErrRoundInFlight, ErrNoParticipants,
	ErrUnknownParticipant,
}
