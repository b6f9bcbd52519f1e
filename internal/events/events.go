// Package events defines the notifications the auction engine emits and an
// in-process hub that fans them out to subscribers.
//
// Delivery is best-effort: there is no replay and no ordering guarantee across
// reconnects. Subscribers re-fetch room state when they (re)connect.
package events

import "time"

// Type names an event on the wire.
type Type string

const (
	RoundStarted      Type = "round_started"
	TimerTick         Type = "timer_tick"
	BidPlaced         Type = "bid_placed"
	RoundClosed       Type = "round_closed"
	TurnChanged       Type = "turn_changed"
	RoomStatusChanged Type = "room_status_changed"
)

// Event is one notification for a room.
type Event struct {
	Type    Type      `json:"type"`
	RoomID  string    `json:"room_id"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload"`
}

// ItemView is the item as shown to observers.
type ItemView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Team     string `json:"team,omitempty"`
}

// RoundStartedPayload announces a new bidding window.
type RoundStartedPayload struct {
	RoundID     string    `json:"round_id"`
	Item        ItemView  `json:"item"`
	NominatorID string    `json:"nominator_id"`
	EndTime     time.Time `json:"end_time"`
	TurnIndex   int       `json:"turn_index"`
	Remaining   int       `json:"remaining"`
}

// TimerTickPayload carries the seconds left in the active round. Advisory only.
type TimerTickPayload struct {
	RoundID   string    `json:"round_id"`
	ItemID    string    `json:"item_id"`
	EndTime   time.Time `json:"end_time"`
	Remaining int       `json:"remaining"`
}

// BidPlacedPayload reports an accepted bid.
type BidPlacedPayload struct {
	RoundID         string `json:"round_id"`
	ItemID          string `json:"item_id"`
	ParticipantID   string `json:"participant_id"`
	ParticipantName string `json:"participant_name"`
	Amount          int    `json:"amount"`
}

// WinnerView identifies the participant that received the item.
type WinnerView struct {
	ParticipantID string `json:"participant_id"`
	DisplayName   string `json:"display_name"`
}

// BidView is one line of a closed round's bid list.
type BidView struct {
	ParticipantID   string  `json:"participant_id"`
	ParticipantName string  `json:"participant_name"`
	Amount          int     `json:"amount"`
	TimingSeconds   float64 `json:"timing_seconds"`
}

// RoundClosedPayload is the terminal event of a round.
type RoundClosedPayload struct {
	RoundID         string      `json:"round_id"`
	Item            ItemView    `json:"item"`
	Winner          *WinnerView `json:"winner"`
	Price           int         `json:"price"`
	AllBids         []BidView   `json:"all_bids"`
	IsNoBidFallback bool        `json:"is_no_bid_fallback"`
	NewTurnIndex    int         `json:"new_turn_index"`
	RoomCompleted   bool        `json:"room_completed"`
}

// TurnChangedPayload reports a turn advance.
type TurnChangedPayload struct {
	PreviousTurn int `json:"previous_turn"`
	NewTurn      int `json:"new_turn"`
}

// RoomStatusChangedPayload reports a pause, resume or completion.
type RoomStatusChangedPayload struct {
	Status string `json:"status"`
	Action string `json:"action"`
}
