package models

import "time"

// BidRecord is one line of a round's bid history.
type BidRecord struct {
	ParticipantID string
	DisplayName   string
	Amount        int
	PlacedAt      time.Time

	// Offset is PlacedAt relative to the round start, never negative.
	Offset time.Duration
}

// Outcome is the settled result of a round.
type Outcome struct {
	RoundID string
	RoomID  string
	Item    Item

	// WinnerID is the participant that received the item.
	// Always set: when nobody bids the nominator is the winner.
	WinnerID   string
	WinnerName string
	Price      int

	// Fallback is true when no positive bid existed and the nominator
	// received the item at the fallback price.
	Fallback bool

	// Bids is the full bid list ordered by amount desc, then time asc.
	Bids []BidRecord

	PreviousTurn int
	NewTurn      int

	// RoomCompleted is true when this settlement allocated the last item.
	RoomCompleted bool

	SettledAt time.Time
}
