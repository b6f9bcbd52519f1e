package models

// Participant represents a bidder in a room.
type Participant struct {
	// ID is the unique identifier for the participant (UUID format).
	ID string

	// RoomID is the room this participant belongs to.
	RoomID string

	// DisplayName is the name shown to the other participants.
	DisplayName string

	// Budget is the remaining spendable credit. Never negative.
	Budget int

	// TurnOrder is the 0-based nomination position, unique within a room.
	TurnOrder int

	// Counts is the number of allocated items per category.
	// Derived from the items table when the participant is loaded.
	Counts map[Category]int

	// CreatedAt is the Unix timestamp when the participant was added.
	CreatedAt int64
}

// Held returns the total number of items allocated to the participant.
func (p *Participant) Held() int {
	total := 0
	for _, n := range p.Counts {
		total += n
	}
	return total
}
