package models

// RoomStatus is the lifecycle status of a room.
type RoomStatus string

const (
	RoomSetup     RoomStatus = "setup"
	RoomActive    RoomStatus = "active"
	RoomPaused    RoomStatus = "paused"
	RoomCompleted RoomStatus = "completed"
)

// Room represents one auction draft.
type Room struct {
	// ID is the unique identifier for the room (UUID format).
	ID string

	// Name is the display name of the room (e.g., "Sunday League 2026").
	Name string

	// Status moves setup -> active on the first round, active <-> paused on
	// admin request, and to completed once every item is allocated.
	Status RoomStatus

	// DefaultBudget is the budget each participant starts with.
	DefaultBudget int

	// CurrentTurn is the index into the participants ordered by TurnOrder.
	// Readers must take it modulo the participant count.
	CurrentTurn int

	// CreatedAt is the Unix timestamp when the room was created.
	CreatedAt int64
}
