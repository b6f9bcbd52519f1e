package models

import "fmt"

// Category is the role tag of an item. Each category has its own roster quota.
type Category string

const (
	Goalkeeper Category = "P"
	Defender   Category = "D"
	Midfielder Category = "C"
	Forward    Category = "A"
)

// Categories lists every category in roster order.
var Categories = []Category{Goalkeeper, Defender, Midfielder, Forward}

// ParseCategory validates a category tag.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Item represents a player that can be nominated and auctioned.
type Item struct {
	// ID is the unique identifier for the item (UUID format).
	ID string

	// RoomID is the room this item belongs to.
	RoomID string

	// Name is the player name.
	Name string

	// Category is the role of the player.
	Category Category

	// Team is the real-world club, informational only.
	Team string

	// Allocated flips from false to true exactly once, at settlement.
	Allocated bool

	// AllocatedTo is the winning participant ID, empty until allocated.
	AllocatedTo string

	// Price is what the winner paid, zero until allocated.
	Price int

	// RoundID is the round that allocated the item, empty until allocated.
	RoundID string
}
