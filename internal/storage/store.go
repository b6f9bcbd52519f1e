// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/draftbid/internal/models"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a conditional write lost to a concurrent one.
	// The caller may re-read and retry.
	ErrConflict = errors.New("concurrent update conflict")

	// ErrAlreadySettled is returned by ApplySettlement for a round that has
	// already been settled.
	ErrAlreadySettled = errors.New("round already settled")
)

// Store defines the persistence contract of the auction engine.
//
// Two guarantees matter beyond plain reads and writes: DeactivateRound is a
// compare-and-swap on the round's active flag, and ApplySettlement applies
// the charge, the allocation, the history and the turn advance in one
// transaction.
type Store interface {
	// CreateRoom persists a room and its participants. IDs and CreatedAt are
	// populated by the store; participants keep the TurnOrder they carry.
	CreateRoom(ctx context.Context, room *models.Room, participants []*models.Participant) error

	// GetRoom retrieves a room by ID.
	GetRoom(ctx context.Context, roomID string) (*models.Room, error)

	// ListRooms retrieves all rooms, newest first.
	ListRooms(ctx context.Context) ([]*models.Room, error)

	// UpdateRoomStatus moves a room from one status to another.
	// Returns false if the room was not in the from status, or, when pausing,
	// if a round is in flight.
	UpdateRoomStatus(ctx context.Context, roomID string, from, to models.RoomStatus) (bool, error)

	// ListParticipants returns the room's participants ordered by TurnOrder,
	// with per-category counts filled in.
	ListParticipants(ctx context.Context, roomID string) ([]*models.Participant, error)

	// AddItems persists new unallocated items for a room.
	AddItems(ctx context.Context, roomID string, items []*models.Item) error

	// GetItem retrieves an item by ID.
	GetItem(ctx context.Context, itemID string) (*models.Item, error)

	// ListItems retrieves all items of a room ordered by category and name.
	ListItems(ctx context.Context, roomID string) ([]*models.Item, error)

	// CreateRound persists a new active round. It fails with
	// auction.ErrAlreadyActive when the room already has a round in flight,
	// auction.ErrNotYourTurn when the room's turn is no longer roomTurn, and
	// auction.ErrItemUnavailable when the item has been allocated.
	CreateRound(ctx context.Context, round *models.Round, roomTurn int) error

	// GetRound retrieves a round by ID.
	GetRound(ctx context.Context, roundID string) (*models.Round, error)

	// GetInFlightRound returns the room's active or closed-but-unsettled round.
	// Returns ErrNotFound when the room is idle.
	GetInFlightRound(ctx context.Context, roomID string) (*models.Round, error)

	// GetLatestRoundForItem returns the most recent round for an item.
	GetLatestRoundForItem(ctx context.Context, roomID, itemID string) (*models.Round, error)

	// DeactivateRound flips active from true to false. It returns true only
	// for the single caller whose update changed the row.
	DeactivateRound(ctx context.Context, roundID string, reason models.CloseReason, at time.Time) (bool, error)

	// ListActiveRounds returns every active round across rooms.
	ListActiveRounds(ctx context.Context) ([]*models.Round, error)

	// ListExpiredRounds returns active rounds whose deadline is at or before now.
	ListExpiredRounds(ctx context.Context, now time.Time) ([]*models.Round, error)

	// ListUnsettledRounds returns closed rounds whose settlement never committed.
	ListUnsettledRounds(ctx context.Context) ([]*models.Round, error)

	// UpsertBid records a participant's bid in an active round. The round's
	// window is re-checked inside the write.
	UpsertBid(ctx context.Context, roundID, participantID string, amount int, now time.Time) (*models.Bid, error)

	// ListBids returns the current bids of a round.
	ListBids(ctx context.Context, roundID string) ([]models.Bid, error)

	// ApplySettlement charges the winner, allocates the item, records the
	// history, advances the turn and marks the round settled, atomically.
	// Returns ErrAlreadySettled if another settlement committed first.
	ApplySettlement(ctx context.Context, outcome *models.Outcome) error

	// GetOutcome retrieves the settled result of a round.
	GetOutcome(ctx context.Context, roundID string) (*models.Outcome, error)

	// ListOutcomes retrieves every settled result of a room, oldest first.
	ListOutcomes(ctx context.Context, roomID string) ([]*models.Outcome, error)

	// AdvanceTurn moves the room's turn from expected to next. It fails with
	// auction.ErrRoundInFlight while a round is in flight and ErrConflict if
	// the turn has moved.
	AdvanceTurn(ctx context.Context, roomID string, expected, next int) error

	// Close releases any resources held by the store.
	Close() error
}
