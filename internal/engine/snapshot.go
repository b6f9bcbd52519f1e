package engine

import (
	"context"
	"errors"

	"github.com/mmynk/draftbid/internal/auction"
	"github.com/mmynk/draftbid/internal/models"
	"github.com/mmynk/draftbid/internal/storage"
)

// ParticipantState is a participant with their current bid ceiling.
type ParticipantState struct {
	*models.Participant
	MaxBid int
}

// Snapshot is the authoritative state of a room. Observers fetch it when they
// connect and whenever they suspect they missed an event.
type Snapshot struct {
	Room         *models.Room
	Participants []ParticipantState
	Items        []*models.Item
	// CurrentTurn is the room's turn taken modulo the participant count.
	CurrentTurn int
	// Round is the round in flight, nil when the room is idle.
	Round *models.Round
	// Remaining is the whole seconds left in Round.
	Remaining int
	// Bids are Round's current bids in ranking order.
	Bids []models.Bid
}

// Snapshot reads the current state of a room.
func (e *Engine) Snapshot(ctx context.Context, roomID string) (*Snapshot, error) {
	room, err := e.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	participants, err := e.store.ListParticipants(ctx, roomID)
	if err != nil {
		return nil, err
	}
	items, err := e.store.ListItems(ctx, roomID)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Room:         room,
		Items:        items,
		CurrentTurn:  auction.CurrentTurn(room.CurrentTurn, len(participants)),
		Participants: make([]ParticipantState, 0, len(participants)),
	}
	for _, p := range participants {
		snap.Participants = append(snap.Participants, ParticipantState{
			Participant: p,
			MaxBid:      auction.NewLedger(p, e.reserve).MaxBid(),
		})
	}

	round, err := e.store.GetInFlightRound(ctx, roomID)
	if errors.Is(err, storage.ErrNotFound) {
		return snap, nil
	}
	if err != nil {
		return nil, err
	}
	bids, err := e.store.ListBids(ctx, round.ID)
	if err != nil {
		return nil, err
	}
	snap.Round = round
	snap.Remaining = auction.RemainingSeconds(round.EndTime, e.clock.Now())
	snap.Bids = auction.NewBook(round.StartTime, bids).Ranked()
	return snap, nil
}

// History returns every settled round of a room, oldest first.
func (e *Engine) History(ctx context.Context, roomID string) ([]*models.Outcome, error) {
	if _, err := e.store.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}
	return e.store.ListOutcomes(ctx, roomID)
}
