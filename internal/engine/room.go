package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmynk/draftbid/internal/auction"
	"github.com/mmynk/draftbid/internal/events"
	"github.com/mmynk/draftbid/internal/models"
	"github.com/mmynk/draftbid/internal/storage"
)

// SkipTurn passes the room's turn to the next participant without a round.
// It is refused while a round is in flight. Returns the new turn index.
func (e *Engine) SkipTurn(ctx context.Context, roomID string) (int, error) {
	room, err := e.store.GetRoom(ctx, roomID)
	if err != nil {
		return 0, err
	}
	if room.Status == models.RoomCompleted {
		return 0, auction.ErrRoomCompleted
	}
	participants, err := e.store.ListParticipants(ctx, roomID)
	if err != nil {
		return 0, err
	}
	if len(participants) == 0 {
		return 0, auction.ErrNoParticipants
	}

	prev := auction.CurrentTurn(room.CurrentTurn, len(participants))
	next := auction.NextTurn(prev, len(participants))
	if err := e.store.AdvanceTurn(ctx, roomID, room.CurrentTurn, next); err != nil {
		return 0, err
	}
	e.metrics.TurnsSkipped.Inc()

	e.log.Info("turn skipped",
		"room_id", roomID,
		"previous_turn", prev,
		"new_turn", next,
	)
	e.publish(roomID, events.TurnChanged, events.TurnChangedPayload{
		PreviousTurn: prev,
		NewTurn:      next,
	})
	return next, nil
}

// PauseRoom stops new rounds from starting. A round in flight must settle
// first; there is no mid-round abort.
func (e *Engine) PauseRoom(ctx context.Context, roomID string) (*models.Room, error) {
	room, err := e.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	switch room.Status {
	case models.RoomPaused:
		return room, nil
	case models.RoomCompleted:
		return nil, auction.ErrRoomCompleted
	}

	ok, err := e.store.UpdateRoomStatus(ctx, roomID, room.Status, models.RoomPaused)
	if err != nil {
		return nil, err
	}
	if !ok {
		if _, err := e.store.GetInFlightRound(ctx, roomID); err == nil {
			return nil, auction.ErrRoundInFlight
		} else if !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("room %s changed status: %w", roomID, storage.ErrConflict)
	}
	room.Status = models.RoomPaused

	e.log.Info("room paused", "room_id", roomID)
	e.publish(roomID, events.RoomStatusChanged, events.RoomStatusChangedPayload{
		Status: string(models.RoomPaused),
		Action: "paused",
	})
	return room, nil
}

// ResumeRoom reopens a paused room.
func (e *Engine) ResumeRoom(ctx context.Context, roomID string) (*models.Room, error) {
	room, err := e.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	switch room.Status {
	case models.RoomActive, models.RoomSetup:
		return room, nil
	case models.RoomCompleted:
		return nil, auction.ErrRoomCompleted
	}

	ok, err := e.store.UpdateRoomStatus(ctx, roomID, models.RoomPaused, models.RoomActive)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("room %s changed status: %w", roomID, storage.ErrConflict)
	}
	room.Status = models.RoomActive

	e.log.Info("room resumed", "room_id", roomID)
	e.publish(roomID, events.RoomStatusChanged, events.RoomStatusChangedPayload{
		Status: string(models.RoomActive),
		Action: "resumed",
	})
	return room, nil
}
