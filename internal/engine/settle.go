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

// ErrSettling is returned by Settle when a settlement of the same round is
// already running in this process.
var ErrSettling = errors.New("settlement already running")

// RequestClose asks for a round to close. Only the caller whose request flips
// the round inactive proceeds to settlement and gets true; every other caller
// gets false and a nil error.
//
// When settlement fails after the flip, RequestClose returns true with the
// error. The round stays closed and the sweep retries the settlement.
func (e *Engine) RequestClose(ctx context.Context, roundID string, reason models.CloseReason) (bool, error) {
	if !reason.Valid() {
		return false, fmt.Errorf("unknown close reason %q", reason)
	}

	flipped, err := e.store.DeactivateRound(ctx, roundID, reason, e.clock.Now())
	if err != nil {
		return false, err
	}
	if !flipped {
		e.metrics.CloseRaceLost.WithLabelValues(string(reason)).Inc()
		e.log.Debug("close request lost the race",
			"round_id", roundID,
			"reason", reason,
		)
		return false, nil
	}
	e.metrics.RoundsClosed.WithLabelValues(string(reason)).Inc()
	e.cancelDeadline(roundID)

	e.log.Info("round closed",
		"round_id", roundID,
		"reason", reason,
	)

	if _, err := e.Settle(ctx, roundID); err != nil {
		return true, fmt.Errorf("failed to settle round %s: %w", roundID, err)
	}
	return true, nil
}

// CloseRound is the explicit admin close. With an itemID it targets the
// item's latest round, otherwise the room's in-flight one.
func (e *Engine) CloseRound(ctx context.Context, roomID, itemID string) (bool, error) {
	var (
		round *models.Round
		err   error
	)
	if itemID == "" {
		round, err = e.store.GetInFlightRound(ctx, roomID)
	} else {
		round, err = e.store.GetLatestRoundForItem(ctx, roomID, itemID)
	}
	if errors.Is(err, storage.ErrNotFound) {
		return false, auction.ErrRoundNotActive
	}
	if err != nil {
		return false, err
	}
	if !auction.InFlight(round) {
		return false, auction.ErrRoundNotActive
	}
	return e.RequestClose(ctx, round.ID, models.ExplicitAdminClose)
}

// Settle resolves a closed round: it picks the winner, or falls back to the
// nominator at FallbackPrice, and commits charge, allocation, history and turn
// advance in one store transaction. Settling a round that is already settled
// re-emits its outcome without touching any ledger.
func (e *Engine) Settle(ctx context.Context, roundID string) (*models.Outcome, error) {
	if !e.beginSettling(roundID) {
		return nil, ErrSettling
	}
	defer e.endSettling(roundID)

	round, err := e.store.GetRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	switch state := auction.StateOf(round); state {
	case auction.StateResolved:
		return e.replay(ctx, round)
	case auction.StateClosing:
	default:
		return nil, auction.Transition(state, auction.StateResolved)
	}

	outcome, err := e.resolve(ctx, round)
	if err != nil {
		e.metrics.SettlementFailures.Inc()
		return nil, err
	}

	err = e.store.ApplySettlement(ctx, outcome)
	if errors.Is(err, storage.ErrAlreadySettled) {
		return e.replay(ctx, round)
	}
	if err != nil {
		e.metrics.SettlementFailures.Inc()
		e.log.Error("settlement failed",
			"room_id", round.RoomID,
			"round_id", round.ID,
			"error", err,
		)
		return nil, err
	}

	kind := "winner"
	if outcome.Fallback {
		kind = "fallback"
	}
	e.metrics.Settlements.WithLabelValues(kind).Inc()
	if !round.ClosedAt.IsZero() {
		e.metrics.SettlementSeconds.Observe(outcome.SettledAt.Sub(round.ClosedAt).Seconds())
	}

	e.log.Info("round settled",
		"room_id", outcome.RoomID,
		"round_id", outcome.RoundID,
		"item_id", outcome.Item.ID,
		"winner_id", outcome.WinnerID,
		"price", outcome.Price,
		"fallback", outcome.Fallback,
		"new_turn", outcome.NewTurn,
	)
	e.emitOutcome(outcome)
	return outcome, nil
}

// resolve computes the outcome of a closed round without writing anything.
func (e *Engine) resolve(ctx context.Context, round *models.Round) (*models.Outcome, error) {
	participants, err := e.store.ListParticipants(ctx, round.RoomID)
	if err != nil {
		return nil, err
	}
	if len(participants) == 0 {
		return nil, auction.ErrNoParticipants
	}
	item, err := e.store.GetItem(ctx, round.ItemID)
	if err != nil {
		return nil, err
	}
	bids, err := e.store.ListBids(ctx, round.ID)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(participants))
	for _, p := range participants {
		names[p.ID] = p.DisplayName
	}
	book := auction.NewBook(round.StartTime, bids)

	outcome := &models.Outcome{
		RoundID:      round.ID,
		RoomID:       round.RoomID,
		Item:         *item,
		Bids:         book.Records(names),
		PreviousTurn: round.TurnIndex,
		NewTurn:      auction.NextTurn(round.TurnIndex, len(participants)),
		SettledAt:    e.clock.Now(),
	}

	// Bids were checked when placed, but the ledger is re-checked here: the
	// first candidate that can still pay wins.
	for _, cand := range book.Candidates() {
		p := findParticipant(participants, cand.ParticipantID)
		if p == nil {
			continue
		}
		if _, err := auction.NewLedger(p, false).Charge(item.Category, cand.Amount); err != nil {
			e.log.Warn("skipping ineligible bid",
				"round_id", round.ID,
				"participant_id", p.ID,
				"amount", cand.Amount,
				"error", err,
			)
			continue
		}
		outcome.WinnerID = p.ID
		outcome.WinnerName = p.DisplayName
		outcome.Price = cand.Amount
		return outcome, nil
	}

	nominator := findParticipant(participants, round.NominatorID)
	if nominator == nil {
		return nil, fmt.Errorf("nominator %s of round %s: %w", round.NominatorID, round.ID, auction.ErrUnknownParticipant)
	}
	if _, err := auction.NewLedger(nominator, false).Charge(item.Category, auction.FallbackPrice); err != nil {
		return nil, fmt.Errorf("fallback for round %s: %w", round.ID, err)
	}
	outcome.WinnerID = nominator.ID
	outcome.WinnerName = nominator.DisplayName
	outcome.Price = auction.FallbackPrice
	outcome.Fallback = true
	return outcome, nil
}

// replay re-emits the stored outcome of a settled round.
func (e *Engine) replay(ctx context.Context, round *models.Round) (*models.Outcome, error) {
	outcome, err := e.store.GetOutcome(ctx, round.ID)
	if err != nil {
		return nil, err
	}
	e.metrics.Settlements.WithLabelValues("replayed").Inc()
	e.log.Info("round already settled, replaying outcome",
		"room_id", round.RoomID,
		"round_id", round.ID,
	)
	e.emitOutcome(outcome)
	return outcome, nil
}

func (e *Engine) emitOutcome(o *models.Outcome) {
	bids := make([]events.BidView, 0, len(o.Bids))
	for _, b := range o.Bids {
		bids = append(bids, events.BidView{
			ParticipantID:   b.ParticipantID,
			ParticipantName: b.DisplayName,
			Amount:          b.Amount,
			TimingSeconds:   b.Offset.Seconds(),
		})
	}
	e.publish(o.RoomID, events.RoundClosed, events.RoundClosedPayload{
		RoundID: o.RoundID,
		Item:    itemView(&o.Item),
		Winner: &events.WinnerView{
			ParticipantID: o.WinnerID,
			DisplayName:   o.WinnerName,
		},
		Price:           o.Price,
		AllBids:         bids,
		IsNoBidFallback: o.Fallback,
		NewTurnIndex:    o.NewTurn,
		RoomCompleted:   o.RoomCompleted,
	})
	e.publish(o.RoomID, events.TurnChanged, events.TurnChangedPayload{
		PreviousTurn: o.PreviousTurn,
		NewTurn:      o.NewTurn,
	})
	if o.RoomCompleted {
		e.publish(o.RoomID, events.RoomStatusChanged, events.RoomStatusChangedPayload{
			Status: string(models.RoomCompleted),
			Action: "completed",
		})
	}
}

func (e *Engine) beginSettling(roundID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.settling[roundID]; ok {
		return false
	}
	e.settling[roundID] = struct{}{}
	return true
}

func (e *Engine) endSettling(roundID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.settling, roundID)
}

func (e *Engine) isSettling(roundID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.settling[roundID]
	return ok
}
