// Package engine coordinates auction rounds: it opens bidding windows,
// accepts bids, closes each round exactly once, settles it and advances the
// turn, emitting events as it goes.
//
// All state lives in the store. The engine keeps only deadline timers in
// memory, and those are advisory: the stale-round sweep closes any round
// whose timer was lost.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/draftbid/internal/auction"
	"github.com/mmynk/draftbid/internal/events"
	"github.com/mmynk/draftbid/internal/metrics"
	"github.com/mmynk/draftbid/internal/models"
	"github.com/mmynk/draftbid/internal/storage"
)

const (
	DefaultRoundDuration = 30 * time.Second
	DefaultTickInterval  = time.Second
	DefaultSweepInterval = 2 * time.Second

	// timerCallbackTimeout bounds the close and settlement run from a
	// deadline timer, which has no caller context.
	timerCallbackTimeout = 10 * time.Second
)

// Publisher delivers events to observers. *events.Hub implements it.
type Publisher interface {
	Publish(ev events.Event) error
}

// Options tunes an Engine. Zero values take the defaults.
type Options struct {
	RoundDuration    time.Duration
	TickInterval     time.Duration
	SweepInterval    time.Duration
	ReserveOpenSlots bool

	Clock   Clock
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Engine is the auction coordinator. It is safe for concurrent use.
type Engine struct {
	store   storage.Store
	pub     Publisher
	clock   Clock
	log     *slog.Logger
	metrics *metrics.Metrics

	roundDuration time.Duration
	tickInterval  time.Duration
	sweepInterval time.Duration
	reserve       bool

	mu       sync.Mutex
	timers   map[string]Timer    // round ID -> deadline timer
	settling map[string]struct{} // round IDs with a settlement running
}

// New creates an engine over store, publishing to pub.
func New(store storage.Store, pub Publisher, opts Options) *Engine {
	e := &Engine{
		store:         store,
		pub:           pub,
		clock:         opts.Clock,
		log:           opts.Logger,
		metrics:       opts.Metrics,
		roundDuration: opts.RoundDuration,
		tickInterval:  opts.TickInterval,
		sweepInterval: opts.SweepInterval,
		reserve:       opts.ReserveOpenSlots,
		timers:        make(map[string]Timer),
		settling:      make(map[string]struct{}),
	}
	if e.clock == nil {
		e.clock = systemClock{}
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	if e.metrics == nil {
		e.metrics = metrics.New(prometheus.NewRegistry())
	}
	if e.roundDuration <= 0 {
		e.roundDuration = DefaultRoundDuration
	}
	if e.tickInterval <= 0 {
		e.tickInterval = DefaultTickInterval
	}
	if e.sweepInterval <= 0 {
		e.sweepInterval = DefaultSweepInterval
	}
	return e
}

// StartRequest nominates an item on behalf of the participant on turn.
type StartRequest struct {
	RoomID        string
	ItemID        string
	ParticipantID string
	// ExpectedTurn is the turn index the caller believes is current.
	ExpectedTurn int
}

// StartRound opens a bidding window for an item.
func (e *Engine) StartRound(ctx context.Context, req StartRequest) (*models.Round, error) {
	room, err := e.store.GetRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	switch room.Status {
	case models.RoomPaused:
		return nil, auction.ErrRoomPaused
	case models.RoomCompleted:
		return nil, auction.ErrRoomCompleted
	}

	participants, err := e.store.ListParticipants(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	if len(participants) == 0 {
		return nil, auction.ErrNoParticipants
	}

	if _, err := e.store.GetInFlightRound(ctx, room.ID); err == nil {
		return nil, auction.ErrAlreadyActive
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	turn := auction.CurrentTurn(room.CurrentTurn, len(participants))
	nominator := participants[turn]
	if req.ExpectedTurn != turn || (req.ParticipantID != "" && req.ParticipantID != nominator.ID) {
		return nil, fmt.Errorf("%w: turn %d belongs to %s", auction.ErrNotYourTurn, turn, nominator.DisplayName)
	}

	item, err := e.store.GetItem(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	if item.RoomID != room.ID {
		return nil, fmt.Errorf("item %s in room %s: %w", item.ID, room.ID, storage.ErrNotFound)
	}
	if item.Allocated {
		return nil, auction.ErrItemUnavailable
	}

	// The nominator receives the item if nobody bids, so they must be able
	// to absorb the fallback.
	if _, err := auction.NewLedger(nominator, false).Charge(item.Category, auction.FallbackPrice); err != nil {
		return nil, err
	}

	now := e.clock.Now()
	round := auction.NewRound(uuid.New().String(), room.ID, item.ID, nominator.ID, turn, now, e.roundDuration)
	if err := e.store.CreateRound(ctx, round, room.CurrentTurn); err != nil {
		return nil, err
	}
	e.metrics.RoundsStarted.Inc()
	e.scheduleDeadline(round)

	e.log.Info("round started",
		"room_id", room.ID,
		"round_id", round.ID,
		"item_id", item.ID,
		"nominator_id", nominator.ID,
		"turn", turn,
		"end_time", round.EndTime,
	)

	if room.Status == models.RoomSetup {
		e.publish(room.ID, events.RoomStatusChanged, events.RoomStatusChangedPayload{
			Status: string(models.RoomActive),
			Action: "started",
		})
	}
	e.publish(room.ID, events.RoundStarted, events.RoundStartedPayload{
		RoundID:     round.ID,
		Item:        itemView(item),
		NominatorID: nominator.ID,
		EndTime:     round.EndTime,
		TurnIndex:   turn,
		Remaining:   auction.RemainingSeconds(round.EndTime, now),
	})
	return round, nil
}

// BidRequest is one bid submission.
type BidRequest struct {
	RoomID        string
	ItemID        string
	ParticipantID string
	Amount        int
}

// PlaceBid records a bid in the room's active round. A zero amount is a pass.
func (e *Engine) PlaceBid(ctx context.Context, req BidRequest) (*models.Bid, error) {
	bid, err := e.placeBid(ctx, req)
	if err != nil {
		e.metrics.Bids.WithLabelValues("rejected").Inc()
		return nil, err
	}
	e.metrics.Bids.WithLabelValues("accepted").Inc()
	return bid, nil
}

func (e *Engine) placeBid(ctx context.Context, req BidRequest) (*models.Bid, error) {
	round, err := e.store.GetInFlightRound(ctx, req.RoomID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, auction.ErrRoundNotActive
	}
	if err != nil {
		return nil, err
	}
	if req.ItemID != "" && round.ItemID != req.ItemID {
		return nil, auction.ErrRoundNotActive
	}
	now := e.clock.Now()
	if err := auction.CheckBidWindow(round, now); err != nil {
		return nil, err
	}

	participants, err := e.store.ListParticipants(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	bidder := findParticipant(participants, req.ParticipantID)
	if bidder == nil {
		return nil, auction.ErrUnknownParticipant
	}

	item, err := e.store.GetItem(ctx, round.ItemID)
	if err != nil {
		return nil, err
	}
	if err := auction.NewLedger(bidder, e.reserve).CheckBid(item.Category, req.Amount); err != nil {
		return nil, err
	}

	bid, err := e.store.UpsertBid(ctx, round.ID, bidder.ID, req.Amount, now)
	if err != nil {
		return nil, err
	}

	e.log.Debug("bid placed",
		"room_id", req.RoomID,
		"round_id", round.ID,
		"participant_id", bidder.ID,
		"amount", req.Amount,
	)
	e.publish(req.RoomID, events.BidPlaced, events.BidPlacedPayload{
		RoundID:         round.ID,
		ItemID:          item.ID,
		ParticipantID:   bidder.ID,
		ParticipantName: bidder.DisplayName,
		Amount:          bid.Amount,
	})
	return bid, nil
}

// publish emits an event. Failures are logged and otherwise ignored.
func (e *Engine) publish(roomID string, typ events.Type, payload any) {
	if e.pub == nil {
		return
	}
	err := e.pub.Publish(events.Event{
		Type:    typ,
		RoomID:  roomID,
		At:      e.clock.Now(),
		Payload: payload,
	})
	if err != nil {
		e.metrics.EventFailures.Inc()
		e.log.Error("failed to publish event",
			"room_id", roomID,
			"event", typ,
			"error", err,
		)
	}
}

func findParticipant(participants []*models.Participant, id string) *models.Participant {
	for _, p := range participants {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func itemView(item *models.Item) events.ItemView {
	return events.ItemView{
		ID:       item.ID,
		Name:     item.Name,
		Category: string(item.Category),
		Team:     item.Team,
	}
}
