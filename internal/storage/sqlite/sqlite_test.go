package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mmynk/draftbid/internal/auction"
	"github.com/mmynk/draftbid/internal/models"
	"github.com/mmynk/draftbid/internal/storage"
)

var t0 = time.Date(2026, 9, 1, 20, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

type fixture struct {
	room         *models.Room
	participants []*models.Participant
	items        []*models.Item
}

// seedRoom creates a room with the given participants (500 credits each)
// and one item per category given.
func seedRoom(t *testing.T, store *SQLiteStore, names []string, categories ...models.Category) fixture {
	t.Helper()
	ctx := context.Background()

	room := &models.Room{Name: "Test League", DefaultBudget: 500}
	participants := make([]*models.Participant, len(names))
	for i, name := range names {
		participants[i] = &models.Participant{DisplayName: name, Budget: 500, TurnOrder: i}
	}
	if err := store.CreateRoom(ctx, room, participants); err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}

	items := make([]*models.Item, len(categories))
	for i, cat := range categories {
		items[i] = &models.Item{Name: "Player " + string(rune('A'+i)), Category: cat, Team: "Club"}
	}
	if err := store.AddItems(ctx, room.ID, items); err != nil {
		t.Fatalf("AddItems failed: %v", err)
	}
	return fixture{room: room, participants: participants, items: items}
}

func startRound(t *testing.T, store *SQLiteStore, f fixture, item *models.Item, turn int) *models.Round {
	t.Helper()
	r := auction.NewRound("", f.room.ID, item.ID, f.participants[turn].ID, turn, t0, 30*time.Second)
	if err := store.CreateRound(context.Background(), r, turn); err != nil {
		t.Fatalf("CreateRound failed: %v", err)
	}
	return r
}

func TestSQLiteStore_Rooms(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	f := seedRoom(t, store, []string{"Alice", "Bob", "Carol"}, models.Goalkeeper, models.Forward)

	t.Run("CreateRoom generates IDs and defaults", func(t *testing.T) {
		if f.room.ID == "" {
			t.Error("Expected room ID to be generated")
		}
		if f.room.Status != models.RoomSetup {
			t.Errorf("Status = %s, want setup", f.room.Status)
		}
		for _, p := range f.participants {
			if p.ID == "" || p.RoomID != f.room.ID {
				t.Errorf("Participant not linked: %+v", p)
			}
		}
	})

	t.Run("ListParticipants in turn order", func(t *testing.T) {
		got, err := store.ListParticipants(ctx, f.room.ID)
		if err != nil {
			t.Fatalf("ListParticipants failed: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("Expected 3 participants, got %d", len(got))
		}
		for i, want := range []string{"Alice", "Bob", "Carol"} {
			if got[i].DisplayName != want || got[i].TurnOrder != i {
				t.Errorf("participants[%d] = %s/%d, want %s/%d", i, got[i].DisplayName, got[i].TurnOrder, want, i)
			}
		}
	})

	t.Run("GetRoom returns ErrNotFound", func(t *testing.T) {
		_, err := store.GetRoom(ctx, "nonexistent-id")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("UpdateRoomStatus is conditional", func(t *testing.T) {
		ok, err := store.UpdateRoomStatus(ctx, f.room.ID, models.RoomActive, models.RoomPaused)
		if err != nil {
			t.Fatalf("UpdateRoomStatus failed: %v", err)
		}
		if ok {
			t.Error("Expected no update from a status the room is not in")
		}
	})

	t.Run("ListItems", func(t *testing.T) {
		items, err := store.ListItems(ctx, f.room.ID)
		if err != nil {
			t.Fatalf("ListItems failed: %v", err)
		}
		if len(items) != 2 {
			t.Fatalf("Expected 2 items, got %d", len(items))
		}
		for _, it := range items {
			if it.Allocated || it.AllocatedTo != "" {
				t.Errorf("Expected unallocated item, got %+v", it)
			}
		}
	})
}

func TestSQLiteStore_CreateRound(t *testing.T) {
	ctx := context.Background()

	t.Run("activates room", func(t *testing.T) {
		store := newTestStore(t)
		f := seedRoom(t, store, []string{"Alice", "Bob"}, models.Forward)
		startRound(t, store, f, f.items[0], 0)

		room, err := store.GetRoom(ctx, f.room.ID)
		if err != nil {
			t.Fatalf("GetRoom failed: %v", err)
		}
		if room.Status != models.RoomActive {
			t.Errorf("Status = %s, want active", room.Status)
		}
	})

	t.Run("second round is rejected", func(t *testing.T) {
		store := newTestStore(t)
		f := seedRoom(t, store, []string{"Alice", "Bob"}, models.Forward, models.Defender)
		startRound(t, store, f, f.items[0], 0)

		r := auction.NewRound("", f.room.ID, f.items[1].ID, f.participants[0].ID, 0, t0, 30*time.Second)
		err := store.CreateRound(ctx, r, 0)
		if !errors.Is(err, auction.ErrAlreadyActive) {
			t.Errorf("Expected ErrAlreadyActive, got %v", err)
		}
	})

	t.Run("closed but unsettled round still blocks", func(t *testing.T) {
		store := newTestStore(t)
		f := seedRoom(t, store, []string{"Alice", "Bob"}, models.Forward, models.Defender)
		first := startRound(t, store, f, f.items[0], 0)
		if _, err := store.DeactivateRound(ctx, first.ID, models.DeadlineElapsed, t0.Add(30*time.Second)); err != nil {
			t.Fatalf("DeactivateRound failed: %v", err)
		}

		r := auction.NewRound("", f.room.ID, f.items[1].ID, f.participants[0].ID, 0, t0, 30*time.Second)
		if err := store.CreateRound(ctx, r, 0); !errors.Is(err, auction.ErrAlreadyActive) {
			t.Errorf("Expected ErrAlreadyActive, got %v", err)
		}
	})

	t.Run("stale turn is rejected", func(t *testing.T) {
		store := newTestStore(t)
		f := seedRoom(t, store, []string{"Alice", "Bob"}, models.Forward)
		r := auction.NewRound("", f.room.ID, f.items[0].ID, f.participants[1].ID, 1, t0, 30*time.Second)
		if err := store.CreateRound(ctx, r, 1); !errors.Is(err, auction.ErrNotYourTurn) {
			t.Errorf("Expected ErrNotYourTurn, got %v", err)
		}
	})

	t.Run("pause is refused while a round is in flight", func(t *testing.T) {
		store := newTestStore(t)
		f := seedRoom(t, store, []string{"Alice", "Bob"}, models.Forward)
		startRound(t, store, f, f.items[0], 0)
		ok, err := store.UpdateRoomStatus(ctx, f.room.ID, models.RoomActive, models.RoomPaused)
		if err != nil {
			t.Fatalf("UpdateRoomStatus failed: %v", err)
		}
		if ok {
			t.Error("Expected pause to be refused while a round is in flight")
		}
	})

	t.Run("paused room is rejected", func(t *testing.T) {
		store := newTestStore(t)
		f := seedRoom(t, store, []string{"Alice", "Bob"}, models.Forward)
		if _, err := store.UpdateRoomStatus(ctx, f.room.ID, models.RoomSetup, models.RoomPaused); err != nil {
			t.Fatalf("UpdateRoomStatus failed: %v", err)
		}
		r := auction.NewRound("", f.room.ID, f.items[0].ID, f.participants[0].ID, 0, t0, 30*time.Second)
		if err := store.CreateRound(ctx, r, 0); !errors.Is(err, auction.ErrRoomPaused) {
			t.Errorf("Expected ErrRoomPaused, got %v", err)
		}
	})
}

func TestSQLiteStore_DeactivateRoundIsCAS(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	f := seedRoom(t, store, []string{"Alice", "Bob"}, models.Forward)
	r := startRound(t, store, f, f.items[0], 0)

	reasons := []models.CloseReason{models.DeadlineElapsed, models.ExplicitAdminClose, models.StaleSweepRecovery}
	var flipped atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(reason models.CloseReason) {
			defer wg.Done()
			ok, err := store.DeactivateRound(ctx, r.ID, reason, t0.Add(30*time.Second))
			if err != nil {
				t.Errorf("DeactivateRound failed: %v", err)
				return
			}
			if ok {
				flipped.Add(1)
			}
		}(reasons[i%len(reasons)])
	}
	wg.Wait()

	if got := flipped.Load(); got != 1 {
		t.Fatalf("Expected exactly one flip, got %d", got)
	}

	got, err := store.GetRound(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetRound failed: %v", err)
	}
	if got.Active || got.CloseReason == "" || got.ClosedAt.IsZero() {
		t.Errorf("Expected closed round with reason, got %+v", got)
	}
}

func TestSQLiteStore_UpsertBid(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	f := seedRoom(t, store, []string{"Alice", "Bob"}, models.Forward)
	r := startRound(t, store, f, f.items[0], 0)
	alice, bob := f.participants[0].ID, f.participants[1].ID

	first, err := store.UpsertBid(ctx, r.ID, alice, 10, t0.Add(2*time.Second))
	if err != nil {
		t.Fatalf("UpsertBid failed: %v", err)
	}
	if first.Seq != 1 {
		t.Errorf("Seq = %d, want 1", first.Seq)
	}

	t.Run("same amount keeps timestamp", func(t *testing.T) {
		again, err := store.UpsertBid(ctx, r.ID, alice, 10, t0.Add(9*time.Second))
		if err != nil {
			t.Fatalf("UpsertBid failed: %v", err)
		}
		if !again.PlacedAt.Equal(first.PlacedAt) || again.Seq != first.Seq {
			t.Errorf("Expected unchanged bid, got %+v", again)
		}
	})

	t.Run("new amount refreshes timestamp", func(t *testing.T) {
		if _, err := store.UpsertBid(ctx, r.ID, bob, 12, t0.Add(3*time.Second)); err != nil {
			t.Fatalf("UpsertBid failed: %v", err)
		}
		lowered, err := store.UpsertBid(ctx, r.ID, alice, 8, t0.Add(4*time.Second))
		if err != nil {
			t.Fatalf("UpsertBid failed: %v", err)
		}
		if lowered.Amount != 8 || !lowered.PlacedAt.Equal(t0.Add(4*time.Second)) || lowered.Seq != 3 {
			t.Errorf("Unexpected revision: %+v", lowered)
		}

		bids, err := store.ListBids(ctx, r.ID)
		if err != nil {
			t.Fatalf("ListBids failed: %v", err)
		}
		if len(bids) != 2 {
			t.Fatalf("Expected one bid per participant, got %d", len(bids))
		}
		if bids[0].ParticipantID != bob {
			t.Errorf("Expected Bob first, got %s", bids[0].ParticipantID)
		}
	})

	t.Run("rejected at deadline", func(t *testing.T) {
		_, err := store.UpsertBid(ctx, r.ID, bob, 20, t0.Add(30*time.Second))
		if !errors.Is(err, auction.ErrDeadlinePassed) {
			t.Errorf("Expected ErrDeadlinePassed, got %v", err)
		}
	})

	t.Run("rejected after close", func(t *testing.T) {
		if _, err := store.DeactivateRound(ctx, r.ID, models.ExplicitAdminClose, t0.Add(5*time.Second)); err != nil {
			t.Fatalf("DeactivateRound failed: %v", err)
		}
		_, err := store.UpsertBid(ctx, r.ID, bob, 20, t0.Add(6*time.Second))
		if !errors.Is(err, auction.ErrRoundNotActive) {
			t.Errorf("Expected ErrRoundNotActive, got %v", err)
		}
	})
}

func TestSQLiteStore_ApplySettlement(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	f := seedRoom(t, store, []string{"Alice", "Bob", "Carol"}, models.Forward, models.Defender)
	r := startRound(t, store, f, f.items[0], 0)
	bob := f.participants[1]

	outcome := &models.Outcome{
		RoundID:      r.ID,
		RoomID:       f.room.ID,
		Item:         *f.items[0],
		WinnerID:     bob.ID,
		Price:        15,
		PreviousTurn: 0,
		NewTurn:      1,
		SettledAt:    t0.Add(31 * time.Second),
		Bids: []models.BidRecord{
			{ParticipantID: bob.ID, DisplayName: "Bob", Amount: 15, PlacedAt: t0.Add(4 * time.Second), Offset: 4 * time.Second},
			{ParticipantID: f.participants[0].ID, DisplayName: "Alice", Amount: 10, PlacedAt: t0.Add(2 * time.Second), Offset: 2 * time.Second},
		},
	}

	t.Run("rejected while round is active", func(t *testing.T) {
		err := store.ApplySettlement(ctx, outcome)
		if !errors.Is(err, storage.ErrConflict) {
			t.Errorf("Expected ErrConflict, got %v", err)
		}
	})

	if _, err := store.DeactivateRound(ctx, r.ID, models.DeadlineElapsed, t0.Add(30*time.Second)); err != nil {
		t.Fatalf("DeactivateRound failed: %v", err)
	}

	t.Run("applies charge allocation and turn", func(t *testing.T) {
		if err := store.ApplySettlement(ctx, outcome); err != nil {
			t.Fatalf("ApplySettlement failed: %v", err)
		}

		participants, _ := store.ListParticipants(ctx, f.room.ID)
		if participants[1].Budget != 485 {
			t.Errorf("Bob budget = %d, want 485", participants[1].Budget)
		}
		if participants[1].Counts[models.Forward] != 1 {
			t.Errorf("Bob forwards = %d, want 1", participants[1].Counts[models.Forward])
		}

		item, _ := store.GetItem(ctx, f.items[0].ID)
		if !item.Allocated || item.AllocatedTo != bob.ID || item.Price != 15 || item.RoundID != r.ID {
			t.Errorf("Unexpected item after settlement: %+v", item)
		}

		room, _ := store.GetRoom(ctx, f.room.ID)
		if room.CurrentTurn != 1 {
			t.Errorf("CurrentTurn = %d, want 1", room.CurrentTurn)
		}
		if outcome.RoomCompleted {
			t.Error("Room should not be completed with an item left")
		}
	})

	t.Run("second settlement is rejected without charging", func(t *testing.T) {
		again := *outcome
		err := store.ApplySettlement(ctx, &again)
		if !errors.Is(err, storage.ErrAlreadySettled) {
			t.Fatalf("Expected ErrAlreadySettled, got %v", err)
		}
		participants, _ := store.ListParticipants(ctx, f.room.ID)
		if participants[1].Budget != 485 {
			t.Errorf("Bob budget = %d after replay, want 485", participants[1].Budget)
		}
	})

	t.Run("GetOutcome returns history", func(t *testing.T) {
		got, err := store.GetOutcome(ctx, r.ID)
		if err != nil {
			t.Fatalf("GetOutcome failed: %v", err)
		}
		if got.WinnerName != "Bob" || got.Price != 15 || got.Fallback {
			t.Errorf("Unexpected outcome: %+v", got)
		}
		if len(got.Bids) != 2 || got.Bids[0].Amount != 15 || got.Bids[1].Offset != 2*time.Second {
			t.Errorf("Unexpected outcome bids: %+v", got.Bids)
		}
	})

	t.Run("room is idle again", func(t *testing.T) {
		_, err := store.GetInFlightRound(ctx, f.room.ID)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected no in-flight round, got %v", err)
		}
		startRound(t, store, f, f.items[1], 1)
	})
}

func TestSQLiteStore_SettlementGuards(t *testing.T) {
	ctx := context.Background()

	t.Run("insufficient budget rolls back", func(t *testing.T) {
		store := newTestStore(t)
		f := seedRoom(t, store, []string{"Alice", "Bob"}, models.Forward)
		r := startRound(t, store, f, f.items[0], 0)
		store.DeactivateRound(ctx, r.ID, models.DeadlineElapsed, t0.Add(30*time.Second))

		err := store.ApplySettlement(ctx, &models.Outcome{
			RoundID: r.ID, RoomID: f.room.ID, Item: *f.items[0],
			WinnerID: f.participants[1].ID, Price: 501, NewTurn: 1,
		})
		if !errors.Is(err, auction.ErrInsufficientBudget) {
			t.Fatalf("Expected ErrInsufficientBudget, got %v", err)
		}

		got, _ := store.GetRound(ctx, r.ID)
		if !got.SettledAt.IsZero() {
			t.Error("Expected settlement mark to be rolled back")
		}
		unsettled, _ := store.ListUnsettledRounds(ctx)
		if len(unsettled) != 1 {
			t.Errorf("Expected 1 unsettled round, got %d", len(unsettled))
		}
	})

	t.Run("last item completes the room", func(t *testing.T) {
		store := newTestStore(t)
		f := seedRoom(t, store, []string{"Alice"}, models.Forward)
		r := startRound(t, store, f, f.items[0], 0)
		store.DeactivateRound(ctx, r.ID, models.DeadlineElapsed, t0.Add(30*time.Second))

		o := &models.Outcome{
			RoundID: r.ID, RoomID: f.room.ID, Item: *f.items[0],
			WinnerID: f.participants[0].ID, Price: 1, Fallback: true,
		}
		if err := store.ApplySettlement(ctx, o); err != nil {
			t.Fatalf("ApplySettlement failed: %v", err)
		}
		if !o.RoomCompleted {
			t.Error("Expected RoomCompleted")
		}
		room, _ := store.GetRoom(ctx, f.room.ID)
		if room.Status != models.RoomCompleted {
			t.Errorf("Status = %s, want completed", room.Status)
		}
	})
}

func TestSQLiteStore_AdvanceTurn(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	f := seedRoom(t, store, []string{"Alice", "Bob", "Carol"}, models.Forward)

	if err := store.AdvanceTurn(ctx, f.room.ID, 0, 1); err != nil {
		t.Fatalf("AdvanceTurn failed: %v", err)
	}
	if err := store.AdvanceTurn(ctx, f.room.ID, 0, 1); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("Expected ErrConflict on stale turn, got %v", err)
	}

	startRound(t, store, f, f.items[0], 1)
	if err := store.AdvanceTurn(ctx, f.room.ID, 1, 2); !errors.Is(err, auction.ErrRoundInFlight) {
		t.Errorf("Expected ErrRoundInFlight, got %v", err)
	}

	if err := store.AdvanceTurn(ctx, "missing", 0, 1); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStore_ExpiredRounds(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	f := seedRoom(t, store, []string{"Alice", "Bob"}, models.Forward)
	r := startRound(t, store, f, f.items[0], 0)

	expired, err := store.ListExpiredRounds(ctx, t0.Add(29*time.Second))
	if err != nil {
		t.Fatalf("ListExpiredRounds failed: %v", err)
	}
	if len(expired) != 0 {
		t.Errorf("Expected no expired rounds, got %d", len(expired))
	}

	expired, _ = store.ListExpiredRounds(ctx, t0.Add(30*time.Second))
	if len(expired) != 1 || expired[0].ID != r.ID {
		t.Errorf("Expected round %s to be expired, got %+v", r.ID, expired)
	}

	active, _ := store.ListActiveRounds(ctx)
	if len(active) != 1 {
		t.Errorf("Expected 1 active round, got %d", len(active))
	}
}

func TestSQLiteStore_BidTimestampsKeepFullPrecision(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	f := seedRoom(t, store, []string{"Alice", "Bob"}, models.Forward)
	r := startRound(t, store, f, f.items[0], 0)
	alice, bob := f.participants[0].ID, f.participants[1].ID
	base := t0.Add(5 * time.Second)

	// Bob commits first but Alice's timestamp is earlier within the same millisecond.
	if _, err := store.UpsertBid(ctx, r.ID, bob, 20, base.Add(700*time.Microsecond)); err != nil {
		t.Fatalf("UpsertBid failed: %v", err)
	}
	if _, err := store.UpsertBid(ctx, r.ID, alice, 20, base.Add(300*time.Microsecond)); err != nil {
		t.Fatalf("UpsertBid failed: %v", err)
	}

	bids, err := store.ListBids(ctx, r.ID)
	if err != nil {
		t.Fatalf("ListBids failed: %v", err)
	}
	if len(bids) != 2 {
		t.Fatalf("Expected 2 bids, got %d", len(bids))
	}
	if !bids[0].PlacedAt.Equal(base.Add(300 * time.Microsecond)) {
		t.Errorf("PlacedAt = %v, want %v", bids[0].PlacedAt, base.Add(300*time.Microsecond))
	}

	winner, ok := auction.NewBook(r.StartTime, bids).Winner()
	if !ok || winner.ParticipantID != alice {
		t.Errorf("Expected Alice to win the tie, got %+v", winner)
	}

	// History keeps the same precision.
	store.DeactivateRound(ctx, r.ID, models.DeadlineElapsed, t0.Add(30*time.Second))
	outcome := &models.Outcome{
		RoundID:   r.ID,
		RoomID:    f.room.ID,
		Item:      *f.items[0],
		WinnerID:  alice,
		Price:     20,
		NewTurn:   1,
		SettledAt: t0.Add(30 * time.Second),
		Bids:      auction.NewBook(r.StartTime, bids).Records(nil),
	}
	if err := store.ApplySettlement(ctx, outcome); err != nil {
		t.Fatalf("ApplySettlement failed: %v", err)
	}
	got, err := store.GetOutcome(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetOutcome failed: %v", err)
	}
	if len(got.Bids) != 2 || got.Bids[0].Offset != 5*time.Second+300*time.Microsecond {
		t.Errorf("Unexpected outcome bids: %+v", got.Bids)
	}
}

func TestSQLiteStore_SettlementFillsBidNames(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	f := seedRoom(t, store, []string{"Alice", "Bob"}, models.Forward)
	r := startRound(t, store, f, f.items[0], 0)
	store.DeactivateRound(ctx, r.ID, models.DeadlineElapsed, t0.Add(30*time.Second))

	outcome := &models.Outcome{
		RoundID:   r.ID,
		RoomID:    f.room.ID,
		Item:      *f.items[0],
		WinnerID:  f.participants[1].ID,
		Price:     12,
		NewTurn:   1,
		SettledAt: t0.Add(30 * time.Second),
		Bids: []models.BidRecord{
			{ParticipantID: f.participants[1].ID, Amount: 12, PlacedAt: t0.Add(3 * time.Second), Offset: 3 * time.Second},
			{ParticipantID: f.participants[0].ID, DisplayName: "Al", Amount: 9, PlacedAt: t0.Add(time.Second), Offset: time.Second},
		},
	}
	if err := store.ApplySettlement(ctx, outcome); err != nil {
		t.Fatalf("ApplySettlement failed: %v", err)
	}

	got, err := store.GetOutcome(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetOutcome failed: %v", err)
	}
	if got.Bids[0].DisplayName != "Bob" {
		t.Errorf("DisplayName = %q, want Bob", got.Bids[0].DisplayName)
	}
	if got.Bids[1].DisplayName != "Al" {
		t.Errorf("DisplayName = %q, want the given name kept", got.Bids[1].DisplayName)
	}
}

func TestSQLiteStore_GetLatestRoundForItem(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	f := seedRoom(t, store, []string{"Alice", "Bob"}, models.Forward, models.Defender)

	_, err := store.GetLatestRoundForItem(ctx, f.room.ID, f.items[0].ID)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	r := startRound(t, store, f, f.items[0], 0)
	got, err := store.GetLatestRoundForItem(ctx, f.room.ID, f.items[0].ID)
	if err != nil {
		t.Fatalf("GetLatestRoundForItem failed: %v", err)
	}
	if got.ID != r.ID || !got.Active {
		t.Errorf("Unexpected round: %+v", got)
	}

	_, err = store.GetLatestRoundForItem(ctx, "other-room", f.items[0].ID)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for another room, got %v", err)
	}
}
