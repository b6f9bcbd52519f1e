package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/mmynk/draftbid/internal/events"
	"github.com/mmynk/draftbid/internal/models"
	"github.com/mmynk/draftbid/internal/storage"
	"github.com/mmynk/draftbid/internal/storage/sqlite"
)

var t0 = time.Date(2026, 9, 1, 20, 0, 0, 0, time.UTC)

// fakeClock fires timers only when advanced.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	fn      func()
	done    bool
	stopped bool
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward and runs due timers in deadline order on the
// calling goroutine.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.done && !t.stopped && !t.at.After(c.now) {
			t.done = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, t := range due {
		t.fn()
	}
}

// Pending returns the number of armed timers.
func (c *fakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.done && !t.stopped {
			n++
		}
	}
	return n
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	armed := !t.done && !t.stopped
	t.stopped = true
	return armed
}

// pendingDeadlines returns the number of tracked deadline timers.
func (e *Engine) pendingDeadlines() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.timers)
}

// recorder is a Publisher that keeps every event.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
	fail   bool
}

func (r *recorder) Publish(ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("publisher unavailable")
	}
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) ofType(typ events.Type) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, ev := range r.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

// flakyStore fails the next ApplySettlement calls.
type flakyStore struct {
	storage.Store
	mu       sync.Mutex
	failures int
}

func (s *flakyStore) ApplySettlement(ctx context.Context, o *models.Outcome) error {
	s.mu.Lock()
	if s.failures > 0 {
		s.failures--
		s.mu.Unlock()
		return errors.New("disk I/O error")
	}
	s.mu.Unlock()
	return s.Store.ApplySettlement(ctx, o)
}

type harness struct {
	engine       *Engine
	store        storage.Store
	clock        *fakeClock
	events       *recorder
	room         *models.Room
	participants []*models.Participant
	items        []*models.Item
}

func newSQLiteStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "engine.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// newHarness seeds a room with the named participants (budget each) and one
// item per category given, and returns an engine over it.
func newHarness(t *testing.T, store storage.Store, names []string, budget int, categories ...models.Category) *harness {
	t.Helper()
	ctx := context.Background()

	room := &models.Room{Name: "Friday Draft", DefaultBudget: budget}
	participants := make([]*models.Participant, len(names))
	for i, name := range names {
		participants[i] = &models.Participant{DisplayName: name, Budget: budget, TurnOrder: i}
	}
	if err := store.CreateRoom(ctx, room, participants); err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	items := make([]*models.Item, len(categories))
	for i, cat := range categories {
		items[i] = &models.Item{Name: "Player " + string(rune('A'+i)), Category: cat}
	}
	if len(items) > 0 {
		if err := store.AddItems(ctx, room.ID, items); err != nil {
			t.Fatalf("AddItems failed: %v", err)
		}
	}

	clock := newFakeClock(t0)
	rec := &recorder{}
	e := New(store, rec, Options{
		Clock:  clock,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return &harness{
		engine:       e,
		store:        store,
		clock:        clock,
		events:       rec,
		room:         room,
		participants: participants,
		items:        items,
	}
}

func (h *harness) start(t *testing.T, item *models.Item, turn int) *models.Round {
	t.Helper()
	r, err := h.engine.StartRound(context.Background(), StartRequest{
		RoomID:        h.room.ID,
		ItemID:        item.ID,
		ParticipantID: h.participants[turn].ID,
		ExpectedTurn:  turn,
	})
	if err != nil {
		t.Fatalf("StartRound failed: %v", err)
	}
	return r
}

func (h *harness) bid(t *testing.T, item *models.Item, participant, amount int) {
	t.Helper()
	_, err := h.engine.PlaceBid(context.Background(), BidRequest{
		RoomID:        h.room.ID,
		ItemID:        item.ID,
		ParticipantID: h.participants[participant].ID,
		Amount:        amount,
	})
	if err != nil {
		t.Fatalf("PlaceBid(%d, %d) failed: %v", participant, amount, err)
	}
}

func (h *harness) budgets(t *testing.T) []int {
	t.Helper()
	ps, err := h.store.ListParticipants(context.Background(), h.room.ID)
	if err != nil {
		t.Fatalf("ListParticipants failed: %v", err)
	}
	out := make([]int, len(ps))
	for i, p := range ps {
		out[i] = p.Budget
	}
	return out
}

func (h *harness) turn(t *testing.T) int {
	t.Helper()
	room, err := h.store.GetRoom(context.Background(), h.room.ID)
	if err != nil {
		t.Fatalf("GetRoom failed: %v", err)
	}
	return room.CurrentTurn
}
