package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/draftbid/internal/models"
	"github.com/mmynk/draftbid/internal/storage"
)

// CreateRoom persists a new room and its participants.
func (s *SQLiteStore) CreateRoom(ctx context.Context, room *models.Room, participants []*models.Participant) error {
	// Generate IDs if not set
	if room.ID == "" {
		room.ID = uuid.New().String()
	}
	if room.CreatedAt == 0 {
		room.CreatedAt = time.Now().Unix()
	}
	if room.Status == "" {
		room.Status = models.RoomSetup
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO rooms (id, name, status, default_budget, current_turn, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			room.ID, room.Name, room.Status, room.DefaultBudget, room.CurrentTurn, room.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert room: %w", err)
		}

		for _, p := range participants {
			if p.ID == "" {
				p.ID = uuid.New().String()
			}
			p.RoomID = room.ID
			if p.CreatedAt == 0 {
				p.CreatedAt = room.CreatedAt
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO participants (id, room_id, display_name, budget, turn_order, created_at)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				p.ID, p.RoomID, p.DisplayName, p.Budget, p.TurnOrder, p.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to insert participant: %w", err)
			}
		}
		return nil
	})
}

// GetRoom retrieves a room by ID.
func (s *SQLiteStore) GetRoom(ctx context.Context, roomID string) (*models.Room, error) {
	return getRoom(ctx, s.db, roomID)
}

func getRoom(ctx context.Context, q querier, roomID string) (*models.Room, error) {
	room := &models.Room{}
	err := q.QueryRowContext(ctx,
		"SELECT id, name, status, default_budget, current_turn, created_at FROM rooms WHERE id = ?",
		roomID,
	).Scan(&room.ID, &room.Name, &room.Status, &room.DefaultBudget, &room.CurrentTurn, &room.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("room %s: %w", roomID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return room, nil
}

// ListRooms retrieves all rooms, newest first.
func (s *SQLiteStore) ListRooms(ctx context.Context) ([]*models.Room, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, status, default_budget, current_turn, created_at FROM rooms ORDER BY created_at DESC, id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*models.Room
	for rows.Next() {
		room := &models.Room{}
		if err := rows.Scan(&room.ID, &room.Name, &room.Status, &room.DefaultBudget, &room.CurrentTurn, &room.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rooms: %w", err)
	}
	return rooms, nil
}

// UpdateRoomStatus moves a room between statuses if it is still in from.
func (s *SQLiteStore) UpdateRoomStatus(ctx context.Context, roomID string, from, to models.RoomStatus) (bool, error) {
	query := "UPDATE rooms SET status = ? WHERE id = ? AND status = ?"
	args := []any{to, roomID, from}
	if to == models.RoomPaused {
		// A round in flight must settle before the room can pause.
		query += " AND NOT EXISTS (SELECT 1 FROM rounds WHERE room_id = ? AND settled_at IS NULL)"
		args = append(args, roomID)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update room status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}

// ListParticipants returns the room's participants in turn order with their
// per-category counts.
func (s *SQLiteStore) ListParticipants(ctx context.Context, roomID string) ([]*models.Participant, error) {
	return listParticipants(ctx, s.db, roomID)
}

func listParticipants(ctx context.Context, q querier, roomID string) ([]*models.Participant, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, room_id, display_name, budget, turn_order, created_at
		 FROM participants WHERE room_id = ? ORDER BY turn_order`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var participants []*models.Participant
	byID := make(map[string]*models.Participant)
	for rows.Next() {
		p := &models.Participant{Counts: make(map[models.Category]int)}
		if err := rows.Scan(&p.ID, &p.RoomID, &p.DisplayName, &p.Budget, &p.TurnOrder, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
		byID[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}
	rows.Close()

	countRows, err := q.QueryContext(ctx,
		`SELECT allocated_to, category, COUNT(*) FROM items
		 WHERE room_id = ? AND allocated = 1
		 GROUP BY allocated_to, category`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count roster: %w", err)
	}
	defer countRows.Close()

	for countRows.Next() {
		var (
			participantID string
			category      models.Category
			n             int
		)
		if err := countRows.Scan(&participantID, &category, &n); err != nil {
			return nil, fmt.Errorf("failed to scan roster count: %w", err)
		}
		if p, ok := byID[participantID]; ok {
			p.Counts[category] = n
		}
	}
	if err := countRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate roster counts: %w", err)
	}

	return participants, nil
}

// displayNames returns a map of participant ID to display name.
// IDs that don't exist are omitted from the result.
func displayNames(ctx context.Context, q querier, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	query := `SELECT id, display_name FROM participants WHERE id IN (?` + repeatPlaceholder(len(ids)-1) + `)`
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get participant names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan participant name: %w", err)
		}
		names[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participant names: %w", err)
	}
	return names, nil
}

// AddItems persists new unallocated items for a room.
func (s *SQLiteStore) AddItems(ctx context.Context, roomID string, items []*models.Item) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := getRoom(ctx, tx, roomID); err != nil {
			return err
		}
		for _, item := range items {
			if item.ID == "" {
				item.ID = uuid.New().String()
			}
			item.RoomID = roomID
			_, err := tx.ExecContext(ctx,
				"INSERT INTO items (id, room_id, name, category, team) VALUES (?, ?, ?, ?, ?)",
				item.ID, roomID, item.Name, item.Category, item.Team,
			)
			if err != nil {
				return fmt.Errorf("failed to insert item: %w", err)
			}
		}
		return nil
	})
}

const itemColumns = "id, room_id, name, category, team, allocated, allocated_to, price, round_id"

func scanItem(row interface{ Scan(...any) error }) (*models.Item, error) {
	item := &models.Item{}
	var allocatedTo, roundID sql.NullString
	if err := row.Scan(&item.ID, &item.RoomID, &item.Name, &item.Category, &item.Team,
		&item.Allocated, &allocatedTo, &item.Price, &roundID); err != nil {
		return nil, err
	}
	item.AllocatedTo = allocatedTo.String
	item.RoundID = roundID.String
	return item, nil
}

// GetItem retrieves an item by ID.
func (s *SQLiteStore) GetItem(ctx context.Context, itemID string) (*models.Item, error) {
	return getItem(ctx, s.db, itemID)
}

func getItem(ctx context.Context, q querier, itemID string) (*models.Item, error) {
	item, err := scanItem(q.QueryRowContext(ctx,
		"SELECT "+itemColumns+" FROM items WHERE id = ?", itemID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("item %s: %w", itemID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// ListItems retrieves all items of a room.
func (s *SQLiteStore) ListItems(ctx context.Context, roomID string) ([]*models.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+itemColumns+" FROM items WHERE room_id = ? ORDER BY category, name",
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []*models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	return items, nil
}
