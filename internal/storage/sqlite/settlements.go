package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mmynk/draftbid/internal/auction"
	"github.com/mmynk/draftbid/internal/models"
	"github.com/mmynk/draftbid/internal/storage"
)

// ApplySettlement commits a round outcome in one transaction. Every write is
// conditional, so a second attempt for the same round fails cleanly with
// ErrAlreadySettled instead of charging twice.
func (s *SQLiteStore) ApplySettlement(ctx context.Context, o *models.Outcome) error {
	if o.SettledAt.IsZero() {
		o.SettledAt = time.Now().UTC()
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE rounds SET settled_at = ? WHERE id = ? AND active = 0 AND settled_at IS NULL",
			toMillis(o.SettledAt), o.RoundID,
		)
		if err != nil {
			return fmt.Errorf("failed to mark round settled: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if n == 0 {
			r, err := getRound(ctx, tx, o.RoundID)
			if err != nil {
				return err
			}
			if !r.SettledAt.IsZero() {
				return storage.ErrAlreadySettled
			}
			return fmt.Errorf("round %s is still active: %w", o.RoundID, storage.ErrConflict)
		}

		item, err := getItem(ctx, tx, o.Item.ID)
		if err != nil {
			return err
		}
		if item.Allocated {
			return fmt.Errorf("item %s: %w", item.ID, auction.ErrItemUnavailable)
		}

		var held int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM items WHERE allocated_to = ? AND category = ? AND allocated = 1",
			o.WinnerID, item.Category,
		).Scan(&held); err != nil {
			return fmt.Errorf("failed to count roster: %w", err)
		}
		if held >= auction.DefaultQuota.Limit(item.Category) {
			return fmt.Errorf("participant %s: %w", o.WinnerID, auction.ErrQuotaExceeded)
		}

		res, err = tx.ExecContext(ctx,
			"UPDATE participants SET budget = budget - ? WHERE id = ? AND room_id = ? AND budget >= ?",
			o.Price, o.WinnerID, o.RoomID, o.Price,
		)
		if err != nil {
			return fmt.Errorf("failed to charge participant: %w", err)
		}
		n, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("participant %s: %w", o.WinnerID, auction.ErrInsufficientBudget)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE items SET allocated = 1, allocated_to = ?, price = ?, round_id = ?
			 WHERE id = ? AND allocated = 0`,
			o.WinnerID, o.Price, o.RoundID, item.ID,
		); err != nil {
			return fmt.Errorf("failed to allocate item: %w", err)
		}
		o.Item = *item
		o.Item.Allocated = true
		o.Item.AllocatedTo = o.WinnerID
		o.Item.Price = o.Price
		o.Item.RoundID = o.RoundID

		if _, err := tx.ExecContext(ctx,
			"UPDATE rooms SET current_turn = ? WHERE id = ?", o.NewTurn, o.RoomID,
		); err != nil {
			return fmt.Errorf("failed to advance turn: %w", err)
		}

		var remaining int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM items WHERE room_id = ? AND allocated = 0", o.RoomID,
		).Scan(&remaining); err != nil {
			return fmt.Errorf("failed to count remaining items: %w", err)
		}
		o.RoomCompleted = remaining == 0
		if o.RoomCompleted {
			if _, err := tx.ExecContext(ctx,
				"UPDATE rooms SET status = ? WHERE id = ?", models.RoomCompleted, o.RoomID,
			); err != nil {
				return fmt.Errorf("failed to complete room: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO outcomes (round_id, room_id, item_id, winner_id, price, fallback,
			 previous_turn, new_turn, room_completed, settled_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			o.RoundID, o.RoomID, item.ID, o.WinnerID, o.Price, o.Fallback,
			o.PreviousTurn, o.NewTurn, o.RoomCompleted, toMillis(o.SettledAt),
		); err != nil {
			return fmt.Errorf("failed to insert outcome: %w", err)
		}

		if err := fillBidNames(ctx, tx, o.Bids); err != nil {
			return err
		}
		for i, b := range o.Bids {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO outcome_bids (round_id, position, participant_id, display_name, amount, placed_at, offset_ns)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				o.RoundID, i, b.ParticipantID, b.DisplayName, b.Amount, toNanos(b.PlacedAt), int64(b.Offset),
			); err != nil {
				return fmt.Errorf("failed to insert outcome bid: %w", err)
			}
		}
		return nil
	})
}

// fillBidNames sets the display name of history rows that arrive without one.
func fillBidNames(ctx context.Context, q querier, bids []models.BidRecord) error {
	var missing []string
	for _, b := range bids {
		if b.DisplayName == "" {
			missing = append(missing, b.ParticipantID)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	names, err := displayNames(ctx, q, missing)
	if err != nil {
		return err
	}
	for i := range bids {
		if bids[i].DisplayName == "" {
			bids[i].DisplayName = names[bids[i].ParticipantID]
		}
	}
	return nil
}

// GetOutcome retrieves the settled result of a round, including its bid history.
func (s *SQLiteStore) GetOutcome(ctx context.Context, roundID string) (*models.Outcome, error) {
	o := &models.Outcome{}
	var (
		settledAt   int64
		allocatedTo sql.NullString
		itemRound   sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT o.round_id, o.room_id, o.winner_id, p.display_name, o.price, o.fallback,
		        o.previous_turn, o.new_turn, o.room_completed, o.settled_at,
		        i.id, i.room_id, i.name, i.category, i.team, i.allocated, i.allocated_to, i.price, i.round_id
		 FROM outcomes o
		 JOIN participants p ON p.id = o.winner_id
		 JOIN items i ON i.id = o.item_id
		 WHERE o.round_id = ?`,
		roundID,
	).Scan(&o.RoundID, &o.RoomID, &o.WinnerID, &o.WinnerName, &o.Price, &o.Fallback,
		&o.PreviousTurn, &o.NewTurn, &o.RoomCompleted, &settledAt,
		&o.Item.ID, &o.Item.RoomID, &o.Item.Name, &o.Item.Category, &o.Item.Team,
		&o.Item.Allocated, &allocatedTo, &o.Item.Price, &itemRound)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("outcome for round %s: %w", roundID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get outcome: %w", err)
	}
	o.SettledAt = fromMillis(settledAt)
	o.Item.AllocatedTo = allocatedTo.String
	o.Item.RoundID = itemRound.String

	rows, err := s.db.QueryContext(ctx,
		`SELECT participant_id, display_name, amount, placed_at, offset_ns
		 FROM outcome_bids WHERE round_id = ? ORDER BY position`,
		roundID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get outcome bids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			b        models.BidRecord
			placedAt int64
			offsetNs int64
		)
		if err := rows.Scan(&b.ParticipantID, &b.DisplayName, &b.Amount, &placedAt, &offsetNs); err != nil {
			return nil, fmt.Errorf("failed to scan outcome bid: %w", err)
		}
		b.PlacedAt = fromNanos(placedAt)
		b.Offset = time.Duration(offsetNs)
		o.Bids = append(o.Bids, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outcome bids: %w", err)
	}

	return o, nil
}

// ListOutcomes retrieves every settled result of a room, oldest first.
func (s *SQLiteStore) ListOutcomes(ctx context.Context, roomID string) ([]*models.Outcome, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT round_id FROM outcomes WHERE room_id = ? ORDER BY settled_at, round_id",
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list outcomes: %w", err)
	}

	var roundIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		roundIDs = append(roundIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outcomes: %w", err)
	}

	outcomes := make([]*models.Outcome, 0, len(roundIDs))
	for _, id := range roundIDs {
		o, err := s.GetOutcome(ctx, id)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, nil
}

// AdvanceTurn moves the turn pointer outside of a settlement (a skip).
func (s *SQLiteStore) AdvanceTurn(ctx context.Context, roomID string, expected, next int) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var inFlight string
		err := tx.QueryRowContext(ctx,
			"SELECT id FROM rounds WHERE room_id = ? AND settled_at IS NULL", roomID,
		).Scan(&inFlight)
		if err == nil {
			return auction.ErrRoundInFlight
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("failed to check in-flight round: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			"UPDATE rooms SET current_turn = ? WHERE id = ? AND current_turn = ?",
			next, roomID, expected,
		)
		if err != nil {
			return fmt.Errorf("failed to advance turn: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if n == 0 {
			if _, err := getRoom(ctx, tx, roomID); err != nil {
				return err
			}
			return fmt.Errorf("turn of room %s moved: %w", roomID, storage.ErrConflict)
		}
		return nil
	})
}
