package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/draftbid/internal/auction"
	"github.com/mmynk/draftbid/internal/models"
	"github.com/mmynk/draftbid/internal/storage"
)

const roundColumns = `id, room_id, item_id, nominator_id, turn_index, start_time, end_time,
	active, closed_at, close_reason, settled_at`

func scanRound(row interface{ Scan(...any) error }) (*models.Round, error) {
	r := &models.Round{}
	var (
		start, end          int64
		closedAt, settledAt sql.NullInt64
		reason              sql.NullString
	)
	if err := row.Scan(&r.ID, &r.RoomID, &r.ItemID, &r.NominatorID, &r.TurnIndex, &start, &end,
		&r.Active, &closedAt, &reason, &settledAt); err != nil {
		return nil, err
	}
	r.StartTime = fromMillis(start)
	r.EndTime = fromMillis(end)
	r.ClosedAt = fromNullMillis(closedAt)
	r.CloseReason = models.CloseReason(reason.String)
	r.SettledAt = fromNullMillis(settledAt)
	return r, nil
}

func queryRounds(ctx context.Context, q querier, query string, args ...any) ([]*models.Round, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rounds: %w", err)
	}
	defer rows.Close()

	var rounds []*models.Round
	for rows.Next() {
		r, err := scanRound(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		rounds = append(rounds, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rounds: %w", err)
	}
	return rounds, nil
}

// CreateRound persists a new active round after re-checking, inside one
// transaction, everything the engine validated before calling it.
func (s *SQLiteStore) CreateRound(ctx context.Context, round *models.Round, roomTurn int) error {
	if round.ID == "" {
		round.ID = uuid.New().String()
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		room, err := getRoom(ctx, tx, round.RoomID)
		if err != nil {
			return err
		}
		switch room.Status {
		case models.RoomPaused:
			return auction.ErrRoomPaused
		case models.RoomCompleted:
			return auction.ErrRoomCompleted
		}
		if room.CurrentTurn != roomTurn {
			return auction.ErrNotYourTurn
		}

		item, err := getItem(ctx, tx, round.ItemID)
		if err != nil {
			return err
		}
		if item.RoomID != round.RoomID {
			return fmt.Errorf("item %s in room %s: %w", round.ItemID, round.RoomID, storage.ErrNotFound)
		}
		if item.Allocated {
			return auction.ErrItemUnavailable
		}

		var existing string
		err = tx.QueryRowContext(ctx,
			"SELECT id FROM rounds WHERE room_id = ? AND settled_at IS NULL", round.RoomID,
		).Scan(&existing)
		if err == nil {
			return auction.ErrAlreadyActive
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("failed to check in-flight round: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO rounds (id, room_id, item_id, nominator_id, turn_index, start_time, end_time, active)
			 VALUES (?, ?, ?, ?, ?, ?, ?, 1)`,
			round.ID, round.RoomID, round.ItemID, round.NominatorID, round.TurnIndex,
			toMillis(round.StartTime), toMillis(round.EndTime),
		)
		if isUniqueViolation(err) {
			return auction.ErrAlreadyActive
		}
		if err != nil {
			return fmt.Errorf("failed to insert round: %w", err)
		}
		round.Active = true

		if room.Status == models.RoomSetup {
			if _, err := tx.ExecContext(ctx,
				"UPDATE rooms SET status = ? WHERE id = ?", models.RoomActive, room.ID,
			); err != nil {
				return fmt.Errorf("failed to activate room: %w", err)
			}
		}
		return nil
	})
}

// GetRound retrieves a round by ID.
func (s *SQLiteStore) GetRound(ctx context.Context, roundID string) (*models.Round, error) {
	return getRound(ctx, s.db, roundID)
}

func getRound(ctx context.Context, q querier, roundID string) (*models.Round, error) {
	r, err := scanRound(q.QueryRowContext(ctx,
		"SELECT "+roundColumns+" FROM rounds WHERE id = ?", roundID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("round %s: %w", roundID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get round: %w", err)
	}
	return r, nil
}

// GetInFlightRound returns the room's active or unsettled round.
func (s *SQLiteStore) GetInFlightRound(ctx context.Context, roomID string) (*models.Round, error) {
	r, err := scanRound(s.db.QueryRowContext(ctx,
		"SELECT "+roundColumns+" FROM rounds WHERE room_id = ? AND settled_at IS NULL", roomID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("in-flight round for room %s: %w", roomID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get in-flight round: %w", err)
	}
	return r, nil
}

// GetLatestRoundForItem returns the most recent round for an item.
func (s *SQLiteStore) GetLatestRoundForItem(ctx context.Context, roomID, itemID string) (*models.Round, error) {
	r, err := scanRound(s.db.QueryRowContext(ctx,
		"SELECT "+roundColumns+" FROM rounds WHERE room_id = ? AND item_id = ? ORDER BY start_time DESC LIMIT 1",
		roomID, itemID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("round for item %s: %w", itemID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get round for item: %w", err)
	}
	return r, nil
}

// DeactivateRound is the close CAS: only the update that observes active=1
// changes the row, and only its caller gets true.
func (s *SQLiteStore) DeactivateRound(ctx context.Context, roundID string, reason models.CloseReason, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE rounds SET active = 0, closed_at = ?, close_reason = ? WHERE id = ? AND active = 1",
		toMillis(at), reason, roundID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to deactivate round: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}

// ListActiveRounds returns every active round.
func (s *SQLiteStore) ListActiveRounds(ctx context.Context) ([]*models.Round, error) {
	return queryRounds(ctx, s.db,
		"SELECT "+roundColumns+" FROM rounds WHERE active = 1 ORDER BY end_time")
}

// ListExpiredRounds returns active rounds whose deadline has passed.
func (s *SQLiteStore) ListExpiredRounds(ctx context.Context, now time.Time) ([]*models.Round, error) {
	return queryRounds(ctx, s.db,
		"SELECT "+roundColumns+" FROM rounds WHERE active = 1 AND end_time <= ? ORDER BY end_time",
		toMillis(now))
}

// ListUnsettledRounds returns closed rounds with no committed settlement.
func (s *SQLiteStore) ListUnsettledRounds(ctx context.Context) ([]*models.Round, error) {
	return queryRounds(ctx, s.db,
		"SELECT "+roundColumns+" FROM rounds WHERE active = 0 AND settled_at IS NULL ORDER BY closed_at")
}

// UpsertBid records a bid. The round window is checked inside the same
// transaction as the write, so a bid either lands before the close flip and
// is seen by settlement, or is rejected.
func (s *SQLiteStore) UpsertBid(ctx context.Context, roundID, participantID string, amount int, now time.Time) (*models.Bid, error) {
	var out models.Bid
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		round, err := getRound(ctx, tx, roundID)
		if err != nil {
			return err
		}
		if err := auction.CheckBidWindow(round, now); err != nil {
			return err
		}

		var prev *models.Bid
		var placedAt int64
		existing := models.Bid{RoundID: roundID, ParticipantID: participantID}
		err = tx.QueryRowContext(ctx,
			"SELECT amount, placed_at, seq FROM bids WHERE round_id = ? AND participant_id = ?",
			roundID, participantID,
		).Scan(&existing.Amount, &placedAt, &existing.Seq)
		switch {
		case err == nil:
			existing.PlacedAt = fromNanos(placedAt)
			prev = &existing
		case err != sql.ErrNoRows:
			return fmt.Errorf("failed to get bid: %w", err)
		}

		var nextSeq int64
		if err := tx.QueryRowContext(ctx,
			"SELECT COALESCE(MAX(seq), 0) + 1 FROM bids WHERE round_id = ?", roundID,
		).Scan(&nextSeq); err != nil {
			return fmt.Errorf("failed to get bid sequence: %w", err)
		}

		out = auction.Revise(prev, roundID, participantID, amount, now, nextSeq)
		if prev != nil && out == *prev {
			return nil
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO bids (round_id, participant_id, amount, placed_at, seq) VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT (round_id, participant_id) DO UPDATE
			 SET amount = excluded.amount, placed_at = excluded.placed_at, seq = excluded.seq`,
			out.RoundID, out.ParticipantID, out.Amount, toNanos(out.PlacedAt), out.Seq,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert bid: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListBids returns the current bids of a round.
func (s *SQLiteStore) ListBids(ctx context.Context, roundID string) ([]models.Bid, error) {
	return listBids(ctx, s.db, roundID)
}

func listBids(ctx context.Context, q querier, roundID string) ([]models.Bid, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT round_id, participant_id, amount, placed_at, seq FROM bids
		 WHERE round_id = ? ORDER BY amount DESC, placed_at ASC, seq ASC`,
		roundID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids: %w", err)
	}
	defer rows.Close()

	var bids []models.Bid
	for rows.Next() {
		var b models.Bid
		var placedAt int64
		if err := rows.Scan(&b.RoundID, &b.ParticipantID, &b.Amount, &placedAt, &b.Seq); err != nil {
			return nil, fmt.Errorf("failed to scan bid: %w", err)
		}
		b.PlacedAt = fromNanos(placedAt)
		bids = append(bids, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bids: %w", err)
	}
	return bids, nil
}
