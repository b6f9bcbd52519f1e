package auction

import (
	"sort"
	"time"

	"github.com/mmynk/draftbid/internal/models"
)

// Revise applies a new submission to a participant's current bid.
// The tie-break timestamp only moves when the amount changes, so resubmitting
// the same amount keeps the bidder's place in a tie. nextSeq is used for the
// same reason and is ignored when the amount is unchanged.
func Revise(prev *models.Bid, roundID, participantID string, amount int, now time.Time, nextSeq int64) models.Bid {
	if prev != nil && prev.Amount == amount {
		return *prev
	}
	return models.Bid{
		RoundID:       roundID,
		ParticipantID: participantID,
		Amount:        amount,
		PlacedAt:      now,
		Seq:           nextSeq,
	}
}

// Rank orders bids by amount descending, then by tie-break timestamp
// ascending, then by store sequence. The input slice is not modified.
func Rank(bids []models.Bid) []models.Bid {
	ranked := make([]models.Bid, len(bids))
	copy(ranked, bids)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Amount != b.Amount {
			return a.Amount > b.Amount
		}
		if !a.PlacedAt.Equal(b.PlacedAt) {
			return a.PlacedAt.Before(b.PlacedAt)
		}
		if a.Seq != b.Seq {
			return a.Seq < b.Seq
		}
		return a.ParticipantID < b.ParticipantID
	})
	return ranked
}

// Book is the set of current bids for one round.
type Book struct {
	start  time.Time
	ranked []models.Bid
}

// NewBook builds a book from the stored bids of a round that started at start.
// Bids from the same participant are collapsed, keeping the latest revision.
func NewBook(start time.Time, bids []models.Bid) *Book {
	latest := make(map[string]models.Bid, len(bids))
	for _, b := range bids {
		cur, ok := latest[b.ParticipantID]
		if !ok || b.Seq > cur.Seq {
			latest[b.ParticipantID] = b
		}
	}
	flat := make([]models.Bid, 0, len(latest))
	for _, b := range latest {
		flat = append(flat, b)
	}
	return &Book{start: start, ranked: Rank(flat)}
}

// Len returns the number of bidders, passes included.
func (b *Book) Len() int {
	return len(b.ranked)
}

// Ranked returns every bid in ranking order, passes included.
func (b *Book) Ranked() []models.Bid {
	return b.ranked
}

// Candidates returns the bids that can win, in ranking order.
// A zero amount is a pass and is never a candidate.
func (b *Book) Candidates() []models.Bid {
	var out []models.Bid
	for _, bid := range b.ranked {
		if bid.Amount > 0 {
			out = append(out, bid)
		}
	}
	return out
}

// Winner returns the highest positive bid, earliest timestamp first on ties.
func (b *Book) Winner() (models.Bid, bool) {
	for _, bid := range b.ranked {
		if bid.Amount > 0 {
			return bid, true
		}
	}
	return models.Bid{}, false
}

// Records returns the audit view of the book. names maps participant IDs to
// display names; missing names are left empty.
func (b *Book) Records(names map[string]string) []models.BidRecord {
	records := make([]models.BidRecord, 0, len(b.ranked))
	for _, bid := range b.ranked {
		offset := bid.PlacedAt.Sub(b.start)
		if offset < 0 {
			offset = 0
		}
		records = append(records, models.BidRecord{
			ParticipantID: bid.ParticipantID,
			DisplayName:   names[bid.ParticipantID],
			Amount:        bid.Amount,
			PlacedAt:      bid.PlacedAt,
			Offset:        offset,
		})
	}
	return records
}
