package auction

import (
	"fmt"

	"github.com/mmynk/draftbid/internal/models"
)

// Quota maps each category to the maximum number of items a participant may hold.
type Quota map[models.Category]int

// DefaultQuota is the fixed roster shape: 3 goalkeepers, 8 defenders,
// 8 midfielders and 6 forwards.
var DefaultQuota = Quota{
	models.Goalkeeper: 3,
	models.Defender:   8,
	models.Midfielder: 8,
	models.Forward:    6,
}

// RosterCap is the total roster size implied by DefaultQuota.
const RosterCap = 25

// Limit returns the quota for cat. Unknown categories have no room at all.
func (q Quota) Limit(cat models.Category) int {
	return q[cat]
}

// Total returns the sum of all category quotas.
func (q Quota) Total() int {
	total := 0
	for _, n := range q {
		total += n
	}
	return total
}

// Ledger is a participant's remaining budget and per-category item counts.
// It is a value type: Charge returns a new Ledger and leaves the receiver untouched.
type Ledger struct {
	Budget int
	Counts map[models.Category]int
	Quota  Quota

	// ReserveOpenSlots keeps one credit aside for every other empty roster
	// slot when computing MaxBid.
	ReserveOpenSlots bool
}

// NewLedger builds the ledger for p under the default quota.
func NewLedger(p *models.Participant, reserveOpenSlots bool) Ledger {
	counts := make(map[models.Category]int, len(p.Counts))
	for cat, n := range p.Counts {
		counts[cat] = n
	}
	return Ledger{
		Budget:           p.Budget,
		Counts:           counts,
		Quota:            DefaultQuota,
		ReserveOpenSlots: reserveOpenSlots,
	}
}

// Held returns the number of items on the roster.
func (l Ledger) Held() int {
	total := 0
	for _, n := range l.Counts {
		total += n
	}
	return total
}

// OpenSlots returns the number of roster slots still empty.
func (l Ledger) OpenSlots() int {
	open := l.Quota.Total() - l.Held()
	if open < 0 {
		return 0
	}
	return open
}

// MaxBid is the highest amount the participant can bid right now.
func (l Ledger) MaxBid() int {
	if !l.ReserveOpenSlots || l.OpenSlots() <= 1 {
		return l.Budget
	}
	ceiling := l.Budget - (l.OpenSlots() - 1)
	if ceiling < 0 {
		return 0
	}
	return ceiling
}

// CanAfford reports whether amount is within the participant's bid ceiling.
func (l Ledger) CanAfford(amount int) bool {
	return amount >= 0 && amount <= l.MaxBid()
}

// HasQuota reports whether one more item of cat fits on the roster.
func (l Ledger) HasQuota(cat models.Category) bool {
	return l.Counts[cat] < l.Quota.Limit(cat)
}

// Charge deducts price and adds one item of cat. The ceiling reserve does not
// apply here: a settlement only needs the budget to stay non-negative.
func (l Ledger) Charge(cat models.Category, price int) (Ledger, error) {
	if price < 0 {
		return l, fmt.Errorf("%w: price %d", ErrInvalidAmount, price)
	}
	if price > l.Budget {
		return l, fmt.Errorf("%w: price %d, budget %d", ErrInsufficientBudget, price, l.Budget)
	}
	if !l.HasQuota(cat) {
		return l, fmt.Errorf("%w: %s at %d/%d", ErrQuotaExceeded, cat, l.Counts[cat], l.Quota.Limit(cat))
	}

	next := l
	next.Budget = l.Budget - price
	next.Counts = make(map[models.Category]int, len(l.Counts)+1)
	for c, n := range l.Counts {
		next.Counts[c] = n
	}
	next.Counts[cat]++
	return next, nil
}

// CheckBid validates a bid amount against the ledger. A zero amount is a pass
// and only needs the quota check.
func (l Ledger) CheckBid(cat models.Category, amount int) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	if amount > 0 && !l.CanAfford(amount) {
		return fmt.Errorf("%w: bid %d, max %d", ErrInsufficientBudget, amount, l.MaxBid())
	}
	if !l.HasQuota(cat) {
		return fmt.Errorf("%w: %s at %d/%d", ErrQuotaExceeded, cat, l.Counts[cat], l.Quota.Limit(cat))
	}
	return nil
}
