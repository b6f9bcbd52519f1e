// Package auction holds the rules of the draft auction with no I/O:
// budget and roster accounting (Ledger), bid ranking and winner selection
// (Book), turn arithmetic, round deadlines and the round state machine.
//
// Everything here is deterministic given its inputs; the engine package
// supplies storage, time and notification.
package auction

// FallbackPrice is what the nominator pays when a round closes without a
// positive bid.
const FallbackPrice = 1
