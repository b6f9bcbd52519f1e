package auction

// CurrentTurn normalizes a stored turn index against the current participant
// count. The participant list may have changed size since the index was
// written, so the index is always taken modulo n. Returns 0 when n is 0.
func CurrentTurn(turn, n int) int {
	if n <= 0 {
		return 0
	}
	idx := turn % n
	if idx < 0 {
		idx += n
	}
	return idx
}

// NextTurn returns the turn index after turn, cycling over n participants.
func NextTurn(turn, n int) int {
	if n <= 0 {
		return 0
	}
	return (CurrentTurn(turn, n) + 1) % n
}
