package game

// Per-letter feedback marks, aligned to guess positions.
const (
	MarkGreen  = 'G'
	MarkYellow = 'Y'
	MarkBlack  = 'B'
)

// Score compares a guess against the target word and returns the feedback
// mask. Pass 1 fixes exact positional matches as green and tallies the
// remaining target letters; pass 2 hands out yellows left to right while the
// tally for that letter holds, so duplicate letters never earn more yellows
// than the target actually contains. Returns "" when the inputs are empty or
// of different lengths; callers must reject before scoring.
func Score(guess, target string) string {
	if guess == "" || target == "" || len(guess) != len(target) {
		return ""
	}

	out := make([]byte, len(guess))
	var counts [256]int
	for i := 0; i < len(guess); i++ {
		if guess[i] == target[i] {
			out[i] = MarkGreen
		} else {
			out[i] = MarkBlack
			counts[target[i]]++
		}
	}

	for i := 0; i < len(guess); i++ {
		if out[i] == MarkGreen {
			continue
		}
		if counts[guess[i]] > 0 {
			out[i] = MarkYellow
			counts[guess[i]]--
		}
	}
	return string(out)
}
