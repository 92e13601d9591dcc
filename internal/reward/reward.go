package reward

// Dice is the randomness source used by outcome rolls. *rand.Rand satisfies it.
type Dice interface {
	Intn(n int) int
	Float64() float64
}

// DistributeFairly splits total across n recipients so that the shares sum
// to total and differ by at most one. The first total%n entries receive the
// extra unit, so callers order recipients with the organizer first.
// n < 1 yields nil; a negative total is treated as zero.
func DistributeFairly(total int64, n int) []int64 {
	if n < 1 {
		return nil
	}
	if total < 0 {
		total = 0
	}
	base := total / int64(n)
	remainder := int(total % int64(n))
	shares := make([]int64, n)
	for i := range shares {
		shares[i] = base
		if i < remainder {
			shares[i]++
		}
	}
	return shares
}

// Succeeds rolls once against rate in [0,1].
func Succeeds(d Dice, rate float64) bool {
	if rate <= 0 {
		return false
	}
	if rate >= 1 {
		return true
	}
	return d.Float64() < rate
}

// RollRange returns a uniform integer in [lo, hi].
func RollRange(d Dice, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + d.Intn(hi-lo+1)
}

// Pick draws one value from totals uniformly. An empty set yields 0.
func Pick(d Dice, totals []int64) int64 {
	if len(totals) == 0 {
		return 0
	}
	return totals[d.Intn(len(totals))]
}
