package quizpilot

// EstimateUnits provides a rough cost estimate for text exchanged with a
// remote model. Uses the approximation: ~4 chars per token + a small fixed
// overhead per piece. Exactness does not matter; the quota ceiling is
// itself an estimate.
func EstimateUnits(texts ...string) int64 {
	var total int64
	for _, t := range texts {
		total += int64(len(t)) / 4
		total += 4
	}
	return total
}
