package classifier

// Top returns the index and confidence of the best label.
//
// The scan is seeded at (0, 0) and only a strictly greater value replaces the
// current best, so ties keep the earliest label and an all-zero result
// reports index 0.
func Top(res *Result) (index int, confidence float32) {
	if res == nil {
		return 0, 0
	}
	for i, s := range res.Classification {
		if s.Value > confidence {
			confidence = s.Value
			index = i
		}
	}
	return index, confidence
}
