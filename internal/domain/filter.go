package domain

// FilterSince returns the readings whose calendar date is on or after cutoff,
// in their original order. The input slice is not modified.
func FilterSince(readings []Reading, cutoff Date) []Reading {
	out := make([]Reading, 0, len(readings))
	for _, r := range readings {
		if !DateOf(r.Time).Before(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

// ActiveChannels returns, in ascending order, the channels among candidates
// that have at least one present value in readings.
func ActiveChannels(readings []Reading, candidates []int) []int {
	var active []int
	for _, ch := range candidates {
		for _, r := range readings {
			if _, ok := r.Values[ch]; ok {
				active = append(active, ch)
				break
			}
		}
	}
	return active
}

// BuildSeries collects the present values of each channel in order.
func BuildSeries(readings []Reading, channels []int) []SensorSeries {
	series := make([]SensorSeries, 0, len(channels))
	for _, ch := range channels {
		s := SensorSeries{Channel: ch}
		for _, r := range readings {
			if v, ok := r.Values[ch]; ok {
				s.Points = append(s.Points, Point{Time: r.Time, Value: v})
			}
		}
		series = append(series, s)
	}
	return series
}
